package models

import (
	"time"
)

// Role is a participant's tier within a meeting.
type Role string

const (
	RoleHost        Role = "host"
	RoleCoHost      Role = "co-host"
	RoleParticipant Role = "participant"
	RoleObserver    Role = "observer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleHost, RoleCoHost, RoleParticipant, RoleObserver:
		return true
	}
	return false
}

// Assignable reports whether r may be given to a participant after creation.
// The host tier is reserved for the meeting creator.
func (r Role) Assignable() bool {
	return r.Valid() && r != RoleHost
}

// Status is the persisted, explicitly transitioned meeting state.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "inProgress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a meeting in status s may move to next.
// Completed and cancelled are terminal.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return true
	}
	switch s {
	case StatusScheduled:
		return next == StatusInProgress || next == StatusCompleted || next == StatusCancelled
	case StatusInProgress:
		return next == StatusCompleted || next == StatusCancelled
	}
	return false
}

// Type describes how a meeting was scheduled.
type Type string

const (
	TypeScheduled Type = "scheduled"
	TypeInstant   Type = "instant"
	TypeRecurring Type = "recurring"
)

// Valid reports whether t is a known meeting type.
func (t Type) Valid() bool {
	switch t {
	case TypeScheduled, TypeInstant, TypeRecurring:
		return true
	}
	return false
}

// DerivedStatus is computed from the schedule and the current time. It is never stored.
type DerivedStatus string

const (
	DerivedScheduled DerivedStatus = "scheduled"
	DerivedLive      DerivedStatus = "live"
	DerivedToday     DerivedStatus = "today"
	DerivedUpcoming  DerivedStatus = "upcoming"
	DerivedEnded     DerivedStatus = "ended"
)

// Settings holds per-meeting feature toggles.
type Settings struct {
	AllowRecording    bool `json:"allowRecording" bson:"allow_recording"`
	AllowChat         bool `json:"allowChat" bson:"allow_chat"`
	AllowScreenShare  bool `json:"allowScreenShare" bson:"allow_screen_share"`
	MuteOnEntry       bool `json:"muteOnEntry" bson:"mute_on_entry"`
	WaitingRoom       bool `json:"waitingRoom" bson:"waiting_room"`
	PasswordProtected bool `json:"passwordProtected" bson:"password_protected"`
	// PasswordHash is bcrypt output; it never leaves the server.
	PasswordHash string `json:"-" bson:"password_hash,omitempty"`
}

// DefaultSettings returns the settings a new meeting starts with.
func DefaultSettings() Settings {
	return Settings{
		AllowRecording:   true,
		AllowChat:        true,
		AllowScreenShare: true,
	}
}

// Feedback is a participant's post-meeting rating.
type Feedback struct {
	Rating  int    `json:"rating" bson:"rating"`
	Comment string `json:"comment,omitempty" bson:"comment,omitempty"`
}

// Participant is an entry in a meeting's roster.
type Participant struct {
	ID                 string     `json:"id" bson:"id"`
	Name               string     `json:"name" bson:"name"`
	Email              string     `json:"email,omitempty" bson:"email,omitempty"`
	Image              string     `json:"image,omitempty" bson:"image,omitempty"`
	Role               Role       `json:"role" bson:"role"`
	IsActive           bool       `json:"isActive" bson:"is_active"`
	JoinedAt           *time.Time `json:"joinedAt,omitempty" bson:"joined_at,omitempty"`
	LeftAt             *time.Time `json:"leftAt,omitempty" bson:"left_at,omitempty"`
	TotalTimePresent   int64      `json:"totalTimePresent" bson:"total_time_present"`
	RegistrationStatus string     `json:"registrationStatus,omitempty" bson:"registration_status,omitempty"`
	Feedback           *Feedback  `json:"feedback,omitempty" bson:"feedback,omitempty"`
}

// Recording references a stored recording. Entries are appended by the media side.
type Recording struct {
	ID        string    `json:"id" bson:"id"`
	URL       string    `json:"url" bson:"url"`
	StartedAt time.Time `json:"startedAt" bson:"started_at"`
	Duration  int64     `json:"duration" bson:"duration"`
}

// Analytics is recomputed from the roster on attendance changes.
type Analytics struct {
	TotalParticipants int `json:"totalParticipants" bson:"total_participants"`
	PeakParticipants  int `json:"peakParticipants" bson:"peak_participants"`
}

// Meeting is the aggregate root.
type Meeting struct {
	ID                  string        `json:"id" bson:"_id"`
	StreamID            string        `json:"streamId" bson:"stream_id"`
	MeetingURL          string        `json:"meetingUrl,omitempty" bson:"meeting_url,omitempty"`
	Title               string        `json:"title" bson:"title"`
	Description         string        `json:"description,omitempty" bson:"description,omitempty"`
	StartsAt            *time.Time    `json:"startsAt,omitempty" bson:"starts_at,omitempty"`
	Duration            int           `json:"duration" bson:"duration"`
	Status              Status        `json:"status" bson:"status"`
	Type                Type          `json:"type" bson:"type"`
	HostID              string        `json:"hostId" bson:"host_id"`
	HostName            string        `json:"hostName" bson:"host_name"`
	HostImage           string        `json:"hostImage,omitempty" bson:"host_image,omitempty"`
	IsRecurring         bool          `json:"isRecurring" bson:"is_recurring"`
	RequireRegistration bool          `json:"requireRegistration" bson:"require_registration"`
	MaxParticipants     *int          `json:"maxParticipants,omitempty" bson:"max_participants,omitempty"`
	Settings            Settings      `json:"settings" bson:"settings"`
	Participants        []Participant `json:"participants" bson:"participants"`
	Recordings          []Recording   `json:"recordings,omitempty" bson:"recordings,omitempty"`
	Analytics           *Analytics    `json:"analytics,omitempty" bson:"analytics,omitempty"`
	Version             int64         `json:"version" bson:"version"`
	CreatedAt           time.Time     `json:"createdAt" bson:"created_at"`
	UpdatedAt           time.Time     `json:"updatedAt" bson:"updated_at"`
}

// EndsAt returns startsAt + duration, or nil for unscheduled meetings.
func (m *Meeting) EndsAt() *time.Time {
	if m.StartsAt == nil {
		return nil
	}
	end := m.StartsAt.Add(time.Duration(m.Duration) * time.Minute)
	return &end
}

// Clone returns a deep copy so callers can mutate the roster freely.
func (m *Meeting) Clone() *Meeting {
	cp := *m
	if m.StartsAt != nil {
		t := *m.StartsAt
		cp.StartsAt = &t
	}
	if m.MaxParticipants != nil {
		n := *m.MaxParticipants
		cp.MaxParticipants = &n
	}
	cp.Participants = CloneParticipants(m.Participants)
	if m.Recordings != nil {
		cp.Recordings = append([]Recording(nil), m.Recordings...)
	}
	if m.Analytics != nil {
		a := *m.Analytics
		cp.Analytics = &a
	}
	return &cp
}

// CloneParticipants deep-copies a roster.
func CloneParticipants(in []Participant) []Participant {
	if in == nil {
		return nil
	}
	out := make([]Participant, len(in))
	for i, p := range in {
		if p.JoinedAt != nil {
			t := *p.JoinedAt
			p.JoinedAt = &t
		}
		if p.LeftAt != nil {
			t := *p.LeftAt
			p.LeftAt = &t
		}
		if p.Feedback != nil {
			f := *p.Feedback
			p.Feedback = &f
		}
		out[i] = p
	}
	return out
}

// MeetingView is a meeting enriched with its derived status for reads.
type MeetingView struct {
	Meeting
	DerivedStatus DerivedStatus `json:"derivedStatus"`
	EndsAt        *time.Time    `json:"endsAt,omitempty"`
}

// MeetingPatch lists the fields a single versioned write may change.
// Nil fields are left untouched. A MaxParticipants of 0 clears the cap.
type MeetingPatch struct {
	Title               *string
	Description         *string
	StartsAt            *time.Time
	Duration            *int
	Status              *Status
	IsRecurring         *bool
	RequireRegistration *bool
	MaxParticipants     *int
	Settings            *Settings
	Participants        []Participant
	Analytics           *Analytics
}

// Empty reports whether p changes nothing.
func (p MeetingPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.StartsAt == nil && p.Duration == nil &&
		p.Status == nil && p.IsRecurring == nil && p.RequireRegistration == nil &&
		p.MaxParticipants == nil && p.Settings == nil && p.Participants == nil && p.Analytics == nil
}

// Apply writes the patch onto m. Stores that keep whole documents use it.
func (p MeetingPatch) Apply(m *Meeting) {
	if p.Title != nil {
		m.Title = *p.Title
	}
	if p.Description != nil {
		m.Description = *p.Description
	}
	if p.StartsAt != nil {
		t := *p.StartsAt
		m.StartsAt = &t
	}
	if p.Duration != nil {
		m.Duration = *p.Duration
	}
	if p.Status != nil {
		m.Status = *p.Status
	}
	if p.IsRecurring != nil {
		m.IsRecurring = *p.IsRecurring
	}
	if p.RequireRegistration != nil {
		m.RequireRegistration = *p.RequireRegistration
	}
	if p.MaxParticipants != nil {
		if *p.MaxParticipants == 0 {
			m.MaxParticipants = nil
		} else {
			n := *p.MaxParticipants
			m.MaxParticipants = &n
		}
	}
	if p.Settings != nil {
		m.Settings = *p.Settings
	}
	if p.Participants != nil {
		m.Participants = CloneParticipants(p.Participants)
	}
	if p.Analytics != nil {
		a := *p.Analytics
		m.Analytics = &a
	}
}

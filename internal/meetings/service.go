// Package meetings is the lifecycle service for meetings and their rosters.
// Every operation loads the meeting, checks access, applies roster rules and
// writes back with a single versioned patch.
package meetings

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-meetings/backend/internal/access"
	"github.com/aura-meetings/backend/internal/events"
	"github.com/aura-meetings/backend/internal/lifecycle"
	"github.com/aura-meetings/backend/internal/media"
	"github.com/aura-meetings/backend/internal/models"
	"github.com/aura-meetings/backend/internal/roster"
	"github.com/aura-meetings/backend/internal/store"
	"github.com/aura-meetings/backend/pkg/apperror"
	"github.com/aura-meetings/backend/pkg/sanitize"
	"github.com/aura-meetings/backend/pkg/secret"
)

const (
	DefaultTitle       = "Untitled Meeting"
	DefaultDuration    = 30
	DefaultMaxAttempts = 3
	maxDuration        = 24 * 60
	maxTitleLength     = 200
	maxDescription     = 10000
)

// personalRoomPrefix marks stream ids reserved for PersonalRoom.
const personalRoomPrefix = "room-"

var streamIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// Publisher receives committed meeting changes.
type Publisher interface {
	Publish(ctx context.Context, meetingID, event string, data interface{}) error
}

// TokenIssuer signs media user tokens.
type TokenIssuer interface {
	Issue(userID, streamID string, role models.Role, now time.Time) (media.Token, error)
}

// Actor is the authenticated caller. Subject comes from the identity provider.
type Actor struct {
	Subject string
	Name    string
	Image   string
}

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	DefaultTitle    string
	DefaultDuration int
	MaxAttempts     int
	// BaseURL builds meetingUrl as <BaseURL>/meeting/<streamId> when the caller sends none.
	BaseURL   string
	Location  *time.Location
	Now       func() time.Time
	Publisher Publisher
	Tokens    TokenIssuer
}

// Service orchestrates the meeting lifecycle.
type Service struct {
	store  store.Store
	opts   Options
	logger *zap.Logger
}

// NewService creates a meeting service over st.
func NewService(st store.Store, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.DefaultTitle == "" {
		opts.DefaultTitle = DefaultTitle
	}
	if opts.DefaultDuration <= 0 {
		opts.DefaultDuration = DefaultDuration
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Publisher == nil {
		opts.Publisher = events.Nop{}
	}
	return &Service{store: st, opts: opts, logger: logger}
}

func (s *Service) now() time.Time {
	return s.opts.Now().In(s.opts.Location)
}

// SettingsInput toggles meeting settings. Nil fields keep their value.
// An empty Password removes password protection.
type SettingsInput struct {
	AllowRecording   *bool
	AllowChat        *bool
	AllowScreenShare *bool
	MuteOnEntry      *bool
	WaitingRoom      *bool
	Password         *string
}

// CreateInput is the data for a new meeting.
type CreateInput struct {
	Title               string
	Description         string
	StartsAt            *time.Time
	Duration            int
	Type                models.Type
	HostID              string
	HostName            string
	HostImage           string
	StreamID            string
	MeetingURL          string
	IsRecurring         bool
	RequireRegistration bool
	MaxParticipants     *int
	Settings            *SettingsInput
}

// CreateResult identifies a created meeting.
type CreateResult struct {
	MeetingID string `json:"meetingId"`
	StreamID  string `json:"streamId"`
}

// UpdateInput patches host-editable fields. Nil fields are unchanged.
// MaxParticipants of 0 removes the cap. StreamID may only repeat the current value.
type UpdateInput struct {
	Title               *string
	Description         *string
	StartsAt            *time.Time
	Duration            *int
	IsRecurring         *bool
	RequireRegistration *bool
	MaxParticipants     *int
	Status              *models.Status
	StreamID            *string
	Settings            *SettingsInput
}

// ParticipantInput describes a participant to add. ID defaults to the email.
type ParticipantInput struct {
	ID    string
	Email string
	Name  string
	Image string
	Role  models.Role
}

func (a Actor) check() error {
	if strings.TrimSpace(a.Subject) == "" {
		return apperror.ErrUnauthorized
	}
	return nil
}

// Create stores a new meeting hosted by actor with the host as its only participant.
func (s *Service) Create(ctx context.Context, actor Actor, in CreateInput) (CreateResult, error) {
	return s.create(ctx, actor, in, false)
}

func (s *Service) create(ctx context.Context, actor Actor, in CreateInput, personal bool) (CreateResult, error) {
	if err := actor.check(); err != nil {
		return CreateResult{}, err
	}
	if in.HostID != "" && in.HostID != actor.Subject {
		return CreateResult{}, apperror.Invalid("hostId must be the authenticated user")
	}

	title := sanitize.Text(in.Title)
	if title == "" {
		title = s.opts.DefaultTitle
	}
	if len(title) > maxTitleLength {
		return CreateResult{}, apperror.Invalid("title must be at most %d characters", maxTitleLength)
	}
	description := sanitize.Description(in.Description)
	if len(description) > maxDescription {
		return CreateResult{}, apperror.Invalid("description must be at most %d characters", maxDescription)
	}

	duration := in.Duration
	if duration == 0 {
		duration = s.opts.DefaultDuration
	}
	if err := validateDuration(duration); err != nil {
		return CreateResult{}, err
	}
	if in.MaxParticipants != nil && *in.MaxParticipants < 1 {
		return CreateResult{}, apperror.Invalid("maxParticipants must be at least 1")
	}

	typ, err := resolveType(in)
	if err != nil {
		return CreateResult{}, err
	}

	streamID := strings.TrimSpace(in.StreamID)
	if streamID == "" {
		streamID = uuid.New().String()
	} else if !streamIDPattern.MatchString(streamID) {
		return CreateResult{}, apperror.Invalid("streamId may contain only letters, digits, '-' and '_'")
	} else if !personal && strings.HasPrefix(streamID, personalRoomPrefix) {
		return CreateResult{}, apperror.Invalid("streamIds starting with %q are reserved for personal rooms", personalRoomPrefix)
	}
	meetingURL, err := s.meetingURL(in.MeetingURL, streamID)
	if err != nil {
		return CreateResult{}, err
	}

	settings := models.DefaultSettings()
	if in.Settings != nil {
		if settings, err = applySettings(settings, *in.Settings); err != nil {
			return CreateResult{}, err
		}
	}

	hostName := sanitize.Text(in.HostName)
	if hostName == "" {
		hostName = sanitize.Text(actor.Name)
	}
	hostImage := strings.TrimSpace(in.HostImage)
	if hostImage == "" {
		hostImage = actor.Image
	}

	var startsAt *time.Time
	if in.StartsAt != nil {
		t := in.StartsAt.UTC()
		startsAt = &t
	}

	now := s.opts.Now().UTC()
	m := &models.Meeting{
		ID:                  uuid.New().String(),
		StreamID:            streamID,
		MeetingURL:          meetingURL,
		Title:               title,
		Description:         description,
		StartsAt:            startsAt,
		Duration:            duration,
		Status:              models.StatusScheduled,
		Type:                typ,
		HostID:              actor.Subject,
		HostName:            hostName,
		HostImage:           hostImage,
		IsRecurring:         in.IsRecurring || typ == models.TypeRecurring,
		RequireRegistration: in.RequireRegistration,
		MaxParticipants:     in.MaxParticipants,
		Settings:            settings,
		Participants:        []models.Participant{roster.Host(actor.Subject, hostName, hostImage)},
		Version:             1,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.store.Insert(ctx, m); err != nil {
		if errors.Is(err, store.ErrDuplicateStream) {
			return CreateResult{}, apperror.ErrStreamTaken
		}
		return CreateResult{}, s.storeError("insert meeting", err)
	}

	s.logger.Info("meeting created",
		zap.String("meeting_id", m.ID),
		zap.String("stream_id", m.StreamID),
		zap.String("host_id", m.HostID),
	)
	res := CreateResult{MeetingID: m.ID, StreamID: m.StreamID}
	s.publish(ctx, m.ID, events.MeetingCreated, map[string]interface{}{
		"meetingId": m.ID, "streamId": m.StreamID, "title": m.Title, "hostId": m.HostID,
	})
	return res, nil
}

// Update patches the meeting's editable fields. Host only.
func (s *Service) Update(ctx context.Context, actor Actor, id string, in UpdateInput) error {
	var changed []string
	m, err := s.mutate(ctx, actor, id, access.ActionUpdate, func(m *models.Meeting) (models.MeetingPatch, error) {
		patch, fields, err := s.buildUpdate(m, in)
		changed = fields
		return patch, err
	})
	if err != nil {
		return err
	}
	if len(changed) == 0 {
		return nil
	}
	s.publish(ctx, id, events.MeetingUpdated, map[string]interface{}{"meetingId": id, "fields": changed, "version": m.Version})
	if in.Status != nil {
		s.publish(ctx, id, events.MeetingStatusChanged, map[string]interface{}{"meetingId": id, "status": m.Status})
	}
	return nil
}

func (s *Service) buildUpdate(m *models.Meeting, in UpdateInput) (models.MeetingPatch, []string, error) {
	var (
		p      models.MeetingPatch
		fields []string
	)
	if in.StreamID != nil && strings.TrimSpace(*in.StreamID) != m.StreamID {
		return p, nil, apperror.Invalid("streamId cannot be changed")
	}
	if in.Title != nil {
		title := sanitize.Text(*in.Title)
		if title == "" {
			return p, nil, apperror.Invalid("title cannot be empty")
		}
		if len(title) > maxTitleLength {
			return p, nil, apperror.Invalid("title must be at most %d characters", maxTitleLength)
		}
		p.Title = &title
		fields = append(fields, "title")
	}
	if in.Description != nil {
		d := sanitize.Description(*in.Description)
		if len(d) > maxDescription {
			return p, nil, apperror.Invalid("description must be at most %d characters", maxDescription)
		}
		p.Description = &d
		fields = append(fields, "description")
	}
	if in.StartsAt != nil {
		t := in.StartsAt.UTC()
		p.StartsAt = &t
		fields = append(fields, "startsAt")
	}
	if in.Duration != nil {
		if err := validateDuration(*in.Duration); err != nil {
			return p, nil, err
		}
		p.Duration = in.Duration
		fields = append(fields, "duration")
	}
	if in.IsRecurring != nil {
		p.IsRecurring = in.IsRecurring
		fields = append(fields, "isRecurring")
	}
	if in.RequireRegistration != nil {
		p.RequireRegistration = in.RequireRegistration
		fields = append(fields, "requireRegistration")
	}
	if in.MaxParticipants != nil {
		if *in.MaxParticipants < 0 {
			return p, nil, apperror.Invalid("maxParticipants cannot be negative")
		}
		p.MaxParticipants = in.MaxParticipants
		fields = append(fields, "maxParticipants")
	}
	if in.Status != nil {
		next := *in.Status
		if !next.Valid() {
			return p, nil, apperror.Invalid("unknown status %q", next)
		}
		if !m.Status.CanTransitionTo(next) {
			return p, nil, apperror.ErrInvalidStatusTransition.WithMessage("cannot move meeting from %s to %s", m.Status, next)
		}
		p.Status = &next
		fields = append(fields, "status")
	}
	if in.Settings != nil {
		settings, err := applySettings(m.Settings, *in.Settings)
		if err != nil {
			return p, nil, err
		}
		p.Settings = &settings
		fields = append(fields, "settings")
	}
	return p, fields, nil
}

// Delete permanently removes the meeting. Host only.
func (s *Service) Delete(ctx context.Context, actor Actor, id string) error {
	if err := actor.check(); err != nil {
		return err
	}
	m, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !access.Evaluate(actor.Subject, m, access.ActionDelete) {
		return apperror.ErrForbidden
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperror.ErrMeetingNotFound
		}
		return s.storeError("delete meeting", err)
	}
	s.logger.Info("meeting deleted", zap.String("meeting_id", id), zap.String("actor", actor.Subject))
	s.publish(ctx, id, events.MeetingDeleted, map[string]interface{}{"meetingId": id})
	return nil
}

// AddParticipant appends a participant. Host or co-host.
func (s *Service) AddParticipant(ctx context.Context, actor Actor, id string, in ParticipantInput) error {
	p := models.Participant{
		ID:                 strings.TrimSpace(in.ID),
		Email:              strings.ToLower(strings.TrimSpace(in.Email)),
		Name:               sanitize.Text(in.Name),
		Image:              strings.TrimSpace(in.Image),
		Role:               in.Role,
		RegistrationStatus: "invited",
	}
	if p.ID == "" {
		p.ID = p.Email
	}
	if p.Role == "" {
		p.Role = models.RoleParticipant
	}

	_, err := s.mutate(ctx, actor, id, access.ActionAddMember, func(m *models.Meeting) (models.MeetingPatch, error) {
		next, err := roster.Add(m.Participants, p, m.MaxParticipants)
		if err != nil {
			return models.MeetingPatch{}, err
		}
		return models.MeetingPatch{Participants: next}, nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("participant added", zap.String("meeting_id", id), zap.String("participant_id", p.ID), zap.String("role", string(p.Role)))
	s.publish(ctx, id, events.ParticipantAdded, map[string]interface{}{"participantId": p.ID, "name": p.Name, "role": p.Role})
	return nil
}

// RemoveParticipant drops a participant. Host or co-host; never the host entry.
func (s *Service) RemoveParticipant(ctx context.Context, actor Actor, id, participantID string) error {
	_, err := s.mutate(ctx, actor, id, access.ActionRemoveMember, func(m *models.Meeting) (models.MeetingPatch, error) {
		next, err := roster.Remove(m.Participants, participantID)
		if err != nil {
			return models.MeetingPatch{}, err
		}
		return models.MeetingPatch{Participants: next}, nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("participant removed", zap.String("meeting_id", id), zap.String("participant_id", participantID))
	s.publish(ctx, id, events.ParticipantRemoved, map[string]interface{}{"participantId": participantID})
	return nil
}

// UpdateParticipantRole changes a participant's role. Host only.
func (s *Service) UpdateParticipantRole(ctx context.Context, actor Actor, id, participantID string, role models.Role) error {
	_, err := s.mutate(ctx, actor, id, access.ActionChangeRole, func(m *models.Meeting) (models.MeetingPatch, error) {
		next, err := roster.ChangeRole(m.Participants, participantID, role)
		if err != nil {
			return models.MeetingPatch{}, err
		}
		return models.MeetingPatch{Participants: next}, nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, id, events.ParticipantRoleChanged, map[string]interface{}{"participantId": participantID, "role": role})
	return nil
}

// Join marks the actor's roster entry active.
func (s *Service) Join(ctx context.Context, actor Actor, id string) (models.Participant, error) {
	return s.attend(ctx, actor, id, roster.MarkJoined, events.ParticipantJoined)
}

// Leave marks the actor's roster entry inactive and accumulates time present.
func (s *Service) Leave(ctx context.Context, actor Actor, id string) (models.Participant, error) {
	return s.attend(ctx, actor, id, roster.MarkLeft, events.ParticipantLeft)
}

type attendanceFunc func([]models.Participant, string, time.Time) ([]models.Participant, error)

func (s *Service) attend(ctx context.Context, actor Actor, id string, mark attendanceFunc, event string) (models.Participant, error) {
	m, err := s.mutate(ctx, actor, id, access.ActionAttend, func(m *models.Meeting) (models.MeetingPatch, error) {
		next, err := mark(m.Participants, actor.Subject, s.opts.Now().UTC())
		if err != nil {
			return models.MeetingPatch{}, err
		}
		summary := roster.Summarize(next, m.Analytics)
		return models.MeetingPatch{Participants: next, Analytics: &summary}, nil
	})
	if err != nil {
		return models.Participant{}, err
	}
	p := m.Participants[roster.Find(m.Participants, actor.Subject)]
	s.publish(ctx, id, event, map[string]interface{}{"participantId": p.ID, "isActive": p.IsActive})
	return p, nil
}

// GetByID returns the meeting with its derived status. Host or listed participant.
func (s *Service) GetByID(ctx context.Context, actor Actor, id string) (models.MeetingView, error) {
	if err := actor.check(); err != nil {
		return models.MeetingView{}, err
	}
	m, err := s.load(ctx, id)
	if err != nil {
		return models.MeetingView{}, err
	}
	return s.view(actor, m)
}

// GetByStream looks a meeting up by its stream reference, with GetByID's access rule.
func (s *Service) GetByStream(ctx context.Context, actor Actor, streamID string) (models.MeetingView, error) {
	if err := actor.check(); err != nil {
		return models.MeetingView{}, err
	}
	m, err := s.store.GetByStream(ctx, streamID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.MeetingView{}, apperror.ErrMeetingNotFound
		}
		return models.MeetingView{}, s.storeError("get meeting by stream", err)
	}
	return s.view(actor, m)
}

func (s *Service) view(actor Actor, m *models.Meeting) (models.MeetingView, error) {
	if !access.Evaluate(actor.Subject, m, access.ActionRead) {
		return models.MeetingView{}, apperror.ErrForbidden
	}
	return lifecycle.View(*m, s.now()), nil
}

// ListByHost returns the actor's hosted meetings, newest first.
func (s *Service) ListByHost(ctx context.Context, actor Actor) ([]models.Meeting, error) {
	if err := actor.check(); err != nil {
		return nil, err
	}
	list, err := s.store.ListByHost(ctx, actor.Subject)
	if err != nil {
		return nil, s.storeError("list meetings", err)
	}
	if list == nil {
		list = []models.Meeting{}
	}
	return list, nil
}

// ListArranged returns the actor's hosted meetings grouped live, today,
// upcoming and ended, with derived status.
func (s *Service) ListArranged(ctx context.Context, actor Actor) ([]models.MeetingView, error) {
	list, err := s.ListByHost(ctx, actor)
	if err != nil {
		return nil, err
	}
	return lifecycle.Arrange(list, s.now()), nil
}

// PersonalRoomStreamID is the stream reference of subject's personal room.
func PersonalRoomStreamID(subject string) string {
	return personalRoomPrefix + uuid.NewSHA1(uuid.NameSpaceURL, []byte("meetings:personal-room:"+subject)).String()
}

// PersonalRoom returns the actor's always-available instant meeting, creating
// it on first use. The room is keyed by a stream id derived from the subject,
// so concurrent first calls converge on one meeting through the unique
// stream index.
func (s *Service) PersonalRoom(ctx context.Context, actor Actor) (models.MeetingView, error) {
	if err := actor.check(); err != nil {
		return models.MeetingView{}, err
	}
	streamID := PersonalRoomStreamID(actor.Subject)
	m, err := s.store.GetByStream(ctx, streamID)
	if errors.Is(err, store.ErrNotFound) {
		name := sanitize.Text(actor.Name)
		if name == "" {
			name = actor.Subject
		}
		_, err = s.create(ctx, actor, CreateInput{
			Title:    name + "'s Room",
			Type:     models.TypeInstant,
			StreamID: streamID,
		}, true)
		if err != nil && !errors.Is(err, apperror.ErrStreamTaken) {
			return models.MeetingView{}, err
		}
		m, err = s.store.GetByStream(ctx, streamID)
	}
	if err != nil {
		return models.MeetingView{}, s.storeError("load personal room", err)
	}
	return s.view(actor, m)
}

// IssueMediaToken returns a media user token for the meeting's stream. Members
// other than the host must present the meeting password when one is set.
func (s *Service) IssueMediaToken(ctx context.Context, actor Actor, id, password string) (media.Token, error) {
	if err := actor.check(); err != nil {
		return media.Token{}, err
	}
	if s.opts.Tokens == nil {
		return media.Token{}, apperror.ErrMediaUnavailable
	}
	m, err := s.load(ctx, id)
	if err != nil {
		return media.Token{}, err
	}
	role, ok := access.RoleOf(actor.Subject, m)
	if !ok || !access.Allowed(role, access.ActionMediaToken) {
		return media.Token{}, apperror.ErrForbidden
	}
	if m.Settings.PasswordProtected && role != models.RoleHost && !secret.CheckPassword(password, m.Settings.PasswordHash) {
		return media.Token{}, apperror.ErrInvalidPassword
	}
	tok, err := s.opts.Tokens.Issue(actor.Subject, m.StreamID, role, s.opts.Now())
	if err != nil {
		if errors.Is(err, media.ErrNotConfigured) {
			return media.Token{}, apperror.ErrMediaUnavailable
		}
		s.logger.Error("media token generation failed", zap.Error(err), zap.String("meeting_id", id))
		return media.Token{}, apperror.Wrap(apperror.KindInternal, "media_token_failed", "failed to generate token", err)
	}
	return tok, nil
}

// ApplyTransition moves a meeting from one persisted status to another on behalf
// of the system. It reports false without error when the meeting is no longer in from.
func (s *Service) ApplyTransition(ctx context.Context, id string, from, to models.Status) (bool, error) {
	if !from.CanTransitionTo(to) || from == to {
		return false, apperror.ErrInvalidStatusTransition.WithMessage("cannot move meeting from %s to %s", from, to)
	}
	applied := false
	_, err := s.write(ctx, id, nil, func(m *models.Meeting) (models.MeetingPatch, error) {
		applied = false
		if m.Status != from {
			return models.MeetingPatch{}, nil
		}
		applied = true
		next := to
		return models.MeetingPatch{Status: &next}, nil
	})
	if err != nil {
		return false, err
	}
	if applied {
		s.logger.Info("meeting status transitioned", zap.String("meeting_id", id), zap.String("from", string(from)), zap.String("to", string(to)))
		s.publish(ctx, id, events.MeetingStatusChanged, map[string]interface{}{"meetingId": id, "status": to})
	}
	return applied, nil
}

// mutate checks actor against action on every attempt, then runs a versioned write.
func (s *Service) mutate(ctx context.Context, actor Actor, id string, action access.Action, fn func(*models.Meeting) (models.MeetingPatch, error)) (*models.Meeting, error) {
	if err := actor.check(); err != nil {
		return nil, err
	}
	authorize := func(m *models.Meeting) error {
		if !access.Evaluate(actor.Subject, m, action) {
			return apperror.ErrForbidden
		}
		return nil
	}
	return s.write(ctx, id, authorize, fn)
}

// write loads the meeting, computes a patch and applies it at the loaded version,
// reloading and recomputing on version conflicts up to MaxAttempts times.
func (s *Service) write(ctx context.Context, id string, authorize func(*models.Meeting) error, fn func(*models.Meeting) (models.MeetingPatch, error)) (*models.Meeting, error) {
	for attempt := 1; ; attempt++ {
		m, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if authorize != nil {
			if err := authorize(m); err != nil {
				return nil, err
			}
		}
		patch, err := fn(m)
		if err != nil {
			return nil, err
		}
		if patch.Empty() {
			return m, nil
		}

		version, err := s.store.Patch(ctx, id, m.Version, patch)
		switch {
		case err == nil:
			patch.Apply(m)
			m.Version = version
			return m, nil
		case errors.Is(err, store.ErrNotFound):
			return nil, apperror.ErrMeetingNotFound
		case errors.Is(err, store.ErrVersionConflict):
			if attempt >= s.opts.MaxAttempts {
				s.logger.Warn("giving up after version conflicts", zap.String("meeting_id", id), zap.Int("attempts", attempt))
				return nil, apperror.ErrConcurrentModification
			}
			s.logger.Debug("version conflict, retrying", zap.String("meeting_id", id), zap.Int("attempt", attempt))
		default:
			return nil, s.storeError("patch meeting", err)
		}
	}
}

func (s *Service) load(ctx context.Context, id string) (*models.Meeting, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperror.ErrMeetingNotFound
	}
	m, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperror.ErrMeetingNotFound
		}
		return nil, s.storeError("get meeting", err)
	}
	return m, nil
}

func (s *Service) storeError(op string, err error) error {
	s.logger.Error("meeting store failure", zap.String("op", op), zap.Error(err))
	return apperror.Wrap(apperror.KindInternal, "store_failure", "meeting storage failed", err)
}

func (s *Service) publish(ctx context.Context, meetingID, event string, data interface{}) {
	if err := s.opts.Publisher.Publish(ctx, meetingID, event, data); err != nil {
		s.logger.Warn("event publish failed", zap.String("meeting_id", meetingID), zap.String("event", event), zap.Error(err))
	}
}

func (s *Service) meetingURL(raw, streamID string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if s.opts.BaseURL == "" {
			return "", nil
		}
		return strings.TrimRight(s.opts.BaseURL, "/") + "/meeting/" + url.PathEscape(streamID), nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", apperror.Invalid("meetingUrl must be an absolute http(s) URL")
	}
	return u.String(), nil
}

func validateDuration(d int) error {
	if d < 1 || d > maxDuration {
		return apperror.Invalid("duration must be between 1 and %d minutes", maxDuration)
	}
	return nil
}

func resolveType(in CreateInput) (models.Type, error) {
	if in.Type != "" {
		if !in.Type.Valid() {
			return "", apperror.Invalid("unknown meeting type %q", in.Type)
		}
		return in.Type, nil
	}
	switch {
	case in.IsRecurring:
		return models.TypeRecurring, nil
	case in.StartsAt == nil:
		return models.TypeInstant, nil
	default:
		return models.TypeScheduled, nil
	}
}

func applySettings(s models.Settings, in SettingsInput) (models.Settings, error) {
	if in.AllowRecording != nil {
		s.AllowRecording = *in.AllowRecording
	}
	if in.AllowChat != nil {
		s.AllowChat = *in.AllowChat
	}
	if in.AllowScreenShare != nil {
		s.AllowScreenShare = *in.AllowScreenShare
	}
	if in.MuteOnEntry != nil {
		s.MuteOnEntry = *in.MuteOnEntry
	}
	if in.WaitingRoom != nil {
		s.WaitingRoom = *in.WaitingRoom
	}
	if in.Password != nil {
		if *in.Password == "" {
			s.PasswordHash = ""
			s.PasswordProtected = false
		} else {
			hash, err := secret.HashPassword(*in.Password)
			if err != nil {
				if errors.Is(err, secret.ErrPasswordTooShort) {
					return s, apperror.Invalid("password must be at least %d characters", secret.MinPasswordLength)
				}
				return s, apperror.Wrap(apperror.KindInternal, "password_hash_failed", "could not set password", err)
			}
			s.PasswordHash = hash
			s.PasswordProtected = true
		}
	}
	return s, nil
}

// Package lifecycle derives a meeting's display status from its schedule.
// Nothing here is persisted.
package lifecycle

import (
	"sort"
	"time"

	"github.com/aura-meetings/backend/internal/models"
)

// Resolve returns the derived status for a meeting starting at startsAt and lasting
// durationMinutes, as seen at now. "Same day" is evaluated in now's location.
func Resolve(startsAt *time.Time, durationMinutes int, now time.Time) models.DerivedStatus {
	if startsAt == nil {
		return models.DerivedScheduled
	}
	start := *startsAt
	end := start.Add(time.Duration(durationMinutes) * time.Minute)

	if !now.Before(start) && !now.After(end) {
		return models.DerivedLive
	}
	if start.After(now) && sameDay(start, now) {
		return models.DerivedToday
	}
	if start.After(now) {
		return models.DerivedUpcoming
	}
	if end.Before(now) {
		return models.DerivedEnded
	}
	return models.DerivedScheduled
}

func sameDay(a, now time.Time) bool {
	a = a.In(now.Location())
	y1, m1, d1 := a.Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// View enriches m with its derived status.
func View(m models.Meeting, now time.Time) models.MeetingView {
	return models.MeetingView{
		Meeting:       m,
		DerivedStatus: Resolve(m.StartsAt, m.Duration, now),
		EndsAt:        m.EndsAt(),
	}
}

// Bucket orders derived statuses for display. Upcoming and scheduled share a bucket.
func Bucket(s models.DerivedStatus) int {
	switch s {
	case models.DerivedLive:
		return 0
	case models.DerivedToday:
		return 1
	case models.DerivedUpcoming, models.DerivedScheduled:
		return 2
	default:
		return 3
	}
}

// Arrange returns views grouped live, today, upcoming/scheduled, ended, each
// ascending by start time with unscheduled meetings first.
func Arrange(meetings []models.Meeting, now time.Time) []models.MeetingView {
	views := make([]models.MeetingView, 0, len(meetings))
	for _, m := range meetings {
		views = append(views, View(m, now))
	}
	sort.SliceStable(views, func(i, j int) bool {
		bi, bj := Bucket(views[i].DerivedStatus), Bucket(views[j].DerivedStatus)
		if bi != bj {
			return bi < bj
		}
		si, sj := views[i].StartsAt, views[j].StartsAt
		switch {
		case si == nil && sj == nil:
			return false
		case si == nil:
			return true
		case sj == nil:
			return false
		}
		return si.Before(*sj)
	})
	return views
}

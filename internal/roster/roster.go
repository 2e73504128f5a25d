// Package roster enforces participant invariants on a meeting's embedded roster.
// Every function works on a copy and returns the new roster; the caller persists it
// in one versioned write.
package roster

import (
	"strings"
	"time"

	"github.com/aura-meetings/backend/internal/models"
	"github.com/aura-meetings/backend/pkg/apperror"
)

// Find returns the index of the participant with id, or -1.
func Find(participants []models.Participant, id string) int {
	for i := range participants {
		if participants[i].ID == id {
			return i
		}
	}
	return -1
}

// Host builds the roster entry for a meeting's creator.
func Host(id, name, image string) models.Participant {
	return models.Participant{
		ID:       id,
		Name:     name,
		Image:    image,
		Role:     models.RoleHost,
		IsActive: true,
	}
}

// Add appends p. A participant is a duplicate when it shares the id, or a non-empty
// email or display name (case-insensitive), with an existing entry. A cap of nil
// means unlimited.
func Add(participants []models.Participant, p models.Participant, maxParticipants *int) ([]models.Participant, error) {
	if p.ID == "" {
		return nil, apperror.Invalid("participant id or email is required")
	}
	if !p.Role.Assignable() {
		return nil, apperror.ErrInvalidRole.WithMessage("role %q cannot be assigned", p.Role)
	}
	for _, existing := range participants {
		if existing.ID == p.ID ||
			(p.Email != "" && strings.EqualFold(existing.Email, p.Email)) ||
			(p.Name != "" && strings.EqualFold(strings.TrimSpace(existing.Name), strings.TrimSpace(p.Name))) {
			return nil, apperror.ErrDuplicateParticipant
		}
	}
	if maxParticipants != nil && len(participants) >= *maxParticipants {
		return nil, apperror.ErrRosterFull
	}
	out := models.CloneParticipants(participants)
	return append(out, p), nil
}

// Remove drops the participant with id, preserving the order of the rest.
func Remove(participants []models.Participant, id string) ([]models.Participant, error) {
	i := Find(participants, id)
	if i < 0 {
		return nil, apperror.ErrParticipantNotFound
	}
	if participants[i].Role == models.RoleHost {
		return nil, apperror.ErrCannotRemoveHost
	}
	out := make([]models.Participant, 0, len(participants)-1)
	for j, p := range models.CloneParticipants(participants) {
		if j != i {
			out = append(out, p)
		}
	}
	return out, nil
}

// ChangeRole replaces the role of the participant with id in place.
func ChangeRole(participants []models.Participant, id string, role models.Role) ([]models.Participant, error) {
	i := Find(participants, id)
	if i < 0 {
		return nil, apperror.ErrParticipantNotFound
	}
	if participants[i].Role == models.RoleHost {
		return nil, apperror.ErrCannotReassignHost
	}
	if !role.Assignable() {
		return nil, apperror.ErrInvalidRole.WithMessage("role %q cannot be assigned", role)
	}
	out := models.CloneParticipants(participants)
	out[i].Role = role
	return out, nil
}

// MarkJoined flags the participant active. Joining twice keeps the first joinedAt.
func MarkJoined(participants []models.Participant, id string, at time.Time) ([]models.Participant, error) {
	i := Find(participants, id)
	if i < 0 {
		return nil, apperror.ErrParticipantNotFound
	}
	out := models.CloneParticipants(participants)
	if out[i].IsActive && out[i].JoinedAt != nil {
		return out, nil
	}
	t := at
	out[i].IsActive = true
	out[i].JoinedAt = &t
	out[i].LeftAt = nil
	return out, nil
}

// MarkLeft flags the participant inactive and accumulates time present in seconds.
func MarkLeft(participants []models.Participant, id string, at time.Time) ([]models.Participant, error) {
	i := Find(participants, id)
	if i < 0 {
		return nil, apperror.ErrParticipantNotFound
	}
	out := models.CloneParticipants(participants)
	if !out[i].IsActive {
		return out, nil
	}
	if out[i].JoinedAt != nil && at.After(*out[i].JoinedAt) {
		out[i].TotalTimePresent += int64(at.Sub(*out[i].JoinedAt) / time.Second)
	}
	t := at
	out[i].IsActive = false
	out[i].LeftAt = &t
	return out, nil
}

// Summarize recomputes attendance analytics. Peak never decreases.
func Summarize(participants []models.Participant, previous *models.Analytics) models.Analytics {
	var a models.Analytics
	if previous != nil {
		a.PeakParticipants = previous.PeakParticipants
	}
	active := 0
	for _, p := range participants {
		if p.JoinedAt != nil || p.LeftAt != nil || p.TotalTimePresent > 0 {
			a.TotalParticipants++
		}
		if p.IsActive && p.JoinedAt != nil {
			active++
		}
	}
	if active > a.PeakParticipants {
		a.PeakParticipants = active
	}
	return a
}

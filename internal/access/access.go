// Package access decides which meeting actions an actor may perform.
package access

import (
	"github.com/aura-meetings/backend/internal/models"
)

// Action is a meeting operation subject to access control.
type Action string

const (
	ActionRead         Action = "read"
	ActionUpdate       Action = "update"
	ActionDelete       Action = "delete"
	ActionAddMember    Action = "add_participant"
	ActionRemoveMember Action = "remove_participant"
	ActionChangeRole   Action = "change_role"
	ActionAttend       Action = "attend"
	ActionMediaToken   Action = "media_token"
)

// Actions lists every action, for exhaustive checks.
var Actions = []Action{
	ActionRead, ActionUpdate, ActionDelete, ActionAddMember,
	ActionRemoveMember, ActionChangeRole, ActionAttend, ActionMediaToken,
}

var matrix = map[Action]map[models.Role]bool{
	ActionRead:         {models.RoleHost: true, models.RoleCoHost: true, models.RoleParticipant: true, models.RoleObserver: true},
	ActionUpdate:       {models.RoleHost: true},
	ActionDelete:       {models.RoleHost: true},
	ActionAddMember:    {models.RoleHost: true, models.RoleCoHost: true},
	ActionRemoveMember: {models.RoleHost: true, models.RoleCoHost: true},
	ActionChangeRole:   {models.RoleHost: true},
	ActionAttend:       {models.RoleHost: true, models.RoleCoHost: true, models.RoleParticipant: true, models.RoleObserver: true},
	ActionMediaToken:   {models.RoleHost: true, models.RoleCoHost: true, models.RoleParticipant: true, models.RoleObserver: true},
}

// RoleOf resolves subject's role in m. The second result is false for non-members.
func RoleOf(subject string, m *models.Meeting) (models.Role, bool) {
	if subject == "" || m == nil {
		return "", false
	}
	if m.HostID == subject {
		return models.RoleHost, true
	}
	for _, p := range m.Participants {
		if p.ID == subject {
			return p.Role, true
		}
	}
	return "", false
}

// Allowed reports whether role may perform action.
func Allowed(role models.Role, action Action) bool {
	return matrix[action][role]
}

// Evaluate reports whether subject may perform action on m.
// Non-members are denied every action.
func Evaluate(subject string, m *models.Meeting, action Action) bool {
	role, ok := RoleOf(subject, m)
	if !ok {
		return false
	}
	return Allowed(role, action)
}

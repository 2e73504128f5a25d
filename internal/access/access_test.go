package access_test

import (
	"testing"

	"github.com/aura-meetings/backend/internal/access"
	"github.com/aura-meetings/backend/internal/models"
)

func meeting() *models.Meeting {
	return &models.Meeting{
		ID:     "m1",
		HostID: "host",
		Participants: []models.Participant{
			{ID: "host", Role: models.RoleHost},
			{ID: "co", Role: models.RoleCoHost},
			{ID: "member", Role: models.RoleParticipant},
			{ID: "watcher", Role: models.RoleObserver},
		},
	}
}

func TestEvaluate_Matrix(t *testing.T) {
	want := map[access.Action]map[string]bool{
		access.ActionRead:         {"host": true, "co": true, "member": true, "watcher": true},
		access.ActionUpdate:       {"host": true},
		access.ActionDelete:       {"host": true},
		access.ActionAddMember:    {"host": true, "co": true},
		access.ActionRemoveMember: {"host": true, "co": true},
		access.ActionChangeRole:   {"host": true},
		access.ActionAttend:       {"host": true, "co": true, "member": true, "watcher": true},
		access.ActionMediaToken:   {"host": true, "co": true, "member": true, "watcher": true},
	}
	subjects := []string{"host", "co", "member", "watcher", "stranger", ""}

	m := meeting()
	for _, action := range access.Actions {
		for _, subject := range subjects {
			t.Run(string(action)+"/"+subject, func(t *testing.T) {
				got := access.Evaluate(subject, m, action)
				if got != want[action][subject] {
					t.Errorf("Evaluate(%q, %s): got %v, want %v", subject, action, got, want[action][subject])
				}
			})
		}
	}
}

func TestRoleOf_HostResolvedFromHostID(t *testing.T) {
	m := meeting()
	m.Participants = nil
	role, ok := access.RoleOf("host", m)
	if !ok || role != models.RoleHost {
		t.Fatalf("got (%q, %v), want host", role, ok)
	}
	if _, ok := access.RoleOf("co", m); ok {
		t.Error("expected subject missing from roster to be a non-member")
	}
}

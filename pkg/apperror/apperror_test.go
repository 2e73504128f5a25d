package apperror_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aura-meetings/backend/pkg/apperror"
)

func TestIs_MatchesByCode(t *testing.T) {
	err := apperror.ErrRosterFull.WithMessage("meeting %s is full", "m1")
	if !errors.Is(err, apperror.ErrRosterFull) {
		t.Fatal("expected errors.Is to match by code")
	}
	if errors.Is(err, apperror.ErrDuplicateParticipant) {
		t.Fatal("did not expect a match with a different code")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperror.Kind
	}{
		{"not found", apperror.ErrMeetingNotFound, apperror.KindNotFound},
		{"wrapped forbidden", fmt.Errorf("ctx: %w", apperror.ErrForbidden), apperror.KindForbidden},
		{"invalid", apperror.Invalid("duration must be positive"), apperror.KindInvalidArgument},
		{"plain error", errors.New("boom"), apperror.KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := apperror.KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := apperror.Wrap(apperror.KindInternal, "store_failure", "could not load meeting", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable")
	}
	if got := apperror.MessageOf(err); got != "could not load meeting" {
		t.Errorf("MessageOf: got %q", got)
	}
	if got := apperror.CodeOf(fmt.Errorf("x: %w", err)); got != "store_failure" {
		t.Errorf("CodeOf: got %q", got)
	}
}

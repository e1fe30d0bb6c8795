package asset

import (
	"errors"
	"testing"
)

func TestCanApply(t *testing.T) {
	tests := []struct {
		action Action
		from   Status
		want   bool
	}{
		{ActionApprove, StatusPending, true},
		{ActionApprove, StatusRejected, true},
		{ActionApprove, StatusReturned, false},
		{ActionReject, StatusPending, true},
		{ActionReject, StatusReturned, false},
		{ActionReturn, StatusApproved, true},
		{ActionReturn, StatusPending, false},
		{ActionReturn, StatusRejected, false},
		{ActionReturn, StatusReturned, false},
		{ActionEdit, StatusApproved, true},
		{ActionEdit, StatusRejected, true},
		{ActionEdit, StatusReturned, false},
	}

	for _, tt := range tests {
		if got := CanApply(tt.action, tt.from); got != tt.want {
			t.Fatalf("CanApply(%s, %s) = %v, want %v", tt.action, tt.from, got, tt.want)
		}
	}
}

func TestTargets(t *testing.T) {
	if Target(ActionEdit) != StatusPending {
		t.Fatalf("edit must reset to pending")
	}
	if Target(ActionApprove) != StatusApproved || Target(ActionReject) != StatusRejected || Target(ActionReturn) != StatusReturned {
		t.Fatalf("unexpected targets")
	}
	if !OwnerAction(ActionReturn) || OwnerAction(ActionApprove) {
		t.Fatalf("unexpected actor mapping")
	}
}

func TestExplainMiss(t *testing.T) {
	returned := &Request{Email: "e@x.com", Status: StatusReturned}

	if err := ExplainMiss(ActionApprove, nil, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := ExplainMiss(ActionReturn, returned, "other@x.com"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected not owner, got %v", err)
	}
	if err := ExplainMiss(ActionApprove, returned, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

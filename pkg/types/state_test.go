package types_test

import (
	"testing"

	"github.com/scrypster/ephemera/pkg/types"
)

func TestValidThreadStates(t *testing.T) {
	for _, state := range []types.ThreadState{"looming", "reflection", "archived"} {
		if !types.IsValidThreadState(state) {
			t.Errorf("Expected %s to be valid thread state", state)
		}
	}
}

func TestInvalidThreadStates(t *testing.T) {
	for _, state := range []types.ThreadState{"", "active", "paused"} {
		if types.IsValidThreadState(state) {
			t.Errorf("Expected %q to be invalid thread state", state)
		}
	}
}

func TestThreadTransitions(t *testing.T) {
	cases := []struct {
		from, to types.ThreadState
		want     bool
	}{
		{"", types.StateLooming, true},
		{"", types.StateArchived, false},
		{types.StateLooming, types.StateReflection, true},
		{types.StateLooming, types.StateArchived, true},
		{types.StateReflection, types.StateArchived, true},
		{types.StateReflection, types.StateLooming, false},
		{types.StateArchived, types.StateLooming, false},
		{types.StateArchived, types.StateArchived, false},
	}

	for _, tc := range cases {
		if got := types.IsValidThreadTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("IsValidThreadTransition(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestDecayModes(t *testing.T) {
	for _, mode := range types.ValidDecayModes {
		if !types.IsValidDecayMode(mode) {
			t.Errorf("Expected %s to be valid decay mode", mode)
		}
	}
	if types.IsValidDecayMode("melt") {
		t.Error("melt should not be a valid decay mode")
	}
}

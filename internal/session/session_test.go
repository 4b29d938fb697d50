package session

import (
	"testing"

	"github.com/roadassist/client/internal/model"
)

func TestEmptySession(t *testing.T) {
	s := New()
	if s.Active() {
		t.Error("new session must not be active")
	}
	if s.Role() != "" {
		t.Errorf("role = %q, want empty", s.Role())
	}
	if s.User() != nil {
		t.Error("user must be nil")
	}
	if s.InstanceID() == "" {
		t.Error("instance ID must be assigned")
	}
}

func TestSetUserExposesRole(t *testing.T) {
	s := New()
	s.SetUser(&model.UserProfile{ID: "u1", Role: model.RoleMechanic})
	if s.Role() != model.RoleMechanic {
		t.Errorf("role = %q", s.Role())
	}
}

func TestClearOnEmptySessionSkipsHooks(t *testing.T) {
	s := New()
	fired := false
	s.OnClear(func() { fired = true })
	s.Clear()
	if fired {
		t.Error("hooks must not fire when there is nothing to tear down")
	}
}

package lro

import "testing"

func TestContextAccessors(t *testing.T) {
	c := NewContext("system-1", "user-1")
	if c.SystemID() != "system-1" {
		t.Fatalf("expected system id %q, got %q", "system-1", c.SystemID())
	}
	if c.UserID() != "user-1" {
		t.Fatalf("expected user id %q, got %q", "user-1", c.UserID())
	}
}

func TestContextZeroValueIsAnonymous(t *testing.T) {
	var c Context
	if c.SystemID() != "" || c.UserID() != "" {
		t.Fatalf("expected zero-value context to be empty, got %+v", c)
	}
}

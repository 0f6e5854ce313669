package auth

import (
	"testing"
	"time"
)

func TestIdentity_HasRole(t *testing.T) {
	tests := []struct {
		name     string
		identity *Identity
		role     string
		want     bool
	}{
		{name: "nil identity", identity: nil, role: RoleAdmin, want: false},
		{name: "empty roles", identity: &Identity{Roles: []string{}}, role: RoleAdmin, want: false},
		{name: "has role", identity: &Identity{Roles: []string{"extension", RoleAdmin}}, role: RoleAdmin, want: true},
		{name: "does not have role", identity: &Identity{Roles: []string{"extension"}}, role: RoleAdmin, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.identity.HasRole(tt.role); got != tt.want {
				t.Errorf("HasRole() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIdentity_IsExpired(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	if (&Identity{}).IsExpired(now) {
		t.Error("zero ExpiresAt should never expire")
	}
	if !(&Identity{ExpiresAt: now.Add(-time.Second)}).IsExpired(now) {
		t.Error("past ExpiresAt should be expired")
	}
	if (&Identity{ExpiresAt: now.Add(time.Second)}).IsExpired(now) {
		t.Error("future ExpiresAt should not be expired")
	}
}

func TestAnonymousIdentity(t *testing.T) {
	id := AnonymousIdentity("extension")

	if !id.IsAnonymous() {
		t.Error("IsAnonymous() = false, want true")
	}
	if id.Method != AuthMethodAnonymous {
		t.Errorf("Method = %v, want %v", id.Method, AuthMethodAnonymous)
	}
	if !id.HasRole("extension") {
		t.Error("anonymous identity should carry granted roles")
	}

	var nilID *Identity
	if !nilID.IsAnonymous() {
		t.Error("nil identity should be anonymous")
	}
	if (&Identity{Principal: "ext-1", Method: AuthMethodJWT}).IsAnonymous() {
		t.Error("jwt identity should not be anonymous")
	}
}

package auth

import (
	"context"
	"errors"
	"testing"
)

func TestRoleAuthorizer(t *testing.T) {
	authz := DefaultRoleAuthorizer()
	admin := &Identity{Principal: "ops", Roles: []string{RoleAdmin}}
	ext := &Identity{Principal: "ext", Roles: []string{"extension"}}

	tests := []struct {
		name    string
		subject *Identity
		action  string
		denied  bool
	}{
		{name: "admin clears cache", subject: admin, action: ActionCacheClear},
		{name: "extension cannot clear cache", subject: ext, action: ActionCacheClear, denied: true},
		{name: "no identity cannot clear cache", subject: nil, action: ActionCacheClear, denied: true},
		{name: "extension analyzes", subject: ext, action: ActionAnalyze},
		{name: "anonymous reads stats", subject: AnonymousIdentity(), action: ActionCacheRead},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := authz.Authorize(context.Background(), &AuthzRequest{Subject: tt.subject, Action: tt.action})
			if tt.denied {
				if !errors.Is(err, ErrForbidden) {
					t.Errorf("Authorize() error = %v, want ErrForbidden", err)
				}
				var azErr *AuthzError
				if !errors.As(err, &azErr) || azErr.Action != tt.action {
					t.Errorf("Authorize() error = %#v, want *AuthzError for %s", err, tt.action)
				}
				return
			}
			if err != nil {
				t.Errorf("Authorize() error = %v, want nil", err)
			}
		})
	}
}

func TestAllowAllAuthorizer(t *testing.T) {
	var a AllowAllAuthorizer
	if err := a.Authorize(context.Background(), &AuthzRequest{Action: ActionCacheClear}); err != nil {
		t.Errorf("Authorize() error = %v", err)
	}
	if a.Name() != "allow_all" {
		t.Errorf("Name() = %q", a.Name())
	}
}

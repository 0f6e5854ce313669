package auth

import (
	"context"
	"fmt"
	"slices"
)

// Actions guarded by the analysis service.
const (
	ActionAnalyze    = "analysis:run"
	ActionCacheRead  = "cache:read"
	ActionCacheClear = "cache:clear"
)

// Authorizer determines if an identity is allowed to perform an action.
type Authorizer interface {
	// Authorize returns nil if permitted, or an *AuthzError if denied.
	Authorize(ctx context.Context, req *AuthzRequest) error
	Name() string
}

// AuthzRequest contains the information needed for authorization.
type AuthzRequest struct {
	Subject *Identity
	Action  string
}

// AuthzError represents an authorization failure.
type AuthzError struct {
	Subject string
	Action  string
	Reason  string
}

func (e *AuthzError) Error() string {
	return fmt.Sprintf("authorization denied: subject=%q action=%q reason=%q", e.Subject, e.Action, e.Reason)
}

// Is matches ErrForbidden.
func (e *AuthzError) Is(target error) bool {
	return target == ErrForbidden
}

// AllowAllAuthorizer permits all requests. Used when auth is disabled.
type AllowAllAuthorizer struct{}

func (AllowAllAuthorizer) Authorize(context.Context, *AuthzRequest) error { return nil }
func (AllowAllAuthorizer) Name() string                                   { return "allow_all" }

// RoleAuthorizer maps actions to the roles allowed to perform them.
// Actions without a rule are open to any authenticated identity.
type RoleAuthorizer struct {
	Rules map[string][]string
}

// DefaultRoleAuthorizer restricts cache clearing to admins.
func DefaultRoleAuthorizer() *RoleAuthorizer {
	return &RoleAuthorizer{Rules: map[string][]string{
		ActionCacheClear: {RoleAdmin},
	}}
}

func (a *RoleAuthorizer) Name() string { return "role" }

func (a *RoleAuthorizer) Authorize(_ context.Context, req *AuthzRequest) error {
	subject := ""
	if req.Subject != nil {
		subject = req.Subject.Principal
	}
	allowed, ok := a.Rules[req.Action]
	if !ok {
		return nil
	}
	if req.Subject == nil {
		return &AuthzError{Subject: subject, Action: req.Action, Reason: "no identity"}
	}
	if slices.ContainsFunc(allowed, req.Subject.HasRole) {
		return nil
	}
	return &AuthzError{Subject: subject, Action: req.Action, Reason: fmt.Sprintf("requires one of %v", allowed)}
}

var (
	_ Authorizer = AllowAllAuthorizer{}
	_ Authorizer = (*RoleAuthorizer)(nil)
)

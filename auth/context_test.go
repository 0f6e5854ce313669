package auth

import (
	"context"
	"testing"
)

func TestIdentityContext(t *testing.T) {
	ctx := context.Background()

	if got := IdentityFromContext(ctx); got != nil {
		t.Errorf("IdentityFromContext(empty) = %v, want nil", got)
	}
	if got := PrincipalFromContext(ctx); got != "" {
		t.Errorf("PrincipalFromContext(empty) = %q, want empty", got)
	}

	id := &Identity{Principal: "ext-42", Method: AuthMethodAPIKey}
	ctx = WithIdentity(ctx, id)

	if got := IdentityFromContext(ctx); got != id {
		t.Errorf("IdentityFromContext() = %v, want %v", got, id)
	}
	if got := PrincipalFromContext(ctx); got != "ext-42" {
		t.Errorf("PrincipalFromContext() = %q, want ext-42", got)
	}
}

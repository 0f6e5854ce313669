package auth

import (
	"encoding/json"
	"errors"
	"net/http"
)

// MiddlewareConfig configures the HTTP authentication middleware.
type MiddlewareConfig struct {
	// AllowAnonymous lets requests without credentials through with an
	// anonymous identity. Requests with bad credentials are still rejected.
	AllowAnonymous bool

	// AnonymousRoles are granted to anonymous identities.
	AnonymousRoles []string

	// OnError is called for internal authenticator errors.
	OnError func(r *http.Request, err error)
}

// Middleware authenticates every request with authn and stores the identity
// in the request context. Failures are answered with a 401 JSON body.
func Middleware(authn Authenticator, cfg MiddlewareConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			req := NewAuthRequest(r)

			if authn == nil || !authn.Supports(ctx, req) {
				if cfg.AllowAnonymous {
					next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, AnonymousIdentity(cfg.AnonymousRoles...))))
					return
				}
				writeError(w, http.StatusUnauthorized, ErrMissingCredentials)
				return
			}

			result, err := authn.Authenticate(ctx, req)
			if err != nil {
				if cfg.OnError != nil {
					cfg.OnError(r, err)
				}
				writeError(w, http.StatusInternalServerError, errors.New("auth: authentication unavailable"))
				return
			}
			if !result.Authenticated {
				writeError(w, http.StatusUnauthorized, result.Error)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, result.Identity)))
		})
	}
}

// Require rejects requests whose identity may not perform action with 403.
func Require(authz Authorizer, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if authz != nil {
				err := authz.Authorize(r.Context(), &AuthzRequest{
					Subject: IdentityFromContext(r.Context()),
					Action:  action,
				})
				if err != nil {
					writeError(w, http.StatusForbidden, err)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	if err == nil {
		err = ErrInvalidCredentials
	}
	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="marketlens"`)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

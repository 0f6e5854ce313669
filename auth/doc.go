// Package auth authenticates extension installs and operators and guards
// cache administration.
//
// Two credential types are accepted: HS256 bearer tokens (JWTAuthenticator)
// and static API keys sent in X-API-Key (APIKeyAuthenticator). Only SHA-256
// hashes of API keys are held in memory. CompositeAuthenticator chains them.
//
// Middleware attaches the resulting Identity to the request context, and
// Require enforces an Authorizer for one action. DefaultRoleAuthorizer
// restricts cache clearing to the admin role.
package auth

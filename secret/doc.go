// Package secret resolves API keys and other credentials from configuration.
//
// It supports:
//   - Strict environment expansion (see ExpandEnvStrict)
//   - Pluggable secret providers, with built-in env and file providers
//   - Resolving secret references in configuration values (see Resolver)
//
// References use the prefix "secretref:":
//   - Full value:  secretref:env:OPENAI_API_KEY
//   - Mounted file: secretref:file:anthropic_api_key
//   - Inline use:  Bearer secretref:env:GROQ_API_KEY
package secret

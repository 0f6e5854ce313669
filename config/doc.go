// Package config loads the marketlens service configuration.
//
// A config file is YAML. Load starts from Default, expands environment
// variables strictly (an unset ${VAR} is an error, ${VAR:-x} supplies a
// default), overlays the file, resolves secretref values and validates the
// result.
//
// Secret-bearing fields (provider keys, API keys, the JWT secret and the
// Redis password) may hold references such as
// "secretref:file:openai_api_key". The providers that resolve them are
// declared under the top-level "secrets" key:
//
//	secrets:
//	  file:
//	    dir: /run/secrets
package config

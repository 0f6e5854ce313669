package secret

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// ExpandEnvStrict expands environment variables in s.
//
// Semantics:
//   - `$VAR` expands to the value or the empty string.
//   - `${VAR}` errors when VAR is unset.
//   - `${VAR:-default}` uses default when VAR is unset or empty.
//   - `$$` emits a literal `$`.
func ExpandEnvStrict(s string) (string, error) {
	const dollarSentinel = "\x00MARKETLENS_DOLLAR\x00"
	s = strings.ReplaceAll(s, "$$", dollarSentinel)

	missing := make(map[string]struct{})
	braced := bracedNames(s)

	out := os.Expand(s, func(name string) string {
		if key, def, ok := strings.Cut(name, ":-"); ok {
			if v := os.Getenv(key); v != "" {
				return v
			}
			return def
		}
		v, ok := os.LookupEnv(name)
		if !ok && braced[name] {
			missing[name] = struct{}{}
		}
		return v
	})

	if len(missing) > 0 {
		keys := make([]string, 0, len(missing))
		for k := range missing {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(keys, ", "))
	}

	return strings.ReplaceAll(out, dollarSentinel, "$"), nil
}

// bracedNames returns the names written as ${NAME} in s.
func bracedNames(s string) map[string]bool {
	names := make(map[string]bool)
	for {
		i := strings.Index(s, "${")
		if i < 0 {
			return names
		}
		s = s[i+2:]
		j := strings.IndexByte(s, '}')
		if j < 0 {
			return names
		}
		names[s[:j]] = true
		s = s[j+1:]
	}
}

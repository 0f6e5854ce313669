package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/text/unicode/norm"
)

// FormatVersion is mixed into every fingerprint. Bump it whenever the
// canonical form or the cached payload shape changes.
const FormatVersion = 2

// Fingerprint is a deterministic cache address for an analysis request.
type Fingerprint string

func (f Fingerprint) String() string { return string(f) }

// VolatileOptionKeys are option fields that never influence the result and
// are stripped before hashing.
var VolatileOptionKeys = []string{
	"requestId", "request_id",
	"timestamp",
	"userId", "user_id",
}

// controlOptionKeys steer caching itself and never reach the result.
var controlOptionKeys = []string{ForceRefreshOption, TTLOverrideOption}

// Hasher derives fingerprints from content, analysis type and options.
//
// Contract:
// - Determinism: same inputs must produce the same fingerprint, regardless
//   of map iteration or insertion order.
// - Concurrency: implementations must be safe for concurrent use.
type Hasher interface {
	Fingerprint(content any, analysisType string, options map[string]any) (Fingerprint, error)
}

// ContentHasher is the default Hasher.
//
// Key format: analysis:<analysisType>:<hash>
// where hash is the first 16 hex characters of
// SHA-256(contentDigest | analysisType | optionsDigest | v<FormatVersion>)
// and both digests are xxhash64 over the canonical JSON form.
type ContentHasher struct{}

// NewContentHasher creates a new content hasher.
func NewContentHasher() *ContentHasher {
	return &ContentHasher{}
}

// Fingerprint generates a deterministic cache key.
func (h *ContentHasher) Fingerprint(content any, analysisType string, options map[string]any) (Fingerprint, error) {
	canonicalContent, err := Canonicalize(content)
	if err != nil {
		return "", fmt.Errorf("cache: failed to canonicalize content: %w", err)
	}
	canonicalOptions, err := Canonicalize(NormalizeOptions(options))
	if err != nil {
		return "", fmt.Errorf("cache: failed to canonicalize options: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(strconv.FormatUint(xxhash.Sum64(canonicalContent), 16))
	buf.WriteByte('|')
	buf.WriteString(analysisType)
	buf.WriteByte('|')
	buf.WriteString(strconv.FormatUint(xxhash.Sum64(canonicalOptions), 16))
	buf.WriteByte('|')
	buf.WriteString("v" + strconv.Itoa(FormatVersion))

	sum := sha256.Sum256(buf.Bytes())
	return Fingerprint(fmt.Sprintf("analysis:%s:%s", analysisType, hex.EncodeToString(sum[:8]))), nil
}

// NormalizeOptions returns a copy of options without volatile or cache
// control fields.
// A nil or empty input yields nil.
func NormalizeOptions(options map[string]any) map[string]any {
	if len(options) == 0 {
		return nil
	}
	out := make(map[string]any, len(options))
	for k, v := range options {
		out[k] = v
	}
	for _, k := range VolatileOptionKeys {
		delete(out, k)
	}
	for _, k := range controlOptionKeys {
		delete(out, k)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Canonicalize produces a deterministic JSON representation of v.
// Structs are first reduced to their JSON object form so that maps nested
// anywhere are emitted with sorted keys, and strings are NFC-normalized.
func Canonicalize(v any) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	return canonicalize(generic)
}

func canonicalize(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return []byte("null"), nil
	case map[string]any:
		return canonicalizeMap(val)
	case []any:
		return canonicalizeSlice(val)
	case string:
		return json.Marshal(norm.NFC.String(val))
	case json.Number:
		return []byte(val.String()), nil
	default:
		return json.Marshal(v)
	}
}

func canonicalizeMap(m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := []byte("{")
	for i, k := range keys {
		if i > 0 {
			result = append(result, ',')
		}

		keyBytes, err := json.Marshal(norm.NFC.String(k))
		if err != nil {
			return nil, err
		}
		result = append(result, keyBytes...)
		result = append(result, ':')

		valBytes, err := canonicalize(m[k])
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, '}')

	return result, nil
}

func canonicalizeSlice(s []any) ([]byte, error) {
	result := []byte("[")
	for i, v := range s {
		if i > 0 {
			result = append(result, ',')
		}

		valBytes, err := canonicalize(v)
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, ']')

	return result, nil
}

// Ensure ContentHasher implements Hasher
var _ Hasher = (*ContentHasher)(nil)

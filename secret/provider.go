package secret

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Provider resolves secrets by reference string.
//
// Implementations must be safe for concurrent use and must not log secret values.
type Provider interface {
	Name() string
	Resolve(ctx context.Context, ref string) (string, error)
	Close() error
}

// EnvProvider resolves a reference as an environment variable name:
// secretref:env:OPENAI_API_KEY.
type EnvProvider struct {
	// Prefix is prepended to every reference.
	Prefix string
}

func (p *EnvProvider) Name() string { return "env" }

func (p *EnvProvider) Resolve(_ context.Context, ref string) (string, error) {
	if strings.TrimSpace(ref) == "" {
		return "", ErrInvalidRef
	}
	v, ok := os.LookupEnv(p.Prefix + ref)
	if !ok {
		return "", fmt.Errorf("%w: env %s", ErrNotFound, p.Prefix+ref)
	}
	return v, nil
}

func (p *EnvProvider) Close() error { return nil }

// FileProvider resolves a reference as a file under Dir, the layout used by
// mounted container secrets: secretref:file:anthropic_api_key.
// Trailing newlines are trimmed.
type FileProvider struct {
	Dir string
}

func (p *FileProvider) Name() string { return "file" }

func (p *FileProvider) Resolve(ctx context.Context, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !filepath.IsLocal(ref) {
		return "", fmt.Errorf("%w: %q escapes secret dir", ErrInvalidRef, ref)
	}
	data, err := os.ReadFile(filepath.Join(p.Dir, ref))
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%w: file %s", ErrNotFound, ref)
	}
	if err != nil {
		return "", fmt.Errorf("secret: read %s: %w", ref, err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

func (p *FileProvider) Close() error { return nil }

func newEnvProvider(cfg map[string]any) (Provider, error) {
	prefix, _ := cfg["prefix"].(string)
	return &EnvProvider{Prefix: prefix}, nil
}

func newFileProvider(cfg map[string]any) (Provider, error) {
	dir, _ := cfg["dir"].(string)
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("%w: file provider requires dir", ErrInvalidRegistration)
	}
	return &FileProvider{Dir: dir}, nil
}

var (
	_ Provider = (*EnvProvider)(nil)
	_ Provider = (*FileProvider)(nil)
)

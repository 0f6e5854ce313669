package secret

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestEnvProvider(t *testing.T) {
	t.Setenv("ML_OPENAI_API_KEY", "sk-test")
	p := &EnvProvider{Prefix: "ML_"}

	got, err := p.Resolve(context.Background(), "OPENAI_API_KEY")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "sk-test" {
		t.Errorf("Resolve() = %q, want sk-test", got)
	}

	if _, err := p.Resolve(context.Background(), "NOT_SET_ANYWHERE"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve(unset) error = %v, want ErrNotFound", err)
	}
	if _, err := p.Resolve(context.Background(), ""); !errors.Is(err, ErrInvalidRef) {
		t.Errorf("Resolve(\"\") error = %v, want ErrInvalidRef", err)
	}
}

func TestFileProvider(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "anthropic_api_key"), []byte("sk-ant\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	p := &FileProvider{Dir: dir}

	got, err := p.Resolve(context.Background(), "anthropic_api_key")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "sk-ant" {
		t.Errorf("Resolve() = %q, want trailing newline trimmed", got)
	}

	if _, err := p.Resolve(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve(missing) error = %v, want ErrNotFound", err)
	}
}

func TestFileProvider_RejectsEscapes(t *testing.T) {
	p := &FileProvider{Dir: t.TempDir()}
	for _, ref := range []string{"../etc/passwd", "/etc/passwd", ""} {
		if _, err := p.Resolve(context.Background(), ref); !errors.Is(err, ErrInvalidRef) {
			t.Errorf("Resolve(%q) error = %v, want ErrInvalidRef", ref, err)
		}
	}
}

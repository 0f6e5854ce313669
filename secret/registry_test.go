package secret

import (
	"errors"
	"reflect"
	"testing"
)

func TestRegistry_RegisterAndCreate(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register("stub", func(cfg map[string]any) (Provider, error) {
		return &stubProvider{name: "stub"}, nil
	}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	p, err := reg.Create("stub", map[string]any{"k": "v"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if p.Name() != "stub" {
		t.Fatalf("Name() = %q", p.Name())
	}
}

func TestRegistry_RegisterInvalid(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("  ", nil); !errors.Is(err, ErrInvalidRegistration) {
		t.Fatalf("Register() error = %v, want ErrInvalidRegistration", err)
	}
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	reg := NewRegistry()
	factory := func(map[string]any) (Provider, error) { return &stubProvider{name: "stub"}, nil }
	_ = reg.Register("stub", factory)

	if err := reg.Register("stub", factory); !errors.Is(err, ErrDuplicateProvider) {
		t.Fatalf("Register() error = %v, want ErrDuplicateProvider", err)
	}
}

func TestRegistry_CreateUnknown(t *testing.T) {
	if _, err := NewRegistry().Create("missing", nil); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("Create() error = %v, want ErrUnknownProvider", err)
	}
}

func TestDefaultRegistry(t *testing.T) {
	reg := NewDefaultRegistry()
	if got, want := reg.List(), []string{"env", "file"}; !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
	if _, err := reg.Create("file", nil); !errors.Is(err, ErrInvalidRegistration) {
		t.Errorf("Create(file) without dir = %v, want ErrInvalidRegistration", err)
	}
}

func TestRegistry_BuildAlwaysIncludesEnv(t *testing.T) {
	reg := NewDefaultRegistry()

	providers, err := reg.Build(map[string]map[string]any{
		"file": {"dir": t.TempDir()},
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	var names []string
	for _, p := range providers {
		names = append(names, p.Name())
	}
	if want := []string{"env", "file"}; !reflect.DeepEqual(names, want) {
		t.Errorf("Build() names = %v, want %v", names, want)
	}
}

func TestRegistry_BuildFailsOnUnknown(t *testing.T) {
	_, err := NewDefaultRegistry().Build(map[string]map[string]any{"vault": nil})
	if !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("Build() error = %v, want ErrUnknownProvider", err)
	}
}

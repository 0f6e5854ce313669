package health

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
)

func TestStatus_String(t *testing.T) {
	tests := []struct {
		s    Status
		want string
	}{
		{StatusHealthy, "healthy"},
		{StatusDegraded, "degraded"},
		{StatusUnhealthy, "unhealthy"},
		{Status(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}

func TestStatus_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(map[string]Status{"s": StatusDegraded})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `{"s":"degraded"}` {
		t.Errorf("Marshal() = %s", data)
	}
}

func TestStatus_HTTPStatus(t *testing.T) {
	if got := StatusHealthy.HTTPStatus(); got != http.StatusOK {
		t.Errorf("healthy = %d, want 200", got)
	}
	if got := StatusDegraded.HTTPStatus(); got != http.StatusOK {
		t.Errorf("degraded = %d, want 200", got)
	}
	if got := StatusUnhealthy.HTTPStatus(); got != http.StatusServiceUnavailable {
		t.Errorf("unhealthy = %d, want 503", got)
	}
}

func TestWorst(t *testing.T) {
	if got := Worst(StatusHealthy, StatusDegraded); got != StatusDegraded {
		t.Errorf("Worst(healthy, degraded) = %v", got)
	}
	if got := Worst(StatusUnhealthy, StatusDegraded); got != StatusUnhealthy {
		t.Errorf("Worst(unhealthy, degraded) = %v", got)
	}
}

func TestResultConstructors(t *testing.T) {
	r := Unhealthy("down", ErrCheckFailed).WithDetails(map[string]any{"k": 1})
	if r.Status != StatusUnhealthy || r.Error != ErrCheckFailed || r.Details["k"] != 1 {
		t.Errorf("Unhealthy() = %+v", r)
	}
	if r.Timestamp.IsZero() {
		t.Error("Timestamp not set")
	}
	if Degraded("slow").Status != StatusDegraded {
		t.Error("Degraded() status mismatch")
	}
}

func TestCheckerFunc(t *testing.T) {
	c := NewCheckerFunc("probe", func(context.Context) Result { return Healthy("ok") })
	if c.Name() != "probe" {
		t.Errorf("Name() = %q", c.Name())
	}
	if got := c.Check(context.Background()); got.Message != "ok" {
		t.Errorf("Check().Message = %q", got.Message)
	}
}

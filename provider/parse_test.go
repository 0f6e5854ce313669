package provider

import (
	"errors"
	"testing"

	"github.com/jonwraymond/marketlens/analysis"
)

const envelope = `{"language":{"score":82,"issues":["mixed languages"],"suggestions":["translate buttons"]},
"culture":{"score":70.6,"issues":[],"suggestions":[]},
"compliance":{"score":140,"issues":[" "],"suggestions":["add imprint"]},
"userExperience":{"score":-5},
"confidence":"HIGH"}`

func TestExtractText(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		body   string
		want   string
	}{
		{"openai", FormatOpenAI, `{"choices":[{"message":{"role":"assistant","content":"{\"a\":1}"}}]}`, `{"a":1}`},
		{"anthropic", FormatAnthropic, `{"content":[{"type":"tool_use"},{"type":"text","text":"hello"}]}`, "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractText(tt.format, []byte(tt.body))
			if err != nil {
				t.Fatalf("ExtractText = %v", err)
			}
			if got != tt.want {
				t.Errorf("ExtractText = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractText_Errors(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		body   string
	}{
		{"not json", FormatOpenAI, "<html>"},
		{"no choices", FormatOpenAI, `{"choices":[]}`},
		{"empty content", FormatOpenAI, `{"choices":[{"message":{"content":"  "}}]}`},
		{"no text block", FormatAnthropic, `{"content":[{"type":"tool_use"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ExtractText(tt.format, []byte(tt.body)); !errors.Is(err, analysis.ErrParse) {
				t.Errorf("ExtractText = %v, want ErrParse", err)
			}
		})
	}
}

func TestParseEnvelope(t *testing.T) {
	got, err := ParseEnvelope(envelope, "DE")
	if err != nil {
		t.Fatalf("ParseEnvelope = %v", err)
	}
	if got.Region != "DE" || !got.AIEnhanced {
		t.Errorf("Region/AIEnhanced = %s/%v, want DE/true", got.Region, got.AIEnhanced)
	}
	if got.Language.Score != 82 || got.Culture.Score != 71 {
		t.Errorf("scores = %d/%d, want 82/71", got.Language.Score, got.Culture.Score)
	}
	if got.Compliance.Score != 100 || got.UserExperience.Score != 0 {
		t.Errorf("clamped scores = %d/%d, want 100/0", got.Compliance.Score, got.UserExperience.Score)
	}
	if len(got.Compliance.Issues) != 0 {
		t.Errorf("blank issues should be dropped, got %v", got.Compliance.Issues)
	}
	if got.UserExperience.Issues == nil {
		t.Error("missing issues should decode as an empty list")
	}
	if got.Confidence != analysis.ConfidenceHigh {
		t.Errorf("Confidence = %q, want %q", got.Confidence, analysis.ConfidenceHigh)
	}
}

func TestParseEnvelope_Wrapped(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"code fence", "Here you go:\n```json\n" + envelope + "\n```"},
		{"regions map", `{"regions":{"DE":` + envelope + `}}`},
		{"region key", `{"DE":` + envelope + `}`},
		{"analysis key", `{"analysis":` + envelope + `}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEnvelope(tt.text, "DE")
			if err != nil {
				t.Fatalf("ParseEnvelope = %v", err)
			}
			if got.Language.Score != 82 {
				t.Errorf("Language.Score = %d, want 82", got.Language.Score)
			}
		})
	}
}

func TestParseEnvelope_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no object", "I cannot help with that."},
		{"invalid json", "{language: 1}"},
		{"missing category", `{"language":{"score":1},"culture":{"score":1},"compliance":{"score":1}}`},
		{"string score", `{"language":{"score":"high"},"culture":{"score":1},"compliance":{"score":1},"userExperience":{"score":1}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseEnvelope(tt.text, "DE"); !errors.Is(err, analysis.ErrParse) {
				t.Errorf("ParseEnvelope = %v, want ErrParse", err)
			}
		})
	}
}

package provider

import (
	"fmt"
	"math"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/jonwraymond/marketlens/analysis"
)

// ExtractText returns the model text of a chat response.
func ExtractText(format Format, body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("%w: response is not json", analysis.ErrParse)
	}
	var text gjson.Result
	switch format {
	case FormatAnthropic:
		for _, block := range gjson.GetBytes(body, "content").Array() {
			if block.Get("type").String() == "text" {
				text = block.Get("text")
				break
			}
		}
	default:
		text = gjson.GetBytes(body, "choices.0.message.content")
	}
	if !text.Exists() || strings.TrimSpace(text.String()) == "" {
		return "", fmt.Errorf("%w: no message content", analysis.ErrParse)
	}
	return text.String(), nil
}

// ParseEnvelope reads a region result from model text. The JSON object may
// be wrapped in prose or a code fence, and may nest the result under
// "regions.<code>" or "analysis".
func ParseEnvelope(text, region string) (analysis.RegionAnalysisResult, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return analysis.RegionAnalysisResult{}, fmt.Errorf("%w: no json object in response", analysis.ErrParse)
	}
	raw := text[start : end+1]
	if !gjson.Valid(raw) {
		return analysis.RegionAnalysisResult{}, fmt.Errorf("%w: invalid json object", analysis.ErrParse)
	}

	root := gjson.Parse(raw)
	for _, path := range []string{"regions." + region, region, "analysis"} {
		if r := root.Get(path); r.IsObject() {
			root = r
			break
		}
	}

	out := analysis.RegionAnalysisResult{Region: region, AIEnhanced: true}
	for _, c := range analysis.Categories {
		obj := root.Get(string(c))
		score := obj.Get("score")
		if !obj.IsObject() || score.Type != gjson.Number {
			return analysis.RegionAnalysisResult{}, fmt.Errorf("%w: missing %s score", analysis.ErrParse, c)
		}
		*out.Category(c) = analysis.CategoryScore{
			Score:       clamp(score.Float()),
			Issues:      stringArray(obj.Get("issues")),
			Suggestions: stringArray(obj.Get("suggestions")),
		}
	}
	if conf := root.Get("confidence").String(); conf != "" {
		out.Confidence = analysis.Confidence(strings.ToLower(conf))
	}
	return out, nil
}

func clamp(f float64) int {
	return int(math.Round(math.Min(math.Max(f, 0), 100)))
}

func stringArray(r gjson.Result) []string {
	out := []string{}
	for _, v := range r.Array() {
		if s := strings.TrimSpace(v.String()); s != "" {
			out = append(out, s)
		}
	}
	return out
}

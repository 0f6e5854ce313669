package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonwraymond/marketlens/analysis"
)

// maxPromptParagraphs bounds how much page text is sent to the model.
const maxPromptParagraphs = 40

const systemPrompt = `You review web pages for fitness in a target market.
Reply with one JSON object and nothing else:
{"language":{"score":0-100,"issues":[],"suggestions":[]},
 "culture":{...},"compliance":{...},"userExperience":{...},
 "confidence":"high|medium|low"}`

func buildUserPrompt(content analysis.Content, region analysis.Region, analysisType string) (string, error) {
	trimmed := content
	if len(trimmed.Text.Paragraphs) > maxPromptParagraphs {
		trimmed.Text.Paragraphs = trimmed.Text.Paragraphs[:maxPromptParagraphs]
	}
	page, err := json.Marshal(trimmed)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Target market: %s (%s)\n", region.Name, region.Code)
	if len(region.Languages) > 0 {
		fmt.Fprintf(&b, "Languages: %s\n", strings.Join(region.Languages, ", "))
	}
	if region.Currency != "" {
		fmt.Fprintf(&b, "Currency: %s\n", region.Currency)
	}
	if len(region.Laws) > 0 {
		fmt.Fprintf(&b, "Regulations: %s\n", strings.Join(region.Laws, ", "))
	}
	fmt.Fprintf(&b, "Analysis type: %s\n\nPage:\n%s", analysisType, page)
	return b.String(), nil
}

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jonwraymond/marketlens/analysis"
	"github.com/jonwraymond/marketlens/resilience"
)

// AnthropicVersion is sent with every Anthropic request.
const AnthropicVersion = "2023-06-01"

// Defaults for ClientConfig.
const (
	DefaultMaxTokens   = 1500
	DefaultTemperature = 0.2
	maxResponseBody    = 1 << 20
)

// ClientConfig configures a Client.
type ClientConfig struct {
	Spec   Spec
	APIKey string

	// HTTPClient sends requests. Default: a client without a global timeout;
	// per-attempt timeouts come from the executor.
	HTTPClient *http.Client

	// Executor wraps every call. Default: built from resilience.DefaultConfig()
	Executor *resilience.Executor

	MaxTokens   int
	Temperature float64
}

// Client is an analysis.AIAnalyzer backed by one provider.
type Client struct {
	spec        Spec
	apiKey      string
	http        *http.Client
	exec        *resilience.Executor
	maxTokens   int
	temperature float64
}

// NewClient validates cfg and builds a Client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if err := cfg.Spec.Validate(); err != nil {
		return nil, err
	}
	if cfg.APIKey == "" {
		return nil, &analysis.ConfigurationError{Field: "APIKey", Value: cfg.Spec.Name, Err: ErrNoProvider}
	}
	c := &Client{
		spec:        cfg.Spec,
		apiKey:      cfg.APIKey,
		http:        cfg.HTTPClient,
		exec:        cfg.Executor,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.exec == nil {
		exec, err := resilience.NewExecutorFromConfig(cfg.Spec.Name, resilience.DefaultConfig())
		if err != nil {
			return nil, err
		}
		c.exec = exec
	}
	if c.maxTokens <= 0 {
		c.maxTokens = DefaultMaxTokens
	}
	if c.temperature <= 0 {
		c.temperature = DefaultTemperature
	}
	return c, nil
}

// Name returns the provider name.
func (c *Client) Name() string { return c.spec.Name }

// Spec returns the provider spec.
func (c *Client) Spec() Spec { return c.spec }

// Breaker returns the executor's circuit breaker, or nil.
func (c *Client) Breaker() *resilience.CircuitBreaker { return c.exec.CircuitBreaker() }

// AnalyzeForRegion asks the provider to score content for region.
func (c *Client) AnalyzeForRegion(ctx context.Context, content analysis.Content, region string, opts analysis.AIOptions) (analysis.RegionAnalysisResult, error) {
	reg, err := analysis.LookupRegion(region)
	if err != nil {
		return analysis.RegionAnalysisResult{}, err
	}
	prompt, err := buildUserPrompt(content, reg, opts.AnalysisType)
	if err != nil {
		return analysis.RegionAnalysisResult{}, c.wrap(reg.Code, fmt.Errorf("%w: encode content: %v", analysis.ErrParse, err))
	}

	result, err := resilience.ExecuteValue(ctx, c.exec, func(ctx context.Context) (analysis.RegionAnalysisResult, error) {
		return c.call(ctx, reg.Code, prompt, opts.RequestID)
	})
	if err != nil {
		return analysis.RegionAnalysisResult{}, c.wrap(reg.Code, err)
	}
	result.Provider = c.spec.Name
	return result, nil
}

// wrap makes every failure a ProviderError for this provider and region.
func (c *Client) wrap(region string, err error) error {
	var pe *analysis.ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &analysis.ProviderError{
		Provider:  c.spec.Name,
		Region:    region,
		Temporary: analysis.IsTimeout(err),
		Err:       err,
	}
}

func (c *Client) call(ctx context.Context, region, prompt, requestID string) (analysis.RegionAnalysisResult, error) {
	req, err := c.newRequest(ctx, prompt)
	if err != nil {
		return analysis.RegionAnalysisResult{}, err
	}
	if requestID != "" {
		req.Header.Set("X-Request-Id", requestID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return analysis.RegionAnalysisResult{}, ctxErr
		}
		return analysis.RegionAnalysisResult{}, &analysis.ProviderError{
			Provider: c.spec.Name, Region: region, Temporary: true, Err: err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return analysis.RegionAnalysisResult{}, MapHTTPError(c.spec.Name, region, resp.StatusCode, ReadErrorMessage(resp.Body))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return analysis.RegionAnalysisResult{}, &analysis.ProviderError{
			Provider: c.spec.Name, Region: region, Temporary: true, Err: err,
		}
	}
	text, err := ExtractText(c.spec.Format, body)
	if err != nil {
		return analysis.RegionAnalysisResult{}, &analysis.ProviderError{Provider: c.spec.Name, Region: region, Err: err}
	}
	result, err := ParseEnvelope(text, region)
	if err != nil {
		return analysis.RegionAnalysisResult{}, &analysis.ProviderError{Provider: c.spec.Name, Region: region, Err: err}
	}
	return result, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type anthropicRequest struct {
	Model       string        `json:"model"`
	System      string        `json:"system"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

func (c *Client) newRequest(ctx context.Context, prompt string) (*http.Request, error) {
	base := strings.TrimSuffix(c.spec.BaseURL, "/")
	var (
		url     string
		payload any
	)
	switch c.spec.Format {
	case FormatAnthropic:
		url = base + "/messages"
		payload = anthropicRequest{
			Model:       c.spec.Model,
			System:      systemPrompt,
			Messages:    []chatMessage{{Role: "user", Content: prompt}},
			Temperature: c.temperature,
			MaxTokens:   c.maxTokens,
		}
	default:
		url = base + "/chat/completions"
		payload = openAIRequest{
			Model: c.spec.Model,
			Messages: []chatMessage{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: prompt},
			},
			Temperature:    c.temperature,
			MaxTokens:      c.maxTokens,
			ResponseFormat: map[string]string{"type": "json_object"},
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	switch c.spec.Format {
	case FormatAnthropic:
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("anthropic-version", AnthropicVersion)
	default:
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

var _ analysis.AIAnalyzer = (*Client)(nil)

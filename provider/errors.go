package provider

import (
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/jonwraymond/marketlens/analysis"
)

// StatusOverloaded is returned by some providers when the model is overloaded.
const StatusOverloaded = 529

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// MapHTTPError converts a non-2xx response into a ProviderError with the
// right retry marking.
func MapHTTPError(provider, region string, status int, msg string) *analysis.ProviderError {
	temporary := false
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
	case status == http.StatusTooManyRequests, status == http.StatusRequestTimeout, status == StatusOverloaded:
		temporary = true
	case status >= 500:
		temporary = true
	}
	return &analysis.ProviderError{
		Provider:  provider,
		Region:    region,
		Status:    status,
		Temporary: temporary,
		Err:       &apiError{status: status, msg: msg},
	}
}

type apiError struct {
	status int
	msg    string
}

func (e *apiError) Error() string {
	if e.msg == "" {
		return http.StatusText(e.status)
	}
	return e.msg
}

// ReadErrorMessage extracts a human readable message from an error body,
// falling back to the raw text.
func ReadErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil {
		return "failed to read error response"
	}
	if gjson.ValidBytes(data) {
		msg := gjson.GetBytes(data, "error.message")
		if !msg.Exists() {
			msg = gjson.GetBytes(data, "message")
		}
		if msg.Exists() && msg.String() != "" {
			if typ := gjson.GetBytes(data, "error.type").String(); typ != "" {
				return msg.String() + " (type: " + typ + ")"
			}
			return msg.String()
		}
	}
	return strings.TrimSpace(string(data))
}

package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ProviderAPIError is returned when a model provider rejects a request:
// bad credentials, exhausted credits, malformed tool schema, and so on.
type ProviderAPIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderAPIError) Error() string {
	return fmt.Sprintf("provider %s: API error %d: %s", e.Provider, e.StatusCode, e.Message)
}

// CreditExhausted reports whether the failure looks like the provider ran
// out of credits or quota, so the request boundary can answer 402.
func (e *ProviderAPIError) CreditExhausted() bool {
	if e.StatusCode == 402 || e.StatusCode == 429 {
		return true
	}
	msg := strings.ToLower(e.Message)
	return strings.Contains(msg, "insufficient") ||
		strings.Contains(msg, "credit") ||
		strings.Contains(msg, "quota")
}

// IsToolUseFailure reports whether an error carries the provider signature
// for a malformed tool-call generation. The agent answers these with a
// reset apology instead of the generic one.
func IsToolUseFailure(err error) bool {
	return err != nil && strings.Contains(err.Error(), "tool_use_failed")
}

// AsProviderError unwraps err into a *ProviderAPIError if it is one.
func AsProviderError(err error) (*ProviderAPIError, bool) {
	var pe *ProviderAPIError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

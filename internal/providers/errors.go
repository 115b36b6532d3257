// internal/providers/errors.go
package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Failure taxonomy shared by every adapter. None of these are retried.
var (
	ErrNoProviderSelected = errors.New("no AI provider selected")
	ErrInvalidAPIKey      = errors.New("invalid API key")
	ErrRateLimited        = errors.New("rate limited")
	ErrNetwork            = errors.New("network error")
	ErrInvalidResponse    = errors.New("invalid response from AI provider")
)

// UserMessage maps an error to the text shown in the overlay status line
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoProviderSelected):
		return "No AI provider selected. Please configure an API key."
	case errors.Is(err, ErrInvalidAPIKey):
		return "Invalid API key. Please check your settings."
	case errors.Is(err, ErrRateLimited):
		return "Rate limited. Please wait and try again."
	case errors.Is(err, ErrNetwork):
		return "Network error. Please check your connection."
	case errors.Is(err, ErrInvalidResponse):
		return "Invalid response from AI provider."
	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out. Please try again."
	case errors.Is(err, context.Canceled):
		return "Request cancelled."
	default:
		return err.Error()
	}
}

// statusError maps an HTTP status to the taxonomy
func statusError(code int) error {
	switch code {
	case http.StatusOK:
		return ErrInvalidResponse
	case http.StatusUnauthorized:
		return ErrInvalidAPIKey
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return fmt.Errorf("%w: HTTP %d", ErrNetwork, code)
	}
}

// classify maps an SDK error plus the raw response it saw to the taxonomy.
// Context errors pass through unchanged so callers can tell cancellation apart.
func classify(resp *http.Response, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if resp == nil {
		// never reached the server
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	code := resp.StatusCode
	if code >= 200 && code < 300 {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return fmt.Errorf("%w: %v", statusError(code), err)
}

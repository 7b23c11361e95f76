package fetch

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-shop-client/internal/errors"
)

// Response is a fully read HTTP response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode <= 299
}

// DecodeJSON decodes the body into v
func (r *Response) DecodeJSON(v any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("[fetch DecodeJSON] empty body")
	}
	return json.Unmarshal(r.Body, v)
}

// Err returns a *StatusError for non-2xx responses and nil otherwise
func (r *Response) Err() error {
	if r.OK() {
		return nil
	}
	return &StatusError{StatusCode: r.StatusCode, Message: errorMessage(r.Body)}
}

// StatusError is a non-success response passed through to the caller
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("status %d", e.StatusCode)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

func (e *StatusError) Is(target error) bool {
	return target == errors.ErrUnexpectedStatus
}

// errorMessage extracts the backend's {"error": "..."} message, falling back to the raw text
func errorMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

// CheckStatus returns resp.Err() with the call described, or nil for 2xx responses
func CheckStatus(resp *Response, method, path string) error {
	if err := resp.Err(); err != nil {
		return fmt.Errorf("[fetch CheckStatus] %s %s: %w", method, path, err)
	}
	return nil
}

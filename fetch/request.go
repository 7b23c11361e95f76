package fetch

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Request describes one call. The body is kept as bytes so the call can be replayed after a renewal.
type Request struct {
	Method    string
	Path      string // relative to the client's base URL, or an absolute URL
	Header    http.Header
	Body      []byte
	Multipart bool // binary/multipart payloads keep their own Content-Type
}

// NewRequest creates a request without a body
func NewRequest(method, path string) *Request {
	return &Request{Method: method, Path: path, Header: http.Header{}}
}

// NewJSONRequest encodes v as the request body
func NewJSONRequest(method, path string, v any) (*Request, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("[fetch NewJSONRequest] failed to encode body: %w", err)
	}
	return &Request{Method: method, Path: path, Header: http.Header{}, Body: body}, nil
}

// NewMultipartRequest carries a pre-encoded multipart (or other binary) payload with its content type
func NewMultipartRequest(method, path, contentType string, body []byte) *Request {
	h := http.Header{}
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return &Request{Method: method, Path: path, Header: h, Body: body, Multipart: true}
}

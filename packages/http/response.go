package http

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// RawResponse is the transport outcome handed to a ResponseFactory.
// Err is set when no usable HTTP response was received.
type RawResponse struct {
	Request    Requester
	URL        string
	StatusCode int
	Status     string
	Headers    map[string]string
	Body       []byte
	Duration   time.Duration
	Err        error
}

func newRawResponse(req Requester, requestURL string, resp *resty.Response, err error) *RawResponse {
	raw := &RawResponse{
		Request: req,
		URL:     requestURL,
		Headers: make(map[string]string),
		Err:     err,
	}
	if resp == nil {
		return raw
	}
	raw.Duration = resp.Time()
	if resp.RawResponse == nil {
		return raw
	}

	raw.StatusCode = resp.StatusCode()
	raw.Status = resp.Status()
	raw.Body = resp.Body()
	for k := range resp.Header() {
		raw.Headers[k] = resp.Header().Get(k)
	}
	return raw
}

func (r *RawResponse) BodyString() string {
	return string(r.Body)
}

func (r *RawResponse) Header(key string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func (r *RawResponse) ContentType() string {
	return r.Header("Content-Type")
}

func (r *RawResponse) IsJSON() bool {
	return strings.Contains(r.ContentType(), "application/json")
}

func (r *RawResponse) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *RawResponse) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

func (r *RawResponse) IsServerError() bool {
	return r.StatusCode >= 500
}

func (r *RawResponse) DurationMs() int64 {
	return r.Duration.Milliseconds()
}

// Response is the caller-defined result of a call.
type Response interface {
	Success() bool
	Err() error
}

// ResponseFactory builds a Response from the raw transport outcome
type ResponseFactory func(raw *RawResponse) Response

// JSONResponse is the default Response. It succeeds on a 2xx status without a
// transport error and exposes the body through gjson paths.
type JSONResponse struct {
	*RawResponse
	payload gjson.Result
	err     error
}

// NewJSONResponse is the default ResponseFactory
func NewJSONResponse(raw *RawResponse) Response {
	return newJSONResponse(raw)
}

func newJSONResponse(raw *RawResponse) *JSONResponse {
	r := &JSONResponse{RawResponse: raw}
	if len(raw.Body) > 0 && gjson.ValidBytes(raw.Body) {
		r.payload = gjson.ParseBytes(raw.Body)
	}

	switch {
	case raw.Err != nil:
		r.err = raw.Err
	case !raw.IsSuccess():
		r.err = &StatusError{
			StatusCode: raw.StatusCode,
			Status:     raw.Status,
			Message:    r.serverMessage(),
		}
	}
	return r
}

func (r *JSONResponse) Success() bool {
	return r.err == nil
}

func (r *JSONResponse) Err() error {
	return r.err
}

// Get returns the value at a gjson path in the body
func (r *JSONResponse) Get(path string) gjson.Result {
	return r.payload.Get(path)
}

// Payload returns the decoded body, or nil when the body is not JSON
func (r *JSONResponse) Payload() any {
	if !r.payload.Exists() {
		return nil
	}
	return r.payload.Value()
}

// Decode unmarshals the body into v
func (r *JSONResponse) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}

func (r *JSONResponse) serverMessage() string {
	for _, path := range []string{"message", "error", "error.message"} {
		if v := r.payload.Get(path); v.Type == gjson.String {
			return v.String()
		}
	}
	return ""
}

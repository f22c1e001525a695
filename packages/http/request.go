package http

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// DefaultRequestTimeout is applied when a request does not set its own timeout
const DefaultRequestTimeout = 30 * time.Second

type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
)

func (m Method) String() string {
	return string(m)
}

// ParseMethod converts a case-insensitive method name into a Method
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToUpper(strings.TrimSpace(s))) {
	case MethodGet:
		return MethodGet, nil
	case MethodPost:
		return MethodPost, nil
	case MethodPut:
		return MethodPut, nil
	case MethodDelete:
		return MethodDelete, nil
	}
	return "", fmt.Errorf("unsupported HTTP method: %s", s)
}

// Encoding selects how request parameters are serialized
type Encoding int

const (
	// EncodingJSON sends parameters as a JSON body
	EncodingJSON Encoding = iota
	// EncodingURL sends parameters in the query string or as a form body
	EncodingURL
)

func (e Encoding) String() string {
	if e == EncodingURL {
		return "url"
	}
	return "json"
}

// Kind tags a request as ordinary or multipart so clients can reject the wrong variant
type Kind int

const (
	KindOrdinary Kind = iota
	KindMultipart
)

func (k Kind) String() string {
	if k == KindMultipart {
		return "multipart"
	}
	return "ordinary"
}

// Requester describes one outbound call relative to a client's host URL.
type Requester interface {
	RelativeURL() string
	Method() Method
	Headers() map[string]string
	Parameters() map[string]any
	Encoding() Encoding
	Timeout() time.Duration
	Kind() Kind
}

// MultipartRequester is a Requester carrying file attachments.
type MultipartRequester interface {
	Requester
	Files() []UploadFile
}

// CodableRequester is a Requester whose body is a JSON-encodable value instead of parameters.
type CodableRequester interface {
	Requester
	Body() any
}

type Request struct {
	relativeURL string
	method      Method
	headers     map[string]string
	parameters  map[string]any
	encoding    Encoding
	timeout     time.Duration
	kind        Kind
}

func NewRequest(relativeURL string, method Method) *Request {
	return &Request{
		relativeURL: relativeURL,
		method:      method,
		headers:     make(map[string]string),
		parameters:  make(map[string]any),
		encoding:    EncodingJSON,
		timeout:     DefaultRequestTimeout,
		kind:        KindOrdinary,
	}
}

func (r *Request) RelativeURL() string        { return r.relativeURL }
func (r *Request) Method() Method             { return r.method }
func (r *Request) Headers() map[string]string { return r.headers }
func (r *Request) Parameters() map[string]any { return r.parameters }
func (r *Request) Encoding() Encoding         { return r.encoding }
func (r *Request) Timeout() time.Duration     { return r.timeout }
func (r *Request) Kind() Kind                 { return r.kind }

func (r *Request) SetHeader(key, value string) *Request {
	r.headers[key] = value
	return r
}

func (r *Request) SetHeaders(headers map[string]string) *Request {
	for k, v := range headers {
		r.headers[k] = v
	}
	return r
}

func (r *Request) SetParameter(key string, value any) *Request {
	r.parameters[key] = value
	return r
}

func (r *Request) SetParameters(params map[string]any) *Request {
	for k, v := range params {
		r.parameters[k] = v
	}
	return r
}

func (r *Request) SetEncoding(e Encoding) *Request {
	r.encoding = e
	return r
}

func (r *Request) SetTimeout(d time.Duration) *Request {
	r.timeout = d
	return r
}

func (r *Request) String() string {
	return joinTrimmed([]string{
		fmt.Sprintf("[Relative URL]:    %s", r.relativeURL),
		fmt.Sprintf("[Method]:          %s", r.method),
		fmt.Sprintf("[Headers]:         %v", r.headers),
	}, "\n")
}

// joinTrimmed joins parts and strips leading and trailing separator characters
func joinTrimmed(parts []string, sep string) string {
	return strings.Trim(strings.Join(parts, sep), sep)
}

// UploadFile points at a local file attached to a multipart request.
// Files without a Path are skipped when the body is assembled.
type UploadFile struct {
	Path string
	Name string
}

// FieldName returns the form field name used for the file part
func (f UploadFile) FieldName() string {
	if f.Name != "" {
		return f.Name
	}
	return filepath.Base(f.Path)
}

type MultipartRequest struct {
	*Request
	files []UploadFile
}

// NewMultipartRequest creates a POST multipart request
func NewMultipartRequest(relativeURL string, files ...UploadFile) *MultipartRequest {
	return NewMultipartRequestWithMethod(relativeURL, MethodPost, files...)
}

func NewMultipartRequestWithMethod(relativeURL string, method Method, files ...UploadFile) *MultipartRequest {
	r := NewRequest(relativeURL, method)
	r.kind = KindMultipart
	return &MultipartRequest{
		Request: r,
		files:   append([]UploadFile(nil), files...),
	}
}

func (r *MultipartRequest) Files() []UploadFile {
	return r.files
}

func (r *MultipartRequest) AddFile(f UploadFile) *MultipartRequest {
	r.files = append(r.files, f)
	return r
}

type CodableRequest struct {
	*Request
	body any
}

func NewCodableRequest(relativeURL string, method Method, body any) *CodableRequest {
	return &CodableRequest{
		Request: NewRequest(relativeURL, method),
		body:    body,
	}
}

func (r *CodableRequest) Body() any {
	return r.body
}

func (r *CodableRequest) SetBody(body any) *CodableRequest {
	r.body = body
	return r
}

package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/tidwall/gjson"

	hithttp "github.com/abdul-hamid-achik/hitclient/packages/http"
	"github.com/abdul-hamid-achik/hitclient/packages/metrics"
	"github.com/abdul-hamid-achik/hitclient/packages/reachability"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	Responses    []JSONResponse    `json:"responses,omitempty"`
	Summary      *JSONSummary      `json:"summary,omitempty"`
	Reachability *JSONReachability `json:"reachability,omitempty"`
	Info         map[string]string `json:"info,omitempty"`
	Errors       []string          `json:"errors,omitempty"`
	Time         string            `json:"time"`
}

// JSONResponse represents one completed call
type JSONResponse struct {
	Method     string            `json:"method,omitempty"`
	URL        string            `json:"url"`
	Success    bool              `json:"success"`
	StatusCode int               `json:"statusCode,omitempty"`
	Status     string            `json:"status,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       any               `json:"body,omitempty"`
	Duration   float64           `json:"duration"`
	Error      string            `json:"error,omitempty"`
}

// JSONSummary represents latency statistics over repeated calls
type JSONSummary struct {
	Total   int64   `json:"total"`
	Success int64   `json:"success"`
	Errors  int64   `json:"errors"`
	RPS     float64 `json:"rps"`
	P50     float64 `json:"p50"`
	P95     float64 `json:"p95"`
	P99     float64 `json:"p99"`
	Max     float64 `json:"max"`
}

type JSONReachability struct {
	Reachable bool   `json:"reachable"`
	Status    string `json:"status"`
}

// JSONFormatter accumulates results and writes them as one document on Flush
type JSONFormatter struct {
	writer io.Writer
	output JSONOutput
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		if w != nil {
			f.writer = w
		}
	}
}

func (f *JSONFormatter) FormatResponse(resp *hithttp.JSONResponse, err error) {
	if resp == nil || resp.RawResponse == nil {
		f.FormatError(err)
		return
	}

	raw := resp.RawResponse
	entry := JSONResponse{
		URL:        raw.URL,
		Success:    err == nil,
		StatusCode: raw.StatusCode,
		Status:     raw.Status,
		Headers:    raw.Headers,
		Duration:   float64(raw.DurationMs()),
	}
	if raw.Request != nil {
		entry.Method = raw.Request.Method().String()
	}
	if len(raw.Body) > 0 {
		if gjson.ValidBytes(raw.Body) {
			entry.Body = json.RawMessage(raw.Body)
		} else {
			entry.Body = raw.BodyString()
		}
	}
	if err != nil {
		entry.Error = err.Error()
	}

	f.output.Responses = append(f.output.Responses, entry)
}

// FormatProgress is a no-op: progress is not part of the document
func (f *JSONFormatter) FormatProgress(fraction float64) {}

func (f *JSONFormatter) FormatSummary(s metrics.Summary) {
	f.output.Summary = &JSONSummary{
		Total:   s.Total,
		Success: s.Success,
		Errors:  s.Errors,
		RPS:     s.RPS,
		P50:     milliseconds(s.P50),
		P95:     milliseconds(s.P95),
		P99:     milliseconds(s.P99),
		Max:     milliseconds(s.Max),
	}
}

func (f *JSONFormatter) FormatReachability(status reachability.Status) {
	f.output.Reachability = &JSONReachability{
		Reachable: status.Reachable(),
		Status:    status.String(),
	}
}

func (f *JSONFormatter) FormatInfo(fields []Field) {
	if f.output.Info == nil {
		f.output.Info = make(map[string]string, len(fields))
	}
	for _, field := range fields {
		f.output.Info[field.Name] = field.Value
	}
}

func (f *JSONFormatter) FormatError(err error) {
	if err == nil {
		return
	}
	f.output.Errors = append(f.output.Errors, err.Error())
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush() error {
	f.output.Time = time.Now().Format(time.RFC3339)

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(f.output)
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

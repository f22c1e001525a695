package output

import (
	"fmt"
	"io"
	"sort"

	hithttp "github.com/abdul-hamid-achik/hitclient/packages/http"
	"github.com/abdul-hamid-achik/hitclient/packages/metrics"
	"github.com/abdul-hamid-achik/hitclient/packages/reachability"
)

// Formatter renders command results. Flush is called once when the command ends.
type Formatter interface {
	FormatResponse(resp *hithttp.JSONResponse, err error)
	FormatProgress(fraction float64)
	FormatSummary(summary metrics.Summary)
	FormatReachability(status reachability.Status)
	FormatInfo(fields []Field)
	FormatError(err error)
	Flush() error
}

// Field is one labelled value of FormatInfo
type Field struct {
	Name  string
	Value string
}

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// New returns the formatter registered under format
func New(format string, w io.Writer, verbose, noColor bool) (Formatter, error) {
	switch format {
	case "", FormatConsole:
		return NewConsoleFormatter(WithWriter(w), WithVerbose(verbose), WithNoColor(noColor)), nil
	case FormatJSON:
		return NewJSONFormatter(JSONWithWriter(w)), nil
	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}
}

func sortedHeaderNames(headers map[string]string) []string {
	names := make([]string, 0, len(headers))
	for k := range headers {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func requestLine(raw *hithttp.RawResponse) string {
	if raw.Request == nil {
		return raw.URL
	}
	return raw.Request.Method().String() + " " + raw.URL
}

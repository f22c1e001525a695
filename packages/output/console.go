package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	hithttp "github.com/abdul-hamid-achik/hitclient/packages/http"
	"github.com/abdul-hamid-achik/hitclient/packages/metrics"
	"github.com/abdul-hamid-achik/hitclient/packages/reachability"
)

// maxBodyLen bounds how much of a non-verbose response body is printed
const maxBodyLen = 4096

type ConsoleFormatter struct {
	writer         io.Writer
	progressWriter io.Writer
	verbose        bool
	noColor        bool
	lastPercent    int
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer:         os.Stdout,
		progressWriter: os.Stderr,
		lastPercent:    -1,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		if w != nil {
			f.writer = w
		}
	}
}

// WithProgressWriter sets where upload progress goes, stderr by default
func WithProgressWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		if w != nil {
			f.progressWriter = w
		}
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) FormatResponse(resp *hithttp.JSONResponse, err error) {
	if resp == nil || resp.RawResponse == nil {
		f.FormatError(err)
		return
	}

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	raw := resp.RawResponse
	symbol := green("✓")
	if err != nil {
		symbol = red("✗")
	}

	status := raw.Status
	if status == "" && raw.StatusCode > 0 {
		status = fmt.Sprintf("%d", raw.StatusCode)
	}
	switch {
	case raw.StatusCode == 0:
		status = red("no response")
	case raw.IsSuccess():
		status = green(status)
	case raw.IsServerError():
		status = red(status)
	default:
		status = yellow(status)
	}

	fmt.Fprintf(f.writer, "%s %s %s %s\n", symbol, bold(requestLine(raw)), status, cyan(fmt.Sprintf("(%dms)", raw.DurationMs())))

	if f.verbose {
		for _, name := range sortedHeaderNames(raw.Headers) {
			fmt.Fprintf(f.writer, "  %s: %s\n", cyan(name), raw.Headers[name])
		}
	}

	if len(raw.Body) > 0 {
		fmt.Fprintf(f.writer, "\n%s\n", f.formatBody(raw.Body))
	}

	if err != nil {
		fmt.Fprintf(f.writer, "  %s %v\n", red("→"), err)
	}
}

func (f *ConsoleFormatter) formatBody(body []byte) string {
	if gjson.ValidBytes(body) {
		formatted := pretty.Pretty(body)
		if !color.NoColor {
			formatted = pretty.Color(formatted, nil)
		}
		return strings.TrimRight(string(formatted), "\n")
	}

	text := string(body)
	if !f.verbose && len(text) > maxBodyLen {
		return text[:maxBodyLen] + "..."
	}
	return text
}

// FormatProgress draws a single updating progress line
func (f *ConsoleFormatter) FormatProgress(fraction float64) {
	percent := int(fraction * 100)
	if percent == f.lastPercent {
		return
	}
	f.lastPercent = percent

	width := 30
	filled := int(fraction * float64(width))
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	fmt.Fprintf(f.progressWriter, "\rUploading %s %3d%%", bar, percent)
	if fraction >= 1 {
		fmt.Fprintln(f.progressWriter)
	}
}

func (f *ConsoleFormatter) FormatSummary(s metrics.Summary) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s\n", bold("Summary"))
	fmt.Fprintf(f.writer, "Requests: ")
	if s.Success > 0 {
		fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d succeeded", s.Success)))
	}
	if s.Errors > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", s.Errors)))
	}
	fmt.Fprintf(f.writer, "%d total\n", s.Total)
	fmt.Fprintf(f.writer, "Latency:  p50 %s  p95 %s  p99 %s  max %s\n", s.P50, s.P95, s.P99, s.Max)
	fmt.Fprintf(f.writer, "Rate:     %.1f req/s\n", s.RPS)

	if len(s.Requests) > 1 {
		for _, r := range s.Requests {
			fmt.Fprintf(f.writer, "  %s: %d total, %d failed, p50 %s, p95 %s\n", r.Name, r.Total, r.Errors, r.P50, r.P95)
		}
	}
}

func (f *ConsoleFormatter) FormatReachability(status reachability.Status) {
	if status.Reachable() {
		fmt.Fprintf(f.writer, "%s %s\n", color.GreenString("●"), status)
		return
	}
	fmt.Fprintf(f.writer, "%s %s\n", color.RedString("●"), status)
}

func (f *ConsoleFormatter) FormatInfo(fields []Field) {
	bold := color.New(color.Bold).SprintFunc()

	width := 0
	for _, field := range fields {
		if len(field.Name) > width {
			width = len(field.Name)
		}
	}
	for _, field := range fields {
		label := field.Name + ":" + strings.Repeat(" ", width-len(field.Name))
		fmt.Fprintf(f.writer, "%s %s\n", bold(label), field.Value)
	}
}

func (f *ConsoleFormatter) FormatError(err error) {
	if err == nil {
		return
	}
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) Flush() error {
	return nil
}

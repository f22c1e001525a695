package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	hithttp "github.com/abdul-hamid-achik/hitclient/packages/http"
)

type requestOptions struct {
	headers []string
	params  []string
	data    string
	form    bool
	schema  string
	timeout time.Duration
	repeat  int
	rate    float64
}

func newRequestCmd(root *rootOptions) *cobra.Command {
	opts := &requestOptions{}

	cmd := &cobra.Command{
		Use:   "request <METHOD> <path>",
		Short: "Send a request to the configured host",
		Long: `Send a GET, POST, PUT or DELETE request to a path on the configured host.

Parameters are JSON encoded by default. With --form they are URL encoded:
in the query string for GET and DELETE, in the body otherwise.

Examples:
  hitclient request GET /v1/ping
  hitclient request POST /users -p name=alice -p age=30
  hitclient request GET /search -p q=go --form
  hitclient request PUT /users/7 --data '{"name":"bob"}'
  hitclient request GET /v1/ping --repeat 20 --rate 5`,
		Args: usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, root, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVarP(&opts.headers, "header", "H", nil, "Request header \"Key: Value\" (repeatable)")
	flags.StringArrayVarP(&opts.params, "param", "p", nil, "Request parameter key=value, value parsed as JSON when possible (repeatable)")
	flags.StringVarP(&opts.data, "data", "d", "", "JSON request body, or @file to read it from a file")
	flags.BoolVar(&opts.form, "form", false, "URL-encode parameters instead of JSON")
	flags.StringVar(&opts.schema, "schema", "", "JSON schema file the response body must match")
	flags.DurationVar(&opts.timeout, "timeout", 0, "Request timeout (e.g. 10s); defaults to the config timeout")
	flags.IntVar(&opts.repeat, "repeat", 1, "Send the request N times and print latency statistics")
	flags.Float64Var(&opts.rate, "rate", 0, "Maximum requests per second, overrides rateLimit from config")

	return cmd
}

func runRequest(cmd *cobra.Command, root *rootOptions, opts *requestOptions, args []string) (err error) {
	method, err := hithttp.ParseMethod(args[0])
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}
	if opts.repeat < 1 {
		return withExitCode(ExitUsageError, fmt.Errorf("--repeat must be at least 1"))
	}

	s, err := newSession(cmd, root)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := s.close(); err == nil {
			err = closeErr
		}
	}()
	if err := s.requireHost(); err != nil {
		return err
	}

	path, err := s.expandPath(args[1])
	if err != nil {
		return err
	}
	req, err := buildRequest(path, method, opts, s.cfg.TimeoutDuration())
	if err != nil {
		return err
	}

	extra, err := responseOptions(opts.schema)
	if err != nil {
		return err
	}
	if opts.rate > 0 {
		extra = append(extra, hithttp.WithRateLimit(opts.rate))
	}
	client := hithttp.NewClient(s.cfg.HostURL, s.clientOptions(extra...)...)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var lastErr error
	for i := 0; i < opts.repeat; i++ {
		resp, callErr := hithttp.Do[*hithttp.JSONResponse](ctx, client, req)
		s.formatter.FormatResponse(resp, callErr)
		if callErr != nil {
			lastErr = callErr
			if hithttp.IsNoInternetConnection(callErr) || ctx.Err() != nil {
				break
			}
		}
	}

	if opts.repeat > 1 {
		s.formatter.FormatSummary(s.recorder.Summary())
	}
	return failed(lastErr)
}

// failed turns an already reported call error into a silent exit status
func failed(err error) error {
	if err == nil {
		return nil
	}
	if hithttp.IsNoInternetConnection(err) {
		return silentExit(ExitNetworkError, err)
	}
	return silentExit(ExitRequestFailure, err)
}

func buildRequest(path string, method hithttp.Method, opts *requestOptions, defaultTimeout time.Duration) (hithttp.Requester, error) {
	headers, err := parseHeaders(opts.headers)
	if err != nil {
		return nil, err
	}
	params, err := parseParams(opts.params)
	if err != nil {
		return nil, err
	}

	var base *hithttp.Request
	var req hithttp.Requester

	if opts.data != "" {
		body, err := readBody(opts.data)
		if err != nil {
			return nil, err
		}
		codable := hithttp.NewCodableRequest(path, method, body)
		base, req = codable.Request, codable
	} else {
		base = hithttp.NewRequest(path, method)
		req = base
	}

	base.SetHeaders(headers).SetParameters(params)
	if opts.form {
		base.SetEncoding(hithttp.EncodingURL)
	}
	switch {
	case opts.timeout > 0:
		base.SetTimeout(opts.timeout)
	case defaultTimeout > 0:
		base.SetTimeout(defaultTimeout)
	}
	return req, nil
}

func responseOptions(schemaPath string) ([]hithttp.ClientOption, error) {
	if schemaPath == "" {
		return nil, nil
	}
	factory, err := hithttp.SchemaResponseFactoryFromFile(schemaPath)
	if err != nil {
		return nil, withExitCode(ExitConfigError, err)
	}
	return []hithttp.ClientOption{hithttp.WithResponseFactory(factory)}, nil
}

// parseParams turns key=value pairs into request parameters. Values that parse
// as JSON keep their type, anything else is a string.
func parseParams(values []string) (map[string]any, error) {
	params := make(map[string]any, len(values))
	for _, v := range values {
		key, value, found := strings.Cut(v, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			return nil, withExitCode(ExitUsageError, fmt.Errorf("invalid parameter %q: expected key=value", v))
		}
		params[key] = parseParamValue(value)
	}
	return params, nil
}

func parseParamValue(value string) any {
	var decoded any
	if err := json.Unmarshal([]byte(value), &decoded); err == nil {
		return decoded
	}
	return value
}

func readBody(data string) (json.RawMessage, error) {
	raw := []byte(data)
	if path, ok := strings.CutPrefix(data, "@"); ok {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, withExitCode(ExitUsageError, fmt.Errorf("failed to read body file: %w", err))
		}
		raw = content
	}
	if !json.Valid(raw) {
		return nil, withExitCode(ExitUsageError, fmt.Errorf("request body is not valid JSON"))
	}
	return json.RawMessage(raw), nil
}

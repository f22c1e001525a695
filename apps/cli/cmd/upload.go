package cmd

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	hithttp "github.com/abdul-hamid-achik/hitclient/packages/http"
)

type uploadOptions struct {
	headers []string
	params  []string
	method  string
	schema  string
	timeout time.Duration
}

func newUploadCmd(root *rootOptions) *cobra.Command {
	opts := &uploadOptions{}

	cmd := &cobra.Command{
		Use:   "upload <path> <file>...",
		Short: "Upload files as multipart/form-data",
		Long: `Upload one or more files to a path on the configured host.

Each file is given as "field=path" or just "path", in which case the
file name is used as the form field. Parameters are sent as extra form
fields. Upload progress is shown on stderr.

Examples:
  hitclient upload /upload avatar=./me.png
  hitclient upload /documents ./a.pdf ./b.pdf -p album=work
  hitclient upload /documents/7 ./a.pdf --method PUT`,
		Args: usageArgs(cobra.MinimumNArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd, root, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVarP(&opts.headers, "header", "H", nil, "Request header \"Key: Value\" (repeatable)")
	flags.StringArrayVarP(&opts.params, "param", "p", nil, "Form field key=value (repeatable)")
	flags.StringVarP(&opts.method, "method", "X", "POST", "HTTP method")
	flags.StringVar(&opts.schema, "schema", "", "JSON schema file the response body must match")
	flags.DurationVar(&opts.timeout, "timeout", 0, "Request timeout (e.g. 2m); defaults to the config timeout")

	return cmd
}

func runUpload(cmd *cobra.Command, root *rootOptions, opts *uploadOptions, args []string) (err error) {
	method, err := hithttp.ParseMethod(opts.method)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	files, err := parseUploadFiles(args[1:])
	if err != nil {
		return err
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

	path, err := s.expandPath(args[0])
	if err != nil {
		return err
	}
	req, err := buildUploadRequest(path, method, files, opts, s.cfg.TimeoutDuration())
	if err != nil {
		return err
	}

	extra, err := responseOptions(opts.schema)
	if err != nil {
		return err
	}
	extra = append(extra, hithttp.WithProgressHandler(func(_ hithttp.Requester, fraction float64) {
		s.formatter.FormatProgress(fraction)
	}))
	client := hithttp.NewMultipartClient(s.cfg.HostURL, s.clientOptions(extra...)...)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resp, callErr := hithttp.Do[*hithttp.JSONResponse](ctx, client, req)
	s.formatter.FormatResponse(resp, callErr)
	return failed(callErr)
}

// parseUploadFiles accepts "field=path" or "path"
func parseUploadFiles(values []string) ([]hithttp.UploadFile, error) {
	files := make([]hithttp.UploadFile, 0, len(values))
	for _, v := range values {
		file := hithttp.UploadFile{Path: v}
		if name, path, found := strings.Cut(v, "="); found {
			file = hithttp.UploadFile{Name: strings.TrimSpace(name), Path: path}
		}
		if file.Path == "" {
			return nil, withExitCode(ExitUsageError, fmt.Errorf("invalid file %q: missing path", v))
		}
		files = append(files, file)
	}
	return files, nil
}

func buildUploadRequest(path string, method hithttp.Method, files []hithttp.UploadFile, opts *uploadOptions, defaultTimeout time.Duration) (*hithttp.MultipartRequest, error) {
	headers, err := parseHeaders(opts.headers)
	if err != nil {
		return nil, err
	}
	params, err := parseParams(opts.params)
	if err != nil {
		return nil, err
	}

	req := hithttp.NewMultipartRequestWithMethod(path, method, files...)
	req.SetHeaders(headers).SetParameters(params)
	switch {
	case opts.timeout > 0:
		req.SetTimeout(opts.timeout)
	case defaultTimeout > 0:
		req.SetTimeout(defaultTimeout)
	}
	return req, nil
}

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abdul-hamid-achik/hitclient/packages/core/config"
	"github.com/abdul-hamid-achik/hitclient/packages/core/env"
	"github.com/abdul-hamid-achik/hitclient/packages/deviceinfo"
	hithttp "github.com/abdul-hamid-achik/hitclient/packages/http"
	"github.com/abdul-hamid-achik/hitclient/packages/logging"
	"github.com/abdul-hamid-achik/hitclient/packages/metrics"
	"github.com/abdul-hamid-achik/hitclient/packages/output"
	"github.com/abdul-hamid-achik/hitclient/packages/reachability"
)

// session holds everything a command needs after flags and config are resolved
type session struct {
	cfg       *config.Config
	logger    *zap.Logger
	formatter output.Formatter
	device    *deviceinfo.Helper
	resolver  *env.Resolver
	recorder  *metrics.Recorder
	monitor   *reachability.Monitor
}

func newSession(cmd *cobra.Command, opts *rootOptions) (*session, error) {
	if opts.envFile != "" {
		if _, err := env.LoadAndExportDotEnv(opts.envFile); err != nil {
			return nil, withExitCode(ExitConfigError, err)
		}
	} else if _, err := env.LoadDir("."); err != nil {
		return nil, withExitCode(ExitConfigError, err)
	}

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, withExitCode(ExitConfigError, err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, withExitCode(ExitConfigError, err)
	}

	cfg = cfg.Merge(flagConfig(cmd, opts))

	logger := logging.ForCLI(cfg.LogLevel, cfg.GetVerbose())

	device := deviceinfo.New(
		deviceinfo.WithIdentifier(cfg.Device.Identifier),
		deviceinfo.WithInterface(cfg.Device.Interface),
		deviceinfo.WithApp(deviceinfo.App{
			Name:    cfg.App.Name,
			Version: cfg.App.Version,
			Build:   cfg.App.Build,
			StoreID: cfg.App.StoreID,
			Region:  cfg.App.Region,
		}),
	)

	resolver := env.NewResolver()
	resolver.SetWarnFunc(func(format string, args ...any) {
		logger.Warn(fmt.Sprintf(format, args...))
	})
	resolver.SetVariables(device.Variables())
	cfg = cfg.Expand(resolver)
	device.SetDeviceToken(cfg.Device.Token)

	if err := checkResolved(resolver, "hostURL", cfg.HostURL); err != nil {
		return nil, withExitCode(ExitConfigError, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, withExitCode(ExitConfigError, err)
	}

	formatter, err := newFormatter(cmd, opts.output, cfg)
	if err != nil {
		return nil, withExitCode(ExitUsageError, err)
	}

	s := &session{
		cfg:       cfg,
		logger:    logger,
		formatter: formatter,
		device:    device,
		resolver:  resolver,
		recorder:  metrics.NewRecorder(),
	}
	if cfg.ReachabilityEnabled() {
		s.monitor = s.newMonitor()
	}

	logger.Debug("session ready",
		zap.String("host", cfg.HostURL),
		zap.Bool("reachability", cfg.ReachabilityEnabled()))
	return s, nil
}

// flagConfig holds the global flags the user set, as a config overlay
func flagConfig(cmd *cobra.Command, opts *rootOptions) *config.Config {
	flags := cmd.Flags()
	overlay := &config.Config{HostURL: opts.host}
	if flags.Changed("verbose") {
		overlay.Verbose = config.BoolPtr(opts.verbose)
	}
	if flags.Changed("no-color") {
		overlay.NoColor = config.BoolPtr(opts.noColor)
	}
	if opts.skipReachability {
		overlay.Reachability.Disabled = config.BoolPtr(true)
	}
	return overlay
}

// checkResolved fails when value still holds references after expansion
func checkResolved(r *env.Resolver, name, value string) error {
	if !r.HasUnresolvedVariables(value) {
		return nil
	}
	return fmt.Errorf("%s has undefined variables: %s", name, strings.Join(r.GetUnresolvedVariables(value), ", "))
}

// expandPath resolves {{name}} references in a request path
func (s *session) expandPath(path string) (string, error) {
	expanded := s.resolver.Resolve(path)
	if err := checkResolved(s.resolver, "path", expanded); err != nil {
		return "", withExitCode(ExitUsageError, err)
	}
	return expanded, nil
}

func newFormatter(cmd *cobra.Command, format string, cfg *config.Config) (output.Formatter, error) {
	if format == "" || format == output.FormatConsole {
		return output.NewConsoleFormatter(
			output.WithWriter(cmd.OutOrStdout()),
			output.WithProgressWriter(cmd.ErrOrStderr()),
			output.WithVerbose(cfg.GetVerbose()),
			output.WithNoColor(cfg.GetNoColor()),
		), nil
	}
	return output.New(format, cmd.OutOrStdout(), cfg.GetVerbose(), cfg.GetNoColor())
}

func (s *session) newMonitor() *reachability.Monitor {
	return reachability.New(
		reachability.WithProber(reachability.NewDialProber(s.cfg.Reachability.ProbeAddress)),
		reachability.WithInterval(s.cfg.ReachabilityInterval()),
		reachability.WithWatchPath(s.cfg.Reachability.WatchPath),
		reachability.WithLogger(s.logger.Named("reachability")),
	)
}

// clientOptions builds the options shared by the request and upload commands
func (s *session) clientOptions(extra ...hithttp.ClientOption) []hithttp.ClientOption {
	opts := []hithttp.ClientOption{
		hithttp.WithLogger(s.logger.Named("http")),
		hithttp.WithDefaultHeaders(s.cfg.Headers),
		hithttp.WithRateLimit(s.cfg.RateLimit),
		hithttp.WithMetrics(s.recorder),
	}
	if s.monitor != nil {
		opts = append(opts, hithttp.WithReachability(s.monitor))
	}
	if s.cfg.App.Name != "" {
		if _, ok := s.cfg.Headers["User-Agent"]; !ok {
			opts = append(opts, hithttp.WithUserAgent(s.device.SubmitUserAgent()))
		}
	}
	return append(opts, extra...)
}

func (s *session) requireHost() error {
	if s.cfg.HostURL == "" {
		return withExitCode(ExitConfigError, fmt.Errorf("no host configured: pass --host or set hostURL in hitclient.yaml"))
	}
	return nil
}

func (s *session) close() error {
	if s.monitor != nil {
		s.monitor.Stop()
	}
	err := s.formatter.Flush()
	_ = s.logger.Sync()
	return err
}

// parseHeaders accepts "Key: Value" or "Key=Value"
func parseHeaders(values []string) (map[string]string, error) {
	headers := make(map[string]string, len(values))
	for _, v := range values {
		key, value, found := strings.Cut(v, ":")
		if !found {
			key, value, found = strings.Cut(v, "=")
		}
		key = strings.TrimSpace(key)
		if !found || key == "" {
			return nil, withExitCode(ExitUsageError, fmt.Errorf("invalid header %q: expected \"Key: Value\"", v))
		}
		headers[key] = strings.TrimSpace(value)
	}
	return headers, nil
}

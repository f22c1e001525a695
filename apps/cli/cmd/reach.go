package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitclient/packages/reachability"
)

func newReachCmd(root *rootOptions) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "reach",
		Short: "Check network reachability",
		Long: `Probe the configured reachability address and report whether the network
is reachable over ethernet/WiFi or cellular.

With --watch the command keeps running and prints every change until
interrupted.

Exits with status 4 when the network is not reachable.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			s, err := newSession(cmd, root)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := s.close(); err == nil {
					err = closeErr
				}
			}()

			monitor := s.monitor
			if monitor == nil {
				monitor = s.newMonitor()
				s.monitor = monitor
			}

			if !watch {
				status := monitor.Status()
				s.formatter.FormatReachability(status)
				if !status.Reachable() {
					return silentExit(ExitNetworkError, errNotReachable(status))
				}
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			monitor.StartListening(func(bool) {
				s.formatter.FormatReachability(monitor.Status())
			})
			<-ctx.Done()
			monitor.StopListening()
			return nil
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep running and print reachability changes")
	return cmd
}

type notReachableError struct {
	status reachability.Status
}

func (e notReachableError) Error() string {
	return "network " + e.status.String()
}

func errNotReachable(status reachability.Status) error {
	return notReachableError{status: status}
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitclient/packages/output"
)

func newInfoCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show device and app details sent with requests",
		Args:  usageArgs(cobra.NoArgs),
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

			d := s.device
			fields := []output.Field{
				{Name: "Host URL", Value: s.cfg.HostURL},
				{Name: "Identifier", Value: d.Identifier()},
				{Name: "IP Address", Value: d.IPAddress()},
				{Name: "Device Token", Value: d.DeviceToken()},
				{Name: "Device Name", Value: d.DeviceName()},
				{Name: "Device Model", Value: d.DeviceModel()},
				{Name: "Device OS", Value: d.DeviceOS()},
			}
			if s.cfg.App.Name != "" {
				fields = append(fields,
					output.Field{Name: "App Name", Value: d.AppName()},
					output.Field{Name: "Display Version", Value: d.DisplayVersion()},
					output.Field{Name: "Release Version", Value: d.ReleaseVersion()},
					output.Field{Name: "App Store URL", Value: d.AppStoreURL()},
					output.Field{Name: "User Agent", Value: d.SubmitUserAgent()},
				)
			}

			s.formatter.FormatInfo(fields)
			return nil
		},
	}
}

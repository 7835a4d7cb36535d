package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kilianp07/robofleet/app"
	"github.com/kilianp07/robofleet/infra/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the fleet over HTTP",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringP("address", "a", "", "listen address, overrides server.address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if f := cmd.Flags().Lookup("address"); f != nil && f.Changed {
		cfg.Server.Address = f.Value.String()
	}
	ctx, stop := signalContext()
	defer stop()

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return svc.Run(ctx)
}

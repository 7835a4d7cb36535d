package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/robofleet/app"
	"github.com/kilianp07/robofleet/core/fleet"
	"github.com/kilianp07/robofleet/infra/logger"
	"github.com/kilianp07/robofleet/infra/remote"
	"github.com/kilianp07/robofleet/tui/dashboard"
)

var dashRemote bool

var dashCmd = &cobra.Command{
	Use:   "dash",
	Short: "Open the terminal dashboard",
	Long: "Open the terminal dashboard. By default the fleet lives in this process; " +
		"with --remote the dashboard drives a running robofleet server.",
	RunE: runDash,
}

func init() {
	dashCmd.Flags().BoolVar(&dashRemote, "remote", false, "use the server at api.base_url")
	rootCmd.AddCommand(dashCmd)
}

func runDash(cmd *cobra.Command, args []string) error {
	opts := cfg.Log.Options()
	opts.File = cfg.Dashboard.LogFile
	opts.FileOnly = true
	if err := logger.Setup(opts); err != nil {
		return err
	}
	log := logger.New("dashboard")

	ctx, stop := signalContext()
	defer stop()

	var store fleet.Store
	if dashRemote {
		if serverURL != "" {
			cfg.API.BaseURL = serverURL
		}
		rs := remote.NewStore(remote.NewClient(cfg.API, remote.WithClientLogger(logger.New("remote"))), log)
		if err := rs.Refresh(ctx); err != nil {
			return fmt.Errorf("load fleet from %s: %w", cfg.API.BaseURL, err)
		}
		go rs.Poll(ctx, cfg.Dashboard.Refresh())
		store = rs
	} else {
		svc, err := app.New(cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := svc.Close(); err != nil {
				log.Errorf("service close: %v", err)
			}
		}()
		if err := startLocal(ctx, svc); err != nil {
			return err
		}
		store = svc.Store
	}

	log.Infow("dashboard started", map[string]any{"remote": dashRemote, "robots": len(store.Snapshot())})
	return dashboard.Run(ctx, store, dashboard.Options{
		Generator:     fleet.NewGenerator(cfg.Fleet.Seed),
		Logger:        log,
		ActionTimeout: cfg.Dashboard.ActionTimeout(),
	})
}

// startLocal runs the in-process fleet with its telemetry but without the
// HTTP listener.
func startLocal(ctx context.Context, svc *app.Service) error {
	svc.StartTelemetry(ctx)
	return svc.Seed(ctx)
}

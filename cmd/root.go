package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/robofleet/config"
	"github.com/kilianp07/robofleet/infra/logger"
)

var (
	cfgPath   string
	serverURL string
	cfg       *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "robofleet",
	Short:         "Delivery robot fleet service, dashboard and client",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c
		return logger.Setup(cfg.Log.Options())
	},
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", defaultConfigPath(), "configuration file (yaml or json)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server base URL, overrides api.base_url")
}

// defaultConfigPath picks config.yaml when present so the binary also runs
// without any file.
func defaultConfigPath() string {
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml"
	}
	return ""
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

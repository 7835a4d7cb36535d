package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kilianp07/robofleet/api/robots"
	"github.com/kilianp07/robofleet/core/fleet"
	"github.com/kilianp07/robofleet/core/model"
	"github.com/kilianp07/robofleet/core/policy"
	"github.com/kilianp07/robofleet/infra/logger"
	"github.com/kilianp07/robofleet/infra/remote"
	"github.com/kilianp07/robofleet/pkg/export"
)

var output string

var fleetCmd = &cobra.Command{
	Use:   "fleet",
	Short: "Inspect and change the fleet of a running server",
}

var fleetLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List robots, optionally filtered by name or status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, _ := cmd.Flags().GetString("mode")
		status, _ := cmd.Flags().GetString("status")
		q, _ := cmd.Flags().GetString("query")
		sel, err := robots.ParseSelection(mode, status, q)
		if err != nil {
			return err
		}
		ctx, cancel := clientContext()
		defer cancel()
		list, err := newClient().List(ctx, sel)
		if err != nil {
			return err
		}
		return export.Write(cmd.OutOrStdout(), output, list)
	},
}

var fleetGetCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Show one robot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := clientContext()
		defer cancel()
		r, err := newClient().Get(ctx, args[0])
		if err != nil {
			return err
		}
		return export.Write(cmd.OutOrStdout(), output, []model.Robot{r})
	},
}

var fleetAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a robot; without --name the server generates a random one",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		ctx, cancel := clientContext()
		defer cancel()
		c := newClient()
		if name == "" {
			r, err := c.AddRandom(ctx)
			if err != nil {
				return err
			}
			return export.Write(cmd.OutOrStdout(), output, []model.Robot{r})
		}
		in := model.RobotInput{Name: name}
		in.Model, _ = cmd.Flags().GetString("model")
		in.BatteryLevel, _ = cmd.Flags().GetInt("battery")
		if s, _ := cmd.Flags().GetString("status"); s != "" {
			st, err := model.ParseStatus(s)
			if err != nil {
				return err
			}
			in.Status = st
		}
		r, err := c.Add(ctx, in)
		if err != nil {
			return err
		}
		return export.Write(cmd.OutOrStdout(), output, []model.Robot{r})
	},
}

var fleetRmCmd = &cobra.Command{
	Use:   "rm",
	Short: "Remove the most recently added robot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := clientContext()
		defer cancel()
		r, removed, err := newClient().RemoveLast(ctx)
		if err != nil {
			return err
		}
		if !removed {
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "fleet is empty")
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "removed %s (%s)\n", r.ID, r.Name)
		return err
	},
}

var fleetStatusCmd = &cobra.Command{
	Use:   "status ID STATUS",
	Short: "Set a robot's status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := model.ParseStatus(args[1])
		if err != nil {
			return err
		}
		ctx, cancel := clientContext()
		defer cancel()
		r, err := newClient().UpdateStatus(ctx, args[0], st)
		if err != nil {
			return err
		}
		return export.Write(cmd.OutOrStdout(), output, []model.Robot{r})
	},
}

var fleetCycleCmd = &cobra.Command{
	Use:   "cycle ID",
	Short: "Advance a robot to the next status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := clientContext()
		defer cancel()
		r, err := newClient().CycleStatus(ctx, args[0])
		if err != nil {
			return err
		}
		return export.Write(cmd.OutOrStdout(), output, []model.Robot{r})
	},
}

var fleetBatteryCmd = &cobra.Command{
	Use:   "battery ID",
	Short: "Change a robot's battery by --delta or to --set",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var change policy.BatteryChange
		switch {
		case cmd.Flags().Changed("set"):
			v, _ := cmd.Flags().GetInt("set")
			change = policy.Absolute(v)
		case cmd.Flags().Changed("delta"):
			v, _ := cmd.Flags().GetInt("delta")
			change = policy.Delta(v)
		default:
			return fmt.Errorf("one of --delta or --set is required")
		}
		ctx, cancel := clientContext()
		defer cancel()
		r, err := newClient().UpdateBattery(ctx, args[0], change)
		if err != nil {
			return err
		}
		return export.Write(cmd.OutOrStdout(), output, []model.Robot{r})
	},
}

var fleetReturnCmd = &cobra.Command{
	Use:   "return ID",
	Short: "Send a robot back to base",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := clientContext()
		defer cancel()
		r, tr, err := newClient().ReturnToBase(ctx, args[0])
		if err != nil {
			return err
		}
		switch tr {
		case policy.Rejected:
			return fmt.Errorf("%s cannot return to base while %s", r.ID, r.Status)
		case policy.AlreadyReturning:
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s is already returning\n", r.ID)
		default:
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s returning to base\n", r.ID)
		}
		return err
	},
}

var fleetCountsCmd = &cobra.Command{
	Use:   "counts",
	Short: "Show the number of robots per status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := clientContext()
		defer cancel()
		c := newClient()
		counts, err := c.Counts(ctx)
		if err != nil {
			return err
		}
		sum, err := c.Summary(ctx)
		if err != nil {
			return err
		}
		labels := make([]string, 0, len(counts))
		for l := range counts {
			labels = append(labels, l)
		}
		sort.Strings(labels)
		w := cmd.OutOrStdout()
		for _, l := range labels {
			if _, err := fmt.Fprintf(w, "%-12s %d\n", l, counts[l]); err != nil {
				return err
			}
		}
		_, err = fmt.Fprintf(w, "battery: mean %.1f%%, min %d%%, max %d%%, %d low, %d critical\n",
			sum.MeanBattery, sum.MinBattery, sum.MaxBattery, sum.Low, sum.Critical)
		return err
	},
}

var fleetExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the whole fleet in insertion order; yaml output is a valid seed file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := clientContext()
		defer cancel()
		list, err := newClient().Fleet(ctx)
		if err != nil {
			return err
		}
		var w io.Writer = cmd.OutOrStdout()
		if path, _ := cmd.Flags().GetString("file"); path != "" {
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()
			w = f
		}
		return export.Write(w, output, list)
	},
}

var fleetLoadCmd = &cobra.Command{
	Use:   "load FILE",
	Short: "Replace the server's fleet with a YAML seed file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seed, err := fleet.LoadSeed(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := clientContext()
		defer cancel()
		got, err := newClient().Replace(ctx, seed)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "loaded %d robots\n", len(got))
		return err
	},
}

func init() {
	fleetCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "output format: table, json, yaml or csv")

	fleetLsCmd.Flags().String("mode", "", "filter mode: name or status")
	fleetLsCmd.Flags().String("status", "", "status filter, e.g. \"On Delivery\" or All")
	fleetLsCmd.Flags().StringP("query", "q", "", "name or id substring")

	fleetAddCmd.Flags().String("name", "", "robot name")
	fleetAddCmd.Flags().String("model", "V1", "robot model")
	fleetAddCmd.Flags().String("status", "", "initial status (default Idle)")
	fleetAddCmd.Flags().Int("battery", policy.MaxBattery, "battery level")

	fleetBatteryCmd.Flags().Int("delta", 0, "relative change, e.g. -10")
	fleetBatteryCmd.Flags().Int("set", 0, "absolute level")
	fleetBatteryCmd.MarkFlagsMutuallyExclusive("delta", "set")

	fleetExportCmd.Flags().StringP("file", "f", "", "write to file instead of stdout")

	fleetCmd.AddCommand(fleetLsCmd, fleetGetCmd, fleetAddCmd, fleetRmCmd, fleetStatusCmd, fleetCycleCmd,
		fleetBatteryCmd, fleetReturnCmd, fleetCountsCmd, fleetExportCmd, fleetLoadCmd)
	rootCmd.AddCommand(fleetCmd)
}

func newClient() *remote.Client {
	c := cfg.API
	if serverURL != "" {
		c.BaseURL = serverURL
	}
	return remote.NewClient(c, remote.WithClientLogger(logger.New("remote")))
}

func clientContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), cfg.API.Timeout())
}

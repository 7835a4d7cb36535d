package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/robofleet/core/events"
	"github.com/kilianp07/robofleet/infra/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "List recorded fleet mutations from a running server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var q journal.Query
		q.RobotID, _ = cmd.Flags().GetString("robot")
		op, _ := cmd.Flags().GetString("op")
		q.Op = events.Op(op)
		outcome, _ := cmd.Flags().GetString("outcome")
		q.Outcome = events.Outcome(outcome)
		q.Limit, _ = cmd.Flags().GetInt("limit")
		if since, _ := cmd.Flags().GetDuration("since"); since > 0 {
			q.Start = time.Now().Add(-since)
		}

		ctx, cancel := clientContext()
		defer cancel()
		evs, err := newClient().Journal(ctx, q)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		for _, ev := range evs {
			detail := ev.Reason
			if ev.Err != "" {
				detail = ev.Err
			}
			if _, err := fmt.Fprintf(w, "%s  %-15s %-8s %-9s %s\n",
				ev.Time.Local().Format(time.DateTime), ev.Op, ev.RobotID, ev.Outcome, detail); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	journalCmd.Flags().String("robot", "", "only events for this robot id")
	journalCmd.Flags().String("op", "", "only this operation, e.g. update_battery")
	journalCmd.Flags().String("outcome", "", "only this outcome: applied, noop, rejected or failed")
	journalCmd.Flags().Int("limit", 50, "newest N events, 0 for all")
	journalCmd.Flags().Duration("since", 0, "only events newer than this, e.g. 1h")
	rootCmd.AddCommand(journalCmd)
}

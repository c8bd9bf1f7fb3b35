package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"colsplit/internal/logging"
)

func newProgressCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Inspect or discard recorded progress",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print the files recorded as completed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.load()
			if err != nil {
				return err
			}
			tracker, closeStore, err := openTracker(cmd.Context(), cfg.Progress, logging.Discard())
			if err != nil {
				return err
			}
			defer closeStore()
			for _, p := range tracker.Completed() {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Forget every completed file, so the next run processes all files again",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.load()
			if err != nil {
				return err
			}
			tracker, closeStore, err := openTracker(cmd.Context(), cfg.Progress, logging.Discard())
			if err != nil {
				return err
			}
			defer closeStore()
			n := tracker.Len()
			if err := tracker.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d completed file(s) for %s\n", n, tracker.App())
			return nil
		},
	})
	return cmd
}

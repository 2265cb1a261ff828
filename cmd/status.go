package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newStatusCommand(rt *runtimeState) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the connection, your rank and the blocked list size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(rt.cfg, rt.log)
			if err != nil {
				return err
			}
			defer a.Close(rt.log)

			ctx := cmd.Context()
			if err := a.connector.Connect(ctx); err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "Mode\t%s\n", rt.cfg.Client.Mode)
			fmt.Fprintf(tw, "Clean available\t%t\n", a.engine.CanClean())
			if name, err := a.whoami(ctx); err == nil {
				fmt.Fprintf(tw, "Player\t%s\n", name)
			} else {
				rt.log.WithError(err).Warn("current player unknown")
			}
			if self, err := a.selfStanding(ctx); err == nil {
				fmt.Fprintf(tw, "Own rank\t%s\n", self)
			} else {
				fmt.Fprintf(tw, "Own rank\tunknown (%v)\n", err)
			}
			fmt.Fprintf(tw, "Blocked\t%d\n", len(a.store.Load(ctx)))
			return tw.Flush()
		},
	}
}

package main

import (
	"github.com/goserg/blockcleaner/internal/domain"
	"github.com/goserg/blockcleaner/internal/report"
	"github.com/spf13/cobra"
)

func newRunCommand(rt *runtimeState, mode string) *cobra.Command {
	short := "Report which blocked players are far from your rank"
	if mode == string(domain.ModeClean) {
		short = "Unblock players far from your rank"
	}
	return &cobra.Command{
		Use:   mode,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(rt.cfg, rt.log)
			if err != nil {
				return err
			}
			defer a.Close(rt.log)

			opts := a.defaults
			opts.Mode = domain.RunMode(mode)
			sum, runErr := a.engine.Run(cmd.Context(), opts)
			if runErr != nil {
				rt.log.WithError(runErr).Error("run halted")
				return runErr
			}

			if path := rt.cfg.Cleanup.ReportPath; path != "" && len(sum.Verdicts) > 0 {
				if err := report.SaveXLSX(path, sum.Verdicts); err != nil {
					rt.log.WithError(err).Error("report not saved")
				} else {
					rt.log.WithField("path", path).Info("report saved")
				}
			}
			return report.Write(cmd.OutOrStdout(), sum, rt.flags.output)
		},
	}
}

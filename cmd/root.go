package main

import (
	"errors"
	"io"
	"os"

	"github.com/goserg/blockcleaner/internal/config"
	"github.com/goserg/blockcleaner/internal/logger"
	"github.com/goserg/blockcleaner/internal/report"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var ErrOutputFormat = errors.New("output must be table, json or yaml")

type Options struct {
	ConfigPath string
	Out        io.Writer
	LogOut     io.Writer
}

func DefaultOptions() Options {
	return Options{
		ConfigPath: config.DefaultPath,
		Out:        os.Stdout,
		LogOut:     os.Stderr,
	}
}

type overrides struct {
	mode      string
	threshold int
	limit     int
	report    string
	output    string
}

type runtimeState struct {
	configPath string
	flags      overrides
	cfg        config.Config
	log        *logrus.Logger
	out        io.Writer
	logOut     io.Writer
}

func NewRootCommand(opts Options) *cobra.Command {
	rt := &runtimeState{configPath: opts.ConfigPath, out: opts.Out, logOut: opts.LogOut}

	root := &cobra.Command{
		Use:           "blockcleaner",
		Short:         "Clean the blocked players list by rank distance",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.New(rt.configPath)
			if err != nil {
				return err
			}
			cfg = rt.flags.apply(cfg, cmd)
			if err := cfg.Validate(); err != nil {
				return err
			}
			switch rt.flags.output {
			case report.FormatTable, report.FormatJSON, report.FormatYAML:
			default:
				return ErrOutputFormat
			}
			rt.cfg = cfg
			rt.log = logger.New(cfg.Log.Level)
			if rt.logOut != nil {
				rt.log.SetOutput(rt.logOut)
			}
			return nil
		},
	}
	root.SetOut(rt.out)
	root.SetErr(rt.logOut)

	pf := root.PersistentFlags()
	pf.StringVarP(&rt.configPath, "config", "c", rt.configPath, "path to the TOML config file")
	pf.StringVar(&rt.flags.mode, "mode", "", "client mode: local or remote")
	pf.IntVar(&rt.flags.threshold, "threshold", 0, "minimum rank distance for removal")
	pf.IntVar(&rt.flags.limit, "limit", 0, "examine at most this many players, 0 for all")
	pf.StringVar(&rt.flags.report, "report", "", "write the spreadsheet report to this path")
	pf.StringVarP(&rt.flags.output, "output", "o", report.FormatTable, "summary format: table, json or yaml")

	root.AddCommand(
		newRunCommand(rt, "analyze"),
		newRunCommand(rt, "clean"),
		newStatusCommand(rt),
		newServeCommand(rt),
	)
	return root
}

// apply lays the command-line flags over cfg. Rate limits that were left at
// the mode defaults follow a mode change.
func (o overrides) apply(cfg config.Config, cmd *cobra.Command) config.Config {
	flags := cmd.Flags()
	if flags.Changed("mode") && o.mode != cfg.Client.Mode {
		defaulted := cfg.Client.Limits == cfg.DefaultLimits()
		cfg.Client.Mode = o.mode
		if defaulted {
			cfg.Client.Limits = cfg.DefaultLimits()
		}
	}
	if flags.Changed("threshold") {
		cfg.Cleanup.Threshold = o.threshold
	}
	if flags.Changed("limit") {
		cfg.Cleanup.Limit = o.limit
	}
	if flags.Changed("report") {
		cfg.Cleanup.ReportPath = o.report
	}
	return cfg
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"colsplit/internal/config"
	"colsplit/internal/errs"
)

// app holds what every subcommand shares: the viper instance flags are bound
// to and the path of the optional config file.
type app struct {
	v       *viper.Viper
	cfgFile string
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}
	def := config.Default()

	root := &cobra.Command{
		Use:   "colsplit",
		Short: "Split name and address columns of CSV files",
		Long: `colsplit reads every CSV file in an input directory, splits a free-text
name column into first/middle/last name and a free-text address column into
city/state/country/postal code, and writes the result under the same file
name to an output directory. Completed files are remembered, so an
interrupted run picks up where it stopped.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (yaml, json or toml)")
	pf.String("log-level", def.Log.Level, "log level: debug, info, warn or error")
	pf.String("log-format", def.Log.Format, "console log format: text or json")
	pf.String("log-file", def.Log.File, "also write JSON logs to this file")
	pf.String("progress-backend", def.Progress.Backend, "progress store: json, sqlite, postgres, mssql or mysql")
	pf.String("progress-path", def.Progress.Path, "progress file for the json and sqlite stores")
	pf.String("progress-dsn", def.Progress.DSN, "connection string for the postgres, mssql and mysql stores")
	pf.String("progress-table", def.Progress.Table, "progress table for SQL stores")
	pf.String("progress-app", def.Progress.App, "key progress is stored under")
	a.bind(root, map[string]string{
		"log-level":        "log.level",
		"log-format":       "log.format",
		"log-file":         "log.file",
		"progress-backend": "progress.backend",
		"progress-path":    "progress.path",
		"progress-dsn":     "progress.dsn",
		"progress-table":   "progress.table",
		"progress-app":     "progress.app",
	}, true)

	root.AddCommand(newRunCmd(a), newValidateCmd(a), newProgressCmd(a), newProbeCmd(a))
	return root
}

// bind attaches flags to config keys. A flag only overrides the file and
// environment when it was given.
func (a *app) bind(cmd *cobra.Command, keys map[string]string, persistent bool) {
	fs := cmd.Flags()
	if persistent {
		fs = cmd.PersistentFlags()
	}
	for flag, key := range keys {
		if err := a.v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", flag, err))
		}
	}
}

// load reads the configuration. Read failures are configuration errors.
func (a *app) load() (*config.Config, error) {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return nil, &errs.Error{Kind: errs.Configuration, Op: "load config", Err: err}
	}
	return cfg, nil
}

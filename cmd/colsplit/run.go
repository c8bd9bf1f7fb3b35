package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"colsplit/internal/config"
	"colsplit/internal/logging"
	"colsplit/internal/metrics"
	"colsplit/internal/metrics/datadog"
	"colsplit/internal/metrics/prompush"
	"colsplit/internal/pipeline"
	"colsplit/internal/processor"
	"colsplit/internal/progress"
	"colsplit/internal/prompt"
	"colsplit/internal/storage"

	// register every progress store; the config picks one.
	_ "colsplit/internal/storage/all"
)

func newRunCmd(a *app) *cobra.Command {
	def := config.Default()
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Split the configured columns of every file in the input directory",
		Example: `  colsplit run -i ./in -o ./out --split-names --name-column 2
  colsplit run --interactive
  COLSPLIT_PROGRESS_BACKEND=sqlite colsplit run --config colsplit.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.load()
			if err != nil {
				return err
			}
			return runSplit(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringP("input", "i", def.InputDir, "input directory")
	f.StringP("output", "o", def.OutputDir, "output directory (created when missing)")
	f.String("pattern", def.Pattern, "only process file names matching this glob")
	f.Int("chunk-size", def.ChunkSize, "rows held in memory per chunk")
	f.Bool("split-names", def.SplitNames, "split the name column")
	f.Bool("split-address", def.SplitAddress, "split the address column")
	f.Bool("uniform-schema", def.UniformSchema, "every file has the same columns; choose them once")
	f.Int("name-column", def.NameColumn, "1-based position of the name column")
	f.Int("address-column", def.AddressColumn, "1-based position of the address column")
	f.StringSlice("name-columns", def.NameColumns, "names of the three derived name columns")
	f.StringSlice("address-columns", def.AddressColumns, "names of the four derived address columns")
	f.Bool("interactive", def.Interactive, "ask for anything not configured")
	f.String("resume", def.Resume, "existing progress: resume, restart or ask")
	f.String("comma", def.CSV.Comma, `input delimiter (single character or "tab")`)
	f.String("output-comma", def.CSV.OutputComma, "output delimiter")
	f.Bool("lazy-quotes", def.CSV.LazyQuotes, "tolerate bare quotes in unquoted fields")
	f.String("encoding", def.CSV.Encoding, "input text encoding, e.g. utf-8 or windows-1252")
	f.Bool("strict-width", def.CSV.StrictWidth, "reject rows shorter than the header")
	f.String("metrics-backend", def.Metrics.Backend, "metrics: none, pushgateway or datadog")
	f.String("pushgateway-url", def.Metrics.PushgatewayURL, "Prometheus Pushgateway base URL")
	f.String("datadog-addr", def.Metrics.DatadogAddr, "DogStatsD address, host:port or unix://path")
	f.String("metrics-job", def.Metrics.Job, "job name attached to metrics")
	a.bind(cmd, map[string]string{
		"input":           "input_dir",
		"output":          "output_dir",
		"pattern":         "pattern",
		"chunk-size":      "chunk_size",
		"split-names":     "split_names",
		"split-address":   "split_address",
		"uniform-schema":  "uniform_schema",
		"name-column":     "name_column",
		"address-column":  "address_column",
		"name-columns":    "name_columns",
		"address-columns": "address_columns",
		"interactive":     "interactive",
		"resume":          "resume",
		"comma":           "csv.comma",
		"output-comma":    "csv.output_comma",
		"lazy-quotes":     "csv.lazy_quotes",
		"encoding":        "csv.encoding",
		"strict-width":    "csv.strict_width",
		"metrics-backend": "metrics.backend",
		"pushgateway-url": "metrics.pushgateway_url",
		"datadog-addr":    "metrics.datadog_addr",
		"metrics-job":     "metrics.job",
	}, false)
	return cmd
}

func runSplit(ctx context.Context, cfg *config.Config, stdin io.Reader, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		p   *prompt.Prompter
		sel pipeline.Selector = pipeline.Static(cfg.Selections())
	)
	if cfg.Interactive {
		p = prompt.New(stdin, stderr)
		if err := askSettings(p, cfg); err != nil {
			return err
		}
		sel = &prompt.Selector{
			P:          p,
			Base:       cfg.Selections(),
			AskName:    cfg.SplitNames && cfg.NameColumn == 0,
			AskAddress: cfg.SplitAddress && cfg.AddressColumn == 0,
		}
	}

	issues := config.Validate(*cfg)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if err := config.Err(issues); err != nil {
		return err
	}

	logger, closeLog, err := logging.New(logging.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		File:    cfg.Log.File,
		Console: stderr,
	})
	if err != nil {
		return err
	}
	defer closeLog()

	setupMetrics(cfg.Metrics, logger)
	defer func() {
		if err := metrics.Flush(); err != nil {
			logger.Warn("metrics flush failed", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracker, closeStore, err := openTracker(ctx, cfg.Progress, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	policy, err := progress.ParsePolicy(cfg.Resume)
	if err != nil {
		return err
	}
	var confirm progress.Confirm
	if p != nil {
		confirm = p.ConfirmResume
	}
	kept, err := tracker.Apply(ctx, policy, confirm)
	if err != nil {
		return err
	}
	if !kept {
		logger.Info("previous progress discarded", "app", tracker.App())
	}

	inOpt, err := cfg.InputOptions()
	if err != nil {
		return err
	}
	outOpt, err := cfg.OutputOptions()
	if err != nil {
		return err
	}

	r := &pipeline.Runner{
		Tracker:   tracker,
		Logger:    logger,
		Selector:  sel,
		Processor: processor.Chunked{},
		Metrics:   metrics.NewRecorder(cfg.Metrics.Job, nil),
	}
	sum, err := r.Run(ctx, pipeline.Options{
		InputDir:      cfg.InputDir,
		OutputDir:     cfg.OutputDir,
		Pattern:       cfg.Pattern,
		ChunkSize:     cfg.ChunkSize,
		UniformSchema: cfg.UniformSchema,
		Input:         inOpt,
		Output:        outOpt,
	})
	fmt.Fprintf(stdout, "processed=%d skipped=%d failed=%d rows=%d elapsed=%s\n",
		sum.Processed, sum.Skipped, sum.Failed, sum.Rows, sum.Elapsed.Round(time.Millisecond))
	return err
}

// askSettings fills in what an interactive run still needs, using the same
// questions for every run.
func askSettings(p *prompt.Prompter, cfg *config.Config) error {
	var err error
	if cfg.InputDir == "" {
		if cfg.InputDir, err = p.Path("Enter the input files location:"); err != nil {
			return err
		}
	}
	if cfg.OutputDir == "" {
		if cfg.OutputDir, err = p.Path("Enter the output location:"); err != nil {
			return err
		}
	}
	if !cfg.SplitNames && !cfg.SplitAddress {
		if cfg.SplitNames, err = p.YesNo("Do you want to split names? (y/n)"); err != nil {
			return err
		}
		if cfg.SplitAddress, err = p.YesNo("Do you want to split addresses? (y/n)"); err != nil {
			return err
		}
	}
	if !cfg.UniformSchema {
		if cfg.UniformSchema, err = p.YesNo("Are the column names the same in every input file? (y/n)"); err != nil {
			return err
		}
	}
	return nil
}

func openTracker(ctx context.Context, c config.Progress, logger *slog.Logger) (*progress.Tracker, func(), error) {
	store, err := storage.New(ctx, storage.Config{
		Kind:  c.Backend,
		Path:  c.Path,
		DSN:   c.DSN,
		Table: c.Table,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open progress store: %w", err)
	}
	tracker := progress.New(store, c.App, logger)
	if _, err := tracker.Load(ctx); err != nil {
		store.Close()
		return nil, nil, err
	}
	logger.Debug("progress loaded", "backend", c.Backend, "app", tracker.App(), "completed", tracker.Len())
	return tracker, store.Close, nil
}

// setupMetrics installs the configured backend. A backend that cannot be
// created is logged and metrics stay disabled.
func setupMetrics(c config.Metrics, logger *slog.Logger) {
	var (
		b   metrics.Backend
		err error
	)
	switch c.Backend {
	case "", "none":
		logger.Debug("metrics disabled")
		return
	case "pushgateway":
		b, err = prompush.NewBackend(c.Job, c.PushgatewayURL)
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       c.DatadogAddr,
			GlobalTags: []string{"job:" + c.Job},
		})
	default:
		err = fmt.Errorf("unknown backend %q", c.Backend)
	}
	if err != nil {
		logger.Warn("metrics disabled", "backend", c.Backend, "error", err)
		return
	}
	logger.Info("metrics enabled", "backend", c.Backend, "job", c.Job)
	metrics.SetBackend(b)
}

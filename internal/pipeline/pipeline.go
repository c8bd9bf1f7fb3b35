// Package pipeline runs a batch: it lists the input directory and, file by
// file, skips what an earlier run completed, resolves the columns to split,
// hands the file to the processor and records the completion. A failing file
// is logged and counted; it never stops the batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"colsplit/internal/datasource/file"
	"colsplit/internal/errs"
	"colsplit/internal/metrics"
	"colsplit/internal/parser/csv"
	"colsplit/internal/processor"
	"colsplit/internal/progress"
	"colsplit/internal/transformer"
)

// Selector picks the source columns for a file from its header.
type Selector interface {
	Select(file string, header []string) (transformer.Selections, error)
}

// Static selects the same indices for every file.
type Static transformer.Selections

func (s Static) Select(string, []string) (transformer.Selections, error) {
	return transformer.Selections(s), nil
}

// Processor transforms one file.
type Processor interface {
	Process(ctx context.Context, job processor.Job) (processor.Result, error)
}

// Options describe one run.
type Options struct {
	InputDir  string
	OutputDir string

	// Pattern filters file names; empty means all files.
	Pattern   string
	ChunkSize int

	// UniformSchema reuses the indices selected for the first processed
	// file for every later file, whatever their headers say.
	UniformSchema bool

	Input  csv.Options
	Output csv.Options
}

// Runner wires the collaborators of a run. Tracker, Selector and Processor
// are required.
type Runner struct {
	Tracker   *progress.Tracker
	Logger    *slog.Logger
	Selector  Selector
	Processor Processor
	Metrics   *metrics.Recorder
}

// FileError is a failed file. Stack is where the failure was classified, or
// where a recovered panic happened.
type FileError struct {
	Path  string
	Kind  errs.Kind
	Err   error
	Stack []byte
}

func (e *FileError) Error() string { return e.Path + ": " + e.Err.Error() }

func (e *FileError) Unwrap() error { return e.Err }

// Summary reports a finished (or interrupted) run.
type Summary struct {
	RunID     string
	Processed int
	Skipped   int
	Failed    int
	Rows      int64
	Elapsed   time.Duration

	Results []processor.Result

	// Failures holds one *FileError per failed file, nil when none failed.
	Failures *multierror.Error
}

// Run processes every matching file of opt.InputDir in name order.
//
// The returned error is reserved for conditions that stop the whole run: the
// input directory cannot be listed, the output directory cannot be created,
// or ctx is done. Per-file failures are in Summary.Failures.
func (r *Runner) Run(ctx context.Context, opt Options) (Summary, error) {
	start := time.Now()
	sum := Summary{RunID: uuid.NewString()}
	log := r.logger().With("run_id", sum.RunID)

	names, err := file.ListDir(opt.InputDir, opt.Pattern)
	if err != nil {
		return sum, errs.NewIO("list input dir", opt.InputDir, err)
	}
	if err := os.MkdirAll(opt.OutputDir, 0o755); err != nil {
		return sum, errs.NewIO("create output dir", opt.OutputDir, err)
	}
	log.Info("run started", "input_dir", opt.InputDir, "output_dir", opt.OutputDir, "files", len(names))

	var shared *transformer.Selections
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return r.finish(log, sum, start, err)
		}
		path := filepath.Join(opt.InputDir, name)

		if r.Tracker.ShouldSkip(path) {
			log.Info("Skipping file as already complete", "path", progress.Normalize(path))
			r.Metrics.File(metrics.StatusSkipped, "", 0)
			sum.Skipped++
			continue
		}

		var picked transformer.Selections
		resolve := func(header []string) (transformer.SplitConfig, error) {
			if opt.UniformSchema && shared != nil {
				picked = *shared
			} else {
				sel, err := r.Selector.Select(path, header)
				if err != nil {
					return transformer.SplitConfig{}, fmt.Errorf("select columns: %w", err)
				}
				picked = sel
			}
			return transformer.ResolveConfig(header, picked)
		}

		fileStart := time.Now()
		res, ferr := r.processFile(ctx, processor.Job{
			InputPath: path,
			OutputDir: opt.OutputDir,
			ChunkSize: opt.ChunkSize,
			Input:     opt.Input,
			Output:    opt.Output,
			Resolve:   resolve,
		})
		if ferr == nil {
			// A written file is recorded even when the run is being stopped.
			if err := r.Tracker.MarkComplete(context.WithoutCancel(ctx), path); err != nil {
				cerr := errs.NewIO("commit progress", path, err)
				ferr = &FileError{Path: path, Kind: errs.IO, Err: cerr, Stack: errs.StackOf(cerr)}
			}
		}
		if ferr != nil {
			if ctx.Err() != nil && errors.Is(ferr, ctx.Err()) {
				return r.finish(log, sum, start, ctx.Err())
			}
			r.fail(log, &sum, ferr, time.Since(fileStart))
			continue
		}

		if opt.UniformSchema && shared == nil {
			s := picked
			shared = &s
		}
		sum.Processed++
		sum.Rows += res.Rows
		sum.Results = append(sum.Results, res)
		r.Metrics.File(metrics.StatusCompleted, "", res.Elapsed)
		r.Metrics.Rows(res.Rows)
		r.Metrics.Chunks(int64(res.Chunks))
		log.Info("file completed",
			"file", path,
			"elapsed", res.Elapsed,
			"output", res.Output,
			"rows", res.Rows,
			"checksum", fmt.Sprintf("%016x", res.Checksum),
		)
	}
	return r.finish(log, sum, start, nil)
}

// processFile runs the processor and turns errors and panics into a
// *FileError. Context errors are returned as they are.
func (r *Runner) processFile(ctx context.Context, job processor.Job) (res processor.Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &FileError{
				Path:  job.InputPath,
				Kind:  errs.Unexpected,
				Err:   errs.NewUnexpected("process", job.InputPath, fmt.Errorf("panic: %v", rec)),
				Stack: debug.Stack(),
			}
		}
	}()

	res, err = r.Processor.Process(ctx, job)
	if err == nil {
		return res, nil
	}
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return res, err
	}
	return res, &FileError{Path: job.InputPath, Kind: errs.KindOf(err), Err: err, Stack: errs.StackOf(err)}
}

func (r *Runner) fail(log *slog.Logger, sum *Summary, err error, d time.Duration) {
	var fe *FileError
	if !errors.As(err, &fe) {
		fe = &FileError{Kind: errs.KindOf(err), Err: err}
	}
	attrs := []any{"file", fe.Path, "kind", fe.Kind.String(), "error", fe.Err}
	if ops := errs.Ops(fe.Err); len(ops) > 0 {
		attrs = append(attrs, "ops", ops)
	}
	if len(fe.Stack) > 0 {
		attrs = append(attrs, "stack", string(fe.Stack))
	}
	log.Error("file failed", attrs...)

	r.Metrics.File(metrics.StatusFailed, fe.Kind.String(), d)
	sum.Failed++
	sum.Failures = multierror.Append(sum.Failures, fe)
}

func (r *Runner) finish(log *slog.Logger, sum Summary, start time.Time, err error) (Summary, error) {
	sum.Elapsed = time.Since(start)
	r.Metrics.Run(sum.Elapsed)
	attrs := []any{
		"elapsed", sum.Elapsed,
		"processed", sum.Processed,
		"skipped", sum.Skipped,
		"failed", sum.Failed,
		"rows", sum.Rows,
	}
	if err != nil {
		log.Warn("run interrupted", append(attrs, "error", err)...)
		return sum, fmt.Errorf("run interrupted: %w", err)
	}
	log.Info("run finished", attrs...)
	return sum, nil
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

// Package processor runs one input file through the column splitters: it
// streams the file in bounded chunks, writes the transformed rows to a temp
// file in the output directory and atomically publishes it on success.
package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/zeebo/xxh3"

	"colsplit/internal/datasource/file"
	"colsplit/internal/errs"
	"colsplit/internal/parser/csv"
	"colsplit/internal/transformer"
)

// Resolver turns a file's header into the split configuration for it.
type Resolver func(header []string) (transformer.SplitConfig, error)

// Job describes one file.
type Job struct {
	InputPath string
	OutputDir string

	// ChunkSize bounds the rows held in memory. Zero means
	// csv.DefaultChunkSize.
	ChunkSize int

	// Input configures parsing. Output only uses Comma.
	Input  csv.Options
	Output csv.Options

	Resolve Resolver
}

// Result summarizes a successfully written file.
type Result struct {
	Input    string
	Output   string
	Columns  []string
	Rows     int64
	Chunks   int
	Checksum uint64 // xxh3-64 of the bytes written
	Elapsed  time.Duration
}

// Chunked is the streaming file processor. The zero value is ready to use.
type Chunked struct {
	// OnChunk, when set, is called after each chunk is written.
	OnChunk func(rows int)
}

// Process transforms job.InputPath into job.OutputDir/<basename>.
//
// Errors are classified: unreadable input or unwritable output is an IO
// error, malformed CSV a FileFormat error, and resolver or plan failures are
// passed through (they are Configuration errors). Context cancellation is
// returned unwrapped. On any error the temp file is removed and an existing
// output file is left as it was.
func (p Chunked) Process(ctx context.Context, job Job) (Result, error) {
	start := time.Now()
	in := job.InputPath
	res := Result{Input: in, Output: filepath.Join(job.OutputDir, filepath.Base(in))}

	if job.Resolve == nil {
		return res, errs.Configurationf("no column resolver for %s", in)
	}
	if _, err := csv.LookupEncoding(job.Input.Encoding); err != nil {
		return res, errs.Configurationf("%v", err)
	}

	rc, err := file.NewLocal(in).Open(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		return res, errs.NewIO("open", in, err)
	}
	defer rc.Close()

	cr, err := csv.NewChunkReader(rc, job.Input, job.ChunkSize)
	if err != nil {
		return res, classifyRead("read header", in, err)
	}
	header := cr.Header()

	cfg, err := job.Resolve(header)
	if err != nil {
		return res, fmt.Errorf("resolve columns for %s: %w", in, err)
	}
	plan, err := transformer.Compile(header, cfg)
	if err != nil {
		return res, fmt.Errorf("%s: %w", in, err)
	}
	res.Columns = plan.Columns()

	af, err := file.CreateAtomic(res.Output)
	if err != nil {
		return res, errs.NewIO("create output", res.Output, err)
	}
	defer af.Abort()

	sum := xxh3.New()
	w := csv.NewWriter(io.MultiWriter(af, sum), job.Output)
	if err := w.WriteHeader(plan.Columns()); err != nil {
		return res, errs.NewIO("write", res.Output, err)
	}

	for {
		chunk, err := cr.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, classifyRead("read", in, err)
		}
		if err := checkWidth(chunk, len(header)); err != nil {
			chunk.Free()
			return res, errs.NewFileFormat("read", in, err)
		}

		out, err := plan.Apply(chunk)
		if plan.Enabled() {
			chunk.Free()
		}
		if err != nil {
			return res, fmt.Errorf("%s: %w", in, err)
		}

		n := out.Len()
		if err := w.WriteChunk(out); err != nil {
			return res, errs.NewIO("write", res.Output, err)
		}
		res.Chunks++
		if p.OnChunk != nil {
			p.OnChunk(n)
		}
	}

	if err := w.Flush(); err != nil {
		return res, errs.NewIO("write", res.Output, err)
	}
	if err := af.Commit(); err != nil {
		return res, errs.NewIO("publish", res.Output, err)
	}

	res.Rows = w.Rows()
	res.Checksum = sum.Sum64()
	res.Elapsed = time.Since(start)
	return res, nil
}

// checkWidth rejects rows with more cells than the header. Short rows are
// fine: missing cells read as "".
func checkWidth(c transformer.Chunk, width int) error {
	for i, r := range c.Rows {
		if len(r.V) > width {
			return fmt.Errorf("line %d: %d fields, header has %d", c.Line+i, len(r.V), width)
		}
	}
	return nil
}

func classifyRead(op, path string, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case csv.IsFormatError(err):
		return errs.NewFileFormat(op, path, err)
	default:
		return errs.NewIO(op, path, err)
	}
}

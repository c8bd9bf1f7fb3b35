package file

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const writeBufSize = 64 * 1024

// AtomicFile streams into a hidden temp file next to its destination and
// only becomes visible under the destination name on Commit. A crash or an
// Abort before Commit leaves any previous file at dest untouched.
type AtomicFile struct {
	dest string
	tmp  *os.File
	bw   *bufio.Writer
	done bool
}

var _ io.Writer = (*AtomicFile)(nil)

// CreateAtomic creates the temp file for dest in dest's directory, so the
// final rename never crosses filesystems.
func CreateAtomic(dest string) (*AtomicFile, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".tmp-"+filepath.Base(dest)+"-*")
	if err != nil {
		return nil, fmt.Errorf("create temp for %s: %w", dest, err)
	}
	_ = os.Chmod(tmp.Name(), 0o644)
	return &AtomicFile{dest: dest, tmp: tmp, bw: bufio.NewWriterSize(tmp, writeBufSize)}, nil
}

// Dest returns the final path.
func (a *AtomicFile) Dest() string { return a.dest }

func (a *AtomicFile) Write(p []byte) (int, error) { return a.bw.Write(p) }

// Commit flushes, fsyncs and renames the temp file over dest, then syncs the
// parent directory so the rename itself survives a crash.
func (a *AtomicFile) Commit() error {
	if a.done {
		return fmt.Errorf("commit %s: already finished", a.dest)
	}
	a.done = true
	tmpPath := a.tmp.Name()
	fail := func(step string, err error) error {
		_ = a.tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%s %s: %w", step, a.dest, err)
	}
	if err := a.bw.Flush(); err != nil {
		return fail("flush", err)
	}
	if err := a.tmp.Sync(); err != nil {
		return fail("fsync", err)
	}
	if err := a.tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", a.dest, err)
	}
	if err := os.Rename(tmpPath, a.dest); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename %s: %w", a.dest, err)
	}
	_ = syncDir(filepath.Dir(a.dest))
	return nil
}

// Abort discards the temp file. It is safe to call after Commit, which makes
// `defer f.Abort()` the usual pattern.
func (a *AtomicFile) Abort() {
	if a.done {
		return
	}
	a.done = true
	_ = a.tmp.Close()
	_ = os.Remove(a.tmp.Name())
}

// WriteFileAtomic replaces dest with data in one step.
func WriteFileAtomic(dest string, data []byte) error {
	f, err := CreateAtomic(dest)
	if err != nil {
		return err
	}
	defer f.Abort()
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return f.Commit()
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

// Package backup dumps the PostgreSQL database with pg_dump.
package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Error reports a failed dump with the process exit code (-1 when the process
// could not be started or was killed).
type Error struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("pg_dump failed with exit code %d", e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Dumper runs pg_dump against one database URL.
type Dumper struct {
	PgDump  string
	URL     string
	Timeout time.Duration
	TempDir string
}

// Dump writes a custom-format dump to a temp file and returns its path.
// The caller owns the file; on error no file is left behind.
func (d *Dumper) Dump(ctx context.Context) (string, error) {
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}
	f, err := os.CreateTemp(d.TempDir, "ppat-backup-*.dump")
	if err != nil {
		return "", &Error{ExitCode: -1, Err: err}
	}
	out := f.Name()
	f.Close()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, d.PgDump, "--format=custom", "--no-owner", "--file="+out, "--dbname="+d.URL)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		os.Remove(out)
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return "", &Error{ExitCode: code, Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	return out, nil
}

// FileName is the download name for a dump taken at t.
func FileName(t time.Time) string {
	return "ppat-backup-" + t.Format("20060102-150405") + ".dump"
}

// Stream dumps the database into w and removes the temp file afterwards.
func (d *Dumper) Stream(ctx context.Context, w io.Writer) (int64, error) {
	path, err := d.Dump(ctx)
	if err != nil {
		return 0, err
	}
	defer os.Remove(path)
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return io.Copy(w, f)
}

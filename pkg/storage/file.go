package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/ryokai0809/juku-invoice/pkg/invoice"
)

// ErrIO is the kind shared by every failure to persist a document.
var ErrIO = errors.New("storage: io failure")

// Error wraps an IO failure with the operation and location involved.
type Error struct {
	Op       string
	Location string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Location, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports ErrIO as the error kind.
func (e *Error) Is(target error) bool { return target == ErrIO }

// FileSink writes documents to the local file system.
type FileSink struct {
	// CreateDirs creates missing parent directories before writing.
	CreateDirs bool
	// Perm is the mode of written files; 0644 when zero.
	Perm   os.FileMode
	Logger *zap.Logger
}

// Stage writes and syncs data to a temporary file next to path. The target
// is untouched until Commit renames the file over it, so a reader never
// sees a partial document; Abort discards the temporary file. On failure
// nothing is left behind.
func (s *FileSink) Stage(ctx context.Context, path string, data []byte) (*PendingFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Op: "save", Location: path, Err: err}
	}
	if strings.TrimSpace(path) == "" {
		return nil, &Error{Op: "save", Location: path, Err: errors.New("empty output path")}
	}
	dir := filepath.Dir(path)
	if s.CreateDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &Error{Op: "mkdir", Location: dir, Err: err}
		}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, &Error{Op: "create", Location: path, Err: err}
	}
	staged := false
	defer func() {
		if !staged {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return nil, &Error{Op: "write", Location: path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return nil, &Error{Op: "sync", Location: path, Err: err}
	}
	perm := s.Perm
	if perm == 0 {
		perm = 0o644
	}
	if err := tmp.Chmod(perm); err != nil {
		return nil, &Error{Op: "chmod", Location: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return nil, &Error{Op: "close", Location: path, Err: err}
	}
	staged = true
	return &PendingFile{path: path, tmp: tmp.Name(), size: len(data), logger: s.logger()}, nil
}

// PendingFile is a staged document waiting to replace its target.
type PendingFile struct {
	path   string
	tmp    string
	size   int
	logger *zap.Logger
	done   bool
}

// Path is the target the file is committed to.
func (p *PendingFile) Path() string { return p.path }

// Commit renames the staged file over its target. On failure the staged
// file is removed and the target keeps its previous content.
func (p *PendingFile) Commit() (string, error) {
	if p.done {
		return "", &Error{Op: "commit", Location: p.path, Err: errors.New("already finished")}
	}
	p.done = true
	if err := os.Rename(p.tmp, p.path); err != nil {
		_ = os.Remove(p.tmp)
		return "", &Error{Op: "rename", Location: p.path, Err: err}
	}
	p.logger.Debug("document written", zap.String("path", p.path), zap.Int("bytes", p.size))
	return p.path, nil
}

// Abort discards the staged file. It is a no-op after Commit.
func (p *PendingFile) Abort() {
	if p.done {
		return
	}
	p.done = true
	_ = os.Remove(p.tmp)
}

func (s *FileSink) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

var unsafeNameChars = regexp.MustCompile(`[\\/:*?"<>|\x00-\x1f]+`)

// DefaultFileName names an invoice file invoice_YYYYMM_<customer>.<ext>.
func DefaultFileName(inv invoice.Invoice, ext string) string {
	m := inv.BillingMonth()
	name := unsafeNameChars.ReplaceAllString(strings.TrimSpace(inv.CustomerName()), "_")
	if name == "" {
		name = "customer"
	}
	if ext == "" {
		ext = "pdf"
	}
	return fmt.Sprintf("invoice_%04d%02d_%s.%s", m.Year, int(m.Month), name, strings.TrimPrefix(ext, "."))
}

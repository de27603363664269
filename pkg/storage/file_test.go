package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryokai0809/juku-invoice/pkg/invoice"
)

func save(ctx context.Context, sink *FileSink, path string, data []byte) (string, error) {
	pending, err := sink.Stage(ctx, path, data)
	if err != nil {
		return "", err
	}
	return pending.Commit()
}

func TestFileSinkSave(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "invoice.pdf")

	sink := &FileSink{}
	got, err := save(context.Background(), sink, target, []byte("%PDF-1.7"))
	require.NoError(t, err)
	require.Equal(t, target, got)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.7", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary file must not remain")
}

func TestFileSinkOverwrites(t *testing.T) {
	target := filepath.Join(t.TempDir(), "invoice.pdf")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0o644))

	_, err := save(context.Background(), &FileSink{}, target, []byte("new"))
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "new", string(data))
}

func TestFileSinkStageAbortKeepsPreviousFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "invoice.pdf")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0o644))

	pending, err := (&FileSink{}).Stage(context.Background(), target, []byte("new"))
	require.NoError(t, err)
	require.Equal(t, target, pending.Path())

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "old", string(data), "target untouched before commit")

	pending.Abort()
	data, err = os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "old", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "staged file must be removed")

	_, err = pending.Commit()
	require.ErrorIs(t, err, ErrIO)
}

func TestFileSinkStageCommit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "invoice.pdf")

	pending, err := (&FileSink{}).Stage(context.Background(), target, []byte("%PDF-1.7"))
	require.NoError(t, err)
	got, err := pending.Commit()
	require.NoError(t, err)
	require.Equal(t, target, got)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.7", string(data))

	pending.Abort()
	require.FileExists(t, target, "abort after commit is a no-op")
}

func TestFileSinkMissingDirectory(t *testing.T) {
	target := filepath.Join(t.TempDir(), "missing", "invoice.pdf")

	_, err := save(context.Background(), &FileSink{}, target, []byte("%PDF"))
	require.ErrorIs(t, err, ErrIO)
	_, statErr := os.Stat(target)
	require.True(t, os.IsNotExist(statErr))
}

func TestFileSinkCreateDirs(t *testing.T) {
	target := filepath.Join(t.TempDir(), "2025", "07", "invoice.pdf")

	_, err := save(context.Background(), &FileSink{CreateDirs: true}, target, []byte("%PDF"))
	require.NoError(t, err)
	require.FileExists(t, target)
}

func TestFileSinkTargetIsDirectory(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "taken")
	require.NoError(t, os.Mkdir(target, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "keep"), nil, 0o644))

	_, err := save(context.Background(), &FileSink{}, target, []byte("%PDF"))
	require.ErrorIs(t, err, ErrIO)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary file must be cleaned up")
}

func TestFileSinkCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	target := filepath.Join(t.TempDir(), "invoice.pdf")

	_, err := save(ctx, &FileSink{}, target, []byte("%PDF"))
	require.ErrorIs(t, err, ErrIO)
	require.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, target)
}

func TestDefaultFileName(t *testing.T) {
	inv, err := invoice.Compute(invoice.Params{
		StudentCount: 35,
		UnitPrice:    decimal.NewFromInt(1000),
		RefundRate:   decimal.RequireFromString("0.3"),
		CustomerName: "◯◯塾/本校",
	}, time.Date(2025, time.July, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Equal(t, "invoice_202507_◯◯塾_本校.pdf", DefaultFileName(inv, "pdf"))
	require.Equal(t, "invoice_202507_◯◯塾_本校.xlsx", DefaultFileName(inv, ".xlsx"))
}

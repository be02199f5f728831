package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollbackRestoresMoves(t *testing.T) {
	src := t.TempDir()
	target := t.TempDir()
	ctx := context.Background()

	// Simulate a completed move: target exists, source is gone, the source
	// parent directory was removed too.
	sourcePath := filepath.Join(src, "album", "a.jpg")
	targetPath := filepath.Join(target, "album_a_1.jpg")
	writeFile(t, targetPath, "alpha")

	ledger := newTestLedger(t, target)
	require.NoError(t, ledger.Record(ctx, &MappingEntry{
		OperationID: src + "::album/a.jpg",
		SourcePath:  sourcePath,
		TargetPath:  targetPath,
		Operation:   OpMove,
		Timestamp:   time.Now(),
		Success:     true,
	}))
	require.NoError(t, ledger.Close())

	result, err := Rollback(ctx, ledger.Path(), testLogger(t))
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.SuccessCount)
	assert.NoFileExists(t, targetPath)

	got, err := os.ReadFile(sourcePath)
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(got))
}

func TestRollbackDeletesCopies(t *testing.T) {
	src := t.TempDir()
	target := t.TempDir()
	ctx := context.Background()

	sourcePath := filepath.Join(src, "a.jpg")
	targetPath := filepath.Join(target, "p_a_1.jpg")
	writeFile(t, sourcePath, "alpha")
	writeFile(t, targetPath, "alpha")

	ledger := newTestLedger(t, target)
	require.NoError(t, ledger.Record(ctx, &MappingEntry{
		OperationID: src + "::a.jpg",
		SourcePath:  sourcePath,
		TargetPath:  targetPath,
		Operation:   OpCopy,
		Timestamp:   time.Now(),
		Success:     true,
	}))
	require.NoError(t, ledger.Close())

	result, err := Rollback(ctx, ledger.Path(), testLogger(t))
	require.NoError(t, err)

	assert.Equal(t, 1, result.SuccessCount)
	assert.NoFileExists(t, targetPath)
	// The copy's source was never touched.
	assert.FileExists(t, sourcePath)
}

func TestRollbackSkipsFailedEntries(t *testing.T) {
	target := t.TempDir()
	ctx := context.Background()

	ledger := newTestLedger(t, target)
	require.NoError(t, ledger.Record(ctx, &MappingEntry{
		OperationID: "/src::failed.jpg",
		SourcePath:  "/src/failed.jpg",
		TargetPath:  filepath.Join(target, "failed.jpg"),
		Operation:   OpCopy,
		Timestamp:   time.Now(),
		Success:     false,
		Error:       "copy failed",
	}))
	require.NoError(t, ledger.Close())

	result, err := Rollback(ctx, ledger.Path(), testLogger(t))
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Zero(t, result.SuccessCount)
	assert.Zero(t, result.FailedCount)
	assert.Zero(t, result.SkippedCount)
}

func TestRollbackIdempotent(t *testing.T) {
	src := t.TempDir()
	target := t.TempDir()
	ctx := context.Background()

	sourcePath := filepath.Join(src, "a.jpg")
	targetPath := filepath.Join(target, "p_a_1.jpg")
	writeFile(t, sourcePath, "alpha")
	writeFile(t, targetPath, "alpha")

	ledger := newTestLedger(t, target)
	require.NoError(t, ledger.Record(ctx, &MappingEntry{
		OperationID: src + "::a.jpg",
		SourcePath:  sourcePath,
		TargetPath:  targetPath,
		Operation:   OpCopy,
		Timestamp:   time.Now(),
		Success:     true,
	}))
	require.NoError(t, ledger.Close())

	first, err := Rollback(ctx, ledger.Path(), testLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 1, first.SuccessCount)

	// Second pass: target already gone, counted as already rolled back.
	second, err := Rollback(ctx, ledger.Path(), testLogger(t))
	require.NoError(t, err)
	assert.True(t, second.Success)
	assert.Zero(t, second.SuccessCount)
	assert.Equal(t, 1, second.SkippedCount)
	assert.FileExists(t, sourcePath)
}

func TestRollbackMissingLedger(t *testing.T) {
	_, err := Rollback(context.Background(), filepath.Join(t.TempDir(), "nope.db"), testLogger(t))
	require.Error(t, err)
}

package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlammi/flatmove/internal/config"
)

func transferCfg(operation string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.General.Operation = operation
	cfg.Perf.Workers = 2

	return cfg
}

// sourceRecord creates a real file under root and the record describing it.
func sourceRecord(t *testing.T, root, name, newName, content string) FileRecord {
	t.Helper()

	full := filepath.Join(root, name)
	writeFile(t, full, content)

	return FileRecord{
		SourceRoot:   root,
		FullPath:     full,
		RelativePath: name,
		Filename:     name,
		NewName:      newName,
		SizeBytes:    int64(len(content)),
	}
}

func TestTransferCopy(t *testing.T) {
	src := t.TempDir()
	target := t.TempDir()
	ctx := context.Background()

	records := []FileRecord{
		sourceRecord(t, src, "a.jpg", "p_a_1.jpg", "alpha"),
		sourceRecord(t, src, "b.jpg", "p_b_2.jpg", "beta"),
	}

	ledger := newTestLedger(t, target)
	tr := NewTransferrer(transferCfg("copy"), ledger, testLogger(t))

	result := tr.Execute(ctx, records, target)

	assert.Equal(t, 2, result.SuccessCount)
	assert.Zero(t, result.FailedCount)
	assert.Equal(t, int64(9), result.TotalBytes)

	// Targets carry the new names; sources are untouched.
	got, err := os.ReadFile(filepath.Join(target, "p_a_1.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(got))
	assert.FileExists(t, filepath.Join(src, "a.jpg"))

	entries, err := ledger.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	for _, e := range entries {
		assert.True(t, e.Success)
		assert.Equal(t, OpCopy, e.Operation)
	}
}

func TestTransferMoveDeletesVerifiedSource(t *testing.T) {
	src := t.TempDir()
	target := t.TempDir()

	records := []FileRecord{sourceRecord(t, src, "a.jpg", "p_a_1.jpg", "alpha")}

	ledger := newTestLedger(t, target)
	tr := NewTransferrer(transferCfg("move"), ledger, testLogger(t))

	result := tr.Execute(context.Background(), records, target)

	assert.Equal(t, 1, result.SuccessCount)
	assert.FileExists(t, filepath.Join(target, "p_a_1.jpg"))
	assert.NoFileExists(t, filepath.Join(src, "a.jpg"))
}

func TestTransferFailureIsolated(t *testing.T) {
	src := t.TempDir()
	target := t.TempDir()
	ctx := context.Background()

	good := sourceRecord(t, src, "good.jpg", "p_good_1.jpg", "data")
	missing := FileRecord{
		SourceRoot:   src,
		FullPath:     filepath.Join(src, "missing.jpg"),
		RelativePath: "missing.jpg",
		Filename:     "missing.jpg",
		NewName:      "p_missing_2.jpg",
	}

	ledger := newTestLedger(t, target)
	tr := NewTransferrer(transferCfg("copy"), ledger, testLogger(t))

	result := tr.Execute(ctx, []FileRecord{missing, good}, target)

	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 1, result.FailedCount)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "missing.jpg", result.Failed[0].Record.Filename)
	assert.NotEmpty(t, result.Failed[0].Err)

	// No partial target is left behind for the failed file.
	assert.NoFileExists(t, filepath.Join(target, "p_missing_2.jpg"))
	assert.FileExists(t, filepath.Join(target, "p_good_1.jpg"))

	// Both attempts are in the ledger, success flag distinguishing them.
	entries, err := ledger.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byID := make(map[string]MappingEntry)
	for _, e := range entries {
		byID[e.OperationID] = e
	}

	assert.False(t, byID[src+"::missing.jpg"].Success)
	assert.True(t, byID[src+"::good.jpg"].Success)
}

func TestTransferDryRunMutatesNothing(t *testing.T) {
	src := t.TempDir()
	target := t.TempDir()

	records := []FileRecord{sourceRecord(t, src, "a.jpg", "p_a_1.jpg", "alpha")}

	cfg := transferCfg("move")
	cfg.General.DryRun = true

	tr := NewTransferrer(cfg, nil, testLogger(t))
	result := tr.Execute(context.Background(), records, target)

	assert.True(t, result.DryRun)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, filepath.Join(target, "p_a_1.jpg"), result.Processed[0].TargetPath)

	// Source intact, target never created.
	assert.FileExists(t, filepath.Join(src, "a.jpg"))
	assert.NoFileExists(t, filepath.Join(target, "p_a_1.jpg"))
}

func TestTransferCanceledContextStartsNoWork(t *testing.T) {
	src := t.TempDir()
	target := t.TempDir()

	records := []FileRecord{sourceRecord(t, src, "a.jpg", "p_a_1.jpg", "alpha")}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ledger := newTestLedger(t, target)
	tr := NewTransferrer(transferCfg("copy"), ledger, testLogger(t))

	result := tr.Execute(ctx, records, target)

	assert.Zero(t, result.SuccessCount)
	assert.Zero(t, result.FailedCount)
	assert.NoFileExists(t, filepath.Join(target, "p_a_1.jpg"))
}

func TestVerifyIntegrityMismatch(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	c := filepath.Join(dir, "c")
	writeFile(t, a, "same content")
	writeFile(t, b, "same content")
	writeFile(t, c, "other content")

	assert.NoError(t, verifyIntegrity(ctx, a, b, "md5"))

	err := verifyIntegrity(ctx, a, c, "md5")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIntegrityMismatch)
}

func TestCopyFilePreservesMtimeAndCleansUpPartials(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	src := filepath.Join(dir, "src.bin")
	writeFile(t, src, "payload")

	info, err := os.Stat(src)
	require.NoError(t, err)

	dst := filepath.Join(dir, "dst.bin")
	_, err = copyFile(ctx, src, dst)
	require.NoError(t, err)

	dstInfo, err := os.Stat(dst)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(dstInfo.ModTime()))

	// A failed copy must not leave a partial destination behind.
	missing := filepath.Join(dir, "nope.bin")
	partial := filepath.Join(dir, "partial.bin")
	_, err = copyFile(ctx, missing, partial)
	require.Error(t, err)
	assert.NoFileExists(t, partial)
}

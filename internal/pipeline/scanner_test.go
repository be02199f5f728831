package pipeline

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlammi/flatmove/internal/config"
)

// testLogger returns a logger that discards everything. Shared by all
// pipeline tests.
func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeFile creates a file (and parents) with the given content.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func scanCfg(order string, ext ...string) *config.GeneralConfig {
	return &config.GeneralConfig{IncludeExt: ext, Order: order}
}

func TestScannerBuildsRecords(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "album", "IMG_001.JPG"), "one")

	scanner := NewScanner(scanCfg("natural"), testLogger(t))

	records, err := scanner.Scan(context.Background(), []string{root})
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, root, r.SourceRoot)
	assert.Equal(t, "album/IMG_001.JPG", r.RelativePath)
	assert.Equal(t, "album", r.ParentPath)
	assert.Equal(t, "IMG_001.JPG", r.Filename)
	assert.Equal(t, "IMG_001", r.Stem)
	assert.Equal(t, ".JPG", r.Ext)
	assert.Equal(t, int64(3), r.SizeBytes)
}

func TestScannerSkipsDotfilesAndEmptyFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".hidden"), "x")
	writeFile(t, filepath.Join(root, "empty.txt"), "")
	writeFile(t, filepath.Join(root, "kept.txt"), "x")

	scanner := NewScanner(scanCfg("natural"), testLogger(t))

	records, err := scanner.Scan(context.Background(), []string{root})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "kept.txt", records[0].Filename)
}

func TestScannerExtensionFilter(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.jpg"), "x")
	writeFile(t, filepath.Join(root, "b.PNG"), "x")
	writeFile(t, filepath.Join(root, "c.txt"), "x")

	// Mixed spellings: with and without dot, mixed case.
	scanner := NewScanner(scanCfg("natural", "jpg", ".png"), testLogger(t))

	records, err := scanner.Scan(context.Background(), []string{root})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a.jpg", records[0].Filename)
	assert.Equal(t, "b.PNG", records[1].Filename)
}

func TestScannerNaturalOrdering(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "d2", "f.txt"), "x")
	writeFile(t, filepath.Join(root, "d10", "f.txt"), "x")
	writeFile(t, filepath.Join(root, "d2", "img10.txt"), "x")
	writeFile(t, filepath.Join(root, "d2", "img2.txt"), "x")

	scanner := NewScanner(scanCfg("natural"), testLogger(t))

	records, err := scanner.Scan(context.Background(), []string{root})
	require.NoError(t, err)
	require.Len(t, records, 4)

	var got []string
	for _, r := range records {
		got = append(got, r.RelativePath)
	}

	assert.Equal(t, []string{
		"d2/f.txt", "d2/img2.txt", "d2/img10.txt", "d10/f.txt",
	}, got)
}

func TestScannerMtimeOrdering(t *testing.T) {
	root := t.TempDir()
	old := filepath.Join(root, "old.txt")
	newer := filepath.Join(root, "new.txt")
	writeFile(t, old, "x")
	writeFile(t, newer, "x")

	base := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(old, base, base))
	require.NoError(t, os.Chtimes(newer, base.Add(time.Minute), base.Add(time.Minute)))

	scanner := NewScanner(scanCfg("mtime_desc"), testLogger(t))

	records, err := scanner.Scan(context.Background(), []string{root})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "new.txt", records[0].Filename)
	assert.Equal(t, "old.txt", records[1].Filename)
}

func TestScannerMissingRootIsSkipped(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "x")

	scanner := NewScanner(scanCfg("natural"), testLogger(t))

	records, err := scanner.Scan(context.Background(), []string{
		filepath.Join(root, "does-not-exist"), root,
	})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestScannerMultipleRoots(t *testing.T) {
	root1 := t.TempDir()
	root2 := t.TempDir()
	writeFile(t, filepath.Join(root1, "a.txt"), "x")
	writeFile(t, filepath.Join(root2, "b.txt"), "x")

	scanner := NewScanner(scanCfg("natural"), testLogger(t))

	records, err := scanner.Scan(context.Background(), []string{root1, root2})
	require.NoError(t, err)
	assert.Len(t, records, 2)

	// Each record stays relative to its own root.
	for _, r := range records {
		assert.NotContains(t, r.RelativePath, string(filepath.Separator)+"tmp")
	}
}

func TestScannerCanceledContext(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scanner := NewScanner(scanCfg("natural"), testLogger(t))

	_, err := scanner.Scan(ctx, []string{root})
	require.Error(t, err)
}

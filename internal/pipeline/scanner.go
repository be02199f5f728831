package pipeline

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/jlammi/flatmove/internal/config"
)

// Scanner walks source roots and materializes the ordered FileRecord list
// consumed by the naming engine. Unreadable entries, dotfiles, and
// zero-byte files are skipped with a warning, never aborting the scan.
type Scanner struct {
	includeExt map[string]bool // lowercased, with leading dot; empty = all
	order      string
	logger     *slog.Logger
}

// NewScanner creates a Scanner from the general config section.
func NewScanner(cfg *config.GeneralConfig, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	include := make(map[string]bool, len(cfg.IncludeExt))

	for _, ext := range cfg.IncludeExt {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}

		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}

		include[ext] = true
	}

	return &Scanner{
		includeExt: include,
		order:      cfg.Order,
		logger:     logger,
	}
}

// Scan walks all source roots and returns the combined record list in the
// configured order. Ordering is finalized here because sequence assignment
// downstream follows presentation order. A missing root is a warning, not
// an error.
func (s *Scanner) Scan(ctx context.Context, sourceRoots []string) ([]FileRecord, error) {
	var records []FileRecord

	for _, root := range sourceRoots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			s.logger.Warn("scanner: source root missing or not a directory, skipping",
				"root", root)
			continue
		}

		found, err := s.scanRoot(ctx, root)
		if err != nil {
			return nil, err
		}

		records = append(records, found...)
	}

	s.sortRecords(records)
	s.logger.Info("scanner: scan complete",
		"roots", len(sourceRoots), "files", len(records))

	return records, nil
}

// scanRoot walks one source root depth-first.
func (s *Scanner) scanRoot(ctx context.Context, root string) ([]FileRecord, error) {
	var records []FileRecord

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			s.logger.Warn("scanner: unreadable path, skipping", "path", path, "error", err)

			if d != nil && d.IsDir() {
				return fs.SkipDir
			}

			return nil
		}

		if d.IsDir() {
			return nil
		}

		if rec, ok := s.buildRecord(root, path, d); ok {
			records = append(records, rec)
		}

		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("pipeline: scanning %s: %w", root, walkErr)
	}

	return records, nil
}

// buildRecord applies the skip rules and derives the naming fields for one
// file. Names are NFC-normalized for naming and ledger identity; FullPath
// keeps the original filesystem spelling for I/O.
func (s *Scanner) buildRecord(root, path string, d fs.DirEntry) (FileRecord, bool) {
	name := d.Name()
	if strings.HasPrefix(name, ".") {
		return FileRecord{}, false
	}

	info, err := d.Info()
	if err != nil {
		s.logger.Warn("scanner: cannot stat file, skipping", "path", path, "error", err)
		return FileRecord{}, false
	}

	if info.Size() == 0 {
		s.logger.Debug("scanner: skipping zero-byte file", "path", path)
		return FileRecord{}, false
	}

	ext := filepath.Ext(name)
	if len(s.includeExt) > 0 && !s.includeExt[strings.ToLower(ext)] {
		return FileRecord{}, false
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		s.logger.Warn("scanner: cannot relativize path, skipping", "path", path, "error", err)
		return FileRecord{}, false
	}

	rel = norm.NFC.String(filepath.ToSlash(rel))
	normName := norm.NFC.String(name)
	normExt := filepath.Ext(normName)

	parent := filepath.ToSlash(filepath.Dir(rel))

	return FileRecord{
		SourceRoot:   root,
		FullPath:     path,
		RelativePath: rel,
		ParentPath:   parent,
		Filename:     normName,
		Stem:         strings.TrimSuffix(normName, normExt),
		Ext:          normExt,
		SizeBytes:    info.Size(),
		Mtime:        info.ModTime(),
		Ctime:        changeTime(info),
	}, true
}

// sortRecords orders records in place per the configured ordering mode.
// Natural ordering compares the parent path first, then the filename, with
// digit runs compared numerically. Time orderings are stable so equal
// timestamps keep their walk order.
func (s *Scanner) sortRecords(records []FileRecord) {
	switch s.order {
	case "natural":
		slices.SortStableFunc(records, func(a, b FileRecord) int {
			if c := naturalCompare(a.ParentPath, b.ParentPath); c != 0 {
				return c
			}

			return naturalCompare(a.Filename, b.Filename)
		})
	case "mtime_asc":
		slices.SortStableFunc(records, func(a, b FileRecord) int {
			return a.Mtime.Compare(b.Mtime)
		})
	case "mtime_desc":
		slices.SortStableFunc(records, func(a, b FileRecord) int {
			return b.Mtime.Compare(a.Mtime)
		})
	case "ctime_asc":
		slices.SortStableFunc(records, func(a, b FileRecord) int {
			return a.Ctime.Compare(b.Ctime)
		})
	case "ctime_desc":
		slices.SortStableFunc(records, func(a, b FileRecord) int {
			return b.Ctime.Compare(a.Ctime)
		})
	default:
		// Unrecognized orders are rejected by config validation; keep
		// walk order if one slips through.
	}
}

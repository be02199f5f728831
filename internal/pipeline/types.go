// Package pipeline implements the core rename/relocate engine: scanning
// source roots into file records, deterministic template-based naming,
// conflict resolution, ledger-backed resume, the concurrent transfer
// stage, and rollback of a previous run.
package pipeline

import "time"

// OperationKind selects how a file reaches the target directory.
type OperationKind string

// Supported operation kinds.
const (
	OpCopy OperationKind = "copy"
	OpMove OperationKind = "move"
)

// FileRecord describes one file discovered under a source root. The scanner
// creates it; later stages annotate NewName, TargetPath, Operation and
// CompletedAt. Stem and Ext are derived once at scan time and never
// recomputed from NewName.
type FileRecord struct {
	SourceRoot   string
	FullPath     string
	RelativePath string // always relative to SourceRoot, forward slashes
	ParentPath   string // relative parent directory, "." at the root
	Filename     string
	Stem         string
	Ext          string // includes leading dot, empty if none
	SizeBytes    int64
	Mtime        time.Time
	Ctime        time.Time

	// Engine-assigned fields.
	NewName     string
	TargetPath  string
	Operation   OperationKind
	CompletedAt time.Time
}

// OperationID returns the stable identifier used to key ledger entries.
// It depends only on where the file was found, so re-running naming against
// an existing ledger reproduces the same ID regardless of ordering changes.
func (r *FileRecord) OperationID() string {
	return r.SourceRoot + "::" + r.RelativePath
}

// TransferFailure pairs a record with the error that prevented its transfer.
type TransferFailure struct {
	Record    FileRecord
	Err       string
	Timestamp time.Time
}

// RunResult aggregates the outcome of one pipeline run. Each retained record
// lands in exactly one of Processed or Failed.
type RunResult struct {
	SuccessCount int
	FailedCount  int
	SkippedCount int // dropped by the resume filter
	TotalBytes   int64
	Processed    []FileRecord
	Failed       []TransferFailure
	DryRun       bool
	LedgerPath   string
	ReportPath   string
}

// MappingEntry is one ledger row: the persisted record of a single transfer
// attempt. Entries are append-only within a run snapshot and never mutated
// after write.
type MappingEntry struct {
	OperationID string
	SourcePath  string
	TargetPath  string
	Operation   OperationKind
	Timestamp   time.Time
	Success     bool
	Error       string
	SizeBytes   int64
	NewName     string
}

// RollbackResult aggregates the outcome of reversing one ledger snapshot.
type RollbackResult struct {
	Success      bool
	SuccessCount int
	FailedCount  int
	SkippedCount int // targets already gone: treated as rolled back
	Errors       []string
}

// Package config implements TOML configuration loading and validation for
// flatmove. Defaults are overlaid by the config file, which is overlaid by
// CLI flags — flags always win.
package config

// Config is the top-level configuration structure parsed from a TOML file.
// Section names mirror the tool's concerns: general pipeline behavior,
// naming rules, the thumbnail-refresh hook, and performance tuning.
type Config struct {
	General   GeneralConfig   `toml:"general"`
	Naming    NamingConfig    `toml:"naming"`
	Thumbnail ThumbnailConfig `toml:"thumbnail"`
	Perf      PerfConfig      `toml:"perf"`
}

// GeneralConfig controls scanning and the transfer operation.
type GeneralConfig struct {
	// IncludeExt is an extension allow-list (with or without leading dot,
	// case-insensitive). Empty means all files.
	IncludeExt []string `toml:"include_ext"`
	// Order is the scan ordering: natural, mtime_asc, mtime_desc,
	// ctime_asc, or ctime_desc.
	Order string `toml:"order"`
	// Operation is copy or move.
	Operation string `toml:"operation"`
	DryRun    bool   `toml:"dry_run"`
	LogLevel  string `toml:"log_level"`
}

// NamingConfig controls template-based name derivation and sequencing.
type NamingConfig struct {
	Template string `toml:"template"`
	// SeqScope is per_parent (one counter per parent group) or global.
	SeqScope string `toml:"seq_scope"`
	SeqStart int    `toml:"seq_start"`
	// SeqWidth is "auto" (width of the scope's total count) or a digit count.
	SeqWidth   string `toml:"seq_width"`
	SeqPadChar string `toml:"seq_pad_char"`
	// ParentStrategy is slug (sanitize the parent directory name) or keep.
	ParentStrategy   string `toml:"parent_strategy"`
	ParentHashSuffix bool   `toml:"parent_hash_suffix"`
	OrigMaxlen       int    `toml:"orig_maxlen"`
	ParentMaxlen     int    `toml:"parent_maxlen"`
}

// ThumbnailConfig controls the best-effort thumbnail refresh hook.
type ThumbnailConfig struct {
	// Refresh is off, touch, shell, or cache_clear.
	Refresh string `toml:"refresh"`
}

// PerfConfig controls worker count and hashing.
//
// HashDedup (off, keep_first, suffix_all) is accepted and validated but not
// yet wired into the pipeline; it is reserved configuration surface for
// content-based duplicate detection.
type PerfConfig struct {
	Workers   int    `toml:"workers"`
	HashDedup string `toml:"hash_dedup"`
	// HashAlgo selects the integrity-verification hash: md5 or sha1.
	HashAlgo string `toml:"hash_algo"`
}

// CLIOverrides holds values from CLI flags that override config file
// settings. Pointer fields distinguish "not specified" (nil) from
// "explicitly set to zero value" — --dry-run=false differs from not
// passing --dry-run at all.
type CLIOverrides struct {
	ConfigPath string // --config flag (empty = use default)
	Operation  string // --operation flag (empty = use config)
	DryRun     *bool  // --dry-run flag
	Workers    *int   // --workers flag
}

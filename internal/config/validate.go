package config

import (
	"fmt"
	"strconv"
)

// Allowed enum values per option.
var (
	validOrders = map[string]bool{
		"natural": true, "mtime_asc": true, "mtime_desc": true,
		"ctime_asc": true, "ctime_desc": true,
	}
	validOperations       = map[string]bool{"copy": true, "move": true}
	validSeqScopes        = map[string]bool{"per_parent": true, "global": true}
	validParentStrategies = map[string]bool{"slug": true, "keep": true}
	validThumbRefresh     = map[string]bool{
		"off": true, "touch": true, "shell": true, "cache_clear": true,
	}
	validHashDedup = map[string]bool{"off": true, "keep_first": true, "suffix_all": true}
	validHashAlgos = map[string]bool{"md5": true, "sha1": true}
	validLogLevels = map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
)

// Validate checks all enum fields and numeric ranges. It runs before any
// scanning or naming so misconfiguration fails the whole run up front
// rather than per file.
func Validate(cfg *Config) error {
	if !validOrders[cfg.General.Order] {
		return fmt.Errorf("general.order: unknown value %q", cfg.General.Order)
	}

	if !validOperations[cfg.General.Operation] {
		return fmt.Errorf("general.operation: must be copy or move, got %q", cfg.General.Operation)
	}

	if !validLogLevels[cfg.General.LogLevel] {
		return fmt.Errorf("general.log_level: unknown value %q", cfg.General.LogLevel)
	}

	if err := validateNaming(&cfg.Naming); err != nil {
		return err
	}

	if !validThumbRefresh[cfg.Thumbnail.Refresh] {
		return fmt.Errorf("thumbnail.refresh: unknown value %q", cfg.Thumbnail.Refresh)
	}

	return validatePerf(&cfg.Perf)
}

func validateNaming(n *NamingConfig) error {
	if n.Template == "" {
		return fmt.Errorf("naming.template: must not be empty")
	}

	if !validSeqScopes[n.SeqScope] {
		return fmt.Errorf("naming.seq_scope: must be per_parent or global, got %q", n.SeqScope)
	}

	if n.SeqStart < 0 {
		return fmt.Errorf("naming.seq_start: must be non-negative, got %d", n.SeqStart)
	}

	if n.SeqWidth != "auto" {
		w, err := strconv.Atoi(n.SeqWidth)
		if err != nil || w < 1 {
			return fmt.Errorf("naming.seq_width: must be \"auto\" or a positive digit count, got %q", n.SeqWidth)
		}
	}

	if len(n.SeqPadChar) != 1 {
		return fmt.Errorf("naming.seq_pad_char: must be a single character, got %q", n.SeqPadChar)
	}

	if !validParentStrategies[n.ParentStrategy] {
		return fmt.Errorf("naming.parent_strategy: must be slug or keep, got %q", n.ParentStrategy)
	}

	if n.OrigMaxlen < 1 {
		return fmt.Errorf("naming.orig_maxlen: must be positive, got %d", n.OrigMaxlen)
	}

	if n.ParentMaxlen < 1 {
		return fmt.Errorf("naming.parent_maxlen: must be positive, got %d", n.ParentMaxlen)
	}

	return nil
}

func validatePerf(p *PerfConfig) error {
	if p.Workers < 1 {
		return fmt.Errorf("perf.workers: must be positive, got %d", p.Workers)
	}

	if !validHashDedup[p.HashDedup] {
		return fmt.Errorf("perf.hash_dedup: unknown value %q", p.HashDedup)
	}

	if !validHashAlgos[p.HashAlgo] {
		return fmt.Errorf("perf.hash_algo: must be md5 or sha1, got %q", p.HashAlgo)
	}

	return nil
}

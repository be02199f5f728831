package config

// Default values for configuration options. These match the behavior a user
// gets with no config file at all: natural ordering, safe copy mode, the
// {parent}_{orig}_{seq}{ext} template with per-parent auto-width sequencing.
const (
	defaultOrder          = "natural"
	defaultOperation      = "copy"
	defaultLogLevel       = "info"
	defaultTemplate       = "{parent}_{orig}_{seq}{ext}"
	defaultSeqScope       = "per_parent"
	defaultSeqStart       = 1
	defaultSeqWidth       = "auto"
	defaultSeqPadChar     = "0"
	defaultParentStrategy = "slug"
	defaultOrigMaxlen     = 32
	defaultParentMaxlen   = 12
	defaultThumbRefresh   = "off"
	defaultWorkers        = 8
	defaultHashDedup      = "off"
	defaultHashAlgo       = "md5"
)

// DefaultConfig returns a Config populated with all default values. This is
// the starting point for TOML decoding, so fields absent from the file
// retain their defaults.
func DefaultConfig() *Config {
	return &Config{
		General: GeneralConfig{
			Order:     defaultOrder,
			Operation: defaultOperation,
			LogLevel:  defaultLogLevel,
		},
		Naming: NamingConfig{
			Template:       defaultTemplate,
			SeqScope:       defaultSeqScope,
			SeqStart:       defaultSeqStart,
			SeqWidth:       defaultSeqWidth,
			SeqPadChar:     defaultSeqPadChar,
			ParentStrategy: defaultParentStrategy,
			OrigMaxlen:     defaultOrigMaxlen,
			ParentMaxlen:   defaultParentMaxlen,
		},
		Thumbnail: ThumbnailConfig{
			Refresh: defaultThumbRefresh,
		},
		Perf: PerfConfig{
			Workers:   defaultWorkers,
			HashDedup: defaultHashDedup,
			HashAlgo:  defaultHashAlgo,
		},
	}
}

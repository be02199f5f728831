package pipeline

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/jlammi/flatmove/internal/config"
)

// Fallback tokens used when a template variable resolves to nothing.
const (
	fallbackParent  = "unknown"
	fallbackRoot    = "root"
	fallbackUnnamed = "unnamed"
)

// pathHashLen is the number of hex characters of the parent-path MD5 used
// to disambiguate same-named parents at different depths.
const pathHashLen = 4

// templateVars are the placeholders a naming template may use.
var templateVars = map[string]bool{
	"parent": true, "orig": true, "seq": true, "ext": true,
}

var (
	// placeholderRe matches {name} template placeholders.
	placeholderRe = regexp.MustCompile(`\{([^{}]*)\}`)
	// unsafeRunsRe matches runs of characters outside the naming charset
	// (word characters and CJK ideographs); each run collapses to one
	// underscore.
	unsafeRunsRe = regexp.MustCompile(`[^\w\x{4e00}-\x{9fff}]+`)
	// reservedCharsRe matches characters Windows forbids in filenames.
	reservedCharsRe = regexp.MustCompile(`[<>:"/\\|?*]`)
)

// reservedDeviceNames are Windows device names that cannot be used as a
// filename stem regardless of extension.
var reservedDeviceNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// NamingEngine derives target names for an ordered record sequence. A name
// is a pure function of the record's parent-group identity, its rank within
// that group under the presented ordering, and the template — so two runs
// over the same ordered input produce identical names.
//
// Construct a fresh engine per run: the sequence counters live on the
// engine value and are not shared or persisted.
type NamingEngine struct {
	cfg *config.NamingConfig

	// Parsed sequence width: fixed digit count, or auto (width of the
	// decimal representation of the scope's total record count).
	autoWidth  bool
	fixedWidth int

	parentCounters map[string]int
	globalCounter  int
}

// NewNamingEngine validates the naming configuration and returns an engine.
// Unknown template placeholders and malformed sequence widths are
// configuration errors raised here, before any record is processed.
func NewNamingEngine(cfg *config.NamingConfig) (*NamingEngine, error) {
	e := &NamingEngine{
		cfg:            cfg,
		parentCounters: make(map[string]int),
	}

	for _, m := range placeholderRe.FindAllStringSubmatch(cfg.Template, -1) {
		if !templateVars[m[1]] {
			return nil, fmt.Errorf("pipeline: template placeholder {%s} is not one of parent, orig, seq, ext", m[1])
		}
	}

	if cfg.SeqWidth == "auto" {
		e.autoWidth = true
	} else {
		w, err := strconv.Atoi(cfg.SeqWidth)
		if err != nil || w < 1 {
			return nil, fmt.Errorf("pipeline: seq width %q is neither \"auto\" nor a positive digit count", cfg.SeqWidth)
		}

		e.fixedWidth = w
	}

	return e, nil
}

// GenerateNames annotates every record with its NewName, in order. The
// first pass counts records per scope so auto width reflects the total
// count in the scope, not the count remaining.
func (e *NamingEngine) GenerateNames(records []FileRecord) []FileRecord {
	scopeTotals := make(map[string]int)
	grandTotal := len(records)

	for i := range records {
		scopeTotals[e.parentKey(&records[i])]++
	}

	for i := range records {
		records[i].NewName = e.renderName(&records[i], scopeTotals, grandTotal)
	}

	return records
}

// parentKey identifies a record's parent group for sequencing. The key uses
// the raw (pre-sanitization) parent name so slug/keep strategy changes do
// not regroup files, plus the path hash when suffixing is enabled so
// same-named parents at different depths count separately.
func (e *NamingEngine) parentKey(rec *FileRecord) string {
	name := parentName(rec.ParentPath)

	if e.cfg.ParentHashSuffix {
		return name + "_" + parentPathHash(rec.ParentPath)
	}

	if name == "" {
		return fallbackRoot
	}

	return name
}

// renderName resolves the four template tokens and substitutes them into
// the template, then applies the final filename sanitization pass.
func (e *NamingEngine) renderName(rec *FileRecord, scopeTotals map[string]int, grandTotal int) string {
	name := e.cfg.Template
	name = strings.ReplaceAll(name, "{parent}", e.parentToken(rec))
	name = strings.ReplaceAll(name, "{orig}", e.origToken(rec))
	name = strings.ReplaceAll(name, "{seq}", e.seqToken(rec, scopeTotals, grandTotal))
	name = strings.ReplaceAll(name, "{ext}", strings.ToLower(rec.Ext))

	return sanitizeFilename(name)
}

// parentToken derives the {parent} template value.
func (e *NamingEngine) parentToken(rec *FileRecord) string {
	name := parentName(rec.ParentPath)
	if name == "" {
		name = fallbackRoot
	}

	if e.cfg.ParentStrategy == "slug" {
		name = unsafeRunsRe.ReplaceAllString(name, "_")
	}

	name = truncateRunes(name, e.cfg.ParentMaxlen)

	if e.cfg.ParentHashSuffix {
		name = name + "-" + parentPathHash(rec.ParentPath)
	}

	if name == "" {
		return fallbackParent
	}

	return name
}

// origToken derives the {orig} template value from the scan-time stem.
func (e *NamingEngine) origToken(rec *FileRecord) string {
	orig := unsafeRunsRe.ReplaceAllString(rec.Stem, "_")
	orig = truncateRunes(orig, e.cfg.OrigMaxlen)

	if orig == "" {
		return fallbackUnnamed
	}

	return orig
}

// seqToken increments the record's scope counter and renders the padded
// sequence number. Counters advance in presentation order, which is why
// ordering must be finalized before naming.
func (e *NamingEngine) seqToken(rec *FileRecord, scopeTotals map[string]int, grandTotal int) string {
	var n, total int

	if e.cfg.SeqScope == "global" {
		e.globalCounter++
		n = e.globalCounter + e.cfg.SeqStart - 1
		total = grandTotal
	} else {
		key := e.parentKey(rec)
		e.parentCounters[key]++
		n = e.parentCounters[key] + e.cfg.SeqStart - 1
		total = scopeTotals[key]
	}

	width := e.fixedWidth
	if e.autoWidth {
		width = len(strconv.Itoa(total))
	}

	return padLeft(strconv.Itoa(n), width, e.cfg.SeqPadChar)
}

// sanitizeFilename makes a rendered name safe as a single filename on all
// supported filesystems: reserved characters become underscores, reserved
// device-name stems get an underscore prefix, and leading/trailing spaces
// and dots are stripped.
func sanitizeFilename(name string) string {
	name = reservedCharsRe.ReplaceAllString(name, "_")

	stem, _, _ := strings.Cut(name, ".")
	if reservedDeviceNames[strings.ToUpper(stem)] {
		name = "_" + name
	}

	name = strings.Trim(name, " .")

	if name == "" {
		return fallbackUnnamed
	}

	return name
}

// parentName returns the immediate parent directory name, or "" at the
// source root.
func parentName(parentPath string) string {
	if parentPath == "" || parentPath == "." || parentPath == "/" {
		return ""
	}

	return path.Base(parentPath)
}

// parentPathHash returns the first hex characters of the MD5 of the full
// relative parent path. MD5 is used as a content-independent path
// fingerprint, not for integrity.
func parentPathHash(parentPath string) string {
	sum := md5.Sum([]byte(parentPath))
	return hex.EncodeToString(sum[:])[:pathHashLen]
}

// truncateRunes cuts s to at most n characters, counting runes so
// multi-byte names truncate cleanly.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n])
}

// padLeft left-pads s with pad to the given width.
func padLeft(s string, width int, pad string) string {
	if len(s) >= width {
		return s
	}

	return strings.Repeat(pad, width-len(s)) + s
}

package index

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lexandro/tagtally-mcp/tally"
)

// ScanStats counts scan-level outcomes. Unreadable or filtered files never
// fail a scan, so they show up here instead of as errors.
type ScanStats struct {
	FilesDiscovered int           // transcripts seen by the walk
	FilesParsed     int           // transcripts folded into the tally
	FilesSkipped    int           // filtered out: ignore rules, too large, binary
	FilesFailed     int           // read errors, logged and skipped
	Duration        time.Duration // wall time of the scan
}

// TallySummary is a point-in-time view of the published tally.
type TallySummary struct {
	TagCount     int
	RunStats     tally.RunStats
	ScanStats    ScanStats
	LastScanTime time.Time
	ScanCount    int
}

// TallyIndex holds the published tag table from the latest completed scan.
// Publish replaces the whole table at once, so readers always see one
// complete, consistent run and never a mix of two.
type TallyIndex struct {
	mu        sync.RWMutex
	records   []tally.TagRecord
	byTag     map[string]int // tag -> position in records
	runStats  tally.RunStats
	scanStats ScanStats
	lastScan  time.Time
	scanCount int
}

// NewTallyIndex creates an empty tally index. Until the first Publish every
// view is empty rather than an error.
func NewTallyIndex() *TallyIndex {
	return &TallyIndex{
		records: make([]tally.TagRecord, 0),
		byTag:   make(map[string]int),
	}
}

// Publish replaces the published table with the result of a completed scan.
// Records must already be in tag order, as Finalize produces them.
func (ti *TallyIndex) Publish(records []tally.TagRecord, runStats tally.RunStats, scanStats ScanStats) {
	byTag := make(map[string]int, len(records))
	for i, record := range records {
		byTag[record.Tag] = i
	}

	ti.mu.Lock()
	defer ti.mu.Unlock()
	ti.records = records
	ti.byTag = byTag
	ti.runStats = runStats
	ti.scanStats = scanStats
	ti.lastScan = time.Now()
	ti.scanCount++
}

// Records returns the published table in tag order. Callers must treat the
// returned records as read-only.
func (ti *TallyIndex) Records() []tally.TagRecord {
	ti.mu.RLock()
	defer ti.mu.RUnlock()

	out := make([]tally.TagRecord, len(ti.records))
	copy(out, ti.records)
	return out
}

// Lookup returns the published record for one tag.
func (ti *TallyIndex) Lookup(tag string) (tally.TagRecord, bool) {
	ti.mu.RLock()
	defer ti.mu.RUnlock()

	i, ok := ti.byTag[tag]
	if !ok {
		return tally.TagRecord{}, false
	}
	return ti.records[i], true
}

// TagCount returns the number of distinct tags in the published table.
func (ti *TallyIndex) TagCount() int {
	ti.mu.RLock()
	defer ti.mu.RUnlock()
	return len(ti.records)
}

// QueryOptions filters and orders a view of the published table.
type QueryOptions struct {
	Contains string // substring filter on the tag text
	MinCount int    // drop tags seen fewer times than this
	SortBy   string // "tag" (default) or "count"
	Limit    int    // 0 means no limit
}

// Query returns a filtered, ordered view of the published table.
func (ti *TallyIndex) Query(options QueryOptions) []tally.TagRecord {
	records := ti.Records()

	filtered := make([]tally.TagRecord, 0, len(records))
	for _, record := range records {
		if options.Contains != "" && !strings.Contains(record.Tag, options.Contains) {
			continue
		}
		if record.Count < options.MinCount {
			continue
		}
		filtered = append(filtered, record)
	}

	// Records arrive in tag order; only the count ordering needs a re-sort
	if options.SortBy == "count" {
		sort.SliceStable(filtered, func(i, j int) bool {
			if filtered[i].Count != filtered[j].Count {
				return filtered[i].Count > filtered[j].Count
			}
			return filtered[i].Tag < filtered[j].Tag
		})
	}

	if options.Limit > 0 && len(filtered) > options.Limit {
		filtered = filtered[:options.Limit]
	}
	return filtered
}

// Summary returns the stats of the latest published scan.
func (ti *TallyIndex) Summary() TallySummary {
	ti.mu.RLock()
	defer ti.mu.RUnlock()

	return TallySummary{
		TagCount:     len(ti.records),
		RunStats:     ti.runStats,
		ScanStats:    ti.scanStats,
		LastScanTime: ti.lastScan,
		ScanCount:    ti.scanCount,
	}
}

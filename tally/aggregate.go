package tally

import (
	"path/filepath"
	"sort"
	"strings"
)

// TagRecord is the aggregated result for one distinct tag.
type TagRecord struct {
	Tag         string   // bracket content, unique within a run
	Count       int      // total occurrences, not deduplicated per line or record
	SourceIDs   []string // record identifiers in first-seen order, no duplicates
	SourceFiles []string // contributing file names in first-seen order, no duplicates; empty for single-text runs
}

// RunStats holds the running totals of one aggregation run.
type RunStats struct {
	FilesFolded    int // files folded via FoldFile
	LinesProcessed int // lines that yielded at least one tag
	Occurrences    int // total (identifier, tag) pairs folded
}

// tagEntry is the mutable per-tag state during a run. The slices keep
// insertion order; the seen maps make them sets.
type tagEntry struct {
	count    int
	ids      []string
	idSeen   map[string]bool
	files    []string
	fileSeen map[string]bool
}

// Aggregator folds extracted (identifier, tag) occurrences into per-tag
// records. One instance serves exactly one run: fold any number of texts or
// files, then materialize with Finalize. Folding is strictly sequential; an
// Aggregator must not be shared across goroutines.
type Aggregator struct {
	entries map[string]*tagEntry
	stats   RunStats
}

// NewAggregator creates an empty aggregation run.
func NewAggregator() *Aggregator {
	return &Aggregator{entries: make(map[string]*tagEntry)}
}

// FoldText folds a single text blob with no file provenance.
func (a *Aggregator) FoldText(text string) {
	a.fold(text, "")
}

// FoldFile folds one file's text, recording the file's base name (not the
// full path) in the provenance of every tag the file contributes. Files fold
// into the shared run state: identifiers and file names are deduplicated
// across the whole run, not per file.
func (a *Aggregator) FoldFile(name string, text string) {
	a.fold(text, filepath.Base(name))
	a.stats.FilesFolded++
}

// fold splits text on newlines and folds every data line. Lines that are
// empty after the split are skipped without classification; trailing carriage
// returns from CRLF input disappear in the extractor's whitespace trim.
func (a *Aggregator) fold(text string, fileName string) {
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			continue
		}
		extraction, ok := ExtractLine(line)
		if !ok {
			continue
		}
		a.stats.LinesProcessed++
		for _, tag := range extraction.Tags {
			a.add(tag, extraction.RecordID, fileName)
		}
	}
}

// add records one occurrence of tag on the record identified by id,
// attributed to fileName when non-empty.
func (a *Aggregator) add(tag string, id string, fileName string) {
	entry, ok := a.entries[tag]
	if !ok {
		entry = &tagEntry{
			idSeen:   make(map[string]bool),
			fileSeen: make(map[string]bool),
		}
		a.entries[tag] = entry
	}

	entry.count++
	a.stats.Occurrences++

	if !entry.idSeen[id] {
		entry.idSeen[id] = true
		entry.ids = append(entry.ids, id)
	}
	if fileName != "" && !entry.fileSeen[fileName] {
		entry.fileSeen[fileName] = true
		entry.files = append(entry.files, fileName)
	}
}

// Finalize materializes the run as records sorted ascending by tag under
// Go's native byte-wise string order. The result is never nil.
func (a *Aggregator) Finalize() []TagRecord {
	records := make([]TagRecord, 0, len(a.entries))
	for tag, entry := range a.entries {
		records = append(records, TagRecord{
			Tag:         tag,
			Count:       entry.count,
			SourceIDs:   entry.ids,
			SourceFiles: entry.files,
		})
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Tag < records[j].Tag
	})
	return records
}

// Stats returns the totals folded so far.
func (a *Aggregator) Stats() RunStats {
	return a.stats
}

// AggregateText runs a complete single-text aggregation: fresh state, one
// fold, finalized result.
func AggregateText(text string) []TagRecord {
	a := NewAggregator()
	a.FoldText(text)
	return a.Finalize()
}

// NamedText pairs a file name with its decoded content for AggregateFiles.
type NamedText struct {
	Name string
	Text string
}

// AggregateFiles folds every (name, text) pair, in the order given, into one
// shared run and returns the finalized records. The caller supplies files in
// a stable order; provenance lists preserve it.
func AggregateFiles(files []NamedText) []TagRecord {
	a := NewAggregator()
	for _, file := range files {
		a.FoldFile(file.Name, file.Text)
	}
	return a.Finalize()
}

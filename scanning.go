package main

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lexandro/tagtally-mcp/index"
	"github.com/lexandro/tagtally-mcp/progress"
	"github.com/lexandro/tagtally-mcp/scanfilter"
	"github.com/lexandro/tagtally-mcp/tally"
	"github.com/lexandro/tagtally-mcp/watcher"
)

// errBinaryContent marks files rejected by content sniffing. They count as
// skipped, not failed.
var errBinaryContent = errors.New("binary content")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// scanTarget is one transcript selected by the discovery walk.
type scanTarget struct {
	path    string
	relPath string
	info    fs.FileInfo
}

// scanResult is the complete product of one aggregation run over the archive.
type scanResult struct {
	Files     []index.ScannedFile
	Documents []index.TranscriptDocument
	Records   []tally.TagRecord
	RunStats  tally.RunStats
	Stats     index.ScanStats
}

// performScan runs one complete aggregation pass over the archive and
// publishes the result. It walks the root, folds every transcript into a
// fresh tally, then swaps the archive index, the tally and the content index
// to the new state.
//
// The archive index and tally are always published. A content index rebuild
// failure is returned after that, so the tally stays usable even when search
// is degraded.
func performScan(
	rootDir string,
	filter *scanfilter.Filter,
	archiveIndex *index.ArchiveIndex,
	contentIndex *index.ContentIndex,
	tallyIndex *index.TallyIndex,
	reporter progress.Reporter,
	logger *slog.Logger,
) (index.ScanStats, error) {
	// An unreadable root is a whole-run failure. The previously published
	// state stays untouched rather than being replaced by an empty run.
	info, err := os.Stat(rootDir)
	if err != nil {
		return index.ScanStats{}, fmt.Errorf("archive root: %w", err)
	}
	if !info.IsDir() {
		return index.ScanStats{}, fmt.Errorf("archive root %s is not a directory", rootDir)
	}

	result := foldArchive(rootDir, filter, reporter, logger)

	archiveIndex.ReplaceAll(result.Files)
	tallyIndex.Publish(result.Records, result.RunStats, result.Stats)

	if err := contentIndex.ReplaceAll(result.Documents); err != nil {
		return result.Stats, fmt.Errorf("rebuilding content index: %w", err)
	}
	return result.Stats, nil
}

// foldArchive discovers and folds every transcript under rootDir into one
// fresh aggregation run. Folding is strictly sequential; WalkDir's lexical
// order keeps provenance lists stable across runs of the same tree.
func foldArchive(
	rootDir string,
	filter *scanfilter.Filter,
	reporter progress.Reporter,
	logger *slog.Logger,
) scanResult {
	start := time.Now()

	targets, skipped := discoverTranscripts(rootDir, filter)
	stats := index.ScanStats{
		FilesDiscovered: len(targets) + skipped,
		FilesSkipped:    skipped,
	}

	reporter.ScanStarted(len(targets))

	aggregator := tally.NewAggregator()
	scannedFiles := make([]index.ScannedFile, 0, len(targets))
	documents := make([]index.TranscriptDocument, 0, len(targets))

	for _, target := range targets {
		scanned, document, err := scanTranscript(target, aggregator)
		if err != nil {
			if errors.Is(err, errBinaryContent) {
				logger.Debug("skipped transcript", "path", target.relPath, "reason", "binary content")
				stats.FilesSkipped++
			} else {
				logger.Warn("failed to read transcript", "path", target.relPath, "error", err)
				stats.FilesFailed++
			}
			continue
		}
		scannedFiles = append(scannedFiles, scanned)
		documents = append(documents, document)
		stats.FilesParsed++
		reporter.FileScanned(target.relPath)
	}

	reporter.ScanFinished()

	stats.Duration = time.Since(start)
	return scanResult{
		Files:     scannedFiles,
		Documents: documents,
		Records:   aggregator.Finalize(),
		RunStats:  aggregator.Stats(),
		Stats:     stats,
	}
}

// discoverTranscripts walks the archive and returns the transcripts to scan,
// in WalkDir's lexical order, plus the number filtered out by ignore rules or
// the size limit. Non-transcript files are not counted either way.
func discoverTranscripts(rootDir string, filter *scanfilter.Filter) ([]scanTarget, int) {
	var targets []scanTarget
	var skipped int

	filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != rootDir && filter.ShouldIgnoreDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !filter.IsTranscript(path) {
			return nil
		}
		if filter.ShouldIgnore(path) {
			skipped++
			return nil
		}
		info, err := d.Info()
		if err != nil {
			skipped++
			return nil
		}
		if filter.IsFileTooLarge(info.Size()) {
			skipped++
			return nil
		}
		relPath, _ := filepath.Rel(rootDir, path)
		relPath = filepath.ToSlash(relPath)
		targets = append(targets, scanTarget{path: path, relPath: relPath, info: info})
		return nil
	})

	return targets, skipped
}

// scanTranscript reads one transcript, folds it into the run's aggregator and
// returns its archive entry and content document.
func scanTranscript(target scanTarget, aggregator *tally.Aggregator) (index.ScannedFile, index.TranscriptDocument, error) {
	content, err := readFileWithRetry(target.path)
	if err != nil {
		return index.ScannedFile{}, index.TranscriptDocument{}, fmt.Errorf("reading file: %w", err)
	}
	if scanfilter.IsBinaryContent(content) {
		return index.ScannedFile{}, index.TranscriptDocument{}, errBinaryContent
	}

	text := string(bytes.TrimPrefix(content, utf8BOM))
	facts := extractFacts(text)

	aggregator.FoldFile(target.relPath, text)

	scanned := index.ScannedFile{
		Path:           target.path,
		RelativePath:   target.relPath,
		SizeBytes:      target.info.Size(),
		ModTime:        target.info.ModTime(),
		LineCount:      facts.lineCount,
		DataLines:      facts.dataLines,
		TagOccurrences: facts.tagOccurrences,
	}
	document := index.TranscriptDocument{
		Content: text,
		Path:    target.relPath,
		Tags:    facts.distinctTags,
	}
	return scanned, document, nil
}

// transcriptFacts summarizes one transcript for the archive and content
// indexes. The tally itself comes from the aggregator, which stays the single
// owner of aggregation semantics.
type transcriptFacts struct {
	lineCount      int
	dataLines      int
	tagOccurrences int
	distinctTags   []string
}

func extractFacts(text string) transcriptFacts {
	var facts transcriptFacts
	seen := make(map[string]bool)

	for _, line := range strings.Split(text, "\n") {
		facts.lineCount++
		if line == "" {
			continue
		}
		extraction, ok := tally.ExtractLine(line)
		if !ok {
			continue
		}
		facts.dataLines++
		facts.tagOccurrences += len(extraction.Tags)
		for _, tag := range extraction.Tags {
			if !seen[tag] {
				seen[tag] = true
				facts.distinctTags = append(facts.distinctTags, tag)
			}
		}
	}
	return facts
}

// scanOneTranscript folds a single transcript given by path, bypassing
// discovery and ignore rules. Used by the -file flag.
func scanOneTranscript(filePath string) ([]tally.TagRecord, tally.RunStats, error) {
	content, err := readFileWithRetry(filePath)
	if err != nil {
		return nil, tally.RunStats{}, fmt.Errorf("reading %s: %w", filePath, err)
	}
	if scanfilter.IsBinaryContent(content) {
		return nil, tally.RunStats{}, fmt.Errorf("%s: %w", filePath, errBinaryContent)
	}

	text := string(bytes.TrimPrefix(content, utf8BOM))
	aggregator := tally.NewAggregator()
	aggregator.FoldFile(filePath, text)
	return aggregator.Finalize(), aggregator.Stats(), nil
}

// readFileWithRetry attempts to read a file, retrying once after a short delay
// if the file is locked (common on Windows when editors are saving).
func readFileWithRetry(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		time.Sleep(50 * time.Millisecond)
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, err
		}
	}
	return data, nil
}

// handleWatcherEvents consumes debounced change batches and refreshes the
// tally with a full rescan. Aggregation state is a whole-run product with no
// incremental subtract, so any relevant change means folding the archive
// again; the debouncer has already collapsed bursts into one batch.
func handleWatcherEvents(
	fileWatcher *watcher.Watcher,
	rootDir string,
	filter *scanfilter.Filter,
	archiveIndex *index.ArchiveIndex,
	contentIndex *index.ContentIndex,
	tallyIndex *index.TallyIndex,
	logger *slog.Logger,
) {
	for events := range fileWatcher.Events() {
		relevant := 0
		for _, event := range events {
			baseName := filepath.Base(event.Path)
			if baseName == ".gitignore" || baseName == ".tagtallyignore" {
				filter.Reload()
				logger.Info("reloaded scan filter", "trigger", baseName)
				relevant++
				continue
			}

			switch event.Op {
			case watcher.OpRemove, watcher.OpRename:
				// The path is gone and may have been a directory holding
				// transcripts; only ignore rules can rule it out.
				if filter.ShouldIgnore(event.Path) {
					continue
				}
			case watcher.OpCreate, watcher.OpWrite:
				if !filter.IsTranscript(event.Path) {
					continue
				}
				if filter.ShouldIgnore(event.Path) {
					continue
				}
			}
			relevant++
			logger.Debug("archive change", "op", event.Op.String(), "path", event.Path)
		}

		if relevant == 0 {
			continue
		}

		stats, err := performScan(rootDir, filter, archiveIndex, contentIndex, tallyIndex, progress.Discard{}, logger)
		if err != nil {
			logger.Error("rescan after archive change failed", "error", err)
			continue
		}
		logger.Info("rescan after archive change",
			"changes", relevant,
			"transcripts", stats.FilesParsed,
			"duration", stats.Duration,
		)
	}
}

package main

import (
	"io/fs"
	"log/slog"
	"time"

	"github.com/lexandro/tagtally-mcp/index"
	"github.com/lexandro/tagtally-mcp/progress"
	"github.com/lexandro/tagtally-mcp/scanfilter"
)

// SyncResult holds the outcome of a single freshness verification run.
type SyncResult struct {
	NewFiles      int // transcripts on disk but not in the archive index
	MissingFiles  int // archive entries with no transcript on disk
	ModifiedFiles int // size or mtime drift between disk and archive
	Rescanned     bool
	Duration      time.Duration
}

// drift reports whether the archive index disagrees with the filesystem.
func (r SyncResult) drift() int {
	return r.NewFiles + r.MissingFiles + r.ModifiedFiles
}

// runPeriodicSync starts a background loop that verifies archive freshness at
// the given interval. The watcher normally catches changes as they happen;
// this loop is the backstop for events it misses (network mounts, overflowed
// event queues). It runs until the stop channel is closed.
func runPeriodicSync(
	interval time.Duration,
	rootDir string,
	filter *scanfilter.Filter,
	archiveIndex *index.ArchiveIndex,
	contentIndex *index.ContentIndex,
	tallyIndex *index.TallyIndex,
	logger *slog.Logger,
	stop <-chan struct{},
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("periodic freshness check started", "interval", interval)

	for {
		select {
		case <-stop:
			logger.Info("periodic freshness check stopped")
			return
		case <-ticker.C:
			result := performSyncVerification(rootDir, filter, archiveIndex, contentIndex, tallyIndex, logger)
			if result.drift() > 0 {
				logger.Info("freshness check found drift",
					"new", result.NewFiles,
					"missing", result.MissingFiles,
					"modified", result.ModifiedFiles,
					"rescanned", result.Rescanned,
					"duration", result.Duration,
				)
			} else {
				logger.Debug("freshness check complete, archive is in sync", "duration", result.Duration)
			}
		}
	}
}

// performSyncVerification compares the archive index against the filesystem
// and triggers a full rescan when they disagree. The tally is a whole-run
// product, so any drift means folding the archive again rather than patching
// individual entries.
func performSyncVerification(
	rootDir string,
	filter *scanfilter.Filter,
	archiveIndex *index.ArchiveIndex,
	contentIndex *index.ContentIndex,
	tallyIndex *index.TallyIndex,
	logger *slog.Logger,
) SyncResult {
	start := time.Now()
	var result SyncResult

	// Walk under the same filter rules the scan uses, so an ignored file
	// never counts as drift.
	targets, _ := discoverTranscripts(rootDir, filter)
	onDisk := make(map[string]fs.FileInfo, len(targets))
	for _, target := range targets {
		onDisk[target.relPath] = target.info
	}

	indexed := archiveIndex.AllFiles()
	indexedSet := make(map[string]index.ScannedFile, len(indexed))
	for _, f := range indexed {
		indexedSet[f.RelativePath] = f
	}

	for relPath := range onDisk {
		if _, exists := indexedSet[relPath]; !exists {
			logger.Debug("freshness check: new transcript", "path", relPath)
			result.NewFiles++
		}
	}

	for relPath, entry := range indexedSet {
		info, exists := onDisk[relPath]
		if !exists {
			logger.Debug("freshness check: missing transcript", "path", relPath)
			result.MissingFiles++
			continue
		}
		if info.Size() != entry.SizeBytes || !info.ModTime().Equal(entry.ModTime) {
			logger.Debug("freshness check: modified transcript", "path", relPath)
			result.ModifiedFiles++
		}
	}

	if result.drift() > 0 {
		if _, err := performScan(rootDir, filter, archiveIndex, contentIndex, tallyIndex, progress.Discard{}, logger); err != nil {
			logger.Error("rescan after freshness drift failed", "error", err)
		} else {
			result.Rescanned = true
		}
	}

	result.Duration = time.Since(start)
	return result
}

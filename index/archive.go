package index

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// ScannedFile describes one transcript that survived the scan filter.
type ScannedFile struct {
	Path           string    // Absolute file path
	RelativePath   string    // Path relative to the archive root (forward slashes)
	SizeBytes      int64     // File size in bytes
	ModTime        time.Time // Last modification time
	LineCount      int       // Raw lines in the file
	DataLines      int       // Lines that yielded a record identifier and tags
	TagOccurrences int       // Tag occurrences contributed by this file
}

// ArchiveIndex maintains an in-memory inventory of scanned transcripts for
// glob searches and freshness checks. It uses a map for O(1) path lookups and
// a sorted slice for consistent iteration. A completed scan replaces the
// whole inventory at once, so readers never see a half-built view.
type ArchiveIndex struct {
	mu          sync.RWMutex
	files       map[string]ScannedFile // key: relative path (forward slashes)
	sortedPaths []string
}

// NewArchiveIndex creates a new empty archive inventory.
func NewArchiveIndex() *ArchiveIndex {
	return &ArchiveIndex{
		files:       make(map[string]ScannedFile),
		sortedPaths: make([]string, 0),
	}
}

// ReplaceAll swaps the inventory for the result of a completed scan.
func (ai *ArchiveIndex) ReplaceAll(files []ScannedFile) {
	byPath := make(map[string]ScannedFile, len(files))
	paths := make([]string, 0, len(files))
	for _, file := range files {
		if _, exists := byPath[file.RelativePath]; !exists {
			paths = append(paths, file.RelativePath)
		}
		byPath[file.RelativePath] = file
	}
	sort.Strings(paths)

	ai.mu.Lock()
	defer ai.mu.Unlock()
	ai.files = byPath
	ai.sortedPaths = paths
}

// GetFile returns the entry for a given relative path.
func (ai *ArchiveIndex) GetFile(relativePath string) (ScannedFile, bool) {
	ai.mu.RLock()
	defer ai.mu.RUnlock()

	file, ok := ai.files[relativePath]
	return file, ok
}

// FileCount returns the number of transcripts in the inventory.
func (ai *ArchiveIndex) FileCount() int {
	ai.mu.RLock()
	defer ai.mu.RUnlock()
	return len(ai.files)
}

// TotalSizeBytes returns the combined size of all inventoried transcripts.
func (ai *ArchiveIndex) TotalSizeBytes() int64 {
	ai.mu.RLock()
	defer ai.mu.RUnlock()

	var totalSize int64
	for _, file := range ai.files {
		totalSize += file.SizeBytes
	}
	return totalSize
}

// SearchByGlob returns transcripts matching a doublestar glob pattern.
// The pattern is matched against relative paths (forward slashes).
func (ai *ArchiveIndex) SearchByGlob(pattern string, maxResults int) ([]ScannedFile, error) {
	ai.mu.RLock()
	defer ai.mu.RUnlock()

	if maxResults <= 0 {
		maxResults = 50
	}

	// Normalize pattern to forward slashes
	pattern = strings.ReplaceAll(pattern, "\\", "/")

	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern: %s", pattern)
	}

	var results []ScannedFile
	for _, path := range ai.sortedPaths {
		if len(results) >= maxResults {
			break
		}

		matched, err := doublestar.Match(pattern, path)
		if err != nil {
			continue
		}
		if matched {
			if file, ok := ai.files[path]; ok {
				results = append(results, file)
			}
		}
	}

	return results, nil
}

// AllFiles returns every inventoried transcript in path order.
func (ai *ArchiveIndex) AllFiles() []ScannedFile {
	ai.mu.RLock()
	defer ai.mu.RUnlock()

	result := make([]ScannedFile, 0, len(ai.sortedPaths))
	for _, path := range ai.sortedPaths {
		if file, ok := ai.files[path]; ok {
			result = append(result, file)
		}
	}
	return result
}

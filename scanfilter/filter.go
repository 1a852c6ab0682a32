package scanfilter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/denormal/go-gitignore"
)

// transcriptExt is the only extension a scan reads. The tag grammar is fixed,
// so the extension filter is too.
const transcriptExt = ".txt"

// Filter decides which files a scan touches. It combines the transcript
// extension gate, default skip patterns, .gitignore and .tagtallyignore rules
// from the archive root, and custom exclude globs from the CLI.
// Thread-safe: Reload() acquires a write lock, the checks acquire read locks.
type Filter struct {
	mu               sync.RWMutex
	rootDir          string
	gitIgnore        gitignore.GitIgnore
	archiveIgnore    gitignore.GitIgnore
	excludeGlobs     []string
	maxFileSizeBytes int64
}

// Options configures the scan filter.
type Options struct {
	RootDir          string
	ExcludeGlobs     []string
	MaxFileSizeBytes int64
}

// NewFilter creates a filter for the archive rooted at options.RootDir.
// Exclude globs use doublestar syntax and are validated up front.
func NewFilter(options Options) (*Filter, error) {
	for _, pattern := range options.ExcludeGlobs {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern: %s", pattern)
		}
	}

	filter := &Filter{
		rootDir:          options.RootDir,
		excludeGlobs:     options.ExcludeGlobs,
		maxFileSizeBytes: options.MaxFileSizeBytes,
	}

	if filter.maxFileSizeBytes <= 0 {
		filter.maxFileSizeBytes = 4 * 1024 * 1024 // whole files are read into memory
	}

	// Load ignore rules from the archive root
	filter.gitIgnore = loadIgnoreFile(filepath.Join(options.RootDir, ".gitignore"), options.RootDir)
	filter.archiveIgnore = loadIgnoreFile(filepath.Join(options.RootDir, ".tagtallyignore"), options.RootDir)

	return filter, nil
}

// IsTranscript returns true if the path carries the transcript extension.
// The extension check is case-insensitive; archives written on Windows mix
// .txt and .TXT freely.
func (f *Filter) IsTranscript(path string) bool {
	return strings.EqualFold(filepath.Ext(path), transcriptExt)
}

// ShouldIgnore returns true if the given path is excluded from scanning by
// default patterns, ignore-file rules, or custom exclude globs. The path may
// name a file or a directory; the extension gate is IsTranscript, not this.
func (f *Filter) ShouldIgnore(absolutePath string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	relativePath, err := filepath.Rel(f.rootDir, absolutePath)
	if err != nil {
		relativePath = absolutePath
	}
	relativePath = filepath.ToSlash(relativePath)

	if f.matchesDefaultPatterns(relativePath, absolutePath) {
		return true
	}

	// Directory knowledge improves gitignore matching for trailing-slash rules
	isDir := false
	if info, err := os.Stat(absolutePath); err == nil {
		isDir = info.IsDir()
	}

	if f.gitIgnore != nil {
		match := f.gitIgnore.Relative(relativePath, isDir)
		if match != nil && match.Ignore() {
			return true
		}
	}

	if f.archiveIgnore != nil {
		match := f.archiveIgnore.Relative(relativePath, isDir)
		if match != nil && match.Ignore() {
			return true
		}
	}

	return f.matchesExcludeGlobs(relativePath)
}

// ShouldIgnoreDir returns true if a directory should be skipped entirely
// during traversal.
func (f *Filter) ShouldIgnoreDir(absolutePath string) bool {
	dirName := filepath.Base(absolutePath)

	// Fast check for directories that never hold transcripts (no lock needed)
	switch dirName {
	case ".git", ".svn", ".hg", "__MACOSX", "$RECYCLE.BIN", "System Volume Information":
		return true
	}
	if strings.HasPrefix(dirName, ".Trash") {
		return true
	}

	return f.ShouldIgnore(absolutePath)
}

// IsFileTooLarge returns true if the file exceeds the max file size limit.
func (f *Filter) IsFileTooLarge(fileSize int64) bool {
	return fileSize > f.maxFileSizeBytes
}

// MaxFileSizeBytes returns the configured maximum file size.
func (f *Filter) MaxFileSizeBytes() int64 {
	return f.maxFileSizeBytes
}

// matchesDefaultPatterns checks the path against the hardcoded skip list.
func (f *Filter) matchesDefaultPatterns(relativePath string, absolutePath string) bool {
	baseName := filepath.Base(absolutePath)
	baseNameLower := strings.ToLower(baseName)

	for _, pattern := range DefaultIgnorePatterns {
		// Plain name - check the basename and every path component
		if !strings.ContainsAny(pattern, "*?[") {
			if baseNameLower == strings.ToLower(pattern) {
				return true
			}
			for _, part := range strings.Split(relativePath, "/") {
				if strings.EqualFold(part, pattern) {
					return true
				}
			}
			continue
		}

		// Glob - match against the basename and the full relative path
		matched, err := filepath.Match(strings.ToLower(pattern), baseNameLower)
		if err == nil && matched {
			return true
		}
		matched, err = filepath.Match(strings.ToLower(pattern), strings.ToLower(relativePath))
		if err == nil && matched {
			return true
		}
	}
	return false
}

// matchesExcludeGlobs checks the path against the user-provided exclude
// globs, both as a relative path and as a bare basename.
func (f *Filter) matchesExcludeGlobs(relativePath string) bool {
	baseName := filepath.Base(relativePath)
	for _, pattern := range f.excludeGlobs {
		if matched, err := doublestar.Match(pattern, relativePath); err == nil && matched {
			return true
		}
		if matched, err := doublestar.Match(pattern, baseName); err == nil && matched {
			return true
		}
	}
	return false
}

// Reload re-reads the .gitignore and .tagtallyignore files from disk.
// Called when the watcher sees either file change.
func (f *Filter) Reload() {
	newGitIgnore := loadIgnoreFile(filepath.Join(f.rootDir, ".gitignore"), f.rootDir)
	newArchiveIgnore := loadIgnoreFile(filepath.Join(f.rootDir, ".tagtallyignore"), f.rootDir)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.gitIgnore = newGitIgnore
	f.archiveIgnore = newArchiveIgnore
}

// loadIgnoreFile reads an ignore file and creates a GitIgnore matcher from it.
// Uses the io.Reader form so the file handle closes promptly on Windows.
func loadIgnoreFile(filePath string, baseDir string) gitignore.GitIgnore {
	file, err := os.Open(filePath)
	if err != nil {
		return nil
	}
	defer file.Close()

	return gitignore.New(file, baseDir, nil)
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lexandro/tagtally-mcp/index"
	"github.com/lexandro/tagtally-mcp/progress"
	"github.com/lexandro/tagtally-mcp/register"
	"github.com/lexandro/tagtally-mcp/scanfilter"
	"github.com/lexandro/tagtally-mcp/server"
	"github.com/lexandro/tagtally-mcp/tally"
	"github.com/lexandro/tagtally-mcp/tools"
	"github.com/lexandro/tagtally-mcp/watcher"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is stamped at release time via -ldflags "-X main.Version=...".
var Version = "dev"

// excludePatterns is a repeatable CLI flag for custom ignore patterns.
type excludePatterns []string

func (e *excludePatterns) String() string { return strings.Join(*e, ", ") }
func (e *excludePatterns) Set(value string) error {
	*e = append(*e, value)
	return nil
}

func main() {
	// The register subcommand has its own argument syntax
	if len(os.Args) > 1 && os.Args[1] == "register" {
		register.Run(register.DeriveServerName(os.Args[0]), os.Args[2:])
		return
	}

	// Parse CLI flags
	var rootDir string
	var filePath string
	var csvPath string
	var maxFileSizeBytes int64
	var maxResults int
	var logLevel string
	var logFile string
	var syncInterval time.Duration
	var quiet bool
	var showVersion bool
	var excludes excludePatterns

	flag.StringVar(&rootDir, "root", "", "Archive root directory (default: current working directory)")
	flag.StringVar(&filePath, "file", "", "Tally a single transcript and exit; CSV goes to stdout or -csv")
	flag.StringVar(&csvPath, "csv", "", "One-shot mode: scan the archive, write the tag table as CSV to this path, exit (\"-\" = stdout)")
	flag.Var(&excludes, "exclude", "Extra ignore pattern (repeatable)")
	flag.Int64Var(&maxFileSizeBytes, "max-file-size", 4*1024*1024, "Maximum transcript size in bytes (default: 4MB)")
	flag.IntVar(&maxResults, "max-results", 50, "Default max search results (default: 50)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level: debug|info|warn|error")
	flag.StringVar(&logFile, "log-file", "", "Log file path (default: tagtally-mcp.log under the root in serve mode, stderr in one-shot modes)")
	flag.DurationVar(&syncInterval, "sync-interval", 5*time.Minute, "Archive freshness check interval in serve mode (0 disables)")
	flag.BoolVar(&quiet, "quiet", false, "Suppress the progress bar and summary in one-shot modes")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("tagtally-mcp %s\n", Version)
		return
	}

	// Single transcript mode: no archive, no server
	if filePath != "" {
		if err := runSingleFile(filePath, csvPath, quiet); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Resolve archive root
	if rootDir == "" {
		var err error
		rootDir, err = os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting working directory: %v\n", err)
			os.Exit(1)
		}
	}
	rootDir, _ = filepath.Abs(rootDir)

	info, err := os.Stat(rootDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: archive root: %v\n", err)
		os.Exit(1)
	}
	if !info.IsDir() {
		fmt.Fprintf(os.Stderr, "Error: archive root %s is not a directory\n", rootDir)
		os.Exit(1)
	}

	// One-shot CSV mode logs to stderr unless told otherwise; serve mode
	// defaults to a log file under the root because stdout carries MCP stdio
	// and stderr is visible to the client host.
	if csvPath == "" && logFile == "" {
		logFile = filepath.Join(rootDir, "tagtally-mcp.log")
	}
	logger := setupLogger(logLevel, logFile)

	filter, err := scanfilter.NewFilter(scanfilter.Options{
		RootDir:          rootDir,
		ExcludeGlobs:     excludes,
		MaxFileSizeBytes: maxFileSizeBytes,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// One-shot CSV mode: scan, export, exit
	if csvPath != "" {
		if err := runOneShotScan(rootDir, csvPath, filter, quiet, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	runServer(rootDir, filter, maxResults, syncInterval, logger)
}

// runSingleFile tallies one transcript and writes the CSV table.
func runSingleFile(filePath string, csvPath string, quiet bool) error {
	records, stats, err := scanOneTranscript(filePath)
	if err != nil {
		return err
	}
	if err := writeCSVOutput(records, csvPath); err != nil {
		return err
	}
	if !quiet && csvPath != "" && csvPath != "-" {
		fmt.Fprintf(os.Stderr, "Wrote %d tags to %s (%d data lines, %d occurrences)\n",
			len(records), csvPath, stats.LinesProcessed, stats.Occurrences)
	}
	return nil
}

// runOneShotScan folds the whole archive once and writes the CSV table. No
// indexes are built; the records come straight from the run.
func runOneShotScan(rootDir string, csvPath string, filter *scanfilter.Filter, quiet bool, logger *slog.Logger) error {
	var reporter progress.Reporter = progress.Discard{}
	if !quiet {
		reporter = progress.NewBar(os.Stderr)
	}

	result := foldArchive(rootDir, filter, reporter, logger)

	if err := writeCSVOutput(result.Records, csvPath); err != nil {
		return err
	}
	if !quiet {
		fmt.Fprintf(os.Stderr, "Tallied %d tags from %d transcripts in %s\n",
			len(result.Records), result.Stats.FilesParsed, result.Stats.Duration.Round(time.Millisecond))
	}
	return nil
}

// writeCSVOutput writes records to csvPath, or to stdout for "" and "-".
func writeCSVOutput(records []tally.TagRecord, csvPath string) error {
	if csvPath == "" || csvPath == "-" {
		return tally.WriteCSV(os.Stdout, records)
	}
	return tally.ExportCSV(csvPath, records)
}

// runServer performs the initial scan and serves the MCP tools on stdio, with
// the watcher and the periodic freshness check keeping the tally current.
func runServer(rootDir string, filter *scanfilter.Filter, maxResults int, syncInterval time.Duration, logger *slog.Logger) {
	logger.Info("starting tagtally-mcp",
		"version", Version,
		"root", rootDir,
		"maxFileSize", filter.MaxFileSizeBytes(),
		"maxResults", maxResults,
	)

	startTime := time.Now()

	// Create indexes
	archiveIndex := index.NewArchiveIndex()
	contentIndex, err := index.NewContentIndex()
	if err != nil {
		logger.Error("failed to create content index", "error", err)
		os.Exit(1)
	}
	defer contentIndex.Close()
	tallyIndex := index.NewTallyIndex()

	// Initial scan. A content index failure degrades search but the tally
	// is published before it, so the server still starts.
	stats, err := performScan(rootDir, filter, archiveIndex, contentIndex, tallyIndex, progress.Discard{}, logger)
	if err != nil {
		logger.Error("initial content index build failed", "error", err)
	}
	logger.Info("initial scan complete",
		"transcripts", stats.FilesParsed,
		"skipped", stats.FilesSkipped,
		"failed", stats.FilesFailed,
		"tags", tallyIndex.TagCount(),
		"duration", stats.Duration,
	)

	// Start file watcher
	fileWatcher, err := watcher.NewWatcher(rootDir, filter, logger)
	if err != nil {
		logger.Warn("failed to start file watcher, continuing without live updates", "error", err)
	} else {
		go fileWatcher.Start()
		go handleWatcherEvents(fileWatcher, rootDir, filter, archiveIndex, contentIndex, tallyIndex, logger)
		defer fileWatcher.Close()
	}

	// Periodic freshness check as a backstop for watcher gaps
	if syncInterval > 0 {
		stopSync := make(chan struct{})
		defer close(stopSync)
		go runPeriodicSync(syncInterval, rootDir, filter, archiveIndex, contentIndex, tallyIndex, logger, stopSync)
	}

	// Create tool handlers
	tagsHandler := &tools.TagsHandler{TallyIndex: tallyIndex, Logger: logger}
	tagHandler := &tools.TagHandler{TallyIndex: tallyIndex, ContentIndex: contentIndex, Logger: logger}
	searchHandler := &tools.SearchHandler{ContentIndex: contentIndex, DefaultMaxResults: maxResults, Logger: logger}
	filesHandler := &tools.FilesHandler{ArchiveIndex: archiveIndex, DefaultMaxResults: maxResults, Logger: logger}
	exportHandler := &tools.ExportHandler{TallyIndex: tallyIndex, Logger: logger}
	rescanHandler := &tools.RescanHandler{
		TallyIndex: tallyIndex,
		Logger:     logger,
		DoRescan: func() (index.ScanStats, error) {
			// Pick up ignore rule edits before the fresh run
			filter.Reload()
			return performScan(rootDir, filter, archiveIndex, contentIndex, tallyIndex, progress.Discard{}, logger)
		},
	}
	statusHandler := &tools.StatusHandler{
		ArchiveIndex: archiveIndex,
		ContentIndex: contentIndex,
		TallyIndex:   tallyIndex,
		StartTime:    startTime,
		RootDir:      rootDir,
		Logger:       logger,
	}

	// Setup and run MCP server on stdio
	mcpServer := server.Setup(Version, tagsHandler, tagHandler, searchHandler, filesHandler, exportHandler, rescanHandler, statusHandler)

	logger.Info("MCP server starting on stdio")
	if err := mcpServer.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		logger.Error("MCP server error", "error", err)
		os.Exit(1)
	}
}

// setupLogger creates an slog.Logger writing to stderr or a file. Never
// stdout, which carries the MCP stdio transport in serve mode.
func setupLogger(level string, logFile string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var writer *os.File
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot open log file %s: %v, falling back to stderr\n", logFile, err)
			writer = os.Stderr
		} else {
			writer = f
		}
	} else {
		writer = os.Stderr
	}

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{Level: logLevel})
	return slog.New(handler)
}

package tools

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/lexandro/tagtally-mcp/index"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// StatusArgs defines the input parameters for the tagtally_status tool (none required).
type StatusArgs struct{}

// StatusHandler holds the dependencies for the status tool.
type StatusHandler struct {
	ArchiveIndex *index.ArchiveIndex
	ContentIndex *index.ContentIndex
	TallyIndex   *index.TallyIndex
	StartTime    time.Time
	RootDir      string
	Logger       *slog.Logger
}

// Handle processes a tagtally_status request.
func (h *StatusHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args StatusArgs) (*mcp.CallToolResult, any, error) {
	var builder strings.Builder

	fileCount := h.ArchiveIndex.FileCount()
	totalSize := h.ArchiveIndex.TotalSizeBytes()
	docCount := h.ContentIndex.DocumentCount()
	summary := h.TallyIndex.Summary()
	uptime := time.Since(h.StartTime)

	// Memory stats
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	h.Logger.Info("tagtally_status",
		"transcripts", fileCount,
		"totalSize", totalSize,
		"tags", summary.TagCount,
		"memory", memStats.Alloc,
		"uptime", uptime,
	)

	builder.WriteString("=== tagtally-mcp Status ===\n\n")
	builder.WriteString(fmt.Sprintf("Archive root: %s\n", h.RootDir))
	builder.WriteString(fmt.Sprintf("Uptime: %s\n", formatDuration(uptime)))
	builder.WriteString(fmt.Sprintf("Scans completed: %d\n", summary.ScanCount))
	if !summary.LastScanTime.IsZero() {
		builder.WriteString(fmt.Sprintf("Last scan: %s ago (%s, %d parsed, %d skipped, %d failed)\n",
			formatDuration(time.Since(summary.LastScanTime)),
			formatDuration(summary.ScanStats.Duration),
			summary.ScanStats.FilesParsed,
			summary.ScanStats.FilesSkipped,
			summary.ScanStats.FilesFailed,
		))
	}
	builder.WriteString(fmt.Sprintf("Transcripts: %d (%s)\n", fileCount, formatFileSize(totalSize)))
	builder.WriteString(fmt.Sprintf("Content-indexed documents: %d\n", docCount))
	builder.WriteString(fmt.Sprintf("Distinct tags: %d\n", summary.TagCount))
	builder.WriteString(fmt.Sprintf("Tag occurrences: %d\n", summary.RunStats.Occurrences))
	builder.WriteString(fmt.Sprintf("Data lines processed: %d\n", summary.RunStats.LinesProcessed))
	builder.WriteString(fmt.Sprintf("Memory usage: %s (heap: %s)\n",
		formatFileSize(int64(memStats.Alloc)),
		formatFileSize(int64(memStats.HeapAlloc)),
	))

	// Top tags by count
	topTags := h.TallyIndex.Query(index.QueryOptions{SortBy: "count", Limit: 5})
	if len(topTags) > 0 {
		builder.WriteString("\nTop tags:\n")
		for _, record := range topTags {
			builder.WriteString(fmt.Sprintf("  【%s】  %d occurrences\n", record.Tag, record.Count))
		}
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: builder.String()}},
	}, nil, nil
}

// formatDuration formats a duration in a human-readable way. Scans often
// finish in well under a second, so short durations keep their precision.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return d.Round(10 * time.Millisecond).String()
	}
	totalSeconds := int(d.Seconds())
	totalMinutes := totalSeconds / 60
	remainderSeconds := totalSeconds % 60
	if totalMinutes < 60 {
		return fmt.Sprintf("%dm%ds", totalMinutes, remainderSeconds)
	}
	hours := totalMinutes / 60
	remainderMinutes := totalMinutes % 60
	return fmt.Sprintf("%dh%dm", hours, remainderMinutes)
}

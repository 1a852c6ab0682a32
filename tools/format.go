package tools

import (
	"fmt"
	"strings"

	"github.com/lexandro/tagtally-mcp/index"
	"github.com/lexandro/tagtally-mcp/tally"
)

// FormatSearchResults formats content search results as human-readable text.
// Groups matches by transcript with line numbers and optional context.
func FormatSearchResults(results []index.ContentSearchResult, totalMatches int) string {
	if len(results) == 0 {
		return "No matches found."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Found %d matches in %d transcripts:\n\n", totalMatches, len(results)))

	for i, result := range results {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(fmt.Sprintf("── %s ──\n", result.RelativePath))

		for _, match := range result.Matches {
			// Context before
			for _, ctxLine := range match.ContextBefore {
				builder.WriteString(fmt.Sprintf("  %s\n", ctxLine))
			}

			// The matching line with line number
			builder.WriteString(fmt.Sprintf("  %d: %s\n", match.LineNumber, match.LineText))

			// Context after
			for _, ctxLine := range match.ContextAfter {
				builder.WriteString(fmt.Sprintf("  %s\n", ctxLine))
			}
		}
	}

	return builder.String()
}

// FormatFileResults formats transcript inventory results as human-readable text.
func FormatFileResults(results []index.ScannedFile, nameOnly bool) string {
	if len(results) == 0 {
		return "No transcripts matched."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Found %d transcripts:\n\n", len(results)))

	for _, file := range results {
		if nameOnly {
			builder.WriteString(file.RelativePath)
			builder.WriteString("\n")
		} else {
			builder.WriteString(fmt.Sprintf("  %s  (%s, %d lines, %d tagged, %d occurrences)\n",
				file.RelativePath,
				formatFileSize(file.SizeBytes),
				file.LineCount,
				file.DataLines,
				file.TagOccurrences,
			))
		}
	}

	return builder.String()
}

// FormatTagTable formats tag records as human-readable text, one tag per
// line. Tags render in their brackets so they are easy to copy back into a
// search.
func FormatTagTable(records []tally.TagRecord, tagsOnly bool) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Found %d tags:\n\n", len(records)))

	for _, record := range records {
		if tagsOnly {
			builder.WriteString(record.Tag)
			builder.WriteString("\n")
		} else {
			builder.WriteString(fmt.Sprintf("  【%s】  count=%d  ids=%d  files=%d\n",
				record.Tag,
				record.Count,
				len(record.SourceIDs),
				len(record.SourceFiles),
			))
		}
	}

	return builder.String()
}

// FormatTagDetail formats a single tag record with its full provenance.
func FormatTagDetail(record tally.TagRecord) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Tag: 【%s】\n", record.Tag))
	builder.WriteString(fmt.Sprintf("Count: %d\n", record.Count))
	builder.WriteString(fmt.Sprintf("Source IDs (%d): %s\n", len(record.SourceIDs), strings.Join(record.SourceIDs, ", ")))
	builder.WriteString(fmt.Sprintf("Source files (%d): %s\n", len(record.SourceFiles), strings.Join(record.SourceFiles, ", ")))
	return builder.String()
}

// formatFileSize converts bytes to a human-readable string.
func formatFileSize(bytes int64) string {
	switch {
	case bytes >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	case bytes >= 1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

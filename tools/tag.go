package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lexandro/tagtally-mcp/index"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// TagArgs defines the input parameters for the tagtally_tag tool.
type TagArgs struct {
	Tag         string `json:"tag" jsonschema:"Tag text without the 【】 brackets"`
	SampleLines int    `json:"sampleLines,omitempty" jsonschema:"Number of sample transcript lines carrying the tag to include (default 3, -1 disables)"`
}

// TagHandler holds the dependencies for the tag tool.
type TagHandler struct {
	TallyIndex   *index.TallyIndex
	ContentIndex *index.ContentIndex
	Logger       *slog.Logger
}

// Handle processes a tagtally_tag request.
func (h *TagHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args TagArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if args.Tag == "" {
		h.Logger.Warn("tagtally_tag called with empty tag")
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "Error: tag parameter is required"}},
			IsError: true,
		}, nil, nil
	}

	// Accept tags pasted with their brackets
	tag := strings.TrimSuffix(strings.TrimPrefix(args.Tag, "【"), "】")

	record, ok := h.TallyIndex.Lookup(tag)
	if !ok {
		h.Logger.Info("tagtally_tag", "tag", tag, "found", false)
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("Tag 【%s】 not found in the current tally.", tag)}},
		}, nil, nil
	}

	var builder strings.Builder
	builder.WriteString(FormatTagDetail(record))

	sampleLines := args.SampleLines
	if sampleLines == 0 {
		sampleLines = 3
	}
	if sampleLines > 0 {
		samples, sampleCount := h.collectSamples(tag, sampleLines)
		if sampleCount > 0 {
			builder.WriteString("\nSample lines:\n")
			builder.WriteString(samples)
		}
	}

	elapsed := time.Since(start)
	h.Logger.Info("tagtally_tag",
		"tag", tag,
		"count", record.Count,
		"elapsed", elapsed,
	)

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: builder.String()}},
	}, nil, nil
}

// collectSamples pulls up to limit lines carrying the tag out of the content
// index. Sample lookup failures degrade to no samples; the record itself is
// the answer.
func (h *TagHandler) collectSamples(tag string, limit int) (string, int) {
	results, _, err := h.ContentIndex.Search(index.SearchOptions{
		Tag:        tag,
		MaxResults: limit,
	})
	if err != nil {
		h.Logger.Warn("tagtally_tag sample lookup failed", "tag", tag, "error", err)
		return "", 0
	}

	var builder strings.Builder
	sampleCount := 0
	for _, result := range results {
		for _, match := range result.Matches {
			if sampleCount >= limit {
				return builder.String(), sampleCount
			}
			builder.WriteString(fmt.Sprintf("  %s:%d: %s\n", result.RelativePath, match.LineNumber, match.LineText))
			sampleCount++
		}
	}
	return builder.String(), sampleCount
}

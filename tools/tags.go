package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lexandro/tagtally-mcp/index"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// TagsArgs defines the input parameters for the tagtally_tags tool.
type TagsArgs struct {
	Contains string `json:"contains,omitempty" jsonschema:"Only return tags whose text contains this substring"`
	MinCount int    `json:"minCount,omitempty" jsonschema:"Only return tags seen at least this many times"`
	SortBy   string `json:"sortBy,omitempty" jsonschema:"Sort order: tag (default) or count"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Maximum number of tags to return (0 = all)"`
	TagsOnly bool   `json:"tagsOnly,omitempty" jsonschema:"If true return only tag text without counts"`
}

// TagsHandler holds the dependencies for the tags tool.
type TagsHandler struct {
	TallyIndex *index.TallyIndex
	Logger     *slog.Logger
}

// Handle processes a tagtally_tags request.
func (h *TagsHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args TagsArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if args.SortBy != "" && args.SortBy != "tag" && args.SortBy != "count" {
		h.Logger.Warn("tagtally_tags called with unknown sort order", "sortBy", args.SortBy)
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("Error: unknown sortBy %q (use tag or count)", args.SortBy)}},
			IsError: true,
		}, nil, nil
	}

	if h.TallyIndex.TagCount() == 0 {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "The tally is empty. No tags were found in the archive."}},
		}, nil, nil
	}

	records := h.TallyIndex.Query(index.QueryOptions{
		Contains: args.Contains,
		MinCount: args.MinCount,
		SortBy:   args.SortBy,
		Limit:    args.Limit,
	})

	elapsed := time.Since(start)
	h.Logger.Info("tagtally_tags",
		"contains", args.Contains,
		"minCount", args.MinCount,
		"sortBy", args.SortBy,
		"results", len(records),
		"elapsed", elapsed,
	)

	if len(records) == 0 {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "No tags matched the filter."}},
		}, nil, nil
	}

	output := FormatTagTable(records, args.TagsOnly)

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: output}},
	}, nil, nil
}

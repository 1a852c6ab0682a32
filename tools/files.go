package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lexandro/tagtally-mcp/index"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// FilesArgs defines the input parameters for the tagtally_files tool.
type FilesArgs struct {
	Pattern    string `json:"pattern,omitempty" jsonschema:"Glob pattern to match transcripts (e.g. 2023/**/*.txt). Empty lists every transcript"`
	NameOnly   bool   `json:"nameOnly,omitempty" jsonschema:"If true return only transcript paths without metadata"`
	MaxResults int    `json:"maxResults,omitempty" jsonschema:"Maximum number of results to return (default 50)"`
}

// FilesHandler holds the dependencies for the files tool.
type FilesHandler struct {
	ArchiveIndex *index.ArchiveIndex
	// DefaultMaxResults applies when the request does not set maxResults.
	// Zero falls through to the index default.
	DefaultMaxResults int
	Logger            *slog.Logger
}

// Handle processes a tagtally_files request.
func (h *FilesHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args FilesArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	pattern := args.Pattern
	if pattern == "" {
		pattern = "**"
	}

	maxResults := args.MaxResults
	if maxResults <= 0 {
		maxResults = h.DefaultMaxResults
	}

	results, err := h.ArchiveIndex.SearchByGlob(pattern, maxResults)
	if err != nil {
		h.Logger.Error("tagtally_files failed", "pattern", pattern, "error", err)
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("Search error: %v", err)}},
			IsError: true,
		}, nil, nil
	}

	elapsed := time.Since(start)
	h.Logger.Info("tagtally_files",
		"pattern", pattern,
		"results", len(results),
		"elapsed", elapsed,
	)

	output := FormatFileResults(results, args.NameOnly)

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: output}},
	}, nil, nil
}

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

// SearchArgs defines the input parameters for the tagtally_search tool.
type SearchArgs struct {
	Query        string `json:"query,omitempty" jsonschema:"Search query. Plain text for word match, quoted for exact phrase, /regex/ for regular expression. May be empty when tag is given"`
	Tag          string `json:"tag,omitempty" jsonschema:"Restrict results to transcripts carrying this tag. With an empty query, returns the lines where the tag occurs"`
	FileGlob     string `json:"fileGlob,omitempty" jsonschema:"Optional glob pattern to filter transcripts (e.g. 2023/**/*.txt)"`
	MaxResults   int    `json:"maxResults,omitempty" jsonschema:"Maximum number of transcript results to return (default 50)"`
	ContextLines int    `json:"contextLines,omitempty" jsonschema:"Number of context lines before and after each match (default 2)"`
}

// SearchHandler holds the dependencies for the search tool.
type SearchHandler struct {
	ContentIndex *index.ContentIndex
	// DefaultMaxResults applies when the request does not set maxResults.
	// Zero falls through to the index default.
	DefaultMaxResults int
	Logger            *slog.Logger
}

// Handle processes a tagtally_search request.
func (h *SearchHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if args.Query == "" && args.Tag == "" {
		h.Logger.Warn("tagtally_search called without query or tag")
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "Error: query or tag parameter is required"}},
			IsError: true,
		}, nil, nil
	}

	// Accept tags pasted with their brackets
	tag := strings.TrimSuffix(strings.TrimPrefix(args.Tag, "【"), "】")

	contextLines := args.ContextLines
	if contextLines == 0 {
		contextLines = 2
	}

	maxResults := args.MaxResults
	if maxResults <= 0 {
		maxResults = h.DefaultMaxResults
	}

	results, totalMatches, err := h.ContentIndex.Search(index.SearchOptions{
		Query:        args.Query,
		Tag:          tag,
		FileGlob:     args.FileGlob,
		MaxResults:   maxResults,
		ContextLines: contextLines,
	})
	if err != nil {
		h.Logger.Error("tagtally_search failed", "query", args.Query, "tag", tag, "error", err)
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("Search error: %v", err)}},
			IsError: true,
		}, nil, nil
	}

	elapsed := time.Since(start)
	h.Logger.Info("tagtally_search",
		"query", args.Query,
		"tag", tag,
		"fileGlob", args.FileGlob,
		"transcripts", len(results),
		"matches", totalMatches,
		"elapsed", elapsed,
	)

	output := FormatSearchResults(results, totalMatches)

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: output}},
	}, nil, nil
}

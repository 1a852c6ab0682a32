package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lexandro/tagtally-mcp/index"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RescanArgs defines the input parameters for the tagtally_rescan tool.
type RescanArgs struct{}

// RescanFunc is the function signature for the rescan operation.
// It is provided by main.go to avoid circular dependencies.
type RescanFunc func() (index.ScanStats, error)

// RescanHandler holds the dependencies for the rescan tool.
type RescanHandler struct {
	DoRescan   RescanFunc
	TallyIndex *index.TallyIndex
	Logger     *slog.Logger
}

// Handle processes a tagtally_rescan request.
func (h *RescanHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args RescanArgs) (*mcp.CallToolResult, any, error) {
	h.Logger.Info("tagtally_rescan started")

	scanStats, err := h.DoRescan()
	if err != nil {
		h.Logger.Error("tagtally_rescan failed", "error", err)
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("Rescan error: %v", err)}},
			IsError: true,
		}, nil, nil
	}

	summary := h.TallyIndex.Summary()

	h.Logger.Info("tagtally_rescan complete",
		"parsed", scanStats.FilesParsed,
		"skipped", scanStats.FilesSkipped,
		"failed", scanStats.FilesFailed,
		"tags", summary.TagCount,
		"elapsed", scanStats.Duration,
	)

	output := fmt.Sprintf("Rescan complete: %d transcripts parsed (%d skipped, %d failed), %d tags, %d occurrences in %s",
		scanStats.FilesParsed,
		scanStats.FilesSkipped,
		scanStats.FilesFailed,
		summary.TagCount,
		summary.RunStats.Occurrences,
		formatDuration(scanStats.Duration),
	)

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: output}},
	}, nil, nil
}

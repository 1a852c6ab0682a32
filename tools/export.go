package tools

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lexandro/tagtally-mcp/index"
	"github.com/lexandro/tagtally-mcp/tally"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ExportArgs defines the input parameters for the tagtally_export tool.
type ExportArgs struct {
	Path string `json:"path,omitempty" jsonschema:"Destination path for the CSV file. Relative paths resolve against the server working directory. Omit to get the CSV text back instead of writing a file"`
}

// ExportHandler holds the dependencies for the export tool.
type ExportHandler struct {
	TallyIndex *index.TallyIndex
	Logger     *slog.Logger
}

// Handle processes a tagtally_export request.
func (h *ExportHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ExportArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	records := h.TallyIndex.Records()

	// No destination: return the CSV text itself
	if args.Path == "" {
		var buf bytes.Buffer
		if err := tally.WriteCSV(&buf, records); err != nil {
			h.Logger.Error("tagtally_export failed", "error", err)
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("Export error: %v", err)}},
				IsError: true,
			}, nil, nil
		}

		elapsed := time.Since(start)
		h.Logger.Info("tagtally_export",
			"tags", len(records),
			"inline", true,
			"elapsed", elapsed,
		)

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: buf.String()}},
		}, nil, nil
	}

	if err := tally.ExportCSV(args.Path, records); err != nil {
		h.Logger.Error("tagtally_export failed", "path", args.Path, "error", err)
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("Export error: %v", err)}},
			IsError: true,
		}, nil, nil
	}

	var sizeBytes int64
	if info, err := os.Stat(args.Path); err == nil {
		sizeBytes = info.Size()
	}

	elapsed := time.Since(start)
	h.Logger.Info("tagtally_export",
		"path", args.Path,
		"tags", len(records),
		"size", sizeBytes,
		"elapsed", elapsed,
	)

	output := fmt.Sprintf("Exported %d tags to %s (%s)", len(records), args.Path, formatFileSize(sizeBytes))

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: output}},
	}, nil, nil
}

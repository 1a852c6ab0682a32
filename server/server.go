package server

import (
	"github.com/lexandro/tagtally-mcp/tools"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Setup creates and configures the MCP server with all tool registrations.
func Setup(
	version string,
	tagsHandler *tools.TagsHandler,
	tagHandler *tools.TagHandler,
	searchHandler *tools.SearchHandler,
	filesHandler *tools.FilesHandler,
	exportHandler *tools.ExportHandler,
	rescanHandler *tools.RescanHandler,
	statusHandler *tools.StatusHandler,
) *mcp.Server {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "tagtally-mcp",
			Version: version,
		},
		&mcp.ServerOptions{
			Instructions: `This server tallies the 【tag】 annotations found in a transcript archive (recursive *.txt scan). Record lines carry an identifier like M24_230001; annotations on those lines are extracted and aggregated into a tag table with counts and provenance (which record identifiers and which files each tag came from).

Typical flow:
- Use tagtally_tags to see the tag table (filter with contains/minCount, order with sortBy)
- Use tagtally_tag for one tag's full provenance plus sample transcript lines
- Use tagtally_search to find transcript lines (plain text, "phrase", /regex/, or tag-filtered)
- Use tagtally_files to list scanned transcripts by glob
- Use tagtally_export to write the table as CSV (omit the path to get the CSV text back)
- The tally refreshes automatically when the archive changes (filesystem watcher); tagtally_rescan forces it`,
		},
	)

	// Register tagtally_tags tool
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "tagtally_tags",
		Description: `List the aggregated tag table from the latest scan.

Filtering and ordering:
  - contains: substring filter on the tag text
  - minCount: drop tags seen fewer times
  - sortBy: "tag" (default, native string order) or "count" (descending)
  - limit: cap the number of rows
  - tagsOnly: return bare tag text, one per line`,
	}, tagsHandler.Handle)

	// Register tagtally_tag tool
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "tagtally_tag",
		Description: `Show one tag's record: total count, the record identifiers it came from (first-seen order), the transcripts it came from (first-seen order), and sample transcript lines. Pass the tag with or without its 【】 brackets.`,
	}, tagHandler.Handle)

	// Register tagtally_search tool
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "tagtally_search",
		Description: `Search transcript contents using full-text indexed search.

Query formats:
  - Plain text: word-level matching (e.g., "refund")
  - "quoted text": exact phrase matching
  - /regex/: regular expression matching

Filtering:
  - tag: only transcripts carrying the tag; with an empty query, returns the tagged lines themselves
  - fileGlob: glob pattern to filter transcripts (e.g., "2023/**/*.txt")`,
	}, searchHandler.Handle)

	// Register tagtally_files tool
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "tagtally_files",
		Description: `List scanned transcripts by glob pattern, with per-file line and tag counts.

Pattern examples:
  - "**/*.txt" or empty - every transcript
  - "2023/**" - everything under 2023/
  - "day*.txt" - root-level day files`,
	}, filesHandler.Handle)

	// Register tagtally_export tool
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "tagtally_export",
		Description: `Export the aggregated tag table as CSV (columns: Tag, Count, Source IDs, Source Files). With a path the file is written atomically; a failed export never leaves a partial file. Without a path the CSV text is returned directly.`,
	}, exportHandler.Handle)

	// Register tagtally_rescan tool
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "tagtally_rescan",
		Description: "Force a full rescan of the archive. The tag table, transcript inventory, and search index are rebuilt from scratch and swapped in atomically.",
	}, rescanHandler.Handle)

	// Register tagtally_status tool
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "tagtally_status",
		Description: "Show tally status: transcript and tag counts, last scan outcome, memory usage, uptime, and the top tags by count.",
	}, statusHandler.Handle)

	return mcpServer
}

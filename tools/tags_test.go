package tools

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/lexandro/tagtally-mcp/index"
	"github.com/lexandro/tagtally-mcp/tally"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func publishedTallyIndex(t *testing.T) *index.TallyIndex {
	t.Helper()
	ti := index.NewTallyIndex()
	ti.Publish([]tally.TagRecord{
		{Tag: "anger", Count: 4, SourceIDs: []string{"M1_000001", "M2_000002"}, SourceFiles: []string{"day1.txt"}},
		{Tag: "laugh", Count: 9, SourceIDs: []string{"M1_000001"}, SourceFiles: []string{"day1.txt", "day2.txt"}},
		{Tag: "sigh", Count: 2, SourceIDs: []string{"M3_000003"}, SourceFiles: []string{"day2.txt"}},
	}, tally.RunStats{FilesFolded: 2, LinesProcessed: 40, Occurrences: 15}, index.ScanStats{FilesParsed: 2})
	return ti
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("expected result content")
	}
	return result.Content[0].(*mcp.TextContent).Text
}

func Test_TagsHandler_ListsAllTags(t *testing.T) {
	h := &TagsHandler{TallyIndex: publishedTallyIndex(t), Logger: testLogger()}

	result, _, err := h.Handle(context.Background(), nil, TagsArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatal("expected success, got error result")
	}

	text := resultText(t, result)
	if !strings.Contains(text, "Found 3 tags") {
		t.Errorf("expected 3 tags in output, got:\n%s", text)
	}
	if !strings.Contains(text, "【laugh】") || !strings.Contains(text, "count=9") {
		t.Errorf("expected laugh with count 9, got:\n%s", text)
	}
}

func Test_TagsHandler_EmptyTally(t *testing.T) {
	h := &TagsHandler{TallyIndex: index.NewTallyIndex(), Logger: testLogger()}

	result, _, err := h.Handle(context.Background(), nil, TagsArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatal("expected success for empty tally")
	}

	text := resultText(t, result)
	if !strings.Contains(text, "tally is empty") {
		t.Errorf("expected empty-tally message, got:\n%s", text)
	}
}

func Test_TagsHandler_ContainsFilter(t *testing.T) {
	h := &TagsHandler{TallyIndex: publishedTallyIndex(t), Logger: testLogger()}

	result, _, err := h.Handle(context.Background(), nil, TagsArgs{Contains: "augh"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "Found 1 tags") {
		t.Errorf("expected 1 matching tag, got:\n%s", text)
	}
	if strings.Contains(text, "anger") {
		t.Errorf("expected anger to be filtered out, got:\n%s", text)
	}
}

func Test_TagsHandler_NoFilterMatch(t *testing.T) {
	h := &TagsHandler{TallyIndex: publishedTallyIndex(t), Logger: testLogger()}

	result, _, err := h.Handle(context.Background(), nil, TagsArgs{Contains: "zzz"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "No tags matched") {
		t.Errorf("expected no-match message, got:\n%s", text)
	}
}

func Test_TagsHandler_SortByCount(t *testing.T) {
	h := &TagsHandler{TallyIndex: publishedTallyIndex(t), Logger: testLogger()}

	result, _, err := h.Handle(context.Background(), nil, TagsArgs{SortBy: "count"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := resultText(t, result)
	laughPos := strings.Index(text, "laugh")
	angerPos := strings.Index(text, "anger")
	sighPos := strings.Index(text, "sigh")
	if laughPos == -1 || angerPos == -1 || sighPos == -1 {
		t.Fatalf("expected all tags in output, got:\n%s", text)
	}
	if !(laughPos < angerPos && angerPos < sighPos) {
		t.Errorf("expected count-descending order laugh, anger, sigh, got:\n%s", text)
	}
}

func Test_TagsHandler_InvalidSortBy(t *testing.T) {
	h := &TagsHandler{TallyIndex: publishedTallyIndex(t), Logger: testLogger()}

	result, _, err := h.Handle(context.Background(), nil, TagsArgs{SortBy: "size"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected IsError=true for unknown sort order")
	}
}

func Test_TagsHandler_TagsOnly(t *testing.T) {
	h := &TagsHandler{TallyIndex: publishedTallyIndex(t), Logger: testLogger()}

	result, _, err := h.Handle(context.Background(), nil, TagsArgs{TagsOnly: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := resultText(t, result)
	if strings.Contains(text, "count=") {
		t.Errorf("expected tagsOnly output without counts, got:\n%s", text)
	}
	if !strings.Contains(text, "laugh") {
		t.Errorf("expected tag text in output, got:\n%s", text)
	}
}

package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lexandro/tagtally-mcp/index"
)

func Test_ExportHandler_NoPathReturnsCSVText(t *testing.T) {
	h := &ExportHandler{TallyIndex: publishedTallyIndex(t), Logger: testLogger()}

	result, _, err := h.Handle(context.Background(), nil, ExportArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("expected CSV text, got error result: %s", resultText(t, result))
	}

	text := resultText(t, result)
	if !strings.HasPrefix(text, "Tag,Count,Source IDs,Source Files") {
		t.Errorf("expected CSV header first, got:\n%s", text)
	}
	if !strings.Contains(text, `anger,4,"M1_000001,M2_000002",day1.txt`) {
		t.Errorf("expected anger row with quoted id list, got:\n%s", text)
	}
	if !strings.Contains(text, `laugh,9,M1_000001,"day1.txt,day2.txt"`) {
		t.Errorf("expected laugh row with quoted file list, got:\n%s", text)
	}
}

func Test_ExportHandler_NoPathEmptyTally(t *testing.T) {
	h := &ExportHandler{TallyIndex: index.NewTallyIndex(), Logger: testLogger()}

	result, _, err := h.Handle(context.Background(), nil, ExportArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("expected header-only CSV, got error result: %s", resultText(t, result))
	}
	if strings.TrimSpace(resultText(t, result)) != "Tag,Count,Source IDs,Source Files" {
		t.Errorf("expected header-only CSV, got:\n%s", resultText(t, result))
	}
}

func Test_ExportHandler_WritesCSV(t *testing.T) {
	h := &ExportHandler{TallyIndex: publishedTallyIndex(t), Logger: testLogger()}
	csvPath := filepath.Join(t.TempDir(), "tags.csv")

	result, _, err := h.Handle(context.Background(), nil, ExportArgs{Path: csvPath})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("expected success, got error result: %s", resultText(t, result))
	}

	text := resultText(t, result)
	if !strings.Contains(text, "Exported 3 tags") {
		t.Errorf("expected export summary, got: %s", text)
	}

	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("failed to read exported CSV: %v", err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "Tag,Count,Source IDs,Source Files") {
		t.Errorf("expected CSV header, got:\n%s", content)
	}
	if !strings.Contains(content, "laugh,9") {
		t.Errorf("expected laugh row, got:\n%s", content)
	}
}

func Test_ExportHandler_EmptyTallyWritesHeaderOnly(t *testing.T) {
	h := &ExportHandler{TallyIndex: index.NewTallyIndex(), Logger: testLogger()}
	csvPath := filepath.Join(t.TempDir(), "tags.csv")

	result, _, err := h.Handle(context.Background(), nil, ExportArgs{Path: csvPath})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("expected success, got error result: %s", resultText(t, result))
	}

	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("failed to read exported CSV: %v", err)
	}
	if strings.TrimSpace(string(data)) != "Tag,Count,Source IDs,Source Files" {
		t.Errorf("expected header-only CSV, got:\n%s", string(data))
	}
}

func Test_ExportHandler_BadDestination(t *testing.T) {
	h := &ExportHandler{TallyIndex: publishedTallyIndex(t), Logger: testLogger()}
	csvPath := filepath.Join(t.TempDir(), "missing", "tags.csv")

	result, _, err := h.Handle(context.Background(), nil, ExportArgs{Path: csvPath})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected IsError=true for unwritable destination")
	}
}

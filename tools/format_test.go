package tools

import (
	"strings"
	"testing"

	"github.com/lexandro/tagtally-mcp/index"
	"github.com/lexandro/tagtally-mcp/tally"
)

// --- formatFileSize ---

func Test_FormatFileSize_Bytes(t *testing.T) {
	got := formatFileSize(500)
	if got != "500 B" {
		t.Errorf("expected '500 B', got '%s'", got)
	}
}

func Test_FormatFileSize_Kilobytes(t *testing.T) {
	got := formatFileSize(2048)
	if got != "2.0 KB" {
		t.Errorf("expected '2.0 KB', got '%s'", got)
	}
}

func Test_FormatFileSize_Megabytes(t *testing.T) {
	got := formatFileSize(3 * 1024 * 1024)
	if got != "3.0 MB" {
		t.Errorf("expected '3.0 MB', got '%s'", got)
	}
}

// --- FormatSearchResults ---

func Test_FormatSearchResults_Empty(t *testing.T) {
	got := FormatSearchResults(nil, 0)
	if got != "No matches found." {
		t.Errorf("expected no-match message, got '%s'", got)
	}
}

func Test_FormatSearchResults_GroupsByTranscript(t *testing.T) {
	results := []index.ContentSearchResult{
		{
			RelativePath: "day1.txt",
			Matches: []index.LineMatch{
				{LineNumber: 3, LineText: "M1_000001 caller laughed 【laugh】", ContextBefore: []string{"before"}, ContextAfter: []string{"after"}},
			},
		},
		{
			RelativePath: "day2.txt",
			Matches: []index.LineMatch{
				{LineNumber: 7, LineText: "M2_000002 another laugh 【laugh】"},
			},
		},
	}

	got := FormatSearchResults(results, 2)

	if !strings.Contains(got, "Found 2 matches in 2 transcripts") {
		t.Errorf("expected summary line, got:\n%s", got)
	}
	if !strings.Contains(got, "── day1.txt ──") {
		t.Errorf("expected transcript header, got:\n%s", got)
	}
	if !strings.Contains(got, "3: M1_000001 caller laughed 【laugh】") {
		t.Errorf("expected numbered match line, got:\n%s", got)
	}
	if !strings.Contains(got, "before") || !strings.Contains(got, "after") {
		t.Errorf("expected context lines, got:\n%s", got)
	}
}

// --- FormatFileResults ---

func Test_FormatFileResults_Empty(t *testing.T) {
	got := FormatFileResults(nil, false)
	if got != "No transcripts matched." {
		t.Errorf("expected no-match message, got '%s'", got)
	}
}

func Test_FormatFileResults_WithMetadata(t *testing.T) {
	files := []index.ScannedFile{
		{RelativePath: "day1.txt", SizeBytes: 2048, LineCount: 40, DataLines: 12, TagOccurrences: 19},
	}

	got := FormatFileResults(files, false)

	if !strings.Contains(got, "day1.txt") {
		t.Errorf("expected path, got:\n%s", got)
	}
	if !strings.Contains(got, "2.0 KB") {
		t.Errorf("expected size, got:\n%s", got)
	}
	if !strings.Contains(got, "40 lines, 12 tagged, 19 occurrences") {
		t.Errorf("expected metadata, got:\n%s", got)
	}
}

func Test_FormatFileResults_NameOnly(t *testing.T) {
	files := []index.ScannedFile{
		{RelativePath: "day1.txt", SizeBytes: 2048},
		{RelativePath: "day2.txt", SizeBytes: 512},
	}

	got := FormatFileResults(files, true)

	if !strings.Contains(got, "day1.txt\nday2.txt\n") {
		t.Errorf("expected bare path list, got:\n%s", got)
	}
	if strings.Contains(got, "KB") {
		t.Errorf("expected no sizes in nameOnly output, got:\n%s", got)
	}
}

// --- FormatTagTable ---

func Test_FormatTagTable_RendersBracketsAndCounts(t *testing.T) {
	records := []tally.TagRecord{
		{Tag: "笑", Count: 12, SourceIDs: []string{"M1_000001", "M2_000002"}, SourceFiles: []string{"day1.txt"}},
	}

	got := FormatTagTable(records, false)

	if !strings.Contains(got, "Found 1 tags") {
		t.Errorf("expected summary, got:\n%s", got)
	}
	if !strings.Contains(got, "【笑】  count=12  ids=2  files=1") {
		t.Errorf("expected tag row, got:\n%s", got)
	}
}

func Test_FormatTagTable_TagsOnly(t *testing.T) {
	records := []tally.TagRecord{
		{Tag: "笑", Count: 12},
		{Tag: "涙", Count: 3},
	}

	got := FormatTagTable(records, true)

	if !strings.Contains(got, "笑\n涙\n") {
		t.Errorf("expected bare tag list, got:\n%s", got)
	}
	if strings.Contains(got, "count=") {
		t.Errorf("expected no counts, got:\n%s", got)
	}
}

// --- FormatTagDetail ---

func Test_FormatTagDetail_ListsProvenance(t *testing.T) {
	record := tally.TagRecord{
		Tag:         "sigh",
		Count:       4,
		SourceIDs:   []string{"M24_230001", "M35_230002"},
		SourceFiles: []string{"day1.txt", "day2.txt"},
	}

	got := FormatTagDetail(record)

	if !strings.Contains(got, "Tag: 【sigh】") {
		t.Errorf("expected tag line, got:\n%s", got)
	}
	if !strings.Contains(got, "Count: 4") {
		t.Errorf("expected count line, got:\n%s", got)
	}
	if !strings.Contains(got, "Source IDs (2): M24_230001, M35_230002") {
		t.Errorf("expected source ids in first-seen order, got:\n%s", got)
	}
	if !strings.Contains(got, "Source files (2): day1.txt, day2.txt") {
		t.Errorf("expected source files in first-seen order, got:\n%s", got)
	}
}

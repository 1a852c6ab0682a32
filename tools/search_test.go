package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/lexandro/tagtally-mcp/index"
)

func newTestSearchHandler(t *testing.T) *SearchHandler {
	t.Helper()
	ci, err := index.NewContentIndex()
	if err != nil {
		t.Fatalf("failed to create content index: %v", err)
	}
	t.Cleanup(func() { ci.Close() })

	err = ci.ReplaceAll([]index.TranscriptDocument{
		{
			Path:    "day1.txt",
			Content: "M1_000001 refund requested angrily 【anger】\nM1_000002 small talk about weather",
			Tags:    []string{"anger"},
		},
		{
			Path:    "day2.txt",
			Content: "M2_000001 refund granted with a joke 【laugh】",
			Tags:    []string{"laugh"},
		},
	})
	if err != nil {
		t.Fatalf("failed to fill content index: %v", err)
	}

	return &SearchHandler{
		ContentIndex: ci,
		Logger:       testLogger(),
	}
}

func Test_SearchHandler_RequiresQueryOrTag(t *testing.T) {
	h := newTestSearchHandler(t)

	result, _, err := h.Handle(context.Background(), nil, SearchArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected IsError=true without query or tag")
	}

	text := resultText(t, result)
	if !strings.Contains(text, "query or tag parameter is required") {
		t.Errorf("expected missing-parameter message, got: %s", text)
	}
}

func Test_SearchHandler_BasicSearch(t *testing.T) {
	h := newTestSearchHandler(t)

	result, _, err := h.Handle(context.Background(), nil, SearchArgs{Query: "refund"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatal("expected success, got error result")
	}

	text := resultText(t, result)
	if !strings.Contains(text, "day1.txt") || !strings.Contains(text, "day2.txt") {
		t.Errorf("expected both transcripts in results, got:\n%s", text)
	}
}

func Test_SearchHandler_TagFilterNarrowsResults(t *testing.T) {
	h := newTestSearchHandler(t)

	result, _, err := h.Handle(context.Background(), nil, SearchArgs{Query: "refund", Tag: "anger"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "day1.txt") {
		t.Errorf("expected tagged transcript in results, got:\n%s", text)
	}
	if strings.Contains(text, "day2.txt") {
		t.Errorf("expected untagged transcript to be filtered out, got:\n%s", text)
	}
}

func Test_SearchHandler_TagOnlySearch(t *testing.T) {
	h := newTestSearchHandler(t)

	result, _, err := h.Handle(context.Background(), nil, SearchArgs{Tag: "【laugh】"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatal("expected success for tag-only search")
	}

	text := resultText(t, result)
	if !strings.Contains(text, "day2.txt") {
		t.Errorf("expected tagged transcript, got:\n%s", text)
	}
	if !strings.Contains(text, "【laugh】") {
		t.Errorf("expected the tagged line in output, got:\n%s", text)
	}
}

func Test_SearchHandler_NoResults(t *testing.T) {
	h := newTestSearchHandler(t)

	result, _, err := h.Handle(context.Background(), nil, SearchArgs{Query: "nonexistent"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatal("expected success (no error), got error result")
	}

	text := resultText(t, result)
	if !strings.Contains(text, "No matches found") {
		t.Errorf("expected 'No matches found', got:\n%s", text)
	}
}

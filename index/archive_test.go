package index

import (
	"testing"
	"time"
)

func testScannedFile(relativePath string, sizeBytes int64) ScannedFile {
	return ScannedFile{
		Path:         "/archive/" + relativePath,
		RelativePath: relativePath,
		SizeBytes:    sizeBytes,
		ModTime:      time.Now(),
		LineCount:    10,
	}
}

func Test_ArchiveIndex_ReplaceAndGet(t *testing.T) {
	ai := NewArchiveIndex()
	ai.ReplaceAll([]ScannedFile{
		testScannedFile("day1.txt", 100),
		testScannedFile("2023/day2.txt", 200),
	})

	if ai.FileCount() != 2 {
		t.Errorf("expected 2 files, got %d", ai.FileCount())
	}

	file, ok := ai.GetFile("2023/day2.txt")
	if !ok {
		t.Fatal("expected nested transcript to be found")
	}
	if file.SizeBytes != 200 {
		t.Errorf("expected size 200, got %d", file.SizeBytes)
	}

	if _, ok := ai.GetFile("missing.txt"); ok {
		t.Error("expected missing transcript to not be found")
	}
}

func Test_ArchiveIndex_ReplaceAll_SwapsInventory(t *testing.T) {
	ai := NewArchiveIndex()
	ai.ReplaceAll([]ScannedFile{testScannedFile("old.txt", 1)})
	ai.ReplaceAll([]ScannedFile{testScannedFile("new.txt", 2)})

	if _, ok := ai.GetFile("old.txt"); ok {
		t.Error("expected previous inventory to be dropped")
	}
	if _, ok := ai.GetFile("new.txt"); !ok {
		t.Error("expected new inventory to be visible")
	}
	if ai.FileCount() != 1 {
		t.Errorf("expected 1 file after swap, got %d", ai.FileCount())
	}
}

func Test_ArchiveIndex_SearchByGlob(t *testing.T) {
	ai := NewArchiveIndex()
	ai.ReplaceAll([]ScannedFile{
		testScannedFile("day1.txt", 1),
		testScannedFile("2023/day2.txt", 1),
		testScannedFile("2023/drafts/day3.txt", 1),
	})

	results, err := ai.SearchByGlob("**/*.txt", 0)
	if err != nil {
		t.Fatalf("glob search error: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("expected 3 matches for **/*.txt, got %d", len(results))
	}

	results, err = ai.SearchByGlob("2023/*.txt", 0)
	if err != nil {
		t.Fatalf("glob search error: %v", err)
	}
	if len(results) != 1 || results[0].RelativePath != "2023/day2.txt" {
		t.Errorf("expected only 2023/day2.txt, got %v", results)
	}
}

func Test_ArchiveIndex_SearchByGlob_InvalidPattern(t *testing.T) {
	ai := NewArchiveIndex()

	_, err := ai.SearchByGlob("[broken", 0)
	if err == nil {
		t.Error("expected error for invalid glob pattern")
	}
}

func Test_ArchiveIndex_SearchByGlob_MaxResults(t *testing.T) {
	ai := NewArchiveIndex()
	ai.ReplaceAll([]ScannedFile{
		testScannedFile("a.txt", 1),
		testScannedFile("b.txt", 1),
		testScannedFile("c.txt", 1),
	})

	results, err := ai.SearchByGlob("*.txt", 2)
	if err != nil {
		t.Fatalf("glob search error: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected results capped at 2, got %d", len(results))
	}
}

func Test_ArchiveIndex_AllFiles_SortedByPath(t *testing.T) {
	ai := NewArchiveIndex()
	ai.ReplaceAll([]ScannedFile{
		testScannedFile("zebra.txt", 1),
		testScannedFile("alpha.txt", 1),
		testScannedFile("2023/mid.txt", 1),
	})

	files := ai.AllFiles()
	if len(files) != 3 {
		t.Fatalf("expected 3 files, got %d", len(files))
	}

	expected := []string{"2023/mid.txt", "alpha.txt", "zebra.txt"}
	for i, relativePath := range expected {
		if files[i].RelativePath != relativePath {
			t.Errorf("position %d: expected %s, got %s", i, relativePath, files[i].RelativePath)
		}
	}
}

func Test_ArchiveIndex_TotalSizeBytes(t *testing.T) {
	ai := NewArchiveIndex()
	ai.ReplaceAll([]ScannedFile{
		testScannedFile("day1.txt", 100),
		testScannedFile("day2.txt", 250),
	})

	if ai.TotalSizeBytes() != 350 {
		t.Errorf("expected total size 350, got %d", ai.TotalSizeBytes())
	}
}

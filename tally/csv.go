package tally

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// csvHeader is the column layout of the exported table.
var csvHeader = []string{"Tag", "Count", "Source IDs", "Source Files"}

// WriteCSV serializes finalized records as a CSV table. Membership lists are
// comma-joined inside their field; the csv writer quotes fields containing
// commas per the usual rules.
func WriteCSV(w io.Writer, records []TagRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, record := range records {
		row := []string{
			record.Tag,
			strconv.Itoa(record.Count),
			strings.Join(record.SourceIDs, ","),
			strings.Join(record.SourceFiles, ","),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row for %q: %w", record.Tag, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportCSV writes the table to path atomically: temp file in the target
// directory, then rename.
func ExportCSV(path string, records []TagRecord) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tagtally-*.csv")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	if err := WriteCSV(tmp, records); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("moving %s to %s: %w", tmpPath, path, err)
	}
	return nil
}

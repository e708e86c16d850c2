package application

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ahrav/go-triage/internal/domain"
)

// DefaultTextColumn is the CSV column holding the issue text when the
// caller does not name one.
const DefaultTextColumn = "issue"

// LoadRecords reads issue records from path. A .zip archive is searched
// for its first .csv entry; anything else is read as CSV directly. The
// column argument names the text column, falling back to DefaultTextColumn
// and then to the first column when no header matches.
func LoadRecords(path, column string) ([]domain.IssueRecord, error) {
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		return loadRecordsZip(path, column)
	}

	f, err := os.Open(path) // #nosec G304 -- path is operator-supplied
	if err != nil {
		return nil, fmt.Errorf("opening input file: %w", err)
	}
	defer f.Close()

	return ReadRecordsCSV(f, column)
}

// loadRecordsZip extracts records from the first CSV entry in the archive.
func loadRecordsZip(path, column string) ([]domain.IssueRecord, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening zip archive: %w", err)
	}
	defer zr.Close()

	for _, entry := range zr.File {
		if !strings.EqualFold(filepath.Ext(entry.Name), ".csv") {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("opening zip entry %q: %w", entry.Name, err)
		}
		defer rc.Close()

		return ReadRecordsCSV(rc, column)
	}

	return nil, fmt.Errorf("no CSV entry found in archive %q", path)
}

// ReadRecordsCSV parses issue records from CSV data. The first row is the
// header; the text column is matched case-insensitively against column,
// then DefaultTextColumn, then falls back to the first column. Rows
// shorter than the text column index are skipped. SourceRow is the
// 1-based data row number, excluding the header.
func ReadRecordsCSV(r io.Reader, column string) ([]domain.IssueRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	idx := textColumnIndex(header, column)

	var records []domain.IssueRecord
	row := 0
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row %d: %w", row+1, err)
		}
		row++

		text := ""
		if idx < len(fields) {
			text = fields[idx]
		}
		records = append(records, domain.IssueRecord{RawText: text, SourceRow: row})
	}

	return records, nil
}

// textColumnIndex resolves which column carries the issue text.
func textColumnIndex(header []string, column string) int {
	candidates := []string{column, DefaultTextColumn}
	for _, want := range candidates {
		if want == "" {
			continue
		}
		for i, name := range header {
			if strings.EqualFold(strings.TrimSpace(name), want) {
				return i
			}
		}
	}
	return 0
}

package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/ahrav/go-triage/internal/domain"
)

// csvHeader is the fixed column layout of exported result sets.
var csvHeader = []string{"issue", "priority_score", "occurrences"}

// WriteCSV writes the result set to w as CSV in ranked order, one row per
// unique issue with the score formatted to three decimals.
func WriteCSV(w io.Writer, results domain.ResultSet) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for _, issue := range results {
		row := []string{
			issue.DisplayText,
			strconv.FormatFloat(issue.Score, 'f', 3, 64),
			strconv.Itoa(issue.Occurrences),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row for %q: %w", issue.Key, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing CSV output: %w", err)
	}
	return nil
}

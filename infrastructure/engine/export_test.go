package engine

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-triage/internal/domain"
)

func TestWriteCSV(t *testing.T) {
	results := domain.ResultSet{
		{Key: "login fails", DisplayText: "Login fails", Score: 0.9, Occurrences: 3},
		{Key: "crash on save", DisplayText: "Crash on save", Score: 0.4, Occurrences: 1},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, results))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"issue", "priority_score", "occurrences"}, rows[0])
	assert.Equal(t, []string{"Login fails", "0.900", "3"}, rows[1])
	assert.Equal(t, []string{"Crash on save", "0.400", "1"}, rows[2])
}

func TestWriteCSV_EmptyResultSet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	assert.Equal(t, "issue,priority_score,occurrences\n", buf.String())
}

func TestWriteCSV_QuotesEmbeddedDelimiters(t *testing.T) {
	results := domain.ResultSet{
		{Key: "k", DisplayText: `Crash, then "hang"`, Score: 0.75, Occurrences: 2},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, results))

	rows, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, `Crash, then "hang"`, rows[1][0])
}

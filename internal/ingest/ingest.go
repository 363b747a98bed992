// Package ingest parses and validates bulk-ingestion input before any work
// item is created. Validation covers the whole input set first; a single bad
// row rejects the entire file so a job can never be partially ingested.
package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/openpostbud/postbud/internal/domain/model"
)

// DefaultRecipientColumn is the CSV column naming the letter recipient.
// The original mail-merge sheets use the Danish header "Modtager".
const DefaultRecipientColumn = "Modtager"

// ErrNoRows is returned when the input contains a header but no data rows.
var ErrNoRows = errors.New("input contains no data rows")

// LetterRows parses a CSV file into one LetterRow per data row. The column
// named recipientColumn identifies the recipient and is excluded from the
// merge-field map; every remaining column becomes a merge field.
func LetterRows(csvFile []byte, recipientColumn string) ([]model.LetterRow, error) {
	if recipientColumn == "" {
		recipientColumn = DefaultRecipientColumn
	}

	reader := csv.NewReader(bytes.NewReader(csvFile))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	recipientIdx := -1
	for i, name := range header {
		if strings.TrimSpace(name) == recipientColumn {
			recipientIdx = i
			break
		}
	}
	if recipientIdx < 0 {
		return nil, fmt.Errorf("required column %q is missing", recipientColumn)
	}

	var out []model.LetterRow
	for line := 2; ; line++ {
		record, readErr := reader.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, readErr)
		}

		recipient := strings.TrimSpace(record[recipientIdx])
		if recipient == "" {
			return nil, fmt.Errorf("line %d: column %q is empty", line, recipientColumn)
		}

		fields := make(map[string]string, len(header)-1)
		for i, name := range header {
			if i == recipientIdx {
				continue
			}
			fields[strings.TrimSpace(name)] = record[i]
		}

		out = append(out, model.LetterRow{RecipientID: recipient, Fields: fields})
	}

	if len(out) == 0 {
		return nil, ErrNoRows
	}
	return out, nil
}

// Registrants parses a registrant list: one registrant identifier per line,
// blank lines ignored. Used when creating registration jobs.
func Registrants(file []byte) ([]string, error) {
	var out []string
	scanner := bufio.NewScanner(bytes.NewReader(file))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read registrant list: %w", err)
	}
	if len(out) == 0 {
		return nil, ErrNoRows
	}
	return out, nil
}

// Package sheet reads the list of cases to look up and writes the import
// sheets consumed by the case management system.
package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var ErrMalformedRow = errors.New("malformed case row")

// Case is one input row: the caller's reference and the number to look up.
type Case struct {
	Ref    string
	Number string
}

// ReadCases reads a CSV whose first row is a header. Column A is the
// reference, column B the application or publication number. Blank rows are
// skipped.
func ReadCases(r io.Reader) ([]Case, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read cases: %w", err)
	}
	if len(rows) == 0 {
		return []Case{}, nil
	}

	cases := make([]Case, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		if len(row) < 2 || strings.TrimSpace(row[1]) == "" {
			return nil, fmt.Errorf("%w: line %d has no number", ErrMalformedRow, i+2)
		}
		cases = append(cases, Case{
			Ref:    strings.TrimSpace(row[0]),
			Number: strings.TrimSpace(row[1]),
		})
	}
	return cases, nil
}

func ReadCasesFile(path string) ([]Case, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCases(f)
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

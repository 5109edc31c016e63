package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Row is one data row of the input file, keyed by canonical field names.
// Number is the 1-based file position counting the header, so the first data
// row is 2.
type Row struct {
	Number int
	Fields map[string]string
}

// ReadRows parses UTF-8 CSV input into canonical-keyed rows. Markdown tables
// (|-framed lines with a --- separator row) are detected and normalized to
// CSV first. Blank rows are skipped but still counted so row numbers match
// file positions.
func ReadRows(r io.Reader) ([]Row, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	content := string(raw)
	if isMarkdownTable(content) {
		content = markdownToCSV(content)
	}

	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1 // trailing columns vary in real exports
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("input is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	fields := make([]string, len(header))
	for i, h := range header {
		fields[i] = CanonicalField(strings.TrimPrefix(h, "\uFEFF"))
	}

	var rows []Row
	rowNumber := 1 // the header
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", rowNumber+1, err)
		}
		rowNumber++

		values := make(map[string]string)
		blank := true
		for i, cell := range record {
			if i >= len(fields) || fields[i] == "" {
				continue
			}
			values[fields[i]] = cell
			if strings.TrimSpace(cell) != "" {
				blank = false
			}
		}
		if blank {
			continue
		}

		rows = append(rows, Row{Number: rowNumber, Fields: values})
	}

	return rows, nil
}

// isMarkdownTable detects |-framed table input with a --- separator row.
func isMarkdownTable(content string) bool {
	if !strings.Contains(content, "|") {
		return false
	}
	return strings.Contains(content, "---") || strings.Contains(content, ":---")
}

// markdownToCSV converts a Markdown table into CSV. The separator row is
// dropped; <br> markers inside cells are preserved so the preprocessor can
// split multi-line descriptions.
func markdownToCSV(content string) string {
	var out []string
	for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "|") || !strings.HasSuffix(line, "|") {
			continue
		}
		if strings.Contains(line, "---") || strings.Contains(line, ":---") {
			continue
		}

		cells := strings.Split(line[1:len(line)-1], "|")
		escaped := make([]string, len(cells))
		for i, cell := range cells {
			cell = strings.TrimSpace(cell)
			if strings.ContainsAny(cell, ",\"\n") {
				cell = `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
			}
			escaped[i] = cell
		}
		out = append(out, strings.Join(escaped, ","))
	}
	return strings.Join(out, "\n")
}

// Package csvutil contains tolerant CSV parsing helpers for "dirty" menu
// exports. The standard library csv.Reader is intentionally strict;
// spreadsheet exports can include unbalanced quotes, stray commas, and
// inconsistent field counts. These helpers parse such inputs predictably,
// one physical line per logical row; quoted fields are supported within a
// single line only.
package csvutil

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const utf8BOM = "\uFEFF"

// ParseLineLoose splits a single CSV line into fields with a tolerant
// strategy:
//   - Commas inside quoted fields are preserved.
//   - Doubled quotes ("") inside quoted fields become a literal quote.
//   - Inner quotes inside unquoted fields are kept as literals.
//
// Malformed constructs degrade gracefully; the function never fails.
func ParseLineLoose(line string) []string {
	var fields []string
	var sb strings.Builder
	inQuotes := false
	atStartOfField := true
	i := 0

	for i < len(line) {
		ch := line[i]
		switch ch {
		case ',':
			if inQuotes {
				sb.WriteByte(',')
			} else {
				fields = append(fields, sb.String())
				sb.Reset()
				atStartOfField = true
			}
			i++
		case '"':
			if inQuotes {
				if i+1 < len(line) && line[i+1] == '"' {
					sb.WriteByte('"')
					i += 2
					continue
				}
				// Close only when followed by a delimiter or end.
				j := i + 1
				for j < len(line) && (line[j] == ' ' || line[j] == '\t') {
					j++
				}
				if j >= len(line) || line[j] == ',' {
					inQuotes = false
					atStartOfField = false
					i++
					continue
				}
				sb.WriteByte('"')
				i++
			} else {
				if atStartOfField {
					inQuotes = true
					atStartOfField = false
					i++
				} else {
					sb.WriteByte('"')
					i++
				}
			}
		default:
			sb.WriteByte(ch)
			if !inQuotes {
				atStartOfField = false
			}
			i++
		}
	}
	fields = append(fields, sb.String())
	return fields
}

// ReadRows parses an entire CSV stream into header-keyed row maps. The first
// line is the header (BOM stripped); short rows leave trailing columns
// empty, overlong rows are truncated to the header width. Blank lines are
// skipped.
func ReadRows(r io.Reader) (header []string, rows []map[string]string, err error) {
	br := bufio.NewReaderSize(r, 1<<20)

	headerLine, err := readLine(br)
	if err != nil {
		if err == io.EOF {
			return nil, nil, fmt.Errorf("csv: empty input")
		}
		return nil, nil, fmt.Errorf("csv: read header: %w", err)
	}
	header = ParseLineLoose(headerLine)
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	for {
		line, err := readLine(br)
		if err == io.EOF {
			return header, rows, nil
		}
		if err != nil {
			return header, rows, fmt.Errorf("csv: read row %d: %w", len(rows)+2, err)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := ParseLineLoose(line)
		row := make(map[string]string, len(header))
		for i, col := range header {
			if col == "" {
				continue
			}
			if i < len(fields) {
				row[col] = fields[i]
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
}

// readLine returns the next physical line without its trailing CRLF. Unlike
// the strict csv.Reader there is no continuation across lines; a quoted
// field ends at the line boundary no matter what.
func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

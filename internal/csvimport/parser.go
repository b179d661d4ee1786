// Package csvimport turns delimited text into ledger transactions. Rows are
// converted independently so one bad row never sinks the batch.
package csvimport

import "strings"

// Parse splits text into rows of trimmed fields.
//
// The format is deliberately narrower than RFC 4180: blank lines are dropped,
// a double quote toggles quoting and is itself discarded, commas inside
// quotes do not split, and there is no support for escaped quotes ("") or
// newlines inside quoted fields.
func Parse(text string) [][]string {
	var rows [][]string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, ParseLine(line))
	}
	return rows
}

// ParseLine splits a single line into trimmed fields.
func ParseLine(line string) []string {
	var (
		fields   []string
		current  strings.Builder
		inQuotes bool
	)

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	return append(fields, strings.TrimSpace(current.String()))
}

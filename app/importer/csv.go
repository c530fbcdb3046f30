package importer

import (
	"strings"
)

// CSVParser tokenizes published-sheet CSV text. It is deliberately looser
// than RFC 4180: blank lines are skipped, quotes toggle field grouping and
// are stripped from the output, and escaped quote pairs are not interpreted.
type CSVParser struct{}

func NewCSVParser() *CSVParser {
	return &CSVParser{}
}

// Run splits raw CSV text into records. The first record is the header row.
// Input with no non-blank lines yields no records.
func (p *CSVParser) Run(data string) [][]string {
	var records [][]string

	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		records = append(records, p.parseLine(line))
	}

	return records
}

func (p *CSVParser) parseLine(line string) []string {
	var fields []string
	var field strings.Builder
	inQuotes := false

	for _, ch := range line {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(field.String()))
			field.Reset()
		default:
			field.WriteRune(ch)
		}
	}
	fields = append(fields, strings.TrimSpace(field.String()))

	return fields
}

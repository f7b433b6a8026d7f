// Package records turns raw comma-delimited session exports into typed records.
//
// The format is deliberately simple: a header line, then one record per line,
// values separated by a bare comma. There is no quoting or escaping, so a value
// can never contain a comma.
//
// Malformed rows are never an error. A row shorter than the header gets empty
// text for each missing trailing field; values past the header are dropped.
//
// Numbers are plain decimals with an optional exponent. Go literal forms such
// as digit separators ("1_000") and hex ("0x1p4") stay text, and so count as
// zero in the duration field.
package records

import (
	"math"
	"strconv"
	"strings"

	"github.com/rewired-gh/usercube/internal/models"
)

const delimiter = ","

// Parse parses raw text into records in input order. The first non-empty line
// is the header; blank lines are skipped.
func Parse(raw string, schema models.Schema) []models.Record {
	schema = schema.WithDefaults()

	var headers []string
	records := make([]models.Record, 0)

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if headers == nil {
			headers = splitTrimmed(line)
			continue
		}
		records = append(records, parseLine(headers, splitTrimmed(line), schema))
	}

	return records
}

// Headers returns the header fields of raw text, or nil when there is none.
func Headers(raw string) []string {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return splitTrimmed(line)
		}
	}
	return nil
}

func parseLine(headers, values []string, schema models.Schema) models.Record {
	row := make(map[string]models.Value, len(headers))
	for i, h := range headers {
		val := ""
		if i < len(values) {
			val = values[i]
		}
		if num, ok := parseNumber(val); ok && !schema.AlwaysText(h) {
			row[h] = models.Number(num)
		} else {
			row[h] = models.Text(val)
		}
	}

	// The duration metric is always numeric; anything unparseable counts as zero.
	v := row[schema.DurationField]
	minutes := v.Num
	if !v.Numeric {
		minutes, _ = parseNumber(v.Text)
	}
	row[schema.DurationField] = models.Number(minutes)

	return models.NewRecord(headers, row)
}

// parseNumber accepts finite decimal numbers only.
func parseNumber(s string) (float64, bool) {
	if s == "" || strings.Contains(s, "_") {
		return 0, false
	}
	digits := strings.TrimLeft(s, "+-")
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func splitTrimmed(line string) []string {
	parts := strings.Split(line, delimiter)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

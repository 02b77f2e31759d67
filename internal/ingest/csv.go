package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/weipengdeng/flowmap/internal/models"
)

// Options controls CSV parsing
type Options struct {
	Aliases Aliases
	Comma   rune // Field delimiter, detected from the header row when zero
}

// ReadFile reads and parses an OD input file
func ReadFile(path string, opts Options) ([]models.TripRecord, models.IngestStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, models.IngestStats{}, fmt.Errorf("%w: %s: %v", ErrUnreadableInput, path, err)
	}
	return Parse(data, opts)
}

// Parse turns raw delimited text into trip records.
// Quoted fields may contain the delimiter and escaped quotes (""). Rows with a
// non-finite number, a non-positive quantity or an hour outside 0-23 are skipped.
func Parse(data []byte, opts Options) ([]models.TripRecord, models.IngestStats, error) {
	var st models.IngestStats

	lines := nonEmptyLines(data)
	if len(lines) < 2 {
		return nil, st, fmt.Errorf("%w: found %d non-empty line(s)", ErrTooFewLines, len(lines))
	}

	aliases := opts.Aliases
	if aliases == nil {
		aliases = DefaultAliases()
	}
	comma := opts.Comma
	if comma == 0 {
		comma = detectDelimiter(lines[0])
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, st, fmt.Errorf("failed to read header: %w", err)
	}
	cols, err := resolveColumns(header, aliases)
	if err != nil {
		return nil, st, err
	}

	var records []models.TripRecord
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				st.RowsRead++
				st.RowsSkipped++
				continue
			}
			return nil, st, fmt.Errorf("failed to read row: %w", err)
		}
		if isBlankRow(row) {
			continue
		}

		st.RowsRead++
		rec, ok := parseRow(row, cols)
		if !ok {
			st.RowsSkipped++
			continue
		}
		records = append(records, rec)
		st.RowsAccepted++
	}

	log.Printf("[Ingest] Parsed %d rows: %d accepted, %d skipped", st.RowsRead, st.RowsAccepted, st.RowsSkipped)
	return records, st, nil
}

// parseRow converts one data row; ok is false when the row must be skipped
func parseRow(row []string, cols map[Column]int) (models.TripRecord, bool) {
	var vals [4]float64
	for i, col := range []Column{ColOriginLon, ColOriginLat, ColDestLon, ColDestLat} {
		v, ok := parseFinite(field(row, cols[col]))
		if !ok {
			return models.TripRecord{}, false
		}
		vals[i] = v
	}

	qty, ok := parseFinite(field(row, cols[ColQuantity]))
	if !ok || qty <= 0 {
		return models.TripRecord{}, false
	}

	hour, ok := parseHour(field(row, cols[ColHour]))
	if !ok {
		return models.TripRecord{}, false
	}

	return models.TripRecord{
		OriginLon: vals[0],
		OriginLat: vals[1],
		DestLon:   vals[2],
		DestLat:   vals[3],
		Quantity:  qty,
		Hour:      hour,
	}, true
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseFinite(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseHour accepts "7", "07", "7.0" and "07:30" style values.
// Fractional hours are rejected rather than truncated.
func parseHour(s string) (int, bool) {
	if i := strings.IndexByte(s, ':'); i > 0 {
		s = s[:i]
	}
	v, ok := parseFinite(s)
	if !ok || v != math.Trunc(v) || v < 0 || v >= models.HoursPerDay {
		return 0, false
	}
	return int(v), true
}

// detectDelimiter picks the most frequent candidate delimiter in the header line
func detectDelimiter(header string) rune {
	best, bestCount := ',', 0
	for _, c := range []rune{',', ';', '\t', '|'} {
		if n := strings.Count(header, string(c)); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}

func nonEmptyLines(data []byte) []string {
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func isBlankRow(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

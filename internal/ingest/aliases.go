package ingest

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Column is a logical input field
type Column string

// Logical columns of an OD input file
const (
	ColOriginLon Column = "origin_lon"
	ColOriginLat Column = "origin_lat"
	ColDestLon   Column = "dest_lon"
	ColDestLat   Column = "dest_lat"
	ColQuantity  Column = "quantity"
	ColHour      Column = "hour"
)

// RequiredColumns lists every column a header must resolve, in resolution order
var RequiredColumns = []Column{ColOriginLon, ColOriginLat, ColDestLon, ColDestLat, ColQuantity, ColHour}

// Aliases maps each logical column to accepted header names, first match wins
type Aliases map[Column][]string

// DefaultAliases returns the built-in header aliases (English and Chinese exports)
func DefaultAliases() Aliases {
	return Aliases{
		ColOriginLon: {"origin_lon", "o_lon", "o_lng", "olon", "olng", "start_lon", "start_lng", "from_lon", "起点经度", "出发经度"},
		ColOriginLat: {"origin_lat", "o_lat", "olat", "start_lat", "from_lat", "起点纬度", "出发纬度"},
		ColDestLon:   {"dest_lon", "destination_lon", "d_lon", "d_lng", "dlon", "dlng", "end_lon", "end_lng", "to_lon", "终点经度", "到达经度"},
		ColDestLat:   {"dest_lat", "destination_lat", "d_lat", "dlat", "end_lat", "to_lat", "终点纬度", "到达纬度"},
		ColQuantity:  {"quantity", "count", "qty", "trips", "volume", "flow", "人数", "数量", "客流量"},
		ColHour:      {"hour", "hour_of_day", "hr", "start_hour", "时段", "小时"},
	}
}

// aliasFile is the on-disk TOML layout:
//
//	[aliases]
//	origin_lon = ["lon_o", "O_LNG"]
type aliasFile struct {
	Aliases map[string][]string `toml:"aliases"`
}

// LoadAliases reads a TOML alias file and merges it over the defaults.
// Aliases from the file take precedence over the built-in ones for the same column.
func LoadAliases(path string) (Aliases, error) {
	aliases := DefaultAliases()
	if path == "" {
		return aliases, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read alias file %s: %w", path, err)
	}

	var file aliasFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse alias file %s: %w", path, err)
	}

	for name, names := range file.Aliases {
		col := Column(strings.ToLower(strings.TrimSpace(name)))
		if !isKnownColumn(col) {
			return nil, fmt.Errorf("alias file %s: unknown column %q", path, name)
		}
		aliases[col] = append(append([]string{}, names...), aliases[col]...)
	}

	return aliases, nil
}

func isKnownColumn(col Column) bool {
	for _, c := range RequiredColumns {
		if c == col {
			return true
		}
	}
	return false
}

// normalizeHeader folds a header cell for alias comparison
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ToLower(strings.TrimSpace(h))
}

// resolveColumns maps every required column to its index in header
func resolveColumns(header []string, aliases Aliases) (map[Column]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if _, seen := idx[key]; !seen {
			idx[key] = i
		}
	}

	cols := make(map[Column]int, len(RequiredColumns))
	for _, col := range RequiredColumns {
		found := false
		for _, alias := range aliases[col] {
			if i, ok := idx[normalizeHeader(alias)]; ok {
				cols[col] = i
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %s (tried %s)", ErrMissingColumn, col, strings.Join(aliases[col], ", "))
		}
	}
	return cols, nil
}

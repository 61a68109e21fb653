package domain

import (
	"fmt"
	"sort"
)

// ResultRow pairs one polygon record with its statistic vector. Row position
// keys the two 1:1; no identifier join happens inside the core.
type ResultRow struct {
	Record PolygonRecord
	Stats  ZonalResult
}

// ResultTable is the assembled batch output: one row per input polygon, input
// order preserved, attribute columns first, then the statistic columns.
type ResultTable struct {
	Rows []ResultRow

	// AttributeColumns is the union of attribute columns in ingestion order.
	AttributeColumns []string
	// StatisticColumns is StatColumns with any collision-renamed entries.
	StatisticColumns []string

	// renamed maps a disambiguated statistic column back to its base name.
	renamed map[string]string
}

// BuildTable assembles the result table from parallel record and result
// slices. Statistic columns never overwrite a pre-existing attribute column of
// the same name: on collision the statistic takes a "_zonal" suffix and a
// warning is returned, since silently shadowing raw data would corrupt
// traceability. Panics only on mismatched slice lengths, which is a
// programming error in the engine.
func BuildTable(records []PolygonRecord, results []ZonalResult) (*ResultTable, []string) {
	if len(records) != len(results) {
		panic(fmt.Sprintf("BuildTable: %d records but %d results", len(records), len(results)))
	}

	t := &ResultTable{
		Rows:    make([]ResultRow, len(records)),
		renamed: make(map[string]string),
	}

	seen := make(map[string]struct{})
	for i, rec := range records {
		t.Rows[i] = ResultRow{Record: rec, Stats: results[i]}
		for _, c := range rec.Columns {
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				t.AttributeColumns = append(t.AttributeColumns, c)
			}
		}
	}

	var warnings []string
	for _, base := range StatColumns {
		name := base
		if _, taken := seen[base]; taken {
			name = base + "_zonal"
			t.renamed[name] = base
			warnings = append(warnings,
				fmt.Sprintf("attribute column %q collides with a statistic; statistic exported as %q", base, name))
		}
		t.StatisticColumns = append(t.StatisticColumns, name)
	}
	return t, warnings
}

// StatBase resolves a (possibly collision-renamed) statistic column to its
// base name, e.g. "mean_zonal" -> "mean". Unknown columns map to themselves.
func (t *ResultTable) StatBase(column string) string {
	if base, ok := t.renamed[column]; ok {
		return base
	}
	return column
}

// StatValue reads one statistic cell by (row, exported column name).
// False means undefined or unknown column.
func (t *ResultTable) StatValue(row int, column string) (float64, bool) {
	if row < 0 || row >= len(t.Rows) {
		return 0, false
	}
	return t.Rows[row].Stats.Stat(t.StatBase(column))
}

// nameColumnCandidates mirrors the name-column detection of the historical
// dashboard: district name under its common spellings, already lowercased.
var nameColumnCandidates = []string{"distrito", "district", "nombdist", "name"}

// NameColumn picks the attribute column used to label rows in rankings:
// the first known district-name candidate, else the first attribute column.
func (t *ResultTable) NameColumn() string {
	for _, cand := range nameColumnCandidates {
		for _, c := range t.AttributeColumns {
			if c == cand {
				return c
			}
		}
	}
	if len(t.AttributeColumns) > 0 {
		return t.AttributeColumns[0]
	}
	return ""
}

// RankEntry is one row of a coldest/warmest ranking.
type RankEntry struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Mean  float64  `json:"mean"`
	PLow  *float64 `json:"p10,omitempty"`
	PHigh *float64 `json:"p90,omitempty"`
}

// RankByMean returns the n rows with the lowest (coldest=true) or highest
// mean. Rows with an undefined mean are excluded: undefined is not a value
// and must never rank as one. Ties keep input order.
func (t *ResultTable) RankByMean(n int, coldest bool) []RankEntry {
	nameCol := t.NameColumn()

	type candidate struct {
		idx  int
		mean float64
	}
	var cands []candidate
	for i, row := range t.Rows {
		if row.Stats.Mean == nil {
			continue
		}
		cands = append(cands, candidate{idx: i, mean: *row.Stats.Mean})
	}

	sort.SliceStable(cands, func(i, j int) bool {
		if coldest {
			return cands[i].mean < cands[j].mean
		}
		return cands[i].mean > cands[j].mean
	})
	if n > len(cands) {
		n = len(cands)
	}

	entries := make([]RankEntry, 0, n)
	for _, c := range cands[:n] {
		row := t.Rows[c.idx]
		entries = append(entries, RankEntry{
			ID:    row.Record.ID,
			Name:  row.Record.Attributes[nameCol],
			Mean:  c.mean,
			PLow:  row.Stats.PLow,
			PHigh: row.Stats.PHigh,
		})
	}
	return entries
}

// AttributeTable is an independently supplied attribute CSV, keyed by a
// zero-padded identifier column. Joining it onto the polygon records is an
// optional pre-step, not part of the zonal computation.
type AttributeTable struct {
	IDColumn string
	Columns  []string
	Rows     map[string]map[string]string
}

// JoinAttributes merges an attribute table onto the records by zero-padded ID
// and returns the updated records plus the number of matched rows. Existing
// attribute columns win; only new columns are appended, so raw vector
// attributes are never silently replaced.
func JoinAttributes(records []PolygonRecord, attrs *AttributeTable, padWidth int) ([]PolygonRecord, int) {
	if attrs == nil {
		return records, 0
	}

	matched := 0
	out := make([]PolygonRecord, len(records))
	for i, rec := range records {
		out[i] = rec
		extra, ok := attrs.Rows[PadID(rec.ID, padWidth)]
		if !ok {
			continue
		}
		matched++

		merged := make(map[string]string, len(rec.Attributes)+len(extra))
		for k, v := range rec.Attributes {
			merged[k] = v
		}
		cols := append([]string(nil), rec.Columns...)
		for _, c := range attrs.Columns {
			if c == attrs.IDColumn {
				continue
			}
			if _, exists := merged[c]; exists {
				continue
			}
			merged[c] = extra[c]
			cols = append(cols, c)
		}
		out[i].Attributes = merged
		out[i].Columns = cols
	}
	return out, matched
}

// HistogramBin is one bin of a value distribution, [Low, High) except the
// last bin which includes its upper edge.
type HistogramBin struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

// Histogram bins values into equal-width intervals across [min, max].
// Returns nil for empty input or bins < 1. A constant-valued input yields a
// single bin holding everything.
func Histogram(values []float64, bins int) []HistogramBin {
	if len(values) == 0 || bins < 1 {
		return nil
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		return []HistogramBin{{Low: lo, High: hi, Count: len(values)}}
	}

	width := (hi - lo) / float64(bins)
	out := make([]HistogramBin, bins)
	for i := range out {
		out[i].Low = lo + float64(i)*width
		out[i].High = lo + float64(i+1)*width
	}
	out[bins-1].High = hi

	for _, v := range values {
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		out[i].Count++
	}
	return out
}

// MeanValues returns the defined mean statistics across the table, feeding
// the distribution histogram.
func (t *ResultTable) MeanValues() []float64 {
	var out []float64
	for _, row := range t.Rows {
		if row.Stats.Mean != nil {
			out = append(out, *row.Stats.Mean)
		}
	}
	return out
}

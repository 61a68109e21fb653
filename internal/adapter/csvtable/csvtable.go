// Package csvtable serializes the result table to CSV and reads external
// attribute tables.
package csvtable

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/andesclim/tmin-zonal/internal/domain"
)

// Write serializes the table as CSV: one row per polygon in input order,
// attribute columns first (ingestion order), then the statistic columns.
// Undefined statistics are empty cells, never zeros. Floats use the shortest
// round-trip form; rounding is left to whoever displays the file.
func Write(w io.Writer, table *domain.ResultTable) error {
	cw := csv.NewWriter(w)

	headers := append(append([]string{}, table.AttributeColumns...), table.StatisticColumns...)
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	line := make([]string, 0, len(headers))
	for i, row := range table.Rows {
		line = line[:0]
		for _, col := range table.AttributeColumns {
			line = append(line, row.Record.Attributes[col])
		}
		for _, col := range table.StatisticColumns {
			line = append(line, statCell(table, i, col))
		}
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func statCell(table *domain.ResultTable, row int, col string) string {
	v, ok := table.StatValue(row, col)
	if !ok {
		return ""
	}
	switch table.StatBase(col) {
	case "count", "frost_pixels":
		return strconv.Itoa(int(v))
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ReadAttributes loads an attribute table keyed by a zero-padded identifier
// column. The delimiter is detected once, explicitly: when the header parses
// to a single comma-column containing tabs, the file is re-read tab-separated
// and the decision is logged. Column names are normalized to lowercase.
func ReadAttributes(path, idColumn string, padWidth int, logger *slog.Logger) (*domain.AttributeTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read attribute table: %w", err)
	}

	sep := detectDelimiter(data)
	if sep == '\t' {
		logger.Info("attribute table is tab-separated", "path", path)
	}

	r := csv.NewReader(strings.NewReader(string(data)))
	r.Comma = sep
	r.FieldsPerRecord = -1 // ragged rows are skipped below, not fatal
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse attribute table %s: %w", path, err)
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("attribute table %s is empty", path)
	}

	columns := make([]string, len(rows[0]))
	idIdx := -1
	idColumn = domain.NormalizeColumnName(idColumn)
	for i, c := range rows[0] {
		columns[i] = domain.NormalizeColumnName(c)
		if columns[i] == idColumn {
			idIdx = i
		}
	}
	if idIdx < 0 {
		return nil, fmt.Errorf("attribute table %s has no %q column", path, idColumn)
	}

	t := &domain.AttributeTable{
		IDColumn: idColumn,
		Columns:  columns,
		Rows:     make(map[string]map[string]string, len(rows)-1),
	}
	for _, row := range rows[1:] {
		if len(row) != len(columns) {
			continue
		}
		attrs := make(map[string]string, len(columns))
		for i, c := range columns {
			attrs[c] = row[i]
		}
		t.Rows[domain.PadID(row[idIdx], padWidth)] = attrs
	}
	return t, nil
}

// detectDelimiter inspects the first line: a header without commas but with
// tabs means tab-separated. Comma wins otherwise.
func detectDelimiter(data []byte) rune {
	line, _, _ := strings.Cut(string(data), "\n")
	if !strings.Contains(line, ",") && strings.Contains(line, "\t") {
		return '\t'
	}
	return ','
}

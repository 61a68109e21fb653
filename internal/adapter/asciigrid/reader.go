// Package asciigrid reads ESRI ASCII grid (.asc) rasters into the domain
// grid type.
//
// The format is a six-line header (ncols, nrows, xllcorner/xllcenter,
// yllcorner/yllcenter, cellsize, optional nodata_value) followed by
// whitespace-separated cell values, first data row northernmost. No pure-Go library in the ecosystem
// reads it, so parsing is hand-rolled over bufio.
package asciigrid

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/andesclim/tmin-zonal/internal/domain"
)

// Read opens and parses an ASCII grid. crs declares the raster's coordinate
// reference system, which the format itself does not carry. Any malformed
// header, short grid, or unparsable cell is a hard failure: a half-read
// raster would silently skew every statistic.
func Read(path, crs string) (*domain.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open raster: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	header, firstData, err := readHeader(sc, path)
	if err != nil {
		return nil, err
	}

	cells := make([][]float64, header.nrows)
	for i := range cells {
		cells[i] = make([]float64, 0, header.ncols)
	}

	row := 0
	fill := func(fields []string) error {
		for _, tok := range fields {
			for row < header.nrows && len(cells[row]) == header.ncols {
				row++
			}
			if row == header.nrows {
				return fmt.Errorf("raster %s: more cells than ncols*nrows", path)
			}
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return fmt.Errorf("raster %s row %d: bad cell %q", path, row, tok)
			}
			cells[row] = append(cells[row], v)
		}
		return nil
	}

	if err := fill(firstData); err != nil {
		return nil, err
	}
	for sc.Scan() {
		if err := fill(strings.Fields(sc.Text())); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read raster %s: %w", path, err)
	}
	for i, r := range cells {
		if len(r) != header.ncols {
			return nil, fmt.Errorf("raster %s row %d: %d cells, want %d", path, i, len(r), header.ncols)
		}
	}

	// Header origin is the lower-left corner; Grid wants the upper-left.
	originY := header.yll + float64(header.nrows)*header.cellsize
	return domain.NewGrid(cells, header.xll, originY, header.cellsize, crs, header.noData)
}

type header struct {
	ncols, nrows int
	xll, yll     float64
	cellsize     float64
	noData       *float64

	// xllcenter/yllcenter place the origin at the corner cell's center
	// instead of its corner; normalized away once cellsize is known.
	xCenter, yCenter bool
}

// readHeader consumes "key value" lines until the first data line, which it
// returns tokenized so no input is lost. Keys are case-insensitive.
func readHeader(sc *bufio.Scanner, path string) (header, []string, error) {
	h := header{ncols: -1, nrows: -1, cellsize: -1}
	seenXLL, seenYLL := false, false

	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		key := strings.ToLower(fields[0])

		var dst *float64
		switch key {
		case "ncols", "nrows":
			if len(fields) != 2 {
				return h, nil, fmt.Errorf("raster %s: malformed header line %q", path, sc.Text())
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil || n <= 0 {
				return h, nil, fmt.Errorf("raster %s: bad %s %q", path, key, fields[1])
			}
			if key == "ncols" {
				h.ncols = n
			} else {
				h.nrows = n
			}
			continue
		case "xllcorner":
			dst, seenXLL = &h.xll, true
		case "xllcenter":
			dst, seenXLL = &h.xll, true
			h.xCenter = true
		case "yllcorner":
			dst, seenYLL = &h.yll, true
		case "yllcenter":
			dst, seenYLL = &h.yll, true
			h.yCenter = true
		case "cellsize":
			dst = &h.cellsize
		case "nodata_value":
			h.noData = new(float64)
			dst = h.noData
		default:
			// First non-header line starts the data block.
			if err := headerComplete(h, seenXLL, seenYLL, path); err != nil {
				return h, nil, err
			}
			if h.xCenter {
				h.xll -= h.cellsize / 2
			}
			if h.yCenter {
				h.yll -= h.cellsize / 2
			}
			return h, fields, nil
		}

		if len(fields) != 2 {
			return h, nil, fmt.Errorf("raster %s: malformed header line %q", path, sc.Text())
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return h, nil, fmt.Errorf("raster %s: bad %s %q", path, key, fields[1])
		}
		*dst = v
	}
	if err := sc.Err(); err != nil {
		return h, nil, fmt.Errorf("read raster %s: %w", path, err)
	}
	return h, nil, fmt.Errorf("raster %s: no data after header", path)
}

func headerComplete(h header, seenXLL, seenYLL bool, path string) error {
	switch {
	case h.ncols <= 0 || h.nrows <= 0:
		return fmt.Errorf("raster %s: header missing ncols/nrows", path)
	case !seenXLL || !seenYLL:
		return fmt.Errorf("raster %s: header missing xllcorner/yllcorner", path)
	case h.cellsize <= 0:
		return fmt.Errorf("raster %s: header missing or non-positive cellsize", path)
	}
	return nil
}

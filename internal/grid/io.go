// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 19th 2026
// Project: Spatial-Temporal Trends in Extreme Rainfall and Compound Flood Risk
// Class: 02-613 at Caregie Mellon University

package grid

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/mat"
)

// LoadGridCSV reads a "lon,lat" CSV (header required) into a Grid.
func LoadGridCSV(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "grid: open %s", path)
	}
	defer f.Close()
	return ReadGrid(f)
}

// ReadGrid parses grid rows from r. Column order is taken from the header so
// "lat,lon" files also work.
func ReadGrid(r io.Reader) (*Grid, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, eris.Wrap(err, "grid: read header")
	}
	lonCol, latCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "lon", "longitude":
			lonCol = i
		case "lat", "latitude":
			latCol = i
		}
	}
	if lonCol < 0 || latCol < 0 {
		return nil, eris.Errorf("grid: header %v lacks lon/lat columns", header)
	}

	var lons, lats []float64
	row := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "grid: read row %d", row+2) // +2 for header + 1-based
		}
		if len(record) == 1 && record[0] == "" {
			continue
		}
		lon, err := strconv.ParseFloat(record[lonCol], 64)
		if err != nil {
			return nil, eris.Wrapf(err, "grid: parse lon at row %d (%q)", row+2, record[lonCol])
		}
		lat, err := strconv.ParseFloat(record[latCol], 64)
		if err != nil {
			return nil, eris.Wrapf(err, "grid: parse lat at row %d (%q)", row+2, record[latCol])
		}
		lons = append(lons, lon)
		lats = append(lats, lat)
		row++
	}

	return New(lons, lats)
}

// LoadCountsCSV reads a count table. The first column is the year, the
// remaining columns are locations in grid order.
func LoadCountsCSV(path, name string) (*CountTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "grid: open %s", path)
	}
	defer f.Close()
	return ReadCounts(f, name)
}

// ReadCounts parses a count table from r.
func ReadCounts(r io.Reader, name string) (*CountTable, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, eris.Wrap(err, "grid: read header")
	}
	if len(header) < 2 {
		return nil, eris.Errorf("grid: count header needs a year column and at least one location, got %d columns", len(header))
	}
	nLoc := len(header) - 1

	var (
		data  []float64
		years []int
		row   int
	)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "grid: read row %d", row+2)
		}
		if len(record) == 1 && record[0] == "" {
			continue
		}
		if len(record) != nLoc+1 {
			return nil, eris.Wrapf(ErrShape, "grid: row %d: expected %d columns, got %d", row+2, nLoc+1, len(record))
		}

		year, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, eris.Wrapf(err, "grid: parse year at row %d (%q)", row+2, record[0])
		}
		years = append(years, year)

		for j, s := range record[1:] {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, eris.Wrapf(err, "grid: parse count at row %d col %d (%q)", row+2, j+2, s)
			}
			data = append(data, v)
		}
		row++
	}

	if row == 0 {
		return nil, eris.New("grid: no data rows in count table")
	}

	return NewCountTable(name, years, mat.NewDense(row, nLoc, data))
}

// WriteGrid writes g as a "lon,lat" CSV.
func WriteGrid(w io.Writer, g *Grid) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"lon", "lat"}); err != nil {
		return eris.Wrap(err, "grid: write header")
	}
	for i := 0; i < g.Len(); i++ {
		rec := []string{formatFloat(g.Lon(i)), formatFloat(g.Lat(i))}
		if err := cw.Write(rec); err != nil {
			return eris.Wrapf(err, "grid: write row %d", i)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "grid: flush")
}

// WriteCounts writes c in the layout ReadCounts expects: a year column then
// one column per location, headed loc0, loc1, ...
func WriteCounts(w io.Writer, c *CountTable) error {
	cw := csv.NewWriter(w)
	nYear, nLoc := c.Dims()

	header := make([]string, nLoc+1)
	header[0] = "year"
	for l := 0; l < nLoc; l++ {
		header[l+1] = "loc" + strconv.Itoa(l)
	}
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "grid: write header")
	}

	rec := make([]string, nLoc+1)
	for i := 0; i < nYear; i++ {
		rec[0] = strconv.Itoa(c.Years[i])
		for l := 0; l < nLoc; l++ {
			rec[l+1] = strconv.FormatFloat(c.Counts.At(i, l), 'f', 0, 64)
		}
		if err := cw.Write(rec); err != nil {
			return eris.Wrapf(err, "grid: write year %d", c.Years[i])
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "grid: flush")
}

// SaveCSV writes g and c as grid.csv and counts.csv under dir.
func SaveCSV(dir string, g *Grid, c *CountTable) error {
	if err := writeFile(filepath.Join(dir, "grid.csv"), func(w io.Writer) error { return WriteGrid(w, g) }); err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, "counts.csv"), func(w io.Writer) error { return WriteCounts(w, c) })
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "grid: create %s", path)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "grid: close %s", path)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

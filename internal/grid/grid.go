// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 19th 2026
// Project: Spatial-Temporal Trends in Extreme Rainfall and Compound Flood Risk
// Class: 02-613 at Caregie Mellon University

// Package grid holds the spatial grid of stations and the per-year event
// count tables that every model fit reads. Both are immutable once built.
package grid

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"gonum.org/v1/gonum/mat"
)

// ErrShape is returned (wrapped) whenever grid, counts and derived matrices
// disagree on their dimensions.
var ErrShape = eris.New("shape mismatch")

// Grid is an ordered set of (longitude, latitude) locations.
type Grid struct {
	points *geom.MultiPoint
}

// New builds a grid from parallel longitude and latitude slices.
func New(lons, lats []float64) (*Grid, error) {
	if len(lons) != len(lats) {
		return nil, eris.Wrapf(ErrShape, "grid: %d longitudes for %d latitudes", len(lons), len(lats))
	}
	if len(lons) == 0 {
		return nil, eris.New("grid: no locations")
	}

	flat := make([]float64, 0, 2*len(lons))
	for i := range lons {
		if math.IsNaN(lons[i]) || math.IsNaN(lats[i]) || math.IsInf(lons[i], 0) || math.IsInf(lats[i], 0) {
			return nil, eris.Errorf("grid: location %d has non-finite coordinates", i)
		}
		flat = append(flat, lons[i], lats[i])
	}

	return &Grid{points: geom.NewMultiPointFlat(geom.XY, flat)}, nil
}

// Regular builds an nx by ny lattice, longitude varying fastest.
func Regular(lonMin, lonMax float64, nx int, latMin, latMax float64, ny int) (*Grid, error) {
	if nx < 1 || ny < 1 {
		return nil, eris.Errorf("grid: invalid lattice %dx%d", nx, ny)
	}
	lons := make([]float64, 0, nx*ny)
	lats := make([]float64, 0, nx*ny)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			lons = append(lons, lerp(lonMin, lonMax, i, nx))
			lats = append(lats, lerp(latMin, latMax, j, ny))
		}
	}
	return New(lons, lats)
}

func lerp(lo, hi float64, i, n int) float64 {
	if n == 1 {
		return lo
	}
	return lo + (hi-lo)*float64(i)/float64(n-1)
}

// Len returns the number of locations.
func (g *Grid) Len() int { return g.points.NumPoints() }

// Lon returns the longitude of location i.
func (g *Grid) Lon(i int) float64 { return g.points.Coord(i).X() }

// Lat returns the latitude of location i.
func (g *Grid) Lat(i int) float64 { return g.points.Coord(i).Y() }

// Lons returns a copy of all longitudes in grid order.
func (g *Grid) Lons() []float64 {
	out := make([]float64, g.Len())
	for i := range out {
		out[i] = g.Lon(i)
	}
	return out
}

// Lats returns a copy of all latitudes in grid order.
func (g *Grid) Lats() []float64 {
	out := make([]float64, g.Len())
	for i := range out {
		out[i] = g.Lat(i)
	}
	return out
}

// Bounds returns the observed coordinate range. Knots are spread over it.
func (g *Grid) Bounds() (minLon, maxLon, minLat, maxLat float64) {
	b := g.points.Bounds()
	return b.Min(0), b.Max(0), b.Min(1), b.Max(1)
}

// Points returns a copy of the underlying geometry, e.g. for export.
func (g *Grid) Points() *geom.MultiPoint { return g.points.Clone() }

// CountTable is an n_year x n_loc matrix of event counts for one outcome.
type CountTable struct {
	Name   string
	Years  []int
	Counts *mat.Dense
}

// NewCountTable validates counts (non-negative integers, one row per year,
// strictly increasing years) and wraps them.
func NewCountTable(name string, years []int, counts *mat.Dense) (*CountTable, error) {
	if counts == nil {
		return nil, eris.New("grid: counts not provided")
	}
	r, c := counts.Dims()
	if r != len(years) {
		return nil, eris.Wrapf(ErrShape, "grid: %d count rows for %d years", r, len(years))
	}
	for i := 1; i < len(years); i++ {
		if years[i] <= years[i-1] {
			return nil, eris.Errorf("grid: years not strictly increasing at row %d (%d after %d)", i, years[i], years[i-1])
		}
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := counts.At(i, j)
			if v < 0 || math.Floor(v) != v || math.IsInf(v, 0) {
				return nil, eris.Errorf("grid: count at year %d location %d is not a non-negative integer: %v", years[i], j, v)
			}
		}
	}

	ys := make([]int, len(years))
	copy(ys, years)
	return &CountTable{Name: name, Years: ys, Counts: mat.DenseCopyOf(counts)}, nil
}

// Dims returns (n_year, n_loc).
func (c *CountTable) Dims() (int, int) { return c.Counts.Dims() }

// Times returns the time covariate per year: the offset from the first year.
func (c *CountTable) Times() []float64 {
	out := make([]float64, len(c.Years))
	for i, y := range c.Years {
		out[i] = float64(y - c.Years[0])
	}
	return out
}

// CheckGrid fails when the table's columns do not line up with g.
func (c *CountTable) CheckGrid(g *Grid) error {
	_, nLoc := c.Dims()
	if nLoc != g.Len() {
		return eris.Wrapf(ErrShape, "grid: count table %q has %d locations, grid has %d", c.Name, nLoc, g.Len())
	}
	return nil
}

// Total returns the sum of all counts.
func (c *CountTable) Total() float64 {
	return mat.Sum(c.Counts)
}

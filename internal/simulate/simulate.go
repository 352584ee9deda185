// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 19th 2026
// Project: Spatial-Temporal Trends in Extreme Rainfall and Compound Flood Risk
// Class: 02-613 at Caregie Mellon University

// Package simulate draws synthetic event-count tables from a known rate
// surface, for recovery tests and demo runs.
package simulate

import (
	"math/rand/v2"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"floodtrend/internal/grid"
)

// SurfaceFunc maps a location to a value.
type SurfaceFunc func(lon, lat float64) float64

// Constant is the same value everywhere.
func Constant(v float64) SurfaceFunc {
	return func(_, _ float64) float64 { return v }
}

// EastWest varies linearly with longitude, from west at the grid's western
// edge to east at its eastern edge.
func EastWest(g *grid.Grid, west, east float64) SurfaceFunc {
	minLon, maxLon, _, _ := g.Bounds()
	span := maxLon - minLon
	return func(lon, _ float64) float64 {
		if span == 0 {
			return west
		}
		return west + (east-west)*(lon-minLon)/span
	}
}

// Scenario is a rate model lambda(l, t) = Base(l) + Slope(l) * t, with t
// the offset from the first year.
type Scenario struct {
	Name  string
	Grid  *grid.Grid
	Years []int
	Base  SurfaceFunc
	Slope SurfaceFunc
}

// Rates evaluates the scenario as an n_year x n_loc matrix. Negative rates
// are an error.
func (s Scenario) Rates() (*mat.Dense, error) {
	if s.Grid == nil || len(s.Years) == 0 {
		return nil, eris.New("simulate: scenario needs a grid and years")
	}
	if s.Base == nil || s.Slope == nil {
		return nil, eris.New("simulate: scenario needs base and slope surfaces")
	}

	nLoc := s.Grid.Len()
	rates := mat.NewDense(len(s.Years), nLoc, nil)
	for y, year := range s.Years {
		t := float64(year - s.Years[0])
		for l := 0; l < nLoc; l++ {
			lon, lat := s.Grid.Lon(l), s.Grid.Lat(l)
			r := s.Base(lon, lat) + s.Slope(lon, lat)*t
			if r < 0 {
				return nil, eris.Errorf("simulate: negative rate %v at year %d location %d", r, year, l)
			}
			rates.Set(y, l, r)
		}
	}
	return rates, nil
}

// Sample draws one Poisson count per cell of rates. The same seed always
// gives the same table.
func Sample(name string, years []int, rates *mat.Dense, seed uint64) (*grid.CountTable, error) {
	r, c := rates.Dims()
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)

	counts := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			counts.Set(i, j, distuv.Poisson{Lambda: rates.At(i, j), Src: src}.Rand())
		}
	}
	return grid.NewCountTable(name, years, counts)
}

// Generate evaluates and samples a scenario, returning the counts and the
// true rates.
func Generate(s Scenario, seed uint64) (*grid.CountTable, *mat.Dense, error) {
	rates, err := s.Rates()
	if err != nil {
		return nil, nil, err
	}
	counts, err := Sample(s.Name, s.Years, rates, seed)
	if err != nil {
		return nil, nil, eris.Wrap(err, "simulate: sample counts")
	}
	return counts, rates, nil
}

// Years returns n consecutive years starting at first.
func Years(first, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = first + i
	}
	return out
}

// Seeds derives n replicate seeds from one master seed, so replicates can
// run on separate goroutines without sharing a generator.
func Seeds(master uint64, n int) []uint64 {
	rng := rand.New(rand.NewPCG(master, master^0x9e3779b97f4a7c15))
	seeds := make([]uint64, n)
	for i := range seeds {
		seeds[i] = rng.Uint64()
	}
	return seeds
}

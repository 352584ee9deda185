// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 19th 2026
// Project: Spatial-Temporal Trends in Extreme Rainfall and Compound Flood Risk
// Class: 02-613 at Caregie Mellon University

// Package design assembles the regression design matrix of the Poisson rate
// model from grid coordinates, the time covariate and a spline basis.
//
// Rows are year major: row y*nLoc + l holds year y at location l, matching
// the row-major flattening of a grid.CountTable.
//
// Column layouts:
//
//	Null:      [1, t]
//	Plain:     [1, lon, lat, t, t*B_1 ... t*B_k]
//	Augmented: [1, lon, lat, t, B_1 ... B_k, t*B_1 ... t*B_k]
package design

import (
	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/mat"

	"floodtrend/internal/grid"
	"floodtrend/internal/spline"
)

// Form selects which columns the design matrix carries.
type Form int

const (
	// Null is the intercept + time model.
	Null Form = iota
	// Plain has a planar intercept and a spatially varying time slope.
	Plain
	// Augmented adds a spatially varying intercept block to Plain.
	Augmented
)

func (f Form) String() string {
	switch f {
	case Null:
		return "null"
	case Plain:
		return "plain"
	case Augmented:
		return "augmented"
	default:
		return "unknown"
	}
}

// Matrix is a design matrix plus the bookkeeping needed to find parameter
// blocks in it.
type Matrix struct {
	X     *mat.Dense
	Form  Form
	Basis *spline.BasisSet

	NumLoc  int
	NumYear int

	names []string
}

// Dims returns (rows, columns).
func (m *Matrix) Dims() (int, int) { return m.X.Dims() }

// NumParams returns the number of columns.
func (m *Matrix) NumParams() int {
	_, c := m.X.Dims()
	return c
}

// Names returns a copy of the column names.
func (m *Matrix) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// TimeColumn is the index of the plain time covariate.
func (m *Matrix) TimeColumn() int {
	if m.Form == Null {
		return 1
	}
	return 3
}

// InterceptBlock returns the [start, end) columns of the spatial-intercept
// block. It is empty unless the form is Augmented.
func (m *Matrix) InterceptBlock() (int, int) {
	if m.Form != Augmented {
		return 0, 0
	}
	k := m.Basis.NumBases()
	return 4, 4 + k
}

// InteractionBlock returns the [start, end) columns of the time x basis
// block. It is empty for the null form.
func (m *Matrix) InteractionBlock() (int, int) {
	switch m.Form {
	case Plain:
		return 4, 4 + m.Basis.NumBases()
	case Augmented:
		k := m.Basis.NumBases()
		return 4 + k, 4 + 2*k
	default:
		return 0, 0
	}
}

// Build assembles the design matrix. A nil basis always yields the null
// form regardless of form.
func Build(g *grid.Grid, times []float64, basis *spline.BasisSet, form Form) (*Matrix, error) {
	if g == nil {
		return nil, eris.New("design: grid not provided")
	}
	if len(times) == 0 {
		return nil, eris.New("design: no time points")
	}
	nLoc := g.Len()
	nYear := len(times)

	if basis == nil {
		form = Null
	}

	var k int
	if form != Null {
		r, c := basis.Values.Dims()
		if r != nLoc {
			return nil, eris.Wrapf(grid.ErrShape, "design: basis has %d rows, grid has %d locations", r, nLoc)
		}
		k = c
	}

	var cols int
	switch form {
	case Null:
		cols = 2
	case Plain:
		cols = 4 + k
	case Augmented:
		cols = 4 + 2*k
	default:
		return nil, eris.Errorf("design: unknown form %d", form)
	}

	lons := g.Lons()
	lats := g.Lats()
	x := mat.NewDense(nYear*nLoc, cols, nil)
	row := make([]float64, cols)

	for y, t := range times {
		for l := 0; l < nLoc; l++ {
			row[0] = 1
			if form == Null {
				row[1] = t
				x.SetRow(y*nLoc+l, row)
				continue
			}
			row[1] = lons[l]
			row[2] = lats[l]
			row[3] = t

			col := 4
			if form == Augmented {
				for j := 0; j < k; j++ {
					row[col] = basis.Values.At(l, j)
					col++
				}
			}
			for j := 0; j < k; j++ {
				row[col] = t * basis.Values.At(l, j)
				col++
			}
			x.SetRow(y*nLoc+l, row)
		}
	}

	if form == Null {
		basis = nil
	}
	return &Matrix{
		X:       x,
		Form:    form,
		Basis:   basis,
		NumLoc:  nLoc,
		NumYear: nYear,
		names:   columnNames(form, basis),
	}, nil
}

func columnNames(form Form, basis *spline.BasisSet) []string {
	if form == Null {
		return []string{"intercept", "time"}
	}
	names := []string{"intercept", "lon", "lat", "time"}
	if form == Augmented {
		for _, l := range basis.Labels {
			names = append(names, "s:"+l)
		}
	}
	for _, l := range basis.Labels {
		names = append(names, "t:"+l)
	}
	return names
}

// ForTable builds the design matrix for a count table on g, checking that
// the table and grid agree.
func ForTable(g *grid.Grid, counts *grid.CountTable, basis *spline.BasisSet, form Form) (*Matrix, error) {
	if counts == nil {
		return nil, eris.New("design: counts not provided")
	}
	if err := counts.CheckGrid(g); err != nil {
		return nil, err
	}
	return Build(g, counts.Times(), basis, form)
}

// Target flattens a count table year major so it lines up with design rows.
func Target(counts *grid.CountTable) *mat.VecDense {
	r, c := counts.Dims()
	y := mat.NewVecDense(r*c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			y.SetVec(i*c+j, counts.Counts.At(i, j))
		}
	}
	return y
}

// Reshape turns a year-major vector back into an n_year x n_loc matrix.
func Reshape(v mat.Vector, nYear, nLoc int) (*mat.Dense, error) {
	if v.Len() != nYear*nLoc {
		return nil, eris.Wrapf(grid.ErrShape, "design: vector of length %d cannot be %dx%d", v.Len(), nYear, nLoc)
	}
	out := mat.NewDense(nYear, nLoc, nil)
	for i := 0; i < nYear; i++ {
		for j := 0; j < nLoc; j++ {
			out.Set(i, j, v.AtVec(i*nLoc+j))
		}
	}
	return out, nil
}

// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 19th 2026
// Project: Spatial-Temporal Trends in Extreme Rainfall and Compound Flood Risk
// Class: 02-613 at Caregie Mellon University

package grid

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNew(t *testing.T) {
	t.Run("bounds follow observed coordinates", func(t *testing.T) {
		g, err := New([]float64{-100, -90, -95}, []float64{30, 40, 35})
		require.NoError(t, err)

		minLon, maxLon, minLat, maxLat := g.Bounds()
		assert.Equal(t, -100.0, minLon)
		assert.Equal(t, -90.0, maxLon)
		assert.Equal(t, 30.0, minLat)
		assert.Equal(t, 40.0, maxLat)
		assert.Equal(t, 3, g.Len())
		assert.Equal(t, -95.0, g.Lon(2))
		assert.Equal(t, 35.0, g.Lat(2))
	})

	t.Run("mismatched lengths", func(t *testing.T) {
		_, err := New([]float64{1, 2}, []float64{1})
		require.Error(t, err)
		assert.True(t, eris.Is(err, ErrShape))
	})

	t.Run("empty grid", func(t *testing.T) {
		_, err := New(nil, nil)
		require.Error(t, err)
	})
}

func TestRegular(t *testing.T) {
	g, err := Regular(0, 2, 3, 10, 12, 3)
	require.NoError(t, err)
	require.Equal(t, 9, g.Len())

	assert.Equal(t, []float64{0, 1, 2, 0, 1, 2, 0, 1, 2}, g.Lons())
	assert.Equal(t, []float64{10, 10, 10, 11, 11, 11, 12, 12, 12}, g.Lats())
}

func TestNewCountTable(t *testing.T) {
	t.Run("valid table", func(t *testing.T) {
		ct, err := NewCountTable("precip", []int{2000, 2001, 2003}, mat.NewDense(3, 2, []float64{0, 1, 2, 3, 4, 5}))
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 1, 3}, ct.Times())
		assert.Equal(t, 15.0, ct.Total())
	})

	t.Run("negative count", func(t *testing.T) {
		_, err := NewCountTable("precip", []int{2000}, mat.NewDense(1, 2, []float64{-1, 1}))
		require.Error(t, err)
	})

	t.Run("fractional count", func(t *testing.T) {
		_, err := NewCountTable("precip", []int{2000}, mat.NewDense(1, 2, []float64{0.5, 1}))
		require.Error(t, err)
	})

	t.Run("year mismatch", func(t *testing.T) {
		_, err := NewCountTable("precip", []int{2000, 2001}, mat.NewDense(1, 2, []float64{0, 1}))
		require.Error(t, err)
		assert.True(t, eris.Is(err, ErrShape))
	})

	t.Run("unsorted years", func(t *testing.T) {
		_, err := NewCountTable("precip", []int{2001, 2000}, mat.NewDense(2, 1, []float64{0, 1}))
		require.Error(t, err)
	})
}

func TestCheckGrid(t *testing.T) {
	g, err := Regular(0, 1, 2, 0, 1, 2)
	require.NoError(t, err)

	ok, err := NewCountTable("flood", []int{1990}, mat.NewDense(1, 4, []float64{1, 2, 3, 4}))
	require.NoError(t, err)
	assert.NoError(t, ok.CheckGrid(g))

	bad, err := NewCountTable("flood", []int{1990}, mat.NewDense(1, 3, []float64{1, 2, 3}))
	require.NoError(t, err)
	err = bad.CheckGrid(g)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrShape))
}

func TestReadGrid(t *testing.T) {
	t.Run("lat before lon", func(t *testing.T) {
		g, err := ReadGrid(strings.NewReader("lat,lon\n30.5,-97.25\n31,-96\n"))
		require.NoError(t, err)
		assert.Equal(t, []float64{-97.25, -96}, g.Lons())
		assert.Equal(t, []float64{30.5, 31}, g.Lats())
	})

	t.Run("missing columns", func(t *testing.T) {
		_, err := ReadGrid(strings.NewReader("x,y\n1,2\n"))
		require.Error(t, err)
	})

	t.Run("bad number", func(t *testing.T) {
		_, err := ReadGrid(strings.NewReader("lon,lat\nabc,2\n"))
		require.Error(t, err)
	})
}

func TestReadCounts(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		ct, err := ReadCounts(strings.NewReader("year,s0,s1\n1990,1,0\n1991,2,3\n"), "precip")
		require.NoError(t, err)
		assert.Equal(t, []int{1990, 1991}, ct.Years)
		r, c := ct.Dims()
		assert.Equal(t, 2, r)
		assert.Equal(t, 2, c)
		assert.Equal(t, 3.0, ct.Counts.At(1, 1))
		assert.Equal(t, "precip", ct.Name)
	})

	t.Run("ragged row", func(t *testing.T) {
		_, err := ReadCounts(strings.NewReader("year,s0,s1\n1990,1\n"), "precip")
		require.Error(t, err)
	})

	t.Run("no rows", func(t *testing.T) {
		_, err := ReadCounts(strings.NewReader("year,s0\n"), "precip")
		require.Error(t, err)
	})
}

func TestWriteRoundTrip(t *testing.T) {
	g, err := New([]float64{-97.25, -96}, []float64{30.5, 31})
	require.NoError(t, err)
	ct, err := NewCountTable("flood", []int{2001, 2002}, mat.NewDense(2, 2, []float64{0, 4, 7, 1}))
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, SaveCSV(dir, g, ct))

	g2, err := LoadGridCSV(filepath.Join(dir, "grid.csv"))
	require.NoError(t, err)
	assert.Equal(t, g.Lons(), g2.Lons())
	assert.Equal(t, g.Lats(), g2.Lats())

	ct2, err := LoadCountsCSV(filepath.Join(dir, "counts.csv"), "flood")
	require.NoError(t, err)
	assert.Equal(t, ct.Years, ct2.Years)
	assert.True(t, mat.Equal(ct.Counts, ct2.Counts))
}

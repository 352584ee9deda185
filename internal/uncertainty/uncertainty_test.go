// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 19th 2026
// Project: Spatial-Temporal Trends in Extreme Rainfall and Compound Flood Risk
// Class: 02-613 at Caregie Mellon University

package uncertainty

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"floodtrend/internal/design"
	"floodtrend/internal/grid"
	"floodtrend/internal/poisson"
	"floodtrend/internal/spline"
)

func TestPseudoInverse(t *testing.T) {
	t.Run("invertible matrix", func(t *testing.T) {
		a := mat.NewDense(2, 2, []float64{4, 7, 2, 6})
		p, err := PseudoInverse(a)
		require.NoError(t, err)

		want := mat.NewDense(2, 2, []float64{0.6, -0.7, -0.2, 0.4})
		assert.True(t, mat.EqualApprox(want, p, 1e-12))
	})

	t.Run("singular matrix", func(t *testing.T) {
		a := mat.NewDense(2, 2, []float64{1, 1, 1, 1})
		p, err := PseudoInverse(a)
		require.NoError(t, err)

		want := mat.NewDense(2, 2, []float64{0.25, 0.25, 0.25, 0.25})
		assert.True(t, mat.EqualApprox(want, p, 1e-12))
	})

	t.Run("rectangular matrix satisfies A A+ A = A", func(t *testing.T) {
		a := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
		p, err := PseudoInverse(a)
		require.NoError(t, err)
		r, c := p.Dims()
		require.Equal(t, 2, r)
		require.Equal(t, 3, c)

		var back mat.Dense
		back.Product(a, p, a)
		assert.True(t, mat.EqualApprox(a, &back, 1e-10))
	})

	t.Run("zero matrix", func(t *testing.T) {
		p, err := PseudoInverse(mat.NewDense(2, 3, nil))
		require.NoError(t, err)
		r, c := p.Dims()
		assert.Equal(t, 3, r)
		assert.Equal(t, 2, c)
		assert.Equal(t, 0.0, mat.Sum(p))
	})
}

func TestGeneralizedCholesky(t *testing.T) {
	t.Run("positive definite input is not perturbed", func(t *testing.T) {
		a := mat.NewSymDense(3, []float64{
			4, 2, 0.4,
			2, 5, 1,
			0.4, 1, 3,
		})
		l, d, e := GeneralizedCholesky(a)
		for _, v := range e {
			assert.InDelta(t, 0, v, 1e-12)
		}
		assert.True(t, mat.EqualApprox(a, reconstruct(l, d), 1e-12))
	})

	t.Run("indefinite input", func(t *testing.T) {
		a := mat.NewSymDense(2, []float64{1, 2, 2, 1})
		l, d, e := GeneralizedCholesky(a)

		for j := range d {
			assert.Greater(t, d[j], 0.0)
			assert.GreaterOrEqual(t, e[j], 0.0)
			assert.Equal(t, 1.0, l.At(j, j))
		}

		perturbed := mat.NewSymDense(2, nil)
		perturbed.CopySym(a)
		for j := range e {
			perturbed.SetSym(j, j, a.At(j, j)+e[j])
		}
		assert.True(t, mat.EqualApprox(perturbed, reconstruct(l, d), 1e-12))
	})

	t.Run("zero matrix", func(t *testing.T) {
		_, d, _ := GeneralizedCholesky(mat.NewSymDense(3, nil))
		for _, v := range d {
			assert.Greater(t, v, 0.0)
			assert.False(t, math.IsNaN(v))
		}
	})
}

func assertPSD(t *testing.T, s *mat.SymDense) {
	t.Helper()
	n := s.SymmetricDim()
	for i := 0; i < n; i++ {
		assert.GreaterOrEqual(t, s.At(i, i), 0.0)
		for j := 0; j < n; j++ {
			assert.Equal(t, s.At(i, j), s.At(j, i))
		}
	}
	var eig mat.EigenSym
	require.True(t, eig.Factorize(s, false))
	for _, v := range eig.Values(nil) {
		assert.GreaterOrEqual(t, v, -1e-12)
	}
}

func TestCovariance(t *testing.T) {
	t.Run("regular Hessian inverts", func(t *testing.T) {
		h := mat.NewSymDense(2, []float64{-2, 0, 0, -4})
		cov, warnings := Covariance(h)
		assert.Empty(t, warnings)
		assert.InDelta(t, 0.5, cov.At(0, 0), 1e-12)
		assert.InDelta(t, 0.25, cov.At(1, 1), 1e-12)
		assert.InDelta(t, 0, cov.At(0, 1), 1e-12)
	})

	t.Run("collinear columns still give a PSD matrix", func(t *testing.T) {
		// two identical design columns make the Hessian rank one
		x := mat.NewDense(4, 3, []float64{
			1, 0.5, 0.5,
			1, 1, 1,
			1, 2, 2,
			1, 3, 3,
		})
		y := mat.NewVecDense(4, []float64{2, 3, 4, 6})
		h := poisson.Hessian([]float64{1, 0.5, 0.5}, x, y)

		cov, _ := Covariance(h)
		assertPSD(t, cov)
	})

	t.Run("zero Hessian flags every parameter", func(t *testing.T) {
		cov, warnings := Covariance(mat.NewSymDense(3, nil))
		require.Len(t, warnings, 3)
		for i, w := range warnings {
			assert.Equal(t, i, w.Index)
			assert.Equal(t, ReasonUnidentifiable, w.Reason)
		}
		assert.Equal(t, 0.0, mat.Sum(cov))
	})
}

func TestWaldRow(t *testing.T) {
	z := 1.959963984540054

	t.Run("interval and p-value", func(t *testing.T) {
		r := waldRow("time", 2, 1, z)
		assert.InDelta(t, 1, r.StdErr, 1e-12)
		assert.InDelta(t, 2, r.Z, 1e-12)
		assert.InDelta(t, 0.0455, r.PValue, 1e-4)
		assert.InDelta(t, 2-z, r.Lower, 1e-12)
		assert.True(t, r.Significant)
	})

	t.Run("interval straddling zero", func(t *testing.T) {
		r := waldRow("lon", 0.5, 1, z)
		assert.False(t, r.Significant)
		assert.Greater(t, r.PValue, 0.5)
	})

	t.Run("zero standard error", func(t *testing.T) {
		r := waldRow("b", 0, 0, z)
		assert.Equal(t, 1.0, r.PValue)
		assert.False(t, r.Significant)

		r = waldRow("b", -1, 0, z)
		assert.Equal(t, 0.0, r.PValue)
		assert.True(t, math.IsInf(r.Z, -1))
		assert.True(t, r.Significant)
	})
}

func TestMSE(t *testing.T) {
	x := mat.NewDense(3, 1, []float64{1, 1, 1})
	y := mat.NewVecDense(3, []float64{1, 2, 3})
	assert.InDelta(t, 2.0/3, MSE([]float64{2}, x, y), 1e-12)
}

func TestEstimate(t *testing.T) {
	g, err := grid.Regular(0, 1, 3, 0, 1, 3)
	require.NoError(t, err)
	times := []float64{0, 1, 2, 3, 4, 5}

	t.Run("null form has no surface", func(t *testing.T) {
		x, err := design.Build(g, times, nil, design.Null)
		require.NoError(t, err)

		rows, _ := x.Dims()
		y := mat.NewVecDense(rows, nil)
		params := []float64{3, 0.5}
		lambda := poisson.Rates(params, x.X)
		for i := 0; i < rows; i++ {
			y.SetVec(i, math.Round(lambda.AtVec(i)))
		}

		rep, err := Estimate(params, poisson.Hessian(params, x.X, y), x, y, g.Lons(), g.Lats(), Options{})
		require.NoError(t, err)

		assert.Equal(t, DefaultAlpha, rep.Alpha)
		require.Len(t, rep.Params, 2)
		assert.Equal(t, "intercept", rep.Params[0].Name)
		assert.Empty(t, rep.Surface)
		assert.Empty(t, rep.Warnings)
		assert.True(t, rep.Params[1].Significant)
		for _, r := range rep.Params {
			assert.LessOrEqual(t, r.Lower, r.Estimate)
			assert.GreaterOrEqual(t, r.Upper, r.Estimate)
			assert.Greater(t, r.StdErr, 0.0)
		}
		assert.Less(t, rep.MSE, 0.25+1e-12)
	})

	t.Run("plain form propagates to the surface", func(t *testing.T) {
		b, err := spline.NewBasisSet(g, spline.Hyper{KnotsLon: 2, KnotsLat: 2, Order: 2})
		require.NoError(t, err)
		x, err := design.Build(g, times, b, design.Plain)
		require.NoError(t, err)

		rows, cols := x.Dims()
		params := make([]float64, cols)
		params[0] = 5
		params[4] = 0.3
		y := mat.NewVecDense(rows, nil)
		lambda := poisson.Rates(params, x.X)
		for i := 0; i < rows; i++ {
			y.SetVec(i, math.Round(lambda.AtVec(i)))
		}

		rep, err := Estimate(params, poisson.Hessian(params, x.X, y), x, y, g.Lons(), g.Lats(), Options{Alpha: 0.1})
		require.NoError(t, err)
		require.Len(t, rep.Surface, g.Len())
		assertPSD(t, rep.Covariance)

		// location 0 sits on the b0_0 corner where the basis is exactly 1
		assert.InDelta(t, 0.3, rep.Surface[0].Estimate, 1e-12)
		assert.InDelta(t, 0.0, rep.Surface[8].Estimate, 1e-12)
		assert.Equal(t, 1.0, rep.Surface[8].Lon)
		for _, s := range rep.Surface {
			assert.GreaterOrEqual(t, s.StdErr, 0.0)
		}
		assert.LessOrEqual(t, rep.NumSignificant(), g.Len())
	})

	t.Run("bad inputs", func(t *testing.T) {
		x, err := design.Build(g, times, nil, design.Null)
		require.NoError(t, err)
		rows, _ := x.Dims()
		y := mat.NewVecDense(rows, nil)
		h := mat.NewSymDense(2, nil)

		_, err = Estimate([]float64{1}, h, x, y, nil, nil, Options{})
		assert.Error(t, err)
		_, err = Estimate([]float64{1, 0}, mat.NewSymDense(3, nil), x, y, nil, nil, Options{})
		assert.Error(t, err)
		_, err = Estimate([]float64{1, 0}, h, x, y, nil, nil, Options{Alpha: 2})
		assert.Error(t, err)
		_, err = Estimate([]float64{1, 0}, h, x, mat.NewVecDense(3, nil), nil, nil, Options{})
		assert.Error(t, err)
	})
}

// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 19th 2026
// Project: Spatial-Temporal Trends in Extreme Rainfall and Compound Flood Risk
// Class: 02-613 at Caregie Mellon University

package poisson

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// intercept + time design over t = 0..n-1
func trendDesign(n int) *mat.Dense {
	x := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
		x.Set(i, 1, float64(i))
	}
	return x
}

func TestLogLik(t *testing.T) {
	t.Run("single observation", func(t *testing.T) {
		x := mat.NewDense(1, 1, []float64{1})
		y := mat.NewVecDense(1, []float64{3})

		want := -2 + 3*math.Log(2) - math.Log(6)
		assert.InDelta(t, want, LogLik([]float64{2}, x, y), 1e-12)
	})

	t.Run("negative rate returns the exact sentinel", func(t *testing.T) {
		x := trendDesign(5)
		y := mat.NewVecDense(5, []float64{1, 1, 1, 1, 1})

		ll := LogLik([]float64{1, -1}, x, y)
		assert.Equal(t, -1e10, ll)
		assert.True(t, IsInfeasible(ll))
	})

	t.Run("zero rate with zero count", func(t *testing.T) {
		x := mat.NewDense(2, 1, []float64{1, 1})
		y := mat.NewVecDense(2, []float64{0, 0})
		assert.Equal(t, 0.0, LogLik([]float64{0}, x, y))
	})

	t.Run("zero rate with positive count", func(t *testing.T) {
		x := mat.NewDense(2, 1, []float64{1, 1})
		y := mat.NewVecDense(2, []float64{0, 2})
		assert.True(t, IsInfeasible(LogLik([]float64{0}, x, y)))
	})

	t.Run("feasible likelihood is finite and negative", func(t *testing.T) {
		x := trendDesign(6)
		y := mat.NewVecDense(6, []float64{2, 3, 3, 4, 6, 7})
		ll := LogLik([]float64{2, 1}, x, y)
		assert.False(t, IsInfeasible(ll))
		assert.Less(t, ll, 0.0)
	})
}

func TestRates(t *testing.T) {
	r := Rates([]float64{1, 0.5}, trendDesign(3))
	assert.Equal(t, []float64{1, 1.5, 2}, r.RawVector().Data)
}

func TestHessian(t *testing.T) {
	t.Run("matches finite differences", func(t *testing.T) {
		x := mat.NewDense(6, 3, []float64{
			1, 0.2, 0,
			1, 0.4, 1,
			1, 0.6, 2,
			1, 0.8, 3,
			1, 0.1, 4,
			1, 0.9, 5,
		})
		y := mat.NewVecDense(6, []float64{3, 4, 2, 6, 7, 9})
		params := []float64{2, 1, 0.8}

		exact := Hessian(params, x, y)

		var approx mat.SymDense
		fd.Hessian(&approx, func(p []float64) float64 {
			return LogLik(p, x, y)
		}, params, &fd.Settings{Formula: fd.Central, Step: 1e-3})

		scale := 0.0
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				scale = math.Max(scale, math.Abs(exact.At(i, j)))
			}
		}
		require.Greater(t, scale, 0.0)
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				assert.InDelta(t, exact.At(i, j), approx.At(i, j), 1e-3*scale, "entry (%d,%d)", i, j)
			}
		}
	})

	t.Run("negative semidefinite", func(t *testing.T) {
		x := trendDesign(5)
		y := mat.NewVecDense(5, []float64{1, 2, 3, 2, 1})
		h := Hessian([]float64{1, 0.5}, x, y)

		var eig mat.EigenSym
		require.True(t, eig.Factorize(h, false))
		for _, v := range eig.Values(nil) {
			assert.LessOrEqual(t, v, 1e-12)
		}
	})

	t.Run("all-zero counts give the zero matrix", func(t *testing.T) {
		x := trendDesign(4)
		y := mat.NewVecDense(4, nil)
		h := Hessian([]float64{0, 0}, x, y)
		for i := 0; i < 2; i++ {
			for j := 0; j < 2; j++ {
				assert.Equal(t, 0.0, h.At(i, j))
				assert.False(t, math.IsNaN(h.At(i, j)))
			}
		}
	})
}

func TestCorrectStart(t *testing.T) {
	x := trendDesign(5)
	y := mat.NewVecDense(5, []float64{1, 0, 2, 1, 3})

	t.Run("infeasible start becomes feasible", func(t *testing.T) {
		start := []float64{1, -1}
		fixed := CorrectStart(start, x, y)

		// min rate is 1 - 4 = -3, so the intercept moves up by 6
		assert.Equal(t, []float64{7, -1}, fixed)
		assert.False(t, IsInfeasible(LogLik(fixed, x, y)))
		// input untouched
		assert.Equal(t, []float64{1, -1}, start)
	})

	t.Run("zero rate with positive count", func(t *testing.T) {
		fixed := CorrectStart([]float64{0, 0}, x, y)
		assert.Equal(t, []float64{1, 0}, fixed)
		assert.False(t, IsInfeasible(LogLik(fixed, x, y)))
	})

	t.Run("feasible start unchanged", func(t *testing.T) {
		assert.Equal(t, []float64{2, 0.1}, CorrectStart([]float64{2, 0.1}, x, y))
	})
}

func TestStepScales(t *testing.T) {
	t.Run("sensitive parameters get smaller scales", func(t *testing.T) {
		x := trendDesign(10)
		y := mat.NewVecDense(10, []float64{2, 3, 3, 4, 6, 7, 7, 9, 10, 11})
		// well below the counts so both directions have a real slope
		params := []float64{1, 0.3}

		scales := StepScales(params, x, y)
		require.Len(t, scales, 2)
		for _, s := range scales {
			assert.Greater(t, s, 0.0)
			assert.False(t, math.IsInf(s, 0))
		}
		// the time column multiplies larger covariates
		assert.Less(t, scales[1], scales[0])
	})

	t.Run("flat direction falls back to one", func(t *testing.T) {
		x := mat.NewDense(3, 2, []float64{1, 0, 1, 0, 1, 0})
		y := mat.NewVecDense(3, []float64{1, 2, 1})
		scales := StepScales([]float64{1, 0}, x, y)
		assert.Equal(t, 1.0, scales[1])
	})

	t.Run("lower probe infeasible uses the upper window", func(t *testing.T) {
		x := mat.NewDense(2, 1, []float64{1, 1})
		y := mat.NewVecDense(2, []float64{0, 0})
		// at 0.2 the lower probe is negative; [0.2, 1.2] changes loglik by 2
		scales := StepScales([]float64{0.2}, x, y)
		assert.InDelta(t, 0.5, scales[0], 1e-12)
	})

	t.Run("both windows infeasible", func(t *testing.T) {
		x := mat.NewDense(1, 1, []float64{1})
		y := mat.NewVecDense(1, []float64{1})
		scales := StepScales([]float64{-5}, x, y)
		assert.Equal(t, []float64{1}, scales)
	})
}

func TestOLSStart(t *testing.T) {
	t.Run("exact line", func(t *testing.T) {
		x := trendDesign(5)
		y := mat.NewVecDense(5, []float64{1, 3, 5, 7, 9})
		beta, err := OLSStart(x, y)
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{1, 2}, beta, 1e-9)
	})

	t.Run("collinear columns use minimum norm", func(t *testing.T) {
		x := mat.NewDense(4, 2, []float64{1, 1, 1, 1, 1, 1, 1, 1})
		y := mat.NewVecDense(4, []float64{2, 2, 2, 2})
		beta, err := OLSStart(x, y)
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{1, 1}, beta, 1e-9)
	})

	t.Run("zero design", func(t *testing.T) {
		x := mat.NewDense(3, 2, nil)
		y := mat.NewVecDense(3, []float64{1, 2, 3})
		beta, err := OLSStart(x, y)
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 0}, beta)
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, err := OLSStart(trendDesign(3), mat.NewVecDense(2, nil))
		assert.Error(t, err)
	})
}

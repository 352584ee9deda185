// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 19th 2026
// Project: Spatial-Temporal Trends in Extreme Rainfall and Compound Flood Risk
// Class: 02-613 at Caregie Mellon University

// Package lrtest compares a spatial fit against the intercept/time-only null
// model with a chi-squared likelihood-ratio test.
package lrtest

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"floodtrend/internal/spline"
)

// LegacyLonSquaredDF keeps the historical degrees of freedom,
// n_bases_lon * n_bases_lon, so p-values stay comparable with earlier runs.
// TensorDegreesOfFreedom is the count of tensor basis functions.
const LegacyLonSquaredDF = true

// Result of one likelihood-ratio test.
type Result struct {
	LogLikNull float64
	LogLikFull float64
	Stat       float64
	DF         int
	PValue     float64
	// Significant is PValue < alpha when Test was given an alpha.
	Significant bool
}

// DegreesOfFreedom is the df used by Test.
func DegreesOfFreedom(h spline.Hyper) int {
	if LegacyLonSquaredDF {
		return h.NumLon() * h.NumLon()
	}
	return TensorDegreesOfFreedom(h)
}

// TensorDegreesOfFreedom is n_bases_lon * n_bases_lat.
func TensorDegreesOfFreedom(h spline.Hyper) int {
	return h.NumLon() * h.NumLat()
}

// Test computes stat = -2 (llNull - llFull) and its upper-tail chi-squared
// p-value. The statistic is clamped at zero (a full model that fits worse
// than the nested null only did so through optimiser noise) and the
// p-value is clamped to [0, 1]. A null basis configuration has no spatial
// degrees of freedom and returns p = 1.
func Test(llNull, llFull float64, h spline.Hyper) Result {
	return TestDF(llNull, llFull, DegreesOfFreedom(h))
}

// TestDF is Test with explicit degrees of freedom.
func TestDF(llNull, llFull float64, df int) Result {
	res := Result{LogLikNull: llNull, LogLikFull: llFull, DF: df, PValue: 1}

	stat := -2 * (llNull - llFull)
	if stat < 0 || math.IsNaN(stat) {
		stat = 0
	}
	res.Stat = stat

	if df <= 0 || stat == 0 {
		return res
	}
	if math.IsInf(stat, 1) {
		res.PValue = 0
		return res
	}

	pValue := distuv.ChiSquared{K: float64(df)}.Survival(stat)
	if pValue < 0 || math.IsNaN(pValue) {
		pValue = 0
	}
	if pValue > 1 {
		pValue = 1
	}
	res.PValue = pValue
	return res
}

// WithAlpha sets Significant for the given level.
func (r Result) WithAlpha(alpha float64) Result {
	r.Significant = r.PValue < alpha
	return r
}

// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 19th 2026
// Project: Spatial-Temporal Trends in Extreme Rainfall and Compound Flood Risk
// Class: 02-613 at Caregie Mellon University

package report

import (
	"fmt"
	"io"
	"strings"

	"gonum.org/v1/gonum/mat"

	"floodtrend/internal/fit"
	"floodtrend/internal/uncertainty"
)

// PrintSummary writes a human-readable overview of a run.
func PrintSummary(w io.Writer, s *Summary) {
	if s == nil {
		fmt.Fprintln(w, "run summary is nil")
		return
	}
	fmt.Fprintln(w, "        Spatial-temporal trend fit        ")
	fmt.Fprintf(w, "Run ID:             %s\n", s.RunID)
	fmt.Fprintf(w, "Outcome:            %s\n", s.Outcome)
	fmt.Fprintf(w, "Locations:          %d\n", s.Data.Locations)
	fmt.Fprintf(w, "Years:              %d (%d-%d)\n", s.Data.Years, s.Data.FirstYear, s.Data.LastYear)
	fmt.Fprintf(w, "Total events:       %.0f\n", s.Data.TotalEvents)
	fmt.Fprintf(w, "Basis:              %s\n", s.Hyper)
	fmt.Fprintln(w)

	// one line per optimiser pass
	fmt.Fprintf(w, "%-10s %7s %5s %14s %12s %12s %6s  %s\n", "pass", "params", "rank", "loglik", "AIC", "BIC", "iter", "status")
	fmt.Fprintln(w, strings.Repeat("-", 86))
	for _, f := range s.Fits {
		fmt.Fprintf(w, "%-10s %7d %5d %14.4f %12.4f %12.4f %6d  %s\n",
			f.Form, f.Params, f.Rank, f.LogLik, f.AIC, f.BIC, f.Iterations, f.Status)
	}
	fmt.Fprintln(w)

	conclusion := "no spatial trend variation"
	if s.LRTest.Significant {
		conclusion = "SPATIAL TREND VARIATION"
	}
	fmt.Fprintf(w, "LR test vs null:    stat=%.4f df=%d p=%.4g  %s\n", s.LRTest.Stat, s.LRTest.DF, s.LRTest.PValue, conclusion)
	if s.LRTest.BootstrapReplicates > 0 {
		fmt.Fprintf(w, "Bootstrap LR:       p=%.4g critical=%.4f (%d replicates)\n",
			s.LRTest.BootstrapPValue, s.LRTest.BootstrapCritical, s.LRTest.BootstrapReplicates)
	}
	fmt.Fprintf(w, "Significant locations (alpha=%.3g): %d of %d\n", s.Alpha, s.SignificantLocations, s.Data.Locations)
	fmt.Fprintf(w, "In-sample MSE:      %.4f\n", s.MSE)

	if len(s.Warnings) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Standard errors not estimated:")
		for _, wn := range s.Warnings {
			fmt.Fprintf(w, "  %-12s %s\n", wn.Param, wn.Reason)
		}
	}
	fmt.Fprintln(w, "=======================================")
}

// PrintParams writes the parameter table.
func PrintParams(w io.Writer, rows []uncertainty.Row) {
	fmt.Fprintln(w, "\n=== Parameter estimates ===")
	fmt.Fprintf(w, "%-14s %12s %12s %10s %10s  %s\n", "param", "estimate", "std err", "z", "p-value", "")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	for _, r := range rows {
		mark := ""
		if r.Significant {
			mark = "*"
		}
		fmt.Fprintf(w, "%-14s %12.6f %12.6f %10.3f %10.4g  %s\n", r.Name, r.Estimate, r.StdErr, r.Z, r.PValue, mark)
	}
}

// PrintSurface writes the per-location time coefficient table.
func PrintSurface(w io.Writer, rows []uncertainty.SurfaceRow) {
	if len(rows) == 0 {
		return
	}
	fmt.Fprintln(w, "\n=== Spatial trend surface ===")
	fmt.Fprintf(w, "%5s %10s %10s %12s %12s %12s %12s  %s\n", "loc", "lon", "lat", "estimate", "std err", "lower", "upper", "")
	fmt.Fprintln(w, strings.Repeat("-", 86))
	for _, r := range rows {
		mark := ""
		if r.Significant {
			mark = "*"
		}
		fmt.Fprintf(w, "%5d %10.4f %10.4f %12.6f %12.6f %12.6f %12.6f  %s\n",
			r.Location, r.Lon, r.Lat, r.Estimate, r.StdErr, r.Lower, r.Upper, mark)
	}
}

// PrintCovariance writes the parameter covariance matrix.
func PrintCovariance(w io.Writer, cov mat.Matrix) {
	fmt.Fprintln(w, "\n=== Parameter covariance ===")
	fmt.Fprintf(w, "%v\n", mat.Formatted(cov, mat.Prefix(" "), mat.Squeeze()))
}

// PrintSweep writes the sweep table in the order given.
func PrintSweep(w io.Writer, rows []fit.SweepRow) {
	fmt.Fprintln(w, "\n=== Knot sweep (best BIC first) ===")
	fmt.Fprintf(w, "%-24s %7s %14s %12s %12s %10s %10s\n", "basis", "bases", "loglik", "AIC", "BIC", "LR p", "MSE")
	fmt.Fprintln(w, strings.Repeat("-", 95))
	for _, r := range rows {
		fmt.Fprintf(w, "%-24s %7d %14.4f %12.4f %12.4f %10.4g %10.4f\n",
			r.Hyper, r.NumBases, r.LogLik, r.AIC, r.BIC, r.LR.PValue, r.MSE)
	}
}

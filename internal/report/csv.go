// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 19th 2026
// Project: Spatial-Temporal Trends in Extreme Rainfall and Compound Flood Risk
// Class: 02-613 at Caregie Mellon University

// Package report writes fit results to disk (CSV tables and a YAML run
// summary) and prints them for the terminal.
package report

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/rotisserie/eris"

	"floodtrend/internal/fit"
	"floodtrend/internal/uncertainty"
)

var rowHeader = []string{"estimate", "std_err", "z", "p_value", "lower", "upper", "significant"}

func rowFields(r uncertainty.Row) []string {
	return []string{
		ff(r.Estimate), ff(r.StdErr), ff(r.Z), ff(r.PValue),
		ff(r.Lower), ff(r.Upper), strconv.FormatBool(r.Significant),
	}
}

// WriteParams writes one row per model parameter.
func WriteParams(w io.Writer, rows []uncertainty.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"param"}, rowHeader...)); err != nil {
		return eris.Wrap(err, "report: write params header")
	}
	for _, r := range rows {
		if err := cw.Write(append([]string{r.Name}, rowFields(r)...)); err != nil {
			return eris.Wrapf(err, "report: write param %s", r.Name)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "report: flush params")
}

// WriteSurface writes the spatially varying time coefficient per location.
func WriteSurface(w io.Writer, rows []uncertainty.SurfaceRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"location", "lon", "lat"}, rowHeader...)); err != nil {
		return eris.Wrap(err, "report: write surface header")
	}
	for _, r := range rows {
		rec := append([]string{strconv.Itoa(r.Location), ff(r.Lon), ff(r.Lat)}, rowFields(r.Row)...)
		if err := cw.Write(rec); err != nil {
			return eris.Wrapf(err, "report: write surface location %d", r.Location)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "report: flush surface")
}

// WriteSweep writes one row per hyperparameter setting, in the given order.
func WriteSweep(w io.Writer, rows []fit.SweepRow) error {
	cw := csv.NewWriter(w)
	header := []string{
		"knots_lon", "knots_lat", "order", "n_bases", "loglik", "aic", "bic",
		"lr_stat", "lr_df", "lr_p_value", "mse", "iterations", "converged",
	}
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "report: write sweep header")
	}
	for _, r := range rows {
		rec := []string{
			strconv.Itoa(r.Hyper.KnotsLon),
			strconv.Itoa(r.Hyper.KnotsLat),
			strconv.Itoa(r.Hyper.Order),
			strconv.Itoa(r.NumBases),
			ff(r.LogLik), ff(r.AIC), ff(r.BIC),
			ff(r.LR.Stat), strconv.Itoa(r.LR.DF), ff(r.LR.PValue),
			ff(r.MSE),
			strconv.Itoa(r.Iterations),
			strconv.FormatBool(r.Converged),
		}
		if err := cw.Write(rec); err != nil {
			return eris.Wrapf(err, "report: write sweep row %s", r.Hyper)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "report: flush sweep")
}

func ff(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// writeFile creates path and hands it to write.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "report: create %s", path)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "report: close %s", path)
}

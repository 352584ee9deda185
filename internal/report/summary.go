// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 19th 2026
// Project: Spatial-Temporal Trends in Extreme Rainfall and Compound Flood Risk
// Class: 02-613 at Caregie Mellon University

package report

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"floodtrend/internal/fit"
	"floodtrend/internal/grid"
	"floodtrend/internal/lrtest"
	"floodtrend/internal/spline"
	"floodtrend/internal/uncertainty"
)

// File names written by SaveRun and SaveSweep.
const (
	ParamsFile  = "params.csv"
	SurfaceFile = "surface.csv"
	SummaryFile = "summary.yaml"
	SweepFile   = "sweep.csv"
)

// Run bundles everything one fit command produces.
type Run struct {
	Counts *grid.CountTable
	Hyper  spline.Hyper
	// Null is the intercept/time fit; Full the two-pass fit.
	Null   *fit.Result
	Full   *fit.Result
	LR     lrtest.Result
	Report *uncertainty.Report

	// Bootstrap is nil when the LR test was not bootstrapped.
	Bootstrap *fit.BootstrapResult

	// ThresholdPercentiles that defined the extreme events upstream. Recorded
	// only.
	ThresholdPercentiles []float64
}

// Summary is the YAML run record.
type Summary struct {
	RunID     string    `yaml:"run_id"`
	CreatedAt time.Time `yaml:"created_at"`
	Outcome   string    `yaml:"outcome"`

	Data  DataSummary  `yaml:"data"`
	Hyper spline.Hyper `yaml:"hyper"`

	ThresholdPercentiles []float64 `yaml:"threshold_percentiles,omitempty"`
	Alpha                float64   `yaml:"alpha"`
	Seed                 uint64    `yaml:"seed"`

	Fits   []FitSummary `yaml:"fits"`
	LRTest LRSummary    `yaml:"lr_test"`

	MSE                  float64          `yaml:"mse"`
	SignificantLocations int              `yaml:"significant_locations"`
	Warnings             []WarningSummary `yaml:"warnings,omitempty"`
}

// DataSummary describes the count table.
type DataSummary struct {
	Locations   int     `yaml:"locations"`
	Years       int     `yaml:"years"`
	FirstYear   int     `yaml:"first_year"`
	LastYear    int     `yaml:"last_year"`
	TotalEvents float64 `yaml:"total_events"`
}

// FitSummary is one optimiser pass.
type FitSummary struct {
	Form           string  `yaml:"form"`
	Params         int     `yaml:"params"`
	Rank           int     `yaml:"rank"`
	LogLik         float64 `yaml:"loglik"`
	AIC            float64 `yaml:"aic"`
	BIC            float64 `yaml:"bic"`
	Iterations     int     `yaml:"iterations"`
	FuncEvals      int     `yaml:"func_evals"`
	Status         string  `yaml:"status"`
	Converged      bool    `yaml:"converged"`
	ElapsedSeconds float64 `yaml:"elapsed_seconds"`
}

// LRSummary is the null-model comparison.
type LRSummary struct {
	Stat        float64 `yaml:"stat"`
	DF          int     `yaml:"df"`
	PValue      float64 `yaml:"p_value"`
	Significant bool    `yaml:"significant"`

	BootstrapReplicates int     `yaml:"bootstrap_replicates,omitempty"`
	BootstrapPValue     float64 `yaml:"bootstrap_p_value,omitempty"`
	BootstrapCritical   float64 `yaml:"bootstrap_critical,omitempty"`
}

// WarningSummary records a parameter whose variance could not be estimated.
type WarningSummary struct {
	Param    string  `yaml:"param"`
	Variance float64 `yaml:"variance"`
	Reason   string  `yaml:"reason"`
}

// NewSummary builds the run record with a fresh run ID.
func NewSummary(run Run, now time.Time) (*Summary, error) {
	if run.Counts == nil || run.Full == nil || run.Report == nil {
		return nil, eris.New("report: run needs counts, a fit and an uncertainty report")
	}
	nYear, nLoc := run.Counts.Dims()

	s := &Summary{
		RunID:     uuid.New().String(),
		CreatedAt: now.UTC(),
		Outcome:   run.Counts.Name,
		Data: DataSummary{
			Locations:   nLoc,
			Years:       nYear,
			FirstYear:   run.Counts.Years[0],
			LastYear:    run.Counts.Years[nYear-1],
			TotalEvents: run.Counts.Total(),
		},
		Hyper:                run.Hyper,
		ThresholdPercentiles: run.ThresholdPercentiles,
		Alpha:                run.Report.Alpha,
		Seed:                 run.Full.Seed,
		LRTest: LRSummary{
			Stat:        run.LR.Stat,
			DF:          run.LR.DF,
			PValue:      run.LR.PValue,
			Significant: run.LR.Significant,
		},
		MSE:                  run.Report.MSE,
		SignificantLocations: run.Report.NumSignificant(),
	}

	if b := run.Bootstrap; b != nil {
		s.LRTest.BootstrapReplicates = len(b.Stats)
		s.LRTest.BootstrapPValue = b.PValue
		s.LRTest.BootstrapCritical = b.Critical
	}

	if run.Null != nil {
		s.Fits = append(s.Fits, fitSummary(run.Null))
	}
	if run.Full.FirstPass != nil {
		s.Fits = append(s.Fits, fitSummary(run.Full.FirstPass))
	}
	if run.Full != run.Null {
		s.Fits = append(s.Fits, fitSummary(run.Full))
	}

	for _, w := range run.Report.Warnings {
		s.Warnings = append(s.Warnings, WarningSummary{Param: w.Name, Variance: w.Variance, Reason: w.Reason})
	}
	return s, nil
}

func fitSummary(r *fit.Result) FitSummary {
	return FitSummary{
		Form:           r.Form.String(),
		Params:         len(r.Params),
		Rank:           r.Rank,
		LogLik:         r.LogLik,
		AIC:            r.AIC,
		BIC:            r.BIC,
		Iterations:     r.Iterations,
		FuncEvals:      r.FuncEvals,
		Status:         r.Status,
		Converged:      r.Converged,
		ElapsedSeconds: r.Elapsed.Seconds(),
	}
}

// WriteSummary encodes s as YAML.
func WriteSummary(w io.Writer, s *Summary) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return eris.Wrap(err, "report: encode summary")
	}
	return eris.Wrap(enc.Close(), "report: close summary encoder")
}

// LoadSummary reads a summary written by WriteSummary.
func LoadSummary(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "report: read %s", path)
	}
	var s Summary
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, eris.Wrap(err, "report: parse summary")
	}
	return &s, nil
}

// SaveRun writes params.csv, surface.csv (spatial fits only) and
// summary.yaml under dir, creating it if needed.
func SaveRun(dir string, run Run, s *Summary) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "report: create %s", dir)
	}

	err := writeFile(filepath.Join(dir, ParamsFile), func(w io.Writer) error {
		return WriteParams(w, run.Report.Params)
	})
	if err != nil {
		return err
	}

	if len(run.Report.Surface) > 0 {
		err = writeFile(filepath.Join(dir, SurfaceFile), func(w io.Writer) error {
			return WriteSurface(w, run.Report.Surface)
		})
		if err != nil {
			return err
		}
	}

	return writeFile(filepath.Join(dir, SummaryFile), func(w io.Writer) error {
		return WriteSummary(w, s)
	})
}

// SaveSweep writes sweep.csv under dir, creating it if needed.
func SaveSweep(dir string, rows []fit.SweepRow) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "report: create %s", dir)
	}
	return writeFile(filepath.Join(dir, SweepFile), func(w io.Writer) error {
		return WriteSweep(w, rows)
	})
}

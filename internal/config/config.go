// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 19th 2026
// Project: Spatial-Temporal Trends in Extreme Rainfall and Compound Flood Risk
// Class: 02-613 at Caregie Mellon University

// Package config loads run configuration from config.yaml and FLOODTREND_*
// environment variables and sets up the global logger.
package config

import (
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"floodtrend/internal/fit"
	"floodtrend/internal/observability"
	"floodtrend/internal/spline"
)

// Config holds the full application configuration.
type Config struct {
	Model   ModelConfig   `yaml:"model" mapstructure:"model"`
	Sweep   SweepConfig   `yaml:"sweep" mapstructure:"sweep"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// ModelConfig configures the basis and the optimiser. A zero knot count or
// order selects the null model.
type ModelConfig struct {
	Outcome  string  `yaml:"outcome" mapstructure:"outcome"`
	KnotsLon int     `yaml:"knots_lon" mapstructure:"knots_lon"`
	KnotsLat int     `yaml:"knots_lat" mapstructure:"knots_lat"`
	Order    int     `yaml:"order" mapstructure:"order"`
	MaxIter  int     `yaml:"max_iter" mapstructure:"max_iter"`
	Seed     uint64  `yaml:"seed" mapstructure:"seed"`
	Alpha    float64 `yaml:"alpha" mapstructure:"alpha"`

	// Bootstrap is the number of parametric-bootstrap replicates used to
	// calibrate the likelihood-ratio test. Zero skips the bootstrap.
	Bootstrap int `yaml:"bootstrap" mapstructure:"bootstrap"`

	// Percentiles that defined an extreme event upstream; recorded in the
	// run summary.
	ThresholdPercentiles []float64 `yaml:"threshold_percentiles" mapstructure:"threshold_percentiles"`
}

// SweepConfig configures the knot sweep.
type SweepConfig struct {
	Knots   []int `yaml:"knots" mapstructure:"knots"`
	Workers int   `yaml:"workers" mapstructure:"workers"`
}

// OutputConfig configures where results are written.
type OutputConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// MetricsConfig configures the Prometheus textfile export. An empty path
// disables it.
type MetricsConfig struct {
	Textfile string `yaml:"textfile" mapstructure:"textfile"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FLOODTREND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("model.outcome", "precip")
	v.SetDefault("model.knots_lon", 4)
	v.SetDefault("model.knots_lat", 4)
	v.SetDefault("model.order", 4)
	v.SetDefault("model.max_iter", fit.DefaultMaxIter)
	v.SetDefault("model.seed", fit.DefaultSeed)
	v.SetDefault("model.alpha", 0.05)
	v.SetDefault("model.bootstrap", 0)
	v.SetDefault("model.threshold_percentiles", []float64{0.95, 0.99})
	v.SetDefault("sweep.knots", []int{3, 4, 5, 6})
	v.SetDefault("sweep.workers", 4)
	v.SetDefault("output.dir", "out")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("metrics.textfile", "")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate rejects settings the model cannot run with.
func (c *Config) Validate() error {
	m := c.Model
	if m.KnotsLon < 0 || m.KnotsLat < 0 || m.Order < 0 {
		return eris.Errorf("config: knots and order must be non-negative, got %dx%d order %d", m.KnotsLon, m.KnotsLat, m.Order)
	}
	if h := c.Hyper(); !h.IsNull() && (h.KnotsLon < 2 || h.KnotsLat < 2) {
		return eris.Errorf("config: a spatial basis needs at least 2 knots per axis, got %dx%d", h.KnotsLon, h.KnotsLat)
	}
	if m.MaxIter < 1 {
		return eris.Errorf("config: max_iter must be at least 1, got %d", m.MaxIter)
	}
	if m.Alpha <= 0 || m.Alpha >= 1 {
		return eris.Errorf("config: alpha must be in (0, 1), got %v", m.Alpha)
	}
	if m.Bootstrap < 0 {
		return eris.Errorf("config: bootstrap replicates must be non-negative, got %d", m.Bootstrap)
	}
	for _, p := range m.ThresholdPercentiles {
		if p <= 0 || p >= 1 {
			return eris.Errorf("config: threshold percentile %v outside (0, 1)", p)
		}
	}
	if c.Sweep.Workers < 1 {
		return eris.Errorf("config: sweep workers must be at least 1, got %d", c.Sweep.Workers)
	}
	for _, k := range c.Sweep.Knots {
		if k < 2 {
			return eris.Errorf("config: sweep knot count %d is below 2", k)
		}
	}
	return nil
}

// Hyper returns the configured basis hyperparameters.
func (c *Config) Hyper() spline.Hyper {
	return spline.Hyper{
		KnotsLon: c.Model.KnotsLon,
		KnotsLat: c.Model.KnotsLat,
		Order:    c.Model.Order,
	}
}

// SweepHypers returns the square knot settings to sweep at the model order.
func (c *Config) SweepHypers() []spline.Hyper {
	return fit.Hypers(c.Sweep.Knots, c.Model.Order)
}

// FitOptions turns the model settings into optimiser options.
func (c *Config) FitOptions(clock clockwork.Clock, metrics *observability.Metrics) fit.Options {
	return fit.Options{
		MaxIter: c.Model.MaxIter,
		Seed:    c.Model.Seed,
		Clock:   clock,
		Metrics: metrics,
	}
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

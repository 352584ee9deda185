// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 19th 2026
// Project: Spatial-Temporal Trends in Extreme Rainfall and Compound Flood Risk
// Class: 02-613 at Caregie Mellon University

package spline

import (
	"fmt"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"floodtrend/internal/grid"
)

// ErrNullBasis is returned when a basis is requested for the null
// configuration (any hyperparameter zero).
var ErrNullBasis = eris.New("spline: null basis configuration")

// Hyper are the basis hyperparameters. Any zero field selects the null
// model, which has no spatial basis at all.
type Hyper struct {
	KnotsLon int `yaml:"knots_lon" mapstructure:"knots_lon"`
	KnotsLat int `yaml:"knots_lat" mapstructure:"knots_lat"`
	Order    int `yaml:"order" mapstructure:"order"`
}

// IsNull reports whether h describes the intercept/time-only model.
func (h Hyper) IsNull() bool {
	return h.KnotsLon == 0 || h.KnotsLat == 0 || h.Order == 0
}

// NumLon is the number of longitude basis functions.
func (h Hyper) NumLon() int {
	if h.IsNull() {
		return 0
	}
	return NumBases(h.KnotsLon, h.Order)
}

// NumLat is the number of latitude basis functions.
func (h Hyper) NumLat() int {
	if h.IsNull() {
		return 0
	}
	return NumBases(h.KnotsLat, h.Order)
}

func (h Hyper) String() string {
	return fmt.Sprintf("knots=%dx%d order=%d", h.KnotsLon, h.KnotsLat, h.Order)
}

// BasisSet is the tensor-product basis evaluated at every grid location,
// with all-zero columns removed.
type BasisSet struct {
	Hyper Hyper

	// n_loc x NumBases(), non-negative
	Values *mat.Dense

	// Labels[k] is "b{i}_{j}" for lon basis i and lat basis j.
	Labels []string

	// Index[k] is the column of the full tensor product (i*NumLat + j) that
	// survived as column k.
	Index []int

	NumLon int
	NumLat int
}

// NumBases returns the number of surviving tensor columns.
func (b *BasisSet) NumBases() int {
	_, c := b.Values.Dims()
	return c
}

// Dropped returns how many tensor columns were zero everywhere.
func (b *BasisSet) Dropped() int {
	return b.NumLon*b.NumLat - b.NumBases()
}

// NewBasisSet evaluates the lon and lat bases over the grid's observed
// bounds and forms their tensor product per location, lon index major.
func NewBasisSet(g *grid.Grid, h Hyper) (*BasisSet, error) {
	if h.IsNull() {
		return nil, ErrNullBasis
	}
	minLon, maxLon, minLat, maxLat := g.Bounds()

	lonB, err := BSpline(g.Lons(), minLon, maxLon, h.KnotsLon, h.Order)
	if err != nil {
		return nil, eris.Wrap(err, "spline: longitude basis")
	}
	latB, err := BSpline(g.Lats(), minLat, maxLat, h.KnotsLat, h.Order)
	if err != nil {
		return nil, eris.Wrap(err, "spline: latitude basis")
	}

	nLoc := g.Len()
	_, nLon := lonB.Dims()
	_, nLat := latB.Dims()

	full := mat.NewDense(nLoc, nLon*nLat, nil)
	for l := 0; l < nLoc; l++ {
		for i := 0; i < nLon; i++ {
			bi := lonB.At(l, i)
			if bi == 0 {
				continue
			}
			for j := 0; j < nLat; j++ {
				full.Set(l, i*nLat+j, bi*latB.At(l, j))
			}
		}
	}

	var keep []int
	for c := 0; c < nLon*nLat; c++ {
		for l := 0; l < nLoc; l++ {
			if full.At(l, c) > 0 {
				keep = append(keep, c)
				break
			}
		}
	}
	if len(keep) == 0 {
		return nil, eris.Errorf("spline: every tensor column is zero for %s", h)
	}

	values := mat.NewDense(nLoc, len(keep), nil)
	labels := make([]string, len(keep))
	for k, c := range keep {
		for l := 0; l < nLoc; l++ {
			values.Set(l, k, full.At(l, c))
		}
		labels[k] = fmt.Sprintf("b%d_%d", c/nLat, c%nLat)
	}

	if dropped := nLon*nLat - len(keep); dropped > 0 {
		zap.L().Debug("spline: dropped empty tensor columns",
			zap.Stringer("hyper", h),
			zap.Int("dropped", dropped),
			zap.Int("kept", len(keep)),
		)
	}

	return &BasisSet{
		Hyper:  h,
		Values: values,
		Labels: labels,
		Index:  keep,
		NumLon: nLon,
		NumLat: nLat,
	}, nil
}

// Cache memoises basis sets for one grid. Safe for concurrent use; returned
// sets must be treated as read-only.
type Cache struct {
	grid *grid.Grid

	mu   sync.Mutex
	sets map[Hyper]*BasisSet
}

// NewCache returns an empty cache bound to g.
func NewCache(g *grid.Grid) *Cache {
	return &Cache{grid: g, sets: make(map[Hyper]*BasisSet)}
}

// Get returns the basis set for h, building it on first use.
func (c *Cache) Get(h Hyper) (*BasisSet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if b, ok := c.sets[h]; ok {
		return b, nil
	}
	b, err := NewBasisSet(c.grid, h)
	if err != nil {
		return nil, err
	}
	c.sets[h] = b
	return b, nil
}

// Len returns the number of cached sets.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sets)
}

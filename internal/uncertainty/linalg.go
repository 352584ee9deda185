// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 19th 2026
// Project: Spatial-Temporal Trends in Extreme Rainfall and Compound Flood Risk
// Class: 02-613 at Caregie Mellon University

package uncertainty

import (
	"math"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/mat"
)

var sqrtEps = math.Sqrt(2.220446049250313e-16)

// PseudoInverse returns the Moore-Penrose inverse of a computed from its SVD.
// Singular values at or below sqrt(eps) * sigma_max count as zero, so a
// rank-deficient (or all-zero) matrix still has a well defined result.
func PseudoInverse(a mat.Matrix) (*mat.Dense, error) {
	r, c := a.Dims()

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, eris.New("uncertainty: SVD factorization failed")
	}

	sigma := svd.Values(nil)
	out := mat.NewDense(c, r, nil)
	if len(sigma) == 0 || sigma[0] == 0 {
		return out, nil
	}
	tol := sqrtEps * sigma[0]

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	// pinv = sum_k v_k u_k' / sigma_k over the kept singular values
	for k, s := range sigma {
		if s <= tol {
			break
		}
		inv := 1 / s
		for i := 0; i < c; i++ {
			vik := v.At(i, k) * inv
			if vik == 0 {
				continue
			}
			for j := 0; j < r; j++ {
				out.Set(i, j, out.At(i, j)+vik*u.At(j, k))
			}
		}
	}
	return out, nil
}

// GeneralizedCholesky computes the Gill-Murray modified LDL' factorisation
// of a symmetric matrix: L D L' = A + diag(e) with L unit lower triangular,
// every d_j > 0, and e >= 0 as small as the bound on L allows. It succeeds
// for indefinite and singular input.
func GeneralizedCholesky(a mat.Symmetric) (l *mat.TriDense, d, e []float64) {
	n := a.SymmetricDim()
	l = mat.NewTriDense(n, mat.Lower, nil)
	d = make([]float64, n)
	e = make([]float64, n)
	if n == 0 {
		return l, d, e
	}

	const eps = 2.220446049250313e-16

	// gamma: largest diagonal magnitude, xi: largest off-diagonal magnitude
	var gamma, xi float64
	for i := 0; i < n; i++ {
		gamma = math.Max(gamma, math.Abs(a.At(i, i)))
		for j := 0; j < i; j++ {
			xi = math.Max(xi, math.Abs(a.At(i, j)))
		}
	}
	nu := math.Max(1, math.Sqrt(float64(n*n-1)))
	beta2 := math.Max(gamma, math.Max(xi/nu, eps))
	delta := eps * math.Max(gamma+xi, 1)

	// c holds the partially reduced lower triangle
	c := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			c.Set(i, j, a.At(i, j))
		}
	}

	for j := 0; j < n; j++ {
		l.SetTri(j, j, 1)
		for s := 0; s < j; s++ {
			l.SetTri(j, s, c.At(j, s)/d[s])
		}

		theta := 0.0
		for i := j + 1; i < n; i++ {
			v := a.At(i, j)
			for s := 0; s < j; s++ {
				v -= l.At(j, s) * c.At(i, s)
			}
			c.Set(i, j, v)
			theta = math.Max(theta, math.Abs(v))
		}

		cjj := c.At(j, j)
		d[j] = math.Max(delta, math.Max(math.Abs(cjj), theta*theta/beta2))
		e[j] = d[j] - cjj

		for i := j + 1; i < n; i++ {
			cij := c.At(i, j)
			c.Set(i, i, c.At(i, i)-cij*cij/d[j])
		}
	}
	return l, d, e
}

// reconstruct returns L D L'.
func reconstruct(l mat.Triangular, d []float64) *mat.SymDense {
	n := len(d)
	var ld mat.Dense
	ld.Mul(l, mat.NewDiagDense(n, d))

	var full mat.Dense
	full.Mul(&ld, l.T())

	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			out.SetSym(i, j, 0.5*(full.At(i, j)+full.At(j, i)))
		}
	}
	return out
}

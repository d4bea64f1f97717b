// Package geom provides robust planar homography estimation for
// geometric match verification.
//
// A homography maps query keypoint positions onto reference keypoint
// positions. Estimation is done with random-sample consensus: minimal
// 4-point hypotheses are scored by reprojection error and the largest
// consensus set wins.
package geom

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/pixmatch/pixmatch/model"
)

// ErrDegenerate is returned when no homography can be estimated from
// the given correspondences (too few points, collinear configurations,
// or a singular system).
var ErrDegenerate = errors.New("degenerate point configuration")

// Homography is a 3x3 planar projective transform with h33 fixed to 1.
type Homography [9]float64

// Apply maps p through the homography.
func (h Homography) Apply(p model.Point) model.Point {
	w := h[6]*p.X + h[7]*p.Y + h[8]
	if w == 0 {
		// Point at infinity; push it far away so it never counts as
		// an inlier.
		return model.Point{X: math.Inf(1), Y: math.Inf(1)}
	}
	return model.Point{
		X: (h[0]*p.X + h[1]*p.Y + h[2]) / w,
		Y: (h[3]*p.X + h[4]*p.Y + h[5]) / w,
	}
}

// reprojError is the Euclidean distance between H(src) and dst.
func (h Homography) reprojError(src, dst model.Point) float64 {
	m := h.Apply(src)
	dx := m.X - dst.X
	dy := m.Y - dst.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// solveHomography fits a homography to n >= 4 correspondences by
// (least-squares) DLT with h33 = 1. Returns ErrDegenerate when the
// system is singular.
func solveHomography(src, dst []model.Point) (Homography, error) {
	n := len(src)
	if n < 4 || len(dst) != n {
		return Homography{}, ErrDegenerate
	}

	a := mat.NewDense(2*n, 8, nil)
	b := mat.NewVecDense(2*n, nil)

	for i := 0; i < n; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y

		a.SetRow(2*i, []float64{x, y, 1, 0, 0, 0, -u * x, -u * y})
		b.SetVec(2*i, u)
		a.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1, -v * x, -v * y})
		b.SetVec(2*i+1, v)
	}

	var qr mat.QR
	qr.Factorize(a)

	var h mat.VecDense
	if err := qr.SolveVecTo(&h, false, b); err != nil {
		return Homography{}, ErrDegenerate
	}

	var out Homography
	for i := 0; i < 8; i++ {
		v := h.AtVec(i)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Homography{}, ErrDegenerate
		}
		out[i] = v
	}
	out[8] = 1

	return out, nil
}

// collinear reports whether any three of the four points are
// (near-)collinear. Such samples cannot constrain a homography.
func collinear(pts [4]model.Point) bool {
	for i := 0; i < 2; i++ {
		for j := i + 1; j < 3; j++ {
			for k := j + 1; k < 4; k++ {
				ax := pts[j].X - pts[i].X
				ay := pts[j].Y - pts[i].Y
				bx := pts[k].X - pts[i].X
				by := pts[k].Y - pts[i].Y
				if math.Abs(ax*by-ay*bx) < 1e-9 {
					return true
				}
			}
		}
	}
	return false
}

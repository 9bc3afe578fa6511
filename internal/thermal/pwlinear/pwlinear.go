// Package pwlinear implements an ordered piecewise-linear table with
// linear interpolation and nearest-segment-slope extrapolation.
package pwlinear

import (
	"sort"

	"github.com/brettski74/milton/internal/milerr"
)

// point is one (x, y) sample, optionally carrying a label for the named
// variant (profile stages, power-limit-curve segments, etc).
type point struct {
	x     float64
	y     float64
	label string
}

// PiecewiseLinear is an ordered sequence of points sorted by strictly
// increasing x. Duplicate x values replace the existing point rather than
// appending a second one.
type PiecewiseLinear struct {
	points []point
}

// New returns an empty table.
func New() *PiecewiseLinear {
	return &PiecewiseLinear{}
}

// Length returns the number of distinct x values currently stored.
func (p *PiecewiseLinear) Length() int {
	return len(p.points)
}

// Start returns the smallest x in the table. Panics on an empty table; call
// Length first.
func (p *PiecewiseLinear) Start() float64 {
	return p.points[0].x
}

// End returns the largest x in the table. Panics on an empty table.
func (p *PiecewiseLinear) End() float64 {
	return p.points[len(p.points)-1].x
}

// AddPoint inserts or replaces the point at x, keeping the table sorted.
// An optional label may be supplied for the named variant; omit it (or
// pass "") for the unlabeled variant.
func (p *PiecewiseLinear) AddPoint(x, y float64, label ...string) {
	l := ""
	if len(label) > 0 {
		l = label[0]
	}

	idx := sort.Search(len(p.points), func(i int) bool { return p.points[i].x >= x })
	if idx < len(p.points) && p.points[idx].x == x {
		p.points[idx].y = y
		p.points[idx].label = l
		return
	}

	p.points = append(p.points, point{})
	copy(p.points[idx+1:], p.points[idx:])
	p.points[idx] = point{x: x, y: y, label: l}
}

// Estimate returns the interpolated or extrapolated y for x. Returns
// milerr.Empty if the table has no points.
func (p *PiecewiseLinear) Estimate(x float64) (float64, error) {
	y, _, err := p.estimate(x)
	return y, err
}

// EstimateLabeled returns the interpolated/extrapolated y along with the
// governing segment's label, per the tie-break rules in spec.md §4.1.
func (p *PiecewiseLinear) EstimateLabeled(x float64) (float64, string, error) {
	return p.estimate(x)
}

func (p *PiecewiseLinear) estimate(x float64) (float64, string, error) {
	n := len(p.points)
	if n == 0 {
		return 0, "", milerr.New(milerr.Empty, "Estimate called on an empty PiecewiseLinear")
	}
	if n == 1 {
		return p.points[0].y, p.points[0].label, nil
	}

	if x <= p.points[0].x {
		if x == p.points[0].x {
			return p.points[0].y, p.points[0].label, nil
		}
		return extrapolate(p.points[0], p.points[1], x), p.points[0].label, nil
	}
	if x >= p.points[n-1].x {
		if x == p.points[n-1].x {
			// Exact hit at the last point: no segment starts here, so the
			// nearest boundary segment's label governs.
			return p.points[n-1].y, p.points[n-2].label, nil
		}
		return extrapolate(p.points[n-2], p.points[n-1], x), p.points[n-2].label, nil
	}

	// Interior: find the segment [lo, hi] containing x via the first point
	// whose x is >= x.
	idx := sort.Search(n, func(i int) bool { return p.points[i].x >= x })
	if p.points[idx].x == x {
		// Exact hit at an interior point: y at that point, label of the
		// segment starting there (or the first segment's label if idx==0).
		if idx == 0 {
			return p.points[idx].y, p.points[0].label, nil
		}
		return p.points[idx].y, p.points[idx].label, nil
	}

	lo, hi := p.points[idx-1], p.points[idx]
	return interpolate(lo, hi, x), lo.label, nil
}

func interpolate(lo, hi point, x float64) float64 {
	slope := (hi.y - lo.y) / (hi.x - lo.x)
	return lo.y + slope*(x-lo.x)
}

func extrapolate(a, b point, x float64) float64 {
	slope := (b.y - a.y) / (b.x - a.x)
	return a.y + slope*(x-a.x)
}

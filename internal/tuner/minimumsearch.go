// Package tuner implements the MinimumSearch/Tuner leaf (spec.md §4.10):
// an n-dimensional grid-descent optimizer used offline to fit predictor
// and controller parameters to recorded run history, plus the online
// candidate-vs-control background search adapted from the teacher's
// onlinetraining package.
package tuner

import (
	"github.com/brettski74/milton/internal/milerr"
)

// Axis describes one search dimension's initial bounds and optional hard
// constraints. Constraints, when set, prevent the boundary-extension
// behaviour below from pushing the search range past them.
type Axis struct {
	Lo, Hi float64

	Constrained bool
	Min, Max    float64
}

// Objective is the function being minimized, called with one value per
// axis in the same order as the Axis slice.
type Objective func(point []float64) float64

// Result is the grid-evaluated argmin at termination.
type Result struct {
	Point []float64
	Value float64
}

// MinimumSearch runs the n-dimensional grid-descent search described in
// spec.md §4.10. Each round evaluates f on a steps-per-axis lattice
// (excluding each axis's low face, including its high face), contracts
// every axis around the winning point, and extends a boundary-hugging
// axis when its boundary is unconstrained - faster if the same direction
// wins two rounds running. It terminates when every axis's hi-lo has
// shrunk to at most threshold, or fails with SearchDepthExceeded after
// maxDepth contractions (default 100).
type MinimumSearch struct {
	Steps     int
	Threshold float64
	MaxDepth  int
}

// NewMinimumSearch returns a search with the given per-axis lattice
// density and convergence threshold, and the default 100-contraction
// depth cap.
func NewMinimumSearch(steps int, threshold float64) *MinimumSearch {
	return &MinimumSearch{Steps: steps, Threshold: threshold, MaxDepth: 100}
}

// direction records which face (boundary) an axis's winning point last
// landed on, to detect a repeated direction across rounds.
type direction int

const (
	dirNone direction = iota
	dirLow
	dirHigh
)

// Run executes the search over the given axes.
func (m *MinimumSearch) Run(axes []Axis, f Objective) (*Result, error) {
	maxDepth := m.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 100
	}

	axes = append([]Axis(nil), axes...)
	lastDir := make([]direction, len(axes))

	var best *Result

	for depth := 0; depth < maxDepth; depth++ {
		best = m.evaluateLattice(axes, f)

		converged := true
		for _, a := range axes {
			if a.Hi-a.Lo > m.Threshold {
				converged = false
				break
			}
		}
		if converged {
			return best, nil
		}

		for i := range axes {
			step := (axes[i].Hi - axes[i].Lo) / float64(m.Steps)
			onLow := best.Point[i] <= axes[i].Lo+step/2
			onHigh := best.Point[i] >= axes[i].Hi-step/2

			newLo := best.Point[i] - step
			newHi := best.Point[i] + step

			switch {
			case onLow && !axes[i].Constrained:
				extension := step * float64(m.Steps)
				if lastDir[i] == dirLow {
					extension *= 2
				}
				newLo = best.Point[i] - extension
				lastDir[i] = dirLow
			case onHigh && !axes[i].Constrained:
				extension := step * float64(m.Steps)
				if lastDir[i] == dirHigh {
					extension *= 2
				}
				newHi = best.Point[i] + extension
				lastDir[i] = dirHigh
			default:
				lastDir[i] = dirNone
			}

			if axes[i].Constrained {
				if newLo < axes[i].Min {
					newLo = axes[i].Min
				}
				if newHi > axes[i].Max {
					newHi = axes[i].Max
				}
			}

			axes[i].Lo = newLo
			axes[i].Hi = newHi
		}
	}

	return nil, milerr.New(milerr.SearchDepthExceeded, "minimum search did not converge within the depth cap")
}

// evaluateLattice evaluates f across the steps-per-axis lattice (excluding
// each axis's low face) and returns the argmin.
func (m *MinimumSearch) evaluateLattice(axes []Axis, f Objective) *Result {
	n := len(axes)
	point := make([]float64, n)
	best := &Result{Point: make([]float64, n)}
	first := true

	var recurse func(i int)
	recurse = func(i int) {
		if i == n {
			v := f(point)
			if first || v < best.Value {
				first = false
				best.Value = v
				copy(best.Point, point)
			}
			return
		}

		step := (axes[i].Hi - axes[i].Lo) / float64(m.Steps)
		for k := 1; k <= m.Steps; k++ {
			point[i] = axes[i].Lo + step*float64(k)
			recurse(i + 1)
		}
	}
	recurse(0)

	return best
}

package tuner

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Percentile names a critical-value table entry for KolmogorovSmirnovRejects.
type Percentile int

const (
	P90 Percentile = iota
	P95
	P97d5
	P99
	P99d5
	P99d9
)

// ksCoefficients are the standard two-sample KS critical-value
// coefficients, carried over from the teacher's stats package.
var ksCoefficients = map[Percentile]float64{
	P90:   1.22,
	P95:   1.36,
	P97d5: 1.48,
	P99:   1.63,
	P99d5: 1.73,
	P99d9: 1.95,
}

// KolmogorovSmirnovRejects runs a two-tailed KS test at the given
// significance percentile, returning true when the candidate sample's
// distribution is significantly different from the control sample's.
func KolmogorovSmirnovRejects(control, candidate []float64, percentile Percentile) bool {
	coeff, ok := ksCoefficients[percentile]
	if !ok {
		coeff = ksCoefficients[P95]
	}

	criticalValue := coeff * math.Sqrt(float64(len(control)+len(candidate))/float64(len(control)*len(candidate)))

	sortedControl := append([]float64(nil), control...)
	sort.Float64s(sortedControl)

	sortedCandidate := append([]float64(nil), candidate...)
	sort.Float64s(sortedCandidate)

	testStatistic := stat.KolmogorovSmirnov(sortedControl, nil, sortedCandidate, nil)
	return testStatistic > criticalValue
}

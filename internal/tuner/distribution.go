package tuner

import (
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// SampleTruncatedNormal draws from a normal distribution with the given
// mean and standard deviation, truncated to [lo, hi] via inverse-transform
// sampling, adapted from the teacher's
// stats.SampleTruncatedNormalDistribution. Used by CandidateSearch to
// perturb one tuning parameter per round around its current value.
func SampleTruncatedNormal(lo, hi, mean, stddev float64) float64 {
	seed := uint64(time.Now().UTC().UnixNano())

	norm := distuv.Normal{
		Mu:    mean,
		Sigma: stddev,
		Src:   rand.NewSource(seed),
	}

	a := norm.CDF(lo)
	b := norm.CDF(hi)
	u := distuv.Uniform{
		Min: a,
		Max: b,
		Src: rand.NewSource(seed),
	}.Rand()

	return norm.Quantile(u)
}

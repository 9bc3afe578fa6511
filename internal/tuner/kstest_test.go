package tuner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKolmogorovSmirnovRejects_IdenticalDistributionsDoNotReject(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	b := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	assert.False(t, KolmogorovSmirnovRejects(a, b, P95))
}

func TestKolmogorovSmirnovRejects_VeryDifferentDistributionsReject(t *testing.T) {
	a := []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}
	b := []float64{100, 101, 102, 100, 99, 103, 101, 100, 102, 99}
	assert.True(t, KolmogorovSmirnovRejects(a, b, P95))
}

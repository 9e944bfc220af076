package sampling

import (
	"math"
	"math/rand"
)

// Poisson draws samples from a Poisson distribution using Knuth's inversion
// method. Good enough for the small means used by up-sampling; not meant
// for large means.
type Poisson struct {
	limit float64
	rnd   *rand.Rand
}

func NewPoisson(mean float64, rnd *rand.Rand) *Poisson {
	if mean < 0 {
		mean = 0
	}
	return &Poisson{
		limit: math.Exp(-mean),
		rnd:   rnd,
	}
}

func (p *Poisson) Sample() int {
	k := 0
	prod := 1.0
	for {
		prod *= p.rnd.Float64()
		if prod <= p.limit {
			return k
		}
		k++
	}
}

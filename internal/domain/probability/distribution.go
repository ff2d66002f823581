package probability

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Outcome is one payout value with its probability.
type Outcome struct {
	Payout      float64
	Probability float64
}

// Distribution is a discrete payout distribution. Outcomes should include
// the zero-payout ("no prize") outcome so probabilities sum to one.
type Distribution struct {
	Outcomes []Outcome
}

// Certain returns a distribution that always pays payout.
func Certain(payout float64) Distribution {
	return Distribution{Outcomes: []Outcome{{Payout: payout, Probability: 1}}}
}

func (d Distribution) split() (x, w []float64) {
	x = make([]float64, len(d.Outcomes))
	w = make([]float64, len(d.Outcomes))
	for i, o := range d.Outcomes {
		x[i] = o.Payout
		w[i] = o.Probability
	}
	return x, w
}

// TotalProbability returns the probability mass, 1 for a complete distribution.
func (d Distribution) TotalProbability() float64 {
	_, w := d.split()
	return floats.Sum(w)
}

// Mean returns E[X] = Σ payout·p.
func (d Distribution) Mean() float64 {
	if len(d.Outcomes) == 0 {
		return 0
	}
	x, w := d.split()
	return floats.Dot(x, w)
}

// SecondMoment returns E[X²].
func (d Distribution) SecondMoment() float64 {
	if len(d.Outcomes) == 0 {
		return 0
	}
	x, w := d.split()
	sq := make([]float64, len(x))
	floats.MulTo(sq, x, x)
	return floats.Dot(sq, w)
}

// Variance returns E[X²] − E[X]², computed as the probability-weighted
// population variance. It is never negative.
func (d Distribution) Variance() float64 {
	x, w := d.split()
	if floats.Sum(w) <= 0 {
		return 0
	}
	_, v := stat.PopMeanVariance(x, w)
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

// StdDev returns the square root of the variance.
func (d Distribution) StdDev() float64 {
	return math.Sqrt(d.Variance())
}

// WinProbability returns P(X > 0).
func (d Distribution) WinProbability() float64 {
	var p float64
	for _, o := range d.Outcomes {
		if o.Payout > 0 {
			p += o.Probability
		}
	}
	return p
}

// Package probability provides exact discrete-probability primitives used to
// price scratch-off tickets: the hypergeometric distribution over a finite
// ticket pool and a payout distribution with its moments.
package probability

import (
	"math"

	"gonum.org/v1/gonum/stat/combin"
)

// exactDrawLimit is the largest draw count evaluated with falling factorials.
// Above it the log-binomial form is used; combin.Binomial stays exact and
// overflow free up to this size.
const exactDrawLimit = 50

// Hypergeometric is the distribution of the number of successes when Draws
// items are taken without replacement from Population items of which
// Successes are successes. Invalid parameters give zero probabilities.
type Hypergeometric struct {
	Population int64
	Successes  int64
	Draws      int64
}

func (h Hypergeometric) valid() bool {
	return h.Population > 0 &&
		h.Successes >= 0 && h.Successes <= h.Population &&
		h.Draws >= 0 && h.Draws <= h.Population
}

// Support returns the smallest and largest attainable success counts.
func (h Hypergeometric) Support() (lo, hi int64) {
	lo = h.Draws - (h.Population - h.Successes)
	if lo < 0 {
		lo = 0
	}
	hi = h.Draws
	if h.Successes < hi {
		hi = h.Successes
	}
	return lo, hi
}

// PMF returns P(X = k).
func (h Hypergeometric) PMF(k int64) float64 {
	if !h.valid() {
		return 0
	}
	lo, hi := h.Support()
	if k < lo || k > hi {
		return 0
	}
	if h.Draws <= exactDrawLimit {
		return h.fallingFactorialPMF(k)
	}
	return h.logPMF(k)
}

// fallingFactorialPMF evaluates C(n,k)·[K]_k·[N-K]_(n-k) / [N]_n as a running
// product of ratios so intermediate values never overflow.
func (h Hypergeometric) fallingFactorialPMF(k int64) float64 {
	n, bigK, bigN := h.Draws, h.Successes, h.Population
	p := float64(combin.Binomial(int(n), int(k)))
	for i := int64(0); i < k; i++ {
		p *= float64(bigK-i) / float64(bigN-i)
	}
	for j := int64(0); j < n-k; j++ {
		p *= float64(bigN-bigK-j) / float64(bigN-k-j)
	}
	return p
}

func (h Hypergeometric) logPMF(k int64) float64 {
	n, bigK, bigN := float64(h.Draws), float64(h.Successes), float64(h.Population)
	kf := float64(k)
	lp := combin.LogGeneralizedBinomial(bigK, kf) +
		combin.LogGeneralizedBinomial(bigN-bigK, n-kf) -
		combin.LogGeneralizedBinomial(bigN, n)
	return math.Exp(lp)
}

// CDF returns P(X <= k).
func (h Hypergeometric) CDF(k int64) float64 {
	if !h.valid() {
		return 0
	}
	lo, hi := h.Support()
	if k < lo {
		return 0
	}
	if k >= hi {
		return 1
	}
	var sum float64
	for i := lo; i <= k; i++ {
		sum += h.PMF(i)
	}
	return math.Min(1, sum)
}

// Mean returns n·K/N.
func (h Hypergeometric) Mean() float64 {
	if !h.valid() {
		return 0
	}
	return float64(h.Draws) * float64(h.Successes) / float64(h.Population)
}

// AtLeastOne returns P(X >= 1).
func (h Hypergeometric) AtLeastOne() float64 {
	if !h.valid() {
		return 0
	}
	return 1 - h.PMF(0)
}

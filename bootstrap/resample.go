// Package bootstrap draws bootstrap replicates of the tissue read depths and
// variant allele frequencies of an aggregated mutation table, and appends them
// to the table as extra columns.
//
// Depths are resampled jointly: each replicate redistributes the total tissue
// depth over all mutations with a multinomial draw weighted by the observed
// depths. Frequencies are then resampled per mutation with a binomial draw
// over the replicate depth.
package bootstrap

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat/distuv"
)

// MaxDrawAttempts bounds the number of times the depth matrix is redrawn
// while some replicate depth is zero. Zeros remaining after the last attempt
// are clamped to 1.
const MaxDrawAttempts = 10

// NewSource returns a deterministic random source for seed.
func NewSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed)
}

// Replicates holds n bootstrap replicates of m mutations. Both matrices are
// mutation-major: Depths[i][j] is the depth of mutation i in replicate j.
type Replicates struct {
	Depths [][]int
	Freqs  [][]float64
	// Attempts is the number of depth matrices drawn, in [1, MaxDrawAttempts].
	Attempts int
	// Clamped counts the depths raised from 0 to 1 after the last attempt.
	// When nonzero, the per-replicate depth sums exceed the input total.
	Clamped int
}

// Shape returns the number of mutations and replicates.
func (r Replicates) Shape() (m, n int) {
	if len(r.Depths) == 0 {
		return 0, 0
	}
	return len(r.Depths), len(r.Depths[0])
}

// Resampler draws replicates from a caller-supplied random source. A
// Resampler is not safe for concurrent use.
type Resampler struct {
	src rand.Source
}

// NewResampler creates a Resampler drawing from src.
func NewResampler(src rand.Source) *Resampler {
	return &Resampler{src: src}
}

// binomial draws from Binomial(n, p).
func (r *Resampler) binomial(n int, p float64) int {
	switch {
	case n <= 0 || p <= 0:
		return 0
	case p >= 1:
		return n
	}
	return int(distuv.Binomial{N: float64(n), P: p, Src: r.src}.Rand())
}

// multinomial distributes total trials over len(weights) categories with
// probabilities weights[i]/sum(weights), sum(weights) == total. It draws each
// category conditionally on the trials left, so the result always sums to
// total.
func (r *Resampler) multinomial(weights []int, total int, out []int) {
	remaining, weight := total, total
	last := len(weights) - 1
	for i, w := range weights[:last] {
		x := r.binomial(remaining, float64(w)/float64(weight))
		out[i] = x
		remaining -= x
		weight -= w
	}
	out[last] = remaining
}

func validate(depths []int, freqs []float64, n int) error {
	if len(depths) == 0 {
		return errors.E(errors.Invalid, "bootstrap: no mutations")
	}
	if len(depths) != len(freqs) {
		return errors.E(errors.Invalid, fmt.Sprintf("bootstrap: %d depths but %d frequencies", len(depths), len(freqs)))
	}
	if n < 1 {
		return errors.E(errors.Invalid, fmt.Sprintf("bootstrap: replicate count %d, must be at least 1", n))
	}
	for i, d := range depths {
		if d < 0 {
			return errors.E(errors.Invalid, fmt.Sprintf("bootstrap: mutation %d: negative depth %d", i, d))
		}
	}
	for i, f := range freqs {
		if math.IsNaN(f) || f < 0 || f > 1 {
			return errors.E(errors.Invalid, fmt.Sprintf("bootstrap: mutation %d: frequency %v outside [0, 1]", i, f))
		}
	}
	return nil
}

// Resample draws n replicates of the given depths and frequencies, which
// must be row-aligned.
//
// Every replicate redistributes sum(depths) over the mutations. A draw that
// leaves any mutation with depth 0 is discarded and the whole matrix redrawn,
// up to MaxDrawAttempts times; zeros left after that are clamped to 1. Each
// replicate frequency is variant/depth for variant drawn from
// Binomial(depth, freq).
//
// A zero total depth is an errors.Precondition error. Inconsistent or
// out-of-range inputs, including an individual depth of 0, are errors.Invalid
// errors.
func (r *Resampler) Resample(depths []int, freqs []float64, n int) (Replicates, error) {
	if err := validate(depths, freqs, n); err != nil {
		return Replicates{}, err
	}
	total := lo.Sum(depths)
	if total == 0 {
		return Replicates{}, errors.E(errors.Precondition, "bootstrap: total depth is zero")
	}
	if i := lo.IndexOf(depths, 0); i >= 0 {
		return Replicates{}, errors.E(errors.Invalid, fmt.Sprintf("bootstrap: mutation %d has depth 0", i))
	}

	m := len(depths)
	draws := make([][]int, n)
	for j := range draws {
		draws[j] = make([]int, m)
	}
	reps := Replicates{}
	for reps.Attempts < MaxDrawAttempts {
		reps.Attempts++
		for j := range draws {
			r.multinomial(depths, total, draws[j])
		}
		if !lo.SomeBy(draws, func(d []int) bool { return lo.Contains(d, 0) }) {
			break
		}
	}
	if reps.Attempts > 1 {
		log.Debug.Printf("bootstrap: depth matrix drawn %d times", reps.Attempts)
	}

	reps.Depths = make([][]int, m)
	reps.Freqs = make([][]float64, m)
	for i := range reps.Depths {
		reps.Depths[i] = make([]int, n)
		reps.Freqs[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			d := draws[j][i]
			if d == 0 {
				d = 1
				reps.Clamped++
			}
			reps.Depths[i][j] = d
		}
	}
	if reps.Clamped > 0 {
		log.Printf("bootstrap: %d zero depths clamped to 1 after %d draws", reps.Clamped, MaxDrawAttempts)
	}
	// Frequencies are drawn replicate by replicate, after the depth matrix is
	// final.
	for j := 0; j < n; j++ {
		for i := 0; i < m; i++ {
			d := reps.Depths[i][j]
			reps.Freqs[i][j] = float64(r.binomial(d, freqs[i])) / float64(d)
		}
	}
	return reps, nil
}

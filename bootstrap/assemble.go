package bootstrap

import (
	"fmt"
	"strconv"

	"github.com/go-gota/gota/series"
	"github.com/grailbio/base/errors"
	"github.com/siddsabata/auto-mase-phi/encoding/maf"
)

// Assemble returns t with the replicate columns appended: first the n
// frequency columns Variant_Frequencies_st_bootstrap_1..n, then the n depth
// columns Total_Depth_st_bootstrap_1..n. Row i of the replicates must
// describe row i of t. t itself is left unchanged.
func Assemble(t *maf.Table, reps Replicates) (*maf.Table, error) {
	m, n := reps.Shape()
	if m != t.Len() || len(reps.Freqs) != m {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("bootstrap: %d replicate rows for %d mutations", m, t.Len()))
	}
	cols := make([]series.Series, 0, 2*n)
	for k := 1; k <= n; k++ {
		vals := make([]string, m)
		for i := range vals {
			if len(reps.Freqs[i]) != n {
				return nil, errors.E(errors.Invalid, fmt.Sprintf("bootstrap: mutation %d has %d frequency replicates, want %d", t.ID(i), len(reps.Freqs[i]), n))
			}
			vals[i] = strconv.FormatFloat(reps.Freqs[i][k-1], 'g', -1, 64)
		}
		cols = append(cols, series.New(vals, series.String, maf.BootstrapColumn(maf.VariantFrequencies, maf.Tissue, k)))
	}
	for k := 1; k <= n; k++ {
		vals := make([]string, m)
		for i := range vals {
			if len(reps.Depths[i]) != n {
				return nil, errors.E(errors.Invalid, fmt.Sprintf("bootstrap: mutation %d has %d depth replicates, want %d", t.ID(i), len(reps.Depths[i]), n))
			}
			vals[i] = strconv.Itoa(reps.Depths[i][k-1])
		}
		cols = append(cols, series.New(vals, series.String, maf.BootstrapColumn(maf.TotalDepth, maf.Tissue, k)))
	}
	return t.WithColumns(cols...)
}

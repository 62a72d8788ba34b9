// Package phylowgs converts bootstrap replicates of a mutation table into the
// simple somatic mutation (SSM) input files read by PhyloWGS.
//
// Each replicate k gets its own directory, bootstrap<k>, holding
// ssm_data_bootstrap<k>.txt and an empty cnv_data_bootstrap<k>.txt, since
// PhyloWGS requires a CNV file even when no copy-number data is available.
package phylowgs

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"github.com/siddsabata/auto-mase-phi/encoding/maf"
)

// NumReplicates is the number of bootstrap replicates converted to PhyloWGS
// inputs, independent of how many were drawn.
const NumReplicates = 5

// Fixed per-read error rates passed to PhyloWGS: the probability of
// observing the reference allele from a reference (MuR) or variant (MuV)
// population.
const (
	MuR = 0.999
	MuV = 0.499
)

// SSMHeader is the column header of an SSM file.
const SSMHeader = "id\tgene\ta\td\tmu_r\tmu_v"

// SSM is one line of a PhyloWGS SSM file.
type SSM struct {
	// ID is "s" followed by the mutation id.
	ID   string `tsv:"id"`
	Gene string `tsv:"gene"`
	// A is the reference read count, D the total depth.
	A   int     `tsv:"a"`
	D   int     `tsv:"d"`
	MuR float64 `tsv:"mu_r"`
	MuV float64 `tsv:"mu_v"`
}

// Variant returns the variant read count.
func (s SSM) Variant() int { return s.D - s.A }

// NewSSM converts one mutation at the given depth and variant allele
// frequency. Depth and variant reads are rounded half to even.
func NewSSM(id int, gene string, depth, vaf float64) (SSM, error) {
	if math.IsNaN(depth) || math.IsInf(depth, 0) || depth < 0 {
		return SSM{}, errors.Errorf("mutation %d: bad depth %v", id, depth)
	}
	if math.IsNaN(vaf) || vaf < 0 || vaf > 1 {
		return SSM{}, errors.Errorf("mutation %d: frequency %v outside [0, 1]", id, vaf)
	}
	d := math.RoundToEven(depth)
	variant := math.RoundToEven(d * vaf)
	return SSM{
		ID:   "s" + strconv.Itoa(id),
		Gene: gene,
		A:    int(d - variant),
		D:    int(d),
		MuR:  MuR,
		MuV:  MuV,
	}, nil
}

// Columns returns the bootstrap columns that replicate k is built from: its
// tissue depth and frequency. Every replicate also reads maf.HugoSymbol.
func Columns(k int) []string {
	return []string{
		maf.BootstrapColumn(maf.TotalDepth, maf.Tissue, k),
		maf.BootstrapColumn(maf.VariantFrequencies, maf.Tissue, k),
	}
}

// Records builds the SSM records of replicate k (1-based), one per row of t
// in row order.
func Records(t *maf.Table, k int) ([]SSM, error) {
	cols := Columns(k)
	genes, err := t.Strings(maf.HugoSymbol)
	if err != nil {
		return nil, err
	}
	depths, err := t.Floats(cols[0])
	if err != nil {
		return nil, err
	}
	vafs, err := t.Floats(cols[1])
	if err != nil {
		return nil, err
	}
	recs := make([]SSM, t.Len())
	for i := range recs {
		if recs[i], err = NewSSM(t.ID(i), genes[i], depths[i], vafs[i]); err != nil {
			return nil, errors.Wrapf(err, "replicate %d", k)
		}
	}
	return recs, nil
}

// Dir returns the directory of replicate k under outDir.
func Dir(outDir string, k int) string {
	return filepath.Join(outDir, fmt.Sprintf("bootstrap%d", k))
}

// SSMPath returns the SSM file of replicate k under outDir.
func SSMPath(outDir string, k int) string {
	return filepath.Join(Dir(outDir, k), fmt.Sprintf("ssm_data_bootstrap%d.txt", k))
}

// CNVPath returns the (empty) CNV file of replicate k under outDir.
func CNVPath(outDir string, k int) string {
	return filepath.Join(Dir(outDir, k), fmt.Sprintf("cnv_data_bootstrap%d.txt", k))
}

package bootstrap_test

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/testutil"
	"github.com/siddsabata/auto-mase-phi/bootstrap"
	"github.com/siddsabata/auto-mase-phi/encoding/maf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const aggregated = `Hugo_Symbol,Entrez_Gene_Id,NCBI_Build,Chromosome,Start_Position,End_Position,Reference_Allele,Allele,Variant_Frequencies_st,Variant_Frequencies_cf,Total_Depth_st,Total_Depth_cf
TP53,7157,GRCh38,17,7675088,7675088,C,T,0.25,0.01,100,800
KRAS,3845,GRCh38,12,25245350,25245350,C,A,0.5,0.02,200,900
PIK3CA,5290,GRCh38,3,179234297,179234297,A,G,0.1,0.03,300,700
`

func writeInput(t *testing.T, dir, content string) string {
	path := filepath.Join(dir, "aggregated.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func readInput(t *testing.T, dir string) *maf.Table {
	tbl, err := maf.Read(context.Background(), writeInput(t, dir, aggregated), maf.CSVOpts)
	require.NoError(t, err)
	return tbl
}

func TestAssemble(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)

	tbl := readInput(t, tmpdir)
	reps := bootstrap.Replicates{
		Depths: [][]int{{90, 110}, {210, 190}, {300, 300}},
		Freqs:  [][]float64{{0.2, 0.3}, {0.5, 0.45}, {0.1, 0.08}},
	}
	out, err := bootstrap.Assemble(tbl, reps)
	require.NoError(t, err)

	want := append(append([]string(nil), maf.AggregatedColumns...),
		"Variant_Frequencies_st_bootstrap_1",
		"Variant_Frequencies_st_bootstrap_2",
		"Total_Depth_st_bootstrap_1",
		"Total_Depth_st_bootstrap_2",
	)
	assert.Equal(t, want, out.Names())
	assert.Equal(t, len(maf.AggregatedColumns), len(tbl.Names()), "input table modified")

	d2, err := out.Ints("Total_Depth_st_bootstrap_2")
	require.NoError(t, err)
	assert.Equal(t, []int{110, 190, 300}, d2)
	f1, err := out.Floats("Variant_Frequencies_st_bootstrap_1")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.2, 0.5, 0.1}, f1)
	for i := 0; i < out.Len(); i++ {
		assert.Equal(t, tbl.ID(i), out.ID(i))
	}

	// The replicate columns exist now.
	_, err = bootstrap.Assemble(out, reps)
	assert.True(t, errors.Is(errors.Invalid, err), "%v", err)
}

func TestAssembleShapeMismatch(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)

	tbl := readInput(t, tmpdir)
	for _, reps := range []bootstrap.Replicates{
		{Depths: [][]int{{1}, {2}}, Freqs: [][]float64{{0.1}, {0.2}}},
		{Depths: [][]int{{1, 2}, {2, 3}, {3, 4}}, Freqs: [][]float64{{0.1, 0.2}, {0.2}, {0.3, 0.1}}},
		{Depths: [][]int{{1, 2}, {2}, {3, 4}}, Freqs: [][]float64{{0.1, 0.2}, {0.2, 0.1}, {0.3, 0.1}}},
		{Depths: [][]int{{1}, {2}, {3}}, Freqs: [][]float64{{0.1}}},
	} {
		_, err := bootstrap.Assemble(tbl, reps)
		assert.True(t, errors.Is(errors.Invalid, err), "%v", err)
	}
}

func TestMatricesRoundTrip(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := context.Background()

	reps, err := bootstrap.NewResampler(bootstrap.NewSource(11)).Resample(
		[]int{40, 60, 15}, []float64{0.2, 0.75, 0.01}, 7)
	require.NoError(t, err)

	path := filepath.Join(tmpdir, bootstrap.MatrixFile)
	require.NoError(t, bootstrap.WriteMatrices(ctx, path, reps))
	got, err := bootstrap.ReadMatrices(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, reps, got)

	_, err = bootstrap.ReadMatrices(ctx, filepath.Join(tmpdir, "missing.rio"))
	assert.True(t, errors.Is(errors.Invalid, err), "%v", err)
}

func TestMatricesRoundTripLargeDepths(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := context.Background()

	reps, err := bootstrap.NewResampler(bootstrap.NewSource(3)).Resample(
		[]int{3e9, 5e9}, []float64{0.3, 0.6}, 5)
	require.NoError(t, err)
	for _, d := range reps.Depths[1] {
		require.Greater(t, d, math.MaxUint32)
	}

	path := filepath.Join(tmpdir, bootstrap.MatrixFile)
	require.NoError(t, bootstrap.WriteMatrices(ctx, path, reps))
	got, err := bootstrap.ReadMatrices(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, reps, got)
}

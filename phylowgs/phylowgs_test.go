package phylowgs_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/siddsabata/auto-mase-phi/encoding/maf"
	"github.com/siddsabata/auto-mase-phi/phylowgs"
)

// augmentedCSV builds a bootstrapped table of three mutations whose replicate
// k has depth 10*k+i and frequency 0.1*k for mutation i, leaving out the
// replicates in skip.
func augmentedCSV(skip ...int) string {
	skipped := map[int]bool{}
	for _, k := range skip {
		skipped[k] = true
	}
	header := []string{maf.HugoSymbol, maf.Column(maf.TotalDepth, maf.Tissue)}
	for k := 1; k <= phylowgs.NumReplicates; k++ {
		if !skipped[k] {
			header = append(header, maf.BootstrapColumn(maf.VariantFrequencies, maf.Tissue, k))
		}
	}
	for k := 1; k <= phylowgs.NumReplicates; k++ {
		if !skipped[k] {
			header = append(header, maf.BootstrapColumn(maf.TotalDepth, maf.Tissue, k))
		}
	}
	lines := []string{strings.Join(header, ",")}
	for i, gene := range []string{"TP53", "KRAS", "PIK3CA"} {
		row := []string{gene, "100"}
		for k := 1; k <= phylowgs.NumReplicates; k++ {
			if !skipped[k] {
				row = append(row, fmt.Sprint(0.1*float64(k)))
			}
		}
		for k := 1; k <= phylowgs.NumReplicates; k++ {
			if !skipped[k] {
				row = append(row, fmt.Sprint(10*k+i))
			}
		}
		lines = append(lines, strings.Join(row, ","))
	}
	return strings.Join(lines, "\n") + "\n"
}

func readTable(t *testing.T, dir, content string) *maf.Table {
	path := filepath.Join(dir, "bootstrapped_maf.csv")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0644))
	tbl, err := maf.Read(context.Background(), path, maf.CSVOpts)
	assert.NoError(t, err)
	return tbl
}

func TestNewSSM(t *testing.T) {
	for _, test := range []struct {
		depth, vaf float64
		a, d       int
	}{
		{100, 0.25, 75, 100},
		{10, 0.5, 5, 10},
		{3, 0.5, 1, 3},     // 1.5 rounds to 2
		{5, 0.5, 3, 5},     // 2.5 rounds to 2
		{10.5, 0.1, 9, 10}, // depth 10.5 rounds to 10
		{7, 0, 7, 7},
		{7, 1, 0, 7},
		{0, 0.3, 0, 0},
	} {
		s, err := phylowgs.NewSSM(4, "TP53", test.depth, test.vaf)
		assert.NoError(t, err)
		expect.EQ(t, s.ID, "s4")
		expect.EQ(t, s.Gene, "TP53")
		expect.EQ(t, s.A, test.a, "depth %v vaf %v", test.depth, test.vaf)
		expect.EQ(t, s.D, test.d, "depth %v vaf %v", test.depth, test.vaf)
		expect.EQ(t, s.A+s.Variant(), s.D)
		expect.EQ(t, float64(s.Variant()), math.RoundToEven(float64(s.D)*test.vaf))
		expect.EQ(t, s.MuR, 0.999)
		expect.EQ(t, s.MuV, 0.499)
	}

	for _, bad := range [][2]float64{{-1, 0.5}, {math.NaN(), 0.5}, {10, 1.5}, {10, -0.1}, {10, math.NaN()}} {
		_, err := phylowgs.NewSSM(0, "x", bad[0], bad[1])
		expect.NotNil(t, err, "depth %v vaf %v", bad[0], bad[1])
	}
}

func TestWriteReplicates(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := context.Background()

	tbl := readTable(t, tmpdir, augmentedCSV())
	outDir := filepath.Join(tmpdir, "out")
	res, err := phylowgs.WriteReplicates(ctx, tbl, outDir)
	assert.NoError(t, err)
	expect.EQ(t, res.Written, []int{1, 2, 3, 4, 5})
	expect.EQ(t, len(res.Skipped), 0)

	for k := 1; k <= phylowgs.NumReplicates; k++ {
		recs, err := phylowgs.ReadSSM(ctx, phylowgs.SSMPath(outDir, k))
		assert.NoError(t, err)
		assert.EQ(t, len(recs), 3)
		for i, r := range recs {
			expect.EQ(t, r.ID, fmt.Sprintf("s%d", i))
			expect.EQ(t, r.D, 10*k+i)
			expect.EQ(t, r.A+r.Variant(), r.D)
			vaf := 0.1 * float64(k)
			expect.EQ(t, r.Variant(), int(math.RoundToEven(float64(r.D)*vaf)))
			// Rounding moves the recovered frequency by at most half a read.
			expect.True(t, math.Abs(float64(r.D-r.A)/float64(r.D)-vaf) <= 0.5/float64(r.D)+1e-9)
		}
		info, err := os.Stat(phylowgs.CNVPath(outDir, k))
		assert.NoError(t, err)
		expect.EQ(t, info.Size(), int64(0))
	}

	data, err := os.ReadFile(phylowgs.SSMPath(outDir, 2))
	assert.NoError(t, err)
	expect.EQ(t, string(data), "id\tgene\ta\td\tmu_r\tmu_v\n"+
		"s0\tTP53\t16\t20\t0.999\t0.499\n"+
		"s1\tKRAS\t17\t21\t0.999\t0.499\n"+
		"s2\tPIK3CA\t18\t22\t0.999\t0.499\n")
}

func TestWriteReplicatesSkipsMissing(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := context.Background()

	tbl := readTable(t, tmpdir, augmentedCSV(4))
	outDir := filepath.Join(tmpdir, "out")
	res, err := phylowgs.WriteReplicates(ctx, tbl, outDir)
	assert.NoError(t, err)
	expect.EQ(t, res.Written, []int{1, 2, 3, 5})
	assert.EQ(t, len(res.Skipped), 1)
	expect.EQ(t, res.Skipped[0].Replicate, 4)
	expect.EQ(t, res.Skipped[0].Missing, []string{
		maf.BootstrapColumn(maf.TotalDepth, maf.Tissue, 4),
		maf.BootstrapColumn(maf.VariantFrequencies, maf.Tissue, 4),
	})
	_, err = os.Stat(phylowgs.Dir(outDir, 4))
	expect.True(t, os.IsNotExist(err))
	_, err = os.Stat(phylowgs.SSMPath(outDir, 5))
	expect.NoError(t, err)
}

func TestWriteReplicatesFewerDrawn(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)

	tbl := readTable(t, tmpdir, augmentedCSV(3, 4, 5))
	res, err := phylowgs.WriteReplicates(context.Background(), tbl, filepath.Join(tmpdir, "out"))
	assert.NoError(t, err)
	expect.EQ(t, res.Written, []int{1, 2})
	expect.EQ(t, len(res.Skipped), 3)
}

func TestWriteReplicatesMalformed(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)

	content := strings.Replace(augmentedCSV(), "KRAS,100,0.1", "KRAS,100,1.7", 1)
	tbl := readTable(t, tmpdir, content)
	outDir := filepath.Join(tmpdir, "out")
	res, err := phylowgs.WriteReplicates(context.Background(), tbl, outDir)
	var werr *phylowgs.WriteError
	assert.True(t, errors.As(err, &werr), "%v", err)
	expect.EQ(t, werr.Replicate, 1)
	expect.EQ(t, werr.Path, phylowgs.SSMPath(outDir, 1))
	expect.EQ(t, len(res.Written), 0)
	// Nothing after the failing replicate is attempted.
	_, err = os.Stat(phylowgs.Dir(outDir, 2))
	expect.True(t, os.IsNotExist(err))
}

func TestWriteReplicatesMissingGene(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)

	content := strings.Replace(augmentedCSV(), maf.HugoSymbol, "Gene", 1)
	tbl := readTable(t, tmpdir, content)
	outDir := filepath.Join(tmpdir, "out")
	res, err := phylowgs.WriteReplicates(context.Background(), tbl, outDir)
	var werr *phylowgs.WriteError
	assert.True(t, errors.As(err, &werr), "%v", err)
	expect.EQ(t, werr.Replicate, 1)
	expect.HasSubstr(t, err.Error(), maf.HugoSymbol)
	expect.EQ(t, len(res.Written), 0)
	expect.EQ(t, len(res.Skipped), 0)
	_, err = os.Stat(outDir)
	expect.True(t, os.IsNotExist(err))
}

func TestWriteSSMLargeDepth(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := context.Background()

	s, err := phylowgs.NewSSM(0, "TP53", 5e9, 0.5)
	assert.NoError(t, err)
	path := filepath.Join(tmpdir, "ssm.txt")
	assert.NoError(t, phylowgs.WriteSSM(ctx, path, []phylowgs.SSM{s}))

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	expect.EQ(t, string(data), "id\tgene\ta\td\tmu_r\tmu_v\n"+
		"s0\tTP53\t2500000000\t5000000000\t0.999\t0.499\n")
	recs, err := phylowgs.ReadSSM(ctx, path)
	assert.NoError(t, err)
	assert.EQ(t, len(recs), 1)
	expect.EQ(t, recs[0].A, 2500000000)
	expect.EQ(t, recs[0].D, 5000000000)
	expect.EQ(t, recs[0].A+recs[0].Variant(), recs[0].D)
}

func TestWriteReplicatesUnwritable(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)

	tbl := readTable(t, tmpdir, augmentedCSV())
	// A regular file where the output directory should be.
	outDir := filepath.Join(tmpdir, "blocked")
	assert.NoError(t, os.WriteFile(outDir, nil, 0644))
	_, err := phylowgs.WriteReplicates(context.Background(), tbl, outDir)
	var werr *phylowgs.WriteError
	assert.True(t, errors.As(err, &werr), "%v", err)
	expect.EQ(t, werr.Replicate, 1)
	expect.HasSubstr(t, err.Error(), "replicate 1")
}

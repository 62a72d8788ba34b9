package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/siddsabata/auto-mase-phi/encoding/maf"
	"github.com/siddsabata/auto-mase-phi/phylowgs"
)

// Result summarizes a Run.
type Result struct {
	// Table is the input table with the replicate columns appended.
	Table      *maf.Table
	Replicates Replicates
	// Seed is the seed actually used.
	Seed     uint64
	PhyloWGS phylowgs.WriteResult
	Manifest *Manifest
}

// pickSeed returns a nonzero seed derived from the clock.
func pickSeed() uint64 {
	if s := uint64(time.Now().UnixNano()); s != 0 {
		return s
	}
	return 1
}

// Run bootstraps the tissue measurements of the aggregated table at input and
// writes the results under outDir:
//
//   - bootstrapped_maf.csv: the input table plus the replicate columns;
//   - bootstrap_matrices.rio: the raw replicates, if opts.Matrices;
//   - bootstrap<k>/: PhyloWGS inputs for the first phylowgs.NumReplicates
//     replicates, if opts.PhyloWGS;
//   - manifest.yaml: the seed, draw diagnostics and artifact checksums.
//
// Nothing is written unless resampling succeeds.
func Run(ctx context.Context, input, outDir string, opts Opts) (res Result, err error) {
	res.Seed = opts.Seed
	if res.Seed == 0 {
		res.Seed = pickSeed()
	}
	log.Printf("bootstrap: input %s, %d replicates, seed %d", input, opts.NumBootstraps, res.Seed)

	t, err := maf.Read(ctx, input, maf.CSVOpts)
	if err != nil {
		return res, err
	}
	depths, err := t.Ints(maf.Column(maf.TotalDepth, maf.Tissue))
	if err != nil {
		return res, err
	}
	freqs, err := t.Floats(maf.Column(maf.VariantFrequencies, maf.Tissue))
	if err != nil {
		return res, err
	}
	if res.Replicates, err = NewResampler(NewSource(res.Seed)).Resample(depths, freqs, opts.NumBootstraps); err != nil {
		return res, err
	}
	if res.Table, err = Assemble(t, res.Replicates); err != nil {
		return res, err
	}

	if err = os.MkdirAll(outDir, 0755); err != nil {
		return res, errors.E(err, "bootstrap: create", outDir)
	}
	m := newManifest(input, res.Seed, opts, t.Len(), res.Replicates)
	if err = maf.WriteCSV(ctx, filepath.Join(outDir, TableFile), res.Table); err != nil {
		return res, err
	}
	if err = m.addArtifact(ctx, outDir, TableFile); err != nil {
		return res, err
	}
	log.Printf("bootstrap: wrote %d mutations x %d replicates to %s", t.Len(), opts.NumBootstraps, filepath.Join(outDir, TableFile))

	if opts.Matrices {
		if err = WriteMatrices(ctx, filepath.Join(outDir, MatrixFile), res.Replicates); err != nil {
			return res, err
		}
		if err = m.addArtifact(ctx, outDir, MatrixFile); err != nil {
			return res, err
		}
	}

	if opts.PhyloWGS {
		if res.PhyloWGS, err = phylowgs.WriteReplicates(ctx, res.Table, outDir); err != nil {
			return res, err
		}
		m.PhyloWGS = newReplicas(res.PhyloWGS)
		for _, k := range res.PhyloWGS.Written {
			for _, path := range []string{phylowgs.SSMPath(outDir, k), phylowgs.CNVPath(outDir, k)} {
				rel, err := filepath.Rel(outDir, path)
				if err != nil {
					return res, err
				}
				if err = m.addArtifact(ctx, outDir, rel); err != nil {
					return res, err
				}
			}
		}
	}

	res.Manifest = m
	return res, m.Write(ctx, filepath.Join(outDir, ManifestFile))
}

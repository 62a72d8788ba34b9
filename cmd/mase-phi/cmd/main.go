package cmd

import (
	"context"
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/siddsabata/auto-mase-phi/aggregate"
	"github.com/siddsabata/auto-mase-phi/bootstrap"
	"github.com/siddsabata/auto-mase-phi/encoding/maf"
	"v.io/x/lib/cmdline"
)

// inspectRows is the number of rows printed by inspect.
const inspectRows = 5

func newCmdAggregate() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "aggregate",
		Short: "Merge the blood, tissue and germline MAF files of a patient",
		Long: `
Aggregate keeps the mutations present in both the blood (cf) and tissue (st)
MAF files, drops those also present in the germline (bc) file, and writes the
result as a CSV table with the tissue and blood frequencies and depths.`,
	}
	var in aggregate.Inputs
	cmd.Flags.StringVar(&in.Blood, "c", "", "Blood (cf) MAF file")
	cmd.Flags.StringVar(&in.Tissue, "s", "", "Tissue (st) MAF file")
	cmd.Flags.StringVar(&in.Germline, "b", "", "Germline (bc) MAF file")
	out := cmd.Flags.String("o", "", "Output CSV path")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 0 {
			return errors.Errorf("aggregate takes no positional arguments, but got %v", argv)
		}
		if err := required("c", in.Blood, "s", in.Tissue, "b", in.Germline, "o", *out); err != nil {
			return err
		}
		agg, err := aggregate.Run(context.Background(), in, *out)
		if err != nil {
			return err
		}
		fmt.Fprintf(env.Stdout, "wrote %d mutations to %s\n", agg.Len(), *out)
		return nil
	})
	return cmd
}

func newCmdBootstrap() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "bootstrap",
		Short: "Bootstrap the tissue depths and frequencies of an aggregated table",
		Long: `
Bootstrap draws replicates of the tissue read depths and variant allele
frequencies of the table written by "aggregate", and writes bootstrapped_maf.csv
and manifest.yaml to the output directory. With -p, the first five replicates
are also written as PhyloWGS SSM inputs in bootstrap1..bootstrap5.

Flag defaults can be set with MASE_PHI_NUM_BOOTSTRAPS, MASE_PHI_SEED,
MASE_PHI_PHYLOWGS and MASE_PHI_MATRICES.`,
	}
	defaults, envErr := loadEnvDefaults()
	input := cmd.Flags.String("i", "", "Aggregated CSV table")
	outDir := cmd.Flags.String("o", "", "Output directory")
	opts := bootstrap.Opts{}
	cmd.Flags.IntVar(&opts.NumBootstraps, "n", defaults.NumBootstraps, "Number of bootstrap replicates")
	cmd.Flags.BoolVar(&opts.PhyloWGS, "p", defaults.PhyloWGS, "Also write PhyloWGS inputs for the first five replicates")
	cmd.Flags.Uint64Var(&opts.Seed, "seed", defaults.Seed, "Random seed; 0 picks one and records it in the manifest")
	cmd.Flags.BoolVar(&opts.Matrices, "matrices", defaults.Matrices, "Also write the replicate matrices as a recordio archive")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if envErr != nil {
			return errors.Wrap(envErr, "environment")
		}
		if len(argv) != 0 {
			return errors.Errorf("bootstrap takes no positional arguments, but got %v", argv)
		}
		if err := required("i", *input, "o", *outDir); err != nil {
			return err
		}
		res, err := bootstrap.Run(context.Background(), *input, *outDir, opts)
		if err != nil {
			return err
		}
		fmt.Fprintf(env.Stdout, "wrote %d replicates of %d mutations to %s (seed %d)\n",
			opts.NumBootstraps, res.Table.Len(), *outDir, res.Seed)
		for _, s := range res.PhyloWGS.Skipped {
			fmt.Fprintf(env.Stdout, "skipped PhyloWGS replicate %d: missing %v\n", s.Replicate, s.Missing)
		}
		return nil
	})
	return cmd
}

func newCmdInspect() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "inspect",
		Short:    "Print the shape, columns and first rows of a MAF file",
		ArgsName: "path",
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return errors.Errorf("inspect takes one pathname argument, but got %v", argv)
		}
		t, err := maf.Read(context.Background(), argv[0], maf.MAFOpts)
		if err != nil {
			return err
		}
		fmt.Fprintf(env.Stdout, "shape: (%d, %d)\n", t.Len(), len(t.Names()))
		fmt.Fprintln(env.Stdout, "columns:")
		for _, name := range t.Names() {
			fmt.Fprintf(env.Stdout, "  %s\n", name)
		}
		head, err := t.Subset(lo.Range(min(inspectRows, t.Len())))
		if err != nil {
			return err
		}
		fmt.Fprintln(env.Stdout, head)
		return nil
	})
	return cmd
}

// required returns an error naming the first empty flag. flags holds
// name, value pairs.
func required(flags ...string) error {
	for _, p := range lo.Chunk(flags, 2) {
		if p[1] == "" {
			return errors.Errorf("-%s is required", p[0])
		}
	}
	return nil
}

func newRoot() *cmdline.Command {
	return &cmdline.Command{
		Name:     "mase-phi",
		Short:    "Preprocess patient MAF files for PhyloWGS",
		LookPath: false,
		Children: []*cmdline.Command{
			newCmdAggregate(),
			newCmdBootstrap(),
			newCmdInspect(),
		},
	}
}

// Run runs the mase-phi command line.
func Run() {
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(newRoot())
}

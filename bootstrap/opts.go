package bootstrap

// Opts configures Run.
type Opts struct {
	// NumBootstraps is the number of replicates drawn.
	NumBootstraps int
	// Seed seeds the random source. Zero means "pick one"; the seed actually
	// used is recorded in the manifest so the run can be repeated.
	Seed uint64
	// PhyloWGS also writes the per-replicate PhyloWGS SSM inputs.
	PhyloWGS bool
	// Matrices also writes the raw replicate matrices as a recordio archive.
	Matrices bool
}

// DefaultOpts sets the default values to Opts.
var DefaultOpts = Opts{
	NumBootstraps: 100, // -n
	Seed:          0,   // -seed
	PhyloWGS:      false,
	Matrices:      false,
}

// Output file names, relative to the output directory.
const (
	TableFile    = "bootstrapped_maf.csv"
	ManifestFile = "manifest.yaml"
	MatrixFile   = "bootstrap_matrices.rio"
)

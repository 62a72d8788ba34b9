package cmd

import (
	"github.com/kelseyhightower/envconfig"
	"github.com/siddsabata/auto-mase-phi/bootstrap"
)

// envPrefix namespaces the environment variables read by envDefaults.
const envPrefix = "MASE_PHI"

// envDefaults are the bootstrap flag defaults, overridable through
// MASE_PHI_<NAME> environment variables.
type envDefaults struct {
	NumBootstraps int    `envconfig:"NUM_BOOTSTRAPS"`
	Seed          uint64 `envconfig:"SEED"`
	PhyloWGS      bool   `envconfig:"PHYLOWGS"`
	Matrices      bool   `envconfig:"MATRICES"`
}

func loadEnvDefaults() (envDefaults, error) {
	d := envDefaults{
		NumBootstraps: bootstrap.DefaultOpts.NumBootstraps,
		Seed:          bootstrap.DefaultOpts.Seed,
		PhyloWGS:      bootstrap.DefaultOpts.PhyloWGS,
		Matrices:      bootstrap.DefaultOpts.Matrices,
	}
	err := envconfig.Process(envPrefix, &d)
	return d, err
}

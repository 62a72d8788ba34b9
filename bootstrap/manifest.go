package bootstrap

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"blainsmith.com/go/seahash"
	"github.com/google/uuid"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/siddsabata/auto-mase-phi/phylowgs"
	"gopkg.in/yaml.v2"
)

// Manifest records how a Run was produced and what it wrote. Runs with the
// same input, options and seed produce identical artifact checksums.
type Manifest struct {
	RunID         string     `yaml:"run_id"`
	Created       string     `yaml:"created"`
	Input         string     `yaml:"input"`
	Seed          uint64     `yaml:"seed"`
	NumBootstraps int        `yaml:"num_bootstraps"`
	Mutations     int        `yaml:"mutations"`
	DrawAttempts  int        `yaml:"draw_attempts"`
	ClampedDepths int        `yaml:"clamped_depths"`
	PhyloWGS      *Replicas  `yaml:"phylowgs,omitempty"`
	Artifacts     []Artifact `yaml:"artifacts"`
}

// Replicas summarizes the PhyloWGS replicates of a run.
type Replicas struct {
	Written []int             `yaml:"written"`
	Skipped []SkippedReplicas `yaml:"skipped,omitempty"`
}

// SkippedReplicas mirrors phylowgs.Skipped.
type SkippedReplicas struct {
	Replicate int      `yaml:"replicate"`
	Missing   []string `yaml:"missing"`
}

// Artifact is one output file, relative to the output directory.
type Artifact struct {
	Path    string `yaml:"path"`
	Bytes   int64  `yaml:"bytes"`
	Seahash string `yaml:"seahash"`
}

func newReplicas(res phylowgs.WriteResult) *Replicas {
	r := &Replicas{Written: res.Written}
	for _, s := range res.Skipped {
		r.Skipped = append(r.Skipped, SkippedReplicas{Replicate: s.Replicate, Missing: s.Missing})
	}
	return r
}

func newManifest(input string, seed uint64, opts Opts, mutations int, reps Replicates) *Manifest {
	return &Manifest{
		RunID:         uuid.NewString(),
		Created:       time.Now().UTC().Format(time.RFC3339),
		Input:         input,
		Seed:          seed,
		NumBootstraps: opts.NumBootstraps,
		Mutations:     mutations,
		DrawAttempts:  reps.Attempts,
		ClampedDepths: reps.Clamped,
	}
}

// checksum returns the size and seahash of a file.
func checksum(ctx context.Context, path string) (size int64, sum uint64, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return 0, 0, err
	}
	var e errors.Once
	h := seahash.New()
	size, err = io.Copy(h, in.Reader(ctx))
	e.Set(err)
	e.Set(in.Close(ctx))
	return size, h.Sum64(), e.Err()
}

// addArtifact checksums outDir/rel and appends it to the manifest.
func (m *Manifest) addArtifact(ctx context.Context, outDir, rel string) error {
	size, sum, err := checksum(ctx, filepath.Join(outDir, rel))
	if err != nil {
		return errors.E(err, "bootstrap: checksum", rel)
	}
	m.Artifacts = append(m.Artifacts, Artifact{Path: rel, Bytes: size, Seahash: fmt.Sprintf("%016x", sum)})
	return nil
}

// Write stores the manifest as YAML.
func (m *Manifest) Write(ctx context.Context, path string) (err error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return errors.E(err, "bootstrap: encode manifest")
	}
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "bootstrap: create", path)
	}
	defer file.CloseAndReport(ctx, out, &err)
	_, err = out.Writer(ctx).Write(data)
	return err
}

// ReadManifest loads a manifest written by Run.
func ReadManifest(ctx context.Context, path string) (*Manifest, error) {
	data, err := file.ReadFile(ctx, path)
	if err != nil {
		return nil, errors.E(errors.Invalid, "bootstrap: read manifest", path, err)
	}
	m := &Manifest{}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, errors.E(errors.Invalid, "bootstrap: decode manifest", path, err)
	}
	return m, nil
}

// Checksums maps artifact paths to their seahash.
func (m *Manifest) Checksums() map[string]string {
	sums := make(map[string]string, len(m.Artifacts))
	for _, a := range m.Artifacts {
		sums[a.Path] = a.Seahash
	}
	return sums
}

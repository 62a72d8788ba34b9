package phylowgs

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/pkg/errors"
	"github.com/siddsabata/auto-mase-phi/encoding/maf"
)

// Skipped describes a replicate that was not written because the table lacks
// some of its columns.
type Skipped struct {
	Replicate int
	Missing   []string
}

// WriteResult lists the replicates written and skipped by WriteReplicates,
// both in increasing order.
type WriteResult struct {
	Written []int
	Skipped []Skipped
}

// WriteError reports a failure to produce the files of one replicate. It
// stops WriteReplicates; replicates after it are not attempted.
type WriteError struct {
	Replicate int
	Path      string
	Err       error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("phylowgs: replicate %d: %s: %v", e.Replicate, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// WriteReplicates writes the PhyloWGS inputs of replicates 1..NumReplicates
// of t under outDir. A replicate whose depth or frequency column is missing
// from t is logged and recorded in the result, and the remaining replicates
// are still written. Any other failure, including a missing gene column, is
// returned as a *WriteError.
func WriteReplicates(ctx context.Context, t *maf.Table, outDir string) (WriteResult, error) {
	var res WriteResult
	for k := 1; k <= NumReplicates; k++ {
		if missing := t.Missing(Columns(k)...); len(missing) > 0 {
			log.Error.Printf("phylowgs: skipping replicate %d: missing columns %v", k, missing)
			res.Skipped = append(res.Skipped, Skipped{Replicate: k, Missing: missing})
			continue
		}
		if err := writeReplicate(ctx, t, outDir, k); err != nil {
			return res, err
		}
		res.Written = append(res.Written, k)
	}
	log.Printf("phylowgs: wrote %d replicates to %s", len(res.Written), outDir)
	return res, nil
}

func writeReplicate(ctx context.Context, t *maf.Table, outDir string, k int) error {
	ssmPath := SSMPath(outDir, k)
	recs, err := Records(t, k)
	if err != nil {
		return &WriteError{Replicate: k, Path: ssmPath, Err: err}
	}
	dir := Dir(outDir, k)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &WriteError{Replicate: k, Path: dir, Err: err}
	}
	if err := WriteSSM(ctx, ssmPath, recs); err != nil {
		return &WriteError{Replicate: k, Path: ssmPath, Err: err}
	}
	cnvPath := CNVPath(outDir, k)
	if err := writeEmpty(ctx, cnvPath); err != nil {
		return &WriteError{Replicate: k, Path: cnvPath, Err: err}
	}
	log.Debug.Printf("phylowgs: replicate %d: %d mutations", k, len(recs))
	return nil
}

// WriteSSM writes recs as a tab-separated SSM file with a header line.
func WriteSSM(ctx context.Context, path string, recs []SSM) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.Wrap(err, "create")
	}
	defer file.CloseAndReport(ctx, out, &err)
	w := tsv.NewWriter(out.Writer(ctx))
	w.WriteString(SSMHeader)
	if err = w.EndLine(); err != nil {
		return errors.Wrap(err, "write header")
	}
	for _, r := range recs {
		w.WriteString(r.ID)
		w.WriteString(r.Gene)
		w.WriteInt64(int64(r.A))
		w.WriteInt64(int64(r.D))
		w.WriteFloat64(r.MuR, 'f', -1)
		w.WriteFloat64(r.MuV, 'f', -1)
		if err = w.EndLine(); err != nil {
			return errors.Wrapf(err, "write %s", r.ID)
		}
	}
	if err = w.Flush(); err != nil {
		return errors.Wrap(err, "flush")
	}
	return nil
}

func writeEmpty(ctx context.Context, path string) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.Wrap(err, "create")
	}
	return out.Close(ctx)
}

// ReadSSM reads an SSM file written by WriteSSM.
func ReadSSM(ctx context.Context, path string) (recs []SSM, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}
	defer func() {
		if e := in.Close(ctx); e != nil && err == nil {
			err = e
		}
	}()
	r := tsv.NewReader(in.Reader(ctx))
	r.HasHeaderRow = true
	r.UseHeaderNames = true
	for {
		var rec SSM
		if err = r.Read(&rec); err != nil {
			if err == io.EOF {
				return recs, nil
			}
			return nil, errors.Wrapf(err, "read %s", path)
		}
		recs = append(recs, rec)
	}
}

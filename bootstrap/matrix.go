package bootstrap

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/recordio"
	"github.com/grailbio/base/recordio/recordiozstd"
)

// The matrix archive stores one recordio item per replicate. Item j holds,
// for every mutation i, Depths[i][j] as a uint64 followed by the IEEE-754
// bits of Freqs[i][j]. The trailer records the matrix shape and the draw
// diagnostics.
const (
	matrixVersionHeader = "masephi_matrix_version"
	matrixVersion       = "MATRIX_V2"
	matrixEntryBytes    = 16
)

func init() {
	recordiozstd.Init()
}

// replicate is one column of a Replicates.
type replicate struct {
	depths []int
	freqs  []float64
}

func marshalReplicate(scratch []byte, v interface{}) ([]byte, error) {
	r := v.(*replicate)
	n := len(r.depths) * matrixEntryBytes
	b := scratch
	if cap(b) < n {
		b = make([]byte, n)
	}
	b = b[:n]
	for i, d := range r.depths {
		off := i * matrixEntryBytes
		binary.LittleEndian.PutUint64(b[off:off+8], uint64(d))
		binary.LittleEndian.PutUint64(b[off+8:off+16], math.Float64bits(r.freqs[i]))
	}
	return b, nil
}

func unmarshalReplicate(in []byte) (interface{}, error) {
	if len(in)%matrixEntryBytes != 0 {
		return nil, fmt.Errorf("matrix item of %d bytes", len(in))
	}
	m := len(in) / matrixEntryBytes
	r := &replicate{depths: make([]int, m), freqs: make([]float64, m)}
	for i := range r.depths {
		off := i * matrixEntryBytes
		r.depths[i] = int(binary.LittleEndian.Uint64(in[off : off+8]))
		r.freqs[i] = math.Float64frombits(binary.LittleEndian.Uint64(in[off+8 : off+16]))
	}
	return r, nil
}

type matrixTrailer struct {
	M, N, Attempts, Clamped int64
}

func (t matrixTrailer) encode() []byte {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, t); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// WriteMatrices writes reps to path as a zstd-compressed recordio archive.
func WriteMatrices(ctx context.Context, path string, reps Replicates) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "bootstrap: create", path)
	}
	defer file.CloseAndReport(ctx, out, &err)

	m, n := reps.Shape()
	w := recordio.NewWriter(out.Writer(ctx), recordio.WriterOpts{
		Marshal:      marshalReplicate,
		Transformers: []string{recordiozstd.Name},
	})
	w.AddHeader(matrixVersionHeader, matrixVersion)
	w.AddHeader(recordio.KeyTrailer, true)
	for j := 0; j < n; j++ {
		r := &replicate{depths: make([]int, m), freqs: make([]float64, m)}
		for i := 0; i < m; i++ {
			r.depths[i] = reps.Depths[i][j]
			r.freqs[i] = reps.Freqs[i][j]
		}
		w.Append(r)
	}
	w.SetTrailer(matrixTrailer{
		M:        int64(m),
		N:        int64(n),
		Attempts: int64(reps.Attempts),
		Clamped:  int64(reps.Clamped),
	}.encode())
	if err = w.Finish(); err != nil {
		return errors.E(err, "bootstrap: write", path)
	}
	return nil
}

// ReadMatrices reads an archive written by WriteMatrices.
func ReadMatrices(ctx context.Context, path string) (reps Replicates, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return reps, errors.E(errors.Invalid, "bootstrap: open", path, err)
	}
	defer func() {
		if e := in.Close(ctx); e != nil && err == nil {
			err = e
		}
	}()
	sc := recordio.NewScanner(in.Reader(ctx), recordio.ScannerOpts{
		Unmarshal: unmarshalReplicate,
	})
	versionFound := false
	for _, kv := range sc.Header() {
		if kv.Key == matrixVersionHeader {
			if v, _ := kv.Value.(string); v != matrixVersion {
				return reps, errors.E(errors.Invalid, fmt.Sprintf("bootstrap: %s: matrix version %v, want %s", path, kv.Value, matrixVersion))
			}
			versionFound = true
		}
	}
	if !versionFound {
		if err = sc.Err(); err == nil {
			err = errors.E(errors.Invalid, "bootstrap: not a matrix archive", path)
		}
		return reps, err
	}
	var tr matrixTrailer
	if err = binary.Read(bytes.NewReader(sc.Trailer()), binary.LittleEndian, &tr); err != nil {
		return reps, errors.E(errors.Invalid, "bootstrap: matrix trailer", path, err)
	}
	m, n := int(tr.M), int(tr.N)
	reps.Attempts, reps.Clamped = int(tr.Attempts), int(tr.Clamped)
	reps.Depths = make([][]int, m)
	reps.Freqs = make([][]float64, m)
	for i := range reps.Depths {
		reps.Depths[i] = make([]int, n)
		reps.Freqs[i] = make([]float64, n)
	}
	j := 0
	for sc.Scan() {
		r := sc.Get().(*replicate)
		if j >= n || len(r.depths) != m {
			return reps, errors.E(errors.Invalid, fmt.Sprintf("bootstrap: %s: replicate %d does not match shape %dx%d", path, j+1, m, n))
		}
		for i := 0; i < m; i++ {
			reps.Depths[i][j] = r.depths[i]
			reps.Freqs[i][j] = r.freqs[i]
		}
		j++
	}
	if err = sc.Err(); err != nil {
		return reps, errors.E(err, "bootstrap: read", path)
	}
	if j != n {
		return reps, errors.E(errors.Invalid, fmt.Sprintf("bootstrap: %s: %d replicates, trailer says %d", path, j, n))
	}
	return reps, nil
}

package maf

import (
	"context"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
)

// ReadOpts controls how a delimited table is parsed.
type ReadOpts struct {
	// Delimiter separates fields.
	Delimiter rune
	// Comment, if nonzero, marks whole lines to skip. MAF files may start
	// with "#version" lines.
	Comment rune
	// LazyQuotes tolerates stray quotes inside unquoted fields.
	LazyQuotes bool
}

var (
	// MAFOpts reads tab-delimited per-sample MAF files.
	MAFOpts = ReadOpts{Delimiter: '\t', Comment: '#', LazyQuotes: true}
	// CSVOpts reads the aggregated and bootstrapped tables.
	CSVOpts = ReadOpts{Delimiter: ','}
)

// Read loads a delimited table with a header row. Gzip-compressed input is
// detected and decompressed transparently. All columns are kept as strings
// so that values the pipeline does not touch are written back unchanged.
//
// A missing, malformed, or empty input yields an errors.Invalid error.
func Read(ctx context.Context, path string, opts ReadOpts) (t *Table, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(errors.Invalid, "maf: open", path, err)
	}
	defer func() {
		if e := in.Close(ctx); e != nil && err == nil {
			err = e
		}
	}()
	r, _ := compress.NewReader(in.Reader(ctx))
	defer func() {
		if e := r.Close(); e != nil && err == nil {
			err = e
		}
	}()
	df := dataframe.ReadCSV(r,
		dataframe.WithDelimiter(opts.Delimiter),
		dataframe.WithComments(opts.Comment),
		dataframe.WithLazyQuotes(opts.LazyQuotes),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	if t, err = NewTable(df); err != nil {
		return nil, errors.E(err, "maf: read", path)
	}
	log.Debug.Printf("maf.Read: %s: %d rows, %d columns", path, t.Len(), len(t.Names()))
	return t, nil
}

// WriteCSV writes t as a comma-separated table with a header row and no
// index column.
func WriteCSV(ctx context.Context, path string, t *Table) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "maf: create", path)
	}
	defer file.CloseAndReport(ctx, out, &err)
	if err = t.df.WriteCSV(out.Writer(ctx)); err != nil {
		return errors.E(err, "maf: write", path)
	}
	return nil
}

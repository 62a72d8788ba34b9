package maf

import (
	"fmt"
	"math"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/grailbio/base/errors"
	"github.com/samber/lo"
)

// Table is an ordered mutation table. Each row carries a stable id assigned
// when the table was first built; ids survive selection, subsetting and
// column augmentation, and downstream formats use them to name mutations.
//
// A Table is never modified in place. Operations that change columns or rows
// return a new Table.
type Table struct {
	df  dataframe.DataFrame
	ids []int
}

// NewTable wraps df, numbering its rows 0..n-1.
func NewTable(df dataframe.DataFrame) (*Table, error) {
	if err := df.Error(); err != nil {
		return nil, errors.E(errors.Invalid, "maf: bad table", err)
	}
	n := df.Nrow()
	if n == 0 {
		return nil, errors.E(errors.Invalid, "maf: empty table")
	}
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i
	}
	return &Table{df: df, ids: ids}, nil
}

func (t *Table) derive(df dataframe.DataFrame, ids []int) (*Table, error) {
	if err := df.Error(); err != nil {
		return nil, errors.E(errors.Invalid, "maf: table operation", err)
	}
	if df.Nrow() != len(ids) {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("maf: %d rows but %d ids", df.Nrow(), len(ids)))
	}
	return &Table{df: df, ids: ids}, nil
}

// Frame returns the underlying data frame.
func (t *Table) Frame() dataframe.DataFrame { return t.df }

// Len returns the number of rows.
func (t *Table) Len() int { return t.df.Nrow() }

// ID returns the stable id of the given row.
func (t *Table) ID(row int) int { return t.ids[row] }

// Names returns the column names in order.
func (t *Table) Names() []string { return t.df.Names() }

// Has reports whether the table has a column with the given name.
func (t *Table) Has(col string) bool {
	return lo.Contains(t.df.Names(), col)
}

// Missing returns the subset of cols absent from the table.
func (t *Table) Missing(cols ...string) []string {
	names := t.df.Names()
	return lo.Filter(cols, func(c string, _ int) bool {
		return !lo.Contains(names, c)
	})
}

// Strings returns the raw values of a column.
func (t *Table) Strings(col string) ([]string, error) {
	if !t.Has(col) {
		return nil, errors.E(errors.Invalid, "maf: missing column", col)
	}
	return t.df.Col(col).Records(), nil
}

// Floats parses a column as float64 values.
func (t *Table) Floats(col string) ([]float64, error) {
	raw, err := t.Strings(col)
	if err != nil {
		return nil, err
	}
	vals := make([]float64, len(raw))
	for i, s := range raw {
		if vals[i], err = strconv.ParseFloat(s, 64); err != nil {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("maf: column %s, mutation %d: bad number %q", col, t.ids[i], s))
		}
	}
	return vals, nil
}

// Ints parses a column of whole numbers. Values written in float notation
// ("42.0") are accepted as long as they are integral.
func (t *Table) Ints(col string) ([]int, error) {
	vals, err := t.Floats(col)
	if err != nil {
		return nil, err
	}
	ints := make([]int, len(vals))
	for i, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("maf: column %s, mutation %d: %v is not a whole number", col, t.ids[i], v))
		}
		ints[i] = int(v)
	}
	return ints, nil
}

// Select returns a table containing only the named columns, in the given
// order.
func (t *Table) Select(cols ...string) (*Table, error) {
	if missing := t.Missing(cols...); len(missing) > 0 {
		return nil, errors.E(errors.Invalid, "maf: missing columns", fmt.Sprint(missing))
	}
	return t.derive(t.df.Select(cols), t.ids)
}

// Subset returns the given rows, in the given order, keeping their ids.
func (t *Table) Subset(rows []int) (*Table, error) {
	if len(rows) == 0 {
		return nil, errors.E(errors.Invalid, "maf: empty table")
	}
	ids := make([]int, len(rows))
	for i, r := range rows {
		ids[i] = t.ids[r]
	}
	return t.derive(t.df.Subset(rows), ids)
}

// Rename returns a table with column old renamed to name.
func (t *Table) Rename(name, old string) (*Table, error) {
	return t.derive(t.df.Rename(name, old), t.ids)
}

// Renumber returns a table whose ids are reassigned to 0..n-1 in row order.
// Tables produced by joins are renumbered so that the aggregated table
// starts a fresh id space.
func (t *Table) Renumber() *Table {
	ids := make([]int, t.Len())
	for i := range ids {
		ids[i] = i
	}
	return &Table{df: t.df, ids: ids}
}

// WithColumns returns a table with cols appended after the existing columns.
// Column names must be new.
func (t *Table) WithColumns(cols ...series.Series) (*Table, error) {
	if len(cols) == 0 {
		return t, nil
	}
	names := t.df.Names()
	for _, c := range cols {
		if lo.Contains(names, c.Name) {
			return nil, errors.E(errors.Invalid, "maf: column already exists", c.Name)
		}
		if c.Len() != t.Len() {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("maf: column %s has %d rows, table has %d", c.Name, c.Len(), t.Len()))
		}
		names = append(names, c.Name)
	}
	return t.derive(t.df.CBind(dataframe.New(cols...)), t.ids)
}

// String renders the table for human inspection.
func (t *Table) String() string {
	return t.df.String()
}

// Package aggregate combines the per-sample MAF files of one patient into the
// table consumed by the bootstrap step: mutations seen in both the blood
// (cell-free) and tissue samples, minus anything present in the germline
// sample.
package aggregate

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/samber/lo"
	"github.com/siddsabata/auto-mase-phi/encoding/maf"
)

// measurements returns t reduced to the key columns plus the two per-sample
// measurements, renamed with the sample suffix.
func measurements(t *maf.Table, s maf.Sample) (*maf.Table, error) {
	cols := append(append([]string(nil), maf.KeyColumns...), maf.VariantFrequencies, maf.TotalDepth)
	sel, err := t.Select(cols...)
	if err != nil {
		return nil, errors.E(err, fmt.Sprintf("aggregate: %s sample", s))
	}
	for _, metric := range []string{maf.VariantFrequencies, maf.TotalDepth} {
		if sel, err = sel.Rename(maf.Column(metric, s), metric); err != nil {
			return nil, err
		}
	}
	return sel, nil
}

// keys returns the mutation key of every row of t.
func keys(t *maf.Table) ([]string, error) {
	fields := make([][]string, len(maf.KeyColumns))
	for i, col := range maf.KeyColumns {
		var err error
		if fields[i], err = t.Strings(col); err != nil {
			return nil, err
		}
	}
	out := make([]string, t.Len())
	row := make([]string, len(fields))
	for r := range out {
		for i := range fields {
			row[i] = fields[i][r]
		}
		out[r] = maf.Key(row)
	}
	return out, nil
}

// Merge inner-joins the blood and tissue tables on the mutation key, drops
// every mutation whose key also occurs in the germline table, and projects the
// result onto maf.AggregatedColumns. Row order follows the blood table. Keys
// are compared as raw strings.
//
// Rows are not sorted by key, so ids differ from those of a key-sorted outer
// merge of the same inputs.
//
// The returned table is renumbered from 0. An empty result is an
// errors.Invalid error.
func Merge(cf, st, bc *maf.Table) (*maf.Table, error) {
	cfm, err := measurements(cf, maf.Blood)
	if err != nil {
		return nil, err
	}
	stm, err := measurements(st, maf.Tissue)
	if err != nil {
		return nil, err
	}
	joined := cfm.Frame().InnerJoin(stm.Frame(), maf.KeyColumns...)
	if err := joined.Error(); err != nil {
		return nil, errors.E(errors.Invalid, "aggregate: join", err)
	}
	if joined.Nrow() == 0 {
		return nil, errors.E(errors.Invalid, "aggregate: no mutations shared by blood and tissue samples")
	}
	common, err := maf.NewTable(joined)
	if err != nil {
		return nil, err
	}
	log.Debug.Printf("aggregate: %d blood, %d tissue, %d shared mutations", cf.Len(), st.Len(), common.Len())

	germline, err := keys(bc)
	if err != nil {
		return nil, errors.E(err, "aggregate: germline sample")
	}
	excluded := lo.SliceToMap(germline, func(k string) (string, struct{}) { return k, struct{}{} })
	commonKeys, err := keys(common)
	if err != nil {
		return nil, err
	}
	var rows []int
	for i, k := range commonKeys {
		if _, ok := excluded[k]; !ok {
			rows = append(rows, i)
		}
	}
	log.Debug.Printf("aggregate: %d germline mutations removed", common.Len()-len(rows))
	if len(rows) == 0 {
		return nil, errors.E(errors.Invalid, "aggregate: no mutations left after germline filtering")
	}
	somatic, err := common.Subset(rows)
	if err != nil {
		return nil, err
	}
	out, err := somatic.Select(maf.AggregatedColumns...)
	if err != nil {
		return nil, err
	}
	return out.Renumber(), nil
}

// Validate checks the aggregated table before it is written: it must be
// non-empty and at least one of the tissue and blood VAF series must have a
// nonzero value. VAF ranges are logged at debug level.
func Validate(t *maf.Table) error {
	if t == nil || t.Len() == 0 {
		return errors.E(errors.Invalid, "aggregate: no mutations found after merging and filtering")
	}
	st, err := t.Floats(maf.Column(maf.VariantFrequencies, maf.Tissue))
	if err != nil {
		return err
	}
	cf, err := t.Floats(maf.Column(maf.VariantFrequencies, maf.Blood))
	if err != nil {
		return err
	}
	if lo.Max(st) == 0 && lo.Max(cf) == 0 {
		return errors.E(errors.Invalid, "aggregate: no variants with nonzero frequency")
	}
	log.Debug.Printf("aggregate: %d mutations", t.Len())
	log.Debug.Printf("aggregate: st VAF range %.3f - %.3f", lo.Min(st), lo.Max(st))
	log.Debug.Printf("aggregate: cf VAF range %.3f - %.3f", lo.Min(cf), lo.Max(cf))
	return nil
}

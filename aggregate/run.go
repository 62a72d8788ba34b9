package aggregate

import (
	"context"

	"github.com/grailbio/base/log"
	"github.com/siddsabata/auto-mase-phi/encoding/maf"
)

// Inputs names the tab-delimited MAF files of one patient.
type Inputs struct {
	Blood    string // cell-free DNA (cf)
	Tissue   string // solid tumor (st)
	Germline string // buffy coat (bc)
}

// Run reads the three MAF files, merges and validates them, and writes the
// aggregated table to out as CSV. Nothing is written if any step fails.
func Run(ctx context.Context, in Inputs, out string) (*maf.Table, error) {
	tables := make([]*maf.Table, 3)
	for i, path := range []string{in.Blood, in.Tissue, in.Germline} {
		var err error
		if tables[i], err = maf.Read(ctx, path, maf.MAFOpts); err != nil {
			return nil, err
		}
	}
	agg, err := Merge(tables[0], tables[1], tables[2])
	if err != nil {
		return nil, err
	}
	if err := Validate(agg); err != nil {
		return nil, err
	}
	if err := maf.WriteCSV(ctx, out, agg); err != nil {
		return nil, err
	}
	log.Printf("aggregate: wrote %d mutations to %s", agg.Len(), out)
	return agg, nil
}

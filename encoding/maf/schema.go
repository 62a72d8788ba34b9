// Package maf reads and writes the mutation tables that flow through the
// mase-phi preprocessing steps: per-sample MAF files, the aggregated
// blood/tissue table, and its bootstrap-augmented form.
package maf

import (
	"fmt"
	"strings"
)

// MAF column names used by the pipeline.
const (
	HugoSymbol      = "Hugo_Symbol"
	EntrezGeneID    = "Entrez_Gene_Id"
	NCBIBuild       = "NCBI_Build"
	Chromosome      = "Chromosome"
	StartPosition   = "Start_Position"
	EndPosition     = "End_Position"
	ReferenceAllele = "Reference_Allele"
	Allele          = "Allele"

	// VariantFrequencies and TotalDepth are per-sample measurements; in the
	// aggregated table they carry a Sample suffix.
	VariantFrequencies = "Variant_Frequencies"
	TotalDepth         = "Total_Depth"
)

// KeyColumns identify a mutation across samples.
var KeyColumns = []string{
	HugoSymbol,
	EntrezGeneID,
	NCBIBuild,
	Chromosome,
	StartPosition,
	EndPosition,
	ReferenceAllele,
	Allele,
}

// Sample is the suffix distinguishing the measurements of one sequenced
// sample type.
type Sample string

const (
	// Tissue is the solid-tumor sample; only its series is resampled.
	Tissue Sample = "st"
	// Blood is the cell-free DNA sample.
	Blood Sample = "cf"
	// Germline is the buffy-coat sample used to filter inherited variants.
	Germline Sample = "bc"
)

// Column returns the name of a per-sample measurement column in the
// aggregated table, e.g. Column(TotalDepth, Tissue) = "Total_Depth_st".
func Column(metric string, s Sample) string {
	return metric + "_" + string(s)
}

// BootstrapColumn returns the name of the k'th (1-based) bootstrap replicate
// of a measurement column, e.g. "Variant_Frequencies_st_bootstrap_3".
func BootstrapColumn(metric string, s Sample, k int) string {
	return fmt.Sprintf("%s_bootstrap_%d", Column(metric, s), k)
}

// AggregatedColumns is the column order of the aggregated table.
var AggregatedColumns = append(append([]string(nil), KeyColumns...),
	Column(VariantFrequencies, Tissue),
	Column(VariantFrequencies, Blood),
	Column(TotalDepth, Tissue),
	Column(TotalDepth, Blood),
)

// Key joins the key fields of a row into a single comparable value.
func Key(fields []string) string {
	return strings.Join(fields, "\x00")
}

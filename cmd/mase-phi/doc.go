/*
mase-phi prepares patient sequencing data for tumor phylogeny reconstruction
with PhyloWGS.

The preprocessing runs in two steps. "aggregate" merges the blood (cf),
tissue (st) and germline (bc) MAF files of one patient into a single CSV
table of somatic mutations found in both blood and tissue. "bootstrap" then
draws bootstrap replicates of the tissue read depths and allele frequencies,
appends them to the table, and optionally writes the first five replicates as
PhyloWGS SSM inputs.

Sample usage:
mase-phi aggregate \
    -c MAFconversion_CF.txt \
    -s MAFconversion_ST.txt \
    -b MAFconversion_BC.txt \
    -o patient.csv
mase-phi bootstrap \
    -i patient.csv \
    -o patient-bootstrap \
    -n 100 \
    -p

Flag defaults of "bootstrap" can be set from the environment with
MASE_PHI_NUM_BOOTSTRAPS, MASE_PHI_SEED, MASE_PHI_PHYLOWGS and
MASE_PHI_MATRICES.

"inspect" prints the shape, columns and first rows of a MAF file.
*/
package main

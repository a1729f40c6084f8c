package output

import (
	"bytes"
	"encoding/csv"
	"strconv"
)

// CSVFormatter emits the per-year percentile bands as CSV, one row per
// simulated year. Sections other than the batch have no tabular shape and
// are skipped.
type CSVFormatter struct{}

func (c CSVFormatter) Name() string { return "csv" }

func (c CSVFormatter) Format(report *Report) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)

	header := []string{"Age", "RealP10", "RealP50", "RealP90", "NominalP10", "NominalP50", "NominalP90"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if b := report.Batch; b != nil {
		for _, band := range b.Bands {
			row := []string{
				strconv.Itoa(band.Age),
				band.RealP10.StringFixed(2),
				band.RealP50.StringFixed(2),
				band.RealP90.StringFixed(2),
				band.NominalP10.StringFixed(2),
				band.NominalP50.StringFixed(2),
				band.NominalP90.StringFixed(2),
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

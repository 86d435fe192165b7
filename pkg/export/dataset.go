package export

import "errors"

var errNoHeaders = errors.New("export: dataset has no headers")

// Dataset is tabular export content. Each row maps header to cell value.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// record lays row i out in header order. Missing cells are empty.
func (d Dataset) record(i int) []string {
	out := make([]string, len(d.Headers))
	for col, header := range d.Headers {
		out[col] = d.Rows[i][header]
	}
	return out
}

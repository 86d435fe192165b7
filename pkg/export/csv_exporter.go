package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// formulaLeaders are the first characters that make spreadsheets evaluate a cell.
const formulaLeaders = "=+-@\t\r"

// CSVExporter renders survey datasets as CSV. Cells starting like a formula are
// prefixed with a single quote so free-text answers stay inert in spreadsheets.
type CSVExporter struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune
}

// NewCSVExporter builds a comma separated exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{Comma: ','}
}

// Render returns the dataset as CSV bytes.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.Write(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write streams the header line and every row to w.
func (e *CSVExporter) Write(w io.Writer, data Dataset) error {
	if len(data.Headers) == 0 {
		return errNoHeaders
	}
	out := inertWriter{csv.NewWriter(w)}
	if e.Comma != 0 {
		out.Comma = e.Comma
	}
	if err := out.Writer.Write(data.Headers); err != nil {
		return fmt.Errorf("csv header: %w", err)
	}
	for i := range data.Rows {
		if err := out.writeRecord(data.record(i)); err != nil {
			return fmt.Errorf("csv row %d: %w", i+1, err)
		}
	}
	out.Flush()
	return out.Error()
}

type inertWriter struct {
	*csv.Writer
}

func (w inertWriter) writeRecord(record []string) error {
	for i, cell := range record {
		if cell != "" && strings.IndexByte(formulaLeaders, cell[0]) >= 0 {
			record[i] = "'" + cell
		}
	}
	return w.Writer.Write(record)
}

package export

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Section is a titled frequency table printed ahead of the row listing.
type Section struct {
	Title  string
	Counts map[string]int
}

// PDFExporter renders datasets into a landscape tabular PDF.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

const pageWidth = 277.0

// Render creates a PDF document with a title, optional summary sections and the table body.
func (e *PDFExporter) Render(data Dataset, title string, sections []Section) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, errNoHeaders
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(strings.ToUpper(title)), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	for _, section := range sections {
		writeSection(pdf, tr, section)
	}

	pdf.SetFont("Arial", "B", 8)
	colWidth := pageWidth / float64(len(data.Headers))
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 7, tr(header), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 7)
	maxChars := int(colWidth / 1.6)
	for i := range data.Rows {
		for _, cell := range data.record(i) {
			pdf.CellFormat(colWidth, 6, tr(truncate(cell, maxChars)), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSection(pdf *gofpdf.Fpdf, tr func(string) string, section Section) {
	if len(section.Counts) == 0 {
		return
	}
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 7, tr(section.Title), "", 1, "", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, label := range sortedLabels(section.Counts) {
		pdf.CellFormat(80, 6, tr(label), "1", 0, "", false, 0, "")
		pdf.CellFormat(25, 6, strconv.Itoa(section.Counts[label]), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(3)
}

// sortedLabels orders labels by descending count, then alphabetically.
func sortedLabels(counts map[string]int) []string {
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if counts[labels[i]] != counts[labels[j]] {
			return counts[labels[i]] > counts[labels[j]]
		}
		return labels[i] < labels[j]
	})
	return labels
}

func truncate(value string, max int) string {
	if max <= 3 || len(value) <= max {
		return value
	}
	return value[:max-3] + "..."
}

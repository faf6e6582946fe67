package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageWidth   = 277.0 // A4 landscape minus margins
	rowHeight   = 7.0
	headerFill  = 220
	stripedFill = 245
)

// PDFExporter renders datasets into a landscape agenda table.
type PDFExporter struct {
	footer string
}

// NewPDFExporter constructs a PDF exporter. footer is printed left of the page number.
func NewPDFExporter(footer string) *PDFExporter {
	return &PDFExporter{footer: footer}
}

// Render creates a PDF document with the dataset title and table body.
// Column widths follow the widths map (mm) when provided and split the remaining width evenly otherwise.
func (e *PDFExporter) Render(data Dataset, widths map[string]float64) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	cols := columnWidths(data.Headers, widths)

	if e.footer != "" {
		pdf.SetFooterFunc(func() {
			pdf.SetY(-12)
			pdf.SetFont("Arial", "I", 8)
			pdf.CellFormat(0, 8, tr(e.footer), "", 0, "L", false, 0, "")
			pdf.CellFormat(0, 8, fmt.Sprintf("%d", pdf.PageNo()), "", 0, "R", false, 0, "")
		})
	}

	writeHeader := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(headerFill, headerFill, headerFill)
		for i, header := range data.Headers {
			pdf.CellFormat(cols[i], 8, tr(header), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.AddPage()
	if data.Title != "" {
		pdf.SetFont("Arial", "B", 13)
		pdf.CellFormat(0, 10, tr(data.Title), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}
	writeHeader()

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	pdf.SetFont("Arial", "", 8)
	for idx, row := range data.Rows {
		if pdf.GetY()+rowHeight > pageHeight-bottom {
			pdf.AddPage()
			writeHeader()
			pdf.SetFont("Arial", "", 8)
		}
		fill := idx%2 == 1
		pdf.SetFillColor(stripedFill, stripedFill, stripedFill)
		for i, header := range data.Headers {
			pdf.CellFormat(cols[i], rowHeight, tr(row[header]), "1", 0, "", fill, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(data.Rows) == 0 {
		pdf.SetFont("Arial", "I", 9)
		pdf.CellFormat(0, rowHeight, tr("Nenhum agendamento no período"), "1", 1, "C", false, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func columnWidths(headers []string, widths map[string]float64) []float64 {
	out := make([]float64, len(headers))
	remaining := pageWidth
	unset := 0
	for i, h := range headers {
		if w, ok := widths[h]; ok && w > 0 {
			out[i] = w
			remaining -= w
			continue
		}
		unset++
	}
	if unset == 0 {
		return out
	}
	share := remaining / float64(unset)
	if share < 10 {
		share = 10
	}
	for i := range out {
		if out[i] == 0 {
			out[i] = share
		}
	}
	return out
}

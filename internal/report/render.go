package report

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

var tableWidths = []float64{12, 42, 42, 26, 32, 35}

type Renderer struct {
	compress bool
}

type RenderOption func(*Renderer)

// WithoutCompression leaves content streams readable, which tests rely on.
func WithoutCompression() RenderOption {
	return func(r *Renderer) {
		r.compress = false
	}
}

func NewRenderer(opts ...RenderOption) *Renderer {
	r := &Renderer{compress: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render lays doc out on Letter pages using the core Helvetica font.
func (r *Renderer) Render(doc Document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetCompression(r.compress)
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("Academic Assist", true)
	pdf.SetMargins(13, 15, 13)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	left, _, right, _ := pdf.GetMargins()
	pageWidth, _ := pdf.GetPageSize()
	width := pageWidth - left - right

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(width, 10, tr(doc.Title), "", 1, "C", false, 0, "")
	if doc.Subtitle != "" {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(width, 6, tr(doc.Subtitle), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	for _, section := range doc.Sections {
		if section.Heading != "" {
			pdf.SetFont("Helvetica", "B", 12)
			pdf.CellFormat(width, 8, tr(section.Heading), "", 1, "L", false, 0, "")
		}

		pdf.SetFont("Helvetica", "", 10)
		for _, field := range section.Fields {
			pdf.CellFormat(38, 6, tr(field.Label), "", 0, "L", false, 0, "")
			pdf.MultiCell(width-38, 6, tr(field.Value), "", "L", false)
		}
		if section.Text != "" {
			pdf.MultiCell(width, 5, tr(section.Text), "", "L", false)
		}
		if section.Table != nil {
			renderTable(pdf, tr, section.Table)
		}
		for _, line := range section.Lines {
			pdf.CellFormat(width, 6, tr(line), "", 1, "L", false, 0, "")
		}
		pdf.Ln(6)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func renderTable(pdf *fpdf.Fpdf, tr func(string) string, table *Table) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(128, 128, 128)
	pdf.SetTextColor(245, 245, 245)
	for i, h := range table.Header {
		pdf.CellFormat(tableWidths[i], 8, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetFillColor(245, 245, 220)
	pdf.SetTextColor(0, 0, 0)
	for _, row := range table.Rows {
		for i, cell := range row {
			pdf.CellFormat(tableWidths[i], 7, tr(cell), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}
}

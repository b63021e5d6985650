package receipt

import (
	"bytes"
	"strings"

	"github.com/phpdave11/gofpdf"
)

const (
	pdfMargin     = 3.0
	pdfLineHeight = 4.5
)

// PDF renders the receipt on a roll-sized page: the page width is the paper
// width and the height grows with the line count.
func PDF(r Receipt, l Layout) ([]byte, error) {
	width := float64(l.PaperWidth)
	if width <= 0 {
		width = 80
	}
	rows := 12 + len(r.Lines)
	for _, line := range r.Lines {
		if len(line.Options) > 0 {
			rows++
		}
		if line.Note != "" {
			rows++
		}
	}
	height := pdfMargin*2 + float64(rows)*pdfLineHeight

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: width, Ht: height},
	})
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	fontSize := 9.0
	if l.PaperWidth == 58 {
		fontSize = 7.5
	}
	inner := width - pdfMargin*2
	rule := func() {
		y := pdf.GetY() + pdfLineHeight/2
		pdf.SetDashPattern([]float64{0.8, 0.6}, 0)
		pdf.Line(pdfMargin, y, width-pdfMargin, y)
		pdf.SetDashPattern([]float64{}, 0)
		pdf.Ln(pdfLineHeight)
	}
	row := func(left, right string) {
		rw := pdf.GetStringWidth(right) + 1
		pdf.CellFormat(inner-rw, pdfLineHeight, tr(left), "", 0, "L", false, 0, "")
		pdf.CellFormat(rw, pdfLineHeight, tr(right), "", 1, "R", false, 0, "")
	}
	text := func(s string) {
		pdf.CellFormat(inner, pdfLineHeight, tr(s), "", 1, "L", false, 0, "")
	}

	if l.Header != "" {
		pdf.SetFont("Courier", "B", fontSize+2)
		pdf.CellFormat(inner, pdfLineHeight+1, tr(l.Header), "", 1, "C", false, 0, "")
	}
	pdf.SetFont("Courier", "", fontSize)
	rule()
	text(r.Title())
	tableLine := r.TableLabel()
	if r.DisplayName != "" {
		tableLine += " - " + r.DisplayName
	}
	text(tableLine)
	text(r.Timestamp(l.Location))
	rule()

	for _, line := range r.Lines {
		row(line.Label(), Money(line.Amount))
		if len(line.Options) > 0 {
			text("  + " + strings.Join(line.Options, ", "))
		}
		if line.Note != "" {
			text("  * " + line.Note)
		}
	}
	rule()

	total := Money(r.Total)
	if l.Currency != "" {
		total += " " + l.Currency
	}
	pdf.SetFont("Courier", "B", fontSize+1)
	row("TOTAL", total)
	pdf.SetFont("Courier", "", fontSize)
	if r.Payment != "" {
		text("Payment: " + r.Payment)
	}
	if r.Note != "" {
		text("Note: " + r.Note)
	}
	rule()
	if l.Footer != "" && !r.Addendum {
		pdf.CellFormat(inner, pdfLineHeight, tr(l.Footer), "", 1, "C", false, 0, "")
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

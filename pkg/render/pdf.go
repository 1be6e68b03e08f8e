package render

import (
	"bytes"
	"fmt"
	"image/png"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jung-kurt/gofpdf"

	"github.com/powerroof/powerroof/pkg/imagery"
	"github.com/powerroof/powerroof/pkg/metrics"
	"github.com/powerroof/powerroof/pkg/types"
)

type rgb struct {
	r, g, b int
}

var (
	amber   = rgb{245, 158, 11}
	green   = rgb{22, 163, 74}
	red     = rgb{220, 38, 38}
	blue    = rgb{37, 99, 235}
	gray900 = rgb{17, 24, 39}
	gray700 = rgb{55, 65, 81}
	gray500 = rgb{107, 114, 128}
	gray400 = rgb{156, 163, 175}
	gray300 = rgb{209, 213, 219}
	gray200 = rgb{229, 231, 235}
	gray100 = rgb{243, 244, 246}
	gray50  = rgb{250, 250, 250}
)

const (
	pageMargin  = 20.0
	lineHeight  = 5.0
	chartHeight = 55.0
	font        = "Helvetica"
)

type pdfWriter struct {
	pdf    *gofpdf.Fpdf
	tr     func(string) string
	d      types.Dossier
	images map[imageRole]string
	// usable page width and the y limit before a page break
	width  float64
	bottom float64
}

// PDF renders d as an A4 document. img may be nil; sections that expect
// imagery then draw a placeholder.
func PDF(d types.Dossier, img *imagery.Result) ([]byte, error) {
	b, err := renderPDF(d, img)
	metrics.ObserveRender("pdf", err)
	return b, err
}

func renderPDF(d types.Dossier, img *imagery.Result) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(fmt.Sprintf("%s %s: %s", d.Title, d.Subtitle, d.Facility.CompanyName), true)
	pdf.SetAuthor(d.Branding.Name, true)
	pdf.SetCreator("PowerRoof", true)

	pageW, pageH := pdf.GetPageSize()
	w := &pdfWriter{
		pdf:    pdf,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		d:      d,
		images: map[imageRole]string{},
		width:  pageW - 2*pageMargin,
		bottom: pageH - pageMargin,
	}
	w.registerImages(img)

	pdf.SetFooterFunc(func() {
		if pdf.PageNo() == 1 {
			return
		}
		pdf.SetY(-15)
		w.font("", 8, gray400)
		pdf.CellFormat(w.width*0.8, 5, w.tr(d.Branding.Footer+" | "+d.Branding.Label), "", 0, "L", false, 0, "")
		pdf.CellFormat(w.width*0.2, 5, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	for _, s := range d.Sections {
		switch s.Kind {
		case types.SectionCover:
			w.cover()
			continue
		case types.SectionDisclaimer:
			if pdf.PageNo() == 0 {
				pdf.AddPage()
			}
			pdf.Ln(8)
			w.rule(gray200, w.width)
		default:
			pdf.AddPage()
			w.h2(s.Title)
		}
		for _, b := range sectionBlocks(d, s) {
			w.block(b)
		}
	}
	if pdf.PageNo() == 0 {
		pdf.AddPage()
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// registerImages embeds the imagery that decodes cleanly. Anything else is
// left unregistered and rendered as a placeholder.
func (w *pdfWriter) registerImages(img *imagery.Result) {
	if img == nil {
		return
	}
	for role, data := range map[imageRole][]byte{imageSatellite: img.Satellite, imageOverlay: img.Overlay} {
		if _, err := png.DecodeConfig(bytes.NewReader(data)); err != nil {
			continue
		}
		name := fmt.Sprintf("imagery-%d", role)
		w.pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(data))
		if w.pdf.Ok() {
			w.images[role] = name
		}
	}
}

func (w *pdfWriter) font(style string, size float64, c rgb) {
	w.pdf.SetFont(font, style, size)
	w.pdf.SetTextColor(c.r, c.g, c.b)
}

func (w *pdfWriter) ensure(h float64) {
	if w.pdf.GetY()+h > w.bottom {
		w.pdf.AddPage()
	}
}

func (w *pdfWriter) rule(c rgb, width float64) {
	x, y := w.pdf.GetX(), w.pdf.GetY()
	w.pdf.SetDrawColor(c.r, c.g, c.b)
	w.pdf.SetLineWidth(0.4)
	w.pdf.Line(x, y, x+width, y)
	w.pdf.Ln(3)
}

func (w *pdfWriter) centered(text, style string, size float64, c rgb, h float64) {
	w.font(style, size, c)
	w.pdf.CellFormat(0, h, w.tr(text), "", 1, "C", false, 0, "")
}

func (w *pdfWriter) cover() {
	d := w.d
	w.pdf.AddPage()
	w.pdf.Ln(35)
	w.centered(d.Branding.Name, "B", 14, amber, 8)

	w.pdf.SetX(pageMargin + (w.width-40)/2)
	w.rule(amber, 40)
	w.pdf.Ln(6)

	w.centered(d.Title, "B", 28, gray900, 13)
	w.centered(d.Subtitle, "B", 20, amber, 11)
	w.pdf.Ln(10)
	w.centered(d.Facility.CompanyName, "B", 16, gray900, 8)
	if d.Facility.Zone != "" {
		w.centered(d.Facility.Zone, "", 11, gray500, 6)
	}
	w.pdf.Ln(4)
	w.centered(d.Tagline, "", 11, gray500, 6)
	w.pdf.Ln(10)
	w.centered("CONFIDENTIAL", "B", 10, red, 6)
	w.centered(d.GeneratedAt.Format("2 January 2006"), "", 10, gray500, 6)

	w.pdf.SetY(w.bottom - 20)
	w.rule(gray200, w.width)
	w.font("", 8, gray400)
	w.pdf.MultiCell(0, 4, w.tr(d.Branding.Footer+" | "+d.Branding.Label), "", "C", false)
}

func (w *pdfWriter) h2(text string) {
	w.font("B", 16, gray900)
	w.pdf.MultiCell(0, 8, w.tr(text), "", "L", false)
	w.rule(amber, 25)
	w.pdf.Ln(2)
}

func (w *pdfWriter) block(b block) {
	switch b.kind {
	case blockParagraph:
		w.font("", 10, gray700)
		w.pdf.MultiCell(0, lineHeight, w.tr(b.text), "", "L", false)
		w.pdf.Ln(2)
	case blockSmall:
		w.font("", 8, gray400)
		w.pdf.MultiCell(0, 4, w.tr(b.text), "", "L", false)
		w.pdf.Ln(2)
	case blockHeading:
		w.ensure(12)
		w.pdf.Ln(2)
		w.font("B", 12, gray900)
		w.pdf.MultiCell(0, 6, w.tr(b.text), "", "L", false)
		w.pdf.Ln(1)
	case blockCallout:
		w.callout(b)
	case blockTable:
		w.table(b)
	case blockBullets:
		w.font("", 10, gray700)
		for _, it := range b.items {
			w.pdf.MultiCell(0, lineHeight, w.tr("  • "+it), "", "L", false)
		}
		w.pdf.Ln(2)
	case blockImage:
		w.image(b)
	case blockChart:
		w.chart(b.chart)
	case blockLights:
		w.lights(b.lights)
	}
}

func toneColors(t tone) (bar, fill rgb) {
	switch t {
	case toneGood:
		return green, rgb{240, 253, 244}
	case toneWarn:
		return amber, rgb{255, 251, 235}
	case toneBad:
		return red, rgb{254, 242, 242}
	default:
		return blue, rgb{239, 246, 255}
	}
}

func (w *pdfWriter) callout(b block) {
	bar, fill := toneColors(b.tone)
	w.font("", 9.5, gray900)
	lines := w.pdf.SplitLines([]byte(w.tr(b.text)), w.width-6)
	h := float64(len(lines))*lineHeight + 4
	w.ensure(h)

	x, y := w.pdf.GetX(), w.pdf.GetY()
	w.pdf.SetFillColor(fill.r, fill.g, fill.b)
	w.pdf.Rect(x, y, w.width, h, "F")
	w.pdf.SetFillColor(bar.r, bar.g, bar.b)
	w.pdf.Rect(x, y, 1.2, h, "F")
	w.pdf.SetXY(x+4, y+2)
	w.pdf.MultiCell(w.width-6, lineHeight, w.tr(b.text), "", "L", false)
	w.pdf.SetXY(x, y+h)
	w.pdf.Ln(3)
}

func statusColor(cell string) (rgb, bool) {
	switch cell {
	case string(types.CriterionPass):
		return green, true
	case string(types.CriterionFail):
		return red, true
	case string(types.CriterionNote):
		return amber, true
	}
	return rgb{}, false
}

func (w *pdfWriter) columnWidths(weights []float64, n int) []float64 {
	if len(weights) != n {
		weights = make([]float64, n)
		for i := range weights {
			weights[i] = 1
		}
	}
	var total float64
	for _, v := range weights {
		total += v
	}
	out := make([]float64, n)
	for i, v := range weights {
		out[i] = w.width * v / total
	}
	return out
}

func (w *pdfWriter) tableRow(cells []string, widths []float64, header, bold bool) {
	const pad = 1.5
	if header {
		w.font("B", 9, gray500)
	} else {
		w.font("", 9, gray900)
	}
	maxLines := 1
	for i, c := range cells {
		if n := len(w.pdf.SplitLines([]byte(w.tr(c)), widths[i])); n > maxLines {
			maxLines = n
		}
	}
	h := float64(maxLines)*lineHeight + 2*pad
	w.ensure(h)

	x0, y := pageMargin, w.pdf.GetY()
	if header {
		w.pdf.SetFillColor(gray100.r, gray100.g, gray100.b)
		w.pdf.Rect(x0, y, w.width, h, "F")
	}
	x := x0
	for i, c := range cells {
		style := ""
		col := gray900
		switch {
		case header:
			style, col = "B", gray500
		case i == 0:
			col = gray500
		}
		if sc, ok := statusColor(c); ok && !header {
			style, col = "B", sc
		}
		if bold {
			style = "B"
		}
		w.font(style, 9, col)
		w.pdf.SetXY(x, y+pad)
		w.pdf.MultiCell(widths[i], lineHeight, w.tr(c), "", "L", false)
		x += widths[i]
	}
	w.pdf.SetDrawColor(gray200.r, gray200.g, gray200.b)
	w.pdf.SetLineWidth(0.2)
	w.pdf.Line(x0, y+h, x0+w.width, y+h)
	w.pdf.SetXY(x0, y+h)
}

func (w *pdfWriter) table(b block) {
	n := len(b.header)
	if n == 0 && len(b.rows) > 0 {
		n = len(b.rows[0])
	}
	if n == 0 {
		return
	}
	widths := w.columnWidths(b.widths, n)
	if len(b.header) > 0 {
		w.tableRow(b.header, widths, true, false)
	}
	for i, r := range b.rows {
		total := i == len(b.rows)-1 && len(r) > 0 && strings.HasPrefix(strings.ToUpper(r[0]), "TOTAL")
		w.tableRow(r, widths, false, total)
	}
	w.pdf.Ln(4)
}

func (w *pdfWriter) image(b block) {
	name, ok := w.images[b.image]
	if b.placeholder || !ok {
		h := 45.0
		w.ensure(h + 4)
		x, y := w.pdf.GetX(), w.pdf.GetY()
		w.pdf.SetFillColor(gray50.r, gray50.g, gray50.b)
		w.pdf.SetDrawColor(gray300.r, gray300.g, gray300.b)
		w.pdf.Rect(x, y, w.width, h, "FD")
		w.font("", 10, gray400)
		text := b.text
		if text == "" {
			text = "Imagery unavailable"
		}
		lines := strings.Split(text, "\n")
		w.pdf.SetXY(x+10, y+h/2-float64(len(lines)+1)*lineHeight/2)
		for i, l := range lines {
			if i == 0 {
				w.font("B", 10, gray400)
			} else {
				w.font("", 10, gray400)
			}
			w.pdf.SetX(x + 10)
			w.pdf.MultiCell(w.width-20, lineHeight, w.tr(l), "", "C", false)
		}
		w.pdf.SetXY(x, y+h)
		w.pdf.Ln(4)
		return
	}

	info := w.pdf.GetImageInfo(name)
	h := w.width * 0.625
	if info != nil && info.Width() > 0 {
		h = w.width * info.Height() / info.Width()
	}
	w.ensure(h + 8)
	x, y := w.pdf.GetX(), w.pdf.GetY()
	w.pdf.ImageOptions(name, x, y, w.width, h, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	w.pdf.SetXY(x, y+h+1)
	w.font("", 8, gray400)
	w.pdf.MultiCell(0, 4, w.tr(b.caption), "", "C", false)
	w.pdf.Ln(3)
}

func axisLabel(v float64, unit string) string {
	if math.Abs(v) >= 1000 {
		return humanize.Comma(int64(math.Round(v)))
	}
	if unit == "RM/kWh" {
		return fmt.Sprintf("%.3f", v)
	}
	return trimFloat(v)
}

// chart draws grouped vertical bars around a zero baseline.
func (w *pdfWriter) chart(c *chart) {
	if c == nil || len(c.labels) == 0 || len(c.series) == 0 {
		return
	}
	w.ensure(chartHeight + 16)
	const axisW = 18.0
	x0, y0 := w.pdf.GetX()+axisW, w.pdf.GetY()
	plotW := w.width - axisW

	lo, hi := 0.0, 0.0
	for _, s := range c.series {
		for _, v := range s.values {
			lo, hi = min(lo, v), max(hi, v)
		}
	}
	if hi == lo {
		hi = lo + 1
	}
	scale := chartHeight / (hi - lo)
	zeroY := y0 + hi*scale

	w.font("", 7, gray500)
	w.pdf.SetXY(x0-axisW, y0-2)
	w.pdf.CellFormat(axisW-1, 4, w.tr(axisLabel(hi, c.unit)), "", 0, "R", false, 0, "")
	w.pdf.SetXY(x0-axisW, y0+chartHeight-2)
	w.pdf.CellFormat(axisW-1, 4, w.tr(axisLabel(lo, c.unit)), "", 0, "R", false, 0, "")

	slot := plotW / float64(len(c.labels))
	barW := slot * 0.8 / float64(len(c.series))
	every := int(math.Ceil(float64(len(c.labels)) / 13))
	for i, label := range c.labels {
		sx := x0 + float64(i)*slot + slot*0.1
		for j, s := range c.series {
			if i >= len(s.values) {
				continue
			}
			v := s.values[i]
			bh := math.Abs(v) * scale
			by := zeroY - bh
			if v < 0 {
				by = zeroY
			}
			col := s.color
			if v < 0 {
				col = red
			}
			w.pdf.SetFillColor(col.r, col.g, col.b)
			w.pdf.Rect(sx+float64(j)*barW, by, barW, bh, "F")
		}
		if i%every == 0 {
			w.pdf.SetXY(x0+float64(i)*slot, y0+chartHeight+1)
			w.pdf.CellFormat(slot*float64(every), 4, w.tr(label), "", 0, "L", false, 0, "")
		}
	}
	w.pdf.SetDrawColor(gray400.r, gray400.g, gray400.b)
	w.pdf.SetLineWidth(0.2)
	w.pdf.Line(x0, zeroY, x0+plotW, zeroY)
	w.pdf.Line(x0, y0, x0, y0+chartHeight)

	// legend
	lx, ly := x0, y0+chartHeight+7
	for _, s := range c.series {
		w.pdf.SetFillColor(s.color.r, s.color.g, s.color.b)
		w.pdf.Rect(lx, ly+0.8, 3, 3, "F")
		w.pdf.SetXY(lx+4, ly)
		label := w.tr(s.name)
		w.pdf.CellFormat(w.pdf.GetStringWidth(label)+2, 4.5, label, "", 0, "L", false, 0, "")
		lx += w.pdf.GetStringWidth(label) + 10
	}
	w.pdf.SetXY(pageMargin, ly+8)
}

func lightColor(l types.Light) rgb {
	switch l {
	case types.LightGreen:
		return green
	case types.LightAmber:
		return amber
	default:
		return red
	}
}

func (w *pdfWriter) lights(ind []types.Indicator) {
	if len(ind) == 0 {
		return
	}
	w.ensure(14)
	x0, y := w.pdf.GetX(), w.pdf.GetY()
	cell := w.width / float64(len(ind))
	w.pdf.SetFillColor(gray50.r, gray50.g, gray50.b)
	w.pdf.Rect(x0, y, w.width, 12, "F")
	for i, in := range ind {
		c := lightColor(in.Light)
		x := x0 + float64(i)*cell
		w.pdf.SetFillColor(c.r, c.g, c.b)
		w.pdf.Circle(x+5, y+6, 2, "F")
		w.font("", 9, gray700)
		w.pdf.SetXY(x+9, y+3.5)
		w.pdf.CellFormat(cell-10, 5, w.tr(in.Label), "", 0, "L", false, 0, "")
	}
	w.pdf.SetXY(x0, y+16)
}

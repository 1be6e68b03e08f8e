package render

import (
	"fmt"
	"strings"

	"github.com/powerroof/powerroof/pkg/metrics"
	"github.com/powerroof/powerroof/pkg/types"
)

// Markdown renders d as a plain-text summary suitable for email or a chat
// message. Imagery is referenced by caption only.
func Markdown(d types.Dossier) string {
	var sb strings.Builder
	for _, s := range d.Sections {
		if s.Kind == types.SectionCover {
			mdCover(&sb, d)
			continue
		}
		if s.Kind != types.SectionDisclaimer {
			fmt.Fprintf(&sb, "## %s\n\n", s.Title)
		} else {
			sb.WriteString("---\n\n")
		}
		for _, b := range sectionBlocks(d, s) {
			mdBlock(&sb, b)
		}
	}
	metrics.ObserveRender("markdown", nil)
	return sb.String()
}

func mdCover(sb *strings.Builder, d types.Dossier) {
	fmt.Fprintf(sb, "# %s %s: %s\n\n", d.Title, d.Subtitle, d.Facility.CompanyName)
	fmt.Fprintf(sb, "**%s**", d.Branding.Name)
	if d.Facility.Zone != "" {
		fmt.Fprintf(sb, " · %s", d.Facility.Zone)
	}
	fmt.Fprintf(sb, " · %s\n\n", d.GeneratedAt.Format("2 January 2006"))
	if d.Tagline != "" {
		fmt.Fprintf(sb, "_%s_\n\n", d.Tagline)
	}
}

func mdEscape(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}

func mdRow(sb *strings.Builder, cells []string) {
	sb.WriteString("|")
	for _, c := range cells {
		sb.WriteString(" ")
		sb.WriteString(mdEscape(c))
		sb.WriteString(" |")
	}
	sb.WriteString("\n")
}

func mdTable(sb *strings.Builder, header []string, rows [][]string) {
	n := len(header)
	if n == 0 && len(rows) > 0 {
		n = len(rows[0])
		header = make([]string, n)
	}
	if n == 0 {
		return
	}
	mdRow(sb, header)
	sb.WriteString("|")
	sb.WriteString(strings.Repeat(" --- |", n))
	sb.WriteString("\n")
	for _, r := range rows {
		mdRow(sb, r)
	}
	sb.WriteString("\n")
}

func mdBlock(sb *strings.Builder, b block) {
	switch b.kind {
	case blockParagraph:
		fmt.Fprintf(sb, "%s\n\n", b.text)
	case blockSmall:
		fmt.Fprintf(sb, "_%s_\n\n", b.text)
	case blockHeading:
		fmt.Fprintf(sb, "### %s\n\n", b.text)
	case blockCallout:
		fmt.Fprintf(sb, "> %s\n\n", strings.ReplaceAll(b.text, "\n", "\n> "))
	case blockTable:
		mdTable(sb, b.header, b.rows)
	case blockBullets:
		for _, it := range b.items {
			fmt.Fprintf(sb, "- %s\n", it)
		}
		sb.WriteString("\n")
	case blockImage:
		text := b.caption
		if b.placeholder || text == "" {
			text = strings.ReplaceAll(b.text, "\n", ". ")
		}
		fmt.Fprintf(sb, "_[%s]_\n\n", text)
	case blockChart:
		if b.chart == nil {
			return
		}
		header := []string{""}
		for _, s := range b.chart.series {
			header = append(header, s.name)
		}
		rows := make([][]string, 0, len(b.chart.labels))
		for i, l := range b.chart.labels {
			row := []string{l}
			for _, s := range b.chart.series {
				if i < len(s.values) {
					row = append(row, axisLabel(s.values[i], b.chart.unit))
				} else {
					row = append(row, "")
				}
			}
			rows = append(rows, row)
		}
		mdTable(sb, header, rows)
	case blockLights:
		for _, in := range b.lights {
			fmt.Fprintf(sb, "- **%s**: %s\n", in.Label, strings.ToUpper(string(in.Light)))
		}
		sb.WriteString("\n")
	}
}

package pdf

import (
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	// rowTolerance is the fraction of the font size two glyphs may differ
	// in baseline and still share a row
	rowTolerance = 0.5
	// wordGap is the fraction of the font size a horizontal gap must exceed
	// to be read as a space
	wordGap = 0.2
)

// pageText returns the page text with one line per visual row, top to
// bottom. Pages whose content yields no positioned glyphs fall back to
// the parser's plain text.
func pageText(page pdf.Page) (string, error) {
	glyphs, ok := positionedGlyphs(page)
	if !ok || len(glyphs) == 0 {
		return page.GetPlainText(nil)
	}
	return joinRows(groupRows(glyphs)), nil
}

// positionedGlyphs reports false when the content stream could not be
// interpreted with full text state
func positionedGlyphs(page pdf.Page) (glyphs []pdf.Text, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			glyphs, ok = nil, false
		}
	}()
	return page.Content().Text, true
}

// groupRows clusters glyphs by baseline, top row first, each row ordered
// left to right. Glyphs at the same position keep content stream order.
func groupRows(glyphs []pdf.Text) [][]pdf.Text {
	sorted := make([]pdf.Text, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Y > sorted[j].Y
	})

	var rows [][]pdf.Text
	current := []pdf.Text{sorted[0]}
	currentY := sorted[0].Y
	tolerance := math.Max(sorted[0].FontSize, 1) * rowTolerance

	for _, g := range sorted[1:] {
		if math.Abs(g.Y-currentY) <= tolerance {
			current = append(current, g)
			continue
		}
		rows = append(rows, current)
		current = []pdf.Text{g}
		currentY = g.Y
		tolerance = math.Max(g.FontSize, 1) * rowTolerance
	}
	rows = append(rows, current)

	for _, row := range rows {
		sort.SliceStable(row, func(i, j int) bool {
			return row[i].X < row[j].X
		})
	}
	return rows
}

func joinRows(rows [][]pdf.Text) string {
	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		prevEnd := row[0].X
		for j, g := range row {
			if j > 0 && g.X-prevEnd > math.Max(g.FontSize, 1)*wordGap && !endsWithSpace(&b) && g.S != " " {
				b.WriteByte(' ')
			}
			b.WriteString(g.S)
			prevEnd = math.Max(prevEnd, g.X+g.W)
		}
	}
	return b.String()
}

func endsWithSpace(b *strings.Builder) bool {
	s := b.String()
	return s != "" && s[len(s)-1] == ' '
}

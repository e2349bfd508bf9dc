package app

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

const ellipsis = "…"

// fitCell pads or truncates plain text to exactly width terminal cells.
func fitCell(text string, width int) string {
	if width <= 0 {
		return ""
	}
	text = strings.ReplaceAll(text, "\n", " ")
	if runewidth.StringWidth(text) > width {
		text = runewidth.Truncate(text, width, ellipsis)
	}
	return runewidth.FillRight(text, width)
}

// truncateToWidth shortens styled text without breaking escape sequences.
func truncateToWidth(text string, width int) string {
	if width <= 0 {
		return text
	}
	if ansi.StringWidth(text) <= width {
		return text
	}
	if width == 1 {
		return ellipsis
	}
	return ansi.Truncate(text, width, ellipsis)
}

// fitColumns shrinks the widest columns until the row fits in total cells.
func fitColumns(widths []int, total int) []int {
	out := append([]int(nil), widths...)
	gaps := max(0, len(out)-1)
	for sum(out)+gaps > total {
		widest := 0
		for i := range out {
			if out[i] > out[widest] {
				widest = i
			}
		}
		if out[widest] <= 3 {
			break
		}
		out[widest]--
	}
	return out
}

func sum(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}

func renderRow(cells []string, widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		parts[i] = fitCell(cell, w)
	}
	return strings.Join(parts, " ")
}

// visibleWindow returns the [start,end) slice of n rows that keeps cursor in
// view when only height rows fit.
func visibleWindow(n, cursor, height int) (int, int) {
	if height <= 0 || n <= height {
		return 0, n
	}
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	if start+height > n {
		start = n - height
	}
	return start, start + height
}

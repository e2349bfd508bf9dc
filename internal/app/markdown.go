package app

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	glamouransi "github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	xansi "github.com/charmbracelet/x/ansi"
)

const defaultDetailWidth = 80

// detailRenderer keeps one glamour renderer for the last width seen. The
// detail pane only changes width on resize.
type detailRenderer struct {
	mu       sync.Mutex
	width    int
	renderer *glamour.TermRenderer
}

var details detailRenderer

func (d *detailRenderer) forWidth(width int) (*glamour.TermRenderer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.renderer != nil && d.width == width {
		return d.renderer, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(detailStyle()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	d.width, d.renderer = width, r
	return r, nil
}

// renderMarkdown renders a record's detail block, falling back to the raw
// text when glamour fails.
func renderMarkdown(input string, width int) string {
	input = strings.TrimRight(input, "\n")
	if input == "" {
		return ""
	}
	if width <= 0 {
		width = defaultDetailWidth
	}
	r, err := details.forWidth(width)
	if err != nil {
		return input
	}
	out, err := r.Render(input)
	if err != nil {
		return input
	}
	return strings.TrimRight(xansi.Hardwrap(strings.TrimRight(out, "\n"), width, true), "\n")
}

func detailStyle() glamouransi.StyleConfig {
	cfg := styles.DarkStyleConfig
	margin := uint(0)
	cfg.Document.Margin = &margin
	cfg.Document.StylePrimitive.BlockPrefix = ""
	cfg.Document.StylePrimitive.BlockSuffix = ""
	return cfg
}

var markdownEscaper = strings.NewReplacer(
	"\n", " ",
	"`", "\\`",
	"*", "\\*",
	"_", "\\_",
	"#", "\\#",
	"[", "\\[",
	"]", "\\]",
)

// escapeMarkdown keeps record fields from being read as markdown syntax.
func escapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}

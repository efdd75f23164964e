package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"codearh/internal/cache"
	"codearh/internal/logging"
)

const renderCacheSize = 256

type renderKey struct {
	text  string
	width int
}

// markdownRenderer renders assistant replies. The glamour renderer is rebuilt
// when the width changes. Results are cached per text and width.
type markdownRenderer struct {
	style    string
	width    int
	renderer *glamour.TermRenderer
	rendered *cache.LRUCache[renderKey, string]
}

func newMarkdownRenderer(style string) *markdownRenderer {
	if style == "" {
		style = "dark"
	}
	return &markdownRenderer{
		style:    style,
		rendered: cache.NewLRUCache[renderKey, string](renderCacheSize, 0),
	}
}

// Render returns md rendered for width columns, or md itself when
// rendering fails.
func (r *markdownRenderer) Render(md string, width int) string {
	if width <= 0 {
		width = 80
	}
	key := renderKey{text: md, width: width}
	if out, ok := r.rendered.Get(key); ok {
		return out
	}
	if r.renderer == nil || r.width != width {
		tr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(r.style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			logging.Warn("markdown renderer unavailable", "style", r.style, "error", err)
			return md
		}
		r.renderer, r.width = tr, width
	}
	out, err := r.renderer.Render(md)
	if err != nil {
		return md
	}
	out = strings.Trim(out, "\n")
	r.rendered.Set(key, out)
	return out
}

package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// avgCharWidthRatio estimates a glyph's width as a fraction of the font size
const avgCharWidthRatio = 0.6

var drawTextEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `'\\''`,
	`"`, `\"`,
	`:`, `\:`,
	`[`, `\[`,
	`]`, `\]`,
	`,`, `\,`,
	`;`, `\;`,
)

// EscapeDrawText escapes characters that are special inside a drawtext filter
func EscapeDrawText(text string) string {
	return drawTextEscaper.Replace(text)
}

// TextLayout turns text into drawtext clauses for one styled region
type TextLayout struct {
	style      TextStyle
	videoWidth int
}

func NewTextLayout(style TextStyle, videoWidth int) *TextLayout {
	return &TextLayout{style: style, videoWidth: videoWidth}
}

// CharsPerLine estimates how many characters fit on one line
func (l *TextLayout) CharsPerLine() int {
	maxWidth := l.style.Wrap.MaxLineWidth
	if maxWidth <= 0 {
		maxWidth = 1
	}
	if maxWidth <= 1 {
		maxWidth = float64(l.videoWidth) * maxWidth
	}

	avgCharWidth := float64(l.style.FontSize) * avgCharWidthRatio
	if avgCharWidth <= 0 {
		return math.MaxInt32
	}

	chars := int(math.Floor(maxWidth / avgCharWidth))
	if chars < 1 {
		chars = 1
	}
	return chars
}

// Wrap splits text into display lines. Explicit newlines always break.
func (l *TextLayout) Wrap(text string) []string {
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		if !l.style.Wrap.Enabled {
			lines = append(lines, paragraph)
			continue
		}
		lines = append(lines, wrapWords(strings.Fields(paragraph), l.CharsPerLine())...)
	}
	return lines
}

// wrapWords packs words greedily by rune count, force-splitting words longer
// than a line.
func wrapWords(words []string, charsPerLine int) []string {
	var lines []string
	var current []rune

	for _, word := range words {
		w := []rune(word)

		candidate := len(w)
		if len(current) > 0 {
			candidate += len(current) + 1
		}
		if candidate <= charsPerLine {
			if len(current) > 0 {
				current = append(current, ' ')
			}
			current = append(current, w...)
			continue
		}

		if len(current) > 0 {
			lines = append(lines, string(current))
			current = nil
		}

		for len(w) > charsPerLine {
			lines = append(lines, string(w[:charsPerLine]))
			w = w[charsPerLine:]
		}
		current = append(current, w...)
	}

	if len(current) > 0 {
		lines = append(lines, string(current))
	}
	return lines
}

// LineHeight is fontSize times line spacing
func (l *TextLayout) LineHeight() float64 {
	spacing := l.style.Wrap.LineSpacing
	if spacing <= 0 {
		spacing = DefaultLineSpacing
	}
	return float64(l.style.FontSize) * spacing
}

// LineY returns the y expression of line i out of n
func (l *TextLayout) LineY(i, n int) string {
	base := l.style.Position.Y
	if n <= 1 {
		return base
	}

	lh := l.LineHeight()
	if l.anchor() == AnchorBottom {
		return base + "-" + formatNumber(float64(n-1-i)*lh)
	}
	return base + "+" + formatNumber(float64(i)*lh)
}

// anchor falls back to guessing from the y expression when unset
func (l *TextLayout) anchor() Anchor {
	if l.style.Anchor != "" {
		return l.style.Anchor
	}
	if strings.Contains(l.style.Position.Y, "h-") {
		return AnchorBottom
	}
	return AnchorTop
}

// Filters returns one drawtext clause per wrapped line
func (l *TextLayout) Filters(fontPath, text string) []string {
	lines := l.Wrap(text)
	filters := make([]string, 0, len(lines))
	for i, line := range lines {
		filters = append(filters, l.drawText(fontPath, line, l.LineY(i, len(lines))))
	}
	return filters
}

// FilterString joins the per-line clauses into one filter chain fragment
func (l *TextLayout) FilterString(fontPath, text string) string {
	return strings.Join(l.Filters(fontPath, text), ",")
}

func (l *TextLayout) drawText(fontPath, line, y string) string {
	s := l.style

	var b strings.Builder
	b.WriteString("drawtext=")
	if fontPath != "" {
		fmt.Fprintf(&b, "fontfile='%s':", escapeFontPath(fontPath))
	}
	fmt.Fprintf(&b, "text='%s':fontcolor=%s:fontsize=%d", EscapeDrawText(line), s.FontColor, s.FontSize)

	if s.Box.Enabled {
		fmt.Fprintf(&b, ":box=1:boxcolor=%s:boxborderw=%d", s.Box.Color, s.Box.BorderWidth)
	}

	fmt.Fprintf(&b, ":x=%s:y=%s", s.Position.X, y)

	if s.Shadow.Enabled {
		fmt.Fprintf(&b, ":shadowx=%d:shadowy=%d:shadowcolor=%s", s.Shadow.X, s.Shadow.Y, s.Shadow.Color)
	}
	return b.String()
}

// escapeFontPath makes Windows drive paths usable inside a filter option
func escapeFontPath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	return strings.ReplaceAll(p, ":", `\:`)
}

// formatNumber rounds to two decimals and drops trailing zeros
func formatNumber(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

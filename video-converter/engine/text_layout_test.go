package engine

import (
	"reflect"
	"strings"
	"testing"
)

func TestEscapeDrawText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"a:b", `a\:b`},
		{"it's", `it'\\''s`},
		{`a\b`, `a\\b`},
		{`[x], y; "z"`, `\[x\]\, y\; \"z\"`},
		{"안녕: 세계", `안녕\: 세계`},
	}

	for _, tt := range tests {
		if got := EscapeDrawText(tt.in); got != tt.want {
			t.Errorf("EscapeDrawText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func narrowStyle() TextStyle {
	style := DefaultTextStyle()
	style.FontSize = 20
	style.Wrap.MaxLineWidth = 120 // 120 / (20*0.6) = 10 chars
	style.Wrap.LineSpacing = 1.5
	return style
}

func TestCharsPerLine(t *testing.T) {
	if got := NewTextLayout(DefaultTextStyle(), 1280).CharsPerLine(); got != 30 {
		t.Errorf("fractional width: CharsPerLine() = %d, want 30", got)
	}
	if got := NewTextLayout(narrowStyle(), 1280).CharsPerLine(); got != 10 {
		t.Errorf("pixel width: CharsPerLine() = %d, want 10", got)
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"fits", "short", []string{"short"}},
		{"greedy", "aaaa bbbb cccc", []string{"aaaa bbbb", "cccc"}},
		{"exact fit", "aaaa bbbbb", []string{"aaaa bbbbb"}},
		{"force split", "hi abcdefghijklmnopqrstuvwxy ok", []string{"hi", "abcdefghij", "klmnopqrst", "uvwxy ok"}},
		{"runes not bytes", "가나다라마바사아자차카", []string{"가나다라마바사아자차", "카"}},
		{"explicit newline", "one\ntwo", []string{"one", "two"}},
		{"collapses spaces", "  a   b  ", []string{"a b"}},
		{"empty", "", nil},
	}

	layout := NewTextLayout(narrowStyle(), 1280)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := layout.Wrap(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Wrap(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestWrapDisabled(t *testing.T) {
	style := narrowStyle()
	style.Wrap.Enabled = false
	got := NewTextLayout(style, 1280).Wrap("a very long line that would otherwise wrap")
	if len(got) != 1 {
		t.Errorf("Wrap() returned %d lines, want 1", len(got))
	}
}

func TestLineY(t *testing.T) {
	top := narrowStyle()
	top.Position.Y = "h*3/4"
	top.Anchor = AnchorTop

	bottom := narrowStyle()
	bottom.Position.Y = "h-th-50"
	bottom.Anchor = AnchorBottom

	tests := []struct {
		name  string
		style TextStyle
		want  []string
	}{
		{"top", top, []string{"h*3/4+0", "h*3/4+30", "h*3/4+60"}},
		{"bottom", bottom, []string{"h-th-50-60", "h-th-50-30", "h-th-50-0"}},
	}

	for _, tt := range tests {
		layout := NewTextLayout(tt.style, 1280)
		for i, want := range tt.want {
			if got := layout.LineY(i, len(tt.want)); got != want {
				t.Errorf("%s: LineY(%d) = %q, want %q", tt.name, i, got, want)
			}
		}
	}

	if got := NewTextLayout(top, 1280).LineY(0, 1); got != "h*3/4" {
		t.Errorf("single line LineY = %q, want base position", got)
	}
}

func TestLineYDefaultSpacing(t *testing.T) {
	layout := NewTextLayout(DefaultTextStyle(), 1280)
	if got := layout.LineY(1, 3); got != "h*3/4+67.2" {
		t.Errorf("LineY(1) = %q", got)
	}
	if got := layout.LineY(2, 3); got != "h*3/4+134.4" {
		t.Errorf("LineY(2) = %q", got)
	}
}

func TestAnchorInferredFromPosition(t *testing.T) {
	style := narrowStyle()
	style.Anchor = ""
	style.Position.Y = "h-th-20"
	if got := NewTextLayout(style, 1280).LineY(0, 2); got != "h-th-20-30" {
		t.Errorf("LineY = %q, want bottom growth", got)
	}
}

func TestFilterString(t *testing.T) {
	single := NewTextLayout(DefaultTextStyle(), 1280).FilterString("", "Hello")
	want := "drawtext=text='Hello':fontcolor=white:fontsize=56" +
		":box=1:boxcolor=black@0.5:boxborderw=5" +
		":x=(w-text_w)/2:y=h*3/4" +
		":shadowx=2:shadowy=2:shadowcolor=black@0.3"
	if single != want {
		t.Errorf("FilterString() =\n%s\nwant\n%s", single, want)
	}

	withFont := NewTextLayout(DefaultTextStyle(), 1280).FilterString("/fonts/a.ttf", "Hello")
	if !strings.HasPrefix(withFont, "drawtext=fontfile='/fonts/a.ttf':text='Hello'") {
		t.Errorf("font file not set: %s", withFont)
	}

	style := narrowStyle()
	style.Box.Enabled = false
	style.Shadow.Enabled = false
	multi := NewTextLayout(style, 1280).FilterString("", "aaaa bbbb cccc")
	clauses := strings.Split(multi, ",drawtext=")
	if len(clauses) != 2 {
		t.Fatalf("expected 2 drawtext clauses, got %d: %s", len(clauses), multi)
	}
	if !strings.Contains(clauses[0], "text='aaaa bbbb'") || !strings.HasSuffix(clauses[0], "y=h*3/4+0") {
		t.Errorf("first clause = %s", clauses[0])
	}
	if !strings.Contains(clauses[1], "text='cccc'") || !strings.HasSuffix(clauses[1], "y=h*3/4+30") {
		t.Errorf("second clause = %s", clauses[1])
	}
	if strings.Contains(multi, "box=1") || strings.Contains(multi, "shadowx") {
		t.Errorf("disabled box/shadow rendered: %s", multi)
	}
}

func TestEscapeFontPath(t *testing.T) {
	if got := escapeFontPath(`C:\Windows\Fonts\arial.ttf`); got != `C\:/Windows/Fonts/arial.ttf` {
		t.Errorf("escapeFontPath = %q", got)
	}
}

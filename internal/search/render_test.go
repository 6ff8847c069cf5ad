package search

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plainRenderConfig() RenderConfig {
	plain := lipgloss.NewStyle()
	return RenderConfig{
		PromptStyle:  plain,
		TextStyle:    plain,
		CursorStyle:  plain,
		PanelStyle:   plain,
		ItemStyle:    plain,
		FocusedStyle: plain,
		HintStyle:    plain,
	}
}

func TestRenderInputLine(t *testing.T) {
	r := NewRenderer(plainRenderConfig())

	t.Run("cursor at end", func(t *testing.T) {
		line := r.RenderInputLine("> ", NewBufferWithText("hello"), true, "")
		assert.Equal(t, "> hello ", line)
	})

	t.Run("cursor in the middle", func(t *testing.T) {
		b := NewBufferWithText("hello")
		b.SetPos(1)
		line := r.RenderInputLine("> ", b, true, "")
		assert.Equal(t, "> hello", line)
	})

	t.Run("unfocused has no cursor cell", func(t *testing.T) {
		line := r.RenderInputLine("> ", NewBufferWithText("hello"), false, "")
		assert.Equal(t, "> hello", line)
	})

	t.Run("status icon", func(t *testing.T) {
		line := r.RenderInputLine("> ", NewBufferWithText("go"), false, "✓")
		assert.Equal(t, "> go ✓", line)
	})
}

func TestRenderInputLine_LongQueryScrolls(t *testing.T) {
	r := NewRenderer(plainRenderConfig())
	r.SetWidth(20)
	alphabet := "abcdefghijklmnopqrstuvwxyz"

	t.Run("cursor at end keeps the tail", func(t *testing.T) {
		line := r.RenderInputLine("> ", NewBufferWithText(alphabet), true, "")
		assert.Equal(t, "> jklmnopqrstuvwxyz ", line)
	})

	t.Run("cursor at start keeps the head", func(t *testing.T) {
		b := NewBufferWithText(alphabet)
		b.SetPos(0)
		line := r.RenderInputLine("> ", b, true, "")
		assert.Equal(t, "> abcdefghijklmnopqr", line)
	})

	t.Run("styled prompt and status take their printable width", func(t *testing.T) {
		line := r.RenderInputLine("\x1b[1m> \x1b[0m", NewBufferWithText(alphabet), true, "*")
		assert.Equal(t, "\x1b[1m> \x1b[0mlmnopqrstuvwxyz  *", line)
	})

	t.Run("wide characters count two cells", func(t *testing.T) {
		line := r.RenderInputLine("> ", NewBufferWithText("世界世界世界世界世界"), true, "")
		assert.Equal(t, "> 界世界世界世界世界 ", line)
	})
}

func TestRenderSuggestions(t *testing.T) {
	r := NewRenderer(plainRenderConfig())

	t.Run("empty list renders nothing", func(t *testing.T) {
		assert.Equal(t, "", r.RenderSuggestions(nil, InputFocus(), 5))
	})

	t.Run("marks the focused item", func(t *testing.T) {
		out := r.RenderSuggestions([]string{"alpha", "beta"}, SuggestionFocus(1), 5)
		lines := strings.Split(out, "\n")
		require.Len(t, lines, 2)
		assert.Contains(t, lines[0], "  alpha")
		assert.NotContains(t, lines[0], ">")
		assert.Contains(t, lines[1], "> beta")
	})

	t.Run("no marker while the input has focus", func(t *testing.T) {
		out := r.RenderSuggestions([]string{"alpha", "beta"}, InputFocus(), 5)
		assert.NotContains(t, out, ">")
	})

	t.Run("single row window shows the focused item", func(t *testing.T) {
		items := []string{"a0", "a1", "a2", "a3", "a4", "a5"}
		for i := range items {
			out := r.RenderSuggestions(items, SuggestionFocus(i), 1)
			assert.Contains(t, out, "> "+items[i])
		}
	})

	t.Run("scrolls to keep focus visible", func(t *testing.T) {
		items := []string{"i0", "i1", "i2", "i3", "i4", "i5", "i6", "i7"}
		out := r.RenderSuggestions(items, SuggestionFocus(7), 3)
		lines := strings.Split(out, "\n")
		require.Len(t, lines, 3)
		assert.Contains(t, lines[0], "↑   5")
		assert.Contains(t, lines[2], "> i7")
		assert.NotContains(t, out, "i4")
	})

	t.Run("more below indicator", func(t *testing.T) {
		items := []string{"i0", "i1", "i2", "i3", "i4"}
		out := r.RenderSuggestions(items, InputFocus(), 3)
		lines := strings.Split(out, "\n")
		require.Len(t, lines, 3)
		assert.Contains(t, lines[2], "↓   2")
	})

	t.Run("truncates long items to the width", func(t *testing.T) {
		narrow := NewRenderer(plainRenderConfig())
		narrow.SetWidth(20)
		out := narrow.RenderSuggestions([]string{strings.Repeat("x", 50)}, InputFocus(), 5)
		assert.Contains(t, out, "…")
		assert.NotContains(t, out, strings.Repeat("x", 20))
	})
}

func TestRenderView(t *testing.T) {
	r := NewRenderer(plainRenderConfig())

	out := r.RenderView("> ", NewBufferWithText("go"), InputFocus(), "", []string{"gopher"}, 5)
	assert.True(t, strings.HasPrefix(out, "\r\033[K> go "))
	assert.Contains(t, out, "gopher")

	out = r.RenderView("> ", NewBufferWithText("go"), InputFocus(), "", nil, 5)
	assert.NotContains(t, out, "\n")
}

func TestRendererSetWidth(t *testing.T) {
	r := NewRenderer(DefaultRenderConfig())
	assert.Equal(t, 80, r.Width())
	r.SetWidth(0)
	assert.Equal(t, 80, r.Width())
	r.SetWidth(120)
	assert.Equal(t, 120, r.Width())
}

func TestCalculateVisibleWindow(t *testing.T) {
	tests := []struct {
		name                 string
		selected, total, max int
		wantStart, wantEnd   int
	}{
		{"fits", 0, 3, 5, 0, 3},
		{"top", 0, 10, 4, 0, 4},
		{"middle", 5, 10, 4, 4, 8},
		{"bottom", 9, 10, 4, 6, 10},
		{"near bottom", 8, 10, 4, 6, 10},
		{"single row", 5, 10, 1, 5, 6},
		{"single row near bottom", 8, 10, 1, 8, 9},
		{"single row second", 1, 10, 1, 1, 2},
		{"two rows", 5, 10, 2, 4, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := calculateVisibleWindow(tt.selected, tt.total, tt.max)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

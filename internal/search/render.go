package search

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/ansi"
	"github.com/muesli/reflow/truncate"
	"github.com/rivo/uniseg"
)

const (
	// scrollIndicatorWidth is the width of "↑ nnn" plus its padding.
	scrollIndicatorWidth = 5
	// markerWidth is the width of the "> " focus marker.
	markerWidth = 2
)

// RenderConfig holds styling configuration for the search box.
type RenderConfig struct {
	// PromptStyle is the style applied to the prompt string.
	PromptStyle lipgloss.Style

	// TextStyle is the style applied to the query text.
	TextStyle lipgloss.Style

	// CursorStyle is the style applied to the cursor character.
	CursorStyle lipgloss.Style

	// PanelStyle is the style of the suggestion list container.
	PanelStyle lipgloss.Style

	// ItemStyle is the style of unfocused suggestions.
	ItemStyle lipgloss.Style

	// FocusedStyle is the style of the focused suggestion.
	FocusedStyle lipgloss.Style

	// HintStyle is the style of scroll indicators.
	HintStyle lipgloss.Style
}

// DefaultRenderConfig returns a RenderConfig with the default styles.
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		PromptStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		TextStyle:   lipgloss.NewStyle(),
		CursorStyle: lipgloss.NewStyle().Reverse(true),
		PanelStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("11")),
		ItemStyle:    lipgloss.NewStyle(),
		FocusedStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13")),
		HintStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// Renderer renders the search box.
type Renderer struct {
	config RenderConfig
	width  int
}

// NewRenderer creates a new Renderer with the given configuration.
func NewRenderer(config RenderConfig) *Renderer {
	return &Renderer{
		config: config,
		width:  80,
	}
}

// SetWidth sets the terminal width for rendering.
func (r *Renderer) SetWidth(width int) {
	if width > 0 {
		r.width = width
	}
}

// Width returns the current terminal width.
func (r *Renderer) Width() int {
	return r.width
}

// RenderInputLine renders the prompt, the query with its cursor and the
// status icon. The cursor is only drawn while the input has focus. A query
// wider than the line scrolls so the cursor stays visible.
func (r *Renderer) RenderInputLine(prompt string, buffer *Buffer, focused bool, status string) string {
	var b strings.Builder
	b.WriteString(r.config.PromptStyle.Render(prompt))

	before, after := r.visibleText(prompt, buffer, status)

	if before != "" {
		b.WriteString(r.config.TextStyle.Render(before))
	}

	if focused {
		cursorChar := " "
		if len(after) > 0 {
			cursorChar = string(after[0])
			after = after[1:]
		}
		b.WriteString(r.config.CursorStyle.Render(cursorChar))
	}

	if len(after) > 0 {
		b.WriteString(r.config.TextStyle.Render(string(after)))
	}

	if status != "" {
		b.WriteString(" ")
		b.WriteString(status)
	}

	return b.String()
}

// visibleText returns the parts of the query before and after the cursor
// that fit between the prompt and the status icon. Text is dropped from the
// left until the cursor cell fits, then cut on the right.
func (r *Renderer) visibleText(prompt string, buffer *Buffer, status string) (string, []rune) {
	room := r.width - ansi.PrintableRuneWidth(prompt)
	if status != "" {
		room -= 1 + ansi.PrintableRuneWidth(status)
	}
	room = max(1, room)

	before := []rune(buffer.TextBeforeCursor())
	after := buffer.TextAfterCursor()

	width := buffer.CursorColumn()
	for len(before) > 0 && width+1 > room {
		width -= uniseg.StringWidth(string(before[0]))
		before = before[1:]
	}

	return string(before), []rune(truncate.String(after, uint(room-width)))
}

// RenderSuggestions renders the suggestion list in a panel, scrolling so the
// focused item stays visible. Returns "" for an empty list.
func (r *Renderer) RenderSuggestions(suggestions []string, focus Focus, maxVisible int) string {
	total := len(suggestions)
	if total == 0 {
		return ""
	}
	if maxVisible <= 0 {
		maxVisible = 5
	}

	focused := -1
	if focus.Target == FocusSuggestion {
		focused = focus.Index
	}

	start, end := calculateVisibleWindow(max(focused, 0), total, maxVisible)

	// Room inside the panel border for the item text.
	itemWidth := max(1, r.width-4-scrollIndicatorWidth-markerWidth)

	var content strings.Builder
	for i := start; i < end; i++ {
		if i > start {
			content.WriteString("\n")
		}

		posInWindow := i - start
		switch {
		case posInWindow == 0 && start > 0:
			content.WriteString(r.config.HintStyle.Render(formatScrollIndicator("↑", start)))
		case posInWindow == maxVisible-1 && end < total:
			content.WriteString(r.config.HintStyle.Render(formatScrollIndicator("↓", total-end)))
		default:
			content.WriteString(strings.Repeat(" ", scrollIndicatorWidth))
		}

		item := truncate.StringWithTail(suggestions[i], uint(itemWidth), "…")
		if i == focused {
			content.WriteString("> ")
			content.WriteString(r.config.FocusedStyle.Render(item))
		} else {
			content.WriteString("  ")
			content.WriteString(r.config.ItemStyle.Render(item))
		}
	}

	return r.config.PanelStyle.
		Width(max(1, r.width-2)).
		Render(content.String())
}

// RenderView renders the full search box: the input line followed by the
// suggestion list when there is one.
func (r *Renderer) RenderView(prompt string, buffer *Buffer, focus Focus, status string, suggestions []string, maxVisible int) string {
	var result strings.Builder

	// Start at column 0 in case log output left the cursor mid-line.
	result.WriteString("\r\033[K")
	result.WriteString(r.RenderInputLine(prompt, buffer, focus.Target == FocusInput, status))

	if list := r.RenderSuggestions(suggestions, focus, maxVisible); list != "" {
		result.WriteString("\n")
		result.WriteString(list)
	}

	return result.String()
}

// calculateVisibleWindow determines the start and end indices for a scrolling window.
func calculateVisibleWindow(selected, total, maxVisible int) (start, end int) {
	if total <= maxVisible {
		return 0, total
	}

	// Keep the selection roughly in the middle.
	if selected < 2 {
		start = 0
	} else if selected >= total-2 {
		start = total - maxVisible
	} else {
		start = selected - 1
	}

	// Small windows cannot center, so keep the selection inside.
	if selected >= start+maxVisible {
		start = selected - maxVisible + 1
	}
	if selected < start {
		start = selected
	}

	end = start + maxVisible
	if end > total {
		end = total
		start = max(0, end-maxVisible)
	}

	return start, end
}

func formatScrollIndicator(arrow string, count int) string {
	return fmt.Sprintf("%s %3d", arrow, count)
}

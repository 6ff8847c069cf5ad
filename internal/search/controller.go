// Package search implements the autocomplete search box: a controller that
// debounces input, discards stale responses and tracks keyboard focus, plus
// the Bubble Tea model that drives it from terminal events.
package search

import (
	"time"

	"go.uber.org/zap"
)

// FocusTarget identifies which part of the widget has keyboard focus.
type FocusTarget int

const (
	// FocusNone means the widget as a whole is blurred.
	FocusNone FocusTarget = iota
	// FocusInput means the text input has focus.
	FocusInput
	// FocusSuggestion means a suggestion item has focus.
	FocusSuggestion
)

// String returns the string representation of the focus target.
func (f FocusTarget) String() string {
	switch f {
	case FocusNone:
		return "none"
	case FocusInput:
		return "input"
	case FocusSuggestion:
		return "suggestion"
	default:
		return "unknown"
	}
}

// Focus is the explicit keyboard focus of the widget. Index is the
// highlighted suggestion when Target is FocusSuggestion, otherwise -1.
type Focus struct {
	Target FocusTarget
	Index  int
}

// InputFocus returns focus on the text input.
func InputFocus() Focus { return Focus{Target: FocusInput, Index: -1} }

// SuggestionFocus returns focus on the suggestion at index i.
func SuggestionFocus(i int) Focus { return Focus{Target: FocusSuggestion, Index: i} }

// BlurredFocus returns the focus of a widget that lost terminal focus.
func BlurredFocus() Focus { return Focus{Target: FocusNone, Index: -1} }

// Key is a navigation key understood by HandleKey.
type Key int

const (
	KeyNone Key = iota
	KeyTab
	KeyUp
	KeyDown
	KeyEnter
)

// String returns the string representation of the key.
func (k Key) String() string {
	switch k {
	case KeyTab:
		return "tab"
	case KeyUp:
		return "up"
	case KeyDown:
		return "down"
	case KeyEnter:
		return "enter"
	default:
		return "none"
	}
}

// Ticket is a pending debounce. Only the most recently issued ticket settles.
type Ticket struct {
	Seq  uint64
	Text string
}

// Request is an issued suggestion fetch.
type Request struct {
	Seq   uint64
	Token string
}

// Response is the outcome of a Request.
type Response struct {
	Seq         uint64
	Token       string
	Suggestions []string
	Err         error
}

// ControllerConfig holds configuration for creating a Controller.
type ControllerConfig struct {
	// DebounceDelay is the quiet period before typed input triggers a fetch.
	// Defaults to 200ms if not set.
	DebounceDelay time.Duration

	// Logger for debug output.
	Logger *zap.Logger
}

// Controller is the state machine behind the search box. It performs no I/O:
// callers schedule tickets and requests and feed the results back in.
// It is not safe for concurrent use.
type Controller struct {
	query       string
	suggestions []string
	focus       Focus

	// previousAccepted is the query produced by the last selection.
	previousAccepted string

	// lastSettled is the last value that made it through the debounce.
	lastSettled string
	settled     bool

	debounceSeq uint64
	latest      uint64
	loading     bool
	lastErr     error

	debounceDelay time.Duration
	logger        *zap.Logger
}

// NewController creates a Controller with the input focused.
func NewController(config ControllerConfig) *Controller {
	debounceDelay := config.DebounceDelay
	if debounceDelay <= 0 {
		debounceDelay = 200 * time.Millisecond
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Controller{
		focus:         InputFocus(),
		debounceDelay: debounceDelay,
		logger:        logger,
	}
}

// Query returns the current input text.
func (c *Controller) Query() string { return c.query }

// ActiveToken returns the token suggestions are computed for.
func (c *Controller) ActiveToken() string { return ActiveToken(c.query) }

// Suggestions returns a copy of the current suggestion list.
func (c *Controller) Suggestions() []string {
	result := make([]string, len(c.suggestions))
	copy(result, c.suggestions)
	return result
}

// Focus returns the current focus.
func (c *Controller) Focus() Focus { return c.focus }

// Loading reports whether the latest request is still outstanding.
func (c *Controller) Loading() bool { return c.loading }

// LastError returns the error of the latest failed fetch, cleared by the
// next successful one.
func (c *Controller) LastError() error { return c.lastErr }

// PreviousAccepted returns the query committed by the last selection.
func (c *Controller) PreviousAccepted() string { return c.previousAccepted }

// LatestSeq returns the sequence number of the most recently issued request.
func (c *Controller) LatestSeq() uint64 { return c.latest }

// DebounceDelay returns the configured quiet period.
func (c *Controller) DebounceDelay() time.Duration { return c.debounceDelay }

// InputChanged records a keystroke. The returned ticket supersedes every
// earlier one. Empty text clears the list at once and yields no ticket.
func (c *Controller) InputChanged(text string) (Ticket, bool) {
	c.query = text
	c.debounceSeq++

	if text == "" {
		c.clearSuggestions()
		c.invalidate()
		c.lastSettled = ""
		c.settled = true
		return Ticket{}, false
	}

	return Ticket{Seq: c.debounceSeq, Text: text}, true
}

// Settle is called once a ticket's delay has elapsed. It returns the fetch to
// issue, if any.
func (c *Controller) Settle(ticket Ticket) (Request, bool) {
	if ticket.Seq != c.debounceSeq {
		return Request{}, false
	}
	if c.settled && ticket.Text == c.lastSettled {
		return Request{}, false
	}
	if ActiveToken(ticket.Text) == "" {
		// Nothing left to complete, so the old list no longer applies.
		c.lastSettled = ticket.Text
		c.settled = true
		c.invalidate()
		c.clearSuggestions()
		return Request{}, false
	}
	if c.focus.Target == FocusNone {
		c.logger.Debug("search: input blurred, skipping request", zap.String("query", ticket.Text))
		return Request{}, false
	}
	c.lastSettled = ticket.Text
	c.settled = true

	return c.RequestSuggestions(ticket.Text)
}

// RequestSuggestions issues a fetch for the active token of text unless text
// is the query a selection just produced.
func (c *Controller) RequestSuggestions(text string) (Request, bool) {
	if text == c.previousAccepted {
		return Request{}, false
	}

	token := ActiveToken(text)
	if token == "" {
		return Request{}, false
	}

	c.latest++
	c.loading = true
	return Request{Seq: c.latest, Token: token}, true
}

// Resolve applies resp if it answers the latest request and reports whether
// it was applied.
func (c *Controller) Resolve(resp Response) bool {
	if resp.Seq != c.latest {
		c.logger.Debug("search: discarding stale response",
			zap.Uint64("seq", resp.Seq),
			zap.Uint64("latest", c.latest),
			zap.String("token", resp.Token))
		return false
	}

	c.loading = false

	if resp.Err != nil {
		c.lastErr = resp.Err
		c.logger.Warn("search: suggestion fetch failed",
			zap.String("token", resp.Token),
			zap.Error(resp.Err))
		return true
	}

	c.lastErr = nil
	c.suggestions = make([]string, len(resp.Suggestions))
	copy(c.suggestions, resp.Suggestions)

	if c.focus.Target == FocusSuggestion && c.focus.Index >= len(c.suggestions) {
		c.focus = InputFocus()
	}
	return true
}

// SelectSuggestion replaces the active token with value and commits the
// result as the accepted query.
func (c *Controller) SelectSuggestion(value string) {
	c.query = ReplaceActiveToken(c.query, value)
	c.previousAccepted = c.query
	c.lastSettled = c.query
	c.settled = true
	c.debounceSeq++
	c.invalidate()
	c.clearSuggestions()
	c.focus = InputFocus()
}

// ReturnToInput moves focus from a suggestion item back to the input, as
// when the user resumes typing.
func (c *Controller) ReturnToInput() {
	if c.focus.Target == FocusSuggestion {
		c.focus = InputFocus()
	}
}

// FocusGained permits queries again.
func (c *Controller) FocusGained() {
	if c.focus.Target == FocusNone {
		c.focus = InputFocus()
	}
}

// FocusLost blocks new queries until focus returns. Responses to requests
// already issued still apply.
func (c *Controller) FocusLost() {
	c.focus = BlurredFocus()
}

// Clear empties the query and the suggestion list.
func (c *Controller) Clear() {
	c.query = ""
	c.debounceSeq++
	c.lastSettled = ""
	c.settled = true
	c.invalidate()
	c.clearSuggestions()
}

// DismissSuggestions hides the list without touching the query.
func (c *Controller) DismissSuggestions() {
	c.invalidate()
	c.clearSuggestions()
}

// HandleKey applies a navigation key given the focus the key was pressed
// with and returns the resulting focus. Combinations without a meaning leave
// the state untouched.
func (c *Controller) HandleKey(key Key, focus Focus) Focus {
	switch focus.Target {
	case FocusInput:
		if (key == KeyTab || key == KeyDown) && len(c.suggestions) > 0 {
			c.focus = SuggestionFocus(0)
			return c.focus
		}
	case FocusSuggestion:
		if focus.Index < 0 || focus.Index >= len(c.suggestions) {
			return focus
		}
		switch key {
		case KeyUp:
			if focus.Index > 0 {
				c.focus = SuggestionFocus(focus.Index - 1)
				return c.focus
			}
		case KeyDown:
			if focus.Index < len(c.suggestions)-1 {
				c.focus = SuggestionFocus(focus.Index + 1)
				return c.focus
			}
		case KeyEnter:
			c.SelectSuggestion(c.suggestions[focus.Index])
			return c.focus
		}
	}
	return focus
}

func (c *Controller) clearSuggestions() {
	c.suggestions = nil
	if c.focus.Target == FocusSuggestion {
		c.focus = InputFocus()
	}
}

// invalidate makes any outstanding response stale.
func (c *Controller) invalidate() {
	if c.loading {
		c.latest++
		c.loading = false
	}
}

package search

import (
	"context"
	"time"

	"github.com/atinylittleshell/gsearch/internal/suggest"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// ResultType indicates how a search session ended.
type ResultType int

const (
	// ResultNone indicates no result yet (still editing).
	ResultNone ResultType = iota
	// ResultSubmit indicates the user submitted the query (Enter on the input).
	ResultSubmit
	// ResultInterrupt indicates the user interrupted (Ctrl+C).
	ResultInterrupt
)

// Result contains the outcome of a search session.
type Result struct {
	Type ResultType
	// Value is the submitted query (empty for interrupt).
	Value string
}

// Recorder stores accepted searches. Implemented by the history store.
type Recorder interface {
	RecordSubmit(query string) error
	RecordSelection(value string) error
}

// Config holds configuration for creating a new Model.
type Config struct {
	// Prompt is the prompt string to display.
	Prompt string

	// Source provides suggestions. If nil, a MockSource with default
	// settings is used.
	Source suggest.Source

	// Recorder receives submitted queries and selected suggestions. Optional.
	Recorder Recorder

	// DebounceDelay is the quiet period before typed input triggers a fetch.
	// Defaults to 200ms if not set.
	DebounceDelay time.Duration

	// FetchTimeout bounds each suggestion fetch. Defaults to 2s if not set.
	FetchTimeout time.Duration

	// MaxVisible is the number of suggestions shown at once. Defaults to 5.
	MaxVisible int

	// KeyMap provides key bindings. If nil, DefaultKeyMap is used.
	KeyMap *KeyMap

	// RenderConfig provides styling. If nil, DefaultRenderConfig is used.
	RenderConfig *RenderConfig

	// Width is the initial terminal width.
	Width int

	// Logger for debug output. If nil, a no-op logger is used.
	Logger *zap.Logger
}

// Model is the Bubble Tea model of the search box. It turns terminal events
// into Controller calls and runs the commands the controller asks for.
type Model struct {
	buffer     *Buffer
	keymap     *KeyMap
	controller *Controller
	source     suggest.Source
	recorder   Recorder
	status     StatusIndicator
	renderer   *Renderer

	prompt       string
	fetchTimeout time.Duration
	maxVisible   int

	result Result
	logger *zap.Logger
}

// settleMsg is delivered when a debounce ticket's delay has elapsed.
type settleMsg struct {
	ticket Ticket
}

// suggestionsMsg carries the outcome of a fetch.
type suggestionsMsg Response

// pasteMsg is sent when paste content is available.
type pasteMsg string

// New creates a new search Model with the given configuration.
func New(cfg Config) Model {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	source := cfg.Source
	if source == nil {
		mockCfg := suggest.DefaultMockConfig()
		mockCfg.Logger = logger
		source = suggest.NewMockSource(mockCfg)
	}

	keymap := cfg.KeyMap
	if keymap == nil {
		keymap = DefaultKeyMap()
	}

	renderConfig := cfg.RenderConfig
	if renderConfig == nil {
		defaultConfig := DefaultRenderConfig()
		renderConfig = &defaultConfig
	}

	fetchTimeout := cfg.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = 2 * time.Second
	}

	maxVisible := cfg.MaxVisible
	if maxVisible <= 0 {
		maxVisible = 5
	}

	renderer := NewRenderer(*renderConfig)
	renderer.SetWidth(cfg.Width)

	return Model{
		buffer: NewBuffer(),
		keymap: keymap,
		controller: NewController(ControllerConfig{
			DebounceDelay: cfg.DebounceDelay,
			Logger:        logger,
		}),
		source:       source,
		recorder:     cfg.Recorder,
		status:       NewStatusIndicator(),
		renderer:     renderer,
		prompt:       cfg.Prompt,
		fetchTimeout: fetchTimeout,
		maxVisible:   maxVisible,
		result:       Result{Type: ResultNone},
		logger:       logger,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.result.Type != ResultNone {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.renderer.SetWidth(msg.Width)
		return m, nil

	case tea.FocusMsg:
		m.controller.FocusGained()
		return m, nil

	case tea.BlurMsg:
		m.controller.FocusLost()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case settleMsg:
		return m.handleSettle(msg)

	case suggestionsMsg:
		return m.handleSuggestions(msg)

	case pasteMsg:
		return m.handlePaste(string(msg))

	case spinner.TickMsg:
		cmd := m.status.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.result.Type != ResultNone {
		if m.result.Type == ResultInterrupt {
			return ""
		}
		return m.renderer.RenderInputLine(m.prompt, m.buffer, false, "")
	}

	return m.renderer.RenderView(
		m.prompt,
		m.buffer,
		m.controller.Focus(),
		m.status.View(),
		m.controller.Suggestions(),
		m.maxVisible,
	)
}

// Result returns the current result. Check Type != ResultNone to see if complete.
func (m Model) Result() Result {
	return m.result
}

// Value returns the current query text.
func (m Model) Value() string {
	return m.buffer.Text()
}

// Controller returns the underlying controller.
func (m Model) Controller() *Controller {
	return m.controller
}

// Status returns the fetch status shown next to the input.
func (m Model) Status() FetchStatus {
	return m.status.Status()
}

// handleKeyMsg processes keyboard input.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action := m.keymap.Lookup(msg)

	switch action {
	case ActionInterrupt:
		m.result = Result{Type: ResultInterrupt}
		return m, tea.Quit

	case ActionCursorUp, ActionCursorDown, ActionComplete, ActionSubmit:
		return m.handleNavigation(action)

	case ActionDismiss:
		m.controller.DismissSuggestions()
		m.syncStatus()
		return m, nil

	case ActionClear:
		m.buffer.Clear()
		m.controller.Clear()
		m.syncStatus()
		return m, nil

	case ActionPaste:
		return m, Paste

	case ActionCharacterForward:
		m.buffer.SetPos(m.buffer.Pos() + 1)
		return m, nil

	case ActionCharacterBackward:
		m.buffer.SetPos(m.buffer.Pos() - 1)
		return m, nil

	case ActionWordForward:
		m.buffer.WordForward()
		return m, nil

	case ActionWordBackward:
		m.buffer.WordBackward()
		return m, nil

	case ActionLineStart:
		m.buffer.CursorStart()
		return m, nil

	case ActionLineEnd:
		m.buffer.CursorEnd()
		return m, nil

	case ActionDeleteCharacterBackward:
		return m.edit(func(b *Buffer) { b.DeleteCharBackward() })

	case ActionDeleteCharacterForward:
		return m.edit(func(b *Buffer) { b.DeleteCharForward() })

	case ActionDeleteWordBackward:
		return m.edit((*Buffer).DeleteWordBackward)

	case ActionDeleteBeforeCursor:
		return m.edit((*Buffer).DeleteBeforeCursor)

	case ActionDeleteAfterCursor:
		return m.edit((*Buffer).DeleteAfterCursor)

	default:
		if len(msg.Runes) > 0 {
			runes := sanitizeRunes(msg.Runes)
			return m.edit(func(b *Buffer) { b.InsertRunes(runes) })
		}
	}

	return m, nil
}

// handleNavigation routes Tab, Up, Down and Enter through the controller.
// Enter on the input submits the query.
func (m Model) handleNavigation(action Action) (tea.Model, tea.Cmd) {
	before := m.controller.Focus()

	if action == ActionSubmit && before.Target != FocusSuggestion {
		return m.handleSubmit()
	}

	var selected string
	if action == ActionSubmit {
		if suggestions := m.controller.Suggestions(); before.Index >= 0 && before.Index < len(suggestions) {
			selected = suggestions[before.Index]
		}
	}

	after := m.controller.HandleKey(action.navigationKey(), before)

	if action == ActionSubmit && before.Target == FocusSuggestion && after.Target == FocusInput {
		m.buffer.SetText(m.controller.Query())
		m.syncStatus()
		m.record(func(r Recorder) error { return r.RecordSelection(selected) })
	}

	return m, nil
}

// handleSubmit ends the session with the current query.
func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	query := m.buffer.Text()
	m.record(func(r Recorder) error { return r.RecordSubmit(query) })
	m.result = Result{
		Type:  ResultSubmit,
		Value: query,
	}
	return m, tea.Quit
}

// edit applies op to the buffer and notifies the controller if the text
// changed.
func (m Model) edit(op func(*Buffer)) (tea.Model, tea.Cmd) {
	oldText := m.buffer.Text()
	op(m.buffer)
	if m.buffer.Text() == oldText {
		return m, nil
	}
	cmd := m.onTextChanged()
	return m, cmd
}

// onTextChanged is called after any text modification. It returns the
// debounce timer for the new text, if any.
func (m *Model) onTextChanged() tea.Cmd {
	m.controller.ReturnToInput()

	ticket, ok := m.controller.InputChanged(m.buffer.Text())
	if !ok {
		m.syncStatus()
		return nil
	}

	return tea.Tick(m.controller.DebounceDelay(), func(time.Time) tea.Msg {
		return settleMsg{ticket: ticket}
	})
}

func (m Model) handleSettle(msg settleMsg) (tea.Model, tea.Cmd) {
	req, ok := m.controller.Settle(msg.ticket)
	if !ok {
		m.syncStatus()
		return m, nil
	}

	m.logger.Debug("search: requesting suggestions",
		zap.Uint64("seq", req.Seq),
		zap.String("token", req.Token))

	spin := m.status.SetStatus(FetchStatusInFlight)
	return m, tea.Batch(m.fetch(req), spin)
}

// fetch returns a command that runs req against the source.
func (m Model) fetch(req Request) tea.Cmd {
	source := m.source
	timeout := m.fetchTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		suggestions, err := source.Fetch(ctx, req.Token)
		return suggestionsMsg{
			Seq:         req.Seq,
			Token:       req.Token,
			Suggestions: suggestions,
			Err:         err,
		}
	}
}

func (m Model) handleSuggestions(msg suggestionsMsg) (tea.Model, tea.Cmd) {
	if !m.controller.Resolve(Response(msg)) {
		return m, nil
	}

	if m.controller.LastError() != nil {
		m.status.SetStatus(FetchStatusFailed)
	} else {
		m.status.SetStatus(FetchStatusSuccess)
	}
	return m, nil
}

func (m Model) handlePaste(text string) (tea.Model, tea.Cmd) {
	runes := sanitizeRunes([]rune(text))
	return m.edit(func(b *Buffer) { b.InsertRunes(runes) })
}

// syncStatus drops the in-flight indicator once the controller has
// invalidated the outstanding request.
func (m *Model) syncStatus() {
	if m.status.Status() == FetchStatusInFlight && !m.controller.Loading() {
		m.status.SetStatus(FetchStatusIdle)
	}
}

func (m Model) record(fn func(Recorder) error) {
	if m.recorder == nil {
		return
	}
	if err := fn(m.recorder); err != nil {
		m.logger.Warn("search: failed to record history", zap.Error(err))
	}
}

// Paste returns a command that reads from the clipboard.
func Paste() tea.Msg {
	str, err := clipboard.ReadAll()
	if err != nil {
		return nil
	}
	return pasteMsg(str)
}

// sanitizeRunes replaces tabs and newlines with spaces.
func sanitizeRunes(runes []rune) []rune {
	result := make([]rune, len(runes))
	for i, r := range runes {
		switch r {
		case '\t', '\n', '\r':
			result[i] = ' '
		default:
			result[i] = r
		}
	}
	return result
}

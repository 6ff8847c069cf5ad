package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/atinylittleshell/gsearch/internal/suggest"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRecorder records history calls.
type mockRecorder struct {
	mu         sync.Mutex
	submits    []string
	selections []string
	err        error
}

func (r *mockRecorder) RecordSubmit(query string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.submits = append(r.submits, query)
	return r.err
}

func (r *mockRecorder) RecordSelection(value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selections = append(r.selections, value)
	return r.err
}

func newTestModel(src suggest.Source, rec Recorder) Model {
	if src == nil {
		src = suggest.SourceFunc(func(context.Context, string) ([]string, error) {
			return nil, nil
		})
	}
	plain := plainRenderConfig()
	cfg := Config{
		Prompt:        "> ",
		RenderConfig:  &plain,
		Source:        src,
		DebounceDelay: time.Millisecond,
		FetchTimeout:  50 * time.Millisecond,
	}
	if rec != nil {
		cfg.Recorder = rec
	}
	return New(cfg)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func keyMsg(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

// typeText sends text one rune at a time and returns the last command.
func typeText(t *testing.T, m Model, text string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, r := range text {
		m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m, cmd
}

// settle runs the debounce timer returned by the last edit.
func settle(t *testing.T, m Model, cmd tea.Cmd) (Model, tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	msg := cmd()
	require.IsType(t, settleMsg{}, msg)
	return update(t, m, msg)
}

// respond delivers suggestions for the latest request.
func respond(t *testing.T, m Model, suggestions ...string) Model {
	t.Helper()
	m, _ = update(t, m, suggestionsMsg{Seq: m.Controller().LatestSeq(), Suggestions: suggestions})
	return m
}

func TestNew(t *testing.T) {
	m := New(Config{})

	assert.NotNil(t, m.buffer)
	assert.NotNil(t, m.keymap)
	assert.NotNil(t, m.source)
	assert.Equal(t, 2*time.Second, m.fetchTimeout)
	assert.Equal(t, 5, m.maxVisible)
	assert.Equal(t, 80, m.renderer.Width())
	assert.Equal(t, ResultNone, m.Result().Type)
	assert.Equal(t, FetchStatusIdle, m.Status())
	assert.Nil(t, m.Init())
}

func TestModel_TypingSchedulesDebounce(t *testing.T) {
	m := newTestModel(nil, nil)

	m, cmd := typeText(t, m, "go")
	assert.Equal(t, "go", m.Value())
	assert.Equal(t, "go", m.Controller().Query())

	m, cmd = settle(t, m, cmd)
	assert.NotNil(t, cmd)
	assert.True(t, m.Controller().Loading())
	assert.Equal(t, FetchStatusInFlight, m.Status())
}

func TestModel_StaleTimerIsIgnored(t *testing.T) {
	m := newTestModel(nil, nil)

	m, first := typeText(t, m, "g")
	m, _ = typeText(t, m, "o")

	m, cmd := settle(t, m, first)
	assert.Nil(t, cmd)
	assert.False(t, m.Controller().Loading())
}

func TestModel_FullSelectionFlow(t *testing.T) {
	rec := &mockRecorder{}
	m := newTestModel(nil, rec)

	m, cmd := typeText(t, m, "hello wor")
	m, _ = settle(t, m, cmd)
	m = respond(t, m, "work", "world")

	assert.Equal(t, []string{"work", "world"}, m.Controller().Suggestions())
	assert.Equal(t, FetchStatusSuccess, m.Status())

	m, _ = update(t, m, keyMsg(tea.KeyDown))
	assert.Equal(t, SuggestionFocus(0), m.Controller().Focus())
	m, _ = update(t, m, keyMsg(tea.KeyDown))
	assert.Equal(t, SuggestionFocus(1), m.Controller().Focus())
	m, _ = update(t, m, keyMsg(tea.KeyDown))
	assert.Equal(t, SuggestionFocus(1), m.Controller().Focus())

	m, cmd = update(t, m, keyMsg(tea.KeyEnter))
	assert.Nil(t, cmd)
	assert.Equal(t, "hello world ", m.Value())
	assert.Empty(t, m.Controller().Suggestions())
	assert.Equal(t, InputFocus(), m.Controller().Focus())
	assert.Equal(t, ResultNone, m.Result().Type)
	assert.Equal(t, []string{"world"}, rec.selections)

	m, cmd = update(t, m, keyMsg(tea.KeyEnter))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, Result{Type: ResultSubmit, Value: "hello world "}, m.Result())
	assert.Equal(t, []string{"hello world "}, rec.submits)
	assert.Equal(t, "> hello world ", m.View())
}

func TestModel_TabFocusesFirstSuggestion(t *testing.T) {
	m := newTestModel(nil, nil)
	m, cmd := typeText(t, m, "go")
	m, _ = settle(t, m, cmd)
	m = respond(t, m, "gopher")

	m, _ = update(t, m, keyMsg(tea.KeyTab))
	assert.Equal(t, SuggestionFocus(0), m.Controller().Focus())
	assert.Contains(t, m.View(), "> gopher")

	m, _ = update(t, m, keyMsg(tea.KeyUp))
	assert.Equal(t, SuggestionFocus(0), m.Controller().Focus())
}

func TestModel_TypingReturnsFocusToInput(t *testing.T) {
	m := newTestModel(nil, nil)
	m, cmd := typeText(t, m, "go")
	m, _ = settle(t, m, cmd)
	m = respond(t, m, "gopher")
	m, _ = update(t, m, keyMsg(tea.KeyDown))

	m, cmd = typeText(t, m, "p")
	assert.NotNil(t, cmd)
	assert.Equal(t, InputFocus(), m.Controller().Focus())
	assert.Equal(t, "gop", m.Value())
}

func TestModel_StaleResponseIsDropped(t *testing.T) {
	m := newTestModel(nil, nil)
	m, cmd := typeText(t, m, "wo")
	m, _ = settle(t, m, cmd)
	stale := m.Controller().LatestSeq()

	m, cmd = typeText(t, m, "r")
	m, _ = settle(t, m, cmd)
	m = respond(t, m, "world")

	m, _ = update(t, m, suggestionsMsg{Seq: stale, Suggestions: []string{"wonder"}})
	assert.Equal(t, []string{"world"}, m.Controller().Suggestions())
	assert.Equal(t, FetchStatusSuccess, m.Status())
}

func TestModel_FailureKeepsListAndShowsStatus(t *testing.T) {
	m := newTestModel(nil, nil)
	m, cmd := typeText(t, m, "go")
	m, _ = settle(t, m, cmd)
	m = respond(t, m, "gopher")

	m, cmd = typeText(t, m, "p")
	m, _ = settle(t, m, cmd)
	m, _ = update(t, m, suggestionsMsg{Seq: m.Controller().LatestSeq(), Err: suggest.ErrFetchFailed})

	assert.Equal(t, []string{"gopher"}, m.Controller().Suggestions())
	assert.ErrorIs(t, m.Controller().LastError(), suggest.ErrFetchFailed)
	assert.Equal(t, FetchStatusFailed, m.Status())
	assert.Contains(t, m.View(), "✗")
}

func TestModel_BackspaceToEmptyClears(t *testing.T) {
	m := newTestModel(nil, nil)
	m, cmd := typeText(t, m, "g")
	m, _ = settle(t, m, cmd)
	require.Equal(t, FetchStatusInFlight, m.Status())

	m, cmd = update(t, m, keyMsg(tea.KeyBackspace))
	assert.Nil(t, cmd)
	assert.Equal(t, "", m.Value())
	assert.False(t, m.Controller().Loading())
	assert.Equal(t, FetchStatusIdle, m.Status())
}

func TestModel_DeletingLastWordHidesSuggestions(t *testing.T) {
	m := newTestModel(nil, nil)
	m, cmd := typeText(t, m, " a")
	m, _ = settle(t, m, cmd)
	m = respond(t, m, "prea", "apost")

	m, cmd = update(t, m, keyMsg(tea.KeyBackspace))
	require.Equal(t, " ", m.Value())
	m, _ = settle(t, m, cmd)
	assert.Empty(t, m.Controller().Suggestions())

	m, _ = update(t, m, keyMsg(tea.KeyTab))
	assert.Equal(t, InputFocus(), m.Controller().Focus())
	assert.Equal(t, " ", m.Value())
}

func TestModel_EscapeDismisses(t *testing.T) {
	m := newTestModel(nil, nil)
	m, cmd := typeText(t, m, "go")
	m, _ = settle(t, m, cmd)
	m = respond(t, m, "gopher")

	m, _ = update(t, m, keyMsg(tea.KeyEsc))
	assert.Equal(t, "go", m.Value())
	assert.Empty(t, m.Controller().Suggestions())
}

func TestModel_CtrlLClears(t *testing.T) {
	m := newTestModel(nil, nil)
	m, cmd := typeText(t, m, "go")
	m, _ = settle(t, m, cmd)
	m = respond(t, m, "gopher")

	m, _ = update(t, m, keyMsg(tea.KeyCtrlL))
	assert.Equal(t, "", m.Value())
	assert.Empty(t, m.Controller().Suggestions())
}

func TestModel_Interrupt(t *testing.T) {
	rec := &mockRecorder{}
	m := newTestModel(nil, rec)
	m, _ = typeText(t, m, "go")

	m, cmd := update(t, m, keyMsg(tea.KeyCtrlC))
	require.NotNil(t, cmd)
	assert.Equal(t, ResultInterrupt, m.Result().Type)
	assert.Equal(t, "", m.View())
	assert.Empty(t, rec.submits)

	// Finished models ignore further input.
	m, cmd = typeText(t, m, "x")
	assert.Nil(t, cmd)
	assert.Equal(t, "go", m.Value())
}

func TestModel_BlurBlocksRequests(t *testing.T) {
	m := newTestModel(nil, nil)
	m, _ = update(t, m, tea.BlurMsg{})
	assert.Equal(t, FocusNone, m.Controller().Focus().Target)

	m, cmd := typeText(t, m, "go")
	m, cmd = settle(t, m, cmd)
	assert.Nil(t, cmd)
	assert.False(t, m.Controller().Loading())

	m, _ = update(t, m, tea.FocusMsg{})
	assert.Equal(t, InputFocus(), m.Controller().Focus())
}

func TestModel_Paste(t *testing.T) {
	m := newTestModel(nil, nil)
	m, cmd := update(t, m, pasteMsg("hello\tworld\n"))
	assert.Equal(t, "hello world ", m.Value())
	assert.NotNil(t, cmd)
}

func TestModel_CursorMovementDoesNotFetch(t *testing.T) {
	m := newTestModel(nil, nil)
	m, _ = typeText(t, m, "go")

	m, cmd := update(t, m, keyMsg(tea.KeyLeft))
	assert.Nil(t, cmd)
	assert.Equal(t, 1, m.buffer.Pos())

	m, cmd = update(t, m, keyMsg(tea.KeyDelete))
	assert.NotNil(t, cmd)
	assert.Equal(t, "g", m.Value())
}

func TestModel_RecorderErrorIsNotFatal(t *testing.T) {
	rec := &mockRecorder{err: errors.New("disk full")}
	m := newTestModel(nil, rec)
	m, _ = typeText(t, m, "go")

	m, _ = update(t, m, keyMsg(tea.KeyEnter))
	assert.Equal(t, ResultSubmit, m.Result().Type)
}

func TestModel_Fetch(t *testing.T) {
	t.Run("returns suggestions for the request", func(t *testing.T) {
		src := suggest.SourceFunc(func(_ context.Context, token string) ([]string, error) {
			return []string{token + "!"}, nil
		})
		m := newTestModel(src, nil)

		msg := m.fetch(Request{Seq: 7, Token: "go"})()
		assert.Equal(t, suggestionsMsg{Seq: 7, Token: "go", Suggestions: []string{"go!"}}, msg)
	})

	t.Run("times out slow sources", func(t *testing.T) {
		src := suggest.SourceFunc(func(ctx context.Context, _ string) ([]string, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})
		m := newTestModel(src, nil)

		msg, ok := m.fetch(Request{Seq: 1, Token: "go"})().(suggestionsMsg)
		require.True(t, ok)
		assert.ErrorIs(t, msg.Err, context.DeadlineExceeded)
	})
}

func TestModel_WindowSize(t *testing.T) {
	m := newTestModel(nil, nil)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 132, Height: 40})
	assert.Equal(t, 132, m.renderer.Width())
}

func TestSanitizeRunes(t *testing.T) {
	assert.Equal(t, []rune("a b c d"), sanitizeRunes([]rune("a\tb\nc\rd")))
}

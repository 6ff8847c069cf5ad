package search

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// FetchStatus represents the state of the latest suggestion request.
type FetchStatus int

const (
	// FetchStatusIdle means no request has been made yet
	FetchStatusIdle FetchStatus = iota
	// FetchStatusInFlight means the latest request is in progress
	FetchStatusInFlight
	// FetchStatusSuccess means the latest request returned suggestions
	FetchStatusSuccess
	// FetchStatusFailed means the latest request failed
	FetchStatusFailed
)

// String returns the string representation of the status.
func (s FetchStatus) String() string {
	switch s {
	case FetchStatusIdle:
		return "idle"
	case FetchStatusInFlight:
		return "in-flight"
	case FetchStatusSuccess:
		return "success"
	case FetchStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// StatusIndicator shows the fetch status next to the input line.
type StatusIndicator struct {
	spinner  spinner.Model
	status   FetchStatus
	spinning bool
}

// NewStatusIndicator creates an idle indicator.
func NewStatusIndicator() StatusIndicator {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return StatusIndicator{spinner: s}
}

// SetStatus updates the status. Entering FetchStatusInFlight returns the
// command that starts the spinner, unless it is already running.
func (i *StatusIndicator) SetStatus(status FetchStatus) tea.Cmd {
	i.status = status
	if status != FetchStatusInFlight || i.spinning {
		return nil
	}
	i.spinning = true
	return i.spinner.Tick
}

// Status returns the current status.
func (i StatusIndicator) Status() FetchStatus {
	return i.status
}

// Update advances the spinner. Ticking stops once no request is in flight.
func (i *StatusIndicator) Update(msg spinner.TickMsg) tea.Cmd {
	if i.status != FetchStatusInFlight {
		i.spinning = false
		return nil
	}
	var cmd tea.Cmd
	i.spinner, cmd = i.spinner.Update(msg)
	return cmd
}

// View renders the status icon.
func (i StatusIndicator) View() string {
	successStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // Green
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))    // Red
	idleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))     // Gray

	switch i.status {
	case FetchStatusInFlight:
		return i.spinner.View()
	case FetchStatusSuccess:
		return successStyle.Render("✓")
	case FetchStatusFailed:
		return errorStyle.Render("✗")
	default:
		return idleStyle.Render("○")
	}
}

package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/oshokin/green-sentinel/internal/pipeline"
)

// DefaultRefresh is how often the view polls the pipeline.
const DefaultRefresh = 200 * time.Millisecond

//nolint:gochecknoglobals // Styles are immutable after init.
var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7CFC00"))
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#2E8B57")).
			Padding(1, 2)
	alarmStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("#FF0000")).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#B00000")).
			Bold(true).
			Padding(1, 4)
	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
)

// tickMsg triggers a status poll.
type tickMsg time.Time

// Model is the bubbletea model of the sentinel screen.
type Model struct {
	// surface tells which panel to show.
	surface *Surface
	// status reads the pipeline snapshot.
	status func() *pipeline.Status
	// stop issues a stop command.
	stop func()
	// refresh is the poll period.
	refresh time.Duration
	// last is the latest snapshot.
	last *pipeline.Status
	// stopSent is true between a stop press and the preview coming back.
	stopSent bool
	// width is the terminal width.
	width int
}

// NewModel creates the screen model.
func NewModel(surface *Surface, status func() *pipeline.Status, stop func(), refresh time.Duration) Model {
	if refresh <= 0 {
		refresh = DefaultRefresh
	}

	return Model{
		surface: surface,
		status:  status,
		stop:    stop,
		refresh: refresh,
		last:    status(),
	}
}

// Init starts polling.
func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update handles keys, resizes and polls.
//
//nolint:ireturn // Required by tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.last = m.status()
		if m.surface.PreviewVisible() {
			m.stopSent = false
		}

		return m, m.tick()
	case tea.WindowSizeMsg:
		m.width = msg.Width

		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "s", "enter", " ":
			if !m.surface.PreviewVisible() && !m.stopSent {
				m.stop()
				m.stopSent = true
			}
		}
	}

	return m, nil
}

// View renders the preview or the stop control.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("green sentinel"))
	b.WriteString("\n\n")

	if m.surface.PreviewVisible() {
		b.WriteString(panelStyle.Render(m.preview()))
	} else {
		b.WriteString(alarmStyle.Render(m.stopControl()))
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("q: quit"))
	b.WriteString("\n")

	return b.String()
}

func (m Model) preview() string {
	s := m.last
	if s == nil {
		return "Starting..."
	}

	lines := []string{
		"Watching for green",
		fmt.Sprintf("frames analyzed: %d", s.FramesAnalyzed),
		fmt.Sprintf("frames dropped:  %d", s.FramesDropped),
		fmt.Sprintf("acquisitions:    %d", s.Generation),
	}

	if !s.LastSilencedAt.IsZero() {
		lines = append(lines, fmt.Sprintf("last alarm silenced by %s at %s",
			s.LastSilencedBy, s.LastSilencedAt.Format(time.TimeOnly)))
	}

	return strings.Join(lines, "\n")
}

func (m Model) stopControl() string {
	lines := []string{"GREEN LOST - ALARM"}

	if s := m.last; s != nil && !s.TriggeredAt.IsZero() {
		lines = append(lines, "since "+s.TriggeredAt.Format(time.TimeOnly))

		if s.Fallback {
			lines = append(lines, "(fallback ring)")
		}
	}

	if m.stopSent {
		lines = append(lines, "", "stopping...")
	} else {
		lines = append(lines, "", "[ press S or Enter to STOP ]")
	}

	return strings.Join(lines, "\n")
}

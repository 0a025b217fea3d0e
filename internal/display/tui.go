// Package display renders the live event stream of a running autoplayer
// as a terminal UI, fed over the control server's websocket.
package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/chainjack/chainjack/internal/statistics"
)

// Model is the Bubble Tea model for the watch view.
type Model struct {
	logViewport viewport.Model
	spinner     spinner.Model

	lines     []string
	stats     statistics.Statistics
	phase     string
	gameID    uint64
	running   bool
	connected bool
	lastError string
	quitting  bool

	styles *Styles

	width  int
	height int
}

// Styles contains all styling for the watch view
type Styles struct {
	Header   lipgloss.Style
	LogPane  lipgloss.Style
	Footer   lipgloss.Style
	Success  lipgloss.Style
	Error    lipgloss.Style
	Warning  lipgloss.Style
	Info     lipgloss.Style
	RedCard  lipgloss.Style
	CardText lipgloss.Style
}

// EventLineMsg appends one formatted event line.
type EventLineMsg struct {
	Line string
}

// StatusMsg refreshes the header and footer from the control API.
type StatusMsg struct {
	Running   bool
	Phase     string
	GameID    uint64
	LastError string
	Stats     statistics.Statistics
}

// ConnStateMsg reports websocket connectivity changes.
type ConnStateMsg struct {
	Connected bool
}

// NewModel creates the watch model.
func NewModel() *Model {
	styles := &Styles{
		Header: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			Bold(true),
		LogPane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#626262")).
			Padding(0, 1),
		Footer: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true),
		Warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFEAA7")),
		Info: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")),
		RedCard: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")),
		CardText: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")),
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))

	vp := viewport.New(100, 25)
	vp.SetContent("")

	return &Model{
		logViewport: vp,
		spinner:     sp,
		styles:      styles,
		phase:       "idle",
	}
}

// Init starts the spinner.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages in the watch view
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateDimensions()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			return m, tea.Sequence(tea.ClearScreen, tea.Quit)
		case "up", "k":
			m.logViewport.ScrollUp(1)
		case "down", "j":
			m.logViewport.ScrollDown(1)
		case "pgup", "b":
			m.logViewport.HalfPageUp()
		case "pgdown", "f":
			m.logViewport.HalfPageDown()
		case "home", "g":
			m.logViewport.GotoTop()
		case "end", "G":
			m.logViewport.GotoBottom()
		}

	case EventLineMsg:
		m.appendLine(msg.Line)

	case StatusMsg:
		m.running = msg.Running
		m.phase = msg.Phase
		m.gameID = msg.GameID
		m.lastError = msg.LastError
		m.stats = msg.Stats

	case ConnStateMsg:
		m.connected = msg.Connected

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	return m, cmd
}

// View renders the watch view
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		m.styles.LogPane.Width(max(m.width-2, 20)).Render(m.logViewport.View()),
		m.renderFooter(),
	)
}

func (m *Model) renderHeader() string {
	conn := m.styles.Error.Render("disconnected")
	if m.connected {
		conn = m.styles.Success.Render("connected")
	}

	activity := " "
	if m.running {
		activity = m.spinner.View()
	}

	title := m.styles.Header.Render("chainjack")
	game := ""
	if m.gameID > 0 {
		game = fmt.Sprintf("  game #%d", m.gameID)
	}
	return fmt.Sprintf("%s %s %s%s  [%s]", title, activity, m.phase, game, conn)
}

func (m *Model) renderFooter() string {
	summary := fmt.Sprintf("played %d • won %d • lost %d • pushed %d • busts %d • win rate %.1f%%",
		m.stats.GamesPlayed, m.stats.Wins, m.stats.Losses, m.stats.Pushes, m.stats.Busts,
		m.stats.WinRate()*100)

	lines := []string{m.styles.Footer.Render(summary)}
	if m.lastError != "" {
		lines = append(lines, m.styles.Error.Render("last error: "+m.lastError))
	}
	lines = append(lines, m.styles.Info.Render("↑↓ scroll • q to quit"))
	return strings.Join(lines, "\n")
}

func (m *Model) appendLine(line string) {
	m.lines = append(m.lines, line)
	m.logViewport.SetContent(strings.Join(m.lines, "\n"))
	if m.logViewport.Height > 0 {
		m.logViewport.GotoBottom()
	}
}

func (m *Model) updateDimensions() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	// header is one line, footer up to three, pane border two
	m.logViewport.Width = m.width - 4
	m.logViewport.Height = max(m.height-7, 3)
	m.logViewport.SetContent(strings.Join(m.lines, "\n"))
}

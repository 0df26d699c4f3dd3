package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/arbitrage-scanner/pkg/ui/components"
)

// Phase represents the current UI phase.
type Phase string

const (
	PhaseWelcome   Phase = "welcome"   // Initial welcome screen
	PhaseStartup   Phase = "startup"   // Waiting for the first scan
	PhaseDashboard Phase = "dashboard" // Main dashboard
)

// WelcomeDuration is how long the welcome screen shows before auto-advancing.
const WelcomeDuration = 2 * time.Second

const maxErrors = 3

// Controls are the detector actions reachable from the keyboard.
type Controls interface {
	TogglePause() bool
	RefreshCatalog()
}

// Options configure the dashboard model.
type Options struct {
	Sources   []string
	Interval  time.Duration
	MinProfit string
	Controls  Controls
}

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	// Components
	opportunities *components.OpportunitiesComponent
	status        *components.StatusComponent
	stats         *components.StatsComponent
	spinner       spinner.Model
	help          help.Model
	keys          KeyMap

	opts Options

	// Phase state
	phase        Phase
	welcomeStart time.Time
	startupTime  time.Time

	// State
	quitting   bool
	paused     bool
	refreshing bool
	width      int
	height     int
	lastUpdate time.Time
	errors     []ErrorEntry
}

// New creates a new TUI model.
func New(opts Options) Model {
	now := time.Now()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorSecondary)

	status := components.NewStatusComponent()
	initial := make([]components.SourceStatus, 0, len(opts.Sources))
	for _, name := range opts.Sources {
		initial = append(initial, components.SourceStatus{Name: name, Healthy: true, Detail: "pending"})
	}
	status.Update(initial)

	return Model{
		opportunities: components.NewOpportunitiesComponent(15),
		status:        status,
		stats:         components.NewStatsComponent(),
		spinner:       sp,
		help:          help.New(),
		keys:          DefaultKeyMap(),
		opts:          opts,
		phase:         PhaseWelcome,
		welcomeStart:  now,
		startupTime:   now,
		errors:        make([]ErrorEntry, 0, maxErrors),
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.spinner.Tick)
}

// tickCmd returns a command that sends a tick every 100ms for smooth animations.
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		// During welcome phase, any other key skips ahead
		if m.phase == PhaseWelcome {
			m.phase = PhaseStartup
			m.startupTime = time.Now()
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Pause):
			if m.opts.Controls != nil {
				m.paused = m.opts.Controls.TogglePause()
			} else {
				m.paused = !m.paused
			}
		case key.Matches(msg, m.keys.Refresh):
			if m.opts.Controls != nil {
				m.opts.Controls.RefreshCatalog()
				m.refreshing = true
			}
		case key.Matches(msg, m.keys.Up):
			m.opportunities.ScrollUp()
		case key.Matches(msg, m.keys.Down):
			m.opportunities.ScrollDown()
		case key.Matches(msg, m.keys.ClearErrors):
			m.errors = make([]ErrorEntry, 0, maxErrors)
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		if m.phase == PhaseWelcome && time.Since(m.welcomeStart) >= WelcomeDuration {
			m.phase = PhaseStartup
			m.startupTime = time.Now()
		}
		return m, tickCmd()

	case ScanMsg:
		m.opportunities.Set(msg.Rows, msg.TotalFound)
		m.status.MarkFailed(msg.FailedSources)
		st := m.stats.Stats()
		st.Scans++
		st.PairsChecked = msg.PairsChecked
		st.TotalFound = msg.TotalFound
		st.LastScan = msg.At
		st.LastDuration = msg.Duration
		m.stats.Update(st)
		m.refreshing = false
		m.lastUpdate = time.Now()
		m.leaveStartup()

	case SourceStatusMsg:
		m.status.Update(msg.Sources)
		m.lastUpdate = time.Now()

	case ErrorMsg:
		if msg.Error != nil {
			m.errors = append(m.errors, ErrorEntry{Message: msg.Error.Error(), Timestamp: time.Now()})
			if len(m.errors) > maxErrors {
				m.errors = m.errors[len(m.errors)-maxErrors:]
			}
		}
		st := m.stats.Stats()
		st.Scans++
		st.Errors++
		m.stats.Update(st)
		m.refreshing = false
		m.leaveStartup()
	}

	return m, nil
}

func (m *Model) leaveStartup() {
	if m.phase != PhaseDashboard {
		m.phase = PhaseDashboard
	}
}

// Phase returns the current phase.
func (m Model) Phase() Phase {
	return m.phase
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	switch m.phase {
	case PhaseWelcome:
		return m.renderWelcomeScreen()
	case PhaseStartup:
		return m.renderStartupScreen()
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(" Cross-Exchange Arbitrage Scanner "))
	b.WriteString("\n\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	left := m.status.View()
	right := m.opportunities.View()
	if m.width > 110 {
		leftBox := BoxStyle.Width(30).Render(left)
		rightBox := BoxStyle.Width(m.width - 36).Render(right)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, leftBox, rightBox))
	} else {
		b.WriteString(BoxStyle.Render(left))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Render(right))
	}
	b.WriteString("\n\n")
	b.WriteString(m.stats.View())
	b.WriteString("\n\n")

	if len(m.errors) > 0 {
		b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(ColorDanger).Render("ERRORS"))
		b.WriteString(MutedValue.Render(" (e: clear)"))
		b.WriteString("\n")
		for _, err := range m.errors {
			ago := time.Since(err.Timestamp).Round(time.Second)
			b.WriteString(ErrorStyle.Render(fmt.Sprintf("  • %s ", err.Message)))
			b.WriteString(MutedValue.Render(fmt.Sprintf("(%s ago)", ago)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.paused {
		b.WriteString(PausedStyle.Render("⏸ PAUSED"))
		b.WriteString(" • ")
	}
	b.WriteString(HelpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

func (m Model) renderStatusBar() string {
	var parts []string

	if m.refreshing {
		parts = append(parts, StatusConnected.Render(m.spinner.View()+" Refreshing pairs"))
	} else if !m.paused {
		parts = append(parts, StatusConnected.Render(m.spinner.View()+" Watching"))
	}

	healthy := m.status.Healthy()
	style := StatusConnected
	if healthy < len(m.opts.Sources) {
		style = StatusDisconnected
	}
	parts = append(parts, style.Render(fmt.Sprintf("Exchanges: %d/%d", healthy, len(m.opts.Sources))))

	if m.opts.Interval > 0 {
		parts = append(parts, fmt.Sprintf("Every %s", m.opts.Interval))
	}
	if m.opts.MinProfit != "" {
		parts = append(parts, fmt.Sprintf("Min profit: %s%%", m.opts.MinProfit))
	}

	if !m.lastUpdate.IsZero() {
		ago := time.Since(m.lastUpdate).Round(time.Second)
		parts = append(parts, MutedValue.Render(fmt.Sprintf("Updated: %s ago", ago)))
	}

	return strings.Join(parts, "  │  ")
}

// renderWelcomeScreen renders the animated welcome screen.
func (m Model) renderWelcomeScreen() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	mutedStyle := lipgloss.NewStyle().Foreground(ColorMuted)
	greenStyle := lipgloss.NewStyle().Foreground(ColorSecondary)

	elapsed := time.Since(m.welcomeStart)
	dots := strings.Repeat(".", int(elapsed.Milliseconds()/300)%4)

	var sb strings.Builder
	sb.WriteString("\n\n\n\n")
	sb.WriteString(titleStyle.Render("      A R B I T R A G E   S C A N N E R"))
	sb.WriteString("\n\n")
	sb.WriteString(mutedStyle.Render(fmt.Sprintf("      %d exchanges: %s", len(m.opts.Sources), strings.Join(m.opts.Sources, ", "))))
	sb.WriteString("\n\n\n")
	sb.WriteString(greenStyle.Render("      Initializing" + dots))
	sb.WriteString("\n\n")
	sb.WriteString(mutedStyle.Render("      Press any key to skip, or wait..."))
	sb.WriteString("\n")
	return sb.String()
}

// renderStartupScreen renders the screen shown until the first scan lands.
func (m Model) renderStartupScreen() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary).MarginBottom(1)
	mutedStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	var sb strings.Builder
	sb.WriteString("\n\n")
	sb.WriteString(titleStyle.Render("  Cross-Exchange Arbitrage Scanner"))
	sb.WriteString("\n\n")
	sb.WriteString("  " + m.spinner.View() + " Resolving common pairs and fetching tickers...")
	sb.WriteString("\n\n")
	for _, name := range m.opts.Sources {
		sb.WriteString(mutedStyle.Render("  ○ " + name))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	elapsed := time.Since(m.startupTime).Round(time.Second)
	sb.WriteString(mutedStyle.Render(fmt.Sprintf("  Elapsed: %s", elapsed)))
	sb.WriteString("\n")
	return sb.String()
}

// Dashboard owns a running Bubble Tea program.
type Dashboard struct {
	program *tea.Program
	done    chan struct{}
	once    sync.Once
	err     error
}

// NewDashboard creates a Dashboard. Extra program options are appended to
// the alternate screen default.
func NewDashboard(model Model, opts ...tea.ProgramOption) *Dashboard {
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	return &Dashboard{
		program: tea.NewProgram(model, opts...),
		done:    make(chan struct{}),
	}
}

// Start runs the program in the background. onExit runs once the program
// ends, whether the user quit or Stop was called.
func (d *Dashboard) Start(onExit func()) {
	go func() {
		_, d.err = d.program.Run()
		close(d.done)
		if onExit != nil {
			onExit()
		}
	}()
}

// Send sends a message to the running program.
func (d *Dashboard) Send(msg tea.Msg) {
	d.program.Send(msg)
}

// Stop quits the program and waits for it to exit.
func (d *Dashboard) Stop() error {
	d.once.Do(d.program.Quit)
	<-d.done
	return d.err
}

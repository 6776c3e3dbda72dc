package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/df07/go-acoustic-raytracer/pkg/analysis"
	"github.com/df07/go-acoustic-raytracer/pkg/simulation"
)

const barWidth = 40

// ProgressMsg carries a progress report from the simulator
type ProgressMsg simulation.Progress

// DoneMsg ends the run: stats and decay estimates on success, Err otherwise
type DoneMsg struct {
	Stats simulation.RunStats
	Decay map[string]analysis.DecayEstimate
	Err   error
}

type tickMsg time.Time

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	roomStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("220"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	helpStyle = lipgloss.NewStyle().Faint(true)
)

// Model is the bubbletea model of a running simulation
type Model struct {
	scene     string
	pairs     int
	progress  simulation.Progress
	stats     simulation.RunStats
	decay     map[string]analysis.DecayEstimate
	err       error
	done      bool
	quitting  bool
	startTime time.Time
	elapsed   time.Duration
	quitChan  chan struct{}
}

// NewModel creates a model for a run over the given number of pairs
func NewModel(sceneName string, pairs int, quitChan chan struct{}) Model {
	return Model{
		scene:     sceneName,
		pairs:     pairs,
		startTime: time.Now(),
		quitChan:  quitChan,
	}
}

func (m Model) Init() tea.Cmd {
	return tickEvery()
}

func tickEvery() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if !m.done {
				// Ask the caller to cancel the run
				select {
				case m.quitChan <- struct{}{}:
				default:
				}
			}
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		if m.done {
			return m, nil
		}
		m.elapsed = time.Since(m.startTime)
		return m, tickEvery()

	case ProgressMsg:
		m.progress = simulation.Progress(msg)
		return m, nil

	case DoneMsg:
		m.done = true
		m.elapsed = time.Since(m.startTime)
		m.stats = msg.Stats
		m.decay = msg.Decay
		m.err = msg.Err
		return m, nil
	}

	return m, nil
}

func (m Model) View() string {
	if m.quitting && !m.done {
		return "Cancelling simulation...\n"
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Acoustic Ray Tracer"))
	b.WriteString("\n\n")

	writeField(&b, "Scene: ", m.scene)
	writeField(&b, "Pairs: ", fmt.Sprintf("%d", m.pairs))
	writeField(&b, "Elapsed: ", m.elapsed.Round(100*time.Millisecond).String())
	b.WriteString("\n")

	b.WriteString(renderBar(m.progress.Fraction(), barWidth))
	b.WriteString(valueStyle.Render(fmt.Sprintf(" %3.0f%%", 100*m.progress.Fraction())))
	b.WriteString("\n")
	b.WriteString(valueStyle.Render(fmt.Sprintf("Rays %d/%d  Tasks %d/%d  Events %d",
		m.progress.RaysDone, m.progress.RaysTotal, m.progress.TasksDone, m.progress.TasksTotal, m.progress.Events)))
	b.WriteString("\n\n")

	if m.done {
		if m.err != nil {
			b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
			b.WriteString("\n\n")
		} else {
			b.WriteString(m.renderSummary())
		}
		b.WriteString(helpStyle.Render("Press 'q' to exit"))
	} else {
		b.WriteString(helpStyle.Render("Press 'q' or Ctrl+C to cancel"))
	}
	b.WriteString("\n")

	return b.String()
}

// renderSummary renders termination counts and the decay estimate of each room
func (m Model) renderSummary() string {
	var b strings.Builder

	writeField(&b, "Rays traced: ", fmt.Sprintf("%d (%.0f rays/s)", m.stats.RaysTraced, m.stats.RaysPerSecond()))
	writeField(&b, "Events: ", fmt.Sprintf("%d", m.stats.Events))
	if m.stats.PairsSkipped > 0 {
		writeField(&b, "Skipped pairs: ", fmt.Sprintf("%d", m.stats.PairsSkipped))
	}
	b.WriteString("\n")

	for _, reason := range sortedKeys(m.stats.Terminations) {
		b.WriteString(valueStyle.Render(fmt.Sprintf("  %-20s %d", reason, m.stats.Terminations[reason])))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for _, room := range sortedKeys(m.decay) {
		est := m.decay[room]
		label := room
		if label == "" {
			label = "(unlabelled)"
		}
		b.WriteString(roomStyle.Render(label))
		b.WriteString(valueStyle.Render(fmt.Sprintf("  EDT %s  T20 %s  T30 %s",
			formatFit(est.EDT), formatFit(est.T20), formatFit(est.T30))))
		b.WriteString("\n")
	}
	if len(m.decay) > 0 {
		b.WriteString("\n")
	}

	return b.String()
}

func writeField(b *strings.Builder, name, value string) {
	b.WriteString(headerStyle.Render(name))
	b.WriteString(valueStyle.Render(value))
	b.WriteString("\n")
}

func formatFit(fit analysis.DecayFit) string {
	if !fit.OK {
		return "n/a"
	}
	return fmt.Sprintf("%.2fs", fit.Seconds)
}

func renderBar(fraction float64, width int) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction * float64(width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Package tui is the terminal front-end: a live bar view of the spectrum and
// its band levels, driven by bubbletea ticks.
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"wavescope/internal/analysis"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)
)

const (
	defaultWidth = 80
	spectrumRows = 16
	bandBarWidth = 30
)

// ScreenType defines which view is currently active
type ScreenType int

const (
	SpectrumScreen ScreenType = iota
	BandsScreen
)

type keyMap struct {
	Toggle key.Binding
	Quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding  { return []key.Binding{k.Toggle, k.Quit} }
func (k keyMap) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

var keys = keyMap{
	Toggle: key.NewBinding(key.WithKeys("tab", "b"), key.WithHelp("tab", "spectrum/bands")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
}

type tickMsg time.Time

// SpectrumModel ticks the analysis loop and draws its current frame.
type SpectrumModel struct {
	title    string
	loop     *analysis.Loop
	source   analysis.Source
	interval time.Duration

	bands        []analysis.Band
	width        int
	activeScreen ScreenType
	seenActive   bool
	finished     bool
	help         help.Model
}

// NewSpectrumModel creates a model that ticks loop tickRate times per second
// and quits once source stops being active.
func NewSpectrumModel(title string, loop *analysis.Loop, source analysis.Source, tickRate int) SpectrumModel {
	return SpectrumModel{
		title:        title,
		loop:         loop,
		source:       source,
		interval:     time.Second / time.Duration(max(tickRate, 1)),
		bands:        analysis.DefaultBands(loop.Frame().SampleRate),
		width:        defaultWidth,
		activeScreen: SpectrumScreen,
		help:         help.New(),
	}
}

func (m SpectrumModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init starts the tick loop.
func (m SpectrumModel) Init() tea.Cmd {
	return m.tick()
}

func (m SpectrumModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case tickMsg:
		active := m.source.Active()
		if m.loop.Tick(active) {
			analysis.FillBands(m.bands, m.loop.Frame())
		}
		if active {
			m.seenActive = true
		} else if m.seenActive {
			if m.loop.Drain() > 0 {
				analysis.FillBands(m.bands, m.loop.Frame())
			}
			m.finished = true
			return m, tea.Quit
		}
		return m, m.tick()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Toggle):
			if m.activeScreen == SpectrumScreen {
				m.activeScreen = BandsScreen
			} else {
				m.activeScreen = SpectrumScreen
			}
		}
	}
	return m, nil
}

// Finished reports whether the model quit because playback ended.
func (m SpectrumModel) Finished() bool { return m.finished }

// View renders the UI
func (m SpectrumModel) View() string {
	var body string
	if m.activeScreen == SpectrumScreen {
		body = m.renderSpectrum()
	} else {
		body = m.renderBands()
	}

	s := m.loop.Stats()
	status := infoStyle.Render(fmt.Sprintf("window #%d • %d underruns • %d dropped",
		m.loop.Frame().Seq, s.Underruns, s.Dropped))

	return fmt.Sprintf("%s\n\n%s\n%s\n\n%s",
		titleStyle.Render(m.title), body, status, m.help.View(keys))
}

// renderSpectrum draws the non-negative frequency half of the magnitude
// curve as bars, one column per group of bins, using the loudest bin of each.
func (m SpectrumModel) renderSpectrum() string {
	f := m.loop.Frame()
	n := f.Size()
	if n == 0 {
		return "No data."
	}
	half := f.Magnitude[:n/2+1]
	cols := min(max(m.width-2, 8), len(half))
	top := fullScale(n)

	heights := make([]int, cols)
	for c := range cols {
		lo := c * len(half) / cols
		hi := max((c+1)*len(half)/cols, lo+1)
		peak := -1.0
		for _, v := range half[lo:hi] {
			peak = max(peak, v)
		}
		heights[c] = level(peak, top, spectrumRows)
	}

	var sb strings.Builder
	line := make([]byte, cols)
	for row := spectrumRows; row >= 1; row-- {
		for c, h := range heights {
			if h >= row {
				line[c] = '#'
			} else {
				line[c] = ' '
			}
		}
		sb.WriteString(barStyle.Render(string(line)))
		sb.WriteByte('\n')
	}
	sb.WriteString(strings.Repeat("-", cols))
	return sb.String()
}

// renderBands formats one bar per band.
func (m SpectrumModel) renderBands() string {
	top := fullScale(m.loop.Frame().Size())
	var sb strings.Builder
	for _, b := range m.bands {
		filled := level(b.Level, top, bandBarWidth)
		bar := strings.Repeat("█", filled) + strings.Repeat("░", bandBarWidth-filled)
		fmt.Fprintf(&sb, "%-8s %s %6.2f\n", b.Name, highlightStyle.Render(bar), b.Level)
	}
	return sb.String()
}

// fullScale is the log magnitude of a full-scale sine in an n-point window.
func fullScale(n int) float64 {
	return math.Log10(1+float64(n)/2) - 1
}

// level maps a log magnitude in [-1, top] onto 0..steps.
func level(v, top float64, steps int) int {
	if top <= -1 {
		return 0
	}
	frac := (v + 1) / (top + 1)
	return int(math.Round(math.Max(0, math.Min(1, frac)) * float64(steps)))
}

// Run takes over the terminal until playback ends or the user quits.
func Run(m SpectrumModel) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/psim/internal/analysis"
	"github.com/san-kum/psim/internal/sim"
)

const historyLen = 120

// Frame is one observation handed from the run goroutine to the view.
type Frame struct {
	analysis.Sample
	Step       int
	TotalSteps int
	EndTime    float64
	Particles  []*sim.Particle
	Box        float64
}

type frameMsg Frame

type doneMsg struct{ err error }

// Feed is a run observer that forwards frames to the live view. Frames are
// dropped while the view is behind.
type Feed struct {
	tracker *analysis.Tracker
	frames  chan Frame
	done    chan error
}

func NewFeed(tracker *analysis.Tracker) *Feed {
	return &Feed{
		tracker: tracker,
		frames:  make(chan Frame, 16),
		done:    make(chan error, 1),
	}
}

func (f *Feed) Observe(s *sim.State) error {
	ps := make([]*sim.Particle, len(s.Particles))
	for i, p := range s.Particles {
		c := *p
		c.Interactions = nil
		ps[i] = &c
	}
	fr := Frame{
		Sample:     analysis.Measure(s, f.tracker),
		Step:       s.Step,
		TotalSteps: s.Step + s.TotalSteps(),
		EndTime:    s.EndTime,
		Particles:  ps,
		Box:        s.Box,
	}
	select {
	case f.frames <- fr:
	default:
	}
	return nil
}

// Finish tells the view the run has ended. Call it once.
func (f *Feed) Finish(err error) { f.done <- err }

func (f *Feed) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case fr := <-f.frames:
			return frameMsg(fr)
		default:
		}
		select {
		case fr := <-f.frames:
			return frameMsg(fr)
		case err := <-f.done:
			return doneMsg{err}
		}
	}
}

// Model is the bubbletea model of a running simulation.
type Model struct {
	title  string
	feed   *Feed
	cancel context.CancelFunc
	styles styles
	canvas *Canvas

	last     Frame
	seen     bool
	msd      []float64
	temp     []float64
	finished bool
	quitting bool
	err      error

	width  int
	height int
}

func NewModel(title string, feed *Feed, cancel context.CancelFunc, theme Theme) Model {
	return Model{
		title:  title,
		feed:   feed,
		cancel: cancel,
		styles: newStyles(theme),
		canvas: NewCanvas(32, 12),
		width:  80,
		height: 24,
	}
}

func (m Model) Init() tea.Cmd { return m.feed.wait() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case frameMsg:
		m.last = Frame(msg)
		m.seen = true
		m.msd = appendCapped(m.msd, msg.TrackedMSD)
		m.temp = appendCapped(m.temp, msg.Temperature)
		m.canvas.Plot(msg.Particles, msg.Box)
		return m, m.feed.wait()
	case doneMsg:
		m.finished = true
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func appendCapped(xs []float64, v float64) []float64 {
	xs = append(xs, v)
	if len(xs) > historyLen {
		xs = xs[len(xs)-historyLen:]
	}
	return xs
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return m.styles.failed.Render("FAILED")
	case m.finished:
		return m.styles.done.Render("DONE")
	case m.quitting:
		return m.styles.failed.Render("STOPPED")
	}
	return m.styles.running.Render("RUNNING")
}

func (m Model) View() string {
	s := m.styles
	var b strings.Builder

	b.WriteString(s.title.Render(fmt.Sprintf("psim  %s", m.title)) + "  " + m.status() + "\n\n")

	if !m.seen {
		b.WriteString(s.hint.Render("waiting for the first frame...") + "\n")
		b.WriteString(s.hint.Render("q quit") + "\n")
		return b.String()
	}

	fr := m.last
	fraction := 0.0
	if fr.EndTime > 0 {
		fraction = fr.Time / fr.EndTime
	}
	b.WriteString(s.progressBar(fraction, 40))
	b.WriteString(fmt.Sprintf(" %5.1f%%\n\n", 100*fraction))

	row := func(label, value string) {
		b.WriteString(s.label.Render(fmt.Sprintf("%-14s", label)) + s.value.Render(value) + "\n")
	}
	row("time", fmt.Sprintf("%.3f / %.3f", fr.Time, fr.EndTime))
	row("step", fmt.Sprintf("%d / %d", fr.Step, fr.TotalSteps))
	row("temperature", fmt.Sprintf("%.4f", fr.Temperature))
	row("clusters", fmt.Sprintf("%d", fr.Clusters))
	row("coordination", fmt.Sprintf("%.3f", fr.MeanCoordination))
	row("tracked msd", fmt.Sprintf("%.4f", fr.TrackedMSD))
	b.WriteString(s.label.Render(fmt.Sprintf("%-14s", "T history")) + s.sparkline(m.temp, 30) + "\n\n")

	graph := "collecting..."
	if len(m.msd) > 1 {
		graph = asciigraph.Plot(m.msd,
			asciigraph.Height(8),
			asciigraph.Width(min(max(m.width-50, 20), 60)),
			asciigraph.Caption("tracked MSD"),
		)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, s.panel.Render(graph), s.panel.Render(m.canvas.String())))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(s.failed.Render(m.err.Error()) + "\n")
	}
	b.WriteString(s.hint.Render("q quit"))
	return b.String()
}

// Run shows the live view until the feed finishes or the user quits. cancel
// stops the simulation on quit.
func Run(title string, feed *Feed, cancel context.CancelFunc, theme Theme) error {
	p := tea.NewProgram(NewModel(title, feed, cancel, theme), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(Model); ok && m.err != nil {
		return m.err
	}
	return nil
}

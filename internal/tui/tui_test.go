package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/psim/internal/analysis"
	"github.com/san-kum/psim/internal/sim"
)

func TestCanvasSet(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	c.Set(-1, 0)
	c.Set(4, 0)

	assert.Equal(t, rune(brailleBase|0x1), c.Grid[0][0])
	assert.Equal(t, rune(brailleBase|0x80), c.Grid[0][1])

	c.Clear()
	assert.Equal(t, "⠀⠀", c.String())
}

func TestCanvasPlot(t *testing.T) {
	c := NewCanvas(4, 2)
	ps := []*sim.Particle{
		sim.NewParticle(0, r3.Vec{X: 0.1, Y: 9.9, Z: 5}, 0.5, 1),
		sim.NewParticle(1, r3.Vec{X: 9.9, Y: 0.1, Z: 5}, 0.5, 1),
	}
	c.Plot(ps, 10)

	// top left and bottom right corners
	assert.NotEqual(t, rune(brailleBase), c.Grid[0][0])
	assert.NotEqual(t, rune(brailleBase), c.Grid[1][3])
	assert.Equal(t, rune(brailleBase), c.Grid[0][3])
	assert.Equal(t, 2, strings.Count(c.String(), "\n")+1)
}

func TestThemes(t *testing.T) {
	assert.Equal(t, "retro", GetTheme("retro").Name)
	assert.Equal(t, "cyberpunk", GetTheme("nope").Name)
	assert.Equal(t, []string{"cyberpunk", "retro", "ocean"}, ThemeNames())
}

func testState() *sim.State {
	ps := []*sim.Particle{
		sim.NewParticle(0, r3.Vec{X: 1, Y: 1, Z: 1}, 0.5, 1),
		sim.NewParticle(1, r3.Vec{X: 5, Y: 5, Z: 5}, 0.5, 1),
	}
	return &sim.State{Particles: ps, Box: 10, Time: 0.5, Step: 500, Dt: 0.001, EndTime: 1}
}

func TestFeedDropsWhenFull(t *testing.T) {
	f := NewFeed(analysis.NewTracker(1))
	s := testState()
	for i := 0; i < 40; i++ {
		require.NoError(t, f.Observe(s))
	}
	assert.Len(t, f.frames, cap(f.frames))
}

func TestFeedCopiesParticles(t *testing.T) {
	f := NewFeed(nil)
	s := testState()
	require.NoError(t, f.Observe(s))
	s.Particles[0].Pos.X = 9

	msg := f.wait()()
	fr, ok := msg.(frameMsg)
	require.True(t, ok)
	assert.Equal(t, 1.0, fr.Particles[0].Pos.X)
	assert.Equal(t, 500, fr.Step)
	assert.Equal(t, 1000, fr.TotalSteps)
}

func TestFeedDeliversFramesBeforeDone(t *testing.T) {
	f := NewFeed(nil)
	require.NoError(t, f.Observe(testState()))
	f.Finish(nil)

	_, ok := f.wait()().(frameMsg)
	assert.True(t, ok)
	_, ok = f.wait()().(doneMsg)
	assert.True(t, ok)
}

func TestModelUpdate(t *testing.T) {
	f := NewFeed(nil)
	cancelled := false
	m := NewModel("ao", f, func() { cancelled = true }, ThemeCyberpunk)
	assert.Contains(t, m.View(), "waiting")

	for k := 1; k <= 3; k++ {
		s := testState()
		s.Time = 0.25 * float64(k)
		require.NoError(t, f.Observe(s))
		next, cmd := m.Update(f.wait()())
		m = next.(Model)
		assert.NotNil(t, cmd)
	}
	assert.Len(t, m.msd, 3)
	view := m.View()
	assert.Contains(t, view, "RUNNING")
	assert.Contains(t, view, "tracked MSD")
	assert.Contains(t, view, "0.750 / 1.000")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	m = next.(Model)
	assert.True(t, cancelled)
	assert.True(t, m.quitting)
	assert.NotNil(t, cmd)
}

func TestModelDone(t *testing.T) {
	f := NewFeed(nil)
	m := NewModel("ao", f, nil, ThemeOcean)
	require.NoError(t, f.Observe(testState()))
	next, _ := m.Update(f.wait()())
	m = next.(Model)

	next, _ = m.Update(doneMsg{err: errors.New("overlap")})
	m = next.(Model)
	assert.True(t, m.finished)
	assert.Contains(t, m.View(), "FAILED")
	assert.Contains(t, m.View(), "overlap")
}

func TestAppendCapped(t *testing.T) {
	var xs []float64
	for i := 0; i < historyLen+10; i++ {
		xs = appendCapped(xs, float64(i))
	}
	assert.Len(t, xs, historyLen)
	assert.Equal(t, 10.0, xs[0])
}

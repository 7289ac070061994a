package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/psim/internal/sim"
)

func TestSnapshotSVG(t *testing.T) {
	near := sim.NewParticle(0, r3.Vec{X: 2, Y: 2, Z: 9}, 0.5, 1)
	far := sim.NewParticle(1, r3.Vec{X: 2, Y: 8, Z: 1}, 0.5, 1)
	far.Coordination = 3

	svg, err := SnapshotSVG([]*sim.Particle{near, far}, 10, "z", 100)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(svg, "<?xml"))
	assert.Equal(t, 2, strings.Count(svg, "<circle"))
	// y is flipped and the far particle is painted first
	assert.Contains(t, svg, `<circle cx="20.0" cy="20.0" r="5.0" fill="#ffcc00"/>`)
	assert.Less(t, strings.Index(svg, "#ffcc00"), strings.Index(svg, "#555566"))
}

func TestSnapshotSVGAxes(t *testing.T) {
	p := sim.NewParticle(0, r3.Vec{X: 1, Y: 2, Z: 3}, 0.5, 1)
	for axis, want := range map[string]string{
		"x": `cx="20.0" cy="70.0"`,
		"y": `cx="10.0" cy="70.0"`,
		"z": `cx="10.0" cy="80.0"`,
	} {
		svg, err := SnapshotSVG([]*sim.Particle{p}, 10, axis, 100)
		require.NoError(t, err)
		assert.Contains(t, svg, want, axis)
	}

	_, err := SnapshotSVG([]*sim.Particle{p}, 10, "w", 100)
	assert.ErrorIs(t, err, sim.ErrInput)
	_, err = SnapshotSVG(nil, 0, "z", 100)
	assert.ErrorIs(t, err, sim.ErrInput)
}

func TestCoordinationColor(t *testing.T) {
	assert.Equal(t, "#555566", coordinationColor(0))
	assert.Equal(t, "#ff4444", coordinationColor(42))
	assert.Equal(t, "#555566", coordinationColor(-1))
}

func TestSeriesSVG(t *testing.T) {
	svg := SeriesSVG([]float64{0, 1, 2}, []float64{0, 1, 4}, 200, 100, "#00ff88")
	assert.Contains(t, svg, `stroke="#00ff88"`)
	assert.Equal(t, 2, strings.Count(svg, " L"))

	assert.Empty(t, SeriesSVG([]float64{1}, []float64{1}, 10, 10, "#fff"))
}

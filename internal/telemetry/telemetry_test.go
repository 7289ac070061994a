package telemetry

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/psim/internal/sim"
)

func TestNewLogger(t *testing.T) {
	for _, tt := range []struct {
		level string
		dev   bool
	}{
		{"info", false},
		{"debug", true},
		{"warn", false},
	} {
		l, err := NewLogger(tt.level, tt.dev)
		require.NoError(t, err, tt.level)
		assert.NotNil(t, l)
	}

	_, err := NewLogger("loud", false)
	assert.Error(t, err)

	l, err := NewLogger("warn", false)
	require.NoError(t, err)
	assert.Nil(t, l.Check(zapcore.DebugLevel, "debug is off"))
}

// state holds one particle moving at v on every axis, so its temperature
// is v*v.
func state(step int, v float64) *sim.State {
	p := sim.NewParticle(0, r3.Vec{X: 1, Y: 1, Z: 1}, 0.5, 1)
	p.Vel = r3.Vec{X: v, Y: v, Z: v}
	return &sim.State{Particles: []*sim.Particle{p}, Box: 10, Step: step, Time: float64(step) * 0.001}
}

func TestCollector(t *testing.T) {
	c := NewCollector("ao_1", nil)

	require.NoError(t, c.Observe(state(10, 2)))
	require.NoError(t, c.Observe(state(25, 2)))

	assert.Equal(t, 25.0, testutil.ToFloat64(c.steps))
	assert.InDelta(t, 0.025, testutil.ToFloat64(c.time), 1e-12)
	assert.InDelta(t, 4.0, testutil.ToFloat64(c.temperature), 1e-12)
	assert.Zero(t, testutil.ToFloat64(c.clusters))

	c.StartAt(100)
	require.NoError(t, c.Observe(state(110, 0)))
	assert.Equal(t, 35.0, testutil.ToFloat64(c.steps))
}

func TestCollectorHandler(t *testing.T) {
	c := NewCollector("ao_2", nil)
	require.NoError(t, c.Observe(state(5, 1)))

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `psim_steps_total{trial="ao_2"} 5`)
	assert.Contains(t, string(body), "psim_temperature")
	assert.Contains(t, string(body), "go_goroutines")
}

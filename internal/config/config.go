package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/psim/internal/sim"
)

const (
	DefaultDt            = 0.001
	DefaultSeed          = 90210
	DefaultKT            = 1.0
	DefaultParticles     = 1000
	DefaultConcentration = 0.01
	DefaultScale         = 4
	DefaultRadius        = 0.5
	DefaultMass          = 1.0
	DefaultEndTime       = 1000.0
	DefaultThreads       = 1
	DefaultGamma         = 0.5
	DefaultVelFreq       = 1000
	DefaultForce         = "ao"
	DefaultIntegrator    = "brownian"
)

// Config is the run configuration as stored in sysConfig.yaml.
type Config struct {
	Force      string             `yaml:"force"`
	Integrator string             `yaml:"integrator"`
	Params     map[string]float64 `yaml:"params,omitempty"`

	Dt      float64 `yaml:"dt"`
	EndTime float64 `yaml:"endTime"`
	Seed    int64   `yaml:"seed"`
	KT      float64 `yaml:"kT"`

	NParticles    int     `yaml:"nParticles"`
	Concentration float64 `yaml:"concentration"`
	Scale         int     `yaml:"scale"`
	Radius        float64 `yaml:"radius"`
	Mass          float64 `yaml:"mass"`

	Threads int     `yaml:"threads"`
	Gamma   float64 `yaml:"gamma"`
	VelFreq int     `yaml:"velFreq"`

	// OutputEvery overrides the default of one output per unit time.
	OutputEvery int `yaml:"outputFreq,omitempty"`
	// QuenchTime, when positive, quenches the forces once Time reaches it.
	QuenchTime float64 `yaml:"quenchTime,omitempty"`
	// InteractionRange counts neighbours within this distance in addition to
	// those inside a potential's count range.
	InteractionRange float64 `yaml:"interactionRange,omitempty"`
	Compress         bool    `yaml:"compress,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Force:         DefaultForce,
		Integrator:    DefaultIntegrator,
		Params:        map[string]float64{},
		Dt:            DefaultDt,
		EndTime:       DefaultEndTime,
		Seed:          DefaultSeed,
		KT:            DefaultKT,
		NParticles:    DefaultParticles,
		Concentration: DefaultConcentration,
		Scale:         DefaultScale,
		Radius:        DefaultRadius,
		Mass:          DefaultMass,
		Threads:       DefaultThreads,
		Gamma:         DefaultGamma,
		VelFreq:       DefaultVelFreq,
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Params = make(map[string]float64, len(c.Params))
	for k, v := range c.Params {
		out.Params[k] = v
	}
	return &out
}

// OutputFreq is the number of steps between outputs.
func (c *Config) OutputFreq() int {
	if c.OutputEvery > 0 {
		return c.OutputEvery
	}
	if c.Dt <= 0 {
		return 1
	}
	n := int(math.Round(1.0 / c.Dt))
	if n < 1 {
		return 1
	}
	return n
}

func (c *Config) Validate() error {
	check := []struct {
		ok   bool
		what string
	}{
		{c.Force != "", "force name is empty"},
		{c.Dt > 0, fmt.Sprintf("dt %g must be positive", c.Dt)},
		{c.EndTime > 0, fmt.Sprintf("endTime %g must be positive", c.EndTime)},
		{c.KT >= 0, fmt.Sprintf("kT %g must be non-negative", c.KT)},
		{c.NParticles > 0, fmt.Sprintf("nParticles %d must be positive", c.NParticles)},
		{c.Concentration > 0 && c.Concentration < 1, fmt.Sprintf("concentration %g must lie in (0, 1)", c.Concentration)},
		{c.Scale >= 1, fmt.Sprintf("scale %d must be at least 1", c.Scale)},
		{c.Radius > 0, fmt.Sprintf("radius %g must be positive", c.Radius)},
		{c.Mass > 0, fmt.Sprintf("mass %g must be positive", c.Mass)},
		{c.Threads >= 0, fmt.Sprintf("threads %d must be non-negative", c.Threads)},
		{c.Gamma >= 0, fmt.Sprintf("gamma %g must be non-negative", c.Gamma)},
		{c.VelFreq >= 0, fmt.Sprintf("velFreq %d must be non-negative", c.VelFreq)},
		{c.OutputEvery >= 0, fmt.Sprintf("outputFreq %d must be non-negative", c.OutputEvery)},
		{c.InteractionRange >= 0, fmt.Sprintf("interactionRange %g must be non-negative", c.InteractionRange)},
	}
	for _, ch := range check {
		if !ch.ok {
			return fmt.Errorf("config: %s: %w", ch.what, sim.ErrInput)
		}
	}
	return nil
}

// Load reads a YAML file over the defaults, so partial files are allowed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %v: %w", err, sim.ErrInput)
	}
	if cfg.Params == nil {
		cfg.Params = map[string]float64{}
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

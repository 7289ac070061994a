package config

import "sort"

// Presets are known-good starting points keyed by force name. Fields not
// set here keep their defaults once passed through GetPreset.
var Presets = map[string]map[string]*Config{
	"ao": {
		"gel": {
			Force: "ao", Concentration: 0.1, NParticles: 2000, EndTime: 500,
			Params: map[string]float64{"wellDepth": 4.0, "cutOff": 1.1},
		},
		"fluid": {
			Force: "ao", Concentration: 0.05, EndTime: 200,
			Params: map[string]float64{"wellDepth": 0.261, "cutOff": 1.1},
		},
		"dilute": {
			Force: "ao", Concentration: 0.01, NParticles: 500, EndTime: 100,
			Params: map[string]float64{"wellDepth": 2.0, "cutOff": 1.1},
		},
	},
	"lj-yukawa": {
		"cluster": {
			Force: "lj-yukawa", Concentration: 0.05, EndTime: 500,
			Params: map[string]float64{"yukawaStrength": 8, "debyeLength": 0.5},
		},
		"quench": {
			Force: "lj-yukawa", Concentration: 0.05, EndTime: 500, QuenchTime: 100,
			Params: map[string]float64{"yukawaStrength": 8, "debyeLength": 0.5},
		},
	},
	"calibration": {
		"hard": {
			Force: "calibration", Concentration: 0.1, NParticles: 500, EndTime: 50,
		},
	},
}

// GetPreset returns the preset merged over the defaults, or nil.
func GetPreset(force, preset string) *Config {
	forcePresets, ok := Presets[force]
	if !ok {
		return nil
	}
	p, ok := forcePresets[preset]
	if !ok {
		return nil
	}
	return merge(DefaultConfig(), p)
}

func ListPresets(force string) []string {
	forcePresets, ok := Presets[force]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(forcePresets))
	for name := range forcePresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// merge copies every non-zero field of p onto base.
func merge(base, p *Config) *Config {
	out := base.Clone()
	if p.Force != "" {
		out.Force = p.Force
	}
	if p.Integrator != "" {
		out.Integrator = p.Integrator
	}
	for k, v := range p.Params {
		out.Params[k] = v
	}
	if p.Dt > 0 {
		out.Dt = p.Dt
	}
	if p.EndTime > 0 {
		out.EndTime = p.EndTime
	}
	if p.Seed != 0 {
		out.Seed = p.Seed
	}
	if p.KT > 0 {
		out.KT = p.KT
	}
	if p.NParticles > 0 {
		out.NParticles = p.NParticles
	}
	if p.Concentration > 0 {
		out.Concentration = p.Concentration
	}
	if p.Scale > 0 {
		out.Scale = p.Scale
	}
	if p.Radius > 0 {
		out.Radius = p.Radius
	}
	if p.Mass > 0 {
		out.Mass = p.Mass
	}
	if p.Gamma > 0 {
		out.Gamma = p.Gamma
	}
	if p.VelFreq > 0 {
		out.VelFreq = p.VelFreq
	}
	if p.QuenchTime > 0 {
		out.QuenchTime = p.QuenchTime
	}
	if p.InteractionRange > 0 {
		out.InteractionRange = p.InteractionRange
	}
	return out
}

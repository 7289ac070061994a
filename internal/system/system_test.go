package system_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/psim/internal/config"
	"github.com/san-kum/psim/internal/forces"
	"github.com/san-kum/psim/internal/integrators"
	"github.com/san-kum/psim/internal/sim"
	"github.com/san-kum/psim/internal/system"
)

func smallConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.NParticles = 100
	cfg.Concentration = 0.05
	cfg.EndTime = 0.05
	cfg.OutputEvery = 10
	return cfg
}

func build(cfg *config.Config, opts ...system.Option) (*system.System, error) {
	pot, err := forces.New(cfg.Force, cfg.Params)
	if err != nil {
		return nil, err
	}
	fm := forces.NewManager()
	fm.AddForce(pot)
	integ := integrators.NewBrownian(cfg.Gamma, cfg.KT, cfg.VelFreq, cfg.Seed)
	return system.New(cfg, integ, fm, opts...)
}

func positions(s *system.System) []r3.Vec {
	out := make([]r3.Vec, s.State().N())
	for i, p := range s.State().Particles {
		out[i] = p.Pos
	}
	return out
}

var _ = Describe("Size", func() {
	It("snaps the box to whole cells", func() {
		geo := system.Size(config.DefaultConfig())
		Expect(geo.Box).To(Equal(36.0))
		Expect(geo.CellSize).To(Equal(9.0))
		Expect(geo.Concentration).To(BeNumerically("~", 1000*4.0/3.0*math.Pi*0.125/(36*36*36), 1e-12))
	})
})

var _ = Describe("New", func() {
	It("rejects cells smaller than the cutoff", func() {
		cfg := smallConfig()
		cfg.NParticles = 10
		cfg.Concentration = 0.01
		cfg.Scale = 8

		_, err := build(cfg)
		Expect(errors.Is(err, sim.ErrInput)).To(BeTrue())
	})

	It("rejects an invalid config", func() {
		cfg := smallConfig()
		cfg.Dt = -1
		_, err := build(cfg)
		Expect(errors.Is(err, sim.ErrInput)).To(BeTrue())
	})

	It("requires an integrator", func() {
		_, err := system.New(smallConfig(), nil, forces.NewManager())
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Init", func() {
	var (
		ctx context.Context
		s   *system.System
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		s, err = build(smallConfig())
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Init(ctx)).To(Succeed())
	})

	It("places every particle without overlap", func() {
		st := s.State()
		Expect(st.N()).To(Equal(100))
		for i, p := range st.Particles {
			Expect(sim.InBox(p.Pos, st.Box)).To(BeTrue())
			Expect(p.ID).To(Equal(i))
			for _, q := range st.Particles[i+1:] {
				d := math.Sqrt(sim.Dist2(p.Pos, q.Pos, st.Box))
				Expect(d).To(BeNumerically(">=", 1.1*(p.Radius+q.Radius)))
			}
		}
	})

	It("draws zero-mean velocities at kT", func() {
		var sum r3.Vec
		var v2 float64
		for _, p := range s.State().Particles {
			sum = r3.Add(sum, p.Vel)
			v2 += r3.Norm2(p.Vel)
		}
		Expect(r3.Norm(sum)).To(BeNumerically("<", 1e-9))
		// sample variance normalization gives (n-1)/n
		Expect(v2 / 300).To(BeNumerically("~", 0.99, 1e-9))
	})

	It("assigns every particle to a cell", func() {
		for _, p := range s.State().Particles {
			Expect(p.Cell[0]).To(BeNumerically(">=", 0))
		}
	})

	It("is reproducible for a fixed seed", func() {
		other, err := build(smallConfig())
		Expect(err).NotTo(HaveOccurred())
		Expect(other.Init(ctx)).To(Succeed())
		Expect(positions(other)).To(Equal(positions(s)))
	})

	It("gives up when the box is too crowded", func() {
		cfg := smallConfig()
		cfg.Concentration = 0.6
		cfg.Scale = 1
		dense, err := build(cfg)
		Expect(err).NotTo(HaveOccurred())

		err = dense.Init(ctx)
		Expect(errors.Is(err, sim.ErrInitialization)).To(BeTrue())
		Expect(sim.Code(err)).To(Equal(7701))
	})

	It("gives a single particle one sigma per axis", func() {
		cfg := smallConfig()
		cfg.NParticles = 1
		cfg.Concentration = 0.001
		cfg.Scale = 1
		one, err := build(cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(one.Init(ctx)).To(Succeed())

		v := one.State().Particles[0].Vel
		Expect(math.Abs(v.X)).To(Equal(1.0))
		Expect(math.Abs(v.Y)).To(Equal(1.0))
		Expect(math.Abs(v.Z)).To(Equal(1.0))
	})
})

var _ = Describe("Run", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("advances the clock and notifies observers every OutputFreq steps", func() {
		var seen []int
		obs := sim.ObserverFunc(func(st *sim.State) error {
			seen = append(seen, st.Step)
			return nil
		})
		s, err := build(smallConfig(), system.WithObserver(obs))
		Expect(err).NotTo(HaveOccurred())

		Expect(s.Run(ctx)).To(Succeed())
		Expect(s.State().Step).To(Equal(50))
		Expect(s.State().Time).To(BeNumerically("~", 0.05, 1e-9))
		Expect(seen).To(Equal([]int{10, 20, 30, 40, 50}))
	})

	It("observes the final state when the run ends between outputs", func() {
		cfg := smallConfig()
		cfg.OutputEvery = 0
		calls := 0
		s, err := build(cfg, system.WithObserver(sim.ObserverFunc(func(*sim.State) error {
			calls++
			return nil
		})))
		Expect(err).NotTo(HaveOccurred())

		Expect(s.Run(ctx)).To(Succeed())
		Expect(calls).To(Equal(1))
	})

	It("feeds metrics on every step", func() {
		m := &countMetric{}
		s, err := build(smallConfig(), system.WithMetric(m))
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Run(ctx)).To(Succeed())
		Expect(m.Value()).To(Equal(50.0))
	})

	It("keeps particles inside the box", func() {
		s, err := build(smallConfig())
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Run(ctx)).To(Succeed())
		for _, p := range s.State().Particles {
			Expect(sim.InBox(p.Pos, s.State().Box)).To(BeTrue())
		}
	})

	It("stops on a cancelled context", func() {
		s, err := build(smallConfig())
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Init(ctx)).To(Succeed())

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err = s.Run(cctx)
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		Expect(s.State().Step).To(Equal(0))
	})

	It("wraps observer failures with the step", func() {
		boom := errors.New("disk full")
		s, err := build(smallConfig(), system.WithObserver(sim.ObserverFunc(func(*sim.State) error {
			return boom
		})))
		Expect(err).NotTo(HaveOccurred())

		err = s.Run(ctx)
		var se *sim.SimulationError
		Expect(errors.As(err, &se)).To(BeTrue())
		Expect(se.Step).To(Equal(10))
		Expect(errors.Is(err, boom)).To(BeTrue())
	})

	It("quenches once the quench time is reached", func() {
		cfg := smallConfig()
		cfg.Force = "lj-yukawa"
		cfg.Scale = 3
		cfg.QuenchTime = 0.02
		s, err := build(cfg)
		Expect(err).NotTo(HaveOccurred())

		Expect(s.Run(ctx)).To(Succeed())
		Expect(s.Quenched()).To(BeTrue())
		Expect(s.Forces().Forces()[0].GetParams()["kT"]).To(Equal(3.0))
	})
})

var _ = Describe("Snapshot and Restore", func() {
	It("continues from the saved state", func() {
		ctx := context.Background()
		cfg := smallConfig()
		cfg.EndTime = 0.02
		s, err := build(cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Run(ctx)).To(Succeed())

		snap := s.Snapshot()
		Expect(snap.Step).To(Equal(20))

		Expect(snap.Particles[0]).NotTo(BeIdenticalTo(s.State().Particles[0]))

		cfg.EndTime = 0.04
		pot, err := forces.New(cfg.Force, cfg.Params)
		Expect(err).NotTo(HaveOccurred())
		fm := forces.NewManager()
		fm.AddForce(pot)
		restored, err := system.Restore(cfg, integrators.NewBrownian(cfg.Gamma, cfg.KT, cfg.VelFreq, cfg.Seed), fm, snap)
		Expect(err).NotTo(HaveOccurred())

		Expect(restored.State().Time).To(BeNumerically("~", 0.02, 1e-9))
		Expect(positions(restored)).To(Equal(positions(s)))

		Expect(restored.Run(ctx)).To(Succeed())
		Expect(restored.State().Step).To(Equal(40))
	})

	It("rejects particles outside the box", func() {
		cfg := smallConfig()
		cfg.Scale = 1
		p := sim.NewParticle(0, r3.Vec{X: 1e3}, 0.5, 1)
		fm := forces.NewManager()
		_, err := system.Restore(cfg, integrators.NewEuler(nil), fm, &system.Snapshot{Particles: []*sim.Particle{p}})
		Expect(errors.Is(err, sim.ErrParticleBounds)).To(BeTrue())
	})

	It("rejects an empty snapshot", func() {
		_, err := system.Restore(smallConfig(), integrators.NewEuler(nil), forces.NewManager(), &system.Snapshot{})
		Expect(errors.Is(err, sim.ErrInput)).To(BeTrue())
	})
})

type countMetric struct{ n int }

func (c *countMetric) Name() string       { return "count" }
func (c *countMetric) Observe(*sim.State) { c.n++ }
func (c *countMetric) Value() float64     { return float64(c.n) }
func (c *countMetric) Reset()             { c.n = 0 }

package drivetrain_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/wheelsim/internal/drivetrain"
)

// spinner is a wheel that integrates motor torque on its own inertia and
// pushes back a fixed counter torque.
type spinner struct {
	av, inertia, counter float64
	lastTorque           float64
	lastInertia          float64
	calls                int
}

func (s *spinner) Solve(torque, inertia, dt float64) float64 {
	s.calls++
	s.lastTorque = torque
	s.lastInertia = inertia
	s.av += torque / inertia * dt
	return s.counter
}

func (s *spinner) AngularVelocity() float64 { return s.av }
func (s *spinner) Inertia() float64         { return s.inertia }

var _ = Describe("Graph", func() {
	var g *drivetrain.Graph

	BeforeEach(func() {
		g = drivetrain.NewGraph()
	})

	Describe("QueryInertia", func() {
		It("sums own inertia along a chain of any length", func() {
			for _, n := range []int{1, 2, 5, 17} {
				g = drivetrain.NewGraph()
				prev := drivetrain.NoNode
				want := 0.0
				for i := 0; i < n; i++ {
					inertia := 0.1 * float64(i+1)
					want += inertia
					id := g.Add(drivetrain.NewShaft("shaft", inertia))
					if prev != drivetrain.NoNode {
						Expect(g.Connect(prev, id)).To(Succeed())
					}
					prev = id
				}
				Expect(g.Node(0).QueryInertia()).To(BeNumerically("~", want, 1e-12))
			}
		})

		It("adds geared nodes without reflecting through their ratios", func() {
			cl := drivetrain.NewClutch()
			gb := drivetrain.NewGearbox()
			diff := drivetrain.NewDifferential()
			l := &spinner{inertia: 0.5}
			r := &spinner{inertia: 0.7}

			cid := g.Add(cl)
			gid := g.Add(gb)
			did := g.Add(diff)
			lid := g.Add(drivetrain.NewWheelNode("left", l))
			rid := g.Add(drivetrain.NewWheelNode("right", r))
			Expect(g.Connect(cid, gid)).To(Succeed())
			Expect(g.Connect(gid, did)).To(Succeed())
			Expect(g.ConnectDifferential(did, lid, rid)).To(Succeed())

			Expect(gb.Ratio()).To(Equal(3.59))
			want := 0.02 + 0.02 + 0.02 + 0.5 + 0.7
			Expect(cl.QueryInertia()).To(BeNumerically("~", want, 1e-12))

			By("ignoring clutch engagement and gear")
			cl.SetPedal(1)
			Expect(cl.QueryInertia()).To(BeNumerically("~", want, 1e-12))
			Expect(gb.SetGear(drivetrain.GearNeutral)).To(Succeed())
			Expect(cl.QueryInertia()).To(BeNumerically("~", want, 1e-12))
		})

		It("does not depend on node order", func() {
			chain := func(nodes ...drivetrain.Node) float64 {
				g := drivetrain.NewGraph()
				prev := drivetrain.NoNode
				for _, n := range nodes {
					id := g.Add(n)
					if prev != drivetrain.NoNode {
						Expect(g.Connect(prev, id)).To(Succeed())
					}
					prev = id
				}
				return nodes[0].QueryInertia()
			}
			a := chain(drivetrain.NewGearbox(), drivetrain.NewShaft("a", 0.3), drivetrain.NewShaft("b", 1))
			b := chain(drivetrain.NewShaft("b", 1), drivetrain.NewShaft("a", 0.3), drivetrain.NewGearbox())
			Expect(a).To(BeNumerically("~", 1.32, 1e-12))
			Expect(b).To(BeNumerically("~", a, 1e-12))
		})
	})

	Describe("Connect", func() {
		It("rejects a second output", func() {
			a := g.Add(drivetrain.NewShaft("a", 1))
			b := g.Add(drivetrain.NewShaft("b", 1))
			c := g.Add(drivetrain.NewShaft("c", 1))
			Expect(g.Connect(a, b)).To(Succeed())
			Expect(g.Connect(a, c)).To(MatchError(drivetrain.ErrOutputInUse))
		})

		It("rejects a node that already has an input", func() {
			a := g.Add(drivetrain.NewShaft("a", 1))
			b := g.Add(drivetrain.NewShaft("b", 1))
			c := g.Add(drivetrain.NewShaft("c", 1))
			Expect(g.Connect(a, c)).To(Succeed())
			Expect(g.Connect(b, c)).To(MatchError(drivetrain.ErrInputInUse))
		})

		It("rejects cycles", func() {
			a := g.Add(drivetrain.NewShaft("a", 1))
			b := g.Add(drivetrain.NewShaft("b", 1))
			Expect(g.Connect(a, a)).To(MatchError(drivetrain.ErrCycle))
			Expect(g.Connect(a, b)).To(Succeed())
			Expect(g.Connect(b, a)).To(MatchError(drivetrain.ErrCycle))
		})

		It("rejects a cycle back into a chain head", func() {
			a := g.Add(drivetrain.NewShaft("a", 1))
			b := g.Add(drivetrain.NewShaft("b", 1))
			c := g.Add(drivetrain.NewShaft("c", 1))
			Expect(g.Connect(b, c)).To(Succeed())
			Expect(g.Connect(c, a)).To(Succeed())
			Expect(g.Connect(a, b)).To(MatchError(drivetrain.ErrCycle))
		})

		It("rejects unknown nodes", func() {
			a := g.Add(drivetrain.NewShaft("a", 1))
			Expect(g.Connect(a, 9)).To(MatchError(drivetrain.ErrUnknownNode))
		})

		It("only lets differentials branch", func() {
			a := g.Add(drivetrain.NewShaft("a", 1))
			b := g.Add(drivetrain.NewShaft("b", 1))
			c := g.Add(drivetrain.NewShaft("c", 1))
			Expect(g.ConnectDifferential(a, b, c)).To(MatchError(drivetrain.ErrNotBranching))
		})

		It("walks a full chain", func() {
			eng := drivetrain.NewEngine()
			cl := g.Add(drivetrain.NewClutch())
			gb := g.Add(drivetrain.NewGearbox())
			df := g.Add(drivetrain.NewDifferential())
			l := g.Add(drivetrain.NewWheelNode("l", &spinner{inertia: 1}))
			r := g.Add(drivetrain.NewWheelNode("r", &spinner{inertia: 1}))
			root, err := eng.Attach(g, cl)
			Expect(err).NotTo(HaveOccurred())
			Expect(g.Connect(cl, gb)).To(Succeed())
			Expect(g.Connect(gb, df)).To(Succeed())
			Expect(g.ConnectDifferential(df, l, r)).To(Succeed())
			Expect(g.Chain(root)).To(Equal([]drivetrain.NodeID{root, cl, gb, df, l, r}))
		})
	})

	Describe("terminal nodes", func() {
		It("returns own inertia, the candidate speed and the input torque", func() {
			s := drivetrain.NewShaft("free", 0.3)
			g.Add(s)
			Expect(s.QueryInertia()).To(Equal(0.3))
			Expect(s.QueryAngularVelocity(12, 0.01)).To(Equal(12.0))
			Expect(s.ForwardStep(50, 1, 0.01)).To(Equal(50.0))
			Expect(s.OutputTorque).To(Equal(50.0))
		})

		It("hands torque back from an unconnected clutch, gearbox and differential", func() {
			c := drivetrain.NewClutch()
			gb := drivetrain.NewGearbox()
			d := drivetrain.NewDifferential()
			g.Add(c)
			g.Add(gb)
			g.Add(d)
			Expect(c.ForwardStep(100, 1, 0.01)).To(Equal(100.0))
			Expect(gb.ForwardStep(100, 1, 0.01)).To(Equal(100.0))
			Expect(d.ForwardStep(100, 1, 0.01)).To(Equal(100.0))
			Expect(c.QueryInertia()).To(Equal(c.Inertia))
			Expect(gb.QueryInertia()).To(Equal(gb.Inertia))
			Expect(d.QueryInertia()).To(Equal(d.Inertia))
		})
	})
})

var _ = Describe("Gearbox", func() {
	var (
		g     *drivetrain.Graph
		gb    *drivetrain.Gearbox
		wheel *spinner
	)

	BeforeEach(func() {
		g = drivetrain.NewGraph()
		gb = drivetrain.NewGearbox()
		wheel = &spinner{inertia: 1, counter: 30}
		Expect(g.Connect(g.Add(gb), g.Add(drivetrain.NewWheelNode("w", wheel)))).To(Succeed())
	})

	It("multiplies torque by the ratio and divides the reaction", func() {
		ret := gb.ForwardStep(100, 0, 0.01)
		Expect(wheel.lastTorque).To(BeNumerically("~", 359, 1e-9))
		Expect(ret).To(BeNumerically("~", 30/3.59, 1e-9))
	})

	It("transmits zero torque while shifting and still steps the wheels", func() {
		Expect(gb.SetGear(2)).To(Succeed())
		Expect(gb.Shifting()).To(BeTrue())
		Expect(gb.CanShift()).To(BeFalse())
		Expect(gb.ForwardStep(100, 0, 0.01)).To(Equal(0.0))
		Expect(wheel.calls).To(Equal(1))
		Expect(wheel.lastTorque).To(Equal(0.0))

		for i := 0; i < 20; i++ {
			gb.ForwardStep(100, 0, 0.01)
		}
		Expect(gb.CanShift()).To(BeTrue())
		gb.ForwardStep(100, 0, 0.01)
		Expect(wheel.lastTorque).To(BeNumerically("~", 202, 1e-9))
	})

	It("decouples in neutral", func() {
		Expect(gb.SetGear(drivetrain.GearNeutral)).To(Succeed())
		Expect(gb.Ratio()).To(Equal(0.0))
		Expect(gb.QueryInertia()).To(BeNumerically("~", gb.Inertia+1, 1e-12))
		Expect(gb.QueryAngularVelocity(80, 0.01)).To(Equal(80.0))
		for i := 0; i < 50; i++ {
			Expect(gb.ForwardStep(100, 0, 0.01)).To(Equal(0.0))
		}
		Expect(wheel.lastTorque).To(Equal(0.0))
	})

	It("uses a negative ratio in reverse", func() {
		Expect(gb.SetGear(drivetrain.GearReverse)).To(Succeed())
		Expect(gb.Ratio()).To(Equal(-4.0))
	})

	It("rejects gears outside the table", func() {
		Expect(gb.SetGear(6)).To(MatchError(drivetrain.ErrInvalidGear))
		Expect(gb.SetGear(-2)).To(MatchError(drivetrain.ErrInvalidGear))
		Expect(gb.Gear).To(Equal(1))
	})

	It("blocks shifting during the cooldown", func() {
		Expect(gb.ShiftUp()).To(BeTrue())
		Expect(gb.ShiftUp()).To(BeFalse())
		Expect(gb.Gear).To(Equal(2))
	})

	It("shifts automatically on rpm and holds under wheel slip", func() {
		gb.Automatic = true
		gb.AutoShift(7000, 0.9)
		Expect(gb.Gear).To(Equal(1))
		gb.AutoShift(7000, 0.1)
		Expect(gb.Gear).To(Equal(2))
		for i := 0; i < 20; i++ {
			gb.ForwardStep(0, 0, 0.01)
		}
		gb.AutoShift(1500, 0)
		Expect(gb.Gear).To(Equal(1))
	})
})

var _ = Describe("Clutch", func() {
	It("passes nothing when the pedal is pressed", func() {
		g := drivetrain.NewGraph()
		c := drivetrain.NewClutch()
		w := &spinner{inertia: 1}
		Expect(g.Connect(g.Add(c), g.Add(drivetrain.NewWheelNode("w", w)))).To(Succeed())
		c.SetPedal(1)
		Expect(c.QueryInertia()).To(BeNumerically("~", c.Inertia+1, 1e-12))
		Expect(c.QueryAngularVelocity(100, 0.01)).To(Equal(100.0))
		Expect(c.ForwardStep(200, 0.1, 0.01)).To(Equal(0.0))
		Expect(w.lastTorque).To(Equal(0.0))
	})

	It("caps transmitted torque at its capacity", func() {
		g := drivetrain.NewGraph()
		c := drivetrain.NewClutch()
		c.Damping = 1
		w := &spinner{inertia: 1, counter: -1000}
		Expect(g.Connect(g.Add(c), g.Add(drivetrain.NewWheelNode("w", w)))).To(Succeed())
		c.QueryAngularVelocity(0, 0.01)
		ret := c.ForwardStep(5000, 0.1, 0.01)
		Expect(w.lastTorque).To(Equal(c.TorqueCapacity))
		Expect(ret).To(Equal(-c.TorqueCapacity))
	})

	It("engages automatically with engine rpm", func() {
		c := drivetrain.NewClutch()
		c.Automatic = true
		c.UpdateAutomatic(800, 800)
		Expect(c.Engagement).To(Equal(0.0))
		c.UpdateAutomatic(1000, 800)
		Expect(c.Engagement).To(BeNumerically("~", 0.5, 1e-12))
		c.UpdateAutomatic(3000, 800)
		Expect(c.Engagement).To(Equal(1.0))
	})
})

var _ = Describe("Differential", func() {
	var (
		g    *drivetrain.Graph
		d    *drivetrain.Differential
		l, r *spinner
	)

	BeforeEach(func() {
		g = drivetrain.NewGraph()
		d = drivetrain.NewDifferential()
		l = &spinner{inertia: 1}
		r = &spinner{inertia: 1}
		Expect(g.ConnectDifferential(g.Add(d), g.Add(drivetrain.NewWheelNode("l", l)), g.Add(drivetrain.NewWheelNode("r", r)))).To(Succeed())
	})

	It("splits torque evenly when open", func() {
		l.av, r.av = 10, 0
		d.QueryAngularVelocity(0, 0.01)
		d.ForwardStep(100, 0, 0.01)
		Expect(l.lastTorque).To(BeNumerically("~", 215, 1e-9))
		Expect(r.lastTorque).To(BeNumerically("~", 215, 1e-9))
	})

	It("averages branch speeds through the final drive", func() {
		l.av, r.av = 10, 20
		Expect(d.QueryAngularVelocity(0, 0.01)).To(BeNumerically("~", 15*4.3, 1e-9))
	})

	It("moves torque to the slower wheel when locked", func() {
		d.LockCoefficient = 0.1
		l.av, r.av = 10, 0
		d.QueryAngularVelocity(0, 0.01)
		d.ForwardStep(100, 0, 0.01)
		Expect(l.lastTorque).To(BeNumerically("<", 215))
		Expect(r.lastTorque).To(BeNumerically(">", 215))
		Expect(l.lastTorque + r.lastTorque).To(BeNumerically("~", 430, 1e-9))
		// (10 - 0) * 0.5 * 2 / 0.01 * 0.1
		Expect(r.lastTorque - 215).To(BeNumerically("~", 100, 1e-9))
	})

	It("honours the bias", func() {
		d.Bias = 0.7
		d.ForwardStep(100, 0, 0.01)
		Expect(l.lastTorque).To(BeNumerically("~", 301, 1e-9))
		Expect(r.lastTorque).To(BeNumerically("~", 129, 1e-9))
	})
})

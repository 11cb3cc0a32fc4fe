package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/wheelsim/internal/config"
	"github.com/san-kum/wheelsim/internal/control"
	"github.com/san-kum/wheelsim/internal/drivetrain"
	"github.com/san-kum/wheelsim/internal/vehicle"
)

var _ = Describe("Config", func() {
	It("has a valid default", func() {
		cfg := config.DefaultConfig()
		Expect(cfg.Validate()).To(Succeed())
		Expect(cfg.Sim.Dt).To(Equal(config.DefaultDt))
		Expect(cfg.Vehicle.Wheels).To(HaveLen(4))
	})

	It("round-trips through yaml", func() {
		path := filepath.Join(GinkgoT().TempDir(), "car.yaml")
		cfg := config.DefaultConfig()
		cfg.Vehicle.DriveType = vehicle.AWD
		cfg.Vehicle.Gearbox.Ratios = []float64{3, 2, 1}
		cfg.Driver = control.Spec{Kind: control.KindCruise, Speed: 12}
		Expect(config.Save(path, cfg)).To(Succeed())

		loaded, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.Vehicle.DriveType).To(Equal(vehicle.AWD))
		Expect(loaded.Vehicle.Gearbox.Ratios).To(Equal([]float64{3, 2, 1}))
		Expect(loaded.Vehicle.Engine.PowerCurve).To(Equal(cfg.Vehicle.Engine.PowerCurve))
		Expect(loaded.Driver.Speed).To(Equal(12.0))
		Expect(loaded.Validate()).To(Succeed())
	})

	It("fills missing fields from the named preset", func() {
		path := filepath.Join(GinkgoT().TempDir(), "partial.yaml")
		doc := "preset: truck\nsim:\n  duration: 3\nvehicle:\n  engine:\n    max_power: 300\n"
		Expect(os.WriteFile(path, []byte(doc), 0644)).To(Succeed())

		cfg, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Sim.Duration).To(Equal(3.0))
		Expect(cfg.Sim.Dt).To(Equal(config.DefaultDt))
		Expect(cfg.Vehicle.Engine.MaxPower).To(Equal(300.0))
		Expect(cfg.Vehicle.Body.Mass).To(Equal(3500.0))
	})

	It("rejects unknown presets and bad files", func() {
		_, err := config.Parse([]byte("preset: hovercraft\n"))
		Expect(err).To(MatchError(config.ErrUnknownPreset))
		_, err = config.Parse([]byte("sim: [\n"))
		Expect(err).To(HaveOccurred())
		_, err = config.Load(filepath.Join(GinkgoT().TempDir(), "missing.yaml"))
		Expect(err).To(HaveOccurred())
	})

	DescribeTable("Validate",
		func(mutate func(*config.Config)) {
			cfg := config.DefaultConfig()
			mutate(cfg)
			Expect(cfg.Validate()).To(MatchError(config.ErrInvalid))
		},
		Entry("zero dt", func(c *config.Config) { c.Sim.Dt = 0 }),
		Entry("negative duration", func(c *config.Config) { c.Sim.Duration = -1 }),
		Entry("record every", func(c *config.Config) { c.Sim.RecordEvery = 0 }),
		Entry("unknown metric", func(c *config.Config) { c.Sim.Metrics = []string{"lap_time"} }),
		Entry("wheel radius", func(c *config.Config) { c.Vehicle.Wheels[0].Radius = 0 }),
		Entry("empty gears", func(c *config.Config) { c.Vehicle.Gearbox.Ratios = nil }),
		Entry("no terrain", func(c *config.Config) { c.Terrain.Shapes = nil }),
		Entry("bad shape", func(c *config.Config) { c.Terrain.Shapes[0].Kind = "lava" }),
		Entry("bad driver", func(c *config.Config) { c.Driver.Kind = "autopilot" }),
	)
})

var _ = Describe("Presets", func() {
	It("lists every preset sorted", func() {
		Expect(config.ListPresets()).To(Equal([]string{"drift", "electric", "offroad", "street", "truck"}))
	})

	It("builds valid, independent configs", func() {
		for _, name := range config.ListPresets() {
			a, err := config.GetPreset(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Preset).To(Equal(name))
			Expect(a.Validate()).To(Succeed(), name)

			b, _ := config.GetPreset(name)
			a.Vehicle.Gearbox.Ratios[0] = 99
			Expect(b.Vehicle.Gearbox.Ratios[0]).NotTo(Equal(99.0), name)
		}
	})

	It("drives the electric preset through a locked clutch", func() {
		cfg, _ := config.GetPreset("electric")
		Expect(cfg.Vehicle.Engine.Type).To(Equal(drivetrain.Electric))
		Expect(cfg.Vehicle.Clutch.Automatic).To(BeFalse())
		Expect(cfg.Vehicle.Gearbox.Ratios).To(HaveLen(1))
	})

	It("puts the offroad preset on four driven wheels", func() {
		cfg, _ := config.GetPreset("offroad")
		Expect(cfg.Vehicle.DriveType).To(Equal(vehicle.AWD))
	})
})

var _ = Describe("Set", func() {
	var cfg *config.Config

	BeforeEach(func() {
		cfg = config.DefaultConfig()
	})

	It("sets nested scalars", func() {
		Expect(cfg.Set("vehicle.suspension.spring.max_force", "20000")).To(Succeed())
		Expect(cfg.Vehicle.Suspension.Spring.MaxForce).To(Equal(20000.0))
		Expect(cfg.Set("vehicle.abs.enabled", "false")).To(Succeed())
		Expect(cfg.Vehicle.ABS.Enabled).To(BeFalse())
		Expect(cfg.Set("vehicle.drive_type", "awd")).To(Succeed())
		Expect(cfg.Vehicle.DriveType).To(Equal(vehicle.AWD))
	})

	It("indexes into sequences", func() {
		Expect(cfg.SetFloat("vehicle.wheels.2.radius", 0.4)).To(Succeed())
		Expect(cfg.Vehicle.Wheels[2].Radius).To(Equal(0.4))
		Expect(cfg.Vehicle.Wheels[0].Radius).To(Equal(0.33))
	})

	It("sets fields the encoding omits", func() {
		Expect(cfg.Set("driver.speed", "15")).To(Succeed())
		Expect(cfg.Driver.Speed).To(Equal(15.0))
	})

	It("reads values back", func() {
		v, err := cfg.Get("vehicle.engine.idle_rpm")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal("800"))
	})

	It("rejects unknown paths and bad values", func() {
		Expect(cfg.Set("vehicle.engine.turbo", "1")).To(MatchError(config.ErrUnknownField))
		Expect(cfg.Set("vehicle.wheels.9.radius", "1")).To(MatchError(config.ErrUnknownField))
		Expect(cfg.Set("vehicle.body", "1")).To(MatchError(config.ErrUnknownField))
		Expect(cfg.Set("vehicle.body.mass", "heavy")).To(HaveOccurred())
		Expect(cfg.Vehicle.Body.Mass).To(Equal(1200.0))
	})
})

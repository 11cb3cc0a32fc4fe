package sim

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/wheelsim/internal/body"
	"github.com/san-kum/wheelsim/internal/config"
	"github.com/san-kum/wheelsim/internal/control"
)

// dropHeight is where the spawn cast starts looking for the ground.
const dropHeight = 1000.0

// Spawn resets the vehicle and places it per sc. With a zero spawn height
// the body is dropped onto the ground below the spawn point, wheels just
// touching at full droop.
func (s *Simulator) Spawn(sc config.Sim) {
	s.Vehicle.Reset()
	control.Reset(s.Driver)
	s.t = 0

	pos := mgl64.Vec3(sc.Spawn)
	if pos.Y() == 0 {
		pos[1] = s.groundHeight(pos) + s.Vehicle.Config.RideHeight()
	}
	rot := mgl64.QuatRotate(mgl64.DegToRad(sc.Heading), mgl64.Vec3{0, 1, 0})

	s.Body.State = make([]float64, body.StateDim)
	s.Body.SetPosition(pos)
	s.Body.SetRotation(rot)
	s.Body.SetVelocity(rot.Rotate(mgl64.Vec3{0, 0, sc.InitialSpeed}))
	for _, w := range s.Vehicle.Wheels {
		w.AngularVelocity = sc.InitialSpeed / w.Radius
		w.PrevAngularVelocity = w.AngularVelocity
	}

	log.WithFields(logrus.Fields{
		"position": pos,
		"heading":  sc.Heading,
		"speed":    sc.InitialSpeed,
	}).Debug("vehicle spawned")
}

func (s *Simulator) groundHeight(p mgl64.Vec3) float64 {
	origin := mgl64.Vec3{p.X(), dropHeight, p.Z()}
	if h, ok := s.Terrain.Cast(origin, mgl64.Vec3{0, -1, 0}, 2*dropHeight, 0); ok {
		return h.Point.Y()
	}
	return 0
}

package dynamics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/sparks/particles"
	"github.com/pthm-cable/sparks/vmath"
)

// Rotational2D spins particles in the view plane. Strength is in degrees
// per second.
type Rotational2D struct {
	particles.Base `yaml:"-"`
	Strength       `yaml:",inline"`

	angVel *particles.Channel
}

func (m *Rotational2D) Name() string { return "rotational_2d" }
func (m *Rotational2D) Kind() Kind   { return Angular2D }

func (m *Rotational2D) Allocate(c *particles.Controller) error {
	if err := m.Bind(c); err != nil {
		return err
	}
	m.angVel = c.AddChannel(particles.AngularVelocity2D)
	return m.allocateStrength(c)
}

func (m *Rotational2D) Init(c *particles.Controller) error { return m.initStrength(c) }

func (m *Rotational2D) Activate(start, count int) {
	m.activateStrength(m.Controller, start, count)
}

func (m *Rotational2D) Update(f *particles.Frame) {
	for i := 0; i < f.Count; i++ {
		m.angVel.Data[i] += mgl32.DegToRad(m.strengthAt(i))
	}
}

func (m *Rotational2D) Copy() particles.Influencer {
	return &Rotational2D{Strength: m.cloneStrength()}
}

// Rotational3D spins particles around a spherical axis. Strength is in
// degrees per second.
type Rotational3D struct {
	particles.Base `yaml:"-"`
	Strength       `yaml:",inline"`
	Angular        `yaml:",inline"`

	angVel *particles.Channel
}

func (m *Rotational3D) Name() string { return "rotational_3d" }
func (m *Rotational3D) Kind() Kind   { return Angular3D }

func (m *Rotational3D) Allocate(c *particles.Controller) error {
	if err := m.Bind(c); err != nil {
		return err
	}
	m.angVel = c.AddChannel(particles.AngularVelocity3D)
	if err := m.allocateStrength(c); err != nil {
		return err
	}
	return m.allocateAngular(c)
}

func (m *Rotational3D) Init(c *particles.Controller) error { return m.initStrength(c) }

func (m *Rotational3D) Activate(start, count int) {
	m.activateStrength(m.Controller, start, count)
	m.activateAngular(m.Controller, start, count)
}

func (m *Rotational3D) Update(f *particles.Frame) {
	for i := 0; i < f.Count; i++ {
		axis := m.orient(m.Controller, m.directionAt(i, particles.LifePercentAt(m.life, i)))
		omega := axis.Mul(mgl32.DegToRad(m.strengthAt(i)))
		m.angVel.SetVec3(i, m.angVel.Vec3(i).Add(omega))
	}
}

func (m *Rotational3D) Copy() particles.Influencer {
	return &Rotational3D{Strength: m.cloneStrength(), Angular: m.cloneAngular()}
}

// linear is the shared part of modifiers that add acceleration.
type linear struct {
	accel    *particles.Channel
	position *particles.Channel
}

func (l *linear) initLinear(c *particles.Controller) error {
	l.accel = c.Channel(particles.Acceleration)
	pos, err := c.Require(particles.Position)
	l.position = pos
	return err
}

func (l *linear) add(i int, a mgl32.Vec3) {
	l.accel.SetVec3(i, l.accel.Vec3(i).Add(a))
}

// Centripetal pulls particles toward an axis through the controller
// position. Strength is the tangential speed; the magnitude applied is
// speed²/radius.
type Centripetal struct {
	particles.Base `yaml:"-"`
	Strength       `yaml:",inline"`
	Axis           mgl32.Vec3 `yaml:"axis"`

	linear `yaml:"-"`
}

// NewCentripetal returns a centripetal modifier around +Y.
func NewCentripetal(speed particles.ScaledNumericValue) *Centripetal {
	return &Centripetal{Strength: Strength{Value: speed}, Axis: mgl32.Vec3{0, 1, 0}}
}

func (m *Centripetal) Name() string { return "centripetal" }
func (m *Centripetal) Kind() Kind   { return Linear }

func (m *Centripetal) Allocate(c *particles.Controller) error {
	if err := m.Bind(c); err != nil {
		return err
	}
	return m.allocateStrength(c)
}

func (m *Centripetal) Init(c *particles.Controller) error {
	if err := m.initLinear(c); err != nil {
		return err
	}
	return m.initStrength(c)
}

func (m *Centripetal) Activate(start, count int) {
	m.activateStrength(m.Controller, start, count)
}

func (m *Centripetal) Update(f *particles.Frame) {
	c := m.Controller
	axis := m.orient(c, m.Axis)
	center := c.Position()
	for i := 0; i < f.Count; i++ {
		a, ok := vmath.Centripetal(m.position.Vec3(i), center, axis, m.strengthAt(i))
		if !ok {
			continue
		}
		m.add(i, a)
	}
}

func (m *Centripetal) Copy() particles.Influencer {
	return &Centripetal{Strength: m.cloneStrength(), Axis: m.Axis}
}

// Polar accelerates particles along a spherical direction.
type Polar struct {
	particles.Base `yaml:"-"`
	Strength       `yaml:",inline"`
	Angular        `yaml:",inline"`

	linear `yaml:"-"`
}

func (m *Polar) Name() string { return "polar" }
func (m *Polar) Kind() Kind   { return Linear }

func (m *Polar) Allocate(c *particles.Controller) error {
	if err := m.Bind(c); err != nil {
		return err
	}
	if err := m.allocateStrength(c); err != nil {
		return err
	}
	return m.allocateAngular(c)
}

func (m *Polar) Init(c *particles.Controller) error {
	if err := m.initLinear(c); err != nil {
		return err
	}
	return m.initStrength(c)
}

func (m *Polar) Activate(start, count int) {
	m.activateStrength(m.Controller, start, count)
	m.activateAngular(m.Controller, start, count)
}

func (m *Polar) Update(f *particles.Frame) {
	for i := 0; i < f.Count; i++ {
		dir := m.orient(m.Controller, m.directionAt(i, particles.LifePercentAt(m.life, i)))
		m.add(i, dir.Mul(m.strengthAt(i)))
	}
}

func (m *Polar) Copy() particles.Influencer {
	return &Polar{Strength: m.cloneStrength(), Angular: m.cloneAngular()}
}

// Tangential accelerates particles along the cross product of a spherical
// direction with their offset from the controller.
type Tangential struct {
	particles.Base `yaml:"-"`
	Strength       `yaml:",inline"`
	Angular        `yaml:",inline"`

	linear `yaml:"-"`
}

func (m *Tangential) Name() string { return "tangential" }
func (m *Tangential) Kind() Kind   { return Linear }

func (m *Tangential) Allocate(c *particles.Controller) error {
	if err := m.Bind(c); err != nil {
		return err
	}
	if err := m.allocateStrength(c); err != nil {
		return err
	}
	return m.allocateAngular(c)
}

func (m *Tangential) Init(c *particles.Controller) error {
	if err := m.initLinear(c); err != nil {
		return err
	}
	return m.initStrength(c)
}

func (m *Tangential) Activate(start, count int) {
	m.activateStrength(m.Controller, start, count)
	m.activateAngular(m.Controller, start, count)
}

func (m *Tangential) Update(f *particles.Frame) {
	c := m.Controller
	center := c.Position()
	for i := 0; i < f.Count; i++ {
		dir := m.orient(c, m.directionAt(i, particles.LifePercentAt(m.life, i)))
		t, ok := vmath.Tangential(dir, m.position.Vec3(i).Sub(center))
		if !ok {
			continue
		}
		m.add(i, t.Mul(m.strengthAt(i)))
	}
}

func (m *Tangential) Copy() particles.Influencer {
	return &Tangential{Strength: m.cloneStrength(), Angular: m.cloneAngular()}
}

// Brownian pushes every particle in a fresh random direction each frame.
type Brownian struct {
	particles.Base `yaml:"-"`
	Strength       `yaml:",inline"`

	linear `yaml:"-"`
}

func (m *Brownian) Name() string { return "brownian" }
func (m *Brownian) Kind() Kind   { return Linear }

func (m *Brownian) Allocate(c *particles.Controller) error {
	if err := m.Bind(c); err != nil {
		return err
	}
	return m.allocateStrength(c)
}

func (m *Brownian) Init(c *particles.Controller) error {
	if err := m.initLinear(c); err != nil {
		return err
	}
	return m.initStrength(c)
}

func (m *Brownian) Activate(start, count int) {
	m.activateStrength(m.Controller, start, count)
}

func (m *Brownian) Update(f *particles.Frame) {
	for i := 0; i < f.Count; i++ {
		theta := f.Rand.Float32() * 2 * math.Pi
		phi := float32(math.Acos(float64(2*f.Rand.Float32() - 1)))
		m.add(i, vmath.Spherical(theta, phi).Mul(m.strengthAt(i)))
	}
}

func (m *Brownian) Copy() particles.Influencer {
	return &Brownian{Strength: m.cloneStrength()}
}

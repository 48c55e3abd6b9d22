// Package dynamics moves particles: it integrates position and rotation
// from the accelerations and angular velocities contributed by a list of
// modifiers.
package dynamics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/sparks/particles"
	"github.com/pthm-cable/sparks/vmath"
)

// Scheme selects the position integrator.
type Scheme string

const (
	Verlet Scheme = "verlet"
	Euler  Scheme = "euler"
)

// Kind says which channels a modifier contributes to.
type Kind uint8

const (
	Linear Kind = iota
	Angular2D
	Angular3D
)

// Modifier contributes acceleration or angular velocity. Modifiers are
// driven by their Influencer and never sit in a controller pipeline on
// their own.
type Modifier interface {
	particles.Influencer
	Kind() Kind
}

// Influencer integrates the contributions of its modifiers every frame.
// It allocates the integration channels its scheme and modifiers need;
// spawn must run before it so that activation sees the initial position.
type Influencer struct {
	particles.Base `yaml:"-"`

	Scheme    Scheme     `yaml:"scheme"`
	Modifiers []Modifier `yaml:"-"`

	position *particles.Channel
	previous *particles.Channel
	velocity *particles.Channel
	accel    *particles.Channel
	rot2     *particles.Channel
	angVel2  *particles.Channel
	rot3     *particles.Channel
	angVel3  *particles.Channel
}

// New returns a Verlet dynamics influencer.
func New(modifiers ...Modifier) *Influencer {
	return &Influencer{Scheme: Verlet, Modifiers: modifiers}
}

func (d *Influencer) Name() string { return "dynamics" }

func (d *Influencer) scheme() Scheme {
	if d.Scheme == "" {
		return Verlet
	}
	return d.Scheme
}

func (d *Influencer) Allocate(c *particles.Controller) error {
	if err := d.Bind(c); err != nil {
		return err
	}
	switch d.scheme() {
	case Verlet:
		d.previous = c.AddChannel(particles.PreviousPosition)
	case Euler:
		d.velocity = c.AddChannel(particles.Velocity)
	default:
		return fmt.Errorf("unknown integration scheme %q", d.Scheme)
	}
	d.accel = c.AddChannel(particles.Acceleration)
	for _, m := range d.Modifiers {
		switch m.Kind() {
		case Angular2D:
			d.rot2 = c.AddChannel(particles.Rotation2D)
			d.angVel2 = c.AddChannel(particles.AngularVelocity2D)
		case Angular3D:
			d.rot3 = c.AddChannel(particles.Rotation3D)
			d.angVel3 = c.AddChannel(particles.AngularVelocity3D)
		}
	}
	for _, m := range d.Modifiers {
		if err := m.Allocate(c); err != nil {
			return fmt.Errorf("modifier %q: %w", m.Name(), err)
		}
	}
	return nil
}

func (d *Influencer) Init(c *particles.Controller) error {
	pos, err := c.Require(particles.Position)
	if err != nil {
		return err
	}
	d.position = pos
	for _, m := range d.Modifiers {
		if err := m.Init(c); err != nil {
			return fmt.Errorf("modifier %q: %w", m.Name(), err)
		}
	}
	return nil
}

func (d *Influencer) Start() {
	for _, m := range d.Modifiers {
		m.Start()
	}
}

func (d *Influencer) Activate(start, count int) {
	for i := start; i < start+count; i++ {
		if d.previous != nil {
			d.previous.SetVec3(i, d.position.Vec3(i))
		}
		if d.velocity != nil {
			d.velocity.SetVec3(i, mgl32.Vec3{})
		}
		if d.rot2 != nil {
			d.rot2.Set(i, particles.CosineOffset, 1)
			d.rot2.Set(i, particles.SineOffset, 0)
		}
		if d.rot3 != nil {
			d.rot3.SetQuat(i, mgl32.QuatIdent())
		}
	}
	for _, m := range d.Modifiers {
		m.Activate(start, count)
	}
}

func (d *Influencer) Update(f *particles.Frame) {
	n := f.Count
	clear(d.accel.Data[:n*d.accel.Stride])
	if d.angVel2 != nil {
		clear(d.angVel2.Data[:n])
	}
	if d.angVel3 != nil {
		clear(d.angVel3.Data[:n*d.angVel3.Stride])
	}

	for _, m := range d.Modifiers {
		m.Update(f)
	}

	if d.previous != nil {
		for i := 0; i < n; i++ {
			next, prev := vmath.Verlet(d.position.Vec3(i), d.previous.Vec3(i), d.accel.Vec3(i), f.DeltaSqr)
			d.position.SetVec3(i, next)
			d.previous.SetVec3(i, prev)
		}
	} else {
		for i := 0; i < n; i++ {
			pos, vel := vmath.Euler(d.position.Vec3(i), d.velocity.Vec3(i), d.accel.Vec3(i), f.Delta)
			d.position.SetVec3(i, pos)
			d.velocity.SetVec3(i, vel)
		}
	}

	if d.rot2 != nil {
		for i := 0; i < n; i++ {
			s := d.rot2.Slot(i)
			s[particles.CosineOffset], s[particles.SineOffset] = vmath.Rotate2D(
				s[particles.CosineOffset], s[particles.SineOffset], d.angVel2.Data[i]*f.Delta)
		}
	}
	if d.rot3 != nil {
		for i := 0; i < n; i++ {
			f.Angular.Spin(d.angVel3.Vec3(i), f.Delta)
			d.rot3.SetQuat(i, f.Angular.Drain(d.rot3.Quat(i)))
		}
	}
}

func (d *Influencer) Kill(start, count int) {
	for _, m := range d.Modifiers {
		m.Kill(start, count)
	}
}

func (d *Influencer) End() {
	for _, m := range d.Modifiers {
		m.End()
	}
}

func (d *Influencer) Dispose() {
	for _, m := range d.Modifiers {
		m.Dispose()
	}
}

func (d *Influencer) Copy() particles.Influencer {
	out := &Influencer{Scheme: d.Scheme, Modifiers: make([]Modifier, len(d.Modifiers))}
	for i, m := range d.Modifiers {
		out.Modifiers[i] = m.Copy().(Modifier)
	}
	return out
}

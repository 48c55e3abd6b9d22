package dynamics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/sparks/particles"
	"github.com/pthm-cable/sparks/vmath"
)

// Strength gives a modifier a magnitude that follows a curve over each
// particle's life. Start and difference are drawn once per particle into a
// private channel.
type Strength struct {
	Global bool                         `yaml:"global"`
	Value  particles.ScaledNumericValue `yaml:"strength"`

	values *particles.Channel
	life   *particles.Channel
}

func (s *Strength) allocateStrength(c *particles.Controller) error {
	if err := s.Value.Validate(); err != nil {
		return fmt.Errorf("strength: %w", err)
	}
	s.values = c.AddChannel(particles.NewChannel("strength", 2))
	return nil
}

func (s *Strength) initStrength(c *particles.Controller) error {
	life, err := c.Require(particles.Life)
	s.life = life
	return err
}

func (s *Strength) activateStrength(c *particles.Controller, start, count int) {
	rng := c.Rand()
	for i := start; i < start+count; i++ {
		slot := s.values.Slot(i)
		slot[particles.StartOffset], slot[particles.DiffOffset] = s.Value.Draw(rng)
	}
}

func (s *Strength) strengthAt(i int) float32 {
	slot := s.values.Slot(i)
	return s.Value.Value(slot[particles.StartOffset], slot[particles.DiffOffset], particles.LifePercentAt(s.life, i))
}

// orient maps a local direction into world space unless the modifier is
// global.
func (s *Strength) orient(c *particles.Controller, d mgl32.Vec3) mgl32.Vec3 {
	if s.Global {
		return d
	}
	return c.TransformDirection(d)
}

func (s Strength) cloneStrength() Strength {
	return Strength{Global: s.Global, Value: s.Value.Clone()}
}

// Angular gives a modifier a direction as spherical angles in degrees.
// Theta is the azimuth around Y, Phi the angle from +Y.
type Angular struct {
	Theta particles.ScaledNumericValue `yaml:"theta"`
	Phi   particles.ScaledNumericValue `yaml:"phi"`

	angles *particles.Channel
}

const (
	thetaStartOffset = 0
	thetaDiffOffset  = 1
	phiStartOffset   = 2
	phiDiffOffset    = 3
)

func (a *Angular) allocateAngular(c *particles.Controller) error {
	if err := a.Theta.Validate(); err != nil {
		return fmt.Errorf("theta: %w", err)
	}
	if err := a.Phi.Validate(); err != nil {
		return fmt.Errorf("phi: %w", err)
	}
	a.angles = c.AddChannel(particles.NewChannel("angular", 4))
	return nil
}

func (a *Angular) activateAngular(c *particles.Controller, start, count int) {
	rng := c.Rand()
	for i := start; i < start+count; i++ {
		slot := a.angles.Slot(i)
		slot[thetaStartOffset], slot[thetaDiffOffset] = a.Theta.Draw(rng)
		slot[phiStartOffset], slot[phiDiffOffset] = a.Phi.Draw(rng)
	}
}

// directionAt returns the unit direction of particle i at life percent.
func (a *Angular) directionAt(i int, percent float32) mgl32.Vec3 {
	slot := a.angles.Slot(i)
	theta := a.Theta.Value(slot[thetaStartOffset], slot[thetaDiffOffset], percent)
	phi := a.Phi.Value(slot[phiStartOffset], slot[phiDiffOffset], percent)
	return vmath.SphericalDeg(theta, phi)
}

func (a Angular) cloneAngular() Angular {
	return Angular{Theta: a.Theta.Clone(), Phi: a.Phi.Clone()}
}

// HasStrength is implemented by modifiers carrying a Strength trait.
type HasStrength interface {
	StrengthTrait() *Strength
}

// HasAngular is implemented by modifiers carrying an Angular trait.
type HasAngular interface {
	AngularTrait() *Angular
}

func (s *Strength) StrengthTrait() *Strength { return s }
func (a *Angular) AngularTrait() *Angular    { return a }

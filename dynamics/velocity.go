package dynamics

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/sparks/particles"
	"github.com/pthm-cable/sparks/vmath"
)

// defaultSeedDelta seeds Verlet particles activated outside an update.
const defaultSeedDelta = 1.0 / 60

// InitialVelocity launches particles at birth with a speed and a spherical
// direction drawn once. It must follow the dynamics influencer: Verlet
// particles get a seeded previous position, Euler particles a velocity.
type InitialVelocity struct {
	particles.Base `yaml:"-"`

	Speed  particles.Range `yaml:"speed"`
	Theta  particles.Range `yaml:"theta"` // degrees
	Phi    particles.Range `yaml:"phi"`   // degrees
	Global bool            `yaml:"global"`

	// SeedDelta is the step used to seed previous positions when no
	// frame is in progress.
	SeedDelta float32 `yaml:"seed_delta"`

	position *particles.Channel
	previous *particles.Channel
	velocity *particles.Channel
}

func (v *InitialVelocity) Name() string { return "initial_velocity" }

func (v *InitialVelocity) Init(c *particles.Controller) error {
	pos, err := c.Require(particles.Position)
	if err != nil {
		return err
	}
	v.position = pos
	if c.Channel(particles.Velocity) != nil {
		v.velocity, err = c.Require(particles.Velocity)
		return err
	}
	v.previous, err = c.Require(particles.PreviousPosition)
	return err
}

func (v *InitialVelocity) Activate(start, count int) {
	c := v.Controller
	rng := c.Rand()
	dt := c.Delta()
	if dt <= 0 {
		dt = v.SeedDelta
		if dt <= 0 {
			dt = defaultSeedDelta
		}
	}
	for i := start; i < start+count; i++ {
		dir := vmath.SphericalDeg(v.Theta.Draw(rng), v.Phi.Draw(rng))
		if !v.Global {
			dir = c.TransformDirection(dir)
		}
		vel := dir.Mul(v.Speed.Draw(rng))
		if v.velocity != nil {
			v.velocity.SetVec3(i, vel)
			continue
		}
		v.previous.SetVec3(i, vmath.SeedPrevious(v.position.Vec3(i), vel, dt))
	}
}

func (v *InitialVelocity) Copy() particles.Influencer {
	return &InitialVelocity{
		Speed:     v.Speed,
		Theta:     v.Theta,
		Phi:       v.Phi,
		Global:    v.Global,
		SeedDelta: v.SeedDelta,
	}
}

// FaceDirection turns each particle's 3D rotation toward its direction of
// travel. Particles at rest keep their rotation.
type FaceDirection struct {
	particles.Base `yaml:"-"`

	position *particles.Channel
	previous *particles.Channel
	velocity *particles.Channel
	rotation *particles.Channel
}

// forward is the model axis aligned with the direction of travel.
var forward = mgl32.Vec3{0, 0, 1}

func (f *FaceDirection) Name() string { return "face_direction" }

func (f *FaceDirection) Allocate(c *particles.Controller) error {
	if err := f.Bind(c); err != nil {
		return err
	}
	f.rotation = c.AddChannel(particles.Rotation3D)
	return nil
}

func (f *FaceDirection) Init(c *particles.Controller) error {
	pos, err := c.Require(particles.Position)
	if err != nil {
		return err
	}
	f.position = pos
	if c.Channel(particles.Velocity) != nil {
		f.velocity, err = c.Require(particles.Velocity)
		return err
	}
	f.previous, err = c.Require(particles.PreviousPosition)
	return err
}

func (f *FaceDirection) Activate(start, count int) {
	for i := start; i < start+count; i++ {
		f.rotation.SetQuat(i, mgl32.QuatIdent())
	}
}

func (f *FaceDirection) Update(fr *particles.Frame) {
	for i := 0; i < fr.Count; i++ {
		var motion mgl32.Vec3
		if f.velocity != nil {
			motion = f.velocity.Vec3(i)
		} else {
			motion = f.position.Vec3(i).Sub(f.previous.Vec3(i))
		}
		dir, ok := vmath.SafeNormalize(motion)
		if !ok {
			continue
		}
		f.rotation.SetQuat(i, mgl32.QuatBetweenVectors(forward, dir))
	}
}

func (f *FaceDirection) Copy() particles.Influencer { return &FaceDirection{} }

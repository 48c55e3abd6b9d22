package influencers

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/sparks/particles"
)

// transformSource reads a particle's position and the optional rotation
// and scale channels.
type transformSource struct {
	position *particles.Channel
	rotation *particles.Channel
	scale    *particles.Channel
}

func (t *transformSource) init(c *particles.Controller, owner string) error {
	pos, err := c.Require(particles.Position)
	if err != nil {
		return err
	}
	t.position = pos
	t.rotation = c.Channel(particles.Rotation3D)
	t.scale = c.Channel(particles.Scale)
	if t.rotation == nil || t.scale == nil {
		particles.Logger().Debug("finalizer without optional channels",
			"influencer", owner,
			"rotation", t.rotation != nil,
			"scale", t.scale != nil,
		)
	}
	return nil
}

func (t *transformSource) at(i int) (mgl32.Vec3, mgl32.Quat, mgl32.Vec3) {
	rot := mgl32.QuatIdent()
	if t.rotation != nil {
		rot = t.rotation.Quat(i)
	}
	scale := mgl32.Vec3{1, 1, 1}
	if t.scale != nil {
		s := t.scale.Data[i]
		scale = mgl32.Vec3{s, s, s}
	}
	return t.position.Vec3(i), rot, scale
}

// ModelFinalizer pushes each particle's transform into its model instance.
// It must run after every influencer that moves, rotates or scales.
type ModelFinalizer struct {
	particles.Base `yaml:"-"`

	source   transformSource
	payloads *particles.ObjectChannel
}

func (m *ModelFinalizer) Name() string { return "model_instance_finalizer" }

func (m *ModelFinalizer) Init(c *particles.Controller) error {
	payloads, err := c.RequireObject(particles.ModelInstance)
	if err != nil {
		return err
	}
	m.payloads = payloads
	return m.source.init(c, m.Name())
}

func (m *ModelFinalizer) Update(f *particles.Frame) {
	for i := 0; i < f.Count; i++ {
		m.payloads.Get(i).SetTransform(m.source.at(i))
	}
}

func (m *ModelFinalizer) Copy() particles.Influencer { return &ModelFinalizer{} }

// ControllerFinalizer places each nested controller at its particle and
// advances it by the frame delta.
type ControllerFinalizer struct {
	particles.Base `yaml:"-"`

	source   transformSource
	payloads *particles.ObjectChannel
}

func (m *ControllerFinalizer) Name() string { return "particle_controller_finalizer" }

func (m *ControllerFinalizer) Init(c *particles.Controller) error {
	payloads, err := c.RequireObject(particles.ParticleController)
	if err != nil {
		return err
	}
	m.payloads = payloads
	return m.source.init(c, m.Name())
}

func (m *ControllerFinalizer) Update(f *particles.Frame) {
	for i := 0; i < f.Count; i++ {
		p := m.payloads.Get(i)
		p.SetTransform(m.source.at(i))
		if t, ok := p.(particles.Ticker); ok {
			t.Update(f.Delta)
		}
	}
}

func (m *ControllerFinalizer) Copy() particles.Influencer { return &ControllerFinalizer{} }

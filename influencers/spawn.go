// Package influencers holds the stock pipeline stages: spawn positions,
// color, scale, texture regions and per-particle payloads.
package influencers

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/sparks/assets"
	"github.com/pthm-cable/sparks/particles"
)

// ErrNoSpawnShape reports a spawn influencer without a shape.
var ErrNoSpawnShape = errors.New("influencers: spawn has no shape")

// Spawn places new particles on a shape in the controller's frame.
type Spawn struct {
	particles.Base `yaml:"-"`

	Shape   Shape                        `yaml:"-"`
	OffsetX particles.RangedNumericValue `yaml:"offset_x"`
	OffsetY particles.RangedNumericValue `yaml:"offset_y"`
	OffsetZ particles.RangedNumericValue `yaml:"offset_z"`

	position *particles.Channel
}

// NewSpawn returns a spawn influencer on shape.
func NewSpawn(shape Shape) *Spawn {
	return &Spawn{Shape: shape}
}

func (s *Spawn) Name() string { return "spawn" }

func (s *Spawn) Allocate(c *particles.Controller) error {
	if err := s.Bind(c); err != nil {
		return err
	}
	if s.Shape == nil {
		return ErrNoSpawnShape
	}
	if err := s.Shape.Validate(); err != nil {
		return fmt.Errorf("%s shape: %w", s.Shape.Kind(), err)
	}
	s.position = c.AddChannel(particles.Position)
	return nil
}

func (s *Spawn) Start() {
	s.Shape.Start(s.Controller.Rand())
}

func (s *Spawn) Activate(start, count int) {
	c := s.Controller
	rng := c.Rand()
	percent := c.Emitter.Percent()
	for i := start; i < start+count; i++ {
		p := s.Shape.Sample(rng, percent)
		p = p.Add(mgl32.Vec3{offset(&s.OffsetX, c), offset(&s.OffsetY, c), offset(&s.OffsetZ, c)})
		s.position.SetVec3(i, c.TransformPoint(p))
	}
}

func offset(v *particles.RangedNumericValue, c *particles.Controller) float32 {
	if !v.Active {
		return 0
	}
	return v.NewLow(c.Rand())
}

func (s *Spawn) AssetRefs() []assets.Ref {
	if r, ok := s.Shape.(assets.Referencer); ok {
		return r.AssetRefs()
	}
	return nil
}

func (s *Spawn) SetAssets(handles []any) error {
	if r, ok := s.Shape.(assets.Referencer); ok {
		return r.SetAssets(handles)
	}
	return nil
}

func (s *Spawn) Copy() particles.Influencer {
	out := &Spawn{OffsetX: s.OffsetX, OffsetY: s.OffsetY, OffsetZ: s.OffsetZ}
	if s.Shape != nil {
		out.Shape = s.Shape.Copy()
	}
	return out
}

package influencers

import (
	"github.com/pthm-cable/sparks/particles"
)

// ColorSingle drives color along a gradient and alpha along a curve over
// each particle's life.
type ColorSingle struct {
	particles.Base `yaml:"-"`

	Gradient particles.GradientColorValue `yaml:"gradient"`
	Alpha    particles.ScaledNumericValue `yaml:"alpha"`

	color *particles.Channel
	alpha *particles.Channel
	life  *particles.Channel
}

// NewColorSingle returns a white, opaque color influencer.
func NewColorSingle() *ColorSingle {
	return &ColorSingle{Gradient: particles.White(), Alpha: particles.Constant(1)}
}

func (s *ColorSingle) Name() string { return "color_single" }

func (s *ColorSingle) Allocate(c *particles.Controller) error {
	if err := s.Bind(c); err != nil {
		return err
	}
	if err := s.Gradient.Validate(); err != nil {
		return err
	}
	if err := s.Alpha.Validate(); err != nil {
		return err
	}
	s.color = c.AddChannel(particles.Color)
	s.alpha = c.AddChannel(particles.NewChannel("alpha", 2))
	return nil
}

func (s *ColorSingle) Init(c *particles.Controller) error {
	life, err := c.Require(particles.Life)
	s.life = life
	return err
}

func (s *ColorSingle) Activate(start, count int) {
	rng := s.Controller.Rand()
	for i := start; i < start+count; i++ {
		slot := s.alpha.Slot(i)
		slot[particles.StartOffset], slot[particles.DiffOffset] = s.Alpha.Draw(rng)
		s.apply(i)
	}
}

func (s *ColorSingle) Update(f *particles.Frame) {
	for i := 0; i < f.Count; i++ {
		s.apply(i)
	}
}

func (s *ColorSingle) apply(i int) {
	percent := particles.LifePercentAt(s.life, i)
	a := s.alpha.Slot(i)
	c := s.color.Slot(i)
	c[particles.RedOffset], c[particles.GreenOffset], c[particles.BlueOffset] = s.Gradient.Color(percent)
	c[particles.AlphaOffset] = s.Alpha.Value(a[particles.StartOffset], a[particles.DiffOffset], percent)
}

func (s *ColorSingle) Copy() particles.Influencer {
	return &ColorSingle{Gradient: s.Gradient.Clone(), Alpha: s.Alpha.Clone()}
}

// ColorRandom gives each particle a random opaque color at birth. The
// color is not updated afterwards.
type ColorRandom struct {
	particles.Base `yaml:"-"`

	color *particles.Channel
}

func (r *ColorRandom) Name() string { return "color_random" }

func (r *ColorRandom) Allocate(c *particles.Controller) error {
	if err := r.Bind(c); err != nil {
		return err
	}
	r.color = c.AddChannel(particles.Color)
	return nil
}

func (r *ColorRandom) Activate(start, count int) {
	rng := r.Controller.Rand()
	for i := start; i < start+count; i++ {
		c := r.color.Slot(i)
		c[particles.RedOffset] = rng.Float32()
		c[particles.GreenOffset] = rng.Float32()
		c[particles.BlueOffset] = rng.Float32()
		c[particles.AlphaOffset] = 1
	}
}

func (r *ColorRandom) Copy() particles.Influencer { return &ColorRandom{} }

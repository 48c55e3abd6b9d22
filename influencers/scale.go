package influencers

import "github.com/pthm-cable/sparks/particles"

// Scale drives particle size along a curve, multiplied by the controller's
// scale.
type Scale struct {
	particles.Base `yaml:"-"`

	Value particles.ScaledNumericValue `yaml:"scale"`

	scale  *particles.Channel
	values *particles.Channel
	life   *particles.Channel
}

// NewScale returns a scale influencer following v.
func NewScale(v particles.ScaledNumericValue) *Scale {
	return &Scale{Value: v}
}

func (s *Scale) Name() string { return "scale" }

func (s *Scale) Allocate(c *particles.Controller) error {
	if err := s.Bind(c); err != nil {
		return err
	}
	if err := s.Value.Validate(); err != nil {
		return err
	}
	s.scale = c.AddChannel(particles.Scale)
	s.values = c.AddChannel(particles.NewChannel("scale_value", 2))
	return nil
}

func (s *Scale) Init(c *particles.Controller) error {
	life, err := c.Require(particles.Life)
	s.life = life
	return err
}

func (s *Scale) Activate(start, count int) {
	rng := s.Controller.Rand()
	for i := start; i < start+count; i++ {
		slot := s.values.Slot(i)
		slot[particles.StartOffset], slot[particles.DiffOffset] = s.Value.Draw(rng)
		s.apply(i)
	}
}

func (s *Scale) Update(f *particles.Frame) {
	for i := 0; i < f.Count; i++ {
		s.apply(i)
	}
}

func (s *Scale) apply(i int) {
	slot := s.values.Slot(i)
	v := s.Value.Value(slot[particles.StartOffset], slot[particles.DiffOffset], particles.LifePercentAt(s.life, i))
	s.scale.Data[i] = v * s.Controller.ScaleFactor()[0]
}

func (s *Scale) Copy() particles.Influencer {
	return &Scale{Value: s.Value.Clone()}
}

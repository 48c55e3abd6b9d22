package dynamics

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/sparks/particles"
)

// Turbulence samples a coherent noise field at each particle position and
// applies it as acceleration. The field drifts over time at Speed.
type Turbulence struct {
	particles.Base `yaml:"-"`
	Strength       `yaml:",inline"`
	Frequency      float32 `yaml:"frequency"`
	Speed          float32 `yaml:"speed"`
	Seed           int64   `yaml:"seed"`

	linear `yaml:"-"`
	noise opensimplex.Noise32
	time  float32
}

// Sample offsets decorrelate the three axes of the field.
const (
	turbulenceOffsetY = 31.416
	turbulenceOffsetZ = 71.931
)

func (m *Turbulence) Name() string { return "turbulence" }
func (m *Turbulence) Kind() Kind   { return Linear }

func (m *Turbulence) Allocate(c *particles.Controller) error {
	if err := m.Bind(c); err != nil {
		return err
	}
	m.noise = opensimplex.New32(m.Seed)
	return m.allocateStrength(c)
}

func (m *Turbulence) Init(c *particles.Controller) error {
	if err := m.initLinear(c); err != nil {
		return err
	}
	return m.initStrength(c)
}

func (m *Turbulence) Start() { m.time = 0 }

func (m *Turbulence) Activate(start, count int) {
	m.activateStrength(m.Controller, start, count)
}

func (m *Turbulence) Update(f *particles.Frame) {
	m.time += f.Delta * m.Speed
	freq := m.Frequency
	if freq == 0 {
		freq = 1
	}
	for i := 0; i < f.Count; i++ {
		p := m.position.Vec3(i).Mul(freq)
		field := mgl32.Vec3{
			m.noise.Eval4(p[0], p[1], p[2], m.time),
			m.noise.Eval4(p[0]+turbulenceOffsetY, p[1], p[2], m.time),
			m.noise.Eval4(p[0], p[1]+turbulenceOffsetZ, p[2], m.time),
		}
		m.add(i, m.orient(m.Controller, field).Mul(m.strengthAt(i)))
	}
}

func (m *Turbulence) Copy() particles.Influencer {
	return &Turbulence{
		Strength:  m.cloneStrength(),
		Frequency: m.Frequency,
		Speed:     m.Speed,
		Seed:      m.Seed,
	}
}

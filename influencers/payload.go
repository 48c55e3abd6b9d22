package influencers

import (
	"fmt"

	"github.com/pthm-cable/sparks/assets"
	"github.com/pthm-cable/sparks/particles"
)

// ModelInstance gives every particle a pooled instance of one of its
// models. With Random set the model is drawn per particle at birth,
// otherwise the first model is used.
type ModelInstance struct {
	particles.Base `yaml:"-"`

	Models []assets.Ref `yaml:"models"`
	Random bool         `yaml:"random"`

	models  []*assets.Model
	pool    *particles.Pool[*assets.ModelInstance]
	channel *particles.ObjectChannel
}

// NewModelInstance returns an influencer over already loaded models.
func NewModelInstance(random bool, models ...*assets.Model) *ModelInstance {
	return &ModelInstance{Random: random, models: models}
}

func (m *ModelInstance) Name() string {
	if m.Random {
		return "model_instance_random"
	}
	return "model_instance_single"
}

func (m *ModelInstance) Allocate(c *particles.Controller) error {
	if err := m.Bind(c); err != nil {
		return err
	}
	if len(m.models) == 0 {
		return fmt.Errorf("no models: %w", assets.ErrMissingAsset)
	}
	m.channel = c.AddObjectChannel(particles.ModelInstance)
	m.pool = particles.NewPool(c.Emitter.MaxParticleCount(), m.models[0].NewInstance)
	m.pool.Fill()
	return nil
}

// Instances are shared by every model; activation points each at its model.
func (m *ModelInstance) Activate(start, count int) {
	rng := m.Controller.Rand()
	for i := start; i < start+count; i++ {
		k := 0
		if m.Random {
			k = rng.Intn(len(m.models))
		}
		inst := m.pool.Obtain()
		inst.Model = m.models[k]
		m.channel.Set(i, inst)
	}
}

func (m *ModelInstance) Kill(start, count int) {
	for i := start; i < start+count; i++ {
		m.pool.Free(m.channel.Get(i).(*assets.ModelInstance))
		m.channel.Set(i, nil)
	}
}

func (m *ModelInstance) Dispose() {
	if m.pool != nil {
		m.pool.Clear()
	}
}

// Pool exposes the instance pool.
func (m *ModelInstance) Pool() *particles.Pool[*assets.ModelInstance] { return m.pool }

func (m *ModelInstance) AssetRefs() []assets.Ref {
	for k := range m.Models {
		if m.Models[k].Type == "" {
			m.Models[k].Type = assets.TypeModel
		}
	}
	return m.Models
}

func (m *ModelInstance) SetAssets(handles []any) error {
	m.models = m.models[:0]
	for k, h := range handles {
		model, err := assets.As[*assets.Model](m.Models[k], h)
		if err != nil {
			return err
		}
		m.models = append(m.models, model)
	}
	return nil
}

func (m *ModelInstance) Copy() particles.Influencer {
	return &ModelInstance{
		Models: append([]assets.Ref(nil), m.Models...),
		Random: m.Random,
		models: append([]*assets.Model(nil), m.models...),
	}
}

// ControllerPayload gives every particle a pooled copy of a template
// controller. The copy is started when its particle is born and ended when
// it dies. With Random set the template is drawn per particle at birth.
type ControllerPayload struct {
	particles.Base `yaml:"-"`

	Templates []*particles.Controller `yaml:"-"`
	Random    bool                    `yaml:"random"`

	pool    *particles.Pool[*particles.Controller]
	owner   map[*particles.Controller]int // template index of each copy
	filled  int
	channel *particles.ObjectChannel
}

// NewControllerPayload returns a payload influencer over templates.
func NewControllerPayload(random bool, templates ...*particles.Controller) *ControllerPayload {
	return &ControllerPayload{Random: random, Templates: templates}
}

func (p *ControllerPayload) Name() string {
	if p.Random {
		return "particle_controller_random"
	}
	return "particle_controller_single"
}

func (p *ControllerPayload) Allocate(c *particles.Controller) error {
	if err := p.Bind(c); err != nil {
		return err
	}
	if len(p.Templates) == 0 {
		return fmt.Errorf("no template controllers")
	}
	for _, tmpl := range p.Templates {
		check := tmpl.Copy()
		if err := check.Init(); err != nil {
			return fmt.Errorf("template %q: %w", tmpl.Name, err)
		}
		check.Dispose()
	}

	p.channel = c.AddObjectChannel(particles.ParticleController)
	capacity := c.Emitter.MaxParticleCount()
	p.owner = make(map[*particles.Controller]int, capacity)
	p.filled = 0
	// Prefilled copies cycle through the templates.
	p.pool = particles.NewPool(capacity, func() *particles.Controller {
		k := p.filled % len(p.Templates)
		p.filled++
		return p.newCopy(k)
	})
	p.pool.Fill()
	return nil
}

func (p *ControllerPayload) newCopy(k int) *particles.Controller {
	tmpl := p.Templates[k]
	cp := tmpl.Copy()
	if err := cp.Init(); err != nil {
		panic(fmt.Sprintf("particles: template %q: %v", tmpl.Name, err))
	}
	p.owner[cp] = k
	return cp
}

func (p *ControllerPayload) Activate(start, count int) {
	rng := p.Controller.Rand()
	for i := start; i < start+count; i++ {
		k := 0
		if p.Random {
			k = rng.Intn(len(p.Templates))
		}
		nested, ok := p.pool.ObtainFunc(func(c *particles.Controller) bool { return p.owner[c] == k })
		if !ok {
			// No free copy of template k: rebuild this one in place.
			delete(p.owner, nested)
			nested.Dispose()
			nested = p.newCopy(k)
		}
		nested.Start()
		p.channel.Set(i, nested)
	}
}

func (p *ControllerPayload) Kill(start, count int) {
	for i := start; i < start+count; i++ {
		nested := p.channel.Get(i).(*particles.Controller)
		nested.End()
		p.pool.Free(nested)
		p.channel.Set(i, nil)
	}
}

func (p *ControllerPayload) Dispose() {
	if p.pool != nil {
		p.pool.Each(func(c *particles.Controller) { c.Dispose() })
		p.pool.Clear()
	}
	p.owner = nil
}

// Pool exposes the nested controller pool.
func (p *ControllerPayload) Pool() *particles.Pool[*particles.Controller] { return p.pool }

// Template returns the template index nested was copied from.
func (p *ControllerPayload) Template(nested *particles.Controller) (int, bool) {
	k, ok := p.owner[nested]
	return k, ok
}

func (p *ControllerPayload) Copy() particles.Influencer {
	out := &ControllerPayload{Random: p.Random, Templates: make([]*particles.Controller, len(p.Templates))}
	for k, t := range p.Templates {
		out.Templates[k] = t.Copy()
	}
	return out
}

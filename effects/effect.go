// Package effects groups particle controllers into effects and runs many
// effect instances side by side on an ECS world.
package effects

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/sparks/assets"
	"github.com/pthm-cable/sparks/influencers"
	"github.com/pthm-cable/sparks/particles"
)

// Effect is a set of controllers placed, started and stopped together.
type Effect struct {
	Name        string
	Controllers []*particles.Controller
}

// New returns an effect over controllers.
func New(name string, controllers ...*particles.Controller) *Effect {
	return &Effect{Name: name, Controllers: controllers}
}

// Stats summarises an effect at one point in time.
type Stats struct {
	Controllers int
	Live        int // top-level live particles
	Nested      int // live particles of nested controllers
	Activated   int
	Killed      int
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Controllers += o.Controllers
	s.Live += o.Live
	s.Nested += o.Nested
	s.Activated += o.Activated
	s.Killed += o.Killed
}

// LogValue implements slog.LogValuer for structured logging.
func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("controllers", s.Controllers),
		slog.Int("live", s.Live),
		slog.Int("nested", s.Nested),
		slog.Int("activated", s.Activated),
		slog.Int("killed", s.Killed),
	)
}

// Init initialises every controller. Asset handles must already be set.
func (e *Effect) Init() error {
	for _, c := range e.Controllers {
		if err := c.Init(); err != nil {
			return fmt.Errorf("effect %q: %w", e.Name, err)
		}
	}
	return nil
}

func (e *Effect) Start() {
	for _, c := range e.Controllers {
		c.Start()
	}
}

// Update advances every controller by dt seconds.
func (e *Effect) Update(dt float32) {
	for _, c := range e.Controllers {
		c.Update(dt)
	}
}

func (e *Effect) End() {
	for _, c := range e.Controllers {
		c.End()
	}
}

// Reset ends and restarts every controller.
func (e *Effect) Reset() {
	for _, c := range e.Controllers {
		c.Reset()
	}
}

func (e *Effect) Dispose() {
	for _, c := range e.Controllers {
		c.Dispose()
	}
}

// IsComplete reports whether every controller has finished.
func (e *Effect) IsComplete() bool {
	for _, c := range e.Controllers {
		if !c.IsComplete() {
			return false
		}
	}
	return true
}

// Copy returns an uninitialized copy. Resolved assets are carried over.
func (e *Effect) Copy() *Effect {
	out := &Effect{Name: e.Name, Controllers: make([]*particles.Controller, len(e.Controllers))}
	for i, c := range e.Controllers {
		out.Controllers[i] = c.Copy()
	}
	return out
}

// SetSeed reseeds every controller from one seed.
func (e *Effect) SetSeed(seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for _, c := range e.Controllers {
		c.SetSeed(rng.Int63())
	}
}

func (e *Effect) SetTransform(position mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) {
	for _, c := range e.Controllers {
		c.SetTransform(position, rotation, scale)
	}
}

func (e *Effect) Translate(offset mgl32.Vec3) {
	for _, c := range e.Controllers {
		c.Translate(offset)
	}
}

func (e *Effect) Stats() Stats {
	s := Stats{Controllers: len(e.Controllers)}
	for _, c := range e.Controllers {
		cs := c.Stats()
		s.Activated += cs.Activated
		s.Killed += cs.Killed
		if store := c.Particles(); store != nil {
			s.Live += store.Size()
			s.Nested += nestedLive(store)
		}
	}
	return s
}

func nestedLive(store *particles.Store) int {
	ch := store.ObjectChannel(particles.ParticleController)
	if ch == nil {
		return 0
	}
	n := 0
	for i := 0; i < store.Size(); i++ {
		nested, ok := ch.Get(i).(*particles.Controller)
		if !ok || nested.Particles() == nil {
			continue
		}
		n += nested.Particles().Size() + nestedLive(nested.Particles())
	}
	return n
}

// Referencers lists every stage that may need assets, including the
// stages of nested templates, in pipeline order. Handles must be resolved
// before Init, since payload pools copy their templates there.
func (e *Effect) Referencers() []assets.Referencer {
	var out []assets.Referencer
	for _, c := range e.Controllers {
		out = appendReferencers(out, c)
	}
	return out
}

func appendReferencers(out []assets.Referencer, c *particles.Controller) []assets.Referencer {
	for _, inf := range c.Influencers {
		if p, ok := inf.(*influencers.ControllerPayload); ok {
			for _, t := range p.Templates {
				out = appendReferencers(out, t)
			}
		}
		if r, ok := inf.(assets.Referencer); ok {
			out = append(out, r)
		}
	}
	return out
}

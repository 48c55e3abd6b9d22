package particles

import "fmt"

// Emitter decides when particles are born and die. It runs first in the
// pipeline and is the only stage allowed to change the live count, which
// it does from its Update hook.
type Emitter interface {
	Influencer
	MaxParticleCount() int
	// Percent is the progress through the current emission cycle.
	Percent() float32
	IsComplete() bool
}

// EmissionMode controls emission once the duration has elapsed.
type EmissionMode string

const (
	// EmissionEnabled emits continuously, looping when Continuous is set.
	EmissionEnabled EmissionMode = "enabled"
	// EmissionUntilCycleEnd stops at the end of the current cycle.
	EmissionUntilCycleEnd EmissionMode = "enabled_until_cycle_end"
	// EmissionDisabled emits nothing; live particles finish their life.
	EmissionDisabled EmissionMode = "disabled"
)

// minLife keeps a zero life from producing NaN life percents.
const minLife = 1e-6

// RegularEmitter emits at a rate that follows a curve over its duration
// and gives each particle a lifetime. All times are in seconds.
type RegularEmitter struct {
	Base `yaml:"-"`

	Delay      RangedNumericValue `yaml:"delay"`
	Duration   RangedNumericValue `yaml:"duration"`
	Emission   ScaledNumericValue `yaml:"emission"` // particles per second
	Life       ScaledNumericValue `yaml:"life"`
	LifeOffset ScaledNumericValue `yaml:"life_offset"`

	MinParticleCount int          `yaml:"min_particles"`
	MaxParticles     int          `yaml:"max_particles"`
	Continuous       bool         `yaml:"continuous"`
	Mode             EmissionMode `yaml:"mode"`

	life *Channel

	delay, delayTimer       float32
	duration, durationTimer float32
	percent                 float32

	emission, emissionDiff, emissionDelta float32
	lifeStart, lifeDiff                   float32
	offsetStart, offsetDiff               float32
}

// NewRegularEmitter returns a continuous emitter with sensible defaults.
func NewRegularEmitter(maxParticles int) *RegularEmitter {
	return &RegularEmitter{
		Duration:     RangedNumericValue{Active: true, Low: Fixed(1)},
		Emission:     Constant(10),
		Life:         Constant(1),
		MaxParticles: maxParticles,
		Continuous:   true,
		Mode:         EmissionEnabled,
	}
}

func (e *RegularEmitter) Name() string { return "regular_emitter" }

// MaxParticleCount implements Emitter.
func (e *RegularEmitter) MaxParticleCount() int { return e.MaxParticles }

// Percent implements Emitter.
func (e *RegularEmitter) Percent() float32 { return e.percent }

func (e *RegularEmitter) Allocate(c *Controller) error {
	if err := e.Bind(c); err != nil {
		return err
	}
	if e.Duration.Low.Min <= 0 {
		return fmt.Errorf("duration %v must be positive", e.Duration.Low)
	}
	if e.MinParticleCount > e.MaxParticles {
		return fmt.Errorf("min particle count %d exceeds max %d", e.MinParticleCount, e.MaxParticles)
	}
	for name, v := range map[string]*ScaledNumericValue{"emission": &e.Emission, "life": &e.Life, "life_offset": &e.LifeOffset} {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	e.life = c.AddChannel(Life)
	return nil
}

func (e *RegularEmitter) Start() {
	rng := e.Controller.Rand()

	e.delay = 0
	if e.Delay.Active {
		e.delay = e.Delay.NewLow(rng)
	}
	e.delayTimer = 0
	e.duration = e.Duration.NewLow(rng)
	e.durationTimer = 0
	e.percent = 0
	e.emissionDelta = 0

	e.emission, e.emissionDiff = e.Emission.Draw(rng)
	e.lifeStart, e.lifeDiff = e.Life.Draw(rng)
	e.offsetStart, e.offsetDiff = e.LifeOffset.Draw(rng)
}

func (e *RegularEmitter) Activate(start, count int) {
	for i := start; i < start+count; i++ {
		total := e.lifeStart + e.lifeDiff*e.Life.Scale(e.percent)
		if total < minLife {
			total = minLife
		}
		current := total
		if e.LifeOffset.Active {
			offset := e.offsetStart + e.offsetDiff*e.LifeOffset.Scale(e.percent)
			if offset > 0 {
				if offset >= current {
					offset = current - minLife
				}
				current -= offset
			}
		}
		slot := e.life.Slot(i)
		slot[CurrentLifeOffset] = current
		slot[TotalLifeOffset] = total
		slot[LifePercentOffset] = 1 - current/total
	}
}

// Update ages live particles, kills expired ones and emits new ones.
func (e *RegularEmitter) Update(f *Frame) {
	c := e.Controller
	dt := f.Delta

	for i := 0; i < c.particles.Size(); {
		slot := e.life.Slot(i)
		slot[CurrentLifeOffset] -= dt
		if slot[CurrentLifeOffset] <= 0 {
			c.KillParticles(i, 1)
			continue
		}
		slot[LifePercentOffset] = 1 - slot[CurrentLifeOffset]/slot[TotalLifeOffset]
		i++
	}

	if e.delayTimer < e.delay {
		e.delayTimer += dt
		return
	}

	emit := e.Mode != EmissionDisabled
	if e.durationTimer < e.duration {
		e.durationTimer += dt
		e.percent = e.durationTimer / e.duration
		if e.percent > 1 {
			e.percent = 1
		}
	} else if e.Continuous && emit && e.mode() == EmissionEnabled {
		c.restart()
	} else {
		emit = false
	}
	if !emit {
		return
	}

	e.emissionDelta += dt
	rate := e.emission + e.emissionDiff*e.Emission.Scale(e.percent)
	if rate > 0 {
		interval := 1 / rate
		if e.emissionDelta >= interval {
			n := int(e.emissionDelta / interval)
			if free := e.MaxParticles - c.particles.Size(); n > free {
				n = free
			}
			e.emissionDelta -= float32(n) * interval
			for e.emissionDelta >= interval {
				e.emissionDelta -= interval
			}
			c.AddParticles(n)
		}
	}
	if size := c.particles.Size(); size < e.MinParticleCount {
		c.AddParticles(e.MinParticleCount - size)
	}
}

func (e *RegularEmitter) mode() EmissionMode {
	if e.Mode == "" {
		return EmissionEnabled
	}
	return e.Mode
}

// IsComplete implements Emitter.
func (e *RegularEmitter) IsComplete() bool {
	if e.delayTimer < e.delay {
		return false
	}
	return e.durationTimer >= e.duration && e.Controller.particles.Size() == 0
}

func (e *RegularEmitter) Copy() Influencer {
	return &RegularEmitter{
		Delay:            e.Delay,
		Duration:         e.Duration,
		Emission:         e.Emission.Clone(),
		Life:             e.Life.Clone(),
		LifeOffset:       e.LifeOffset.Clone(),
		MinParticleCount: e.MinParticleCount,
		MaxParticles:     e.MaxParticles,
		Continuous:       e.Continuous,
		Mode:             e.Mode,
	}
}

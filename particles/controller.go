package particles

import (
	"fmt"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
)

// State is a controller lifecycle state.
type State uint8

const (
	Uninitialized State = iota
	Initialized
	Running
	Disposed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case Running:
		return "running"
	case Disposed:
		return "disposed"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Stats are cumulative particle counts of a controller.
type Stats struct {
	Activated int
	Killed    int
}

// Controller owns a particle store, an emitter and an ordered influencer
// pipeline, and drives them through the update protocol.
//
// A controller is single-threaded. Independent controllers may be updated
// from different goroutines.
type Controller struct {
	Name        string
	Emitter     Emitter
	Influencers []Influencer

	position mgl32.Vec3
	rotation mgl32.Quat
	scale    mgl32.Vec3

	particles *Store
	state     State
	frame     Frame
	rng       *rand.Rand
	seed      int64
	stats     Stats

	// owners maps a channel to the pipeline index that allocated it.
	owners map[ChannelID]int
	// phase is the pipeline index running Allocate or Init, -1 otherwise.
	phase int
}

// NewController creates an uninitialized controller. Influencers run in
// the given order after the emitter.
func NewController(name string, emitter Emitter, influencers ...Influencer) *Controller {
	c := &Controller{
		Name:        name,
		Emitter:     emitter,
		Influencers: influencers,
		rotation:    mgl32.QuatIdent(),
		scale:       mgl32.Vec3{1, 1, 1},
		phase:       -1,
	}
	c.SetSeed(1)
	return c
}

// SetSeed reseeds the controller's random source.
func (c *Controller) SetSeed(seed int64) {
	c.seed = seed
	c.rng = rand.New(rand.NewSource(seed))
}

// Seed returns the last seed set.
func (c *Controller) Seed() int64 { return c.seed }

// Rand returns the controller's random source.
func (c *Controller) Rand() *rand.Rand { return c.rng }

// State returns the lifecycle state.
func (c *Controller) State() State { return c.state }

// Particles returns the store. Renderers read channels of the live range
// between updates.
func (c *Controller) Particles() *Store { return c.particles }

// Frame returns the frame context of the last update.
func (c *Controller) Frame() *Frame { return &c.frame }

// Stats returns cumulative activation and kill counts.
func (c *Controller) Stats() Stats { return c.stats }

// Delta returns the delta time of the current frame in seconds.
func (c *Controller) Delta() float32 { return c.frame.Delta }

func (c *Controller) pipeline() []Influencer {
	out := make([]Influencer, 0, len(c.Influencers)+1)
	out = append(out, c.Emitter)
	return append(out, c.Influencers...)
}

// Init allocates the store and runs Allocate then Init on the emitter and
// every influencer. Errors identify the offending influencer and channel.
func (c *Controller) Init() error {
	if c.state != Uninitialized {
		return fmt.Errorf("controller %q: init in state %s: %w", c.Name, c.state, ErrInvalidState)
	}
	if c.Emitter == nil {
		return fmt.Errorf("controller %q: %w", c.Name, ErrNoEmitter)
	}
	capacity := c.Emitter.MaxParticleCount()
	if capacity < 1 {
		return fmt.Errorf("controller %q: emitter max particle count %d < 1", c.Name, capacity)
	}

	c.particles = NewStore(capacity)
	c.owners = make(map[ChannelID]int)
	pipe := c.pipeline()
	defer func() { c.phase = -1 }()

	for k, inf := range pipe {
		c.phase = k
		if err := inf.Allocate(c); err != nil {
			return fmt.Errorf("controller %q: influencer %q: %w", c.Name, inf.Name(), err)
		}
	}
	for k, inf := range pipe {
		c.phase = k
		if err := inf.Init(c); err != nil {
			return fmt.Errorf("controller %q: influencer %q: %w", c.Name, inf.Name(), err)
		}
	}

	c.state = Initialized
	Logger().Debug("controller initialized",
		"controller", c.Name,
		"capacity", capacity,
		"influencers", len(c.Influencers),
		"channels", len(c.owners),
	)
	return nil
}

// AddChannel allocates d for the influencer currently being allocated.
func (c *Controller) AddChannel(d ChannelDescriptor) *Channel {
	c.recordOwner(d)
	return c.particles.AddChannel(d)
}

// AddObjectChannel allocates payload channel d.
func (c *Controller) AddObjectChannel(d ChannelDescriptor) *ObjectChannel {
	c.recordOwner(d)
	return c.particles.AddObjectChannel(d)
}

func (c *Controller) recordOwner(d ChannelDescriptor) {
	if c.particles == nil {
		panic(fmt.Sprintf("particles: channel %q added outside Init", d.Name))
	}
	if _, ok := c.owners[d.ID]; !ok {
		c.owners[d.ID] = c.phase
	}
}

// Channel returns channel d or nil without allocating.
func (c *Controller) Channel(d ChannelDescriptor) *Channel {
	if c.particles == nil {
		return nil
	}
	return c.particles.Channel(d)
}

// Require returns channel d for the influencer being initialized. It fails
// when no influencer allocated d, or when d is allocated only by an
// influencer declared later in the pipeline.
func (c *Controller) Require(d ChannelDescriptor) (*Channel, error) {
	if err := c.checkRequired(d); err != nil {
		return nil, err
	}
	return c.particles.Channel(d), nil
}

// RequireObject is Require for payload channels.
func (c *Controller) RequireObject(d ChannelDescriptor) (*ObjectChannel, error) {
	if err := c.checkRequired(d); err != nil {
		return nil, err
	}
	return c.particles.ObjectChannel(d), nil
}

func (c *Controller) checkRequired(d ChannelDescriptor) error {
	if c.particles == nil || !c.particles.Has(d) {
		return fmt.Errorf("channel %q: %w", d.Name, ErrMissingChannel)
	}
	if owner := c.owners[d.ID]; c.phase >= 0 && owner > c.phase {
		return fmt.Errorf("channel %q owned by %q: %w", d.Name, c.pipeline()[owner].Name(), ErrInfluencerOrder)
	}
	return nil
}

// Start resets emission state and per-run influencer state.
func (c *Controller) Start() {
	switch c.state {
	case Initialized, Running:
	default:
		panic(fmt.Sprintf("particles: controller %q started in state %s", c.Name, c.state))
	}
	c.restart()
	c.state = Running
}

// restart runs Start on the whole pipeline without a state change. The
// emitter uses it to loop continuous effects.
func (c *Controller) restart() {
	for _, inf := range c.pipeline() {
		inf.Start()
	}
}

// Update advances the simulation by dt seconds. The emitter ages, kills
// and spawns particles first; then every influencer updates the live
// range in declaration order. Calling Update on a controller that is not
// running is a programming error.
func (c *Controller) Update(dt float32) {
	if c.state != Running {
		panic(fmt.Sprintf("particles: controller %q updated in state %s", c.Name, c.state))
	}
	c.frame.begin(dt, c.rng)
	c.frame.Count = c.particles.Size()
	c.Emitter.Update(&c.frame)

	c.frame.Count = c.particles.Size()
	for _, inf := range c.Influencers {
		inf.Update(&c.frame)
		if !c.frame.Angular.IsIdentity() {
			panic(fmt.Sprintf("particles: influencer %q left the angular accumulator undrained", inf.Name()))
		}
		if c.particles.Size() != c.frame.Count {
			panic(fmt.Sprintf("particles: influencer %q changed the particle count during update", inf.Name()))
		}
	}
}

// AddParticles appends up to count particles and activates them. It
// returns the number added.
func (c *Controller) AddParticles(count int) int {
	if free := c.particles.Capacity() - c.particles.Size(); count > free {
		count = free
	}
	if count <= 0 {
		return 0
	}
	start := c.particles.Append(count)
	c.ActivateParticles(start, count)
	return count
}

// ActivateParticles initialises slots [start, start+count) through the
// emitter and every influencer.
func (c *Controller) ActivateParticles(start, count int) {
	for _, inf := range c.pipeline() {
		inf.Activate(start, count)
	}
	c.stats.Activated += count
}

// KillParticles releases slots [start, start+count) through the emitter
// and every influencer, then compacts the store.
func (c *Controller) KillParticles(start, count int) {
	if count <= 0 {
		return
	}
	for _, inf := range c.pipeline() {
		inf.Kill(start, count)
	}
	c.particles.RemoveRange(start, count)
	c.stats.Killed += count
}

// End kills every live particle and ends the pipeline. The controller can
// be started again.
func (c *Controller) End() {
	if c.state != Running && c.state != Initialized {
		return
	}
	c.KillParticles(0, c.particles.Size())
	for _, inf := range c.pipeline() {
		inf.End()
	}
	c.state = Initialized
}

// Reset ends and restarts the controller.
func (c *Controller) Reset() {
	c.End()
	c.Start()
}

// Dispose ends the controller and releases pooled resources. A disposed
// controller cannot be reused.
func (c *Controller) Dispose() {
	if c.state == Disposed {
		return
	}
	if c.state != Uninitialized {
		c.End()
		for _, inf := range c.pipeline() {
			inf.Dispose()
		}
	}
	c.particles = nil
	c.state = Disposed
	Logger().Debug("controller disposed", "controller", c.Name, "activated", c.stats.Activated, "killed", c.stats.Killed)
}

// IsComplete reports whether a non-looping emission has finished and every
// particle has died.
func (c *Controller) IsComplete() bool {
	return c.Emitter.IsComplete()
}

// Copy returns an uninitialized controller with copies of the emitter and
// influencers. The copy's seed is drawn from c's random source.
func (c *Controller) Copy() *Controller {
	influencers := make([]Influencer, len(c.Influencers))
	for i, inf := range c.Influencers {
		influencers[i] = inf.Copy()
	}
	var emitter Emitter
	if c.Emitter != nil {
		emitter = c.Emitter.Copy().(Emitter)
	}
	out := NewController(c.Name, emitter, influencers...)
	out.position, out.rotation, out.scale = c.position, c.rotation, c.scale
	out.SetSeed(c.rng.Int63())
	return out
}

// SetTransform places the controller. Nested controllers receive their
// particle's transform through it.
func (c *Controller) SetTransform(position mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) {
	c.position, c.rotation, c.scale = position, rotation, scale
}

// Translate moves the controller by offset.
func (c *Controller) Translate(offset mgl32.Vec3) {
	c.position = c.position.Add(offset)
}

// Position returns the controller's world position.
func (c *Controller) Position() mgl32.Vec3 { return c.position }

// Rotation returns the controller's world rotation.
func (c *Controller) Rotation() mgl32.Quat { return c.rotation }

// ScaleFactor returns the controller's world scale.
func (c *Controller) ScaleFactor() mgl32.Vec3 { return c.scale }

// TransformPoint maps a local point into world space.
func (c *Controller) TransformPoint(p mgl32.Vec3) mgl32.Vec3 {
	p = mgl32.Vec3{p[0] * c.scale[0], p[1] * c.scale[1], p[2] * c.scale[2]}
	return c.rotation.Rotate(p).Add(c.position)
}

// TransformDirection rotates a local direction into world space.
func (c *Controller) TransformDirection(d mgl32.Vec3) mgl32.Vec3 {
	return c.rotation.Rotate(d)
}

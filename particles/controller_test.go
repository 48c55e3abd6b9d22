package particles

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

// probe is a configurable influencer used to observe the protocol.
type probe struct {
	Base
	name   string
	writes []ChannelDescriptor
	reads  []ChannelDescriptor

	started   int
	activated int
	killed    int
	updates   int
	lastCount int
	ended     int
	disposed  int
}

func (p *probe) Name() string { return p.name }

func (p *probe) Allocate(c *Controller) error {
	if err := p.Bind(c); err != nil {
		return err
	}
	for _, d := range p.writes {
		c.AddChannel(d)
	}
	return nil
}

func (p *probe) Init(c *Controller) error {
	for _, d := range p.reads {
		if _, err := c.Require(d); err != nil {
			return err
		}
	}
	return nil
}

func (p *probe) Start()                { p.started++ }
func (p *probe) Activate(_, count int) { p.activated += count }
func (p *probe) Kill(_, count int)     { p.killed += count }
func (p *probe) End()                  { p.ended++ }
func (p *probe) Dispose()              { p.disposed++ }
func (p *probe) Update(f *Frame) {
	p.updates++
	p.lastCount = f.Count
}
func (p *probe) Copy() Influencer {
	return &probe{name: p.name, writes: p.writes, reads: p.reads}
}

// payload records the transform pushed into it.
type payload struct {
	position mgl32.Vec3
}

func (p *payload) SetTransform(position mgl32.Vec3, _ mgl32.Quat, _ mgl32.Vec3) {
	p.position = position
}

// pooled hands out one pooled payload per particle.
type pooled struct {
	Base
	pool *Pool[*payload]
	ch   *ObjectChannel
}

func (p *pooled) Name() string { return "pooled" }

func (p *pooled) Allocate(c *Controller) error {
	if err := p.Bind(c); err != nil {
		return err
	}
	p.ch = c.AddObjectChannel(ModelInstance)
	p.pool = NewPool(c.Emitter.MaxParticleCount(), func() *payload { return &payload{} })
	p.pool.Fill()
	return nil
}

func (p *pooled) Activate(start, count int) {
	for i := start; i < start+count; i++ {
		p.ch.Set(i, p.pool.Obtain())
	}
}

func (p *pooled) Kill(start, count int) {
	for i := start; i < start+count; i++ {
		p.pool.Free(p.ch.Get(i).(*payload))
		p.ch.Set(i, nil)
	}
}

func (p *pooled) Copy() Influencer { return &pooled{} }

func quietEmitter(capacity int) *RegularEmitter {
	e := NewRegularEmitter(capacity)
	e.Emission = Constant(0)
	e.Life = Constant(10)
	return e
}

func TestUpdateBeforeInitPanics(t *testing.T) {
	c := NewController("fx", quietEmitter(4))
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		if !strings.Contains(r.(string), "uninitialized") {
			t.Errorf("panic message %q does not name the state", r)
		}
	}()
	c.Update(0.016)
}

func TestInitTwiceFails(t *testing.T) {
	c := NewController("fx", quietEmitter(4))
	if err := c.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := c.Init(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second Init error = %v, want ErrInvalidState", err)
	}
}

func TestInitWithoutEmitter(t *testing.T) {
	c := NewController("fx", nil)
	if err := c.Init(); !errors.Is(err, ErrNoEmitter) {
		t.Errorf("err = %v, want ErrNoEmitter", err)
	}
}

func TestInitMissingChannel(t *testing.T) {
	reader := &probe{name: "finalizer", reads: []ChannelDescriptor{ParticleController}}
	c := NewController("fx", quietEmitter(4), reader)

	err := c.Init()
	if !errors.Is(err, ErrMissingChannel) {
		t.Fatalf("err = %v, want ErrMissingChannel", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "finalizer") || !strings.Contains(msg, "particle_controller") {
		t.Errorf("error %q should name influencer and channel", msg)
	}
	if c.State() != Uninitialized {
		t.Errorf("state = %s, want uninitialized", c.State())
	}
}

func TestInitOrdering(t *testing.T) {
	producer := &probe{name: "dynamics", writes: []ChannelDescriptor{PreviousPosition}}
	consumer := &probe{name: "face_direction", reads: []ChannelDescriptor{PreviousPosition}}

	bad := NewController("bad", quietEmitter(4), consumer, producer)
	if err := bad.Init(); !errors.Is(err, ErrInfluencerOrder) {
		t.Errorf("err = %v, want ErrInfluencerOrder", err)
	}

	good := NewController("good", quietEmitter(4), producer.Copy(), consumer.Copy())
	if err := good.Init(); err != nil {
		t.Errorf("Init: %v", err)
	}
}

func TestInfluencerBoundTwice(t *testing.T) {
	shared := &probe{name: "shared"}
	a := NewController("a", quietEmitter(2), shared)
	b := NewController("b", quietEmitter(2), shared)
	if err := a.Init(); err != nil {
		t.Fatalf("Init a: %v", err)
	}
	if err := b.Init(); !errors.Is(err, ErrAlreadyBound) {
		t.Errorf("err = %v, want ErrAlreadyBound", err)
	}
}

func TestActivateKillProtocol(t *testing.T) {
	p := &probe{name: "probe"}
	c := NewController("fx", quietEmitter(8), p)
	if err := c.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	c.Start()

	if n := c.AddParticles(5); n != 5 {
		t.Fatalf("added %d, want 5", n)
	}
	c.KillParticles(1, 2)
	c.Update(0.01)

	if p.started != 1 {
		t.Errorf("started = %d, want 1", p.started)
	}
	if p.activated != 5 || p.killed != 2 {
		t.Errorf("activated = %d killed = %d, want 5 and 2", p.activated, p.killed)
	}
	if p.lastCount != 3 || c.Particles().Size() != 3 {
		t.Errorf("frame count = %d size = %d, want 3", p.lastCount, c.Particles().Size())
	}
	if got := c.Stats(); got.Activated != 5 || got.Killed != 2 {
		t.Errorf("stats = %+v", got)
	}
	if n := c.AddParticles(10); n != 5 {
		t.Errorf("added %d past capacity, want clamp to 5", n)
	}
}

func TestPoolActivateKillSymmetry(t *testing.T) {
	pl := &pooled{}
	c := NewController("fx", quietEmitter(6), pl)
	if err := c.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	c.Start()
	startFree := pl.pool.Available()

	steps := []struct {
		activate     bool
		start, count int
	}{
		{true, 0, 3},
		{false, 1, 1},
		{true, 2, 2},
		{false, 0, 2},
		{true, 2, 4},
		{false, 0, 6},
	}
	for _, s := range steps {
		if s.activate {
			if got := c.AddParticles(s.count); got != s.count {
				t.Fatalf("added %d, want %d", got, s.count)
			}
		} else {
			c.KillParticles(s.start, s.count)
		}
		if want := c.Emitter.MaxParticleCount() - c.Particles().Size(); pl.pool.Available() != want {
			t.Fatalf("available = %d, want %d", pl.pool.Available(), want)
		}
	}

	obtains, frees := pl.pool.Counts()
	if obtains != frees {
		t.Errorf("obtains = %d frees = %d", obtains, frees)
	}
	if pl.pool.Available() != startFree {
		t.Errorf("available = %d, want %d", pl.pool.Available(), startFree)
	}
}

func TestEndReleasesPayloads(t *testing.T) {
	pl := &pooled{}
	c := NewController("fx", quietEmitter(4), pl)
	if err := c.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	c.Start()
	c.AddParticles(4)
	c.End()

	if c.Particles().Size() != 0 {
		t.Errorf("size = %d after End", c.Particles().Size())
	}
	if pl.pool.Live() != 0 {
		t.Errorf("live payloads = %d after End", pl.pool.Live())
	}
	if c.State() != Initialized {
		t.Errorf("state = %s, want initialized", c.State())
	}

	c.Dispose()
	if c.State() != Disposed {
		t.Errorf("state = %s, want disposed", c.State())
	}
}

func TestAccumulatorIdentityAfterUpdate(t *testing.T) {
	c := NewController("fx", quietEmitter(2), &probe{name: "a"}, &probe{name: "b"})
	if err := c.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	c.Start()
	c.Update(0.016)
	if !c.Frame().Angular.IsIdentity() {
		t.Error("angular accumulator not at identity after update")
	}
}

func TestCopyIsIndependent(t *testing.T) {
	tmpl := NewController("fx", quietEmitter(3), &probe{name: "p"})
	tmpl.SetTransform(mgl32.Vec3{1, 2, 3}, mgl32.QuatIdent(), mgl32.Vec3{1, 1, 1})

	cp := tmpl.Copy()
	if cp.Influencers[0] == tmpl.Influencers[0] {
		t.Error("copy shares influencer instances")
	}
	if cp.Position() != tmpl.Position() {
		t.Errorf("position = %v, want %v", cp.Position(), tmpl.Position())
	}
	if err := cp.Init(); err != nil {
		t.Fatalf("copy Init: %v", err)
	}
	if err := tmpl.Init(); err != nil {
		t.Fatalf("template Init after copy: %v", err)
	}
}

func nearVec(a, b mgl32.Vec3) bool {
	return near(a[0], b[0]) && near(a[1], b[1]) && near(a[2], b[2])
}

func TestTransformPoint(t *testing.T) {
	c := NewController("fx", quietEmitter(1))
	c.SetTransform(mgl32.Vec3{10, 0, 0}, mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0}), mgl32.Vec3{2, 2, 2})
	got := c.TransformPoint(mgl32.Vec3{1, 0, 0})
	if !nearVec(got, mgl32.Vec3{10, 0, -2}) {
		t.Errorf("TransformPoint = %v, want (10,0,-2)", got)
	}
}

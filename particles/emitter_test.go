package particles

import "testing"

func startController(t *testing.T, e *RegularEmitter, influencers ...Influencer) *Controller {
	t.Helper()
	c := NewController("emitter", e, influencers...)
	if err := c.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	c.Start()
	return c
}

func TestEmissionRate(t *testing.T) {
	e := NewRegularEmitter(100)
	e.Emission = Constant(10)
	e.Life = Constant(5)
	c := startController(t, e)

	for i := 0; i < 10; i++ {
		c.Update(0.1)
	}
	if n := c.Particles().Size(); n < 9 || n > 11 {
		t.Errorf("size after 1s at 10/s = %d, want about 10", n)
	}
}

func TestEmissionRespectsCapacity(t *testing.T) {
	e := NewRegularEmitter(5)
	e.Emission = Constant(1000)
	e.Life = Constant(5)
	c := startController(t, e)

	for i := 0; i < 10; i++ {
		c.Update(0.1)
	}
	if n := c.Particles().Size(); n != 5 {
		t.Errorf("size = %d, want capacity 5", n)
	}
}

func TestLifeExpiry(t *testing.T) {
	e := NewRegularEmitter(8)
	e.Emission = Constant(0)
	e.Life = Constant(0.5)
	c := startController(t, e)
	c.AddParticles(3)

	c.Update(0.2)
	life := c.Channel(Life)
	if got := life.Get(0, LifePercentOffset); !near(got, 0.4) {
		t.Errorf("life percent = %v, want 0.4", got)
	}
	c.Update(0.2)
	if n := c.Particles().Size(); n != 3 {
		t.Fatalf("size = %d before expiry, want 3", n)
	}
	c.Update(0.2)
	if n := c.Particles().Size(); n != 0 {
		t.Errorf("size = %d after expiry, want 0", n)
	}
	if got := c.Stats().Killed; got != 3 {
		t.Errorf("killed = %d, want 3", got)
	}
}

func TestLifeOffset(t *testing.T) {
	e := NewRegularEmitter(4)
	e.Emission = Constant(0)
	e.Life = Constant(2)
	e.LifeOffset = Constant(0.5)
	c := startController(t, e)
	c.AddParticles(1)

	life := c.Channel(Life)
	if got := life.Get(0, CurrentLifeOffset); !near(got, 1.5) {
		t.Errorf("current life = %v, want 1.5", got)
	}
	if got := life.Get(0, LifePercentOffset); !near(got, 0.25) {
		t.Errorf("life percent = %v, want 0.25", got)
	}
}

func TestMinParticleCount(t *testing.T) {
	e := NewRegularEmitter(8)
	e.Emission = Constant(0)
	e.Life = Constant(5)
	e.MinParticleCount = 4
	c := startController(t, e)

	c.Update(0.016)
	if n := c.Particles().Size(); n != 4 {
		t.Errorf("size = %d, want min count 4", n)
	}
}

func TestEmissionModes(t *testing.T) {
	tests := []struct {
		name string
		mode EmissionMode
		want bool
	}{
		{"enabled", EmissionEnabled, true},
		{"until cycle end", EmissionUntilCycleEnd, true},
		{"disabled", EmissionDisabled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewRegularEmitter(50)
			e.Mode = tt.mode
			e.Life = Constant(5)
			c := startController(t, e)
			for i := 0; i < 5; i++ {
				c.Update(0.1)
			}
			if got := c.Particles().Size() > 0; got != tt.want {
				t.Errorf("emitted = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDelay(t *testing.T) {
	e := NewRegularEmitter(50)
	e.Delay = RangedNumericValue{Active: true, Low: Fixed(0.5)}
	e.Life = Constant(5)
	c := startController(t, e)

	for i := 0; i < 4; i++ {
		c.Update(0.1)
	}
	if n := c.Particles().Size(); n != 0 {
		t.Fatalf("size = %d during delay, want 0", n)
	}
	for i := 0; i < 6; i++ {
		c.Update(0.1)
	}
	if c.Particles().Size() == 0 {
		t.Error("no particles after delay elapsed")
	}
}

func TestNonContinuousCompletes(t *testing.T) {
	e := NewRegularEmitter(50)
	e.Continuous = false
	e.Duration = RangedNumericValue{Active: true, Low: Fixed(0.5)}
	e.Life = Constant(0.25)
	c := startController(t, e)

	c.Update(0.05)
	if c.IsComplete() {
		t.Fatal("complete after first frame")
	}
	for i := 0; i < 40; i++ {
		c.Update(0.05)
	}
	if !c.IsComplete() {
		t.Errorf("not complete after 2s, size = %d", c.Particles().Size())
	}
	if c.Stats().Activated == 0 {
		t.Error("nothing was emitted")
	}
}

func TestContinuousNeverCompletes(t *testing.T) {
	e := NewRegularEmitter(50)
	e.Duration = RangedNumericValue{Active: true, Low: Fixed(0.2)}
	e.Life = Constant(0.5)
	c := startController(t, e)
	for i := 0; i < 30; i++ {
		c.Update(0.05)
		if c.IsComplete() {
			t.Fatalf("continuous emitter completed at frame %d", i)
		}
	}
}

func TestEmitterValidation(t *testing.T) {
	tests := []struct {
		name  string
		setup func(e *RegularEmitter)
	}{
		{"zero duration", func(e *RegularEmitter) { e.Duration.Low = Fixed(0) }},
		{"min above max", func(e *RegularEmitter) { e.MinParticleCount = 10 }},
		{"bad curve", func(e *RegularEmitter) { e.Life.Timeline = []float32{0, 1} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewRegularEmitter(4)
			tt.setup(e)
			if err := NewController("bad", e).Init(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

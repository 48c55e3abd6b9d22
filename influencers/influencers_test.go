package influencers

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/sparks/assets"
	"github.com/pthm-cable/sparks/particles"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func quietEmitter(capacity int) *particles.RegularEmitter {
	e := particles.NewRegularEmitter(capacity)
	e.Emission = particles.Constant(0)
	e.Life = particles.Constant(10)
	return e
}

func running(t *testing.T, e particles.Emitter, influencers ...particles.Influencer) *particles.Controller {
	t.Helper()
	c := particles.NewController("test", e, influencers...)
	if err := c.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	c.Start()
	return c
}

func TestScaleAbsolute(t *testing.T) {
	v := particles.Linear(particles.Fixed(2), particles.Fixed(10), false)
	c := running(t, quietEmitter(4), NewSpawn(Point{}), NewScale(v))
	c.AddParticles(1)
	scale := c.Channel(particles.Scale)

	steps := []struct {
		dt   float32
		want float32
	}{
		{0, 2},
		{5, 6},
		{2.5, 8},
	}
	for _, s := range steps {
		if s.dt > 0 {
			c.Update(s.dt)
		}
		if got := scale.Data[0]; !near(got, s.want) {
			t.Errorf("scale = %v, want %v", got, s.want)
		}
	}
}

func TestScaleRelative(t *testing.T) {
	v := particles.Linear(particles.Fixed(1), particles.Fixed(4), true)
	c := running(t, quietEmitter(4), NewSpawn(Point{}), NewScale(v))
	c.AddParticles(1)
	c.Update(5)
	if got := c.Channel(particles.Scale).Data[0]; !near(got, 3) {
		t.Errorf("scale at half life = %v, want 3", got)
	}
}

func TestScaleFollowsController(t *testing.T) {
	c := particles.NewController("scaled", quietEmitter(2), NewSpawn(Point{}), NewScale(particles.Constant(3)))
	c.SetTransform(mgl32.Vec3{}, mgl32.QuatIdent(), mgl32.Vec3{2, 2, 2})
	if err := c.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	c.Start()
	c.AddParticles(1)
	if got := c.Channel(particles.Scale).Data[0]; !near(got, 6) {
		t.Errorf("scale = %v, want 6", got)
	}
}

func TestAnimatedIndex(t *testing.T) {
	tests := []struct {
		percent float32
		n       int
		want    int
	}{
		{0, 4, 0},
		{0.33, 4, 0},
		{0.5, 4, 1},
		{0.99, 4, 2},
		{1, 4, 3},
		{0.7, 1, 0},
		{-0.1, 3, 0},
		{1.5, 3, 2},
	}
	for _, tt := range tests {
		if got := AnimatedIndex(tt.percent, tt.n); got != tt.want {
			t.Errorf("AnimatedIndex(%v, %d) = %d, want %d", tt.percent, tt.n, got, tt.want)
		}
	}
}

func TestRegionAnimated(t *testing.T) {
	tex := assets.NewTexture("sheet", 64, 16)
	tex.Split(4, 1)
	r := NewRegion(RegionAnimated, tex.Regions...)
	c := running(t, quietEmitter(2), NewSpawn(Point{}), r)
	c.AddParticles(1)
	ch := c.Channel(particles.TextureRegion)

	c.Update(3.3)
	if got := ch.Get(0, particles.UOffset); got != 0 {
		t.Errorf("u at 33%% = %v, want region 0", got)
	}
	c.Update(3.3)
	if got := ch.Get(0, particles.UOffset); got != 0.25 {
		t.Errorf("u at 66%% = %v, want region 1 (0.25)", got)
	}
	if got := ch.Get(0, particles.HalfHeightOffset); got != 0.5 {
		t.Errorf("half height = %v, want 0.5 for square regions", got)
	}
}

func TestRegionDefaultsToFullTexture(t *testing.T) {
	c := running(t, quietEmitter(2), NewSpawn(Point{}), &Region{})
	c.AddParticles(1)
	ch := c.Channel(particles.TextureRegion)
	if ch.Get(0, particles.U2Offset) != 1 || ch.Get(0, particles.V2Offset) != 1 {
		t.Errorf("region = %v, want full texture", ch.Slot(0))
	}
}

func TestRegionMissingTexture(t *testing.T) {
	r := &Region{Texture: assets.Ref{Key: "missing.png", Type: assets.TypeTexture}}
	c := particles.NewController("test", quietEmitter(2), r)
	if err := c.Init(); !errors.Is(err, assets.ErrMissingAsset) {
		t.Errorf("err = %v, want ErrMissingAsset", err)
	}
}

func TestColorSingle(t *testing.T) {
	col := NewColorSingle()
	col.Gradient = particles.GradientColorValue{
		Colors:   []float32{1, 0, 0, 0, 0, 1},
		Timeline: []float32{0, 1},
	}
	col.Alpha = particles.Linear(particles.Fixed(1), particles.Fixed(0), false)
	c := running(t, quietEmitter(2), NewSpawn(Point{}), col)
	c.AddParticles(1)
	color := c.Channel(particles.Color)

	if got := color.Slot(0); got[0] != 1 || got[2] != 0 || got[3] != 1 {
		t.Errorf("color at birth = %v, want opaque red", got)
	}
	c.Update(5)
	got := color.Slot(0)
	if !near(got[0], 0.5) || !near(got[2], 0.5) || !near(got[3], 0.5) {
		t.Errorf("color at half life = %v, want (0.5, 0, 0.5, 0.5)", got)
	}
}

func TestColorRandomDrawnOnce(t *testing.T) {
	c := running(t, quietEmitter(4), NewSpawn(Point{}), &ColorRandom{})
	c.AddParticles(3)
	color := c.Channel(particles.Color)
	before := append([]float32(nil), color.Data[:12]...)

	c.Update(1)
	for i, v := range color.Data[:12] {
		if v != before[i] {
			t.Fatalf("color changed after update at %d: %v -> %v", i, before[i], v)
		}
		if v < 0 || v > 1 {
			t.Errorf("component %d = %v out of range", i, v)
		}
	}
	if color.Get(0, particles.AlphaOffset) != 1 {
		t.Error("random color not opaque")
	}
}

func TestSpawnWithoutShape(t *testing.T) {
	c := particles.NewController("test", quietEmitter(2), &Spawn{})
	if err := c.Init(); !errors.Is(err, ErrNoSpawnShape) {
		t.Errorf("err = %v, want ErrNoSpawnShape", err)
	}
}

func TestSpawnUsesControllerTransform(t *testing.T) {
	s := NewSpawn(Point{})
	s.OffsetY = particles.RangedNumericValue{Active: true, Low: particles.Fixed(1)}
	c := particles.NewController("moved", quietEmitter(2), s)
	c.SetTransform(mgl32.Vec3{5, 0, 0}, mgl32.QuatIdent(), mgl32.Vec3{1, 1, 1})
	if err := c.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	c.Start()
	c.AddParticles(1)
	if got := c.Channel(particles.Position).Vec3(0); got != (mgl32.Vec3{5, 1, 0}) {
		t.Errorf("position = %v, want (5,1,0)", got)
	}
}

func TestShapes(t *testing.T) {
	const eps = 1e-3
	dims := func() Dimensions { return NewDimensions(4, 2, 6) }
	tests := []struct {
		name  string
		shape Shape
		check func(p mgl32.Vec3) bool
	}{
		{"point", Point{}, func(p mgl32.Vec3) bool { return p == mgl32.Vec3{} }},
		{"line", &Line{Dimensions: dims()}, func(p mgl32.Vec3) bool {
			k := p[0] / 4
			return k >= 0 && k <= 1 && near(p[1], 2*k) && near(p[2], 6*k)
		}},
		{"rectangle volume", &Rectangle{Dimensions: dims()}, func(p mgl32.Vec3) bool {
			return abs(p[0]) <= 2 && abs(p[1]) <= 1 && abs(p[2]) <= 3
		}},
		{"rectangle edges", &Rectangle{Dimensions: dims(), Edges: true}, func(p mgl32.Vec3) bool {
			return near(abs(p[0]), 2) || near(abs(p[1]), 1) || near(abs(p[2]), 3)
		}},
		{"ellipse volume", &Ellipse{Dimensions: dims()}, func(p mgl32.Vec3) bool {
			return ellipseNorm(p) <= 1+eps
		}},
		{"ellipse surface", &Ellipse{Dimensions: dims(), Edges: true}, func(p mgl32.Vec3) bool {
			return math.Abs(float64(ellipseNorm(p)-1)) < eps
		}},
		{"ellipse top", &Ellipse{Dimensions: dims(), Side: SideTop}, func(p mgl32.Vec3) bool { return p[1] >= 0 }},
		{"ellipse bottom", &Ellipse{Dimensions: dims(), Side: SideBottom}, func(p mgl32.Vec3) bool { return p[1] <= 0 }},
		{"cylinder edges", &Cylinder{Dimensions: dims(), Edges: true}, func(p mgl32.Vec3) bool {
			r := p[0]*p[0]/4 + p[2]*p[2]/9
			return math.Abs(float64(r-1)) < eps && abs(p[1]) <= 1
		}},
		{"cylinder volume", &Cylinder{Dimensions: dims()}, func(p mgl32.Vec3) bool {
			return p[0]*p[0]/4+p[2]*p[2]/9 <= 1+eps && abs(p[1]) <= 1
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(3))
			if err := tt.shape.Validate(); err != nil {
				t.Fatalf("Validate: %v", err)
			}
			tt.shape.Start(rng)
			for i := 0; i < 200; i++ {
				if p := tt.shape.Sample(rng, 0.5); !tt.check(p) {
					t.Fatalf("sample %d = %v violates shape", i, p)
				}
			}
		})
	}
}

func abs(v float32) float32 { return float32(math.Abs(float64(v))) }

// ellipseNorm is 1 on the surface of the 4x2x6 test ellipsoid.
func ellipseNorm(p mgl32.Vec3) float32 {
	return p[0]*p[0]/4 + p[1]*p[1]/1 + p[2]*p[2]/9
}

func TestEllipseUnknownSide(t *testing.T) {
	e := &Ellipse{Dimensions: NewDimensions(1, 1, 1), Side: "left"}
	if err := e.Validate(); err == nil {
		t.Error("expected error for unknown side")
	}
}

func TestMeshWeighted(t *testing.T) {
	mesh := &assets.Mesh{
		Vertices: []mgl32.Vec3{
			{0, 0, 0}, {1, 0, 0}, {0, 1, 0},
			{5, 5, 5}, {5, 5, 5}, {5, 5, 5},
		},
	}
	shape := &Mesh{Weighted: true}
	shape.SetMesh(mesh)
	rng := rand.New(rand.NewSource(9))
	for i := 0; i < 100; i++ {
		p := shape.Sample(rng, 0)
		if p[0] < 0 || p[1] < 0 || p[0]+p[1] > 1+1e-5 || p[2] != 0 {
			t.Fatalf("sample %v not on the only triangle with area", p)
		}
	}
}

func TestMeshShapeResolvesAsset(t *testing.T) {
	ref := assets.Ref{Key: "hull", Type: assets.TypeMesh}
	s := NewSpawn(&Mesh{Ref: ref})
	if err := assets.Resolve(assets.MapProvider{ref: assets.Quad("hull")}, s); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	c := running(t, quietEmitter(8), s)
	c.AddParticles(8)
	for i := 0; i < 8; i++ {
		p := c.Channel(particles.Position).Vec3(i)
		if abs(p[0]) > 0.5 || abs(p[1]) > 0.5 || p[2] != 0 {
			t.Errorf("particle %d at %v outside the quad", i, p)
		}
	}
}

func TestModelInstancePoolSymmetry(t *testing.T) {
	rock := &assets.Model{Name: "rock"}
	leaf := &assets.Model{Name: "leaf"}
	models := NewModelInstance(true, rock, leaf)

	e := particles.NewRegularEmitter(32)
	e.Emission = particles.Constant(200)
	e.Life = particles.Linear(particles.Range{Min: 0.05, Max: 0.3}, particles.Fixed(0), true)
	c := running(t, e, NewSpawn(Point{}), models, &ModelFinalizer{})

	check := func() {
		t.Helper()
		p := models.Pool()
		if p.Live()+p.Available() != p.Max() {
			t.Fatalf("pool live %d + available %d != max %d", p.Live(), p.Available(), p.Max())
		}
		if p.Live() != c.Particles().Size() {
			t.Fatalf("live payloads = %d, particles = %d", p.Live(), c.Particles().Size())
		}
	}
	for i := 0; i < 60; i++ {
		c.Update(0.016)
		check()
	}
	if c.Stats().Killed == 0 {
		t.Fatal("no particle died; symmetry not exercised")
	}

	c.End()
	check()
	if obtains, frees := models.Pool().Counts(); obtains != frees {
		t.Errorf("obtains = %d frees = %d after End", obtains, frees)
	}
}

func TestRandomModelPoolPopulation(t *testing.T) {
	rock := &assets.Model{Name: "rock"}
	leaf := &assets.Model{Name: "leaf"}
	tests := []struct {
		name   string
		models []*assets.Model
	}{
		{"distinct", []*assets.Model{rock, leaf, {Name: "twig"}}},
		{"repeated", []*assets.Model{rock, leaf, rock}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			models := NewModelInstance(true, tt.models...)
			c := running(t, quietEmitter(8), NewSpawn(Point{}), models)

			c.AddParticles(3)
			pool := models.Pool()
			if got := pool.Available(); got != 5 {
				t.Fatalf("pooled at rest = %d, want max - active = 5", got)
			}
			ch := c.Particles().ObjectChannel(particles.ModelInstance)
			for i := 0; i < 3; i++ {
				inst := ch.Get(i).(*assets.ModelInstance)
				if inst.Model != rock && inst.Model != leaf && inst.Model != tt.models[2] {
					t.Errorf("particle %d has model %v", i, inst.Model)
				}
			}

			// Churn through every slot many times
			for round := 0; round < 20; round++ {
				c.AddParticles(8 - c.Particles().Size())
				c.KillParticles(0, 5)
				if pool.Live()+pool.Available() != 8 {
					t.Fatalf("round %d: pool holds %d, want 8", round, pool.Live()+pool.Available())
				}
			}
			c.End()
			if pool.Available() != 8 {
				t.Errorf("pooled after End = %d, want 8", pool.Available())
			}
		})
	}
}

func TestRandomControllerPayloadPopulation(t *testing.T) {
	templates := make([]*particles.Controller, 2)
	for k, name := range []string{"spark", "smoke"} {
		e := particles.NewRegularEmitter(4)
		e.Emission = particles.Constant(10)
		e.Life = particles.Constant(1)
		templates[k] = particles.NewController(name, e, NewSpawn(Point{}))
	}
	payload := NewControllerPayload(true, templates...)
	c := running(t, quietEmitter(6), NewSpawn(Point{}), payload)
	defer c.Dispose()

	pool := payload.Pool()
	if pool.Available() != 6 {
		t.Fatalf("pooled at rest = %d, want 6", pool.Available())
	}

	seen := map[string]bool{}
	ch := c.Particles().ObjectChannel(particles.ParticleController)
	for round := 0; round < 20; round++ {
		c.AddParticles(6 - c.Particles().Size())
		if pool.Available() != 0 || pool.Live() != 6 {
			t.Fatalf("round %d: live %d available %d, want 6 and 0", round, pool.Live(), pool.Available())
		}
		for i := 0; i < c.Particles().Size(); i++ {
			nested := ch.Get(i).(*particles.Controller)
			k, ok := payload.Template(nested)
			if !ok {
				t.Fatalf("particle %d carries an unknown controller", i)
			}
			if nested.Name != templates[k].Name {
				t.Errorf("nested %q recorded as template %q", nested.Name, templates[k].Name)
			}
			if nested.State() != particles.Running {
				t.Errorf("nested %d state = %s", i, nested.State())
			}
			seen[nested.Name] = true
		}
		c.KillParticles(0, 4)
		if pool.Live()+pool.Available() != 6 {
			t.Fatalf("round %d: pool holds %d, want 6", round, pool.Live()+pool.Available())
		}
	}
	if !seen["spark"] || !seen["smoke"] {
		t.Errorf("templates drawn = %v, want both", seen)
	}
}

func TestModelFinalizerWritesTransform(t *testing.T) {
	model := &assets.Model{Name: "rock"}
	s := NewSpawn(Point{})
	c := particles.NewController("fx", quietEmitter(2), s, NewModelInstance(false, model), NewScale(particles.Constant(2)), &ModelFinalizer{})
	c.SetTransform(mgl32.Vec3{1, 2, 3}, mgl32.QuatIdent(), mgl32.Vec3{1, 1, 1})
	if err := c.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	c.Start()
	c.AddParticles(1)
	c.Update(0.01)

	inst := c.Particles().ObjectChannel(particles.ModelInstance).Get(0).(*assets.ModelInstance)
	if got := inst.Position(); got != (mgl32.Vec3{1, 2, 3}) {
		t.Errorf("instance position = %v", got)
	}
	if got := inst.Transform.At(0, 0); !near(got, 2) {
		t.Errorf("instance scale = %v, want 2", got)
	}
}

func TestFinalizerMissingPayload(t *testing.T) {
	tests := []struct {
		name string
		inf  particles.Influencer
	}{
		{"model", &ModelFinalizer{}},
		{"controller", &ControllerFinalizer{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := particles.NewController("fx", quietEmitter(2), NewSpawn(Point{}), tt.inf)
			if err := c.Init(); !errors.Is(err, particles.ErrMissingChannel) {
				t.Errorf("err = %v, want ErrMissingChannel", err)
			}
		})
	}
}

func TestNestedControllers(t *testing.T) {
	childEmitter := particles.NewRegularEmitter(16)
	childEmitter.Emission = particles.Constant(100)
	childEmitter.Life = particles.Constant(1)
	child := particles.NewController("child", childEmitter, NewSpawn(Point{}))

	parentEmitter := quietEmitter(3)
	parentEmitter.MinParticleCount = 3
	spawn := NewSpawn(&Line{Dimensions: NewDimensions(10, 0, 0)})
	payload := NewControllerPayload(false, child)
	c := running(t, parentEmitter, spawn, payload, &ControllerFinalizer{})

	for i := 0; i < 5; i++ {
		c.Update(0.05)
	}
	ch := c.Particles().ObjectChannel(particles.ParticleController)
	pos := c.Channel(particles.Position)
	for i := 0; i < c.Particles().Size(); i++ {
		nested := ch.Get(i).(*particles.Controller)
		if nested.State() != particles.Running {
			t.Fatalf("nested %d state = %s", i, nested.State())
		}
		if nested.Position() != pos.Vec3(i) {
			t.Errorf("nested %d at %v, particle at %v", i, nested.Position(), pos.Vec3(i))
		}
		if nested.Particles().Size() == 0 {
			t.Errorf("nested %d emitted nothing", i)
		}
	}

	c.End()
	pool := payload.Pool()
	if pool.Live() != 0 || pool.Available() != pool.Max() {
		t.Errorf("pool live = %d available = %d after End", pool.Live(), pool.Available())
	}
	c.Dispose()
}

func TestNestedTemplateError(t *testing.T) {
	bad := particles.NewController("bad", quietEmitter(2), &Spawn{})
	c := particles.NewController("parent", quietEmitter(2), NewSpawn(Point{}), NewControllerPayload(false, bad))
	if err := c.Init(); !errors.Is(err, ErrNoSpawnShape) {
		t.Errorf("err = %v, want ErrNoSpawnShape", err)
	}
}

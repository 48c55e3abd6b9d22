package effects

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mlange-42/ark/ecs"
)

// Placement is where an instance sits in the world.
type Placement struct {
	Position mgl32.Vec3
}

// Instance is a live effect in the world.
type Instance struct {
	ID     uint32
	Effect *Effect
	Age    float32 // seconds since the current run started
	Runs   int     // completed runs
}

// Options configure a Manager.
type Options struct {
	Workers           int  // 0 means GOMAXPROCS
	ParallelThreshold int  // instances below this update serially
	Respawn           bool // restart completed instances instead of removing them
}

// FrameStats describe one Manager update. Activated and Killed count every
// instance since the manager was created, including removed ones.
type FrameStats struct {
	Frame     int
	Instances int
	Completed int
	Live      int
	Nested    int
	Activated int
	Killed    int
}

// LogValue implements slog.LogValuer for structured logging.
func (s FrameStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("frame", s.Frame),
		slog.Int("instances", s.Instances),
		slog.Int("completed", s.Completed),
		slog.Int("live", s.Live),
		slog.Int("nested", s.Nested),
		slog.Int("activated", s.Activated),
		slog.Int("killed", s.Killed),
	)
}

// Manager owns effect instances as entities and updates them each frame.
// Instances are updated concurrently by a worker pool; spawning and removal
// happen only on the goroutine calling Manager methods.
type Manager struct {
	world *ecs.World
	opts  Options

	mapper    *ecs.Map2[Placement, Instance]
	filter    *ecs.Filter2[Placement, Instance]
	instances *ecs.Map1[Instance]

	parallel *parallelState
	entities []ecs.Entity
	retired  Stats // counts of removed instances
	frame    int
	count    int
	nextID   uint32
}

func NewManager(opts Options) *Manager {
	world := ecs.NewWorld()
	return &Manager{
		world:     world,
		opts:      opts,
		mapper:    ecs.NewMap2[Placement, Instance](world),
		filter:    ecs.NewFilter2[Placement, Instance](world),
		instances: ecs.NewMap1[Instance](world),
		parallel:  newParallelState(opts.Workers, opts.ParallelThreshold),
	}
}

// Spawn initialises and starts e at position and adds it to the world.
func (m *Manager) Spawn(e *Effect, position mgl32.Vec3) (ecs.Entity, error) {
	e.Translate(position)
	if err := e.Init(); err != nil {
		return ecs.Entity{}, err
	}
	e.Start()

	m.nextID++
	pos := Placement{Position: position}
	inst := Instance{ID: m.nextID, Effect: e}
	entity := m.mapper.NewEntity(&pos, &inst)
	m.count++
	return entity, nil
}

// Len returns the number of live instances.
func (m *Manager) Len() int { return m.count }

// Alive reports whether entity is a live instance.
func (m *Manager) Alive(entity ecs.Entity) bool { return m.world.Alive(entity) }

// Frame returns the number of updates run.
func (m *Manager) Frame() int { return m.frame }

// Update advances every instance by dt seconds, then restarts or removes
// the completed ones.
func (m *Manager) Update(dt float32) FrameStats {
	m.frame++
	p := m.parallel

	// Phase A: snapshot live instances (single-threaded)
	p.effects = p.effects[:0]
	m.entities = m.entities[:0]
	query := m.filter.Query()
	for query.Next() {
		_, inst := query.Get()
		inst.Age += dt
		p.effects = append(p.effects, inst.Effect)
		m.entities = append(m.entities, query.Entity())
	}

	// Phase B: update effects
	p.update(dt)

	// Phase C: collect completed instances before modifying the world
	var total Stats
	retired := m.retired
	var done []ecs.Entity
	for i, e := range p.effects {
		total.Add(e.Stats())
		if e.IsComplete() {
			done = append(done, m.entities[i])
		}
	}

	for _, entity := range done {
		inst := m.instances.Get(entity)
		if m.opts.Respawn {
			inst.Effect.Reset()
			inst.Runs++
			inst.Age = 0
			continue
		}
		s := inst.Effect.Stats()
		m.retired.Activated += s.Activated
		m.retired.Killed += s.Killed
		inst.Effect.Dispose()
		m.world.RemoveEntity(entity)
		m.count--
	}

	return FrameStats{
		Frame:     m.frame,
		Instances: m.count,
		Completed: len(done),
		Live:      total.Live,
		Nested:    total.Nested,
		Activated: total.Activated + retired.Activated,
		Killed:    total.Killed + retired.Killed,
	}
}

// Each calls fn for every live instance. fn must not spawn or remove.
func (m *Manager) Each(fn func(*Placement, *Instance)) {
	query := m.filter.Query()
	for query.Next() {
		fn(query.Get())
	}
}

// Close stops the workers and disposes every instance.
func (m *Manager) Close() {
	m.parallel.stopWorkers()

	var all []ecs.Entity
	query := m.filter.Query()
	for query.Next() {
		all = append(all, query.Entity())
	}
	for _, entity := range all {
		m.instances.Get(entity).Effect.Dispose()
		m.world.RemoveEntity(entity)
	}
	m.count = 0
}

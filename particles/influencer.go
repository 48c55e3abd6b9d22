package particles

// Influencer is one stage of a controller's pipeline. Each hook is called
// for every influencer in declaration order:
//
//   - Allocate: bind to the controller and add the channels it writes.
//   - Init: look up channels written by earlier influencers (Require).
//   - Start: reset per-run state.
//   - Activate: initialise owned channels for the new slots
//     [start, start+count).
//   - Update: advance owned channels for the live slots [0, Frame.Count).
//   - Kill: release anything held for [start, start+count) before the
//     store compacts.
//   - End, Dispose: release pooled objects and external handles.
//
// Per-particle state lives only in channels. Copy returns an unbound
// influencer with the same configuration.
type Influencer interface {
	Name() string
	Allocate(c *Controller) error
	Init(c *Controller) error
	Start()
	Activate(start, count int)
	Update(f *Frame)
	Kill(start, count int)
	End()
	Dispose()
	Copy() Influencer
}

// Base provides the binding and no-op hooks. Embed it and override the
// hooks an influencer needs.
type Base struct {
	Controller *Controller
}

// Bind attaches the influencer to c. Binding to a second controller is a
// configuration error.
func (b *Base) Bind(c *Controller) error {
	if b.Controller != nil && b.Controller != c {
		return ErrAlreadyBound
	}
	b.Controller = c
	return nil
}

// Allocate binds to c without adding channels.
func (b *Base) Allocate(c *Controller) error { return b.Bind(c) }

func (b *Base) Init(*Controller) error { return nil }
func (b *Base) Start()                 {}
func (b *Base) Activate(int, int)      {}
func (b *Base) Update(*Frame)          {}
func (b *Base) Kill(int, int)          {}
func (b *Base) End()                   {}
func (b *Base) Dispose()               {}

// LifePercentAt returns the life percent of slot i, or 0 when life is nil.
func LifePercentAt(life *Channel, i int) float32 {
	if life == nil {
		return 0
	}
	return life.Data[i*life.Stride+LifePercentOffset]
}

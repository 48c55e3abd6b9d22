package particles

import (
	"fmt"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
)

// ChannelID identifies a channel process-wide.
type ChannelID int32

var lastChannelID atomic.Int32

// NewChannelID returns a fresh, never reused channel id.
func NewChannelID() ChannelID {
	return ChannelID(lastChannelID.Add(1))
}

// ChannelDescriptor declares a per-particle attribute: its identity and
// the number of values stored per particle.
type ChannelDescriptor struct {
	ID     ChannelID
	Name   string
	Stride int
	Object bool // holds Payload values instead of float32
}

// NewChannel declares a float channel with a fresh id.
func NewChannel(name string, stride int) ChannelDescriptor {
	if stride < 1 {
		panic(fmt.Sprintf("particles: channel %q stride %d < 1", name, stride))
	}
	return ChannelDescriptor{ID: NewChannelID(), Name: name, Stride: stride}
}

// NewObjectChannel declares a payload channel with a fresh id.
func NewObjectChannel(name string) ChannelDescriptor {
	return ChannelDescriptor{ID: NewChannelID(), Name: name, Stride: 1, Object: true}
}

func (d ChannelDescriptor) String() string {
	return d.Name
}

// Shared channels. Influencers that agree on one of these descriptors
// share the backing array.
var (
	Position          = NewChannel("position", 3)
	PreviousPosition  = NewChannel("previous_position", 3)
	Velocity          = NewChannel("velocity", 3)
	Acceleration      = NewChannel("acceleration", 3)
	Rotation2D        = NewChannel("rotation_2d", 2)
	Rotation3D        = NewChannel("rotation_3d", 4)
	AngularVelocity2D = NewChannel("angular_velocity_2d", 1)
	AngularVelocity3D = NewChannel("angular_velocity_3d", 3)
	Scale             = NewChannel("scale", 1)
	Life              = NewChannel("life", 3)
	Color             = NewChannel("color", 4)
	TextureRegion     = NewChannel("texture_region", 6)

	ModelInstance      = NewObjectChannel("model_instance")
	ParticleController = NewObjectChannel("particle_controller")
)

// Field offsets inside a slot.
const (
	XOffset = 0
	YOffset = 1
	ZOffset = 2
	WOffset = 3

	CosineOffset = 0
	SineOffset   = 1

	// Life channel
	CurrentLifeOffset = 0
	TotalLifeOffset   = 1
	LifePercentOffset = 2

	// Color channel
	RedOffset   = 0
	GreenOffset = 1
	BlueOffset  = 2
	AlphaOffset = 3

	// Texture region channel
	UOffset          = 0
	VOffset          = 1
	U2Offset         = 2
	V2Offset         = 3
	HalfWidthOffset  = 4
	HalfHeightOffset = 5

	// Interpolation channels
	StartOffset = 0
	DiffOffset  = 1
)

// Channel is the backing array of one float channel. The Data slice is
// replaced when the store grows; hold the *Channel, not the slice.
type Channel struct {
	ChannelDescriptor
	Data []float32
}

// Slot returns the stride-sized window of particle i.
func (c *Channel) Slot(i int) []float32 {
	off := i * c.Stride
	return c.Data[off : off+c.Stride : off+c.Stride]
}

// Get returns field offset of particle i.
func (c *Channel) Get(i, offset int) float32 {
	c.checkOffset(offset)
	return c.Data[i*c.Stride+offset]
}

// Set stores v into field offset of particle i.
func (c *Channel) Set(i, offset int, v float32) {
	c.checkOffset(offset)
	c.Data[i*c.Stride+offset] = v
}

// Vec3 reads the first three fields of particle i.
func (c *Channel) Vec3(i int) mgl32.Vec3 {
	s := c.Slot(i)
	return mgl32.Vec3{s[0], s[1], s[2]}
}

// SetVec3 writes v into the first three fields of particle i.
func (c *Channel) SetVec3(i int, v mgl32.Vec3) {
	s := c.Slot(i)
	s[0], s[1], s[2] = v[0], v[1], v[2]
}

// Quat reads an x, y, z, w quaternion slot.
func (c *Channel) Quat(i int) mgl32.Quat {
	s := c.Slot(i)
	return mgl32.Quat{W: s[WOffset], V: mgl32.Vec3{s[XOffset], s[YOffset], s[ZOffset]}}
}

// SetQuat writes q as x, y, z, w.
func (c *Channel) SetQuat(i int, q mgl32.Quat) {
	s := c.Slot(i)
	s[XOffset], s[YOffset], s[ZOffset], s[WOffset] = q.V[0], q.V[1], q.V[2], q.W
}

func (c *Channel) checkOffset(offset int) {
	if offset < 0 || offset >= c.Stride {
		panic(fmt.Sprintf("particles: offset %d out of range for channel %q (stride %d)", offset, c.Name, c.Stride))
	}
}

// ObjectChannel is the backing array of a payload channel.
type ObjectChannel struct {
	ChannelDescriptor
	Data []Payload
}

// Get returns the payload of particle i.
func (c *ObjectChannel) Get(i int) Payload {
	return c.Data[i]
}

// Set stores the payload of particle i.
func (c *ObjectChannel) Set(i int, p Payload) {
	c.Data[i] = p
}

package particles

import "github.com/go-gl/mathgl/mgl32"

// Payload is a heavyweight object carried by a particle, such as a model
// instance or a nested controller. Finalizers push the particle transform
// into it every frame.
type Payload interface {
	SetTransform(position mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3)
}

// Ticker is implemented by payloads that simulate on their own.
type Ticker interface {
	Update(dt float32)
}

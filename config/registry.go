package config

import (
	"github.com/pthm-cable/sparks/dynamics"
	"github.com/pthm-cable/sparks/influencers"
	"github.com/pthm-cable/sparks/particles"
)

// Type categories.
const (
	CategorySpawn      = "spawn"
	CategoryDynamics   = "dynamics"
	CategoryAppearance = "appearance"
	CategoryPayload    = "payload"
	CategoryFinalizer  = "finalizer"
	CategoryModifier   = "modifier"
	CategoryShape      = "shape"
)

// TypeInfo describes a type name usable in effect files.
type TypeInfo struct {
	Type        string // Name used by the `type` key
	Description string // What the stage does
	Category    string // Grouping (e.g., "spawn", "modifier", "shape")
	// Nested is a key decoded by the effect loader rather than the value
	// itself: a spawn shape, dynamics modifiers or payload templates.
	Nested string
	// New returns a pointer to decode the mapping into.
	New func() any
}

// stage reports whether the type is a top-level pipeline stage.
func (t TypeInfo) stage() bool {
	return t.Category != CategoryModifier && t.Category != CategoryShape
}

// Registry maps effect file type names to constructors.
type Registry struct {
	types  []TypeInfo
	byType map[string]TypeInfo
}

// NewRegistry creates a registry with all stock types.
func NewRegistry() *Registry {
	reg := &Registry{
		byType: make(map[string]TypeInfo),
	}
	reg.registerDefaults()
	return reg
}

// registerDefaults adds the stock stages, modifiers and shapes.
func (r *Registry) registerDefaults() {
	// Spawn
	r.Register(TypeInfo{Type: "spawn", Description: "Places new particles on a shape", Category: CategorySpawn, Nested: "shape", New: func() any { return &influencers.Spawn{} }})

	// Dynamics
	r.Register(TypeInfo{Type: "dynamics", Description: "Integrates position and rotation from modifiers", Category: CategoryDynamics, Nested: "modifiers", New: func() any { return &dynamics.Influencer{} }})
	r.Register(TypeInfo{Type: "initial_velocity", Description: "Gives particles a launch velocity at birth", Category: CategoryDynamics, New: func() any { return &dynamics.InitialVelocity{} }})
	r.Register(TypeInfo{Type: "face_direction", Description: "Turns particles toward their motion", Category: CategoryDynamics, New: func() any { return &dynamics.FaceDirection{} }})

	// Appearance
	r.Register(TypeInfo{Type: "color_single", Description: "Colors particles along a gradient over life", Category: CategoryAppearance, New: func() any { return influencers.NewColorSingle() }})
	r.Register(TypeInfo{Type: "color_random", Description: "Gives each particle a random color at birth", Category: CategoryAppearance, New: func() any { return &influencers.ColorRandom{} }})
	r.Register(TypeInfo{Type: "scale", Description: "Scales particles over life", Category: CategoryAppearance, New: func() any { return &influencers.Scale{} }})
	r.Register(TypeInfo{Type: "region", Description: "Assigns texture regions", Category: CategoryAppearance, New: func() any { return &influencers.Region{} }})

	// Payload
	r.Register(TypeInfo{Type: "model_instance", Description: "Gives each particle a pooled model instance", Category: CategoryPayload, New: func() any { return &influencers.ModelInstance{} }})
	r.Register(TypeInfo{Type: "particle_controller", Description: "Gives each particle a pooled nested controller", Category: CategoryPayload, Nested: "templates", New: func() any { return &influencers.ControllerPayload{} }})

	// Finalizers
	r.Register(TypeInfo{Type: "model_instance_finalizer", Description: "Moves model instances to their particles", Category: CategoryFinalizer, New: func() any { return &influencers.ModelFinalizer{} }})
	r.Register(TypeInfo{Type: "particle_controller_finalizer", Description: "Moves and updates nested controllers", Category: CategoryFinalizer, New: func() any { return &influencers.ControllerFinalizer{} }})

	// Dynamics modifiers
	r.Register(TypeInfo{Type: "rotational_2d", Description: "Spins particles in the plane", Category: CategoryModifier, New: func() any { return &dynamics.Rotational2D{} }})
	r.Register(TypeInfo{Type: "rotational_3d", Description: "Spins particles about a direction", Category: CategoryModifier, New: func() any { return &dynamics.Rotational3D{} }})
	r.Register(TypeInfo{Type: "centripetal", Description: "Pulls particles toward an axis", Category: CategoryModifier, New: func() any { return dynamics.NewCentripetal(particles.ScaledNumericValue{}) }})
	r.Register(TypeInfo{Type: "polar", Description: "Pushes particles along a direction", Category: CategoryModifier, New: func() any { return &dynamics.Polar{} }})
	r.Register(TypeInfo{Type: "tangential", Description: "Pushes particles around the controller", Category: CategoryModifier, New: func() any { return &dynamics.Tangential{} }})
	r.Register(TypeInfo{Type: "brownian", Description: "Pushes particles in a random direction each frame", Category: CategoryModifier, New: func() any { return &dynamics.Brownian{} }})
	r.Register(TypeInfo{Type: "turbulence", Description: "Pushes particles through a noise field", Category: CategoryModifier, New: func() any { return &dynamics.Turbulence{} }})

	// Spawn shapes
	r.Register(TypeInfo{Type: "point", Description: "Spawns at the origin", Category: CategoryShape, New: func() any { return &influencers.Point{} }})
	r.Register(TypeInfo{Type: "line", Description: "Spawns along a segment", Category: CategoryShape, New: func() any { return &influencers.Line{} }})
	r.Register(TypeInfo{Type: "rectangle", Description: "Spawns in a box or on its faces", Category: CategoryShape, New: func() any { return &influencers.Rectangle{} }})
	r.Register(TypeInfo{Type: "ellipse", Description: "Spawns in an ellipsoid or on its surface", Category: CategoryShape, New: func() any { return &influencers.Ellipse{} }})
	r.Register(TypeInfo{Type: "cylinder", Description: "Spawns in a cylinder or on its side", Category: CategoryShape, New: func() any { return &influencers.Cylinder{} }})
	r.Register(TypeInfo{Type: "mesh", Description: "Spawns on the triangles of a mesh asset", Category: CategoryShape, New: func() any { return &influencers.Mesh{} }})
}

// Register adds a type to the registry, replacing one of the same name.
func (r *Registry) Register(info TypeInfo) {
	if _, ok := r.byType[info.Type]; !ok {
		r.types = append(r.types, info)
	} else {
		for i := range r.types {
			if r.types[i].Type == info.Type {
				r.types[i] = info
			}
		}
	}
	r.byType[info.Type] = info
}

// Get returns type info by name.
func (r *Registry) Get(typ string) (TypeInfo, bool) {
	info, ok := r.byType[typ]
	return info, ok
}

// All returns all registered types.
func (r *Registry) All() []TypeInfo {
	return r.types
}

// ByCategory returns types filtered by category.
func (r *Registry) ByCategory(category string) []TypeInfo {
	var result []TypeInfo
	for _, info := range r.types {
		if info.Category == category {
			result = append(result, info)
		}
	}
	return result
}

// Categories returns all unique categories.
func (r *Registry) Categories() []string {
	seen := make(map[string]bool)
	var cats []string
	for _, info := range r.types {
		if !seen[info.Category] {
			seen[info.Category] = true
			cats = append(cats, info.Category)
		}
	}
	return cats
}

// Types returns all type names in registration order.
func (r *Registry) Types() []string {
	names := make([]string, len(r.types))
	for i, info := range r.types {
		names[i] = info.Type
	}
	return names
}

package influencers

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/sparks/assets"
	"github.com/pthm-cable/sparks/particles"
)

// Shape produces local spawn positions. Start draws the per-cycle
// dimensions; Sample evaluates them at the emitter's percent.
type Shape interface {
	Kind() string
	Validate() error
	Start(rng *rand.Rand)
	Sample(rng *rand.Rand, percent float32) mgl32.Vec3
	Copy() Shape
}

// Dimensions are the width, height and depth of a shape along X, Y and Z.
type Dimensions struct {
	Width  particles.ScaledNumericValue `yaml:"width"`
	Height particles.ScaledNumericValue `yaml:"height"`
	Depth  particles.ScaledNumericValue `yaml:"depth"`

	width, widthDiff   float32
	height, heightDiff float32
	depth, depthDiff   float32
}

func (d *Dimensions) Validate() error {
	for name, v := range map[string]*particles.ScaledNumericValue{"width": &d.Width, "height": &d.Height, "depth": &d.Depth} {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func (d *Dimensions) Start(rng *rand.Rand) {
	d.width, d.widthDiff = d.Width.Draw(rng)
	d.height, d.heightDiff = d.Height.Draw(rng)
	d.depth, d.depthDiff = d.Depth.Draw(rng)
}

// Size evaluates the dimensions at percent.
func (d *Dimensions) Size(percent float32) mgl32.Vec3 {
	return mgl32.Vec3{
		d.Width.Value(d.width, d.widthDiff, percent),
		d.Height.Value(d.height, d.heightDiff, percent),
		d.Depth.Value(d.depth, d.depthDiff, percent),
	}
}

func (d Dimensions) clone() Dimensions {
	return Dimensions{Width: d.Width.Clone(), Height: d.Height.Clone(), Depth: d.Depth.Clone()}
}

// NewDimensions returns constant dimensions.
func NewDimensions(width, height, depth float32) Dimensions {
	return Dimensions{
		Width:  particles.Constant(width),
		Height: particles.Constant(height),
		Depth:  particles.Constant(depth),
	}
}

// Side restricts ellipse sampling to a hemisphere.
type Side string

const (
	SideBoth   Side = "both"
	SideTop    Side = "top"
	SideBottom Side = "bottom"
)

// Point spawns every particle at the origin.
type Point struct{}

func (Point) Kind() string                          { return "point" }
func (Point) Validate() error                       { return nil }
func (Point) Start(*rand.Rand)                      {}
func (Point) Sample(*rand.Rand, float32) mgl32.Vec3 { return mgl32.Vec3{} }
func (Point) Copy() Shape                           { return Point{} }

// Line spawns along the segment from the origin to (width, height, depth).
type Line struct {
	Dimensions `yaml:",inline"`
}

func (l *Line) Kind() string { return "line" }

func (l *Line) Sample(rng *rand.Rand, percent float32) mgl32.Vec3 {
	return l.Size(percent).Mul(rng.Float32())
}

func (l *Line) Copy() Shape { return &Line{Dimensions: l.clone()} }

// Rectangle spawns inside a box centred on the origin, or on its faces
// when Edges is set.
type Rectangle struct {
	Dimensions `yaml:",inline"`
	Edges      bool `yaml:"edges"`
}

func (r *Rectangle) Kind() string { return "rectangle" }

func (r *Rectangle) Sample(rng *rand.Rand, percent float32) mgl32.Vec3 {
	size := r.Size(percent)
	p := mgl32.Vec3{
		(rng.Float32() - 0.5) * size[0],
		(rng.Float32() - 0.5) * size[1],
		(rng.Float32() - 0.5) * size[2],
	}
	if r.Edges {
		axis := rng.Intn(3)
		half := size[axis] / 2
		if rng.Intn(2) == 0 {
			half = -half
		}
		p[axis] = half
	}
	return p
}

func (r *Rectangle) Copy() Shape { return &Rectangle{Dimensions: r.clone(), Edges: r.Edges} }

// Ellipse spawns inside an ellipsoid with the given diameters, or on its
// surface when Edges is set.
type Ellipse struct {
	Dimensions `yaml:",inline"`
	Edges      bool `yaml:"edges"`
	Side       Side `yaml:"side"`
}

func (e *Ellipse) Kind() string { return "ellipse" }

func (e *Ellipse) Validate() error {
	switch e.Side {
	case "", SideBoth, SideTop, SideBottom:
	default:
		return fmt.Errorf("unknown ellipse side %q", e.Side)
	}
	return e.Dimensions.Validate()
}

func (e *Ellipse) Sample(rng *rand.Rand, percent float32) mgl32.Vec3 {
	half := e.Size(percent).Mul(0.5)
	y := 2*rng.Float32() - 1
	switch e.Side {
	case SideTop:
		y = float32(math.Abs(float64(y)))
	case SideBottom:
		y = -float32(math.Abs(float64(y)))
	}
	t := rng.Float32() * 2 * math.Pi
	r := float32(math.Sqrt(float64(1 - y*y)))
	s, c := math.Sincos(float64(t))
	dir := mgl32.Vec3{r * float32(c), y, r * float32(s)}
	if !e.Edges {
		dir = dir.Mul(float32(math.Cbrt(float64(rng.Float32()))))
	}
	return mgl32.Vec3{dir[0] * half[0], dir[1] * half[1], dir[2] * half[2]}
}

func (e *Ellipse) Copy() Shape {
	return &Ellipse{Dimensions: e.clone(), Edges: e.Edges, Side: e.Side}
}

// Cylinder spawns inside a Y aligned cylinder centred on the origin, or on
// its side when Edges is set. Width and depth are diameters.
type Cylinder struct {
	Dimensions `yaml:",inline"`
	Edges      bool `yaml:"edges"`
}

func (c *Cylinder) Kind() string { return "cylinder" }

func (c *Cylinder) Sample(rng *rand.Rand, percent float32) mgl32.Vec3 {
	size := c.Size(percent)
	t := rng.Float32() * 2 * math.Pi
	r := float32(1)
	if !c.Edges {
		r = float32(math.Sqrt(float64(rng.Float32())))
	}
	s, co := math.Sincos(float64(t))
	return mgl32.Vec3{
		float32(co) * r * size[0] / 2,
		(rng.Float32() - 0.5) * size[1],
		float32(s) * r * size[2] / 2,
	}
}

func (c *Cylinder) Copy() Shape { return &Cylinder{Dimensions: c.clone(), Edges: c.Edges} }

// Mesh spawns on the triangles of a mesh asset, uniformly per triangle or
// weighted by triangle area.
type Mesh struct {
	Ref      assets.Ref `yaml:"mesh"`
	Weighted bool       `yaml:"weighted"`

	mesh *assets.Mesh
	cdf  []float32
}

func (m *Mesh) Kind() string { return "mesh" }

func (m *Mesh) Validate() error {
	if m.mesh == nil {
		return fmt.Errorf("mesh %s: %w", m.Ref, assets.ErrMissingAsset)
	}
	if m.mesh.Triangles() == 0 {
		return fmt.Errorf("mesh %s has no triangles", m.Ref)
	}
	return nil
}

func (m *Mesh) Start(*rand.Rand) {}

// SetMesh installs the resolved mesh.
func (m *Mesh) SetMesh(mesh *assets.Mesh) {
	m.mesh = mesh
	m.cdf = m.cdf[:0]
	var total float32
	for t := 0; t < mesh.Triangles(); t++ {
		total += mesh.Area(t)
		m.cdf = append(m.cdf, total)
	}
}

func (m *Mesh) Sample(rng *rand.Rand, _ float32) mgl32.Vec3 {
	n := m.mesh.Triangles()
	t := rng.Intn(n)
	if m.Weighted && n > 0 && m.cdf[n-1] > 0 {
		x := rng.Float32() * m.cdf[n-1]
		t = 0
		for t < n-1 && m.cdf[t] < x {
			t++
		}
	}
	return m.mesh.Point(t, rng.Float32(), rng.Float32())
}

func (m *Mesh) AssetRefs() []assets.Ref {
	if m.Ref.Type == "" {
		m.Ref.Type = assets.TypeMesh
	}
	return []assets.Ref{m.Ref}
}

func (m *Mesh) SetAssets(handles []any) error {
	mesh, err := assets.As[*assets.Mesh](m.Ref, handles[0])
	if err != nil {
		return err
	}
	m.SetMesh(mesh)
	return nil
}

func (m *Mesh) Copy() Shape {
	out := &Mesh{Ref: m.Ref, Weighted: m.Weighted}
	if m.mesh != nil {
		out.SetMesh(m.mesh)
	}
	return out
}

package assets

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Mesh is an indexed triangle list.
type Mesh struct {
	Name     string
	Vertices []mgl32.Vec3
	Indices  []uint32
}

// Triangles returns the number of triangles.
func (m *Mesh) Triangles() int {
	if len(m.Indices) > 0 {
		return len(m.Indices) / 3
	}
	return len(m.Vertices) / 3
}

// Triangle returns the corners of triangle t.
func (m *Mesh) Triangle(t int) (a, b, c mgl32.Vec3) {
	if len(m.Indices) > 0 {
		i := m.Indices[t*3 : t*3+3]
		return m.Vertices[i[0]], m.Vertices[i[1]], m.Vertices[i[2]]
	}
	return m.Vertices[t*3], m.Vertices[t*3+1], m.Vertices[t*3+2]
}

// Area returns the area of triangle t.
func (m *Mesh) Area(t int) float32 {
	a, b, c := m.Triangle(t)
	return b.Sub(a).Cross(c.Sub(a)).Len() / 2
}

// Point maps two uniform samples in [0, 1) to a uniformly distributed
// point on triangle t.
func (m *Mesh) Point(t int, r1, r2 float32) mgl32.Vec3 {
	a, b, c := m.Triangle(t)
	s := float32(math.Sqrt(float64(r1)))
	u, v := 1-s, s*(1-r2)
	return a.Mul(u).Add(b.Mul(v)).Add(c.Mul(1 - u - v))
}

// Quad returns a unit square in the XY plane centred on the origin.
func Quad(name string) *Mesh {
	return &Mesh{
		Name: name,
		Vertices: []mgl32.Vec3{
			{-0.5, -0.5, 0}, {0.5, -0.5, 0}, {0.5, 0.5, 0}, {-0.5, 0.5, 0},
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
}

// Model is a renderable shape shared by many instances.
type Model struct {
	Name string
	Mesh *Mesh
}

// NewInstance returns an instance at the identity transform.
func (m *Model) NewInstance() *ModelInstance {
	return &ModelInstance{Model: m, Transform: mgl32.Ident4()}
}

// ModelInstance places a model in the world. Particles carry instances as
// payloads.
type ModelInstance struct {
	Model     *Model
	Transform mgl32.Mat4
}

// SetTransform composes translation, rotation and scale.
func (mi *ModelInstance) SetTransform(position mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) {
	mi.Transform = mgl32.Translate3D(position[0], position[1], position[2]).
		Mul4(rotation.Mat4()).
		Mul4(mgl32.Scale3D(scale[0], scale[1], scale[2]))
}

// Position returns the translation part of the transform.
func (mi *ModelInstance) Position() mgl32.Vec3 {
	return mi.Transform.Col(3).Vec3()
}

// Region is a rectangle of a texture in normalized coordinates.
type Region struct {
	U, V, U2, V2  float32
	Width, Height int // pixels
}

// Aspect returns height over width, 1 for empty regions.
func (r Region) Aspect() float32 {
	if r.Width == 0 {
		return 1
	}
	return float32(r.Height) / float32(r.Width)
}

// Texture is an image split into regions.
type Texture struct {
	Name          string
	Width, Height int
	Regions       []Region
}

// NewTexture returns a texture whose single region covers it all.
func NewTexture(name string, width, height int) *Texture {
	return &Texture{
		Name:    name,
		Width:   width,
		Height:  height,
		Regions: []Region{{U: 0, V: 0, U2: 1, V2: 1, Width: width, Height: height}},
	}
}

// Split replaces the regions with a cols x rows grid in row-major order.
func (t *Texture) Split(cols, rows int) {
	if cols < 1 || rows < 1 {
		return
	}
	w, h := t.Width/cols, t.Height/rows
	t.Regions = t.Regions[:0]
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			t.Regions = append(t.Regions, Region{
				U:      float32(x) / float32(cols),
				V:      float32(y) / float32(rows),
				U2:     float32(x+1) / float32(cols),
				V2:     float32(y+1) / float32(rows),
				Width:  w,
				Height: h,
			})
		}
	}
}

// HeadlessProvider synthesizes placeholder assets for any ref, so effects
// can be simulated without an asset pipeline. Textures are square and
// split into a Grid x Grid sheet.
type HeadlessProvider struct {
	TextureSize int
	Grid        int
}

// Resolve implements Provider.
func (p HeadlessProvider) Resolve(ref Ref) (any, error) {
	switch ref.Type {
	case TypeModel:
		return &Model{Name: ref.Key, Mesh: Quad(ref.Key)}, nil
	case TypeMesh:
		return Quad(ref.Key), nil
	case TypeTexture:
		size := p.TextureSize
		if size <= 0 {
			size = 256
		}
		t := NewTexture(ref.Key, size, size)
		if p.Grid > 1 {
			t.Split(p.Grid, p.Grid)
		}
		return t, nil
	}
	return nil, ErrMissingAsset
}

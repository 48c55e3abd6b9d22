package particles

import (
	"fmt"
	"math/rand"
)

// Range is a closed [Min, Max] interval sampled uniformly.
//
// In YAML it may be written as a scalar (Min == Max), a two element
// sequence or a {min, max} mapping.
type Range struct {
	Min float32 `yaml:"min"`
	Max float32 `yaml:"max"`
}

// Fixed returns the degenerate range [v, v].
func Fixed(v float32) Range {
	return Range{Min: v, Max: v}
}

// Draw samples the range.
func (r Range) Draw(rng *rand.Rand) float32 {
	if r.Min == r.Max {
		return r.Min
	}
	return r.Min + (r.Max-r.Min)*rng.Float32()
}

// UnmarshalYAML accepts `5`, `[1, 2]` and `{min: 1, max: 2}`.
func (r *Range) UnmarshalYAML(unmarshal func(any) error) error {
	short, ok, err := shortRange(unmarshal)
	if err != nil {
		return err
	}
	if ok {
		*r = short
		return nil
	}
	type plain Range
	var p plain
	if err := unmarshal(&p); err != nil {
		return err
	}
	*r = Range(p)
	return nil
}

// shortRange decodes the scalar and sequence forms of a Range. ok is false
// when the node is neither.
func shortRange(unmarshal func(any) error) (r Range, ok bool, err error) {
	var scalar float32
	if err := unmarshal(&scalar); err == nil {
		return Fixed(scalar), true, nil
	}
	var seq []float32
	if err := unmarshal(&seq); err != nil {
		return Range{}, false, nil
	}
	switch len(seq) {
	case 1:
		return Fixed(seq[0]), true, nil
	case 2:
		return Range{Min: seq[0], Max: seq[1]}, true, nil
	}
	return Range{}, true, fmt.Errorf("range wants 1 or 2 values, got %d", len(seq))
}

// RangedNumericValue is a single randomized value. Active gates optional
// values such as emitter delay or spawn offsets.
type RangedNumericValue struct {
	Active bool  `yaml:"active"`
	Low    Range `yaml:"low"`
}

// UnmarshalYAML accepts a bare range as shorthand for an active value.
// A mapping without an active key is active.
func (v *RangedNumericValue) UnmarshalYAML(unmarshal func(any) error) error {
	r, ok, err := shortRange(unmarshal)
	if err != nil {
		return err
	}
	if ok {
		*v = RangedNumericValue{Active: true, Low: r}
		return nil
	}
	type plain RangedNumericValue
	p := plain{Active: true}
	if err := unmarshal(&p); err != nil {
		return err
	}
	*v = RangedNumericValue(p)
	return nil
}

// NewLow samples the low range.
func (v *RangedNumericValue) NewLow(rng *rand.Rand) float32 {
	return v.Low.Draw(rng)
}

// ScaledNumericValue interpolates from a value drawn in Low toward a value
// drawn in High along a timeline curve.
//
// When Relative is false High is an absolute target and the per particle
// difference is high-low; when true High already is the difference.
// Timeline holds ascending life percents and Scaling the curve value at
// each of them. An empty timeline is the constant curve 1.
type ScaledNumericValue struct {
	RangedNumericValue `yaml:",inline"`
	High               Range     `yaml:"high"`
	Relative           bool      `yaml:"relative"`
	Timeline           []float32 `yaml:"timeline"`
	Scaling            []float32 `yaml:"scaling"`
}

// Constant returns an active value fixed at v for the whole life.
func Constant(v float32) ScaledNumericValue {
	return ScaledNumericValue{
		RangedNumericValue: RangedNumericValue{Active: true, Low: Fixed(v)},
		High:               Fixed(0),
		Relative:           true,
	}
}

// Linear returns an active value going from low to high along the
// identity curve.
func Linear(low, high Range, relative bool) ScaledNumericValue {
	return ScaledNumericValue{
		RangedNumericValue: RangedNumericValue{Active: true, Low: low},
		High:               high,
		Relative:           relative,
		Timeline:           []float32{0, 1},
		Scaling:            []float32{0, 1},
	}
}

// UnmarshalYAML accepts a scalar as shorthand for Constant. A mapping
// without an active key is active.
func (v *ScaledNumericValue) UnmarshalYAML(unmarshal func(any) error) error {
	var scalar float32
	if err := unmarshal(&scalar); err == nil {
		*v = Constant(scalar)
		return nil
	}
	// Spelled out: a defined type over ScaledNumericValue would pick up the
	// embedded value's UnmarshalYAML.
	var p struct {
		Active   *bool     `yaml:"active"`
		Low      Range     `yaml:"low"`
		High     Range     `yaml:"high"`
		Relative bool      `yaml:"relative"`
		Timeline []float32 `yaml:"timeline"`
		Scaling  []float32 `yaml:"scaling"`
	}
	if err := unmarshal(&p); err != nil {
		return err
	}
	*v = ScaledNumericValue{
		RangedNumericValue: RangedNumericValue{Active: p.Active == nil || *p.Active, Low: p.Low},
		High:               p.High,
		Relative:           p.Relative,
		Timeline:           p.Timeline,
		Scaling:            p.Scaling,
	}
	return nil
}

// NewHigh samples the high range.
func (v *ScaledNumericValue) NewHigh(rng *rand.Rand) float32 {
	return v.High.Draw(rng)
}

// Draw samples the start and difference for one particle.
func (v *ScaledNumericValue) Draw(rng *rand.Rand) (start, diff float32) {
	start = v.NewLow(rng)
	diff = v.NewHigh(rng)
	if !v.Relative {
		diff -= start
	}
	return start, diff
}

// Value evaluates start + diff*Scale(percent).
func (v *ScaledNumericValue) Value(start, diff, percent float32) float32 {
	return start + diff*v.Scale(percent)
}

// Scale evaluates the timeline curve at percent by piecewise linear
// interpolation. Percents past the last key hold the last value.
func (v *ScaledNumericValue) Scale(percent float32) float32 {
	n := len(v.Timeline)
	if n == 0 || len(v.Scaling) < n {
		return 1
	}
	end := -1
	for i := 1; i < n; i++ {
		if v.Timeline[i] > percent {
			end = i
			break
		}
	}
	if end == -1 {
		return v.Scaling[n-1]
	}
	start := end - 1
	startValue := v.Scaling[start]
	startTime := v.Timeline[start]
	span := v.Timeline[end] - startTime
	if span <= 0 {
		return v.Scaling[end]
	}
	return startValue + (v.Scaling[end]-startValue)*((percent-startTime)/span)
}

// Validate reports malformed curves.
func (v *ScaledNumericValue) Validate() error {
	if len(v.Timeline) != len(v.Scaling) {
		return fmt.Errorf("timeline has %d keys but scaling has %d", len(v.Timeline), len(v.Scaling))
	}
	return nil
}

// Clone returns a copy that shares no slices with v.
func (v ScaledNumericValue) Clone() ScaledNumericValue {
	v.Timeline = append([]float32(nil), v.Timeline...)
	v.Scaling = append([]float32(nil), v.Scaling...)
	return v
}

// GradientColorValue is an RGB gradient over life percent. Colors holds
// three values per Timeline key.
type GradientColorValue struct {
	Colors   []float32 `yaml:"colors"`
	Timeline []float32 `yaml:"timeline"`
}

// White is the single-key white gradient.
func White() GradientColorValue {
	return GradientColorValue{Colors: []float32{1, 1, 1}, Timeline: []float32{0}}
}

// Color evaluates the gradient at percent.
func (g *GradientColorValue) Color(percent float32) (r, gr, b float32) {
	n := len(g.Timeline)
	if n == 0 || len(g.Colors) < 3*n {
		return 1, 1, 1
	}
	start, end := 0, -1
	for i := 1; i < n; i++ {
		if g.Timeline[i] > percent {
			end = i
			break
		}
		start = i
	}
	startTime := g.Timeline[start]
	r1, g1, b1 := g.Colors[start*3], g.Colors[start*3+1], g.Colors[start*3+2]
	if end == -1 {
		return r1, g1, b1
	}
	span := g.Timeline[end] - startTime
	if span <= 0 {
		return r1, g1, b1
	}
	f := (percent - startTime) / span
	return r1 + (g.Colors[end*3]-r1)*f,
		g1 + (g.Colors[end*3+1]-g1)*f,
		b1 + (g.Colors[end*3+2]-b1)*f
}

// Validate reports malformed gradients.
func (g *GradientColorValue) Validate() error {
	if len(g.Colors) != 3*len(g.Timeline) {
		return fmt.Errorf("gradient has %d timeline keys but %d color values", len(g.Timeline), len(g.Colors))
	}
	return nil
}

// Clone returns a copy that shares no slices with g.
func (g GradientColorValue) Clone() GradientColorValue {
	g.Colors = append([]float32(nil), g.Colors...)
	g.Timeline = append([]float32(nil), g.Timeline...)
	return g
}

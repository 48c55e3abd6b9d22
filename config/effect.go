package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/sparks/assets"
	"github.com/pthm-cable/sparks/dynamics"
	"github.com/pthm-cable/sparks/effects"
	"github.com/pthm-cable/sparks/influencers"
	"github.com/pthm-cable/sparks/particles"
)

//go:embed default_effect.yaml
var defaultEffectYAML []byte

// ErrUnknownType reports a `type` the registry does not know.
var ErrUnknownType = errors.New("config: unknown type")

// EffectFile is the YAML form of an effect.
type EffectFile struct {
	Name string `yaml:"name"`
	// Assets is a saved manifest. When present it must list the refs of
	// the effect's stages in pipeline order.
	Assets      []assets.Ref     `yaml:"assets,omitempty"`
	Controllers []ControllerFile `yaml:"controllers"`
}

// ControllerFile is the YAML form of one controller. Emitter and stage
// mappings are decoded through the registry.
type ControllerFile struct {
	Name        string      `yaml:"name"`
	Seed        int64       `yaml:"seed"`
	Position    mgl32.Vec3  `yaml:"position"`
	Emitter     yaml.Node   `yaml:"emitter"`
	Influencers []yaml.Node `yaml:"influencers"`
}

// DefaultEffect returns the embedded default effect definition.
func DefaultEffect() []byte { return defaultEffectYAML }

// LoadEffect reads an effect file, or the embedded default if path is
// empty, builds it and resolves its assets through provider.
func LoadEffect(path string, reg *Registry, provider assets.Provider) (*effects.Effect, error) {
	data := defaultEffectYAML
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading effect file: %w", err)
		}
	}
	return ParseEffect(data, reg, provider)
}

// ParseEffect decodes and builds an effect. Unknown fields are errors.
func ParseEffect(data []byte, reg *Registry, provider assets.Provider) (*effects.Effect, error) {
	var file EffectFile
	if err := decodeStrict(data, &file); err != nil {
		return nil, fmt.Errorf("parsing effect: %w", err)
	}
	return BuildEffect(&file, reg, provider)
}

// BuildEffect turns a decoded file into an uninitialized effect with its
// assets resolved.
func BuildEffect(file *EffectFile, reg *Registry, provider assets.Provider) (*effects.Effect, error) {
	if len(file.Controllers) == 0 {
		return nil, fmt.Errorf("effect %q has no controllers", file.Name)
	}
	b := builder{reg: reg}
	controllers := make([]*particles.Controller, 0, len(file.Controllers))
	for i := range file.Controllers {
		c, err := b.controller(&file.Controllers[i])
		if err != nil {
			return nil, fmt.Errorf("effect %q: %w", file.Name, err)
		}
		controllers = append(controllers, c)
	}

	e := effects.New(file.Name, controllers...)
	refs := e.Referencers()
	manifest := assets.Manifest{Refs: file.Assets}
	if len(manifest.Refs) == 0 {
		manifest = assets.Save(refs...)
	}
	if err := manifest.Load(provider, refs...); err != nil {
		return nil, fmt.Errorf("effect %q: loading assets: %w", file.Name, err)
	}
	return e, nil
}

// WriteManifest writes the asset manifest of e to a YAML file.
func WriteManifest(path string, e *effects.Effect) error {
	data, err := yaml.Marshal(assets.Save(e.Referencers()...))
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

type builder struct {
	reg *Registry
}

func (b *builder) controller(cf *ControllerFile) (*particles.Controller, error) {
	emitter := particles.NewRegularEmitter(0)
	if err := decodeNode(&cf.Emitter, emitter); err != nil {
		return nil, fmt.Errorf("controller %q: emitter: %w", cf.Name, err)
	}

	stages := make([]particles.Influencer, 0, len(cf.Influencers))
	for i := range cf.Influencers {
		inf, err := b.stage(&cf.Influencers[i])
		if err != nil {
			return nil, fmt.Errorf("controller %q: influencer %d: %w", cf.Name, i, err)
		}
		stages = append(stages, inf)
	}

	c := particles.NewController(cf.Name, emitter, stages...)
	if cf.Seed != 0 {
		c.SetSeed(cf.Seed)
	}
	c.Translate(cf.Position)
	return c, nil
}

func (b *builder) stage(node *yaml.Node) (particles.Influencer, error) {
	info, v, nested, err := b.decodeTyped(node)
	if err != nil {
		return nil, err
	}
	if !info.stage() {
		return nil, fmt.Errorf("line %d: %q is a %s, not a pipeline stage", node.Line, info.Type, info.Category)
	}

	if nested != nil {
		switch inf := v.(type) {
		case *influencers.Spawn:
			shape, err := b.shape(nested)
			if err != nil {
				return nil, fmt.Errorf("%s: shape: %w", info.Type, err)
			}
			inf.Shape = shape
		case *dynamics.Influencer:
			for i, m := range sequence(nested) {
				mod, err := b.modifier(m)
				if err != nil {
					return nil, fmt.Errorf("%s: modifier %d: %w", info.Type, i, err)
				}
				inf.Modifiers = append(inf.Modifiers, mod)
			}
		case *influencers.ControllerPayload:
			for i, t := range sequence(nested) {
				var cf ControllerFile
				if err := decodeNode(t, &cf); err != nil {
					return nil, fmt.Errorf("%s: template %d: %w", info.Type, i, err)
				}
				c, err := b.controller(&cf)
				if err != nil {
					return nil, fmt.Errorf("%s: template %d: %w", info.Type, i, err)
				}
				inf.Templates = append(inf.Templates, c)
			}
		}
	}

	inf, ok := v.(particles.Influencer)
	if !ok {
		return nil, fmt.Errorf("%s: %T is not an influencer", info.Type, v)
	}
	return inf, nil
}

func (b *builder) modifier(node *yaml.Node) (dynamics.Modifier, error) {
	info, v, _, err := b.decodeTyped(node)
	if err != nil {
		return nil, err
	}
	m, ok := v.(dynamics.Modifier)
	if info.Category != CategoryModifier || !ok {
		return nil, fmt.Errorf("line %d: %q is not a dynamics modifier", node.Line, info.Type)
	}
	return m, nil
}

func (b *builder) shape(node *yaml.Node) (influencers.Shape, error) {
	info, v, _, err := b.decodeTyped(node)
	if err != nil {
		return nil, err
	}
	s, ok := v.(influencers.Shape)
	if info.Category != CategoryShape || !ok {
		return nil, fmt.Errorf("line %d: %q is not a spawn shape", node.Line, info.Type)
	}
	return s, nil
}

// decodeTyped looks up the `type` key of a mapping and decodes the rest of
// the mapping into a new value of that type. The nested key of the type,
// if any, is returned undecoded.
func (b *builder) decodeTyped(node *yaml.Node) (TypeInfo, any, *yaml.Node, error) {
	if node.Kind != yaml.MappingNode {
		return TypeInfo{}, nil, nil, fmt.Errorf("line %d: expected a mapping with a type key", node.Line)
	}
	typ, ok := lookup(node, "type")
	if !ok {
		return TypeInfo{}, nil, nil, fmt.Errorf("line %d: missing type key", node.Line)
	}
	info, ok := b.reg.Get(typ.Value)
	if !ok {
		return TypeInfo{}, nil, nil, fmt.Errorf("line %d: %q: %w", typ.Line, typ.Value, ErrUnknownType)
	}

	rest, nested := without(node, "type", info.Nested)
	v := info.New()
	if err := decodeNode(rest, v); err != nil {
		return TypeInfo{}, nil, nil, fmt.Errorf("%s: %w", info.Type, err)
	}
	return info, v, nested, nil
}

// lookup returns the value of key in a mapping node.
func lookup(node *yaml.Node, key string) (*yaml.Node, bool) {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1], true
		}
	}
	return nil, false
}

// without returns a copy of a mapping node minus the type key and the
// nested key, along with the nested key's value.
func without(node *yaml.Node, typeKey, nestedKey string) (*yaml.Node, *yaml.Node) {
	rest := *node
	rest.Content = nil
	var nested *yaml.Node
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		switch {
		case k.Value == typeKey:
		case nestedKey != "" && k.Value == nestedKey:
			nested = v
		default:
			rest.Content = append(rest.Content, k, v)
		}
	}
	return &rest, nested
}

// sequence returns the items of a sequence node, or the node itself.
func sequence(node *yaml.Node) []*yaml.Node {
	if node.Kind == yaml.SequenceNode {
		return node.Content
	}
	return []*yaml.Node{node}
}

// decodeNode decodes node into out, rejecting unknown fields. An empty
// node leaves out untouched.
func decodeNode(node *yaml.Node, out any) error {
	if node.Kind == 0 || (node.Kind == yaml.MappingNode && len(node.Content) == 0) {
		return nil
	}
	data, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	return decodeStrict(data, out)
}

func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

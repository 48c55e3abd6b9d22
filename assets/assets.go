// Package assets is the contract between effects and the host's asset
// system. Effects name what they need with Refs; a Provider turns refs into
// loaded handles.
package assets

import (
	"errors"
	"fmt"
)

// ErrMissingAsset reports a reference the provider could not resolve.
var ErrMissingAsset = errors.New("assets: missing asset")

// Type is the kind of an asset.
type Type string

const (
	TypeModel   Type = "model"
	TypeMesh    Type = "mesh"
	TypeTexture Type = "texture"
)

// Ref names an asset.
type Ref struct {
	Key  string `yaml:"key"`
	Type Type   `yaml:"type"`
}

func (r Ref) String() string {
	return string(r.Type) + ":" + r.Key
}

// Provider resolves refs to loaded handles: *Model, *Mesh or *Texture.
type Provider interface {
	Resolve(ref Ref) (any, error)
}

// Referencer is implemented by influencers that depend on assets. Refs
// reports what is needed; SetAssets receives the resolved handles in the
// same order.
type Referencer interface {
	AssetRefs() []Ref
	SetAssets(handles []any) error
}

// MapProvider resolves refs from a fixed table.
type MapProvider map[Ref]any

// Resolve implements Provider.
func (m MapProvider) Resolve(ref Ref) (any, error) {
	h, ok := m[ref]
	if !ok || h == nil {
		return nil, fmt.Errorf("%s: %w", ref, ErrMissingAsset)
	}
	return h, nil
}

// Manifest lists the assets of an effect in save order.
type Manifest struct {
	Refs []Ref `yaml:"assets"`
}

// Save collects the refs of every referencer in order.
func Save(items ...Referencer) Manifest {
	var m Manifest
	for _, it := range items {
		m.Refs = append(m.Refs, it.AssetRefs()...)
	}
	return m
}

// Load resolves the manifest through p and hands each referencer its
// handles, consuming the manifest in the order Save produced it.
func (m Manifest) Load(p Provider, items ...Referencer) error {
	next := 0
	for _, it := range items {
		n := len(it.AssetRefs())
		if n == 0 {
			continue
		}
		if next+n > len(m.Refs) {
			return fmt.Errorf("manifest has %d assets, referencers need more", len(m.Refs))
		}
		handles := make([]any, n)
		for k, ref := range m.Refs[next : next+n] {
			h, err := p.Resolve(ref)
			if err != nil {
				return fmt.Errorf("resolving %s: %w", ref, err)
			}
			if h == nil {
				return fmt.Errorf("resolving %s: %w", ref, ErrMissingAsset)
			}
			handles[k] = h
		}
		if err := it.SetAssets(handles); err != nil {
			return err
		}
		next += n
	}
	if next != len(m.Refs) {
		return fmt.Errorf("manifest has %d assets, referencers used %d", len(m.Refs), next)
	}
	return nil
}

// Resolve loads items straight from p without a saved manifest.
func Resolve(p Provider, items ...Referencer) error {
	return Save(items...).Load(p, items...)
}

// As converts a resolved handle to the expected type.
func As[T any](ref Ref, h any) (T, error) {
	v, ok := h.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s resolved to %T, want %T", ref, h, zero)
	}
	return v, nil
}

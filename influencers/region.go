package influencers

import (
	"fmt"

	"github.com/pthm-cable/sparks/assets"
	"github.com/pthm-cable/sparks/particles"
)

// RegionMode selects how a region influencer picks texture regions.
type RegionMode string

const (
	// RegionSingle uses the first region for every particle.
	RegionSingle RegionMode = "single"
	// RegionRandom picks one region per particle at birth.
	RegionRandom RegionMode = "random"
	// RegionAnimated steps through the regions over each particle's life.
	RegionAnimated RegionMode = "animated"
)

// Region writes texture coordinates and half extents of a texture region
// into the texture region channel. Without a texture the whole [0, 1]
// square is used.
type Region struct {
	particles.Base `yaml:"-"`

	Mode    RegionMode `yaml:"mode"`
	Texture assets.Ref `yaml:"texture"`

	regions []assets.Region
	channel *particles.Channel
	life    *particles.Channel
}

// NewRegion returns a region influencer over regions.
func NewRegion(mode RegionMode, regions ...assets.Region) *Region {
	return &Region{Mode: mode, regions: regions}
}

func (r *Region) Name() string { return "region_" + string(r.mode()) }

func (r *Region) mode() RegionMode {
	if r.Mode == "" {
		return RegionSingle
	}
	return r.Mode
}

func (r *Region) Allocate(c *particles.Controller) error {
	if err := r.Bind(c); err != nil {
		return err
	}
	switch r.mode() {
	case RegionSingle, RegionRandom, RegionAnimated:
	default:
		return fmt.Errorf("unknown region mode %q", r.Mode)
	}
	if len(r.regions) == 0 {
		if r.Texture.Key != "" {
			return fmt.Errorf("texture %s: %w", r.Texture, assets.ErrMissingAsset)
		}
		r.regions = []assets.Region{{U2: 1, V2: 1}}
	}
	r.channel = c.AddChannel(particles.TextureRegion)
	return nil
}

func (r *Region) Init(c *particles.Controller) error {
	if r.mode() != RegionAnimated {
		return nil
	}
	life, err := c.Require(particles.Life)
	r.life = life
	return err
}

func (r *Region) Activate(start, count int) {
	rng := r.Controller.Rand()
	for i := start; i < start+count; i++ {
		k := 0
		switch r.mode() {
		case RegionRandom:
			k = rng.Intn(len(r.regions))
		case RegionAnimated:
			k = AnimatedIndex(particles.LifePercentAt(r.life, i), len(r.regions))
		}
		r.write(i, r.regions[k])
	}
}

func (r *Region) Update(f *particles.Frame) {
	if r.mode() != RegionAnimated {
		return
	}
	for i := 0; i < f.Count; i++ {
		r.write(i, r.regions[AnimatedIndex(particles.LifePercentAt(r.life, i), len(r.regions))])
	}
}

// AnimatedIndex maps a life percent to a frame of an n frame animation.
func AnimatedIndex(percent float32, n int) int {
	k := int(percent * float32(n-1))
	if k < 0 {
		return 0
	}
	if k > n-1 {
		return n - 1
	}
	return k
}

func (r *Region) write(i int, reg assets.Region) {
	s := r.channel.Slot(i)
	s[particles.UOffset] = reg.U
	s[particles.VOffset] = reg.V
	s[particles.U2Offset] = reg.U2
	s[particles.V2Offset] = reg.V2
	s[particles.HalfWidthOffset] = 0.5
	s[particles.HalfHeightOffset] = 0.5 * reg.Aspect()
}

func (r *Region) AssetRefs() []assets.Ref {
	if r.Texture.Key == "" {
		return nil
	}
	if r.Texture.Type == "" {
		r.Texture.Type = assets.TypeTexture
	}
	return []assets.Ref{r.Texture}
}

func (r *Region) SetAssets(handles []any) error {
	tex, err := assets.As[*assets.Texture](r.Texture, handles[0])
	if err != nil {
		return err
	}
	r.regions = append(r.regions[:0], tex.Regions...)
	return nil
}

func (r *Region) Copy() particles.Influencer {
	return &Region{
		Mode:    r.Mode,
		Texture: r.Texture,
		regions: append([]assets.Region(nil), r.regions...),
	}
}

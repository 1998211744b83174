package tilemap

import (
	"encoding/hex"
	"image"
	"image/color"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Manifest describes the atlases of a project and the editor defaults.
//
//	[editor]
//	map_size = [50, 50]
//	scale = 1.0
//	picker = [64, 64, 322, 160]   # x, y, width, height
//	interpolation = "nearest"
//
//	[[atlas]]
//	name = "Textured Rock"        # optional
//	path = "rock.png"             # relative to the manifest
//	tile_size = [16, 16]
//	margin = [0, 0]
//	spacing = [0, 0]
//	fill = "#00000000"
type Manifest struct {
	Editor  EditorConfig  `toml:"editor"`
	Atlases []AtlasConfig `toml:"atlas"`

	// Dir is the directory atlas paths are resolved against.
	Dir string `toml:"-"`
}

// EditorConfig holds editor defaults.
type EditorConfig struct {
	MapSize       []int   `toml:"map_size"`
	Scale         float64 `toml:"scale"`
	Picker        []int   `toml:"picker"`
	Interpolation string  `toml:"interpolation"`
}

// AtlasConfig describes one atlas file.
type AtlasConfig struct {
	Name     string `toml:"name"`
	Path     string `toml:"path"`
	TileSize []int  `toml:"tile_size"`
	Margin   []int  `toml:"margin"`
	Spacing  []int  `toml:"spacing"`
	Fill     string `toml:"fill"`
}

// DefaultMapSize is the map size used when a manifest gives none.
var DefaultMapSize = image.Pt(50, 50)

// LoadManifest reads a TOML manifest. Atlas paths are resolved relative to
// the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	var m Manifest
	md, err := toml.DecodeFile(path, &m)
	if err != nil {
		return nil, errors.Wrapf(err, "tilemap: manifest %s", path)
	}
	m.Dir = filepath.Dir(path)
	if err := m.check(md); err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return &m, nil
}

// DecodeManifest parses manifest text. Atlas paths are resolved relative
// to dir.
func DecodeManifest(data, dir string) (*Manifest, error) {
	var m Manifest
	md, err := toml.Decode(data, &m)
	if err != nil {
		return nil, errors.Wrap(err, "tilemap: manifest")
	}
	m.Dir = dir
	if err := m.check(md); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) check(md toml.MetaData) error {
	if keys := md.Undecoded(); len(keys) > 0 {
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}
		return errors.Errorf("tilemap: manifest: unknown keys %s", strings.Join(names, ", "))
	}
	if _, err := m.MapSize(); err != nil {
		return err
	}
	if _, _, err := m.PickerRect(); err != nil {
		return err
	}
	if _, err := m.Interpolation(); err != nil {
		return errors.Wrap(err, "tilemap: manifest")
	}
	if m.Editor.Scale < 0 {
		return errors.Wrapf(ErrInvalidScaleFactor, "manifest scale %v", m.Editor.Scale)
	}
	for i, a := range m.Atlases {
		if a.Path == "" {
			return errors.Errorf("tilemap: manifest: atlas %d has no path", i)
		}
		if _, err := a.options(); err != nil {
			return errors.Wrapf(err, "atlas %d", i)
		}
	}
	return nil
}

// MapSize returns the map size in cells.
func (m *Manifest) MapSize() (image.Point, error) {
	if len(m.Editor.MapSize) == 0 {
		return DefaultMapSize, nil
	}
	p, err := pair("map_size", m.Editor.MapSize)
	if err != nil {
		return image.Point{}, err
	}
	if p.X <= 0 || p.Y <= 0 {
		return image.Point{}, errors.Wrapf(ErrInvalidTileSize, "map_size %v", p)
	}
	return p, nil
}

// Scale returns the display scale, defaulting to 1.
func (m *Manifest) Scale() float64 {
	if m.Editor.Scale == 0 {
		return 1
	}
	return m.Editor.Scale
}

// PickerRect returns the picker viewport and whether one is configured.
func (m *Manifest) PickerRect() (image.Rectangle, bool, error) {
	v := m.Editor.Picker
	if len(v) == 0 {
		return image.Rectangle{}, false, nil
	}
	if len(v) != 4 {
		return image.Rectangle{}, false, errors.Errorf("tilemap: manifest: picker wants [x, y, width, height], got %v", v)
	}
	if v[2] <= 0 || v[3] <= 0 {
		return image.Rectangle{}, false, errors.Wrapf(ErrInvalidScaleFactor, "picker viewport %v", v)
	}
	return image.Rect(v[0], v[1], v[0]+v[2], v[1]+v[3]), true, nil
}

// Interpolation returns the configured resampling mode.
func (m *Manifest) Interpolation() (InterpolationMode, error) {
	return ParseInterpolation(m.Editor.Interpolation)
}

// LoadAtlases loads every atlas in manifest order.
func (m *Manifest) LoadAtlases() ([]*Atlas, error) {
	atlases := make([]*Atlas, 0, len(m.Atlases))
	for _, cfg := range m.Atlases {
		a, err := cfg.Load(m.Dir)
		if err != nil {
			return nil, err
		}
		atlases = append(atlases, a)
	}
	return atlases, nil
}

// ResolvePath returns the file path of an atlas entry.
func (c AtlasConfig) ResolvePath(dir string) string {
	if filepath.IsAbs(c.Path) {
		return c.Path
	}
	return filepath.Join(dir, c.Path)
}

// Load reads the atlas file, resolving a relative path against dir.
func (c AtlasConfig) Load(dir string) (*Atlas, error) {
	opts, err := c.options()
	if err != nil {
		return nil, err
	}
	return LoadAtlasFile(c.ResolvePath(dir), opts...)
}

// options converts the entry into atlas options.
func (c AtlasConfig) options() ([]AtlasOption, error) {
	var opts []AtlasOption
	if c.Name != "" {
		opts = append(opts, WithName(c.Name))
	}
	for _, f := range []struct {
		key  string
		v    []int
		with func(x, y int) AtlasOption
	}{
		{"tile_size", c.TileSize, WithTileSize},
		{"margin", c.Margin, WithMargin},
		{"spacing", c.Spacing, WithSpacing},
	} {
		if len(f.v) == 0 {
			continue
		}
		p, err := pair(f.key, f.v)
		if err != nil {
			return nil, err
		}
		opts = append(opts, f.with(p.X, p.Y))
	}
	if c.Fill != "" {
		fill, err := ParseHexColor(c.Fill)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithFillColor(fill))
	}
	return opts, nil
}

func pair(key string, v []int) (image.Point, error) {
	if len(v) != 2 {
		return image.Point{}, errors.Errorf("tilemap: manifest: %s wants 2 values, got %v", key, v)
	}
	return image.Pt(v[0], v[1]), nil
}

// ParseHexColor parses "#RGB", "#RGBA", "#RRGGBB" or "#RRGGBBAA".
// Colors without alpha are opaque. The result is premultiplied.
func ParseHexColor(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) == 3 || len(h) == 4 {
		var b strings.Builder
		for _, r := range h {
			b.WriteRune(r)
			b.WriteRune(r)
		}
		h = b.String()
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return color.RGBA{}, errors.Errorf("tilemap: color %q: want #RRGGBB or #RRGGBBAA", s)
	}
	v, err := hex.DecodeString(h)
	if err != nil {
		return color.RGBA{}, errors.Wrapf(err, "tilemap: color %q", s)
	}
	c := color.NRGBA{R: v[0], G: v[1], B: v[2], A: v[3]}
	return color.RGBAModel.Convert(c).(color.RGBA), nil
}

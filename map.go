package tilemap

import (
	"fmt"
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// MinDisplayScale is the smallest display scale a Map keeps. Layers clamp
// further to MinLayerScale.
const MinDisplayScale = 0.001

// NoActiveLayer is the ActiveLayer value when no layer is active.
const NoActiveLayer = -1

// defaultGhostIndex is the tile previewed by layers created by AppendLayer.
const defaultGhostIndex = 16

// Map is an editable tile map: a stack of layers sharing one display
// offset and scale, plus the atlases new layers are created from.
//
// At most one layer is active; only the active layer previews the ghost
// tile and receives AddTileAtPointer.
type Map struct {
	size    image.Point
	atlases []*Atlas
	layers  []*Layer
	active  int

	offset       mgl64.Vec2
	scale        float64
	defaultAtlas int

	cache     *ScaleCache
	layerOpts []LayerOption
}

// MapOption configures a Map during creation.
type MapOption func(*Map)

// WithDisplayOffset sets the initial pan offset shared by all layers.
func WithDisplayOffset(p mgl64.Vec2) MapOption {
	return func(m *Map) {
		m.offset = p
	}
}

// WithDisplayScale sets the initial display scale.
func WithDisplayScale(f float64) MapOption {
	return func(m *Map) {
		m.scale = f
	}
}

// WithDefaultAtlas selects the atlas new layers use.
func WithDefaultAtlas(i int) MapOption {
	return func(m *Map) {
		m.defaultAtlas = i
	}
}

// WithMapCache shares sc between the ghost cells of every layer.
func WithMapCache(sc *ScaleCache) MapOption {
	return func(m *Map) {
		m.cache = sc
	}
}

// WithLayerOptions appends options applied to every layer created by
// AppendLayer and InsertLayer.
func WithLayerOptions(opts ...LayerOption) MapOption {
	return func(m *Map) {
		m.layerOpts = append(m.layerOpts, opts...)
	}
}

// NewMap creates an empty cols x rows map over atlases.
func NewMap(cols, rows int, atlases []*Atlas, opts ...MapOption) (*Map, error) {
	m := &Map{
		size:    image.Pt(cols, rows),
		atlases: append([]*Atlas(nil), atlases...),
		active:  NoActiveLayer,
		scale:   1,
	}
	for _, opt := range opts {
		opt(m)
	}
	if cols <= 0 || rows <= 0 {
		return nil, errors.Wrapf(ErrInvalidTileSize, "map size %dx%d", cols, rows)
	}
	for i, a := range m.atlases {
		if a == nil {
			return nil, errors.Wrapf(ErrNilSource, "atlas %d", i)
		}
	}
	if len(m.atlases) > 0 && (m.defaultAtlas < 0 || m.defaultAtlas >= len(m.atlases)) {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "default atlas %d of %d", m.defaultAtlas, len(m.atlases))
	}
	if math.IsNaN(m.scale) {
		return nil, errors.Wrap(ErrInvalidScaleFactor, "display scale NaN")
	}
	m.scale = math.Max(m.scale, MinDisplayScale)
	if m.cache == nil {
		m.cache = NewScaleCache()
	}
	return m, nil
}

// Size returns the map size in cells.
func (m *Map) Size() image.Point {
	return m.size
}

// Atlases returns the atlases available to new layers.
func (m *Map) Atlases() []*Atlas {
	return m.atlases
}

// AddAtlas makes another atlas available to new layers.
func (m *Map) AddAtlas(a *Atlas) error {
	if a == nil {
		return ErrNilSource
	}
	m.atlases = append(m.atlases, a)
	return nil
}

// DefaultAtlas returns the atlas new layers use, or nil if there is none.
func (m *Map) DefaultAtlas() *Atlas {
	if len(m.atlases) == 0 {
		return nil
	}
	return m.atlases[m.defaultAtlas]
}

// DefaultAtlasIndex returns the index of DefaultAtlas.
func (m *Map) DefaultAtlasIndex() int {
	return m.defaultAtlas
}

// CycleDefaultAtlas moves the default atlas delta positions, wrapping in
// both directions, and returns it.
func (m *Map) CycleDefaultAtlas(delta int) *Atlas {
	if len(m.atlases) == 0 {
		return nil
	}
	m.defaultAtlas = floorMod(m.defaultAtlas+delta, len(m.atlases))
	return m.atlases[m.defaultAtlas]
}

// Cache returns the scale cache shared by the map's ghost cells.
func (m *Map) Cache() *ScaleCache {
	return m.cache
}

// Layers returns the layers, bottom first.
func (m *Map) Layers() []*Layer {
	return m.layers
}

// Layer returns layer i.
func (m *Map) Layer(i int) (*Layer, error) {
	if i < 0 || i >= len(m.layers) {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "layer %d of %d", i, len(m.layers))
	}
	return m.layers[i], nil
}

// NewLayer creates a layer over the default atlas sized and scaled for the
// map. It is not added to the map.
func (m *Map) NewLayer() (*Layer, error) {
	a := m.DefaultAtlas()
	if a == nil {
		return nil, ErrEmptyAtlas
	}
	opts := append([]LayerOption{
		WithLayerScale(math.Max(m.scale, MinLayerScale)),
		WithPan(m.offset),
		WithGhostCache(m.cache),
	}, m.layerOpts...)
	l, err := NewLayer(a, m.size.X, m.size.Y, opts...)
	if err != nil {
		return nil, err
	}
	if err := l.SetGhostContent(AtlasTile{Index: defaultGhostIndex}); err != nil {
		return nil, err
	}
	return l, nil
}

// AppendLayer adds l on top of the stack. A nil l creates a layer with
// NewLayer. If active, the new layer becomes the active one.
func (m *Map) AppendLayer(l *Layer, active bool) error {
	return m.InsertLayer(len(m.layers), l, active)
}

// InsertLayer inserts l at position i of the stack (0 is the bottom).
// A nil l creates a layer with NewLayer. The layer takes the map's display
// offset and scale, replacing its own.
func (m *Map) InsertLayer(i int, l *Layer, active bool) error {
	if i < 0 || i > len(m.layers) {
		return errors.Wrapf(ErrIndexOutOfRange, "layer position %d of %d", i, len(m.layers))
	}
	if l == nil {
		var err error
		if l, err = m.NewLayer(); err != nil {
			return err
		}
	}
	l.SetPan(m.offset)
	// Cannot fail: the scale is at least MinLayerScale.
	_ = l.SetScaleFactor(math.Max(m.scale, MinLayerScale))
	l.SetActive(false)
	m.layers = append(m.layers, nil)
	copy(m.layers[i+1:], m.layers[i:])
	m.layers[i] = l

	switch {
	case active:
		m.activate(i)
	case m.active >= i:
		m.activate(m.active + 1)
	}
	return nil
}

// ActiveLayer returns the index of the active layer or NoActiveLayer.
func (m *Map) ActiveLayer() int {
	return m.active
}

// IsTileLayerActive reports whether a layer is active.
func (m *Map) IsTileLayerActive() bool {
	return m.active != NoActiveLayer
}

// SetActiveLayer activates layer i and deactivates the others.
// NoActiveLayer deactivates all of them.
func (m *Map) SetActiveLayer(i int) error {
	if i != NoActiveLayer && (i < 0 || i >= len(m.layers)) {
		return errors.Wrapf(ErrIndexOutOfRange, "layer %d of %d", i, len(m.layers))
	}
	m.activate(i)
	return nil
}

// CycleActiveLayer activates the next layer, wrapping to the bottom.
func (m *Map) CycleActiveLayer() {
	if len(m.layers) == 0 {
		return
	}
	m.activate((m.active + 1) % len(m.layers))
}

func (m *Map) activate(i int) {
	for j, l := range m.layers {
		l.SetActive(j == i)
	}
	m.active = i
}

// activeLayer returns the active layer or an error if there is none.
func (m *Map) activeLayer() (*Layer, error) {
	if m.active == NoActiveLayer {
		return nil, errors.Wrap(ErrIndexOutOfRange, "no active layer")
	}
	return m.layers[m.active], nil
}

// DisplayOffset returns the pan offset shared by all layers.
func (m *Map) DisplayOffset() mgl64.Vec2 {
	return m.offset
}

// SetDisplayOffset pans every layer to p.
func (m *Map) SetDisplayOffset(p mgl64.Vec2) {
	m.offset = p
	for _, l := range m.layers {
		l.SetPan(p)
	}
}

// PanBy moves the display offset by delta.
func (m *Map) PanBy(delta mgl64.Vec2) {
	m.SetDisplayOffset(m.offset.Add(delta))
}

// DisplayScale returns the display scale.
func (m *Map) DisplayScale() float64 {
	return m.scale
}

// SetDisplayScale zooms every layer. Values below MinDisplayScale,
// negative ones included, are clamped; NaN fails with
// ErrInvalidScaleFactor.
func (m *Map) SetDisplayScale(f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 1) {
		return errors.Wrapf(ErrInvalidScaleFactor, "display scale %v", f)
	}
	f = math.Max(f, MinDisplayScale)
	for _, l := range m.layers {
		// Cannot fail: f is positive.
		_ = l.SetScaleFactor(f)
	}
	m.scale = f
	return nil
}

// ZoomBy adds delta to the display scale.
func (m *Map) ZoomBy(delta float64) error {
	return m.SetDisplayScale(m.scale + delta)
}

// StepSelectedIndex cycles the ghost tile of the active layer.
func (m *Map) StepSelectedIndex(delta int) error {
	l, err := m.activeLayer()
	if err != nil {
		return err
	}
	return l.StepGhostIndex(delta)
}

// AddTileAtPointer paints on the active layer under the pointer. A nil
// content paints the layer's ghost content.
func (m *Map) AddTileAtPointer(content TileContent) (image.Point, error) {
	l, err := m.activeLayer()
	if err != nil {
		return image.Point{}, err
	}
	return l.AddTileAtPointer(content)
}

// Update records the pointer position on every layer.
func (m *Map) Update(pointer mgl64.Vec2) {
	for _, l := range m.layers {
		l.Update(pointer)
	}
}

// Draw composites every layer, bottom first, at the display offset.
func (m *Map) Draw(dst *Raster) {
	for _, l := range m.layers {
		l.DrawAt(dst, m.offset)
	}
}

// String returns a summary of the map.
func (m *Map) String() string {
	return fmt.Sprintf("Map with %d layers\nActive layer: %d\nAtlases: %d",
		len(m.layers), m.active, len(m.atlases))
}

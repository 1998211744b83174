package tilemap

import (
	"image"
	"image/color"
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/tilemap/internal/resample"
)

// MinLayerScale is the smallest scale factor a Layer accepts. Positive
// factors below it are clamped.
const MinLayerScale = 0.01

// snapEpsilon absorbs float error when a pointer lies exactly on a cell
// boundary.
const snapEpsilon = 1e-9

// Layer is a grid of tile cells painted into one native-resolution
// composite raster. The composite is rescaled as a whole for display, so a
// zoom costs one resample regardless of the number of cells.
//
// The scaled raster is derived state: paints and zooms mark it stale and it
// is rebuilt on the next ScaledRaster or Draw. A change of the atlas
// geometry rebuilds the composite the same way.
//
// An active layer draws a ghost cell under the pointer as a paint preview.
// The ghost never touches the composite.
type Layer struct {
	atlas   *Atlas
	origin  image.Point
	size    image.Point
	scale   float64
	pan     mgl64.Vec2
	pointer mgl64.Vec2
	active  bool

	background color.RGBA
	mode       InterpolationMode
	rng        *rand.Rand

	cells     []*TileCell
	composite *Raster
	version   uint64

	scaled      *Raster
	scaledStale bool

	ghost *TileCell
}

// LayerOption configures a Layer during creation.
type LayerOption func(*layerOptions)

type layerOptions struct {
	origin     image.Point
	scale      float64
	pan        mgl64.Vec2
	active     bool
	background color.Color
	mode       InterpolationMode
	seed       uint64
	seeded     bool
	ghostCache *ScaleCache
}

// WithOrigin places the layer's top-left cell at grid position (x, y).
func WithOrigin(x, y int) LayerOption {
	return func(o *layerOptions) {
		o.origin = image.Pt(x, y)
	}
}

// WithLayerScale sets the initial scale factor. Defaults to 1.
func WithLayerScale(f float64) LayerOption {
	return func(o *layerOptions) {
		o.scale = f
	}
}

// WithPan sets the initial pan offset in pixels.
func WithPan(p mgl64.Vec2) LayerOption {
	return func(o *layerOptions) {
		o.pan = p
	}
}

// WithActive makes the layer draw its ghost cell from the start.
func WithActive(active bool) LayerOption {
	return func(o *layerOptions) {
		o.active = active
	}
}

// WithBackground sets the color of unpainted composite pixels.
// Defaults to transparent.
func WithBackground(c color.Color) LayerOption {
	return func(o *layerOptions) {
		o.background = c
	}
}

// WithLayerInterpolation sets the resampling used for the scaled raster.
func WithLayerInterpolation(m InterpolationMode) LayerOption {
	return func(o *layerOptions) {
		o.mode = m
	}
}

// WithSeed makes FillRandom deterministic.
func WithSeed(seed uint64) LayerOption {
	return func(o *layerOptions) {
		o.seed = seed
		o.seeded = true
	}
}

// WithGhostCache lets the ghost cell share a ScaleCache.
func WithGhostCache(sc *ScaleCache) LayerOption {
	return func(o *layerOptions) {
		o.ghostCache = sc
	}
}

// NewLayer creates a cols x rows layer over atlas. Painting needs tiles,
// so an atlas without any fails with ErrEmptyAtlas.
func NewLayer(atlas *Atlas, cols, rows int, opts ...LayerOption) (*Layer, error) {
	o := layerOptions{scale: 1, mode: InterpNearest}
	for _, opt := range opts {
		opt(&o)
	}
	if atlas == nil {
		return nil, ErrNilSource
	}
	if atlas.TileCount() == 0 {
		return nil, ErrEmptyAtlas
	}
	if cols <= 0 || rows <= 0 {
		return nil, errors.Wrapf(ErrInvalidTileSize, "grid size %dx%d", cols, rows)
	}
	if !validScale(o.scale) {
		return nil, errors.Wrapf(ErrInvalidScaleFactor, "layer scale %v", o.scale)
	}

	var src rand.Source = rand.NewPCG(rand.Uint64(), rand.Uint64())
	if o.seeded {
		src = rand.NewPCG(o.seed, o.seed^0x9e3779b97f4a7c15)
	}
	l := &Layer{
		atlas:       atlas,
		origin:      o.origin,
		size:        image.Pt(cols, rows),
		scale:       math.Max(o.scale, MinLayerScale),
		pan:         o.pan,
		active:      o.active,
		mode:        o.mode,
		rng:         rand.New(src),
		cells:       make([]*TileCell, cols*rows),
		scaledStale: true,
	}
	if o.background != nil {
		l.background = color.RGBAModel.Convert(o.background).(color.RGBA)
	}

	ghost, err := NewTileCell(atlas, image.Point{}, AtlasTile{},
		WithCellScale(l.scale), WithCellCache(o.ghostCache))
	if err != nil {
		return nil, err
	}
	l.ghost = ghost
	l.rebuildComposite()
	return l, nil
}

// Atlas returns the layer's atlas.
func (l *Layer) Atlas() *Atlas {
	return l.atlas
}

// SetAtlas switches the layer to another atlas and repaints every cell
// from it. Indices are wrapped against the new atlas.
func (l *Layer) SetAtlas(a *Atlas) error {
	if a == nil {
		return ErrNilSource
	}
	if a.TileCount() == 0 {
		return ErrEmptyAtlas
	}
	// Validate the ghost first so a failure leaves the layer untouched.
	if err := l.ghost.SetAtlas(a); err != nil {
		return err
	}
	for _, c := range l.cells {
		if c != nil {
			// Cannot fail: a has tiles.
			_ = c.SetAtlas(a)
		}
	}
	l.atlas = a
	l.rebuildComposite()
	return nil
}

// Origin returns the grid position of the layer's top-left cell.
func (l *Layer) Origin() image.Point {
	return l.origin
}

// SetOrigin moves the layer.
func (l *Layer) SetOrigin(p image.Point) {
	l.origin = p
}

// GridSize returns the number of columns and rows.
func (l *Layer) GridSize() image.Point {
	return l.size
}

// Active reports whether the ghost preview is drawn.
func (l *Layer) Active() bool {
	return l.active
}

// SetActive toggles the ghost preview.
func (l *Layer) SetActive(active bool) {
	l.active = active
}

// Pan returns the pan offset in pixels.
func (l *Layer) Pan() mgl64.Vec2 {
	return l.pan
}

// SetPan sets the pan offset.
func (l *Layer) SetPan(p mgl64.Vec2) {
	l.pan = p
}

// PanBy moves the layer by delta pixels.
func (l *Layer) PanBy(delta mgl64.Vec2) {
	l.pan = l.pan.Add(delta)
}

// Pointer returns the last pointer position given to Update.
func (l *Layer) Pointer() mgl64.Vec2 {
	return l.pointer
}

// Update records the pointer position for this tick. Call it before Draw.
func (l *Layer) Update(pointer mgl64.Vec2) {
	l.pointer = pointer
}

// ScaleFactor returns the display scale.
func (l *Layer) ScaleFactor() float64 {
	return l.scale
}

// SetScaleFactor changes the display scale. f <= 0 fails with
// ErrInvalidScaleFactor and changes nothing; positive values below
// MinLayerScale are clamped to it.
func (l *Layer) SetScaleFactor(f float64) error {
	if !validScale(f) {
		return errors.Wrapf(ErrInvalidScaleFactor, "layer scale %v", f)
	}
	f = math.Max(f, MinLayerScale)
	if f == l.scale {
		return nil
	}
	// Cannot fail: f is valid.
	_ = l.ghost.SetScaleFactor(f)
	l.scale = f
	l.scaledStale = true
	return nil
}

// GhostContent returns what the ghost cell previews and what
// AddTileAtPointer paints by default.
func (l *Layer) GhostContent() TileContent {
	return l.ghost.Content()
}

// SetGhostContent changes the previewed content.
func (l *Layer) SetGhostContent(c TileContent) error {
	return l.ghost.SetContent(c)
}

// StepGhostIndex moves the ghost to the tile delta positions away,
// cycling through the atlas in both directions. A flat-fill ghost counts
// as index -1, so stepping forward by one selects tile 0.
func (l *Layer) StepGhostIndex(delta int) error {
	i, ok := l.ghost.Index()
	if !ok {
		i = -1
	}
	return l.ghost.SetIndex(i + delta)
}

// Ghost returns the preview cell. Its position follows the pointer.
func (l *Layer) Ghost() *TileCell {
	return l.ghost
}

// Cell returns the painted cell at grid position pos, if any.
func (l *Layer) Cell(pos image.Point) (*TileCell, bool) {
	if !l.inGrid(pos) {
		return nil, false
	}
	c := l.cells[l.slot(pos)]
	return c, c != nil
}

func (l *Layer) inGrid(p image.Point) bool {
	return p.In(image.Rectangle{Max: l.size})
}

func (l *Layer) slot(p image.Point) int {
	return p.Y*l.size.X + p.X
}

// Paint writes content at grid position pos into the composite raster,
// replacing any previous cell there. A nil content paints tile 0.
func (l *Layer) Paint(pos image.Point, content TileContent) error {
	if !l.inGrid(pos) {
		return errors.Wrapf(ErrIndexOutOfRange, "cell %v outside %v grid", pos, l.size)
	}
	l.sync()
	cell, err := NewTileCell(l.atlas, pos, content)
	if err != nil {
		return err
	}
	l.cells[l.slot(pos)] = cell
	l.drawCell(pos, cell)
	l.scaledStale = true
	return nil
}

// PaintCell paints a copy of cell's content at the cell's position.
func (l *Layer) PaintCell(cell *TileCell) error {
	return l.Paint(cell.Pos(), cell.Content())
}

// drawCell repaints one grid slot of the composite.
func (l *Layer) drawCell(pos image.Point, cell *TileCell) {
	if cell == nil || !cell.Draw(l.composite) {
		ts := l.atlas.TileSize()
		tl := image.Pt(pos.X*ts.X, pos.Y*ts.Y)
		l.composite.Fill(image.Rectangle{Min: tl, Max: tl.Add(ts)}, l.background)
	}
}

// FillUniform paints every cell with content.
func (l *Layer) FillUniform(content TileContent) error {
	if _, err := normalizeContent(content, l.atlas); err != nil {
		return err
	}
	for y := range l.size.Y {
		for x := range l.size.X {
			if err := l.Paint(image.Pt(x, y), content); err != nil {
				return err
			}
		}
	}
	return nil
}

// FillRandom paints every cell with an atlas tile drawn uniformly from
// [lo, hi). Use WithSeed for a reproducible fill.
func (l *Layer) FillRandom(lo, hi int) error {
	if hi <= lo {
		return errors.Wrapf(ErrIndexOutOfRange, "empty index range [%d, %d)", lo, hi)
	}
	if l.atlas.TileCount() == 0 {
		return ErrEmptyAtlas
	}
	for y := range l.size.Y {
		for x := range l.size.X {
			idx := lo + l.rng.IntN(hi-lo)
			if err := l.Paint(image.Pt(x, y), AtlasTile{Index: idx}); err != nil {
				return err
			}
		}
	}
	return nil
}

// Clear removes every cell.
func (l *Layer) Clear() {
	clear(l.cells)
	l.composite.Fill(l.composite.Bounds(), l.background)
	l.scaledStale = true
}

// Composite returns the native-resolution raster. It must not be modified.
func (l *Layer) Composite() *Raster {
	l.sync()
	return l.composite
}

// ScaledRaster returns the composite rescaled by the current scale factor,
// rebuilding it first if a paint or zoom made it stale. It must not be
// modified.
func (l *Layer) ScaledRaster() *Raster {
	l.sync()
	if l.scaledStale || l.scaled == nil {
		l.scaled = wrapRGBA(resample.Scale(l.composite.img, l.scale, l.mode))
		l.scaledStale = false
		Logger().Debug("layer rescale",
			slog.Float64("scale", l.scale),
			slog.Int("width", l.scaled.Width()),
			slog.Int("height", l.scaled.Height()))
	}
	return l.scaled
}

// sync rebuilds the composite if the atlas geometry changed since the last
// paint.
func (l *Layer) sync() {
	if l.version != l.atlas.Version() {
		l.rebuildComposite()
	}
}

// rebuildComposite repaints every cell into a composite sized for the
// current tile size.
func (l *Layer) rebuildComposite() {
	ts := l.atlas.TileSize()
	w, h := l.size.X*ts.X, l.size.Y*ts.Y
	if l.composite == nil || l.composite.Width() != w || l.composite.Height() != h {
		l.composite = NewRaster(w, h)
	}
	l.composite.Fill(l.composite.Bounds(), l.background)
	for i, c := range l.cells {
		if c != nil {
			l.drawCell(image.Pt(i%l.size.X, i/l.size.X), c)
		}
	}
	l.version = l.atlas.Version()
	l.scaledStale = true
}

// originPx returns the scaled pixel position of the layer origin before
// panning.
func (l *Layer) originPx() mgl64.Vec2 {
	ts := l.atlas.TileSize()
	return mgl64.Vec2{
		float64(l.origin.X*ts.X) * l.scale,
		float64(l.origin.Y*ts.Y) * l.scale,
	}
}

// GridAt maps a viewport position to the grid cell under it: remove the
// pan and origin, divide by the scaled tile size and floor. The result may
// lie outside the grid.
func (l *Layer) GridAt(p mgl64.Vec2) image.Point {
	return l.gridAt(p, l.pan)
}

func (l *Layer) gridAt(p, pan mgl64.Vec2) image.Point {
	local := p.Sub(pan).Sub(l.originPx())
	ts := l.atlas.TileSize()
	return image.Pt(
		int(math.Floor(local.X()/(float64(ts.X)*l.scale)+snapEpsilon)),
		int(math.Floor(local.Y()/(float64(ts.Y)*l.scale)+snapEpsilon)),
	)
}

// CellPosition returns the viewport position of the top-left corner of
// grid cell pos at the current scale and pan.
func (l *Layer) CellPosition(pos image.Point) mgl64.Vec2 {
	ts := l.atlas.TileSize()
	cell := mgl64.Vec2{
		float64(pos.X*ts.X) * l.scale,
		float64(pos.Y*ts.Y) * l.scale,
	}
	return cell.Add(l.originPx()).Add(l.pan)
}

// AddTileAtPointer paints at the grid cell under the last pointer position.
// A nil content paints the ghost's content. It returns the painted cell
// position; a pointer outside the grid fails with ErrIndexOutOfRange.
func (l *Layer) AddTileAtPointer(content TileContent) (image.Point, error) {
	pos := l.GridAt(l.pointer)
	if content == nil {
		content = l.ghost.Content()
	}
	if err := l.Paint(pos, content); err != nil {
		return pos, err
	}
	return pos, nil
}

// Draw composites the layer over dst at its own pan offset, followed by
// the ghost preview when active.
func (l *Layer) Draw(dst *Raster) {
	l.DrawAt(dst, l.pan)
}

// DrawAt is Draw with a pan offset override.
func (l *Layer) DrawAt(dst *Raster, pan mgl64.Vec2) {
	scaled := l.ScaledRaster()
	at := l.originPx().Add(pan)
	tl := image.Pt(int(math.Floor(at.X())), int(math.Floor(at.Y())))
	r := image.Rectangle{Min: tl, Max: tl.Add(scaled.Size())}
	xdraw.Draw(dst.img, r, scaled.img, image.Point{}, xdraw.Over)
	dst.Touch()

	if !l.active {
		return
	}
	pos := l.gridAt(l.pointer, pan)
	if !l.inGrid(pos) {
		return
	}
	l.ghost.SetPos(pos)
	l.ghost.DrawScaled(dst, at)
}

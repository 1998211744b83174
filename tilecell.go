package tilemap

import (
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/tilemap/internal/resample"
)

// TileCell is one placed tile: a grid position, its content and the atlas
// it samples from.
//
// The source region and scaled destination rectangle are cached and
// recomputed before the next draw whenever the content, scale factor or
// atlas (including its geometry, tracked through Atlas.Version) changes.
type TileCell struct {
	pos     image.Point
	content TileContent
	atlas   *Atlas
	scale   float64
	cache   *ScaleCache

	// Derived state, valid while valid is true and the atlas version
	// still matches.
	valid   bool
	version uint64
	src     image.Rectangle
	dst     image.Rectangle
}

// CellOption configures a TileCell during creation.
type CellOption func(*TileCell)

// WithCellScale sets the scale factor used by DrawScaled. Defaults to 1.
func WithCellScale(f float64) CellOption {
	return func(c *TileCell) {
		c.scale = f
	}
}

// WithCellCache makes DrawScaled sample from rescaled atlas rasters held in
// sc. Without a cache each DrawScaled resamples just the tile region.
func WithCellCache(sc *ScaleCache) CellOption {
	return func(c *TileCell) {
		c.cache = sc
	}
}

// NewTileCell creates a cell at grid position pos. A nil content selects
// tile 0. Atlas indices are wrapped into range, so an atlas tile on an
// empty atlas fails with ErrEmptyAtlas.
func NewTileCell(atlas *Atlas, pos image.Point, content TileContent, opts ...CellOption) (*TileCell, error) {
	if atlas == nil {
		return nil, ErrNilSource
	}
	c := &TileCell{pos: pos, atlas: atlas, scale: 1}
	for _, opt := range opts {
		opt(c)
	}
	if !validScale(c.scale) {
		return nil, errors.Wrapf(ErrInvalidScaleFactor, "cell scale %v", c.scale)
	}
	content, err := normalizeContent(content, atlas)
	if err != nil {
		return nil, err
	}
	c.content = content
	return c, nil
}

// Pos returns the grid position.
func (c *TileCell) Pos() image.Point {
	return c.pos
}

// SetPos moves the cell.
func (c *TileCell) SetPos(p image.Point) {
	c.pos = p
	c.valid = false
}

// Content returns what the cell shows.
func (c *TileCell) Content() TileContent {
	return c.content
}

// Index returns the atlas index and true, or 0 and false for a flat fill.
func (c *TileCell) Index() (int, bool) {
	t, ok := c.content.(AtlasTile)
	return t.Index, ok
}

// SetContent replaces the content, wrapping atlas indices into range.
func (c *TileCell) SetContent(content TileContent) error {
	content, err := normalizeContent(content, c.atlas)
	if err != nil {
		return err
	}
	c.content = content
	c.valid = false
	return nil
}

// SetIndex shows atlas tile index, reduced modulo the tile count.
func (c *TileCell) SetIndex(index int) error {
	return c.SetContent(AtlasTile{Index: index})
}

// SetFlat turns the cell into a flat fill of the atlas fill color.
func (c *TileCell) SetFlat() {
	c.content = FlatFill{}
	c.valid = false
}

// Atlas returns the atlas the cell samples from.
func (c *TileCell) Atlas() *Atlas {
	return c.atlas
}

// SetAtlas switches to another atlas. The current index is wrapped against
// the new atlas.
func (c *TileCell) SetAtlas(a *Atlas) error {
	if a == nil {
		return ErrNilSource
	}
	content, err := normalizeContent(c.content, a)
	if err != nil {
		return err
	}
	c.atlas = a
	c.content = content
	c.valid = false
	return nil
}

// ScaleFactor returns the factor used by DrawScaled.
func (c *TileCell) ScaleFactor() float64 {
	return c.scale
}

// SetScaleFactor changes the DrawScaled factor. f <= 0 fails with
// ErrInvalidScaleFactor and leaves the cell unchanged.
func (c *TileCell) SetScaleFactor(f float64) error {
	if !validScale(f) {
		return errors.Wrapf(ErrInvalidScaleFactor, "cell scale %v", f)
	}
	if f != c.scale {
		c.scale = f
		c.valid = false
	}
	return nil
}

// SetCache changes the ScaleCache used by DrawScaled. nil disables caching.
func (c *TileCell) SetCache(sc *ScaleCache) {
	c.cache = sc
}

// SourceRect returns the atlas region the cell samples, or an empty
// rectangle for a flat fill or an empty atlas.
func (c *TileCell) SourceRect() image.Rectangle {
	c.refresh()
	return c.src
}

// DestRect returns the scaled destination rectangle relative to the
// drawing offset: pos * tile size * scale, sized tile size * scale.
func (c *TileCell) DestRect() image.Rectangle {
	c.refresh()
	return c.dst
}

// refresh recomputes the derived rectangles when stale.
func (c *TileCell) refresh() {
	if c.valid && c.version == c.atlas.Version() {
		return
	}
	c.src = image.Rectangle{}
	if t, ok := c.content.(AtlasTile); ok {
		// The tile count can shrink after the index was wrapped.
		if i, err := c.atlas.WrapIndex(t.Index); err == nil {
			c.src = c.atlas.regionOf(i)
		}
	}

	ts := c.atlas.TileSize()
	w, h := resample.ScaledSize(ts.X, ts.Y, c.scale)
	minX := int(math.Floor(float64(c.pos.X*ts.X) * c.scale))
	minY := int(math.Floor(float64(c.pos.Y*ts.Y) * c.scale))
	c.dst = image.Rect(minX, minY, minX+w, minY+h)

	c.version = c.atlas.Version()
	c.valid = true
}

// Draw paints the cell at native resolution at its own grid position
// (pos * tile size). Pixels under the cell are replaced, alpha included.
// It reports whether anything was drawn.
func (c *TileCell) Draw(dst *Raster) bool {
	return c.DrawAt(dst, c.pos)
}

// DrawAt is Draw at grid position at instead of the cell's own position.
// Cells with a negative coordinate, or whose rectangle misses dst
// entirely, are culled.
func (c *TileCell) DrawAt(dst *Raster, at image.Point) bool {
	if at.X < 0 || at.Y < 0 {
		return false
	}
	ts := c.atlas.TileSize()
	tl := image.Pt(at.X*ts.X, at.Y*ts.Y)
	r := image.Rectangle{Min: tl, Max: tl.Add(ts)}
	if !r.Overlaps(dst.Bounds()) {
		return false
	}

	switch content := c.content.(type) {
	case FlatFill:
		dst.Fill(r, content.fillColor(c.atlas))
	case AtlasTile:
		src := c.SourceRect()
		if src.Empty() {
			return false
		}
		// Regions reaching past the source edge leave the rest of the
		// cell transparent.
		dst.Fill(r, transparent)
		xdraw.Draw(dst.img, r, c.atlas.source.img, src.Min, xdraw.Src)
		dst.Touch()
	default:
		return false
	}
	return true
}

// DrawScaled paints the cell scaled by its scale factor at
// pos * tile size * scale + offset, composited over dst. Cells with a
// negative grid coordinate, or whose rectangle misses dst, are culled.
// It reports whether anything was drawn.
func (c *TileCell) DrawScaled(dst *Raster, offset mgl64.Vec2) bool {
	if c.pos.X < 0 || c.pos.Y < 0 {
		return false
	}
	r := c.DestRect().Add(image.Pt(int(math.Floor(offset.X())), int(math.Floor(offset.Y()))))
	if r.Empty() || !r.Overlaps(dst.Bounds()) {
		return false
	}

	switch content := c.content.(type) {
	case FlatFill:
		xdraw.Draw(dst.img, r, image.NewUniform(content.fillColor(c.atlas)), image.Point{}, xdraw.Over)
	case AtlasTile:
		tile := c.scaledTile()
		if tile == nil {
			return false
		}
		xdraw.Draw(dst.img, r, tile, tile.Rect.Min, xdraw.Over)
	default:
		return false
	}
	dst.Touch()
	return true
}

// scaledTile returns the cell's tile at its scale factor. With a cache the
// whole atlas is rescaled once and the tile is a sub-image of the shared
// result; the returned image must not be written to.
func (c *TileCell) scaledTile() *image.RGBA {
	src := c.SourceRect()
	if src.Empty() {
		return nil
	}
	size := c.DestRect().Size()
	if c.cache == nil {
		return resample.Resize(c.atlas.source.img, src, size.X, size.Y, InterpNearest)
	}

	scaled, err := c.cache.GetOrCreate(c.atlas.source, c.scale)
	if err != nil {
		return nil
	}
	x := resample.ScaledLen(src.Min.X, c.scale)
	y := resample.ScaledLen(src.Min.Y, c.scale)
	region := image.Rect(x, y, x+size.X, y+size.Y)
	return scaled.img.SubImage(region).(*image.RGBA)
}

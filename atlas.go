package tilemap

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// DefaultTileSize is the tile size used when none is given.
var DefaultTileSize = image.Pt(16, 16)

// Atlas describes the geometry of a packed tile atlas: a source raster cut
// into equally sized tiles with an outer margin and inner spacing.
//
// Columns, rows and tile count are derived from the current geometry on
// every call, so a mutation is visible immediately. Each successful setter
// bumps Version; dependents that cache per-atlas state compare versions to
// know when to recompute.
//
// An Atlas is not safe for concurrent mutation. The source raster may be
// shared by any number of cells and layers; none of them write to it.
type Atlas struct {
	name     string
	source   *Raster
	tileSize image.Point
	margin   image.Point
	spacing  image.Point
	fill     color.RGBA
	version  uint64
}

// AtlasOption configures an Atlas during creation.
type AtlasOption func(*Atlas)

// WithTileSize sets the tile size in pixels. Defaults to DefaultTileSize.
func WithTileSize(w, h int) AtlasOption {
	return func(a *Atlas) {
		a.tileSize = image.Pt(w, h)
	}
}

// WithMargin sets the margin around the whole tile grid.
func WithMargin(x, y int) AtlasOption {
	return func(a *Atlas) {
		a.margin = image.Pt(x, y)
	}
}

// WithSpacing sets the gap between adjacent tiles.
func WithSpacing(x, y int) AtlasOption {
	return func(a *Atlas) {
		a.spacing = image.Pt(x, y)
	}
}

// WithFillColor sets the color used for flat-fill cells.
// Defaults to transparent.
func WithFillColor(c color.Color) AtlasOption {
	return func(a *Atlas) {
		a.fill = color.RGBAModel.Convert(c).(color.RGBA)
	}
}

// WithName sets the display name.
func WithName(name string) AtlasOption {
	return func(a *Atlas) {
		a.name = name
	}
}

// NewAtlas creates an atlas over src.
func NewAtlas(src *Raster, opts ...AtlasOption) (*Atlas, error) {
	a := &Atlas{
		source:   src,
		tileSize: DefaultTileSize,
	}
	for _, opt := range opts {
		opt(a)
	}
	if src == nil {
		return nil, ErrNilSource
	}
	if err := checkGeometry(a.tileSize, a.margin, a.spacing); err != nil {
		return nil, err
	}
	return a, nil
}

func checkGeometry(tile, margin, spacing image.Point) error {
	if tile.X <= 0 || tile.Y <= 0 {
		return errors.Wrapf(ErrInvalidTileSize, "tile size %v", tile)
	}
	if margin.X < 0 || margin.Y < 0 {
		return errors.Wrapf(ErrInvalidTileSize, "margin %v", margin)
	}
	if spacing.X < 0 || spacing.Y < 0 {
		return errors.Wrapf(ErrInvalidTileSize, "spacing %v", spacing)
	}
	return nil
}

// Name returns the display name.
func (a *Atlas) Name() string {
	return a.name
}

// SetName sets the display name. It does not change Version.
func (a *Atlas) SetName(name string) {
	a.name = name
}

// Source returns the source raster.
func (a *Atlas) Source() *Raster {
	return a.source
}

// TileSize returns the tile size in pixels.
func (a *Atlas) TileSize() image.Point {
	return a.tileSize
}

// Margin returns the margin around the tile grid.
func (a *Atlas) Margin() image.Point {
	return a.margin
}

// Spacing returns the gap between tiles.
func (a *Atlas) Spacing() image.Point {
	return a.spacing
}

// FillColor returns the color of flat-fill cells.
func (a *Atlas) FillColor() color.RGBA {
	return a.fill
}

// Version returns a counter that changes on every successful mutation.
func (a *Atlas) Version() uint64 {
	return a.version
}

// SetSource replaces the source raster.
func (a *Atlas) SetSource(src *Raster) error {
	if src == nil {
		return ErrNilSource
	}
	a.source = src
	a.version++
	return nil
}

// SetTileSize changes the tile size.
func (a *Atlas) SetTileSize(w, h int) error {
	ts := image.Pt(w, h)
	if err := checkGeometry(ts, a.margin, a.spacing); err != nil {
		return err
	}
	a.tileSize = ts
	a.version++
	return nil
}

// SetMargin changes the margin.
func (a *Atlas) SetMargin(x, y int) error {
	m := image.Pt(x, y)
	if err := checkGeometry(a.tileSize, m, a.spacing); err != nil {
		return err
	}
	a.margin = m
	a.version++
	return nil
}

// SetSpacing changes the spacing.
func (a *Atlas) SetSpacing(x, y int) error {
	s := image.Pt(x, y)
	if err := checkGeometry(a.tileSize, a.margin, s); err != nil {
		return err
	}
	a.spacing = s
	a.version++
	return nil
}

// SetFillColor changes the flat-fill color.
func (a *Atlas) SetFillColor(c color.Color) {
	a.fill = color.RGBAModel.Convert(c).(color.RGBA)
	a.version++
}

// OffsetPerTile returns the distance between the top-left corners of two
// adjacent tiles: tile size plus spacing.
func (a *Atlas) OffsetPerTile() image.Point {
	return a.tileSize.Add(a.spacing)
}

// Columns returns the number of tiles per atlas row.
func (a *Atlas) Columns() int {
	return fitCount(a.source.Width()-2*a.margin.X, a.OffsetPerTile().X)
}

// Rows returns the number of tile rows.
func (a *Atlas) Rows() int {
	return fitCount(a.source.Height()-2*a.margin.Y, a.OffsetPerTile().Y)
}

// fitCount is floor(span / step), clamped to zero.
func fitCount(span, step int) int {
	if span <= 0 || step <= 0 {
		return 0
	}
	return span / step
}

// TileCount returns Columns * Rows.
func (a *Atlas) TileCount() int {
	return a.Columns() * a.Rows()
}

// AspectRatio returns tile width divided by tile height.
func (a *Atlas) AspectRatio() float64 {
	return float64(a.tileSize.X) / float64(a.tileSize.Y)
}

// CoordsOf returns the (column, row) of a tile index in row-major order.
// The index is not wrapped; pass it through WrapIndex first to stay in
// range. An atlas with no columns maps every index to (0, 0).
func (a *Atlas) CoordsOf(index int) image.Point {
	cols := a.Columns()
	if cols == 0 {
		return image.Point{}
	}
	return image.Pt(index%cols, index/cols)
}

// TopLeftOf returns the pixel position of a tile inside the source raster,
// computed as (margin + coords) * offset per tile.
func (a *Atlas) TopLeftOf(index int) image.Point {
	c := a.CoordsOf(index)
	off := a.OffsetPerTile()
	return image.Pt((a.margin.X+c.X)*off.X, (a.margin.Y+c.Y)*off.Y)
}

// SourceRegionOf returns the source rectangle of a tile.
// Unlike the addressing used by cells it does not wrap: an index outside
// [0, TileCount) is an error.
func (a *Atlas) SourceRegionOf(index int) (image.Rectangle, error) {
	n := a.TileCount()
	if n == 0 {
		return image.Rectangle{}, ErrEmptyAtlas
	}
	if index < 0 || index >= n {
		return image.Rectangle{}, errors.Wrapf(ErrIndexOutOfRange, "tile %d of %d", index, n)
	}
	return a.regionOf(index), nil
}

// regionOf is SourceRegionOf without the range check.
func (a *Atlas) regionOf(index int) image.Rectangle {
	tl := a.TopLeftOf(index)
	return image.Rectangle{Min: tl, Max: tl.Add(a.tileSize)}
}

// WrapIndex reduces index into [0, TileCount). Negative indices wrap from
// the end, so stepping below 0 cycles to the last tile.
func (a *Atlas) WrapIndex(index int) (int, error) {
	n := a.TileCount()
	if n == 0 {
		return 0, ErrEmptyAtlas
	}
	return floorMod(index, n), nil
}

func floorMod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}

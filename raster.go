package tilemap

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"sync/atomic"

	"github.com/pkg/errors"
	xdraw "golang.org/x/image/draw"
)

var transparent = color.RGBA{}

// rasterIDs hands out process-unique raster identities.
var rasterIDs atomic.Uint64

// Raster is an owned RGBA pixel buffer with an identity.
//
// Every raster gets a unique ID at creation and a generation counter that
// increases on each mutation made through its methods. Together they key
// the ScaleCache, so rescales of a raster that has since changed are never
// served. Code that writes through RGBA() directly must call Touch.
//
// Raster implements draw.Image.
type Raster struct {
	img *image.RGBA
	id  uint64
	gen uint64
}

// NewRaster creates a transparent raster with the given dimensions.
// Non-positive dimensions yield an empty raster.
func NewRaster(width, height int) *Raster {
	return wrapRGBA(image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0))))
}

// RasterFromImage copies img into a new raster whose origin is (0, 0).
func RasterFromImage(img image.Image) *Raster {
	b := img.Bounds()
	r := NewRaster(b.Dx(), b.Dy())
	xdraw.Draw(r.img, r.img.Rect, img, b.Min, xdraw.Src)
	return r
}

// wrapRGBA takes ownership of img. img must have its origin at (0, 0).
func wrapRGBA(img *image.RGBA) *Raster {
	return &Raster{img: img, id: rasterIDs.Add(1)}
}

// ID returns the raster's process-unique identity.
func (r *Raster) ID() uint64 {
	return r.id
}

// Generation returns the mutation counter.
func (r *Raster) Generation() uint64 {
	return r.gen
}

// Touch records a mutation made outside the raster's own methods.
func (r *Raster) Touch() {
	r.gen++
}

// Width returns the width in pixels.
func (r *Raster) Width() int {
	return r.img.Rect.Dx()
}

// Height returns the height in pixels.
func (r *Raster) Height() int {
	return r.img.Rect.Dy()
}

// Size returns the dimensions as a point.
func (r *Raster) Size() image.Point {
	return r.img.Rect.Size()
}

// RGBA returns the backing image. Call Touch after writing to it.
func (r *Raster) RGBA() *image.RGBA {
	return r.img
}

// Bounds implements the image.Image interface.
func (r *Raster) Bounds() image.Rectangle {
	return r.img.Rect
}

// ColorModel implements the image.Image interface.
func (r *Raster) ColorModel() color.Model {
	return color.RGBAModel
}

// At implements the image.Image interface.
func (r *Raster) At(x, y int) color.Color {
	return r.img.At(x, y)
}

// Set implements the draw.Image interface.
func (r *Raster) Set(x, y int, c color.Color) {
	r.img.Set(x, y, c)
	r.gen++
}

// Fill paints rect with c, replacing the pixels (alpha included).
func (r *Raster) Fill(rect image.Rectangle, c color.Color) {
	rect = rect.Intersect(r.img.Rect)
	if rect.Empty() {
		return
	}
	xdraw.Draw(r.img, rect, image.NewUniform(c), image.Point{}, xdraw.Src)
	r.gen++
}

// strokeInset draws a border of width w along the inside edge.
func (r *Raster) strokeInset(w int, c color.Color) {
	if w <= 0 {
		return
	}
	b := r.Bounds()
	r.Fill(image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+w), c)
	r.Fill(image.Rect(b.Min.X, b.Max.Y-w, b.Max.X, b.Max.Y), c)
	r.Fill(image.Rect(b.Min.X, b.Min.Y, b.Min.X+w, b.Max.Y), c)
	r.Fill(image.Rect(b.Max.X-w, b.Min.Y, b.Max.X, b.Max.Y), c)
}

// Clear makes every pixel transparent.
func (r *Raster) Clear() {
	clear(r.img.Pix)
	r.gen++
}

// Clone returns a deep copy with a new identity.
func (r *Raster) Clone() *Raster {
	img := image.NewRGBA(r.img.Rect)
	copy(img.Pix, r.img.Pix)
	return wrapRGBA(img)
}

// Equal reports whether both rasters have the same size and pixels.
func (r *Raster) Equal(o *Raster) bool {
	if r == o {
		return true
	}
	if r == nil || o == nil || r.img.Rect != o.img.Rect {
		return false
	}
	a, b := r.img.Pix, o.img.Pix
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SavePNG writes the raster to a PNG file.
func (r *Raster) SavePNG(path string) error {
	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return errors.Wrap(err, "tilemap: create png")
	}
	defer func() {
		_ = f.Close()
	}()

	if err := png.Encode(f, r.img); err != nil {
		return errors.Wrapf(err, "tilemap: encode %s", path)
	}
	return nil
}

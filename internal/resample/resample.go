// Package resample rescales RGBA rasters for the tile pipeline.
//
// Scaling is delegated to golang.org/x/image/draw; this package picks the
// interpolator, computes destination sizes and keeps the 1:1 case exact.
package resample

import (
	"image"
	"math"
	"strings"

	"github.com/pkg/errors"
	xdraw "golang.org/x/image/draw"
)

// sizeEpsilon absorbs float error in w*factor so that, for example,
// 10 * 0.7 yields 7 and not 6.
const sizeEpsilon = 1e-9

// ErrUnknownMode is returned by ParseMode for unrecognized names.
var ErrUnknownMode = errors.New("resample: unknown interpolation mode")

// Mode selects the interpolation used when rescaling.
type Mode uint8

const (
	// Nearest picks the closest source pixel. Keeps pixel art crisp and is
	// the default for tile atlases.
	Nearest Mode = iota

	// ApproxBilinear is a fast approximation of bilinear filtering.
	ApproxBilinear

	// Bilinear interpolates between the 4 neighbouring pixels.
	Bilinear

	// CatmullRom uses a 4x4 Catmull-Rom kernel. Smoothest, slowest.
	CatmullRom
)

// String returns a string representation of the mode.
func (m Mode) String() string {
	switch m {
	case Nearest:
		return "Nearest"
	case ApproxBilinear:
		return "ApproxBilinear"
	case Bilinear:
		return "Bilinear"
	case CatmullRom:
		return "CatmullRom"
	default:
		return "Unknown"
	}
}

// ParseMode converts a case-insensitive name ("nearest", "approx-bilinear",
// "bilinear", "catmull-rom") into a Mode.
func ParseMode(name string) (Mode, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-") {
	case "", "nearest":
		return Nearest, nil
	case "approx-bilinear", "approxbilinear":
		return ApproxBilinear, nil
	case "bilinear":
		return Bilinear, nil
	case "catmull-rom", "catmullrom", "bicubic":
		return CatmullRom, nil
	default:
		return Nearest, errors.Wrapf(ErrUnknownMode, "%q", name)
	}
}

func (m Mode) interpolator() xdraw.Interpolator {
	switch m {
	case ApproxBilinear:
		return xdraw.ApproxBiLinear
	case Bilinear:
		return xdraw.BiLinear
	case CatmullRom:
		return xdraw.CatmullRom
	default:
		return xdraw.NearestNeighbor
	}
}

// ScaledSize returns the truncated size of a w x h raster scaled by factor.
// Results are never negative.
func ScaledSize(w, h int, factor float64) (int, int) {
	return scaledLen(w, factor), scaledLen(h, factor)
}

// ScaledLen is ScaledSize for a single dimension or coordinate.
func ScaledLen(n int, factor float64) int {
	return scaledLen(n, factor)
}

func scaledLen(n int, factor float64) int {
	v := math.Floor(float64(n)*factor + sizeEpsilon)
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return int(v)
}

// Scale returns a new raster holding src rescaled by factor.
// A factor of exactly 1 returns a pixel-identical copy.
// The result always has its origin at (0, 0).
func Scale(src *image.RGBA, factor float64, m Mode) *image.RGBA {
	sb := src.Bounds()
	w, h := ScaledSize(sb.Dx(), sb.Dy(), factor)
	if factor == 1 {
		return copyRGBA(src)
	}
	return Resize(src, sb, w, h, m)
}

// Resize scales the sr region of src to exactly w x h pixels.
// The source pixels replace the destination (draw.Src), alpha included.
// Parts of sr outside src stay transparent; the rest is not stretched
// to cover them.
func Resize(src image.Image, sr image.Rectangle, w, h int, m Mode) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, max(w, 0), max(h, 0)))
	clip := sr.Intersect(src.Bounds())
	if dst.Rect.Empty() || clip.Empty() {
		return dst
	}
	dr := image.Rect(
		(clip.Min.X-sr.Min.X)*w/sr.Dx(),
		(clip.Min.Y-sr.Min.Y)*h/sr.Dy(),
		(clip.Max.X-sr.Min.X)*w/sr.Dx(),
		(clip.Max.Y-sr.Min.Y)*h/sr.Dy(),
	)
	if dr.Empty() {
		return dst
	}
	if dr.Size() == clip.Size() {
		xdraw.Draw(dst, dr, src, clip.Min, xdraw.Src)
		return dst
	}
	m.interpolator().Scale(dst, dr, src, clip, xdraw.Src, nil)
	return dst
}

// copyRGBA returns a deep copy of src rebased to (0, 0).
func copyRGBA(src *image.RGBA) *image.RGBA {
	sb := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, sb.Dx(), sb.Dy()))
	xdraw.Draw(dst, dst.Rect, src, sb.Min, xdraw.Src)
	return dst
}

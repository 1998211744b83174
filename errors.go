package tilemap

import (
	"math"

	"github.com/pkg/errors"
)

// Errors reported by the tile pipeline. Mutating calls that fail leave the
// receiver unchanged. Match with errors.Is.
var (
	// ErrInvalidScaleFactor is returned for a scale factor <= 0 or NaN,
	// and (wrapped) for a picker viewport with a non-positive dimension.
	ErrInvalidScaleFactor = errors.New("tilemap: invalid scale factor")

	// ErrIndexOutOfRange is returned by non-wrapping lookups: atlas
	// regions, layer grid positions, map layer indices, picker selection.
	ErrIndexOutOfRange = errors.New("tilemap: index out of range")

	// ErrEmptyAtlas is returned when an atlas index must be resolved
	// against an atlas with no tiles.
	ErrEmptyAtlas = errors.New("tilemap: atlas has no tiles")

	// ErrInvalidTileSize is returned for non-positive tile sizes and for
	// negative margins or spacings.
	ErrInvalidTileSize = errors.New("tilemap: invalid tile geometry")

	// ErrNilSource is returned when an atlas is given no source raster.
	ErrNilSource = errors.New("tilemap: nil source raster")
)

// validScale reports whether f can be used as a scale factor.
// NaN fails the comparison; +Inf would ask for an unbounded raster.
func validScale(f float64) bool {
	return f > 0 && !math.IsInf(f, 1)
}

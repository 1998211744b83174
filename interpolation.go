package tilemap

import "github.com/gogpu/tilemap/internal/resample"

// InterpolationMode selects the resampling used when rasters are rescaled.
type InterpolationMode = resample.Mode

// Interpolation modes.
const (
	// InterpNearest selects the closest pixel (no interpolation).
	// Keeps pixel-art tiles crisp; the default everywhere.
	InterpNearest = resample.Nearest

	// InterpApproxBilinear is a fast approximation of bilinear filtering.
	InterpApproxBilinear = resample.ApproxBilinear

	// InterpBilinear performs linear interpolation between 4 neighboring pixels.
	InterpBilinear = resample.Bilinear

	// InterpCatmullRom performs cubic interpolation using a 4x4 pixel neighborhood.
	InterpCatmullRom = resample.CatmullRom
)

// ParseInterpolation converts a mode name such as "nearest" or "bilinear"
// into an InterpolationMode.
func ParseInterpolation(name string) (InterpolationMode, error) {
	return resample.ParseMode(name)
}

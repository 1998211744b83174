package tilemap

import (
	"log/slog"

	"github.com/pkg/errors"

	"github.com/gogpu/tilemap/internal/cache"
	"github.com/gogpu/tilemap/internal/resample"
)

// DefaultScaleCacheCapacity is the number of rescaled rasters a ScaleCache
// keeps when no capacity is given.
const DefaultScaleCacheCapacity = cache.DefaultCapacity

// scaleKey identifies one rescale. The generation makes a mutated source
// miss instead of returning the rescale of its old pixels.
type scaleKey struct {
	id     uint64
	gen    uint64
	factor float64
}

// ScaleCache memoizes "source raster + factor -> rescaled raster".
//
// The same (source, factor) pair returns the same *Raster until the entry is
// evicted, invalidated, or the source is mutated. Capacity is bounded and
// the least recently used entry is evicted first.
//
// Rasters returned by the cache are shared: callers must never write to
// them. Tint or border effects belong on a Clone.
//
// ScaleCache is safe for concurrent use.
type ScaleCache struct {
	entries *cache.Cache[scaleKey, *Raster]
	mode    InterpolationMode
}

// ScaleCacheOption configures a ScaleCache.
type ScaleCacheOption func(*scaleCacheOptions)

type scaleCacheOptions struct {
	capacity int
	mode     InterpolationMode
}

// WithCapacity bounds the number of cached rasters.
// Values <= 0 select DefaultScaleCacheCapacity.
func WithCapacity(n int) ScaleCacheOption {
	return func(o *scaleCacheOptions) {
		o.capacity = n
	}
}

// WithInterpolation sets the resampling mode. The default is InterpNearest.
func WithInterpolation(m InterpolationMode) ScaleCacheOption {
	return func(o *scaleCacheOptions) {
		o.mode = m
	}
}

// NewScaleCache creates an empty cache.
func NewScaleCache(opts ...ScaleCacheOption) *ScaleCache {
	o := scaleCacheOptions{mode: InterpNearest}
	for _, opt := range opts {
		opt(&o)
	}
	c := &ScaleCache{
		entries: cache.New[scaleKey, *Raster](o.capacity),
		mode:    o.mode,
	}
	c.entries.OnEvict(func(k scaleKey, _ *Raster) {
		Logger().Debug("scale cache eviction",
			slog.Uint64("raster", k.id),
			slog.Float64("factor", k.factor))
	})
	return c
}

// Interpolation returns the resampling mode used for new entries.
func (c *ScaleCache) Interpolation() InterpolationMode {
	return c.mode
}

// GetOrCreate returns src rescaled by factor, creating and caching it on
// the first request. A factor of 1 yields a pixel-identical copy.
func (c *ScaleCache) GetOrCreate(src *Raster, factor float64) (*Raster, error) {
	if !validScale(factor) {
		return nil, errors.Wrapf(ErrInvalidScaleFactor, "scale %v", factor)
	}
	if src == nil {
		return nil, ErrNilSource
	}
	key := scaleKey{id: src.id, gen: src.gen, factor: factor}
	return c.entries.GetOrCreate(key, func() *Raster {
		Logger().Debug("scale cache miss",
			slog.Uint64("raster", src.id),
			slog.Float64("factor", factor),
			slog.Int("width", src.Width()),
			slog.Int("height", src.Height()))
		return wrapRGBA(resample.Scale(src.img, factor, c.mode))
	}), nil
}

// Invalidate drops every cached rescale of src and returns how many
// entries were removed.
func (c *ScaleCache) Invalidate(src *Raster) int {
	if src == nil {
		return 0
	}
	return c.entries.DeleteFunc(func(k scaleKey) bool {
		return k.id == src.id
	})
}

// Clear drops every entry.
func (c *ScaleCache) Clear() {
	c.entries.Clear()
}

// Len returns the number of cached rasters.
func (c *ScaleCache) Len() int {
	return c.entries.Len()
}

// ScaleCacheStats reports cache effectiveness.
type ScaleCacheStats = cache.Stats

// Stats returns a snapshot of the cache counters.
func (c *ScaleCache) Stats() ScaleCacheStats {
	return c.entries.Stats()
}

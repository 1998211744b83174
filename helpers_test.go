package tilemap

import (
	"image"
	"image/color"
	"testing"
)

// tileColor is the solid color of tile i in a test atlas.
func tileColor(i int) color.RGBA {
	return color.RGBA{R: uint8(20 + i*9), G: uint8(200 - i*5), B: uint8(i * 13), A: 255}
}

// solidAtlasRaster returns a cols x rows grid of tw x th tiles, each
// filled with tileColor of its index.
func solidAtlasRaster(cols, rows, tw, th int) *Raster {
	r := NewRaster(cols*tw, rows*th)
	for row := range rows {
		for col := range cols {
			tl := image.Pt(col*tw, row*th)
			r.Fill(image.Rectangle{Min: tl, Max: tl.Add(image.Pt(tw, th))}, tileColor(row*cols+col))
		}
	}
	return r
}

// newTestAtlas returns a 4x4 atlas of 16x16 solid tiles.
func newTestAtlas(t *testing.T, opts ...AtlasOption) *Atlas {
	t.Helper()
	a, err := NewAtlas(solidAtlasRaster(4, 4, 16, 16), opts...)
	if err != nil {
		t.Fatalf("NewAtlas() error = %v", err)
	}
	return a
}

func rgbaAt(r *Raster, x, y int) color.RGBA {
	return r.RGBA().RGBAAt(x, y)
}

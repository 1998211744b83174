package tilemap

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestAtlasGeometry(t *testing.T) {
	tests := []struct {
		name       string
		srcW, srcH int
		opts       []AtlasOption
		wantCols   int
		wantRows   int
	}{
		{"4x4", 64, 64, nil, 4, 4},
		{"partial tiles dropped", 70, 40, nil, 4, 2},
		{"spacing", 72, 36, []AtlasOption{WithSpacing(2, 2)}, 4, 2},
		{"margin", 66, 66, []AtlasOption{WithMargin(1, 1)}, 4, 4},
		{"margin eats source", 20, 20, []AtlasOption{WithMargin(12, 12)}, 0, 0},
		{"too small", 8, 8, nil, 0, 0},
		{"non-square tiles", 64, 64, []AtlasOption{WithTileSize(32, 16)}, 2, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewAtlas(NewRaster(tt.srcW, tt.srcH), tt.opts...)
			if err != nil {
				t.Fatalf("NewAtlas() error = %v", err)
			}
			if a.Columns() != tt.wantCols || a.Rows() != tt.wantRows {
				t.Errorf("Columns(), Rows() = %d, %d, want %d, %d",
					a.Columns(), a.Rows(), tt.wantCols, tt.wantRows)
			}
			if got, want := a.TileCount(), tt.wantCols*tt.wantRows; got != want {
				t.Errorf("TileCount() = %d, want %d", got, want)
			}
		})
	}
}

func TestAtlasAddressing(t *testing.T) {
	a := newTestAtlas(t)

	if got := a.CoordsOf(5); got != image.Pt(1, 1) {
		t.Errorf("CoordsOf(5) = %v, want (1,1)", got)
	}
	i, err := a.WrapIndex(16)
	if err != nil {
		t.Fatalf("WrapIndex(16) error = %v", err)
	}
	if got := a.CoordsOf(i); got != image.Pt(0, 0) {
		t.Errorf("CoordsOf(WrapIndex(16)) = %v, want (0,0)", got)
	}
	if got, _ := a.WrapIndex(-1); got != 15 {
		t.Errorf("WrapIndex(-1) = %d, want 15", got)
	}
	if got := a.OffsetPerTile(); got != image.Pt(16, 16) {
		t.Errorf("OffsetPerTile() = %v, want (16,16)", got)
	}
}

func TestAtlasCoordsInRange(t *testing.T) {
	for _, opts := range [][]AtlasOption{
		nil,
		{WithSpacing(3, 1)},
		{WithTileSize(8, 24)},
		{WithMargin(2, 2), WithSpacing(1, 1)},
	} {
		a, err := NewAtlas(NewRaster(100, 90), opts...)
		if err != nil {
			t.Fatalf("NewAtlas() error = %v", err)
		}
		for index := -200; index <= 200; index++ {
			w, err := a.WrapIndex(index)
			if err != nil {
				t.Fatalf("WrapIndex(%d) error = %v", index, err)
			}
			c := a.CoordsOf(w)
			if c.X < 0 || c.X >= a.Columns() || c.Y < 0 || c.Y >= a.Rows() {
				t.Fatalf("CoordsOf(WrapIndex(%d)) = %v outside %dx%d",
					index, c, a.Columns(), a.Rows())
			}
		}
	}
}

func TestAtlasTopLeftOf(t *testing.T) {
	tests := []struct {
		name  string
		srcW  int
		opts  []AtlasOption
		index int
		want  image.Point
	}{
		{"plain", 64, nil, 5, image.Pt(16, 16)},
		{"spacing", 72, []AtlasOption{WithSpacing(2, 2)}, 1, image.Pt(18, 0)},
		// The margin is added to the grid coordinates before scaling.
		{"margin first tile", 66, []AtlasOption{WithMargin(1, 1)}, 0, image.Pt(16, 16)},
		{"margin", 66, []AtlasOption{WithMargin(1, 1)}, 5, image.Pt(32, 32)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewAtlas(NewRaster(tt.srcW, tt.srcW), tt.opts...)
			if err != nil {
				t.Fatalf("NewAtlas() error = %v", err)
			}
			if got := a.TopLeftOf(tt.index); got != tt.want {
				t.Errorf("TopLeftOf(%d) = %v, want %v", tt.index, got, tt.want)
			}
		})
	}
}

func TestAtlasSourceRegionOf(t *testing.T) {
	a := newTestAtlas(t)

	r, err := a.SourceRegionOf(5)
	if err != nil {
		t.Fatalf("SourceRegionOf(5) error = %v", err)
	}
	if want := image.Rect(16, 16, 32, 32); r != want {
		t.Errorf("SourceRegionOf(5) = %v, want %v", r, want)
	}

	for _, index := range []int{-1, 16, 100} {
		if _, err := a.SourceRegionOf(index); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("SourceRegionOf(%d) error = %v, want ErrIndexOutOfRange", index, err)
		}
	}

	empty, err := NewAtlas(NewRaster(8, 8))
	if err != nil {
		t.Fatalf("NewAtlas() error = %v", err)
	}
	if _, err := empty.SourceRegionOf(0); !errors.Is(err, ErrEmptyAtlas) {
		t.Errorf("SourceRegionOf() on empty atlas error = %v, want ErrEmptyAtlas", err)
	}
	if _, err := empty.WrapIndex(3); !errors.Is(err, ErrEmptyAtlas) {
		t.Errorf("WrapIndex() on empty atlas error = %v, want ErrEmptyAtlas", err)
	}
}

func TestNewAtlasErrors(t *testing.T) {
	tests := []struct {
		name string
		src  *Raster
		opts []AtlasOption
		want error
	}{
		{"nil source", nil, nil, ErrNilSource},
		{"zero tile", NewRaster(8, 8), []AtlasOption{WithTileSize(0, 8)}, ErrInvalidTileSize},
		{"negative margin", NewRaster(8, 8), []AtlasOption{WithMargin(-1, 0)}, ErrInvalidTileSize},
		{"negative spacing", NewRaster(8, 8), []AtlasOption{WithSpacing(0, -2)}, ErrInvalidTileSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewAtlas(tt.src, tt.opts...); !errors.Is(err, tt.want) {
				t.Errorf("NewAtlas() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAtlasSetters(t *testing.T) {
	a := newTestAtlas(t, WithName("rock"), WithFillColor(color.RGBA{R: 255, A: 255}))
	if a.Name() != "rock" {
		t.Errorf("Name() = %q, want rock", a.Name())
	}
	if a.FillColor() != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("FillColor() = %v, want red", a.FillColor())
	}

	v := a.Version()
	if err := a.SetTileSize(0, 16); !errors.Is(err, ErrInvalidTileSize) {
		t.Errorf("SetTileSize(0, 16) error = %v, want ErrInvalidTileSize", err)
	}
	if a.Version() != v || a.TileSize() != image.Pt(16, 16) {
		t.Error("failed SetTileSize() changed the atlas")
	}

	if err := a.SetTileSize(32, 32); err != nil {
		t.Fatalf("SetTileSize(32, 32) error = %v", err)
	}
	if a.Version() == v {
		t.Error("SetTileSize() did not bump Version()")
	}
	if a.TileCount() != 4 {
		t.Errorf("TileCount() after SetTileSize(32, 32) = %d, want 4", a.TileCount())
	}

	if err := a.SetMargin(-1, 0); !errors.Is(err, ErrInvalidTileSize) {
		t.Errorf("SetMargin(-1, 0) error = %v, want ErrInvalidTileSize", err)
	}
	if err := a.SetSpacing(0, -1); !errors.Is(err, ErrInvalidTileSize) {
		t.Errorf("SetSpacing(0, -1) error = %v, want ErrInvalidTileSize", err)
	}
	if err := a.SetSpacing(0, 0); err != nil {
		t.Errorf("SetSpacing(0, 0) error = %v", err)
	}
	if err := a.SetSource(nil); !errors.Is(err, ErrNilSource) {
		t.Errorf("SetSource(nil) error = %v, want ErrNilSource", err)
	}
	if err := a.SetSource(NewRaster(128, 32)); err != nil {
		t.Fatalf("SetSource() error = %v", err)
	}
	if a.Columns() != 4 || a.Rows() != 1 {
		t.Errorf("Columns(), Rows() after SetSource = %d, %d, want 4, 1", a.Columns(), a.Rows())
	}
}

func TestAtlasAspectRatio(t *testing.T) {
	a, err := NewAtlas(NewRaster(64, 64), WithTileSize(32, 16))
	if err != nil {
		t.Fatalf("NewAtlas() error = %v", err)
	}
	if got := a.AspectRatio(); got != 2 {
		t.Errorf("AspectRatio() = %v, want 2", got)
	}
}

func BenchmarkAtlasSourceRegionOf(b *testing.B) {
	a, _ := NewAtlas(NewRaster(1024, 1024))
	n := a.TileCount()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = a.SourceRegionOf(i % n)
	}
}

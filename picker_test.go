package tilemap

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
)

// newPickerAtlas returns an atlas of n 16x16 solid tiles. n must be below
// 10 or a multiple of 10.
func newPickerAtlas(t *testing.T, n int) *Atlas {
	t.Helper()
	cols, rows := n, 1
	if n >= 10 {
		cols, rows = 10, n/10
	}
	a, err := NewAtlas(solidAtlasRaster(cols, rows, 16, 16))
	if err != nil {
		t.Fatalf("NewAtlas() error = %v", err)
	}
	return a
}

func TestViewportFit(t *testing.T) {
	tests := []struct {
		name   string
		w, h   int
		tw, th int
		n      int
		want   float64
	}{
		{"reference viewport", 322, 160, 16, 16, 50, 1.909188},
		{"exact fit", 320, 160, 16, 16, 50, 2},
		{"half viewport", 160, 80, 16, 16, 50, 1},
		{"never below native", 64, 64, 16, 16, 50, 1},
		{"tile wider than viewport", 16, 200, 16, 16, 4, 1},
		{"tile taller than viewport", 200, 10, 16, 16, 4, 1},
		{"no tiles", 320, 160, 16, 16, 0, 1},
		{"few tiles magnify", 128, 128, 16, 16, 4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ViewportFit(tt.w, tt.h, tt.tw, tt.th, tt.n)
			if math.Abs(got-tt.want) > 1e-4 {
				t.Errorf("ViewportFit(%d, %d, %d, %d, %d) = %v, want %v",
					tt.w, tt.h, tt.tw, tt.th, tt.n, got, tt.want)
			}
			if got < 1 {
				t.Errorf("ViewportFit() = %v, want >= 1", got)
			}
		})
	}
}

func TestViewportFitShrinking(t *testing.T) {
	sizes := []image.Point{{640, 320}, {320, 160}, {160, 80}, {64, 64}, {20, 20}}
	prev := math.Inf(1)
	for _, s := range sizes {
		got := ViewportFit(s.X, s.Y, 16, 16, 50)
		if got > prev {
			t.Errorf("ViewportFit(%v) = %v grew after shrinking from %v", s, got, prev)
		}
		prev = got
	}
}

func TestPickerReferenceLayout(t *testing.T) {
	a := newPickerAtlas(t, 50)
	if a.TileCount() != 50 {
		t.Fatalf("TileCount() = %d, want 50", a.TileCount())
	}
	rect := image.Rect(64, 64, 64+322, 64+160)
	p, err := NewPicker(a, rect)
	if err != nil {
		t.Fatalf("NewPicker() error = %v", err)
	}
	if p.FitFactor() < 1 {
		t.Errorf("FitFactor() = %v, want >= 1", p.FitFactor())
	}
	if p.Columns() != 10 || p.Rows() != 5 {
		t.Errorf("Columns(), Rows() = %d, %d, want 10, 5", p.Columns(), p.Rows())
	}
	cells := p.Cells()
	if len(cells) != 50 {
		t.Fatalf("len(Cells()) = %d, want 50", len(cells))
	}
	var bounds image.Rectangle
	for i, c := range cells {
		if c.Index != i {
			t.Errorf("cell %d Index = %d", i, c.Index)
		}
		bounds = bounds.Union(c.Rect)
	}
	if bounds.Dx() > 322 || bounds.Dy() > 160 || !bounds.In(rect) {
		t.Errorf("cells cover %v, want inside %v", bounds, rect)
	}
	if got := cells[11].Rect; got.Min != image.Pt(64+30, 64+30) || got.Dx() != 30 {
		t.Errorf("cell 11 Rect = %v, want 30 px at (94,94)", got)
	}
}

func TestPickerSelection(t *testing.T) {
	a := newPickerAtlas(t, 50)
	var calls []int
	p, err := NewPicker(a, image.Rect(0, 0, 320, 160), WithOnSelect(func(i int) {
		calls = append(calls, i)
	}))
	if err != nil {
		t.Fatalf("NewPicker() error = %v", err)
	}
	if p.SelectedIndex() != 0 {
		t.Errorf("initial SelectedIndex() = %d, want 0", p.SelectedIndex())
	}

	// Cells are 32 px: (100, 40) is column 3, row 1.
	clicks := []struct {
		pt       image.Point
		consumed bool
		selected int
	}{
		{image.Pt(100, 40), true, 13},
		{image.Pt(5, 5), true, 0},
		{image.Pt(319, 159), true, 49},
		{image.Pt(400, 40), false, 49},
		{image.Pt(-1, 10), false, 49},
		{image.Pt(319, 159), true, 49},
	}
	wantCalls := 0
	for _, c := range clicks {
		if got := p.OnClick(c.pt); got != c.consumed {
			t.Errorf("OnClick(%v) = %v, want %v", c.pt, got, c.consumed)
		}
		if c.consumed {
			wantCalls++
		}
		if p.SelectedIndex() != c.selected {
			t.Errorf("after OnClick(%v) SelectedIndex() = %d, want %d", c.pt, p.SelectedIndex(), c.selected)
		}
		if n := countSelected(p); n != 1 {
			t.Errorf("after OnClick(%v) %d cells selected, want 1", c.pt, n)
		}
	}
	if len(calls) != wantCalls {
		t.Errorf("callback ran %d times, want %d", len(calls), wantCalls)
	}
	if len(calls) > 0 && calls[0] != 13 {
		t.Errorf("first callback index = %d, want 13", calls[0])
	}
}

func countSelected(p *Picker) int {
	n := 0
	for _, c := range p.Cells() {
		if c.State == CellSelected {
			n++
		}
	}
	return n
}

func TestPickerSelectionInvariantManyClicks(t *testing.T) {
	a := newPickerAtlas(t, 30)
	p, _ := NewPicker(a, image.Rect(0, 0, 200, 120))
	for i := range 500 {
		pt := image.Pt((i*37)%260-30, (i*53)%180-30)
		p.OnClick(pt)
		p.Update(pt)
		if n := countSelected(p); n != 1 {
			t.Fatalf("click %d at %v: %d cells selected, want 1", i, pt, n)
		}
	}
}

func TestPickerHover(t *testing.T) {
	a := newPickerAtlas(t, 50)
	p, _ := NewPicker(a, image.Rect(0, 0, 320, 160))
	_ = p.SetSelected(2)

	p.Update(image.Pt(100, 40))
	cells := p.Cells()
	if cells[13].State != CellHovered {
		t.Errorf("cell 13 State = %v, want Hovered", cells[13].State)
	}
	if cells[2].State != CellSelected {
		t.Errorf("cell 2 State = %v, want Selected", cells[2].State)
	}
	if cells[14].State != CellNormal {
		t.Errorf("cell 14 State = %v, want Normal", cells[14].State)
	}

	p.Update(image.Pt(70, 5))
	if got := p.Cells()[2].State; got != CellSelected {
		t.Errorf("hovering the selected cell: State = %v, want Selected", got)
	}
	p.Update(image.Pt(1000, 1000))
	for i, c := range p.Cells() {
		if c.State == CellHovered {
			t.Errorf("cell %d still hovered after pointer left", i)
		}
	}
}

func TestPickerSetSelected(t *testing.T) {
	a := newPickerAtlas(t, 20)
	called := false
	p, _ := NewPicker(a, image.Rect(0, 0, 200, 100), WithOnSelect(func(int) { called = true }))

	if err := p.SetSelected(7); err != nil {
		t.Fatalf("SetSelected(7) error = %v", err)
	}
	if p.SelectedIndex() != 7 {
		t.Errorf("SelectedIndex() = %d, want 7", p.SelectedIndex())
	}
	if called {
		t.Error("SetSelected() ran the click callback")
	}
	for _, i := range []int{-1, 20} {
		if err := p.SetSelected(i); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("SetSelected(%d) error = %v, want ErrIndexOutOfRange", i, err)
		}
	}
	if p.SelectedIndex() != 7 {
		t.Errorf("SelectedIndex() after failed set = %d, want 7", p.SelectedIndex())
	}
}

func TestPickerRebuild(t *testing.T) {
	a := newPickerAtlas(t, 50)
	p, _ := NewPicker(a, image.Rect(0, 0, 320, 160))
	_ = p.SetSelected(40)

	if err := p.SetRect(image.Rect(10, 10, 170, 90)); err != nil {
		t.Fatalf("SetRect() error = %v", err)
	}
	if p.FitFactor() != 1 {
		t.Errorf("FitFactor() after shrink = %v, want 1", p.FitFactor())
	}
	if p.SelectedIndex() != 40 {
		t.Errorf("SelectedIndex() after SetRect = %d, want 40", p.SelectedIndex())
	}
	if got := p.Cells()[0].Rect; got != image.Rect(10, 10, 26, 26) {
		t.Errorf("cell 0 Rect = %v, want (10,10)-(26,26)", got)
	}

	// A smaller atlas drops the selection back to the first tile.
	if err := p.SetAtlas(newPickerAtlas(t, 4)); err != nil {
		t.Fatalf("SetAtlas() error = %v", err)
	}
	if p.Len() != 4 || p.SelectedIndex() != 0 {
		t.Errorf("Len(), SelectedIndex() = %d, %d, want 4, 0", p.Len(), p.SelectedIndex())
	}
	if countSelected(p) != 1 {
		t.Errorf("%d cells selected after rebuild, want 1", countSelected(p))
	}

	// Atlas mutations are picked up on the next read.
	if err := p.Atlas().SetTileSize(8, 16); err != nil {
		t.Fatalf("SetTileSize() error = %v", err)
	}
	if p.Len() != 8 {
		t.Errorf("Len() after SetTileSize = %d, want 8", p.Len())
	}
}

func TestPickerInvalidRect(t *testing.T) {
	a := newPickerAtlas(t, 10)
	if _, err := NewPicker(a, image.Rect(0, 0, 0, 50)); !errors.Is(err, ErrInvalidScaleFactor) {
		t.Errorf("NewPicker(zero width) error = %v, want ErrInvalidScaleFactor", err)
	}
	p, _ := NewPicker(a, image.Rect(0, 0, 100, 50))
	if err := p.SetRect(image.Rect(0, 0, 100, 0)); !errors.Is(err, ErrInvalidScaleFactor) {
		t.Errorf("SetRect(zero height) error = %v, want ErrInvalidScaleFactor", err)
	}
	if p.Rect() != image.Rect(0, 0, 100, 50) {
		t.Errorf("Rect() after failed SetRect = %v", p.Rect())
	}
	if _, err := NewPicker(nil, image.Rect(0, 0, 10, 10)); !errors.Is(err, ErrNilSource) {
		t.Errorf("NewPicker(nil) error = %v, want ErrNilSource", err)
	}
}

func TestPickerEmptyAtlas(t *testing.T) {
	empty, _ := NewAtlas(NewRaster(4, 4))
	called := false
	p, err := NewPicker(empty, image.Rect(0, 0, 100, 100), WithOnSelect(func(int) { called = true }))
	if err != nil {
		t.Fatalf("NewPicker() error = %v", err)
	}
	if p.Len() != 0 || p.SelectedIndex() != -1 {
		t.Errorf("Len(), SelectedIndex() = %d, %d, want 0, -1", p.Len(), p.SelectedIndex())
	}
	if p.OnClick(image.Pt(5, 5)) || called {
		t.Error("click on an empty picker was consumed")
	}
	if err := p.SetSelected(0); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("SetSelected(0) error = %v, want ErrIndexOutOfRange", err)
	}
	dst := NewRaster(100, 100)
	p.Draw(dst)
	if dst.Generation() != 0 || !dst.Equal(NewRaster(100, 100)) {
		t.Error("Draw() on an empty picker changed dst")
	}
}

func TestPickerCellRegionPastSourceEdge(t *testing.T) {
	a := newTestAtlas(t, WithMargin(1, 1), WithSpacing(1, 1))
	p, err := NewPicker(a, image.Rect(0, 0, 200, 100))
	if err != nil {
		t.Fatalf("NewPicker() error = %v", err)
	}
	cell := p.Cells()[2]
	img := cell.image()
	w := cell.Rect.Dx()
	if got, want := rgbaAt(img, 0, 0), rgbaAt(a.Source(), 51, 17); got != want {
		t.Errorf("cell pixel (0,0) = %v, want %v", got, want)
	}
	// Tile 2 reaches 3px past the source's right edge.
	if got := rgbaAt(img, w-1, 0); got != (color.RGBA{}) {
		t.Errorf("cell pixel (%d,0) = %v, want transparent", w-1, got)
	}
}

func TestPickerDraw(t *testing.T) {
	a := newPickerAtlas(t, 50)
	bg := color.RGBA{R: 90, G: 90, B: 90, A: 255}
	p, _ := NewPicker(a, image.Rect(0, 0, 330, 170))
	_ = p.SetSelected(1)
	p.Update(image.Pt(70, 5)) // cell 2

	dst := NewRaster(400, 200)
	p.Draw(dst)

	// A fit of about 2.06 gives 32 px cells every 32.98 px.
	if got := rgbaAt(dst, 16, 16); got != tileColor(0) {
		t.Errorf("normal cell pixel = %v, want %v", got, tileColor(0))
	}
	if got := rgbaAt(dst, 32, 0); got != (color.RGBA{A: 255}) {
		t.Errorf("selected cell border pixel = %v, want black", got)
	}
	if got, want := rgbaAt(dst, 80, 16), tinted(tileColor(2)); got != want {
		t.Errorf("hovered cell pixel = %v, want %v", got, want)
	}
	if got := rgbaAt(dst, 325, 165); got != bg {
		t.Errorf("background pixel = %v, want %v", got, bg)
	}
	if got := rgbaAt(dst, 350, 10); got != (color.RGBA{}) {
		t.Errorf("pixel outside the viewport = %v, want transparent", got)
	}

	// Tints live on private copies.
	if got := rgbaAt(p.cells[2].normal, 5, 5); got != tileColor(2) {
		t.Errorf("normal image of hovered cell = %v, want untinted %v", got, tileColor(2))
	}
}

func tinted(c color.RGBA) color.RGBA {
	add := func(v uint8) uint8 { return uint8(min(int(v)+hoverTint, 255)) }
	return color.RGBA{R: add(c.R), G: add(c.G), B: add(c.B), A: c.A}
}

func TestPickerLabels(t *testing.T) {
	face, err := DefaultLabelFace(10)
	if err != nil {
		t.Fatalf("DefaultLabelFace() error = %v", err)
	}
	t.Cleanup(func() { _ = face.Close() })

	a := newPickerAtlas(t, 4)
	plain, _ := NewPicker(a, image.Rect(0, 0, 128, 128))
	labeled, _ := NewPicker(a, image.Rect(0, 0, 128, 128), WithLabels(face, color.White))
	if labeled.FitFactor() != 4 {
		t.Fatalf("FitFactor() = %v, want 4", labeled.FitFactor())
	}
	if plain.Cells()[3].normal.Equal(labeled.Cells()[3].normal) {
		t.Error("label was not drawn on the cell image")
	}
}

func TestCellStateString(t *testing.T) {
	tests := []struct {
		s    CellState
		want string
	}{
		{CellNormal, "Normal"},
		{CellHovered, "Hovered"},
		{CellSelected, "Selected"},
		{CellState(9), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("CellState(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}

func BenchmarkPickerRebuild(b *testing.B) {
	a, _ := NewAtlas(solidAtlasRaster(10, 10, 16, 16))
	p, _ := NewPicker(a, image.Rect(0, 0, 322, 160))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.stale = true
		p.ensure()
	}
}

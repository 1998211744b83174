package tilemap

import (
	"image"
	"image/color"
	"log/slog"
	"math"
	"strconv"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/tilemap/internal/resample"
)

// hoverTint is added to each RGB channel of a hovered cell.
const hoverTint = 45

// CellState is the visual state of a picker cell.
type CellState uint8

const (
	// CellNormal is an idle cell.
	CellNormal CellState = iota
	// CellHovered is under the pointer.
	CellHovered
	// CellSelected is the single selected cell.
	CellSelected
)

// String returns a string representation of the state.
func (s CellState) String() string {
	switch s {
	case CellNormal:
		return "Normal"
	case CellHovered:
		return "Hovered"
	case CellSelected:
		return "Selected"
	default:
		return "Unknown"
	}
}

// PickerCell is one selectable atlas tile in a Picker.
type PickerCell struct {
	// Index is the atlas tile index.
	Index int
	// Rect is the cell's area in viewport coordinates.
	Rect image.Rectangle
	// State is the current visual state.
	State CellState

	normal   *Raster
	hovered  *Raster
	selected *Raster
}

// image returns the private raster for the cell's state.
func (c *PickerCell) image() *Raster {
	switch c.State {
	case CellHovered:
		return c.hovered
	case CellSelected:
		return c.selected
	default:
		return c.normal
	}
}

// ViewportFit returns the largest uniform scale s >= 1 at which a grid of n
// tiles of size tw x th covers a w x h viewport best without scrolling.
//
// Each axis is tried as the dominant one: its remainder is spread across
// its tiles to get an effective tile length, the other axis follows from
// the aspect ratio and is truncated to whole tiles. The smaller of the two
// covered areas, relative to the native area of all tiles, gives s².
func ViewportFit(w, h, tw, th, n int) float64 {
	if n <= 0 || tw <= 0 || th <= 0 || tw >= w || th >= h {
		return 1
	}
	fw, fh := float64(w), float64(h)
	ftw, fth := float64(tw), float64(th)
	total := ftw * fth * float64(n)
	aspect := ftw / fth

	// Width dominant.
	ax := math.Mod(fw, ftw)/(fw/ftw) + ftw
	ay := ax / aspect
	factorA := fw * (fh - math.Mod(fh, ay)) / total

	// Height dominant.
	by := math.Mod(fh, fth)/(fh/fth) + fth
	bx := by * aspect
	factorB := (fw - math.Mod(fw, bx)) * fh / total

	return math.Max(math.Sqrt(math.Min(factorA, factorB)), 1)
}

// Picker lays out every tile of an atlas as a selectable cell inside a
// viewport rectangle, scaled by the ViewportFit factor.
//
// Exactly one cell is selected whenever the atlas has tiles. Changing the
// rectangle, the atlas or the label face marks the layout stale; it is
// rebuilt on the next call that reads it, and the selection survives if
// still in range or falls back to tile 0.
type Picker struct {
	atlas   *Atlas
	rect    image.Rectangle
	version uint64
	stale   bool

	fit        float64
	cols, rows int
	cells      []PickerCell
	selected   int
	hovered    int

	onSelect    func(index int)
	background  color.RGBA
	border      color.RGBA
	borderWidth int
	labels      *LabelFace
	labelColor  color.RGBA
	mode        InterpolationMode
}

// PickerOption configures a Picker during creation.
type PickerOption func(*Picker)

// WithOnSelect registers a callback run once for every click that lands on
// a cell.
func WithOnSelect(fn func(index int)) PickerOption {
	return func(p *Picker) {
		p.onSelect = fn
	}
}

// WithPickerBackground sets the viewport background. Defaults to
// (90, 90, 90).
func WithPickerBackground(c color.Color) PickerOption {
	return func(p *Picker) {
		p.background = color.RGBAModel.Convert(c).(color.RGBA)
	}
}

// WithBorder sets the outline drawn around the selected cell.
// Defaults to 1 pixel of black.
func WithBorder(width int, c color.Color) PickerOption {
	return func(p *Picker) {
		p.borderWidth = max(width, 0)
		p.border = color.RGBAModel.Convert(c).(color.RGBA)
	}
}

// WithLabels draws each cell's index with face in color c.
func WithLabels(face *LabelFace, c color.Color) PickerOption {
	return func(p *Picker) {
		p.labels = face
		p.labelColor = color.RGBAModel.Convert(c).(color.RGBA)
	}
}

// WithPickerInterpolation sets the resampling used for cell images.
func WithPickerInterpolation(m InterpolationMode) PickerOption {
	return func(p *Picker) {
		p.mode = m
	}
}

// NewPicker creates a picker for atlas inside rect. A rectangle with a
// non-positive dimension fails with ErrInvalidScaleFactor.
func NewPicker(atlas *Atlas, rect image.Rectangle, opts ...PickerOption) (*Picker, error) {
	if atlas == nil {
		return nil, ErrNilSource
	}
	if err := checkViewport(rect); err != nil {
		return nil, err
	}
	p := &Picker{
		atlas:       atlas,
		rect:        rect,
		stale:       true,
		fit:         1,
		hovered:     -1,
		background:  color.RGBA{R: 90, G: 90, B: 90, A: 255},
		border:      color.RGBA{A: 255},
		borderWidth: 1,
		labelColor:  color.RGBA{R: 255, G: 255, B: 255, A: 255},
		mode:        InterpNearest,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func checkViewport(r image.Rectangle) error {
	if r.Dx() <= 0 || r.Dy() <= 0 {
		return errors.Wrapf(ErrInvalidScaleFactor, "picker viewport %v", r)
	}
	return nil
}

// Rect returns the viewport rectangle.
func (p *Picker) Rect() image.Rectangle {
	return p.rect
}

// SetRect moves or resizes the viewport. A rectangle with a non-positive
// dimension fails with ErrInvalidScaleFactor and changes nothing.
func (p *Picker) SetRect(r image.Rectangle) error {
	if err := checkViewport(r); err != nil {
		return err
	}
	if r != p.rect {
		p.rect = r
		p.stale = true
	}
	return nil
}

// Atlas returns the atlas being picked from.
func (p *Picker) Atlas() *Atlas {
	return p.atlas
}

// SetAtlas switches to another atlas.
func (p *Picker) SetAtlas(a *Atlas) error {
	if a == nil {
		return ErrNilSource
	}
	p.atlas = a
	p.stale = true
	return nil
}

// SetLabels changes the label face; nil disables labels.
func (p *Picker) SetLabels(face *LabelFace) {
	p.labels = face
	p.stale = true
}

// SetOnSelect replaces the selection callback.
func (p *Picker) SetOnSelect(fn func(index int)) {
	p.onSelect = fn
}

// FitFactor returns the scale applied to every cell.
func (p *Picker) FitFactor() float64 {
	p.ensure()
	return p.fit
}

// Columns returns the number of cells per picker row.
func (p *Picker) Columns() int {
	p.ensure()
	return p.cols
}

// Rows returns the number of cell rows that fit the viewport.
func (p *Picker) Rows() int {
	p.ensure()
	return p.rows
}

// Len returns the number of cells.
func (p *Picker) Len() int {
	p.ensure()
	return len(p.cells)
}

// Cells returns a copy of the cell layout.
func (p *Picker) Cells() []PickerCell {
	p.ensure()
	return append([]PickerCell(nil), p.cells...)
}

// SelectedIndex returns the selected atlas index, or -1 when the atlas has
// no tiles.
func (p *Picker) SelectedIndex() int {
	p.ensure()
	if len(p.cells) == 0 {
		return -1
	}
	return p.selected
}

// SetSelected selects index without running the callback. An index
// outside the cells fails with ErrIndexOutOfRange.
func (p *Picker) SetSelected(index int) error {
	p.ensure()
	if index < 0 || index >= len(p.cells) {
		return errors.Wrapf(ErrIndexOutOfRange, "picker cell %d of %d", index, len(p.cells))
	}
	p.selected = index
	p.applyStates()
	return nil
}

// Update recomputes hover state from the pointer position. Call it once
// per tick before Draw.
func (p *Picker) Update(pointer image.Point) {
	p.ensure()
	p.hovered = p.cellAt(pointer)
	p.applyStates()
}

// OnClick selects the cell under pointer and runs the callback. It
// reports whether the click landed on a cell.
func (p *Picker) OnClick(pointer image.Point) bool {
	p.ensure()
	i := p.cellAt(pointer)
	if i < 0 {
		return false
	}
	p.selected = i
	p.applyStates()
	if p.onSelect != nil {
		p.onSelect(i)
	}
	return true
}

// cellAt returns the index of the cell containing pt, or -1.
func (p *Picker) cellAt(pt image.Point) int {
	if !pt.In(p.rect) {
		return -1
	}
	for i := range p.cells {
		if pt.In(p.cells[i].Rect) {
			return i
		}
	}
	return -1
}

func (p *Picker) applyStates() {
	for i := range p.cells {
		switch {
		case i == p.selected:
			p.cells[i].State = CellSelected
		case i == p.hovered:
			p.cells[i].State = CellHovered
		default:
			p.cells[i].State = CellNormal
		}
	}
}

// Draw paints the background and every cell in its current state.
// A picker without cells draws nothing.
func (p *Picker) Draw(dst *Raster) {
	p.ensure()
	if len(p.cells) == 0 {
		return
	}
	dst.Fill(p.rect, p.background)
	for i := range p.cells {
		c := &p.cells[i]
		img := c.image()
		xdraw.Draw(dst.img, c.Rect, img.img, image.Point{}, xdraw.Over)
	}
	dst.Touch()
}

// ensure rebuilds the layout if stale.
func (p *Picker) ensure() {
	if !p.stale && p.version == p.atlas.Version() {
		return
	}
	p.rebuild()
}

// rebuild recomputes the fit factor and recreates every cell.
func (p *Picker) rebuild() {
	n := p.atlas.TileCount()
	ts := p.atlas.TileSize()
	w, h := p.rect.Dx(), p.rect.Dy()

	p.fit = ViewportFit(w, h, ts.X, ts.Y, n)
	step := mgl64.Vec2{float64(ts.X) * p.fit, float64(ts.Y) * p.fit}
	p.cols = max(int(math.Floor(float64(w)/step.X())), 1)
	p.rows = max(int(math.Floor(float64(h)/step.Y())), 1)
	cw, ch := resample.ScaledSize(ts.X, ts.Y, p.fit)

	p.cells = make([]PickerCell, n)
	for i := range n {
		col, row := i%p.cols, i/p.cols
		tl := p.rect.Min.Add(image.Pt(
			int(math.Floor(float64(col)*step.X())),
			int(math.Floor(float64(row)*step.Y())),
		))
		c := &p.cells[i]
		c.Index = i
		c.Rect = image.Rect(tl.X, tl.Y, tl.X+cw, tl.Y+ch)
		c.normal = p.cellImage(i, cw, ch)
		c.hovered = tint(c.normal, hoverTint)
		c.selected = c.hovered.Clone()
		c.selected.strokeInset(p.borderWidth, p.border)
	}

	if p.selected < 0 || p.selected >= n {
		p.selected = 0
	}
	if p.hovered >= n {
		p.hovered = -1
	}
	p.applyStates()
	p.version = p.atlas.Version()
	p.stale = false

	Logger().Debug("picker rebuild",
		slog.Int("cells", n),
		slog.Float64("fit", p.fit),
		slog.Int("columns", p.cols),
		slog.Int("rows", p.rows))
}

// cellImage renders tile i at w x h with its optional label.
func (p *Picker) cellImage(i, w, h int) *Raster {
	r := wrapRGBA(resample.Resize(p.atlas.source.img, p.atlas.regionOf(i), w, h, p.mode))
	if p.labels != nil {
		label := strconv.Itoa(i)
		if p.labels.Advance(label) <= float64(w-2) && p.labels.Ascent() <= h-2 {
			p.labels.Draw(r.img, label, image.Pt(2, h-2), p.labelColor)
			r.Touch()
		}
	}
	return r
}

// tint returns a copy of src with delta added to every RGB channel,
// saturating at 255. Transparent pixels stay transparent.
func tint(src *Raster, delta uint8) *Raster {
	out := src.Clone()
	pix := out.img.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		if pix[i+3] == 0 {
			continue
		}
		for j := range 3 {
			v := int(pix[i+j]) + int(delta)
			// Premultiplied: a channel may not exceed alpha.
			pix[i+j] = uint8(min(v, int(pix[i+3])))
		}
	}
	return out
}

package tilemap

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"

	"github.com/go-text/typesetting/di"
	gotext "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// LabelFace renders short text labels, such as tile indices on picker
// cells. Glyphs are rasterized with golang.org/x/image/font; widths are
// measured with HarfBuzz shaping from go-text/typesetting so that kerning
// is taken into account when deciding whether a label fits.
//
// A LabelFace is not safe for concurrent use.
type LabelFace struct {
	size   float64
	face   font.Face
	shaped *gotext.Face
	shaper shaping.HarfbuzzShaper
}

// NewLabelFace parses TrueType or OpenType data at size pixels per em.
func NewLabelFace(data []byte, size float64) (*LabelFace, error) {
	if size <= 0 {
		return nil, errors.Errorf("tilemap: label size %v", size)
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, "tilemap: parse label font")
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, errors.Wrap(err, "tilemap: create label face")
	}
	shaped, err := gotext.ParseTTF(bytes.NewReader(data))
	if err != nil {
		_ = face.Close()
		return nil, errors.Wrap(err, "tilemap: parse label font for shaping")
	}
	return &LabelFace{size: size, face: face, shaped: shaped}, nil
}

// DefaultLabelFace returns a LabelFace using the Go Regular font.
func DefaultLabelFace(size float64) (*LabelFace, error) {
	return NewLabelFace(goregular.TTF, size)
}

// Size returns the size in pixels per em.
func (f *LabelFace) Size() float64 {
	return f.size
}

// Ascent returns the distance from the top of a line to its baseline.
func (f *LabelFace) Ascent() int {
	return f.face.Metrics().Ascent.Ceil()
}

// Height returns the recommended line height in pixels.
func (f *LabelFace) Height() int {
	return f.face.Metrics().Height.Ceil()
}

// Advance returns the shaped width of s in pixels.
func (f *LabelFace) Advance(s string) float64 {
	if s == "" {
		return 0
	}
	runes := []rune(s)
	out := f.shaper.Shape(shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      f.shaped,
		Size:      fixed.Int26_6(f.size * 64),
		Script:    language.LookupScript(runes[0]),
		Language:  language.NewLanguage("en"),
	})
	return float64(out.Advance) / 64
}

// Draw renders s with its baseline starting at dot.
func (f *LabelFace) Draw(dst draw.Image, s string, dot image.Point, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: f.face,
		Dot:  fixed.P(dot.X, dot.Y),
	}
	d.DrawString(s)
}

// Close releases the rasterizer face.
func (f *LabelFace) Close() error {
	return f.face.Close()
}

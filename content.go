package tilemap

import (
	"fmt"
	"image/color"
)

// TileContent is what a cell shows: either a tile from the atlas
// (AtlasTile) or a solid color (FlatFill).
type TileContent interface {
	fmt.Stringer
	isTileContent()
}

// AtlasTile selects a tile of the cell's atlas by row-major index.
// Indices are wrapped into range when assigned to a cell.
type AtlasTile struct {
	Index int
}

// FlatFill paints the whole cell with one color and samples no atlas
// pixels. A nil Color uses the atlas fill color.
type FlatFill struct {
	Color color.Color
}

func (AtlasTile) isTileContent() {}
func (FlatFill) isTileContent()  {}

func (t AtlasTile) String() string {
	return fmt.Sprintf("tile %d", t.Index)
}

func (f FlatFill) String() string {
	if f.Color == nil {
		return "flat fill"
	}
	r, g, b, a := f.Color.RGBA()
	return fmt.Sprintf("flat fill #%02x%02x%02x%02x", r>>8, g>>8, b>>8, a>>8)
}

// fillColor resolves the color of a flat fill against an atlas.
func (f FlatFill) fillColor(a *Atlas) color.Color {
	if f.Color == nil {
		return a.FillColor()
	}
	return f.Color
}

// normalizeContent wraps atlas indices into range. A nil content means
// tile 0.
func normalizeContent(c TileContent, a *Atlas) (TileContent, error) {
	switch c := c.(type) {
	case nil:
		return normalizeContent(AtlasTile{}, a)
	case AtlasTile:
		i, err := a.WrapIndex(c.Index)
		if err != nil {
			return nil, err
		}
		return AtlasTile{Index: i}, nil
	case *AtlasTile:
		return normalizeContent(*c, a)
	case *FlatFill:
		return *c, nil
	default:
		return c, nil
	}
}

package tilemap

import (
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// LoadRaster decodes an image file (PNG, JPEG, GIF, BMP, TIFF or WebP)
// into a Raster.
func LoadRaster(path string) (*Raster, error) {
	f, err := os.Open(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return nil, errors.Wrap(err, "tilemap: open image")
	}
	defer func() {
		_ = f.Close()
	}()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "tilemap: decode %s", path)
	}
	Logger().Debug("decoded image",
		slog.String("path", path),
		slog.String("format", format),
		slog.Int("width", img.Bounds().Dx()),
		slog.Int("height", img.Bounds().Dy()))
	return RasterFromImage(img), nil
}

// LoadAtlasFile loads an atlas from an image file. Unless WithName is
// given, the atlas is named after the file (see AtlasNameFromPath).
func LoadAtlasFile(path string, opts ...AtlasOption) (*Atlas, error) {
	src, err := LoadRaster(path)
	if err != nil {
		return nil, err
	}
	opts = append([]AtlasOption{WithName(AtlasNameFromPath(path))}, opts...)
	return NewAtlas(src, opts...)
}

// AtlasNameFromPath derives a display name from an atlas file path:
// the base name without extension, with separators turned into spaces and
// each word title-cased. "textured_rock-02.png" becomes "Textured Rock 02".
func AtlasNameFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	words := strings.FieldsFunc(base, func(r rune) bool {
		return r == '_' || r == '-' || r == ' ' || r == '.'
	})
	return cases.Title(language.English).String(strings.Join(words, " "))
}

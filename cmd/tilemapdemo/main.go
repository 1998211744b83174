// Command tilemapdemo renders a randomly painted map and a tile picker to
// a PNG file.
//
// Usage:
//
//	tilemapdemo -manifest editor.toml -output map.png
//
// Without a manifest a synthetic checker atlas is used.
package main

import (
	"flag"
	"image"
	"image/color"
	"log"
	"log/slog"
	"os"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/tilemap"
)

func main() {
	var (
		manifest = flag.String("manifest", "", "editor manifest (TOML)")
		output   = flag.String("output", "tilemap.png", "output file")
		width    = flag.Int("width", 960, "image width")
		height   = flag.Int("height", 640, "image height")
		seed     = flag.Uint64("seed", 1, "random fill seed")
		scale    = flag.Float64("scale", 0, "display scale (0 uses the manifest)")
		watch    = flag.Bool("watch", false, "apply pending atlas file changes before drawing")
		verbose  = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *verbose {
		tilemap.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	cfg, atlases, err := loadAtlases(*manifest)
	if err != nil {
		log.Fatalf("Failed to load atlases: %v", err)
	}

	if *watch && *manifest != "" {
		w, err := tilemap.NewAtlasWatcher()
		if err != nil {
			log.Fatalf("Failed to start watcher: %v", err)
		}
		defer func() { _ = w.Close() }()
		for i, ac := range cfg.Atlases {
			if err := w.Watch(ac.ResolvePath(cfg.Dir), atlases[i]); err != nil {
				log.Fatalf("Failed to watch %s: %v", ac.Path, err)
			}
		}
		for _, a := range w.Poll() {
			log.Printf("Reloaded %s", a.Name())
		}
	}

	size, err := cfg.MapSize()
	if err != nil {
		log.Fatal(err)
	}
	f := cfg.Scale()
	if *scale > 0 {
		f = *scale
	}
	mode, err := cfg.Interpolation()
	if err != nil {
		log.Fatal(err)
	}

	pickerRect, ok, err := cfg.PickerRect()
	if err != nil {
		log.Fatal(err)
	}
	if !ok {
		pickerRect = image.Rect(*width-320, 0, *width, 160)
	}

	m, err := tilemap.NewMap(size.X, size.Y, atlases,
		tilemap.WithDisplayScale(f),
		tilemap.WithLayerOptions(
			tilemap.WithSeed(*seed),
			tilemap.WithLayerInterpolation(mode),
			tilemap.WithBackground(color.RGBA{R: 30, G: 30, B: 36, A: 255}),
		))
	if err != nil {
		log.Fatalf("Failed to create map: %v", err)
	}
	if err := m.AppendLayer(nil, true); err != nil {
		log.Fatalf("Failed to add layer: %v", err)
	}
	ground, err := m.Layer(0)
	if err != nil {
		log.Fatal(err)
	}
	if err := ground.FillRandom(0, ground.Atlas().TileCount()); err != nil {
		log.Fatalf("Failed to fill layer: %v", err)
	}

	face, err := tilemap.DefaultLabelFace(10)
	if err != nil {
		log.Fatalf("Failed to load font: %v", err)
	}
	defer func() { _ = face.Close() }()

	picker, err := tilemap.NewPicker(m.DefaultAtlas(), pickerRect,
		tilemap.WithLabels(face, color.White),
		tilemap.WithPickerInterpolation(mode),
		tilemap.WithOnSelect(func(i int) {
			_ = ground.SetGhostContent(tilemap.AtlasTile{Index: i})
		}))
	if err != nil {
		log.Fatalf("Failed to create picker: %v", err)
	}

	// Pick the second tile and hover the ghost over the middle of the view.
	if cells := picker.Cells(); len(cells) > 1 {
		picker.OnClick(cells[1].Rect.Min)
	}
	center := mgl64.Vec2{float64(*width) / 2, float64(*height) / 2}
	m.Update(center)
	picker.Update(pickerRect.Min)

	dst := tilemap.NewRaster(*width, *height)
	m.Draw(dst)
	picker.Draw(dst)

	if err := dst.SavePNG(*output); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	log.Printf("%s\nSaved to %s (%dx%d)", m, *output, *width, *height)
}

// loadAtlases reads the manifest at path, or builds a default one around a
// synthetic atlas when path is empty.
func loadAtlases(path string) (*tilemap.Manifest, []*tilemap.Atlas, error) {
	if path == "" {
		cfg, err := tilemap.DecodeManifest("", ".")
		if err != nil {
			return nil, nil, err
		}
		a, err := tilemap.NewAtlas(checkerAtlas(8, 4, 16), tilemap.WithName("Checker"))
		if err != nil {
			return nil, nil, err
		}
		return cfg, []*tilemap.Atlas{a}, nil
	}
	cfg, err := tilemap.LoadManifest(path)
	if err != nil {
		return nil, nil, err
	}
	atlases, err := cfg.LoadAtlases()
	if err != nil {
		return nil, nil, err
	}
	return cfg, atlases, nil
}

// checkerAtlas returns cols x rows tiles of size px, each a checkerboard
// of two shades of a different hue.
func checkerAtlas(cols, rows, px int) *tilemap.Raster {
	r := tilemap.NewRaster(cols*px, rows*px)
	half := px / 2
	for i := range cols * rows {
		tl := image.Pt(i%cols*px, i/cols*px)
		hue := uint8(i * 255 / (cols * rows))
		light := color.RGBA{R: hue, G: 180, B: 255 - hue, A: 255}
		dark := color.RGBA{R: hue / 2, G: 90, B: (255 - hue) / 2, A: 255}
		r.Fill(image.Rectangle{Min: tl, Max: tl.Add(image.Pt(px, px))}, light)
		r.Fill(image.Rectangle{Min: tl, Max: tl.Add(image.Pt(half, half))}, dark)
		r.Fill(image.Rectangle{Min: tl.Add(image.Pt(half, half)), Max: tl.Add(image.Pt(px, px))}, dark)
	}
	return r
}

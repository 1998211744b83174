// Package tilemap provides the rendering core of a 2D tile-map editor.
//
// # Overview
//
// tilemap maps linear tile indices onto regions of a packed atlas, paints
// tiles into per-layer composite rasters that are rescaled as a whole on
// zoom, and fits an atlas picker grid into a bounded viewport. Window,
// event loop and dialogs belong to the surrounding shell, which feeds
// pointer positions and clicks in and blits the resulting rasters out.
//
// # Quick Start
//
//	import "github.com/gogpu/tilemap"
//
//	atlas, err := tilemap.LoadAtlasFile("rock.png", tilemap.WithTileSize(16, 16))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	layer, _ := tilemap.NewLayer(atlas, 40, 30, tilemap.WithLayerScale(2))
//	_ = layer.FillUniform(tilemap.AtlasTile{Index: 5})
//
//	screen := tilemap.NewRaster(800, 600)
//	layer.Update(mgl64.Vec2{120, 80})
//	layer.Draw(screen)
//	_ = screen.SavePNG("output.png")
//
// # Architecture
//
//   - Atlas: tile geometry and index addressing
//   - ScaleCache: bounded memo of "raster + factor -> rescaled raster"
//   - TileCell: one placed tile, atlas-backed or a flat fill
//   - Layer: grid of cells painted into one composite, ghost preview
//   - Picker: viewport-fit grid of selectable atlas tiles
//   - Map: layer stack with shared offset, scale and active layer
//
// # Coordinate System
//
// Grid positions are integer cells. Pixel positions use the usual raster
// convention: origin at the top-left, X right, Y down. Pointer positions
// and pan offsets are mgl64.Vec2 values in viewport pixels.
//
// # Concurrency
//
// The core is single-threaded and frame-driven: within one tick call
// Update before Draw. Only ScaleCache is safe for concurrent use.
package tilemap

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)

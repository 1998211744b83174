package tilemap

import (
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// AtlasWatcher reloads atlas sources when their files change on disk.
//
// File events are queued by fsnotify and only applied inside Poll, so every
// atlas mutation happens on the goroutine that calls Poll. Call it once per
// tick, before Update and Draw.
type AtlasWatcher struct {
	fs    *fsnotify.Watcher
	paths map[string][]*Atlas
	dirs  map[string]int
}

// NewAtlasWatcher starts an empty watcher.
func NewAtlasWatcher() (*AtlasWatcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "tilemap: start watcher")
	}
	return &AtlasWatcher{
		fs:    fs,
		paths: make(map[string][]*Atlas),
		dirs:  make(map[string]int),
	}, nil
}

// Watch reloads a's source from path whenever the file is written or
// replaced. The parent directory is watched so that editors which save by
// renaming a temporary file are picked up.
func (w *AtlasWatcher) Watch(path string, a *Atlas) error {
	if a == nil {
		return ErrNilSource
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "tilemap: watch %s", path)
	}
	dir := filepath.Dir(abs)
	if w.dirs[dir] == 0 {
		if err := w.fs.Add(dir); err != nil {
			return errors.Wrapf(err, "tilemap: watch %s", dir)
		}
	}
	w.dirs[dir]++
	w.paths[abs] = append(w.paths[abs], a)
	return nil
}

// Watched returns the number of watched files.
func (w *AtlasWatcher) Watched() int {
	return len(w.paths)
}

// Poll applies the file events queued since the last call without
// blocking. It returns the atlases whose source was replaced. A file that
// fails to decode, for example because it is still being written, is
// logged and keeps its previous source.
func (w *AtlasWatcher) Poll() []*Atlas {
	changed := make(map[string]bool)
drain:
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				break drain
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			name, err := filepath.Abs(ev.Name)
			if err != nil {
				continue
			}
			if _, ok := w.paths[name]; ok {
				changed[name] = true
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				break drain
			}
			Logger().Warn("atlas watcher error", slog.String("error", err.Error()))
		default:
			break drain
		}
	}

	var reloaded []*Atlas
	for path := range changed {
		src, err := LoadRaster(path)
		if err != nil {
			Logger().Warn("atlas reload failed",
				slog.String("path", path),
				slog.String("error", err.Error()))
			continue
		}
		for _, a := range w.paths[path] {
			// Cannot fail: src is not nil.
			_ = a.SetSource(src)
			reloaded = append(reloaded, a)
			Logger().Info("atlas reloaded",
				slog.String("atlas", a.Name()),
				slog.String("path", path),
				slog.Int("tiles", a.TileCount()))
		}
	}
	return reloaded
}

// Close stops watching.
func (w *AtlasWatcher) Close() error {
	return w.fs.Close()
}

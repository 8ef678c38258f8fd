package config

import (
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDelay = 100 * time.Millisecond

// CatalogWatcher reloads a theme catalog when its file changes
type CatalogWatcher struct {
	watcher *fsnotify.Watcher
	catalog *ThemeCatalog
	path    string
	Reloads chan string
	closeCh chan struct{}
	once    sync.Once
}

// WatchThemeCatalog starts watching the directory holding path. Editors often
// replace files by rename, so the directory rather than the file is watched.
func WatchThemeCatalog(path string, catalog *ThemeCatalog) (*CatalogWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return nil, err
	}

	cw := &CatalogWatcher{
		watcher: w,
		catalog: catalog,
		path:    filepath.Clean(path),
		Reloads: make(chan string, 16),
		closeCh: make(chan struct{}),
	}
	go cw.run()
	return cw, nil
}

// Close stops the watcher
func (cw *CatalogWatcher) Close() error {
	var err error
	cw.once.Do(func() {
		close(cw.closeCh)
		err = cw.watcher.Close()
	})
	return err
}

func (cw *CatalogWatcher) run() {
	defer close(cw.Reloads)

	// a save arrives as several events; reload once they settle
	var settle <-chan time.Time
	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != cw.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			settle = time.After(reloadDelay)
		case <-settle:
			settle = nil
			if err := cw.catalog.Reload(cw.path); err != nil {
				log.Printf("Theme catalog reload failed: %v", err)
				continue
			}
			log.Printf("Theme catalog reloaded: %d presets", cw.catalog.Len())
			select {
			case cw.Reloads <- cw.path:
			default:
			}
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Theme watcher error: %v", err)
		case <-cw.closeCh:
			return
		}
	}
}

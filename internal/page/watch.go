package page

import (
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Store holds the page config served to requests. Readers always see a complete,
// validated snapshot.
type Store struct {
	current atomic.Pointer[Config]
}

// NewStore returns a store seeded with cfg.
func NewStore(cfg Config) *Store {
	s := &Store{}
	s.Swap(cfg)
	return s
}

// Load returns the current snapshot.
func (s *Store) Load() Config {
	return *s.current.Load()
}

// Swap replaces the current snapshot.
func (s *Store) Swap(cfg Config) {
	cp := cfg.Clone()
	s.current.Store(&cp)
}

// ReloadFunc is called after every reload attempt. err is non-nil when the file could not
// be read, parsed or validated; the store then keeps its previous snapshot.
type ReloadFunc func(cfg Config, err error)

// Watcher reloads a page file into a Store whenever it changes on disk.
type Watcher struct {
	fw       *fsnotify.Watcher
	path     string
	base     Config
	store    *Store
	onReload ReloadFunc
	done     chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

const reloadDebounce = 100 * time.Millisecond

// Watch starts watching path. The parent directory is watched so editors that replace
// the file through a rename are still picked up.
func Watch(path string, base Config, store *Store, onReload ReloadFunc) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, err
	}
	if onReload == nil {
		onReload = func(Config, error) {}
	}
	w := &Watcher{
		fw:       fw,
		path:     abs,
		base:     base.Clone(),
		store:    store,
		onReload: onReload,
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	var timer *time.Timer
	fire := make(chan struct{}, 1)
	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDebounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			w.reload()
		case _, ok := <-w.fw.Errors:
			if !ok {
				return
			}
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := LoadFile(w.path, w.base)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		w.onReload(Config{}, err)
		return
	}
	w.store.Swap(cfg)
	w.onReload(cfg, nil)
}

// Close stops the watcher. Safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fw.Close()
		w.wg.Wait()
	})
	return err
}

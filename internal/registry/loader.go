package registry

import (
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Loader reads a YAML plant registry and watches it for changes.
type Loader struct {
	path     string
	mu       sync.RWMutex
	current  *File
	onChange []func(*File)
	watcher  *fsnotify.Watcher
}

// NewLoader creates a Loader and performs the initial load.
func NewLoader(path string) (*Loader, error) {
	l := &Loader{path: path}
	f, err := l.load()
	if err != nil {
		return nil, err
	}
	l.current = f
	return l, nil
}

// File returns the current (latest) registry contents.
func (l *Loader) File() *File {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers a callback invoked whenever the registry reloads.
func (l *Loader) OnChange(fn func(*File)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Watch starts a background goroutine that re-reads the registry on file
// changes. Call the returned stop function to clean up.
func (l *Loader) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("registry watcher: %w", err)
	}
	if err := w.Add(l.path); err != nil {
		w.Close()
		return nil, fmt.Errorf("registry watcher add %s: %w", l.path, err)
	}
	l.watcher = w

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					f, err := l.load()
					if err != nil {
						// Keep serving the previous registry.
						continue
					}
					l.mu.Lock()
					l.current = f
					callbacks := make([]func(*File), len(l.onChange))
					copy(callbacks, l.onChange)
					l.mu.Unlock()
					for _, fn := range callbacks {
						fn(f)
					}
				}
			case <-w.Errors:
				// Ignore watcher errors.
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }, nil
}

// Reload forces an immediate re-read of the registry file.
func (l *Loader) Reload() (*File, error) {
	f, err := l.load()
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.current = f
	callbacks := make([]func(*File), len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()
	for _, fn := range callbacks {
		fn(f)
	}
	return f, nil
}

func (l *Loader) load() (*File, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read registry %s: %w", l.path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", l.path, err)
	}
	// Apply defaults.
	if f.Routing.Workers == 0 {
		f.Routing.Workers = 8
	}
	if f.Routing.QueueDepth == 0 {
		f.Routing.QueueDepth = 256
	}
	if f.Routing.RunTimeoutMs == 0 {
		f.Routing.RunTimeoutMs = 30000
	}
	return &f, nil
}

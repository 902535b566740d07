package envprobe

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// ConfigModule installs the Config resource. With Watch set, edits to Path are
// parsed on a watcher goroutine and applied at the start of the next frame.
type ConfigModule struct {
	Path  string
	Watch bool
	// Config is used when Path is empty.
	Config *Config
}

// ConfigWatcher delivers reloaded configs to listeners on the frame loop.
type ConfigWatcher struct {
	updates   chan Config
	listeners []func(prev, next Config)
	watcher   *fsnotify.Watcher
	done      chan struct{}
	reloads   int
}

func newConfigWatcher() *ConfigWatcher {
	return &ConfigWatcher{
		updates: make(chan Config, 4),
		done:    make(chan struct{}),
	}
}

// OnReload registers fn to run, inside the frame loop, for every accepted reload.
func (w *ConfigWatcher) OnReload(fn func(prev, next Config)) {
	w.listeners = append(w.listeners, fn)
}

// Reloads counts the configs applied so far.
func (w *ConfigWatcher) Reloads() int { return w.reloads }

// Push queues next as if it was read from disk. It reports false when the queue is full.
func (w *ConfigWatcher) Push(next Config) bool {
	select {
	case w.updates <- next:
		return true
	default:
		return false
	}
}

func (w *ConfigWatcher) start(path string, log Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Editors replace files on save, so the directory is watched.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return err
	}
	w.watcher = watcher
	name := filepath.Clean(path)
	go func() {
		for {
			select {
			case <-w.done:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != name {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				cfg, err := LoadConfig(path)
				if err != nil {
					log.Warnf("Config reload ignored: %v", err)
					continue
				}
				if !w.Push(cfg) {
					log.Warnf("Config reload dropped, %d pending", len(w.updates))
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warnf("Config watcher: %v", err)
			}
		}
	}()
	return nil
}

func (w *ConfigWatcher) close() {
	if w.watcher == nil {
		return
	}
	close(w.done)
	w.watcher.Close()
	w.watcher = nil
}

func (m ConfigModule) Install(app *App, cmd *Commands) {
	cfg := DefaultConfig()
	switch {
	case m.Path != "":
		loaded, err := LoadConfig(m.Path)
		if err != nil {
			app.Logger().Warnf("Using default config: %v", err)
		} else {
			cfg = loaded
		}
	case m.Config != nil:
		cfg = *m.Config
	}
	app.addResources(&cfg)

	w := newConfigWatcher()
	app.addResources(w)
	cmd.UseSystem(System(configReloadSystem).InStage(Prelude))

	if m.Watch && m.Path != "" {
		if err := w.start(m.Path, app.Logger()); err != nil {
			app.Logger().Warnf("Config hot reload disabled: %v", err)
			return
		}
		cmd.OnClose(w.close)
		app.Logger().Infof("Watching %s", m.Path)
	}
}

func configReloadSystem(w *ConfigWatcher, cfg *Config) {
	for {
		select {
		case next := <-w.updates:
			prev := *cfg
			*cfg = next
			w.reloads++
			for _, fn := range w.listeners {
				fn(prev, next)
			}
		default:
			return
		}
	}
}

package feed

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
)

// Watcher signals when the feed file is written, created or replaced.
// Bursts of events are coalesced into a single pending signal.
type Watcher struct {
	watcher *fsnotify.Watcher
	target  string
	changes chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewWatcher watches the directory holding path so the feed can be created after startup.
func NewWatcher(path string) (*Watcher, error) {
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

	w := &Watcher{
		watcher: fw,
		target:  filepath.Clean(abs),
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	w.wg.Go(w.loop)
	return w, nil
}

// Changes returns the signal channel.
func (w *Watcher) Changes() <-chan struct{} { return w.changes }

// Close stops watching and waits for the event loop to exit.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			select {
			case w.changes <- struct{}{}:
			default:
				// Signal already pending
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			contract.Logger().Warn("feed watcher error", zap.String("path", w.target), zap.Error(err))
		}
	}
}

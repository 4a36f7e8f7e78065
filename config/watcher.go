package config

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ChainUpdate is a reparsed chain file, or the error that stopped it from
// parsing.
type ChainUpdate struct {
	Chain *Chain
	Err   error
}

// ChainWatcher reparses a chain file whenever it changes. Updates are
// delivered on a channel so the render thread can install them between
// frames.
type ChainWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	updates chan ChainUpdate
	log     zerolog.Logger
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// NewChainWatcher watches the directory holding path, so editors that
// replace the file by renaming are seen too.
func NewChainWatcher(path string, log zerolog.Logger) (*ChainWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}

	cw := &ChainWatcher{
		path:    abs,
		watcher: watcher,
		updates: make(chan ChainUpdate, 1),
		log:     log,
		done:    make(chan struct{}),
	}
	cw.wg.Add(1)
	go cw.watchLoop()
	return cw, nil
}

// Updates returns the channel reparsed chains are sent on. Only the latest
// update is kept when the reader falls behind.
func (cw *ChainWatcher) Updates() <-chan ChainUpdate { return cw.updates }

func (cw *ChainWatcher) watchLoop() {
	defer cw.wg.Done()
	for {
		select {
		case <-cw.done:
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != cw.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			chain, err := LoadChain(cw.path)
			if err != nil {
				cw.log.Warn().Err(err).Str("path", cw.path).Msg("chain reload failed")
			} else {
				cw.log.Info().Str("path", cw.path).Int("effects", len(chain.Effects)).Msg("chain reloaded")
			}
			cw.publish(ChainUpdate{Chain: chain, Err: err})
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.log.Warn().Err(err).Msg("chain watcher error")
		}
	}
}

func (cw *ChainWatcher) publish(u ChainUpdate) {
	for {
		select {
		case cw.updates <- u:
			return
		default:
		}
		select {
		case <-cw.updates:
		default:
		}
	}
}

// Close stops watching. It is safe to call more than once.
func (cw *ChainWatcher) Close() error {
	var err error
	cw.once.Do(func() {
		close(cw.done)
		err = cw.watcher.Close()
		cw.wg.Wait()
	})
	return err
}

package vfs

import (
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// Watcher reports changed files of DirectoryDriver tree
// as slash separated paths relative to root
type Watcher struct {
	root    string
	watcher *fsnotify.Watcher
	done    chan struct{}

	mutex       sync.Mutex
	subscribers []func(path string)
}

func NewWatcher(dd *DirectoryDriver) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot create watcher")
	}
	w := &Watcher{
		root:    dd.Path(),
		watcher: fw,
		done:    make(chan struct{}),
	}

	if err := filepath.Walk(w.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if err := fw.Add(path); err != nil {
				log.Printf("[vfs] Cannot watch %q: %v", path, err)
			}
		}
		return nil
	}); err != nil {
		fw.Close()
		return nil, errors.Wrapf(err, "Cannot walk %q", w.root)
	}

	go w.loop()
	return w, nil
}

func (w *Watcher) Subscribe(cb func(path string)) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.subscribers = append(w.subscribers, cb)
}

func (w *Watcher) notify(path string) {
	w.mutex.Lock()
	subs := append([]func(string){}, w.subscribers...)
	w.mutex.Unlock()
	for _, cb := range subs {
		cb(path)
	}
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					w.watcher.Add(event.Name)
				}
			}
			rel, err := filepath.Rel(w.root, event.Name)
			if err != nil {
				continue
			}
			w.notify(filepath.ToSlash(rel))
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[vfs] Watcher error: %v", err)
		}
	}
}

func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

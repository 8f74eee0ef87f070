package ingest

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// FileEvent describes a document change noticed by the watcher.
type FileEvent struct {
	Path string
	Op   string // "create", "write", "remove"
}

// Watcher observes a document directory and reports PDF changes so the
// ingestion pipeline can re-chunk regulations as their sources change.
type Watcher struct {
	watcher    *fsnotify.Watcher
	events     chan FileEvent
	extensions map[string]bool
	logger     *log.Logger
}

func NewWatcher(logger *log.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fs watcher: %w", err)
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[WATCHER] ", log.LstdFlags)
	}
	return &Watcher{
		watcher:    fsw,
		events:     make(chan FileEvent, 16),
		extensions: map[string]bool{".pdf": true},
		logger:     logger,
	}, nil
}

// Watch adds dir to the watch set.
func (w *Watcher) Watch(dir string) error {
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	w.logger.Printf("watching %s", dir)
	return nil
}

// Events returns the channel of filtered document events.
func (w *Watcher) Events() <-chan FileEvent { return w.events }

// Run pumps fsnotify events into the typed event channel until ctx is done.
// It closes the events channel on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			fe, relevant := w.translate(ev)
			if !relevant {
				continue
			}
			select {
			case w.events <- fe:
			case <-ctx.Done():
				return ctx.Err()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Printf("watch error: %v", err)
		}
	}
}

func (w *Watcher) Close() error { return w.watcher.Close() }

func (w *Watcher) translate(ev fsnotify.Event) (FileEvent, bool) {
	ext := strings.ToLower(filepath.Ext(ev.Name))
	if !w.extensions[ext] {
		return FileEvent{}, false
	}
	switch {
	case ev.Op.Has(fsnotify.Create):
		return FileEvent{Path: ev.Name, Op: "create"}, true
	case ev.Op.Has(fsnotify.Write):
		return FileEvent{Path: ev.Name, Op: "write"}, true
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		return FileEvent{Path: ev.Name, Op: "remove"}, true
	}
	return FileEvent{}, false
}

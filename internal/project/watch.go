package project

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch calls onChange with the document name whenever a .json file in the
// source directory is written or created. It blocks until ctx is done.
func (s *FileSource) Watch(ctx context.Context, logger Logger, onChange func(doc string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create project watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", s.Dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if filepath.Ext(event.Name) != ".json" {
				continue
			}
			doc := filepath.Base(event.Name)
			logger.Printf("project document changed: %s", doc)
			onChange(doc)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Printf("project watcher error: %v", err)
		}
	}
}

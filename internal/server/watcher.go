package server

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

const (
	debounceTime = 100 * time.Millisecond
)

// startWatcher monitors refs/heads, and every directory below it, for branch
// updates and schedules a refresh after each burst of changes.
func (s *Server) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	root := s.repo.HeadsDir()
	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		root = filepath.Dir(root)
	}
	if err := addRecursive(watcher, root); err != nil {
		watcher.Close()
		return err
	}

	s.wg.Add(1)
	go s.watchLoop(watcher)

	log.WithField("path", root).Debug("Watching branch refs for changes")
	return nil
}

func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return watcher.Add(path)
	})
}

func (s *Server) watchLoop(watcher *fsnotify.Watcher) {
	defer s.wg.Done()
	defer watcher.Close()

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-s.ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if shouldIgnoreEvent(event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addRecursive(watcher, event.Name); err != nil {
						log.Warnf("Failed to watch %s: %v", event.Name, err)
					}
				}
			}

			log.WithField("path", event.Name).Debug("Change detected")

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(s.config.Debounce, func() {
				if s.ctx.Err() == nil {
					s.refresh()
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warnf("Watcher error: %v", err)
		}
	}
}

func shouldIgnoreEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return true
	}
	if strings.HasSuffix(filepath.Base(event.Name), ".lock") {
		return true
	}
	return false
}

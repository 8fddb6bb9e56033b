package importindex

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
)

// Watch rescans a search path when files are created, removed or renamed
// in it. It returns once the watcher is set up; watching stops when ctx is
// cancelled. Only the top level of each search path is watched.
func (ix *Index) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create module watcher")
	}
	watched := 0
	for _, root := range ix.searchPaths {
		if err := watcher.Add(root); err != nil {
			log.Debugf("Not watching %s: %v", root, err)
			continue
		}
		watched++
	}
	if watched == 0 {
		watcher.Close()
		return errors.New("no search path could be watched")
	}

	go ix.watchLoop(ctx, watcher)
	return nil
}

func (ix *Index) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()

	var (
		mu      sync.Mutex
		timer   *time.Timer
		pending = make(map[string]struct{})
	)
	flush := func() {
		mu.Lock()
		roots := pending
		pending = make(map[string]struct{})
		mu.Unlock()
		for root := range roots {
			ix.scans.Delete(root)
		}
		if err := ix.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorf("Module rescan failed: %v", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			mu.Unlock()
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			root := ix.rootOf(event.Name)
			if root == "" {
				continue
			}
			log.Debugf("Module path changed: %s", event.Name)
			mu.Lock()
			pending[root] = struct{}{}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(ix.debounce, flush)
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Errorf("Module watcher error: %v", err)
		}
	}
}

// rootOf maps a changed file back to the search path it lives in.
func (ix *Index) rootOf(name string) string {
	for _, root := range ix.searchPaths {
		if name == root || isWithin(root, name) {
			return root
		}
	}
	return ""
}

func isWithin(root, name string) bool {
	rel, err := filepath.Rel(root, name)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

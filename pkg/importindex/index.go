// Package importindex knows which modules can be imported. It scans search
// paths for module files and packages, keeps the names in a trie, tracks
// which modules are already loaded, and completes import statements.
package importindex

import (
	"context"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bastiangx/replserve/pkg/matching"
	"github.com/bastiangx/replserve/pkg/object"
	"github.com/charmbracelet/log"
	"github.com/jellydator/ttlcache/v3"
	"github.com/tchap/go-patricia/v2/patricia"
)

const (
	defaultScanTTL  = 10 * time.Minute
	defaultMaxDepth = 8
	defaultDebounce = 300 * time.Millisecond
)

var moduleSuffixes = []string{".py", ".pyc", ".pyd", ".so"}

// Index is safe for concurrent use; Watch rescans from a background
// goroutine while completions read.
type Index struct {
	searchPaths []string
	maxDepth    int
	scanTTL     time.Duration
	debounce    time.Duration

	scans *ttlcache.Cache[string, []string]

	mu     sync.RWMutex
	trie   *patricia.Trie
	names  map[string]struct{}
	extra  map[string]struct{}
	loaded map[string]*object.Module
	ready  bool
}

type Option func(*Index)

func WithSearchPaths(paths ...string) Option {
	return func(ix *Index) {
		ix.searchPaths = append(ix.searchPaths, paths...)
	}
}

// WithScanTTL sets how long a search path's scan stays fresh.
func WithScanTTL(ttl time.Duration) Option {
	return func(ix *Index) {
		if ttl > 0 {
			ix.scanTTL = ttl
		}
	}
}

// WithMaxDepth bounds package recursion.
func WithMaxDepth(depth int) Option {
	return func(ix *Index) {
		if depth > 0 {
			ix.maxDepth = depth
		}
	}
}

func New(opts ...Option) *Index {
	ix := &Index{
		maxDepth: defaultMaxDepth,
		scanTTL:  defaultScanTTL,
		debounce: defaultDebounce,
		trie:     patricia.NewTrie(),
		names:    make(map[string]struct{}),
		extra:    make(map[string]struct{}),
		loaded:   make(map[string]*object.Module),
	}
	for _, opt := range opts {
		opt(ix)
	}
	ix.scans = ttlcache.New[string, []string](
		ttlcache.WithTTL[string, []string](ix.scanTTL),
		ttlcache.WithDisableTouchOnHit[string, []string](),
	)
	return ix
}

// Refresh scans every search path whose cached scan has expired and
// rebuilds the module trie. The index is ready afterwards.
func (ix *Index) Refresh(ctx context.Context) error {
	var found []string
	for _, root := range ix.searchPaths {
		if err := ctx.Err(); err != nil {
			return err
		}
		if item := ix.scans.Get(root); item != nil {
			found = append(found, item.Value()...)
			continue
		}
		names := findModules(root, ix.maxDepth)
		log.Debugf("Scanned %s: %d modules", root, len(names))
		ix.scans.Set(root, names, ttlcache.DefaultTTL)
		found = append(found, names...)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.names = make(map[string]struct{}, len(found)+len(ix.extra))
	for _, name := range found {
		ix.names[name] = struct{}{}
	}
	for name := range ix.extra {
		ix.names[name] = struct{}{}
	}
	for name := range ix.loaded {
		ix.names[name] = struct{}{}
	}
	ix.rebuildLocked()
	ix.ready = true
	return nil
}

func (ix *Index) rebuildLocked() {
	trie := patricia.NewTrie()
	for name := range ix.names {
		trie.Insert(patricia.Prefix(name), struct{}{})
	}
	ix.trie = trie
}

// Add records an importable module name that no search path provides.
// Added names survive Refresh.
func (ix *Index) Add(names ...string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, name := range names {
		ix.extra[name] = struct{}{}
		ix.insertLocked(name)
	}
}

func (ix *Index) insertLocked(name string) {
	ix.names[name] = struct{}{}
	ix.trie.Insert(patricia.Prefix(name), struct{}{})
}

// RegisterLoaded records an imported module so that its attributes can
// be completed in from-import statements.
func (ix *Index) RegisterLoaded(mods ...*object.Module) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, m := range mods {
		ix.loaded[m.Name] = m
		ix.insertLocked(m.Name)
	}
}

// MarkReady lets completion run without a scan, for hosts that only use
// Add and RegisterLoaded.
func (ix *Index) MarkReady() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.ready = true
}

func (ix *Index) Ready() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.ready
}

// Modules returns every known module name, sorted.
func (ix *Index) Modules() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return matching.SearchTrie(ix.trie, "")
}

// Loaded returns a copy of the loaded-module registry.
func (ix *Index) Loaded() map[string]*object.Module {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return maps.Clone(ix.loaded)
}

func (ix *Index) SearchPaths() []string {
	return slices.Clone(ix.searchPaths)
}

// findModules lists the modules and packages under root. Packages are
// directories holding an __init__ module; they are descended into up to
// depth levels.
func findModules(root string, depth int) []string {
	entries, err := os.ReadDir(root)
	if err != nil {
		log.Debugf("Skipping search path %s: %v", root, err)
		return nil
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			if strings.Contains(name, ".") || !isPackage(filepath.Join(root, name)) {
				continue
			}
			names = append(names, name)
			if depth > 1 {
				for _, sub := range findModules(filepath.Join(root, name), depth-1) {
					names = append(names, name+"."+sub)
				}
			}
			continue
		}
		module, ok := moduleName(name)
		if !ok || module == "__init__" {
			continue
		}
		names = append(names, module)
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// moduleName strips a module suffix; extension modules may carry an ABI
// tag, as in name.cpython-312-x86_64-linux-gnu.so
func moduleName(file string) (string, bool) {
	for _, suffix := range moduleSuffixes {
		if !strings.HasSuffix(file, suffix) {
			continue
		}
		base := strings.TrimSuffix(file, suffix)
		if suffix == ".so" || suffix == ".pyd" {
			base, _, _ = strings.Cut(base, ".")
		}
		if base == "" || strings.Contains(base, ".") || strings.Contains(base, "-") {
			return "", false
		}
		return base, true
	}
	return "", false
}

func isPackage(dir string) bool {
	for _, suffix := range moduleSuffixes {
		if _, err := os.Stat(filepath.Join(dir, "__init__"+suffix)); err == nil {
			return true
		}
	}
	return false
}

package importindex

import (
	"os"
	"time"

	"github.com/bastiangx/replserve/internal/utils"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/vmihailenco/msgpack/v5"
)

const snapshotVersion = 1

var ErrSnapshotVersion = errors.New("unsupported module index snapshot version")

// snapshot is the on-disk form of a scanned index.
type snapshot struct {
	Version     int      `msgpack:"version"`
	SavedAt     int64    `msgpack:"saved_at"`
	SearchPaths []string `msgpack:"search_paths"`
	Modules     []string `msgpack:"modules"`
}

// Save writes the known module names to path so a later process can start
// completing imports before its first scan finishes.
func (ix *Index) Save(path string) error {
	snap := snapshot{
		Version:     snapshotVersion,
		SavedAt:     time.Now().Unix(),
		SearchPaths: ix.SearchPaths(),
		Modules:     ix.Modules(),
	}
	data, err := msgpack.Marshal(&snap)
	if err != nil {
		return errors.Wrap(err, "encode module index")
	}
	if err := utils.WriteFileAtomic(path, data); err != nil {
		return errors.Wrapf(err, "write module index %s", path)
	}
	log.Debugf("Saved %d module names to %s", len(snap.Modules), path)
	return nil
}

// Load adds the module names stored at path and marks the index ready.
// The next Refresh replaces them with what the search paths hold.
func (ix *Index) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read module index %s", path)
	}
	var snap snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return errors.Wrapf(err, "decode module index %s", path)
	}
	if snap.Version != snapshotVersion {
		return errors.Wrapf(ErrSnapshotVersion, "%s has version %d", path, snap.Version)
	}
	ix.mu.Lock()
	for _, name := range snap.Modules {
		ix.insertLocked(name)
	}
	ix.ready = true
	ix.mu.Unlock()
	log.Debugf("Loaded %d module names from %s (saved %s)", len(snap.Modules), path,
		time.Unix(snap.SavedAt, 0).Format(time.RFC3339))
	return nil
}

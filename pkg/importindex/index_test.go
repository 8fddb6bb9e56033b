package importindex

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/bastiangx/replserve/pkg/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestFindModules(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{
		"alpha.py",
		"beta.pyc",
		"gamma.cpython-312-x86_64-linux-gnu.so",
		"notes.txt",
		"not-a-module.py",
		"pkg/__init__.py",
		"pkg/sub.py",
		"pkg/inner/__init__.py",
		"pkg/__pycache__/sub.cpython-312.pyc",
		"plain/x.py",
		"with.dot/__init__.py",
	} {
		touch(t, filepath.Join(root, name))
	}

	got := findModules(root, defaultMaxDepth)
	assert.Equal(t, []string{"alpha", "beta", "gamma", "pkg", "pkg.inner", "pkg.sub"}, got)

	shallow := findModules(root, 1)
	assert.NotContains(t, shallow, "pkg.sub")
	assert.Contains(t, shallow, "pkg")

	assert.Empty(t, findModules(filepath.Join(root, "missing"), defaultMaxDepth))
}

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	ix := New()
	ix.Add("os", "os.path", "operator", "sys", "xml", "xml.dom", "xml.dom.minidom")

	pathMod := object.NewModule("os.path")
	pathMod.Dict["join"] = &object.Func{Name: "join"}
	osMod := object.NewModule("os")
	osMod.Dict["path"] = pathMod
	osMod.Dict["pardir"] = object.Str("..")
	osMod.Dict["getcwd"] = &object.Func{Name: "getcwd"}
	ix.RegisterLoaded(osMod, pathMod)
	ix.MarkReady()
	return ix
}

func TestCompleteNotReady(t *testing.T) {
	ix := New()
	ix.Add("os")

	got := ix.Complete(8, "import o")
	require.NotNil(t, got, "an import line should not report out of context")
	assert.Empty(t, got)

	assert.Nil(t, ix.Complete(5, "x = 1"))
}

func TestComplete(t *testing.T) {
	ix := newTestIndex(t)

	testCases := []struct {
		line     string
		expected []string
	}{
		{"import o", []string{"operator", "os"}},
		{"import os.pa", []string{"os.path"}},
		{"import xml.d", []string{"xml.dom"}},
		{"import sys, o", []string{"operator", "os"}},
		{"from o", []string{"operator", "os"}},
		{"from os import pa", []string{"pardir", "path"}},
		{"from os import getcwd, pa", []string{"pardir", "path"}},
		{"from os.path import jo", []string{"join"}},
		{"import zzz", []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.line, func(t *testing.T) {
			got := ix.Complete(len(tc.line), tc.line)
			require.NotNil(t, got)
			assert.Equal(t, tc.expected, got)
		})
	}

	assert.Nil(t, ix.Complete(5, "x = 1"))
	assert.Nil(t, ix.Complete(0, "import "), "no word under the cursor")
}

func TestRefreshUsesScanCache(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "first.py"))

	ix := New(WithSearchPaths(root), WithScanTTL(time.Hour))
	ix.Add("extra")
	assert.False(t, ix.Ready())
	require.NoError(t, ix.Refresh(context.Background()))
	assert.True(t, ix.Ready())
	assert.Equal(t, []string{"extra", "first"}, ix.Modules())

	touch(t, filepath.Join(root, "second.py"))
	require.NoError(t, ix.Refresh(context.Background()))
	assert.NotContains(t, ix.Modules(), "second", "fresh scans are reused")

	ix.scans.Delete(root)
	require.NoError(t, ix.Refresh(context.Background()))
	assert.Equal(t, []string{"extra", "first", "second"}, ix.Modules())
}

func TestRefreshCancelled(t *testing.T) {
	ix := New(WithSearchPaths(t.TempDir()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, ix.Refresh(ctx), context.Canceled)
	assert.False(t, ix.Ready())
}

func TestSaveLoad(t *testing.T) {
	ix := newTestIndex(t)
	path := filepath.Join(t.TempDir(), "cache", "modules.msgpack")
	require.NoError(t, ix.Save(path))

	restored := New()
	require.NoError(t, restored.Load(path))
	assert.True(t, restored.Ready())
	assert.Equal(t, ix.Modules(), restored.Modules())
	assert.Equal(t, []string{"os"}, restored.Complete(9, "import os"))

	root := t.TempDir()
	touch(t, filepath.Join(root, "fresh.py"))
	rescanned := New(WithSearchPaths(root))
	require.NoError(t, rescanned.Load(path))
	require.NoError(t, rescanned.Refresh(context.Background()))
	assert.Equal(t, []string{"fresh"}, rescanned.Modules(), "a scan replaces snapshot names")
}

func TestLoadRejectsUnknownVersion(t *testing.T) {
	data, err := msgpack.Marshal(&snapshot{Version: 99, Modules: []string{"os"}})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "modules.msgpack")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	ix := New()
	assert.ErrorIs(t, ix.Load(path), ErrSnapshotVersion)
	assert.False(t, ix.Ready())

	assert.Error(t, ix.Load(filepath.Join(t.TempDir(), "missing")))
}

func TestWatchRescans(t *testing.T) {
	root := t.TempDir()
	ix := New(WithSearchPaths(root))
	ix.debounce = 10 * time.Millisecond
	require.NoError(t, ix.Refresh(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, ix.Watch(ctx))

	touch(t, filepath.Join(root, "added.py"))
	require.Eventually(t, func() bool {
		return slices.Contains(ix.Modules(), "added")
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatchWithoutPaths(t *testing.T) {
	ix := New(WithSearchPaths(filepath.Join(t.TempDir(), "missing")))
	assert.Error(t, ix.Watch(context.Background()))
}

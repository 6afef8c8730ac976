package templates

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir(), "wireviz", logging.NewDiscardLogger())
}

func TestStoreSaveListDelete(t *testing.T) {
	store := newStore(t)

	entries, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = store.Save("b.wireviz", []byte("b: 2\n"))
	require.NoError(t, err)
	entry, err := store.Save("a.wireviz", []byte("a: 1\n"))
	require.NoError(t, err)
	assert.Equal(t, "wireviz/a.wireviz", entry.Path)

	entries, err = store.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a.wireviz", entries[0].Name)
	assert.Equal(t, int64(5), entries[0].Size)

	require.NoError(t, store.Delete("a.wireviz"))
	assert.ErrorIs(t, store.Delete("a.wireviz"), ErrNotFound)
}

func TestStoreRejectsBadNames(t *testing.T) {
	store := newStore(t)
	for _, name := range []string{"", "../x.wireviz", "sub/x.wireviz", "x.yml", ".wireviz", `a\b.wireviz`} {
		_, err := store.Save(name, []byte("a: 1"))
		assert.ErrorIs(t, err, ErrInvalidName, name)
		assert.ErrorIs(t, store.Delete(name), ErrInvalidName, name)
	}
}

func TestStoreRejectsInvalidYAML(t *testing.T) {
	store := newStore(t)
	_, err := store.Save("bad.wireviz", []byte("a: [unclosed"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidName)
	assert.ErrorIs(t, err, ErrInvalidYAML)
}

func TestPrependDataOrderAndCache(t *testing.T) {
	store := newStore(t)
	_, err := store.Save("2-cables.wireviz", []byte("second: 2"))
	require.NoError(t, err)
	_, err = store.Save("1-connectors.wireviz", []byte("first: 1"))
	require.NoError(t, err)

	data, err := store.PrependData()
	require.NoError(t, err)
	assert.Equal(t, "first: 1\n\nsecond: 2\n\n", string(data))

	// Changes behind the store's back stay invisible until invalidated.
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "0-extra.wireviz"), []byte("zero: 0"), 0644))
	cached, err := store.PrependData()
	require.NoError(t, err)
	assert.Equal(t, string(data), string(cached))

	store.Invalidate()
	fresh, err := store.PrependData()
	require.NoError(t, err)
	assert.Equal(t, "zero: 0\n\nfirst: 1\n\nsecond: 2\n\n", string(fresh))
}

func TestPrependDataMissingDirectory(t *testing.T) {
	store := newStore(t)
	data, err := store.PrependData()
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestSetSubdir(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.SetSubdir("/shared/templates/"))
	assert.Equal(t, "shared/templates", store.Subdir())
	assert.ErrorIs(t, store.SetSubdir("../outside"), ErrInvalidName)

	require.NoError(t, store.SetSubdir(""))
	entries, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
	_, err = store.Save("a.wireviz", []byte("a: 1"))
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestWatcherInvalidatesOnExternalChange(t *testing.T) {
	store := newStore(t)
	var changes atomic.Int32
	watcher := NewWatcher(store, logging.NewDiscardLogger(), func() { changes.Add(1) }, WithDebounce(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))
	t.Cleanup(func() { _ = watcher.Stop() })

	_, err := store.PrependData()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "new.wireviz"), []byte("new: 1"), 0644))

	require.Eventually(t, func() bool { return changes.Load() > 0 }, 3*time.Second, 20*time.Millisecond)

	data, err := store.PrependData()
	require.NoError(t, err)
	assert.Equal(t, "new: 1\n\n", string(data))
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	store := newStore(t)
	watcher := NewWatcher(store, logging.NewDiscardLogger(), nil)
	require.NoError(t, watcher.Start(context.Background()))
	require.NoError(t, watcher.Stop())
	assert.NotPanics(t, func() { _ = watcher.Stop() })
}

func TestWatcherRetargetBeforeStart(t *testing.T) {
	store := newStore(t)
	watcher := NewWatcher(store, logging.NewDiscardLogger(), nil)

	require.NoError(t, store.SetSubdir("moved"))
	assert.NoError(t, watcher.Retarget())
	assert.NoError(t, watcher.Stop())
}

func TestWatcherRetargetAfterFailedStart(t *testing.T) {
	root := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(root, []byte("x"), 0644))
	store := NewStore(root, "wireviz", logging.NewDiscardLogger())
	watcher := NewWatcher(store, logging.NewDiscardLogger(), nil)

	assert.Error(t, watcher.Start(context.Background()))

	require.NoError(t, store.SetSubdir("elsewhere"))
	assert.NotPanics(t, func() { assert.NoError(t, watcher.Retarget()) })
	assert.NoError(t, watcher.Stop())
}

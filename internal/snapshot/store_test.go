package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "backups")

	st, err := NewStore(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, st.Dir())
	assert.DirExists(t, dir)
}

func TestNewStore_EmptyDir(t *testing.T) {
	_, err := NewStore("")
	assert.Error(t, err)
}

func TestStore_List_IgnoresNonSnapshots(t *testing.T) {
	dir := t.TempDir()
	st, err := NewStore(dir)
	require.NoError(t, err)

	writeFile(t, dir, "clinic-20240101120000.sql.gz", "a")
	writeFile(t, dir, "clinic-20240102090000.sql.gz", "bb")
	writeFile(t, dir, "clinic-20240103090000.sql.gz.partial", "in progress")
	writeFile(t, dir, "notes.txt", "unrelated")
	writeFile(t, dir, "clinic-garbage.sql.gz", "bad timestamp")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "clinic-20240104090000.sql.gz"), 0o755))

	snaps, err := st.List()
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "clinic-20240101120000.sql.gz", snaps[0].Name())
	assert.Equal(t, "clinic-20240102090000.sql.gz", snaps[1].Name())
	assert.Equal(t, int64(2), snaps[1].Size)
}

func TestStore_Latest(t *testing.T) {
	dir := t.TempDir()
	st, err := NewStore(dir)
	require.NoError(t, err)

	writeFile(t, dir, "clinic-20240101120000.sql.gz", "old")
	writeFile(t, dir, "clinic-20240102090000.sql.gz", "new")

	latest, err := st.Latest()
	require.NoError(t, err)
	assert.Equal(t, "clinic-20240102090000.sql.gz", latest.Name())
}

func TestStore_Latest_TieBreaksOnName(t *testing.T) {
	dir := t.TempDir()
	st, err := NewStore(dir)
	require.NoError(t, err)

	// Same embedded timestamp, different suffixes: the lexicographically
	// greatest filename wins.
	writeFile(t, dir, "clinic-20240102090000.sql.gz", "gz")
	writeFile(t, dir, "clinic-20240102090000.sql.zst", "zst")

	latest, err := st.Latest()
	require.NoError(t, err)
	assert.Equal(t, "clinic-20240102090000.sql.zst", latest.Name())
}

func TestStore_Latest_Empty(t *testing.T) {
	st, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = st.Latest()
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestStore_Exists(t *testing.T) {
	dir := t.TempDir()
	st, err := NewStore(dir)
	require.NoError(t, err)

	writeFile(t, dir, "clinic-20240101120000.sql.gz", "x")

	ok, err := st.Exists("clinic-20240101120000.sql.gz")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = st.Exists("clinic-20990101120000.sql.gz")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_PublishLifecycle(t *testing.T) {
	dir := t.TempDir()
	st, err := NewStore(dir)
	require.NoError(t, err)

	name := "clinic-20240102090000.sql.gz"
	tmp, err := st.CreateTemp(name)
	require.NoError(t, err)
	_, err = tmp.WriteString("dump contents")
	require.NoError(t, err)
	require.NoError(t, tmp.Close())

	// In-progress file is invisible to listing
	snaps, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, snaps)

	require.NoError(t, st.Publish(tmp.Name(), name))

	snaps, err = st.List()
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, name, snaps[0].Name())
	assert.NoFileExists(t, tmp.Name())
}

func TestStore_Publish_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	st, err := NewStore(dir)
	require.NoError(t, err)

	name := "clinic-20240102090000.sql.gz"
	writeFile(t, dir, name, "existing")

	tmp, err := st.CreateTemp(name)
	require.NoError(t, err)
	require.NoError(t, tmp.Close())

	err = st.Publish(tmp.Name(), name)
	assert.Error(t, err)

	// Original snapshot untouched
	data, err := os.ReadFile(st.Path(name))
	require.NoError(t, err)
	assert.Equal(t, "existing", string(data))
}

func TestStore_Discard(t *testing.T) {
	st, err := NewStore(t.TempDir())
	require.NoError(t, err)

	tmp, err := st.CreateTemp("clinic-20240102090000.sql.gz")
	require.NoError(t, err)
	require.NoError(t, tmp.Close())

	require.NoError(t, st.Discard(tmp.Name()))
	assert.NoFileExists(t, tmp.Name())

	// Discarding twice is fine
	assert.NoError(t, st.Discard(tmp.Name()))
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "clinic-20240102090000.sql.gz", "dump")

	snap, err := Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, "clinic", snap.Database)
	assert.Equal(t, int64(4), snap.Size)
	assert.Equal(t, FormatGzip, snap.Format)
}

func TestResolve_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Resolve(filepath.Join(dir, "missing.sql.gz"))
	assert.Error(t, err)

	badName := writeFile(t, dir, "plain.sql", "not compressed")
	_, err = Resolve(badName)
	assert.Error(t, err)

	_, err = Resolve(dir)
	assert.Error(t, err)
}

package backup

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"

	"lengolf/database"
	"lengolf/model"
)

func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = database.Migrate(db)
	require.NoError(t, err)
	return db
}

func TestRun_SnapshotSurvivesRoundTrip(t *testing.T) {
	db := testDB(t)
	_, err := database.CreateStaff(db, model.Staff{StaffName: "Anong", IsActive: true})
	require.NoError(t, err)

	dir := t.TempDir()
	path, err := Run(db, Options{
		Dir:      dir,
		Now:      time.Date(2025, 7, 15, 10, 30, 0, 0, time.UTC),
		Progress: io.Discard,
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "lengolf-20250715-103000.db.xz"), path)

	// The snapshot scratch file must not linger next to the archive.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// Decompress and open the snapshot as a database.
	archive, err := os.Open(path)
	require.NoError(t, err)
	defer archive.Close()
	xzr, err := xz.NewReader(archive)
	require.NoError(t, err)

	restoredPath := filepath.Join(t.TempDir(), "restored.db")
	out, err := os.Create(restoredPath)
	require.NoError(t, err)
	_, err = io.Copy(out, xzr)
	require.NoError(t, err)
	require.NoError(t, out.Close())

	restored, err := database.Open(restoredPath)
	require.NoError(t, err)
	defer restored.Close()
	staff, err := database.GetAllStaff(restored, true)
	require.NoError(t, err)
	require.Len(t, staff, 1)
	assert.Equal(t, "Anong", staff[0].StaffName)
}

func TestRun_NeedsADirectory(t *testing.T) {
	db := testDB(t)
	_, err := Run(db, Options{Progress: io.Discard})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backup directory")
}

func TestRun_RetentionKeepsNewest(t *testing.T) {
	db := testDB(t)
	dir := t.TempDir()
	base := time.Date(2025, 7, 15, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, err := Run(db, Options{
			Dir:       dir,
			Retention: 2,
			Now:       base.Add(time.Duration(i) * time.Minute),
			Progress:  io.Discard,
		})
		require.NoError(t, err)
	}

	infos, err := List(dir)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "lengolf-20250715-100200.db.xz", infos[0].Name)
	assert.Equal(t, "lengolf-20250715-100100.db.xz", infos[1].Name)
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lengolf-20250714-090000.db.xz"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lengolf-20250715-090000.db.xz"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	infos, err := List(dir)
	require.NoError(t, err)
	require.Len(t, infos, 2, "stray files are not archives")
	assert.Equal(t, "lengolf-20250715-090000.db.xz", infos[0].Name)
	assert.Equal(t, "lengolf-20250714-090000.db.xz", infos[1].Name)
}

func TestList_MissingDir(t *testing.T) {
	infos, err := List(filepath.Join(t.TempDir(), "never-made"))
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestPrune(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"lengolf-20250713-090000.db.xz",
		"lengolf-20250714-090000.db.xz",
		"lengolf-20250715-090000.db.xz",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("a"), 0o644))
	}

	removed, err := Prune(dir, 2)
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, filepath.Join(dir, "lengolf-20250713-090000.db.xz"), removed[0])

	// Already under the limit: nothing more to do.
	removed, err = Prune(dir, 2)
	require.NoError(t, err)
	assert.Empty(t, removed)

	_, err = Prune(dir, 0)
	require.Error(t, err)
}

package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenDepDBMissingFileOpensInWriteMode(t *testing.T) {
	dir := t.TempDir()
	db, err := OpenDepDB(filepath.Join(dir, "nope"))
	require.NoError(t, err)
	_, ok := db.Read()
	assert.False(t, ok)
}

func TestDepDBWriteThenReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "depdb")

	db, err := OpenDepDB(path)
	require.NoError(t, err)
	db.Write("line one")
	db.Write("line two")
	require.NoError(t, db.Close())

	db2, err := OpenDepDB(path)
	require.NoError(t, err)
	l1, ok := db2.Read()
	assert.True(t, ok)
	assert.Equal(t, "line one", l1)
	l2, ok := db2.Read()
	assert.True(t, ok)
	assert.Equal(t, "line two", l2)
	_, ok = db2.Read()
	assert.False(t, ok)
	require.NoError(t, db2.Close())
}

func TestDepDBCloseIsNoopWhenFullyReadAndUnmodified(t *testing.T) {
	path := filepath.Join(t.TempDir(), "depdb")
	db, err := OpenDepDB(path)
	require.NoError(t, err)
	db.Write("a")
	require.NoError(t, db.Close())

	before, err := os.Stat(path)
	require.NoError(t, err)

	db2, err := OpenDepDB(path)
	require.NoError(t, err)
	_, _ = db2.Read()
	require.NoError(t, db2.Close())

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime(), "an unmodified fully-read depdb must not be rewritten")
}

func TestDepDBExpectMatchIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "depdb")
	db, err := OpenDepDB(path)
	require.NoError(t, err)
	db.Write("same")
	require.NoError(t, db.Close())

	db2, err := OpenDepDB(path)
	require.NoError(t, err)
	old, hadOld := db2.Expect("same")
	assert.False(t, hadOld)
	assert.Equal(t, "", old)
	require.NoError(t, db2.Close())
}

func TestDepDBExpectMismatchReturnsOldAndOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "depdb")
	db, err := OpenDepDB(path)
	require.NoError(t, err)
	db.Write("old-value")
	db.Write("second")
	require.NoError(t, db.Close())

	db2, err := OpenDepDB(path)
	require.NoError(t, err)
	old, hadOld := db2.Expect("new-value")
	assert.True(t, hadOld)
	assert.Equal(t, "old-value", old)
	require.NoError(t, db2.Close())

	db3, err := OpenDepDB(path)
	require.NoError(t, err)
	l1, _ := db3.Read()
	assert.Equal(t, "new-value", l1)
	_, ok := db3.Read()
	assert.False(t, ok, "the unread tail after an Expect mismatch must be discarded")
}

func TestDepDBCorruptFileMissingEndMarkerFallsBackToWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "depdb")
	require.NoError(t, os.WriteFile(path, []byte("1\nsome-line\n"), 0644))

	db, err := OpenDepDB(path)
	require.NoError(t, err)
	line, ok := db.Read()
	assert.True(t, ok)
	assert.Equal(t, "some-line", line)
	_, ok = db.Read()
	assert.False(t, ok)

	db.Write("appended")
	require.NoError(t, db.Close())

	db2, err := OpenDepDB(path)
	require.NoError(t, err)
	l1, _ := db2.Read()
	assert.Equal(t, "some-line", l1)
	l2, _ := db2.Read()
	assert.Equal(t, "appended", l2)
}

func TestDepDBIncompatibleVersionIsTreatedAsCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "depdb")
	raw := append([]byte("2\nstale-line\n"), depdbEndMarker)
	require.NoError(t, os.WriteFile(path, raw, 0644))

	db, err := OpenDepDB(path)
	require.NoError(t, err)
	_, ok := db.Read()
	assert.True(t, ok, "lines already on disk are still served even under an incompatible version")
	db.Write("fresh")
	require.NoError(t, db.Close())

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(contents), depdbFormatVersion+"\n"), "rewritten depdb must lead with the bare version line")
}

func TestDepDBWritesBareVersionLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "depdb")
	db, err := OpenDepDB(path)
	require.NoError(t, err)
	db.Write("a")
	require.NoError(t, db.Close())

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1\na\n\x00", string(contents))
}

func TestDepDBTouchUpdatesMtimeWhenUnmodified(t *testing.T) {
	path := filepath.Join(t.TempDir(), "depdb")
	db, err := OpenDepDB(path)
	require.NoError(t, err)
	db.Write("a")
	require.NoError(t, db.Close())

	db2, err := OpenDepDB(path)
	require.NoError(t, err)
	db2.Touch = true
	_, _ = db2.Read()
	require.NoError(t, db2.Close())

	_, err = os.Stat(path)
	require.NoError(t, err)
}

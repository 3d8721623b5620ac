package state

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michaelscutari/zrewrite/internal/identity"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	if len(data) == 0 {
		return nil
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestLoadMissingStateFile(t *testing.T) {
	tr := identity.NewTracker()
	stats, err := Load(tr, filepath.Join(t.TempDir(), "rewritten.txt"))
	require.NoError(t, err)
	assert.Equal(t, LoadStats{}, stats)
	assert.Equal(t, 0, tr.Len())
}

func TestLoadSkipsBlankAndStaleEntries(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	sub := filepath.Join(dir, "sub")
	writeFile(t, a, "a")
	require.NoError(t, os.Mkdir(sub, 0755))

	statePath := filepath.Join(dir, "rewritten.txt")
	writeFile(t, statePath, strings.Join([]string{
		a,
		"",
		"   ",
		filepath.Join(dir, "deleted"),
		sub,
		a + "\r",
	}, "\n")+"\n")

	tr := identity.NewTracker()
	stats, err := Load(tr, statePath)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Lines)
	assert.Equal(t, 2, stats.Loaded, "a is listed twice")
	assert.Equal(t, 2, stats.Stale)
	assert.True(t, tr.SeenPath(a))
	assert.False(t, tr.SeenPath(sub))
	assert.Equal(t, 1, tr.Len())
}

func TestLoadRecordsIdentityForHardlinks(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	writeFile(t, a, "a")
	require.NoError(t, os.Link(a, b))

	statePath := filepath.Join(dir, "rewritten.txt")
	writeFile(t, statePath, a+"\n")

	tr := identity.NewTracker()
	_, err := Load(tr, statePath)
	require.NoError(t, err)

	chk, err := tr.CheckSeen(b)
	require.NoError(t, err)
	assert.False(t, chk.IsEligible())
}

func TestLoadSkipsOverlongLine(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	writeFile(t, a, "a")

	statePath := filepath.Join(dir, "rewritten.txt")
	writeFile(t, statePath, strings.Repeat("x", 2*maxLineSize)+"\n"+a+"\n")

	tr := identity.NewTracker()
	stats, err := Load(tr, statePath)
	require.NoError(t, err)

	assert.Equal(t, LoadStats{Lines: 2, Loaded: 1, Stale: 1}, stats)
	assert.True(t, tr.SeenPath(a))
}

func TestLoadLastLineWithoutNewline(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	writeFile(t, a, "a")
	writeFile(t, b, "b")

	statePath := filepath.Join(dir, "rewritten.txt")
	writeFile(t, statePath, a+"\n"+b)

	tr := identity.NewTracker()
	stats, err := Load(tr, statePath)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Loaded)
	assert.True(t, tr.SeenPath(b))
}

func TestLoadUnreadableStateFile(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(identity.NewTracker(), dir)
	require.Error(t, err)
}

func TestAppenderAppendsOneLinePerPath(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "rewritten.txt")
	writeFile(t, statePath, "/earlier\n")

	app, err := OpenAppender(statePath)
	require.NoError(t, err)
	require.NoError(t, app.Append("/data/one"))
	require.NoError(t, app.Append("/data/two with spaces "))
	require.NoError(t, app.Close())
	require.NoError(t, app.Close(), "second close is a no-op")

	assert.Equal(t, []string{"/earlier", "/data/one", "/data/two with spaces "}, readLines(t, statePath))
	assert.Error(t, app.Append("/data/three"))
}

func TestAppenderCreatesStateFile(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "rewritten.txt")

	app, err := OpenAppender(statePath)
	require.NoError(t, err)
	defer app.Close()

	_, err = os.Stat(statePath)
	require.NoError(t, err)
	assert.Equal(t, statePath, app.Path())
}

func TestAppenderRejectsNewlines(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "rewritten.txt")

	app, err := OpenAppender(statePath)
	require.NoError(t, err)
	defer app.Close()

	err = app.Append("/data/evil\nname")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnrecordable))
	assert.Nil(t, readLines(t, statePath))
}

func TestOpenAppenderFailsWhileLocked(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "rewritten.txt")

	first, err := OpenAppender(statePath)
	require.NoError(t, err)

	_, err = OpenAppender(statePath)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLocked))

	require.NoError(t, first.Close())

	second, err := OpenAppender(statePath)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestOpenAppenderUnwritableLocation(t *testing.T) {
	_, err := OpenAppender(filepath.Join(t.TempDir(), "missing-dir", "rewritten.txt"))
	require.Error(t, err)
}

func TestCompactDropsStaleAndDuplicateEntries(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	writeFile(t, a, "a")
	writeFile(t, b, "b")

	statePath := filepath.Join(dir, "rewritten.txt")
	writeFile(t, statePath, strings.Join([]string{
		a,
		filepath.Join(dir, "gone"),
		"",
		b,
		a,
		filepath.Join(dir, "gone"),
	}, "\n")+"\n")

	stats, err := Compact(statePath)
	require.NoError(t, err)
	assert.Equal(t, CompactStats{Kept: 2, Duplicates: 2, Stale: 1}, stats)
	assert.Equal(t, 3, stats.Dropped())
	assert.Equal(t, []string{a, b}, readLines(t, statePath))
}

func TestCompactDropsOverlongLine(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	writeFile(t, a, "a")

	statePath := filepath.Join(dir, "rewritten.txt")
	writeFile(t, statePath, a+"\n"+strings.Repeat("x", maxLineSize+1)+"\n")

	stats, err := Compact(statePath)
	require.NoError(t, err)
	assert.Equal(t, CompactStats{Kept: 1, Stale: 1}, stats)
	assert.Equal(t, []string{a}, readLines(t, statePath))
}

func TestCompactAlreadyCompact(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	writeFile(t, a, "a")
	statePath := filepath.Join(dir, "rewritten.txt")
	writeFile(t, statePath, a+"\n")

	stats, err := Compact(statePath)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Dropped())
	assert.Equal(t, []string{a}, readLines(t, statePath))
}

func TestCompactRefusesWhileLocked(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "rewritten.txt")

	app, err := OpenAppender(statePath)
	require.NoError(t, err)
	defer app.Close()

	_, err = Compact(statePath)
	assert.True(t, errors.Is(err, ErrLocked))
}

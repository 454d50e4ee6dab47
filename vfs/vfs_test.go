package vfs

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTree(t *testing.T) string {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Stage", "sea"), 0777))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "Stage", "sea", "Room0.arc"), []byte("RARC"), 0666))
	return dir
}

func TestWalkPath(t *testing.T) {
	root := NewDirectoryDriver(makeTree(t))

	e, err := WalkPath(root, "/Stage//sea/Room0.arc")
	require.NoError(t, err)
	assert.False(t, e.IsDirectory())

	data, err := ReadFile(e.(File))
	require.NoError(t, err)
	assert.Equal(t, []byte("RARC"), data)

	_, err = WalkPath(root, "Stage/sea/Room0.arc/inner")
	assert.Error(t, err)
}

func TestDirectoryDriverRejectsTraversal(t *testing.T) {
	root := NewDirectoryDriver(makeTree(t))
	_, err := root.GetElement("..")
	assert.Error(t, err)
	_, err = WalkPath(root, "Stage/../../etc")
	assert.Error(t, err)
}

func TestDirectoryDriverCopy(t *testing.T) {
	root := NewDirectoryDriver(makeTree(t))
	f, err := WalkPath(root, "Stage/sea/Room0.arc")
	require.NoError(t, err)

	require.NoError(t, OpenFileAndCopy(f.(File), bytes.NewReader([]byte("Yaz0data"))))
	data, err := ReadFile(f.(File))
	require.NoError(t, err)
	assert.Equal(t, "Yaz0data", string(data))

	list, err := root.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"Stage"}, list)
}

func TestMemoryFile(t *testing.T) {
	mf := NewMemoryFile("a.bti", []byte{1, 2, 3, 4})
	assert.Error(t, mf.Open(false))
	r, err := OpenFileAndGetReader(mf, true)
	require.NoError(t, err)
	buf := make([]byte, 2)
	_, err = r.ReadAt(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 4}, buf)
	assert.ErrorIs(t, mf.Copy(bytes.NewReader(nil)), ErrReadOnly)
}

func TestWatcherReportsRelativePath(t *testing.T) {
	dir := makeTree(t)
	w, err := NewWatcher(NewDirectoryDriver(dir))
	require.NoError(t, err)
	defer w.Close()

	changed := make(chan string, 16)
	w.Subscribe(func(p string) { changed <- p })

	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "Stage", "sea", "Room1.arc"), []byte("x"), 0666))

	select {
	case p := <-changed:
		assert.Equal(t, "Stage/sea/Room1.arc", p)
	case <-time.After(5 * time.Second):
		t.Fatal("no watcher event")
	}
}

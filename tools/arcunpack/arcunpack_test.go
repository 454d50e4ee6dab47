package main

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/retro_model_browser/vfs"
)

func TestUnpackDirectory(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "bdl"), 0777))
	require.NoError(t, ioutil.WriteFile(filepath.Join(src, "bdl", "model.bdl"), []byte("J3D2"), 0666))
	require.NoError(t, ioutil.WriteFile(filepath.Join(src, "room.szs"),
		[]byte("Yaz0\x00\x00\x00\x02\x00\x00\x00\x00\x00\x00\x00\x00\xc0ok"), 0666))

	out := t.TempDir()
	var meta bytes.Buffer
	n, err := UnpackDirectory(vfs.NewDirectoryDriver(src), out, true, &meta)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := ioutil.ReadFile(filepath.Join(out, "room.szs"))
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
	data, err = ioutil.ReadFile(filepath.Join(out, "bdl", "model.bdl"))
	require.NoError(t, err)
	assert.Equal(t, "J3D2", string(data))

	assert.Equal(t, "bdl/model.bdl | 4 | false\nroom.szs | 13 | true\n", meta.String())
}

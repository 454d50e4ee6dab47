package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFileDefaults(t *testing.T) {
	f, err := ParseFile([]byte("listen: \":9000\"\nthumbnail:\n  size: 128\n"))
	require.NoError(t, err)
	assert.Equal(t, ":9000", f.Listen)
	assert.Equal(t, 128, f.Thumbnail.Size)
	assert.Equal(t, 2, f.Thumbnail.Supersample)
	assert.Equal(t, 1280, f.Viewport.Width)
	assert.Len(t, f.Passes, 4)
}

func TestParseGame(t *testing.T) {
	for _, test := range []struct {
		in  string
		out Game
	}{
		{"", GameAuto},
		{"WindWaker", GameWindWaker},
		{" sunshine ", GameSunshine},
		{"banjo", GameBanjo},
	} {
		g, err := ParseGame(test.in)
		if err != nil {
			t.Errorf("ParseGame(%q) error: %v", test.in, err)
		}
		if g != test.out {
			t.Errorf("ParseGame(%q)=%v; expected %v", test.in, g, test.out)
		}
	}

	_, err := ParseGame("godofwar")
	assert.Error(t, err)
}

func TestSetEncoding(t *testing.T) {
	defer SetEncoding(ShiftJIS)

	require.NoError(t, SetEncoding("Windows 1252"))
	assert.Equal(t, "Windows 1252", GetEncodingName())
	require.NoError(t, SetEncoding("SJIS"))
	assert.Equal(t, ShiftJIS, GetEncodingName())
	assert.Error(t, SetEncoding("klingon"))
	assert.Contains(t, ListEncodings(), ShiftJIS)
}

func TestParseFileTables(t *testing.T) {
	f, err := ParseFile([]byte("handlers:\n  .bmt: .bmd\nactors:\n  kytag00: Object/kytag.arc/bdl/kytag.bdl\n"))
	require.NoError(t, err)
	assert.Equal(t, ".bmd", f.Handlers[".bmt"])
	assert.Equal(t, "Object/kytag.arc/bdl/kytag.bdl", f.Actors["kytag00"])

	_, err = ParseFile([]byte("listen: [1"))
	assert.Error(t, err)
}

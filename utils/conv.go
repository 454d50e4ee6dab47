package utils

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
	"golang.org/x/text/transform"

	"github.com/mogaika/retro_model_browser/config"
)

func BytesToString(bs []byte) string {
	n := BytesStringLength(bs)

	s, _, err := transform.Bytes(config.GetEncoding().NewDecoder(), bs[0:n])
	if err != nil {
		// broken names are common in dev leftovers, keep raw bytes
		return string(bs[0:n])
	}

	return string(s)
}

func BytesStringLength(bs []byte) int {
	if l := bytes.IndexByte(bs, 0); l == -1 {
		return len(bs)
	} else {
		return l
	}
}

func ReadZString(buf []byte, off int) string {
	if off < 0 || off >= len(buf) {
		return ""
	}
	return BytesToString(buf[off:])
}

func StringToBytes(s string, nilTerminate bool) ([]byte, error) {
	bs, _, err := transform.Bytes(config.GetEncoding().NewEncoder(), []byte(s))
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot encode %q", s)
	}
	if nilTerminate {
		bs = append(bs, 0)
	}
	return bs, nil
}

func AlignUp(v, align int) int {
	return (v + align - 1) &^ (align - 1)
}

func Read24bitUint(o binary.ByteOrder, bin []byte) uint32 {
	var buf [4]byte
	if o == binary.LittleEndian {
		copy(buf[0:], bin[:3])
	} else {
		copy(buf[1:], bin[:3])
	}
	return o.Uint32(buf[:])
}

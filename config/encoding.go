package config

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
)

const ShiftJIS = "shift_jis"

// J3D and RARC name tables are Shift-JIS on japanese and western discs alike
var currentEncoding encoding.Encoding = japanese.ShiftJIS
var currentEncodingName = ShiftJIS

func SetEncoding(name string) error {
	if strings.EqualFold(name, ShiftJIS) || strings.EqualFold(name, "sjis") {
		currentEncoding = japanese.ShiftJIS
		currentEncodingName = ShiftJIS
		return nil
	}
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			if cm.String() == name {
				currentEncoding = cm
				currentEncodingName = cm.String()
				return nil
			}
		}
	}
	return errors.Errorf("Failed to find encoding %q", name)
}

func ListEncodings() []string {
	list := []string{ShiftJIS}
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			list = append(list, cm.String())
		}
	}
	return list
}

func GetEncoding() encoding.Encoding {
	return currentEncoding
}

func GetEncodingName() string {
	return currentEncodingName
}

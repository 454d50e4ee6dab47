package utils

import "testing"

var hashTests = []struct {
	in  string
	out uint16
}{
	{"", 0x0},
	{".", 0x2e},
	{"..", 0xb8},
	{"ab", 0x61*3 + 0x62},
	{"abc", (0x61*3+0x62)*3 + 0x63},
}

func TestRarcNameHash(t *testing.T) {
	for _, test := range hashTests {
		result := RarcNameHash(test.in)
		if result != test.out {
			t.Errorf("RarcNameHash(%q)=%d; expected %d", test.in, result, test.out)
		}
	}
}

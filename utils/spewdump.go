package utils

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
)

// Decoded files reference each other through maps and shared pointers,
// so dumps skip addresses and sort keys to stay diffable between runs.
var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	MaxDepth:                10,
	DisableCapacities:       true,
	DisablePointerAddresses: true,
	SortKeys:                true,
	SpewKeys:                true,
}

// DumpFile renders decoded resource as text for the dump action
func DumpFile(name string, v interface{}) string {
	return fmt.Sprintf("# %s: %T\n%s", name, v, dumpConfig.Sdump(v))
}

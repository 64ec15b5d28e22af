package nutrisense

import (
	"io"

	"github.com/davecgh/go-spew/spew"
)

var dumpConfig = spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}

// Fdump pretty-prints the values to w with stable key order and no pointer
// addresses, so dumps of equal states compare equal.
func Fdump(w io.Writer, v ...any) {
	dumpConfig.Fdump(w, v...)
}

func Sdump(v ...any) string {
	return dumpConfig.Sdump(v...)
}

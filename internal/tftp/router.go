package tftp

import (
	"regexp"

	"github.com/go-logr/logr"
)

// SerialPathPattern matches a Pi per-node request such as
// "/d83add36/config.txt" or "d83add36/start4.elf", per spec §4.1's routing
// split between the flat TFTP root and the serial-prefixed per-node tree.
// It is exported so callers wiring a ServeMux don't have to restate it.
var SerialPathPattern = regexp.MustCompile(`^/?[0-9a-f]{8}(/.*)?$`)

// NewBootMux builds the ServeMux used by the TFTP engine: requests whose
// filename is serial-prefixed are routed to piHandler (the per-node tree,
// with PiTreeHandler falling back to the discovery tree), everything else falls
// through to rootHandler (the flat TFTP root carrying stage-1 binaries and
// iPXE scripts).
func NewBootMux(rootHandler, piHandler Handler, log logr.Logger) *ServeMux {
	mux := NewServeMux(log)
	mux.Handle(SerialPathPattern.String(), piHandler)
	mux.SetDefaultHandler(rootHandler)
	return mux
}

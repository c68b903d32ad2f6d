package tftp

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
)

// PiTreeHandler serves the serial-prefixed per-node tree out of NodesDir,
// falling back to DiscoveryDir when the requested serial has no
// materialised tree yet — an unregistered Pi still gets stage-1 firmware
// and a discovery cmdline.txt, per spec §4.4.
type PiTreeHandler struct {
	NodesDir     string
	DiscoveryDir string
	Log          logr.Logger
}

// ServeTFTP implements Handler.
func (h PiTreeHandler) ServeTFTP(filename string, rf io.ReaderFrom) error {
	trimmed := strings.TrimPrefix(filename, "/")
	parts := strings.SplitN(trimmed, "/", 2)
	serial := parts[0]
	rest := ""
	if len(parts) == 2 {
		rest = parts[1]
	}

	nodeDir := filepath.Join(h.NodesDir, serial)
	if _, err := os.Stat(nodeDir); err == nil {
		return RootHandler{Root: h.NodesDir, Log: h.Log}.ServeTFTP("/"+serial+"/"+rest, rf)
	}

	h.Log.V(1).Info("pi serial has no materialised tree, falling back to discovery", "serial", serial)
	return RootHandler{Root: h.DiscoveryDir, Log: h.Log}.ServeTFTP("/"+rest, rf)
}

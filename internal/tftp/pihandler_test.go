package tftp

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
)

func TestPiTreeHandlerServesRegisteredNode(t *testing.T) {
	nodes := t.TempDir()
	discovery := t.TempDir()
	nodeDir := filepath.Join(nodes, "d83add36")
	if err := os.MkdirAll(nodeDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(nodeDir, "cmdline.txt"), []byte("pureboot.serial=d83add36\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	h := PiTreeHandler{NodesDir: nodes, DiscoveryDir: discovery, Log: logr.Discard()}
	rf := &captureReaderFrom{}
	if err := h.ServeTFTP("/d83add36/cmdline.txt", rf); err != nil {
		t.Fatalf("ServeTFTP: %v", err)
	}
	if string(rf.data) != "pureboot.serial=d83add36\n" {
		t.Errorf("got %q", rf.data)
	}
}

func TestPiTreeHandlerFallsBackToDiscovery(t *testing.T) {
	nodes := t.TempDir()
	discovery := t.TempDir()
	if err := os.WriteFile(filepath.Join(discovery, "cmdline.txt"), []byte("pureboot.mode=discovery pureboot.state=discovered\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	h := PiTreeHandler{NodesDir: nodes, DiscoveryDir: discovery, Log: logr.Discard()}
	rf := &captureReaderFrom{}
	if err := h.ServeTFTP("/unknown1/cmdline.txt", rf); err != nil {
		t.Fatalf("ServeTFTP: %v", err)
	}
	if string(rf.data) != "pureboot.mode=discovery pureboot.state=discovered\n" {
		t.Errorf("got %q", rf.data)
	}
}

func TestNewBootMuxRoutesBySerialPattern(t *testing.T) {
	var rootCalled, piCalled bool
	root := HandlerFunc(func(filename string, rf io.ReaderFrom) error {
		rootCalled = true
		return nil
	})
	pi := HandlerFunc(func(filename string, rf io.ReaderFrom) error {
		piCalled = true
		return nil
	})
	mux := NewBootMux(root, pi, logr.Discard())

	if err := mux.ServeTFTP("/d83add36/config.txt", &captureReaderFrom{}); err != nil {
		t.Fatalf("ServeTFTP: %v", err)
	}
	if !piCalled || rootCalled {
		t.Errorf("serial-prefixed request should route to pi handler, got piCalled=%v rootCalled=%v", piCalled, rootCalled)
	}

	rootCalled, piCalled = false, false
	if err := mux.ServeTFTP("/bios/undionly.kpxe", &captureReaderFrom{}); err != nil {
		t.Fatalf("ServeTFTP: %v", err)
	}
	if piCalled || !rootCalled {
		t.Errorf("non-serial request should route to root handler, got piCalled=%v rootCalled=%v", piCalled, rootCalled)
	}
}

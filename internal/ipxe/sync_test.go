package ipxe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
)

func setupRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, d := range []string{"bios", "uefi"} {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	return root
}

func TestResyncWritesAllThreeOnFirstRun(t *testing.T) {
	root := setupRoot(t)
	ctx := Context{Server: ServerNamespace("192.0.2.1", 80, 69)}

	result, err := Resync(root, ctx, logr.Discard())
	if err != nil {
		t.Fatalf("Resync: %v", err)
	}
	if !result.Autoexec || !result.BIOSBoot || !result.UEFIBoot {
		t.Errorf("expected all three scripts written on first run, got %+v", result)
	}
}

func TestResyncIsNoopWhenContentUnchanged(t *testing.T) {
	root := setupRoot(t)
	ctx := Context{Server: ServerNamespace("192.0.2.1", 80, 69)}

	if _, err := Resync(root, ctx, logr.Discard()); err != nil {
		t.Fatalf("first Resync: %v", err)
	}
	result, err := Resync(root, ctx, logr.Discard())
	if err != nil {
		t.Fatalf("second Resync: %v", err)
	}
	if result.Autoexec || result.BIOSBoot || result.UEFIBoot {
		t.Errorf("expected no writes on unchanged content, got %+v", result)
	}
}

func TestResyncRewritesAfterIPChange(t *testing.T) {
	root := setupRoot(t)
	ctx1 := Context{Server: ServerNamespace("192.0.2.1", 80, 69)}
	ctx2 := Context{Server: ServerNamespace("192.0.2.2", 80, 69)}

	if _, err := Resync(root, ctx1, logr.Discard()); err != nil {
		t.Fatalf("first Resync: %v", err)
	}
	result, err := Resync(root, ctx2, logr.Discard())
	if err != nil {
		t.Fatalf("second Resync: %v", err)
	}
	if !result.Autoexec || !result.BIOSBoot || !result.UEFIBoot {
		t.Errorf("expected rewrites after IP change, got %+v", result)
	}
}

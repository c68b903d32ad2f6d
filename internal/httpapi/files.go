package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"

	"github.com/pureboot/pureboot/internal/throttle"
)

// ErrFileNotFound is returned by a FileSource for a path with no backing
// file.
var ErrFileNotFound = errors.New("httpapi: file not found")

// ErrFileAccessViolation is returned by a FileSource for a path that
// escapes its root.
var ErrFileAccessViolation = errors.New("httpapi: file access violation")

// FileInfo describes a file a FileSource resolved, including its optional
// content digest — SHA256 is empty when the backend cannot supply one
// without reading the whole file, per spec §6's "when the backend can
// supply a digest" qualifier.
type FileInfo struct {
	Size   int64
	SHA256 string
}

// FileSource resolves a /files/<path> request to a readable stream. The
// default implementation is DiskFileSource; other backends (object
// storage, a content-addressed cache) can satisfy the same interface.
type FileSource interface {
	Open(ctx context.Context, relPath string) (io.ReadCloser, FileInfo, error)
}

// DiskFileSource serves files out of Root read-only, rejecting any path
// that escapes it — the same traversal-prevention idiom the Pi TFTP tree
// and the flat TFTP root use.
type DiskFileSource struct {
	Root string
}

func (d DiskFileSource) Open(_ context.Context, relPath string) (io.ReadCloser, FileInfo, error) {
	clean := filepath.Clean("/" + strings.TrimPrefix(relPath, "/"))
	joined := filepath.Join(d.Root, clean)
	root := filepath.Clean(d.Root)
	if joined != root && !strings.HasPrefix(joined, root+string(os.PathSeparator)) {
		return nil, FileInfo{}, ErrFileAccessViolation
	}

	f, err := os.Open(joined)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, FileInfo{}, ErrFileNotFound
		}
		return nil, FileInfo{}, fmt.Errorf("opening %s: %w", relPath, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, FileInfo{}, fmt.Errorf("stat %s: %w", relPath, err)
	}
	if fi.IsDir() {
		f.Close()
		return nil, FileInfo{}, ErrFileNotFound
	}
	return f, FileInfo{Size: fi.Size()}, nil
}

// FilesHandler serves GET /files/<path>, streaming the body through the
// bandwidth throttler's priority-weighted iterator (spec §4.7, §6).
type FilesHandler struct {
	Source    FileSource
	Throttler *throttle.Throttler
	Log       logr.Logger
}

func (h *FilesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := h.Log.WithValues("uri", r.RequestURI)
	relPath := strings.TrimPrefix(r.URL.Path, "/files/")
	if relPath == "" {
		writeError(w, log, http.StatusBadRequest, "missing file path", nil)
		return
	}

	rc, info, err := h.Source.Open(r.Context(), relPath)
	switch {
	case errors.Is(err, ErrFileNotFound):
		writeError(w, log, http.StatusNotFound, "file not found", err)
		return
	case errors.Is(err, ErrFileAccessViolation):
		writeError(w, log, http.StatusBadRequest, "invalid file path", err)
		return
	case err != nil:
		writeError(w, log, http.StatusInternalServerError, "failed to open file", err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", info.Size))
	if info.SHA256 != "" {
		w.Header().Set("ETag", fmt.Sprintf(`"sha256:%s"`, info.SHA256))
		w.Header().Set("X-Checksum-SHA256", info.SHA256)
	}

	transferID := r.RemoteAddr + ":" + relPath
	h.Throttler.Register(transferID, relPath, info.Size)
	if _, err := h.Throttler.Copy(r.Context(), w, rc, transferID); err != nil {
		log.Info("file stream ended early", "path", relPath, "error", err.Error())
	}
}

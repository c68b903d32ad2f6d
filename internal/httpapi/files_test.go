package httpapi

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"

	"github.com/pureboot/pureboot/internal/throttle"
)

func TestFilesHandlerServesRequestedPath(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "kernel.img"), []byte("kernel-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	h := &FilesHandler{
		Source:    DiskFileSource{Root: dir},
		Throttler: throttle.New(100_000_000),
		Log:       logr.Discard(),
	}

	req := httptest.NewRequest(http.MethodGet, "/files/kernel.img", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
	if rec.Body.String() != "kernel-bytes" {
		t.Errorf("got body %q, want kernel-bytes", rec.Body.String())
	}
	if rec.Header().Get("Content-Length") != "12" {
		t.Errorf("got Content-Length %q, want 12", rec.Header().Get("Content-Length"))
	}
}

func TestFilesHandlerMissingFileReturns404(t *testing.T) {
	dir := t.TempDir()
	h := &FilesHandler{
		Source:    DiskFileSource{Root: dir},
		Throttler: throttle.New(100_000_000),
		Log:       logr.Discard(),
	}

	req := httptest.NewRequest(http.MethodGet, "/files/missing.img", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want 404", rec.Code)
	}
}

func TestFilesHandlerRejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	h := &FilesHandler{
		Source:    DiskFileSource{Root: dir},
		Throttler: throttle.New(100_000_000),
		Log:       logr.Discard(),
	}

	req := httptest.NewRequest(http.MethodGet, "/files/..%2f..%2fetc%2fpasswd", nil)
	req.URL.Path = "/files/../../etc/passwd"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound && rec.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400 or 404", rec.Code)
	}
}

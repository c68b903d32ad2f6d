package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-logr/logr"

	"github.com/pureboot/pureboot/internal/model"
	"github.com/pureboot/pureboot/internal/node/memstore"
)

func newBootHandler(autoRegister bool) (*BootHandler, *memstore.Store) {
	reg := memstore.New()
	return &BootHandler{
		Registry:      reg,
		ServerBaseURL: "http://192.0.2.1",
		ServerIP:      "192.0.2.1",
		HTTPPort:      80,
		TFTPPort:      69,
		AutoRegister:  autoRegister,
		Log:           logr.Discard(),
	}, reg
}

func TestBootUnknownMACWithAutoRegisterReturnsLocalBootScript(t *testing.T) {
	h, _ := newBootHandler(true)
	req := httptest.NewRequest(http.MethodGet, "/boot?mac=00:11:22:33:44:55", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "#!ipxe") {
		t.Errorf("body %q should start with #!ipxe", body)
	}
	if !strings.Contains(body, "exit") {
		t.Errorf("body %q should fall through with exit", body)
	}
}

func TestBootUnknownMACWithoutAutoRegisterReturns404(t *testing.T) {
	h, _ := newBootHandler(false)
	req := httptest.NewRequest(http.MethodGet, "/boot?mac=00:11:22:33:44:55", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"detail"`) {
		t.Errorf("body %q should carry a detail field", rec.Body.String())
	}
}

func TestBootMalformedMACReturns400(t *testing.T) {
	h, _ := newBootHandler(true)
	req := httptest.NewRequest(http.MethodGet, "/boot?mac=not-a-mac", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", rec.Code)
	}
}

func TestBootPendingNoWorkflowReturnsRetryScript(t *testing.T) {
	h, reg := newBootHandler(true)
	reg.Upsert(context.Background(), &model.Node{
		ID:         "node-1",
		MACAddress: "00:11:22:33:44:55",
		State:      model.StatePending,
	})

	req := httptest.NewRequest(http.MethodGet, "/boot?mac=00:11:22:33:44:55", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "sleep 10") {
		t.Errorf("body %q should retry after 10s", rec.Body.String())
	}
}

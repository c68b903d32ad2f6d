package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-logr/logr"

	"github.com/pureboot/pureboot/internal/dispatch"
	"github.com/pureboot/pureboot/internal/ipxe"
	"github.com/pureboot/pureboot/internal/model"
	"github.com/pureboot/pureboot/internal/node"
)

// WorkflowLookup is the read-only capability the boot dispatch plane needs
// from the workflow collaborator: the current workflow assigned to a node,
// or nil if none is assigned yet. pureboot never mutates a Workflow.
type WorkflowLookup interface {
	WorkflowForNode(ctx context.Context, nodeID string) (*model.Workflow, error)
}

// BootHandler serves GET /boot?mac=<mac>, the x86/iPXE dispatch endpoint
// (spec §4.6, §6).
type BootHandler struct {
	Registry      node.Registry
	Workflows     WorkflowLookup
	ServerBaseURL string
	ServerIP      string
	HTTPPort      int
	TFTPPort      int
	AutoRegister  bool
	Log           logr.Logger
}

func (h *BootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := h.Log.WithValues("uri", r.RequestURI)

	macStr := r.URL.Query().Get("mac")
	mac, err := net.ParseMAC(macStr)
	if err != nil {
		writeError(w, log, http.StatusBadRequest, "malformed mac address", err)
		return
	}

	ctx := r.Context()
	n, err := h.Registry.LookupByMAC(ctx, mac.String())
	switch {
	case errors.Is(err, node.ErrNotFound):
		if !h.AutoRegister {
			writeError(w, log, http.StatusNotFound, "unknown node", err)
			return
		}
		n = &model.Node{
			ID:             mac.String(),
			MACAddress:     mac.String(),
			Architecture:   model.ArchX86_64,
			BootMode:       model.BootModeBIOS,
			State:          model.StateDiscovered,
			StateChangedAt: time.Now(),
		}
		if err := h.Registry.Upsert(ctx, n); err != nil {
			writeError(w, log, http.StatusInternalServerError, "failed to register node", err)
			return
		}
	case err != nil:
		writeError(w, log, http.StatusInternalServerError, "node lookup failed", err)
		return
	}

	var workflow *model.Workflow
	if h.Workflows != nil && n.WorkflowID != "" {
		workflow, err = h.Workflows.WorkflowForNode(ctx, n.ID)
		if err != nil {
			writeError(w, log, http.StatusInternalServerError, "workflow lookup failed", err)
			return
		}
	}

	result, err := dispatch.Resolve(dispatch.FamilyX86IPXE, n, workflow, h.ServerBaseURL)
	if err != nil {
		writeError(w, log, http.StatusInternalServerError, "dispatch resolution failed", err)
		return
	}

	serverNS := ipxe.ServerNamespace(h.ServerIP, h.HTTPPort, h.TFTPPort)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	var script string
	switch res := result.(type) {
	case dispatch.LocalBoot:
		script = ipxe.GenerateLocalBootScript(ipxe.Context{Server: serverNS})
	case dispatch.PendingRetry:
		script = ipxe.GenerateRetryScript(ipxe.Context{Server: serverNS}, res.RetrySeconds)
	case dispatch.InstallIPXE:
		script = ipxe.GenerateInstallScript(ipxe.Context{
			Server: serverNS,
			Workflow: map[string]string{
				"kernel_path": res.Kernel,
				"initrd_path": res.Initrd,
				"cmdline":     res.Cmdline,
			},
		})
	default:
		writeError(w, log, http.StatusInternalServerError, "unexpected dispatch result for x86 family", nil)
		return
	}

	_, _ = w.Write([]byte(script))
}

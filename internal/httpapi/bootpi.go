package httpapi

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-logr/logr"

	"github.com/pureboot/pureboot/internal/dispatch"
	"github.com/pureboot/pureboot/internal/model"
	"github.com/pureboot/pureboot/internal/node"
	"github.com/pureboot/pureboot/internal/pi"
)

// piBootResponse is the JSON body for GET /boot/pi, per spec §6.
type piBootResponse struct {
	State        model.State `json:"state"`
	Message      string      `json:"message,omitempty"`
	Action       string      `json:"action,omitempty"`
	ImageURL     string      `json:"image_url,omitempty"`
	TargetDevice string      `json:"target_device,omitempty"`
	CallbackURL  string      `json:"callback_url,omitempty"`
	NFSServer    string      `json:"nfs_server,omitempty"`
	NFSPath      string      `json:"nfs_path,omitempty"`
}

// BootPiHandler serves GET /boot/pi?serial=<8-hex>&mac=<mac>?, the Pi
// dispatch endpoint (spec §4.6, §6). On first contact from an unknown
// serial it auto-registers the node as discovered and materialises its
// TFTP tree, defaulting to PiModel4 — the boot ROM identifies itself only
// by serial at this layer. The tree is materialised only here, on first
// contact; a node whose real model differs keeps the Pi 4 firmware set
// until Materialize is called for it again.
type BootPiHandler struct {
	Registry      node.Registry
	Workflows     WorkflowLookup
	PiManager     *pi.Manager
	ControllerURL string
	ServerBaseURL string
	AutoRegister  bool
	Log           logr.Logger
}

func (h *BootPiHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := h.Log.WithValues("uri", r.RequestURI)

	serial, err := pi.ValidateSerial(r.URL.Query().Get("serial"))
	if err != nil {
		writeError(w, log, http.StatusBadRequest, "invalid pi serial number", err)
		return
	}

	var mac string
	if macStr := r.URL.Query().Get("mac"); macStr != "" {
		parsed, err := net.ParseMAC(macStr)
		if err != nil {
			writeError(w, log, http.StatusBadRequest, "malformed mac address", err)
			return
		}
		mac = parsed.String()
	}

	ctx := r.Context()
	n, err := h.Registry.LookupBySerial(ctx, serial)
	switch {
	case errors.Is(err, node.ErrNotFound):
		if !h.AutoRegister {
			writeError(w, log, http.StatusNotFound, "unknown node", err)
			return
		}
		n = &model.Node{
			ID:             serial,
			SerialNumber:   serial,
			MACAddress:     mac,
			Architecture:   model.ArchAArch64,
			BootMode:       model.BootModePi,
			PiModel:        model.PiModel4,
			State:          model.StateDiscovered,
			StateChangedAt: time.Now(),
		}
		if err := h.Registry.Upsert(ctx, n); err != nil {
			writeError(w, log, http.StatusInternalServerError, "failed to register node", err)
			return
		}
		if h.PiManager != nil {
			if err := h.PiManager.Materialize(n, pi.CmdlineContext{ControllerURL: h.ControllerURL}); err != nil {
				writeError(w, log, http.StatusInternalServerError, "failed to materialise pi tree", err)
				return
			}
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

	result, err := dispatch.Resolve(dispatch.FamilyPi, n, workflow, h.ServerBaseURL)
	if err != nil {
		writeError(w, log, http.StatusInternalServerError, "dispatch resolution failed", err)
		return
	}

	resp := piBootResponse{State: n.State}
	switch res := result.(type) {
	case dispatch.Discovered:
		resp.Message = res.Message
	case dispatch.DeployImage:
		resp.Action = "deploy_image"
		resp.ImageURL = res.ImageURL
		resp.TargetDevice = res.Target
		resp.CallbackURL = res.CallbackURL
	case dispatch.NfsBoot:
		resp.Action = "nfs_boot"
		resp.NFSServer = res.Server
		resp.NFSPath = res.Path
		resp.CallbackURL = res.CallbackURL
	case dispatch.Wait:
		resp.Action = "wait"
	case dispatch.LocalBoot:
		resp.Action = "local_boot"
	default:
		writeError(w, log, http.StatusInternalServerError, "unexpected dispatch result for pi family", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

package httpapi

import (
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pureboot/pureboot/internal/node"
	"github.com/pureboot/pureboot/internal/pi"
	"github.com/pureboot/pureboot/internal/throttle"
	handlerpkg "github.com/pureboot/pureboot/pkg/http/handler"
	"github.com/pureboot/pureboot/pkg/http/server"
)

// Config wires the dependencies every boot-dispatch HTTP handler needs.
type Config struct {
	Registry      node.Registry
	Workflows     WorkflowLookup
	PiManager     *pi.Manager
	Throttler     *throttle.Throttler
	Files         FileSource
	ServerBaseURL string
	ServerIP      string
	HTTPPort      int
	TFTPPort      int
	ControllerURL string
	AutoRegister  bool
	StartedAt     time.Time
	Log           logr.Logger
}

// Routes builds the registered route table for the boot dispatch HTTP
// server: /boot, /boot/pi, /files/, and /healthz, grounded on the
// teacher's pkg/http/server.Routes registration pattern.
func Routes(cfg Config) server.Routes {
	var rs server.Routes

	boot := &BootHandler{
		Registry:      cfg.Registry,
		Workflows:     cfg.Workflows,
		ServerBaseURL: cfg.ServerBaseURL,
		ServerIP:      cfg.ServerIP,
		HTTPPort:      cfg.HTTPPort,
		TFTPPort:      cfg.TFTPPort,
		AutoRegister:  cfg.AutoRegister,
		Log:           cfg.Log,
	}
	rs.Register("/boot", boot, "x86/iPXE boot dispatch")

	bootPi := &BootPiHandler{
		Registry:      cfg.Registry,
		Workflows:     cfg.Workflows,
		PiManager:     cfg.PiManager,
		ControllerURL: cfg.ControllerURL,
		ServerBaseURL: cfg.ServerBaseURL,
		AutoRegister:  cfg.AutoRegister,
		Log:           cfg.Log,
	}
	rs.Register("/boot/pi", bootPi, "Raspberry Pi boot dispatch")

	files := &FilesHandler{
		Source:    cfg.Files,
		Throttler: cfg.Throttler,
		Log:       cfg.Log,
	}
	rs.Register("/files/", files, "throttled file delivery")

	rs.Register("/healthz", handlerpkg.HealthCheck(cfg.Log, cfg.StartedAt), "liveness probe")
	rs.Register("/metrics", promhttp.Handler(), "prometheus metrics")

	return rs
}

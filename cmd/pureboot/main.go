// Command pureboot runs the network bootstrap dispatch plane: a
// proxy-DHCP responder, a read-only TFTP engine, and a throttled HTTP
// boot-dispatch server, all bound to one in-process node registry.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"golang.org/x/sync/errgroup"

	"github.com/pureboot/pureboot/cmd/pureboot/flag"
	"github.com/pureboot/pureboot/internal/dhcp"
	"github.com/pureboot/pureboot/internal/httpapi"
	"github.com/pureboot/pureboot/internal/node/memstore"
	"github.com/pureboot/pureboot/internal/pi"
	"github.com/pureboot/pureboot/internal/tftp"
	"github.com/pureboot/pureboot/internal/throttle"
	workflowmemstore "github.com/pureboot/pureboot/internal/workflow/memstore"
	"github.com/pureboot/pureboot/pkg/http/middleware"
	httpserver "github.com/pureboot/pureboot/pkg/http/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg := &flag.RuntimeConfig{
		LogLevel:           "info",
		PublicIP:           detectPublicIP(),
		DHCPBindAddr:       netip.MustParseAddrPort("0.0.0.0:4011"),
		DHCPEnabled:        true,
		TFTPBindAddr:       "0.0.0.0",
		TFTPPort:           69,
		TFTPRoot:           "/var/lib/pureboot/tftp",
		HTTPBindAddr:       "0.0.0.0",
		HTTPPort:           80,
		PiFirmwareDir:      "/var/lib/pureboot/pi/firmware",
		PiDeployDir:        "/var/lib/pureboot/pi/deploy",
		PiNodesDir:         "/var/lib/pureboot/pi/nodes",
		PiDiscoveryDir:     "/var/lib/pureboot/pi/discovery",
		AutoRegister:       true,
		TotalBandwidthMbps: 1000,
	}

	fs := &flag.Set{FlagSet: ff.NewFlagSet("pureboot")}
	flag.RegisterPurebootFlags(fs, cfg)

	cli := &ff.Command{
		Name:     "pureboot",
		Usage:    "pureboot [flags]",
		LongHelp: "Network bootstrap dispatch plane: proxy-DHCP, TFTP, and boot-dispatch HTTP.",
		Flags:    fs.FlagSet,
	}
	if err := cli.Parse(os.Args[1:], ff.WithEnvVarPrefix("PUREBOOT")); err != nil {
		fmt.Fprintln(os.Stderr, ffhelp.Command(cli))
		if err == ff.ErrHelp {
			return nil
		}
		return fmt.Errorf("parsing flags: %w", err)
	}

	log := getLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	registry := memstore.New()
	workflows := workflowmemstore.New()

	piManager := &pi.Manager{
		FirmwareDir:  cfg.PiFirmwareDir,
		DeployDir:    cfg.PiDeployDir,
		NodesDir:     cfg.PiNodesDir,
		DiscoveryDir: cfg.PiDiscoveryDir,
		Log:          log.WithName("pi"),
	}
	if err := piManager.MaterializeDiscovery(); err != nil {
		return fmt.Errorf("materializing pi discovery tree: %w", err)
	}

	throttler := throttle.New(cfg.TotalBandwidthMbps * 1_000_000 / 8)

	serverBaseURL := fmt.Sprintf("http://%s:%d", cfg.PublicIP, cfg.HTTPPort)

	g, ctx := errgroup.WithContext(ctx)

	if cfg.DHCPEnabled {
		dhcpAddr, err := net.ResolveUDPAddr("udp4", cfg.DHCPBindAddr.String())
		if err != nil {
			return fmt.Errorf("resolving dhcp bind address: %w", err)
		}
		dhcpCfg := dhcp.Config{
			ServerIP: cfg.PublicIP,
			TFTPPort: cfg.TFTPPort,
		}
		g.Go(func() error {
			log.Info("starting proxy-dhcp responder", "addr", dhcpAddr.String())
			return dhcp.ListenAndServe(ctx, dhcpAddr, dhcpCfg, log.WithName("dhcp"))
		})
	}

	rootHandler := tftp.RootHandler{Root: cfg.TFTPRoot, Log: log.WithName("tftp")}
	piHandler := tftp.PiTreeHandler{NodesDir: cfg.PiNodesDir, DiscoveryDir: cfg.PiDiscoveryDir, Log: log.WithName("tftp-pi")}
	mux := tftp.NewBootMux(rootHandler, piHandler, log.WithName("tftp"))
	tftpCfg := tftp.Config{Log: log.WithName("tftp")}
	g.Go(func() error {
		addr := fmt.Sprintf("%s:%d", cfg.TFTPBindAddr, cfg.TFTPPort)
		log.Info("starting tftp engine", "addr", addr)
		return tftpCfg.ListenAndServe(ctx, addr, mux)
	})

	controllerURL := ""
	if (cfg.ControllerURL != url.URL{}) {
		controllerURL = cfg.ControllerURL.String()
	}

	routes := httpapi.Routes(httpapi.Config{
		Registry:      registry,
		Workflows:     workflows,
		PiManager:     piManager,
		Throttler:     throttler,
		Files:         httpapi.DiskFileSource{Root: cfg.TFTPRoot},
		ServerBaseURL: serverBaseURL,
		ServerIP:      cfg.PublicIP.String(),
		HTTPPort:      cfg.HTTPPort,
		TFTPPort:      cfg.TFTPPort,
		ControllerURL: controllerURL,
		AutoRegister:  cfg.AutoRegister,
		StartedAt:     time.Now(),
		Log:           log.WithName("http"),
	})
	httpMux, _ := routes.Muxes(log, 0, false)

	var handler http.Handler = httpMux
	handler = middleware.OTel("pureboot-http")(handler)
	handler = middleware.RequestMetrics()(handler)
	handler = middleware.Logging(log.WithName("http"))(handler)
	handler = middleware.SourceIP()(handler)
	handler = middleware.Recovery(log.WithName("http"))(handler)

	httpSrv := httpserver.NewConfig(func(c *httpserver.Config) {
		c.BindAddr = cfg.HTTPBindAddr
		c.BindPort = cfg.HTTPPort
	})
	g.Go(func() error {
		log.Info("starting boot dispatch http server", "addr", fmt.Sprintf("%s:%d", cfg.HTTPBindAddr, cfg.HTTPPort))
		return httpSrv.Serve(ctx, log.WithName("http"), handler, nil)
	})

	return g.Wait()
}

package flag

import (
	"net/netip"
	"net/url"

	"github.com/peterbourgon/ff/v4/ffval"

	netipflag "github.com/pureboot/pureboot/pkg/flag/netip"
	urlflag "github.com/pureboot/pureboot/pkg/flag/url"
)

// RuntimeConfig is pureboot's full runtime configuration, populated from
// defaults and overridden by CLI flags / environment variables.
type RuntimeConfig struct {
	LogLevel string

	PublicIP netip.Addr

	DHCPBindAddr netip.AddrPort
	DHCPEnabled  bool

	TFTPBindAddr string
	TFTPPort     int
	TFTPRoot     string

	HTTPBindAddr string
	HTTPPort     int

	PiFirmwareDir  string
	PiDeployDir    string
	PiNodesDir     string
	PiDiscoveryDir string

	ControllerURL      url.URL
	AutoRegister       bool
	TotalBandwidthMbps float64
}

var (
	logLevel = Config{Name: "log-level", Usage: "log level: info or debug"}

	publicIP = Config{Name: "public-ip", Usage: "public IPv4 address this server is reachable on"}

	dhcpBindAddr = Config{Name: "dhcp-bind-addr", Usage: "address:port the proxy-DHCP responder listens on"}
	dhcpEnabled  = Config{Name: "dhcp-enabled", Usage: "enable the proxy-DHCP responder"}

	tftpBindAddr = Config{Name: "tftp-bind-addr", Usage: "address the TFTP engine listens on"}
	tftpPort     = Config{Name: "tftp-port", Usage: "port the TFTP engine listens on"}
	tftpRoot     = Config{Name: "tftp-root", Usage: "filesystem root the flat TFTP tree is served from"}

	httpBindAddr = Config{Name: "http-bind-addr", Usage: "address the boot dispatch HTTP server listens on"}
	httpPort     = Config{Name: "http-port", Usage: "port the boot dispatch HTTP server listens on"}

	piFirmwareDir  = Config{Name: "pi-firmware-dir", Usage: "directory holding shared Pi firmware files"}
	piDeployDir    = Config{Name: "pi-deploy-dir", Usage: "directory holding shared Pi kernel/initramfs"}
	piNodesDir     = Config{Name: "pi-nodes-dir", Usage: "directory holding per-node Pi TFTP trees"}
	piDiscoveryDir = Config{Name: "pi-discovery-dir", Usage: "directory holding the Pi discovery TFTP tree"}

	controllerURL      = Config{Name: "controller-url", Usage: "controller URL injected into Pi cmdline.txt as pureboot.url"}
	autoRegister       = Config{Name: "auto-register", Usage: "auto-register unknown nodes as discovered on first contact"}
	totalBandwidthMbps = Config{Name: "total-bandwidth-mbps", Usage: "aggregate egress budget for the throttled /files endpoint, in Mbps"}
)

// RegisterPurebootFlags registers every pureboot flag against fs, backed
// by cfg's fields.
func RegisterPurebootFlags(fs *Set, cfg *RuntimeConfig) {
	fs.Register(logLevel, ffval.NewValueDefault(&cfg.LogLevel, cfg.LogLevel))
	fs.Register(publicIP, &netipflag.Addr{Addr: &cfg.PublicIP})

	fs.Register(dhcpBindAddr, &netipflag.AddrPort{AddrPort: &cfg.DHCPBindAddr})
	fs.Register(dhcpEnabled, ffval.NewValueDefault(&cfg.DHCPEnabled, cfg.DHCPEnabled))

	fs.Register(tftpBindAddr, ffval.NewValueDefault(&cfg.TFTPBindAddr, cfg.TFTPBindAddr))
	fs.Register(tftpPort, ffval.NewValueDefault(&cfg.TFTPPort, cfg.TFTPPort))
	fs.Register(tftpRoot, ffval.NewValueDefault(&cfg.TFTPRoot, cfg.TFTPRoot))

	fs.Register(httpBindAddr, ffval.NewValueDefault(&cfg.HTTPBindAddr, cfg.HTTPBindAddr))
	fs.Register(httpPort, ffval.NewValueDefault(&cfg.HTTPPort, cfg.HTTPPort))

	fs.Register(piFirmwareDir, ffval.NewValueDefault(&cfg.PiFirmwareDir, cfg.PiFirmwareDir))
	fs.Register(piDeployDir, ffval.NewValueDefault(&cfg.PiDeployDir, cfg.PiDeployDir))
	fs.Register(piNodesDir, ffval.NewValueDefault(&cfg.PiNodesDir, cfg.PiNodesDir))
	fs.Register(piDiscoveryDir, ffval.NewValueDefault(&cfg.PiDiscoveryDir, cfg.PiDiscoveryDir))

	fs.Register(controllerURL, &urlflag.URL{URL: &cfg.ControllerURL})
	fs.Register(autoRegister, ffval.NewValueDefault(&cfg.AutoRegister, cfg.AutoRegister))
	fs.Register(totalBandwidthMbps, ffval.NewValueDefault(&cfg.TotalBandwidthMbps, cfg.TotalBandwidthMbps))
}

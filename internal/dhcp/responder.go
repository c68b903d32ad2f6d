package dhcp

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"net/url"

	"github.com/go-logr/logr"
	"github.com/insomniacslk/dhcp/dhcpv4"
	"github.com/insomniacslk/dhcp/dhcpv4/server4"

	"github.com/pureboot/pureboot/pkg/constant"
)

// NodeResolver is the only capability the responder needs from the node
// registry: whether a MAC is already known to be an iPXE client that
// should be chained straight to its boot script, and what server to chain
// it to. Classification of unknown nodes happens later, at the HTTP boot
// dispatch layer (internal/dispatch) — the proxy-DHCP responder itself
// never reads or writes node state.
type NodeResolver interface {
	// ScriptURL returns the HTTP URL to chain an already-iPXE client to,
	// for the given client MAC.
	ScriptURL(mac net.HardwareAddr) *url.URL
}

// Config holds everything the responder needs to build a BOOTREPLY.
type Config struct {
	// ServerIP is the address advertised in option 54 and siaddr: this
	// host's address, as seen by booting clients.
	ServerIP netip.Addr
	// TFTPPort is the port the TFTP engine listens on. The responder does
	// not read it when building replies: option 66 carries only the
	// server IP.
	TFTPPort int
	// Resolver supplies the HTTP script URL for clients already running
	// iPXE.
	Resolver NodeResolver
	// MACAddrFormat controls how the client MAC is rendered into the
	// fallback boot-script URL built in scriptURL, when no Resolver is
	// configured or it returns nil. The zero value renders colon form.
	MACAddrFormat constant.MACFormat
}

// Handler answers PXE BOOTREQUESTs with a BOOTREPLY carrying just enough
// option data to steer the client to its next boot artifact, per spec
// §4.2. It never leases an IP address and keeps no state between packets.
type Handler struct {
	Config Config
	Log    logr.Logger
}

// NewHandler returns a server4.Handler closure bound to cfg, suitable for
// passing to server4.NewServer.
func NewHandler(cfg Config, log logr.Logger) server4.Handler {
	h := &Handler{Config: cfg, Log: log}
	return h.Handle
}

// Handle implements server4.Handler. It is called once per received
// packet and must not block for long: there is no per-client state to
// carry across calls.
func (h *Handler) Handle(conn net.PacketConn, peer net.Addr, pkt *dhcpv4.DHCPv4) {
	if pkt == nil {
		return
	}
	log := h.Log.WithValues("mac", pkt.ClientHWAddr.String(), "xid", pkt.TransactionID)

	if pkt.OpCode != dhcpv4.OpcodeBootRequest {
		return
	}
	if !IsNetbootClient(pkt) {
		log.V(1).Info("not a netboot client, ignoring")
		return
	}

	var msgType dhcpv4.MessageType
	switch pkt.MessageType() {
	case dhcpv4.MessageTypeDiscover:
		msgType = dhcpv4.MessageTypeOffer
	case dhcpv4.MessageTypeRequest:
		msgType = dhcpv4.MessageTypeAck
	default:
		return
	}

	reply, err := h.buildReply(pkt, msgType)
	if err != nil {
		log.Error(err, "failed to build dhcp reply")
		return
	}

	if _, err := conn.WriteTo(reply.ToBytes(), peer); err != nil {
		log.Error(err, "failed to send dhcp reply")
		return
	}
	log.Info("sent proxy-dhcp reply", "bootfile", reply.BootFileName)
}

// buildReply implements the response policy of spec §4.2: a raw firmware
// client gets a TFTP path to a stage-1 binary (options 66/67); a client
// that already identifies as iPXE gets an HTTP URL in option 67 instead,
// and no option 66, breaking the chainload loop.
func (h *Handler) buildReply(pkt *dhcpv4.DHCPv4, msgType dhcpv4.MessageType) (*dhcpv4.DHCPv4, error) {
	serverIP := h.Config.ServerIP.AsSlice()

	mods := []dhcpv4.Modifier{
		dhcpv4.WithMessageType(msgType),
		dhcpv4.WithServerIP(net.IP(serverIP)),
		dhcpv4.WithGeneric(dhcpv4.OptionServerIdentifier, net.IP(serverIP)),
	}

	if IsIPXE(pkt) {
		scriptURL := h.scriptURL(pkt.ClientHWAddr)
		mods = append(mods, func(d *dhcpv4.DHCPv4) {
			d.BootFileName = scriptURL
			d.ServerHostName = ""
		})
	} else {
		arch := ClassifyArch(uint16(archOrZero(pkt)))
		bin := arch.StageOneBinary().String()
		mods = append(mods, func(d *dhcpv4.DHCPv4) {
			d.BootFileName = bin
			d.UpdateOption(dhcpv4.OptGeneric(dhcpv4.OptionTFTPServerName, []byte(h.Config.ServerIP.String())))
		})
	}

	return dhcpv4.NewReplyFromRequest(pkt, mods...)
}

func (h *Handler) scriptURL(mac net.HardwareAddr) string {
	if h.Config.Resolver != nil {
		if u := h.Config.Resolver.ScriptURL(mac); u != nil {
			return u.String()
		}
	}
	return fmt.Sprintf("http://%s/boot?mac=%s", h.Config.ServerIP.String(), MACAddrFormat(mac, h.Config.MACAddrFormat))
}

func archOrZero(pkt *dhcpv4.DHCPv4) int {
	if code := ArchCode(pkt); code >= 0 {
		return code
	}
	return 0
}

// ListenAndServe starts the proxy-DHCP responder on addr (conventionally
// 0.0.0.0:4011, the PXE proxy port) and blocks until ctx is cancelled.
func ListenAndServe(ctx context.Context, addr *net.UDPAddr, cfg Config, log logr.Logger) error {
	srv, err := server4.NewServer("", addr, NewHandler(cfg, log))
	if err != nil {
		return fmt.Errorf("starting proxy-dhcp server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve() }()

	select {
	case <-ctx.Done():
		_ = srv.Close()
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

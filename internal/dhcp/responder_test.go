package dhcp

import (
	"net"
	"net/netip"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/insomniacslk/dhcp/dhcpv4"
	"github.com/insomniacslk/dhcp/iana"
)

func discoverPacket(mac string, archCode uint16, userClass string) *dhcpv4.DHCPv4 {
	hw, _ := net.ParseMAC(mac)
	opts := []dhcpv4.Modifier{
		dhcpv4.OptMessageType(dhcpv4.MessageTypeDiscover),
		dhcpv4.OptClassIdentifier("PXEClient:Arch:00000:UNDI:002001"),
		dhcpv4.OptClientArch(iana.Arch(archCode)),
	}
	if userClass != "" {
		opts = append(opts, dhcpv4.OptUserClass(userClass))
	}
	return &dhcpv4.DHCPv4{
		OpCode:       dhcpv4.OpcodeBootRequest,
		ClientHWAddr: hw,
		Options:      dhcpv4.OptionsFromList(opts...),
	}
}

func TestBuildReplyBIOSHappyPath(t *testing.T) {
	h := &Handler{
		Config: Config{ServerIP: netip.MustParseAddr("192.0.2.1")},
		Log:    logr.Discard(),
	}
	pkt := discoverPacket("00:11:22:33:44:55", 0, "")

	reply, err := h.buildReply(pkt, dhcpv4.MessageTypeOffer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.BootFileName != "bios/undionly.kpxe" {
		t.Errorf("bootfile = %q, want bios/undionly.kpxe", reply.BootFileName)
	}
	if got := reply.Options.Get(dhcpv4.OptionTFTPServerName); string(got) != "192.0.2.1" {
		t.Errorf("option 66 = %q, want server IP", got)
	}
}

func TestBuildReplyIPXEChain(t *testing.T) {
	h := &Handler{
		Config: Config{ServerIP: netip.MustParseAddr("192.0.2.1")},
		Log:    logr.Discard(),
	}
	pkt := discoverPacket("00:11:22:33:44:55", 9, "iPXE")

	reply, err := h.buildReply(pkt, dhcpv4.MessageTypeOffer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(reply.BootFileName, "http://") {
		t.Errorf("bootfile = %q, want an http:// URL", reply.BootFileName)
	}
	if got := reply.Options.Get(dhcpv4.OptionTFTPServerName); got != nil {
		t.Errorf("option 66 should be absent for an iPXE client, got %q", got)
	}
}

// Package dhcp implements the proxy-DHCP responder: it classifies a PXE
// client's firmware from its DHCP request and answers with either a TFTP
// path to a stage-1 binary or an HTTP URL to a rendered iPXE script,
// without ever leasing an address of its own.
package dhcp

import (
	"bytes"
	"net"
	"strings"

	"github.com/insomniacslk/dhcp/dhcpv4"

	"github.com/pureboot/pureboot/pkg/constant"
)

// UserClass is DHCP option 77 (RFC 3004).
type UserClass string

const (
	// UserClassIPXE marks a client that already runs iPXE and is chaining
	// to the HTTP boot script rather than requesting a stage-1 binary.
	UserClassIPXE UserClass = "iPXE"
)

// ClientType is DHCP option 60's leading token.
type ClientType string

const (
	ClientTypePXE  ClientType = "PXEClient"
	ClientTypeHTTP ClientType = "HTTPClient"
)

// rpiOUIPrefixes are the Raspberry Pi Trading Ltd. OUI blocks. Recent Pi
// boards (notably the Pi 5) sometimes report DHCP option 93 as 0, which
// ClassifyArch classifies as BIOS; matching the MAC prefix via
// IsRaspberryPi is a second, independent signal. The responder's Handle
// and buildReply do not call it.
var rpiOUIPrefixes = [][]byte{
	{0xb8, 0x27, 0xeb}, // B8:27:EB
	{0xdc, 0xa6, 0x32}, // DC:A6:32
	{0xe4, 0x5f, 0x01}, // E4:5F:01
	{0x28, 0xcd, 0xc1}, // 28:CD:C1
	{0xd8, 0x3a, 0xdd}, // D8:3A:DD
}

// IsRaspberryPi reports whether mac belongs to a Raspberry Pi Trading Ltd.
// OUI block.
func IsRaspberryPi(mac net.HardwareAddr) bool {
	for _, prefix := range rpiOUIPrefixes {
		if bytes.HasPrefix(mac, prefix) {
			return true
		}
	}
	return false
}

// Firmware is the coarse x86 firmware classification the responder needs:
// just enough to pick a stage-1 binary, per spec §4.2 (anything other than
// BIOS/UEFI-x64 collapses to BIOS).
type Firmware int

const (
	FirmwareBIOS Firmware = iota
	FirmwareUEFI64
)

// ClassifyArch maps a DHCP option 93 client-architecture code to a
// Firmware classification: 0 is BIOS, 7 and 9 are UEFI x64, anything else
// is treated as BIOS per spec §4.2.
func ClassifyArch(code uint16) Firmware {
	switch code {
	case 7, 9:
		return FirmwareUEFI64
	default:
		return FirmwareBIOS
	}
}

// StageOneBinary returns the TFTP-root-relative stage-1 binary path for a
// Firmware classification.
func (f Firmware) StageOneBinary() constant.IPXEBinary {
	if f == FirmwareUEFI64 {
		return constant.IPXEBinaryIPXEEFI
	}
	return constant.IPXEBinaryUndionlyKPXE
}

// ArchCode extracts the raw option 93 architecture code from a request, or
// -1 if the option is absent.
func ArchCode(pkt *dhcpv4.DHCPv4) int {
	archs := pkt.ClientArch()
	if len(archs) == 0 {
		return -1
	}
	return int(archs[0])
}

// IsIPXE reports whether the client already runs iPXE: option 77 carries
// the literal "iPXE", or option 175 is present with any data, per spec
// §4.2.
func IsIPXE(pkt *dhcpv4.DHCPv4) bool {
	if uc := pkt.Options.Get(dhcpv4.OptionUserClassInformation); uc != nil && UserClass(uc) == UserClassIPXE {
		return true
	}
	if pkt.Options.Has(dhcpv4.GenericOptionCode(175)) {
		return true
	}
	return false
}

// ClientTypeFrom reads option 60's leading token.
func ClientTypeFrom(pkt *dhcpv4.DHCPv4) ClientType {
	opt60 := pkt.ClassIdentifier()
	switch {
	case strings.HasPrefix(opt60, string(ClientTypeHTTP)):
		return ClientTypeHTTP
	default:
		return ClientTypePXE
	}
}

// IsNetbootClient validates the minimal PXE request shape from spec §4.2:
// a Discover or Request message, with option 60 identifying a PXE or HTTP
// client and option 93 present. The GUID in option 97, when present, must
// be 17 bytes starting with a null byte; a handful of PXE ROMs omit it
// entirely, which this tolerates.
func IsNetbootClient(pkt *dhcpv4.DHCPv4) bool {
	if pkt.MessageType() != dhcpv4.MessageTypeDiscover && pkt.MessageType() != dhcpv4.MessageTypeRequest {
		return false
	}
	if !pkt.Options.Has(dhcpv4.OptionClassIdentifier) {
		return false
	}
	opt60 := pkt.ClassIdentifier()
	if !strings.HasPrefix(opt60, string(ClientTypePXE)) && !strings.HasPrefix(opt60, string(ClientTypeHTTP)) {
		return false
	}
	if !pkt.Options.Has(dhcpv4.OptionClientSystemArchitectureType) {
		return false
	}

	guid := pkt.GetOneOption(dhcpv4.OptionClientMachineIdentifier)
	switch len(guid) {
	case 0:
	case 17:
		if guid[0] != 0 {
			return false
		}
	default:
		return false
	}
	return true
}

// MACAddrFormat renders mac according to format, for injecting into a TFTP
// or HTTP boot-file path (spec's MAC-format injection supplement).
func MACAddrFormat(mac net.HardwareAddr, format constant.MACFormat) string {
	switch format {
	case constant.MacAddrFormatDot:
		return dotNotation(mac)
	case constant.MacAddrFormatDash:
		return dashNotation(mac)
	case constant.MacAddrFormatNoDelimiter:
		return noDelimiter(mac)
	case constant.MacAddrFormatEmpty:
		return ""
	case constant.MacAddrFormatColon:
		fallthrough
	default:
		return mac.String()
	}
}

const hexDigit = "0123456789abcdef"

func dashNotation(a net.HardwareAddr) string {
	if len(a) == 0 {
		return ""
	}
	buf := make([]byte, 0, len(a)*3-1)
	for i, b := range a {
		if i > 0 {
			buf = append(buf, '-')
		}
		buf = append(buf, hexDigit[b>>4], hexDigit[b&0xF])
	}
	return string(buf)
}

func dotNotation(a net.HardwareAddr) string {
	if len(a) == 0 {
		return ""
	}
	buf := make([]byte, 0, len(a)*5-1)
	for i, b := range a {
		if i > 0 && i%2 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, hexDigit[b>>4], hexDigit[b&0xF])
	}
	return string(buf)
}

func noDelimiter(a net.HardwareAddr) string {
	if len(a) == 0 {
		return ""
	}
	buf := make([]byte, 0, len(a)*2)
	for _, b := range a {
		buf = append(buf, hexDigit[b>>4], hexDigit[b&0xF])
	}
	return string(buf)
}

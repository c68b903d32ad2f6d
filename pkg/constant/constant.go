// Package constant holds small shared vocabularies used across pureboot's
// packages: MAC address rendering formats and iPXE stage-1 binary paths.
package constant

const (
	// MacAddrFormatColon is a MAC address format with colon delimiters between pairs of characters.
	MacAddrFormatColon MACFormat = "colon"
	// MacAddrFormatDot is a MAC address format with dot delimiters between groups of 4 characters.
	MacAddrFormatDot MACFormat = "dot"
	// MacAddrFormatDash is a MAC address format with dash delimiters between pairs of characters.
	MacAddrFormatDash MACFormat = "dash"
	// MacAddrFormatNoDelimiter removes all delimiters from a MAC address. Note that this is not a valid MAC address format.
	// It is useful for cases where delimiters can potentially cause issues, such as in URLs and TFTP paths.
	MacAddrFormatNoDelimiter MACFormat = "no-delimiter"
	// MacAddrFormatEmpty converts a MAC address to an empty string. Note that this is not a valid MAC address format.
	MacAddrFormatEmpty MACFormat = "empty"

	// IPXEBinaryUndionlyKPXE is the stage-1 binary served to legacy BIOS (arch 0/6) clients.
	IPXEBinaryUndionlyKPXE IPXEBinary = "bios/undionly.kpxe"
	// IPXEBinaryIPXEEFI is the stage-1 binary served to UEFI x86_64 (arch 7/9) clients.
	IPXEBinaryIPXEEFI IPXEBinary = "uefi/ipxe.efi"
)

// MACFormat is a format for rendering a MAC address into a URL or TFTP path segment.
type MACFormat string

func (m MACFormat) String() string {
	return string(m)
}

// IPXEBinary is a TFTP-root-relative path to a stage-1 boot binary.
type IPXEBinary string

func (i IPXEBinary) String() string {
	return string(i)
}

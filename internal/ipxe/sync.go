package ipxe

import (
	"path/filepath"

	"github.com/go-logr/logr"

	"github.com/pureboot/pureboot/internal/atomicfile"
)

// ResyncResult reports which TFTP-root scripts were rewritten by Resync.
type ResyncResult struct {
	Autoexec bool
	BIOSBoot bool
	UEFIBoot bool
}

// Resync regenerates autoexec.ipxe, bios/boot.ipxe, and uefi/boot.ipxe in
// root, writing each only if its rendered content changed — the TFTP
// script sync policy from spec §4.3, run whenever the server's primary IP
// changes.
func Resync(root string, ctx Context, log logr.Logger) (ResyncResult, error) {
	var result ResyncResult

	autoexec := GenerateAutoexec(ctx)
	changed, err := atomicfile.WriteIfChanged(filepath.Join(root, "autoexec.ipxe"), []byte(autoexec), 0o644)
	if err != nil {
		return result, err
	}
	result.Autoexec = changed

	boot := GenerateBootScript(ctx)
	changed, err = atomicfile.WriteIfChanged(filepath.Join(root, "bios", "boot.ipxe"), []byte(boot), 0o644)
	if err != nil {
		return result, err
	}
	result.BIOSBoot = changed

	changed, err = atomicfile.WriteIfChanged(filepath.Join(root, "uefi", "boot.ipxe"), []byte(boot), 0o644)
	if err != nil {
		return result, err
	}
	result.UEFIBoot = changed

	log.V(1).Info("tftp ipxe scripts resynced",
		"autoexec", result.Autoexec, "biosBoot", result.BIOSBoot, "uefiBoot", result.UEFIBoot)
	return result, nil
}

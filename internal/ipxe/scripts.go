package ipxe

import "fmt"

const autoexecTemplate = `#!ipxe

:retry
dhcp || goto retry
chain http://${server.ip}:${server.http_port}/boot?mac=${mac:hexhyp} || goto retry
`

const bootScriptTemplate = `#!ipxe
cls
echo pureboot
:retry
chain http://${server.ip}:${server.http_port}/boot?mac=${mac:hexhyp} || goto failed
exit
:failed
sleep 5
goto retry
`

const installScriptTemplate = `#!ipxe
kernel ${workflow.kernel_path} ${workflow.cmdline}
initrd ${workflow.initrd_path}
boot
`

const localBootTemplate = `#!ipxe
sanboot --no-describe --drive 0x80 || exit
`

const retryTemplate = `#!ipxe
echo pureboot: no workflow assigned yet, retrying in %ds
sleep %d
chain http://${server.ip}:${server.http_port}/boot?mac=${mac:hexhyp}
`

// GenerateAutoexec renders the embedded/autoexec script compiled into, or
// TFTP-loaded by, the stage-1 binary: it brings up DHCP and chains to the
// boot HTTP endpoint, retrying on failure (spec §4.3's first script
// class). The ${mac:hexhyp} reference is iPXE's own runtime variable, left
// untouched by Render since it does not match our ${namespace.key} form.
func GenerateAutoexec(ctx Context) string {
	return Render(autoexecTemplate, ctx)
}

// GenerateBootScript renders the script served to an already-chainloaded
// iPXE client: clear screen, banner, chain to /boot, five-second retry on
// failure (spec §4.3's second script class).
func GenerateBootScript(ctx Context) string {
	return Render(bootScriptTemplate, ctx)
}

// GenerateInstallScript renders the per-node install script for a pending
// workflow: kernel plus cmdline, initrd, boot (spec §4.3's third script
// class).
func GenerateInstallScript(ctx Context) string {
	return Render(installScriptTemplate, ctx)
}

// GenerateLocalBootScript renders the script handed to an x86/iPXE client
// that should fall through to its local disk: discovered, installed,
// active, install_failed, and installing (to avoid install re-entry), per
// spec §4.6's dispatch table.
func GenerateLocalBootScript(ctx Context) string {
	return Render(localBootTemplate, ctx)
}

// GenerateRetryScript renders the poll-and-retry script for an x86/iPXE
// client in pending with no workflow assigned yet: chain back to /boot
// after retrySeconds, per spec §4.6.
func GenerateRetryScript(ctx Context, retrySeconds int) string {
	return Render(fmt.Sprintf(retryTemplate, retrySeconds, retrySeconds), ctx)
}

package pi

import (
	"fmt"
	"strings"

	"github.com/pureboot/pureboot/internal/model"
)

// BuildConfigTxt renders the static per-model config.txt content for
// model m, whose device tree blob is dtbName, per spec §4.4.
func BuildConfigTxt(m model.PiModel, dtbName string) string {
	var b strings.Builder
	b.WriteString("arm_64bit=1\n")
	fmt.Fprintf(&b, "device_tree=%s\n", dtbName)
	b.WriteString("kernel=kernel8.img\n")
	b.WriteString("initramfs initramfs.img followkernel\n")
	b.WriteString("enable_uart=1\n")
	b.WriteString("gpu_mem=16\n")
	b.WriteString("boot_delay=0\n")
	b.WriteString("disable_splash=1\n")
	return b.String()
}

// BuildCmdline renders the state-aware single-line cmdline.txt for node,
// per spec §4.4's exact key ordering and conditional blocks.
func BuildCmdline(node *model.Node, ctx CmdlineContext) string {
	var fields []string
	fields = append(fields,
		"console=serial0,115200",
		"console=tty1",
		"ip=dhcp",
		fmt.Sprintf("pureboot.serial=%s", node.SerialNumber),
		fmt.Sprintf("pureboot.state=%s", node.State),
	)

	if ctx.ControllerURL != "" {
		fields = append(fields, fmt.Sprintf("pureboot.url=%s", ctx.ControllerURL))
	}

	wf := ctx.Workflow
	switch {
	case node.State == model.StateInstalling && wf != nil && wf.ImageURL != "":
		fields = append(fields, "pureboot.mode=install", fmt.Sprintf("pureboot.image_url=%s", wf.ImageURL))
		if wf.TargetDevice != "" {
			fields = append(fields, fmt.Sprintf("pureboot.target=%s", wf.TargetDevice))
		}
		if node.ID != "" {
			fields = append(fields, fmt.Sprintf("pureboot.node_id=%s", node.ID))
		}
		if node.MACAddress != "" {
			fields = append(fields, fmt.Sprintf("pureboot.mac=%s", node.MACAddress))
		}
		if wf.PostScriptURL != "" {
			fields = append(fields, fmt.Sprintf("pureboot.callback=%s", wf.PostScriptURL))
		}
		fields = append(fields, "root=/dev/ram0", "rootfstype=ramfs")
	case wf != nil && wf.NFSServer != "" && wf.NFSPath != "":
		fields = append(fields, "root=/dev/nfs", fmt.Sprintf("nfsroot=%s:%s,vers=4,tcp", wf.NFSServer, wf.NFSPath), "rw")
	default:
		fields = append(fields, "root=/dev/ram0", "rootfstype=ramfs")
	}

	fields = append(fields, "quiet", "loglevel=4")

	return strings.Join(fields, " ") + "\n"
}

// DiscoveryCmdline is the fixed cmdline.txt served to unknown Pi clients
// from the discovery tree, per spec §4.4.
const DiscoveryCmdline = "pureboot.mode=discovery pureboot.state=discovered\n"

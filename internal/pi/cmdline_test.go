package pi

import (
	"strings"
	"testing"

	"github.com/pureboot/pureboot/internal/model"
)

func TestBuildCmdlineDefault(t *testing.T) {
	node := &model.Node{SerialNumber: "d83add36", State: model.StateDiscovered}
	got := BuildCmdline(node, CmdlineContext{})
	want := "console=serial0,115200 console=tty1 ip=dhcp pureboot.serial=d83add36 pureboot.state=discovered root=/dev/ram0 rootfstype=ramfs quiet loglevel=4\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildCmdlineInstallingWithImage(t *testing.T) {
	node := &model.Node{ID: "n1", MACAddress: "aa:bb:cc:dd:ee:ff", SerialNumber: "d83add36", State: model.StateInstalling}
	wf := &model.Workflow{ImageURL: "http://example.com/img.tar.gz", TargetDevice: "/dev/mmcblk0", PostScriptURL: "http://example.com/cb"}
	got := BuildCmdline(node, CmdlineContext{Workflow: wf, ControllerURL: "http://controller.local"})

	for _, want := range []string{
		"pureboot.url=http://controller.local",
		"pureboot.mode=install",
		"pureboot.image_url=http://example.com/img.tar.gz",
		"pureboot.target=/dev/mmcblk0",
		"pureboot.node_id=n1",
		"pureboot.mac=aa:bb:cc:dd:ee:ff",
		"pureboot.callback=http://example.com/cb",
		"root=/dev/ram0 rootfstype=ramfs",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("cmdline %q missing %q", got, want)
		}
	}
	if !strings.HasSuffix(got, "quiet loglevel=4\n") {
		t.Errorf("cmdline %q should end with quiet loglevel=4", got)
	}
}

func TestBuildCmdlineNFSRoot(t *testing.T) {
	node := &model.Node{SerialNumber: "d83add36", State: model.StateActive}
	wf := &model.Workflow{NFSServer: "10.0.0.5", NFSPath: "/export/root"}
	got := BuildCmdline(node, CmdlineContext{Workflow: wf})
	if !strings.Contains(got, "root=/dev/nfs nfsroot=10.0.0.5:/export/root,vers=4,tcp rw") {
		t.Errorf("cmdline %q missing nfs root clause", got)
	}
}

func TestBuildConfigTxtReferencesModelDTB(t *testing.T) {
	got := BuildConfigTxt(model.PiModel4, "bcm2711-rpi-4-b.dtb")
	if !strings.Contains(got, "device_tree=bcm2711-rpi-4-b.dtb") {
		t.Errorf("config.txt %q missing device_tree line", got)
	}
	if !strings.Contains(got, "arm_64bit=1") {
		t.Errorf("config.txt %q missing arm_64bit", got)
	}
}

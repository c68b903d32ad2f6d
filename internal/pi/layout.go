// Package pi materialises the per-node TFTP tree a Raspberry Pi boot ROM
// expects: firmware and kernel symlinked from shared directories, plus a
// generated config.txt and a state-aware cmdline.txt, per spec §4.4.
package pi

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/go-logr/logr"

	"github.com/pureboot/pureboot/internal/atomicfile"
	"github.com/pureboot/pureboot/internal/model"
)

// SerialPattern is the only defence against path traversal into the nodes
// root: every operation that accepts a serial validates it against this
// pattern after lowercasing, per spec §4.4.
var SerialPattern = regexp.MustCompile(`^[0-9a-f]{8}$`)

// ValidateSerial lowercases s and checks it against SerialPattern.
func ValidateSerial(s string) (string, error) {
	lower := toLower(s)
	if !SerialPattern.MatchString(lower) {
		return "", fmt.Errorf("invalid pi serial %q: must match %s", s, SerialPattern.String())
	}
	return lower, nil
}

func toLower(s string) string {
	buf := []byte(s)
	for i, b := range buf {
		if b >= 'A' && b <= 'Z' {
			buf[i] = b + ('a' - 'A')
		}
	}
	return string(buf)
}

// firmwareSet lists the shared-directory files (relative to FirmwareDir)
// a given PiModel's boot ROM requires, per spec §4.4's table.
var firmwareSet = map[model.PiModel][]string{
	model.PiModel3:   {"bootcode.bin", "start.elf", "fixup.dat"},
	model.PiModel3BP: {"bootcode.bin", "start.elf", "fixup.dat"},
	model.PiModelCM3: {"bootcode.bin", "start.elf", "fixup.dat"},
	model.PiModel4:   {"start4.elf", "fixup4.dat"},
	model.PiModel5:   {"start4.elf", "fixup4.dat"},
}

// dtb is the model-specific device tree blob filename.
var dtb = map[model.PiModel]string{
	model.PiModel3:   "bcm2710-rpi-3-b.dtb",
	model.PiModel3BP: "bcm2710-rpi-3-b-plus.dtb",
	model.PiModelCM3: "bcm2710-rpi-cm3.dtb",
	model.PiModel4:   "bcm2711-rpi-4-b.dtb",
	model.PiModel5:   "bcm2712-rpi-5-b.dtb",
}

// DTB returns the device tree blob filename for model m.
func DTB(m model.PiModel) (string, error) {
	d, ok := dtb[m]
	if !ok {
		return "", fmt.Errorf("no dtb mapping for pi model %q", m)
	}
	return d, nil
}

// Manager materialises and tears down per-node Pi TFTP trees.
type Manager struct {
	// FirmwareDir holds the shared firmware files listed in firmwareSet.
	FirmwareDir string
	// DeployDir holds the shared kernel8.img and initramfs.img.
	DeployDir string
	// NodesDir is the parent of every per-node tree: NodesDir/<serial>/.
	NodesDir string
	// DiscoveryDir is served to unknown Pi clients: a tree carrying
	// firmware for every supported model plus a discovery cmdline.txt.
	DiscoveryDir string

	Log logr.Logger
}

// CmdlineContext supplies everything BuildCmdline needs beyond the node
// itself: the controller URL (if configured) and the dispatched workflow,
// when one is pending.
type CmdlineContext struct {
	ControllerURL string
	Workflow      *model.Workflow
}

// Materialize (re)creates <NodesDir>/<serial>/ for node, per spec's
// invariant that the tree contains exactly the files implied by its
// PiModel: firmware and kernel entries as symlinks, config.txt and
// cmdline.txt as regular files. It is safe to call repeatedly — the tree
// is always recreatable, which is how the spec's symlink-creation failure
// semantics ("logs and continues") stay non-fatal.
func (m *Manager) Materialize(node *model.Node, ctx CmdlineContext) error {
	serial, err := ValidateSerial(node.SerialNumber)
	if err != nil {
		return err
	}

	dir := filepath.Join(m.NodesDir, serial)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating node tree %s: %w", dir, err)
	}

	files, ok := firmwareSet[node.PiModel]
	if !ok {
		return fmt.Errorf("no firmware set for pi model %q", node.PiModel)
	}
	for _, f := range files {
		if err := m.symlink(filepath.Join(m.FirmwareDir, f), filepath.Join(dir, f)); err != nil {
			// Per spec §7: symlink creation for a Pi node logs and continues
			// so registration is never blocked by a partial firmware set.
			m.Log.Info("firmware symlink failed, continuing", "node", node.ID, "file", f, "error", err.Error())
		}
	}

	dtbName, err := DTB(node.PiModel)
	if err != nil {
		return err
	}
	if err := m.symlink(filepath.Join(m.FirmwareDir, dtbName), filepath.Join(dir, dtbName)); err != nil {
		m.Log.Info("dtb symlink failed, continuing", "node", node.ID, "error", err.Error())
	}

	if err := m.symlink(filepath.Join(m.DeployDir, "kernel8.img"), filepath.Join(dir, "kernel8.img")); err != nil {
		m.Log.Info("kernel symlink failed, continuing", "node", node.ID, "error", err.Error())
	}
	if err := m.symlink(filepath.Join(m.DeployDir, "initramfs.img"), filepath.Join(dir, "initramfs.img")); err != nil {
		m.Log.Info("initramfs symlink failed, continuing", "node", node.ID, "error", err.Error())
	}

	if err := atomicfile.WriteFile(filepath.Join(dir, "config.txt"), []byte(BuildConfigTxt(node.PiModel, dtbName)), 0o644); err != nil {
		return fmt.Errorf("writing config.txt: %w", err)
	}
	if err := atomicfile.WriteFile(filepath.Join(dir, "cmdline.txt"), []byte(BuildCmdline(node, ctx)), 0o644); err != nil {
		return fmt.Errorf("writing cmdline.txt: %w", err)
	}

	return nil
}

// symlink removes any existing entry at dst and recreates it pointing at
// src, so re-materialisation is idempotent.
func (m *Manager) symlink(src, dst string) error {
	_ = os.Remove(dst)
	return os.Symlink(src, dst)
}

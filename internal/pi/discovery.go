package pi

import (
	"os"
	"path/filepath"

	"github.com/pureboot/pureboot/internal/atomicfile"
	"github.com/pureboot/pureboot/internal/model"
)

// allModels lists every PiModel the discovery tree carries firmware for,
// so an unrecognised Pi can still fetch stage-1 regardless of its model.
var allModels = []model.PiModel{
	model.PiModel3, model.PiModel3BP, model.PiModelCM3, model.PiModel4, model.PiModel5,
}

// MaterializeDiscovery (re)builds the <nodes_dir>/../discovery/ tree served
// to Pi clients whose serial is not yet a registered node, per spec §4.4.
// It carries firmware for every supported model plus a fixed cmdline.txt.
func (m *Manager) MaterializeDiscovery() error {
	if err := os.MkdirAll(m.DiscoveryDir, 0o755); err != nil {
		return err
	}

	seen := map[string]bool{}
	for _, pm := range allModels {
		for _, f := range firmwareSet[pm] {
			if seen[f] {
				continue
			}
			seen[f] = true
			if err := m.symlink(filepath.Join(m.FirmwareDir, f), filepath.Join(m.DiscoveryDir, f)); err != nil {
				m.Log.Info("discovery firmware symlink failed, continuing", "file", f, "error", err.Error())
			}
		}
		d, err := DTB(pm)
		if err != nil {
			continue
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		if err := m.symlink(filepath.Join(m.FirmwareDir, d), filepath.Join(m.DiscoveryDir, d)); err != nil {
			m.Log.Info("discovery dtb symlink failed, continuing", "file", d, "error", err.Error())
		}
	}

	return atomicfile.WriteFile(filepath.Join(m.DiscoveryDir, "cmdline.txt"), []byte(DiscoveryCmdline), 0o644)
}

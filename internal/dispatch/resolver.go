package dispatch

import (
	"fmt"

	"github.com/pureboot/pureboot/internal/model"
)

// Family is the boot-ROM family a dispatch request arrived on.
type Family string

const (
	FamilyX86IPXE Family = "x86_ipxe"
	FamilyPi      Family = "pi"
)

// pendingRetrySeconds is the chain-back interval for an x86 iPXE client
// parked in pending with no workflow assigned yet.
const pendingRetrySeconds = 10

// CallbackURL builds the report endpoint a deploy environment calls on
// completion, per spec §4.6.
func CallbackURL(serverBaseURL, nodeID string) string {
	return fmt.Sprintf("%s/api/v1/nodes/%s/installed", serverBaseURL, nodeID)
}

// Resolve implements the (family, state) dispatch table from spec §4.6.
// node must already exist — auto-registration of an unknown node happens
// in the caller before Resolve is invoked, since it requires a registry
// write this package has no access to.
func Resolve(family Family, node *model.Node, workflow *model.Workflow, serverBaseURL string) (Result, error) {
	switch family {
	case FamilyX86IPXE:
		return resolveX86(node, workflow)
	case FamilyPi:
		return resolvePi(node, workflow, serverBaseURL)
	default:
		return nil, fmt.Errorf("dispatch: unknown family %q", family)
	}
}

func resolveX86(node *model.Node, workflow *model.Workflow) (Result, error) {
	switch node.State {
	case model.StateDiscovered, model.StateInstalled, model.StateActive, model.StateInstallFailed:
		return LocalBoot{}, nil
	case model.StateInstalling:
		// Avoid re-entry mid-install: a re-chained client still gets
		// local-boot, never a second install attempt.
		return LocalBoot{}, nil
	case model.StatePending:
		if workflow == nil {
			return PendingRetry{RetrySeconds: pendingRetrySeconds}, nil
		}
		return InstallIPXE{
			Kernel:  workflow.KernelPath,
			Initrd:  workflow.InitrdPath,
			Cmdline: workflow.Cmdline,
		}, nil
	default:
		return LocalBoot{}, nil
	}
}

func resolvePi(node *model.Node, workflow *model.Workflow, serverBaseURL string) (Result, error) {
	callback := CallbackURL(serverBaseURL, node.ID)

	switch node.State {
	case model.StateDiscovered:
		return Discovered{Message: "node registered, awaiting approval"}, nil
	case model.StatePending:
		if workflow == nil {
			return Discovered{Message: "node pending, no workflow assigned"}, nil
		}
		switch workflow.InstallMethod {
		case model.InstallMethodImage:
			return DeployImage{ImageURL: workflow.ImageURL, Target: workflow.TargetDevice, CallbackURL: callback}, nil
		case model.InstallMethodNFS:
			return NfsBoot{Server: workflow.NFSServer, Path: workflow.NFSPath, CallbackURL: callback}, nil
		default:
			// deploy falls through to local_boot on Pi (DESIGN.md Open
			// Question decision).
			return LocalBoot{}, nil
		}
	case model.StateInstalling:
		return Wait{}, nil
	case model.StateInstalled, model.StateActive:
		return LocalBoot{}, nil
	default:
		return LocalBoot{}, nil
	}
}

// Package dispatch resolves a node's current (family, state) into the boot
// artifact its boot ROM or deploy environment should receive next (spec
// §4.6). Results are modelled as a tagged union and rendered to iPXE
// script text or JSON only at the HTTP edge (spec §9's "sum types over
// duck-typed responses" note).
package dispatch

// Result is the outcome of resolving a node's boot dispatch. Exactly one
// concrete variant below satisfies it for any given call.
type Result interface {
	isResult()
}

// LocalBoot tells the node to boot from its local disk.
type LocalBoot struct{}

func (LocalBoot) isResult() {}

// InstallIPXE renders an iPXE kernel/initrd/cmdline triple for a pending
// x86 workflow.
type InstallIPXE struct {
	Kernel  string
	Initrd  string
	Cmdline string
}

func (InstallIPXE) isResult() {}

// DeployImage tells a Pi deploy environment to write an image to disk.
type DeployImage struct {
	ImageURL    string
	Target      string
	CallbackURL string
}

func (DeployImage) isResult() {}

// NfsBoot tells a Pi deploy environment to mount its root over NFS.
type NfsBoot struct {
	Server      string
	Path        string
	CallbackURL string
}

func (NfsBoot) isResult() {}

// PendingRetry tells an x86 iPXE client with no workflow yet to chain back
// after RetrySeconds.
type PendingRetry struct {
	RetrySeconds int
}

func (PendingRetry) isResult() {}

// Wait tells a Pi client mid-install to hold and poll again.
type Wait struct{}

func (Wait) isResult() {}

// Discovered reports a node that exists but has not progressed past
// discovery, carrying a human-readable status message.
type Discovered struct {
	Message string
}

func (Discovered) isResult() {}

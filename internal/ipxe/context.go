// Package ipxe renders the three classes of iPXE script the PXE dispatch
// plane hands out — embedded/autoexec, boot, and install — and keeps the
// TFTP-root copies of the first two in sync with the server's address
// (spec §4.3).
package ipxe

import (
	"strconv"

	"github.com/pureboot/pureboot/internal/model"
)

// Namespace names a closed or open placeholder namespace. Closed
// namespaces expose a fixed key set; open namespaces (Meta, Secret) accept
// any key the caller populated.
type Namespace string

const (
	NamespaceNode      Namespace = "node"
	NamespaceGroup     Namespace = "group"
	NamespaceWorkflow  Namespace = "workflow"
	NamespaceServer    Namespace = "server"
	NamespaceTemplate  Namespace = "template"
	NamespaceExecution Namespace = "execution"
	NamespaceMeta      Namespace = "meta"
	NamespaceSecret    Namespace = "secret"
)

// closedNamespaces is the fixed set a placeholder's namespace must belong
// to unless it names an open namespace.
var closedNamespaces = map[Namespace]bool{
	NamespaceNode: true, NamespaceGroup: true, NamespaceWorkflow: true,
	NamespaceServer: true, NamespaceTemplate: true, NamespaceExecution: true,
}

var openNamespaces = map[Namespace]bool{
	NamespaceMeta: true, NamespaceSecret: true,
}

// knownKeys is the fixed key set each closed namespace exposes, used by
// Validate to flag a reference to a namespace field that doesn't exist —
// distinct from a field that exists but happens to be unset at render
// time (which resolves to its default or stays literal instead).
var knownKeys = map[Namespace]map[string]bool{
	NamespaceNode: set("id", "mac", "serial", "state", "arch", "boot_mode", "hostname", "ip"),
	NamespaceGroup: set("id", "name", "description"),
	NamespaceWorkflow: set("id", "install_method", "kernel_path", "initrd_path", "cmdline",
		"boot_url", "image_url", "target_device", "nfs_server", "nfs_path", "post_script_url"),
	NamespaceServer:    set("ip", "http_port", "tftp_port"),
	NamespaceTemplate:  set("id", "name", "version"),
	NamespaceExecution: set("id", "step_id", "step_name"),
}

func set(keys ...string) map[string]bool {
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return m
}

// Context is the structured data a template is rendered against: one map
// of fixed keys per closed namespace, plus arbitrary caller-supplied data
// for the open namespaces.
type Context struct {
	Node      map[string]string
	Group     map[string]string
	Workflow  map[string]string
	Server    map[string]string
	Template  map[string]string
	Execution map[string]string
	Meta      map[string]string
	Secret    map[string]string
}

func (c Context) namespace(ns Namespace) (map[string]string, bool) {
	switch ns {
	case NamespaceNode:
		return c.Node, true
	case NamespaceGroup:
		return c.Group, true
	case NamespaceWorkflow:
		return c.Workflow, true
	case NamespaceServer:
		return c.Server, true
	case NamespaceTemplate:
		return c.Template, true
	case NamespaceExecution:
		return c.Execution, true
	case NamespaceMeta:
		return c.Meta, true
	case NamespaceSecret:
		return c.Secret, true
	default:
		return nil, false
	}
}

// lookup returns the value for ns.key and whether it was present. An
// unknown namespace, or a key absent from the namespace's map, both count
// as not-present (knownKeys is not consulted here) — the caller decides whether to fall back to
// a default or leave the placeholder literal.
func (c Context) lookup(ns Namespace, key string) (string, bool) {
	values, known := c.namespace(ns)
	if !known {
		return "", false
	}
	v, ok := values[key]
	return v, ok
}

// NodeNamespace builds the fixed "node" namespace for n.
func NodeNamespace(n *model.Node) map[string]string {
	return map[string]string{
		"id":       n.ID,
		"mac":      n.MACAddress,
		"serial":   n.SerialNumber,
		"state":    string(n.State),
		"arch":     string(n.Architecture),
		"boot_mode": string(n.BootMode),
		"hostname": n.Hostname,
		"ip":       n.IPAddress,
	}
}

// WorkflowNamespace builds the fixed "workflow" namespace for wf. A nil wf
// (no workflow dispatched yet) yields an empty map, so placeholders
// referencing it resolve to their default or stay literal.
func WorkflowNamespace(wf *model.Workflow) map[string]string {
	if wf == nil {
		return map[string]string{}
	}
	return map[string]string{
		"id":              wf.ID,
		"install_method":  string(wf.InstallMethod),
		"kernel_path":     wf.KernelPath,
		"initrd_path":     wf.InitrdPath,
		"cmdline":         wf.Cmdline,
		"boot_url":        wf.BootURL,
		"image_url":       wf.ImageURL,
		"target_device":   wf.TargetDevice,
		"nfs_server":      wf.NFSServer,
		"nfs_path":        wf.NFSPath,
		"post_script_url": wf.PostScriptURL,
	}
}

// ServerNamespace builds the fixed "server" namespace.
func ServerNamespace(ip string, httpPort, tftpPort int) map[string]string {
	return map[string]string{
		"ip":        ip,
		"http_port": strconv.Itoa(httpPort),
		"tftp_port": strconv.Itoa(tftpPort),
	}
}

package ipxe

import (
	"strings"
	"testing"
)

func TestGenerateInstallScriptRendersWorkflowFields(t *testing.T) {
	ctx := Context{Workflow: WorkflowNamespace(nil)}
	ctx.Workflow = map[string]string{
		"kernel_path": "http://server/kernel",
		"cmdline":     "console=ttyS0",
		"initrd_path": "http://server/initrd",
	}

	got := GenerateInstallScript(ctx)
	for _, want := range []string{
		"kernel http://server/kernel console=ttyS0",
		"initrd http://server/initrd",
		"boot",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("install script %q missing %q", got, want)
		}
	}
}

func TestGenerateBootScriptClearsScreenAndRetries(t *testing.T) {
	ctx := Context{Server: ServerNamespace("192.0.2.1", 80, 69)}
	got := GenerateBootScript(ctx)
	if !strings.HasPrefix(got, "#!ipxe\ncls\n") {
		t.Errorf("boot script %q should clear screen after the shebang", got)
	}
	if !strings.Contains(got, "sleep 5") {
		t.Errorf("boot script %q should retry after a 5s sleep", got)
	}
}

func TestGenerateLocalBootScriptStartsWithShebang(t *testing.T) {
	got := GenerateLocalBootScript(Context{})
	if !strings.HasPrefix(got, "#!ipxe\n") {
		t.Errorf("local boot script %q should start with the shebang", got)
	}
	if !strings.Contains(got, "exit") {
		t.Errorf("local boot script %q should fall through with exit", got)
	}
}

func TestGenerateRetryScriptEmbedsIntervalAndChain(t *testing.T) {
	ctx := Context{Server: ServerNamespace("192.0.2.1", 80, 69)}
	got := GenerateRetryScript(ctx, 10)
	if !strings.Contains(got, "sleep 10") {
		t.Errorf("retry script %q should sleep for the given interval", got)
	}
	if !strings.Contains(got, "chain http://192.0.2.1:80/boot?mac=${mac:hexhyp}") {
		t.Errorf("retry script %q should chain back to /boot", got)
	}
}

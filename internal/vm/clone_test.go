package vm

import (
	"context"
	"errors"
	"strings"
	"syscall"
	"testing"

	"github.com/jbweber/vmctl/internal/runner"
)

func TestCloneWithDeps_Success(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	err := cloneWithDeps(ctx, CloneOptions{Source: "base-vm", Name: "web1"}, env.d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"dumpxml base-vm",
		"overlay /vms/base-vm.qcow2 qcow2 /vms/web1.qcow2",
		"clone base-vm web1 /vms/web1.qcow2",
		"showlist",
		"start web1",
	}
	if strings.Join(env.tools.calls, "\n") != strings.Join(want, "\n") {
		t.Errorf("calls:\n%s\nwant:\n%s", strings.Join(env.tools.calls, "\n"), strings.Join(want, "\n"))
	}

	if got := env.stdout.String(); got != "Run \"vmctl ip web1\" once the VM has booted.\n" {
		t.Errorf("unexpected hint: %q", got)
	}
	if len(env.hooks.hooks) != 0 {
		t.Errorf("expected no exit hooks without CleanupOnFailure, got %v", env.hooks.names)
	}
}

func TestCloneWithDeps_NoStart(t *testing.T) {
	env := newTestEnv()

	err := cloneWithDeps(context.Background(), CloneOptions{Source: "base-vm", Name: "web1", NoStart: true}, env.d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(env.tools.callsWithPrefix("start")) != 0 {
		t.Error("should not start VM with NoStart")
	}
	if len(env.tools.callsWithPrefix("showlist")) != 1 {
		t.Error("expected VM list to be shown")
	}
	if env.stdout.Len() != 0 {
		t.Errorf("unexpected output: %q", env.stdout.String())
	}
}

func TestCloneWithDeps_SourceNotFound(t *testing.T) {
	env := newTestEnv()
	env.tools.dumpXMLFunc = func(name string) (string, error) {
		return "", &runner.ExitError{Command: "virsh dumpxml ghost", Code: 1, Stderr: "error: failed to get domain 'ghost'"}
	}

	err := cloneWithDeps(context.Background(), CloneOptions{Source: "ghost", Name: "web1"}, env.d)
	if err == nil {
		t.Fatal("expected error for unknown source, got nil")
	}
	if runner.ExitCode(err) != 1 {
		t.Errorf("exit code = %d, want 1", runner.ExitCode(err))
	}
	if len(env.tools.calls) != 1 {
		t.Errorf("expected only dumpxml, got %v", env.tools.calls)
	}
}

func TestCloneWithDeps_UnreadableImage(t *testing.T) {
	env := newTestEnv()
	env.d.readable = func(path string) error {
		if path != "/vms/base-vm.qcow2" {
			t.Errorf("readable called with %s", path)
		}
		return syscall.EACCES
	}

	err := cloneWithDeps(context.Background(), CloneOptions{Source: "base-vm", Name: "web1"}, env.d)
	if err == nil {
		t.Fatal("expected error for unreadable image, got nil")
	}
	if !strings.Contains(err.Error(), "source image /vms/base-vm.qcow2 of base-vm is not readable") {
		t.Errorf("unexpected error: %v", err)
	}
	if runner.ExitCode(err) != 1 {
		t.Errorf("exit code = %d, want 1", runner.ExitCode(err))
	}
	if len(env.tools.callsWithPrefix("overlay")) != 0 {
		t.Error("should not create overlay when image is unreadable")
	}
}

func TestCloneWithDeps_NoBackingDisk(t *testing.T) {
	env := newTestEnv()
	env.tools.dumpXMLFunc = func(string) (string, error) {
		return `<domain type='kvm'><name>base-vm</name></domain>`, nil
	}

	err := cloneWithDeps(context.Background(), CloneOptions{Source: "base-vm", Name: "web1"}, env.d)
	if err == nil {
		t.Fatal("expected error for domain without disk, got nil")
	}
	if len(env.tools.calls) != 1 {
		t.Errorf("expected only dumpxml, got %v", env.tools.calls)
	}
}

func TestCloneWithDeps_RejectsNames(t *testing.T) {
	tests := []struct {
		name string
		opts CloneOptions
	}{
		{name: "same name", opts: CloneOptions{Source: "base-vm", Name: "base-vm"}},
		{name: "path in name", opts: CloneOptions{Source: "base-vm", Name: "../web1"}},
		{name: "empty name", opts: CloneOptions{Source: "base-vm", Name: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			if err := cloneWithDeps(context.Background(), tt.opts, env.d); err == nil {
				t.Fatal("expected error, got nil")
			}
			if len(env.tools.calls) != 0 {
				t.Errorf("expected no tool calls, got %v", env.tools.calls)
			}
		})
	}
}

func TestCloneWithDeps_OverlayExists(t *testing.T) {
	env := newTestEnv()
	env.d.exists = func(path string) bool { return path == "/vms/web1.qcow2" }

	err := cloneWithDeps(context.Background(), CloneOptions{Source: "base-vm", Name: "web1"}, env.d)
	if err == nil {
		t.Fatal("expected error when overlay exists, got nil")
	}
	if len(env.tools.callsWithPrefix("overlay")) != 0 {
		t.Error("should not overwrite an existing overlay")
	}
}

func TestCloneWithDeps_OverlayWouldReplaceBackingImage(t *testing.T) {
	env := newTestEnv()
	env.tools.dumpXMLFunc = func(string) (string, error) {
		return strings.ReplaceAll(baseVMXML, "/vms/base-vm.qcow2", "/vms/web1.qcow2"), nil
	}

	err := cloneWithDeps(context.Background(), CloneOptions{Source: "base-vm", Name: "web1"}, env.d)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "would replace the backing image") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCloneWithDeps_RawBackingFormat(t *testing.T) {
	env := newTestEnv()
	env.tools.dumpXMLFunc = func(string) (string, error) {
		return strings.Replace(baseVMXML, "type='qcow2'", "type='raw'", 1), nil
	}

	if err := cloneWithDeps(context.Background(), CloneOptions{Source: "base-vm", Name: "web1"}, env.d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := env.tools.callsWithPrefix("overlay")
	if len(got) != 1 || got[0] != "overlay /vms/base-vm.qcow2 raw /vms/web1.qcow2" {
		t.Errorf("unexpected overlay call: %v", got)
	}
}

func TestCloneWithDeps_DetectsFormatWhenDriverOmitsIt(t *testing.T) {
	noDriver := strings.Replace(baseVMXML, "<driver name='qemu' type='qcow2'/>", "", 1)

	tests := []struct {
		name   string
		detect func(string) (string, error)
		want   string
	}{
		{
			name:   "header says raw",
			detect: func(string) (string, error) { return "raw", nil },
			want:   "overlay /vms/base-vm.qcow2 raw /vms/web1.qcow2",
		},
		{
			name:   "unreadable header falls back to qcow2",
			detect: func(string) (string, error) { return "", errors.New("unknown image format") },
			want:   "overlay /vms/base-vm.qcow2 qcow2 /vms/web1.qcow2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			env.tools.dumpXMLFunc = func(string) (string, error) { return noDriver, nil }
			var probed string
			env.d.detectFormat = func(path string) (string, error) {
				probed = path
				return tt.detect(path)
			}

			if err := cloneWithDeps(context.Background(), CloneOptions{Source: "base-vm", Name: "web1"}, env.d); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if probed != "/vms/base-vm.qcow2" {
				t.Errorf("probed %q", probed)
			}
			got := env.tools.callsWithPrefix("overlay")
			if len(got) != 1 || got[0] != tt.want {
				t.Errorf("overlay calls = %v, want %q", got, tt.want)
			}
		})
	}
}

func TestCloneWithDeps_CloneFailureLeavesOverlay(t *testing.T) {
	env := newTestEnv()
	env.tools.cloneFunc = func(string, string, string) error {
		return &runner.ExitError{Command: "virt-clone", Code: 4}
	}

	err := cloneWithDeps(context.Background(), CloneOptions{Source: "base-vm", Name: "web1"}, env.d)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if runner.ExitCode(err) != 4 {
		t.Errorf("exit code = %d, want virt-clone's 4", runner.ExitCode(err))
	}
	if len(env.tools.callsWithPrefix("start")) != 0 {
		t.Error("should not start after clone failure")
	}

	env.hooks.drain()
	if len(env.files.calls) != 0 {
		t.Errorf("overlay should be left on disk by default, removed %v", env.files.calls)
	}
}

func TestCloneWithDeps_CleanupOnFailure(t *testing.T) {
	env := newTestEnv()
	env.tools.startFunc = func(string) error {
		return &runner.ExitError{Command: "virsh start web1", Code: 1}
	}

	err := cloneWithDeps(context.Background(),
		CloneOptions{Source: "base-vm", Name: "web1", CleanupOnFailure: true}, env.d)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	if len(env.hooks.hooks) != 1 {
		t.Fatalf("expected 1 exit hook, got %d", len(env.hooks.hooks))
	}
	if errs := env.hooks.drain(); len(errs) != 0 {
		t.Fatalf("hook failed: %v", errs)
	}
	if len(env.files.calls) != 1 || env.files.calls[0] != "/vms/web1.qcow2" {
		t.Errorf("expected overlay removal, got %v", env.files.calls)
	}
}

func TestCloneWithDeps_CleanupOnFailure_SuccessKeepsOverlay(t *testing.T) {
	env := newTestEnv()

	err := cloneWithDeps(context.Background(),
		CloneOptions{Source: "base-vm", Name: "web1", CleanupOnFailure: true}, env.d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	env.hooks.drain()
	if len(env.files.calls) != 0 {
		t.Errorf("overlay removed after successful clone: %v", env.files.calls)
	}
}

func TestCloneWithDeps_OverlayFailureRegistersNoCleanup(t *testing.T) {
	env := newTestEnv()
	env.tools.createOverlayFunc = func(string, string, string) error {
		return &runner.ExitError{Command: "qemu-img create", Code: 1}
	}

	err := cloneWithDeps(context.Background(),
		CloneOptions{Source: "base-vm", Name: "web1", CleanupOnFailure: true}, env.d)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var exitErr *runner.ExitError
	if !errors.As(err, &exitErr) {
		t.Errorf("expected ExitError in chain, got %v", err)
	}
	if len(env.hooks.hooks) != 0 {
		t.Error("no overlay was created, so nothing should be cleaned up")
	}
}

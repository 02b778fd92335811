package vm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jbweber/vmctl/internal/arp"
	"github.com/jbweber/vmctl/internal/exithook"
	"github.com/jbweber/vmctl/internal/libvirt"
	"github.com/jbweber/vmctl/internal/virsh"
)

// mockToolClient is a mock implementation of the toolClient interface for testing.
type mockToolClient struct {
	mu sync.Mutex

	// Configurable behavior
	dumpXMLFunc       func(name string) (string, error)
	listAllFunc       func() ([]virsh.Domain, error)
	existsFunc        func(name string) (bool, error)
	blockDevicesFunc  func(name string) ([]string, error)
	interfaceMACsFunc func(name string) ([]string, error)
	showListFunc      func() error
	startFunc         func(name string) error
	destroyFunc       func(name string) error
	undefineFunc      func(name string, nvram bool) error
	createOverlayFunc func(backing, format, overlay string) error
	cloneFunc         func(source, newName, file string) error

	// Call tracking, in order, across all methods
	calls []string
}

// newMockToolClient creates a mock where base-vm exists on /vms/base-vm.qcow2
// and every mutation succeeds.
func newMockToolClient() *mockToolClient {
	m := &mockToolClient{}

	m.dumpXMLFunc = func(name string) (string, error) {
		if name != "base-vm" {
			return "", fmt.Errorf("error: failed to get domain '%s'", name)
		}
		return baseVMXML, nil
	}
	m.listAllFunc = func() ([]virsh.Domain, error) {
		return []virsh.Domain{{ID: "-", Name: "base-vm", State: "shut off"}}, nil
	}
	m.existsFunc = func(name string) (bool, error) {
		return name == "base-vm" || name == "web1", nil
	}
	m.blockDevicesFunc = func(name string) ([]string, error) {
		return []string{"/vms/" + name + ".qcow2"}, nil
	}
	m.interfaceMACsFunc = func(name string) ([]string, error) {
		return []string{"52:54:00:ab:cd:01"}, nil
	}
	m.showListFunc = func() error { return nil }
	m.startFunc = func(string) error { return nil }
	m.destroyFunc = func(string) error { return nil }
	m.undefineFunc = func(string, bool) error { return nil }
	m.createOverlayFunc = func(string, string, string) error { return nil }
	m.cloneFunc = func(string, string, string) error { return nil }

	return m
}

func (m *mockToolClient) record(format string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, fmt.Sprintf(format, args...))
}

// callsWithPrefix returns the recorded calls starting with prefix.
func (m *mockToolClient) callsWithPrefix(prefix string) []string {
	var out []string
	for _, c := range m.calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

func (m *mockToolClient) DumpXML(_ context.Context, name string) (string, error) {
	m.record("dumpxml %s", name)
	return m.dumpXMLFunc(name)
}

func (m *mockToolClient) ListAll(_ context.Context) ([]virsh.Domain, error) {
	m.record("list")
	return m.listAllFunc()
}

func (m *mockToolClient) Exists(_ context.Context, name string) (bool, error) {
	m.record("exists %s", name)
	return m.existsFunc(name)
}

func (m *mockToolClient) BlockDevices(_ context.Context, name string) ([]string, error) {
	m.record("domblklist %s", name)
	return m.blockDevicesFunc(name)
}

func (m *mockToolClient) InterfaceMACs(_ context.Context, name string) ([]string, error) {
	m.record("domiflist %s", name)
	return m.interfaceMACsFunc(name)
}

func (m *mockToolClient) ShowList(_ context.Context) error {
	m.record("showlist")
	return m.showListFunc()
}

func (m *mockToolClient) Start(_ context.Context, name string) error {
	m.record("start %s", name)
	return m.startFunc(name)
}

func (m *mockToolClient) Destroy(_ context.Context, name string) error {
	m.record("destroy %s", name)
	return m.destroyFunc(name)
}

func (m *mockToolClient) Undefine(_ context.Context, name string, nvram bool) error {
	m.record("undefine %s nvram=%v", name, nvram)
	return m.undefineFunc(name, nvram)
}

func (m *mockToolClient) CreateOverlay(_ context.Context, backing, format, overlay string) error {
	m.record("overlay %s %s %s", backing, format, overlay)
	return m.createOverlayFunc(backing, format, overlay)
}

func (m *mockToolClient) Clone(_ context.Context, source, newName, file string) error {
	m.record("clone %s %s %s", source, newName, file)
	return m.cloneFunc(source, newName, file)
}

// mockFileRemover records removals and fails for paths in failPaths.
type mockFileRemover struct {
	failPaths map[string]error
	calls     []string
	// shared receives the removal in the tool client's call log so that
	// ordering against tool calls can be asserted.
	shared *mockToolClient
}

func (m *mockFileRemover) Remove(path string) error {
	m.calls = append(m.calls, path)
	if m.shared != nil {
		m.shared.record("rm %s", path)
	}
	if err, ok := m.failPaths[path]; ok {
		return err
	}
	return nil
}

// mockHookRegistry collects hooks so tests can drain them.
type mockHookRegistry struct {
	names []string
	hooks []exithook.Func
}

func (m *mockHookRegistry) Register(name string, fn exithook.Func) {
	m.names = append([]string{name}, m.names...)
	m.hooks = append([]exithook.Func{fn}, m.hooks...)
}

func (m *mockHookRegistry) drain() []error {
	var errs []error
	for _, fn := range m.hooks {
		if err := fn(context.Background()); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// mockDaemon is a mock implementation of daemonClient.
type mockDaemon struct {
	info    *libvirt.DaemonInfo
	infoErr error
	pingErr error
	pinged  bool
	closed  bool
}

func (m *mockDaemon) Ping() error {
	m.pinged = true
	return m.pingErr
}

func (m *mockDaemon) Info() (*libvirt.DaemonInfo, error) { return m.info, m.infoErr }

func (m *mockDaemon) Close() error {
	m.closed = true
	return nil
}

// testEnv bundles the mocks behind a deps value.
type testEnv struct {
	tools  *mockToolClient
	files  *mockFileRemover
	hooks  *mockHookRegistry
	logs   *observer.ObservedLogs
	stdout *bytes.Buffer
	d      *deps

	arpTable string
}

func newTestEnv() *testEnv {
	core, logs := observer.New(zap.DebugLevel)
	tools := newMockToolClient()
	env := &testEnv{
		tools:  tools,
		files:  &mockFileRemover{failPaths: map[string]error{}, shared: tools},
		hooks:  &mockHookRegistry{},
		logs:   logs,
		stdout: &bytes.Buffer{},
	}
	env.d = &deps{
		tools:        env.tools,
		files:        env.files,
		hooks:        env.hooks,
		log:          zap.New(core),
		stdout:       env.stdout,
		readable:     func(string) error { return nil },
		detectFormat: func(string) (string, error) { return "", errors.New("no image header") },
		exists:       func(string) bool { return false },
		loadARP: func() (*arp.Table, error) {
			return arp.Parse(strings.NewReader(env.arpTable))
		},
		lookPath: func(file string) (string, error) { return "/usr/bin/" + file, nil },
		dial: func(context.Context, string) (daemonClient, error) {
			return nil, errors.New("dial not configured")
		},
	}
	return env
}

// baseVMXML is "virsh dumpxml base-vm" with its disk at /vms/base-vm.qcow2.
const baseVMXML = `<domain type='kvm'>
  <name>base-vm</name>
  <devices>
    <disk type='file' device='cdrom'>
      <driver name='qemu' type='raw'/>
      <source file='/vms/seed.iso'/>
      <target dev='sda' bus='sata'/>
    </disk>
    <disk type='file' device='disk'>
      <driver name='qemu' type='qcow2'/>
      <source file='/vms/base-vm.qcow2'/>
      <target dev='vda' bus='virtio'/>
    </disk>
    <interface type='network'>
      <mac address='52:54:00:ab:cd:01'/>
      <source network='default'/>
    </interface>
  </devices>
</domain>`

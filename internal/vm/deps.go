package vm

import (
	"context"
	"io"
	"os"
	"os/exec"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/jbweber/vmctl/internal/arp"
	"github.com/jbweber/vmctl/internal/image"
	"github.com/jbweber/vmctl/internal/libvirt"
	"github.com/jbweber/vmctl/internal/session"
	"github.com/jbweber/vmctl/internal/virsh"
)

// probeTimeout bounds the dial to the libvirt socket in Check.
const probeTimeout = 5 * time.Second

// deps holds everything an operation touches outside the process.
type deps struct {
	tools  toolClient
	files  fileRemover
	hooks  hookRegistry
	log    *zap.Logger
	stdout io.Writer

	// readable returns nil if the current user can read path.
	readable func(path string) error
	// detectFormat reads an image header when the domain omits the format.
	detectFormat func(path string) (string, error)
	// exists reports whether path is present on disk.
	exists func(path string) bool
	// loadARP reads the ARP cache.
	loadARP arpLoader
	// lookPath resolves a tool binary.
	lookPath func(file string) (string, error)
	// dial opens a connection to the libvirt daemon socket. It returns
	// once ctx is done even if the daemon has not answered.
	dial func(ctx context.Context, socket string) (daemonClient, error)
}

// newDeps wires the production implementations for a session.
func newDeps(s *session.Session) *deps {
	cfg := s.Config
	return &deps{
		tools:  virsh.NewClient(s.Runner, cfg.Tools, cfg.ConnectURI),
		files:  s.Runner,
		hooks:  s.Hooks,
		log:    s.Log,
		stdout: s.Stdout,
		readable: func(path string) error {
			return unix.Access(path, unix.R_OK)
		},
		detectFormat: image.DetectFormat,
		exists: func(path string) bool {
			_, err := os.Lstat(path)
			return err == nil
		},
		loadARP: func() (*arp.Table, error) {
			return arp.Load(cfg.ARPTable)
		},
		lookPath: exec.LookPath,
		dial: func(ctx context.Context, socket string) (daemonClient, error) {
			c, err := libvirt.Connect(ctx, socket, probeTimeout)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
	}
}

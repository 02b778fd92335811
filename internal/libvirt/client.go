package libvirt

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/digitalocean/go-libvirt"
	"github.com/digitalocean/go-libvirt/socket/dialers"

	"github.com/jbweber/vmctl/internal/config"
)

// Client is a read-only connection to the local libvirt daemon.
type Client struct {
	libvirt *libvirt.Libvirt
	socket  string
}

// DaemonInfo describes the daemon a Client is connected to.
type DaemonInfo struct {
	Socket            string `json:"socket" yaml:"socket"`
	URI               string `json:"uri" yaml:"uri"`
	Hostname          string `json:"hostname" yaml:"hostname"`
	Hypervisor        string `json:"hypervisor" yaml:"hypervisor"`
	LibvirtVersion    string `json:"libvirtVersion" yaml:"libvirtVersion"`
	HypervisorVersion string `json:"hypervisorVersion" yaml:"hypervisorVersion"`
}

// Connect opens a connection to the libvirt daemon listening on socketPath.
// The returned Client must be closed.
//
// timeout bounds the socket dial; zero means 5 seconds. The RPC handshake
// that follows is bounded only by ctx: when ctx is done Connect returns its
// error and a connection that completes later is closed in the background.
func Connect(ctx context.Context, socketPath string, timeout time.Duration) (*Client, error) {
	if socketPath == "" {
		socketPath = config.DefaultLibvirtSocket
	}
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrapf(err, "connection to libvirt at %s cancelled", socketPath)
	}

	type result struct {
		client *Client
		err    error
	}
	resultCh := make(chan result, 1)

	go func() {
		c, err := dial(socketPath, timeout)
		resultCh <- result{client: c, err: err}
	}()

	select {
	case <-ctx.Done():
		go func() {
			if res := <-resultCh; res.client != nil {
				_ = res.client.Close()
			}
		}()
		return nil, errors.Wrapf(ctx.Err(), "connection to libvirt at %s cancelled", socketPath)
	case res := <-resultCh:
		return res.client, res.err
	}
}

func dial(socketPath string, timeout time.Duration) (*Client, error) {
	dialer := dialers.NewLocal(
		dialers.WithSocket(socketPath),
		dialers.WithLocalTimeout(timeout),
	)

	l := libvirt.NewWithDialer(dialer)
	if err := l.Connect(); err != nil {
		return nil, errors.WithHint(
			errors.Wrapf(err, "failed to connect to libvirt at %s", socketPath),
			"Is libvirtd running, and can this user open its socket?",
		)
	}

	return &Client{libvirt: l, socket: socketPath}, nil
}

// Close closes the libvirt connection and releases resources.
// It is safe to call Close multiple times.
func (c *Client) Close() error {
	if c.libvirt == nil {
		return nil
	}

	l := c.libvirt
	c.libvirt = nil
	if err := l.Disconnect(); err != nil {
		return errors.Wrap(err, "failed to disconnect from libvirt")
	}

	return nil
}

// Ping checks that the daemon answers RPC calls.
func (c *Client) Ping() error {
	if c.libvirt == nil {
		return errors.New("client not connected")
	}

	if _, err := c.libvirt.ConnectGetLibVersion(); err != nil {
		return errors.Wrap(err, "libvirt connection is dead")
	}

	return nil
}

// Info queries the daemon for its identity and versions.
func (c *Client) Info() (*DaemonInfo, error) {
	if c.libvirt == nil {
		return nil, errors.New("client not connected")
	}

	libVer, err := c.libvirt.ConnectGetLibVersion()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get libvirt version")
	}
	hvVer, err := c.libvirt.ConnectGetVersion()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get hypervisor version")
	}
	hvType, err := c.libvirt.ConnectGetType()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get hypervisor type")
	}
	hostname, err := c.libvirt.ConnectGetHostname()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get hostname")
	}
	uri, err := c.libvirt.ConnectGetUri()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get connection URI")
	}

	return &DaemonInfo{
		Socket:            c.socket,
		URI:               uri,
		Hostname:          hostname,
		Hypervisor:        hvType,
		LibvirtVersion:    FormatVersion(libVer),
		HypervisorVersion: FormatVersion(hvVer),
	}, nil
}

// FormatVersion renders libvirt's packed version number
// (major*1000000 + minor*1000 + release) as "major.minor.release".
func FormatVersion(v uint64) string {
	return fmt.Sprintf("%d.%d.%d", v/1000000, (v/1000)%1000, v%1000)
}

// Package cli binds the vm operations to dispatcher commands: argument
// parsing, precondition checks and the action itself.
package cli

import (
	"io"
	"os/exec"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"

	"github.com/jbweber/vmctl/internal/dispatch"
	"github.com/jbweber/vmctl/internal/output"
	"github.com/jbweber/vmctl/internal/session"
	"github.com/jbweber/vmctl/internal/vm"
)

// Register adds every vmctl command to reg.
func Register(reg *dispatch.Registry) {
	clone := &cloneCommand{}
	reg.Register(dispatch.Command{
		Name:     "clone",
		Args:     "[--no-start] [--cleanup-on-failure] <from-vm> <new-vm>",
		Summary:  "Clone a VM onto a copy-on-write overlay of its disk and start it",
		Parse:    clone.parse,
		Validate: clone.validate,
		Run:      clone.run,
	})

	destroy := &destroyCommand{}
	reg.Register(dispatch.Command{
		Name:     "destroy",
		Args:     "[--nvram] [--keep-disks] <vm-name>",
		Summary:  "Stop and undefine a VM and delete its disks",
		Parse:    destroy.parse,
		Validate: destroy.validate,
		Run:      destroy.run,
	})

	ip := &ipCommand{}
	reg.Register(dispatch.Command{
		Name:     "ip",
		Args:     "[-o plain|table|json|yaml] [--no-headers] <vm-name>",
		Summary:  "Print the IP addresses of a VM from the ARP cache",
		Parse:    ip.parse,
		Validate: ip.validate,
		Run:      ip.run,
	})

	list := &listCommand{}
	reg.Register(dispatch.Command{
		Name:     "list",
		Args:     "[-o table|plain|json|yaml] [--no-headers]",
		Summary:  "List all VMs",
		Parse:    list.parse,
		Validate: list.validate,
		Run:      list.run,
	})

	check := &checkCommand{}
	reg.Register(dispatch.Command{
		Name:    "check",
		Args:    "[--skip-daemon]",
		Summary: "Check that the libvirt tools and daemon are available",
		Parse:   check.parse,
		Run:     check.run,
	})
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false
	return fs
}

// parseFlags parses args and checks the positional count.
func parseFlags(fs *pflag.FlagSet, args []string, want int, what string) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		return nil, dispatch.Usagef("%s: %v", fs.Name(), err)
	}
	rest := fs.Args()
	if len(rest) != want {
		return nil, dispatch.Usagef("%s expects %s, got %d argument(s)", fs.Name(), what, len(rest))
	}
	return rest, nil
}

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// requireTools checks that each tool resolves on PATH.
func requireTools(tools ...string) error {
	for _, tool := range tools {
		if _, err := lookPath(tool); err != nil {
			return errors.WithHint(
				errors.Wrapf(err, "required tool %s not found", tool),
				`Run "vmctl check" to verify the installation.`,
			)
		}
	}
	return nil
}

// mutatingTools returns tools only when they will actually run.
func mutatingTools(s *session.Session, tools ...string) []string {
	if s.DryRun {
		return nil
	}
	return tools
}

type cloneCommand struct {
	opts vm.CloneOptions
}

func (c *cloneCommand) parse(_ *session.Session, args []string) ([]string, error) {
	fs := newFlagSet("clone")
	fs.BoolVar(&c.opts.NoStart, "no-start", false, "define the new VM without starting it")
	fs.BoolVar(&c.opts.CleanupOnFailure, "cleanup-on-failure", false, "remove the overlay image if a later step fails")

	rest, err := parseFlags(fs, args, 2, "<from-vm> <new-vm>")
	if err != nil {
		return nil, err
	}
	c.opts.Source, c.opts.Name = rest[0], rest[1]
	return rest, nil
}

func (c *cloneCommand) validate(s *session.Session) error {
	t := s.Config.Tools
	return requireTools(append([]string{t.Virsh}, mutatingTools(s, t.QemuImg, t.VirtClone)...)...)
}

func (c *cloneCommand) run(s *session.Session, _ []string) error {
	return vm.Clone(s, c.opts)
}

type destroyCommand struct {
	opts vm.DestroyOptions
}

func (c *destroyCommand) parse(_ *session.Session, args []string) ([]string, error) {
	fs := newFlagSet("destroy")
	fs.BoolVar(&c.opts.NVRAM, "nvram", false, "also remove the UEFI variable store")
	fs.BoolVar(&c.opts.KeepDisks, "keep-disks", false, "undefine the VM but keep its disk files")

	rest, err := parseFlags(fs, args, 1, "<vm-name>")
	if err != nil {
		return nil, err
	}
	c.opts.Name = rest[0]
	return rest, nil
}

func (c *destroyCommand) validate(s *session.Session) error {
	return requireTools(s.Config.Tools.Virsh)
}

func (c *destroyCommand) run(s *session.Session, _ []string) error {
	return vm.Destroy(s, c.opts)
}

type ipCommand struct {
	opts vm.IPOptions
}

func (c *ipCommand) parse(_ *session.Session, args []string) ([]string, error) {
	fs := newFlagSet("ip")
	format := fs.StringP("output", "o", string(output.FormatPlain), "output format: plain, table, json or yaml")
	fs.BoolVar(&c.opts.NoHeaders, "no-headers", false, "omit the table header")

	rest, err := parseFlags(fs, args, 1, "<vm-name>")
	if err != nil {
		return nil, err
	}
	if err := output.ValidateFormat(*format); err != nil {
		return nil, errors.Mark(errors.WithStack(err), dispatch.ErrUsage)
	}
	c.opts.Name = rest[0]
	c.opts.Format = output.Format(*format)
	return rest, nil
}

func (c *ipCommand) validate(s *session.Session) error {
	return requireTools(s.Config.Tools.Virsh)
}

func (c *ipCommand) run(s *session.Session, _ []string) error {
	return vm.IP(s, c.opts)
}

type listCommand struct {
	opts vm.ListOptions
}

func (c *listCommand) parse(_ *session.Session, args []string) ([]string, error) {
	fs := newFlagSet("list")
	format := fs.StringP("output", "o", string(output.FormatTable), "output format: table, plain, json or yaml")
	fs.BoolVar(&c.opts.NoHeaders, "no-headers", false, "omit the table header")

	rest, err := parseFlags(fs, args, 0, "no arguments")
	if err != nil {
		return nil, err
	}
	if err := output.ValidateFormat(*format); err != nil {
		return nil, errors.Mark(errors.WithStack(err), dispatch.ErrUsage)
	}
	c.opts.Format = output.Format(*format)
	return rest, nil
}

func (c *listCommand) validate(s *session.Session) error {
	return requireTools(s.Config.Tools.Virsh)
}

func (c *listCommand) run(s *session.Session, _ []string) error {
	return vm.List(s, c.opts)
}

type checkCommand struct {
	opts vm.CheckOptions
}

func (c *checkCommand) parse(_ *session.Session, args []string) ([]string, error) {
	fs := newFlagSet("check")
	fs.BoolVar(&c.opts.SkipDaemon, "skip-daemon", false, "only check the tool binaries")
	return parseFlags(fs, args, 0, "no arguments")
}

func (c *checkCommand) run(s *session.Session, _ []string) error {
	return vm.Check(s, c.opts)
}

// Package dispatch maps sub-command names to their implementations.
//
// Commands are registered explicitly in a Registry. Each command has an
// action and may also have an argument parser (run first, for
// command-specific flags) and a validator (run next, for preconditions).
package dispatch

import (
	"fmt"
	"sort"

	"github.com/jbweber/vmctl/internal/session"
)

// Command is a registered sub-command.
type Command struct {
	// Name is the word typed on the command line.
	Name string
	// Args is the argument synopsis shown in usage, e.g. "<vm-name>".
	Args string
	// Summary is a one-line description shown in usage.
	Summary string

	// Run performs the command.
	Run func(s *session.Session, args []string) error

	// Parse, if set, receives the arguments following the command name and
	// returns the arguments to pass to Run.
	Parse func(s *session.Session, args []string) ([]string, error)

	// Validate, if set, checks preconditions before Run.
	Validate func(s *session.Session) error
}

// Registry is the table of known commands.
type Registry struct {
	commands map[string]*Command
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]*Command)}
}

// Register adds a command. It panics on an empty name, a missing action or
// a duplicate name, all of which are programming errors.
func (r *Registry) Register(cmd Command) {
	if cmd.Name == "" {
		panic("dispatch: command registered without a name")
	}
	if cmd.Run == nil {
		panic(fmt.Sprintf("dispatch: command %q registered without an action", cmd.Name))
	}
	if _, exists := r.commands[cmd.Name]; exists {
		panic(fmt.Sprintf("dispatch: command %q registered twice", cmd.Name))
	}
	c := cmd
	r.commands[cmd.Name] = &c
}

// Lookup returns the command registered under name.
func (r *Registry) Lookup(name string) (*Command, bool) {
	c, ok := r.commands[name]
	return c, ok
}

// Commands returns every registered command sorted by name.
func (r *Registry) Commands() []*Command {
	out := make([]*Command, 0, len(r.commands))
	for _, c := range r.commands {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns every registered command name, sorted.
func (r *Registry) Names() []string {
	cmds := r.Commands()
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.Name
	}
	return names
}

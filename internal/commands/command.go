// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"

	"github.com/charmbracelet/log"

	"listshare/internal/config"
	"listshare/internal/engine"
	"listshare/internal/kv"
	"listshare/internal/output"
	"listshare/internal/service"
	"listshare/internal/token"
)

// Requirement is what a command needs before it can run.
type Requirement int

const (
	// NeedsNothing commands only print (help, version).
	NeedsNothing Requirement = iota

	// NeedsState commands read or write local state only.
	NeedsState

	// NeedsBackend commands talk to the remote store but need no space.
	NeedsBackend

	// NeedsSpace commands operate on the active space.
	NeedsSpace
)

// Session is what a command runs against. State, Tokens, and Logger are set
// for NeedsState and above, Engine for NeedsBackend and above, and Space for
// NeedsSpace.
type Session struct {
	State  kv.Store
	Tokens *token.Manager
	Engine *engine.Engine
	Space  service.Space
	Logger *log.Logger
}

// Printer returns an output printer using the stored theme.
func (s *Session) Printer(w io.Writer) *output.Printer {
	theme := output.Light
	if s != nil && s.State != nil {
		theme = output.LoadTheme(s.State)
	}
	return output.NewPrinter(w, theme)
}

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// Needs reports what the dispatcher must set up before Run.
	Needs() Requirement

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// cfg is always provided (config dir, paths).
	// sess is populated according to Needs.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, sess *Session, args []string, out, errOut io.Writer) int
}

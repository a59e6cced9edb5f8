package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"listshare/internal/commands"
	"listshare/internal/config"
	"listshare/internal/engine"
	"listshare/internal/exitcode"
	"listshare/internal/kv"
	"listshare/internal/logging"
	"listshare/internal/token"
)

// EngineFactory creates the engine for a command from config.
// Used to inject the backend during dispatch.
type EngineFactory func(ctx context.Context, cfg *config.Config, tokens *token.Manager, logger *log.Logger) (*engine.Engine, error)

// StateFactory opens the local state store.
type StateFactory func(cfg *config.Config) kv.Store

// FileState opens state.json in the config directory.
func FileState(cfg *config.Config) kv.Store {
	return kv.NewFileStore(cfg.StatePath())
}

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  EngineFactory
	state    StateFactory
}

// NewDispatcher creates a new dispatcher with the given registry, engine
// factory, and state factory. A nil state factory means FileState.
func NewDispatcher(registry *commands.Registry, factory EngineFactory, state StateFactory) *Dispatcher {
	if state == nil {
		state = FileState
	}
	return &Dispatcher{
		registry: registry,
		factory:  factory,
		state:    state,
	}
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> dispatch to "list" command with no args
	if len(args) == 0 {
		return d.dispatch(ctx, "list", nil, out, errOut)
	}

	cmdName := args[0]

	// If first token starts with -, it's an error (flags require a command)
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	return d.dispatchCommand(ctx, cmd, args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmdName string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	// Create flag set with custom error handling
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves

	// Common flags
	var configDir string
	var quiet bool
	var debug bool

	fs.StringVar(&configDir, "config", "", "")
	fs.BoolVar(&quiet, "quiet", false, "")
	fs.BoolVar(&debug, "debug", false, "")

	// Register command-specific flags
	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		errStr := err.Error()

		// Check for missing flag value
		if strings.Contains(errStr, "flag needs an argument") {
			flagName := strings.TrimSpace(strings.TrimPrefix(errStr, "flag needs an argument:"))
			fmt.Fprintf(errOut, "error: flag needs an argument: %s\n", flagName)
			return exitcode.UserError
		}

		// Check for unknown flag
		if strings.HasPrefix(errStr, "flag provided but not defined:") {
			flagName := strings.TrimPrefix(errStr, "flag provided but not defined: ")
			fmt.Fprintf(errOut, "error: unknown flag: %s\n", flagName)
			return exitcode.UserError
		}

		fmt.Fprintf(errOut, "error: %s\n", errStr)
		return exitcode.UserError
	}

	// Check if first positional arg starts with - (should have been parsed as flag)
	positionalArgs := fs.Args()
	if len(positionalArgs) > 0 && strings.HasPrefix(positionalArgs[0], "-") {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positionalArgs[0])
		return exitcode.UserError
	}

	cfg, err := config.New(configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = quiet
	cfg.Debug = debug

	logger := logging.New(errOut, cfg.Debug)
	sess := &commands.Session{Logger: logger}
	needs := cmd.Needs()

	if needs >= commands.NeedsState {
		sess.State = d.state(cfg)
		sess.Tokens = token.NewManager(sess.State, token.WithLogger(logger))
	}

	if needs >= commands.NeedsBackend {
		if d.factory == nil {
			fmt.Fprintln(errOut, "error: no backend configured")
			return exitcode.UserError
		}
		sess.Engine, err = d.factory(ctx, cfg, sess.Tokens, logger)
		if err != nil {
			return commands.ReportError(errOut, err)
		}
	}

	if needs >= commands.NeedsSpace {
		sess.Space, err = sess.Engine.ActiveSpace(ctx)
		if err != nil {
			return commands.ReportError(errOut, err)
		}
		logger.Debug("active space", "id", sess.Space.ID)
	}

	return cmd.Run(ctx, cfg, sess, positionalArgs, out, errOut)
}

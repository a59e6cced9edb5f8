package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"listshare/internal/config"
	"listshare/internal/exitcode"
	"listshare/internal/output"
)

func init() {
	Register(&ThemeCmd{})
}

// ThemeCmd prints or changes the color theme.
type ThemeCmd struct{}

func (c *ThemeCmd) Name() string       { return "theme" }
func (c *ThemeCmd) Aliases() []string  { return nil }
func (c *ThemeCmd) Synopsis() string   { return "Show or set the color theme" }
func (c *ThemeCmd) Usage() string      { return "listshare theme [light|dark|toggle]" }
func (c *ThemeCmd) Needs() Requirement { return NeedsState }

func (c *ThemeCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ThemeCmd) Run(ctx context.Context, cfg *config.Config, sess *Session, args []string, out, errOut io.Writer) int {
	current := output.LoadTheme(sess.State)
	if len(args) == 0 {
		fmt.Fprintln(out, current)
		return exitcode.Success
	}
	if len(args) > 1 {
		fmt.Fprintln(errOut, "error: too many arguments")
		return exitcode.UserError
	}

	next := current.Toggle()
	if args[0] != "toggle" {
		t, err := output.ParseTheme(args[0])
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		next = t
	}
	if err := output.SaveTheme(sess.State, next); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, next)
	}
	return exitcode.Success
}

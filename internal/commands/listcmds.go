package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"listshare/internal/config"
	"listshare/internal/exitcode"
	"listshare/internal/output"
)

// DefaultListTitle is used when createlist is given no title.
const DefaultListTitle = "Untitled List"

func init() {
	Register(&CreateListCmd{})
	Register(&RenameCmd{})
	Register(&RmListCmd{})
}

// CreateListCmd implements the createlist command.
type CreateListCmd struct{}

func (c *CreateListCmd) Name() string       { return "createlist" }
func (c *CreateListCmd) Aliases() []string  { return []string{"addlist"} }
func (c *CreateListCmd) Synopsis() string   { return "Create a list" }
func (c *CreateListCmd) Usage() string      { return "listshare createlist [common flags] [<title...>]" }
func (c *CreateListCmd) Needs() Requirement { return NeedsSpace }

func (c *CreateListCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *CreateListCmd) Run(ctx context.Context, cfg *config.Config, sess *Session, args []string, out, errOut io.Writer) int {
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		title = DefaultListTitle
	}

	created, err := sess.Engine.CreateList(ctx, sess.Space.ID, title)
	if err != nil {
		return ReportError(errOut, err)
	}

	if !cfg.Quiet {
		letter := ""
		if lists, err := sess.Engine.AllLists(ctx, sess.Space.ID); err == nil {
			for i, l := range lists {
				if l.ID == created.ID {
					letter = output.ListLetter(i + 1)
				}
			}
		}
		if letter != "" {
			fmt.Fprintf(out, "ok %s\n", letter)
		} else {
			fmt.Fprintln(out, "ok")
		}
	}
	return exitcode.Success
}

// RenameCmd implements the rename command.
type RenameCmd struct{}

func (c *RenameCmd) Name() string       { return "rename" }
func (c *RenameCmd) Aliases() []string  { return nil }
func (c *RenameCmd) Synopsis() string   { return "Rename a list" }
func (c *RenameCmd) Usage() string      { return "listshare rename [common flags] <list> <title...>" }
func (c *RenameCmd) Needs() Requirement { return NeedsSpace }

func (c *RenameCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RenameCmd) Run(ctx context.Context, cfg *config.Config, sess *Session, args []string, out, errOut io.Writer) int {
	if len(args) < 2 {
		fmt.Fprintln(errOut, "error: list and new title required")
		return exitcode.UserError
	}
	title := strings.TrimSpace(strings.Join(args[1:], " "))
	if title == "" {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}

	_, l, err := findList(ctx, sess, args[0])
	if err != nil {
		return ReportError(errOut, err)
	}
	if _, err := sess.Engine.RenameList(ctx, sess.Space.ID, l.ID, title); err != nil {
		return ReportError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// RmListCmd implements the rmlist command.
type RmListCmd struct {
	force bool
}

// SetForce sets the force flag (for testing).
func (c *RmListCmd) SetForce(force bool) {
	c.force = force
}

func (c *RmListCmd) Name() string       { return "rmlist" }
func (c *RmListCmd) Aliases() []string  { return nil }
func (c *RmListCmd) Synopsis() string   { return "Delete a list" }
func (c *RmListCmd) Usage() string      { return "listshare rmlist [--force] <list>" }
func (c *RmListCmd) Needs() Requirement { return NeedsSpace }

func (c *RmListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.force, "force", false, "")
}

func (c *RmListCmd) Run(ctx context.Context, cfg *config.Config, sess *Session, args []string, out, errOut io.Writer) int {
	ref := strings.TrimSpace(strings.Join(args, " "))
	if ref == "" {
		fmt.Fprintln(errOut, "error: list required")
		return exitcode.UserError
	}

	_, l, err := findList(ctx, sess, ref)
	if err != nil {
		return ReportError(errOut, err)
	}

	// Check for open items (unless --force)
	if !c.force {
		for _, item := range l.Items {
			if !item.Completed {
				fmt.Fprintln(errOut, "error: list has open items (use --force)")
				return exitcode.UserError
			}
		}
	}

	if err := sess.Engine.DeleteList(ctx, sess.Space.ID, l.ID); err != nil {
		return ReportError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"listshare/internal/config"
	"listshare/internal/exitcode"
)

func init() {
	Register(&AddCmd{})
	Register(NewDoneCmd(true))
	Register(NewDoneCmd(false))
	Register(&EditCmd{})
	Register(&RmCmd{})
}

// AddCmd implements the add command.
type AddCmd struct{}

func (c *AddCmd) Name() string       { return "add" }
func (c *AddCmd) Aliases() []string  { return nil }
func (c *AddCmd) Synopsis() string   { return "Add an item to a list" }
func (c *AddCmd) Usage() string      { return "listshare add [common flags] <list> <content...>" }
func (c *AddCmd) Needs() Requirement { return NeedsSpace }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, sess *Session, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "error: list required")
		return exitcode.UserError
	}
	content := strings.TrimSpace(strings.Join(args[1:], " "))
	if content == "" {
		fmt.Fprintln(errOut, "error: content required")
		return exitcode.UserError
	}

	_, l, err := findList(ctx, sess, args[0])
	if err != nil {
		return ReportError(errOut, err)
	}
	if _, err := sess.Engine.AddItem(ctx, sess.Space.ID, l.ID, content); err != nil {
		return ReportError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// DoneCmd implements the done and undone commands.
type DoneCmd struct {
	completed bool
	listName  string
}

// NewDoneCmd returns the done command, or undone when completed is false.
func NewDoneCmd(completed bool) *DoneCmd {
	return &DoneCmd{completed: completed}
}

// SetListName sets the list name (for testing).
func (c *DoneCmd) SetListName(name string) {
	c.listName = name
}

func (c *DoneCmd) Name() string {
	if c.completed {
		return "done"
	}
	return "undone"
}

func (c *DoneCmd) Aliases() []string {
	if c.completed {
		return []string{"check"}
	}
	return []string{"uncheck"}
}

func (c *DoneCmd) Synopsis() string {
	if c.completed {
		return "Mark an item completed"
	}
	return "Mark an item not completed"
}

func (c *DoneCmd) Usage() string {
	return "listshare " + c.Name() + " [--list <list>] <ref>"
}

func (c *DoneCmd) Needs() Requirement { return NeedsSpace }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listName, "list", "", "")
	fs.StringVar(&c.listName, "l", "", "")
}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, sess *Session, args []string, out, errOut io.Writer) int {
	target, rest, err := findItem(ctx, sess, c.listName, args)
	if err != nil {
		return ReportError(errOut, err)
	}
	if len(rest) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", rest[0])
		return exitcode.UserError
	}

	if err := sess.Engine.SetItemCompleted(ctx, sess.Space.ID, target.list.ID, target.item.ID, c.completed); err != nil {
		return ReportError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// EditCmd implements the edit command.
type EditCmd struct {
	listName string
}

// SetListName sets the list name (for testing).
func (c *EditCmd) SetListName(name string) {
	c.listName = name
}

func (c *EditCmd) Name() string       { return "edit" }
func (c *EditCmd) Aliases() []string  { return nil }
func (c *EditCmd) Synopsis() string   { return "Change the content of an item" }
func (c *EditCmd) Usage() string      { return "listshare edit [--list <list>] <ref> <content...>" }
func (c *EditCmd) Needs() Requirement { return NeedsSpace }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listName, "list", "", "")
	fs.StringVar(&c.listName, "l", "", "")
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, sess *Session, args []string, out, errOut io.Writer) int {
	target, rest, err := findItem(ctx, sess, c.listName, args)
	if err != nil {
		return ReportError(errOut, err)
	}
	content := strings.TrimSpace(strings.Join(rest, " "))
	if content == "" {
		fmt.Fprintln(errOut, "error: content required")
		return exitcode.UserError
	}

	if err := sess.Engine.EditItem(ctx, sess.Space.ID, target.list.ID, target.item.ID, content); err != nil {
		return ReportError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// RmCmd implements the rm command.
type RmCmd struct {
	listName string
}

// SetListName sets the list name (for testing).
func (c *RmCmd) SetListName(name string) {
	c.listName = name
}

func (c *RmCmd) Name() string       { return "rm" }
func (c *RmCmd) Aliases() []string  { return nil }
func (c *RmCmd) Synopsis() string   { return "Delete an item" }
func (c *RmCmd) Usage() string      { return "listshare rm [--list <list>] <ref>" }
func (c *RmCmd) Needs() Requirement { return NeedsSpace }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listName, "list", "", "")
	fs.StringVar(&c.listName, "l", "", "")
}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, sess *Session, args []string, out, errOut io.Writer) int {
	target, rest, err := findItem(ctx, sess, c.listName, args)
	if err != nil {
		return ReportError(errOut, err)
	}
	if len(rest) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", rest[0])
		return exitcode.UserError
	}

	if err := sess.Engine.RemoveItem(ctx, sess.Space.ID, target.list.ID, target.item.ID); err != nil {
		return ReportError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

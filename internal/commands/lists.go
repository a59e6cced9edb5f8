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
	Register(&ListsCmd{})
	Register(&ListCmd{})
}

// ListsCmd implements the lists command.
type ListsCmd struct{}

func (c *ListsCmd) Name() string       { return "lists" }
func (c *ListsCmd) Aliases() []string  { return nil }
func (c *ListsCmd) Synopsis() string   { return "Print all lists" }
func (c *ListsCmd) Usage() string      { return "listshare lists [common flags]" }
func (c *ListsCmd) Needs() Requirement { return NeedsSpace }

func (c *ListsCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ListsCmd) Run(ctx context.Context, cfg *config.Config, sess *Session, args []string, out, errOut io.Writer) int {
	lists, err := sess.Engine.AllLists(ctx, sess.Space.ID)
	if err != nil {
		return ReportError(errOut, err)
	}

	p := sess.Printer(out)
	if len(lists) == 0 {
		if !cfg.Quiet {
			p.Muted("no lists (run: listshare createlist <title>)")
		}
		return exitcode.Success
	}
	for i, l := range lists {
		p.ListLine(i+1, l)
	}
	return exitcode.Success
}

// ListCmd prints one list with its items, or every list when no list is given.
type ListCmd struct{}

func (c *ListCmd) Name() string       { return "list" }
func (c *ListCmd) Aliases() []string  { return []string{"show"} }
func (c *ListCmd) Synopsis() string   { return "Print the items of a list" }
func (c *ListCmd) Usage() string      { return "listshare list [common flags] [<list>]" }
func (c *ListCmd) Needs() Requirement { return NeedsSpace }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, sess *Session, args []string, out, errOut io.Writer) int {
	p := sess.Printer(out)

	if ref := strings.TrimSpace(strings.Join(args, " ")); ref != "" {
		pos, l, err := findList(ctx, sess, ref)
		if err != nil {
			return ReportError(errOut, err)
		}
		p.List(pos, l)
		return exitcode.Success
	}

	lists, err := sess.Engine.AllLists(ctx, sess.Space.ID)
	if err != nil {
		return ReportError(errOut, err)
	}
	if len(lists) == 0 {
		if !cfg.Quiet {
			p.Muted("no lists (run: listshare createlist <title>)")
		}
		return exitcode.Success
	}
	for i, l := range lists {
		if i > 0 {
			fmt.Fprintln(out)
		}
		p.List(i+1, l)
	}
	return exitcode.Success
}

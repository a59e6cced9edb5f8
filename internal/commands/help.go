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
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string       { return "help" }
func (c *HelpCmd) Aliases() []string  { return nil }
func (c *HelpCmd) Synopsis() string   { return "Print usage" }
func (c *HelpCmd) Usage() string      { return "listshare help" }
func (c *HelpCmd) Needs() Requirement { return NeedsNothing }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, sess *Session, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Commands:")
	for _, cmd := range DefaultRegistry.All() {
		line := fmt.Sprintf("  %-11s %s", cmd.Name(), cmd.Synopsis())
		if aliases := cmd.Aliases(); len(aliases) > 0 {
			line += " (alias: " + strings.Join(aliases, ", ") + ")"
		}
		fmt.Fprintln(out, line)
	}
	return exitcode.Success
}

const helpText = `Usage:
  listshare                                    Print every list with its items
  listshare init [common flags] <your-name...> Create a space and make it active
  listshare join [common flags] <share-url>    Join the space of a share link
  listshare share [common flags] [base-url]    Print the share link
  listshare leave [common flags]               Forget the active space
  listshare space [common flags]
  listshare lists [common flags]
  listshare list [common flags] [<list>]
  listshare createlist [common flags] [<title...>]
  listshare addlist [common flags] [<title...>]
  listshare rename [common flags] <list> <title...>
  listshare rmlist [common flags] [--force] <list>
  listshare add [common flags] <list> <content...>
  listshare done [common flags] [--list <list>] <ref>
  listshare undone [common flags] [--list <list>] <ref>
  listshare edit [common flags] [--list <list>] <ref> <content...>
  listshare rm [common flags] [--list <list>] <ref>
  listshare theme [light|dark|toggle]
  listshare help
  listshare version

A <list> is a letter (a, b, ...), a position, a title, or a slug.
A <ref> is a list letter and item number: a1 or a 1.

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr

Environment:
  LISTSHARE_BACKEND       rest (default) or postgres
  LISTSHARE_REST_URL      REST endpoint of the backend project
  LISTSHARE_API_KEY       API key for the REST endpoint
  LISTSHARE_DATABASE_URL  Postgres connection string
  LISTSHARE_SHARE_URL     Base URL of share links
`

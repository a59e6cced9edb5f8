package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/url"
	"strings"

	"listshare/internal/config"
	"listshare/internal/engine"
	"listshare/internal/exitcode"
	"listshare/internal/token"
)

func init() {
	Register(&InitCmd{})
	Register(&JoinCmd{})
	Register(&ShareCmd{})
	Register(&LeaveCmd{})
	Register(&SpaceCmd{})
}

// InitCmd creates a space and makes it active.
type InitCmd struct{}

func (c *InitCmd) Name() string       { return "init" }
func (c *InitCmd) Aliases() []string  { return nil }
func (c *InitCmd) Synopsis() string   { return "Create a space" }
func (c *InitCmd) Usage() string      { return "listshare init <your-name...>" }
func (c *InitCmd) Needs() Requirement { return NeedsBackend }

func (c *InitCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *InitCmd) Run(ctx context.Context, cfg *config.Config, sess *Session, args []string, out, errOut io.Writer) int {
	author := strings.TrimSpace(strings.Join(args, " "))
	if author == "" {
		fmt.Fprintln(errOut, "error: name required")
		return exitcode.UserError
	}

	sp, err := sess.Engine.CreateSpace(ctx, author)
	if err != nil {
		return ReportError(errOut, err)
	}
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
		fmt.Fprintf(out, "share: %s\n", sess.Tokens.ShareURL(cfg.ShareURL))
	}
	sess.Logger.Debug("space created", "id", sp.ID)
	return exitcode.Success
}

// JoinCmd makes the space of a share link active.
type JoinCmd struct{}

func (c *JoinCmd) Name() string       { return "join" }
func (c *JoinCmd) Aliases() []string  { return nil }
func (c *JoinCmd) Synopsis() string   { return "Join a space from a share link" }
func (c *JoinCmd) Usage() string      { return "listshare join <share-url>" }
func (c *JoinCmd) Needs() Requirement { return NeedsBackend }

func (c *JoinCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *JoinCmd) Run(ctx context.Context, cfg *config.Config, sess *Session, args []string, out, errOut io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(errOut, "error: share url required")
		return exitcode.UserError
	}

	u, err := url.Parse(strings.TrimSpace(args[0]))
	if err != nil || u.Query().Get(token.URLParam) == "" {
		fmt.Fprintf(errOut, "error: not a share link: %s\n", args[0])
		return exitcode.UserError
	}

	if token.Decode(u.Query().Get(token.URLParam)) == "" {
		fmt.Fprintf(errOut, "error: share link carries no valid token: %s\n", args[0])
		return exitcode.UserError
	}
	link := token.NewManager(sess.State, token.WithPage(token.URLParams{URL: u}), token.WithLogger(sess.Logger))
	link.Token()

	sp, err := sess.Engine.ActiveSpace(ctx)
	if err != nil {
		return ReportError(errOut, err)
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "joined space of %s\n", sp.Author)
	}
	return exitcode.Success
}

// ShareCmd prints the share link of the active space.
type ShareCmd struct{}

func (c *ShareCmd) Name() string       { return "share" }
func (c *ShareCmd) Aliases() []string  { return nil }
func (c *ShareCmd) Synopsis() string   { return "Print the share link" }
func (c *ShareCmd) Usage() string      { return "listshare share [base-url]" }
func (c *ShareCmd) Needs() Requirement { return NeedsState }

func (c *ShareCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ShareCmd) Run(ctx context.Context, cfg *config.Config, sess *Session, args []string, out, errOut io.Writer) int {
	if len(args) > 1 {
		fmt.Fprintln(errOut, "error: too many arguments")
		return exitcode.UserError
	}
	if _, ok := sess.Tokens.Token(); !ok {
		return ReportError(errOut, engine.ErrNoSpace)
	}
	base := cfg.ShareURL
	if len(args) == 1 {
		base = args[0]
	}
	fmt.Fprintln(out, sess.Tokens.ShareURL(base))
	return exitcode.Success
}

// LeaveCmd forgets the active space.
type LeaveCmd struct{}

func (c *LeaveCmd) Name() string       { return "leave" }
func (c *LeaveCmd) Aliases() []string  { return nil }
func (c *LeaveCmd) Synopsis() string   { return "Forget the active space" }
func (c *LeaveCmd) Usage() string      { return "listshare leave" }
func (c *LeaveCmd) Needs() Requirement { return NeedsState }

func (c *LeaveCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LeaveCmd) Run(ctx context.Context, cfg *config.Config, sess *Session, args []string, out, errOut io.Writer) int {
	if err := sess.Tokens.Clear(); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// SpaceCmd describes the active space.
type SpaceCmd struct{}

func (c *SpaceCmd) Name() string       { return "space" }
func (c *SpaceCmd) Aliases() []string  { return nil }
func (c *SpaceCmd) Synopsis() string   { return "Show the active space" }
func (c *SpaceCmd) Usage() string      { return "listshare space" }
func (c *SpaceCmd) Needs() Requirement { return NeedsSpace }

func (c *SpaceCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *SpaceCmd) Run(ctx context.Context, cfg *config.Config, sess *Session, args []string, out, errOut io.Writer) int {
	lists, err := sess.Engine.AllLists(ctx, sess.Space.ID)
	if err != nil {
		return ReportError(errOut, err)
	}
	fmt.Fprintf(out, "space of %s\n", sess.Space.Author)
	if !sess.Space.CreatedAt.IsZero() {
		fmt.Fprintf(out, "created %s\n", sess.Space.CreatedAt.Format("2006-01-02"))
	}
	fmt.Fprintf(out, "%d lists\n", len(lists))
	return exitcode.Success
}

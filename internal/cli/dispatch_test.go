package cli_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"listshare/internal/cli"
	"listshare/internal/commands"
	"listshare/internal/config"
	"listshare/internal/engine"
	"listshare/internal/exitcode"
	"listshare/internal/kv"
	"listshare/internal/service"
	"listshare/internal/testutil"
	"listshare/internal/token"
)

type harness struct {
	store *testutil.FakeStore
	state *kv.MemStore
	d     *cli.Dispatcher
}

// newHarness wires a dispatcher to a FakeStore and in-memory state that
// persist across runs.
func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv(config.EnvShareURL, "https://lists.test/")
	t.Setenv(config.EnvBackend, "")

	h := &harness{store: testutil.NewFakeStore(), state: kv.NewMemStore()}
	factory := func(ctx context.Context, cfg *config.Config, tokens *token.Manager, logger *log.Logger) (*engine.Engine, error) {
		return engine.New(h.store, tokens, engine.WithLogger(logger)), nil
	}
	h.d = cli.NewDispatcher(commands.DefaultRegistry, factory, func(*config.Config) kv.Store { return h.state })
	return h
}

func (h *harness) run(args ...string) (stdout, stderr string, code int) {
	var outBuf, errBuf bytes.Buffer
	code = h.d.Run(context.Background(), args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

// withSpace seeds a space and stores its token.
func (h *harness) withSpace(t *testing.T) service.Space {
	t.Helper()
	sp := h.store.AddSpace("S", "Ada", "tok")
	if err := token.NewManager(h.state).Save("tok"); err != nil {
		t.Fatalf("save token: %v", err)
	}
	return sp
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	h := newHarness(t)

	_, stderr, code := h.run("unknowncmd")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: unknowncmd\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_FlagBeforeCommand(t *testing.T) {
	h := newHarness(t)

	_, stderr, code := h.run("--quiet")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: --quiet\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_HelpCommand(t *testing.T) {
	h := newHarness(t)

	stdout, stderr, code := h.run("help")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if !strings.Contains(stdout, "Usage:") {
		t.Error("expected help output to contain 'Usage:'")
	}
}

func TestDispatcher_VersionCommand(t *testing.T) {
	h := newHarness(t)

	stdout, stderr, code := h.run("version")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "listshare 0.1.0\n" {
		t.Errorf("expected 'listshare 0.1.0\\n', got %q", stdout)
	}
}

func TestDispatcher_UnknownFlag(t *testing.T) {
	h := newHarness(t)

	_, stderr, code := h.run("help", "--unknown")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown flag: -unknown\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_FlagNeedsArgument(t *testing.T) {
	h := newHarness(t)
	h.withSpace(t)

	_, stderr, code := h.run("done", "--list")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: flag needs an argument: -list\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_NoSpace(t *testing.T) {
	h := newHarness(t)

	_, stderr, code := h.run("lists")

	if code != exitcode.SpaceError {
		t.Errorf("expected exit code %d, got %d", exitcode.SpaceError, code)
	}
	if !strings.Contains(stderr, "no space") {
		t.Errorf("expected no space error, got %q", stderr)
	}
	if len(h.store.Calls) != 0 {
		t.Errorf("expected no backend calls, got %v", h.store.Calls)
	}
}

func TestDispatcher_InvalidTokenIsCleared(t *testing.T) {
	h := newHarness(t)
	if err := token.NewManager(h.state).Save("ghost"); err != nil {
		t.Fatal(err)
	}

	_, stderr, code := h.run("lists")

	if code != exitcode.SpaceError {
		t.Errorf("expected exit code %d, got %d", exitcode.SpaceError, code)
	}
	if !strings.Contains(stderr, "token cleared") {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if _, ok, _ := h.state.Get(token.StorageKey); ok {
		t.Error("expected stored token to be removed")
	}
}

func TestDispatcher_BackendUnavailable(t *testing.T) {
	h := newHarness(t)
	h.withSpace(t)
	h.store.SpaceByTokenErr = errors.New("connection refused")

	_, stderr, code := h.run("lists")

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if !strings.Contains(stderr, "connection refused") {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestDispatcher_FactoryNotConfigured(t *testing.T) {
	t.Setenv(config.EnvRESTURL, "")
	t.Setenv(config.EnvAPIKey, "")
	t.Setenv(config.EnvBackend, "")
	d := cli.NewDispatcher(commands.DefaultRegistry, cli.NewEngine, func(*config.Config) kv.Store { return kv.NewMemStore() })

	var stdout, stderr bytes.Buffer
	code := d.Run(context.Background(), []string{"init", "Ada"}, &stdout, &stderr)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.Contains(stderr.String(), config.EnvRESTURL) {
		t.Errorf("expected hint about %s, got %q", config.EnvRESTURL, stderr.String())
	}
}

func TestDispatcher_InitAndShare(t *testing.T) {
	h := newHarness(t)

	stdout, stderr, code := h.run("init", "Ada", "Lovelace")
	if code != exitcode.Success {
		t.Fatalf("init failed: %d %q", code, stderr)
	}
	if !strings.HasPrefix(stdout, "ok\nshare: https://lists.test/?space_token=") {
		t.Errorf("unexpected init output %q", stdout)
	}
	spaces := h.store.Spaces()
	if len(spaces) != 1 || spaces[0].Author != "Ada Lovelace" {
		t.Fatalf("unexpected spaces %+v", spaces)
	}

	shared, _, code := h.run("share")
	if code != exitcode.Success {
		t.Fatalf("share failed: %d", code)
	}
	want := "https://lists.test/?space_token=" + token.Encode(spaces[0].SpaceToken) + "\n"
	if shared != want {
		t.Errorf("expected %q, got %q", want, shared)
	}

	stdout, _, _ = h.run("space")
	if !strings.HasPrefix(stdout, "space of Ada Lovelace\n") {
		t.Errorf("unexpected space output %q", stdout)
	}
}

func TestDispatcher_InitFailureLeavesNoToken(t *testing.T) {
	h := newHarness(t)
	h.store.InsertSpaceErr = errors.New("unique violation")

	_, stderr, code := h.run("init", "Ada")

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if !strings.Contains(stderr, "insertion failed") {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if _, ok, _ := h.state.Get(token.StorageKey); ok {
		t.Error("expected no stored token after failed init")
	}
}

func TestDispatcher_JoinAndLeave(t *testing.T) {
	h := newHarness(t)
	h.store.AddSpace("S2", "Bob", "shared-token")

	link := "https://lists.test/?space_token=" + token.Encode("shared-token")
	stdout, stderr, code := h.run("join", link)
	if code != exitcode.Success {
		t.Fatalf("join failed: %d %q", code, stderr)
	}
	if stdout != "joined space of Bob\n" {
		t.Errorf("unexpected join output %q", stdout)
	}
	got, ok := token.NewManager(h.state).Token()
	if !ok || got != "shared-token" {
		t.Errorf("expected shared token to be stored, got %q", got)
	}

	stdout, _, code = h.run("leave")
	if code != exitcode.Success || stdout != "ok\n" {
		t.Errorf("leave: %d %q", code, stdout)
	}
	_, _, code = h.run("lists")
	if code != exitcode.SpaceError {
		t.Errorf("expected space error after leave, got %d", code)
	}
}

func TestDispatcher_JoinRejectsBadLinks(t *testing.T) {
	h := newHarness(t)

	for _, link := range []string{"https://lists.test/", "https://lists.test/?space_token=%%%"} {
		_, _, code := h.run("join", link)
		if code != exitcode.UserError {
			t.Errorf("join %q: expected exit code %d, got %d", link, exitcode.UserError, code)
		}
	}

	link := "https://lists.test/?space_token=" + token.Encode("nobody")
	_, _, code := h.run("join", link)
	if code != exitcode.SpaceError {
		t.Errorf("expected exit code %d for unknown space, got %d", exitcode.SpaceError, code)
	}
	if _, ok, _ := h.state.Get(token.StorageKey); ok {
		t.Error("expected unknown token to be cleared")
	}
}

func TestDispatcher_ListWorkflow(t *testing.T) {
	h := newHarness(t)
	h.withSpace(t)

	steps := []struct {
		args []string
		want string
	}{
		{[]string{"createlist", "Groceries"}, "ok a\n"},
		{[]string{"addlist"}, "ok b\n"},
		{[]string{"add", "a", "milk"}, "ok\n"},
		{[]string{"add", "groceries", "eggs"}, "ok\n"},
		{[]string{"done", "a1"}, "ok\n"},
		{[]string{"edit", "a", "2", "brown", "eggs"}, "ok\n"},
		{[]string{"rename", "b", "Chores"}, "ok\n"},
	}
	for _, step := range steps {
		stdout, stderr, code := h.run(step.args...)
		if code != exitcode.Success {
			t.Fatalf("%v: exit %d, stderr %q", step.args, code, stderr)
		}
		if stdout != step.want {
			t.Errorf("%v: expected %q, got %q", step.args, step.want, stdout)
		}
	}

	stdout, _, _ := h.run("lists")
	want := "   a  Groceries  1/2\n" +
		"   b  Chores  0/0\n"
	if stdout != want {
		t.Errorf("lists: expected %q, got %q", want, stdout)
	}

	stdout, _, _ = h.run("list", "a")
	want = "------------\n" +
		"a  Groceries\n" +
		"------------\n" +
		"       1  [x] milk\n" +
		"       2  [ ] brown eggs\n"
	if stdout != want {
		t.Errorf("list a: expected %q, got %q", want, stdout)
	}

	_, stderr, code := h.run("rmlist", "a")
	if code != exitcode.UserError || !strings.Contains(stderr, "open items") {
		t.Errorf("rmlist without --force: %d %q", code, stderr)
	}

	for _, args := range [][]string{{"rm", "--list", "a", "2"}, {"undone", "a1"}, {"rmlist", "--force", "a"}} {
		if _, stderr, code := h.run(args...); code != exitcode.Success {
			t.Fatalf("%v: exit %d, stderr %q", args, code, stderr)
		}
	}

	lists := h.store.Lists()
	if len(lists) != 1 || lists[0].Title != "Chores" {
		t.Errorf("unexpected lists %+v", lists)
	}
}

func TestDispatcher_DefaultCommandPrintsEverything(t *testing.T) {
	h := newHarness(t)
	h.withSpace(t)
	h.store.AddList("L1", "S", "Groceries", service.ListItem{ID: "i1", Content: "milk", Completed: true})
	h.store.AddList("L2", "S", "Chores")

	stdout, _, code := h.run()

	if code != exitcode.Success {
		t.Fatalf("expected success, got %d", code)
	}
	want := "------------\n" +
		"a  Groceries ✓\n" +
		"------------\n" +
		"       1  [x] milk\n" +
		"\n" +
		"------------\n" +
		"b  Chores\n" +
		"------------\n" +
		"    (no items)\n"
	if stdout != want {
		t.Errorf("expected %q, got %q", want, stdout)
	}
}

func TestDispatcher_ItemRefErrors(t *testing.T) {
	h := newHarness(t)
	h.withSpace(t)
	h.store.AddList("L1", "S", "Groceries", service.ListItem{ID: "i1", Content: "milk"})

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"done"}, "error: item reference required\n"},
		{[]string{"done", "1"}, "error: invalid item reference: 1 (use a1 or --list)\n"},
		{[]string{"done", "a9"}, "error: item not found: a9\n"},
		{[]string{"done", "z1"}, "error: list not found: z\n"},
		{[]string{"done", "--list", "a", "b1"}, "error: invalid item reference: cannot use both --list and list letter\n"},
		{[]string{"done", "1x"}, "error: invalid item reference: 1x\n"},
	}
	for _, tt := range tests {
		_, stderr, code := h.run(tt.args...)
		if code != exitcode.UserError {
			t.Errorf("%v: expected exit code %d, got %d", tt.args, exitcode.UserError, code)
		}
		if stderr != tt.want {
			t.Errorf("%v: expected %q, got %q", tt.args, tt.want, stderr)
		}
	}
}

func TestDispatcher_MutationFailureIsBackendError(t *testing.T) {
	h := newHarness(t)
	h.withSpace(t)
	h.store.AddList("L1", "S", "Groceries", service.ListItem{ID: "i1", Content: "milk"})
	h.store.UpdateListErr = errors.New("row locked")

	_, stderr, code := h.run("done", "a1")

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if stderr != "error: backend error: update failed: row locked\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if h.store.Lists()[0].Items[0].Completed {
		t.Error("store should be unchanged")
	}
}

func TestDispatcher_Theme(t *testing.T) {
	h := newHarness(t)

	stdout, _, _ := h.run("theme")
	if stdout != "light\n" {
		t.Errorf("expected default light, got %q", stdout)
	}
	stdout, _, _ = h.run("theme", "toggle")
	if stdout != "dark\n" {
		t.Errorf("expected dark after toggle, got %q", stdout)
	}
	if v, _, _ := h.state.Get("theme"); v != "dark" {
		t.Errorf("expected stored theme dark, got %q", v)
	}
	_, stderr, code := h.run("theme", "sepia")
	if code != exitcode.UserError || !strings.Contains(stderr, "unknown theme") {
		t.Errorf("theme sepia: %d %q", code, stderr)
	}
}

func TestDispatcher_QuietSuppressesOK(t *testing.T) {
	h := newHarness(t)
	h.withSpace(t)

	stdout, _, code := h.run("createlist", "--quiet", "Groceries")
	if code != exitcode.Success {
		t.Fatalf("expected success, got %d", code)
	}
	if stdout != "" {
		t.Errorf("expected no output, got %q", stdout)
	}
}

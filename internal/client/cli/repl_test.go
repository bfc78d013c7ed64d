package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// stubExec records which commands the REPL dispatched.
type stubExec struct {
	loggedIn bool
	calls    []string
}

func (s *stubExec) isLoggedIn() bool { return s.loggedIn }

func (s *stubExec) call(name string) error {
	s.calls = append(s.calls, name)
	return nil
}

func (s *stubExec) Register(context.Context) error  { return s.call("register") }
func (s *stubExec) Login(context.Context) error     { return s.call("login") }
func (s *stubExec) Logout(context.Context) error    { return s.call("logout") }
func (s *stubExec) Find(context.Context) error      { return s.call("find") }
func (s *stubExec) Friends(context.Context) error   { return s.call("friends") }
func (s *stubExec) AddFriend(context.Context) error { return s.call("add") }
func (s *stubExec) Accept(context.Context) error    { return s.call("accept") }
func (s *stubExec) Deny(context.Context) error      { return s.call("deny") }
func (s *stubExec) Publish(context.Context) error   { return s.call("publish") }
func (s *stubExec) Follow(context.Context) error    { return s.call("follow") }
func (s *stubExec) Requests(context.Context) error  { return s.call("requests") }

func runScript(t *testing.T, a *stubExec, script string) []string {
	t.Helper()

	origPrintln := printlnFn
	var output []string
	printlnFn = func(args ...any) (int, error) {
		for _, arg := range args {
			output = append(output, arg.(string))
		}
		return 0, nil
	}
	defer func() { printlnFn = origPrintln }()

	scanner := bufio.NewScanner(strings.NewReader(script))
	runREPL(context.Background(), a, func() string { return "test" }, scanner)
	return output
}

func TestREPL_DispatchesLoggedOutCommands(t *testing.T) {
	a := &stubExec{}
	runScript(t, a, "register\nlogin\nexit\n")
	assert.Equal(t, []string{"register", "login"}, a.calls)
}

func TestREPL_DispatchesLoggedInCommands(t *testing.T) {
	a := &stubExec{loggedIn: true}
	runScript(t, a, "find\nfriends\nadd\naccept\ndeny\nrequests\npublish\nfollow\nlogout\nquit\n")
	assert.Equal(t, []string{"find", "friends", "add", "accept", "deny",
		"requests", "publish", "follow", "logout"}, a.calls)
}

func TestREPL_RejectsAuthedCommandsWhenLoggedOut(t *testing.T) {
	a := &stubExec{}
	out := runScript(t, a, "publish\nexit\n")
	assert.Empty(t, a.calls)
	assert.Contains(t, out, "Unknown command. Type 'help'.")
}

func TestREPL_UnknownCommand(t *testing.T) {
	a := &stubExec{}
	out := runScript(t, a, "frobnicate\nexit\n")
	assert.Empty(t, a.calls)
	assert.Contains(t, out, "Unknown command. Type 'help'.")
}

func TestREPL_ExitsOnEOF(t *testing.T) {
	a := &stubExec{}
	runScript(t, a, "")
	assert.Empty(t, a.calls)
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeExec struct {
	loggedIn bool
	err      error

	calls []string
}

func (f *fakeExec) record(call string) error {
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Login(context.Context) error {
	f.loggedIn = true
	return f.record("login")
}
func (f *fakeExec) Logout(context.Context) error {
	f.loggedIn = false
	return f.record("logout")
}
func (f *fakeExec) Vault(context.Context) error { return f.record("vault") }
func (f *fakeExec) Forget(_ context.Context, u string) error {
	return f.record("forget:" + u)
}
func (f *fakeExec) Overview(_ context.Context, d string) error {
	return f.record("overview:" + d)
}
func (f *fakeExec) Events(context.Context) error { return f.record("events") }
func (f *fakeExec) Chores(_ context.Context, s string) error {
	return f.record("chores:" + s)
}
func (f *fakeExec) Bills(_ context.Context, s string) error {
	return f.record("bills:" + s)
}
func (f *fakeExec) Shopping(_ context.Context, s string) error {
	return f.record("shopping:" + s)
}
func (f *fakeExec) Watch(_ context.Context, s string) error {
	return f.record("watch:" + s)
}
func (f *fakeExec) Status(context.Context) error { return f.record("status") }

func capturePrintln(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	old := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSpace(fmt.Sprintln(a...)))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = old })
	return &lines
}

func TestREPL_DispatchesCommands(t *testing.T) {
	capturePrintln(t)
	f := &fakeExec{}
	input := strings.Join([]string{
		"login",
		"overview 2024-03-01",
		"overview",
		"events",
		"chores done",
		"bills paid",
		"shopping pending",
		"watch chores",
		"vault",
		"forget alice",
		"status",
		"logout",
		"exit",
		"events",
	}, "\n")

	runREPL(context.Background(), f, func() string { return "" }, rdr(input))

	require.Equal(t, []string{
		"login",
		"overview:2024-03-01",
		"overview:",
		"events",
		"chores:done",
		"bills:paid",
		"shopping:pending",
		"watch:chores",
		"vault",
		"forget:alice",
		"status",
		"logout",
	}, f.calls)
}

func TestREPL_RequiresLogin(t *testing.T) {
	out := capturePrintln(t)
	f := &fakeExec{}

	runREPL(context.Background(), f, func() string { return "" }, rdr("events\nwatch bills\nvault\n"))

	require.Equal(t, []string{"vault"}, f.calls)
	require.Contains(t, *out, "Please login first")
}

func TestREPL_Help(t *testing.T) {
	out := capturePrintln(t)

	runREPL(context.Background(), &fakeExec{}, func() string { return "" }, rdr("help\n"))
	require.Contains(t, *out, helpLoggedOut)

	runREPL(context.Background(), &fakeExec{loggedIn: true}, func() string { return "" }, rdr("help\n"))
	require.Contains(t, *out, helpLoggedIn)
}

func TestREPL_UsageAndUnknown(t *testing.T) {
	out := capturePrintln(t)
	f := &fakeExec{loggedIn: true}

	runREPL(context.Background(), f, func() string { return "" }, rdr("forget\nwatch\nfrobnicate\n\n"))

	require.Empty(t, f.calls)
	require.Contains(t, *out, "Usage: forget <username>")
	require.Contains(t, *out, "Usage: watch <overview|events|chores|bills|shopping>")
	require.Contains(t, *out, "Unknown command: frobnicate")
}

func TestREPL_PrintsHandlerErrors(t *testing.T) {
	out := capturePrintln(t)
	f := &fakeExec{loggedIn: true, err: errors.New("boom")}

	runREPL(context.Background(), f, func() string { return "(bob online)" }, rdr("events\nquit\n"))

	require.Contains(t, *out, "Error: boom")
	require.Contains(t, *out, "ft (bob online)>")
	require.Contains(t, *out, "Bye!")
}

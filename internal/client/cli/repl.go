package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Vault(ctx context.Context) error
	Forget(ctx context.Context, username string) error
	Overview(ctx context.Context, date string) error
	Events(ctx context.Context) error
	Chores(ctx context.Context, filter string) error
	Bills(ctx context.Context, filter string) error
	Shopping(ctx context.Context, filter string) error
	Watch(ctx context.Context, screen string) error
	Status(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: login, vault, forget <username>, status, exit"
	helpLoggedIn  = "Available commands: overview [YYYY-MM-DD], events, chores [todo|done], " +
		"bills [notpaid|paid], shopping [all|bought|pending], watch <screen>, " +
		"vault, forget <username>, status, logout, exit"
)

// needsSession lists the commands that talk to the household endpoints.
var needsSession = map[string]bool{
	"overview": true,
	"events":   true,
	"chores":   true,
	"bills":    true,
	"shopping": true,
	"watch":    true,
	"logout":   true,
}

// runREPL reads commands from reader until EOF or "exit"/"quit" and
// dispatches them to a. Handler errors are printed and the loop goes on.
//
// The prompt shows the current status (from statusFn).
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("ft %s> ", statusFn()))
		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if needsSession[cmd] && !a.isLoggedIn() {
			printlnFn("Please login first")
			continue
		}

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}

		case "login":
			cmdErr = a.Login(ctx)

		case "logout":
			cmdErr = a.Logout(ctx)

		case "vault":
			cmdErr = a.Vault(ctx)

		case "forget":
			if len(args) == 0 {
				printlnFn("Usage: forget <username>")
				continue
			}
			cmdErr = a.Forget(ctx, args[0])

		case "overview":
			cmdErr = a.Overview(ctx, arg(args))

		case "events":
			cmdErr = a.Events(ctx)

		case "chores":
			cmdErr = a.Chores(ctx, arg(args))

		case "bills":
			cmdErr = a.Bills(ctx, arg(args))

		case "shopping":
			cmdErr = a.Shopping(ctx, arg(args))

		case "watch":
			if len(args) == 0 {
				printlnFn("Usage: watch <overview|events|chores|bills|shopping>")
				continue
			}
			cmdErr = a.Watch(ctx, args[0])

		case "status":
			cmdErr = a.Status(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
	}
}

func arg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

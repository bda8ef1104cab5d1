package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isSignedIn() bool
	SignIn(ctx context.Context, args []string) error
	Verify(ctx context.Context, args []string) error
	Username(ctx context.Context, args []string) error
	Show(ctx context.Context) error
	Edit(ctx context.Context) error
	Set(ctx context.Context, args []string) error
	Save(ctx context.Context) error
	Cancel(ctx context.Context) error
	Refresh(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL reads commands line by line from reader and dispatches to a. The
// loop exits on EOF, on "exit" or "quit", or when ctx ends.
//
// Prompt & Commands
//
//	Signed out:
//	  - signin <email>          : send a one-time code
//	  - verify [email]          : enter the code (no echo)
//
//	Signed in:
//	  - username <name>         : create the profile on first sign-in
//	  - show                    : print the profile
//	  - edit                    : start editing
//	  - set <field> <value...>  : change a draft field (username, name, intro)
//	  - save | cancel           : commit or discard the draft
//	  - refresh                 : rotate the session tokens now
//	  - logout                  : sign out
//
// Errors returned by handlers are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("ps %s > ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isSignedIn() {
				printlnFn("Available commands: username, show, edit, set, save, cancel, refresh, logout, exit")
			} else {
				printlnFn("Available commands: signin, verify, exit")
			}

		case "signin", "login":
			cmdErr = a.SignIn(ctx, args)

		case "verify":
			cmdErr = a.Verify(ctx, args)

		case "username":
			cmdErr = a.Username(ctx, args)

		case "show":
			cmdErr = a.Show(ctx)

		case "edit":
			cmdErr = a.Edit(ctx)

		case "set":
			cmdErr = a.Set(ctx, args)

		case "save":
			cmdErr = a.Save(ctx)

		case "cancel":
			cmdErr = a.Cancel(ctx)

		case "refresh":
			cmdErr = a.Refresh(ctx)

		case "logout":
			cmdErr = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn(userMessage(cmdErr))
		}
	}
}

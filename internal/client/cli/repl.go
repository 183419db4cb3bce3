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

// execIface defines the command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool

	// auth-only group
	Login(ctx context.Context) error

	// session
	Logout(ctx context.Context) error
	Retry(ctx context.Context) error
	Ping(ctx context.Context) error

	// protected group
	Cards(ctx context.Context) error
	Transactions(ctx context.Context) error
	Invoices(ctx context.Context) error
	Balance(ctx context.Context) error
	Renewal(ctx context.Context) error
	Dismiss(ctx context.Context) error
	Freeze(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error

	// current list
	Search(ctx context.Context, term string) error
	Sort(ctx context.Context, key string) error
	Page(ctx context.Context, n int) error
	Next(ctx context.Context) error
	Prev(ctx context.Context) error
}

const (
	helpSignedIn  = "Available commands: cards, transactions, invoices, balance, renewal, dismiss, search <text>, sort <field>, page <n>, next, prev, freeze <id>, delete <id>, ping, retry, logout, exit"
	helpSignedOut = "Available commands: login, ping, retry, exit"
)

// runREPL starts a simple read–eval–print loop for the cardkeeper CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Unknown commands are reported back to the
// user. The loop exits on EOF or when the user types "exit" or "quit".
//
// Errors returned by command handlers are ignored here; handlers print the
// normalized message themselves. This keeps the loop resilient and focused
// on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("ck %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpSignedIn)
			} else {
				printlnFn(helpSignedOut)
			}

		case "login":
			_ = a.Login(ctx)
		case "logout":
			_ = a.Logout(ctx)
		case "retry", "status":
			_ = a.Retry(ctx)
		case "ping":
			_ = a.Ping(ctx)

		case "cards":
			_ = a.Cards(ctx)
		case "transactions", "tx":
			_ = a.Transactions(ctx)
		case "invoices":
			_ = a.Invoices(ctx)
		case "balance":
			_ = a.Balance(ctx)
		case "renewal":
			_ = a.Renewal(ctx)
		case "dismiss":
			_ = a.Dismiss(ctx)

		case "freeze", "delete":
			if len(args) != 1 {
				printlnFn(fmt.Sprintf("Usage: %s <id>", cmd))
				continue
			}
			if cmd == "freeze" {
				_ = a.Freeze(ctx, args[0])
			} else {
				_ = a.Delete(ctx, args[0])
			}

		case "search":
			_ = a.Search(ctx, strings.Join(args, " "))
		case "sort":
			if len(args) != 1 {
				printlnFn("Usage: sort <field>")
				continue
			}
			_ = a.Sort(ctx, args[0])
		case "page":
			var n int
			if len(args) != 1 {
				printlnFn("Usage: page <n>")
				continue
			}
			if _, err := fmt.Sscanf(args[0], "%d", &n); err != nil {
				printlnFn("Usage: page <n>")
				continue
			}
			_ = a.Page(ctx, n)
		case "next", "n":
			_ = a.Next(ctx)
		case "prev", "p":
			_ = a.Prev(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			return
		}
	}
}

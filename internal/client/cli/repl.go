package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

const helpText = "Available commands: mood, chat, health, advice [add|list], pref, sync, status, history, stats, exit"

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Mood(ctx context.Context, args []string) error
	Chat(ctx context.Context, args []string) error
	Health(ctx context.Context, args []string) error
	Advice(ctx context.Context, args []string) error
	Pref(ctx context.Context, args []string) error
	Sync(ctx context.Context) error
	Status(ctx context.Context) error
	History(ctx context.Context, args []string) error
	Stats(ctx context.Context) error
}

// runREPL starts a simple read-eval-print loop for the MindKeeper CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command and passes the rest to the matching method on 'a'. The loop exits
// on scanner EOF or when the user types "exit" or "quit".
//
// Commands:
//
//	mood <1-5> [note]          record a mood entry
//	chat [text]                record a chat message
//	health [name=value ...]    record health metrics
//	advice add|list            manage doctor advice
//	pref <local|daily|weekly>  change sync preference
//	sync                       run a manual sync
//	status                     show sync status
//	history <category>         list decoded entries
//	stats                      show storage health
//
// Handler errors are reported to the user and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("mk %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			printlnFn(helpText)

		case "mood":
			err = a.Mood(ctx, args)

		case "chat":
			err = a.Chat(ctx, args)

		case "health":
			err = a.Health(ctx, args)

		case "advice":
			err = a.Advice(ctx, args)

		case "pref":
			err = a.Pref(ctx, args)

		case "sync":
			err = a.Sync(ctx)

		case "status":
			err = a.Status(ctx)

		case "history", "h":
			err = a.History(ctx, args)

		case "stats":
			err = a.Stats(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
	}
}

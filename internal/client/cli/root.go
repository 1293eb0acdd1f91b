package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

func (a *App) getStatus() string {
	st := a.journal.GetSyncStatus(context.Background())

	parts := make([]string, 0, 3)
	if u, err := a.journal.CurrentUser(context.Background()); err == nil && u != nil {
		parts = append(parts, string(u.SyncPreference))
	}
	switch {
	case a.watcher == nil:
		parts = append(parts, "local")
	case st.IsOnline:
		parts = append(parts, "online")
	default:
		parts = append(parts, "offline")
	}
	if st.SyncInProgress {
		parts = append(parts, "syncing")
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, " "))
}

// Root prints the banner, starts the connectivity watcher and runs the REPL
// until the user exits or ctx is cancelled.
func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to MindKeeper CLI (type 'help' for commands)")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.StartOnlineStatusWatcher(ctx)

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(lineReader{a.reader}))
}

// lineReader feeds the scanner at most one line per Read, so prompts issued
// by commands keep reading from the same buffered reader.
type lineReader struct {
	r *bufio.Reader
}

func (l lineReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		b, err := l.r.ReadByte()
		if err != nil {
			if n > 0 {
				return n, nil
			}
			return 0, err
		}
		p[n] = b
		n++
		if b == '\n' {
			break
		}
	}
	return n, nil
}

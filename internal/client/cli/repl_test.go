package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

type fakeExec struct {
	calls []string
	args  map[string][]string
	err   error
}

func (f *fakeExec) record(name string, args []string) error {
	f.calls = append(f.calls, name)
	if f.args == nil {
		f.args = map[string][]string{}
	}
	f.args[name] = args
	return f.err
}

func (f *fakeExec) Mood(ctx context.Context, args []string) error   { return f.record("mood", args) }
func (f *fakeExec) Chat(ctx context.Context, args []string) error   { return f.record("chat", args) }
func (f *fakeExec) Health(ctx context.Context, args []string) error { return f.record("health", args) }
func (f *fakeExec) Advice(ctx context.Context, args []string) error { return f.record("advice", args) }
func (f *fakeExec) Pref(ctx context.Context, args []string) error   { return f.record("pref", args) }
func (f *fakeExec) Sync(ctx context.Context) error                  { return f.record("sync", nil) }
func (f *fakeExec) Status(ctx context.Context) error                { return f.record("status", nil) }
func (f *fakeExec) History(ctx context.Context, args []string) error {
	return f.record("history", args)
}
func (f *fakeExec) Stats(ctx context.Context) error { return f.record("stats", nil) }

func captureOutput(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	origPrint := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = origPrint })
	return &lines
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	captureOutput(t)

	input := strings.NewReader(strings.Join([]string{
		"help",
		"mood 4 feeling fine",
		"chat hello there",
		"",
		"health sleep=7 steps=1000",
		"advice add dr1 mood rest more",
		"pref daily",
		"sync",
		"status",
		"h mood",
		"stats",
		"foobar",
		"exit",
		"mood 1",
	}, "\n"))

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "status" }, bufio.NewScanner(input))

	want := []string{"mood", "chat", "health", "advice", "pref", "sync", "status", "history", "stats"}
	if strings.Join(exec.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v, want %v", exec.calls, want)
	}
	if got := strings.Join(exec.args["mood"], " "); got != "4 feeling fine" {
		t.Fatalf("mood args = %q", got)
	}
	if got := strings.Join(exec.args["advice"], " "); got != "add dr1 mood rest more" {
		t.Fatalf("advice args = %q", got)
	}
	if got := exec.args["history"]; len(got) != 1 || got[0] != "mood" {
		t.Fatalf("history args = %v", got)
	}
}

func TestRunREPL_UnknownAndQuit(t *testing.T) {
	out := captureOutput(t)

	input := strings.NewReader("get\nquit\n")
	exec := &fakeExec{}

	runREPL(context.Background(), exec, func() string { return "s" }, bufio.NewScanner(input))

	if len(exec.calls) != 0 {
		t.Fatalf("unexpected calls: %v", exec.calls)
	}
	joined := strings.Join(*out, "\n")
	if !strings.Contains(joined, "Unknown command: get") || !strings.Contains(joined, "Bye!") {
		t.Fatalf("output = %q", joined)
	}
	if !strings.Contains(joined, "mk s> ") {
		t.Fatalf("prompt missing: %q", joined)
	}
}

func TestRunREPL_ReportsHandlerErrors(t *testing.T) {
	out := captureOutput(t)

	exec := &fakeExec{err: errors.New("boom")}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewScanner(strings.NewReader("sync\n")))

	if len(exec.calls) != 1 {
		t.Fatalf("calls = %v", exec.calls)
	}
	if !strings.Contains(strings.Join(*out, "\n"), "Error: boom") {
		t.Fatalf("output = %q", *out)
	}
}

func TestLineReader_OneLinePerRead(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("first\nsecond\nthird"))
	sc := bufio.NewScanner(lineReader{r})

	if !sc.Scan() || sc.Text() != "first" {
		t.Fatalf("scan = %q", sc.Text())
	}
	rest, err := GetSimpleText(r, "next", &strings.Builder{})
	if err != nil || rest != "second" {
		t.Fatalf("shared reader got %q, err=%v", rest, err)
	}
	if !sc.Scan() || sc.Text() != "third" {
		t.Fatalf("scan = %q", sc.Text())
	}
}

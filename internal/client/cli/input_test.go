package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetSimpleText(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("hello world\n"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Name?", &out)
	if err != nil || got != "hello world" {
		t.Fatalf("got %q, err=%v", got, err)
	}
	if out.String() != "Name?\n> " {
		t.Fatalf("prompt = %q", out.String())
	}
}

func TestGetSimpleTextEOF(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("lastline"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Name?", &out)
	if err != nil || got != "lastline" {
		t.Fatalf("got %q, err=%v", got, err)
	}
}

func TestGetSimpleTextEmptyEOF(t *testing.T) {
	in := bufio.NewReader(strings.NewReader(""))
	var out bytes.Buffer
	_, err := GetSimpleText(in, "Name?", &out)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestGetMultiline_DoubleEnter(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("a\nb\n\n\n"))
	var out bytes.Buffer
	got, err := GetMultiline(in, "Enter text", &out)
	if err != nil {
		t.Fatal(err)
	}
	want := "a\nb"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestGetMultiline_EOFWithoutBlankLine(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("only line"))
	var out bytes.Buffer
	got, err := GetMultiline(in, "Enter text", &out)
	require.NoError(t, err)
	require.Equal(t, "only line", got)
}

func TestGetPassphrase(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()
	readPassword = func(int) ([]byte, error) {
		return []byte("s3cret"), nil
	}
	var out bytes.Buffer
	pw, err := GetPassphrase(&out)
	require.NoError(t, err)
	require.Equal(t, []byte("s3cret"), pw)
	require.Equal(t, "Enter passphrase: \n", out.String())
}

func TestGetPassphrase_Error(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()
	readPassword = func(int) ([]byte, error) {
		return nil, errors.New("boom")
	}
	var out bytes.Buffer
	_, err := GetPassphrase(&out)
	if err == nil {
		t.Fatal("expected error")
	}
}

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestGetMetrics(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "Unix newlines, stop on empty line",
			input:    "sleep=7.5\nsteps=9000\n\n",
			expected: []string{"sleep=7.5", "steps=9000"},
		},
		{
			name:     "Windows CRLF, stop on empty line",
			input:    "sleep=7.5\r\nsteps=9000\r\n\r\n",
			expected: []string{"sleep=7.5", "steps=9000"},
		},
		{
			name:     "Immediate blank line gives empty slice",
			input:    "\n",
			expected: []string{},
		},
		{
			name:     "EOF ends input",
			input:    "hr=60",
			expected: []string{"hr=60"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := GetMetrics(rdr(tt.input), &out)
			require.NoError(t, err)
			require.Equal(t, tt.expected, got)
			require.Contains(t, out.String(), "name=value")
		})
	}
}

package secio

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// ReadPassword writes prompt to out, reads a password from in without
// echoing it (when in is a terminal), and returns the raw bytes with any
// trailing newline stripped. Best-effort: the returned slice should be
// zeroed by the caller once the derived subkeys have been computed.
func ReadPassword(out io.Writer, in *os.File, prompt string) ([]byte, error) {
	fmt.Fprint(out, prompt)

	if term.IsTerminal(int(in.Fd())) {
		pw, err := term.ReadPassword(int(in.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return nil, fmt.Errorf("secio: read password: %w", err)
		}
		return pw, nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("secio: read password: %w", err)
	}
	return []byte(trimNewline(line)), nil
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

// Zero overwrites a password buffer with zeros once it is no longer
// needed. Best-effort only: Go's garbage collector may have already
// copied the underlying bytes elsewhere.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

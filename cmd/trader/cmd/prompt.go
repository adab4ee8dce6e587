package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// termPrompter reads secrets from the terminal without echo. When input is
// not a terminal it reads one line per prompt so secrets can be piped in.
type termPrompter struct {
	fd  int
	in  *bufio.Reader
	out io.Writer
}

func newTermPrompter() *termPrompter {
	return &termPrompter{
		fd:  int(os.Stdin.Fd()),
		in:  bufio.NewReader(os.Stdin),
		out: os.Stderr,
	}
}

func (p *termPrompter) PromptSecret(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	if term.IsTerminal(p.fd) {
		b, err := term.ReadPassword(p.fd)
		fmt.Fprintln(p.out)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
		}
		return string(b), nil
	}
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNotInteractive is returned when a prompt is needed but stdin is not a terminal.
var ErrNotInteractive = errors.New("stdin is not a terminal")

// IsInteractive reports whether stdin is attached to a terminal.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// ReadSecret prints prompt and reads a line without echo. The value is
// returned exactly as typed.
func ReadSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", ErrNotInteractive
	}
	fmt.Print(prompt)
	b, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return trimEOL(string(b)), nil
}

// ReadLine prints prompt and reads one line from r with surrounding
// whitespace removed.
func ReadLine(r io.Reader, prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := readRaw(r)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ReadSecretLine reads one line from r and strips only the line terminator,
// so leading and trailing spaces in a password survive.
func ReadSecretLine(r io.Reader) (string, error) {
	line, err := readRaw(r)
	if err != nil {
		return "", err
	}
	return trimEOL(line), nil
}

func readRaw(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return line, nil
}

func trimEOL(s string) string {
	return strings.TrimRight(s, "\r\n")
}

package ctl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/pms/internal/common"
	"golang.org/x/term"
)

// Test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// readLine reads a single line from reader. The trailing newline is
// trimmed; a final line without newline is returned as is.
func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// promptPassword prints prompt to w and reads a password. On a terminal the
// input is not echoed; otherwise one line is read from reader, which lets
// scripts pipe the password in.
func promptPassword(w io.Writer, reader *bufio.Reader, prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		pw, err := readLine(reader)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return pw, nil
	}

	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return "", err
	}
	pw, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

// newPassword reads a password twice on a terminal and checks both entries
// match.
func newPassword(w io.Writer, reader *bufio.Reader) (string, error) {
	pw, err := promptPassword(w, reader, "New password")
	if err != nil {
		return "", err
	}
	if !isTerminal(int(os.Stdin.Fd())) {
		return pw, nil
	}
	again, err := promptPassword(w, reader, "Repeat password")
	if err != nil {
		return "", err
	}
	if pw != again {
		return "", errors.New("passwords do not match")
	}
	return pw, nil
}

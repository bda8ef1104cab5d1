package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var getMultiline = GetMultiline

// readLine reads one line without its line ending. A final line without a
// newline is returned with a nil error; io.EOF is only reported once nothing
// is left.
func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if errors.Is(err, io.EOF) && line != "" {
		err = nil
	}
	return strings.TrimRight(line, "\r\n"), err
}

// GetSimpleText prints prompt followed by a "> " marker and reads one
// trimmed line.
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := readLine(reader)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetCode reads the one-time code from the terminal without echo. Spaces and
// dashes are dropped so "123 456" and "123-456" are accepted. The caller
// wipes the returned slice.
func GetCode(w io.Writer, email string) ([]byte, error) {
	prompt := "Enter Verification Code: "
	if email != "" {
		prompt = fmt.Sprintf("Enter Verification Code (sent to %s): ", email)
	}
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return nil, err
	}

	raw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}

	code := raw[:0]
	for _, b := range raw {
		switch b {
		case ' ', '\t', '-', '\r', '\n':
		default:
			code = append(code, b)
		}
	}
	return code, nil
}

// GetMultiline reads lines until an empty line or end of input and returns
// them joined with '\n', trimmed.
func GetMultiline(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n(press Enter on an empty line to finish)\n"); err != nil {
		return "", err
	}

	var b strings.Builder
	for {
		line, err := readLine(reader)
		if line == "" {
			break
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if err != nil {
			break
		}
	}

	return strings.TrimSpace(b.String()), nil
}

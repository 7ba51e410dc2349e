package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// EnvPassword supplies the password to login and register without a prompt.
const EnvPassword = "TASKBOARD_PASSWORD"

// credentialReader asks for missing account fields on errOut and reads the
// answers line by line from in.
type credentialReader struct {
	in     *bufio.Reader
	prompt io.Writer
}

func newCredentialReader(in io.Reader, prompt io.Writer) *credentialReader {
	if in == nil {
		in = os.Stdin
	}
	return &credentialReader{in: bufio.NewReader(in), prompt: prompt}
}

// field returns value if non-empty, otherwise prompts for label.
func (r *credentialReader) field(value, label string) (string, error) {
	if v := strings.TrimSpace(value); v != "" {
		return v, nil
	}
	fmt.Fprintf(r.prompt, "%s: ", label)
	line, err := r.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", usageErrorf("%s required", strings.ToLower(label))
	}
	return line, nil
}

// password is like field but also consults EnvPassword. Surrounding
// whitespace is kept.
func (r *credentialReader) password(value string) (string, error) {
	if value != "" {
		return value, nil
	}
	if v := os.Getenv(EnvPassword); v != "" {
		return v, nil
	}
	fmt.Fprint(r.prompt, "Password: ")
	line, err := r.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", usageErrorf("password required")
	}
	return line, nil
}

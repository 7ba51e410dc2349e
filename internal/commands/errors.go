package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/service"
)

// errUsage marks argument errors detected by a command itself.
var errUsage = errors.New("usage error")

func usageErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

// report prints err to errOut and returns the matching exit code.
func report(errOut io.Writer, err error) int {
	switch {
	case errors.Is(err, errUsage):
		fmt.Fprintf(errOut, "error: %s\n", strings.TrimPrefix(err.Error(), errUsage.Error()+": "))
		return exitcode.UserError
	case errors.Is(err, service.ErrUnauthorized):
		msg := err.Error()
		if !strings.Contains(msg, "login") {
			msg += fmt.Sprintf(" (run: %s login)", config.AppName)
		}
		fmt.Fprintf(errOut, "error: %s\n", msg)
		return exitcode.AuthError
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrNotFound):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	default:
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
}

// ok prints "ok" unless quiet.
func ok(cfg *config.Config, out io.Writer) int {
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

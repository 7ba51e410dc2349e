package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/logger"
	"taskboard/internal/service"
)

func init() {
	Register(&LogoutCmd{})
}

// LogoutCmd implements the logout command.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string      { return "logout" }
func (c *LogoutCmd) Aliases() []string { return nil }
func (c *LogoutCmd) Synopsis() string  { return "Remove stored credentials" }
func (c *LogoutCmd) Usage() string     { return "taskboard logout [common flags]" }
func (c *LogoutCmd) NeedsStore() bool  { return true }
func (c *LogoutCmd) NeedsAuth() bool   { return false }

func (c *LogoutCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, cfg *config.Config, svc service.Store, args []string, out, errOut io.Writer) int {
	if cfg.Backend() == config.BackendGoogleTasks {
		if !cfg.HasGoogleToken() {
			return notLoggedIn(cfg, out)
		}
		if err := cfg.RemoveGoogleToken(); err != nil {
			fmt.Fprintf(errOut, "error: failed to remove token: %v\n", err)
			return exitcode.AuthError
		}
		return ok(cfg, out)
	}

	if !cfg.HasSession() {
		return notLoggedIn(cfg, out)
	}

	// The server call is best effort; the local session is removed regardless.
	if accounts, ok := svc.(service.Accounts); ok {
		if err := accounts.Logout(ctx); err != nil {
			logger.Get().Debug("server logout failed", "err", err)
		}
	}

	if err := cfg.RemoveSession(); err != nil {
		fmt.Fprintf(errOut, "error: failed to remove session: %v\n", err)
		return exitcode.AuthError
	}
	return ok(cfg, out)
}

func notLoggedIn(cfg *config.Config, out io.Writer) int {
	if !cfg.Quiet {
		fmt.Fprintln(out, "not logged in")
	}
	return exitcode.Success
}

package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"taskboard/internal/auth"
	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/output"
	"taskboard/internal/service"
)

func init() {
	Register(&WhoamiCmd{})
}

// WhoamiCmd prints the logged-in user.
type WhoamiCmd struct{}

func (c *WhoamiCmd) Name() string      { return "whoami" }
func (c *WhoamiCmd) Aliases() []string { return []string{"me"} }
func (c *WhoamiCmd) Synopsis() string  { return "Show the logged-in user" }
func (c *WhoamiCmd) Usage() string     { return "taskboard whoami" }
func (c *WhoamiCmd) NeedsStore() bool  { return true }
func (c *WhoamiCmd) NeedsAuth() bool   { return true }

func (c *WhoamiCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *WhoamiCmd) Run(ctx context.Context, cfg *config.Config, svc service.Store, args []string, out, errOut io.Writer) int {
	accounts, ok := svc.(service.Accounts)
	if !ok {
		fmt.Fprintf(out, "logged in with %s\n", cfg.Backend())
		return exitcode.Success
	}

	user, err := accounts.Me(ctx)
	if errors.Is(err, service.ErrUnauthorized) {
		// The store no longer accepts the token; drop it.
		_ = cfg.RemoveSession()
	}
	if err != nil {
		return report(errOut, err)
	}

	var expiry time.Time
	if sess, err := auth.Load(cfg.SessionPath()); err == nil {
		expiry, _ = sess.Expiry()
	}
	output.FormatUser(out, user, expiry)
	return exitcode.Success
}

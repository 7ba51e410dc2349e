package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"taskboard/internal/auth"
	"taskboard/internal/backend/googletasks"
	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/service"
)

func init() {
	Register(&LoginCmd{})
	Register(&RegisterCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	email    string
	password string
	in       io.Reader
}

// SetInput sets the reader for prompted fields (for testing).
func (c *LoginCmd) SetInput(r io.Reader) { c.in = r }

// SetCredentials sets the email and password (for testing).
func (c *LoginCmd) SetCredentials(email, password string) {
	c.email = email
	c.password = password
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Log in to the task store" }
func (c *LoginCmd) Usage() string     { return "taskboard login [--email <email>] [--password <password>]" }
func (c *LoginCmd) NeedsStore() bool  { return true }
func (c *LoginCmd) NeedsAuth() bool   { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.email, "e", "", "")
	fs.StringVar(&c.password, "password", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, svc service.Store, args []string, out, errOut io.Writer) int {
	if cfg.Backend() == config.BackendGoogleTasks {
		return loginGoogle(ctx, cfg, out, errOut)
	}

	accounts, ok := svc.(service.Accounts)
	if !ok {
		fmt.Fprintln(errOut, "error: backend does not support accounts")
		return exitcode.UserError
	}

	r := newCredentialReader(c.in, errOut)
	email, err := r.field(c.email, "Email")
	if err != nil {
		return report(errOut, err)
	}
	password, err := r.password(c.password)
	if err != nil {
		return report(errOut, err)
	}

	creds, err := accounts.Login(ctx, email, password)
	if err != nil {
		return reportAccountError(errOut, "login failed", err)
	}
	return saveSession(cfg, creds, out, errOut)
}

// RegisterCmd creates an account and logs in.
type RegisterCmd struct {
	name     string
	email    string
	password string
	in       io.Reader
}

// SetInput sets the reader for prompted fields (for testing).
func (c *RegisterCmd) SetInput(r io.Reader) { c.in = r }

func (c *RegisterCmd) Name() string      { return "register" }
func (c *RegisterCmd) Aliases() []string { return []string{"signup"} }
func (c *RegisterCmd) Synopsis() string  { return "Create an account and log in" }
func (c *RegisterCmd) Usage() string {
	return "taskboard register [--name <name>] [--email <email>] [--password <password>]"
}
func (c *RegisterCmd) NeedsStore() bool { return true }
func (c *RegisterCmd) NeedsAuth() bool  { return false }

func (c *RegisterCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.name, "name", "", "")
	fs.StringVar(&c.name, "n", "", "")
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.email, "e", "", "")
	fs.StringVar(&c.password, "password", "", "")
}

func (c *RegisterCmd) Run(ctx context.Context, cfg *config.Config, svc service.Store, args []string, out, errOut io.Writer) int {
	accounts, ok := svc.(service.Accounts)
	if !ok {
		fmt.Fprintln(errOut, "error: backend does not support accounts")
		return exitcode.UserError
	}

	r := newCredentialReader(c.in, errOut)
	name, err := r.field(c.name, "Name")
	if err != nil {
		return report(errOut, err)
	}
	email, err := r.field(c.email, "Email")
	if err != nil {
		return report(errOut, err)
	}
	password, err := r.password(c.password)
	if err != nil {
		return report(errOut, err)
	}

	creds, err := accounts.Register(ctx, name, email, password)
	if err != nil {
		return reportAccountError(errOut, "registration failed", err)
	}
	return saveSession(cfg, creds, out, errOut)
}

func saveSession(cfg *config.Config, creds service.Credentials, out, errOut io.Writer) int {
	if err := cfg.EnsureDir(); err != nil {
		fmt.Fprintf(errOut, "error: failed to create config directory: %v\n", err)
		return exitcode.AuthError
	}
	if err := auth.FromCredentials(creds).Save(cfg.SessionPath()); err != nil {
		fmt.Fprintf(errOut, "error: failed to save session: %v\n", err)
		return exitcode.AuthError
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "logged in as %s\n", creds.User.Email)
	}
	return exitcode.Success
}

// reportAccountError prints the store's message, which is meant for the
// user, and maps rejected credentials to an auth error.
func reportAccountError(errOut io.Writer, what string, err error) int {
	msg := err.Error()
	var apiErr *service.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		msg = apiErr.Message
	}
	fmt.Fprintf(errOut, "error: %s: %s\n", what, msg)
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		return exitcode.AuthError
	case errors.Is(err, service.ErrValidation):
		return exitcode.UserError
	}
	return exitcode.BackendError
}

func loginGoogle(ctx context.Context, cfg *config.Config, out, errOut io.Writer) int {
	if cfg.HasGoogleToken() && googletasks.TokenValid(ctx, cfg) {
		if !cfg.Quiet {
			fmt.Fprintln(out, "already logged in")
		}
		return exitcode.Success
	}

	err := googletasks.Authorize(ctx, cfg, errOut)
	if errors.Is(err, googletasks.ErrNoOAuthClient) {
		fmt.Fprintf(errOut, "error: %s not found in %s\n\n", config.OAuthClientFile, cfg.Dir)
		fmt.Fprintln(errOut, "To use Google Tasks as the task store, you need OAuth credentials:")
		fmt.Fprintln(errOut, "")
		fmt.Fprintln(errOut, "1. Go to https://console.cloud.google.com/apis/credentials")
		fmt.Fprintln(errOut, "2. Enable the Google Tasks API for your project")
		fmt.Fprintln(errOut, "3. Create an OAuth client ID of type 'Desktop app' and download the JSON")
		fmt.Fprintf(errOut, "4. Save it as %s\n", cfg.OAuthClientPath())
		fmt.Fprintln(errOut, "")
		fmt.Fprintf(errOut, "Then run '%s login' again.\n", config.AppName)
		return exitcode.AuthError
	}
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}
	return ok(cfg, out)
}

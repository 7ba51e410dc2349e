package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/service"
)

func init() {
	Register(&ThemeCmd{})
}

// ThemeCmd shows or changes the color theme.
type ThemeCmd struct{}

func (c *ThemeCmd) Name() string      { return "theme" }
func (c *ThemeCmd) Aliases() []string { return nil }
func (c *ThemeCmd) Synopsis() string  { return "Show or set the color theme" }
func (c *ThemeCmd) Usage() string     { return "taskboard theme [light|dark|toggle]" }
func (c *ThemeCmd) NeedsStore() bool  { return false }
func (c *ThemeCmd) NeedsAuth() bool   { return false }

func (c *ThemeCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ThemeCmd) Run(ctx context.Context, cfg *config.Config, svc service.Store, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(out, currentTheme(cfg))
		return exitcode.Success
	}

	switch strings.ToLower(args[0]) {
	case config.ThemeLight:
		cfg.Settings.Theme = config.ThemeLight
	case config.ThemeDark:
		cfg.Settings.Theme = config.ThemeDark
	case "toggle":
		if cfg.DarkMode() {
			cfg.Settings.Theme = config.ThemeLight
		} else {
			cfg.Settings.Theme = config.ThemeDark
		}
	default:
		fmt.Fprintf(errOut, "error: unknown theme: %s\n", args[0])
		return exitcode.UserError
	}

	if err := cfg.SaveSettings(); err != nil {
		fmt.Fprintf(errOut, "error: failed to save settings: %v\n", err)
		return exitcode.UserError
	}
	if !cfg.Quiet {
		fmt.Fprintln(out, currentTheme(cfg))
	}
	return exitcode.Success
}

func currentTheme(cfg *config.Config) string {
	if cfg.DarkMode() {
		return config.ThemeDark
	}
	return config.ThemeLight
}

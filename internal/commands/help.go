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
	Register(&HelpCmd{registry: DefaultRegistry})
}

// HelpCmd prints usage for every command in its registry.
type HelpCmd struct {
	registry *Registry
}

// NewHelpCmd creates a help command listing the commands of r.
func NewHelpCmd(r *Registry) *HelpCmd { return &HelpCmd{registry: r} }

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "taskboard help" }
func (c *HelpCmd) NeedsStore() bool  { return false }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, svc service.Store, args []string, out, errOut io.Writer) int {
	fmt.Fprintln(out, "Usage:")
	fmt.Fprintf(out, "  %-62s %s\n", config.AppName, "List all tasks")
	if c.registry != nil {
		for _, cmd := range c.registry.All() {
			fmt.Fprintf(out, "  %-62s %s\n", cmd.Usage(), synopsis(cmd))
		}
	}
	fmt.Fprint(out, helpFooter)
	return exitcode.Success
}

func synopsis(cmd Command) string {
	if aliases := cmd.Aliases(); len(aliases) > 0 {
		return cmd.Synopsis() + " (alias: " + strings.Join(aliases, ", ") + ")"
	}
	return cmd.Synopsis()
}

const helpFooter = `
Task references are the numbers shown by list.
Priorities: low, medium (default), high

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr

Environment:
  TASKBOARD_API_URL    Task store base URL (default http://localhost:5000)
  TASKBOARD_BACKEND    rest or googletasks
  TASKBOARD_THEME      light or dark
  TASKBOARD_PASSWORD   Password for login and register
`

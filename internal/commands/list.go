package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/output"
	"taskboard/internal/service"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `taskboard` (no args) and `taskboard list`.
type ListCmd struct {
	pending bool
}

// SetPending restricts output to open tasks (for testing).
func (c *ListCmd) SetPending(pending bool) {
	c.pending = pending
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string     { return "taskboard list [--pending]" }
func (c *ListCmd) NeedsStore() bool  { return true }
func (c *ListCmd) NeedsAuth() bool   { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.pending, "pending", false, "")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, svc service.Store, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	ctrl, err := loadTasks(ctx, svc)
	if err != nil {
		return report(errOut, err)
	}
	defer ctrl.Close()

	r := output.NewRenderer(out, cfg.DarkMode())
	tasks := ctrl.Tasks()
	if !c.pending {
		r.FormatTasks(out, tasks)
		return exitcode.Success
	}

	// Numbers stay those of the full list so they can be passed to other commands.
	shown := 0
	for i, task := range tasks {
		if task.Completed {
			continue
		}
		r.FormatTask(out, i+1, task)
		shown++
	}
	if shown == 0 {
		fmt.Fprintln(out, output.EmptyMessage)
	}
	return exitcode.Success
}

package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/service"
)

func init() {
	Register(&MoveCmd{})
}

// MoveCmd implements the move command: the task at <from> is taken out and
// reinserted at <to>, shifting the tasks in between.
type MoveCmd struct{}

func (c *MoveCmd) Name() string      { return "move" }
func (c *MoveCmd) Aliases() []string { return []string{"mv"} }
func (c *MoveCmd) Synopsis() string  { return "Move a task to another position" }
func (c *MoveCmd) Usage() string     { return "taskboard move <ref> <position>" }
func (c *MoveCmd) NeedsStore() bool  { return true }
func (c *MoveCmd) NeedsAuth() bool   { return true }

func (c *MoveCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *MoveCmd) Run(ctx context.Context, cfg *config.Config, svc service.Store, args []string, out, errOut io.Writer) int {
	if len(args) < 2 {
		fmt.Fprintln(errOut, "error: task reference and target position required")
		return exitcode.UserError
	}
	to, err := ParseTaskRef(args, 1)
	if err != nil {
		return report(errOut, refError(err))
	}

	ctrl, _, err := resolveTask(ctx, svc, args, 0)
	if err != nil {
		return report(errOut, err)
	}
	defer ctrl.Close()

	if to > ctrl.Len() {
		fmt.Fprintf(errOut, "error: position out of range: %d\n", to)
		return exitcode.UserError
	}

	from, _ := ParseTaskRef(args, 0)
	s := ctrl.Reorder(ctx, from-1, to-1)
	if err := s.Wait(); err != nil {
		code := report(errOut, err)
		if s.RolledBack() && !cfg.Quiet {
			fmt.Fprintln(errOut, "order reloaded from store")
		}
		return code
	}
	return ok(cfg, out)
}

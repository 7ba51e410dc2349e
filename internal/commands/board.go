package commands

import (
	"context"
	"flag"
	"io"
	"os"

	"taskboard/internal/board"
	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/output"
	"taskboard/internal/service"
	"taskboard/internal/tasklist"
)

func init() {
	Register(&BoardCmd{})
}

// BoardCmd opens the interactive board.
type BoardCmd struct {
	in io.Reader
}

// SetInput sets the keyboard input (for testing).
func (c *BoardCmd) SetInput(r io.Reader) {
	c.in = r
}

func (c *BoardCmd) Name() string      { return "board" }
func (c *BoardCmd) Aliases() []string { return []string{"ui"} }
func (c *BoardCmd) Synopsis() string  { return "Interactive list with drag-style reordering" }
func (c *BoardCmd) Usage() string     { return "taskboard board" }
func (c *BoardCmd) NeedsStore() bool  { return true }
func (c *BoardCmd) NeedsAuth() bool   { return true }

func (c *BoardCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *BoardCmd) Run(ctx context.Context, cfg *config.Config, svc service.Store, args []string, out, errOut io.Writer) int {
	in := c.in
	if in == nil {
		in = os.Stdin
	}

	ctrl := tasklist.New(svc)
	defer ctrl.Close()

	r := output.NewRenderer(out, cfg.DarkMode())
	if err := board.Run(ctx, ctrl, r, in, out, cfg.Timeout()); err != nil {
		return report(errOut, err)
	}
	return exitcode.Success
}

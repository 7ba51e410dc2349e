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
	Register(&EditCmd{})
}

// optString is a string flag that records whether it was given, so that an
// explicit empty value can clear a field.
type optString struct {
	value string
	set   bool
}

func (o *optString) String() string { return o.value }

func (o *optString) Set(s string) error {
	o.value = s
	o.set = true
	return nil
}

// EditCmd implements the edit command.
type EditCmd struct {
	title       optString
	description optString
	priority    optString
}

// SetTitle sets the new title (for testing).
func (c *EditCmd) SetTitle(s string) { _ = c.title.Set(s) }

// SetDescription sets the new description (for testing).
func (c *EditCmd) SetDescription(s string) { _ = c.description.Set(s) }

// SetPriority sets the new priority (for testing).
func (c *EditCmd) SetPriority(s string) { _ = c.priority.Set(s) }

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Change a task's title, description or priority" }
func (c *EditCmd) Usage() string {
	return "taskboard edit [--title <text>] [--desc <text>] [--priority low|medium|high] <ref>"
}
func (c *EditCmd) NeedsStore() bool { return true }
func (c *EditCmd) NeedsAuth() bool  { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.Var(&c.title, "title", "")
	fs.Var(&c.title, "t", "")
	fs.Var(&c.description, "desc", "")
	fs.Var(&c.description, "d", "")
	fs.Var(&c.priority, "priority", "")
	fs.Var(&c.priority, "p", "")
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, svc service.Store, args []string, out, errOut io.Writer) int {
	patch, err := c.patch()
	if err != nil {
		return report(errOut, err)
	}
	if patch.Empty() {
		fmt.Fprintln(errOut, "error: nothing to change (use --title, --desc or --priority)")
		return exitcode.UserError
	}

	ctrl, task, err := resolveTask(ctx, svc, args, 0)
	if err != nil {
		return report(errOut, err)
	}
	defer ctrl.Close()

	if _, err := ctrl.Update(ctx, task.ID, patch); err != nil {
		return report(errOut, err)
	}
	return ok(cfg, out)
}

func (c *EditCmd) patch() (service.Patch, error) {
	var p service.Patch
	if c.title.set {
		v := c.title.value
		p.Title = &v
	}
	if c.description.set {
		v := c.description.value
		p.Description = &v
	}
	if c.priority.set {
		pr, err := service.ParsePriority(c.priority.value)
		if err != nil {
			return service.Patch{}, err
		}
		p.Priority = &pr
	}
	return p, nil
}

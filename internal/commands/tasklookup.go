package commands

import (
	"context"
	"errors"

	"taskboard/internal/service"
	"taskboard/internal/tasklist"
)

// loadTasks creates a controller over svc and loads the list.
func loadTasks(ctx context.Context, svc service.Store) (*tasklist.Controller, error) {
	ctrl := tasklist.New(svc)
	if err := ctrl.Load(ctx); err != nil {
		ctrl.Close()
		return nil, err
	}
	return ctrl, nil
}

// resolveTask loads the list and returns the controller and the task shown
// at the 1-based position in args[index].
func resolveTask(ctx context.Context, svc service.Store, args []string, index int) (*tasklist.Controller, service.Task, error) {
	num, err := ParseTaskRef(args, index)
	if err != nil {
		return nil, service.Task{}, refError(err)
	}
	ctrl, err := loadTasks(ctx, svc)
	if err != nil {
		return nil, service.Task{}, err
	}
	task, ok := ctrl.At(num - 1)
	if !ok {
		ctrl.Close()
		return nil, service.Task{}, usageErrorf("task number out of range: %d", num)
	}
	return ctrl, task, nil
}

func refError(err error) error {
	if errors.Is(err, ErrTaskRefRequired) {
		return usageErrorf("task reference required")
	}
	return usageErrorf("%v", err)
}

package task

import "context"

// Task is periodic work run by a Manager.
type Task interface {
	Name() string
	Perform(ctx context.Context) error
}

// New builds a Task from a function.
func New(name string, perform func(ctx context.Context) error) Task {
	return &funcTask{name: name, perform: perform}
}

type funcTask struct {
	perform func(ctx context.Context) error
	name    string
}

func (t *funcTask) Name() string {
	return t.name
}

func (t *funcTask) Perform(ctx context.Context) error {
	return t.perform(ctx)
}

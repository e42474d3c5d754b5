// Package pipeline implements the Format Pipeline (C7): a dispatch table
// from ConversionSpec to a stage sequence, composed as a Flow task graph.
// Flow itself generalizes the teacher's pipelines.Flow contract (proven by
// pipelines/flow_test.go: NewFlow/AddTask/Run, dependency ordering, a
// SkipStepsKey escape hatch, error short-circuit, context cancellation) —
// the teacher's own pipelines.Flow implementation wasn't retrieved, so this
// is a fresh implementation of that tested contract.
package pipeline

import (
	"context"
	"fmt"
)

type skipStepsKeyType struct{}

// SkipStepsKey is the context key a caller sets to a []string of task names
// that should be marked done without running, while their dependents still
// execute normally.
var SkipStepsKey = skipStepsKeyType{}

type task struct {
	name string
	fn   func() error
	deps []string
}

// Flow runs a named, dependency-ordered set of tasks.
type Flow struct {
	name  string
	tasks []*task
}

// NewFlow returns an empty Flow identified by name (used only in error
// messages).
func NewFlow(name string) *Flow {
	return &Flow{name: name}
}

// AddTask registers a task that runs after every task named in deps has
// run (or been skipped).
func (f *Flow) AddTask(name string, fn func() error, deps ...string) {
	f.tasks = append(f.tasks, &task{name: name, fn: fn, deps: deps})
}

// Run executes every task in dependency order, skipping any named in the
// context's SkipStepsKey value, stopping at the first task error or
// context cancellation.
func (f *Flow) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("pipeline: %s: %w", f.name, err)
	}

	skip := map[string]bool{}
	if v := ctx.Value(SkipStepsKey); v != nil {
		if names, ok := v.([]string); ok {
			for _, n := range names {
				skip[n] = true
			}
		}
	}

	byName := make(map[string]*task, len(f.tasks))
	for _, t := range f.tasks {
		byName[t.name] = t
	}
	done := map[string]bool{}
	visiting := map[string]bool{}

	var run func(t *task) error
	run = func(t *task) error {
		if done[t.name] {
			return nil
		}
		if visiting[t.name] {
			return fmt.Errorf("pipeline: %s: dependency cycle at task %q", f.name, t.name)
		}
		visiting[t.name] = true
		defer delete(visiting, t.name)

		for _, depName := range t.deps {
			dep, ok := byName[depName]
			if !ok {
				return fmt.Errorf("pipeline: %s: task %q depends on unknown task %q", f.name, t.name, depName)
			}
			if err := run(dep); err != nil {
				return err
			}
		}

		if err := ctx.Err(); err != nil {
			return fmt.Errorf("pipeline: %s: %w", f.name, err)
		}

		done[t.name] = true
		if skip[t.name] {
			return nil
		}
		if err := t.fn(); err != nil {
			return fmt.Errorf("pipeline: %s: task %q: %w", f.name, t.name, err)
		}
		return nil
	}

	for _, t := range f.tasks {
		if err := run(t); err != nil {
			return err
		}
	}
	return nil
}

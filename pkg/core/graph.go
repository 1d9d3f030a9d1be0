package core

import (
	"context"
	"errors"
	"fmt"
)

// ErrCycle is returned when boot tasks depend on each other in a loop.
var ErrCycle = errors.New("core: task dependency cycle")

// task is one boot phase. A task runs only after all of its deps finished.
type task struct {
	run  func(ctx context.Context) error
	name string
	deps []string
}

// runGraph executes tasks sequentially in dependency order, keeping
// declaration order among tasks that are ready at the same time. The first
// failing task stops the run.
func runGraph(ctx context.Context, tasks []task) error {
	byName := make(map[string]task, len(tasks))
	for _, t := range tasks {
		if _, dup := byName[t.name]; dup {
			return fmt.Errorf("core: duplicate task %q", t.name)
		}
		byName[t.name] = t
	}
	for _, t := range tasks {
		for _, d := range t.deps {
			if _, ok := byName[d]; !ok {
				return fmt.Errorf("core: task %q depends on unknown task %q", t.name, d)
			}
		}
	}

	done := make(map[string]bool, len(tasks))
	for len(done) < len(tasks) {
		progressed := false
		for _, t := range tasks {
			if done[t.name] || !ready(t, done) {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := t.run(ctx); err != nil {
				return fmt.Errorf("%s: %w", t.name, err)
			}
			done[t.name] = true
			progressed = true
		}
		if !progressed {
			return ErrCycle
		}
	}
	return nil
}

func ready(t task, done map[string]bool) bool {
	for _, d := range t.deps {
		if !done[d] {
			return false
		}
	}
	return true
}

// Package history implements the undo/redo engine: reversible commands,
// command groups, and a manager holding bounded undo and redo stacks.
package history

import (
	"context"
	"errors"
	"fmt"
)

// Command is a reversible edit. UnExecute must restore exactly the state
// Execute started from, and Execute after UnExecute must reproduce the state
// Execute first produced.
type Command interface {
	Name() string
	Execute(ctx context.Context) error
	UnExecute(ctx context.Context) error
}

// ErrNotExecuted is returned when a command whose effect was never applied is
// inserted into the history.
var ErrNotExecuted = errors.New("command not executed")

// executedReporter is implemented by commands that know whether their effect
// is currently applied.
type executedReporter interface {
	Executed() bool
}

func applied(cmd Command) bool {
	r, ok := cmd.(executedReporter)
	return !ok || r.Executed()
}

// Group runs several commands as one undo step.
type Group struct {
	name     string
	commands []Command
}

var _ Command = (*Group)(nil)

// NewGroup builds a group executing commands in order.
func NewGroup(name string, commands ...Command) *Group {
	return &Group{name: name, commands: append([]Command(nil), commands...)}
}

// Name returns the group name.
func (g *Group) Name() string { return g.name }

// Commands returns the member commands in execution order.
func (g *Group) Commands() []Command { return append([]Command(nil), g.commands...) }

// Executed reports whether every member that tracks its state is applied.
func (g *Group) Executed() bool {
	for _, cmd := range g.commands {
		if !applied(cmd) {
			return false
		}
	}
	return true
}

// Execute runs members in order. When a member fails, the members already
// executed are undone in reverse order and the failure is returned.
func (g *Group) Execute(ctx context.Context) error {
	for i, cmd := range g.commands {
		if err := cmd.Execute(ctx); err != nil {
			err = fmt.Errorf("%s: %s: %w", g.name, cmd.Name(), err)
			for j := i - 1; j >= 0; j-- {
				if rbErr := g.commands[j].UnExecute(ctx); rbErr != nil {
					return errors.Join(err, fmt.Errorf("rollback %s: %w", g.commands[j].Name(), rbErr))
				}
			}
			return err
		}
	}
	return nil
}

// UnExecute undoes members in strict reverse order.
func (g *Group) UnExecute(ctx context.Context) error {
	for i := len(g.commands) - 1; i >= 0; i-- {
		if err := g.commands[i].UnExecute(ctx); err != nil {
			return fmt.Errorf("%s: undo %s: %w", g.name, g.commands[i].Name(), err)
		}
	}
	return nil
}

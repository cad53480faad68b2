package history

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// DefaultDepth is the undo and redo stack capacity used when none is given.
const DefaultDepth = 100

// Option configures a Manager.
type Option func(*Manager)

// WithDepth sets the capacity of both stacks.
func WithDepth(depth int) Option {
	return func(m *Manager) { m.depth = depth }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(rec MetricsRecorder) Option {
	return func(m *Manager) {
		if rec != nil {
			m.metrics = rec
		}
	}
}

// WithTracer sets the tracer.
func WithTracer(tracer Tracer) Option {
	return func(m *Manager) {
		if tracer != nil {
			m.tracer = tracer
		}
	}
}

// Manager owns the undo and redo stacks. Every executed command lands on the
// undo stack; undoing moves it to the redo stack and redoing moves it back.
// Executing or inserting a new command discards the redo stack.
type Manager struct {
	mu      sync.Mutex
	depth   int
	undo    *DropoutStack[Command]
	redo    *DropoutStack[Command]
	logger  *slog.Logger
	metrics MetricsRecorder
	tracer  Tracer
}

// NewManager constructs a manager with empty stacks.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		depth:   DefaultDepth,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: noopMetrics{},
		tracer:  noopTracer{},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.undo = NewDropoutStack[Command](m.depth)
	m.redo = NewDropoutStack[Command](m.depth)
	return m
}

// Execute runs cmd and records it for undo. A failed command is not recorded
// and leaves both stacks untouched.
func (m *Manager) Execute(ctx context.Context, cmd Command) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.run(ctx, cmd, PhaseExecute, cmd.Execute); err != nil {
		return err
	}
	m.undo.Push(cmd)
	m.redo.Clear()
	return nil
}

// Insert records a command whose effect is already applied. Commands with an
// Executed method that reports false are rejected with ErrNotExecuted, since
// undoing them could never succeed.
func (m *Manager) Insert(cmd Command) error {
	if !applied(cmd) {
		return fmt.Errorf("insert %s: %w", cmd.Name(), ErrNotExecuted)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undo.Push(cmd)
	m.redo.Clear()
	m.logger.Debug("command inserted", "command", cmd.Name(), "undo_depth", m.undo.Len())
	return nil
}

// Undo reverts the most recent command. It returns a nil command when there
// is nothing to undo. On failure the command stays on the undo stack.
func (m *Manager) Undo(ctx context.Context) (Command, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cmd, ok := m.undo.Pop()
	if !ok {
		return nil, nil
	}
	if err := m.run(ctx, cmd, PhaseUndo, cmd.UnExecute); err != nil {
		m.undo.Push(cmd)
		return cmd, err
	}
	m.redo.Push(cmd)
	return cmd, nil
}

// Redo re-applies the most recently undone command. It returns a nil command
// when there is nothing to redo. On failure the command stays on the redo
// stack.
func (m *Manager) Redo(ctx context.Context) (Command, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cmd, ok := m.redo.Pop()
	if !ok {
		return nil, nil
	}
	if err := m.run(ctx, cmd, PhaseRedo, cmd.Execute); err != nil {
		m.redo.Push(cmd)
		return cmd, err
	}
	m.undo.Push(cmd)
	return cmd, nil
}

// Clear empties both stacks.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undo.Clear()
	m.redo.Clear()
}

// CanUndo reports whether Undo has a command to revert.
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.undo.Len() > 0
}

// CanRedo reports whether Redo has a command to re-apply.
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.redo.Len() > 0
}

// UndoDepth returns the number of undoable commands.
func (m *Manager) UndoDepth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.undo.Len()
}

// RedoDepth returns the number of redoable commands.
func (m *Manager) RedoDepth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.redo.Len()
}

func (m *Manager) run(ctx context.Context, cmd Command, phase string, fn func(context.Context) error) error {
	name := cmd.Name()
	ctx, span := m.tracer.Start(ctx, name+"."+phase)
	started := time.Now()
	err := fn(ctx)
	m.metrics.Observe(ctx, name, phase, err == nil, time.Since(started))
	span.End(err)
	if err != nil {
		m.logger.Warn("command failed", "command", name, "op", phase, "err", err)
		return err
	}
	m.logger.Debug("command applied", "command", name, "op", phase, "undo_depth", m.undo.Len(), "redo_depth", m.redo.Len())
	return nil
}

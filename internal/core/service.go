package core

import (
	"bytes"
	"context"
	"dnacore/internal/archive"
	"dnacore/internal/document"
	"dnacore/internal/history"
	"dnacore/internal/interchange"
	"dnacore/pkg/domain"
	"fmt"
	"io"
	"log/slog"
	"strconv"
)

// Visualizer is notified after every committed execute, undo or redo with
// the changes involved. A nil change list asks for a full refresh.
type Visualizer interface {
	Refresh(ctx context.Context, changes []domain.Change)
}

type noopVisualizer struct{}

func (noopVisualizer) Refresh(context.Context, []domain.Change) {}

// Option configures a Service.
type Option func(*serviceConfig)

type serviceConfig struct {
	logger     *slog.Logger
	metrics    history.MetricsRecorder
	tracer     history.Tracer
	visualizer Visualizer
	depth      int
}

// WithLogger sets the structured logger shared with the command history.
func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) { c.logger = logger }
}

// WithMetrics sets the command metrics recorder.
func WithMetrics(rec history.MetricsRecorder) Option {
	return func(c *serviceConfig) { c.metrics = rec }
}

// WithTracer sets the command tracer.
func WithTracer(tracer history.Tracer) Option {
	return func(c *serviceConfig) { c.tracer = tracer }
}

// WithVisualizer registers the collaborator refreshed after each command.
func WithVisualizer(v Visualizer) Option {
	return func(c *serviceConfig) {
		if v != nil {
			c.visualizer = v
		}
	}
}

// WithUndoDepth bounds the undo and redo stacks.
func WithUndoDepth(depth int) Option {
	return func(c *serviceConfig) { c.depth = depth }
}

// Service is the editing facade: every mutation runs as a command through
// the history so it can be undone.
type Service struct {
	store      domain.PersistentStore
	history    *history.Manager
	logger     *slog.Logger
	visualizer Visualizer
}

// NewService constructs a service over store.
func NewService(store domain.PersistentStore, opts ...Option) *Service {
	cfg := serviceConfig{
		logger:     slog.New(slog.DiscardHandler),
		visualizer: noopVisualizer{},
		depth:      history.DefaultDepth,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		store: store,
		history: history.NewManager(
			history.WithDepth(cfg.depth),
			history.WithLogger(cfg.logger),
			history.WithMetrics(cfg.metrics),
			history.WithTracer(cfg.tracer),
		),
		logger:     cfg.logger,
		visualizer: cfg.visualizer,
	}
}

// NewInMemoryService creates a service over an in-memory store. A nil engine
// gets the default invariant rules.
func NewInMemoryService(engine *domain.RulesEngine, opts ...Option) *Service {
	if engine == nil {
		engine = NewDefaultRulesEngine()
	}
	return NewService(document.NewStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() domain.PersistentStore { return s.store }

// History returns the command history.
func (s *Service) History() *history.Manager { return s.history }

// Execute runs cmd through the history and refreshes the visualizer.
func (s *Service) Execute(ctx context.Context, cmd history.Command) error {
	if err := s.history.Execute(ctx, cmd); err != nil {
		return err
	}
	s.visualizer.Refresh(ctx, CommandChanges(cmd))
	return nil
}

func run[T any](ctx context.Context, s *Service, cmd *TxCommand[T]) (T, domain.Result, error) {
	if err := s.Execute(ctx, cmd); err != nil {
		var zero T
		return zero, domain.Result{}, err
	}
	res := cmd.Result()
	for _, w := range res.Warnings() {
		s.logger.Warn("rule warning", "command", cmd.Name(), "rule", w.Rule, "msg", w.Message)
	}
	return cmd.Value(), res, nil
}

// CreateGrid adds an empty grid.
func (s *Service) CreateGrid(ctx context.Context, plane domain.Plane, origin domain.Vec3, typ domain.GridType) (domain.Grid, domain.Result, error) {
	return run(ctx, s, NewCreateGridCommand(s.store, plane, origin, typ))
}

// DeleteGrid removes an empty grid.
func (s *Service) DeleteGrid(ctx context.Context, id domain.GridID) (domain.Result, error) {
	_, res, err := run(ctx, s, NewDeleteGridCommand(s.store, id))
	return res, err
}

// AddHelix anchors a helix at a grid cell.
func (s *Service) AddHelix(ctx context.Context, grid domain.GridID, point domain.GridPoint, length int) (domain.Helix, domain.Result, error) {
	return run(ctx, s, NewAddHelixCommand(s.store, grid, point, length))
}

// ExtendHelix grows a helix to length.
func (s *Service) ExtendHelix(ctx context.Context, id domain.HelixID, length int) (domain.Helix, domain.Result, error) {
	return run(ctx, s, NewExtendHelixCommand(s.store, id, length))
}

// DeleteHelix removes a helix that no strand uses.
func (s *Service) DeleteHelix(ctx context.Context, id domain.HelixID) (domain.Result, error) {
	_, res, err := run(ctx, s, NewDeleteHelixCommand(s.store, id))
	return res, err
}

// MoveHelix re-anchors a helix at another cell of its grid.
func (s *Service) MoveHelix(ctx context.Context, id domain.HelixID, target domain.GridPoint) (domain.Helix, domain.Result, error) {
	return run(ctx, s, NewMoveHelixCommand(s.store, id, target))
}

// GetHelixSub returns refs for bases start..end inclusive on dir.
func (s *Service) GetHelixSub(ctx context.Context, id domain.HelixID, start, end int, dir domain.Direction) ([]domain.NucleotideRef, error) {
	var refs []domain.NucleotideRef
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		h, ok := view.FindHelix(id)
		if !ok {
			return domain.ErrNotFound{Entity: domain.EntityHelix, ID: int(id)}
		}
		var err error
		refs, err = h.Sub(start, end, dir)
		return err
	})
	return refs, err
}

// CreateStrand builds a strand over refs.
func (s *Service) CreateStrand(ctx context.Context, refs []domain.NucleotideRef, sequence, color string) (domain.Strand, domain.Result, error) {
	return run(ctx, s, NewCreateStrandCommand(s.store, refs, sequence, color))
}

// DeleteStrand removes a strand and clears its letters.
func (s *Service) DeleteStrand(ctx context.Context, id domain.StrandID) (domain.Result, error) {
	_, res, err := run(ctx, s, NewDeleteStrandCommand(s.store, id))
	return res, err
}

// RemoveStrand takes a strand out of the design, keeping letters on its bases.
func (s *Service) RemoveStrand(ctx context.Context, id domain.StrandID) (domain.Strand, domain.Result, error) {
	return run(ctx, s, NewRemoveStrandCommand(s.store, id))
}

// MoveStrand slides a crossover-free strand so its head lands on target.
func (s *Service) MoveStrand(ctx context.Context, id domain.StrandID, target domain.NucleotideRef) (domain.Strand, domain.Result, error) {
	return run(ctx, s, NewMoveStrandCommand(s.store, id, target))
}

// PasteStrands copies strands so that anchor lands on target. The copies
// form one undo step.
func (s *Service) PasteStrands(ctx context.Context, ids []domain.StrandID, anchor, target domain.NucleotideRef) ([]domain.Strand, domain.Result, error) {
	group, err := NewPasteCommand(ctx, s.store, ids, anchor, target)
	if err != nil {
		return nil, domain.Result{}, err
	}
	if err := s.Execute(ctx, group); err != nil {
		return nil, domain.Result{}, err
	}
	var res domain.Result
	out := make([]domain.Strand, 0, len(ids))
	for _, sub := range group.Commands() {
		cmd := sub.(*TxCommand[domain.Strand])
		out = append(out, cmd.Value())
		res.Merge(cmd.Result())
	}
	return out, res, nil
}

// CreateCrossover joins the tail of prev to the head of next.
func (s *Service) CreateCrossover(ctx context.Context, prev, next domain.StrandID) (domain.Strand, domain.Result, error) {
	return run(ctx, s, NewCreateCrossoverCommand(s.store, prev, next))
}

// SplitCrossover cuts a strand at its index-th crossover.
func (s *Service) SplitCrossover(ctx context.Context, id domain.StrandID, index int) (domain.Strand, domain.Strand, domain.Result, error) {
	split, res, err := run(ctx, s, NewSplitCrossoverCommand(s.store, id, index))
	return split.Head, split.Tail, res, err
}

// Undo reverts the latest command. It returns nil when there is nothing to
// undo.
func (s *Service) Undo(ctx context.Context) (history.Command, error) {
	cmd, err := s.history.Undo(ctx)
	if err != nil || cmd == nil {
		return cmd, err
	}
	s.visualizer.Refresh(ctx, CommandChanges(cmd))
	return cmd, nil
}

// Redo re-applies the latest undone command. It returns nil when there is
// nothing to redo.
func (s *Service) Redo(ctx context.Context) (history.Command, error) {
	cmd, err := s.history.Redo(ctx)
	if err != nil || cmd == nil {
		return cmd, err
	}
	s.visualizer.Refresh(ctx, CommandChanges(cmd))
	return cmd, nil
}

// InsertCommand records a command whose effect is already applied. A
// TxCommand that never ran is rejected with history.ErrNotExecuted.
func (s *Service) InsertCommand(cmd history.Command) error { return s.history.Insert(cmd) }

// ClearHistory empties the undo and redo stacks.
func (s *Service) ClearHistory() { s.history.Clear() }

// CanUndo reports whether Undo has work.
func (s *Service) CanUndo() bool { return s.history.CanUndo() }

// CanRedo reports whether Redo has work.
func (s *Service) CanRedo() bool { return s.history.CanRedo() }

// Counters returns the next identifiers of each arena.
func (s *Service) Counters() domain.Counters { return s.store.Counters() }

// Snapshot returns a deep copy of the design.
func (s *Service) Snapshot() domain.Snapshot { return s.store.ExportState() }

// ExportDesign writes the design in interchange format.
func (s *Service) ExportDesign(w io.Writer) error {
	return interchange.Encode(w, s.store.ExportState())
}

// ImportDesign replaces the design with one read from r and clears history.
func (s *Service) ImportDesign(ctx context.Context, r io.Reader) error {
	snap, err := interchange.Decode(r)
	if err != nil {
		return err
	}
	if err := s.store.Restore(ctx, snap); err != nil {
		return fmt.Errorf("import design: %w", err)
	}
	s.history.Clear()
	s.logger.Info("design imported", "grids", len(snap.Grids), "helices", len(snap.Helices), "strands", len(snap.Strands))
	s.visualizer.Refresh(ctx, nil)
	return nil
}

// SaveDesign exports the design into store under key.
func (s *Service) SaveDesign(ctx context.Context, store archive.Store, key string) (archive.Info, error) {
	snap := s.store.ExportState()
	var buf bytes.Buffer
	if err := interchange.Encode(&buf, snap); err != nil {
		return archive.Info{}, err
	}
	info, err := store.Put(ctx, key, &buf, archive.PutOptions{
		ContentType: archive.ContentType,
		Metadata: map[string]string{
			"grids":   strconv.Itoa(len(snap.Grids)),
			"helices": strconv.Itoa(len(snap.Helices)),
			"strands": strconv.Itoa(len(snap.Strands)),
		},
	})
	if err != nil {
		return archive.Info{}, fmt.Errorf("save design %s: %w", key, err)
	}
	s.logger.Info("design saved", "key", key, "driver", string(store.Driver()), "bytes", info.Size)
	return info, nil
}

// LoadDesign imports the design stored under key.
func (s *Service) LoadDesign(ctx context.Context, store archive.Store, key string) error {
	_, rc, err := store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("load design %s: %w", key, err)
	}
	defer func() { _ = rc.Close() }()
	return s.ImportDesign(ctx, rc)
}

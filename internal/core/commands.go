package core

import (
	"context"
	"dnacore/internal/history"
	"dnacore/pkg/domain"
	"fmt"
)

// Command names reported to history, metrics and logs.
const (
	CommandCreateGrid      = "create-grid"
	CommandDeleteGrid      = "delete-grid"
	CommandAddHelix        = "add-helix"
	CommandExtendHelix     = "extend-helix"
	CommandDeleteHelix     = "delete-helix"
	CommandMoveHelix       = "move-helix"
	CommandCreateStrand    = "create-strand"
	CommandDeleteStrand    = "delete-strand"
	CommandRemoveStrand    = "remove-strand"
	CommandMoveStrand      = "move-strand"
	CommandCopyStrand      = "copy-strand"
	CommandPaste           = "paste"
	CommandCreateCrossover = "create-crossover"
	CommandSplitCrossover  = "split-crossover"
)

// TxCommand runs one store transaction on its first Execute and records the
// committed changes. Later executions replay those changes and UnExecute
// reverts them, so the transaction body runs exactly once.
type TxCommand[T any] struct {
	name     string
	store    domain.PersistentStore
	apply    func(domain.Transaction) (T, error)
	executed bool
	applied  bool
	value    T
	result   domain.Result
}

var _ history.Command = (*TxCommand[domain.Grid])(nil)

func newTxCommand[T any](name string, store domain.PersistentStore, apply func(domain.Transaction) (T, error)) *TxCommand[T] {
	return &TxCommand[T]{name: name, store: store, apply: apply}
}

// Name returns the command name.
func (c *TxCommand[T]) Name() string { return c.name }

// Execute applies the command.
func (c *TxCommand[T]) Execute(ctx context.Context) error {
	if c.executed {
		if err := c.store.Replay(ctx, c.result.Changes); err != nil {
			return err
		}
		c.applied = true
		return nil
	}
	var value T
	res, err := c.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		value, err = c.apply(tx)
		return err
	})
	if err != nil {
		return err
	}
	c.value, c.result, c.executed, c.applied = value, res, true, true
	return nil
}

// UnExecute reverts the recorded changes.
func (c *TxCommand[T]) UnExecute(ctx context.Context) error {
	if !c.executed {
		return fmt.Errorf("%s: undo before execute", c.name)
	}
	if err := c.store.Revert(ctx, c.result.Changes); err != nil {
		return err
	}
	c.applied = false
	return nil
}

// Executed reports whether the recorded changes are currently applied.
func (c *TxCommand[T]) Executed() bool { return c.applied }

// Value returns what the transaction produced on first execution.
func (c *TxCommand[T]) Value() T { return c.value }

// Result returns the committed result, including rule warnings.
func (c *TxCommand[T]) Result() domain.Result { return c.result }

// Changes returns the committed change list.
func (c *TxCommand[T]) Changes() []domain.Change { return c.result.Changes }

// none is the value of commands that produce nothing.
type none struct{}

// NewCreateGridCommand creates an empty grid.
func NewCreateGridCommand(store domain.PersistentStore, plane domain.Plane, origin domain.Vec3, typ domain.GridType) *TxCommand[domain.Grid] {
	return newTxCommand(CommandCreateGrid, store, func(tx domain.Transaction) (domain.Grid, error) {
		return tx.CreateGrid(plane, origin, typ)
	})
}

// NewDeleteGridCommand deletes an empty grid.
func NewDeleteGridCommand(store domain.PersistentStore, id domain.GridID) *TxCommand[none] {
	return newTxCommand(CommandDeleteGrid, store, func(tx domain.Transaction) (none, error) {
		return none{}, tx.DeleteGrid(id)
	})
}

// NewAddHelixCommand anchors a helix at a grid cell.
func NewAddHelixCommand(store domain.PersistentStore, grid domain.GridID, point domain.GridPoint, length int) *TxCommand[domain.Helix] {
	return newTxCommand(CommandAddHelix, store, func(tx domain.Transaction) (domain.Helix, error) {
		return tx.AddHelix(grid, point, length)
	})
}

// NewExtendHelixCommand grows a helix.
func NewExtendHelixCommand(store domain.PersistentStore, id domain.HelixID, length int) *TxCommand[domain.Helix] {
	return newTxCommand(CommandExtendHelix, store, func(tx domain.Transaction) (domain.Helix, error) {
		return tx.ExtendHelix(id, length)
	})
}

// NewDeleteHelixCommand deletes a helix no strand uses.
func NewDeleteHelixCommand(store domain.PersistentStore, id domain.HelixID) *TxCommand[none] {
	return newTxCommand(CommandDeleteHelix, store, func(tx domain.Transaction) (none, error) {
		return none{}, tx.DeleteHelix(id)
	})
}

// NewMoveHelixCommand re-anchors a helix.
func NewMoveHelixCommand(store domain.PersistentStore, id domain.HelixID, target domain.GridPoint) *TxCommand[domain.Helix] {
	return newTxCommand(CommandMoveHelix, store, func(tx domain.Transaction) (domain.Helix, error) {
		return tx.MoveHelix(id, target)
	})
}

// NewCreateStrandCommand builds a strand over refs.
func NewCreateStrandCommand(store domain.PersistentStore, refs []domain.NucleotideRef, sequence, color string) *TxCommand[domain.Strand] {
	refs = append([]domain.NucleotideRef(nil), refs...)
	return newTxCommand(CommandCreateStrand, store, func(tx domain.Transaction) (domain.Strand, error) {
		return tx.CreateStrand(refs, sequence, color)
	})
}

// NewDeleteStrandCommand deletes a strand and clears its letters.
func NewDeleteStrandCommand(store domain.PersistentStore, id domain.StrandID) *TxCommand[none] {
	return newTxCommand(CommandDeleteStrand, store, func(tx domain.Transaction) (none, error) {
		return none{}, tx.DeleteStrand(id)
	})
}

// NewRemoveStrandCommand takes a strand out of the design keeping letters.
func NewRemoveStrandCommand(store domain.PersistentStore, id domain.StrandID) *TxCommand[domain.Strand] {
	return newTxCommand(CommandRemoveStrand, store, func(tx domain.Transaction) (domain.Strand, error) {
		return tx.RemoveStrand(id)
	})
}

// NewMoveStrandCommand slides a strand so its head lands on target.
func NewMoveStrandCommand(store domain.PersistentStore, id domain.StrandID, target domain.NucleotideRef) *TxCommand[domain.Strand] {
	return newTxCommand(CommandMoveStrand, store, func(tx domain.Transaction) (domain.Strand, error) {
		return tx.MoveStrand(id, target)
	})
}

// NewCopyStrandCommand pastes one strand translated from anchor to target.
func NewCopyStrandCommand(store domain.PersistentStore, id domain.StrandID, anchor, target domain.NucleotideRef) *TxCommand[domain.Strand] {
	return newTxCommand(CommandCopyStrand, store, func(tx domain.Transaction) (domain.Strand, error) {
		copies, err := tx.CopyStrands([]domain.StrandID{id}, anchor, target)
		if err != nil {
			return domain.Strand{}, err
		}
		return copies[0], nil
	})
}

// NewPasteCommand validates the whole selection against the current design
// and returns a group holding one copy command per strand, so the paste
// undoes as a unit.
func NewPasteCommand(ctx context.Context, store domain.PersistentStore, ids []domain.StrandID, anchor, target domain.NucleotideRef) (*history.Group, error) {
	if len(ids) == 0 {
		return nil, domain.Invalid("paste", "nothing selected")
	}
	err := store.View(ctx, func(view domain.TransactionView) error {
		strands := make([]domain.Strand, 0, len(ids))
		seen := make(map[domain.StrandID]struct{}, len(ids))
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				return domain.Invalid("paste", "strand %d listed twice", id)
			}
			seen[id] = struct{}{}
			st, ok := view.FindStrand(id)
			if !ok {
				return domain.ErrNotFound{Entity: domain.EntityStrand, ID: int(id)}
			}
			strands = append(strands, st)
		}
		_, err := domain.PlanRelocation(view, strands, anchor, target, domain.NoStrand)
		return err
	})
	if err != nil {
		return nil, err
	}
	cmds := make([]history.Command, 0, len(ids))
	for _, id := range ids {
		cmds = append(cmds, NewCopyStrandCommand(store, id, anchor, target))
	}
	return history.NewGroup(CommandPaste, cmds...), nil
}

// NewCreateCrossoverCommand joins two strands.
func NewCreateCrossoverCommand(store domain.PersistentStore, prev, next domain.StrandID) *TxCommand[domain.Strand] {
	return newTxCommand(CommandCreateCrossover, store, func(tx domain.Transaction) (domain.Strand, error) {
		return tx.CreateCrossover(prev, next)
	})
}

// SplitResult holds both halves of a split strand.
type SplitResult struct {
	Head domain.Strand
	Tail domain.Strand
}

// NewSplitCrossoverCommand cuts a strand at one of its crossovers.
func NewSplitCrossoverCommand(store domain.PersistentStore, id domain.StrandID, index int) *TxCommand[SplitResult] {
	return newTxCommand(CommandSplitCrossover, store, func(tx domain.Transaction) (SplitResult, error) {
		head, tail, err := tx.SplitCrossover(id, index)
		return SplitResult{Head: head, Tail: tail}, err
	})
}

type changeSource interface {
	Changes() []domain.Change
}

// CommandChanges collects the committed changes of cmd, descending into
// groups in execution order.
func CommandChanges(cmd history.Command) []domain.Change {
	switch c := cmd.(type) {
	case changeSource:
		return c.Changes()
	case *history.Group:
		var out []domain.Change
		for _, sub := range c.Commands() {
			out = append(out, CommandChanges(sub)...)
		}
		return out
	default:
		return nil
	}
}

package domain

import "context"

// Transaction exposes the document operations a store must support within an
// atomic scope. Every operation validates before mutating; a rejected
// operation leaves the transaction state untouched.
type Transaction interface {
	Snapshot() TransactionView

	CreateGrid(plane Plane, origin Vec3, typ GridType) (Grid, error)
	DeleteGrid(id GridID) error

	AddHelix(grid GridID, point GridPoint, length int) (Helix, error)
	ExtendHelix(id HelixID, length int) (Helix, error)
	DeleteHelix(id HelixID) error
	MoveHelix(id HelixID, target GridPoint) (Helix, error)
	GetHelixSub(id HelixID, start, end int, dir Direction) ([]NucleotideRef, error)

	CreateStrand(refs []NucleotideRef, sequence, color string) (Strand, error)
	DeleteStrand(id StrandID) error
	RemoveStrand(id StrandID) (Strand, error)
	ResetComponents(id StrandID) error
	SetComponents(id StrandID, refs []NucleotideRef) (Strand, error)
	MoveStrand(id StrandID, target NucleotideRef) (Strand, error)
	CopyStrands(ids []StrandID, anchor, target NucleotideRef) ([]Strand, error)
	CreateCrossover(prev, next StrandID) (Strand, error)
	SplitCrossover(id StrandID, index int) (Strand, Strand, error)

	FindGrid(id GridID) (Grid, bool)
	FindHelix(id HelixID) (Helix, bool)
	FindStrand(id StrandID) (Strand, bool)
}

// TransactionView provides read-only access to a consistent document state.
type TransactionView interface {
	RuleView
	Counters() Counters
}

// PersistentStore is the document store abstraction used by higher layers.
// Revert and Replay apply a committed change list backwards or forwards and
// are what undo and redo are built on.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	Revert(ctx context.Context, changes []Change) error
	Replay(ctx context.Context, changes []Change) error
	Restore(ctx context.Context, snapshot Snapshot) error
	ExportState() Snapshot
	Counters() Counters
	GetGrid(id GridID) (Grid, bool)
	GetHelix(id HelixID) (Helix, bool)
	GetStrand(id StrandID) (Strand, bool)
	ListGrids() []Grid
	ListHelices() []Helix
	ListStrands() []Strand
}

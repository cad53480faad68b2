package domain

import "context"

// RuleView provides read-only access to document entities for rule
// evaluation and relocation planning. Returned values share storage with the
// view and must not be mutated.
type RuleView interface {
	ListGrids() []Grid
	ListHelices() []Helix
	ListStrands() []Strand
	FindGrid(id GridID) (Grid, bool)
	FindHelix(id HelixID) (Helix, bool)
	FindStrand(id StrandID) (Strand, bool)
}

// Rule defines an evaluation executed at a transaction boundary.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error)
}

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn is reported but allows commit.
	SeverityWarn Severity = "warn"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID int
}

// Result aggregates violations and the committed change list of a transaction.
type Result struct {
	Violations []Violation
	Changes    []Change
}

// Merge appends violations and changes from another result.
func (r *Result) Merge(other Result) {
	r.Violations = append(r.Violations, other.Violations...)
	r.Changes = append(r.Changes, other.Changes...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// Warnings returns the non-blocking violations.
func (r Result) Warnings() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == SeverityWarn {
			out = append(out, v)
		}
	}
	return out
}

// RulesEngine orchestrates rule evaluation.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine constructs an engine instance.
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// Register appends a rule to the engine.
func (e *RulesEngine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Rules returns the registered rules in evaluation order.
func (e *RulesEngine) Rules() []Rule {
	return append([]Rule(nil), e.rules...)
}

// Evaluate executes all registered rules and aggregates their violations.
func (e *RulesEngine) Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error) {
	var combined Result
	for _, rule := range e.rules {
		res, err := rule.Evaluate(ctx, view, changes)
		if err != nil {
			return Result{}, err
		}
		combined.Violations = append(combined.Violations, res.Violations...)
	}
	return combined, nil
}

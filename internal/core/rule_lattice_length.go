package core

import (
	"context"
	"dnacore/pkg/domain"
	"fmt"
)

// Base-pair periods at which a helix returns to the same rotation on each
// lattice.
const (
	SquarePeriod    = 32
	HoneycombPeriod = 21
)

// NewLatticeLengthRule returns a warning rule flagging helices whose length
// is not a whole number of lattice periods.
func NewLatticeLengthRule() domain.Rule {
	return latticeLengthRule{}
}

type latticeLengthRule struct{}

func (latticeLengthRule) Name() string { return "lattice_length" }

func (latticeLengthRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityHelix || change.After == nil {
			continue
		}
		if before, ok := change.Before.(domain.Helix); ok {
			if after, ok := change.After.(domain.Helix); ok && before.Length == after.Length {
				continue
			}
		}
		h, ok := view.FindHelix(domain.HelixID(change.ID))
		if !ok {
			continue
		}
		g, ok := view.FindGrid(h.GridID)
		if !ok {
			continue
		}
		period := SquarePeriod
		if g.Type == domain.GridHoneycomb {
			period = HoneycombPeriod
		}
		if h.Length%period != 0 {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "lattice_length",
				Severity: domain.SeverityWarn,
				Message:  fmt.Sprintf("helix %d length %d is not a multiple of the %s period %d", h.ID, h.Length, g.Type, period),
				Entity:   domain.EntityHelix,
				EntityID: int(h.ID),
			})
		}
	}
	return res, nil
}

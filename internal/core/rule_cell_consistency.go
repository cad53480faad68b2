package core

import (
	"context"
	"dnacore/pkg/domain"
	"fmt"
)

// NewCellConsistencyRule returns the rule keeping grid cells and helix
// anchors in agreement.
func NewCellConsistencyRule() domain.Rule {
	return cellConsistencyRule{}
}

type cellConsistencyRule struct{}

func (cellConsistencyRule) Name() string { return "cell_consistency" }

func (cellConsistencyRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		switch change.Entity {
		case domain.EntityGrid:
			id := domain.GridID(change.ID)
			g, ok := view.FindGrid(id)
			if !ok {
				for _, h := range view.ListHelices() {
					if h.GridID == id {
						res.Violations = append(res.Violations, cellViolation(domain.EntityGrid, change.ID, fmt.Sprintf("deleted grid %d still anchors helix %d", id, h.ID)))
					}
				}
				continue
			}
			checkGridCells(&res, view, g)
		case domain.EntityHelix:
			h, ok := view.FindHelix(domain.HelixID(change.ID))
			if !ok {
				continue
			}
			checkHelixAnchor(&res, view, h)
		}
	}
	return res, nil
}

func checkGridCells(res *domain.Result, view domain.RuleView, g domain.Grid) {
	if len(g.Cells) != g.Width() {
		res.Violations = append(res.Violations, cellViolation(domain.EntityGrid, int(g.ID), fmt.Sprintf("grid %d has %d columns for width %d", g.ID, len(g.Cells), g.Width())))
		return
	}
	for i, col := range g.Cells {
		if len(col) != g.Height() {
			res.Violations = append(res.Violations, cellViolation(domain.EntityGrid, int(g.ID), fmt.Sprintf("grid %d column %d has %d rows for height %d", g.ID, i, len(col), g.Height())))
			return
		}
		for j, cell := range col {
			if cell.Point != g.IndexToPoint(i, j) {
				res.Violations = append(res.Violations, cellViolation(domain.EntityGrid, int(g.ID), fmt.Sprintf("grid %d cell [%d][%d] records point %s", g.ID, i, j, cell.Point)))
				continue
			}
			if !cell.Occupied() {
				continue
			}
			h, ok := view.FindHelix(cell.Helix)
			switch {
			case !ok:
				res.Violations = append(res.Violations, cellViolation(domain.EntityGrid, int(g.ID), fmt.Sprintf("grid %d cell %s references missing helix %d", g.ID, cell.Point, cell.Helix)))
			case h.GridID != g.ID || h.Point != cell.Point:
				res.Violations = append(res.Violations, cellViolation(domain.EntityGrid, int(g.ID), fmt.Sprintf("grid %d cell %s holds helix %d anchored at grid %d %s", g.ID, cell.Point, h.ID, h.GridID, h.Point)))
			}
		}
	}
}

func checkHelixAnchor(res *domain.Result, view domain.RuleView, h domain.Helix) {
	if len(h.Forward) != h.Length || len(h.Reverse) != h.Length {
		res.Violations = append(res.Violations, cellViolation(domain.EntityHelix, int(h.ID), fmt.Sprintf("helix %d has %d/%d bases for length %d", h.ID, len(h.Forward), len(h.Reverse), h.Length)))
	}
	g, ok := view.FindGrid(h.GridID)
	if !ok {
		res.Violations = append(res.Violations, cellViolation(domain.EntityHelix, int(h.ID), fmt.Sprintf("helix %d references missing grid %d", h.ID, h.GridID)))
		return
	}
	cell, ok := g.Cell(h.Point)
	if !ok || cell.Helix != h.ID {
		res.Violations = append(res.Violations, cellViolation(domain.EntityHelix, int(h.ID), fmt.Sprintf("helix %d is not held by cell %s of grid %d", h.ID, h.Point, g.ID)))
	}
}

func cellViolation(entity domain.EntityType, id int, message string) domain.Violation {
	return domain.Violation{
		Rule:     "cell_consistency",
		Severity: domain.SeverityBlock,
		Message:  message,
		Entity:   entity,
		EntityID: id,
	}
}

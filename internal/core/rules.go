package core

import "dnacore/pkg/domain"

// NewDefaultRulesEngine builds a rules engine with the built-in invariant set.
func NewDefaultRulesEngine() *domain.RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(NewCellConsistencyRule())
	engine.Register(NewStrandTopologyRule())
	engine.Register(NewLatticeLengthRule())
	return engine
}

package core

import "ruralstock/pkg/domain"

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(NewProcedureArithmeticRule())
	engine.Register(NewTreatedCountRule())
	return engine
}

package domain

import "context"

// Rule inspects the post-transaction state and the list of changes that
// produced it. Violations of blocking severity abort the transaction.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, view TransactionView, changes []Change) (Result, error)
}

// RulesEngine runs every registered rule against a candidate commit.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine returns an engine with no rules registered.
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// Register adds a rule. Rules run in registration order.
func (e *RulesEngine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Evaluate runs all rules and merges their violations. A rule returning an
// error stops evaluation and fails the transaction outright.
func (e *RulesEngine) Evaluate(ctx context.Context, view TransactionView, changes []Change) (Result, error) {
	var combined Result
	for _, rule := range e.rules {
		res, err := rule.Evaluate(ctx, view, changes)
		if err != nil {
			return Result{}, err
		}
		combined.Merge(res)
	}
	return combined, nil
}

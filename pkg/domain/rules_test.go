package domain

import (
	"context"
	"errors"
	"testing"
)

type stubRule struct {
	name   string
	result Result
	err    error
}

func (r stubRule) Name() string { return r.name }

func (r stubRule) Evaluate(context.Context, TransactionView, []Change) (Result, error) {
	return r.result, r.err
}

func TestRulesEngineMergesResults(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(stubRule{name: "warns", result: Result{Violations: []Violation{{Rule: "warns", Severity: SeverityWarn}}}})
	engine.Register(stubRule{name: "blocks", result: Result{Violations: []Violation{{Rule: "blocks", Severity: SeverityBlock}}}})

	res, err := engine.Evaluate(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 2 {
		t.Fatalf("expected 2 violations, got %d", len(res.Violations))
	}
	if !res.HasBlocking() {
		t.Fatalf("expected blocking result")
	}
}

func TestRulesEnginePropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	engine := NewRulesEngine()
	engine.Register(stubRule{name: "broken", err: boom})
	if _, err := engine.Evaluate(context.Background(), nil, nil); !errors.Is(err, boom) {
		t.Fatalf("expected rule error, got %v", err)
	}
}

func TestResultHasBlocking(t *testing.T) {
	var res Result
	if res.HasBlocking() {
		t.Fatalf("empty result should not block")
	}
	res.Merge(Result{Violations: []Violation{{Severity: SeverityWarn}}})
	if res.HasBlocking() {
		t.Fatalf("warn-only result should not block")
	}
	res.Merge(Result{Violations: []Violation{{Severity: SeverityBlock}}})
	if !res.HasBlocking() {
		t.Fatalf("block severity should block")
	}
}

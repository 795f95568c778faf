// Package rules provides the CEL-Go based custom flag rule engine.
// Operators extend the built-in underwriting flags with boolean CEL
// expressions over the scored parameter set.
package rules

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/opencredit-finance/kestrel/internal/domain"
)

// Engine compiles and evaluates custom flag rules.
type Engine struct {
	mu            sync.RWMutex
	env           *cel.Env
	compiledRules map[string]*CompiledRule
}

// CompiledRule holds a pre-compiled CEL program.
type CompiledRule struct {
	Config  *domain.FlagRule
	Program cel.Program
}

// NewEngine creates a flag rule engine with the scoring variables
// bound into the CEL environment.
func NewEngine() (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("monthly_income", cel.DoubleType),
		cel.Variable("income_volatility", cel.DoubleType),
		cel.Variable("utilization", cel.DoubleType),
		cel.Variable("missed_payments", cel.IntType),
		cel.Variable("months_history", cel.IntType),
		cel.Variable("accounts_linked", cel.IntType),
		cel.Variable("countries_seen", cel.IntType),
		cel.Variable("country_risk", cel.StringType),
		cel.Variable("kyc_status", cel.StringType),
		cel.Variable("kyc_verified", cel.BoolType),
		cel.Variable("score", cel.IntType),
		cel.Variable("risk_level", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Engine{
		env:           env,
		compiledRules: make(map[string]*CompiledRule),
	}, nil
}

// ValidateRule compiles a rule without loading it.
func (e *Engine) ValidateRule(cfg *domain.FlagRule) error {
	if cfg == nil {
		return fmt.Errorf("flag rule config is required")
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	_, err := e.compileRule(cfg)
	return err
}

// LoadRule compiles and loads a rule into the engine.
func (e *Engine) LoadRule(cfg *domain.FlagRule) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	compiled, err := e.compileRule(cfg)
	if err != nil {
		return err
	}

	e.compiledRules[cfg.ID] = compiled
	return nil
}

// LoadRules compiles and loads all enabled rules.
func (e *Engine) LoadRules(configs []*domain.FlagRule) error {
	for _, cfg := range configs {
		if cfg.Enabled {
			if err := e.LoadRule(cfg); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReloadRules clears all existing rules and loads new ones. This
// enables hot-reloading from the repository without a restart.
func (e *Engine) ReloadRules(configs []*domain.FlagRule) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	newRules := make(map[string]*CompiledRule)
	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}
		compiled, err := e.compileRule(cfg)
		if err != nil {
			return err
		}
		newRules[cfg.ID] = compiled
	}

	e.compiledRules = newRules
	return nil
}

// Evaluate runs every loaded rule against a scored parameter set and
// returns the labels of the rules that fired. Evaluation errors skip
// the rule rather than failing the scoring request.
func (e *Engine) Evaluate(p domain.RiskParameters, result *domain.ScoreResult) []string {
	e.mu.RLock()
	rules := make([]*CompiledRule, 0, len(e.compiledRules))
	for _, rule := range e.compiledRules {
		rules = append(rules, rule)
	}
	e.mu.RUnlock()

	if len(rules) == 0 {
		return nil
	}

	activation := map[string]any{
		"monthly_income":    p.MonthlyIncome,
		"income_volatility": p.IncomeVolatility,
		"utilization":       p.Utilization,
		"missed_payments":   int64(p.MissedPayments),
		"months_history":    int64(p.MonthsHistory),
		"accounts_linked":   int64(p.AccountsLinked),
		"countries_seen":    int64(p.CountriesSeen),
		"country_risk":      string(p.CountryRisk),
		"kyc_status":        string(p.KYCStatus),
		"kyc_verified":      p.KYCStatus == domain.KYCVerified,
		"score":             int64(result.Score),
		"risk_level":        string(result.RiskLevel),
	}

	var labels []string
	for _, rule := range rules {
		out, _, err := rule.Program.Eval(activation)
		if err != nil {
			continue
		}
		if fired, ok := out.(types.Bool); ok && bool(fired) {
			labels = append(labels, rule.Config.Label)
		}
	}
	return labels
}

// GetLoadedRules returns the currently loaded rule configurations.
func (e *Engine) GetLoadedRules() []*domain.FlagRule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rules := make([]*domain.FlagRule, 0, len(e.compiledRules))
	for _, compiled := range e.compiledRules {
		rules = append(rules, compiled.Config)
	}
	return rules
}

// RulesCount returns the number of loaded rules.
func (e *Engine) RulesCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.compiledRules)
}

// Close cleans up the engine.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.compiledRules = make(map[string]*CompiledRule)
	return nil
}

func (e *Engine) compileRule(cfg *domain.FlagRule) (*CompiledRule, error) {
	if cfg.Label == "" {
		return nil, fmt.Errorf("flag rule %s: label is required", cfg.ID)
	}

	ast, issues := e.env.Compile(cfg.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile flag rule %s: %w", cfg.ID, issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("flag rule %s: expression must return bool, got %s", cfg.ID, ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for flag rule %s: %w", cfg.ID, err)
	}

	return &CompiledRule{Config: cfg, Program: program}, nil
}

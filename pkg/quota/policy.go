package quota

import (
	"context"
	"fmt"
	"maps"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/lexibly/quotakit/pkg/ledger"
)

// Operation identifies a metered operation kind. Each operation carries an
// estimated token cost used for pre-flight budget checks; the actual cost is
// known only after the operation completes.
type Operation string

const (
	OperationGeneratePrompt Operation = "generate_prompt"
	OperationGradeWriting   Operation = "grade_writing"
	OperationExplainAnswer  Operation = "explain_answer"
	OperationScanDocument   Operation = "scan_document"
)

// Policy is the static per-plan quota configuration: hard token ceilings per
// plan tier and estimated costs per metered operation. Immutable at runtime;
// pass it explicitly rather than reading ambient constants so tests can swap
// policies without process-wide state.
type Policy struct {
	TokenLimits    map[ledger.Plan]int64 `yaml:"token_limits"`
	EstimatedCosts map[Operation]int64   `yaml:"estimated_costs"`
}

// LimitFor returns the hard token ceiling for a plan.
func (p Policy) LimitFor(plan ledger.Plan) (int64, error) {
	limit, ok := p.TokenLimits[plan]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownPlan, plan)
	}
	return limit, nil
}

// EstimatedCost returns the pre-flight cost estimate for an operation.
func (p Policy) EstimatedCost(op Operation) (int64, error) {
	cost, ok := p.EstimatedCosts[op]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownOperation, op)
	}
	return cost, nil
}

// Validate checks policy configuration for internal consistency.
func (p Policy) Validate() error {
	if len(p.TokenLimits) == 0 {
		return fmt.Errorf("%w: no token limits configured", ErrInvalidPolicy)
	}
	for plan, limit := range p.TokenLimits {
		if limit < 0 {
			return fmt.Errorf("%w: plan %s has negative token limit %d", ErrInvalidPolicy, plan, limit)
		}
	}
	for op, cost := range p.EstimatedCosts {
		if cost < 0 {
			return fmt.Errorf("%w: operation %s has negative estimated cost %d", ErrInvalidPolicy, op, cost)
		}
	}
	return nil
}

// Source defines how the quota policy is loaded into the service.
type Source interface {
	Load(ctx context.Context) (Policy, error)
}

type inMemSource struct {
	mu     sync.RWMutex
	policy Policy
}

// NewInMemSource returns an in-memory Source with a deep copy of the given
// policy. Copying prevents external modifications from affecting the
// source's state.
func NewInMemSource(policy Policy) Source {
	return &inMemSource{policy: clonePolicy(policy)}
}

// Load returns a copy of the policy from memory.
func (s *inMemSource) Load(ctx context.Context) (Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePolicy(s.policy), nil
}

func clonePolicy(p Policy) Policy {
	return Policy{
		TokenLimits:    maps.Clone(p.TokenLimits),
		EstimatedCosts: maps.Clone(p.EstimatedCosts),
	}
}

type yamlSource struct {
	path string
}

// NewYAMLSource returns a Source that loads the policy from a YAML file.
//
// Expected shape:
//
//	token_limits:
//	  free: 20000
//	  pro: 2000000
//	estimated_costs:
//	  generate_prompt: 800
//	  grade_writing: 2500
func NewYAMLSource(path string) Source {
	return &yamlSource{path: path}
}

// Load reads and parses the policy file.
func (s *yamlSource) Load(ctx context.Context) (Policy, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return Policy{}, fmt.Errorf("failed to read policy file %s: %w", s.path, err)
	}

	var policy Policy
	if err := yaml.Unmarshal(raw, &policy); err != nil {
		return Policy{}, fmt.Errorf("failed to parse policy file %s: %w", s.path, err)
	}

	return policy, nil
}

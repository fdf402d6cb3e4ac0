package perception

import (
	"context"

	"canvasmind/internal/types"
)

// =============================================================================
// BUILT-IN ENRICHERS
// =============================================================================
// Each enricher wraps one of the keyword analyses above behind the uniform
// types.Enricher contract so the registry can load, replace or disable it.

// Enricher names.
const (
	EnricherContextClues  = "context_clues"
	EnricherRequirements  = "implicit_requirements"
	EnricherLogicalChains = "logical_chains"
)

// ContextCluesEnricher reports business context and usage medium.
type ContextCluesEnricher struct{}

func (ContextCluesEnricher) Name() string { return EnricherContextClues }

func (e ContextCluesEnricher) Analyze(ctx context.Context, text string, rc types.RequestContext) (types.PartialResult, error) {
	if err := ctx.Err(); err != nil {
		return types.PartialResult{}, err
	}
	clues := ExtractContextClues(text)
	res := types.PartialResult{Module: e.Name(), Findings: clues.Findings()}
	if !clues.Empty() {
		res.Confidence = 0.4
	}
	return res, nil
}

// RequirementsEnricher reports implicit technical requirements.
type RequirementsEnricher struct{}

func (RequirementsEnricher) Name() string { return EnricherRequirements }

func (e RequirementsEnricher) Analyze(ctx context.Context, text string, rc types.RequestContext) (types.PartialResult, error) {
	if err := ctx.Err(); err != nil {
		return types.PartialResult{}, err
	}
	reqs := ImplicitRequirements(text)
	res := types.PartialResult{Module: e.Name(), Findings: RequirementFindings(reqs)}
	if len(reqs) > 0 {
		res.Confidence = 0.3
	}
	return res, nil
}

// ChainsEnricher reports expected multi-step paths.
type ChainsEnricher struct{}

func (ChainsEnricher) Name() string { return EnricherLogicalChains }

func (e ChainsEnricher) Analyze(ctx context.Context, text string, rc types.RequestContext) (types.PartialResult, error) {
	if err := ctx.Err(); err != nil {
		return types.PartialResult{}, err
	}
	chains := BuildChains(text, rc)
	res := types.PartialResult{Module: e.Name(), Findings: ChainFindings(chains)}
	if len(chains) > 0 {
		sum := 0.0
		for _, c := range chains {
			sum += c.Confidence
		}
		res.Confidence = sum / float64(len(chains))
	}
	return res, nil
}

// BuiltinEnrichers returns every built-in enricher keyed by name.
func BuiltinEnrichers() map[string]types.Enricher {
	return map[string]types.Enricher{
		EnricherContextClues:  ContextCluesEnricher{},
		EnricherRequirements:  RequirementsEnricher{},
		EnricherLogicalChains: ChainsEnricher{},
	}
}

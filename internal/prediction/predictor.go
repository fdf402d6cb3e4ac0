package prediction

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"canvasmind/internal/config"
	"canvasmind/internal/logging"
	"canvasmind/internal/types"
)

// =============================================================================
// PREDICTOR
// =============================================================================

const (
	// Confidence bonuses on top of the rule probability.
	youngProjectBonus = 0.1
	artifactsBonus    = 0.05
	contextBonus      = 0.05
	youngProjectAge   = time.Hour
)

// Predictor ranks next actions from the rule table.
type Predictor struct {
	table *RuleTable
	cfg   config.PredictionConfig
	now   func() time.Time
}

// Option configures a Predictor.
type Option func(*Predictor)

// WithClock injects the time source used for decay.
func WithClock(now func() time.Time) Option {
	return func(p *Predictor) { p.now = now }
}

// WithRuleTable replaces the rule table.
func WithRuleTable(t *RuleTable) Option {
	return func(p *Predictor) { p.table = t }
}

// New builds a predictor. The rule table comes from cfg.RulesPath when set,
// otherwise from the embedded default.
func New(cfg config.PredictionConfig, opts ...Option) (*Predictor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Predictor{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	if p.table == nil {
		var err error
		if cfg.RulesPath != "" {
			p.table, err = LoadRuleTable(cfg.RulesPath)
		} else {
			p.table, err = DefaultRuleTable()
		}
		if err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Table exposes the active rule table.
func (p *Predictor) Table() *RuleTable {
	return p.table
}

// Predict returns at most TopN predictions for the project, highest
// probability first. Rule-based predictions always precede behavioral ones.
func (p *Predictor) Predict(project *types.Project, rc types.RequestContext) ([]types.Prediction, error) {
	if project == nil {
		return nil, fmt.Errorf("%w: predict requires a project", types.ErrInvalidInput)
	}
	timer := logging.StartTimer(logging.CategoryPrediction, "Predict")
	defer timer.Stop()

	now := p.now()
	typ := p.table.ConceptType(project.Concept)
	phase := project.Phase()
	recent := rc.RecentText()

	var predictions []types.Prediction
	for _, rule := range p.table.RulesFor(typ, phase) {
		if rule.DoneWhen.Satisfied(project) {
			logging.PredictionDebug("Skipping %s: already done in project %s", rule.Action, project.ID)
			continue
		}
		predictions = append(predictions, p.fromRule(rule, project, rc, recent, now))
	}

	// Stable sort keeps declaration order on equal probability.
	sort.SliceStable(predictions, func(i, j int) bool {
		return predictions[i].Probability > predictions[j].Probability
	})

	if p.cfg.Behavioral {
		if b := p.behavioral(project, rc); b != nil {
			predictions = append(predictions, *b)
		}
	}

	if len(predictions) > p.cfg.TopN {
		predictions = predictions[:p.cfg.TopN]
	}

	logging.PredictionDebug("Predicted %d actions for project %s (type=%s phase=%s)",
		len(predictions), project.ID, typ, phase)
	return predictions, nil
}

func (p *Predictor) fromRule(rule Rule, project *types.Project, rc types.RequestContext, recent string, now time.Time) types.Prediction {
	prob := rule.Probability
	if hits := keywordHits(rule.Keywords, recent); hits > 0 {
		prob += float64(hits) * p.cfg.KeywordBoost
	}
	prob *= p.decay(project, now)
	prob = math.Min(prob, p.cfg.MaxProbability)

	return types.Prediction{
		Action:           rule.Action,
		Description:      rule.Description,
		Probability:      prob,
		Confidence:       p.confidence(rule, project, rc, now),
		Benefits:         rule.Benefits,
		SuggestedPrompts: p.prompts(rule, project),
		Source:           types.SourceRule,
		ProjectID:        project.ID,
	}
}

// decay lowers probability for projects that have been inactive.
func (p *Predictor) decay(project *types.Project, now time.Time) float64 {
	idle := now.Sub(project.UpdatedAt)
	switch {
	case idle > p.cfg.GetDormantAfter():
		return p.cfg.DormantFactor
	case idle > p.cfg.GetStaleAfter():
		return p.cfg.StaleFactor
	default:
		return 1
	}
}

func (p *Predictor) confidence(rule Rule, project *types.Project, rc types.RequestContext, now time.Time) float64 {
	c := rule.Probability
	if now.Sub(project.CreatedAt) < youngProjectAge {
		c += youngProjectBonus
	}
	if len(project.Artifacts) > 0 {
		c += artifactsBonus
	}
	if len(rc.RecentQueries) > 0 {
		c += contextBonus
	}
	return math.Min(c, p.cfg.MaxProbability)
}

func (p *Predictor) prompts(rule Rule, project *types.Project) []string {
	title := strings.ToLower(project.Title)
	desc := strings.ToLower(rule.Description)
	r := strings.NewReplacer("{title}", title, "{description}", desc)

	templates := p.table.PromptTemplates(rule.Action)
	out := make([]string, 0, 3)
	for _, tpl := range templates {
		if len(out) == 3 {
			break
		}
		out = append(out, r.Replace(tpl))
	}
	return out
}

// keywordHits counts rule keywords present in the lower-cased recent text.
func keywordHits(keywords []string, recent string) int {
	if recent == "" {
		return 0
	}
	hits := 0
	for _, kw := range keywords {
		if kw != "" && strings.Contains(recent, strings.ToLower(kw)) {
			hits++
		}
	}
	return hits
}

package compliance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/permits/api/internal/expert"
	"github.com/stwalsh4118/permits/api/internal/logger"
	"github.com/stwalsh4118/permits/api/internal/models"
	"github.com/stwalsh4118/permits/api/internal/repository"
	"github.com/stwalsh4118/permits/api/internal/seed"
	"golang.org/x/sync/errgroup"
)

// Statewide level sources.
const (
	SourceRuleStore      = "rule_store"
	SourceExpertFallback = "expert_fallback"
)

// FallbackUnavailable replaces the fallback analysis when the analyzer fails.
const FallbackUnavailable = "Analysis unavailable"

// DefaultGoalWorkers bounds concurrent goal evaluations per check.
const DefaultGoalWorkers = 4

// Names recorded in ComplianceReport.ChecksPerformed.
const (
	CheckBasicZoning = "basic_zoning"
	CheckStandard    = "standard_compliance"
	CheckStatewide   = "statewide_goals"
	CheckExpert      = "expert_analysis"
)

// ErrInvalidInput is returned when Check is called without a property,
// permit type or known level.
var ErrInvalidInput = errors.New("invalid compliance input")

// Engine runs compliance checks. It holds no per-check state and is safe for
// concurrent use.
type Engine struct {
	rules    repository.RuleStore
	analyzer expert.Analyzer
	log      *logger.Logger
	workers  int
	now      func() time.Time
	newID    func() uuid.UUID
}

// Option configures an Engine.
type Option func(*Engine)

// WithGoalWorkers sets how many goals are evaluated concurrently.
func WithGoalWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithClock overrides the report timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an Engine. A nil analyzer disables expert analysis.
func NewEngine(rules repository.RuleStore, analyzer expert.Analyzer, log *logger.Logger, opts ...Option) *Engine {
	if analyzer == nil {
		analyzer = expert.Unavailable{}
	}
	if log == nil {
		log = logger.Nop()
	}

	e := &Engine{
		rules:    rules,
		analyzer: analyzer,
		log:      log.WithComponent("compliance"),
		workers:  DefaultGoalWorkers,
		now:      time.Now,
		newID:    uuid.New,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Check produces a compliance report at the given level. Each level includes
// the checks of the levels below it. Rule store and analyzer failures are
// recorded on the report as degraded levels; the only error returned is
// ErrInvalidInput.
func (e *Engine) Check(ctx context.Context, property *models.Property, permit *models.PermitType, details models.ProjectDetails, level models.ComplianceLevel) (*models.ComplianceReport, error) {
	if property == nil || permit == nil {
		return nil, fmt.Errorf("%w: property and permit type are required", ErrInvalidInput)
	}
	if _, err := models.ParseComplianceLevel(string(level)); err != nil || level == "" {
		return nil, fmt.Errorf("%w: unknown level %q", ErrInvalidInput, level)
	}

	report := &models.ComplianceReport{
		ID:              e.newID(),
		CheckedAt:       e.now().UTC(),
		Property:        reportProperty(property),
		Permit:          permit.Summary(),
		Details:         details,
		Level:           level,
		ChecksPerformed: []string{},
	}
	log := e.log.WithCheckID(report.ID.String())

	report.Basic = e.basicLevel(ctx, log, property, &details)
	report.ChecksPerformed = append(report.ChecksPerformed, CheckBasicZoning)

	if level.Includes(models.LevelStandard) {
		report.Standard = SummarizeLevel(StandardLevelName, StandardVerdicts(property, permit.Code, &details))
		report.ChecksPerformed = append(report.ChecksPerformed, CheckStandard)
	}

	if level.Includes(models.LevelComprehensive) {
		report.Statewide = e.statewideLevel(ctx, log, report)
		report.ChecksPerformed = append(report.ChecksPerformed, CheckStatewide)
	}

	weighted := WeightedViolations(report.Basic, report.Standard, report.Statewide)
	report.OverallStatus = WeightedPolicy(weighted)

	if level.Includes(models.LevelExpert) {
		report.Expert = e.expertReview(ctx, log, report)
		report.ChecksPerformed = append(report.ChecksPerformed, CheckExpert)
	}

	report.Summary = summarize(report, weighted)
	report.Recommendations = Recommend(report)

	log.Info("Compliance check completed", map[string]interface{}{
		"property_id":    property.ID,
		"permit_code":    permit.Code,
		"level":          level,
		"overall_status": report.OverallStatus,
		"weighted":       weighted,
	})
	return report, nil
}

// DirectCheck evaluates zoning rules and permit-specific checks and applies
// PassRatePolicy. A rule store failure marks the result degraded.
func (e *Engine) DirectCheck(ctx context.Context, property *models.Property, permit *models.PermitType, details models.ProjectDetails) *models.DirectCheckResult {
	result := &models.DirectCheckResult{
		Property: reportProperty(property),
		Permit:   permit.Summary(),
	}

	var verdicts []models.Verdict
	rules, err := e.rules.RulesForDistrict(ctx, property.Zoning)
	if err != nil {
		e.log.Warn("Zoning rules unavailable for direct check", map[string]interface{}{
			"district": property.Zoning,
			"error":    err.Error(),
		})
		result.Degraded = true
		result.Error = err.Error()
	} else {
		verdicts = EvaluateZoning(property, SelectRules(property, rules), &details)
	}
	verdicts = append(verdicts, PermitVerdicts(permit.Code, &details)...)

	passed := 0
	for _, v := range verdicts {
		if v.Compliant {
			passed++
		}
	}
	total := len(verdicts)

	result.Verdicts = verdicts
	if result.Verdicts == nil {
		result.Verdicts = []models.Verdict{}
	}
	result.Summary = models.DirectSummary{
		TotalChecks:    total,
		PassedChecks:   passed,
		FailedChecks:   total - passed,
		ComplianceRate: round1(LevelRate(total, total-passed)),
		OverallStatus:  PassRatePolicy(total, passed),
	}
	result.Recommendations = RecommendDirect(verdicts)
	return result
}

// ApplicableGoals returns the statewide goals triggered by a description and
// property context, ordered by goal number.
func (e *Engine) ApplicableGoals(ctx context.Context, description string, pctx models.PropertyContext) ([]models.StatewideGoal, error) {
	goals, err := e.rules.AllGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load statewide goals: %w", err)
	}
	return SelectGoals(goals, pctx, description), nil
}

// EvaluateGoal evaluates one goal's requirements against a description.
// Goals without stored requirements are evaluated on their requirement texts.
func (e *Engine) EvaluateGoal(ctx context.Context, goal models.StatewideGoal, description string, pctx models.PropertyContext) (models.GoalEvaluation, error) {
	reqs, err := e.rules.RequirementsForGoal(ctx, goal.ID)
	if err != nil {
		return models.GoalEvaluation{}, fmt.Errorf("failed to load requirements for goal %d: %w", goal.Number, err)
	}
	if len(reqs) == 0 {
		reqs = make([]models.GoalRequirement, 0, len(goal.Requirements))
		for i, text := range goal.Requirements {
			reqs = append(reqs, seed.NewGoalRequirement(int64(i+1), goal.ID, text))
		}
	}

	eval := EvaluateGoalRequirements(goal, reqs, description)
	eval.Applicable = GoalApplies(goal, pctx, description)
	return eval, nil
}

func (e *Engine) basicLevel(ctx context.Context, log *logger.Logger, property *models.Property, details *models.ProjectDetails) *models.LevelReport {
	rules, err := e.rules.RulesForDistrict(ctx, property.Zoning)
	if err != nil {
		log.Warn("Zoning rules unavailable, basic level degraded", map[string]interface{}{
			"district": property.Zoning,
			"error":    err.Error(),
		})
		level := DegradedLevel(BasicLevelName, err)
		level.ZoningDistrict = property.Zoning
		return level
	}

	level := SummarizeLevel(BasicLevelName, EvaluateZoning(property, SelectRules(property, rules), details))
	level.ZoningDistrict = property.Zoning
	return level
}

func (e *Engine) statewideLevel(ctx context.Context, log *logger.Logger, report *models.ComplianceReport) *models.LevelReport {
	pctx := report.Property.Context
	description := report.Details.Description

	goals, err := e.ApplicableGoals(ctx, description, pctx)
	if err != nil {
		return e.statewideFallback(ctx, log, report, err)
	}

	evals, err := e.evaluateGoals(ctx, goals, description, pctx)
	if err != nil {
		return e.statewideFallback(ctx, log, report, err)
	}
	return SummarizeGoals(evals)
}

// evaluateGoals evaluates goals concurrently, keeping them in input order.
func (e *Engine) evaluateGoals(ctx context.Context, goals []models.StatewideGoal, description string, pctx models.PropertyContext) ([]models.GoalEvaluation, error) {
	evals := make([]models.GoalEvaluation, len(goals))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, goal := range goals {
		g.Go(func() error {
			eval, err := e.EvaluateGoal(gctx, goal, description, pctx)
			if err != nil {
				return err
			}
			evals[i] = eval
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return evals, nil
}

func (e *Engine) statewideFallback(ctx context.Context, log *logger.Logger, report *models.ComplianceReport, cause error) *models.LevelReport {
	log.Warn("Statewide goals unavailable, requesting fallback analysis", map[string]interface{}{
		"error": cause.Error(),
	})

	level := DegradedLevel(StatewideLevelName, cause)
	level.Source = SourceExpertFallback

	text, err := e.analyzer.Analyze(ctx, e.prompt(report, expert.TaskStatewideFallback))
	if err != nil {
		log.Warn("Statewide fallback analysis failed", map[string]interface{}{
			"error": err.Error(),
		})
		level.FallbackAnalysis = FallbackUnavailable
		return level
	}
	level.FallbackAnalysis = text
	return level
}

func (e *Engine) expertReview(ctx context.Context, log *logger.Logger, report *models.ComplianceReport) *models.ExpertAnalysis {
	model := expert.ModelOf(e.analyzer)

	text, err := e.analyzer.Analyze(ctx, e.prompt(report, expert.TaskExpertReview))
	if err != nil {
		log.Warn("Expert analysis failed", map[string]interface{}{
			"model": model,
			"error": err.Error(),
		})
		return &models.ExpertAnalysis{
			Model:    model,
			Degraded: true,
			Error:    err.Error(),
		}
	}
	return &models.ExpertAnalysis{
		Text:      text,
		Model:     model,
		Available: true,
	}
}

// prompt snapshots the report so an analyzer still running after a timeout
// never reads fields the engine writes afterwards.
func (e *Engine) prompt(report *models.ComplianceReport, task expert.Task) expert.Prompt {
	prior := *report
	prior.ChecksPerformed = append([]string(nil), report.ChecksPerformed...)
	return expert.Prompt{
		Prior:    &prior,
		Property: report.Property,
		Permit:   report.Permit,
		Details:  report.Details,
		Task:     task,
	}
}

func reportProperty(p *models.Property) models.ReportProperty {
	return models.ReportProperty{
		ID:      p.ID,
		Address: p.Address,
		TaxLot:  p.TaxLot,
		Context: p.Context(),
	}
}

func summarize(report *models.ComplianceReport, weighted int) models.ReportSummary {
	s := models.ReportSummary{
		ComplianceLevel:    report.Level,
		OverallStatus:      report.OverallStatus,
		ChecksPerformed:    len(report.ChecksPerformed),
		WeightedViolations: weighted,
	}
	if l := report.Basic; l != nil {
		s.ZoningComplianceRate = &l.ComplianceRate
		s.ZoningViolations = &l.Violations
	}
	if l := report.Standard; l != nil {
		s.StandardComplianceRate = &l.ComplianceRate
		s.StandardViolations = &l.Violations
	}
	if l := report.Statewide; l != nil {
		s.StatewideGoalsChecked = &l.Checked
		s.StatewideComplianceRate = &l.ComplianceRate
	}
	return s
}

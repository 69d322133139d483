package planner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"

	"cscx/classifier"
	"cscx/task"
)

// ErrContextAggregation marks a collaborator failure while gathering plan
// context. The plan is never created half-populated: callers surface this
// as a plan-creation failure.
var ErrContextAggregation = errors.New("context aggregation failed")

// Aggregator gathers knowledge-base, customer, and third-party data for a
// task. Implemented outside the core; the planner only consumes the shape.
type Aggregator interface {
	Aggregate(ctx context.Context, taskType task.Type, subjectID, query string) (*AggregatedContext, error)
}

// Planner builds execution plans from classified requests.
type Planner struct {
	registry   *task.Registry
	aggregator Aggregator
}

// New creates a planner.
func New(registry *task.Registry, aggregator Aggregator) *Planner {
	return &Planner{registry: registry, aggregator: aggregator}
}

// Definition exposes the registry entry behind a task type.
func (p *Planner) Definition(t task.Type) (task.Definition, bool) {
	return p.registry.Get(t)
}

// Plan builds an execution plan for the classification. The inputs list
// cites exactly which aggregated items the plan will use and why; risk
// starts at the task default and escalates one tier when the plan performs
// an external send or the context flags elevated risk.
func (p *Planner) Plan(ctx context.Context, cls *classifier.Result, subjectID, query string, agentic bool) (*ExecutionPlan, error) {
	def, ok := p.registry.Get(cls.Type)
	if !ok {
		return nil, serr.New(fmt.Sprintf("no registry entry for task type %s", cls.Type))
	}

	agg, err := p.aggregator.Aggregate(ctx, cls.Type, subjectID, query)
	if err != nil {
		return nil, serr.Wrap(fmt.Errorf("%w: %v", ErrContextAggregation, err),
			"cannot build plan without aggregated context")
	}

	now := time.Now()
	plan := &ExecutionPlan{
		ID:        uuid.New().String(),
		TaskType:  cls.Type,
		SubjectID: subjectID,
		Query:     query,
		Status:    StatusPending,
		RiskLevel: riskFor(def, agg),
		Inputs:    citeInputs(def, agg),
		Structure: PlanStructure{
			Sections:    def.Sections,
			Destination: def.Destination,
			Service:     def.Binding.Service,
			Operation:   def.Binding.Operation,
		},
		Agentic:   agentic,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if agentic {
		plan.Steps = make([]PlanStep, 0, len(def.Steps))
		for _, tmpl := range def.Steps {
			plan.Steps = append(plan.Steps, PlanStep{
				Tool:        tmpl.Tool,
				Description: tmpl.Description,
				Risk:        tmpl.Risk,
				Status:      StepPending,
			})
		}
	}

	logger.Info("Built execution plan",
		"plan_id", plan.ID,
		"task_type", plan.TaskType,
		"risk", plan.RiskLevel,
		"inputs", len(plan.Inputs),
		"agentic", agentic)

	return plan, nil
}

// riskFor derives the plan's risk level. External sends always sit at least
// one tier above a read-only report of the same task.
func riskFor(def task.Definition, agg *AggregatedContext) task.RiskLevel {
	risk := def.DefaultRisk
	if def.Binding.ExternalSend {
		risk = risk.Max(def.DefaultRisk.Escalate())
	}
	if agg.ElevatedRisk {
		risk = risk.Escalate()
	}
	return risk
}

// citeInputs turns aggregated context into the disclosed inputs list.
func citeInputs(def task.Definition, agg *AggregatedContext) []PlanInput {
	inputs := make([]PlanInput, 0, len(agg.Knowledge)+len(agg.ExternalSources)+1)

	for _, k := range agg.Knowledge {
		inputs = append(inputs, PlanInput{
			Source:  "knowledge_base:" + k.Source,
			Summary: k.Title,
			Usage:   fmt.Sprintf("background material for the %s content", def.Type),
		})
	}

	if len(agg.PlatformData) > 0 {
		keys := make([]string, 0, len(agg.PlatformData))
		for k := range agg.PlatformData {
			keys = append(keys, k)
		}
		inputs = append(inputs, PlanInput{
			Source:  "platform",
			Summary: fmt.Sprintf("account metrics: %s", joinSorted(keys)),
			Usage:   "fills in customer-specific figures",
		})
	}

	for _, src := range agg.ExternalSources {
		inputs = append(inputs, PlanInput{
			Source:  src.System + ":" + src.Ref,
			Summary: src.Summary,
			Usage:   "cited as supporting reference",
		})
	}

	return inputs
}

// joinSorted keeps the platform-data citation stable across runs.
func joinSorted(keys []string) string {
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}

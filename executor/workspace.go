package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rohanthewiz/logger"

	"cscx/planner"
)

// Workspace is the default executor wiring. It maps plan bindings to
// workspace-shaped artifact refs without calling the real Google APIs,
// which live behind this boundary in a separate service. It exists so the
// pipeline runs end to end in development and in tests.
type Workspace struct{}

// NewWorkspace creates the workspace executor.
func NewWorkspace() *Workspace {
	return &Workspace{}
}

// Execute fulfills a non-agentic plan as a single operation.
func (w *Workspace) Execute(ctx context.Context, plan *planner.ExecutionPlan) (*ExecutionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ref := artifactRef(plan.Structure.Service, plan.Structure.Operation)
	logger.Info("Executed plan operation",
		"plan_id", plan.ID,
		"service", plan.Structure.Service,
		"operation", plan.Structure.Operation,
		"artifact", ref)

	return &ExecutionResult{
		PlanID:       plan.ID,
		Outcome:      OutcomeSuccess,
		ArtifactRefs: []string{ref},
		FinishedAt:   time.Now(),
	}, nil
}

// Invoke fulfills one agentic sub-action.
func (w *Workspace) Invoke(ctx context.Context, plan *planner.ExecutionPlan, step *planner.PlanStep) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ref := artifactRef(plan.Structure.Service, step.Tool)
	logger.Info("Invoked plan step",
		"plan_id", plan.ID,
		"tool", step.Tool,
		"artifact", ref)
	return ref, nil
}

func artifactRef(service, operation string) string {
	return fmt.Sprintf("%s://%s/%s", service, operation, uuid.New().String()[:8])
}

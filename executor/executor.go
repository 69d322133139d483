package executor

import (
	"context"
	"time"

	"cscx/planner"
)

// Outcome classifies how an execution finished. Partial means some
// sub-actions succeeded before one failed or was declined.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePartial Outcome = "partial"
	OutcomeFailure Outcome = "failure"
)

// ExecutionResult is the terminal record of a plan's execution, created
// once and attached to the plan. Artifact refs point at whatever the
// executor produced; errors list the sub-actions that did not.
type ExecutionResult struct {
	PlanID       string    `json:"plan_id"`
	Outcome      Outcome   `json:"outcome"`
	ArtifactRefs []string  `json:"artifact_refs,omitempty"`
	Errors       []string  `json:"errors,omitempty"`
	FinishedAt   time.Time `json:"finished_at"`
}

// Executor performs an approved plan's action in one shot. The gate treats
// it as opaque and potentially partially-failing; retry policy is the
// executor's own concern, never the gate's.
type Executor interface {
	Execute(ctx context.Context, plan *planner.ExecutionPlan) (*ExecutionResult, error)
}

// StepInvoker performs a single sub-action of an agentic plan and returns
// the artifact ref it produced. The gate drives the step loop and the
// approval pauses; the invoker only runs one tool at a time.
type StepInvoker interface {
	Invoke(ctx context.Context, plan *planner.ExecutionPlan, step *planner.PlanStep) (string, error)
}

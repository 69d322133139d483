package gate

import (
	"context"
	"fmt"
	"time"

	"github.com/rohanthewiz/logger"

	"cscx/executor"
	"cscx/planner"
)

// runAgentic drives a multi-round execution. Steps run in order from the
// persisted cursor; a step riskier than the autonomous ceiling pauses the
// plan back to pending with its own reason and returns without blocking.
// clearedStep is the index a just-approved pause covers, so approval of a
// step is consumed exactly once.
func (g *Gate) runAgentic(ctx context.Context, plan *planner.ExecutionPlan, clearedStep int) (*planner.ExecutionPlan, error) {
	plan.Pause = nil
	if err := g.transition(plan, planner.StatusApproved, planner.StatusExecuting); err != nil {
		return nil, err
	}

	for i := plan.StepCursor; i < len(plan.Steps); i++ {
		step := &plan.Steps[i]

		if i != clearedStep && !step.Risk.AtMost(g.ceiling) {
			return g.pauseAt(plan, i)
		}

		stepCtx, cancel := context.WithTimeout(ctx, g.execTimeout)
		ref, err := g.invoker.Invoke(stepCtx, plan, step)
		cancel()

		if err != nil {
			step.Status = planner.StepFailed
			step.Error = err.Error()
			logger.LogErr(err, "agentic step failed", "plan_id", plan.ID, "tool", step.Tool)
			skipRemaining(plan, i+1)
			return g.finalize(plan, planner.StatusExecuting, resultFromSteps(plan, ""))
		}

		step.Status = planner.StepSucceeded
		step.ArtifactRef = ref
		plan.StepCursor = i + 1
		if err := g.saveProgress(plan); err != nil {
			return nil, err
		}
	}

	return g.finalize(plan, planner.StatusExecuting, resultFromSteps(plan, ""))
}

// pauseAt parks the plan at step i pending approval. The pause carries the
// specific tool, risk tier, and reason so the approver sees why this step
// needs sign-off. Nothing in-process waits: the plan is drivable again only
// through Resume.
func (g *Gate) pauseAt(plan *planner.ExecutionPlan, i int) (*planner.ExecutionPlan, error) {
	step := plan.Steps[i]
	plan.Pause = &planner.PausePoint{
		Tool:      step.Tool,
		RiskLevel: step.Risk,
		Reason: fmt.Sprintf("step %q is %s risk, above the autonomous ceiling (%s)",
			step.Tool, step.Risk, g.ceiling),
		Step: i,
	}
	plan.Round++

	if err := g.transition(plan, planner.StatusExecuting, planner.StatusPending); err != nil {
		return nil, err
	}

	logger.Info("Agentic execution paused for approval",
		"plan_id", plan.ID, "round", plan.Round, "tool", step.Tool, "risk", step.Risk)
	return plan, nil
}

// finalizeDeclined ends a paused plan whose pause was rejected. Steps that
// already ran keep their artifacts: the outcome is partial when anything
// succeeded, failed otherwise.
func (g *Gate) finalizeDeclined(plan *planner.ExecutionPlan, pause *planner.PausePoint) (*planner.ExecutionPlan, error) {
	skipRemaining(plan, pause.Step)
	res := resultFromSteps(plan,
		fmt.Sprintf("step %s declined by approver", pause.Tool))

	logger.Info("Agentic execution halted by rejection",
		"plan_id", plan.ID, "round", plan.Round, "tool", pause.Tool, "outcome", res.Outcome)
	return g.finalize(plan, planner.StatusPending, res)
}

// resultFromSteps derives the terminal result from step outcomes. haltErr,
// when set, is appended to the error list.
func resultFromSteps(plan *planner.ExecutionPlan, haltErr string) *executor.ExecutionResult {
	res := &executor.ExecutionResult{
		PlanID:     plan.ID,
		FinishedAt: time.Now(),
	}

	succeeded := 0
	for _, step := range plan.Steps {
		switch step.Status {
		case planner.StepSucceeded:
			succeeded++
			if step.ArtifactRef != "" {
				res.ArtifactRefs = append(res.ArtifactRefs, step.ArtifactRef)
			}
		case planner.StepFailed:
			if step.Error != "" {
				res.Errors = append(res.Errors, fmt.Sprintf("%s: %s", step.Tool, step.Error))
			}
		}
	}
	if haltErr != "" {
		res.Errors = append(res.Errors, haltErr)
	}

	switch {
	case succeeded == len(plan.Steps) && haltErr == "":
		res.Outcome = executor.OutcomeSuccess
	case succeeded > 0:
		res.Outcome = executor.OutcomePartial
	default:
		res.Outcome = executor.OutcomeFailure
	}
	return res
}

func skipRemaining(plan *planner.ExecutionPlan, from int) {
	for i := from; i < len(plan.Steps); i++ {
		if plan.Steps[i].Status == planner.StepPending {
			plan.Steps[i].Status = planner.StepSkipped
		}
	}
}

// saveProgress persists step results mid-run without a status change.
func (g *Gate) saveProgress(plan *planner.ExecutionPlan) error {
	plan.UpdatedAt = time.Now()
	ok, err := g.store.UpdatePlanGuarded(plan, planner.StatusExecuting)
	if err != nil {
		return err
	}
	if !ok {
		return &InvalidTransitionError{
			PlanID: plan.ID, Current: plan.Status, Attempted: "save progress",
		}
	}
	return nil
}

package gate

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"

	"cscx/config"
	"cscx/executor"
	"cscx/planner"
	"cscx/task"
)

// Notifier receives plan status changes so callers can push updates (SSE)
// instead of polling. The gate's correctness never depends on it.
type Notifier func(plan *planner.ExecutionPlan)

// Gate is the approval state machine. Transitions for a single plan are
// strictly ordered: a per-plan mutex serializes them in-process and the
// store's guarded update serializes them across processes. Different plans
// share no lock. Waiting for a human decision holds neither: pending state
// lives only in the store.
type Gate struct {
	store       Store
	exec        executor.Executor
	invoker     executor.StepInvoker
	autonomous  bool
	ceiling     task.RiskLevel
	execTimeout time.Duration
	notify      Notifier

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a gate.
func New(store Store, exec executor.Executor, invoker executor.StepInvoker, cfg config.GateConfig) *Gate {
	ceiling := task.RiskLevel(cfg.AutonomousRiskLimit)
	switch ceiling {
	case task.RiskLow, task.RiskMedium, task.RiskHigh:
	default:
		ceiling = task.RiskLow
	}

	return &Gate{
		store:       store,
		exec:        exec,
		invoker:     invoker,
		autonomous:  cfg.Autonomous,
		ceiling:     ceiling,
		execTimeout: cfg.ExecutorTimeout,
		locks:       make(map[string]*sync.Mutex),
	}
}

// SetNotifier installs the status-change hook.
func (g *Gate) SetNotifier(fn Notifier) {
	g.notify = fn
}

func (g *Gate) planLock(planID string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	lock, ok := g.locks[planID]
	if !ok {
		lock = &sync.Mutex{}
		g.locks[planID] = lock
	}
	return lock
}

// SubmitForApproval stores the plan as pending. Resubmitting a plan that is
// already pending is a no-op returning the stored state. When autonomous
// mode is on and the plan's risk sits at or under the ceiling, the gate
// approves and executes immediately; the approval record names the
// autonomous policy as the actor.
func (g *Gate) SubmitForApproval(ctx context.Context, plan *planner.ExecutionPlan) (*planner.ExecutionPlan, bool, error) {
	lock := g.planLock(plan.ID)
	lock.Lock()
	defer lock.Unlock()

	existing, err := g.store.GetPlan(plan.ID)
	if err != nil && err != ErrPlanNotFound {
		return nil, false, serr.Wrap(err, "failed to look up plan")
	}
	if existing != nil {
		if existing.Status == planner.StatusPending {
			return existing, true, nil
		}
		return nil, false, &InvalidTransitionError{
			PlanID: plan.ID, Current: existing.Status, Attempted: "submit",
		}
	}

	plan.Status = planner.StatusPending
	plan.UpdatedAt = time.Now()
	if err := g.store.SavePlan(plan); err != nil {
		return nil, false, serr.Wrap(err, "failed to store plan")
	}
	g.emit(plan)
	logger.Info("Plan submitted for approval",
		"plan_id", plan.ID, "task_type", plan.TaskType, "risk", plan.RiskLevel)

	if g.autonomous && plan.RiskLevel.AtMost(g.ceiling) {
		updated, err := g.decideLocked(ctx, plan, DecisionApprove, nil, "autonomous-policy")
		if err != nil {
			return nil, false, err
		}
		return updated, false, nil
	}

	return plan, true, nil
}

// Decide applies a human decision to a pending plan. Approve optionally
// merges modifications into the plan before the transition and then runs
// the execution; reject is terminal. Deciding a non-pending plan returns
// InvalidTransitionError, with the original decision attached when the plan
// was already decided, so duplicate requests never cause a second side
// effect.
func (g *Gate) Decide(ctx context.Context, planID string, decision Decision, mods map[string]string, actorID string) (*planner.ExecutionPlan, error) {
	lock := g.planLock(planID)
	lock.Lock()
	defer lock.Unlock()

	plan, err := g.store.GetPlan(planID)
	if err != nil {
		return nil, err
	}
	return g.decideLocked(ctx, plan, decision, mods, actorID)
}

// Resume unblocks an agentic pause point. It is the multi-round variant of
// Decide: identical mechanics, but scoped to the current pause rather than
// the original plan, and only valid when a pause exists.
func (g *Gate) Resume(ctx context.Context, planID string, approved bool, actorID string) (*planner.ExecutionPlan, error) {
	lock := g.planLock(planID)
	lock.Lock()
	defer lock.Unlock()

	plan, err := g.store.GetPlan(planID)
	if err != nil {
		return nil, err
	}
	if plan.Pause == nil {
		return nil, &InvalidTransitionError{
			PlanID: planID, Current: plan.Status, Attempted: "resume",
		}
	}

	decision := DecisionReject
	if approved {
		decision = DecisionApprove
	}
	return g.decideLocked(ctx, plan, decision, nil, actorID)
}

// decideLocked applies a decision. Caller holds the plan lock.
func (g *Gate) decideLocked(ctx context.Context, plan *planner.ExecutionPlan, decision Decision, mods map[string]string, actorID string) (*planner.ExecutionPlan, error) {
	if plan.Status != planner.StatusPending {
		invalid := &InvalidTransitionError{
			PlanID: plan.ID, Current: plan.Status, Attempted: string(decision),
		}
		if prior, err := g.store.LatestApproval(plan.ID); err == nil && prior != nil {
			invalid.PriorDecision = prior.Decision
		}
		return nil, invalid
	}

	pause := plan.Pause

	switch decision {
	case DecisionApprove:
		if len(mods) > 0 {
			if plan.Modifications == nil {
				plan.Modifications = make(map[string]string, len(mods))
			}
			for k, v := range mods {
				plan.Modifications[k] = v
			}
		}
		if err := g.transition(plan, planner.StatusPending, planner.StatusApproved); err != nil {
			return nil, err
		}
		g.record(plan, decision, mods, pause, actorID)

		if plan.Agentic {
			return g.runAgentic(ctx, plan, pausedStep(pause))
		}
		return g.runOnce(ctx, plan)

	case DecisionReject:
		g.record(plan, decision, nil, pause, actorID)
		if pause == nil {
			// Nothing has executed: rejection is a pure cancellation.
			if err := g.transition(plan, planner.StatusPending, planner.StatusRejected); err != nil {
				return nil, err
			}
			logger.Info("Plan rejected", "plan_id", plan.ID, "actor", actorID)
			return plan, nil
		}
		// Mid-run decline: finalize with whatever already succeeded.
		return g.finalizeDeclined(plan, pause)

	default:
		return nil, serr.New("unknown decision: " + string(decision))
	}
}

// runOnce executes a non-agentic plan through the opaque executor. The call
// is bounded by the configured timeout; a timeout or error surfaces as a
// failed plan, never a silent hang. The gate never retries.
func (g *Gate) runOnce(ctx context.Context, plan *planner.ExecutionPlan) (*planner.ExecutionPlan, error) {
	if err := g.transition(plan, planner.StatusApproved, planner.StatusExecuting); err != nil {
		return nil, err
	}

	execCtx, cancel := context.WithTimeout(ctx, g.execTimeout)
	defer cancel()

	res, err := g.exec.Execute(execCtx, plan)
	if err != nil {
		logger.LogErr(err, "executor failed", "plan_id", plan.ID)
		res = &executor.ExecutionResult{
			PlanID:  plan.ID,
			Outcome: executor.OutcomeFailure,
			Errors:  []string{err.Error()},
		}
	}
	res.PlanID = plan.ID
	if res.FinishedAt.IsZero() {
		res.FinishedAt = time.Now()
	}

	return g.finalize(plan, planner.StatusExecuting, res)
}

// finalize records the execution result and moves the plan to its terminal
// status. Completed covers full and partial success; failed covers total
// failure.
func (g *Gate) finalize(plan *planner.ExecutionPlan, from planner.Status, res *executor.ExecutionResult) (*planner.ExecutionPlan, error) {
	if err := g.store.SaveResult(res); err != nil {
		return nil, serr.Wrap(err, "failed to record execution result")
	}

	final := planner.StatusCompleted
	if res.Outcome == executor.OutcomeFailure {
		final = planner.StatusFailed
	}
	if err := g.transition(plan, from, final); err != nil {
		return nil, err
	}

	logger.Info("Plan finished",
		"plan_id", plan.ID, "status", final, "outcome", res.Outcome,
		"artifacts", len(res.ArtifactRefs))
	return plan, nil
}

// transition performs one guarded status change.
func (g *Gate) transition(plan *planner.ExecutionPlan, from, to planner.Status) error {
	plan.Status = to
	plan.UpdatedAt = time.Now()

	ok, err := g.store.UpdatePlanGuarded(plan, from)
	if err != nil {
		return serr.Wrap(err, "failed to update plan status")
	}
	if !ok {
		// Lost the guard: reload so the error reports the true state.
		current := from
		if stored, gerr := g.store.GetPlan(plan.ID); gerr == nil {
			current = stored.Status
			plan.Status = stored.Status
		}
		return &InvalidTransitionError{
			PlanID: plan.ID, Current: current, Attempted: string(to),
		}
	}

	g.emit(plan)
	return nil
}

// record appends to the approval audit trail. Failures here are logged,
// not fatal: the plan row is authoritative for the state machine.
func (g *Gate) record(plan *planner.ExecutionPlan, decision Decision, mods map[string]string, pause *planner.PausePoint, actorID string) {
	rec := &ApprovalRecord{
		ID:            uuid.New().String(),
		PlanID:        plan.ID,
		Round:         plan.Round,
		Decision:      decision,
		Modifications: mods,
		Reason:        pause,
		ActorID:       actorID,
		DecidedAt:     time.Now(),
	}
	if err := g.store.AppendApproval(rec); err != nil {
		logger.LogErr(err, "failed to append approval record", "plan_id", plan.ID)
	}
}

// View returns a plan with its latest approval and result.
func (g *Gate) View(planID string) (*PlanView, error) {
	plan, err := g.store.GetPlan(planID)
	if err != nil {
		return nil, err
	}

	view := &PlanView{Plan: plan}
	if rec, err := g.store.LatestApproval(planID); err == nil {
		view.Approval = rec
	}
	if res, err := g.store.GetResult(planID); err == nil {
		view.Result = res
	}
	return view, nil
}

// Pending lists plans awaiting a decision, for the approval queue.
func (g *Gate) Pending() ([]*planner.ExecutionPlan, error) {
	return g.store.ListPlansByStatus(planner.StatusPending)
}

func (g *Gate) emit(plan *planner.ExecutionPlan) {
	if g.notify != nil {
		g.notify(plan)
	}
}

func pausedStep(pause *planner.PausePoint) int {
	if pause == nil {
		return -1
	}
	return pause.Step
}

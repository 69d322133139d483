package gate

import (
	"errors"
	"fmt"
	"time"

	"cscx/executor"
	"cscx/planner"
)

// Decision is a human (or autonomous-policy) verdict on a pending plan.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// ApprovalRecord is one entry in the append-only audit trail. A plan
// accumulates one record per round: round 0 is the original submission,
// later rounds correspond to agentic pause points, each carrying the pause
// reason the approver saw.
type ApprovalRecord struct {
	ID            string              `json:"id"`
	PlanID        string              `json:"plan_id"`
	Round         int                 `json:"round"`
	Decision      Decision            `json:"decision"`
	Modifications map[string]string   `json:"modifications,omitempty"`
	Reason        *planner.PausePoint `json:"reason,omitempty"`
	ActorID       string              `json:"actor_id"`
	DecidedAt     time.Time           `json:"decided_at"`
}

// PlanView bundles a plan with its latest approval record and execution
// result for read endpoints.
type PlanView struct {
	Plan     *planner.ExecutionPlan    `json:"plan"`
	Approval *ApprovalRecord           `json:"approval,omitempty"`
	Result   *executor.ExecutionResult `json:"result,omitempty"`
}

// Store is the durable state behind the gate. UpdatePlanGuarded must only
// write the row when its current status equals from, and report whether it
// did; that guard is what serializes transitions across processes.
type Store interface {
	SavePlan(p *planner.ExecutionPlan) error
	GetPlan(id string) (*planner.ExecutionPlan, error)
	UpdatePlanGuarded(p *planner.ExecutionPlan, from planner.Status) (bool, error)
	ListPlansByStatus(status planner.Status) ([]*planner.ExecutionPlan, error)
	AppendApproval(rec *ApprovalRecord) error
	LatestApproval(planID string) (*ApprovalRecord, error)
	SaveResult(res *executor.ExecutionResult) error
	GetResult(planID string) (*executor.ExecutionResult, error)
}

// ErrPlanNotFound is returned when a plan id has no stored plan.
var ErrPlanNotFound = errors.New("plan not found")

// InvalidTransitionError reports a decision attempted against a plan that
// is not in the required state. When the plan was already decided, the
// error carries the original decision so a duplicate request gets an
// idempotent "already decided" reply rather than a second side effect.
type InvalidTransitionError struct {
	PlanID        string
	Current       planner.Status
	Attempted     string
	PriorDecision Decision
}

func (e *InvalidTransitionError) Error() string {
	if e.PriorDecision != "" {
		return fmt.Sprintf("plan %s already decided (%s); cannot %s while %s",
			e.PlanID, e.PriorDecision, e.Attempted, e.Current)
	}
	return fmt.Sprintf("plan %s is %s; cannot %s", e.PlanID, e.Current, e.Attempted)
}

package web

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"
	"github.com/rohanthewiz/serr"

	"cscx/classifier"
	"cscx/gate"
	"cscx/planner"
)

// CreatePlanRequest is the intake payload: a natural-language query about
// a customer, and whether the caller wants a multi-round agentic run.
type CreatePlanRequest struct {
	Query     string `json:"query"`
	SubjectID string `json:"subject_id"`
	SessionID string `json:"session_id,omitempty"`
	Agentic   bool   `json:"agentic,omitempty"`
}

// CreatePlanResponse carries either a plan awaiting approval or a
// clarification prompt when the request was ambiguous.
type CreatePlanResponse struct {
	PlanID           string                 `json:"plan_id,omitempty"`
	Plan             *planner.ExecutionPlan `json:"plan,omitempty"`
	RequiresApproval bool                   `json:"requires_approval"`
	Classification   *classifier.Result     `json:"classification,omitempty"`
	Ambiguous        bool                   `json:"ambiguous,omitempty"`
	Clarify          string                 `json:"clarify,omitempty"`
	Candidates       []classifier.Candidate `json:"candidates,omitempty"`
}

// DecisionRequest is an approve/reject on a pending plan.
type DecisionRequest struct {
	Decision      string            `json:"decision"`
	Modifications map[string]string `json:"modifications,omitempty"`
	ActorID       string            `json:"actor_id,omitempty"`
}

// ResumeRequest unblocks an agentic pause point.
type ResumeRequest struct {
	Approved bool   `json:"approved"`
	ActorID  string `json:"actor_id,omitempty"`
}

// DecisionResponse reports where a decision left the plan, with the
// execution outcome when it reached a terminal state.
type DecisionResponse struct {
	PlanID       string              `json:"plan_id"`
	Status       planner.Status      `json:"status"`
	Round        int                 `json:"round,omitempty"`
	Pause        *planner.PausePoint `json:"pause,omitempty"`
	Outcome      string              `json:"outcome,omitempty"`
	ArtifactRefs []string            `json:"artifact_refs,omitempty"`
	Errors       []string            `json:"errors,omitempty"`
}

// createPlanHandler runs the intake pipeline: classify, aggregate context,
// build the disclosed plan, and submit it to the approval gate.
func (p *Pipeline) createPlanHandler(c rweb.Context) error {
	var req CreatePlanRequest
	if err := json.Unmarshal(c.Request().Body(), &req); err != nil {
		return c.WriteError(serr.Wrap(err, "invalid request body"), 400)
	}
	if req.Query == "" {
		return c.WriteError(serr.New("query required"), 400)
	}
	if req.SubjectID == "" {
		return c.WriteError(serr.New("subject_id required"), 400)
	}

	session := classifier.SessionContext{SessionID: req.SessionID}
	if req.SessionID != "" {
		stored, err := p.Store.GetSessionContext(req.SessionID)
		if err != nil {
			logger.LogErr(err, "failed to load session context", "session_id", req.SessionID)
		} else {
			session = stored
		}
	}

	ctx := context.Background()
	outcome := p.Classifier.Classify(ctx, req.Query, session)

	if outcome.Ambiguous {
		return c.WriteJSON(CreatePlanResponse{
			Ambiguous:  true,
			Clarify:    outcome.Clarify,
			Candidates: outcome.Candidates,
		})
	}

	plan, err := p.Planner.Plan(ctx, outcome.Result, req.SubjectID, req.Query, req.Agentic)
	if err != nil {
		if errors.Is(err, planner.ErrContextAggregation) {
			return c.WriteError(err, 502)
		}
		return c.WriteError(serr.Wrap(err, "failed to build plan"), 500)
	}

	plan, requiresApproval, err := p.Gate.SubmitForApproval(ctx, plan)
	if err != nil {
		return writeGateError(c, err)
	}

	if req.SessionID != "" {
		p.rememberSession(req.SessionID, plan)
	}

	return c.WriteJSON(CreatePlanResponse{
		PlanID:           plan.ID,
		Plan:             plan,
		RequiresApproval: requiresApproval,
		Classification:   outcome.Result,
	})
}

// approvePlanHandler applies a human decision to a pending plan.
func (p *Pipeline) approvePlanHandler(c rweb.Context) error {
	planID := c.Request().Param("id")
	if planID == "" {
		return c.WriteError(serr.New("plan ID required"), 400)
	}

	var req DecisionRequest
	if err := json.Unmarshal(c.Request().Body(), &req); err != nil {
		return c.WriteError(serr.Wrap(err, "invalid request body"), 400)
	}

	var decision gate.Decision
	switch req.Decision {
	case "approve":
		decision = gate.DecisionApprove
	case "reject":
		decision = gate.DecisionReject
	default:
		return c.WriteError(serr.New("decision must be approve or reject"), 400)
	}

	actor := req.ActorID
	if actor == "" {
		actor = "unknown"
	}

	plan, err := p.Gate.Decide(context.Background(), planID, decision, req.Modifications, actor)
	if err != nil {
		return writeGateError(c, err)
	}
	return c.WriteJSON(p.decisionResponse(plan))
}

// resumePlanHandler unblocks an agentic pause.
func (p *Pipeline) resumePlanHandler(c rweb.Context) error {
	planID := c.Request().Param("id")
	if planID == "" {
		return c.WriteError(serr.New("plan ID required"), 400)
	}

	var req ResumeRequest
	if err := json.Unmarshal(c.Request().Body(), &req); err != nil {
		return c.WriteError(serr.Wrap(err, "invalid request body"), 400)
	}

	actor := req.ActorID
	if actor == "" {
		actor = "unknown"
	}

	plan, err := p.Gate.Resume(context.Background(), planID, req.Approved, actor)
	if err != nil {
		return writeGateError(c, err)
	}
	return c.WriteJSON(p.decisionResponse(plan))
}

// decisionResponse summarizes a post-decision plan, attaching the stored
// execution result once the plan is terminal.
func (p *Pipeline) decisionResponse(plan *planner.ExecutionPlan) DecisionResponse {
	resp := DecisionResponse{
		PlanID: plan.ID,
		Status: plan.Status,
		Round:  plan.Round,
		Pause:  plan.Pause,
	}
	if plan.Status.Terminal() {
		if res, err := p.Store.GetResult(plan.ID); err == nil {
			resp.Outcome = string(res.Outcome)
			resp.ArtifactRefs = res.ArtifactRefs
			resp.Errors = res.Errors
		}
	}
	return resp
}

// getPlanHandler returns a plan with its latest approval record and
// execution result.
func (p *Pipeline) getPlanHandler(c rweb.Context) error {
	planID := c.Request().Param("id")
	if planID == "" {
		return c.WriteError(serr.New("plan ID required"), 400)
	}

	view, err := p.Gate.View(planID)
	if err != nil {
		return writeGateError(c, err)
	}
	return c.WriteJSON(view)
}

// pendingPlansHandler lists the approval queue.
func (p *Pipeline) pendingPlansHandler(c rweb.Context) error {
	plans, err := p.Gate.Pending()
	if err != nil {
		return c.WriteError(serr.Wrap(err, "failed to list pending plans"), 500)
	}
	if plans == nil {
		plans = []*planner.ExecutionPlan{}
	}
	return c.WriteJSON(plans)
}

// rememberSession persists the session's active category so follow-up
// requests keep their contextual boost.
func (p *Pipeline) rememberSession(sessionID string, plan *planner.ExecutionPlan) {
	def, ok := p.Planner.Definition(plan.TaskType)
	if !ok {
		return
	}
	err := p.Store.SaveSessionContext(classifier.SessionContext{
		SessionID:      sessionID,
		ActiveCategory: def.Category,
	}, plan.TaskType)
	if err != nil {
		logger.LogErr(err, "failed to save session context", "session_id", sessionID)
	}
}

// writeGateError maps the gate's typed errors onto HTTP statuses: a lost
// plan is 404, an invalid transition is a 409 carrying the prior decision.
func writeGateError(c rweb.Context, err error) error {
	if errors.Is(err, gate.ErrPlanNotFound) {
		return c.WriteError(err, 404)
	}

	var invalid *gate.InvalidTransitionError
	if errors.As(err, &invalid) {
		c.Response().SetStatus(409)
		return c.WriteJSON(map[string]interface{}{
			"error":          invalid.Error(),
			"status":         string(invalid.Current),
			"prior_decision": string(invalid.PriorDecision),
		})
	}

	return c.WriteError(err, 500)
}

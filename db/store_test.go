package db

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"cscx/executor"
	"cscx/gate"
	"cscx/planner"
	"cscx/task"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	db, err := open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db)
}

func testPlan(id string) *planner.ExecutionPlan {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &planner.ExecutionPlan{
		ID:        id,
		TaskType:  task.TypeQBRGeneration,
		SubjectID: "acme-corp",
		Query:     "create a QBR for Acme",
		Status:    planner.StatusPending,
		RiskLevel: task.RiskLow,
		Inputs: []planner.PlanInput{
			{Source: "platform", Summary: "account metrics: health_score", Usage: "fills in figures"},
		},
		Structure: planner.PlanStructure{
			Sections:    []string{"Executive Summary", "Usage"},
			Destination: "google_docs",
			Service:     "docs",
			Operation:   "create_document",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestPlanRoundTrip(t *testing.T) {
	s := testStore(t)

	plan := testPlan("plan-rt")
	plan.Agentic = true
	plan.Steps = []planner.PlanStep{
		{Tool: "drive_search", Description: "find the deck", Risk: task.RiskLow, Status: planner.StepPending},
		{Tool: "gmail_send", Description: "send it", Risk: task.RiskHigh, Status: planner.StepPending},
	}
	plan.Pause = &planner.PausePoint{Tool: "gmail_send", RiskLevel: task.RiskHigh, Reason: "external send", Step: 1}
	plan.Modifications = map[string]string{"tone": "formal"}

	if err := s.SavePlan(plan); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := s.GetPlan("plan-rt")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.TaskType != plan.TaskType || got.Status != plan.Status || got.RiskLevel != plan.RiskLevel {
		t.Errorf("core fields changed on round trip: %+v", got)
	}
	if len(got.Inputs) != 1 || got.Inputs[0].Source != "platform" {
		t.Errorf("inputs = %+v, want the platform citation", got.Inputs)
	}
	if len(got.Steps) != 2 || got.Steps[1].Tool != "gmail_send" {
		t.Errorf("steps = %+v", got.Steps)
	}
	if got.Pause == nil || got.Pause.Step != 1 {
		t.Errorf("pause = %+v, want step 1", got.Pause)
	}
	if got.Modifications["tone"] != "formal" {
		t.Errorf("modifications = %v", got.Modifications)
	}
	if len(got.Structure.Sections) != 2 {
		t.Errorf("structure sections = %v", got.Structure.Sections)
	}
}

func TestGetPlanNotFound(t *testing.T) {
	s := testStore(t)
	_, err := s.GetPlan("nope")
	if !errors.Is(err, gate.ErrPlanNotFound) {
		t.Fatalf("got %v, want ErrPlanNotFound", err)
	}
}

func TestSavePlanUpsert(t *testing.T) {
	s := testStore(t)

	plan := testPlan("plan-up")
	if err := s.SavePlan(plan); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	plan.Status = planner.StatusApproved
	plan.UpdatedAt = time.Now().UTC()
	if err := s.SavePlan(plan); err != nil {
		t.Fatalf("resave failed: %v", err)
	}

	got, _ := s.GetPlan("plan-up")
	if got.Status != planner.StatusApproved {
		t.Errorf("status = %s, want approved after upsert", got.Status)
	}
}

func TestUpdatePlanGuarded(t *testing.T) {
	s := testStore(t)

	plan := testPlan("plan-guard")
	if err := s.SavePlan(plan); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	plan.Status = planner.StatusApproved
	ok, err := s.UpdatePlanGuarded(plan, planner.StatusPending)
	if err != nil {
		t.Fatalf("guarded update failed: %v", err)
	}
	if !ok {
		t.Fatal("guarded update from the true status should succeed")
	}

	// Same guard again: the row is no longer pending.
	plan.Status = planner.StatusRejected
	ok, err = s.UpdatePlanGuarded(plan, planner.StatusPending)
	if err != nil {
		t.Fatalf("guarded update failed: %v", err)
	}
	if ok {
		t.Fatal("guarded update against a stale status must not write")
	}

	got, _ := s.GetPlan("plan-guard")
	if got.Status != planner.StatusApproved {
		t.Errorf("status = %s, want approved untouched by the lost guard", got.Status)
	}
}

func TestListPlansByStatus(t *testing.T) {
	s := testStore(t)

	a := testPlan("plan-a")
	b := testPlan("plan-b")
	b.Status = planner.StatusCompleted
	if err := s.SavePlan(a); err != nil {
		t.Fatal(err)
	}
	if err := s.SavePlan(b); err != nil {
		t.Fatal(err)
	}

	pending, err := s.ListPlansByStatus(planner.StatusPending)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "plan-a" {
		t.Errorf("pending = %+v, want just plan-a", pending)
	}
}

func TestApprovalTrail(t *testing.T) {
	s := testStore(t)

	plan := testPlan("plan-appr")
	if err := s.SavePlan(plan); err != nil {
		t.Fatal(err)
	}

	first := &gate.ApprovalRecord{
		ID: "rec-1", PlanID: "plan-appr", Round: 0,
		Decision: gate.DecisionApprove,
		ActorID:  "csm-7", DecidedAt: time.Now().UTC(),
	}
	second := &gate.ApprovalRecord{
		ID: "rec-2", PlanID: "plan-appr", Round: 1,
		Decision: gate.DecisionReject,
		Reason:   &planner.PausePoint{Tool: "gmail_send", RiskLevel: task.RiskHigh, Reason: "external send", Step: 1},
		ActorID:  "csm-7", DecidedAt: time.Now().UTC().Add(time.Second),
	}
	if err := s.AppendApproval(first); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := s.AppendApproval(second); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	latest, err := s.LatestApproval("plan-appr")
	if err != nil {
		t.Fatalf("latest failed: %v", err)
	}
	if latest == nil || latest.ID != "rec-2" {
		t.Fatalf("latest = %+v, want rec-2", latest)
	}
	if latest.Reason == nil || latest.Reason.Tool != "gmail_send" {
		t.Errorf("latest reason = %+v", latest.Reason)
	}

	all, err := s.ListApprovals("plan-appr")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 2 || all[0].ID != "rec-1" {
		t.Errorf("trail = %+v, want rec-1 then rec-2", all)
	}

	none, err := s.LatestApproval("never-decided")
	if err != nil {
		t.Fatalf("latest failed: %v", err)
	}
	if none != nil {
		t.Errorf("undecided plan should have no approval, got %+v", none)
	}
}

func TestResultWrittenOnce(t *testing.T) {
	s := testStore(t)

	plan := testPlan("plan-res")
	if err := s.SavePlan(plan); err != nil {
		t.Fatal(err)
	}

	first := &executor.ExecutionResult{
		PlanID:       "plan-res",
		Outcome:      executor.OutcomePartial,
		ArtifactRefs: []string{"docs://create_document/abc"},
		Errors:       []string{"gmail_send: declined"},
		FinishedAt:   time.Now().UTC(),
	}
	if err := s.SaveResult(first); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	// A second write must not replace the terminal record.
	dup := &executor.ExecutionResult{
		PlanID:     "plan-res",
		Outcome:    executor.OutcomeSuccess,
		FinishedAt: time.Now().UTC(),
	}
	if err := s.SaveResult(dup); err != nil {
		t.Fatalf("duplicate save errored: %v", err)
	}

	got, err := s.GetResult("plan-res")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Outcome != executor.OutcomePartial {
		t.Errorf("outcome = %s, want the original partial", got.Outcome)
	}
	if len(got.ArtifactRefs) != 1 || len(got.Errors) != 1 {
		t.Errorf("refs/errors = %v / %v", got.ArtifactRefs, got.Errors)
	}
}

func TestSessionContextRoundTrip(t *testing.T) {
	s := testStore(t)

	sc, err := s.GetSessionContext("sess-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if sc.ActiveCategory != "" {
		t.Errorf("new session should have no category, got %s", sc.ActiveCategory)
	}

	sc.ActiveCategory = task.CategoryReporting
	if err := s.SaveSessionContext(sc, task.TypeQBRGeneration); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := s.GetSessionContext("sess-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.ActiveCategory != task.CategoryReporting {
		t.Errorf("category = %s, want reporting", got.ActiveCategory)
	}
}

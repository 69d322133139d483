package planner

import (
	"context"
	"errors"
	"testing"

	"cscx/classifier"
	"cscx/task"
)

// fakeAggregator returns canned context or a canned error.
type fakeAggregator struct {
	ctx *AggregatedContext
	err error
}

func (f *fakeAggregator) Aggregate(_ context.Context, _ task.Type, _, _ string) (*AggregatedContext, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ctx, nil
}

func sampleContext() *AggregatedContext {
	return &AggregatedContext{
		Knowledge: []KnowledgeItem{
			{Source: "playbooks", Title: "QBR best practices", Summary: "structure and talking points"},
		},
		PlatformData: map[string]interface{}{
			"health_score": 72,
			"arr":          120000,
		},
		ExternalSources: []ExternalSource{
			{System: "zendesk", Ref: "ticket-4411", Summary: "open P2 about SSO"},
		},
	}
}

func TestPlanDisclosesInputs(t *testing.T) {
	p := New(task.NewRegistry(), &fakeAggregator{ctx: sampleContext()})

	plan, err := p.Plan(context.Background(),
		&classifier.Result{Type: task.TypeQBRGeneration, Confidence: 0.9},
		"cust-1", "put together the qbr", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if plan.ID == "" {
		t.Error("plan must get an id")
	}
	if plan.Status != StatusPending {
		t.Errorf("new plan must be pending, got %s", plan.Status)
	}
	// knowledge + platform + external source = 3 cited inputs
	if len(plan.Inputs) != 3 {
		t.Fatalf("expected 3 cited inputs, got %d: %+v", len(plan.Inputs), plan.Inputs)
	}
	for _, in := range plan.Inputs {
		if in.Source == "" || in.Usage == "" {
			t.Errorf("every input must cite source and usage: %+v", in)
		}
	}
	if plan.Structure.Destination != "google_slides" {
		t.Errorf("expected google_slides destination, got %s", plan.Structure.Destination)
	}
	if len(plan.Structure.Sections) == 0 {
		t.Error("document-shaped plan should disclose sections")
	}
	if len(plan.Steps) != 0 {
		t.Error("non-agentic plan should carry no steps")
	}
}

func TestPlanAgenticCarriesSteps(t *testing.T) {
	p := New(task.NewRegistry(), &fakeAggregator{ctx: sampleContext()})

	plan, err := p.Plan(context.Background(),
		&classifier.Result{Type: task.TypeQBRGeneration, Confidence: 0.9},
		"cust-1", "put together the qbr", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !plan.Agentic {
		t.Error("plan should be marked agentic")
	}
	if len(plan.Steps) == 0 {
		t.Fatal("agentic plan must carry steps")
	}
	for _, step := range plan.Steps {
		if step.Status != StepPending {
			t.Errorf("step %s should start pending, got %s", step.Tool, step.Status)
		}
	}
}

func TestPlanRiskEscalation(t *testing.T) {
	cases := []struct {
		name     string
		taskType task.Type
		elevated bool
		want     task.RiskLevel
	}{
		// read-only report keeps the task default
		{"report default", task.TypeHealthSummary, false, task.RiskLow},
		// external send sits a tier above its default
		{"email send escalates", task.TypeEmailDraft, false, task.RiskHigh},
		// elevated context pushes a tier up
		{"elevated context", task.TypeHealthSummary, true, task.RiskMedium},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			agg := sampleContext()
			agg.ElevatedRisk = tc.elevated
			p := New(task.NewRegistry(), &fakeAggregator{ctx: agg})

			plan, err := p.Plan(context.Background(),
				&classifier.Result{Type: tc.taskType, Confidence: 0.9},
				"cust-1", "do the thing", false)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if plan.RiskLevel != tc.want {
				t.Errorf("expected risk %s, got %s", tc.want, plan.RiskLevel)
			}
		})
	}
}

func TestPlanAggregationFailure(t *testing.T) {
	p := New(task.NewRegistry(), &fakeAggregator{err: errors.New("kb search unavailable")})

	plan, err := p.Plan(context.Background(),
		&classifier.Result{Type: task.TypeKickoffPlan, Confidence: 0.95},
		"cust-1", "kickoff plan", false)
	if err == nil {
		t.Fatal("expected plan creation to fail")
	}
	if !errors.Is(err, ErrContextAggregation) {
		t.Errorf("expected ErrContextAggregation, got %v", err)
	}
	if plan != nil {
		t.Error("no plan may be created on aggregation failure")
	}
}

func TestPlanUnknownTaskType(t *testing.T) {
	p := New(task.NewRegistry(), &fakeAggregator{ctx: sampleContext()})

	_, err := p.Plan(context.Background(),
		&classifier.Result{Type: task.TypeCustom, Confidence: 0.5},
		"cust-1", "mystery", false)
	if err == nil {
		t.Fatal("planning an unregistered task type must fail")
	}
}

func TestStatusTerminal(t *testing.T) {
	terminal := []Status{StatusRejected, StatusCompleted, StatusFailed}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	open := []Status{StatusPending, StatusApproved, StatusExecuting}
	for _, s := range open {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

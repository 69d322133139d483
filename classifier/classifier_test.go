package classifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"cscx/config"
	"cscx/task"
)

// fakeLLM is a canned CompletionClient for fallback-tier tests.
type fakeLLM struct {
	response string
	err      error
	calls    int
	delay    time.Duration
}

func (f *fakeLLM) Complete(ctx context.Context, system, user string) (string, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func newTestClassifier(llm CompletionClient) *Classifier {
	return New(task.NewRegistry(), llm, config.Defaults().Classifier)
}

func TestPhraseTierExactMatch(t *testing.T) {
	// Scenario: "kickoff plan for Acme" exact-matches a registered phrase
	c := newTestClassifier(nil)

	outcome := c.Classify(context.Background(), "kickoff plan for Acme", SessionContext{})
	if outcome.Ambiguous {
		t.Fatal("expected a resolved classification")
	}
	if outcome.Result.Type != task.TypeKickoffPlan {
		t.Errorf("expected kickoff_plan, got %s", outcome.Result.Type)
	}
	if outcome.Result.MatchedVia != TierPhrase {
		t.Errorf("expected phrase tier, got %s", outcome.Result.MatchedVia)
	}
	if outcome.Result.Confidence < 0.95 {
		t.Errorf("phrase tier confidence should be >= 0.95, got %v", outcome.Result.Confidence)
	}
	if outcome.Result.UsedLLM {
		t.Error("phrase-tier match should not consult the LLM")
	}
}

func TestFuzzyTierSynonymExpansion(t *testing.T) {
	// Scenario: no exact phrase, but "put together" ~ create and
	// "quarterly review" ~ qbr resolve through synonym expansion without
	// the fallback tier (the nil client proves the network-down case).
	c := newTestClassifier(nil)

	outcome := c.Classify(context.Background(),
		"I need to put together something for the quarterly review", SessionContext{})
	if outcome.Ambiguous {
		t.Fatalf("expected a resolved classification, got ambiguous: %s", outcome.Clarify)
	}
	if outcome.Result.Type != task.TypeQBRGeneration {
		t.Errorf("expected qbr_generation, got %s", outcome.Result.Type)
	}
	if outcome.Result.Confidence < 0.6 {
		t.Errorf("expected confidence >= 0.6 after synonym expansion, got %v", outcome.Result.Confidence)
	}
	if outcome.Result.MatchedVia != TierKeyword {
		t.Errorf("expected keyword tier, got %s", outcome.Result.MatchedVia)
	}
}

func TestConfidenceAlwaysInRange(t *testing.T) {
	c := newTestClassifier(nil)
	queries := []string{
		"kickoff plan for Acme",
		"draft an email to the customer about renewal",
		"what's the weather like",
		"",
		"schedule a meeting with the stakeholders next week",
		"usage report breakdown by feature please",
	}
	for _, q := range queries {
		outcome := c.Classify(context.Background(), q, SessionContext{})
		if outcome.Result == nil {
			continue
		}
		if outcome.Result.Confidence < 0 || outcome.Result.Confidence > 1 {
			t.Errorf("query %q: confidence %v out of [0,1]", q, outcome.Result.Confidence)
		}
	}
}

func TestContextualBoost(t *testing.T) {
	c := newTestClassifier(nil)

	base := c.Classify(context.Background(), "health summary for Initech", SessionContext{})
	if base.Ambiguous {
		t.Fatal("expected resolved classification")
	}

	boosted := c.Classify(context.Background(), "health summary for Initech",
		SessionContext{ActiveCategory: task.CategoryReporting})
	if boosted.Ambiguous {
		t.Fatal("expected resolved classification")
	}

	if boosted.Result.ContextBoost != 0.15 {
		t.Errorf("expected context boost 0.15, got %v", boosted.Result.ContextBoost)
	}
	want := base.Result.Confidence + 0.15
	if want > 1.0 {
		want = 1.0
	}
	if boosted.Result.Confidence != want {
		t.Errorf("expected boosted confidence %v, got %v", want, boosted.Result.Confidence)
	}
}

func TestBoostCappedAtOne(t *testing.T) {
	c := newTestClassifier(nil)

	outcome := c.Classify(context.Background(), "kickoff plan for Acme",
		SessionContext{ActiveCategory: task.CategoryOnboarding})
	if outcome.Ambiguous {
		t.Fatal("expected resolved classification")
	}
	if outcome.Result.Confidence > 1.0 {
		t.Errorf("confidence must cap at 1.0, got %v", outcome.Result.Confidence)
	}
}

func TestAmbiguousQueryAsksForClarification(t *testing.T) {
	c := newTestClassifier(nil)

	outcome := c.Classify(context.Background(), "hmm what do you think about pineapples", SessionContext{})
	if !outcome.Ambiguous {
		t.Fatalf("expected ambiguous outcome, got %+v", outcome.Result)
	}
	if outcome.Clarify == "" {
		t.Error("ambiguous outcome must carry a clarifying question")
	}
	if outcome.Result != nil {
		t.Error("ambiguous outcome must not carry a result")
	}
}

func TestLLMFallbackOverridesWeakHeuristic(t *testing.T) {
	llm := &fakeLLM{response: `{"task_type": "risk_assessment", "confidence": 0.85, "reason": "asks about churn likelihood"}`}
	c := newTestClassifier(llm)

	outcome := c.Classify(context.Background(),
		"how worried should I be about Globex walking away", SessionContext{})
	if llm.calls != 1 {
		t.Fatalf("expected exactly one LLM call, got %d", llm.calls)
	}
	if outcome.Ambiguous {
		t.Fatalf("expected llm fallback to resolve, got ambiguous: %s", outcome.Clarify)
	}
	if outcome.Result.Type != task.TypeRiskAssessment {
		t.Errorf("expected risk_assessment, got %s", outcome.Result.Type)
	}
	if !outcome.Result.UsedLLM {
		t.Error("result should record that the LLM was consulted")
	}
	if outcome.Result.MatchedVia != TierLLM {
		t.Errorf("expected llm tier, got %s", outcome.Result.MatchedVia)
	}
}

func TestLLMNotConsultedAboveThreshold(t *testing.T) {
	llm := &fakeLLM{response: `{"task_type": "email_draft", "confidence": 0.99}`}
	c := newTestClassifier(llm)

	c.Classify(context.Background(), "kickoff plan for Acme", SessionContext{})
	if llm.calls != 0 {
		t.Errorf("confident phrase match must not consult the LLM, got %d calls", llm.calls)
	}
}

func TestLLMErrorDegradesToHeuristicCandidate(t *testing.T) {
	llm := &fakeLLM{err: errors.New("api unreachable")}
	c := newTestClassifier(llm)

	// "draft" + "renewal" give a weak-but-floor-clearing keyword candidate
	outcome := c.Classify(context.Background(), "draft the renewal talking points", SessionContext{})
	if llm.calls != 1 {
		t.Fatalf("expected LLM to be consulted, got %d calls", llm.calls)
	}
	if outcome.Ambiguous {
		t.Fatalf("llm failure must degrade to the heuristic candidate, got ambiguous")
	}
	if outcome.Result.UsedLLM {
		t.Error("failed LLM call must not be recorded as used")
	}
}

func TestLLMTimeoutDegrades(t *testing.T) {
	cfg := config.Defaults().Classifier
	cfg.LLMTimeout = 10 * time.Millisecond
	llm := &fakeLLM{delay: 200 * time.Millisecond, response: `{"task_type": "email_draft", "confidence": 0.9}`}
	c := New(task.NewRegistry(), llm, cfg)

	start := time.Now()
	outcome := c.Classify(context.Background(), "draft the renewal talking points", SessionContext{})
	if elapsed := time.Since(start); elapsed > 150*time.Millisecond {
		t.Errorf("timeout not honored, classify took %v", elapsed)
	}
	if outcome.Ambiguous {
		t.Error("timeout must degrade to the heuristic candidate")
	}
}

func TestLLMUnknownTypeIgnored(t *testing.T) {
	llm := &fakeLLM{response: `{"task_type": "order_pizza", "confidence": 0.99}`}
	c := newTestClassifier(llm)

	outcome := c.Classify(context.Background(), "yadda yadda nonsense", SessionContext{})
	if !outcome.Ambiguous {
		t.Error("an unknown task type from the model must not be trusted")
	}
}

func TestParseLLMClassification(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		wantErr bool
		want    string
	}{
		{"bare json", `{"task_type": "qbr_generation", "confidence": 0.8}`, false, "qbr_generation"},
		{"prose wrapped", "Sure! Here is my answer:\n```json\n{\"task_type\": \"email_draft\", \"confidence\": 0.7}\n```", false, "email_draft"},
		{"no json", "I am not sure about that", true, ""},
		{"missing type", `{"confidence": 0.7}`, true, ""},
		{"garbage json", `{"task_type": }`, true, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := parseLLMClassification(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if parsed.TaskType != tc.want {
				t.Errorf("expected %s, got %s", tc.want, parsed.TaskType)
			}
		})
	}
}

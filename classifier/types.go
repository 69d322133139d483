package classifier

import (
	"context"

	"cscx/task"
)

// MatchTier identifies which classification tier produced a candidate.
type MatchTier string

const (
	TierPhrase  MatchTier = "phrase"
	TierKeyword MatchTier = "keyword"
	TierLLM     MatchTier = "llm"
)

// SessionContext carries per-conversation state into classification.
// It replaces any module-level session globals: each Classify call is pure
// given the registry and this value.
type SessionContext struct {
	SessionID string
	// ActiveCategory is the agent flow the user is already in, if any.
	// Task types in this category get the contextual confidence boost.
	ActiveCategory task.Category
}

// Candidate is one scored task type considered during classification.
type Candidate struct {
	Type       task.Type `json:"task_type"`
	Confidence float64   `json:"confidence"`
	Tier       MatchTier `json:"tier"`
	Matched    []string  `json:"matched,omitempty"` // phrases or keywords that hit
}

// Result is a successful classification.
type Result struct {
	Type         task.Type   `json:"task_type"`
	Confidence   float64     `json:"confidence"`
	MatchedVia   MatchTier   `json:"matched_via"`
	ContextBoost float64     `json:"context_boost"`
	UsedLLM      bool        `json:"used_llm"`
	Candidates   []Candidate `json:"candidates,omitempty"`
}

// Outcome is the full classification outcome. Ambiguity is an expected,
// common case, so it is modeled as a value rather than an error: when
// Ambiguous is set, Result is nil and Clarify holds a question to put back
// to the user.
type Outcome struct {
	Result     *Result     `json:"result,omitempty"`
	Ambiguous  bool        `json:"ambiguous"`
	Clarify    string      `json:"clarify,omitempty"`
	Candidates []Candidate `json:"candidates,omitempty"`
}

// CompletionClient is the opaque text-completion collaborator used by the
// LLM fallback tier.
type CompletionClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

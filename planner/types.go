package planner

import (
	"time"

	"cscx/task"
)

// Status represents the status of an execution plan. A plan holds exactly
// one status at a time; rejected, completed, and failed are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusExecuting Status = "executing"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusCompleted || s == StatusFailed
}

// StepStatus represents the status of a single plan step.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepSucceeded StepStatus = "succeeded"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

// PlanInput cites one aggregated context item the plan will use, and why.
// The inputs list is what the approver reads to judge the plan.
type PlanInput struct {
	Source  string `json:"source"`
	Summary string `json:"summary"`
	Usage   string `json:"usage"`
}

// PlanStructure discloses the shape of the output and where it will land.
type PlanStructure struct {
	Sections    []string `json:"sections,omitempty"`
	Destination string   `json:"destination"`
	Service     string   `json:"service"`
	Operation   string   `json:"operation"`
}

// PlanStep is one sub-action of an agentic execution.
type PlanStep struct {
	Tool        string         `json:"tool"`
	Description string         `json:"description"`
	Risk        task.RiskLevel `json:"risk"`
	Status      StepStatus     `json:"status"`
	ArtifactRef string         `json:"artifact_ref,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// PausePoint records why an agentic execution stopped for approval: the
// specific tool, its risk tier, and a human-readable reason, so the
// approver sees why this step needs sign-off, not just the original plan.
type PausePoint struct {
	Tool      string         `json:"tool_name"`
	RiskLevel task.RiskLevel `json:"risk_level"`
	Reason    string         `json:"reason"`
	Step      int            `json:"step"`
}

// ExecutionPlan is the disclosed, approvable description of what data will
// be used and what action will be taken for a classified request. After
// creation it is owned by the approval gate: status (plus the pause/round
// bookkeeping and modifications) changes only through gate transitions.
type ExecutionPlan struct {
	ID            string            `json:"id"`
	TaskType      task.Type         `json:"task_type"`
	SubjectID     string            `json:"subject_id"`
	Query         string            `json:"query"`
	Status        Status            `json:"status"`
	RiskLevel     task.RiskLevel    `json:"risk_level"`
	Inputs        []PlanInput       `json:"inputs"`
	Structure     PlanStructure     `json:"structure"`
	Steps         []PlanStep        `json:"steps,omitempty"`
	StepCursor    int               `json:"step_cursor"`
	Agentic       bool              `json:"agentic"`
	Round         int               `json:"round"`
	Pause         *PausePoint       `json:"pause,omitempty"`
	Modifications map[string]string `json:"modifications,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// KnowledgeItem is one knowledge-base hit from the context aggregator.
type KnowledgeItem struct {
	Source  string `json:"source"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// ExternalSource is a third-party record the aggregator pulled in.
type ExternalSource struct {
	System  string `json:"system"`
	Ref     string `json:"ref"`
	Summary string `json:"summary"`
}

// AggregatedContext is the shape the planner consumes from the context
// aggregator collaborator. The core depends only on this structure, not on
// how knowledge search or metrics retrieval actually work.
type AggregatedContext struct {
	Knowledge       []KnowledgeItem        `json:"knowledge"`
	PlatformData    map[string]interface{} `json:"platform_data"`
	ExternalSources []ExternalSource       `json:"external_sources"`
	// ElevatedRisk flags context that should push the plan's risk a tier
	// above the task default (e.g. an unresolved escalation on the account).
	ElevatedRisk bool   `json:"elevated_risk"`
	RiskReason   string `json:"risk_reason,omitempty"`
}

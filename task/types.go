package task

// Type identifies a supported request category. The set is closed: every
// type the classifier can resolve to has a Definition in the registry.
type Type string

const (
	TypeKickoffPlan     Type = "kickoff_plan"
	TypeRiskAssessment  Type = "risk_assessment"
	TypeQBRGeneration   Type = "qbr_generation"
	TypeHealthSummary   Type = "health_summary"
	TypeRenewalBrief    Type = "renewal_brief"
	TypeMeetingSchedule Type = "meeting_schedule"
	TypeEmailDraft      Type = "email_draft"
	TypeDocGeneration   Type = "doc_generation"
	TypeUsageReport     Type = "usage_report"

	// TypeCustom is the unclassified bucket. It never matches a tier;
	// callers receiving it should ask the user to clarify.
	TypeCustom Type = "custom"
)

// Category groups task types for contextual boosting. A session with an
// active category (e.g. the user is mid-onboarding) boosts types in it.
type Category string

const (
	CategoryOnboarding Category = "onboarding"
	CategoryRisk       Category = "risk"
	CategoryReporting  Category = "reporting"
	CategoryMeetings   Category = "meetings"
	CategoryEmail      Category = "email"
	CategoryDocs       Category = "docs"
	CategoryGeneral    Category = "general"
)

// RiskLevel is a coarse measure of how consequential an action is.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// rank orders risk levels for comparison. Unknown values rank highest so a
// corrupted level never slips under an autonomous ceiling.
func (r RiskLevel) rank() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	}
	return 3
}

// AtMost reports whether r is no riskier than ceiling.
func (r RiskLevel) AtMost(ceiling RiskLevel) bool {
	return r.rank() <= ceiling.rank()
}

// Escalate returns the next tier up, capped at high.
func (r RiskLevel) Escalate() RiskLevel {
	switch r {
	case RiskLow:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// Max returns the riskier of r and other.
func (r RiskLevel) Max(other RiskLevel) RiskLevel {
	if other.rank() > r.rank() {
		return other
	}
	return r
}

// Binding maps a task type to the external workspace operation that
// ultimately fulfills it. The executor treats these as opaque names.
type Binding struct {
	Service      string `json:"service"`   // e.g. "google_docs", "gmail"
	Operation    string `json:"operation"` // e.g. "create_document", "send_email"
	ExternalSend bool   `json:"external_send"`
}

// StepTemplate describes one sub-action of an agentic execution, with the
// risk tier the approval gate checks against the autonomous ceiling.
type StepTemplate struct {
	Tool        string    `json:"tool"`
	Description string    `json:"description"`
	Risk        RiskLevel `json:"risk"`
}

// Definition is one registry entry: everything the classifier and planner
// need to know about a task type.
type Definition struct {
	Type           Type
	Category       Category
	TriggerPhrases []string // exact phrases, matched against the normalized query
	Keywords       []string // keyword set for the fuzzy tier; entries may be multi-word
	DefaultRisk    RiskLevel
	Binding        Binding
	Sections       []string // disclosed output structure for document-shaped tasks
	Destination    string   // where the artifact lands
	Steps          []StepTemplate
}

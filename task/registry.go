package task

// Registry holds the task type table. It is built once at startup and
// read-only afterwards, so lookups need no locking.
type Registry struct {
	defs  map[Type]Definition
	order []Type
}

// NewRegistry builds the registry with the built-in task table.
func NewRegistry() *Registry {
	r := &Registry{defs: make(map[Type]Definition)}
	for _, def := range builtinDefinitions() {
		r.add(def)
	}
	return r
}

func (r *Registry) add(def Definition) {
	if _, exists := r.defs[def.Type]; !exists {
		r.order = append(r.order, def.Type)
	}
	r.defs[def.Type] = def
}

// Get returns the definition for a task type.
func (r *Registry) Get(t Type) (Definition, bool) {
	def, ok := r.defs[t]
	return def, ok
}

// Types returns all registered types in stable registration order.
func (r *Registry) Types() []Type {
	out := make([]Type, len(r.order))
	copy(out, r.order)
	return out
}

// Definitions returns all registry entries in stable order.
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, r.defs[t])
	}
	return out
}

// builtinDefinitions is the full task table. TypeCustom is deliberately
// absent: it is the fallback when nothing here matches.
func builtinDefinitions() []Definition {
	return []Definition{
		{
			Type:           TypeKickoffPlan,
			Category:       CategoryOnboarding,
			TriggerPhrases: []string{"kickoff plan", "kick off plan", "onboarding plan", "launch plan"},
			Keywords:       []string{"kickoff", "onboarding", "launch", "welcome", "implementation", "rollout", "plan"},
			DefaultRisk:    RiskLow,
			Binding:        Binding{Service: "google_docs", Operation: "create_document"},
			Sections:       []string{"Objectives", "Stakeholders", "Timeline", "Milestones", "Success Criteria"},
			Destination:    "google_docs",
			Steps: []StepTemplate{
				{Tool: "docs_create", Description: "Create the kickoff document", Risk: RiskLow},
				{Tool: "docs_populate", Description: "Fill in objectives and timeline from account data", Risk: RiskLow},
				{Tool: "drive_share", Description: "Share the document with the account team", Risk: RiskMedium},
			},
		},
		{
			Type:           TypeRiskAssessment,
			Category:       CategoryRisk,
			TriggerPhrases: []string{"risk assessment", "churn risk", "health check"},
			Keywords:       []string{"risk", "churn", "health", "escalation", "warning", "assessment", "renewal"},
			DefaultRisk:    RiskLow,
			Binding:        Binding{Service: "google_docs", Operation: "create_document"},
			Sections:       []string{"Risk Summary", "Usage Signals", "Support History", "Recommended Actions"},
			Destination:    "google_docs",
			Steps: []StepTemplate{
				{Tool: "docs_create", Description: "Create the risk assessment document", Risk: RiskLow},
				{Tool: "docs_populate", Description: "Summarize risk signals and recommendations", Risk: RiskLow},
			},
		},
		{
			Type:           TypeQBRGeneration,
			Category:       CategoryReporting,
			TriggerPhrases: []string{"qbr", "quarterly business review", "business review deck"},
			Keywords:       []string{"qbr", "quarterly", "review", "business", "deck", "slides", "create", "presentation"},
			DefaultRisk:    RiskMedium,
			Binding:        Binding{Service: "google_slides", Operation: "create_presentation"},
			Sections:       []string{"Executive Summary", "Adoption & Usage", "Support Review", "Roadmap", "Next Quarter Goals"},
			Destination:    "google_slides",
			Steps: []StepTemplate{
				{Tool: "slides_create", Description: "Create the QBR deck", Risk: RiskLow},
				{Tool: "slides_populate", Description: "Build slides from usage and support data", Risk: RiskLow},
				{Tool: "drive_share", Description: "Share the deck with customer stakeholders", Risk: RiskHigh},
			},
		},
		{
			Type:           TypeHealthSummary,
			Category:       CategoryReporting,
			TriggerPhrases: []string{"health summary", "account summary", "customer summary"},
			Keywords:       []string{"health", "summary", "score", "account", "status", "overview"},
			DefaultRisk:    RiskLow,
			Binding:        Binding{Service: "google_docs", Operation: "create_document"},
			Sections:       []string{"Health Score", "Key Metrics", "Open Items"},
			Destination:    "google_docs",
		},
		{
			Type:           TypeRenewalBrief,
			Category:       CategoryRisk,
			TriggerPhrases: []string{"renewal brief", "renewal summary", "contract renewal"},
			Keywords:       []string{"renewal", "contract", "expiration", "brief", "terms", "pricing"},
			DefaultRisk:    RiskMedium,
			Binding:        Binding{Service: "google_docs", Operation: "create_document"},
			Sections:       []string{"Contract Overview", "Usage vs Entitlement", "Expansion Opportunities", "Renewal Risks"},
			Destination:    "google_docs",
		},
		{
			Type:           TypeMeetingSchedule,
			Category:       CategoryMeetings,
			TriggerPhrases: []string{"schedule a meeting", "book a meeting", "set up a call", "schedule a call"},
			Keywords:       []string{"meeting", "schedule", "calendar", "call", "invite", "book", "sync"},
			DefaultRisk:    RiskHigh,
			Binding:        Binding{Service: "google_calendar", Operation: "create_event", ExternalSend: true},
			Destination:    "google_calendar",
			Steps: []StepTemplate{
				{Tool: "calendar_find_slot", Description: "Find an open slot for all attendees", Risk: RiskLow},
				{Tool: "calendar_invite", Description: "Send the calendar invite to external attendees", Risk: RiskHigh},
			},
		},
		{
			Type:           TypeEmailDraft,
			Category:       CategoryEmail,
			TriggerPhrases: []string{"draft an email", "write an email", "send an email", "follow up email"},
			Keywords:       []string{"email", "draft", "send", "reply", "message", "follow", "outreach"},
			DefaultRisk:    RiskHigh,
			Binding:        Binding{Service: "gmail", Operation: "send_email", ExternalSend: true},
			Destination:    "gmail",
			Steps: []StepTemplate{
				{Tool: "gmail_draft", Description: "Draft the email body", Risk: RiskLow},
				{Tool: "gmail_send", Description: "Send the email to the customer", Risk: RiskHigh},
			},
		},
		{
			Type:           TypeDocGeneration,
			Category:       CategoryDocs,
			TriggerPhrases: []string{"create a document", "draft a document", "write up"},
			Keywords:       []string{"document", "doc", "draft", "write", "create", "notes", "proposal"},
			DefaultRisk:    RiskLow,
			Binding:        Binding{Service: "google_docs", Operation: "create_document"},
			Sections:       []string{"Overview", "Details", "Next Steps"},
			Destination:    "google_docs",
		},
		{
			Type:           TypeUsageReport,
			Category:       CategoryReporting,
			TriggerPhrases: []string{"usage report", "adoption report", "usage breakdown"},
			Keywords:       []string{"usage", "adoption", "report", "metrics", "activity", "trends", "spreadsheet"},
			DefaultRisk:    RiskLow,
			Binding:        Binding{Service: "google_sheets", Operation: "create_spreadsheet"},
			Sections:       []string{"Usage by Feature", "Active Users", "Trend Analysis"},
			Destination:    "google_sheets",
		},
	}
}

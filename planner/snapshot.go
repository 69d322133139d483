package planner

import (
	"context"
	"strings"

	"github.com/rohanthewiz/logger"

	"cscx/task"
)

// SnapshotAggregator is the default Aggregator wiring. It serves canned
// per-customer snapshots so the pipeline runs end to end without the
// knowledge-base and CRM services, which sit behind this boundary in a
// separate deployment. Unknown customers get an empty-but-valid context.
type SnapshotAggregator struct {
	snapshots map[string]*AggregatedContext
}

// NewSnapshotAggregator creates the aggregator with its demo dataset.
func NewSnapshotAggregator() *SnapshotAggregator {
	return &SnapshotAggregator{snapshots: demoSnapshots()}
}

// Aggregate returns the customer's snapshot scoped to the task at hand.
func (a *SnapshotAggregator) Aggregate(ctx context.Context, taskType task.Type, subjectID, query string) (*AggregatedContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap, ok := a.snapshots[strings.ToLower(subjectID)]
	if !ok {
		logger.Info("No snapshot for customer, using empty context", "subject_id", subjectID)
		return &AggregatedContext{PlatformData: map[string]interface{}{}}, nil
	}

	logger.Info("Aggregated context",
		"subject_id", subjectID,
		"task_type", taskType,
		"knowledge", len(snap.Knowledge),
		"elevated_risk", snap.ElevatedRisk)
	return snap, nil
}

func demoSnapshots() map[string]*AggregatedContext {
	return map[string]*AggregatedContext{
		"acme-corp": {
			Knowledge: []KnowledgeItem{
				{Source: "playbooks", Title: "QBR template v3", Summary: "standard quarterly review outline"},
				{Source: "notes", Title: "2026-08-12 sync notes", Summary: "expansion interest in the analytics add-on"},
			},
			PlatformData: map[string]interface{}{
				"health_score":   72,
				"active_seats":   340,
				"renewal_date":   "2026-11-30",
				"weekly_logins":  1180,
				"support_volume": 9,
			},
			ExternalSources: []ExternalSource{
				{System: "crm", Ref: "opp-4412", Summary: "open renewal opportunity, stage: negotiation"},
			},
		},
		"globex": {
			Knowledge: []KnowledgeItem{
				{Source: "playbooks", Title: "At-risk save play", Summary: "checklist for accounts in escalation"},
			},
			PlatformData: map[string]interface{}{
				"health_score":  41,
				"active_seats":  85,
				"renewal_date":  "2026-10-15",
				"weekly_logins": 120,
			},
			ExternalSources: []ExternalSource{
				{System: "support", Ref: "esc-209", Summary: "unresolved P1 escalation, open 11 days"},
			},
			ElevatedRisk: true,
			RiskReason:   "unresolved escalation on the account",
		},
		"initech": {
			PlatformData: map[string]interface{}{
				"health_score":  88,
				"active_seats":  52,
				"renewal_date":  "2027-02-28",
				"weekly_logins": 410,
			},
		},
	}
}

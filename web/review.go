package web

import (
	"fmt"

	"github.com/rohanthewiz/element"
	"github.com/rohanthewiz/rweb"
	"github.com/rohanthewiz/serr"

	"cscx/planner"
)

// approvalsPageHandler serves the approval review page
func (p *Pipeline) approvalsPageHandler(c rweb.Context) error {
	plans, err := p.Gate.Pending()
	if err != nil {
		return c.WriteError(serr.Wrap(err, "failed to list pending plans"), 500)
	}
	return c.WriteHTML(generateApprovalsPage(plans))
}

func generateApprovalsPage(plans []*planner.ExecutionPlan) string {
	b := element.NewBuilder()

	b.Html().R(
		b.Head().R(
			b.Title().T("Approval Queue - CSCX"),
			b.Meta("charset", "UTF-8"),
			b.Meta("name", "viewport", "content", "width=device-width, initial-scale=1.0"),
			b.Style().T(generateApprovalsCSS()),
		),
		b.Body().R(
			b.Div("id", "approval-queue").R(
				b.Header().R(
					b.Div("class", "header-content").R(
						b.H1().T("Pending Plans"),
						b.Span("class", "count").T(fmt.Sprintf("%d awaiting review", len(plans))),
					),
				),
				b.Main().R(
					func() (x any) {
						if len(plans) == 0 {
							b.Div("class", "empty").T("Nothing to review.")
							return
						}
						element.ForEach(plans, func(plan *planner.ExecutionPlan) {
							renderPlanCard(b, plan)
						})
						return
					}(),
				),
			),
			b.Script().T(generateApprovalsJS()),
		),
	)

	return b.String()
}

func renderPlanCard(b *element.Builder, plan *planner.ExecutionPlan) {
	b.Div("class", "plan-card", "data-plan-id", plan.ID).R(
		b.Div("class", "plan-head").R(
			b.Span("class", "task-type").T(string(plan.TaskType)),
			b.Span("class", "risk risk-"+string(plan.RiskLevel)).T(string(plan.RiskLevel)+" risk"),
		),
		b.P("class", "query").T(plan.Query),
		b.P("class", "subject").T("Customer: "+plan.SubjectID),
		b.Div("class", "inputs").R(
			b.H3().T("Data this plan will use"),
			element.ForEach(plan.Inputs, func(input planner.PlanInput) {
				b.Div("class", "input-row").R(
					b.Span("class", "input-source").T(input.Source),
					b.Span().T(": "+input.Summary+" ("+input.Usage+")"),
				)
			}),
		),
		b.P("class", "structure").T(fmt.Sprintf("Output: %s via %s.%s",
			plan.Structure.Destination, plan.Structure.Service, plan.Structure.Operation)),
		func() (x any) {
			if plan.Pause != nil {
				b.Div("class", "pause").R(
					b.Span("class", "pause-label").T(fmt.Sprintf("Paused at round %d: ", plan.Round)),
					b.Span().T(plan.Pause.Reason),
				)
			}
			return
		}(),
		b.Div("class", "actions").R(
			func() (x any) {
				if plan.Pause != nil {
					b.Button("class", "btn-approve", "onclick",
						fmt.Sprintf("resumePlan('%s', true)", plan.ID)).T("Approve Step")
					b.Button("class", "btn-reject", "onclick",
						fmt.Sprintf("resumePlan('%s', false)", plan.ID)).T("Decline Step")
					return
				}
				b.Button("class", "btn-approve", "onclick",
					fmt.Sprintf("decidePlan('%s', 'approve')", plan.ID)).T("Approve")
				b.Button("class", "btn-reject", "onclick",
					fmt.Sprintf("decidePlan('%s', 'reject')", plan.ID)).T("Reject")
				return
			}(),
		),
	)
}

func generateApprovalsCSS() string {
	return `
		body { font-family: -apple-system, "Segoe UI", sans-serif; background: #f5f6f8; margin: 0; color: #1d2330; }
		header { background: #1d2330; color: #fff; padding: 16px 24px; }
		.header-content { display: flex; align-items: baseline; gap: 16px; }
		.header-content h1 { margin: 0; font-size: 20px; }
		.count { color: #9aa3b2; font-size: 14px; }
		main { max-width: 860px; margin: 24px auto; padding: 0 16px; }
		.empty { color: #6b7280; text-align: center; padding: 48px 0; }
		.plan-card { background: #fff; border: 1px solid #e2e5ea; border-radius: 8px; padding: 16px 20px; margin-bottom: 16px; }
		.plan-head { display: flex; justify-content: space-between; align-items: center; }
		.task-type { font-weight: 600; }
		.risk { font-size: 12px; padding: 2px 8px; border-radius: 10px; text-transform: uppercase; }
		.risk-low { background: #e3f4e8; color: #1d7a3d; }
		.risk-medium { background: #fdf3dc; color: #9a6b00; }
		.risk-high { background: #fde3e3; color: #b42318; }
		.query { font-style: italic; color: #3b4354; }
		.subject, .structure { font-size: 14px; color: #4c566b; }
		.inputs h3 { font-size: 13px; text-transform: uppercase; color: #6b7280; margin: 12px 0 4px; }
		.input-row { font-size: 14px; margin: 2px 0; }
		.input-source { font-weight: 600; }
		.pause-label { font-weight: 600; }
		.pause { background: #fff7ed; border: 1px solid #fed7aa; border-radius: 6px; padding: 10px 12px; margin-top: 12px; font-size: 14px; }
		.actions { margin-top: 14px; display: flex; gap: 8px; }
		.actions button { border: none; border-radius: 6px; padding: 8px 18px; font-size: 14px; cursor: pointer; }
		.btn-approve { background: #1d7a3d; color: #fff; }
		.btn-reject { background: #b42318; color: #fff; }
	`
}

func generateApprovalsJS() string {
	return `
		async function decidePlan(planId, decision) {
			const actor = prompt('Your reviewer id:', 'reviewer') || 'reviewer';
			const resp = await fetch('/api/plan/' + planId + '/approve', {
				method: 'POST',
				headers: { 'Content-Type': 'application/json' },
				body: JSON.stringify({ decision: decision, actor_id: actor })
			});
			if (!resp.ok) {
				const body = await resp.json().catch(() => ({}));
				alert(body.error || 'Decision failed');
			}
			location.reload();
		}

		async function resumePlan(planId, approved) {
			const actor = prompt('Your reviewer id:', 'reviewer') || 'reviewer';
			const resp = await fetch('/api/plan/' + planId + '/resume', {
				method: 'POST',
				headers: { 'Content-Type': 'application/json' },
				body: JSON.stringify({ approved: approved, actor_id: actor })
			});
			if (!resp.ok) {
				const body = await resp.json().catch(() => ({}));
				alert(body.error || 'Resume failed');
			}
			location.reload();
		}

		// Refresh the queue when a plan changes status
		const events = new EventSource('/events');
		events.onmessage = (e) => {
			try {
				const msg = JSON.parse(e.data);
				if (msg.type === 'plan_status') location.reload();
			} catch (_) { /* ignore malformed events */ }
		};
	`
}

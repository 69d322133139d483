package web

import (
	"github.com/rohanthewiz/rweb"

	"cscx/classifier"
	"cscx/db"
	"cscx/gate"
	"cscx/planner"
)

// Pipeline bundles the collaborators the HTTP layer drives: classify the
// request, build a disclosed plan, and hand it to the approval gate.
type Pipeline struct {
	Classifier *classifier.Classifier
	Planner    *planner.Planner
	Gate       *gate.Gate
	Store      *db.Store
}

// SetupRoutes configures all HTTP routes for the server
func SetupRoutes(s *rweb.Server, p *Pipeline) {
	// Root endpoint - serves the approval review page
	s.Get("/", p.approvalsPageHandler)

	// Plan pipeline endpoints
	s.Post("/api/plan", p.createPlanHandler)
	s.Post("/api/plan/:id/approve", p.approvePlanHandler)
	s.Post("/api/plan/:id/resume", p.resumePlanHandler)
	s.Get("/api/plan/:id", p.getPlanHandler)
	s.Get("/api/plans/pending", p.pendingPlansHandler)

	// Approval review UI
	s.Get("/approvals", p.approvalsPageHandler)

	// SSE endpoint for streaming plan status events
	s.Get("/events",
		func(c rweb.Context) error {

			// Create client channel
			clientChan := make(chan any, 10)
			sseHub.Register(clientChan)

			// No unregister here: the conn is long-lived

			s.SetupSSE(c, clientChan, "")

			return nil
		},
	)
}

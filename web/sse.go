package web

import (
	"encoding/json"
	"sync"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"

	"cscx/planner"
)

const sseStdMsgType = "message" // note that JS EventSource only picks up on "message" event type

// SSEEvent represents a server-sent event
type SSEEvent struct {
	Type   string      `json:"type"`
	PlanID string      `json:"planId,omitempty"`
	Data   interface{} `json:"data"`
}

// SSEHub manages SSE connections
type SSEHub struct {
	mu      sync.RWMutex
	clients map[chan any]bool
}

// Global SSE hub
var sseHub = &SSEHub{
	clients: make(map[chan any]bool),
}

// Register adds a new SSE client
func (h *SSEHub) Register(client chan any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = true
}

// Unregister removes an SSE client
func (h *SSEHub) Unregister(client chan any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, client)
	close(client)
}

// Broadcast sends an event to all connected clients
func (h *SSEHub) Broadcast(event SSEEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data := map[string]interface{}{
		"type":   event.Type,
		"planId": event.PlanID,
		"data":   event.Data,
	}

	bytPayload, err := json.Marshal(data)
	if err != nil {
		logger.LogErr(err, "On broadcast, failed to marshal SSE event")
		return
	}

	rEvent := rweb.SSEvent{
		Type: sseStdMsgType, // Type fixed here bc that's what EventSource expects
		Data: string(bytPayload),
	}

	for client := range h.clients {
		select {
		case client <- rEvent:
		default:
			// Client's channel is full, skip
			logger.Log("warn", "SSE client channel full, skipping")
		}
	}
}

// BroadcastPlanUpdate pushes a plan status change to connected clients.
// The gate calls this through its notifier hook; approvers watching the
// review page see pauses and completions without polling.
func BroadcastPlanUpdate(plan *planner.ExecutionPlan) {
	sseHub.Broadcast(SSEEvent{
		Type:   "plan_status",
		PlanID: plan.ID,
		Data: map[string]interface{}{
			"status":    string(plan.Status),
			"task_type": string(plan.TaskType),
			"risk":      string(plan.RiskLevel),
			"round":     plan.Round,
			"pause":     plan.Pause,
		},
	})
}

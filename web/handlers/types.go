package handlers

import (
	"github.com/scrypster/ephemera/internal/insight"
	"github.com/scrypster/ephemera/pkg/types"
)

// ErrorResponse is the standard error response format for the API.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// StateEvent is the websocket message sent after every state change.
type StateEvent struct {
	Type    string             `json:"type"`
	Payload types.StatePayload `json:"payload"`
}

// StateEventType is the Type of every StateEvent.
const StateEventType = "state"

// InsightRequest is the body of POST /api/insights: the user-entered fields
// of a thread.
type InsightRequest struct {
	ID      string        `json:"id"`
	Title   string        `json:"title"`
	Emotion types.Emotion `json:"emotion"`
	Horizon int           `json:"horizon"`
	Trigger string        `json:"trigger"`
	Impact  string        `json:"impact"`
}

// Seed converts the request into a generator seed.
func (r InsightRequest) Seed() insight.ThreadSeed {
	return insight.ThreadSeed{
		ID:      r.ID,
		Title:   r.Title,
		Emotion: r.Emotion,
		Horizon: r.Horizon,
		Trigger: r.Trigger,
		Impact:  r.Impact,
	}
}

// InsightResponse carries the generated bundle and the keyword it was built on.
type InsightResponse struct {
	Seed     string         `json:"seed"`
	Keyword  string         `json:"keyword"`
	Insights types.Insights `json:"insights"`
}

package models

import "time"

const OperationResize = "resize"

// UsageEvent records one charged operation after its credits were debited.
type UsageEvent struct {
	ID          string    `json:"id"`
	Identity    string    `json:"identity"`
	Operation   string    `json:"operation"`
	Variants    int       `json:"variants"`
	CostCredits int64     `json:"cost_credits"`
	CreatedAt   time.Time `json:"created_at"`
}

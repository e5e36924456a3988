package models

import (
	"time"
)

// TrackingEntry ("rastreamento") is one timed work session on a stage.
type TrackingEntry struct {
	ID                int64      `json:"id"`
	OrderID           int64      `json:"orderId"`
	StageID           int64      `json:"etapaId"`
	EmployeeID        int64      `json:"funcionarioId"`
	StartedAt         time.Time  `json:"startedAt"`
	EndedAt           *time.Time `json:"endedAt,omitempty"`
	ProcessedQuantity int        `json:"processedQuantity"`
	LostQuantity      int        `json:"lostQuantity"`
	Observation       *string    `json:"observation,omitempty"`
}

// Active reports whether the session is still open.
func (t *TrackingEntry) Active() bool {
	return t.EndedAt == nil
}

// Elapsed returns the session length, measuring open sessions up to now.
func (t *TrackingEntry) Elapsed(now time.Time) time.Duration {
	end := now
	if t.EndedAt != nil {
		end = *t.EndedAt
	}
	if end.Before(t.StartedAt) {
		return 0
	}
	return end.Sub(t.StartedAt)
}

// StartTracking is the input of POST /tracking/start.
type StartTracking struct {
	OrderID           int64  `json:"orderId"`
	StageID           int64  `json:"etapaId"`
	EmployeeCode      string `json:"employeeCode"`
	EmployeeID        int64  `json:"funcionarioId"`
	ProcessedQuantity int    `json:"processedQuantity"`
	LostQuantity      int    `json:"lostQuantity"`
}

// EndTracking is the input of POST /tracking/:id/end.
type EndTracking struct {
	TrackingID        int64     `json:"-"`
	OrderID           int64     `json:"orderId"`
	StageID           int64     `json:"etapaId"`
	EmployeeID        int64     `json:"funcionarioId"`
	Observation       *string   `json:"observation,omitempty"`
	ProcessedQuantity *int      `json:"processedQuantity,omitempty"`
	LostQuantity      *int      `json:"lostQuantity,omitempty"`
	At                time.Time `json:"-"`
}

// Report aggregates the tracking ledger of one order.
type Report struct {
	OrderID             int64         `json:"orderId"`
	Status              OrderStatus   `json:"status"`
	LotQuantity         int           `json:"lotQuantity"`
	TotalElapsedSeconds int64         `json:"totalElapsedSeconds"`
	Sessions            int           `json:"sessions"`
	ActiveTracking      bool          `json:"activeTracking"`
	TotalStages         int           `json:"totalStages"`
	CompletedStages     int           `json:"completedStages"`
	ProcessedQuantity   int           `json:"processedQuantity"`
	LostQuantity        int           `json:"lostQuantity"`
	YieldPercent        float64       `json:"yieldPercent"`
	UnitsPerHour        float64       `json:"unitsPerHour"`
	CompletionPercent   float64       `json:"completionPercent"`
	Stages              []StageReport `json:"etapas"`
	GeneratedAt         time.Time     `json:"generatedAt"`
}

// StageReport is the per-stage slice of a Report.
type StageReport struct {
	StageID           int64  `json:"etapaId"`
	Name              string `json:"name"`
	Completed         bool   `json:"completed"`
	Sessions          int    `json:"sessions"`
	ElapsedSeconds    int64  `json:"elapsedSeconds"`
	ProcessedQuantity int    `json:"processedQuantity"`
	LostQuantity      int    `json:"lostQuantity"`
}

package models

import (
	"time"
)

// HistoryType tags a history record.
type HistoryType string

const (
	HistoryStatusChange HistoryType = "status_change"
	HistoryEtapaStart   HistoryType = "etapa_start"
	HistoryEtapaEnd     HistoryType = "etapa_end"
)

// HistoryRecord is one append-only audit entry.
type HistoryRecord struct {
	ID             int64        `json:"id"`
	Type           HistoryType  `json:"type"`
	OrderID        int64        `json:"orderId"`
	EmployeeID     *int64       `json:"funcionarioId,omitempty"`
	StageID        *int64       `json:"etapaId,omitempty"`
	PreviousStatus *OrderStatus `json:"previousStatus,omitempty"`
	NewStatus      *OrderStatus `json:"newStatus,omitempty"`
	ReasonID       *int64       `json:"motivoInterrupcaoId,omitempty"`
	Observation    *string      `json:"observation,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
}

// HistoryFilter narrows history queries. OrderID zero means all orders.
// Records come back in id order; AfterID resumes after the last id of the
// previous page.
type HistoryFilter struct {
	OrderID int64
	Type    HistoryType
	AfterID int64
	Limit   int
}

// InterruptionReason ("motivo de interrupção") is catalog data.
type InterruptionReason struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

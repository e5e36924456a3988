package models

import (
	"time"
)

// OrderStatus is the lifecycle state of a production order.
type OrderStatus string

const (
	StatusAberto       OrderStatus = "aberto"
	StatusEmAndamento  OrderStatus = "em_andamento"
	StatusInterrompido OrderStatus = "interrompido"
	StatusFinalizado   OrderStatus = "finalizado"
)

// Valid reports whether s is one of the four known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusAberto, StatusEmAndamento, StatusInterrompido, StatusFinalizado:
		return true
	}
	return false
}

// Order is a production order ("OP").
type Order struct {
	ID               int64       `json:"id"`
	ProductID        int64       `json:"productId"`
	ProductCode      string      `json:"productCode"`
	EmployeeID       int64       `json:"funcionarioId"`
	EmployeeCode     string      `json:"employeeCode"`
	LotQuantity      int         `json:"lotQuantity"`
	FinalDestination string      `json:"finalDestination"`
	Status           OrderStatus `json:"status"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
	Stages           []*Stage    `json:"etapas"`
	// NextStatuses is filled by the service layer and never stored.
	NextStatuses []OrderStatus `json:"nextStatuses"`
}

// CreateOrder is the manager input for a new order.
type CreateOrder struct {
	ProductCode      string `json:"productCode"`
	EmployeeCode     string `json:"employeeCode"`
	LotQuantity      int    `json:"lotQuantity"`
	FinalDestination string `json:"finalDestination"`
}

// OrderFilter narrows order listings. Zero values mean "any".
type OrderFilter struct {
	Status     OrderStatus
	EmployeeID int64
	Limit      int
	Offset     int
}

// Stage ("etapa") is a named production step inside an order.
type Stage struct {
	ID         int64      `json:"id"`
	OrderID    int64      `json:"orderId"`
	Name       string     `json:"name"`
	Position   int        `json:"position"`
	EmployeeID int64      `json:"funcionarioId"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	EndedAt    *time.Time `json:"endedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// CreateStage is the input for a new stage.
type CreateStage struct {
	Name         string `json:"name"`
	EmployeeID   int64  `json:"funcionarioId"`
	EmployeeCode string `json:"employeeCode"`
}

// StatusChange is the client input of PATCH /orders/:id/status.
type StatusChange struct {
	Status OrderStatus `json:"status"`

	// MotivoID and MotivoInterrupcaoID are accepted interchangeably.
	MotivoID            *int64  `json:"motivoId,omitempty"`
	MotivoInterrupcaoID *int64  `json:"motivoInterrupcaoId,omitempty"`
	EmployeeID          *int64  `json:"funcionarioId,omitempty"`
	Observation         *string `json:"observation,omitempty"`
}

// ReasonID returns whichever of the two reason fields was supplied.
func (c StatusChange) ReasonID() *int64 {
	if c.MotivoInterrupcaoID != nil {
		return c.MotivoInterrupcaoID
	}
	return c.MotivoID
}

// Transition is a validated status change handed to the repository. The
// repository applies it only if the order is still in From.
type Transition struct {
	OrderID     int64
	From        OrderStatus
	To          OrderStatus
	ReasonID    *int64
	EmployeeID  *int64
	Observation *string
	At          time.Time
	// CloseActiveTracking ends the active tracking entry, if any, in the
	// same transaction.
	CloseActiveTracking bool
}

package services

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	"apontamento/backend/pkg/models"
)

// Order lifecycle events.
const (
	EventStart     = "start"
	EventInterrupt = "interrupt"
	EventResume    = "resume"
	EventFinish    = "finish"
)

// orderEvents is the full transition graph. finalizado has no outgoing edge.
var orderEvents = fsm.Events{
	{Name: EventStart, Src: []string{string(models.StatusAberto)}, Dst: string(models.StatusEmAndamento)},
	{Name: EventInterrupt, Src: []string{string(models.StatusEmAndamento)}, Dst: string(models.StatusInterrompido)},
	{Name: EventResume, Src: []string{string(models.StatusInterrompido)}, Dst: string(models.StatusEmAndamento)},
	{Name: EventFinish, Src: []string{string(models.StatusEmAndamento)}, Dst: string(models.StatusFinalizado)},
}

// newOrderFSM returns a state machine positioned at the order's current status.
func newOrderFSM(current models.OrderStatus) *fsm.FSM {
	return fsm.NewFSM(string(current), orderEvents, fsm.Callbacks{})
}

// eventFor finds the event that moves an order from one status to another.
func eventFor(from, to models.OrderStatus) (string, bool) {
	for _, e := range orderEvents {
		if e.Dst != string(to) {
			continue
		}
		for _, src := range e.Src {
			if src == string(from) {
				return e.Name, true
			}
		}
	}
	return "", false
}

// ValidateTransition checks that to is reachable from from in one step and
// returns the lifecycle event that performs it.
func ValidateTransition(ctx context.Context, from, to models.OrderStatus) (string, error) {
	if !to.Valid() {
		return "", models.Validationf("unknown status %q", to)
	}
	event, ok := eventFor(from, to)
	if !ok {
		return "", fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, from, to)
	}
	machine := newOrderFSM(from)
	if err := machine.Event(ctx, event); err != nil {
		return "", fmt.Errorf("%w: %s -> %s: %v", models.ErrInvalidTransition, from, to, err)
	}
	return event, nil
}

// NextStatuses lists the statuses an order in current may move to.
func NextStatuses(current models.OrderStatus) []models.OrderStatus {
	machine := newOrderFSM(current)
	next := []models.OrderStatus{}
	for _, e := range orderEvents {
		if machine.Can(e.Name) {
			next = append(next, models.OrderStatus(e.Dst))
		}
	}
	return next
}

// leavesRunning reports whether the transition ends production, which closes
// any open tracking session.
func leavesRunning(from models.OrderStatus) bool {
	return from == models.StatusEmAndamento
}

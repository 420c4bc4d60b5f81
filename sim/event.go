package sim

import "github.com/sirupsen/logrus"

// Event defines the interface for driver events.
// Each event has a cycle Timestamp and an Execute method that mutates
// the simulator when the clock reaches it.
type Event interface {
	Timestamp() int64
	Execute(*Simulator)
	priority() int // lower runs first among events at the same cycle
}

// ContextDepartureEvent removes a hardware context from the allocator.
// Departures run before arrivals at the same cycle so freed slots can be reused.
type ContextDepartureEvent struct {
	time      int64
	ContextID int
}

func (e *ContextDepartureEvent) Timestamp() int64 { return e.time }

func (e *ContextDepartureEvent) priority() int { return 0 }

// Execute deregisters the context.
func (e *ContextDepartureEvent) Execute(sim *Simulator) {
	logrus.Infof("<< Departure: context %d at cycle %d", e.ContextID, e.time)
	if !sim.Allocator.Deregister(e.ContextID) {
		logrus.Warnf("context %d was not active at departure (cycle %d)", e.ContextID, e.time)
		return
	}
	delete(sim.active, e.ContextID)
	sim.Metrics.Deregistrations++
	if sim.Allocator.ActiveCount() > 0 {
		sim.Metrics.Redistributions++
	}
}

// ContextArrivalEvent registers a hardware context with the allocator.
type ContextArrivalEvent struct {
	time int64
	Plan *ContextPlan
}

func (e *ContextArrivalEvent) Timestamp() int64 { return e.time }

func (e *ContextArrivalEvent) priority() int { return 1 }

// Execute registers the context; a rejected registration is counted, not retried.
func (e *ContextArrivalEvent) Execute(sim *Simulator) {
	id := e.Plan.ContextID
	logrus.Infof("<< Arrival: context %d at cycle %d", id, e.time)
	if !sim.Allocator.Register(id) {
		logrus.Warnf("registration of context %d rejected at cycle %d (%d/%d contexts active)",
			id, e.time, sim.Allocator.ActiveCount(), sim.Allocator.Config().MaxContexts)
		sim.Metrics.RejectedRegistrations++
		return
	}
	sim.active[id] = &contextRun{plan: e.Plan}
	sim.Metrics.Registrations++
	sim.Metrics.Redistributions++
}

// sim/simulator.go
package sim

import (
	"container/heap"

	"github.com/sirupsen/logrus"
)

// CounterSource produces the performance counters of one simulated hardware context.
type CounterSource interface {
	// Advance simulates one cycle and returns the cumulative cache misses and
	// instructions executed since the context started.
	Advance() (cacheMisses, instructions uint64)
}

// ContextPlan describes when a hardware context is live and where its counters come from.
type ContextPlan struct {
	ContextID  int
	Label      string // workload type, for reporting
	StartCycle int64
	EndCycle   int64 // 0 = runs until the horizon
	Source     CounterSource
}

// queuedEvent tags an event with its insertion order for deterministic tie-breaking.
type queuedEvent struct {
	ev  Event
	seq uint64
}

// EventQueue implements heap.Interface and orders events by cycle, then event
// priority, then insertion order.
type EventQueue []queuedEvent

func (eq EventQueue) Len() int { return len(eq) }
func (eq EventQueue) Less(i, j int) bool {
	if eq[i].ev.Timestamp() != eq[j].ev.Timestamp() {
		return eq[i].ev.Timestamp() < eq[j].ev.Timestamp()
	}
	if eq[i].ev.priority() != eq[j].ev.priority() {
		return eq[i].ev.priority() < eq[j].ev.priority()
	}
	return eq[i].seq < eq[j].seq
}
func (eq EventQueue) Swap(i, j int) { eq[i], eq[j] = eq[j], eq[i] }

func (eq *EventQueue) Push(x any) {
	*eq = append(*eq, x.(queuedEvent))
}

func (eq *EventQueue) Pop() any {
	old := *eq
	n := len(old)
	item := old[n-1]
	*eq = old[0 : n-1]
	return item
}

// contextRun is the driver-side state of a live context.
type contextRun struct {
	plan         *ContextPlan
	cacheMisses  uint64
	instructions uint64
}

// Simulator is the cycle loop standing in for the surrounding SMT core model: it
// starts and stops hardware contexts, feeds their counters to the allocator and
// ticks the allocator once per cycle.
type Simulator struct {
	Clock       int64
	Horizon     int64
	ReportEvery int64 // cycles between counter reports (0 = every cycle)
	Allocator   *RegisterAllocator
	Metrics     *Metrics
	EventQueue  EventQueue

	plans   []*ContextPlan // plan order drives per-cycle iteration
	active  map[int]*contextRun
	nextSeq uint64
}

// NewSimulator schedules an arrival (and, if EndCycle > 0, a departure) for every plan.
func NewSimulator(alloc *RegisterAllocator, plans []ContextPlan, horizon, reportEvery int64) *Simulator {
	s := &Simulator{
		Horizon:     horizon,
		ReportEvery: reportEvery,
		Allocator:   alloc,
		Metrics:     NewMetrics(),
		EventQueue:  make(EventQueue, 0, 2*len(plans)),
		plans:       make([]*ContextPlan, len(plans)),
		active:      make(map[int]*contextRun, len(plans)),
	}
	for i := range plans {
		plan := &plans[i]
		s.plans[i] = plan
		s.Metrics.track(plan.ContextID, plan.Label)
		s.Schedule(&ContextArrivalEvent{time: plan.StartCycle, Plan: plan})
		if plan.EndCycle > 0 {
			s.Schedule(&ContextDepartureEvent{time: plan.EndCycle, ContextID: plan.ContextID})
		}
	}
	return s
}

// Schedule pushes an event into the simulator's EventQueue.
func (sim *Simulator) Schedule(ev Event) {
	heap.Push(&sim.EventQueue, queuedEvent{ev: ev, seq: sim.nextSeq})
	sim.nextSeq++
}

// Run simulates cycles [Clock, Horizon).
func (sim *Simulator) Run() {
	for ; sim.Clock < sim.Horizon; sim.Clock++ {
		sim.Step()
	}
	logrus.Infof("Simulation ended at cycle %d with %d contexts active", sim.Clock, sim.Allocator.ActiveCount())
}

// Step simulates the current cycle without advancing Clock.
func (sim *Simulator) Step() {
	for len(sim.EventQueue) > 0 && sim.EventQueue[0].ev.Timestamp() <= sim.Clock {
		qe := heap.Pop(&sim.EventQueue).(queuedEvent)
		qe.ev.Execute(sim)
	}

	report := sim.ReportEvery <= 0 || sim.Clock%sim.ReportEvery == 0
	for _, plan := range sim.plans {
		run, ok := sim.active[plan.ContextID]
		if !ok {
			continue
		}
		run.cacheMisses, run.instructions = plan.Source.Advance()
		if report {
			sim.Allocator.Report(plan.ContextID, run.cacheMisses, run.instructions)
		}
	}

	if sim.Allocator.Tick() {
		sim.Metrics.Redistributions++
	}
	sim.observe()
}

// observe samples every active context and audits the pool invariants.
func (sim *Simulator) observe() {
	sim.Metrics.CyclesSimulated++
	active := sim.Allocator.ActiveCount()
	sim.Metrics.PeakActiveContexts = max(sim.Metrics.PeakActiveContexts, active)
	if active == 0 {
		return
	}

	for _, rec := range sim.Allocator.Snapshot() {
		sim.Metrics.sample(rec.ContextID, rec.AllocatedRegisters, rec.MissRate)
	}

	allocated, total := sim.Allocator.Utilization()
	if allocated != total || !sim.Allocator.MinimumsSatisfied() {
		sim.Metrics.InvariantViolations++
		logrus.Warnf("register pool invariant violated at cycle %d: %d/%d allocated, minimums satisfied=%v",
			sim.Clock, allocated, total, sim.Allocator.MinimumsSatisfied())
	}
}

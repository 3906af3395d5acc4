package p2p

import (
	"log/slog"

	"github.com/go-netsim/netsimd/internal/simkernel"
)

// LinkEvent records a simulated link state transition: the same
// Up/Down shape a real NETLINK_ROUTE subscription would report,
// reporting a scheduled topology change here instead. The kernel's
// virtual clock stands in for a real NETLINK socket as the event
// source.
type LinkEvent struct {
	// Device is the name of the device whose link changed.
	Device string

	// Up reports whether the link transitioned up (true) or down
	// (false).
	Up bool
}

// LinkMonitor watches a device for simulated link state changes and
// emits a LinkEvent each time one occurs. A LinkMonitor needs no
// context or goroutine: the simulation kernel is single-threaded, so
// events are delivered synchronously as the kernel drains its event
// queue.
type LinkMonitor interface {
	// Events returns the channel LinkEvents are pushed to. Pushing never
	// blocks the kernel's event loop: a monitor that outpaces its reader
	// drops the oldest events.
	Events() <-chan LinkEvent
}

// StubLinkMonitor never emits events. It exists so a device can be
// wired with a LinkMonitor without committing to simulated failures.
type StubLinkMonitor struct {
	events chan LinkEvent
}

// NewStubLinkMonitor creates a LinkMonitor that never fires.
func NewStubLinkMonitor() *StubLinkMonitor {
	return &StubLinkMonitor{events: make(chan LinkEvent)}
}

// Events returns the (always empty) event channel.
func (m *StubLinkMonitor) Events() <-chan LinkEvent { return m.events }

// ScheduledLinkMonitor drives a device's link up and down at
// kernel-scheduled times, for tests and scenarios that model cable
// cuts or maintenance windows. It pushes onto a small buffered
// channel rather than dropping the transition on the floor of a
// full topology-wide event stream.
type ScheduledLinkMonitor struct {
	kernel *simkernel.Kernel
	dev    *NetDevice
	logger *slog.Logger
	events chan LinkEvent
}

// NewScheduledLinkMonitor creates a monitor for dev, driven by kernel.
func NewScheduledLinkMonitor(kernel *simkernel.Kernel, dev *NetDevice, logger *slog.Logger) *ScheduledLinkMonitor {
	if logger == nil {
		logger = slog.Default()
	}

	return &ScheduledLinkMonitor{
		kernel: kernel,
		dev:    dev,
		logger: logger.With(slog.String("component", "p2p.linkmonitor"), slog.String("device", dev.Name())),
		events: make(chan LinkEvent, 16),
	}
}

// Events returns the channel LinkEvents are delivered to.
func (m *ScheduledLinkMonitor) Events() <-chan LinkEvent { return m.events }

// ScheduleDown flips the device's link down at delay from now and
// emits a LinkEvent. The device's own FSM state is left untouched:
// a link going down is a topology decision the owning routing element
// must react to, not a transmitter-state transition.
func (m *ScheduledLinkMonitor) ScheduleDown(delay simkernel.Time) {
	m.kernel.Schedule(delay, func() {
		m.dev.linkUp = false
		m.logger.Info("link down")
		m.emit(LinkEvent{Device: m.dev.Name(), Up: false})
	})
}

// ScheduleUp flips the device's link up at delay from now and emits a
// LinkEvent.
func (m *ScheduledLinkMonitor) ScheduleUp(delay simkernel.Time) {
	m.kernel.Schedule(delay, func() {
		m.dev.linkUp = true
		m.logger.Info("link up")
		m.emit(LinkEvent{Device: m.dev.Name(), Up: true})
	})
}

// emit pushes ev without blocking: a full buffer drops the oldest
// pending event, since stale transitions are of no interest once
// superseded by a newer one.
func (m *ScheduledLinkMonitor) emit(ev LinkEvent) {
	select {
	case m.events <- ev:
	default:
		select {
		case <-m.events:
		default:
		}
		select {
		case m.events <- ev:
		default:
		}
	}
}

package p2p

import (
	"log/slog"
	"time"

	"github.com/go-netsim/netsimd/internal/packet"
	"github.com/go-netsim/netsimd/internal/simkernel"
	"github.com/go-netsim/netsimd/internal/simqueue"
	"github.com/go-netsim/netsimd/internal/simtime"
)

// RxObserver receives a copy of every packet a device delivers
// upward, independent of whatever the device's own forwarding hook
// does with it: tracing and metrics never sit on the hot path that
// decides what happens to the packet.
type RxObserver interface {
	OnReceive(dev *NetDevice, p packet.Packet)
}

// ForwardFunc is invoked for every packet a device receives, after
// RxObservers have been notified. It is how a device hands a packet
// up to whatever owns it -- a routing element, a test harness, or
// nothing at all if left nil.
type ForwardFunc func(dev *NetDevice, p packet.Packet)

// FSMObserver receives every transmitter FSM transition a device
// makes, letting metrics and tracing watch state changes without
// coupling the device to a concrete metrics backend.
type FSMObserver interface {
	OnTransition(dev *NetDevice, from, to State)
}

// NetDevice is a point-to-point network interface: one transmitter
// FSM (p2p.State), one egress queue, and one attachment point to a
// Channel. Its zero value is not usable; construct with NewNetDevice.
type NetDevice struct {
	name    string
	logger  *slog.Logger
	kernel  *simkernel.Kernel
	macAddr string

	dataRate simtime.DataRate
	ifg      time.Duration

	channel *Channel
	queue   *simqueue.Queue

	state  State
	linkUp bool

	forward     ForwardFunc
	rxObserver  RxObserver
	fsmObserver FSMObserver

	ownerRouterID string
	hasOwner      bool
}

// NewNetDevice creates a device named name, driven by kernel's
// virtual clock. The device starts in StateReady with no data rate,
// no interframe gap, no channel, and no queue: Attach (which also copies
// the channel's data rate) must be called before SendTo will accept
// traffic, and AddQueue before a packet offered while BUSY can be
// buffered.
func NewNetDevice(kernel *simkernel.Kernel, name, macAddr string, logger *slog.Logger) *NetDevice {
	if logger == nil {
		logger = slog.Default()
	}

	return &NetDevice{
		name:    name,
		macAddr: macAddr,
		kernel:  kernel,
		logger:  logger.With(slog.String("component", "p2p.device"), slog.String("device", name)),
		state:   StateReady,
	}
}

// Name returns the device's configured name.
func (d *NetDevice) Name() string { return d.name }

// MacAddr returns the device's link-layer address.
func (d *NetDevice) MacAddr() string { return d.macAddr }

// State returns the device's current transmitter state.
func (d *NetDevice) State() State { return d.state }

// LinkUp reports whether the device's channel attachment is active.
func (d *NetDevice) LinkUp() bool { return d.linkUp }

// SetDataRate configures the device's transmit rate. Attach overwrites
// it with the channel's rate, so a rate set before Attach does not
// survive it; changing it after Attach does not retroactively alter
// in-flight transmissions.
func (d *NetDevice) SetDataRate(rate simtime.DataRate) { d.dataRate = rate }

// SetInterframeGap configures the minimum gap enforced between the
// end of one transmission and the start of the next on this device.
func (d *NetDevice) SetInterframeGap(ifg time.Duration) { d.ifg = ifg }

// AddQueue attaches the egress queue this device drains when
// transmitting. A device with no queue cannot buffer a packet offered
// while BUSY.
func (d *NetDevice) AddQueue(q *simqueue.Queue) { d.queue = q }

// SetForward installs the callback invoked for every packet this
// device receives, after any RxObserver has been notified.
func (d *NetDevice) SetForward(fn ForwardFunc) { d.forward = fn }

// SetRxObserver installs a tracing/metrics hook for received packets.
func (d *NetDevice) SetRxObserver(obs RxObserver) { d.rxObserver = obs }

// SetFSMObserver installs a hook notified of every transmitter FSM
// transition.
func (d *NetDevice) SetFSMObserver(obs FSMObserver) { d.fsmObserver = obs }

// Channel returns the device's attached channel, or nil.
func (d *NetDevice) Channel() *Channel { return d.channel }

// SetOwnerRouterID records the identity of the GlobalRouter that owns
// this device's node, so a device on the other end of the channel can
// tell whether this endpoint belongs to a routing participant without
// this package importing anything about routers or LSAs.
func (d *NetDevice) SetOwnerRouterID(id string) {
	d.ownerRouterID = id
	d.hasOwner = true
}

// OwnerRouterID returns the RouterID of the GlobalRouter that owns
// this device's node, and whether one has been set at all.
func (d *NetDevice) OwnerRouterID() (string, bool) {
	return d.ownerRouterID, d.hasOwner
}

// QueueLen returns the number of packets currently held in the
// device's egress queue, or 0 if no queue is attached.
func (d *NetDevice) QueueLen() int {
	if d.queue == nil {
		return 0
	}
	return d.queue.Len()
}

// NeedsArp reports whether this link type requires address
// resolution before sending. Point-to-point links never do: there is
// exactly one possible peer.
func (d *NetDevice) NeedsArp() bool { return false }

// Attach connects the device to ch and marks its link up. Link-up is
// declared on a device's own attachment, not gated on both endpoints
// being attached: a device whose peer has not yet attached is still
// "up" from its own perspective and will transmit into a channel that
// silently has nowhere to deliver to, exactly as Channel.TransmitStart's
// contract describes.
func (d *NetDevice) Attach(ch *Channel) error {
	if err := ch.Attach(d); err != nil {
		return err
	}

	d.channel = ch
	d.dataRate = ch.DataRate()
	d.linkUp = true

	d.logger.Debug("link up", slog.String("rate", d.dataRate.String()))

	return nil
}

// SetLinkDown marks the device's link down outside of any
// kernel-scheduled event, for a control-plane operator deliberately
// simulating a cable cut.
func (d *NetDevice) SetLinkDown() {
	d.linkUp = false
	d.logger.Info("link administratively down")
}

// SetLinkUp marks the device's link up outside of any
// kernel-scheduled event, restoring a previously downed link.
func (d *NetDevice) SetLinkUp() {
	d.linkUp = true
	d.logger.Info("link administratively up")
}

// NotifyLinkUp logs the device's current link state at debug level.
// It performs no FSM transition and notifies no observer or link
// monitor.
func (d *NetDevice) NotifyLinkUp() {
	d.logger.Debug("link up notification", slog.Bool("up", d.linkUp))
}

// SendTo offers p to the device for transmission. If the device is
// StateReady, transmission begins immediately. If StateBusy, p is
// enqueued for later transmission; a full queue drops p and SendTo
// returns false.
//
// Calling SendTo on a device with no channel attached, or with a zero
// DataRate, is a contract violation and panics: there is no recovery
// path defined for a device that was never wired up.
func (d *NetDevice) SendTo(p packet.Packet) bool {
	if d.channel == nil {
		panic("p2p: SendTo on a device with no attached channel")
	}
	if d.dataRate == 0 {
		panic("p2p: SendTo on a device with zero DataRate")
	}

	if d.state == StateReady {
		d.transmitStart(p)
		return true
	}

	if d.queue == nil {
		panic("p2p: SendTo while BUSY on a device with no queue")
	}

	ok, err := d.queue.Enqueue(p)
	if !ok {
		d.logger.Debug("packet dropped, queue full", slog.Any("err", err))
	}

	return ok
}

// transmitStart applies EventTransmitStart, hands the packet to the
// channel, and schedules this device's own TransmitComplete at
// now+txTime+ifg. txTime is computed from the device's own DataRate
// copy, which was set equal to the channel's DataRate at Attach time,
// so the two always schedule against the same duration even though
// they compute it independently.
func (d *NetDevice) transmitStart(p packet.Packet) {
	res := ApplyEvent(d.state, EventTransmitStart)
	d.notifyTransition(res)
	d.state = res.NewState

	d.channel.TransmitStart(p, d)

	txTime := d.dataRate.TxTime(p.Size())
	d.kernel.Schedule(txTime+d.ifg, d.transmitComplete)
}

// transmitComplete fires when a scheduled transmission finishes. It
// applies the appropriate completion event depending on whether the
// queue holds more work, and dequeues/restarts as the FSM dictates.
func (d *NetDevice) transmitComplete() {
	event := EventTransmitCompleteEmpty
	if d.queue != nil && !d.queue.Empty() {
		event = EventTransmitCompleteNonEmpty
	}

	res := ApplyEvent(d.state, event)
	d.notifyTransition(res)
	d.state = res.NewState

	for _, action := range res.Actions {
		if action != ActionDequeueAndRestart {
			continue
		}

		next, err := d.queue.Dequeue()
		if err != nil {
			d.logger.Error("dequeue after non-empty check failed", slog.Any("err", err))
			return
		}

		// The BUSY self-loop above already covers this restart, so the
		// packet goes to the channel without a second EventTransmitStart
		// (which has no BUSY entry in the transition table).
		d.channel.TransmitStart(next, d)
		d.kernel.Schedule(d.dataRate.TxTime(next.Size())+d.ifg, d.transmitComplete)
	}
}

// notifyTransition reports res to the device's FSMObserver if one is
// installed, but only when the FSM actually changed state: a BUSY
// self-loop (ActionDequeueAndRestart) is an action, not a transition,
// and observers care about state changes, not every applied event.
func (d *NetDevice) notifyTransition(res FSMResult) {
	if d.fsmObserver != nil && res.Changed {
		d.fsmObserver.OnTransition(d, res.OldState, res.NewState)
	}
}

// Receive is invoked by the channel when a packet arrives on this
// device. It notifies the RxObserver, then forwards the packet upward.
func (d *NetDevice) Receive(p packet.Packet) {
	if d.rxObserver != nil {
		d.rxObserver.OnReceive(d, p)
	}

	if d.forward != nil {
		d.forward(d, p)
	}
}

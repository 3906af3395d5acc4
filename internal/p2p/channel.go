package p2p

import (
	"errors"
	"log/slog"
	"time"

	"github.com/go-netsim/netsimd/internal/packet"
	"github.com/go-netsim/netsimd/internal/simkernel"
	"github.com/go-netsim/netsimd/internal/simtime"
)

// ErrChannelFull is returned by Attach once two endpoints are already
// attached (attachment count in {0,1,2}, closed at 2).
var ErrChannelFull = errors.New("p2p: channel already has two endpoints attached")

// errNoSender is a contract-violation guard: TransmitStart must always
// be called with a sender that is one of the channel's endpoints.
var errNoSender = errors.New("p2p: transmit from a device not attached to this channel")

// Channel is a two-endpoint, full-duplex-per-direction medium. It
// holds one DataRate and one propagation Delay and is stateless with
// respect to in-flight packets once a delivery is scheduled: the
// kernel event it scheduled is the only record of that packet's
// flight.
//
// Sends go through a narrow interface so a device never depends on the
// concrete delivery mechanism and tests can substitute a fake channel.
type Channel struct {
	kernel    *simkernel.Kernel
	rate      simtime.DataRate
	delay     time.Duration
	logger    *slog.Logger
	endpoints [2]*NetDevice
	attached  int
}

// NewChannel creates a Channel with the given rate and propagation
// delay, driven by kernel's virtual clock.
func NewChannel(kernel *simkernel.Kernel, rate simtime.DataRate, delay time.Duration, logger *slog.Logger) *Channel {
	if logger == nil {
		logger = slog.Default()
	}

	return &Channel{
		kernel: kernel,
		rate:   rate,
		delay:  delay,
		logger: logger.With(slog.String("component", "p2p.channel")),
	}
}

// DataRate returns the channel's configured data rate.
func (c *Channel) DataRate() simtime.DataRate { return c.rate }

// Delay returns the channel's propagation delay.
func (c *Channel) Delay() time.Duration { return c.delay }

// Attach records dev as one of the channel's (at most two) endpoints.
// Returns ErrChannelFull once two devices are already attached.
func (c *Channel) Attach(dev *NetDevice) error {
	if c.attached >= 2 {
		return ErrChannelFull
	}

	c.endpoints[c.attached] = dev
	c.attached++

	return nil
}

// TransmitStart hands a packet to the channel for delivery to the
// non-sender endpoint at now+txTime+delay, where txTime is derived
// from the channel's own DataRate (mirrored from the sending device's
// DataRate at Attach time, so the two always agree). Returns true iff
// a peer is attached to receive it.
//
// Sending into a channel with fewer than two attachments is a contract
// violation: the device must not call this unless its link is up,
// which in this implementation's chosen semantics happens on its own
// Attach, not on both-sided attach -- so this can still legitimately be
// called before a peer exists. In that case TransmitStart returns false
// without scheduling anything, exactly as dropping the packet on the
// floor of an unconnected wire.
func (c *Channel) TransmitStart(p packet.Packet, sender *NetDevice) bool {
	peer := c.peerOf(sender)
	if peer == nil {
		return false
	}

	txTime := c.rate.TxTime(p.Size())
	c.kernel.Schedule(txTime+c.delay, func() {
		peer.Receive(p)
	})

	return true
}

// peerOf returns the endpoint that is not sender, or nil if no second
// endpoint exists yet. Panics if sender is
// not one of the channel's attached endpoints at all -- that is a
// contract violation, not a topology condition the caller can recover
// from.
func (c *Channel) peerOf(sender *NetDevice) *NetDevice {
	switch {
	case c.endpoints[0] == sender:
		return c.endpoints[1]
	case c.endpoints[1] == sender:
		return c.endpoints[0]
	default:
		panic(errNoSender)
	}
}

// PeerOf returns the device attached to the other end of the channel
// from dev, or nil if no second endpoint has attached yet. It is how
// the routing core walks from a device to whatever sits on the far
// side of its wire without the channel knowing anything about routers
// or LSAs.
func (c *Channel) PeerOf(dev *NetDevice) *NetDevice {
	return c.peerOf(dev)
}

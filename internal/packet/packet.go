// Package packet defines the immutable unit of data exchanged between
// net devices and channels.
package packet

import "sync/atomic"

// uidCounter allocates Packet UIDs. It is process-wide, so UIDs are
// unique across every kernel and topology in the process.
var uidCounter atomic.Uint64

// Packet is an opaque payload with a unique 64-bit identifier and a
// size in bytes. It has no mutable fields: once constructed, a Packet
// is handed off from owner to owner (upper layer -> device -> channel
// -> peer device -> peer upper layer) and never held by two owners at
// once.
type Packet struct {
	uid  uint64
	size uint32
	// tag is an optional tracing sequence number, set by the sender's
	// upper layer, that lets log lines and metric labels correlate one
	// packet across device, channel, and peer device without
	// reconstructing it from timestamps.
	tag uint64
}

// New allocates a Packet with a fresh UID and the given size in bytes.
func New(size uint32) Packet {
	return Packet{uid: uidCounter.Add(1), size: size}
}

// NewTagged allocates a Packet with a fresh UID, the given size, and an
// explicit trace tag.
func NewTagged(size uint32, tag uint64) Packet {
	return Packet{uid: uidCounter.Add(1), size: size, tag: tag}
}

// UID returns the packet's unique identifier.
func (p Packet) UID() uint64 { return p.uid }

// Size returns the packet's size in bytes.
func (p Packet) Size() uint32 { return p.size }

// Tag returns the packet's trace tag, zero if unset.
func (p Packet) Tag() uint64 { return p.tag }

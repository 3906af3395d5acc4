// Package routing implements the global link-state routing core:
// router-LSA discovery, an LSDB, Dijkstra SPF, and forwarding-table
// installation, modeled on OSPFv2 (RFC 2328), but simplified to a
// single-area, single-LSA-type topology snapshot rather than a full
// incremental flooding protocol.
package routing

import "fmt"

// RouterID uniquely identifies a router in the routing domain, in the
// dotted-quad textual form OSPF uses for router IDs even though it
// carries no IP semantics here.
type RouterID string

// String returns the textual router ID.
func (r RouterID) String() string { return string(r) }

// LinkType discriminates the kind of thing a GlobalRouterLinkRecord
// connects to, mirroring RFC 2328 §12.4.1's router-LSA link type
// field. TransitNetwork and VirtualLink are reserved: this topology
// model never attaches more than two endpoints to a channel, so
// neither ever gets originated.
type LinkType uint8

const (
	// LinkTypePointToPoint identifies a link record pointing to
	// another router's RouterID. It is the zero value since it was the
	// only link type this package originated before StubNetwork
	// support was added.
	LinkTypePointToPoint LinkType = iota
	// LinkTypeStubNetwork identifies a link record for the leaf subnet
	// behind a point-to-point interface, terminal in SPF.
	LinkTypeStubNetwork
	// LinkTypeTransitNetwork is reserved (RFC 2328 link type 2); never
	// originated by this package.
	LinkTypeTransitNetwork
	// LinkTypeVirtualLink is reserved (RFC 2328 link type 4); never
	// originated by this package.
	LinkTypeVirtualLink
)

// String returns the RFC 2328 name for the link type.
func (t LinkType) String() string {
	switch t {
	case LinkTypePointToPoint:
		return "PointToPoint"
	case LinkTypeStubNetwork:
		return "StubNetwork"
	case LinkTypeTransitNetwork:
		return "TransitNetwork"
	case LinkTypeVirtualLink:
		return "VirtualLink"
	default:
		return "Unknown"
	}
}

// GlobalRouterLinkRecord describes one link from a router's
// perspective: the neighbor it connects to, the interface used to
// reach it, and the cost of using it. Modeled on OSPFv2's Router-LSA
// link entries (RFC 2328 §12.4.1): a PointToPoint record per up
// adjacency to another router, plus a StubNetwork record for the leaf
// subnet behind that same interface.
type GlobalRouterLinkRecord struct {
	// Type discriminates what LinkID/LinkData mean for this record.
	Type LinkType

	// LinkID identifies what this link connects to: the neighbor's
	// RouterID for a point-to-point link, or a synthesized subnet
	// identifier for a stub network. This topology model carries no
	// real IPv4 stack, so stub identifiers are opaque strings shaped
	// like the RFC 2328 fields they stand in for rather than routable
	// addresses.
	LinkID RouterID

	// LinkData is the local interface's address for a point-to-point
	// record, or the subnet mask for a stub network record.
	LinkData string

	// LocalDevice is the name of the local net device this link
	// record was discovered through.
	LocalDevice string

	// Metric is the cost of forwarding across this link. The default
	// metric for a link with no explicit cost configured is 1,
	// matching OSPF's convention of treating an unspecified cost as
	// the cheapest non-zero value rather than as infinity.
	Metric uint32
}

// GlobalRouterLSA is one router's complete link-state advertisement:
// its identity and the full list of links it has discovered. Modeled
// on OSPFv2's Router-LSA (RFC 2328 §12.4.1): one PointToPoint record
// per up adjacency plus one StubNetwork record per such interface;
// transit networks and virtual links never appear since this topology
// model never attaches more than two endpoints to a channel.
type GlobalRouterLSA struct {
	// RouterID is the originating router's identity.
	RouterID RouterID

	// SequenceNumber increases each time a router re-discovers and
	// re-originates its LSA, mirroring RFC 2328 §12.1.6's use of LS
	// sequence number to tell instances of the same LSA apart. The
	// LSDB keeps only the LSA with the highest sequence number for any
	// given RouterID.
	SequenceNumber uint32

	// Links is this router's complete set of discovered links.
	Links []GlobalRouterLinkRecord
}

// String renders the LSA for logging.
func (lsa GlobalRouterLSA) String() string {
	return fmt.Sprintf("LSA{router=%s, seq=%d, links=%d}", lsa.RouterID, lsa.SequenceNumber, len(lsa.Links))
}

// SPFVertex is one node of the shortest-path tree built by the SPF
// calculation: a router, its accumulated cost from the root, and the
// set of parent routers through which that cost is achieved. Modeled
// on OSPFv2's SPF calculation (RFC 2328 §16.1), with Parents plural to
// capture equal-cost multipath the way RFC 2328 step 2's "or, if the
// calculated cost is equal... add nexthop" allows.
type SPFVertex struct {
	// Router is the vertex's identity.
	Router RouterID

	// Cost is the total path cost from the SPF root to Router.
	Cost uint32

	// Parents holds every RouterID on an equal-cost shortest path to
	// Router, one hop closer to the root. The root vertex has no
	// parents.
	Parents []RouterID

	// NextHops holds the set of local devices the root should use to
	// forward traffic destined for Router, one per distinct
	// shortest-path branch.
	NextHops []string
}

package routing

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-netsim/netsimd/internal/p2p"
)

// p2pSubnetMask is the conventional /30 mask applied to every
// synthesized point-to-point stub network this package originates:
// there is no real IPv4 stack here, so the mask is a fixed placeholder
// rather than something derived from configuration.
const p2pSubnetMask = "255.255.255.252"

// stubNetworkID synthesizes the leaf-subnet identifier a StubNetwork
// record advertises for the interface router/device connects,
// standing in for the RFC 2328 neighbor-IPv4 linkId this topology
// model has no real address to supply.
func stubNetworkID(router RouterID, device string) RouterID {
	return RouterID(fmt.Sprintf("stub:%s:%s", router, device))
}

// linkConfig is one locally configured point-to-point interface: a
// device and the cost of sending over it. The neighbor at the other
// end is never configured here -- it is discovered at DiscoverLSAs
// time by walking the device's channel to whatever is attached to the
// other side.
type linkConfig struct {
	device *p2p.NetDevice
	metric uint32
}

// GlobalRouter discovers its own link state and originates a
// GlobalRouterLSA for it, the way an OSPF router builds its Router-LSA
// from the interfaces it has brought to the Full/2-Way adjacency state
// (RFC 2328 §12.4.1). A mutex-guarded owner of a set of configured
// resources with a CRUD-shaped API (AddLink / DiscoverLSAs).
type GlobalRouter struct {
	mu       sync.Mutex
	id       RouterID
	links    []linkConfig
	sequence uint32
	logger   *slog.Logger
}

// NewGlobalRouter creates a router identified by id.
func NewGlobalRouter(id RouterID, logger *slog.Logger) *GlobalRouter {
	if logger == nil {
		logger = slog.Default()
	}

	return &GlobalRouter{
		id:     id,
		logger: logger.With(slog.String("component", "routing.router"), slog.String("router_id", string(id))),
	}
}

// ID returns the router's identity.
func (r *GlobalRouter) ID() RouterID { return r.id }

// AddLink configures a point-to-point interface over dev, at the
// given metric. A metric of 0 is normalized to 1: an unconfigured cost
// is the cheapest non-zero cost, never free.
//
// AddLink also tags dev with this router's ID (NetDevice.SetOwnerRouterID),
// so that when a neighbor later walks its own channel to find dev on
// the other end, it can tell dev belongs to a routing participant.
func (r *GlobalRouter) AddLink(dev *p2p.NetDevice, metric uint32) {
	if metric == 0 {
		metric = 1
	}

	if dev != nil {
		dev.SetOwnerRouterID(string(r.id))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.links = append(r.links, linkConfig{device: dev, metric: metric})
}

// DiscoverLSAs walks the router's configured interfaces and originates
// a GlobalRouterLSA containing link records for each link whose
// device currently reports its link up. A link whose device is
// down is omitted entirely, the same as an OSPF interface that has not
// reached a communicating adjacency state being left out of the
// Router-LSA (RFC 2328 §12.4.1.1).
//
// Each call increments the LSA's sequence number, mirroring a router
// re-originating its LSA whenever its local link state changes.
//
// For each up device, DiscoverLSAs follows its channel to the
// attached peer device (Channel.PeerOf) and checks whether that peer
// was itself tagged with an owning RouterID (NetDevice.OwnerRouterID):
// if so, the neighbor is a router and the interface yields both a
// PointToPoint record naming it and a StubNetwork record for the leaf
// subnet behind the interface; if not -- no peer attached yet, or the
// peer's node carries no GlobalRouter -- only the StubNetwork record
// is emitted.
func (r *GlobalRouter) DiscoverLSAs() GlobalRouterLSA {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sequence++

	lsa := GlobalRouterLSA{
		RouterID:       r.id,
		SequenceNumber: r.sequence,
	}

	for _, link := range r.links {
		dev := link.device
		if dev == nil || !dev.LinkUp() {
			continue
		}

		if peerID, ok := peerRouterID(dev); ok {
			lsa.Links = append(lsa.Links, GlobalRouterLinkRecord{
				Type:        LinkTypePointToPoint,
				LinkID:      RouterID(peerID),
				LinkData:    dev.MacAddr(),
				LocalDevice: dev.Name(),
				Metric:      link.metric,
			})
		}

		lsa.Links = append(lsa.Links, GlobalRouterLinkRecord{
			Type:        LinkTypeStubNetwork,
			LinkID:      stubNetworkID(r.id, dev.Name()),
			LinkData:    p2pSubnetMask,
			LocalDevice: dev.Name(),
			Metric:      link.metric,
		})
	}

	r.logger.Debug("discovered LSA", slog.Any("lsa", lsa))

	return lsa
}

// peerRouterID follows dev's channel to the attached peer device and
// reports the RouterID it was tagged with, if any. Returns false if
// dev has no channel, no peer has attached yet, or the peer's node
// carries no GlobalRouter.
func peerRouterID(dev *p2p.NetDevice) (string, bool) {
	ch := dev.Channel()
	if ch == nil {
		return "", false
	}

	peer := ch.PeerOf(dev)
	if peer == nil {
		return "", false
	}

	return peer.OwnerRouterID()
}

// Package topology provides the node-list service the routing core
// uses to enumerate every node in a simulated network, following a
// create-once, look-up-by-ID ownership model shared by both the data
// path and the control surface.
package topology

import (
	"log/slog"
	"sync"

	"github.com/go-netsim/netsimd/internal/p2p"
	"github.com/go-netsim/netsimd/internal/routing"
)

// Node owns the net devices and optional routing element that make up
// one simulated host or router.
type Node struct {
	// ID is the node's human-readable name, independent of any
	// RouterID it may also carry if it participates in routing.
	ID string

	// Router is the node's global router, or nil for a node that only
	// forwards at layer two (e.g. a pure end host in a test topology).
	Router *routing.GlobalRouter

	devices map[string]*p2p.NetDevice
}

// NewNode creates an empty node identified by id.
func NewNode(id string) *Node {
	return &Node{ID: id, devices: make(map[string]*p2p.NetDevice)}
}

// AddDevice registers dev under the node, keyed by its name.
func (n *Node) AddDevice(dev *p2p.NetDevice) {
	n.devices[dev.Name()] = dev
}

// Device looks up a device by name.
func (n *Node) Device(name string) (*p2p.NetDevice, bool) {
	dev, ok := n.devices[name]
	return dev, ok
}

// Devices returns every device owned by the node. The returned slice
// is a fresh copy; mutating it does not affect the node.
func (n *Node) Devices() []*p2p.NetDevice {
	out := make([]*p2p.NetDevice, 0, len(n.devices))
	for _, dev := range n.devices {
		out = append(out, dev)
	}
	return out
}

// Registry is the node-list service: the single collaborator both the
// device layer and the routing core traverse to find every node in a
// run.
type Registry struct {
	mu     sync.RWMutex
	nodes  map[string]*Node
	logger *slog.Logger
}

// NewRegistry creates an empty node registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		nodes:  make(map[string]*Node),
		logger: logger.With(slog.String("component", "topology.registry")),
	}
}

// AddNode registers node, indexed by its ID. Re-registering an
// existing ID replaces the prior node; callers that need
// duplicate-detection should check Lookup first.
func (r *Registry) AddNode(node *Node) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nodes[node.ID] = node
	r.logger.Debug("node registered", slog.String("node", node.ID))
}

// Lookup returns the node with the given ID, if registered.
func (r *Registry) Lookup(id string) (*Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	node, ok := r.nodes[id]
	return node, ok
}

// Nodes returns every registered node. The returned slice is a fresh
// copy; mutating it does not affect the registry.
func (r *Registry) Nodes() []*Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Node, 0, len(r.nodes))
	for _, node := range r.nodes {
		out = append(out, node)
	}

	return out
}

// Len returns the number of registered nodes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.nodes)
}

// Remove deletes a node from the registry. A no-op if id is not
// registered.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.nodes, id)
}

// InitializeRoutes runs the LSDB build phase (phase 1) against every
// node currently registered: it flushes db, walks every node that carries a
// GlobalRouter, calls DiscoverLSAs on each, and installs the result.
// Route computation itself (phase 2, Dijkstra SPF) stays lazy --
// RunSPF/BuildForwardingTable are cheap enough to run on demand per the
// control API and CLI, so nothing here caches a forwarding table that
// could drift from db.
//
// May be called repeatedly: each call recomputes from scratch rather
// than accumulating stale LSAs from a topology that has since changed,
// so db is flushed first. Returns the number of LSAs installed.
func (r *Registry) InitializeRoutes(db *routing.LSDB) int {
	db.Flush()

	installed := 0
	for _, node := range r.Nodes() {
		if node.Router == nil {
			continue
		}

		if db.Install(node.Router.DiscoverLSAs()) {
			installed++
		}
	}

	r.logger.Info("routes initialized", slog.Int("lsas_installed", installed))

	return installed
}

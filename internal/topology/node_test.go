package topology_test

import (
	"testing"
	"time"

	"github.com/go-netsim/netsimd/internal/p2p"
	"github.com/go-netsim/netsimd/internal/routing"
	"github.com/go-netsim/netsimd/internal/simkernel"
	"github.com/go-netsim/netsimd/internal/simtime"
	"github.com/go-netsim/netsimd/internal/topology"
)

func TestRegistryAddAndLookup(t *testing.T) {
	t.Parallel()

	reg := topology.NewRegistry(nil)

	n1 := topology.NewNode("r1")
	reg.AddNode(n1)

	got, ok := reg.Lookup("r1")
	if !ok || got != n1 {
		t.Fatalf("Lookup(r1) = %v, %v; want n1, true", got, ok)
	}

	if _, ok := reg.Lookup("missing"); ok {
		t.Fatal("expected Lookup(missing) to fail")
	}

	if reg.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", reg.Len())
	}
}

func TestNodeOwnsDevices(t *testing.T) {
	t.Parallel()

	k := simkernel.New()
	ch := p2p.NewChannel(k, simtime.MegabitPerSecond, time.Millisecond, nil)
	dev := p2p.NewNetDevice(k, "eth0", "00:00:00:00:00:01", nil)
	if err := dev.Attach(ch); err != nil {
		t.Fatal(err)
	}

	node := topology.NewNode("r1")
	node.AddDevice(dev)

	got, ok := node.Device("eth0")
	if !ok || got != dev {
		t.Fatalf("Device(eth0) = %v, %v; want dev, true", got, ok)
	}

	if len(node.Devices()) != 1 {
		t.Fatalf("Devices() len = %d, want 1", len(node.Devices()))
	}
}

func TestRegistryRemove(t *testing.T) {
	t.Parallel()

	reg := topology.NewRegistry(nil)
	reg.AddNode(topology.NewNode("r1"))
	reg.Remove("r1")

	if _, ok := reg.Lookup("r1"); ok {
		t.Fatal("expected node removed")
	}
}

func TestInitializeRoutesInstallsOneLSAPerRouter(t *testing.T) {
	t.Parallel()

	k := simkernel.New()
	ch := p2p.NewChannel(k, simtime.MegabitPerSecond, time.Millisecond, nil)

	dev1 := p2p.NewNetDevice(k, "eth0", "00:00:00:00:00:01", nil)
	dev2 := p2p.NewNetDevice(k, "eth0", "00:00:00:00:00:02", nil)
	if err := dev1.Attach(ch); err != nil {
		t.Fatal(err)
	}
	if err := dev2.Attach(ch); err != nil {
		t.Fatal(err)
	}

	r1 := routing.NewGlobalRouter("0.0.0.1", nil)
	r2 := routing.NewGlobalRouter("0.0.0.2", nil)
	r1.AddLink(dev1, 1)
	r2.AddLink(dev2, 1)

	n1 := topology.NewNode("r1")
	n1.Router = r1
	n1.AddDevice(dev1)

	n2 := topology.NewNode("r2")
	n2.Router = r2
	n2.AddDevice(dev2)

	reg := topology.NewRegistry(nil)
	reg.AddNode(n1)
	reg.AddNode(n2)

	// A node with no Router attached must be skipped silently rather
	// than panicking on a nil GlobalRouter.
	reg.AddNode(topology.NewNode("host"))

	db := routing.NewLSDB(nil)

	if n := reg.InitializeRoutes(db); n != 2 {
		t.Fatalf("InitializeRoutes() installed %d LSAs, want 2", n)
	}
	if db.Len() != 2 {
		t.Fatalf("LSDB.Len() = %d, want 2", db.Len())
	}

	// Re-running must recompute from scratch rather than accumulate
	// duplicate state.
	if n := reg.InitializeRoutes(db); n != 2 {
		t.Fatalf("second InitializeRoutes() installed %d LSAs, want 2", n)
	}
	if db.Len() != 2 {
		t.Fatalf("LSDB.Len() after second run = %d, want 2", db.Len())
	}
}

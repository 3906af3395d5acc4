package p2p_test

import (
	"testing"
	"time"

	"github.com/go-netsim/netsimd/internal/packet"
	"github.com/go-netsim/netsimd/internal/p2p"
	"github.com/go-netsim/netsimd/internal/simkernel"
	"github.com/go-netsim/netsimd/internal/simqueue"
	"github.com/go-netsim/netsimd/internal/simtime"
)

func newLinkedPair(t *testing.T, k *simkernel.Kernel, rate simtime.DataRate, delay, ifg time.Duration) (a, b *p2p.NetDevice, ch *p2p.Channel) {
	t.Helper()

	ch = p2p.NewChannel(k, rate, delay, nil)
	a = p2p.NewNetDevice(k, "a", "00:00:00:00:00:01", nil)
	b = p2p.NewNetDevice(k, "b", "00:00:00:00:00:02", nil)

	a.SetInterframeGap(ifg)
	b.SetInterframeGap(ifg)
	a.AddQueue(simqueue.New(8))
	b.AddQueue(simqueue.New(8))

	if err := a.Attach(ch); err != nil {
		t.Fatalf("a.Attach: %v", err)
	}
	if err := b.Attach(ch); err != nil {
		t.Fatalf("b.Attach: %v", err)
	}

	return a, b, ch
}

// Scenario S1: a single 1250-byte packet over a 10Mbps link with 2ms
// propagation delay arrives at txTime(1ms) + delay(2ms) = 3ms.
func TestScenarioS1SinglePacketDeliveryTime(t *testing.T) {
	t.Parallel()

	k := simkernel.New()
	a, b, _ := newLinkedPair(t, k, 10*simtime.MegabitPerSecond, 2*time.Millisecond, 0)

	var arrivedAt time.Duration
	received := false
	b.SetForward(func(_ *p2p.NetDevice, _ packet.Packet) {
		arrivedAt = k.Now()
		received = true
	})

	a.SendTo(packet.New(1250))
	k.Run()

	if !received {
		t.Fatal("packet never arrived")
	}
	if want := 3 * time.Millisecond; arrivedAt != want {
		t.Fatalf("arrivedAt = %v, want %v", arrivedAt, want)
	}
}

// Scenario S2: two 1250-byte packets back to back with ifg=0 arrive
// 1ms apart, the second at txTime(1ms)*2 + delay(2ms) = 4ms.
func TestScenarioS2BackToBackNoGap(t *testing.T) {
	t.Parallel()

	k := simkernel.New()
	a, b, _ := newLinkedPair(t, k, 10*simtime.MegabitPerSecond, 2*time.Millisecond, 0)

	var arrivals []time.Duration
	b.SetForward(func(_ *p2p.NetDevice, _ packet.Packet) {
		arrivals = append(arrivals, k.Now())
	})

	a.SendTo(packet.New(1250))
	a.SendTo(packet.New(1250))
	k.Run()

	if len(arrivals) != 2 {
		t.Fatalf("got %d arrivals, want 2", len(arrivals))
	}
	if want := 3 * time.Millisecond; arrivals[0] != want {
		t.Fatalf("arrivals[0] = %v, want %v", arrivals[0], want)
	}
	if want := 4 * time.Millisecond; arrivals[1] != want {
		t.Fatalf("arrivals[1] = %v, want %v", arrivals[1], want)
	}
}

// Scenario S3: same as S2 but with a 9.6us interframe gap, pushing the
// second arrival to 4.0096ms.
func TestScenarioS3BackToBackWithInterframeGap(t *testing.T) {
	t.Parallel()

	k := simkernel.New()
	a, b, _ := newLinkedPair(t, k, 10*simtime.MegabitPerSecond, 2*time.Millisecond, 9600*time.Nanosecond)

	var arrivals []time.Duration
	b.SetForward(func(_ *p2p.NetDevice, _ packet.Packet) {
		arrivals = append(arrivals, k.Now())
	})

	a.SendTo(packet.New(1250))
	a.SendTo(packet.New(1250))
	k.Run()

	if len(arrivals) != 2 {
		t.Fatalf("got %d arrivals, want 2", len(arrivals))
	}
	if want := 4009600 * time.Nanosecond; arrivals[1] != want {
		t.Fatalf("arrivals[1] = %v, want %v", arrivals[1], want)
	}
}

// Scenario S4: a queue of capacity 1 drops the third packet offered
// while the device is BUSY.
func TestScenarioS4QueueOverflowDrops(t *testing.T) {
	t.Parallel()

	k := simkernel.New()
	ch := p2p.NewChannel(k, 10*simtime.MegabitPerSecond, 2*time.Millisecond, nil)
	a := p2p.NewNetDevice(k, "a", "00:00:00:00:00:01", nil)
	b := p2p.NewNetDevice(k, "b", "00:00:00:00:00:02", nil)
	a.AddQueue(simqueue.New(1))
	b.AddQueue(simqueue.New(1))

	if err := a.Attach(ch); err != nil {
		t.Fatal(err)
	}
	if err := b.Attach(ch); err != nil {
		t.Fatal(err)
	}

	if !a.SendTo(packet.New(1250)) {
		t.Fatal("first send should start transmission")
	}
	if !a.SendTo(packet.New(1250)) {
		t.Fatal("second send should queue")
	}
	if a.SendTo(packet.New(1250)) {
		t.Fatal("third send should be dropped")
	}
}

func TestSendToWithNoChannelPanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()

	k := simkernel.New()
	a := p2p.NewNetDevice(k, "a", "00:00:00:00:00:01", nil)
	a.SendTo(packet.New(100))
}

func TestNeedsArpIsAlwaysFalse(t *testing.T) {
	t.Parallel()

	k := simkernel.New()
	a := p2p.NewNetDevice(k, "a", "00:00:00:00:00:01", nil)

	if a.NeedsArp() {
		t.Fatal("point-to-point devices never need ARP")
	}
}

type recordingFSMObserver struct {
	transitions [][2]p2p.State
}

func (r *recordingFSMObserver) OnTransition(_ *p2p.NetDevice, from, to p2p.State) {
	r.transitions = append(r.transitions, [2]p2p.State{from, to})
}

func TestFSMObserverSeesOnlyRealTransitions(t *testing.T) {
	t.Parallel()

	k := simkernel.New()
	a, b, _ := newLinkedPair(t, k, 10*simtime.MegabitPerSecond, time.Millisecond, 0)
	_ = b

	obs := &recordingFSMObserver{}
	a.SetFSMObserver(obs)

	a.SendTo(packet.New(100))
	a.SendTo(packet.New(100))
	k.Run()

	if len(obs.transitions) != 2 {
		t.Fatalf("got %d transitions, want 2 (READY->BUSY, BUSY->READY)", len(obs.transitions))
	}
	if obs.transitions[0] != [2]p2p.State{p2p.StateReady, p2p.StateBusy} {
		t.Fatalf("transitions[0] = %v, want READY->BUSY", obs.transitions[0])
	}
	if obs.transitions[1] != [2]p2p.State{p2p.StateBusy, p2p.StateReady} {
		t.Fatalf("transitions[1] = %v, want BUSY->READY", obs.transitions[1])
	}
}

package p2p_test

import (
	"testing"
	"time"

	"github.com/go-netsim/netsimd/internal/p2p"
	"github.com/go-netsim/netsimd/internal/simkernel"
	"github.com/go-netsim/netsimd/internal/simtime"
)

func TestScheduledLinkMonitorEmitsDownThenUp(t *testing.T) {
	t.Parallel()

	k := simkernel.New()
	ch := p2p.NewChannel(k, 10*simtime.MegabitPerSecond, time.Millisecond, nil)
	a := p2p.NewNetDevice(k, "a", "00:00:00:00:00:01", nil)
	if err := a.Attach(ch); err != nil {
		t.Fatal(err)
	}

	mon := p2p.NewScheduledLinkMonitor(k, a, nil)
	mon.ScheduleDown(5 * time.Millisecond)
	mon.ScheduleUp(10 * time.Millisecond)

	k.RunUntil(5 * time.Millisecond)

	ev := <-mon.Events()
	if ev.Up {
		t.Fatal("expected down event first")
	}
	if a.LinkUp() {
		t.Fatal("device should report link down after ScheduleDown fired")
	}

	k.Run()

	ev = <-mon.Events()
	if !ev.Up {
		t.Fatal("expected up event second")
	}
	if !a.LinkUp() {
		t.Fatal("device should report link up after ScheduleUp fired")
	}
}

func TestStubLinkMonitorNeverEmits(t *testing.T) {
	t.Parallel()

	mon := p2p.NewStubLinkMonitor()

	select {
	case ev := <-mon.Events():
		t.Fatalf("stub monitor emitted %+v, want none", ev)
	default:
	}
}

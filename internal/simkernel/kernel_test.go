package simkernel_test

import (
	"testing"
	"time"

	"github.com/go-netsim/netsimd/internal/simkernel"
)

func TestScheduleFiresAtCorrectTime(t *testing.T) {
	t.Parallel()

	k := simkernel.New()

	var firedAt time.Duration
	k.Schedule(5*time.Millisecond, func() {
		firedAt = k.Now()
	})

	k.Run()

	if firedAt != 5*time.Millisecond {
		t.Fatalf("firedAt = %s, want 5ms", firedAt)
	}
}

func TestEventsFireInTimeOrder(t *testing.T) {
	t.Parallel()

	k := simkernel.New()

	var order []int
	k.Schedule(10*time.Millisecond, func() { order = append(order, 2) })
	k.Schedule(1*time.Millisecond, func() { order = append(order, 1) })
	k.Schedule(20*time.Millisecond, func() { order = append(order, 3) })

	k.Run()

	want := []int{1, 2, 3}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestTiesBreakByInsertionOrder(t *testing.T) {
	t.Parallel()

	k := simkernel.New()

	var order []int
	k.Schedule(1*time.Millisecond, func() { order = append(order, 1) })
	k.Schedule(1*time.Millisecond, func() { order = append(order, 2) })
	k.Schedule(1*time.Millisecond, func() { order = append(order, 3) })

	k.Run()

	want := []int{1, 2, 3}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestChainedSchedulingDrains(t *testing.T) {
	t.Parallel()

	k := simkernel.New()

	count := 0
	var step func()
	step = func() {
		count++
		if count < 3 {
			k.Schedule(1*time.Millisecond, step)
		}
	}
	k.Schedule(0, step)

	k.Run()

	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
}

func TestNegativeDelayPanics(t *testing.T) {
	t.Parallel()

	k := simkernel.New()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on negative delay")
		}
	}()

	k.Schedule(-1*time.Millisecond, func() {})
}

func TestRunUntilLeavesLaterEventsPending(t *testing.T) {
	t.Parallel()

	k := simkernel.New()

	var fired []int
	k.Schedule(1*time.Millisecond, func() { fired = append(fired, 1) })
	k.Schedule(100*time.Millisecond, func() { fired = append(fired, 2) })

	k.RunUntil(50 * time.Millisecond)

	if len(fired) != 1 || fired[0] != 1 {
		t.Fatalf("fired = %v, want [1]", fired)
	}
	if k.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1", k.Pending())
	}
}

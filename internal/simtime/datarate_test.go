package simtime_test

import (
	"testing"
	"time"

	"github.com/go-netsim/netsimd/internal/simtime"
)

// Scenario S1 from the testable-properties table: a 1,250-byte packet
// over a 10 Mb/s link takes exactly 1 ms to put on the wire.
func TestTxTimeScenarioS1(t *testing.T) {
	t.Parallel()

	rate := 10 * simtime.MegabitPerSecond
	got := rate.TxTime(1250)

	want := 1 * time.Millisecond
	if got != want {
		t.Fatalf("TxTime(1250) at 10Mbps = %s, want %s", got, want)
	}
}

func TestTxTimeZeroRate(t *testing.T) {
	t.Parallel()

	var rate simtime.DataRate
	if got := rate.TxTime(1250); got != 0 {
		t.Fatalf("TxTime at rate 0 = %s, want 0", got)
	}
}

func TestDataRateString(t *testing.T) {
	t.Parallel()

	cases := []struct {
		rate simtime.DataRate
		want string
	}{
		{10 * simtime.MegabitPerSecond, "10Mbps"},
		{1 * simtime.GigabitPerSecond, "1Gbps"},
		{500 * simtime.KilobitPerSecond, "500Kbps"},
		{7, "7bps"},
	}

	for _, tc := range cases {
		if got := tc.rate.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestParseDataRateRoundTrips(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want simtime.DataRate
	}{
		{"10Mbps", 10 * simtime.MegabitPerSecond},
		{"1Gbps", 1 * simtime.GigabitPerSecond},
		{"500Kbps", 500 * simtime.KilobitPerSecond},
		{"7bps", 7},
	}

	for _, tc := range cases {
		got, err := simtime.ParseDataRate(tc.in)
		if err != nil {
			t.Errorf("ParseDataRate(%q) error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseDataRate(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestParseDataRateRejectsUnknownUnit(t *testing.T) {
	t.Parallel()

	if _, err := simtime.ParseDataRate("10Tbps"); err == nil {
		t.Fatal("expected error for unrecognized unit suffix")
	}
}

func TestParseDataRateRejectsNonNumeric(t *testing.T) {
	t.Parallel()

	if _, err := simtime.ParseDataRate("fastMbps"); err == nil {
		t.Fatal("expected error for non-numeric magnitude")
	}
}

package system

import (
	"testing"
	"time"
)

func TestClockNowUTC(t *testing.T) {
	t.Parallel()

	before := time.Now().UTC().Add(-time.Second)
	got := New().Now()
	after := time.Now().UTC().Add(time.Second)

	if got.Location() != time.UTC {
		t.Fatalf("expected UTC location, got %v", got.Location())
	}
	if got.Before(before) || got.After(after) {
		t.Fatalf("expected %v to be between %v and %v", got, before, after)
	}
}

func TestFixed(t *testing.T) {
	t.Parallel()

	at := time.Unix(1700000000, 0)
	clk := Fixed(at)
	if !clk.Now().Equal(at) || !clk.Now().Equal(clk.Now()) {
		t.Fatalf("expected fixed clock to report %v", at)
	}
}

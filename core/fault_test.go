package core

import "testing"

func TestFaultLatch(t *testing.T) {
	var latch FaultLatch

	if latch.Tripped() {
		t.Errorf("New latch must not be tripped")
	}

	latch.Trip()
	latch.Trip()
	if !latch.Tripped() {
		t.Errorf("Expected latch to be tripped")
	}
	if latch.Trips() != 2 {
		t.Errorf("Expected 2 trips, got %d", latch.Trips())
	}

	if !latch.Clear() {
		t.Errorf("Clear must report the latched fault")
	}
	if latch.Tripped() {
		t.Errorf("Expected latch to be clear")
	}
	if latch.Clear() {
		t.Errorf("Second Clear must report nothing latched")
	}
	if latch.Trips() != 2 {
		t.Errorf("Clear must not reset the trip count, got %d", latch.Trips())
	}
}

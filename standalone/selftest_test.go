package standalone

import (
	"testing"
	"time"
)

func TestSelfTestSequence(t *testing.T) {
	f := newFixture(t)
	st := NewSelfTest(DefaultSelfTest(), f.ctx.Drive, f.ctx.Log)

	expected := []struct {
		at          time.Duration
		left, right int
		done        bool
	}{
		{0, 200, 200, false},
		{1 * time.Second, 200, 200, false},
		{2 * time.Second, 0, 0, false},
		{3 * time.Second, -200, -200, false},
		{5 * time.Second, 0, 0, false},
		{6 * time.Second, -200, 200, false},
		{8 * time.Second, 0, 0, false},
		{9 * time.Second, 200, -200, false},
		{11 * time.Second, 0, 0, false},
		{12 * time.Second, 0, 0, true},
	}

	for i, want := range expected {
		done, err := st.Advance(t0.Add(want.at))
		if err != nil {
			t.Fatalf("Advance at %v failed: %v", want.at, err)
		}
		if done != want.done {
			t.Errorf("At %v: expected done=%v, got %v", want.at, want.done, done)
		}
		checkWheels(t, f, i, want.left, want.right)
	}

	if !st.Done() {
		t.Error("Expected self test done")
	}
	if done, _ := st.Advance(t0.Add(20 * time.Second)); !done {
		t.Error("Expected a finished self test to stay done")
	}
}

func TestSelfTestHoldsStep(t *testing.T) {
	f := newFixture(t)
	st := NewSelfTest(DefaultSelfTest(), f.ctx.Drive, nil)

	st.Advance(t0)
	st.Advance(t0.Add(1999 * time.Millisecond))
	if st.Step() != 0 {
		t.Errorf("Expected first step held for 2s, now at step %d", st.Step())
	}
	st.Advance(t0.Add(2 * time.Second))
	if st.Step() != 1 {
		t.Errorf("Expected step 1 after 2s, got %d", st.Step())
	}
}

func TestSelfTestReportsFault(t *testing.T) {
	f := newFixture(t)
	f.board.SetFault(testFaultPin, true)
	st := NewSelfTest(DefaultSelfTest(), f.ctx.Drive, nil)

	if _, err := st.Advance(t0); err == nil {
		t.Error("Expected error with fault asserted")
	}
	checkWheels(t, f, 0, 0, 0)
}

package core

import "testing"

func TestNoiseSeedDeterministic(t *testing.T) {
	readings := []ADCValue{0x0123, 0x0456, 0x0789, 0x0ABC}

	seed1, err := NoiseSeed(&MockADCDriver{readings: readings}, 0)
	if err != nil {
		t.Fatalf("NoiseSeed failed: %v", err)
	}
	seed2, err := NoiseSeed(&MockADCDriver{readings: readings}, 0)
	if err != nil {
		t.Fatalf("NoiseSeed failed: %v", err)
	}
	if seed1 != seed2 {
		t.Errorf("Same readings produced different seeds: %d vs %d", seed1, seed2)
	}

	other, err := NoiseSeed(&MockADCDriver{readings: []ADCValue{0x0124, 0x0456, 0x0789, 0x0ABC}}, 0)
	if err != nil {
		t.Fatalf("NoiseSeed failed: %v", err)
	}
	if other == seed1 {
		t.Errorf("Different readings produced the same seed %d", seed1)
	}
}

func TestNoiseSeedConsumesSamples(t *testing.T) {
	driver := &MockADCDriver{readings: []ADCValue{1}}
	if _, err := NoiseSeed(driver, 2); err != nil {
		t.Fatalf("NoiseSeed failed: %v", err)
	}
	if driver.next != NoiseSamples {
		t.Errorf("Expected %d reads, got %d", NoiseSamples, driver.next)
	}
}

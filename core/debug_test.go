package core

import (
	"fmt"
	"strings"
	"testing"
)

func captureLog(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	SetLogWriter(func(level LogLevel, msg string) {
		lines = append(lines, level.String()+" "+msg)
	})
	t.Cleanup(func() { SetLogWriter(nil) })
	return &lines
}

func TestDebugLoggerLevels(t *testing.T) {
	lines := captureLog(t)
	log := DebugLogger{}

	SetDebugEnabled(false)
	log.Debugf("hidden %d", 1)
	log.Infof("mode %s", "Spin")
	log.Warnf("fault %v", true)
	log.Errorf("ramp aborted")

	expected := []string{"INFO mode Spin", "WARN fault true", "ERROR ramp aborted"}
	if len(*lines) != len(expected) {
		t.Fatalf("Expected %d lines, got %d: %v", len(expected), len(*lines), *lines)
	}
	for i := range expected {
		if (*lines)[i] != expected[i] {
			t.Errorf("Line %d: expected %q, got %q", i, expected[i], (*lines)[i])
		}
	}

	SetDebugEnabled(true)
	defer SetDebugEnabled(false)
	log.Debugf("shown %d", 2)
	if last := (*lines)[len(*lines)-1]; last != "DEBUG shown 2" {
		t.Errorf("Expected debug line once enabled, got %q", last)
	}
}

func TestDebugWriterPrefix(t *testing.T) {
	var got string
	SetDebugWriter(func(s string) { got = s })
	defer SetLogWriter(nil)

	DebugLogger{}.Warnf("low battery")
	if got != "[WARN] low battery" {
		t.Errorf("Expected prefixed line, got %q", got)
	}
}

func TestEventRingWraps(t *testing.T) {
	ClearEventRing()
	defer ClearEventRing()

	for i := 0; i < EventRingSize+3; i++ {
		RecordEvent(EvtDrive, 0, uint32(i), int32(i))
	}

	events := Events()
	if len(events) != EventRingSize {
		t.Fatalf("Expected %d events, got %d", EventRingSize, len(events))
	}
	if events[0].Millis != 3 {
		t.Errorf("Expected oldest event at t=3, got %d", events[0].Millis)
	}
	if events[len(events)-1].Millis != EventRingSize+2 {
		t.Errorf("Expected newest event at t=%d, got %d", EventRingSize+2, events[len(events)-1].Millis)
	}
}

func TestDumpEventRing(t *testing.T) {
	ClearEventRing()
	defer ClearEventRing()
	lines := captureLog(t)

	RecordEvent(EvtRampStep, 1, 150, 60)
	RecordEvent(EvtFault, 1, 200, -1)
	DumpEventRing()

	if len(*lines) != 4 {
		t.Fatalf("Expected header, 2 events and footer, got %v", *lines)
	}
	if !strings.Contains((*lines)[1], "RAMP_STEP ch=1 t=150 v=60") {
		t.Errorf("Unexpected ramp line %q", (*lines)[1])
	}
	if !strings.Contains((*lines)[2], "FAULT! ch=1 t=200 v=-1") {
		t.Errorf("Unexpected fault line %q", (*lines)[2])
	}
}

func TestDumpEventRingWithFullQueue(t *testing.T) {
	ClearEventRing()
	defer ClearEventRing()
	lines := captureLog(t)

	// Queue with no worker draining it, as on a cooperative scheduler
	// while the panic handler runs.
	logChan = make(chan logLine, 2)
	defer func() { logChan = nil }()

	for i := 0; i < EventRingSize; i++ {
		RecordEvent(EvtDrive, 0, uint32(i), int32(i))
	}
	DebugLogger{}.Errorf("panic one")
	DebugLogger{}.Errorf("panic two")
	DebugLogger{}.Errorf("dropped")
	DumpEventRing()

	if len(*lines) != EventRingSize+2 {
		t.Fatalf("Expected %d dump lines, got %d", EventRingSize+2, len(*lines))
	}
	last := fmt.Sprintf("t=%d v=%d", EventRingSize-1, EventRingSize-1)
	if !strings.Contains((*lines)[EventRingSize], last) {
		t.Errorf("Expected newest event %q, got %q", last, (*lines)[EventRingSize])
	}
	if !strings.Contains((*lines)[EventRingSize+1], "End Dump") {
		t.Errorf("Expected end banner, got %q", (*lines)[EventRingSize+1])
	}
	if len(logChan) != 2 {
		t.Errorf("Expected queued lines left untouched, got %d", len(logChan))
	}
}

package monitor

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"wanderbot/protocol"
)

type streamOutput struct {
	bytes.Buffer
}

func (s *streamOutput) Output(data []byte) {
	s.Write(data)
}

func newTestMonitor() (*Monitor, *observer.ObservedLogs) {
	obs, logs := observer.New(zapcore.DebugLevel)
	return New(zap.New(obs)), logs
}

func TestMonitorLogLevels(t *testing.T) {
	var out streamOutput
	enc := protocol.NewEncoder(&out)
	enc.EncodeLog(0, "Updating movement pattern: Spin")
	enc.EncodeLog(1, "--- Mode Change ---")
	enc.EncodeLog(3, "Motor driver FAULT detected")

	m, logs := newTestMonitor()
	m.Feed(out.Bytes())

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	expected := []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.ErrorLevel}
	for i, e := range entries {
		if e.Level != expected[i] {
			t.Errorf("Entry %d: expected level %v, got %v", i, expected[i], e.Level)
		}
	}
	if entries[1].Message != "--- Mode Change ---" {
		t.Errorf("Expected mode change line, got %q", entries[1].Message)
	}
}

func TestMonitorStatus(t *testing.T) {
	var out streamOutput
	enc := protocol.NewEncoder(&out)
	enc.EncodeStatus(protocol.Status{ModeIndex: -1, Resting: true, Seconds: 9, Mode: "Rest"})
	enc.EncodeStatus(protocol.Status{ModeIndex: 2, Seconds: 15, Fault: true, Mode: "Pulse"})

	m, logs := newTestMonitor()
	var seen []protocol.Status
	m.OnStatus(func(st protocol.Status) { seen = append(seen, st) })
	m.Feed(out.Bytes())

	if len(seen) != 2 || seen[0].Mode != "Rest" || seen[1].ModeIndex != 2 {
		t.Errorf("Unexpected statuses %+v", seen)
	}
	if logs.FilterMessage("status").Len() != 1 {
		t.Error("Expected one plain status line")
	}
	faults := logs.FilterMessage("status: driver fault").All()
	if len(faults) != 1 || faults[0].Level != zapcore.WarnLevel {
		t.Errorf("Expected one fault status at warn level, got %d", len(faults))
	}
	if faults[0].ContextMap()["mode"] != "Pulse" {
		t.Errorf("Expected mode field Pulse, got %v", faults[0].ContextMap()["mode"])
	}
}

func TestMonitorSplitFeeds(t *testing.T) {
	var out streamOutput
	protocol.NewEncoder(&out).EncodeLog(1, "Random seed: 12345")
	stream := out.Bytes()

	m, logs := newTestMonitor()
	for _, b := range stream {
		m.Feed([]byte{b})
	}

	if logs.FilterMessage("Random seed: 12345").Len() != 1 {
		t.Error("Expected message decoded from byte-at-a-time feed")
	}
}

func TestMonitorReportsSyncLoss(t *testing.T) {
	var out streamOutput
	out.Write([]byte{0x02, 0x33, protocol.SyncByte})
	protocol.NewEncoder(&out).EncodeLog(1, "after noise")

	m, logs := newTestMonitor()
	m.Feed(out.Bytes())

	if m.Dropped() != 1 {
		t.Errorf("Expected 1 sync loss, got %d", m.Dropped())
	}
	if logs.FilterMessage("lost frame sync").Len() != 1 {
		t.Error("Expected sync loss logged")
	}
	if logs.FilterMessage("after noise").Len() != 1 {
		t.Error("Expected frame after noise decoded")
	}
}

func TestMonitorRunUntilEOF(t *testing.T) {
	var out streamOutput
	enc := protocol.NewEncoder(&out)
	for i := 0; i < 20; i++ {
		enc.EncodeLog(1, "tick")
	}

	m, logs := newTestMonitor()
	if err := m.Run(context.Background(), bytes.NewReader(out.Bytes())); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if logs.FilterMessage("tick").Len() != 20 {
		t.Errorf("Expected 20 lines, got %d", logs.FilterMessage("tick").Len())
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("device unplugged")
}

func TestMonitorRunErrors(t *testing.T) {
	m, _ := newTestMonitor()
	if err := m.Run(context.Background(), failingReader{}); err == nil {
		t.Error("Expected read error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m.Follow = true
	if err := m.Run(ctx, failingReader{}); err != nil {
		t.Errorf("Expected cancelled run to return nil, got %v", err)
	}
}

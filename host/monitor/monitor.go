// Package monitor renders the framed log and status stream a robot writes to
// its USB serial port.
package monitor

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"wanderbot/core"
	"wanderbot/host/logging"
	"wanderbot/protocol"
)

const readChunk = 64

// Monitor decodes frames and writes them to a zap logger.
type Monitor struct {
	log      *zap.Logger
	decoder  *protocol.Decoder
	fifo     *protocol.FifoBuffer
	dropped  int
	onStatus func(protocol.Status)

	// Follow treats io.EOF as a read timeout and keeps reading. Serial
	// ports report an idle read that way.
	Follow bool
}

// New returns a monitor logging to log.
func New(log *zap.Logger) *Monitor {
	return &Monitor{
		log:     log,
		decoder: protocol.NewDecoder(),
		fifo:    protocol.NewFifoBuffer(protocol.ScratchSize),
	}
}

// OnStatus installs a callback run for every status frame.
func (m *Monitor) OnStatus(fn func(protocol.Status)) {
	m.onStatus = fn
}

// Dropped returns how often the stream lost frame sync.
func (m *Monitor) Dropped() int {
	return m.decoder.Dropped()
}

// Feed decodes data, keeping any trailing partial frame for the next call.
func (m *Monitor) Feed(data []byte) {
	for len(data) > 0 {
		n := m.fifo.Write(data)
		data = data[n:]
		m.decoder.Decode(m.fifo, m.handle)
	}

	if d := m.decoder.Dropped(); d != m.dropped {
		m.log.Warn("lost frame sync", zap.Int("total", d))
		m.dropped = d
	}
}

// Run reads r until it fails, hits EOF without Follow, or ctx is done.
func (m *Monitor) Run(ctx context.Context, r io.Reader) error {
	buf := make([]byte, readChunk)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		n, err := r.Read(buf)
		if n > 0 {
			m.Feed(buf[:n])
		}
		if err == io.EOF {
			if m.Follow {
				continue
			}
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "read")
		}
	}
}

func (m *Monitor) handle(f protocol.Frame) {
	msg, err := protocol.ParseMessage(f.Body)
	if err != nil {
		m.log.Warn("bad frame", zap.Uint8("seq", f.Sequence), zap.Error(err))
		return
	}

	switch msg.Kind {
	case protocol.KindLog:
		if ce := m.log.Check(logging.FirmwareLevel(core.LogLevel(msg.Level)), msg.Text); ce != nil {
			ce.Write()
		}
	case protocol.KindStatus:
		st := msg.Status
		fields := []zap.Field{
			zap.String("mode", st.Mode),
			zap.Int32("index", st.ModeIndex),
			zap.Bool("resting", st.Resting),
			zap.Uint32("seconds", st.Seconds),
		}
		if st.Fault {
			m.log.Warn("status: driver fault", fields...)
		} else {
			m.log.Info("status", fields...)
		}
		if m.onStatus != nil {
			m.onStatus(st)
		}
	}
}

package protocol

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	ErrBodyTooLarge = errors.New("frame body too large")
	ErrUnknownKind  = errors.New("unknown frame kind")
)

// Encoder writes frames to an OutputBuffer. It is not safe for concurrent
// use.
type Encoder struct {
	output OutputBuffer
	seq    uint8
}

// NewEncoder returns an encoder writing to output.
func NewEncoder(output OutputBuffer) *Encoder {
	return &Encoder{output: output}
}

// EncodeFrame writes one frame whose body is produced by body. Nothing is
// written if the body exceeds BodyMax.
func (e *Encoder) EncodeFrame(body func(output OutputBuffer)) error {
	var scratch ScratchOutput
	body(&scratch)
	b := scratch.Result()
	if len(b) > BodyMax {
		return ErrBodyTooLarge
	}

	var frame [FrameMax]byte
	n := len(b) + FrameMin
	frame[positionLen] = uint8(n)
	frame[positionSeq] = SeqBase | e.seq&SeqMask
	copy(frame[FrameHeaderSize:], b)

	crc := CRC16(frame[:n-FrameTrailerSize])
	frame[n-trailerCRC] = uint8(crc >> 8)
	frame[n-trailerCRC+1] = uint8(crc)
	frame[n-trailerSync] = SyncByte

	e.output.Output(frame[:n])
	e.seq = (e.seq + 1) & SeqMask
	return nil
}

// logOverhead is kind + level + string length prefix, one VLQ byte each.
const logOverhead = 3

// LogChunk is the longest text carried by one log frame.
const LogChunk = BodyMax - logOverhead

// EncodeLog writes msg as one or more KindLog frames. Chunks end on a rune
// boundary unless a single rune run exceeds LogChunk.
func (e *Encoder) EncodeLog(level uint8, msg string) error {
	for {
		chunk := msg
		if len(chunk) > LogChunk {
			cut := LogChunk
			for cut > 0 && !utf8.RuneStart(msg[cut]) {
				cut--
			}
			if cut == 0 {
				cut = LogChunk
			}
			chunk = msg[:cut]
		}
		err := e.EncodeFrame(func(output OutputBuffer) {
			EncodeVLQUint(output, uint32(KindLog))
			EncodeVLQUint(output, uint32(level))
			EncodeVLQString(output, chunk)
		})
		if err != nil {
			return err
		}
		msg = msg[len(chunk):]
		if msg == "" {
			return nil
		}
	}
}

// Status is the telemetry snapshot carried by a KindStatus frame.
type Status struct {
	ModeIndex int32 // -1 while resting
	Resting   bool
	Seconds   uint32
	Fault     bool
	Mode      string
}

// EncodeStatus writes a KindStatus frame.
func (e *Encoder) EncodeStatus(st Status) error {
	return e.EncodeFrame(func(output OutputBuffer) {
		EncodeVLQUint(output, uint32(KindStatus))
		EncodeVLQInt(output, st.ModeIndex)
		EncodeVLQBool(output, st.Resting)
		EncodeVLQUint(output, st.Seconds)
		EncodeVLQBool(output, st.Fault)
		EncodeVLQString(output, st.Mode)
	})
}

// Frame is one verified frame.
type Frame struct {
	Sequence uint8
	Body     []byte
}

// Decoder extracts frames from a byte stream. After a length, sequence,
// sync or checksum error it drops bytes up to the next sync byte.
type Decoder struct {
	synchronized bool
	dropped      int
}

// NewDecoder returns a decoder that expects the stream to start on a frame
// boundary.
func NewDecoder() *Decoder {
	return &Decoder{synchronized: true}
}

// Dropped returns how many times the decoder lost frame sync.
func (d *Decoder) Dropped() int {
	return d.dropped
}

// Decode calls handle for every complete frame in input and pops the
// consumed bytes. A partial frame is left for the next call. Frame bodies
// alias input and are only valid during handle.
func (d *Decoder) Decode(input InputBuffer, handle func(Frame)) {
	data := input.Data()

	for len(data) > 0 {
		if !d.synchronized {
			i := 0
			for i < len(data) && data[i] != SyncByte {
				i++
			}
			if i == len(data) {
				data = nil
				break
			}
			data = data[i+1:]
			d.synchronized = true
			continue
		}

		if data[0] == SyncByte {
			data = data[1:]
			continue
		}
		if len(data) < FrameMin {
			break
		}

		n := int(data[positionLen])
		if n < FrameMin || n > FrameMax {
			d.desync()
			continue
		}
		seq := data[positionSeq]
		if seq&^SeqMask != SeqBase {
			d.desync()
			continue
		}
		if len(data) < n {
			break
		}
		if data[n-trailerSync] != SyncByte {
			d.desync()
			continue
		}
		want := uint16(data[n-trailerCRC])<<8 | uint16(data[n-trailerCRC+1])
		if CRC16(data[:n-FrameTrailerSize]) != want {
			d.desync()
			continue
		}

		handle(Frame{Sequence: seq & SeqMask, Body: data[FrameHeaderSize : n-FrameTrailerSize]})
		data = data[n:]
	}

	if consumed := input.Available() - len(data); consumed > 0 {
		input.Pop(consumed)
	}
}

func (d *Decoder) desync() {
	d.synchronized = false
	d.dropped++
}

// Message is a decoded frame body.
type Message struct {
	Kind   Kind
	Level  uint8
	Text   string
	Status Status
}

// ParseMessage decodes a frame body.
func ParseMessage(body []byte) (Message, error) {
	var msg Message

	kind, err := DecodeVLQUint(&body)
	if err != nil {
		return msg, err
	}
	msg.Kind = Kind(kind)

	switch msg.Kind {
	case KindLog:
		level, err := DecodeVLQUint(&body)
		if err != nil {
			return msg, err
		}
		msg.Level = uint8(level)
		if msg.Text, err = DecodeVLQString(&body); err != nil {
			return msg, err
		}
	case KindStatus:
		st := &msg.Status
		if st.ModeIndex, err = DecodeVLQInt(&body); err != nil {
			return msg, err
		}
		if st.Resting, err = DecodeVLQBool(&body); err != nil {
			return msg, err
		}
		if st.Seconds, err = DecodeVLQUint(&body); err != nil {
			return msg, err
		}
		if st.Fault, err = DecodeVLQBool(&body); err != nil {
			return msg, err
		}
		if st.Mode, err = DecodeVLQString(&body); err != nil {
			return msg, err
		}
	default:
		return msg, fmt.Errorf("%w: %d", ErrUnknownKind, kind)
	}
	return msg, nil
}

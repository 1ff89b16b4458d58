// Package protocol frames the robot's log and telemetry stream on its serial
// link. A frame is
//
//	len | seq | body... | crc16 hi | crc16 lo | 0x7E
//
// where len counts the whole frame, seq is 0x10 | (n & 0x0F) and the CRC
// covers len, seq and body. Integers in the body are VLQ encoded.
package protocol

// Version of the frame format.
const Version = "1"

// Frame layout
const (
	FrameHeaderSize  = 2
	FrameTrailerSize = 3
	FrameMin         = FrameHeaderSize + FrameTrailerSize
	FrameMax         = 64
	BodyMax          = FrameMax - FrameMin

	positionLen = 0
	positionSeq = 1
	trailerCRC  = 3
	trailerSync = 1

	SyncByte = 0x7E
	SeqBase  = 0x10
	SeqMask  = 0x0F
)

// Kind is the first VLQ of a frame body.
type Kind uint32

const (
	KindLog    Kind = 1
	KindStatus Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindLog:
		return "log"
	case KindStatus:
		return "status"
	}
	return "unknown"
}

package can

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/edgevehicle/agentcore/pkg/signal"
)

// encodeRequest lays out a request frame as:
//
//	commandID (null-terminated ASCII, <= CommandIDFieldWidth incl. NUL)
//	issuedTimestampMs  (8 bytes, big-endian)
//	executionTimeoutMs (8 bytes, big-endian)
//	value              (big-endian scalar, or raw bytes + NUL for STRING)
//
// and rejects anything that would not fit in a single CAN-FD frame.
func encodeRequest(commandID signal.CommandID, issuedTimestampMs uint64, executionTimeoutMs uint64, value signal.SignalValue, stringBytes []byte) ([]byte, error) {
	idBytes := []byte(commandID)
	if len(idBytes)+1 > CommandIDFieldWidth {
		return nil, ErrCommandIDTooLong
	}

	buf := make([]byte, 0, CANFDMaxDLen)
	buf = append(buf, idBytes...)
	buf = append(buf, 0)
	buf = appendUint64(buf, issuedTimestampMs)
	buf = appendUint64(buf, executionTimeoutMs)

	valueBytes, err := encodeValue(value, stringBytes)
	if err != nil {
		return nil, err
	}
	buf = append(buf, valueBytes...)

	if len(buf) > CANFDMaxDLen {
		return nil, ErrPayloadTooLarge
	}
	return buf, nil
}

func appendUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

// encodeValue renders a signal value's payload per its SignalType.
// STRING values carry the caller-supplied borrowed bytes (already
// resolved from the raw data buffer) followed by a NUL terminator.
func encodeValue(v signal.SignalValue, stringBytes []byte) ([]byte, error) {
	switch v.Type {
	case signal.TypeUint8:
		return []byte{v.U8}, nil
	case signal.TypeInt8:
		return []byte{byte(v.I8)}, nil
	case signal.TypeUint16:
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], v.U16)
		return b[:], nil
	case signal.TypeInt16:
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(v.I16))
		return b[:], nil
	case signal.TypeUint32:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], v.U32)
		return b[:], nil
	case signal.TypeInt32:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(v.I32))
		return b[:], nil
	case signal.TypeUint64:
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], v.U64)
		return b[:], nil
	case signal.TypeInt64:
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], uint64(v.I64))
		return b[:], nil
	case signal.TypeFloat:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], math.Float32bits(v.F32))
		return b[:], nil
	case signal.TypeDouble:
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], math.Float64bits(v.F64))
		return b[:], nil
	case signal.TypeBoolean:
		if v.B {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case signal.TypeString:
		out := make([]byte, 0, len(stringBytes)+1)
		out = append(out, stringBytes...)
		out = append(out, 0)
		return out, nil
	default:
		return nil, fmt.Errorf("can: unsupported signal type %v", v.Type)
	}
}

// decodeResponse parses a response frame laid out as:
//
//	commandID (null-terminated ASCII)
//	status     (1 byte)
//	reasonCode (4 bytes, big-endian)
//	reasonDescription (null-terminated ASCII, may be empty)
func decodeResponse(data []byte) (signal.CommandResponse, error) {
	nul := -1
	for i, b := range data {
		if b == 0 {
			nul = i
			break
		}
	}
	if nul < 0 {
		return signal.CommandResponse{}, ErrFrameTooShort
	}
	commandID := signal.CommandID(data[:nul])
	rest := data[nul+1:]
	if len(rest) < 1+4 {
		return signal.CommandResponse{}, ErrFrameTooShort
	}
	status := signal.CommandStatus(rest[0])
	reason := signal.ReasonCode(binary.BigEndian.Uint32(rest[1:5]))

	descBytes := rest[5:]
	descEnd := len(descBytes)
	for i, b := range descBytes {
		if b == 0 {
			descEnd = i
			break
		}
	}
	desc := string(descBytes[:descEnd])

	return signal.CommandResponse{
		CommandID:         commandID,
		Status:            status,
		ReasonCode:        reason,
		ReasonDescription: desc,
	}, nil
}

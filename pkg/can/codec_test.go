package can

import (
	"testing"

	"github.com/edgevehicle/agentcore/pkg/signal"
)

func TestEncodeRequestScalarTypesFitFrame(t *testing.T) {
	cases := []signal.SignalValue{
		signal.Uint8Value(255),
		signal.Int8Value(-12),
		signal.Uint16Value(65000),
		signal.Int16Value(-30000),
		signal.Uint32Value(4000000000),
		signal.Int32Value(-2000000000),
		signal.Uint64Value(1 << 40),
		signal.Int64Value(-(1 << 40)),
		signal.FloatValue(3.5),
		signal.DoubleValue(-2.25),
		signal.BooleanValue(true),
	}

	for _, v := range cases {
		frame, err := encodeRequest("cmd-1", 1000, 5000, v, nil)
		if err != nil {
			t.Fatalf("encode %v: %v", v.Type, err)
		}
		if len(frame) > CANFDMaxDLen {
			t.Fatalf("frame for %v exceeds CANFDMaxDLen: %d", v.Type, len(frame))
		}
	}
}

func TestEncodeRequestRejectsLongCommandID(t *testing.T) {
	longID := signal.CommandID("this-command-id-is-far-too-long-for-the-wire")
	if _, err := encodeRequest(longID, 0, 0, signal.Uint8Value(1), nil); err != ErrCommandIDTooLong {
		t.Fatalf("expected ErrCommandIDTooLong, got %v", err)
	}
}

func TestEncodeStringAppendsBorrowedBytesAndNUL(t *testing.T) {
	v := signal.StringValue(7, signal.RawDataHandle(42))
	frame, err := encodeRequest("s1", 0, 0, v, []byte("hello"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if frame[len(frame)-1] != 0 || string(frame[len(frame)-6:len(frame)-1]) != "hello" {
		t.Fatalf("expected borrowed string bytes embedded before trailing NUL, got %v", frame)
	}
}

func TestDecodeResponseRoundTrip(t *testing.T) {
	want := signal.CommandResponse{
		CommandID:         "cmd-1",
		Status:            signal.StatusExecutionFailed,
		ReasonCode:        signal.ReasonArgumentOutOfRange,
		ReasonDescription: "value clipped",
	}
	frame := encodeResponseForTest(want)

	got, err := decodeResponse(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, want)
	}
}

func TestDecodeResponseTruncatedIsRejected(t *testing.T) {
	if _, err := decodeResponse([]byte("cmd-1\x00\x01")); err != ErrFrameTooShort {
		t.Fatalf("expected ErrFrameTooShort, got %v", err)
	}
	if _, err := decodeResponse([]byte("no-terminator")); err != ErrFrameTooShort {
		t.Fatalf("expected ErrFrameTooShort for missing NUL, got %v", err)
	}
}

// encodeResponseForTest builds a response frame the way a real actuator
// ECU would, for exercising decodeResponse in isolation.
func encodeResponseForTest(r signal.CommandResponse) []byte {
	buf := []byte(r.CommandID)
	buf = append(buf, 0)
	buf = append(buf, byte(r.Status))
	buf = appendUint32(buf, uint32(r.ReasonCode))
	buf = append(buf, []byte(r.ReasonDescription)...)
	buf = append(buf, 0)
	return buf
}

func appendUint32(buf []byte, v uint32) []byte {
	return append(buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

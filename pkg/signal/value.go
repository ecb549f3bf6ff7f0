package signal

import "fmt"

// SignalType enumerates the scalar wire types an actuator argument may
// carry. STRING values are never inline: they are staged into the raw data
// buffer manager and referenced by handle (see SignalValue).
type SignalType uint8

const (
	TypeUint8 SignalType = iota
	TypeInt8
	TypeUint16
	TypeInt16
	TypeUint32
	TypeInt32
	TypeUint64
	TypeInt64
	TypeFloat
	TypeDouble
	TypeBoolean
	TypeString
)

func (t SignalType) String() string {
	switch t {
	case TypeUint8:
		return "UINT8"
	case TypeInt8:
		return "INT8"
	case TypeUint16:
		return "UINT16"
	case TypeInt16:
		return "INT16"
	case TypeUint32:
		return "UINT32"
	case TypeInt32:
		return "INT32"
	case TypeUint64:
		return "UINT64"
	case TypeInt64:
		return "INT64"
	case TypeFloat:
		return "FLOAT"
	case TypeDouble:
		return "DOUBLE"
	case TypeBoolean:
		return "BOOLEAN"
	case TypeString:
		return "STRING"
	default:
		return fmt.Sprintf("SignalType(%d)", uint8(t))
	}
}

// ByteWidth returns the on-wire width of scalar (non-STRING) types. STRING
// has no fixed width; callers must not call this for TypeString.
func (t SignalType) ByteWidth() int {
	switch t {
	case TypeUint8, TypeInt8, TypeBoolean:
		return 1
	case TypeUint16, TypeInt16:
		return 2
	case TypeUint32, TypeInt32, TypeFloat:
		return 4
	case TypeUint64, TypeInt64, TypeDouble:
		return 8
	default:
		return 0
	}
}

// RawDataHandle is a 32-bit opaque identifier for a frame held by the raw
// data buffer manager. Zero is reserved to mean "invalid".
type RawDataHandle uint32

// InvalidHandle is the reserved zero handle value.
const InvalidHandle RawDataHandle = 0

// StringSignalValue is the payload carried by a STRING SignalValue: the
// declared signal's type ID plus a handle into the raw data buffer manager
// where the actual bytes are staged.
type StringSignalValue struct {
	TypeID uint32
	Handle RawDataHandle
}

// SignalValue is a tagged union over every SignalType. Exactly one field is
// meaningful, selected by Type.
type SignalValue struct {
	Type SignalType

	U8  uint8
	I8  int8
	U16 uint16
	I16 int16
	U32 uint32
	I32 int32
	U64 uint64
	I64 int64
	F32 float32
	F64 float64
	B   bool

	Str StringSignalValue
}

// Uint8Value constructs a UINT8 SignalValue.
func Uint8Value(v uint8) SignalValue { return SignalValue{Type: TypeUint8, U8: v} }

// Int8Value constructs an INT8 SignalValue.
func Int8Value(v int8) SignalValue { return SignalValue{Type: TypeInt8, I8: v} }

// Uint16Value constructs a UINT16 SignalValue.
func Uint16Value(v uint16) SignalValue { return SignalValue{Type: TypeUint16, U16: v} }

// Int16Value constructs an INT16 SignalValue.
func Int16Value(v int16) SignalValue { return SignalValue{Type: TypeInt16, I16: v} }

// Uint32Value constructs a UINT32 SignalValue.
func Uint32Value(v uint32) SignalValue { return SignalValue{Type: TypeUint32, U32: v} }

// Int32Value constructs an INT32 SignalValue.
func Int32Value(v int32) SignalValue { return SignalValue{Type: TypeInt32, I32: v} }

// Uint64Value constructs a UINT64 SignalValue.
func Uint64Value(v uint64) SignalValue { return SignalValue{Type: TypeUint64, U64: v} }

// Int64Value constructs an INT64 SignalValue.
func Int64Value(v int64) SignalValue { return SignalValue{Type: TypeInt64, I64: v} }

// FloatValue constructs a FLOAT SignalValue.
func FloatValue(v float32) SignalValue { return SignalValue{Type: TypeFloat, F32: v} }

// DoubleValue constructs a DOUBLE SignalValue.
func DoubleValue(v float64) SignalValue { return SignalValue{Type: TypeDouble, F64: v} }

// BooleanValue constructs a BOOLEAN SignalValue.
func BooleanValue(v bool) SignalValue { return SignalValue{Type: TypeBoolean, B: v} }

// StringValue constructs a STRING SignalValue referencing a buffer-manager
// handle.
func StringValue(typeID uint32, handle RawDataHandle) SignalValue {
	return SignalValue{Type: TypeString, Str: StringSignalValue{TypeID: typeID, Handle: handle}}
}

// FitsInRange reports whether an integer value fits the signed/unsigned
// range implied by t. Used by the ingress parser's scalar range check
// (spec.md §4.E, §8 boundary behaviors). Only meaningful for integer types.
func FitsInRange(t SignalType, v int64) bool {
	switch t {
	case TypeUint8:
		return v >= 0 && v <= 0xFF
	case TypeInt8:
		return v >= -0x80 && v <= 0x7F
	case TypeUint16:
		return v >= 0 && v <= 0xFFFF
	case TypeInt16:
		return v >= -0x8000 && v <= 0x7FFF
	case TypeUint32:
		return v >= 0 && v <= 0xFFFFFFFF
	case TypeInt32:
		return v >= -0x80000000 && v <= 0x7FFFFFFF
	case TypeUint64, TypeInt64:
		return true
	default:
		return false
	}
}

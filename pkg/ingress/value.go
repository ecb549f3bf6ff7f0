package ingress

import "github.com/edgevehicle/agentcore/pkg/signal"

// toSignalValue converts a validated, in-range RawValue into the
// signal package's tagged union. It must only be called after
// rangeCheck has passed and, for STRING, after the bytes have already
// been staged into a RawDataHandle.
func toSignalValue(v RawValue, stagedHandle signal.RawDataHandle, stringTypeID uint32) signal.SignalValue {
	switch v.Type {
	case signal.TypeUint8:
		return signal.Uint8Value(uint8(v.Int))
	case signal.TypeInt8:
		return signal.Int8Value(int8(v.Int))
	case signal.TypeUint16:
		return signal.Uint16Value(uint16(v.Int))
	case signal.TypeInt16:
		return signal.Int16Value(int16(v.Int))
	case signal.TypeUint32:
		return signal.Uint32Value(uint32(v.Int))
	case signal.TypeInt32:
		return signal.Int32Value(int32(v.Int))
	case signal.TypeUint64:
		return signal.Uint64Value(uint64(v.Int))
	case signal.TypeInt64:
		return signal.Int64Value(v.Int)
	case signal.TypeFloat:
		return signal.FloatValue(float32(v.Float64))
	case signal.TypeDouble:
		return signal.DoubleValue(v.Float64)
	case signal.TypeBoolean:
		return signal.BooleanValue(v.Bool)
	case signal.TypeString:
		return signal.StringValue(stringTypeID, stagedHandle)
	default:
		return signal.SignalValue{}
	}
}

// rangeCheck reports whether an integer-kind RawValue's declared
// magnitude fits its declared SignalType (spec.md §8 boundary
// behavior, e.g. a UINT8 field carrying 256). Non-integer kinds always
// pass: FLOAT/DOUBLE/BOOLEAN/STRING have no analogous overflow case at
// this layer.
func rangeCheck(v RawValue) bool {
	switch v.Type {
	case signal.TypeUint8, signal.TypeInt8, signal.TypeUint16, signal.TypeInt16,
		signal.TypeUint32, signal.TypeInt32, signal.TypeUint64, signal.TypeInt64:
		return signal.FitsInRange(v.Type, v.Int)
	default:
		return true
	}
}

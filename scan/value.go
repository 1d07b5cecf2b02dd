// Package scan implements the typed scan/refine engine: encoding of
// search literals into fixed-width binary values, the comparison
// predicates, the full-region first scan, iterative refinement of a prior
// result set, and single-address watch polling.
package scan

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
)

// ValueKind identifies one of the supported value encodings. The ordinal
// values are stable; they appear in save files.
type ValueKind int

const (
	KindByte ValueKind = iota
	KindInt16
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindText
)

func (k ValueKind) String() string {
	switch k {
	case KindByte:
		return "byte"
	case KindInt16:
		return "int16"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindText:
		return "text"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind parses a kind name as used by the shell. The short C-style
// aliases (byte, short, int, long, float, double, string) are accepted
// alongside the canonical names.
func ParseKind(s string) (ValueKind, error) {
	switch s {
	case "byte":
		return KindByte, nil
	case "short", "int16":
		return KindInt16, nil
	case "int", "int32":
		return KindInt32, nil
	case "long", "int64":
		return KindInt64, nil
	case "float", "float32":
		return KindFloat32, nil
	case "double", "float64":
		return KindFloat64, nil
	case "string", "text":
		return KindText, nil
	default:
		return 0, fmt.Errorf("unknown value kind %q", s)
	}
}

// KindFromOrdinal maps a save-file kind ordinal back to a ValueKind.
func KindFromOrdinal(n int) (ValueKind, error) {
	if n < int(KindByte) || n > int(KindText) {
		return 0, fmt.Errorf("unknown value kind ordinal %d", n)
	}
	return ValueKind(n), nil
}

// Width returns the fixed byte width of the kind, or zero for KindText,
// whose width is the search literal's length at scan time.
func (k ValueKind) Width() int {
	return kindCodec(k).width()
}

// Format renders a raw buffer as the kind's human-readable form. It is
// total: numeric kinds print base 10, text prints the whole buffer quoted.
func (k ValueKind) Format(b []byte) string {
	return kindCodec(k).format(b)
}

// Orderable reports whether greater/less comparisons are defined for the kind.
func (k ValueKind) Orderable() bool {
	return kindCodec(k).orderable()
}

// TypedValue is a ValueKind tag plus the exact-width raw representation.
type TypedValue struct {
	Kind  ValueKind
	Bytes []byte
}

func (v TypedValue) String() string {
	return v.Kind.Format(v.Bytes)
}

// EncodeError reports a search literal that could not be encoded as the
// requested kind (parse failure or overflow of the target width).
type EncodeError struct {
	Kind    ValueKind
	Literal string
	Err     error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("cannot encode %q as %s: %v", e.Literal, e.Kind, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// Encode parses a textual search literal into its binary representation.
// Integers use decimal notation, floats decimal or scientific, text is
// taken as raw bytes. All multi-byte encodings are little-endian.
func Encode(kind ValueKind, literal string) (TypedValue, error) {
	b, err := kindCodec(kind).parse(literal)
	if err != nil {
		return TypedValue{}, &EncodeError{Kind: kind, Literal: literal, Err: err}
	}
	return TypedValue{Kind: kind, Bytes: b}, nil
}

// widthFor returns the comparison-window width for one scan invocation.
func widthFor(kind ValueKind, literal string) int {
	if w := kind.Width(); w > 0 {
		return w
	}
	return len(literal)
}

// codec is the single per-kind byte interpretation used everywhere raw
// bytes must be treated as a typed value (ordering predicates and
// rendering). Exactly one implementation exists per ValueKind.
type codec interface {
	width() int
	parse(literal string) ([]byte, error)
	format(b []byte) string
	less(a, b []byte) bool
	orderable() bool
}

var codecs = map[ValueKind]codec{
	KindByte:    byteCodec{},
	KindInt16:   int16Codec{},
	KindInt32:   int32Codec{},
	KindInt64:   int64Codec{},
	KindFloat32: float32Codec{},
	KindFloat64: float64Codec{},
	KindText:    textCodec{},
}

func kindCodec(k ValueKind) codec {
	if c, ok := codecs[k]; ok {
		return c
	}
	return textCodec{}
}

type byteCodec struct{}

func (byteCodec) width() int { return 1 }

func (byteCodec) parse(s string) ([]byte, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return nil, err
	}
	return []byte{byte(v)}, nil
}

// Byte renders unsigned 0-255
func (byteCodec) format(b []byte) string {
	return strconv.FormatUint(uint64(b[0]), 10)
}

func (byteCodec) less(a, b []byte) bool { return a[0] < b[0] }
func (byteCodec) orderable() bool       { return true }

type int16Codec struct{}

func (int16Codec) width() int { return 2 }

func (int16Codec) parse(s string) ([]byte, error) {
	v, err := strconv.ParseInt(s, 10, 16)
	if err != nil {
		return nil, err
	}
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, uint16(v))
	return b, nil
}

func (int16Codec) format(b []byte) string {
	return strconv.FormatInt(int64(int16(binary.LittleEndian.Uint16(b))), 10)
}

func (int16Codec) less(a, b []byte) bool {
	return int16(binary.LittleEndian.Uint16(a)) < int16(binary.LittleEndian.Uint16(b))
}

func (int16Codec) orderable() bool { return true }

type int32Codec struct{}

func (int32Codec) width() int { return 4 }

func (int32Codec) parse(s string) ([]byte, error) {
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return nil, err
	}
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return b, nil
}

func (int32Codec) format(b []byte) string {
	return strconv.FormatInt(int64(int32(binary.LittleEndian.Uint32(b))), 10)
}

func (int32Codec) less(a, b []byte) bool {
	return int32(binary.LittleEndian.Uint32(a)) < int32(binary.LittleEndian.Uint32(b))
}

func (int32Codec) orderable() bool { return true }

type int64Codec struct{}

func (int64Codec) width() int { return 8 }

func (int64Codec) parse(s string) ([]byte, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, err
	}
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(v))
	return b, nil
}

func (int64Codec) format(b []byte) string {
	return strconv.FormatInt(int64(binary.LittleEndian.Uint64(b)), 10)
}

func (int64Codec) less(a, b []byte) bool {
	return int64(binary.LittleEndian.Uint64(a)) < int64(binary.LittleEndian.Uint64(b))
}

func (int64Codec) orderable() bool { return true }

type float32Codec struct{}

func (float32Codec) width() int { return 4 }

func (float32Codec) parse(s string) ([]byte, error) {
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return nil, err
	}
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
	return b, nil
}

func (float32Codec) format(b []byte) string {
	v := math.Float32frombits(binary.LittleEndian.Uint32(b))
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}

func (float32Codec) less(a, b []byte) bool {
	return math.Float32frombits(binary.LittleEndian.Uint32(a)) <
		math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func (float32Codec) orderable() bool { return true }

type float64Codec struct{}

func (float64Codec) width() int { return 8 }

func (float64Codec) parse(s string) ([]byte, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	return b, nil
}

func (float64Codec) format(b []byte) string {
	return strconv.FormatFloat(math.Float64frombits(binary.LittleEndian.Uint64(b)), 'g', -1, 64)
}

func (float64Codec) less(a, b []byte) bool {
	return math.Float64frombits(binary.LittleEndian.Uint64(a)) <
		math.Float64frombits(binary.LittleEndian.Uint64(b))
}

func (float64Codec) orderable() bool { return true }

type textCodec struct{}

func (textCodec) width() int { return 0 }

func (textCodec) parse(s string) ([]byte, error) {
	if len(s) == 0 {
		return nil, fmt.Errorf("empty text literal")
	}
	return []byte(s), nil
}

// The buffer length is the string length; no terminator scan.
func (textCodec) format(b []byte) string {
	return strconv.Quote(string(b))
}

func (textCodec) less(a, b []byte) bool { return false }
func (textCodec) orderable() bool       { return false }

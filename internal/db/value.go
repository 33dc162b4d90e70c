package db

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Kind is the closed set of value shapes a result cell can take.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindString
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindDate:
		return "date"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

const DateLayout = "2006-01-02"

// Value is a single result cell. The zero Value is null.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	t    time.Time
}

func Null() Value { return Value{} }
func Int(v int64) Value { return Value{kind: KindInt, i: v} }
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }
func String(v string) Value { return Value{kind: KindString, s: v} }
func Date(v time.Time) Value { return Value{kind: KindDate, t: v} }
func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }
func (v Value) Int() int64 { return v.i }
func (v Value) Float() float64 { return v.f }
func (v Value) Time() time.Time { return v.t }

// ValueOf converts a scanned driver value. Anything outside the closed set
// ends up as its string form.
func ValueOf(src any) Value {
	switch x := src.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case int64:
		return Int(x)
	case int32:
		return Int(int64(x))
	case int16:
		return Int(int64(x))
	case int8:
		return Int(int64(x))
	case int:
		return Int(int64(x))
	case uint8:
		return Int(int64(x))
	case uint16:
		return Int(int64(x))
	case uint32:
		return Int(int64(x))
	case uint64:
		if x > math.MaxInt64 {
			return String(strconv.FormatUint(x, 10))
		}
		return Int(int64(x))
	case float64:
		return Float(x)
	case float32:
		return Float(float64(x))
	case string:
		return String(x)
	case []byte:
		return String(string(x))
	case bool:
		return String(strconv.FormatBool(x))
	case time.Time:
		if isMidnight(x) {
			return Date(x)
		}
		return String(x.Format(time.RFC3339Nano))
	case fmt.Stringer:
		return String(x.String())
	default:
		return String(fmt.Sprint(x))
	}
}

func isMidnight(t time.Time) bool {
	h, m, s := t.Clock()
	return h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0
}

// String is the text form used by text-only formats. Null renders empty.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindString:
		return v.s
	case KindDate:
		return v.t.Format(DateLayout)
	default:
		return ""
	}
}

// Interface returns the natural Go value for JSON-like encoders: int64,
// float64, string, nil. Dates become YYYY-MM-DD strings.
func (v Value) Interface() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindDate:
		return v.t.Format(DateLayout)
	default:
		return nil
	}
}

package contracts

import (
	"encoding/json"
	"math"
	"strconv"
)

// Value is an optional float64.
// An undefined Value means "no signal" (short history, zero variance, failed fit)
// and is never the same thing as 0.
// ⭐ SSOT: NaN sentinel 대신 이 타입만 사용
type Value struct {
	v  float64
	ok bool
}

// Some returns a defined Value. NaN and ±Inf are treated as undefined.
func Some(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Value{}
	}
	return Value{v: v, ok: true}
}

// None returns an undefined Value
func None() Value {
	return Value{}
}

// Get returns the number and whether it is defined
func (x Value) Get() (float64, bool) {
	return x.v, x.ok
}

// Valid reports whether the value is defined
func (x Value) Valid() bool {
	return x.ok
}

// OrZero collapses an undefined value to 0.
// Only the composite score assembly and display code should call this.
func (x Value) OrZero() float64 {
	if !x.ok {
		return 0
	}
	return x.v
}

// Neg returns -x, keeping undefined values undefined
func (x Value) Neg() Value {
	if !x.ok {
		return x
	}
	return Value{v: -x.v, ok: true}
}

// String implements fmt.Stringer
func (x Value) String() string {
	if !x.ok {
		return "n/a"
	}
	return strconv.FormatFloat(x.v, 'f', 4, 64)
}

// MarshalJSON encodes undefined values as null
func (x Value) MarshalJSON() ([]byte, error) {
	if !x.ok {
		return []byte("null"), nil
	}
	return json.Marshal(x.v)
}

// UnmarshalJSON decodes null as undefined
func (x *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*x = None()
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*x = Some(f)
	return nil
}

// AllValid reports whether every value is defined
func AllValid(values ...Value) bool {
	for _, v := range values {
		if !v.ok {
			return false
		}
	}
	return true
}

package models

import (
	"fmt"
	"math"
	"reflect"
)

// OutputWidth is the number of bits of the unsigned integer domain predictions
// are expected to fit into. WidthUnchecked disables the range check.
type OutputWidth uint8

const (
	WidthUnchecked OutputWidth = 0
	Width8         OutputWidth = 8
	Width16        OutputWidth = 16
	Width32        OutputWidth = 32
	Width64        OutputWidth = 64
)

func ParseOutputWidth(bits int) (OutputWidth, error) {
	switch bits {
	case 0, 8, 16, 32, 64:
		return OutputWidth(bits), nil
	}
	return WidthUnchecked, fmt.Errorf("unsupported output width: %d (use 0, 8, 16, 32 or 64)", bits)
}

func (w OutputWidth) Max() uint64 {
	if w == WidthUnchecked || w >= Width64 {
		return math.MaxUint64
	}
	return 1<<uint(w) - 1
}

// Check returns a *LabelRangeError when label is not a non-negative integer
// no larger than w.Max(). Any label passes when w is WidthUnchecked.
func (w OutputWidth) Check(label any) error {
	if w == WidthUnchecked {
		return nil
	}

	v := reflect.ValueOf(label)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if n := v.Int(); n >= 0 && uint64(n) <= w.Max() {
			return nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if v.Uint() <= w.Max() {
			return nil
		}
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if f >= 0 && f == math.Trunc(f) && f < math.Ldexp(1, int(w)) {
			return nil
		}
	}

	return &LabelRangeError{Label: label, Width: w}
}

package reflectx

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
)

var (
	intT     = reflect.TypeOf(0)
	int64T   = reflect.TypeOf(int64(0))
	int16T   = reflect.TypeOf(int16(0))
	uint32T  = reflect.TypeOf(uint32(0))
	uint64T  = reflect.TypeOf(uint64(0))
	float32T = reflect.TypeOf(float32(0))
	float64T = reflect.TypeOf(float64(0))
	stringT  = reflect.TypeOf("")
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		from reflect.Type
		to   reflect.Type
		want ConversionKind
	}{
		{"identity", intT, intT, Identity},
		{"widen signed", int16T, intT, Implicit},
		{"widen to int64", intT, int64T, Implicit},
		{"narrow signed", int64T, int16T, Explicit},
		{"int to float", intT, float64T, Implicit},
		{"float32 to float64", float32T, float64T, Implicit},
		{"float64 to float32", float64T, float32T, Explicit},
		{"unsigned to wider signed", uint32T, int64T, Implicit},
		{"unsigned to same-width signed", uint32T, reflect.TypeOf(int32(0)), Explicit},
		{"int to decimal", intT, DecimalType, Implicit},
		{"float to decimal", float64T, DecimalType, Explicit},
		{"decimal to int", DecimalType, intT, Explicit},
		{"to any", stringT, AnyType, Implicit},
		{"string to int", stringT, intT, NoConversion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.from, tt.to); got != tt.want {
				t.Errorf("Classify(%s, %s) = %v, want %v",
					tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestPromote(t *testing.T) {
	tests := []struct {
		name string
		a, b reflect.Type
		want reflect.Type
		ok   bool
	}{
		{"int int", intT, intT, intT, true},
		{"int int64", intT, int64T, int64T, true},
		{"int16 int16", int16T, int16T, intT, true},
		{"int float64", intT, float64T, float64T, true},
		{"float32 int", float32T, intT, float32T, true},
		{"uint32 int", uint32T, intT, int64T, true},
		{"uint64 int", uint64T, intT, nil, false},
		{"decimal int", DecimalType, intT, DecimalType, true},
		{"string int", stringT, intT, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Promote(tt.a, tt.b)
			if ok != tt.ok {
				t.Fatalf("Promote(%s, %s) ok = %v, want %v",
					tt.a, tt.b, ok, tt.ok)
			}

			if ok && got != tt.want {
				t.Errorf("Promote(%s, %s) = %s, want %s",
					tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestConvert(t *testing.T) {
	out, err := Convert(1, int64T)
	if err != nil || out != int64(1) {
		t.Errorf("Convert int to int64: got %v, %v", out, err)
	}

	out, err = Convert(2.9, intT)
	if err != nil || out != 2 {
		t.Errorf("Convert float to int: got %v, %v", out, err)
	}

	out, err = Convert(nil, reflect.TypeOf((*int)(nil)))
	if err != nil || out != (*int)(nil) {
		t.Errorf("Convert nil to pointer: got %v, %v", out, err)
	}

	if _, err := Convert(nil, intT); err == nil {
		t.Errorf("expected error converting nil to int")
	}

	out, err = Convert(3, DecimalType)
	if err != nil {
		t.Fatalf("Convert int to decimal: %v", err)
	}

	if !out.(decimal.Decimal).Equal(decimal.NewFromInt(3)) {
		t.Errorf("expected decimal 3, got %v", out)
	}

	out, err = Convert(decimal.NewFromFloat(2.5), float64T)
	if err != nil || out != 2.5 {
		t.Errorf("Convert decimal to float: got %v, %v", out, err)
	}
}

func TestIsNilable(t *testing.T) {
	if IsNilable(intT) {
		t.Errorf("int must not be nilable")
	}

	for _, typ := range []reflect.Type{
		reflect.TypeOf((*int)(nil)),
		AnyType,
		reflect.TypeOf(map[string]int{}),
		reflect.TypeOf([]int{}),
		reflect.TypeOf(func() {}),
	} {
		if !IsNilable(typ) {
			t.Errorf("%s must be nilable", typ)
		}
	}
}

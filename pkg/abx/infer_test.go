package abx

import (
	"math"
	"strings"
	"testing"
)

func TestInferValue(t *testing.T) {
	tests := []struct {
		in   string
		want ValueType
		num  float64
	}{
		{in: "true", want: TypeBooleanTrue},
		{in: "false", want: TypeBooleanFalse},
		{in: "True", want: TypeStringInterned},
		{in: "FALSE", want: TypeStringInterned},
		{in: "1.5e3", want: TypeDouble, num: 1500},
		{in: "-2E-2", want: TypeDouble, num: -0.02},
		{in: "+1e0", want: TypeDouble, num: 1},
		{in: "1e400", want: TypeDouble, num: math.Inf(1)},
		{in: "42", want: TypeStringInterned},
		{in: "3.14", want: TypeStringInterned},
		{in: "0x1Ep2", want: TypeStringInterned},
		{in: "1_0e1", want: TypeStringInterned},
		{in: "--1e1", want: TypeStringInterned},
		{in: "hello", want: TypeStringInterned},
		{in: "hello world", want: TypeString},
		{in: "", want: TypeStringInterned},
		{in: "@string/app_name", want: TypeStringInterned},
		{in: "e", want: TypeStringInterned},
		{in: "10e", want: TypeStringInterned},
		{in: "1e 5", want: TypeString},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := InferValue(tt.in)
			if got.Type != tt.want {
				t.Fatalf("InferValue(%q).Type = %s, want %s", tt.in, got.Type, tt.want)
			}
			if tt.want == TypeDouble && got.Double != tt.num {
				t.Fatalf("InferValue(%q).Double = %v, want %v", tt.in, got.Double, tt.num)
			}
		})
	}
}

func TestInferValueOverflowIsInfinite(t *testing.T) {
	got := InferValue("-1e400")
	if got.Type != TypeDouble || !math.IsInf(got.Double, -1) {
		t.Fatalf("InferValue(-1e400) = %+v, want -Inf double", got)
	}
	if got := InferValue("-Infinite"); got.Type != TypeStringInterned {
		t.Fatalf("InferValue(-Infinite).Type = %s, want %s", got.Type, TypeStringInterned)
	}
}

func TestInferValueInternBoundary(t *testing.T) {
	if got := InferValue(strings.Repeat("a", 49)); got.Type != TypeStringInterned {
		t.Fatalf("49 chars = %s, want %s", got.Type, TypeStringInterned)
	}
	if got := InferValue(strings.Repeat("a", 50)); got.Type != TypeString {
		t.Fatalf("50 chars = %s, want %s", got.Type, TypeString)
	}
	// length is measured in bytes
	if got := InferValue(strings.Repeat("é", 25)); got.Type != TypeString {
		t.Fatalf("25 two-byte runes = %s, want %s", got.Type, TypeString)
	}
}

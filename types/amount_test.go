package types

import (
	"encoding/json"
	"testing"
)

const maxUint256 = "115792089237316195423570985008687907853269984665640564039457584007913129639935"

func TestAmountArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		op       func() (Amount, bool)
		expected Amount
		flagged  bool
	}{
		{"Add", func() (Amount, bool) { return NewAmount(100).Add(NewAmount(200)) }, NewAmount(300), false},
		{"Sub", func() (Amount, bool) { return NewAmount(500).Sub(NewAmount(200)) }, NewAmount(300), false},
		{"Sub to zero", func() (Amount, bool) { return NewAmount(40).Sub(NewAmount(40)) }, Amount{}, false},
		{"Sub underflow", func() (Amount, bool) { return NewAmount(0).Sub(NewAmount(1000)) }, Amount{}, true},
		{"Add overflow", func() (Amount, bool) { return MustParseAmount(maxUint256).Add(NewAmount(1)) }, Amount{}, true},
		{"Sum", func() (Amount, bool) { return Sum(NewAmount(1000), NewAmount(500), NewAmount(250), NewAmount(100)) }, NewAmount(1850), false},
		{"Sum overflow", func() (Amount, bool) { return Sum(MustParseAmount(maxUint256), NewAmount(1)) }, Amount{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, flagged := tt.op()
			if flagged != tt.flagged {
				t.Fatalf("flag: got %v, want %v", flagged, tt.flagged)
			}
			if !tt.flagged && !result.Equal(tt.expected) {
				t.Errorf("got %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestAmountComparison(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Amount
		cmp   int
		less  bool
		equal bool
	}{
		{"Equal", NewAmount(100), NewAmount(100), 0, false, true},
		{"Less", NewAmount(50), NewAmount(100), -1, true, false},
		{"Greater", NewAmount(200), NewAmount(100), 1, false, false},
		{"Zero value", Amount{}, NewAmount(0), 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Cmp(tt.b); got != tt.cmp {
				t.Errorf("Cmp: got %d, want %d", got, tt.cmp)
			}
			if got := tt.a.LessThan(tt.b); got != tt.less {
				t.Errorf("LessThan: got %v, want %v", got, tt.less)
			}
			if got := tt.a.Equal(tt.b); got != tt.equal {
				t.Errorf("Equal: got %v, want %v", got, tt.equal)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"0", "0", false},
		{"1000", "1000", false},
		{" 250 ", "250", false},
		{"0x64", "100", false},
		{maxUint256, maxUint256, false},
		{"", "", true},
		{"-1", "", true},
		{"12.5", "", true},
		{"abc", "", true},
		{maxUint256 + "0", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %v", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAmountJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Amount Amount `json:"amount"`
	}{NewAmount(1000)})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"amount":"1000"}` {
		t.Errorf("got %s", data)
	}

	for _, in := range []string{`"40"`, `40`} {
		var a Amount
		if err := json.Unmarshal([]byte(in), &a); err != nil {
			t.Fatalf("unmarshal %s: %v", in, err)
		}
		if !a.Equal(NewAmount(40)) {
			t.Errorf("unmarshal %s: got %v", in, a)
		}
	}

	var a Amount
	if err := json.Unmarshal([]byte(`"-5"`), &a); err == nil {
		t.Error("expected error for negative amount")
	}
}

func TestAmountUint64(t *testing.T) {
	if v, ok := NewAmount(42).Uint64(); !ok || v != 42 {
		t.Errorf("got %d, %v", v, ok)
	}
	if _, ok := MustParseAmount(maxUint256).Uint64(); ok {
		t.Error("max uint256 should not fit in uint64")
	}
	if f := NewAmount(250).Float64(); f != 250 {
		t.Errorf("Float64: got %v", f)
	}
}

func TestParseAddress(t *testing.T) {
	a, err := ParseAddress("0x00000000000000000000000000000000000000a1")
	if err != nil {
		t.Fatal(err)
	}
	b, err := ParseAddress("0x00000000000000000000000000000000000000A1")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("case should not matter: %s != %s", a, b)
	}

	for _, bad := range []string{"", "0x1234", "not-an-address", "0xzz000000000000000000000000000000000000a1"} {
		if _, err := ParseAddress(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

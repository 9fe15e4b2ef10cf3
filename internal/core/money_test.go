package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"100000", 100000, true},
		{"100.000", 100000, true},
		{"100.000đ", 100000, true},
		{"1,250,000", 1250000, true},
		{"1 250 000 VND", 1250000, true},
		{" 50000 ", 50000, true},
		{"0", 0, true},
		{"1.5", 0, false}, // fractional đồng
		{"12.34.567", 0, false},
		{"-1", 0, false},
		{"+1", 0, false},
		{"abc", 0, false},
		{"", 0, false},
		{"đ", 0, false},
		{"99999999999999999999", 0, false}, // overflow
		{"1.000.000.000.000.000", 1_000_000_000_000_000, true},
		{"1000000000000001", 0, false}, // above MaxMoney
		{"5000000000000000000", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if tc.ok {
			if err != nil || got.Dong != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Dong, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error, got %d", tc.in, got.Dong)
			}
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{
		0:        "0đ",
		999:      "999đ",
		1000:     "1.000đ",
		1250000:  "1.250.000đ",
		-50000:   "-50.000đ",
		12345678: "12.345.678đ",
	}
	for in, want := range cases {
		if got := VND(in).String(); got != want {
			t.Errorf("VND(%d).String() = %q, want %q", in, got, want)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	var v struct {
		A Money `json:"a"`
		B Money `json:"b"`
		C Money `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a": 125000, "b": "1.000.000đ", "c": 1e5}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.A.Dong != 125000 || v.B.Dong != 1000000 || v.C.Dong != 100000 {
		t.Fatalf("unexpected values: %+v", v)
	}

	out, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"a":125000,"b":1000000,"c":100000}` {
		t.Fatalf("unexpected json: %s", out)
	}

	for _, bad := range []string{`{"a": 12.5}`, `{"a": "abc"}`, `{"a": true}`} {
		if err := json.Unmarshal([]byte(bad), &v); err == nil {
			t.Errorf("expected error for %s", bad)
		}
	}
}

func TestMoneyValidateBound(t *testing.T) {
	if err := MaxMoney.Validate(); err != nil {
		t.Fatalf("MaxMoney should be valid: %v", err)
	}
	var v struct {
		A Money `json:"a"`
	}
	if err := json.Unmarshal([]byte(`{"a": 5000000000000000000}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := v.A.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("Validate() = %v, want ErrInvalidAmount", err)
	}
}

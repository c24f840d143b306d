package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{" 2.50 ", 250, true},
		{"-5", -500, true},
		{"1.230", 123, true},
		{"1.005", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
			if !errors.Is(err, ErrInvalidAmount) {
				t.Fatalf("%q expected ErrInvalidAmount, got %v", tc.in, err)
			}
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	var payload struct {
		A Money `json:"a"`
		B Money `json:"b"`
		C Money `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a": 1200, "b": 12.5, "c": "3.07"}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.A.Cents != 120000 || payload.B.Cents != 1250 || payload.C.Cents != 307 {
		t.Fatalf("unexpected cents: %+v", payload)
	}

	out, err := json.Marshal(Cents(120000))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != "1200.00" {
		t.Fatalf("expected 1200.00, got %s", out)
	}

	if err := json.Unmarshal([]byte(`{"a": 1.999}`), &payload); err == nil {
		t.Fatalf("expected error for sub-cent amount")
	}
}

func TestMoneyRounding(t *testing.T) {
	cases := []struct {
		name string
		got  Money
		want int64
	}{
		{"weekly to monthly", Cents(10000).MulRound(WeeksPerMonth), 43300},
		{"monthly to weekly", Cents(43300).DivRound(WeeksPerMonth), 10000},
		{"half away from zero", Cents(1).MulRound(decimal.RequireFromString("0.5")), 1},
		{"negative half away from zero", Cents(-1).MulRound(decimal.RequireFromString("0.5")), -1},
		{"divide by zero", Cents(100).DivRound(decimal.Zero), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got.Cents != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, tc.got.Cents)
			}
		})
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := Cents(1).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := Cents(0).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
	if err := Cents(-1).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
}

package units

import (
	"math"
	"testing"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in        string
		number    float64
		hasNumber bool
		unit      string
		rest      string
	}{
		{"10V", 10, true, "V", ""},
		{"1kΩ", 1, true, "kΩ", ""},
		{"4.7μF", 4.7, true, "μF", ""},
		{"  2.2M", 2.2, true, "M", ""},
		{".5A", 0.5, true, "A", ""},
		{"-3V", -3, true, "V", ""},
		{"5e-3V", 0.005, true, "V", ""},
		{"2N2222", 2, true, "N", "2222"},
		{"GND", 0, false, "GND", ""},
		{"SW1", 0, false, "SW", "1"},
		{"", 0, false, "", ""},
		{"10 V DC", 10, true, "V", "DC"},
	}

	for _, tc := range cases {
		q, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.in, err)
		}
		if q.HasNumber != tc.hasNumber || math.Abs(q.Number-tc.number) > 1e-12 {
			t.Errorf("Parse(%q) number = %v (%v), want %v (%v)", tc.in, q.Number, q.HasNumber, tc.number, tc.hasNumber)
		}
		if q.Unit != tc.unit {
			t.Errorf("Parse(%q) unit = %q, want %q", tc.in, q.Unit, tc.unit)
		}
		if q.Rest != tc.rest {
			t.Errorf("Parse(%q) rest = %q, want %q", tc.in, q.Rest, tc.rest)
		}
	}
}

func TestLeading(t *testing.T) {
	if v, ok := Leading("10V"); !ok || v != 10 {
		t.Errorf("Leading(10V) = %v, %v", v, ok)
	}
	if _, ok := Leading("abc"); ok {
		t.Errorf("Leading(abc) found a number")
	}
}

func TestResistance(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1kΩ", 1000, true},
		{"4.7k", 4700, true},
		{"2M", 2e6, true},
		{"220Ω", 220, true},
		{"1mΩ", 1, true},
		{"10 kΩ", 10, true},
		{"-5k", 5000, true},
		{"1e3", 1, true},
		{".5k", 500, true},
		{"R10k", 10000, true},
		{"0", 0, true},
		{"ohms", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := Resistance(tc.in)
		if ok != tc.ok || math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("Resistance(%q) = %v, %v, want %v, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestFormat(t *testing.T) {
	cases := []struct {
		v    float64
		unit string
		want string
	}{
		{0.01, "A", "10mA"},
		{4700, "Ω", "4.7kΩ"},
		{5, "V", "5V"},
		{0, "V", "0V"},
		{10e-6, "F", "10μF"},
		{-2500, "V", "-2.5kV"},
	}
	for _, tc := range cases {
		if got := Format(tc.v, tc.unit); got != tc.want {
			t.Errorf("Format(%v, %q) = %q, want %q", tc.v, tc.unit, got, tc.want)
		}
	}
}

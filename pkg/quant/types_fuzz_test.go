package quant

import (
	"testing"
)

// FuzzParseUnits tests quantity parsing with fuzzing.
func FuzzParseUnits(f *testing.F) {
	f.Add("0")
	f.Add("1.5")
	f.Add("-1.23")
	f.Add("0.000001")
	f.Add("21000000") // Max BTC supply
	f.Add("NaN")

	f.Fuzz(func(t *testing.T, s string) {
		// Malformed input must never panic; it parses as zero.
		u := ParseUnits(s)
		if u != 0 && ParseUnits(u.String()) != u {
			t.Errorf("ParseUnits(%q) = %d does not round trip via %q", s, u, u.String())
		}
	})
}

// FuzzToCents tests price conversion with fuzzing.
func FuzzToCents(f *testing.F) {
	f.Add(0.0)
	f.Add(1.23)
	f.Add(-1.23)
	f.Add(9999999.99)

	f.Fuzz(func(t *testing.T, val float64) {
		_ = ToCents(val)
	})
}

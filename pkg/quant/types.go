package quant

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Cents represents a USD amount multiplied by 100 (10^2).
// E.g., 12.34 USD = 1,234 Cents. Used for prices, cash and net worth.
type Cents int64

// Units represents a coin quantity multiplied by 1,000,000 (10^6).
// E.g., 1.5 BTC = 1,500,000 Units.
type Units int64

// TimeStamp represents Unix Microseconds.
type TimeStamp int64

const (
	CentsScale = 100
	UnitsScale = 1000000

	CentsPlaces = 2
	UnitsPlaces = 6
)

var (
	maxCents = decimal.New(math.MaxInt64, -CentsPlaces)
	maxUnits = decimal.New(math.MaxInt64, -UnitsPlaces)
)

// ToCents converts a float64 (config, literals) to Cents.
// Note: Only used at the boundary. Internal logic uses Cents directly.
func ToCents(f float64) Cents {
	return Cents(math.Round(f * CentsScale))
}

// Decimal returns the exact major-unit value.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -CentsPlaces)
}

// Decimal returns the exact coin quantity.
func (u Units) Decimal() decimal.Decimal {
	return decimal.New(int64(u), -UnitsPlaces)
}

func (c Cents) String() string {
	return c.Decimal().StringFixed(CentsPlaces)
}

// String prints the quantity without trailing zeros ("10", "0.5").
func (u Units) String() string {
	return u.Decimal().String()
}

// CentsFromDecimal rounds d to 2 places (half away from zero).
// Values outside the int64 range saturate.
func CentsFromDecimal(d decimal.Decimal) Cents {
	d = d.Round(CentsPlaces)
	if d.GreaterThan(maxCents) {
		return Cents(math.MaxInt64)
	}
	if d.LessThan(maxCents.Neg()) {
		return Cents(-math.MaxInt64)
	}
	return Cents(d.Shift(CentsPlaces).IntPart())
}

// UnitsFromDecimal rounds d to 6 places (half away from zero).
// Values outside the int64 range saturate.
func UnitsFromDecimal(d decimal.Decimal) Units {
	d = d.Round(UnitsPlaces)
	if d.GreaterThan(maxUnits) {
		return Units(math.MaxInt64)
	}
	if d.LessThan(maxUnits.Neg()) {
		return Units(-math.MaxInt64)
	}
	return Units(d.Shift(UnitsPlaces).IntPart())
}

// Notional returns price × qty exactly, without rounding.
func Notional(price Cents, qty Units) decimal.Decimal {
	return price.Decimal().Mul(qty.Decimal())
}

// ParseUnits converts user input ("1.5", " 2 ") to Units without using float64.
// Malformed or out-of-range input yields 0, which callers reject like any
// non-positive quantity.
func ParseUnits(s string) Units {
	d, ok := parseDecimal(s, maxUnits)
	if !ok {
		return 0
	}
	return UnitsFromDecimal(d)
}

func parseDecimal(s string, limit decimal.Decimal) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if d.Abs().GreaterThan(limit) {
		return decimal.Zero, false
	}
	return d, true
}

// FromTime converts t to TimeStamp.
func FromTime(t time.Time) TimeStamp {
	return TimeStamp(t.UnixMicro())
}

// Time converts the TimeStamp back to time.Time.
func (ts TimeStamp) Time() time.Time {
	return time.UnixMicro(int64(ts))
}

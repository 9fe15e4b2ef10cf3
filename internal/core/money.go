// Package core provides the club's domain records and money handling.
//
// Amounts are whole Vietnamese đồng. The currency has no minor unit in
// circulation, so an int64 count of đồng keeps every ledger sum exact.
package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Money is an amount of whole đồng.
type Money struct {
	Dong int64
}

// MaxMoney is the largest amount a single record may carry. It keeps sums
// of thousands of records well inside int64.
var MaxMoney = Money{Dong: 1_000_000_000_000_000}

// VND is shorthand for building a Money value.
func VND(dong int64) Money {
	return Money{Dong: dong}
}

// Validate reports whether the amount is usable as a recorded contribution.
func (m Money) Validate() error {
	if m.Dong <= 0 {
		return ErrInvalidAmount
	}
	return m.checkBound()
}

func (m Money) checkBound() error {
	if m.Dong > MaxMoney.Dong {
		return fmt.Errorf("amount above %s: %w", MaxMoney, ErrInvalidAmount)
	}
	return nil
}

func (m Money) Add(o Money) Money { return Money{Dong: m.Dong + o.Dong} }
func (m Money) Sub(o Money) Money { return Money{Dong: m.Dong - o.Dong} }

// Float returns the amount as float64 for per-head divisions.
func (m Money) Float() float64 {
	return float64(m.Dong)
}

// ParseMoney converts a user supplied amount to đồng.
//
// Thousands may be grouped with dots, commas or spaces the way vi-VN and
// en-US format them, and a trailing "đ" or "VND" is tolerated. Signs and
// fractional parts are rejected, as is anything above MaxMoney. Zero parses successfully; callers decide
// whether it is acceptable.
//
// Examples:
//
//	ParseMoney("100000")    -> 100000, nil
//	ParseMoney("100.000đ")  -> 100000, nil
//	ParseMoney("1,250,000") -> 1250000, nil
//	ParseMoney("-5")        -> 0, ErrInvalidAmount
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "VND")
	s = strings.TrimSuffix(s, "vnd")
	s = strings.TrimSuffix(s, "đ")
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '.' || r == ',' || r == ' ' || r == '\u00a0':
			// grouping separator
		default:
			return Money{}, ErrInvalidAmount
		}
	}
	digits := b.String()
	if digits == "" {
		return Money{}, ErrInvalidAmount
	}
	if !validGrouping(s) {
		return Money{}, ErrInvalidAmount
	}

	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	m := Money{Dong: v}
	if err := m.checkBound(); err != nil {
		return Money{}, err
	}
	return m, nil
}

// validGrouping accepts plain digit runs or groups of exactly three digits
// after the first separator, so "1.5" is not silently read as 15.
func validGrouping(s string) bool {
	groups := strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || r == ',' || r == ' ' || r == '\u00a0'
	})
	if len(groups) <= 1 {
		return true
	}
	if len(groups[0]) > 3 {
		return false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return false
		}
	}
	return true
}

// String formats the amount with vi-VN grouping, e.g. "1.250.000đ".
func (m Money) String() string {
	return FormatDong(m.Dong) + "đ"
}

// FormatDong groups an integer amount of đồng with dots.
func FormatDong(v int64) string {
	neg := v < 0
	u := uint64(v)
	if neg {
		u = uint64(-v)
	}
	digits := strconv.FormatUint(u, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte('.')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// MarshalJSON encodes the amount as a bare JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(m.Dong, 10)), nil
}

// UnmarshalJSON accepts an integral JSON number or a string ParseMoney understands.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := ParseMoney(s)
		if err != nil {
			return fmt.Errorf("amount %q: %w", s, err)
		}
		*m = v
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("amount: %w", ErrInvalidAmount)
	}
	v, err := n.Int64()
	if err != nil {
		f, ferr := n.Float64()
		if ferr != nil || f != float64(int64(f)) {
			return fmt.Errorf("amount %s must be a whole number of đồng: %w", n, ErrInvalidAmount)
		}
		v = int64(f)
	}
	m.Dong = v
	return nil
}

package ledger

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatAmount renders base units as a decimal string with the given
// precision. Trailing fractional zeros are dropped.
func FormatAmount(amount uint64, decimals uint8) string {
	if decimals == 0 {
		return strconv.FormatUint(amount, 10)
	}
	digits := strconv.FormatUint(amount, 10)
	if pad := int(decimals) + 1 - len(digits); pad > 0 {
		digits = strings.Repeat("0", pad) + digits
	}
	cut := len(digits) - int(decimals)
	whole, frac := digits[:cut], strings.TrimRight(digits[cut:], "0")
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}

// ParseAmount converts a decimal string such as "12.5" into base units.
// More fractional digits than decimals is an error, not a rounding.
func ParseAmount(s string, decimals uint8) (uint64, error) {
	s = strings.TrimSpace(s)
	whole, frac, hasDot := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if hasDot && frac == "" {
		return 0, fmt.Errorf("%w: %q has a trailing point", ErrInvalidAmount, s)
	}
	if len(frac) > int(decimals) {
		return 0, fmt.Errorf("%w: %q has more than %d decimals", ErrInvalidAmount, s, decimals)
	}
	if whole == "" {
		whole = "0"
	}
	for _, part := range []string{whole, frac} {
		for _, c := range part {
			if c < '0' || c > '9' {
				return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
			}
		}
	}

	w, err := strconv.ParseUint(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidAmount, s, err)
	}
	scale := uint64(1)
	for i := uint8(0); i < decimals; i++ {
		if scale > math.MaxUint64/10 {
			return 0, fmt.Errorf("%w: %d decimals", ErrOverflow, decimals)
		}
		scale *= 10
	}
	if w > math.MaxUint64/scale {
		return 0, fmt.Errorf("%w: %q", ErrOverflow, s)
	}
	var f uint64
	if frac != "" {
		frac += strings.Repeat("0", int(decimals)-len(frac))
		if f, err = strconv.ParseUint(frac, 10, 64); err != nil {
			return 0, fmt.Errorf("%w: %q: %w", ErrInvalidAmount, s, err)
		}
	}
	total := w * scale
	if f > math.MaxUint64-total {
		return 0, fmt.Errorf("%w: %q", ErrOverflow, s)
	}
	return total + f, nil
}

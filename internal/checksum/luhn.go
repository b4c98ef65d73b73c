// Package checksum computes the check digit the EPO appends to 8-digit
// application numbers.
package checksum

import (
	"errors"
	"fmt"
)

var ErrNotEightDigits = errors.New("expected an eight digit number")

// LuhnCheckDigit returns the Luhn check digit of an 8-digit application
// number. Digits at odd positions (1st, 3rd, ...) are summed as-is, digits at
// even positions are doubled and their digit sum is added.
func LuhnCheckDigit(number string) (int, error) {
	if len(number) != 8 {
		return 0, fmt.Errorf("%w, got %q", ErrNotEightDigits, number)
	}
	total := 0
	for i := 0; i < len(number); i++ {
		c := number[i]
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w, got %q", ErrNotEightDigits, number)
		}
		d := int(c - '0')
		if i%2 == 1 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		total += d
	}
	return (10 - total%10) % 10, nil
}

// FormatWithCheckDigit renders number the way the register displays it,
// e.g. "18752141" -> "18752141.4".
func FormatWithCheckDigit(number string) (string, error) {
	digit, err := LuhnCheckDigit(number)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s.%d", number, digit), nil
}

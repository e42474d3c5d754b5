package identifier

import "strings"

// Mod10CheckDigit computes the GS1 standard check digit for a numeric
// string: starting from the rightmost digit, alternate multipliers of 3
// and 1, sum the products, check digit = (10 - (sum mod 10)) mod 10.
// Used by the GTIN/GLN/GRAI/GDTI/SSCC family.
func Mod10CheckDigit(base string) string {
	if base == "" {
		return ""
	}

	sum := 0
	for i := len(base) - 1; i >= 0; i-- {
		digit := int(base[i] - '0')
		if digit < 0 || digit > 9 {
			continue
		}
		posFromRight := len(base) - 1 - i
		if posFromRight%2 == 0 {
			sum += digit * 3
		} else {
			sum += digit
		}
	}

	check := (10 - (sum % 10)) % 10
	return string(rune('0' + check))
}

// normalizeToLength pads with leading zeros or truncates from the right
// to force s to exactly length characters.
func normalizeToLength(s string, length int) string {
	if len(s) < length {
		return strings.Repeat("0", length-len(s)) + s
	}
	if len(s) > length {
		return s[:length]
	}
	return s
}

const mod3736Alphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// mod3736Primes are the weights applied to each position (from the right)
// of the source string in the GS1 check-character-pair algorithm for
// alphanumeric identifiers (CPI, GIAI-style component/part references).
var mod3736Primes = []int{2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47, 53, 59, 61, 67, 71, 73, 79, 83, 89, 97, 101, 103, 107}

// mod3736Value returns the alphabet value of c, or -1 if c isn't in the
// GS1 check-character alphabet.
func mod3736Value(c byte) int {
	idx := strings.IndexByte(mod3736Alphabet, c)
	return idx
}

// Mod3736CheckCharacters appends the two-character GS1 check-character
// pair for alphanumeric class identifiers (used by CPI, whose reference
// segments aren't purely numeric).
func Mod3736CheckCharacters(base string) string {
	upper := strings.ToUpper(base)
	sum1, sum2 := 0, 0
	n := len(upper)
	for i := 0; i < n; i++ {
		v := mod3736Value(upper[n-1-i])
		if v < 0 {
			continue
		}
		weight := mod3736Primes[i%len(mod3736Primes)]
		sum1 += v * weight
		sum2 += v
	}
	c1 := sum1 % len(mod3736Alphabet)
	c2 := (sum1 + sum2) % len(mod3736Alphabet)
	return string([]byte{mod3736Alphabet[c1], mod3736Alphabet[c2]})
}

package ir

import (
	"strconv"
	"strings"
)

// Four-byte encoded float layout:
// [31] sign, [30..6] digit value, [5..3] numDigits-1, [2..0] decimalPos-1.
const (
	floatDigitsBits  = 25
	floatMaxDigits   = 8
	floatDigitsMask  = 1<<floatDigitsBits - 1
	floatNumDigitsSh = 3
	floatDigitsShift = 6
)

// DecodeIntegerVar renders a four-byte encoded integer variable back into
// its original decimal form (sign plus digits).
func DecodeIntegerVar(v int32) string {
	return strconv.FormatInt(int64(v), 10)
}

// DecodeFloatVar reconstructs the fixed-point text form of an encoded float
// variable. decimalPos counts digits to the right of the decimal point.
func DecodeFloatVar(enc uint32) string {
	neg := enc>>31&1 == 1
	digits := enc >> floatDigitsShift & floatDigitsMask
	numDigits := int(enc>>floatNumDigitsSh&0x7) + 1
	decimalPos := int(enc&0x7) + 1
	// Hostile inputs can declare a point position past the digit count.
	if decimalPos > numDigits {
		numDigits = decimalPos
	}

	s := strconv.FormatUint(uint64(digits), 10)
	if len(s) < numDigits {
		s = strings.Repeat("0", numDigits-len(s)) + s
	}

	var b strings.Builder
	b.Grow(numDigits + 2)
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(s[:numDigits-decimalPos])
	b.WriteByte('.')
	b.WriteString(s[numDigits-decimalPos:])
	return b.String()
}

// EncodeFloatVar is the inverse of DecodeFloatVar. It reports false when the
// value does not fit the four-byte representation (too many digits, no
// decimal point, or nothing after the point).
func EncodeFloatVar(s string) (uint32, bool) {
	var neg bool
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	dot := strings.IndexByte(s, '.')
	if dot < 0 || dot == len(s)-1 {
		return 0, false
	}
	decimalPos := len(s) - dot - 1

	digitStr := s[:dot] + s[dot+1:]
	numDigits := len(digitStr)
	if numDigits == 0 || numDigits > floatMaxDigits || decimalPos > floatMaxDigits {
		return 0, false
	}

	digits, err := strconv.ParseUint(digitStr, 10, 64)
	if err != nil || digits > floatDigitsMask {
		return 0, false
	}

	enc := uint32(digits)<<floatDigitsShift |
		uint32(numDigits-1)<<floatNumDigitsSh |
		uint32(decimalPos-1)
	if neg {
		enc |= 1 << 31
	}
	return enc, true
}

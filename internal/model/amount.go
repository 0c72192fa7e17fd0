package model

import "strconv"

// ParseAmountU64 reads a base-10 amount as a 64-bit magnitude. When the text
// does not parse or does not fit, it returns 0 and ok=false.
func ParseAmountU64(value string) (uint64, bool) {
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// AddU64 adds two magnitudes, returning 0 and ok=false on overflow.
func AddU64(a, b uint64) (uint64, bool) {
	sum := a + b
	if sum < a {
		return 0, false
	}
	return sum, true
}

// AmountInU64 is amount0In+amount1In as a 64-bit magnitude. ok is false when a
// zero fallback was applied to either field or to the sum.
func (s SwapEvent) AmountInU64() (uint64, bool) {
	return sumAmounts(s.Amount0In, s.Amount1In)
}

// AmountOutU64 is amount0Out+amount1Out, with the same fallback as AmountInU64.
func (s SwapEvent) AmountOutU64() (uint64, bool) {
	return sumAmounts(s.Amount0Out, s.Amount1Out)
}

func sumAmounts(a, b string) (uint64, bool) {
	x, okX := ParseAmountU64(a)
	y, okY := ParseAmountU64(b)
	sum, ok := AddU64(x, y)
	return sum, okX && okY && ok
}

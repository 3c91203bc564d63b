package fairness

import "math"

const (
	seedPrefixLen = 8
	// zeroSeedFallback replaces a zero state, the only fixed point of xorshift32.
	zeroSeedFallback uint32 = 0x12345678
	twoPow32                = 4294967296.0
)

// Generator is a xorshift32 generator seeded from a hex digest.
//
// # Determinism
//
// The output stream is a pure function of the seed and the number of prior
// calls. All state arithmetic is uint32 with wraparound, so two generators
// built from the same seed produce bit-identical floats on every platform.
type Generator struct {
	state uint32
	calls int
}

// NewGenerator seeds a generator from the first eight characters of seedHex.
//
// The prefix is read the way published rounds were seeded: leading
// whitespace is skipped, then an optional sign and an optional 0x or 0X, then
// the leading run of hex digits, without padding. "abc" seeds 0xabc, not
// 0xabc00000, and a negative value wraps to its two's complement. A prefix
// with no hex digits after those markers is rejected.
func NewGenerator(seedHex string) (*Generator, error) {
	prefix := seedHex
	if len(prefix) > seedPrefixLen {
		prefix = prefix[:seedPrefixLen]
	}

	i := 0
	for i < len(prefix) && isSeedSpace(prefix[i]) {
		i++
	}
	negative := false
	if i < len(prefix) && (prefix[i] == '+' || prefix[i] == '-') {
		negative = prefix[i] == '-'
		i++
	}
	if i+1 < len(prefix) && prefix[i] == '0' && (prefix[i+1] == 'x' || prefix[i+1] == 'X') {
		i += 2
	}

	var state uint32
	digits := 0
	for ; i < len(prefix); i++ {
		v, ok := hexValue(prefix[i])
		if !ok {
			break
		}
		state = state<<4 | uint32(v)
		digits++
	}
	if digits == 0 {
		return nil, ErrInvalidSeed
	}
	if negative {
		state = -state
	}
	if state == 0 {
		state = zeroSeedFallback
	}
	return &Generator{state: state}, nil
}

func isSeedSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	default:
		return false
	}
}

func hexValue(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}

// Next advances the state and returns a value in [0, 1).
func (g *Generator) Next() float64 {
	g.calls++

	x := g.state
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	g.state = x

	return float64(x) / twoPow32
}

// NextInt returns an integer in [min, max).
func (g *Generator) NextInt(min, max int) int {
	return int(math.Floor(g.Next()*float64(max-min))) + min
}

// NextFloat returns a float in [min, max).
func (g *Generator) NextFloat(min, max float64) float64 {
	// The explicit conversion rounds the product and keeps the compiler from
	// fusing it with the addition.
	return float64(g.Next()*(max-min)) + min
}

// Calls returns how many values have been drawn since construction or the last reset.
func (g *Generator) Calls() int {
	return g.calls
}

func (g *Generator) ResetCalls() {
	g.calls = 0
}

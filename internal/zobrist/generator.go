// Package zobrist maintains the 64-bit position fingerprint used by the
// transposition cache and the learning table.
package zobrist

// Seed is the constant the key tables are generated from. Learned data
// on disk is keyed by fingerprints, so changing it orphans every
// existing learn file.
const Seed uint64 = 80180

// Generator is the deterministic source of key material. It is never
// shared with general-purpose randomness.
type Generator struct {
	state uint64
}

// NewGenerator returns a generator for the given seed. A zero seed is
// replaced because xorshift never leaves the all-zero state.
func NewGenerator(seed uint64) *Generator {
	if seed == 0 {
		seed = 0x9E3779B97F4A7C15
	}
	return &Generator{state: seed}
}

// Next returns the next 64-bit value (xorshift64*).
func (g *Generator) Next() uint64 {
	g.state ^= g.state >> 12
	g.state ^= g.state << 25
	g.state ^= g.state >> 27
	return g.state * 0x2545F4914F6CDD1D
}

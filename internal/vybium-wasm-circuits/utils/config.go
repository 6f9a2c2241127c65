package utils

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"
)

const (
	// MinK is the smallest circuit that holds the sized-value table
	MinK = 13

	// MaxK bounds the witness matrix kept in memory
	MaxK = 22

	// MinCommonRangeBits keeps byte-sized identifiers representable
	MinCommonRangeBits = 8

	// MaxCommonRangeBits is the width of the 16-bit identifier fields of
	// the packed encodings
	MaxCommonRangeBits = 16

	// DigestBytes is the length of an encoded program digest
	DigestBytes = hash.DigestLen * 8
)

// Config represents the configuration of the trace circuit
type Config struct {
	// K is log2 of the number of rows of every table
	K uint

	// CommonRangeBits sizes the common range table {0, ..., 2^bits - 1}.
	// Identifiers, offsets, step ids and sort differences must lie in it.
	CommonRangeBits uint

	// MaxFailures caps the number of reported constraint violations; 0
	// reports all of them
	MaxFailures int

	// ExpectedProgramDigest, when set, is the 0x-prefixed hex Tip5 digest
	// the instruction table must hash to
	ExpectedProgramDigest string
}

// DefaultConfig returns a configuration that admits the full 16-bit
// identifier space
func DefaultConfig() *Config {
	return &Config{
		K:               16,
		CommonRangeBits: 16,
		MaxFailures:     64,
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.K < MinK || c.K > MaxK {
		return fmt.Errorf("k must be in [%d, %d], got %d", MinK, MaxK, c.K)
	}

	if c.CommonRangeBits < MinCommonRangeBits || c.CommonRangeBits > MaxCommonRangeBits {
		return fmt.Errorf("common range bits must be in [%d, %d], got %d",
			MinCommonRangeBits, MaxCommonRangeBits, c.CommonRangeBits)
	}

	if c.CommonRangeBits > c.K {
		return fmt.Errorf("common range of 2^%d does not fit 2^%d rows", c.CommonRangeBits, c.K)
	}

	if c.MaxFailures < 0 {
		return fmt.Errorf("max failures must not be negative")
	}

	if c.ExpectedProgramDigest != "" {
		raw, err := hexutil.Decode(c.ExpectedProgramDigest)
		if err != nil {
			return fmt.Errorf("expected program digest %q: %w", c.ExpectedProgramDigest, err)
		}
		if len(raw) != DigestBytes {
			return fmt.Errorf("expected program digest has %d bytes, want %d", len(raw), DigestBytes)
		}
	}

	return nil
}

// Rows returns the number of rows of the circuit
func (c *Config) Rows() int {
	return 1 << c.K
}

// CommonRange returns the size of the common range table
func (c *Config) CommonRange() uint64 {
	return 1 << c.CommonRangeBits
}

// WithK sets the circuit size parameter
func (c *Config) WithK(k uint) *Config {
	c.K = k
	return c
}

// WithCommonRangeBits sets the common range width
func (c *Config) WithCommonRangeBits(bits uint) *Config {
	c.CommonRangeBits = bits
	return c
}

// WithMaxFailures sets the failure report cap
func (c *Config) WithMaxFailures(n int) *Config {
	c.MaxFailures = n
	return c
}

// WithExpectedProgramDigest sets the program digest to attest against
func (c *Config) WithExpectedProgramDigest(digest string) *Config {
	c.ExpectedProgramDigest = digest
	return c
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	return &Config{
		K:                     c.K,
		CommonRangeBits:       c.CommonRangeBits,
		MaxFailures:           c.MaxFailures,
		ExpectedProgramDigest: c.ExpectedProgramDigest,
	}
}

package utils

import (
	"strings"
	"testing"
)

var validDigest = "0x" + strings.Repeat("2a", DigestBytes)

// TestDefaultConfig tests the DefaultConfig function
func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config == nil {
		t.Fatal("DefaultConfig() returned nil")
	}

	if config.CommonRangeBits != MaxCommonRangeBits {
		t.Errorf("CommonRangeBits = %d, expected %d", config.CommonRangeBits, MaxCommonRangeBits)
	}

	if config.Rows() != 1<<16 {
		t.Errorf("Rows() = %d, expected %d", config.Rows(), 1<<16)
	}

	if err := config.Validate(); err != nil {
		t.Errorf("DefaultConfig() should be valid: %v", err)
	}
}

// TestConfigValidate tests the Validate method
func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		config    *Config
		expectErr bool
	}{
		{
			name:      "valid default config",
			config:    DefaultConfig(),
			expectErr: false,
		},
		{
			name:      "smallest circuit",
			config:    DefaultConfig().WithK(MinK).WithCommonRangeBits(MinK),
			expectErr: false,
		},
		{
			name:      "k below sized table",
			config:    DefaultConfig().WithK(MinK - 1).WithCommonRangeBits(8),
			expectErr: true,
		},
		{
			name:      "k too large",
			config:    DefaultConfig().WithK(MaxK + 1),
			expectErr: true,
		},
		{
			name:      "common range too narrow",
			config:    DefaultConfig().WithCommonRangeBits(MinCommonRangeBits - 1),
			expectErr: true,
		},
		{
			name:      "common range wider than identifiers",
			config:    DefaultConfig().WithK(MaxK).WithCommonRangeBits(MaxCommonRangeBits + 1),
			expectErr: true,
		},
		{
			name:      "common range exceeds rows",
			config:    DefaultConfig().WithK(14).WithCommonRangeBits(15),
			expectErr: true,
		},
		{
			name:      "negative max failures",
			config:    DefaultConfig().WithMaxFailures(-1),
			expectErr: true,
		},
		{
			name:      "valid program digest",
			config:    DefaultConfig().WithExpectedProgramDigest(validDigest),
			expectErr: false,
		},
		{
			name:      "malformed program digest",
			config:    DefaultConfig().WithExpectedProgramDigest(validDigest[2:]),
			expectErr: true,
		},
		{
			name:      "single element program digest",
			config:    DefaultConfig().WithExpectedProgramDigest("0x1f00000000000000"),
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.expectErr {
				t.Errorf("Validate() error = %v, expectErr %v", err, tt.expectErr)
			}
		})
	}
}

// TestConfigClone tests that Clone returns an independent copy
func TestConfigClone(t *testing.T) {
	original := DefaultConfig().WithExpectedProgramDigest(validDigest)
	clone := original.Clone()

	if *clone != *original {
		t.Fatalf("Clone() = %+v, expected %+v", clone, original)
	}

	clone.WithK(MinK).WithMaxFailures(1)
	if original.K != 16 || original.MaxFailures != 64 {
		t.Errorf("modifying the clone changed the original: %+v", original)
	}
}

// TestCommonRange tests the CommonRange method
func TestCommonRange(t *testing.T) {
	for bits := uint(MinCommonRangeBits); bits <= MaxCommonRangeBits; bits++ {
		config := DefaultConfig().WithCommonRangeBits(bits)
		if got := config.CommonRange(); got != 1<<bits {
			t.Errorf("CommonRange() with %d bits = %d", bits, got)
		}
	}
}

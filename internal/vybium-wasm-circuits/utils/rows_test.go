package utils

import "testing"

// TestRequiredK tests the RequiredK function
func TestRequiredK(t *testing.T) {
	tests := []struct {
		name     string
		rows     int
		expected uint
	}{
		{"empty trace", 0, MinK},
		{"single row", 1, MinK},
		{"small trace", 100, MinK},
		{"exactly minimum", 1 << MinK, MinK},
		{"one past minimum", 1<<MinK + 1, MinK + 1},
		{"sized table", 7714, MinK},
		{"large trace", 1 << 20, 20},
		{"one past large", 1<<20 + 1, 21},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := RequiredK(tt.rows); result != tt.expected {
				t.Errorf("RequiredK(%d) = %d, expected %d", tt.rows, result, tt.expected)
			}
		})
	}
}

// TestRequiredKHoldsRows tests that 2^RequiredK(n) rows hold n and 2^(k-1) do not
func TestRequiredKHoldsRows(t *testing.T) {
	for rows := 1 << MinK; rows <= 1<<(MinK+3); rows += 997 {
		k := RequiredK(rows)
		if 1<<k < rows {
			t.Errorf("RequiredK(%d) = %d holds only %d rows", rows, k, 1<<k)
		}
		if k > MinK && 1<<(k-1) >= rows {
			t.Errorf("RequiredK(%d) = %d is not minimal", rows, k)
		}
	}
}

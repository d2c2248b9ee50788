package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeGeneratorFormat(t *testing.T) {
	gen := NewCodeGenerator()

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := gen.Generate()
		require.NoError(t, err)
		assert.Len(t, code, CodeLength)
		assert.True(t, IsConfirmationCode(code), "code %q must be all digits", code)
		seen[code] = true
	}
	// 200 draws from 10^10 values: a repeat would point at a broken source.
	assert.Len(t, seen, 200)
}

func TestIsConfirmationCode(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"0123456789", true},
		{"012345678", false},
		{"01234567890", false},
		{"01234a6789", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsConfirmationCode(tt.in), tt.in)
	}
}

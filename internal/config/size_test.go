package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  int64
	}{
		{"0", 0},
		{"100", 100},
		{"100B", 100},
		{"1K", 1024},
		{"1k", 1024},
		{"1KB", 1024},
		{"1KiB", 1024},
		{"50M", 50 * 1024 * 1024},
		{"100MB", 100 * 1024 * 1024},
		{"1.5G", 1536 * 1024 * 1024},
		{"2T", 2 * 1024 * 1024 * 1024 * 1024},
		{" 10M ", 10 * 1024 * 1024},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseSize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSize_Invalid(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "B", "K", "iB", "abc", "-5M", "1.2.3K", "NaN", "inf"} {
		t.Run(input, func(t *testing.T) {
			t.Parallel()
			_, err := ParseSize(input)
			assert.Error(t, err)
		})
	}
}

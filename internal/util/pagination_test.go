package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		page, size, from, limit int
	}{
		{1, 10, 0, 10},
		{3, 20, 40, 20},
		{0, 0, 0, DefaultPageSize},
		{-2, 500, 0, DefaultPageSize},
	}
	for _, tt := range tests {
		from, limit := Calculate(tt.page, tt.size)
		assert.Equal(t, tt.from, from)
		assert.Equal(t, tt.limit, limit)
	}
}

func TestNewMeta(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Meta{Page: 2, Size: 10, Total: 25, TotalPages: 3, HasPrev: true, HasNext: true}, NewMeta(2, 10, 25))
	assert.Equal(t, Meta{Page: 1, Size: 10, Total: 0, TotalPages: 0}, NewMeta(1, 10, 0))
	assert.Equal(t, Meta{Page: 3, Size: 10, Total: 25, TotalPages: 3, HasPrev: true}, NewMeta(3, 10, 25))
}

func TestParseIntDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 7, ParseIntDefault("7", 1))
	assert.Equal(t, 1, ParseIntDefault("", 1))
	assert.Equal(t, 1, ParseIntDefault("x", 1))
}

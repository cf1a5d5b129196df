package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateShortID(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := GenerateShortID()
		assert.Len(t, id, ShortIDLength)
		assert.True(t, IsShortID(id), "unexpected symbol in %q", id)
		seen[id] = struct{}{}
	}
	// 64^7 вариантов, совпадения в тысяче попыток практически исключены
	assert.Greater(t, len(seen), 990)
}

func TestIsShortID(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"abc$@XY", true},
		{"0000000", true},
		{"abc", false},
		{"abcdefgh", false},
		{"abc-def", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsShortID(tt.in), tt.in)
	}
}

func TestNormalizeDestination(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no scheme", "example.com/x", "https://example.com/x"},
		{"http kept", "http://example.com/x", "http://example.com/x"},
		{"https kept", "https://example.com/x", "https://example.com/x"},
		{"upper case scheme", "HTTPS://example.com/x", "HTTPS://example.com/x"},
		{"mixed case http", "HtTp://example.com", "HtTp://example.com"},
		{"other scheme", "ftp://example.com", "https://ftp://example.com"},
		{"garbage", "not a url", "https://not a url"},
		{"empty", "", "https://"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDestination(tt.in))
		})
	}
}

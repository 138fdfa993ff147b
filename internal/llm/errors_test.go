package llm

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{name: "short", in: "abc", n: 5, want: "abc"},
		{name: "exact", in: "abcde", n: 5, want: "abcde"},
		{name: "ascii cut", in: "abcdef", n: 3, want: "abc..."},
		{name: "cut inside two-byte rune", in: "aé", n: 2, want: "a..."},
		{name: "cut inside emoji", in: "ok🔥🔥", n: 4, want: "ok..."},
		{name: "cut after rune", in: "é🔥", n: 2, want: "é..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.n)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestProviderError_LongMultibyteBody(t *testing.T) {
	body := "x" + strings.Repeat("日本語", 300)
	err := &ProviderError{Provider: ProviderGemini, StatusCode: 500, Body: body}

	msg := err.Error()
	assert.True(t, utf8.ValidString(msg))
	assert.Contains(t, msg, "(status 500)")
	assert.True(t, strings.HasSuffix(msg, "..."))
}

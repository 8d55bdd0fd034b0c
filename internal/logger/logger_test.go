package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskEmail(t *testing.T) {
	cases := map[string]string{
		"john@example.com": "jo***@example.com",
		"jo@example.com":   "jo***@example.com",
		"@example.com":     "***",
		"not-an-email":     "***",
	}
	for in, want := range cases {
		assert.Equal(t, want, MaskEmail(in), in)
	}
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "***", MaskPhone("1234"))
	assert.Equal(t, "*********67", MaskPhone("+1555123467"))
	assert.Equal(t, "******89", MaskPhone("  12345689 "))
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	l := New("production", "nonsense")
	assert.NotNil(t, l)
	assert.Same(t, l, Log)
	assert.False(t, l.Core().Enabled(-1), "debug must be disabled at info level")
}

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsOnlyNumbers(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"", false},
		{"123", true},
		{"1a", false},
		{"x", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, IsOnlyNumbers(tt.input), tt.input)
	}
}

func TestIsIdentifier(t *testing.T) {
	tests := []struct {
		input       string
		expected    bool
		description string
	}{
		{"x", true, "single letter"},
		{"_private", true, "leading underscore"},
		{"name2", true, "trailing digit"},
		{"2name", false, "leading digit"},
		{"a.b", false, "dotted"},
		{"ñame", true, "unicode letter"},
		{"", false, "empty"},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsIdentifier(tt.input))
		})
	}
}

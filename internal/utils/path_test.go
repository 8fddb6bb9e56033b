package utils

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandUser(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	sep := string(filepath.Separator)

	tests := []struct {
		input       string
		expected    string
		description string
	}{
		{"~", home, "bare tilde"},
		{"~" + sep + "docs", filepath.Join(home, "docs"), "path under home"},
		{"~" + sep, home + sep, "trailing separator kept"},
		{"relative" + sep + "x", "relative" + sep + "x", "no tilde"},
		{"~no-such-user-here" + sep + "x", "~no-such-user-here" + sep + "x", "unknown user"},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExpandUser(tt.input))
		})
	}
}

func TestPythonSearchPaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("PYTHONPATH", "/opt/lib"+string(filepath.ListSeparator)+string(filepath.ListSeparator)+"~/py")

	got := PythonSearchPaths("/opt/lib", "  ", "/srv/extra")
	assert.Equal(t, []string{"/opt/lib", filepath.Join(home, "py"), "/srv/extra"}, got)
}

package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/bastiangx/replserve/pkg/autocomplete"
	"github.com/bastiangx/replserve/pkg/matching"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, lines ...string) (*InputHandler, string) {
	t.Helper()
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	var out bytes.Buffer
	h := NewInputHandler(autocomplete.NewCompleter(nil, nil), matching.Simple, true, 0, in, &out)
	require.NoError(t, h.Start(context.Background()))
	return h, out.String()
}

func TestBindAndComplete(t *testing.T) {
	h, out := run(t,
		"fruit = {'apple': 1, 'avocado': 2}",
		"fruit['av",
		"fruit.ke",
	)
	assert.Contains(t, h.namespace, "fruit")
	assert.Equal(t, []string{"fruit = {'apple': 1, 'avocado': 2}"}, h.history)
	assert.Contains(t, out, "'avocado'")
	assert.Contains(t, out, "dict_key")
	assert.Contains(t, out, "keys")
}

func TestCommands(t *testing.T) {
	h, out := run(t,
		":mode fuzzy",
		":mode telepathic",
		":magic",
		":block",
		":nope",
	)
	assert.Equal(t, matching.Fuzzy, h.mode)
	assert.False(t, h.magic)
	assert.True(t, h.blockMode)
	assert.Contains(t, out, "unknown completion mode")
	assert.Contains(t, out, "unknown command :nope")
}

func TestBlockMode(t *testing.T) {
	h, out := run(t,
		":block",
		"class A:",
		"    def __ini",
	)
	assert.Equal(t, []string{"class A:", "    def __ini"}, h.block)
	assert.Contains(t, out, "__init__")
	assert.Contains(t, out, "magic_method")
}

func TestNoCompletions(t *testing.T) {
	_, out := run(t, "zzzq")
	assert.Contains(t, out, "no completions")
}

func TestBindErrors(t *testing.T) {
	h, out := run(t, "x = missing_name")
	assert.NotContains(t, h.namespace, "x")
	assert.Contains(t, out, "error:")
}

func TestReset(t *testing.T) {
	h, _ := run(t, "x = 1", ":reset")
	assert.NotContains(t, h.namespace, "x")
	assert.Empty(t, h.history)
}

func TestRenderMatchesLimit(t *testing.T) {
	comp := autocomplete.Completion{
		Matches:  []string{"os.path", "os.sep", "os.stat"},
		Strategy: autocomplete.NewAttribute(),
	}
	out := renderMatches(comp, 2)
	assert.Contains(t, out, "3 matches from attribute")
	assert.Contains(t, out, "path")
	assert.Contains(t, out, "(os.path)")
	assert.NotContains(t, out, "stat")
	assert.Contains(t, out, "1 more")
}

func TestStrategiesCommand(t *testing.T) {
	_, out := run(t, ":strategies")
	assert.Contains(t, out, "dict_key string_literal_attr import filename magic_method multiline_analysis global cumulative[attribute,parameter_name]")
}

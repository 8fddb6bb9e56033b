package evaluate

import (
	"testing"

	"github.com/bastiangx/replserve/pkg/object"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNamespace() object.Namespace {
	fruit := object.NewDict()
	_ = fruit.Set(object.Str("apple"), object.Int(1))
	_ = fruit.Set(object.Str("ant"), object.Int(2))

	boom := errors.New("getter exploded")
	cls := &object.Class{
		Name:  "Foo",
		Bases: []*object.Class{object.ObjectClass},
		Attrs: object.Namespace{
			"bad": &object.Property{Get: func(object.Object) (object.Object, error) { return nil, boom }},
		},
	}
	inst := object.NewInstance(cls)
	inst.Dict["a"] = object.Int(7)

	add := &object.Func{Name: "add", Params: []string{"a", "b"}, Impl: func(args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
		sum := object.Int(0)
		for _, a := range args {
			sum += a.(object.Int)
		}
		for _, v := range kwargs {
			sum += v.(object.Int)
		}
		return sum, nil
	}}

	return object.Namespace{
		"d":      fruit,
		"foo":    inst,
		"nested": object.NewList(fruit),
		"add":    add,
	}
}

func TestEvalValues(t *testing.T) {
	ns := testNamespace()
	testCases := []struct {
		expr string
		want string
	}{
		{"d", "{'apple': 1, 'ant': 2}"},
		{"foo.a", "7"},
		{"nested[0]['ant']", "2"},
		{"nested[-1]", "{'apple': 1, 'ant': 2}"},
		{"add(1, 2, b=3)", "6"},
		{"'abc'", "'abc'"},
		{`"a" 'b'`, "'ab'"},
		{`b'\x00a'`, `b'\x00a'`},
		{`r'\n'`, `'\\n'`},
		{`'é\t'`, `'é\t'`},
		{"0x1f", "31"},
		{"1_000", "1000"},
		{"-2.5", "-2.5"},
		{"True", "True"},
		{"None", "None"},
		{"[1, (2,), {'k': None}]", "[1, (2,), {'k': None}]"},
		{"1, 2", "(1, 2)"},
		{"(3)", "3"},
		{"{1, 1, 2}", "{1, 2}"},
		{"len(d)", "2"},
		{"'abc'.upper()", "'ABC'"},
		{"str.upper", "<function upper>"},
	}

	for _, tc := range testCases {
		t.Run(tc.expr, func(t *testing.T) {
			got, err := Eval(tc.expr, ns)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Repr())
		})
	}
}

func TestEvalSwallowsOnlyResolutionErrors(t *testing.T) {
	ns := testNamespace()
	testCases := []struct {
		expr      string
		swallowed bool
		cause     error
	}{
		{"missing", true, object.ErrName},
		{"foo.missing", true, object.ErrAttribute},
		{"d[", true, ErrSyntax},
		{"a = 1", true, ErrSyntax},
		{"x + 1", true, ErrSyntax},
		{"f'{d}'", true, ErrSyntax},
		{"", true, ErrSyntax},
		{"d['zzz']", false, object.ErrKey},
		{"nested[9]", false, object.ErrIndex},
		{"d()", false, object.ErrType},
		{"foo.bad", false, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.expr, func(t *testing.T) {
			_, err := Eval(tc.expr, ns)
			require.Error(t, err)

			var evalErr *EvaluationError
			assert.Equal(t, tc.swallowed, errors.As(err, &evalErr))
			assert.Equal(t, tc.swallowed, errors.Is(err, ErrEvaluation))
			if tc.cause != nil {
				assert.True(t, errors.Is(err, tc.cause), "expected %v in %v", tc.cause, err)
			}
		})
	}
}

func TestEvalUsesBuiltinsOfNamespace(t *testing.T) {
	mod := object.NewModule("builtins")
	mod.Dict["only_here"] = object.Int(1)
	ns := object.Namespace{"__builtins__": mod}

	got, err := Eval("only_here", ns)
	require.NoError(t, err)
	assert.Equal(t, object.Int(1), got)

	_, err = Eval("len", ns)
	assert.True(t, errors.Is(err, object.ErrName))

	got, err = Eval("len", object.Namespace{})
	require.NoError(t, err)
	assert.True(t, object.IsCallable(got))
}

func TestEvalRunsGetattrHooks(t *testing.T) {
	seen := []string{}
	cls := &object.Class{
		Name:  "Proxy",
		Bases: []*object.Class{object.ObjectClass},
		Getattr: func(_ object.Object, name string) (object.Object, error) {
			seen = append(seen, name)
			return object.Int(len(name)), nil
		},
	}
	ns := object.Namespace{"p": object.NewInstance(cls)}

	got, err := Eval("p.abc", ns)
	require.NoError(t, err)
	assert.Equal(t, object.Int(3), got)
	assert.Equal(t, []string{"abc"}, seen)
}

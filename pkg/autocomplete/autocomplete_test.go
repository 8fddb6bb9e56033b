package autocomplete

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bastiangx/replserve/pkg/analysis"
	"github.com/bastiangx/replserve/pkg/lineparts"
	"github.com/bastiangx/replserve/pkg/matching"
	"github.com/bastiangx/replserve/pkg/object"
	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStrategy struct {
	base
	result *Result
	err    error
	calls  int
}

func newFake(name string, result *Result, err error) *fakeStrategy {
	return &fakeStrategy{
		base:   base{name: name, locate: lineparts.CurrentWord, shownBeforeTab: true},
		result: result,
		err:    err,
	}
}

func (f *fakeStrategy) Matches(*Request) (*Result, error) {
	f.calls++
	return f.result, f.err
}

var errBoom = errors.New("boom")

func testNamespace() object.Namespace {
	d := object.NewDict()
	_ = d.Set(object.Str("apple"), object.Int(1))
	_ = d.Set(object.Str("ant"), object.Int(2))
	_ = d.Set(object.Str("banana"), object.Int(3))

	cls := &object.Class{
		Name:  "Foo",
		Bases: []*object.Class{object.ObjectClass},
		Attrs: object.Namespace{
			"bar": &object.Func{Name: "bar", Params: []string{"self"}},
			"bad": &object.Property{Get: func(object.Object) (object.Object, error) { return nil, errBoom }},
		},
	}
	foo := object.NewInstance(cls)
	foo.Dict["a"] = object.Int(1)
	foo.Dict["_hidden"] = object.Int(2)

	return object.Namespace{
		"d":   d,
		"n":   object.Int(3),
		"foo": foo,
		"fn":  &object.Func{Name: "fn"},
	}
}

func request(line string, ns object.Namespace) *Request {
	return &Request{CursorOffset: len(line), Line: line, Locals: ns}
}

func TestCompleteDispatch(t *testing.T) {
	req := request("x", object.Namespace{})

	t.Run("first applicable strategy wins", func(t *testing.T) {
		skip := newFake("skip", nil, nil)
		hit := newFake("hit", &Result{Matches: []string{"xa"}}, nil)
		after := newFake("after", &Result{Matches: []string{"xb"}}, nil)

		comp, err := Complete([]Strategy{skip, hit, after}, req)
		require.NoError(t, err)
		assert.Equal(t, []string{"xa"}, comp.Matches)
		assert.Same(t, hit, comp.Strategy)
		assert.Equal(t, 0, after.calls)
	})

	t.Run("empty result stops without a winner", func(t *testing.T) {
		empty := newFake("empty", &Result{Matches: []string{}}, nil)
		after := newFake("after", &Result{Matches: []string{"xb"}}, nil)

		comp, err := Complete([]Strategy{empty, after}, req)
		require.NoError(t, err)
		assert.Empty(t, comp.Matches)
		assert.NotNil(t, comp.Matches)
		assert.Nil(t, comp.Strategy)
		assert.Equal(t, 0, after.calls)
	})

	t.Run("no strategy applies", func(t *testing.T) {
		comp, err := Complete([]Strategy{newFake("skip", nil, nil)}, req)
		require.NoError(t, err)
		assert.Empty(t, comp.Matches)
		assert.Nil(t, comp.Strategy)
	})

	t.Run("collaborator error names the strategy", func(t *testing.T) {
		_, err := Complete([]Strategy{newFake("broken", nil, errBoom)}, req)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errBoom))
		assert.Contains(t, err.Error(), "broken completion")
	})

	t.Run("invalid request", func(t *testing.T) {
		_, err := Complete(nil, &Request{CursorOffset: 5, Line: "ab"})
		assert.True(t, errors.Is(err, ErrInvalidRequest))

		_, err = Complete(nil, &Request{Line: "ab", Mode: matching.Mode(42)})
		assert.True(t, errors.Is(err, ErrInvalidRequest))
	})
}

func TestSubstitute(t *testing.T) {
	s := NewAttribute()

	cursor, line := s.Substitute(6, "foo.ba + 1", "foo.bar")
	assert.Equal(t, 7, cursor)
	assert.Equal(t, "foo.bar + 1", line)

	// prefix and suffix survive around the replaced span
	cursor, line = NewGlobal().Substitute(6, "x = (im) + y", "import")
	assert.Equal(t, "x = (import) + y", line)
	assert.Equal(t, 11, cursor)

	cursor, line = s.Substitute(2, "  ", "foo.bar")
	assert.Equal(t, 2, cursor)
	assert.Equal(t, "  ", line)
}

func TestDictKey(t *testing.T) {
	ns := testNamespace()
	s := NewDictKey()

	testCases := []struct {
		description string
		line        string
		want        []string
	}{
		{"matching keys", "d['a", []string{"'ant']", "'apple']"}},
		{"all keys", "d[", []string{"'ant']", "'apple']", "'banana']"}},
		{"undefined name", "missing['a", []string{}},
		{"not a dict", "n['a", []string{}},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			r, err := s.Matches(request(tc.line, ns))
			require.NoError(t, err)
			require.NotNil(t, r)
			if diff := cmp.Diff(tc.want, r.Matches); diff != "" {
				t.Errorf("matches mismatch (-want +got):\n%s", diff)
			}
		})
	}

	r, err := s.Matches(request("d", ns))
	require.NoError(t, err)
	assert.Nil(t, r)

	_, err = s.Matches(request("foo.bad['a", ns))
	assert.True(t, errors.Is(err, errBoom))

	assert.Equal(t, "'apple'", s.Format("'apple']"))
}

func TestAttrMatches(t *testing.T) {
	ns := testNamespace()

	abstract := &object.Class{
		Name:  "Base",
		Bases: []*object.Class{object.ObjectClass},
		Meta:  object.ABCMeta,
		Attrs: object.Namespace{"__abstractmethods__": object.Tuple{}},
	}
	ns["Base"] = abstract
	ns["impl"] = object.NewInstance(abstract)
	mod := object.NewModule("m")
	mod.Dict["__builtins__"] = object.NewModule("builtins")
	mod.Dict["__bu"] = object.Int(0)
	ns["m"] = mod

	testCases := []struct {
		description string
		text        string
		mode        matching.Mode
		want        []string
	}{
		{"string literal head", "'x'.up", matching.Simple, []string{"'x'.upper"}},
		{"underscore reveals dunders", "'x'.__len", matching.Simple, []string{"'x'.__len__"}},
		{"instance members", "foo.", matching.Simple, []string{"foo.a", "foo.bad", "foo.bar"}},
		{"private on request", "foo._h", matching.Simple, []string{"foo._hidden"}},
		{"substring mode", "foo.ar", matching.Substring, []string{"foo.bar"}},
		{"unknown name", "missing.x", matching.Simple, []string{}},
		{"float literal", "1.re", matching.Simple, []string{}},
		{"abstract class hides marker", "Base.__abs", matching.Simple, []string{}},
		{"instance of abstract class", "impl.__abs", matching.Simple, []string{"impl.__abstractmethods__"}},
		{"no __builtins__", "m.__bu", matching.Simple, []string{"m.__bu"}},
		{"subscript prefix kept", "d[foo.ba", matching.Simple, []string{"d[foo.bad", "d[foo.bar"}},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			got, err := AttrMatches(context.Background(), tc.text, ns, tc.mode)
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("AttrMatches(%q) mismatch (-want +got):\n%s", tc.text, diff)
			}
		})
	}

	t.Run("underscore names hidden by default", func(t *testing.T) {
		got, err := AttrMatches(context.Background(), "'x'.", ns, matching.Simple)
		require.NoError(t, err)
		assert.Contains(t, got, "'x'.upper")
		for _, m := range got {
			assert.NotContains(t, m, "._")
		}
	})

	t.Run("host errors propagate", func(t *testing.T) {
		_, err := AttrMatches(context.Background(), "foo.bad.x", ns, matching.Simple)
		assert.True(t, errors.Is(err, errBoom))
	})
}

func TestAttributeStrategy(t *testing.T) {
	s := NewAttribute()
	r, err := s.Matches(request("foo.b", testNamespace()))
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, []string{"foo.bad", "foo.bar"}, r.Matches)
	assert.Equal(t, lineparts.Span{Start: 0, End: 5, Word: "foo.b"}, r.Span)
	assert.Equal(t, "bar", s.Format("foo.bar"))

	r, err = s.Matches(request("foo", testNamespace()))
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestStringLiteralAttr(t *testing.T) {
	s := NewStringLiteralAttr()

	r, err := s.Matches(request(`"abc".up`, nil))
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, []string{"upper"}, r.Matches)

	r, err = s.Matches(request(`"abc".__le`, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"__le__", "__len__"}, r.Matches)

	r, err = s.Matches(request("abc.up", nil))
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestGlobal(t *testing.T) {
	s := NewGlobal()

	testCases := []struct {
		description string
		line        string
		ns          object.Namespace
		mode        matching.Mode
		want        []string
	}{
		{"keyword", "imp", object.Namespace{}, matching.Simple, []string{"import"}},
		{"callable local", "fo", object.Namespace{"foo": &object.Func{Name: "foo"}}, matching.Simple, []string{"foo(", "for", "format("}},
		{"plain local", "val", object.Namespace{"value": object.Int(1)}, matching.Simple, []string{"value"}},
		{"no __builtins__", "__bu", nil, matching.Simple, []string{"__build_class__("}},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			req := request(tc.line, tc.ns)
			req.Mode = tc.mode
			r, err := s.Matches(req)
			require.NoError(t, err)
			require.NotNil(t, r)
			if diff := cmp.Diff(tc.want, r.Matches); diff != "" {
				t.Errorf("matches mismatch (-want +got):\n%s", diff)
			}
		})
	}

	req := request("port", object.Namespace{})
	req.Mode = matching.Substring
	r, err := s.Matches(req)
	require.NoError(t, err)
	assert.Contains(t, r.Matches, "import")

	r, err = s.Matches(request("foo.ba", nil))
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestParameterName(t *testing.T) {
	s := NewParameterName()

	req := request("f(ke", nil)
	r, err := s.Matches(req)
	require.NoError(t, err)
	assert.Nil(t, r)

	req.ArgSpec = &object.ArgSpec{Func: "f", Args: []string{"key", "kind", "other"}, KwOnlyArgs: []string{"keep"}}
	r, err = s.Matches(req)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, []string{"key=", "keep="}, r.Matches)
}

func TestMagicMethod(t *testing.T) {
	s := NewMagicMethod()

	req := request("    def __in", nil)
	req.CurrentBlock = "class A:\n    def __in"
	req.CompleteMagicMethods = true

	r, err := s.Matches(req)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, []string{"__init__", "__invert__", "__int__", "__index__"}, r.Matches)

	req.CompleteMagicMethods = false
	r, err = s.Matches(req)
	require.NoError(t, err)
	assert.Nil(t, r)

	req.CompleteMagicMethods = true
	req.CurrentBlock = "def __in"
	r, err = s.Matches(req)
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestFilename(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.txt"), nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other"), nil, 0o644))

	s := NewFilename()
	assert.False(t, s.ShownBeforeTab())

	r, err := s.Matches(request(`open("`+dir+sep+"do", nil))
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, []string{
		filepath.Join(dir, "doc.txt"),
		filepath.Join(dir, "docs") + sep,
	}, r.Matches)

	t.Run("home prefix kept", func(t *testing.T) {
		t.Setenv("HOME", dir)
		r, err := s.Matches(request(`open("~/do`, nil))
		require.NoError(t, err)
		require.NotNil(t, r)
		assert.Equal(t, []string{"~/doc.txt", "~/docs/"}, r.Matches)
	})

	r, err = s.Matches(request("open(x", nil))
	require.NoError(t, err)
	assert.Nil(t, r)

	assert.Equal(t, "docs/", s.Format("/tmp/a/docs/"))
	assert.Equal(t, "doc.txt", s.Format("/tmp/a/doc.txt"))
	assert.Equal(t, "doc.txt", s.Format("doc.txt"))
}

type fakeImports struct {
	matches []string
}

func (f fakeImports) Complete(int, string) []string { return f.matches }

func TestImport(t *testing.T) {
	r, err := NewImport(nil).Matches(request("import o", nil))
	require.NoError(t, err)
	assert.Nil(t, r)

	r, err = NewImport(fakeImports{}).Matches(request("x = o", nil))
	require.NoError(t, err)
	assert.Nil(t, r)

	s := NewImport(fakeImports{matches: []string{"os", "os.path"}})
	r, err = s.Matches(request("import os.p", nil))
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, []string{"os", "os.path"}, r.Matches)
	assert.Equal(t, "path", s.Format("os.path"))
	assert.Equal(t, "os", s.Format("os."))
}

type fakeAnalyzer struct {
	completions []analysis.Completion
	err         error
	source      string
	line        int
	column      int
}

func (f *fakeAnalyzer) Complete(_ context.Context, source string, line, column int) ([]analysis.Completion, error) {
	f.source, f.line, f.column = source, line, column
	return f.completions, f.err
}

func TestMultilineAnalysis(t *testing.T) {
	block := func(line string) *Request {
		req := request(line, nil)
		req.CurrentBlock = "def f():\n" + line
		req.History = []string{"value = 1", "def f():"}
		return req
	}

	t.Run("single line block", func(t *testing.T) {
		a := &fakeAnalyzer{}
		req := block("    va")
		req.CurrentBlock = "va"
		r, err := NewMultilineAnalysis(a).Matches(req)
		require.NoError(t, err)
		assert.Nil(t, r)
	})

	t.Run("nil analyzer", func(t *testing.T) {
		r, err := NewMultilineAnalysis(nil).Matches(block("    va"))
		require.NoError(t, err)
		assert.Nil(t, r)
	})

	t.Run("matches and span", func(t *testing.T) {
		a := &fakeAnalyzer{completions: []analysis.Completion{
			{Name: "value", Complete: "lue"},
			{Name: "vars", Complete: "rs"},
		}}
		r, err := NewMultilineAnalysis(a).Matches(block("    va"))
		require.NoError(t, err)
		require.NotNil(t, r)
		assert.Equal(t, []string{"value", "vars"}, r.Matches)
		assert.Equal(t, lineparts.Span{Start: 4, End: 6, Word: "va"}, r.Span)
		assert.Equal(t, "value = 1\ndef f():\n    va", a.source)
		assert.Equal(t, 3, a.line)
		assert.Equal(t, 6, a.column)
	})

	t.Run("all private", func(t *testing.T) {
		a := &fakeAnalyzer{completions: []analysis.Completion{
			{Name: "_a", Complete: "a"},
			{Name: "__b", Complete: "_b"},
		}}
		r, err := NewMultilineAnalysis(a).Matches(block("    _"))
		require.NoError(t, err)
		require.NotNil(t, r)
		assert.Equal(t, []string{"_a", "__b"}, r.Matches)
	})

	t.Run("mixed case defers", func(t *testing.T) {
		a := &fakeAnalyzer{completions: []analysis.Completion{
			{Name: "ValueError", Complete: "lueError"},
			{Name: "value", Complete: "lue"},
		}}
		r, err := NewMultilineAnalysis(a).Matches(block("    va"))
		require.NoError(t, err)
		assert.Nil(t, r)
	})

	t.Run("no completions", func(t *testing.T) {
		r, err := NewMultilineAnalysis(&fakeAnalyzer{}).Matches(block("    va"))
		require.NoError(t, err)
		require.NotNil(t, r)
		assert.Empty(t, r.Matches)
	})

	t.Run("analyzer error", func(t *testing.T) {
		_, err := NewMultilineAnalysis(&fakeAnalyzer{err: errBoom}).Matches(block("    va"))
		assert.True(t, errors.Is(err, errBoom))
	})
}

func TestMultilineAnalysisWithEngine(t *testing.T) {
	req := request("    my", nil)
	req.CurrentBlock = "def f():\n    my"
	req.History = []string{"my_value = 1", "def f():"}

	r, err := NewMultilineAnalysis(analysis.NewEngine(nil)).Matches(req)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, []string{"my_value"}, r.Matches)
	assert.Equal(t, lineparts.Span{Start: 4, End: 6, Word: "my"}, r.Span)
}

func TestCumulative(t *testing.T) {
	_, err := NewCumulative()
	assert.True(t, errors.Is(err, ErrNoStrategies))

	a := newFake("a", &Result{Matches: []string{"zeta", "alpha"}}, nil)
	b := newFake("b", &Result{Matches: []string{"beta", "alpha"}}, nil)
	c, err := NewCumulative(a, newFake("skip", nil, nil), b)
	require.NoError(t, err)

	r, err := c.Matches(request("x", nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta", "zeta"}, r.Matches)
	assert.True(t, c.ShownBeforeTab())

	none, err := NewCumulative(newFake("skip", nil, nil))
	require.NoError(t, err)
	r, err = none.Matches(request("x", nil))
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.NotNil(t, r.Matches)
	assert.Empty(t, r.Matches)

	broken, err := NewCumulative(newFake("broken", nil, errBoom))
	require.NoError(t, err)
	_, err = broken.Matches(request("x", nil))
	assert.True(t, errors.Is(err, errBoom))
}

func TestDefaultStrategies(t *testing.T) {
	var names []string
	for _, s := range DefaultStrategies(nil, nil) {
		names = append(names, s.Name())
	}
	want := []string{
		"dict_key", "string_literal_attr", "import", "filename",
		"magic_method", "multiline_analysis", "global", "cumulative",
	}
	assert.Equal(t, want, names)
}

func TestCompleter(t *testing.T) {
	c := NewCompleter(nil, nil)
	ns := testNamespace()

	comp, err := c.Complete(request("foo.b", ns))
	require.NoError(t, err)
	require.NotNil(t, comp.Strategy)
	assert.Equal(t, "cumulative", comp.Strategy.Name())
	assert.Equal(t, []string{"foo.bad", "foo.bar"}, comp.Matches)

	cursor, line := c.Substitute(comp, 5, "foo.b", "foo.bar")
	assert.Equal(t, 7, cursor)
	assert.Equal(t, "foo.bar", line)

	comp, err = c.Complete(request("d['b", ns))
	require.NoError(t, err)
	assert.Equal(t, "dict_key", comp.Strategy.Name())
	assert.Equal(t, []string{"'banana']"}, comp.Matches)

	comp, err = c.Complete(request("zzz", ns))
	require.NoError(t, err)
	assert.Nil(t, comp.Strategy)
	cursor, line = c.Substitute(comp, 3, "zzz", "anything")
	assert.Equal(t, 3, cursor)
	assert.Equal(t, "zzz", line)

	s, ok := c.Strategy("parameter_name")
	require.True(t, ok)
	assert.Equal(t, "parameter_name", s.Name())
	_, ok = c.Strategy("nope")
	assert.False(t, ok)
}

func TestIdentityFormat(t *testing.T) {
	for _, s := range []Strategy{NewGlobal(), NewParameterName(), NewMagicMethod(), NewStringLiteralAttr(), NewMultilineAnalysis(nil)} {
		for _, m := range []string{"value", "key=", "__init__", "foo("} {
			assert.Equal(t, m, s.Format(m), s.Name())
			assert.Equal(t, s.Format(m), s.Format(s.Format(m)), s.Name())
		}
	}
}

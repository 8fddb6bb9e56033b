package lineparts

import (
	"testing"
)

type locatorCase struct {
	line   string
	cursor int
	want   Span
	found  bool
}

func runLocatorCases(t *testing.T, name string, locate Locator, cases []locatorCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(name+"/"+tc.line, func(t *testing.T) {
			got, ok := locate(tc.cursor, tc.line)
			if ok != tc.found {
				t.Fatalf("%s(%d, %q): found=%v, want %v", name, tc.cursor, tc.line, ok, tc.found)
			}
			if !ok {
				return
			}
			if got != tc.want {
				t.Errorf("%s(%d, %q) = %+v, want %+v", name, tc.cursor, tc.line, got, tc.want)
			}
			if tc.line[got.Start:got.End] != got.Word {
				t.Errorf("span %+v does not cover its word in %q", got, tc.line)
			}
		})
	}
}

func TestCurrentWord(t *testing.T) {
	runLocatorCases(t, "CurrentWord", CurrentWord, []locatorCase{
		{"foo.bar.baz", 11, Span{0, 11, "foo.bar.baz"}, true},
		{"a = fn(", 7, Span{4, 7, "fn("}, true},
		{"foo", 0, Span{}, false},
		{"x + ", 4, Span{}, false},
	})
}

func TestCurrentDictKey(t *testing.T) {
	runLocatorCases(t, "CurrentDictKey", CurrentDictKey, []locatorCase{
		{"d['a", 4, Span{2, 4, "'a"}, true},
		{"d[", 2, Span{2, 2, ""}, true},
		{"x = 1", 5, Span{}, false},
	})
}

func TestCurrentDict(t *testing.T) {
	runLocatorCases(t, "CurrentDict", CurrentDict, []locatorCase{
		{"d['a", 4, Span{0, 1, "d"}, true},
		{"foo.bar[1", 9, Span{0, 7, "foo.bar"}, true},
		{"foo", 3, Span{}, false},
	})
}

func TestCurrentString(t *testing.T) {
	runLocatorCases(t, "CurrentString", CurrentString, []locatorCase{
		{"open('~/doc", 11, Span{6, 11, "~/doc"}, true},
		{"'abc' + 'de'", 2, Span{1, 4, "abc"}, true},
		{"'abc' + 'de'", 10, Span{9, 11, "de"}, true},
		{`x = """doc`, 9, Span{7, 10, "doc"}, true},
		{"x = 1", 5, Span{}, false},
	})
}

func TestCurrentDottedAttribute(t *testing.T) {
	runLocatorCases(t, "CurrentDottedAttribute", CurrentDottedAttribute, []locatorCase{
		{"a.b", 3, Span{0, 3, "a.b"}, true},
		{"a.", 2, Span{0, 2, "a."}, true},
		{"ab", 2, Span{}, false},
	})
}

func TestCurrentMethodDefinitionName(t *testing.T) {
	runLocatorCases(t, "CurrentMethodDefinitionName", CurrentMethodDefinitionName, []locatorCase{
		{"    def __in", 12, Span{8, 12, "__in"}, true},
		{"def f(self):", 12, Span{}, false},
		{"x = 1", 5, Span{}, false},
	})
}

func TestCurrentSingleWord(t *testing.T) {
	runLocatorCases(t, "CurrentSingleWord", CurrentSingleWord, []locatorCase{
		{"x = imp", 7, Span{4, 7, "imp"}, true},
		{"abc.de", 2, Span{0, 3, "abc"}, true},
		{"abc.de", 6, Span{}, false},
	})
}

func TestCurrentStringLiteralAttr(t *testing.T) {
	runLocatorCases(t, "CurrentStringLiteralAttr", CurrentStringLiteralAttr, []locatorCase{
		{"'x'.up", 6, Span{4, 6, "up"}, true},
		{`"a\"b".st`, 9, Span{7, 9, "st"}, true},
		{"'x'.", 4, Span{4, 4, ""}, true},
		{"x.up", 4, Span{}, false},
	})
}

func TestCurrentNamePrefix(t *testing.T) {
	runLocatorCases(t, "CurrentNamePrefix", CurrentNamePrefix, []locatorCase{
		{"foo.ba", 6, Span{4, 6, "ba"}, true},
		{"foo.", 4, Span{4, 4, ""}, true},
		{"x", 5, Span{}, false},
	})
}

func TestImportLocators(t *testing.T) {
	runLocatorCases(t, "CurrentImport", CurrentImport, []locatorCase{
		{"import os.pa", 12, Span{7, 12, "os.pa"}, true},
		{"import os, sy", 13, Span{11, 13, "sy"}, true},
		{"x = 1", 5, Span{}, false},
	})
	runLocatorCases(t, "CurrentFromImportImport", CurrentFromImportImport, []locatorCase{
		{"from os import pa", 17, Span{15, 17, "pa"}, true},
		{"from os", 7, Span{}, false},
	})
	runLocatorCases(t, "CurrentFromImportFrom", CurrentFromImportFrom, []locatorCase{
		{"from os import pa", 17, Span{5, 7, "os"}, true},
		{"from o", 6, Span{5, 6, "o"}, true},
		{"x = 1", 5, Span{}, false},
	})
}

package lithp

import (
	"errors"
	"strings"
	"testing"
)

func mustParse(t *testing.T, input string) *AST {
	t.Helper()
	n, err := Parse(input)
	if err != nil {
		t.Fatalf("parse %q: %v", input, err)
	}
	return n
}

func TestParseRootAnchors(t *testing.T) {
	n := mustParse(t, "+ 1 2")
	if n.Tag != TagRoot {
		t.Fatalf("expected root tag, got %q", n.Tag)
	}
	if len(n.Children) != 5 {
		t.Fatalf("expected 5 children, got %d:\n%s", len(n.Children), n)
	}
	first, last := n.Children[0], n.Children[len(n.Children)-1]
	if first.Tag != TagRegex || last.Tag != TagRegex {
		t.Fatalf("expected regex anchors, got %q and %q", first.Tag, last.Tag)
	}
}

func TestParseNumber(t *testing.T) {
	for _, input := range []string{"42", "-7", "0", "007"} {
		n := mustParse(t, input)
		leaf := n.Children[1]
		if leaf.Tag != TagNumber || leaf.Contents != input {
			t.Fatalf("%q: expected number leaf, got %s %q", input, leaf.Tag, leaf.Contents)
		}
	}
}

func TestParseSymbol(t *testing.T) {
	for _, input := range []string{"+", "-", "*", "/", "add", "<=", "x1", "-a", "a-1"} {
		n := mustParse(t, input)
		leaf := n.Children[1]
		if leaf.Tag != TagSymbol || leaf.Contents != input {
			t.Fatalf("%q: expected symbol leaf, got %s %q", input, leaf.Tag, leaf.Contents)
		}
	}
}

func TestParseNumberBeforeSymbol(t *testing.T) {
	for _, tc := range []struct {
		input string
		tags  []string
		atoms []string
	}{
		{"1-2", []string{TagNumber, TagNumber}, []string{"1", "-2"}},
		{"12abc", []string{TagNumber, TagSymbol}, []string{"12", "abc"}},
		{"1+", []string{TagNumber, TagSymbol}, []string{"1", "+"}},
		{"-5x", []string{TagNumber, TagSymbol}, []string{"-5", "x"}},
		{"--1", []string{TagSymbol}, []string{"--1"}},
	} {
		n := mustParse(t, tc.input)
		leaves := n.Children[1 : len(n.Children)-1]
		if len(leaves) != len(tc.atoms) {
			t.Fatalf("%q: expected %d atoms, got %d:\n%s", tc.input, len(tc.atoms), len(leaves), n)
		}
		for i, leaf := range leaves {
			if leaf.Tag != tc.tags[i] || leaf.Contents != tc.atoms[i] {
				t.Fatalf("%q: atom %d: expected %s %q, got %s %q", tc.input, i, tc.tags[i], tc.atoms[i], leaf.Tag, leaf.Contents)
			}
		}
	}
	if pos := mustParse(t, "12abc").Children[2].Pos; pos.Col != 3 {
		t.Fatalf("expected second atom at column 3, got %d", pos.Col)
	}
}

func TestParseSExpr(t *testing.T) {
	n := mustParse(t, "(* 2 (+ 1 1))")
	list := n.Children[1]
	if list.Tag != TagSExpr {
		t.Fatalf("expected sexpr, got %q", list.Tag)
	}
	// ( * 2 (...) )
	if len(list.Children) != 5 {
		t.Fatalf("expected 5 children, got %d:\n%s", len(list.Children), n)
	}
	if list.Children[0].Tag != TagChar || list.Children[0].Contents != "(" {
		t.Fatalf("expected '(' first, got %s %q", list.Children[0].Tag, list.Children[0].Contents)
	}
	if list.Children[4].Tag != TagChar || list.Children[4].Contents != ")" {
		t.Fatalf("expected ')' last, got %s %q", list.Children[4].Tag, list.Children[4].Contents)
	}
	if list.Children[3].Tag != TagSExpr {
		t.Fatalf("expected nested sexpr, got %q", list.Children[3].Tag)
	}
}

func TestParseEmptyList(t *testing.T) {
	n := mustParse(t, "()")
	list := n.Children[1]
	if list.Tag != TagSExpr || len(list.Children) != 2 {
		t.Fatalf("expected empty sexpr, got:\n%s", n)
	}
}

func TestParseEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   ", "; only a comment\n"} {
		n := mustParse(t, input)
		if len(n.Children) != 2 {
			t.Fatalf("%q: expected only anchors, got:\n%s", input, n)
		}
	}
}

func TestParseComments(t *testing.T) {
	n := mustParse(t, "+ 1 ; one\n  2 ; two")
	if len(n.Children) != 5 {
		t.Fatalf("expected 5 children, got:\n%s", n)
	}
}

func TestParsePositions(t *testing.T) {
	n := mustParse(t, "+ 1\n  (- 2)")
	list := n.Children[3]
	if list.Pos != (Pos{Line: 2, Col: 3}) {
		t.Fatalf("expected list at 2:3, got %d:%d", list.Pos.Line, list.Pos.Col)
	}
	two := list.Children[2]
	if two.Contents != "2" || two.Pos != (Pos{Line: 2, Col: 6}) {
		t.Fatalf("expected '2' at 2:6, got %q at %d:%d", two.Contents, two.Pos.Line, two.Pos.Col)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input      string
		incomplete bool
		msg        string
	}{
		{"(+ 1", true, "unclosed list"},
		{"(+ (1 2)", true, "unclosed list"},
		{")", false, "unexpected ')'"},
		{"+ 1 )", false, "unexpected ')'"},
		{"+ 1 #", false, "unexpected character '#'"},
		{`"str"`, false, "unexpected character"},
	}
	for _, tc := range tests {
		_, err := Parse(tc.input)
		if err == nil {
			t.Fatalf("%q: expected error", tc.input)
		}
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("%q: expected *ParseError, got %T", tc.input, err)
		}
		if pe.Incomplete != tc.incomplete || IsIncomplete(err) != tc.incomplete {
			t.Fatalf("%q: expected incomplete=%v, got %v", tc.input, tc.incomplete, pe.Incomplete)
		}
		if !strings.Contains(pe.Msg, tc.msg) {
			t.Fatalf("%q: expected message containing %q, got %q", tc.input, tc.msg, pe.Msg)
		}
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, err := Parse("+ 1\n 2 )")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if pe.Line != 2 || pe.Col != 4 {
		t.Fatalf("expected 2:4, got %d:%d", pe.Line, pe.Col)
	}
	if got := pe.Error(); got != "parse error at 2:4: unexpected ')'" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestIsIncompleteOtherErrors(t *testing.T) {
	if IsIncomplete(nil) {
		t.Fatal("nil is not incomplete")
	}
	if IsIncomplete(errors.New("x")) {
		t.Fatal("plain error is not incomplete")
	}
}

func TestFormatParseError(t *testing.T) {
	src := "+ 1\n 2 )"
	_, err := Parse(src)
	out := FormatParseError(err, src)
	want := "parse error at 2:4: unexpected ')'\n" +
		"   1 | + 1\n" +
		"   2 |  2 )\n" +
		"     |    ^\n"
	if out != want {
		t.Fatalf("unexpected snippet:\n%s\nwant:\n%s", out, want)
	}

	if got := FormatParseError(errors.New("plain"), src); got != "plain" {
		t.Fatalf("expected plain error text, got %q", got)
	}
}

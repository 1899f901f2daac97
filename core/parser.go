package lithp

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Node tags produced by Parse. Tags are composed with '|' the way a
// combinator parser folds rule names, so the reader matches on substrings.
const (
	TagRoot   = ">"
	TagRegex  = "regex"
	TagChar   = "char"
	TagNumber = "expr|number|regex"
	TagSymbol = "expr|symbol|regex"
	TagSExpr  = "expr|sexpr|>"
)

// Pos is a 1-based source position.
type Pos struct {
	Line int
	Col  int
}

// AST is a generic parse tree node. Leaves carry Contents, inner nodes carry
// Children.
type AST struct {
	Tag      string
	Contents string
	Pos      Pos
	Children []*AST
}

func (a *AST) String() string {
	var b strings.Builder
	a.dump(&b, 0)
	return b.String()
}

func (a *AST) dump(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	if len(a.Children) == 0 {
		fmt.Fprintf(b, "%s:%d:%d '%s'\n", a.Tag, a.Pos.Line, a.Pos.Col, a.Contents)
		return
	}
	fmt.Fprintf(b, "%s\n", a.Tag)
	for _, c := range a.Children {
		c.dump(b, depth+1)
	}
}

// ParseError reports input the grammar rejects. Incomplete is set when the
// input ended inside an open list, so more lines could complete it.
type ParseError struct {
	Line       int
	Col        int
	Msg        string
	Incomplete bool
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// IsIncomplete reports whether err is a ParseError caused by unclosed input.
func IsIncomplete(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe) && pe.Incomplete
}

type parser struct {
	input []rune
	pos   int
	line  int
	col   int
}

// Parse runs the grammar
//
//	number : /-?[0-9]+/ ;
//	symbol : /[a-zA-Z0-9_+\-*\/\\=<>!&]+/ ;
//	sexpr  : '(' <expr>* ')' ;
//	expr   : <number> | <symbol> | <sexpr> ;
//	lispy  : /^/ <expr>* /$/ ;
//
// over input and returns the root node of the tree.
func Parse(input string) (*AST, error) {
	p := &parser{input: []rune(input), line: 1, col: 1}
	root := &AST{Tag: TagRoot, Pos: p.here()}
	root.Children = append(root.Children, &AST{Tag: TagRegex, Pos: p.here()})
	for {
		p.skipWhitespace()
		if p.eof() {
			break
		}
		node, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		root.Children = append(root.Children, node)
	}
	root.Children = append(root.Children, &AST{Tag: TagRegex, Pos: p.here()})
	return root, nil
}

func (p *parser) parseExpr() (*AST, error) {
	ch := p.input[p.pos]
	switch {
	case ch == '(':
		return p.parseSExpr()
	case ch == ')':
		return nil, p.errorf(false, "unexpected ')'")
	case isSymbolRune(ch):
		return p.parseAtom(), nil
	default:
		return nil, p.errorf(false, "unexpected character '%c', expected number, symbol or '('", ch)
	}
}

func (p *parser) parseSExpr() (*AST, error) {
	node := &AST{Tag: TagSExpr, Pos: p.here()}
	node.Children = append(node.Children, &AST{Tag: TagChar, Contents: "(", Pos: p.here()})
	p.advance()
	for {
		p.skipWhitespace()
		if p.eof() {
			return nil, p.errorf(true, "unclosed list opened at %d:%d", node.Pos.Line, node.Pos.Col)
		}
		if p.input[p.pos] == ')' {
			node.Children = append(node.Children, &AST{Tag: TagChar, Contents: ")", Pos: p.here()})
			p.advance()
			return node, nil
		}
		child, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}
}

// parseAtom tries number before symbol: a leading /-?[0-9]+/ is a number
// even when symbol characters follow it, so "12abc" is two atoms.
func (p *parser) parseAtom() *AST {
	pos := p.here()
	start := p.pos
	if n := numberPrefix(p.input[p.pos:]); n > 0 {
		for range n {
			p.advance()
		}
		return &AST{Tag: TagNumber, Contents: string(p.input[start:p.pos]), Pos: pos}
	}
	for !p.eof() && isSymbolRune(p.input[p.pos]) {
		p.advance()
	}
	return &AST{Tag: TagSymbol, Contents: string(p.input[start:p.pos]), Pos: pos}
}

func (p *parser) skipWhitespace() {
	for !p.eof() {
		ch := p.input[p.pos]
		if ch == ';' {
			for !p.eof() && p.input[p.pos] != '\n' {
				p.advance()
			}
			continue
		}
		if !unicode.IsSpace(ch) {
			break
		}
		p.advance()
	}
}

func (p *parser) advance() {
	if p.input[p.pos] == '\n' {
		p.line++
		p.col = 1
	} else {
		p.col++
	}
	p.pos++
}

func (p *parser) eof() bool { return p.pos >= len(p.input) }

func (p *parser) here() Pos { return Pos{Line: p.line, Col: p.col} }

func (p *parser) errorf(incomplete bool, format string, args ...any) error {
	return &ParseError{Line: p.line, Col: p.col, Msg: fmt.Sprintf(format, args...), Incomplete: incomplete}
}

func isSymbolRune(ch rune) bool {
	if ch < unicode.MaxASCII && (unicode.IsLetter(ch) || unicode.IsDigit(ch)) {
		return true
	}
	return strings.ContainsRune(`_+-*/\=<>!&`, ch)
}

// numberPrefix returns the length of the /-?[0-9]+/ match at the start of
// in, or 0 if there is none.
func numberPrefix(in []rune) int {
	i := 0
	if i < len(in) && in[i] == '-' {
		i++
	}
	j := i
	for j < len(in) && in[j] >= '0' && in[j] <= '9' {
		j++
	}
	if j == i {
		return 0
	}
	return j
}

// FormatParseError renders err with the offending source line and a caret
// under the column. Errors other than *ParseError are returned as text.
func FormatParseError(err error, src string) string {
	var pe *ParseError
	if !errors.As(err, &pe) {
		return err.Error()
	}
	lines := strings.Split(src, "\n")
	line := min(max(pe.Line, 1), len(lines))
	col := max(pe.Col, 1)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", pe.Error())
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lines[line-1])
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", col-1))
	return b.String()
}

package lithp

import (
	"fmt"
	"strconv"
	"strings"
)

// ReadError reports a parse tree node that matches no grammar rule the
// reader knows about. It signals a bug in the parser, not bad user input.
type ReadError struct {
	Tag string
	Pos Pos
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read: unrecognized node %q at %d:%d", e.Tag, e.Pos.Line, e.Pos.Col)
}

// Read converts a parse tree into a Value tree.
func Read(t *AST) (Value, error) {
	switch {
	case strings.Contains(t.Tag, "number"):
		return readNumber(t.Contents), nil
	case strings.Contains(t.Tag, "symbol"):
		return Symbol(t.Contents), nil
	case t.Tag == TagRoot || strings.Contains(t.Tag, "sexpr"):
		return readSExpr(t)
	default:
		return nil, &ReadError{Tag: t.Tag, Pos: t.Pos}
	}
}

func readNumber(s string) Value {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Err(MsgInvalidNumber)
	}
	return Number(n)
}

func readSExpr(t *AST) (Value, error) {
	x := &SExpr{}
	for _, child := range t.Children {
		if child.Contents == "(" || child.Contents == ")" {
			continue
		}
		if child.Tag == TagRegex {
			continue
		}
		v, err := Read(child)
		if err != nil {
			return nil, err
		}
		x.Add(v)
	}
	return x, nil
}

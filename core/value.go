package lithp

import (
	"fmt"
	"slices"
)

// ValueKind identifies which variant a Value holds.
type ValueKind int

const (
	ValNumber ValueKind = iota
	ValError
	ValSymbol
	ValSExpr
)

func (k ValueKind) String() string {
	switch k {
	case ValNumber:
		return "Number"
	case ValError:
		return "Error"
	case ValSymbol:
		return "Symbol"
	case ValSExpr:
		return "SExpr"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
}

// Value is a single runtime datum. The set of implementations is closed:
// Number, Error, Symbol and *SExpr.
type Value interface {
	Kind() ValueKind
	String() string
	value()
}

// Number is a signed 64-bit integer. Arithmetic on it wraps around.
type Number int64

// Error is an inert, contagious result. Once produced it is never evaluated
// or operated on, only propagated.
type Error struct {
	Msg string
}

// Symbol names an operator when it heads an S-expression.
type Symbol string

// SExpr is an ordered list of child values. It owns its children: a child is
// never shared with another list.
type SExpr struct {
	cells []Value
}

// Kind reports the variant of the value.
func (Number) Kind() ValueKind { return ValNumber }
func (Error) Kind() ValueKind  { return ValError }
func (Symbol) Kind() ValueKind { return ValSymbol }
func (*SExpr) Kind() ValueKind { return ValSExpr }

func (Number) value() {}
func (Error) value()  {}
func (Symbol) value() {}
func (*SExpr) value() {}

func (n Number) String() string { return Print(n) }
func (e Error) String() string  { return Print(e) }
func (s Symbol) String() string { return Print(s) }
func (s *SExpr) String() string { return Print(s) }

// Num returns n as a Number.
func Num(n int64) Value { return Number(n) }

// Err returns an Error carrying msg.
func Err(msg string) Value { return Error{Msg: msg} }

// Sym returns a Symbol named name.
func Sym(name string) Value { return Symbol(name) }

// List returns an S-expression holding a copy of vs.
func List(vs ...Value) *SExpr { return &SExpr{cells: slices.Clone(vs)} }

// Error messages produced by the evaluator and the built-ins.
const (
	MsgInvalidNumber = "invalid number"
	MsgNonNumber     = "Cannot operate on non-number!"
	MsgDivByZero     = "Division By Zero!"
	MsgBadHead       = "S-expression Does not start with symbol!"
	MsgNoOperands    = "No operands supplied!"
)

// Len returns the number of children.
func (s *SExpr) Len() int { return len(s.cells) }

// Children returns the list's children. The caller must not modify the
// returned slice.
func (s *SExpr) Children() []Value { return s.cells }

// Add appends v and returns s so calls can be chained.
func (s *SExpr) Add(v Value) *SExpr {
	s.cells = append(s.cells, v)
	return s
}

// Pop removes child i, shifting the following children left.
func (s *SExpr) Pop(i int) Value {
	v := s.cells[i]
	s.cells = slices.Delete(s.cells, i, i+1)
	return v
}

// Take returns child i and empties the list.
func (s *SExpr) Take(i int) Value {
	v := s.Pop(i)
	s.cells = nil
	return v
}

// ValuesEqual compares two Values for deep equality.
func ValuesEqual(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Number:
		return av == b.(Number)
	case Error:
		return av.Msg == b.(Error).Msg
	case Symbol:
		return av == b.(Symbol)
	case *SExpr:
		bv := b.(*SExpr)
		if av.Len() != bv.Len() {
			return false
		}
		for i := range av.cells {
			if !ValuesEqual(av.cells[i], bv.cells[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// IsError reports whether v is an Error value.
func IsError(v Value) bool {
	_, ok := v.(Error)
	return ok
}

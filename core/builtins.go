package lithp

import "fmt"

// Builtin is an operator implemented in Go. It receives already evaluated
// operands and returns a Number or an Error.
type Builtin func(operands []Value) Value

// Op is one of the arithmetic operators.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
)

var opNames = [...]string{
	OpAdd: "+",
	OpSub: "-",
	OpMul: "*",
	OpDiv: "/",
}

func (op Op) String() string {
	if op < 0 || int(op) >= len(opNames) {
		return fmt.Sprintf("Op(%d)", int(op))
	}
	return opNames[op]
}

// LookupOp maps an operator symbol to its Op.
func LookupOp(name string) (Op, bool) {
	for op, s := range opNames {
		if s == name {
			return Op(op), true
		}
	}
	return 0, false
}

func unknownOperator(name string) Value {
	return Err(fmt.Sprintf("Unknown operator '%s'!", name))
}

// DefaultBuiltins returns the operator table: + - * /.
func DefaultBuiltins() map[string]Builtin {
	m := make(map[string]Builtin, len(opNames))
	for i, name := range opNames {
		op := Op(i)
		m[name] = func(operands []Value) Value { return op.Apply(operands) }
	}
	return m
}

// Apply applies the operator named op to operands.
func Apply(op string, operands []Value) Value {
	o, ok := LookupOp(op)
	if !ok {
		return unknownOperator(op)
	}
	return o.Apply(operands)
}

// Apply folds operands left to right with op. All operands must be
// numbers. A single operand to '-' is negated. Division truncates toward
// zero and a zero divisor fails the whole call.
func (op Op) Apply(operands []Value) Value {
	if op < 0 || int(op) >= len(opNames) {
		return unknownOperator(op.String())
	}
	nums := make([]Number, len(operands))
	for i, v := range operands {
		n, ok := v.(Number)
		if !ok {
			return Err(MsgNonNumber)
		}
		nums[i] = n
	}
	if len(nums) == 0 {
		return Err(MsgNoOperands)
	}

	acc := nums[0]
	if op == OpSub && len(nums) == 1 {
		return -acc
	}
	for _, y := range nums[1:] {
		switch op {
		case OpAdd:
			acc += y
		case OpSub:
			acc -= y
		case OpMul:
			acc *= y
		case OpDiv:
			if y == 0 {
				return Err(MsgDivByZero)
			}
			acc /= y
		default:
			return unknownOperator(op.String())
		}
	}
	return acc
}

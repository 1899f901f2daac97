package lithp

// Evaluator reduces Values to normal form.
type Evaluator struct {
	// Builtins maps operator symbols to their implementations. A nil map
	// means DefaultBuiltins.
	Builtins map[string]Builtin
}

// NewEvaluator returns an evaluator with the default operator table.
func NewEvaluator() *Evaluator {
	return &Evaluator{Builtins: DefaultBuiltins()}
}

var defaultEvaluator = NewEvaluator()

// Eval evaluates v with the default operator table.
func Eval(v Value) Value {
	return defaultEvaluator.Eval(v)
}

// Eval reduces v. Numbers, errors and symbols are returned unchanged;
// S-expressions are evaluated child by child and then applied.
func (e *Evaluator) Eval(v Value) Value {
	if x, ok := v.(*SExpr); ok {
		return e.evalSExpr(x)
	}
	return v
}

// evalSExpr never modifies x; the reduced children go into a fresh list.
func (e *Evaluator) evalSExpr(x *SExpr) Value {
	cells := &SExpr{cells: make([]Value, 0, x.Len())}
	for _, child := range x.cells {
		v := e.Eval(child)
		if IsError(v) {
			return v
		}
		cells.Add(v)
	}

	switch cells.Len() {
	case 0:
		return cells
	case 1:
		return cells.Take(0)
	}

	head, ok := cells.Pop(0).(Symbol)
	if !ok {
		return Err(MsgBadHead)
	}
	return e.call(string(head), cells.Children())
}

func (e *Evaluator) call(name string, operands []Value) Value {
	builtins := e.Builtins
	if builtins == nil {
		builtins = defaultEvaluator.Builtins
	}
	fn, ok := builtins[name]
	if !ok {
		return unknownOperator(name)
	}
	return fn(operands)
}

// EvalString parses, reads and evaluates input. The error result is reserved
// for parse failures and reader faults; evaluation failures come back as
// Error values.
func (e *Evaluator) EvalString(input string) (Value, error) {
	tree, err := Parse(input)
	if err != nil {
		return nil, err
	}
	v, err := Read(tree)
	if err != nil {
		return nil, err
	}
	return e.Eval(v), nil
}

package lithp

import (
	"context"
	"time"
)

// Trace captures one read-eval-print round: the input text, the printed
// result and whether that result was an Error value.
type Trace struct {
	Input     string
	Output    string
	IsError   bool
	Timestamp time.Time
	Duration  time.Duration
}

// TraceSink receives traces after each evaluation, e.g. to persist them.
type TraceSink interface {
	Record(ctx context.Context, t Trace) error
}

// Run parses, reads, evaluates and prints input, returning both the result
// and its trace. Parse failures are returned as errors and produce no trace.
func (e *Evaluator) Run(input string) (Value, Trace, error) {
	start := time.Now()
	v, err := e.EvalString(input)
	if err != nil {
		return nil, Trace{}, err
	}
	return v, Trace{
		Input:     input,
		Output:    Print(v),
		IsError:   IsError(v),
		Timestamp: start.UTC(),
		Duration:  time.Since(start),
	}, nil
}

// ToGo converts a Trace to a JSON-friendly map.
func (t Trace) ToGo() map[string]any {
	return map[string]any{
		"input":       t.Input,
		"output":      t.Output,
		"error":       t.IsError,
		"timestamp":   t.Timestamp.Format(time.RFC3339Nano),
		"duration_ns": t.Duration.Nanoseconds(),
	}
}

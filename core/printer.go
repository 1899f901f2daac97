package lithp

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Print renders v as text.
func Print(v Value) string {
	var b strings.Builder
	writeValue(&b, v)
	return b.String()
}

// Fprint writes the rendering of v to w.
func Fprint(w io.Writer, v Value) error {
	_, err := io.WriteString(w, Print(v))
	return err
}

// Fprintln writes the rendering of v followed by a newline.
func Fprintln(w io.Writer, v Value) error {
	_, err := io.WriteString(w, Print(v)+"\n")
	return err
}

func writeValue(b *strings.Builder, v Value) {
	switch x := v.(type) {
	case Number:
		b.WriteString(strconv.FormatInt(int64(x), 10))
	case Error:
		b.WriteString("Error: ")
		b.WriteString(x.Msg)
	case Symbol:
		b.WriteString(string(x))
	case *SExpr:
		b.WriteByte('(')
		for i, c := range x.cells {
			if i > 0 {
				b.WriteByte(' ')
			}
			writeValue(b, c)
		}
		b.WriteByte(')')
	case nil:
		b.WriteString("<nil>")
	default:
		fmt.Fprintf(b, "<unknown:%T>", v)
	}
}

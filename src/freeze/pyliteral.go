package freeze

import (
	"fmt"
	"sort"
	"strings"
)

var pyEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`, "\t", `\t`)

// pyExpr is emitted verbatim by pyLiteral.
type pyExpr string

// pyString renders s as a single-quoted Python string literal.
func pyString(s string) string {
	return "'" + pyEscaper.Replace(s) + "'"
}

func pyStringList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = pyString(s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// pyLiteral renders strings, bools, ints, slices and string-keyed maps as a
// Python literal. Map keys are sorted so output is deterministic. depth is
// the indentation level of the enclosing expression.
func pyLiteral(v any, depth int) string {
	indent := strings.Repeat("    ", depth)
	inner := indent + "    "

	switch x := v.(type) {
	case pyExpr:
		return string(x)
	case string:
		return pyString(x)
	case bool:
		return pyBool(x)
	case int:
		return fmt.Sprintf("%d", x)
	case []string:
		return pyStringList(x)
	case []any:
		if len(x) == 0 {
			return "[]"
		}
		var b strings.Builder
		b.WriteString("[\n")
		for _, item := range x {
			b.WriteString(inner + pyLiteral(item, depth+1) + ",\n")
		}
		b.WriteString(indent + "]")
		return b.String()
	case map[string]any:
		if len(x) == 0 {
			return "{}"
		}
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteString("{\n")
		for _, k := range keys {
			b.WriteString(inner + pyString(k) + ": " + pyLiteral(x[k], depth+1) + ",\n")
		}
		b.WriteString(indent + "}")
		return b.String()
	case nil:
		return "None"
	}
	return pyString(fmt.Sprint(v))
}

// Package extract evaluates JSONPath-ish expressions against a response
// body and merges the resulting scalars into a worker's variable map.
// Extraction is a convenience, not a correctness gate: failures are
// warnings, never step failures.
package extract

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/vanguard-load/vanguard/internal/logging"
)

// Rules is a compiled set of variable-name -> gjson-path extraction rules,
// translated once from the spec's bracket grammar ($, .field, ["field"],
// [index]) at config-compile time.
type Rules struct {
	paths map[string]string // variable name -> gjson path
}

// Compile translates a map of variable name -> JSONPath expression into a
// Rules set ready for repeated Apply calls.
func Compile(exprs map[string]string) Rules {
	paths := make(map[string]string, len(exprs))
	for name, expr := range exprs {
		paths[name] = compilePath(expr)
	}
	return Rules{paths: paths}
}

// compilePath rewrites the spec's bracket grammar into gjson's dot/index
// path syntax: "$.data.users[0][\"id\"]" -> "data.users.0.id".
func compilePath(expr string) string {
	expr = strings.TrimSpace(expr)
	expr = strings.TrimPrefix(expr, "$")

	var out strings.Builder
	i := 0
	for i < len(expr) {
		switch expr[i] {
		case '.':
			if out.Len() > 0 {
				out.WriteByte('.')
			}
			i++
		case '[':
			end := strings.IndexByte(expr[i:], ']')
			if end == -1 {
				// Unterminated bracket: copy the rest verbatim and stop.
				out.WriteString(expr[i:])
				i = len(expr)
				break
			}
			inner := strings.TrimSpace(expr[i+1 : i+end])
			inner = strings.Trim(inner, `"'`)
			if out.Len() > 0 {
				out.WriteByte('.')
			}
			out.WriteString(inner)
			i += end + 1
		default:
			// Plain field-name run up to the next '.' or '['.
			j := i
			for j < len(expr) && expr[j] != '.' && expr[j] != '[' {
				j++
			}
			if out.Len() > 0 && i > 0 && expr[i-1] != '.' && expr[i-1] != ']' {
				out.WriteByte('.')
			}
			out.WriteString(expr[i:j])
			i = j
		}
	}
	return out.String()
}

// Apply evaluates every compiled rule against body and merges resolved
// scalars into vars (later rules overwrite earlier ones on key collision).
// If body is not valid JSON, every extraction is skipped with a single
// warning. Each individual rule that yields zero, multiple, or a
// non-scalar result is skipped with its own warning; the caller's step is
// never failed by this function.
func Apply(rules Rules, body []byte, vars map[string]string) {
	if len(rules.paths) == 0 {
		return
	}
	if !gjson.ValidBytes(body) {
		logging.Warn("extract: response body is not valid JSON, skipping all extractions")
		return
	}
	for name, path := range rules.paths {
		result := gjson.GetBytes(body, path)
		val, ok := scalarString(result)
		if !ok {
			logging.Warn("extract: path produced no usable scalar", "variable", name, "path", path)
			continue
		}
		vars[name] = val
	}
}

// scalarString returns the string form of a single scalar gjson result.
// Numbers use their shortest decimal representation (gjson's .Raw/.String
// already does this for us); booleans render as true/false. Objects,
// arrays, and absent results are rejected.
func scalarString(r gjson.Result) (string, bool) {
	switch r.Type {
	case gjson.String, gjson.Number, gjson.True, gjson.False:
		return r.String(), true
	default:
		return "", false
	}
}

// Package interpolate substitutes {{name}} placeholders in template strings
// against a per-worker variable map. Parsing happens once per template
// string (at config-compile time); only substitution runs per request.
package interpolate

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lucasjones/reggen"
)

// regexGenPattern is the pattern used by the "regex_gen" builtin. The
// teacher's {{regex_gen:pattern}} call syntax took the pattern as an
// argument, but this grammar's placeholders are bare identifiers
// ([A-Za-z_][A-Za-z0-9_]*, no arguments), so regex_gen is fixed to one
// pattern rather than caller-supplied.
const regexGenPattern = "[a-zA-Z0-9]{8}"

// TemplateError reports the first unresolved placeholder encountered while
// executing a compiled template. It is a recoverable, per-request error:
// the request fails with this as its cause, and the placeholder text is
// preserved in the message.
type TemplateError struct {
	Placeholder string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("unresolved template variable: {{%s}}", e.Placeholder)
}

func isNameByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

func isNameStartByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isValidName(s string) bool {
	if s == "" || !isNameStartByte(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isNameByte(s[i]) {
			return false
		}
	}
	return true
}

// part is either a static literal or a variable reference. ref is only
// meaningful when isLiteral is false.
type part struct {
	isLiteral bool
	literal   string
	ref       string
}

// Template is a pre-parsed template string, ready for fast per-request
// execution. Compile it once; call Execute on every request.
type Template struct {
	parts   []part
	hasVars bool
}

// Compile parses a template string into static literal and variable-
// reference parts. {{ and }} pairs whose inner content (after trimming
// whitespace) is not a valid [A-Za-z_][A-Za-z0-9_]* identifier are treated
// as literal text, per the grammar in the spec. Unterminated "{{" is also
// literal. Nested/recursive substitution is never performed: one pass only.
func Compile(input string) *Template {
	if strings.IndexByte(input, '{') == -1 || !strings.Contains(input, "{{") {
		return &Template{parts: []part{{isLiteral: true, literal: input}}}
	}

	t := &Template{hasVars: true}
	remaining := input
	for {
		start := strings.Index(remaining, "{{")
		if start == -1 {
			if remaining != "" {
				t.parts = append(t.parts, part{isLiteral: true, literal: remaining})
			}
			break
		}
		if start > 0 {
			t.parts = append(t.parts, part{isLiteral: true, literal: remaining[:start]})
		}
		afterOpen := remaining[start+2:]
		end := strings.Index(afterOpen, "}}")
		if end == -1 {
			t.parts = append(t.parts, part{isLiteral: true, literal: remaining[start:]})
			break
		}
		ref := strings.TrimSpace(afterOpen[:end])
		if isValidName(ref) {
			t.parts = append(t.parts, part{isLiteral: false, ref: ref})
		} else {
			// Malformed reference (e.g. "{{{" or punctuation inside) is literal.
			t.parts = append(t.parts, part{isLiteral: true, literal: remaining[start : start+2+end+2]})
		}
		remaining = afterOpen[end+2:]
	}
	return t
}

// Execute renders the compiled template against vars, returning a
// TemplateError naming the first placeholder that resolves to nothing —
// neither a worker variable nor a builtin generator.
func Execute(t *Template, vars map[string]string) (string, error) {
	if !t.hasVars {
		if len(t.parts) == 0 {
			return "", nil
		}
		return t.parts[0].literal, nil
	}

	var sb strings.Builder
	for i := range t.parts {
		p := &t.parts[i]
		if p.isLiteral {
			sb.WriteString(p.literal)
			continue
		}
		if val, ok := vars[p.ref]; ok {
			sb.WriteString(val)
			continue
		}
		if val, ok := builtin(p.ref); ok {
			sb.WriteString(val)
			continue
		}
		return "", &TemplateError{Placeholder: p.ref}
	}
	return sb.String(), nil
}

// builtin resolves a small set of dynamic generator names that act as
// always-available variables when the caller's map doesn't define them.
// These are plain identifiers — the same grammar as user variables — so
// they never change the placeholder syntax.
func builtin(name string) (string, bool) {
	switch name {
	case "uuid":
		return uuid.New().String(), true
	case "timestamp":
		return strconv.FormatInt(time.Now().Unix(), 10), true
	case "timestamp_ms":
		return strconv.FormatInt(time.Now().UnixMilli(), 10), true
	case "random_int":
		return strconv.Itoa(rand.IntN(100000)), true
	case "regex_gen":
		s, err := reggen.Generate(regexGenPattern, 10)
		if err != nil {
			return "", false
		}
		return s, true
	}
	return "", false
}

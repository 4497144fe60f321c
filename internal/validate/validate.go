// Package validate runs optional response-body assertions as a supplemental
// pass/fail check layered on top of (never overriding) the 2xx/3xx success
// classification. Grounded on internal/validator/assertions.go.
package validate

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/vanguard-load/vanguard/pkg/model"
)

// compiled is one assertion with its regex pre-parsed at compile time, so
// no pattern is compiled on the request path.
type compiled struct {
	model.Assertion
	regex *regexp.Regexp
}

// Set is a pre-compiled list of assertions ready for repeated Check calls.
type Set struct {
	assertions []compiled
}

// Compile pre-parses every regex assertion once. Returns an error naming
// the first invalid pattern.
func Compile(assertions []model.Assertion) (Set, error) {
	out := make([]compiled, len(assertions))
	for i, a := range assertions {
		c := compiled{Assertion: a}
		if a.Type == model.AssertRegex {
			re, err := regexp.Compile(a.Value)
			if err != nil {
				return Set{}, fmt.Errorf("invalid regex assertion %q: %w", a.Value, err)
			}
			c.regex = re
		}
		out[i] = c
	}
	return Set{assertions: out}, nil
}

// Failure reports the first assertion that did not hold.
type Failure struct {
	Type     model.AssertionType
	Path     string
	Expected string
	Actual   string
	Message  string
}

func (f *Failure) Error() string {
	if f.Message != "" {
		return f.Message
	}
	switch f.Type {
	case model.AssertContains:
		return fmt.Sprintf("assertion failed: response body does not contain %q", f.Expected)
	case model.AssertRegex:
		return fmt.Sprintf("assertion failed: response body does not match regex %q", f.Expected)
	case model.AssertJSONPath:
		if f.Expected != "" {
			return fmt.Sprintf("assertion failed: json path %q expected %q, got %q", f.Path, f.Expected, f.Actual)
		}
		return fmt.Sprintf("assertion failed: json path %q not found", f.Path)
	default:
		return fmt.Sprintf("assertion failed: %s", f.Expected)
	}
}

// Check evaluates every compiled assertion against body in order, returning
// the first failure. Empty sets always pass.
func (s Set) Check(body []byte) *Failure {
	for _, a := range s.assertions {
		var f *Failure
		switch a.Type {
		case model.AssertRegex:
			f = checkRegex(body, a)
		case model.AssertJSONPath:
			f = checkJSONPath(body, a)
		default:
			f = checkContains(body, a)
		}
		if f != nil {
			return f
		}
	}
	return nil
}

func checkContains(body []byte, a compiled) *Failure {
	if bytes.Contains(body, []byte(a.Value)) {
		return nil
	}
	return &Failure{Type: model.AssertContains, Expected: a.Value, Actual: truncate(body, 100), Message: a.Message}
}

func checkRegex(body []byte, a compiled) *Failure {
	if a.regex != nil && a.regex.Match(body) {
		return nil
	}
	return &Failure{Type: model.AssertRegex, Expected: a.Value, Actual: truncate(body, 100), Message: a.Message}
}

func checkJSONPath(body []byte, a compiled) *Failure {
	path := a.Path
	if path == "" {
		path = a.Value
	}
	result := gjson.GetBytes(body, path)
	if !result.Exists() {
		return &Failure{Type: model.AssertJSONPath, Path: path, Expected: a.Value, Message: a.Message}
	}
	if a.Value != "" && a.Path != "" {
		actual := strings.TrimSpace(result.String())
		expected := strings.TrimSpace(a.Value)
		if actual != expected {
			return &Failure{Type: model.AssertJSONPath, Path: path, Expected: expected, Actual: actual, Message: a.Message}
		}
	}
	return nil
}

func truncate(body []byte, max int) string {
	if len(body) <= max {
		return string(body)
	}
	return string(body[:max]) + "..."
}

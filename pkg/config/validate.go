package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ValidationError is one field-level configuration problem, with an
// optional "did you mean" hint for likely typos. Grounded on
// pkg/config/validator.go's ValidationError.
type ValidationError struct {
	Field   string
	Message string
	Hint    string
}

func (e ValidationError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s (did you mean %q?)", e.Field, e.Message, e.Hint)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationResult collects every error found in one pass, rather than
// failing on the first, so a user sees all problems at once.
type ValidationResult struct {
	Errors []ValidationError
}

func (r *ValidationResult) add(field, message string) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: message})
}

func (r *ValidationResult) addHint(field, message, hint string) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: message, Hint: hint})
}

// Valid reports whether the result carries no errors.
func (r *ValidationResult) Valid() bool { return r == nil || len(r.Errors) == 0 }

// Error satisfies the error interface so a *ValidationResult can be
// returned directly from Load.
func (r *ValidationResult) Error() string {
	lines := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		lines[i] = e.Error()
	}
	return strings.Join(lines, "; ")
}

var validMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "PATCH": true,
	"DELETE": true, "HEAD": true, "OPTIONS": true,
}

var validModes = map[string]bool{"async": true, "sync": true}

var validAssertionTypes = map[string]bool{"contains": true, "regex": true, "json_path": true}

// stopIfPattern mirrors internal/circuitbreaker's condition grammar, so a
// malformed stop_if is caught at load time rather than at run time.
var stopIfPattern = regexp.MustCompile(`(?i)^\s*(errors?|error_rate|failures?)\s*([><=]+)\s*([\d.]+)\s*(%)?\s*$`)

// templateRef matches one {{name}} reference.
var templateRef = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.]+)\s*\}\}`)

// builtinVars are always available regardless of what any step extracts,
// mirroring internal/interpolate's generator fallback.
var builtinVars = map[string]bool{"uuid": true, "timestamp": true, "timestamp_ms": true, "random_int": true, "regex_gen": true}

// templateRefs returns every distinct {{name}} reference found across a
// step's templated fields.
func templateRefs(t yamlTarget) []string {
	var all []string
	collect := func(s string) {
		for _, m := range templateRef.FindAllStringSubmatch(s, -1) {
			all = append(all, m[1])
		}
	}
	collect(t.URL)
	collect(t.Body)
	for _, v := range t.Headers {
		collect(v)
	}
	for _, p := range t.Multipart {
		collect(p.Value)
	}
	return all
}

// Validate checks one parsed document against every rule spec.md §6 names,
// collecting every violation rather than stopping at the first. Grounded on
// pkg/config/validator.go's ValidateHTTPMethod/FindClosestMatch pattern.
func Validate(doc yamlConfig) *ValidationResult {
	result := &ValidationResult{}

	if doc.Target.URL == "" && len(doc.Scenario) == 0 {
		result.add("target.url", "must be set (or provide a scenario)")
	}
	validateMethod(result, "target.method", doc.Target.Method)
	validateMultipart(result, "target", doc.Target.Multipart)

	topLevel := map[string]bool{}
	for _, d := range doc.Data {
		topLevel[d.Name] = true
	}
	for _, ref := range templateRefs(doc.Target) {
		if builtinVars[ref] {
			continue
		}
		if dot := strings.IndexByte(ref, '.'); dot > 0 && topLevel[ref[:dot]] {
			continue
		}
		result.add("target.template", fmt.Sprintf("{{%s}} is never produced by a data source", ref))
	}

	if doc.Load.Concurrency < 0 {
		result.add("load.concurrency", "must be positive")
	}
	if doc.Load.Duration != "" {
		if d, err := time.ParseDuration(doc.Load.Duration); err != nil {
			result.add("load.duration", "not a valid duration: "+err.Error())
		} else if d <= 0 {
			result.add("load.duration", "must be positive")
		}
	}
	if doc.Load.Mode != "" && !validModes[doc.Load.Mode] {
		hint := FindClosestMatch(doc.Load.Mode, keys(validModes))
		result.addHint("load.mode", fmt.Sprintf("unknown mode %q", doc.Load.Mode), hint)
	}
	if doc.Load.StopIf != "" && !stopIfPattern.MatchString(doc.Load.StopIf) {
		result.add("load.stop_if", fmt.Sprintf("cannot parse condition %q", doc.Load.StopIf))
	}

	names := make(map[string]bool, len(doc.Scenario))
	for _, s := range doc.Scenario {
		names[s.Name] = true
	}

	produced := map[string]bool{}
	for _, d := range doc.Data {
		produced[d.Name] = true // a data source's own namespace prefix, e.g. "users.email"
	}

	for i, s := range doc.Scenario {
		field := fmt.Sprintf("scenario[%d]", i)
		if s.Name == "" {
			result.add(field+".name", "must be set")
		}
		if s.URL == "" {
			result.add(field+".url", "must be set")
		}
		validateMethod(result, field+".method", s.Method)
		validateMultipart(result, field, s.Multipart)

		if s.DependsOn != "" && !names[s.DependsOn] {
			hint := FindClosestMatch(s.DependsOn, keys(names))
			result.addHint(field+".depends_on", fmt.Sprintf("no step named %q", s.DependsOn), hint)
		}

		for _, ref := range templateRefs(s.yamlTarget) {
			if builtinVars[ref] || produced[ref] {
				continue
			}
			if dot := strings.IndexByte(ref, '.'); dot > 0 && produced[ref[:dot]] {
				continue
			}
			result.add(field+".template", fmt.Sprintf("{{%s}} is never produced by an earlier step or data source", ref))
		}

		for v := range s.Extract {
			produced[v] = true
		}
		for _, a := range s.Assertions {
			if !validAssertionTypes[a.Type] {
				hint := FindClosestMatch(a.Type, keys(validAssertionTypes))
				result.addHint(field+".assertions.type", fmt.Sprintf("unknown assertion type %q", a.Type), hint)
			}
			if a.Type == "regex" {
				if _, err := regexp.Compile(a.Value); err != nil {
					result.add(field+".assertions.value", "invalid regex: "+err.Error())
				}
			}
		}
	}

	for _, d := range doc.Data {
		if d.Name == "" {
			result.add("data.name", "must be set")
		}
		if d.Path == "" {
			result.add("data.path", "must be set")
		}
	}

	if doc.Timeout != "" {
		if _, err := time.ParseDuration(doc.Timeout); err != nil {
			result.add("timeout", "not a valid duration: "+err.Error())
		}
	}

	return result
}

func validateMethod(result *ValidationResult, field, method string) {
	if method == "" {
		return
	}
	upper := strings.ToUpper(method)
	if !validMethods[upper] {
		hint := FindClosestMatch(upper, keys(validMethods))
		result.addHint(field, fmt.Sprintf("unknown HTTP method %q", method), hint)
	}
}

func validateMultipart(result *ValidationResult, field string, parts []yamlMultipart) {
	for _, p := range parts {
		if p.Field == "" {
			result.add(field+".multipart.field", "must be set")
		}
		if p.File != "" && strings.Contains(p.File, "..") {
			result.add(field+".multipart.file", fmt.Sprintf("path %q escapes the data directory", p.File))
		}
	}
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

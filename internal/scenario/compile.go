// Package scenario executes one pass of a Workload (Simple or Scenario) for
// a single worker: templating every request, invoking the HTTP client,
// extracting variables, and recording one Outcome per step.
package scenario

import (
	"github.com/vanguard-load/vanguard/internal/extract"
	"github.com/vanguard-load/vanguard/internal/interpolate"
	"github.com/vanguard-load/vanguard/internal/validate"
	"github.com/vanguard-load/vanguard/pkg/model"
)

// compiledHeader is a header whose value template is pre-parsed.
type compiledHeader struct {
	name  string
	value *interpolate.Template
}

// compiledPart is a multipart part whose templated field carries a
// pre-parsed template (file paths are never templated — they come straight
// from the validated config).
type compiledPart struct {
	fieldName string
	filePath  string
	value     *interpolate.Template
	isFile    bool
}

// compiledSpec pre-compiles every template in a RequestSpec once, when the
// Runner is built, so only substitution work remains per request.
type compiledSpec struct {
	method  string
	url     *interpolate.Template
	headers []compiledHeader
	kind    model.BodyKind
	raw     *interpolate.Template
	parts   []compiledPart
}

func compileSpec(spec model.RequestSpec) compiledSpec {
	cs := compiledSpec{
		method: spec.Method,
		url:    interpolate.Compile(spec.URL),
		kind:   spec.Kind,
	}
	for _, h := range spec.Headers {
		cs.headers = append(cs.headers, compiledHeader{name: h.Name, value: interpolate.Compile(h.Value)})
	}
	if spec.Kind == model.BodyRaw {
		cs.raw = interpolate.Compile(spec.Raw)
	}
	for _, p := range spec.Parts {
		cp := compiledPart{fieldName: p.FieldName, isFile: p.IsFile, filePath: p.FilePath}
		if !p.IsFile {
			cp.value = interpolate.Compile(p.Value)
		}
		cs.parts = append(cs.parts, cp)
	}
	return cs
}

// compiledStep is a ScenarioStep with its RequestSpec pre-compiled and its
// extraction rules pre-translated.
type compiledStep struct {
	name       string
	spec       compiledSpec
	dependsOn  string
	hasDep     bool
	extract    extract.Rules
	hasExtract bool
	asserts    validate.Set
	hasAsserts bool
}

// compileStep pre-compiles a step's extraction rules and assertions.
// The returned error is non-nil only when a regex assertion fails to compile; the
// config-validation layer surfaces it before a run ever starts.
func compileStep(step model.ScenarioStep) (compiledStep, error) {
	cs := compiledStep{
		name:      step.Name,
		spec:      compileSpec(step.Spec),
		dependsOn: step.DependsOn,
		hasDep:    step.DependsOn != "",
	}
	if len(step.Extract) > 0 {
		cs.extract = extract.Compile(step.Extract)
		cs.hasExtract = true
	}
	if len(step.Assertions) > 0 {
		set, err := validate.Compile(step.Assertions)
		if err != nil {
			return compiledStep{}, err
		}
		cs.asserts = set
		cs.hasAsserts = true
	}
	return cs, nil
}

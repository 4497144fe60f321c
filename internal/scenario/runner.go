package scenario

import (
	"context"
	"net/url"
	"time"

	"github.com/vanguard-load/vanguard/internal/extract"
	"github.com/vanguard-load/vanguard/internal/httpclient"
	"github.com/vanguard-load/vanguard/internal/interpolate"
	"github.com/vanguard-load/vanguard/pkg/model"
)

// Client is the subset of httpclient.Client the runner depends on, so
// tests can substitute a fake transport.
type Client interface {
	Do(ctx context.Context, spec httpclient.Realized, needBody bool) (*httpclient.Response, error)
}

// Runner executes one pass of a compiled Workload. Immutable after New
// returns, so a single Runner is safely shared read-only by every worker;
// each call to RunPass takes its own VariableMap, so concurrent passes
// never interact.
type Runner struct {
	client  Client
	baseURL *url.URL

	simple   *compiledStep  // set for Simple mode
	scenario []compiledStep // set for Scenario mode
}

// New builds a Runner for the given Workload. base, if non-empty, is
// joined against path-relative scenario step URLs.
func New(client Client, wl model.Workload) (*Runner, error) {
	r := &Runner{client: client}
	if wl.BaseURL != "" {
		u, err := url.Parse(wl.BaseURL)
		if err != nil {
			return nil, err
		}
		r.baseURL = u
	}

	switch wl.Kind {
	case model.WorkloadSimple:
		step, err := compileStep(model.ScenarioStep{Name: "", Spec: wl.Simple})
		if err != nil {
			return nil, err
		}
		r.simple = &step
	case model.WorkloadScenario:
		for _, s := range wl.Scenario {
			step, err := compileStep(s)
			if err != nil {
				return nil, err
			}
			r.scenario = append(r.scenario, step)
		}
	}
	return r, nil
}

// resolveURL joins a templated, possibly-relative URL against the
// workload's base target. Absolute URLs are used as-is.
func (r *Runner) resolveURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.IsAbs() || r.baseURL == nil {
		return raw, nil
	}
	return r.baseURL.ResolveReference(u).String(), nil
}

// RunPass executes one full pass (one SimpleRunner request, or one
// ordered walk of scenario steps) for the given clock offset from run
// start. emit is called once per Outcome, in step order, before the next
// step begins — so outcomes are always recorded before the dependent step
// that might reference them is attempted (spec.md §3 invariant).
func (r *Runner) RunPass(ctx context.Context, runStart time.Time, vars map[string]string, emit func(model.Outcome)) {
	if r.simple != nil {
		emit(r.execStep(ctx, runStart, *r.simple, vars))
		return
	}

	last := make(map[string]model.Outcome, len(r.scenario))
	for _, step := range r.scenario {
		if step.hasDep {
			pred, ok := last[step.dependsOn]
			if !ok || !pred.Success() {
				o := model.Outcome{
					TimestampMs: time.Since(runStart).Milliseconds(),
					ErrorKind:   model.ErrDependencyFailed,
					StepName:    step.name,
				}
				last[step.name] = o
				emit(o)
				continue
			}
		}
		o := r.execStep(ctx, runStart, step, vars)
		last[step.name] = o
		emit(o)
	}
}

// execStep templates, sends, and (if applicable) extracts for a single
// compiled step, returning its recorded Outcome.
func (r *Runner) execStep(ctx context.Context, runStart time.Time, step compiledStep, vars map[string]string) model.Outcome {
	start := time.Now()
	ts := func() int64 { return time.Since(runStart).Milliseconds() }

	realized, err := realize(step.spec, vars, r.resolveURL)
	if err != nil {
		return model.Outcome{
			TimestampMs:  ts(),
			Latency:      time.Since(start),
			ErrorKind:    model.ErrTemplateError,
			ErrorMessage: err.Error(),
			StepName:     step.name,
		}
	}

	needBody := step.hasExtract || step.hasAsserts
	resp, err := r.client.Do(ctx, realized, needBody)
	latency := time.Since(start)
	if err != nil {
		kind, msg := classifyErr(err)
		return model.Outcome{
			TimestampMs:  ts(),
			Latency:      latency,
			ErrorKind:    kind,
			ErrorMessage: msg,
			StepName:     step.name,
		}
	}

	o := model.Outcome{
		TimestampMs:   ts(),
		Latency:       latency,
		Status:        resp.Status,
		BytesReceived: resp.BytesReceived,
		StepName:      step.name,
	}

	if step.hasExtract && o.Success() && len(resp.Body) > 0 {
		extract.Apply(step.extract, resp.Body, vars)
	}

	if step.hasAsserts && len(resp.Body) > 0 {
		if f := step.asserts.Check(resp.Body); f != nil {
			o.AssertionFailed = true
			o.AssertionMessage = f.Error()
		}
	}

	return o
}

func classifyErr(err error) (model.ErrorKind, string) {
	if tErr, ok := err.(*httpclient.TransportError); ok {
		return tErr.Kind, tErr.Error()
	}
	return model.ErrIoError, err.Error()
}

// realize interpolates every template in a compiled step's spec against
// vars and joins its URL against the base target.
func realize(spec compiledSpec, vars map[string]string, resolve func(string) (string, error)) (httpclient.Realized, error) {
	rawURL, err := interpolate.Execute(spec.url, vars)
	if err != nil {
		return httpclient.Realized{}, err
	}
	fullURL, err := resolve(rawURL)
	if err != nil {
		return httpclient.Realized{}, err
	}

	out := httpclient.Realized{Method: spec.method, URL: fullURL, Kind: spec.kind}

	for _, h := range spec.headers {
		v, err := interpolate.Execute(h.value, vars)
		if err != nil {
			return httpclient.Realized{}, err
		}
		out.Headers = append(out.Headers, model.Header{Name: h.name, Value: v})
	}

	switch spec.kind {
	case model.BodyRaw:
		v, err := interpolate.Execute(spec.raw, vars)
		if err != nil {
			return httpclient.Realized{}, err
		}
		out.Raw = v
	case model.BodyMultipart:
		for _, p := range spec.parts {
			mp := model.MultipartPart{FieldName: p.fieldName, IsFile: p.isFile, FilePath: p.filePath}
			if !p.isFile {
				v, err := interpolate.Execute(p.value, vars)
				if err != nil {
					return httpclient.Realized{}, err
				}
				mp.Value = v
			}
			out.Parts = append(out.Parts, mp)
		}
	}

	return out, nil
}

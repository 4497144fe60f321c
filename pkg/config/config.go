package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanguard-load/vanguard/pkg/model"
)

// Defaults, per spec.md §6.
const (
	defaultMethod      = "GET"
	defaultConcurrency = 10
	defaultDuration    = 30 * time.Second
	defaultTimeout     = 30 * time.Second
	defaultMode        = model.ModeAsync
)

// Load reads, parses, and validates a YAML configuration file, returning a
// model.RunConfig ready to hand to the executor. dataDir is the base that
// relative file and data paths (multipart files, body_file, CSV feeders) are
// joined against; pass "" to use the config file's own directory.
func Load(path, dataDir string) (model.RunConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.RunConfig{}, fmt.Errorf("read config: %w", err)
	}

	var doc yamlConfig
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return model.RunConfig{}, fmt.Errorf("parse config: %w", err)
	}

	if result := Validate(doc); !result.Valid() {
		return model.RunConfig{}, result
	}

	if dataDir == "" {
		dataDir = filepath.Dir(path)
	}

	return build(doc, dataDir), nil
}

// build converts an already-validated yamlConfig into a model.RunConfig,
// applying every default spec.md §6 names. dataDir roots every relative
// filesystem reference the document carries (multipart files, body_file,
// CSV feeder paths).
func build(doc yamlConfig, dataDir string) model.RunConfig {
	cfg := model.RunConfig{
		Concurrency: doc.Load.Concurrency,
		Duration:    defaultDuration,
		Mode:        defaultMode,
		Timeout:     defaultTimeout,
		Insecure:    doc.Insecure,
		KeepAlive:   doc.KeepAlive,
		HTTP2:       doc.HTTP2,
		H2C:         doc.H2C,
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if doc.Load.Duration != "" {
		cfg.Duration, _ = time.ParseDuration(doc.Load.Duration)
	}
	if doc.Load.Mode != "" {
		cfg.Mode = model.Mode(doc.Load.Mode)
	}
	if doc.Timeout != "" {
		if d, err := time.ParseDuration(doc.Timeout); err == nil {
			cfg.Timeout = d
		}
	}
	if len(doc.Load.SuccessCodes) > 0 {
		cfg.SuccessCodes = make(map[int]bool, len(doc.Load.SuccessCodes))
		for _, c := range doc.Load.SuccessCodes {
			cfg.SuccessCodes[c] = true
		}
	}
	if doc.Load.StopIf != "" {
		cfg.CircuitBreaker = &model.CircuitBreaker{
			StopIf:     doc.Load.StopIf,
			MinSamples: doc.Load.MinSamples,
		}
	}

	for _, d := range doc.Data {
		cfg.Data = append(cfg.Data, model.DataSource{Name: d.Name, Path: resolvePath(dataDir, d.Path)})
	}

	if len(doc.Scenario) == 0 {
		cfg.Workload = model.Workload{Kind: model.WorkloadSimple, Simple: buildSpec(doc.Target, dataDir)}
		return cfg
	}

	wl := model.Workload{Kind: model.WorkloadScenario, BaseURL: doc.Target.URL}
	for _, s := range doc.Scenario {
		step := model.ScenarioStep{
			Name:      s.Name,
			Spec:      buildSpec(s.yamlTarget, dataDir),
			DependsOn: s.DependsOn,
			Extract:   s.Extract,
		}
		for _, a := range s.Assertions {
			step.Assertions = append(step.Assertions, model.Assertion{
				Type:    model.AssertionType(a.Type),
				Value:   a.Value,
				Path:    a.Path,
				Message: a.Message,
			})
		}
		wl.Scenario = append(wl.Scenario, step)
	}
	cfg.Workload = wl
	return cfg
}

// buildSpec converts one yamlTarget (the target section, or one scenario
// step) into a model.RequestSpec, applying the method default and resolving
// the body-kind precedence: multipart wins over a raw/body_file body.
func buildSpec(t yamlTarget, dataDir string) model.RequestSpec {
	spec := model.RequestSpec{Method: t.Method, URL: t.URL}
	if spec.Method == "" {
		spec.Method = defaultMethod
	}
	for name, value := range t.Headers {
		spec.Headers = append(spec.Headers, model.Header{Name: name, Value: value})
	}

	switch {
	case len(t.Multipart) > 0:
		spec.Kind = model.BodyMultipart
		for _, p := range t.Multipart {
			part := model.MultipartPart{FieldName: p.Field, Value: p.Value, IsFile: p.File != ""}
			if part.IsFile {
				part.FilePath = resolvePath(dataDir, p.File)
			}
			spec.Parts = append(spec.Parts, part)
		}
	case t.BodyFile != "":
		if raw, err := os.ReadFile(resolvePath(dataDir, t.BodyFile)); err == nil {
			spec.Kind = model.BodyRaw
			spec.Raw = string(raw)
		}
	case t.Body != "":
		spec.Kind = model.BodyRaw
		spec.Raw = t.Body
	}

	return spec
}

// resolvePath joins a relative path against dataDir; absolute paths are
// used as-is. Validate rejects ".." only in multipart file paths; body_file
// and data source paths are joined without that check.
func resolvePath(dataDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dataDir, p)
}

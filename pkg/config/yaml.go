// Package config loads and validates the YAML configuration boundary
// described in spec.md §6, producing a model.RunConfig the core consumes.
// Grounded on pkg/config/config.go and pkg/config/validator.go.
package config

// yamlMultipart is one multipart/form-data part: either a file part (file
// set) or a templated field part (value set).
type yamlMultipart struct {
	Field string `yaml:"field"`
	File  string `yaml:"file,omitempty"`
	Value string `yaml:"value,omitempty"`
}

// yamlAssertion mirrors model.Assertion at the YAML boundary.
type yamlAssertion struct {
	Type    string `yaml:"type"`
	Value   string `yaml:"value,omitempty"`
	Path    string `yaml:"path,omitempty"`
	Message string `yaml:"message,omitempty"`
}

// yamlTarget is the common request shape shared by simple mode's target and
// every scenario step.
type yamlTarget struct {
	URL       string            `yaml:"url"`
	Method    string            `yaml:"method,omitempty"`
	Headers   map[string]string `yaml:"headers,omitempty"`
	Body      string            `yaml:"body,omitempty"`
	BodyFile  string            `yaml:"body_file,omitempty"`
	Multipart []yamlMultipart   `yaml:"multipart,omitempty"`
}

type yamlStep struct {
	yamlTarget `yaml:",inline"`
	Name       string            `yaml:"name"`
	DependsOn  string            `yaml:"depends_on,omitempty"`
	Extract    map[string]string `yaml:"extract,omitempty"`
	Assertions []yamlAssertion   `yaml:"assertions,omitempty"`
}

type yamlDataSource struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

type yamlLoad struct {
	Duration     string `yaml:"duration,omitempty"`
	Concurrency  int    `yaml:"concurrency,omitempty"`
	Mode         string `yaml:"mode,omitempty"`
	SuccessCodes []int  `yaml:"success_codes,omitempty"`
	StopIf       string `yaml:"stop_if,omitempty"`
	MinSamples   int64  `yaml:"min_samples,omitempty"`
}

// yamlConfig is the root document shape. Simple mode is selected by the
// absence of Scenario; its presence selects scenario mode, with Target
// supplying the base URL scenario steps join against.
type yamlConfig struct {
	Target    yamlTarget     `yaml:"target"`
	Load      yamlLoad       `yaml:"load"`
	Scenario  []yamlStep     `yaml:"scenario,omitempty"`
	Data      []yamlDataSource `yaml:"data,omitempty"`
	Timeout   string         `yaml:"timeout,omitempty"`
	Insecure  bool           `yaml:"insecure,omitempty"`
	KeepAlive bool           `yaml:"keep_alive,omitempty"`
	HTTP2     bool           `yaml:"http2,omitempty"`
	H2C       bool           `yaml:"h2c,omitempty"`
}

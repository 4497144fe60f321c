// Package debugrun implements the -debug dry run: one iteration of the
// configured workload, with verbose, colorized request/response output.
// Grounded on internal/debug/debug.go, rebuilt against this repo's
// RequestSpec/ScenarioStep/Assertion types and internal/interpolate,
// internal/extract, internal/validate for templating/extraction/assertion
// logic parity with the real run path.
package debugrun

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/net/http2"

	"github.com/vanguard-load/vanguard/internal/extract"
	"github.com/vanguard-load/vanguard/internal/feed"
	"github.com/vanguard-load/vanguard/internal/interpolate"
	"github.com/vanguard-load/vanguard/internal/validate"
	"github.com/vanguard-load/vanguard/pkg/model"
)

const (
	colorReset   = "\033[0m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
	colorBold    = "\033[1m"
	colorDim     = "\033[2m"
)

// Run executes one iteration of cfg's workload with verbose request/response
// output, returning an error only for setup failures (bad data feeders);
// step-level failures are reported on stdout and reflected by the bool.
func Run(ctx context.Context, cfg model.RunConfig) (bool, error) {
	fmt.Println()
	fmt.Printf("%s%sSTARTING DEBUG MODE (Dry Run)%s\n", colorBold, colorCyan, colorReset)
	fmt.Printf("%sRunning 1 iteration with 1 worker...%s\n\n", colorDim, colorReset)

	client := buildClient(cfg)

	feeds, err := feed.Load(cfg.Data)
	if err != nil {
		return false, fmt.Errorf("load data feeders: %w", err)
	}
	session := map[string]string{}
	feeds.Apply(session)

	steps := cfg.Workload.Scenario
	if cfg.Workload.Kind == model.WorkloadSimple {
		steps = []model.ScenarioStep{{Name: "Main Request", Spec: cfg.Workload.Simple}}
	}

	allSuccess := true
	for i, step := range steps {
		printStepHeader(i+1, step.Name)
		success, err := executeDebugStep(ctx, client, step, session, cfg.SuccessCodes)
		if err != nil {
			fmt.Printf("\n%sError executing step: %v%s\n", colorRed, err, colorReset)
			allSuccess = false
			break
		}
		if !success {
			allSuccess = false
			break
		}
	}

	printSeparator()
	if allSuccess {
		fmt.Printf("%s%sDEBUG SESSION COMPLETED SUCCESSFULLY%s\n\n", colorBold, colorGreen, colorReset)
	} else {
		fmt.Printf("%s%sDEBUG SESSION COMPLETED WITH ERRORS%s\n\n", colorBold, colorRed, colorReset)
	}
	return allSuccess, nil
}

func buildClient(cfg model.RunConfig) *http.Client {
	var rt http.RoundTripper
	if cfg.H2C {
		rt = &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return (&net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}).DialContext(ctx, network, addr)
			},
		}
	} else {
		transport := &http.Transport{
			TLSClientConfig:   &tls.Config{InsecureSkipVerify: cfg.Insecure},
			DisableKeepAlives: !cfg.KeepAlive,
			ForceAttemptHTTP2: cfg.HTTP2,
		}
		if cfg.HTTP2 {
			_ = http2.ConfigureTransport(transport)
		}
		rt = transport
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Transport: rt, Timeout: timeout}
}

func executeDebugStep(ctx context.Context, client *http.Client, step model.ScenarioStep, session map[string]string, successCodes map[int]bool) (bool, error) {
	url, err := interpolate.Execute(step.Spec.URL, session)
	if err != nil {
		return false, fmt.Errorf("url template: %w", err)
	}
	method := step.Spec.Method
	if method == "" {
		method = "GET"
	}
	var bodyStr string
	if step.Spec.Kind == model.BodyRaw {
		bodyStr, err = interpolate.Execute(step.Spec.Raw, session)
		if err != nil {
			return false, fmt.Errorf("body template: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewBufferString(bodyStr))
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Vanguard/1.0 (Debug Mode)")
	req.Header.Set("Accept", "*/*")
	for _, h := range step.Spec.Headers {
		v, err := interpolate.Execute(h.Value, session)
		if err != nil {
			return false, fmt.Errorf("header template: %w", err)
		}
		req.Header.Set(h.Name, v)
	}

	printRequest(req, bodyStr)

	start := time.Now()
	resp, err := client.Do(req)
	latency := time.Since(start)
	if err != nil {
		printResponseError(err, latency)
		return false, nil
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("read response body: %w", err)
	}
	printResponse(resp, bodyBytes, latency)

	if len(step.Extract) > 0 && len(bodyBytes) > 0 {
		extracted := map[string]string{}
		extract.Apply(extract.Compile(step.Extract), bodyBytes, extracted)
		for k, v := range extracted {
			session[k] = v
		}
		printExtractedVariables(extracted, step.Extract)
	}

	if len(step.Assertions) > 0 {
		printAssertions(bodyBytes, step.Assertions, resp.StatusCode, successCodes)
	} else {
		printStatusAssertion(resp.StatusCode, successCodes)
	}

	isSuccess := resp.StatusCode >= 200 && resp.StatusCode < 400
	if len(successCodes) > 0 {
		isSuccess = successCodes[resp.StatusCode]
	}
	return isSuccess, nil
}

func printStepHeader(stepNum int, name string) {
	printSeparator()
	fmt.Printf("%s%sSTEP %d: %s%s\n", colorBold, colorMagenta, stepNum, name, colorReset)
	printSeparator()
}

func printSeparator() {
	fmt.Printf("%s----------------------------------------------------%s\n", colorDim, colorReset)
}

func printRequest(req *http.Request, body string) {
	fmt.Printf("\n%s[REQUEST]%s\n", colorBold, colorReset)
	fmt.Printf("%s%s%s %s%s%s\n", colorBold, colorGreen, req.Method, colorCyan, req.URL.String(), colorReset)

	if len(req.Header) > 0 {
		fmt.Printf("%sHeaders:%s\n", colorDim, colorReset)
		for _, k := range sortedHeaderKeys(req.Header) {
			for _, v := range req.Header[k] {
				fmt.Printf("  %s%s:%s %s\n", colorYellow, k, colorReset, v)
			}
		}
	}
	if body != "" {
		fmt.Printf("%sBody:%s\n", colorDim, colorReset)
		printFormattedJSON(body, "  ")
	}
}

func printResponse(resp *http.Response, body []byte, latency time.Duration) {
	fmt.Printf("\n%s[RESPONSE]%s\n", colorBold, colorReset)

	protoColor := colorCyan
	if resp.Proto == "HTTP/2.0" {
		protoColor = colorGreen
	}
	fmt.Printf("%sProtocol:%s %s%s%s\n", colorDim, colorReset, protoColor, resp.Proto, colorReset)

	statusColor := colorGreen
	if resp.StatusCode >= 400 {
		statusColor = colorRed
	} else if resp.StatusCode >= 300 {
		statusColor = colorYellow
	}
	fmt.Printf("%sStatus:%s %s%d%s %s(Time: %s)%s\n",
		colorDim, colorReset, statusColor, resp.StatusCode, colorReset,
		colorDim, latency.Round(time.Millisecond), colorReset)

	importantHeaders := []string{"Content-Type", "Set-Cookie", "Authorization", "X-Request-Id", "Location"}
	var found []string
	for _, h := range importantHeaders {
		if resp.Header.Get(h) != "" {
			found = append(found, h)
		}
	}
	if len(found) > 0 {
		fmt.Printf("%sHeaders:%s\n", colorDim, colorReset)
		for _, h := range found {
			val := resp.Header.Get(h)
			if len(val) > 80 {
				val = val[:77] + "..."
			}
			fmt.Printf("  %s%s:%s %s\n", colorYellow, h, colorReset, val)
		}
	}

	if len(body) > 0 {
		fmt.Printf("%sBody:%s\n", colorDim, colorReset)
		bodyStr := string(body)
		if len(bodyStr) > 2000 {
			bodyStr = fmt.Sprintf("%s\n  ... (truncated, %d bytes total)", bodyStr[:2000], len(body))
		}
		printFormattedJSON(bodyStr, "  ")
	}
}

func printResponseError(err error, latency time.Duration) {
	fmt.Printf("\n%s[RESPONSE]%s\n", colorBold, colorReset)
	fmt.Printf("%sRequest Failed%s %s(Time: %s)%s\n", colorRed, colorReset, colorDim, latency.Round(time.Millisecond), colorReset)
	fmt.Printf("  %sError:%s %v\n", colorRed, colorReset, err)
}

func printExtractedVariables(vars map[string]string, rules map[string]string) {
	fmt.Printf("\n%s[VARIABLES EXTRACTED]%s\n", colorBold, colorReset)
	if len(vars) == 0 {
		fmt.Printf("  %sNo variables extracted (paths may not match response)%s\n", colorYellow, colorReset)
		return
	}
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := truncate(vars[k], 60)
		fmt.Printf("  %s%s%s = %s%q%s  %s(source: %s)%s\n",
			colorGreen, k, colorReset, colorCyan, v, colorReset, colorDim, rules[k], colorReset)
	}
}

func printAssertions(body []byte, assertions []model.Assertion, statusCode int, successCodes map[int]bool) {
	fmt.Printf("\n%s[ASSERTIONS]%s\n", colorBold, colorReset)
	printStatusAssertion(statusCode, successCodes)

	for _, a := range assertions {
		set, err := validate.Compile([]model.Assertion{a})
		var desc string
		switch a.Type {
		case model.AssertContains:
			desc = fmt.Sprintf("contains %q", truncate(a.Value, 40))
		case model.AssertRegex:
			desc = fmt.Sprintf("regex %q", truncate(a.Value, 40))
		case model.AssertJSONPath:
			if a.Value != "" {
				desc = fmt.Sprintf("json_path %q = %q", a.Path, truncate(a.Value, 30))
			} else {
				desc = fmt.Sprintf("json_path %q exists", a.Path)
			}
		}
		if err != nil {
			fmt.Printf("  %s%s: invalid assertion: %v%s\n", colorRed, desc, err, colorReset)
			continue
		}
		if f := set.Check(body); f != nil {
			fmt.Printf("  %s%s: FAILED%s\n", colorRed, desc, colorReset)
			fmt.Printf("     %s%v%s\n", colorDim, f, colorReset)
			continue
		}
		if a.Type == model.AssertJSONPath && a.Path != "" {
			actual := gjson.GetBytes(body, a.Path).String()
			fmt.Printf("  %s%s: passed (value: %q)%s\n", colorGreen, desc, truncate(actual, 40), colorReset)
		} else {
			fmt.Printf("  %s%s: passed%s\n", colorGreen, desc, colorReset)
		}
	}
}

func printStatusAssertion(statusCode int, successCodes map[int]bool) {
	isSuccess := statusCode >= 200 && statusCode < 400
	if len(successCodes) > 0 {
		isSuccess = successCodes[statusCode]
	}
	if isSuccess {
		fmt.Printf("  %sStatus code: %d OK%s\n", colorGreen, statusCode, colorReset)
	} else {
		fmt.Printf("  %sStatus code: %d (expected 2xx/3xx)%s\n", colorRed, statusCode, colorReset)
	}
}

func printFormattedJSON(s, prefix string) {
	var obj interface{}
	if err := json.Unmarshal([]byte(s), &obj); err == nil {
		if pretty, err := json.MarshalIndent(obj, prefix, "  "); err == nil {
			fmt.Printf("%s%s\n", prefix, string(pretty))
			return
		}
	}
	for _, line := range strings.Split(s, "\n") {
		fmt.Printf("%s%s\n", prefix, line)
	}
}

func sortedHeaderKeys(h http.Header) []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

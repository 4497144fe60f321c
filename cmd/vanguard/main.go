// Command vanguard drives a configured HTTP load test and writes a report.
// Grounded on cmd/sayl/main.go: flag parsing precedence (flag overrides
// config file), os/signal wiring into a cancellation context, -debug dry
// run, and writing both a JSON and an HTML report on completion.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanguard-load/vanguard/internal/debugrun"
	"github.com/vanguard-load/vanguard/internal/executor"
	"github.com/vanguard-load/vanguard/internal/report"
	"github.com/vanguard-load/vanguard/internal/tui"
	"github.com/vanguard-load/vanguard/pkg/config"
	"github.com/vanguard-load/vanguard/pkg/model"
)

// Exit codes per spec.md §6 "Process-level contract".
const (
	exitOK           = 0
	exitConfigError  = 1
	exitFatalRuntime = 2
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("\nfatal error: %v\n", r)
			os.Exit(exitFatalRuntime)
		}
	}()

	var (
		configPath  string
		dataDir     string
		url         string
		method      string
		concurrency int
		durationStr string
		modeStr     string
		timeoutStr  string
		insecure    bool
		noTUI       bool
		debugMode   bool
		jsonOut     string
		htmlOut     string
	)

	flag.StringVar(&configPath, "config", "", "path to YAML configuration file")
	flag.StringVar(&configPath, "f", "", "path to YAML configuration file (shorthand)")
	flag.StringVar(&dataDir, "data-dir", "", "base directory for relative multipart file / CSV feeder paths (defaults to the config file's directory)")
	flag.StringVar(&url, "url", "", "target URL (simple mode, when no -config is given)")
	flag.StringVar(&method, "method", "", "HTTP method (default GET)")
	flag.IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default 10)")
	flag.StringVar(&durationStr, "duration", "", "run duration, e.g. 30s, 5m (default 30s)")
	flag.StringVar(&modeStr, "mode", "", "worker scheduling mode: async or sync (default async)")
	flag.StringVar(&timeoutStr, "timeout", "", "per-request timeout (default 30s)")
	flag.BoolVar(&insecure, "insecure", false, "skip TLS certificate verification")
	flag.BoolVar(&noTUI, "no-tui", false, "print plain progress lines instead of the interactive dashboard")
	flag.BoolVar(&debugMode, "debug", false, "run a single verbose iteration and exit")
	flag.BoolVar(&debugMode, "d", false, "run a single verbose iteration and exit (shorthand)")
	flag.StringVar(&jsonOut, "out", "report.json", "path to write the JSON report")
	flag.StringVar(&htmlOut, "html", "report.html", "path to write the HTML report")
	flag.Parse()

	cfg, err := buildConfig(configPath, dataDir, url, method, concurrency, durationStr, modeStr, timeoutStr, insecure)
	if err != nil {
		fmt.Printf("configuration error: %v\n", err)
		os.Exit(exitConfigError)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nreceived interrupt, finishing in-flight requests and writing report...")
		cancel()
	}()

	if debugMode {
		ok, err := debugrun.Run(ctx, cfg)
		if err != nil {
			fmt.Printf("debug run error: %v\n", err)
			os.Exit(exitFatalRuntime)
		}
		if !ok {
			os.Exit(exitConfigError)
		}
		return
	}

	target, runMethod := targetAndMethod(cfg)

	var rep model.Report
	if noTUI {
		rep, err = runHeadless(ctx, cfg, target, runMethod)
	} else {
		rep, err = runTUI(ctx, cfg, target, runMethod)
	}
	if err != nil {
		fmt.Printf("run error: %v\n", err)
		os.Exit(exitFatalRuntime)
	}

	if err := report.WriteJSON(rep, jsonOut); err != nil {
		fmt.Printf("failed to write JSON report: %v\n", err)
		os.Exit(exitFatalRuntime)
	}
	if err := report.WriteHTML(rep, htmlOut); err != nil {
		fmt.Printf("failed to write HTML report: %v\n", err)
		os.Exit(exitFatalRuntime)
	}
	fmt.Printf("\nreport written to %s and %s\n", jsonOut, htmlOut)
	os.Exit(exitOK)
}

func targetAndMethod(cfg model.RunConfig) (string, string) {
	if cfg.Workload.Kind == model.WorkloadSimple {
		return cfg.Workload.Simple.URL, cfg.Workload.Simple.Method
	}
	return cfg.Workload.BaseURL, "SCENARIO"
}

func runTUI(ctx context.Context, cfg model.RunConfig, target, method string) (model.Report, error) {
	m, err := tui.NewModel(ctx, cfg, target, method)
	if err != nil {
		return model.Report{}, err
	}
	p := tea.NewProgram(m)
	final, err := p.Run()
	if err != nil {
		return model.Report{}, err
	}
	fm, ok := final.(tui.MainModel)
	if !ok {
		return model.Report{}, fmt.Errorf("unexpected program result type")
	}
	if fm.RunError() != nil {
		return model.Report{}, fm.RunError()
	}
	return fm.Report(), nil
}

func runHeadless(ctx context.Context, cfg model.RunConfig, target, method string) (model.Report, error) {
	fmt.Printf("vanguard: %s %s, %d workers, %s\n", method, target, cfg.Concurrency, cfg.Duration)
	last := time.Now()
	ex, err := executor.New(cfg, func(p model.Progress) {
		if time.Since(last) < time.Second {
			return
		}
		last = time.Now()
		fmt.Printf("[%6s] requests=%d rps=%.1f errors=%.2f%% p50=%s p95=%s\n",
			p.Elapsed.Round(time.Second), p.TotalRequests, p.CurrentRPS, p.ErrorRate*100, p.P50, p.P95)
	})
	if err != nil {
		return model.Report{}, err
	}
	return ex.Run(ctx)
}

// buildConfig loads a YAML config file when configPath is set, overriding
// with any explicitly-set flags (flag wins over file, per spec.md §6 and
// the teacher's own "Flag > File" precedence comment); otherwise it builds
// a simple-mode RunConfig entirely from flags.
func buildConfig(configPath, dataDir, url, method string, concurrency int, durationStr, modeStr, timeoutStr string, insecure bool) (model.RunConfig, error) {
	var cfg model.RunConfig
	if configPath != "" {
		loaded, err := config.Load(configPath, dataDir)
		if err != nil {
			return model.RunConfig{}, err
		}
		cfg = loaded
	} else {
		if url == "" {
			return model.RunConfig{}, fmt.Errorf("either -config or -url must be given")
		}
		cfg = model.RunConfig{
			Concurrency: 10,
			Duration:    30 * time.Second,
			Mode:        model.ModeAsync,
			Timeout:     30 * time.Second,
			Workload: model.Workload{
				Kind:   model.WorkloadSimple,
				Simple: model.RequestSpec{Method: "GET", URL: url},
			},
		}
	}

	if method != "" {
		if cfg.Workload.Kind == model.WorkloadSimple {
			cfg.Workload.Simple.Method = method
		}
	}
	if concurrency > 0 {
		cfg.Concurrency = concurrency
	}
	if durationStr != "" {
		d, err := time.ParseDuration(durationStr)
		if err != nil {
			return model.RunConfig{}, fmt.Errorf("invalid -duration: %w", err)
		}
		cfg.Duration = d
	}
	if modeStr != "" {
		if modeStr != string(model.ModeAsync) && modeStr != string(model.ModeSync) {
			return model.RunConfig{}, fmt.Errorf("invalid -mode %q: must be async or sync", modeStr)
		}
		cfg.Mode = model.Mode(modeStr)
	}
	if timeoutStr != "" {
		d, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return model.RunConfig{}, fmt.Errorf("invalid -timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if insecure {
		cfg.Insecure = true
	}
	if cfg.Concurrency <= 0 {
		return model.RunConfig{}, fmt.Errorf("concurrency must be positive")
	}
	if cfg.Duration <= 0 {
		return model.RunConfig{}, fmt.Errorf("duration must be positive")
	}

	return cfg, nil
}

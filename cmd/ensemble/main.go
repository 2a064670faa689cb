package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"ensemble/internal/adapter/mcpserver"
	"ensemble/internal/domain"
	"ensemble/internal/infra/config"
	"ensemble/internal/infra/logger"
	"ensemble/internal/infra/tracer"
	"ensemble/internal/usecase"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

const defaultConfigPath = "ensemble.yaml"

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "--help", "-h", "help":
			showUsage()
			return
		}
	}
	if len(os.Args) < 2 {
		showUsage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "run":
		err = runOrchestration(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	case "strategies":
		err = runStrategies()
	case "version":
		fmt.Printf("ensemble %s\n", version)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\nRun 'ensemble --help' for usage.\n", os.Args[1])
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println(`ensemble - multi-strategy AI orchestration

USAGE:
    ensemble COMMAND [FLAGS]

COMMANDS:
    run         Run one orchestration and print the result
    serve       Serve the engine as an MCP server (stdio or http)
    strategies  List the available orchestration strategies
    version     Print the version

RUN FLAGS:
    -prompt TEXT       Prompt to orchestrate (or pass it as trailing arguments)
    -strategy NAME     Strategy: sequential, parallel, debate, consensus,
                       specialist, hierarchical, mixture (default: parallel)
    -models LIST       Comma-separated "<vendor>/<model>" identifiers;
                       configured defaults apply when omitted
    -rounds N          Debate round limit
    -temperature N     Sampling temperature
    -reasoning         Add a synthesis step to the parallel strategy
    -thinking          Enable extended thinking where supported
    -json              Print the full result as JSON
    -pretty            Render the result as styled markdown
    -config PATH       Config file path (default: ensemble.yaml)

SERVE FLAGS:
    -config PATH       Config file path (default: ensemble.yaml)
    -transport NAME    Override the configured transport (stdio, http)
    -addr ADDR         Override the http listen address

CONFIGURATION:
    Config file: ensemble.yaml (YAML, validated on load)
    Environment: ENSEMBLE_* variables override config; provider API keys
    also read OPENAI_API_KEY, ANTHROPIC_API_KEY, GEMINI_API_KEY, ...

EXAMPLES:
    ensemble run -strategy parallel -models openai/gpt-4o,anthropic/claude-sonnet-4-5 "Compare Raft and Paxos"
    ensemble run -strategy debate -rounds 2 -pretty -prompt "Should we adopt gRPC?"
    ensemble serve -transport stdio
    ensemble strategies`)
}

// app bundles the long-lived components the composition root wires up.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	engine *usecase.Engine
}

// buildApp wires config, logger, tracer, providers, router and engine. The
// returned cleanup flushes tracer and logger and must run on every path.
func buildApp(configPath string) (*app, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}

	log, logCloser, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}

	tracerShutdown, err := tracer.Setup(context.Background(), cfg.Tracer)
	if err != nil {
		logCloser()
		return nil, nil, fmt.Errorf("tracer: %w", err)
	}

	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerShutdown(shutdownCtx); err != nil {
			log.Error("tracer shutdown error", "error", err)
		}
		if err := logCloser(); err != nil {
			fmt.Fprintf(os.Stderr, "log close error: %v\n", err)
		}
	}

	registry, err := initLLM(cfg, log)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("llm: %w", err)
	}

	defaults, err := parseModelIDs(cfg.Engine.DefaultModels)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("default models: %w", err)
	}

	router := usecase.NewModelRouter(registry, buildFallbacks(cfg.LLM.Fallbacks), log)
	engine := usecase.NewEngine(router, usecase.Config{
		DefaultModels:        defaults,
		MaxConcurrent:        cfg.Engine.MaxConcurrent,
		MaxRounds:            cfg.Engine.MaxRounds,
		Temperature:          cfg.Engine.Temperature,
		SynthesisTemperature: cfg.Engine.SynthesisTemperature,
	}, log)

	return &app{cfg: cfg, logger: log, engine: engine}, cleanup, nil
}

func runOrchestration(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	var (
		prompt      = fs.String("prompt", "", "prompt to orchestrate")
		strategy    = fs.String("strategy", "parallel", "orchestration strategy")
		models      = fs.String("models", "", "comma-separated model identifiers")
		rounds      = fs.Int("rounds", 0, "debate round limit (0 = configured default)")
		temperature = fs.Float64("temperature", 0, "sampling temperature (0 = configured default)")
		reasoning   = fs.Bool("reasoning", false, "add a synthesis step to the parallel strategy")
		thinking    = fs.Bool("thinking", false, "enable extended thinking where supported")
		asJSON      = fs.Bool("json", false, "print the full result as JSON")
		pretty      = fs.Bool("pretty", false, "render the result as styled markdown")
		configPath  = fs.String("config", defaultConfigPath, "config file path")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	promptText := strings.TrimSpace(*prompt)
	if promptText == "" {
		promptText = strings.TrimSpace(strings.Join(fs.Args(), " "))
	}
	if promptText == "" {
		return fmt.Errorf("no prompt given: use -prompt or trailing arguments")
	}

	strategyKind, err := domain.ParseStrategy(*strategy)
	if err != nil {
		return err
	}

	modelIDs, err := parseModelIDs(splitList(*models))
	if err != nil {
		return err
	}

	a, cleanup, err := buildApp(*configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	result, err := a.engine.Orchestrate(ctx, domain.OrchestrationRequest{
		Prompt:   promptText,
		Strategy: strategyKind,
		Models:   modelIDs,
		Options: domain.OrchestrationOptions{
			MaxRounds:        *rounds,
			Temperature:      *temperature,
			IncludeReasoning: *reasoning,
			UseThinking:      *thinking,
		},
	})
	if err != nil {
		return err
	}

	switch {
	case *asJSON:
		return writeJSON(os.Stdout, result)
	case *pretty:
		return writePretty(os.Stdout, result)
	default:
		return writeText(os.Stdout, result)
	}
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	var (
		configPath = fs.String("config", defaultConfigPath, "config file path")
		transport  = fs.String("transport", "", "mcp transport override (stdio, http)")
		addr       = fs.String("addr", "", "listen address override for the http transport")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, cleanup, err := buildApp(*configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	serverCfg := a.cfg.Server
	if *transport != "" {
		serverCfg.Transport = *transport
	}
	if *addr != "" {
		serverCfg.Addr = *addr
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return mcpserver.New(a.engine, serverCfg, version, a.logger).Serve(ctx)
}

func runStrategies() error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, k := range domain.Strategies() {
		fmt.Fprintf(w, "%s\t%s\n", k, k.Description())
	}
	return w.Flush()
}

// splitList splits a comma-separated flag value, dropping empty elements.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

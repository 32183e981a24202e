package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/graphload/graphload/internal/config"
	"github.com/graphload/graphload/internal/eventbus"
	"github.com/graphload/graphload/internal/executor"
	"github.com/graphload/graphload/internal/gqlerr"
	"github.com/graphload/graphload/internal/introspection"
	"github.com/graphload/graphload/internal/loader"
	"github.com/graphload/graphload/internal/otel"
	"github.com/graphload/graphload/internal/resolver"
	"github.com/graphload/graphload/internal/schema"
	"github.com/graphload/graphload/internal/server"
	"github.com/graphload/graphload/internal/telemetry"
)

const rootUsage = `graphload — batch-loading GraphQL execution engine

USAGE:
  graphload <command> [flags]

COMMANDS:
  serve            Serve a GraphQL schema over HTTP, resolving fields against
                   a JSON document via the mapping/property cascade
  print-schema     Parse, validate and re-render a GraphQL SDL file
  help             Show help for any command

Configuration also comes from the environment (ADDR, LOG_LEVEL,
OTEL_ENDPOINT, ...); flags override it.
`

const serveUsage = `serve FLAGS:
  -schema <file>      GraphQL SDL file (required)
  -data <file>        JSON document used as the root value (optional)
  -addr <addr>        HTTP listen address (default: from ADDR env, :8080)
  -pretty             Pretty-print JSON responses
  -timeout <duration> Per-request timeout, e.g. 10s (default: 10s)
`

const printSchemaUsage = `print-schema FLAGS:
  -schema <file>  GraphQL SDL file (required)
  -out <file>     Write rendered SDL to file (default: stdout)
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := args[0]
	cmdArgs := args[1:]
	switch cmd {
	case "serve":
		return cmdServe(cmdArgs)
	case "print-schema":
		return cmdPrintSchema(cmdArgs)
	case "help":
		return cmdHelp(cmdArgs)
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string) error {
	if len(args) == 0 {
		fmt.Print(rootUsage)
		return nil
	}
	switch args[0] {
	case "serve":
		fmt.Print(serveUsage)
	case "print-schema":
		fmt.Print(printSchemaUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

func cmdServe(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	schemaFile := ""
	dataFile := ""
	timeout := 10 * time.Second

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&schemaFile, "schema", schemaFile, "GraphQL SDL file")
	fs.StringVar(&dataFile, "data", dataFile, "JSON document used as the root value")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	fs.BoolVar(&cfg.Pretty, "pretty", cfg.Pretty, "Pretty-print JSON responses")
	fs.DurationVar(&timeout, "timeout", timeout, "Per-request timeout")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, serveUsage)
		return err
	}
	if schemaFile == "" {
		fmt.Fprint(os.Stderr, serveUsage)
		return fmt.Errorf("-schema is required")
	}

	logger, err := telemetry.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	sdl, err := os.ReadFile(schemaFile)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	sch, err := schema.BuildFromSDL(schemaFile, string(sdl))
	if err != nil {
		return fmt.Errorf("build schema: %w", err)
	}

	var rootValue any
	if dataFile != "" {
		raw, err := os.ReadFile(dataFile)
		if err != nil {
			return fmt.Errorf("read data: %w", err)
		}
		if err := json.Unmarshal(raw, &rootValue); err != nil {
			return fmt.Errorf("parse data: %w", err)
		}
	}

	eventbus.Use(eventbus.New())
	shutdown, err := otel.Setup(cfg.OTELEndpoint, cfg.ServiceName)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	metrics := telemetry.NewMetrics()
	metrics.Subscribe()
	telemetry.LogRequests(logger)

	reg := resolver.NewRegistry()
	introspection.Register(reg, sch)
	if rootValue != nil {
		root := rootValue
		for _, f := range sch.GetQueryType().Fields {
			fieldName := f.Name
			reg.RegisterFunc(sch.QueryType, fieldName, func(ctx context.Context, source any, args map[string]any, pos resolver.Position) (any, error) {
				m, ok := root.(map[string]any)
				if !ok {
					return nil, nil
				}
				return m[fieldName], nil
			})
		}
	}

	exec := executor.NewExecutor(
		resolver.NewStrategy(reg),
		introspection.Extend(sch),
		executor.WithLoaders(loader.NewRegistry()),
		executor.WithMaxRounds(cfg.MaxBatchRounds),
	)
	form := gqlerr.NewFormatter(gqlerr.DebugFlags{
		IncludeMessage: cfg.DebugIncludeMessage,
		IncludeTrace:   cfg.DebugIncludeTrace,
	})

	sopts := []server.Option{
		server.WithTimeout(timeout),
		server.WithMaxBodyBytes(cfg.MaxBodyBytes),
		server.WithGraphiQL(cfg.GraphiQL),
	}
	if cfg.Pretty {
		sopts = append(sopts, server.WithPretty())
	}
	if len(cfg.CORSOrigins) > 0 {
		sopts = append(sopts, server.WithCORS(cfg.CORSOrigins...))
	}
	h := server.New(exec, form, sopts...)

	mux := http.NewServeMux()
	mux.Handle("/graphql", h)
	if cfg.MetricsAddr != "" {
		// Scrape endpoint on its own listener so it is not exposed with the API.
		go func() {
			mmux := http.NewServeMux()
			mmux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mmux); err != nil {
				logger.Error("metrics listener failed", zap.Error(err))
			}
		}()
	} else {
		mux.Handle("/metrics", promhttp.Handler())
	}

	logger.Info("GraphQL server listening",
		zap.String("addr", cfg.Addr),
		zap.String("schema", schemaFile),
	)
	return http.ListenAndServe(cfg.Addr, mux)
}

func cmdPrintSchema(args []string) error {
	schemaFile := ""
	outFile := ""
	fs := flag.NewFlagSet("print-schema", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&schemaFile, "schema", schemaFile, "GraphQL SDL file")
	fs.StringVar(&outFile, "out", outFile, "Write rendered SDL to file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, printSchemaUsage)
		return err
	}
	if schemaFile == "" {
		fmt.Fprint(os.Stderr, printSchemaUsage)
		return fmt.Errorf("-schema is required")
	}

	sdl, err := os.ReadFile(schemaFile)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	sch, err := schema.BuildFromSDL(schemaFile, string(sdl))
	if err != nil {
		return fmt.Errorf("build schema: %w", err)
	}
	rendered := schema.Render(sch)
	if outFile == "" {
		fmt.Print(rendered)
		return nil
	}
	return os.WriteFile(outFile, []byte(rendered), 0644)
}

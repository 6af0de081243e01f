package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"maps"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/hanpama/resolverlog/internal/config"
	"github.com/hanpama/resolverlog/internal/directory"
	"github.com/hanpama/resolverlog/internal/errlog"
	"github.com/hanpama/resolverlog/internal/eventbus"
	"github.com/hanpama/resolverlog/internal/fieldrt"
	"github.com/hanpama/resolverlog/internal/introspection"
	"github.com/hanpama/resolverlog/internal/logging"
	"github.com/hanpama/resolverlog/internal/otel"
	"github.com/hanpama/resolverlog/internal/schema"
	"github.com/hanpama/resolverlog/internal/server"
)

const rootUsage = `resolverlog: GraphQL server that logs every resolver error

USAGE:
  resolverlog <command> [flags]

COMMANDS:
  serve            Run the HTTP GraphQL server over the directory fixtures
  check-sdl        Validate a GraphQL SDL file and print it normalized
  help             Show help for any command
`

const serveUsage = `serve FLAGS:
  -config <file>                      YAML config file; flags override it
  -server.addr <addr>                 HTTP listen address (default: :8080)
  -server.pretty                      Pretty-print JSON responses
  -server.timeout <duration>          Per-request timeout, e.g. 10s (default: 10s)
  -server.max-body-bytes <n>          Request body limit (default: 1048576)
  -server.cors-origin <origin>        Allowed CORS origin. Repeatable
  -server.metadata-header <name>      Forward HTTP header to resolver metadata. Repeatable
  -log.level <level>                  debug, info, warn or error (default: info)
  -log.development                    Console logs instead of JSON
  -otel.endpoint <addr>               OTLP collector endpoint
  -otel.service <name>                OpenTelemetry service name (default: resolverlog)
  -graphql.schema <file>              SDL file (default: built-in directory schema)
  -graphql.data <file>                YAML fixtures (default: built-in fixtures)
  -graphql.error-logging <bool>       Log resolver errors (default: true)
  -graphql.introspection <bool>       Enable GraphQL introspection (default: true)
`

const checkSDLUsage = `check-sdl FLAGS:
  -graphql.schema <file>   SDL file (default: built-in directory schema)
  -out <file>              Write normalized SDL to file (default: stdout)
  (Validation always runs; exits non-zero on errors)
`

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, rootUsage)
		return errors.New("missing command")
	}

	cmd, cmdArgs := args[0], args[1:]
	switch cmd {
	case "serve":
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return cmdServe(ctx, cmdArgs, stderr)
	case "check-sdl":
		return cmdCheckSDL(cmdArgs, stdout, stderr)
	case "help":
		return cmdHelp(cmdArgs, stdout)
	default:
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, rootUsage)
		return nil
	}
	switch args[0] {
	case "serve":
		fmt.Fprint(stdout, serveUsage)
	case "check-sdl":
		fmt.Fprint(stdout, checkSDLUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	return fs
}

func cmdServe(ctx context.Context, args []string, stderr io.Writer) error {
	cfg, err := config.Parse(newFlagSet("serve"), args)
	if err != nil {
		fmt.Fprint(stderr, serveUsage)
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	eventbus.Use(eventbus.New())
	shutdownOTel, err := otel.Setup(ctx, cfg.OTel.Endpoint, cfg.OTel.Service)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdownOTel(context.Background()) }()

	h, err := newHandler(cfg, logger)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/graphql", h)
	srv := &http.Server{Addr: cfg.Server.Addr, Handler: mux}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.Info("GraphQL server listening", zap.String("addr", cfg.Server.Addr))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// newHandler wires the directory resolvers into a GraphQL handler. With
// error logging on, every resolver failure goes to logger and to the event
// bus. Introspection fields are never logged.
func newHandler(cfg config.Config, logger *zap.Logger) (*server.Handler, error) {
	sch, err := loadSchema(cfg.GraphQL.Schema)
	if err != nil {
		return nil, err
	}
	store, err := directory.LoadFile(cfg.GraphQL.Data)
	if err != nil {
		return nil, fmt.Errorf("load fixtures: %w", err)
	}

	resolvers := directory.Resolvers(store)
	if cfg.GraphQL.Introspection {
		if sch, err = introspection.Extend(sch); err != nil {
			return nil, fmt.Errorf("introspection: %w", err)
		}
		maps.Copy(resolvers, introspection.Resolvers(sch))
	}
	if cfg.GraphQL.ErrorLogging {
		resolvers = errlog.DecorateMap(sch, resolvers, errlog.Tee(
			errlog.NewZapLogger(logger),
			errlog.NewEventLogger(),
		))
	}

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithTimeout(cfg.Server.Timeout),
		server.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
	}
	if cfg.Server.Pretty {
		opts = append(opts, server.WithPretty())
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		opts = append(opts, server.WithCORS(cfg.Server.CORSOrigins...))
	}
	if len(cfg.Server.MetadataHeaders) > 0 {
		opts = append(opts, server.WithMetadataHeaders(cfg.Server.MetadataHeaders...))
	}
	return server.New(fieldrt.New(sch, resolvers), sch, opts...), nil
}

func loadSchema(path string) (*schema.Schema, error) {
	sdl := directory.SchemaSDL
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		sdl = string(b)
	}
	sch, err := schema.BuildFromSDL(sdl)
	if err != nil {
		return nil, fmt.Errorf("build schema: %w", err)
	}
	return sch, nil
}

func cmdCheckSDL(args []string, stdout, stderr io.Writer) error {
	schemaFile := ""
	outFile := ""
	fs := newFlagSet("check-sdl")
	fs.StringVar(&schemaFile, "graphql.schema", schemaFile, "SDL file")
	fs.StringVar(&outFile, "out", outFile, "Write normalized SDL to file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, checkSDLUsage)
		return err
	}

	sch, err := loadSchema(schemaFile)
	if err != nil {
		return err
	}
	sdl := schema.Render(sch)
	if outFile == "" {
		_, err := io.WriteString(stdout, sdl)
		return err
	}
	return os.WriteFile(outFile, []byte(sdl), 0o644)
}

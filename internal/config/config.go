// Package config holds the settings of the resolverlog server. Settings
// come from defaults, an optional YAML file and dotted command-line flags,
// in that order of precedence.
package config

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/hanpama/resolverlog/internal/logging"
)

type Config struct {
	Server  Server         `yaml:"server"`
	Log     logging.Config `yaml:"log"`
	OTel    OTel           `yaml:"otel"`
	GraphQL GraphQL        `yaml:"graphql"`
}

type Server struct {
	Addr            string        `yaml:"addr"`
	Pretty          bool          `yaml:"pretty"`
	Timeout         time.Duration `yaml:"timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	MetadataHeaders []string      `yaml:"metadata_headers"`
}

type OTel struct {
	// Endpoint is the OTLP gRPC collector address. Empty disables tracing.
	Endpoint string `yaml:"endpoint"`
	Service  string `yaml:"service"`
}

type GraphQL struct {
	// Schema is an SDL file path. Empty uses the built-in directory schema.
	Schema string `yaml:"schema"`
	// Data is a YAML fixture path. Empty uses the built-in fixtures.
	Data string `yaml:"data"`
	// ErrorLogging decorates every resolver so its failures are logged.
	ErrorLogging bool `yaml:"error_logging"`
	// Introspection serves __schema and __type.
	Introspection bool `yaml:"introspection"`
}

// Default returns the settings used when nothing else is given.
func Default() Config {
	return Config{
		Server: Server{
			Addr:         ":8080",
			Timeout:      10 * time.Second,
			MaxBodyBytes: 1 << 20,
		},
		Log:     logging.Config{Level: "info"},
		OTel:    OTel{Service: "resolverlog"},
		GraphQL: GraphQL{ErrorLogging: true, Introspection: true},
	}
}

// Load reads a YAML file over Default. Unknown keys are an error.
func Load(path string) (Config, error) {
	c := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return c, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.Timeout < 0 {
		errs = append(errs, errors.New("server.timeout must not be negative"))
	}
	if c.Server.MaxBodyBytes < 0 {
		errs = append(errs, errors.New("server.max_body_bytes must not be negative"))
	}
	if c.Log.Level != "" {
		if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
			errs = append(errs, fmt.Errorf("log.level: %w", err))
		}
	}
	if c.OTel.Endpoint != "" && c.OTel.Service == "" {
		errs = append(errs, errors.New("otel.service is required when otel.endpoint is set"))
	}
	return errors.Join(errs...)
}

// BindFlags registers a dotted flag for every setting on fs, with c's
// current values as defaults.
func (c *Config) BindFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Server.Addr, "server.addr", c.Server.Addr, "HTTP listen address")
	fs.BoolVar(&c.Server.Pretty, "server.pretty", c.Server.Pretty, "Pretty-print JSON responses")
	fs.DurationVar(&c.Server.Timeout, "server.timeout", c.Server.Timeout, "Per-request timeout")
	fs.Int64Var(&c.Server.MaxBodyBytes, "server.max-body-bytes", c.Server.MaxBodyBytes, "Request body limit in bytes")
	fs.Var(&listFlag{p: &c.Server.CORSOrigins}, "server.cors-origin", "Allowed CORS origin. Repeatable")
	fs.Var(&listFlag{p: &c.Server.MetadataHeaders}, "server.metadata-header", "Forward HTTP header to resolver metadata. Repeatable")
	fs.StringVar(&c.Log.Level, "log.level", c.Log.Level, "Log level")
	fs.BoolVar(&c.Log.Development, "log.development", c.Log.Development, "Human-readable console logs")
	fs.StringVar(&c.OTel.Endpoint, "otel.endpoint", c.OTel.Endpoint, "OTLP collector endpoint")
	fs.StringVar(&c.OTel.Service, "otel.service", c.OTel.Service, "OpenTelemetry service name")
	fs.StringVar(&c.GraphQL.Schema, "graphql.schema", c.GraphQL.Schema, "SDL file")
	fs.StringVar(&c.GraphQL.Data, "graphql.data", c.GraphQL.Data, "YAML fixture file")
	fs.BoolVar(&c.GraphQL.ErrorLogging, "graphql.error-logging", c.GraphQL.ErrorLogging, "Log resolver errors")
	fs.BoolVar(&c.GraphQL.Introspection, "graphql.introspection", c.GraphQL.Introspection, "Enable GraphQL introspection")
}

// Parse parses args on fs, which gains a -config flag plus the flags of
// BindFlags. When -config names a file, the file is loaded first and the
// flags given in args override it. The result is validated.
func Parse(fs *flag.FlagSet, args []string) (Config, error) {
	c := Default()
	path := fs.String("config", "", "YAML config file")
	c.BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		return c, err
	}
	if *path == "" {
		return c, c.Validate()
	}

	loaded, err := Load(*path)
	if err != nil {
		return c, err
	}
	over := flag.NewFlagSet(fs.Name(), flag.ContinueOnError)
	loaded.BindFlags(over)
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" || err != nil {
			return
		}
		err = over.Set(f.Name, f.Value.String())
	})
	if err != nil {
		return loaded, err
	}
	return loaded, loaded.Validate()
}

// listFlag collects comma-separated or repeated values. The first Set
// replaces the default.
type listFlag struct {
	p   *[]string
	set bool
}

func (l *listFlag) String() string {
	if l.p == nil {
		return ""
	}
	return strings.Join(*l.p, ",")
}

func (l *listFlag) Set(v string) error {
	if !l.set {
		*l.p = nil
		l.set = true
	}
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			*l.p = append(*l.p, s)
		}
	}
	return nil
}

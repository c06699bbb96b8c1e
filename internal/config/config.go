package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/roach88/tioga/internal/ctxlog"
	"github.com/roach88/tioga/internal/engine"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "tioga.hcl"

// DefaultDotEnv is the dotenv file looked up in the working directory.
const DefaultDotEnv = ".env"

// Config is the resolved configuration.
type Config struct {
	Engine  Engine
	Service Service
	Log     Log
	Store   Store
}

// Engine holds the engine options.
type Engine struct {
	MaxStates      int
	Timeout        time.Duration
	ClockReduction bool
	MaxFindings    int
}

// Service holds the HTTP front end settings.
type Service struct {
	Listen  string
	Workers int
}

// Log holds the logger settings.
type Log struct {
	Level  string
	Format string
}

// Store holds the evaluation log location.
type Store struct {
	Path string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Engine: Engine{
			MaxStates:      engine.DefaultMaxStates,
			ClockReduction: true,
			MaxFindings:    engine.DefaultMaxFindings,
		},
		Service: Service{
			Listen:  ":7070",
			Workers: runtime.NumCPU(),
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Store: Store{
			Path: "tioga.db",
		},
	}
}

// hclFile is the decoding target. Every block and attribute is optional;
// nil means "keep the current value".
type hclFile struct {
	Engine  *hclEngine  `hcl:"engine,block"`
	Service *hclService `hcl:"service,block"`
	Log     *hclLog     `hcl:"log,block"`
	Store   *hclStore   `hcl:"store,block"`
}

type hclEngine struct {
	MaxStates      *int    `hcl:"max_states,optional"`
	Timeout        *string `hcl:"timeout,optional"`
	ClockReduction *bool   `hcl:"clock_reduction,optional"`
	MaxFindings    *int    `hcl:"max_findings,optional"`
}

type hclService struct {
	Listen  *string `hcl:"listen,optional"`
	Workers *int    `hcl:"workers,optional"`
}

type hclLog struct {
	Level  *string `hcl:"level,optional"`
	Format *string `hcl:"format,optional"`
}

type hclStore struct {
	Path *string `hcl:"path,optional"`
}

// Load resolves the configuration from path, the dotenv file and the
// process environment. A missing file is an error unless it is the
// default one; a missing dotenv file is ignored. Empty names skip the
// source.
func Load(path, dotenv string) (*Config, error) {
	c := Default()
	if path != "" {
		if err := c.ApplyFile(path); err != nil {
			if !(path == DefaultFile && errors.Is(err, fs.ErrNotExist)) {
				return nil, err
			}
		}
	}
	if err := c.ApplyEnv(dotenv, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// ApplyFile overlays the settings of an HCL file.
func (c *Config) ApplyFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("config file: %w", err)
	}
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse config %s: %w", path, diags)
	}
	return c.decode(path, file.Body)
}

// ApplySource overlays settings from HCL source text. filename is used in
// diagnostics only.
func (c *Config) ApplySource(filename string, src []byte) error {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse config %s: %w", filename, diags)
	}
	return c.decode(filename, file.Body)
}

func (c *Config) decode(filename string, body hcl.Body) error {
	var f hclFile
	if diags := gohcl.DecodeBody(body, nil, &f); diags.HasErrors() {
		return fmt.Errorf("failed to decode config %s: %w", filename, diags)
	}

	if e := f.Engine; e != nil {
		setIf(&c.Engine.MaxStates, e.MaxStates)
		setIf(&c.Engine.ClockReduction, e.ClockReduction)
		setIf(&c.Engine.MaxFindings, e.MaxFindings)
		if e.Timeout != nil {
			d, err := time.ParseDuration(*e.Timeout)
			if err != nil {
				return fmt.Errorf("%s: engine.timeout: %w", filename, err)
			}
			c.Engine.Timeout = d
		}
	}
	if s := f.Service; s != nil {
		setIf(&c.Service.Listen, s.Listen)
		setIf(&c.Service.Workers, s.Workers)
	}
	if l := f.Log; l != nil {
		setIf(&c.Log.Level, l.Level)
		setIf(&c.Log.Format, l.Format)
	}
	if s := f.Store; s != nil {
		setIf(&c.Store.Path, s.Path)
	}
	return nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Engine.MaxStates < 0 {
		errs = append(errs, fmt.Errorf("engine.max_states must be non-negative, got %d", c.Engine.MaxStates))
	}
	if c.Engine.MaxFindings < 1 {
		errs = append(errs, fmt.Errorf("engine.max_findings must be positive, got %d", c.Engine.MaxFindings))
	}
	if c.Engine.Timeout < 0 {
		errs = append(errs, fmt.Errorf("engine.timeout must be non-negative, got %s", c.Engine.Timeout))
	}
	if c.Service.Workers < 1 {
		errs = append(errs, fmt.Errorf("service.workers must be positive, got %d", c.Service.Workers))
	}
	if c.Service.Listen == "" {
		errs = append(errs, errors.New("service.listen is required"))
	}
	if _, err := ctxlog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// EngineOptions converts the engine block into engine options.
func (c *Config) EngineOptions() []engine.Option {
	return []engine.Option{
		engine.WithStateLimit(c.Engine.MaxStates),
		engine.WithTimeout(c.Engine.Timeout),
		engine.WithClockReduction(c.Engine.ClockReduction),
		engine.WithMaxFindings(c.Engine.MaxFindings),
	}
}

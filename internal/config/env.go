package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// EnvPrefix starts every environment override.
const EnvPrefix = "TIOGA_"

// envVar binds one environment variable to a setting. Values go through
// cty's string conversions, the same ones HCL applies to quoted values.
type envVar struct {
	name   string
	ty     cty.Type
	target func(c *Config) any
}

var envVars = []envVar{
	{"MAX_STATES", cty.Number, func(c *Config) any { return &c.Engine.MaxStates }},
	{"TIMEOUT", cty.String, nil},
	{"CLOCK_REDUCTION", cty.Bool, func(c *Config) any { return &c.Engine.ClockReduction }},
	{"MAX_FINDINGS", cty.Number, func(c *Config) any { return &c.Engine.MaxFindings }},
	{"LISTEN", cty.String, func(c *Config) any { return &c.Service.Listen }},
	{"WORKERS", cty.Number, func(c *Config) any { return &c.Service.Workers }},
	{"LOG_LEVEL", cty.String, func(c *Config) any { return &c.Log.Level }},
	{"LOG_FORMAT", cty.String, func(c *Config) any { return &c.Log.Format }},
	{"DB", cty.String, func(c *Config) any { return &c.Store.Path }},
}

// EnvNames lists the recognised environment variables.
func EnvNames() []string {
	out := make([]string, len(envVars))
	for i, v := range envVars {
		out[i] = EnvPrefix + v.name
	}
	return out
}

// ApplyEnv overlays TIOGA_* values. Variables found by lookup win over
// the dotenv file, as with godotenv.Load. dotenv may be empty or name a
// file that does not exist.
func (c *Config) ApplyEnv(dotenv string, lookup func(string) (string, bool)) error {
	fileVars := map[string]string{}
	if dotenv != "" {
		vars, err := godotenv.Read(dotenv)
		switch {
		case err == nil:
			fileVars = vars
		case errors.Is(err, fs.ErrNotExist):
		default:
			return fmt.Errorf("dotenv %s: %w", dotenv, err)
		}
	}

	get := func(name string) (string, bool) {
		if lookup != nil {
			if v, ok := lookup(name); ok {
				return v, true
			}
		}
		v, ok := fileVars[name]
		return v, ok
	}

	for _, v := range envVars {
		name := EnvPrefix + v.name
		raw, ok := get(name)
		if !ok || raw == "" {
			continue
		}
		if v.name == "TIMEOUT" {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			c.Engine.Timeout = d
			continue
		}
		if err := setFromString(raw, v.ty, v.target(c)); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// setFromString converts raw to ty and stores it in target.
func setFromString(raw string, ty cty.Type, target any) error {
	val, err := convert.Convert(cty.StringVal(raw), ty)
	if err != nil {
		return fmt.Errorf("%q is not a valid %s", raw, ty.FriendlyName())
	}
	return gocty.FromCtyValue(val, target)
}

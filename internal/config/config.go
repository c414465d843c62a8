// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package config loads the fxsim configuration file.
//
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/db47h/fxsim"
	"github.com/db47h/fxsim/internal/validator"
	"github.com/pkg/errors"
)

// Config is the fxsim configuration.
//
type Config struct {
	// Module is the default VHDL entity name.
	Module string `json:"module,omitempty"`
	// Clock is the default clock of design inputs.
	Clock int `json:"clock,omitempty"`
	// OutputDir is where VHDL and COE files are written.
	OutputDir string       `json:"outputDir,omitempty"`
	Target    TargetConfig `json:"target,omitempty"`
	COE       COEConfig    `json:"coe,omitempty"`
	Log       LogConfig    `json:"log,omitempty"`
	DRC       DRCConfig    `json:"drc,omitempty"`
}

// TargetConfig holds the DSP multiplier widths and the scale tolerance.
// Zero values select the defaults.
//
type TargetConfig struct {
	MulLargeUnsigned int     `json:"mulLargeUnsigned,omitempty"`
	MulLargeSigned   int     `json:"mulLargeSigned,omitempty"`
	MulSmallUnsigned int     `json:"mulSmallUnsigned,omitempty"`
	MulSmallSigned   int     `json:"mulSmallSigned,omitempty"`
	UnitTolerance    float64 `json:"unitTolerance,omitempty"`
}

// COEConfig controls COE output.
type COEConfig struct {
	Radix int `json:"radix,omitempty"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `json:"level,omitempty"`
	Format string `json:"format,omitempty"`
}

// DRCConfig holds the design-rule check limits.
type DRCConfig struct {
	MaxWidth       int `json:"maxWidth,omitempty"`
	MaxBufferDepth int `json:"maxBufferDepth,omitempty"`
	MaxLUTEntries  int `json:"maxLUTEntries,omitempty"`
	MaxLUTWidth    int `json:"maxLUTWidth,omitempty"`
}

// DefaultConfig returns the default configuration.
//
func DefaultConfig() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load finds and loads the configuration file.
// Search order:
//  1. ./fxsim.json
//  2. ./.fxsim.json
//  3. <root>/fxsim.json and <root>/.fxsim.json, if root is another directory
//  4. ~/.config/fxsim/config.json
//
// Returns DefaultConfig if no config file is found.
//
func Load(root string) (*Config, error) {
	cwd, _ := os.Getwd()
	paths := []string{
		filepath.Join(cwd, "fxsim.json"),
		filepath.Join(cwd, ".fxsim.json"),
	}
	if info, err := os.Stat(root); err == nil && info.IsDir() {
		if abs, _ := filepath.Abs(root); abs != cwd {
			paths = append(paths,
				filepath.Join(root, "fxsim.json"),
				filepath.Join(root, ".fxsim.json"))
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "fxsim", "config.json"))
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return DefaultConfig(), nil
}

// LoadFile loads and validates a configuration file.
//
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config file")
	}
	v, err := validator.New()
	if err != nil {
		return nil, err
	}
	if err = v.ValidateJSON(validator.Config, data); err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	var c Config
	if err = json.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(err, "parse config file")
	}
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Module == "" {
		c.Module = "fxsim"
	}
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	d := fxsim.DefaultTarget
	t := &c.Target
	if t.MulLargeUnsigned == 0 {
		t.MulLargeUnsigned = d.MulLargeUnsigned
	}
	if t.MulLargeSigned == 0 {
		t.MulLargeSigned = d.MulLargeSigned
	}
	if t.MulSmallUnsigned == 0 {
		t.MulSmallUnsigned = d.MulSmallUnsigned
	}
	if t.MulSmallSigned == 0 {
		t.MulSmallSigned = d.MulSmallSigned
	}
	if t.UnitTolerance == 0 {
		t.UnitTolerance = d.UnitTolerance
	}
	if c.COE.Radix == 0 {
		c.COE.Radix = 10
	}
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.DRC.MaxWidth == 0 {
		c.DRC.MaxWidth = 48
	}
	if c.DRC.MaxBufferDepth == 0 {
		c.DRC.MaxBufferDepth = 16
	}
	if c.DRC.MaxLUTEntries == 0 {
		c.DRC.MaxLUTEntries = 1 << 16
	}
	if c.DRC.MaxLUTWidth == 0 {
		c.DRC.MaxLUTWidth = 36
	}
}

// FxTarget returns the synthesis target described by the configuration.
// Its multiplier widths apply to Context.Mul; the Signal operator methods
// always use fxsim.DefaultTarget.
//
func (c *Config) FxTarget() fxsim.Target {
	return fxsim.Target{
		MulLargeUnsigned: c.Target.MulLargeUnsigned,
		MulLargeSigned:   c.Target.MulLargeSigned,
		MulSmallUnsigned: c.Target.MulSmallUnsigned,
		MulSmallSigned:   c.Target.MulSmallSigned,
		UnitTolerance:    c.Target.UnitTolerance,
	}
}

// NewContext returns a build context configured for the given module name.
// An empty name selects the configured module.
//
func (c *Config) NewContext(module string) *fxsim.Context {
	if module == "" {
		module = c.Module
	}
	ctx := fxsim.NewContext(module)
	ctx.OutputDir = c.OutputDir
	ctx.Target = c.FxTarget()
	ctx.COERadix = c.COE.Radix
	return ctx
}

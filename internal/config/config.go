// Package config holds the pipeline configuration and reads it from a TOML
// file:
//
//	[compiler]
//	mode = "grammar"
//	target = "x86"
//	optimization-level = 1
//	exempt-temporaries = false
//	stop-on-error = true
//	log-level = "verbose"
//	compiler-version = ">= 1.0"
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Masterminds/semver/v3"
	"github.com/pelletier/go-toml"

	"github.com/hassan/ccompiler/internal/codegen"
	"github.com/hassan/ccompiler/internal/optimizer"
)

// Version is the compiler's own version, checked against compiler-version.
const Version = "1.2.0"

// FileName is the configuration file looked for in the working directory.
const FileName = "compiler.toml"

// Front-end modes.
const (
	ModeGrammar     = "grammar"
	ModeInteractive = "interactive"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config selects how a source file is compiled.
type Config struct {
	// Mode picks the front end: the grammar parser building an AST, or the
	// interactive category analyses building a program graph.
	Mode string `toml:"mode"`

	Target            string `toml:"target"`
	OptimizationLevel int    `toml:"optimization-level"`

	// ExemptTemporaries keeps t<N> assignments out of dead-assignment
	// elimination.
	ExemptTemporaries bool `toml:"exempt-temporaries"`

	// StopOnError skips the remaining stages once one fails. When false
	// every stage runs on whatever partial output it receives.
	StopOnError bool `toml:"stop-on-error"`

	// LogLevel is silent, error, warning or verbose.
	LogLevel string `toml:"log-level"`

	// CompilerVersion is an optional semver constraint the running
	// compiler must satisfy.
	CompilerVersion string `toml:"compiler-version,omitempty"`
}

type tomlFile struct {
	Compiler Config `toml:"compiler"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Mode:              ModeGrammar,
		Target:            string(codegen.X86),
		OptimizationLevel: 1,
		StopOnError:       true,
		LogLevel:          "verbose",
	}
}

// Load reads path on top of the defaults and validates the result.
func Load(path string) (*Config, error) {
	buff, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(buff)
}

// Parse decodes TOML text on top of the defaults and validates the result.
// Keys missing from the [compiler] table keep their default values.
func Parse(buff []byte) (*Config, error) {
	tree, err := toml.LoadBytes(buff)
	if err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	var file tomlFile
	if err := tree.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg := Default()
	read := &file.Compiler
	set := func(key string) bool { return tree.Has("compiler." + key) }
	if set("mode") {
		cfg.Mode = read.Mode
	}
	if set("target") {
		cfg.Target = read.Target
	}
	if set("optimization-level") {
		cfg.OptimizationLevel = read.OptimizationLevel
	}
	if set("exempt-temporaries") {
		cfg.ExemptTemporaries = read.ExemptTemporaries
	}
	if set("stop-on-error") {
		cfg.StopOnError = read.StopOnError
	}
	if set("log-level") {
		cfg.LogLevel = read.LogLevel
	}
	if set("compiler-version") {
		cfg.CompilerVersion = read.CompilerVersion
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Encode writes c as a TOML file.
func (c *Config) Encode(w io.Writer) error {
	if err := toml.NewEncoder(w).Order(toml.OrderPreserve).Encode(&tomlFile{Compiler: *c}); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}

// Validate checks every field and normalises the target name.
func (c *Config) Validate() error {
	if c.Mode != ModeGrammar && c.Mode != ModeInteractive {
		return fmt.Errorf("%w: unknown mode %q (want %s or %s)", ErrInvalid, c.Mode, ModeGrammar, ModeInteractive)
	}

	arch, ok := codegen.ParseArch(c.Target)
	if !ok {
		return fmt.Errorf("%w: unsupported target %q", ErrInvalid, c.Target)
	}
	c.Target = string(arch)

	if c.OptimizationLevel < 0 || c.OptimizationLevel > optimizer.MaxLevel {
		return fmt.Errorf("%w: optimization level %d out of range 0..%d", ErrInvalid, c.OptimizationLevel, optimizer.MaxLevel)
	}

	if c.CompilerVersion != "" {
		constraint, err := semver.NewConstraint(c.CompilerVersion)
		if err != nil {
			return fmt.Errorf("%w: compiler-version %q: %v", ErrInvalid, c.CompilerVersion, err)
		}
		if !constraint.Check(semver.MustParse(Version)) {
			return fmt.Errorf("%w: compiler %s does not satisfy %q", ErrInvalid, Version, c.CompilerVersion)
		}
	}
	return nil
}

// Arch returns the code generation target. An unknown name is passed
// through so code generation can report it.
func (c *Config) Arch() codegen.Arch {
	if arch, ok := codegen.ParseArch(c.Target); ok {
		return arch
	}
	return codegen.Arch(c.Target)
}

// OptimizerOptions returns the optimizer settings.
func (c *Config) OptimizerOptions() optimizer.Options {
	return optimizer.Options{
		Level:             c.OptimizationLevel,
		ExemptTemporaries: c.ExemptTemporaries,
	}
}

package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hassan/ccompiler/internal/codegen"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v, want nil", err)
	}
	if cfg.Mode != ModeGrammar {
		t.Errorf("Mode = %q, want %q", cfg.Mode, ModeGrammar)
	}
	if cfg.Arch() != codegen.X86 {
		t.Errorf("Arch() = %v, want %v", cfg.Arch(), codegen.X86)
	}
	if cfg.OptimizationLevel != 1 {
		t.Errorf("OptimizationLevel = %d, want 1", cfg.OptimizationLevel)
	}
	if !cfg.StopOnError {
		t.Error("Expected StopOnError by default")
	}
}

func TestParse(t *testing.T) {
	src := `
[compiler]
mode = "interactive"
target = "amd64"
optimization-level = 3
stop-on-error = false
`
	cfg, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := &Config{
		Mode:              ModeInteractive,
		Target:            string(codegen.X86_64),
		OptimizationLevel: 3,
		StopOnError:       false,
		LogLevel:          "verbose",
	}
	if !reflect.DeepEqual(cfg, want) {
		t.Errorf("Parse() = %+v, want %+v", cfg, want)
	}

	opts := cfg.OptimizerOptions()
	if opts.Level != 3 || opts.ExemptTemporaries {
		t.Errorf("OptimizerOptions() = %+v, want level 3", opts)
	}
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil) error = %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("Parse(nil) = %+v, want defaults", cfg)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"mode", "[compiler]\nmode = \"batch\""},
		{"target", "[compiler]\ntarget = \"mips\""},
		{"negative level", "[compiler]\noptimization-level = -1"},
		{"level too high", "[compiler]\noptimization-level = 4"},
		{"version not satisfied", "[compiler]\ncompiler-version = \">= 2.0\""},
		{"bad constraint", "[compiler]\ncompiler-version = \"not a version\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("Parse() error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestParse_Syntax(t *testing.T) {
	_, err := Parse([]byte("[compiler\nmode = "))
	if err == nil {
		t.Fatal("Expected a decoding error")
	}
	if errors.Is(err, ErrInvalid) {
		t.Errorf("syntax error %v should not be ErrInvalid", err)
	}
}

func TestValidate_CompilerVersion(t *testing.T) {
	for _, c := range []string{">= 1.0", "~1.2", "^1", "1.2.0"} {
		cfg := Default()
		cfg.CompilerVersion = c
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() with %q = %v, want nil", c, err)
		}
	}
}

func TestEncode(t *testing.T) {
	cfg := Default()
	cfg.Target = string(codegen.ARM)
	cfg.OptimizationLevel = 2
	cfg.ExemptTemporaries = true
	cfg.CompilerVersion = ">= 1.0"

	var buff bytes.Buffer
	if err := cfg.Encode(&buff); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	got, err := Parse(buff.Bytes())
	if err != nil {
		t.Fatalf("Parse(Encode()) error = %v\n%s", err, buff.String())
	}
	if !reflect.DeepEqual(got, cfg) {
		t.Errorf("Parse(Encode()) = %+v, want %+v", got, cfg)
	}
}

func TestLoad(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), FileName)); err == nil {
		t.Error("Expected an error loading a missing file")
	}

	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte("[compiler]\ntarget = \"arm\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Arch() != codegen.ARM {
		t.Errorf("Arch() = %v, want %v", cfg.Arch(), codegen.ARM)
	}
}

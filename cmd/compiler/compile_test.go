package main

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	cli "github.com/urfave/cli/v2"

	"github.com/hassan/ccompiler/internal/pipeline"
)

const program = "int main() {\n    int x = 2 + 3;\n    return x;\n}\n"

func TestJobLimit(t *testing.T) {
	tests := []struct {
		jobs int
		want int
	}{
		{4, 4},
		{1, 1},
		{0, runtime.NumCPU()},
		{-3, runtime.NumCPU()},
	}

	for _, tt := range tests {
		if got := jobLimit(tt.jobs); got != tt.want {
			t.Errorf("jobLimit(%d) = %d, want %d", tt.jobs, got, tt.want)
		}
	}
}

func testApp() *cli.App {
	return &cli.App{
		Name: "ccompiler",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config"},
			&cli.StringFlag{Name: "log-level"},
		},
		Commands:       []*cli.Command{buildCommand()},
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

func TestBuildCommand_Jobs(t *testing.T) {
	for _, jobs := range []string{"0", "-1", "2"} {
		t.Run("jobs "+jobs, func(t *testing.T) {
			dir := t.TempDir()
			src := filepath.Join(dir, "main.c")
			if err := os.WriteFile(src, []byte(program), 0o644); err != nil {
				t.Fatal(err)
			}
			out := filepath.Join(dir, "out")
			if err := os.Mkdir(out, 0o755); err != nil {
				t.Fatal(err)
			}

			done := make(chan error, 1)
			go func() {
				done <- testApp().Run([]string{"ccompiler", "--log-level", "silent",
					"build", "--jobs", jobs, "--out-dir", out, src})
			}()

			select {
			case err := <-done:
				if err != nil {
					t.Fatalf("build --jobs %s: %v", jobs, err)
				}
			case <-time.After(10 * time.Second):
				t.Fatalf("build --jobs %s did not finish", jobs)
			}

			asm, err := os.ReadFile(filepath.Join(out, "main.s"))
			if err != nil {
				t.Fatalf("reading assembly: %v", err)
			}
			if !strings.Contains(string(asm), "main:") {
				t.Errorf("assembly =\n%s", asm)
			}
		})
	}
}

func TestAssemblyPath(t *testing.T) {
	tests := []struct {
		source string
		dir    string
		want   string
	}{
		{"prog.c", "", "prog.s"},
		{filepath.Join("src", "prog.c"), "", filepath.Join("src", "prog.s")},
		{filepath.Join("src", "prog.c"), "build", filepath.Join("build", "prog.s")},
		{"noext", "", "noext.s"},
	}

	for _, tt := range tests {
		if got := assemblyPath(tt.source, tt.dir); got != tt.want {
			t.Errorf("assemblyPath(%q, %q) = %q, want %q", tt.source, tt.dir, got, tt.want)
		}
	}
}

func TestEmitters(t *testing.T) {
	r := pipeline.Run(program, nil)
	if !r.Success() {
		t.Fatalf("Run() failed: %v", r.Diags().Messages())
	}

	tests := []struct {
		emit string
		want string
	}{
		{"tokens", "(main)"},
		{"symbols", "x"},
		{"scopes", "function:main scope"},
		{"ir", "FUNC_BEGIN main"},
		{"asm", "main:"},
	}
	for _, tt := range tests {
		t.Run(tt.emit, func(t *testing.T) {
			if got := emitters[tt.emit](r); !strings.Contains(got, tt.want) {
				t.Errorf("--emit %s =\n%s\nwant it to contain %q", tt.emit, got, tt.want)
			}
		})
	}
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sanity-io/litter"
	cli "github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hassan/ccompiler/internal/config"
	"github.com/hassan/ccompiler/internal/logging"
	"github.com/hassan/ccompiler/internal/pipeline"
)

// emitters select which stage output compile prints.
var emitters = map[string]func(r *pipeline.Report) string{
	"tokens":    func(r *pipeline.Report) string { return r.Tokens.Output },
	"elements":  func(r *pipeline.Report) string { return r.Syntax.Output },
	"symbols":   func(r *pipeline.Report) string { return r.Semantics.Output },
	"scopes":    scopeTree,
	"ir":        func(r *pipeline.Report) string { return r.Intermediate.Output },
	"optimized": func(r *pipeline.Report) string { return r.Optimized.Output },
	"asm":       func(r *pipeline.Report) string { return r.Assembly.Output },
}

// scopeTree renders the symbol table scope by scope.
func scopeTree(r *pipeline.Report) string {
	if r.Semantics.Analysis == nil || r.Semantics.Analysis.Table == nil {
		return ""
	}
	return r.Semantics.Analysis.Table.Global().DebugString()
}

var dumper = litter.Options{
	HidePrivateFields: true,
	HideZeroValues:    true,
	StripPackageNames: true,
}

func compileCommand() *cli.Command {
	return &cli.Command{
		Name:      "compile",
		Usage:     "Compile one source file and print the assembly",
		ArgsUsage: "<source-file>",
		Flags: append(pipelineFlags(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "write the output to a file instead of standard output",
			},
			&cli.StringFlag{
				Name:  "emit",
				Usage: "stage output to print: tokens, elements, symbols, scopes, ir, optimized or asm",
				Value: "asm",
			},
			&cli.BoolFlag{
				Name:  "dump-ast",
				Usage: "dump the syntax tree (or the program graph elements in interactive mode)",
			},
		),
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("compile expects exactly one source file", 2)
			}
			emit, ok := emitters[c.String("emit")]
			if !ok {
				return cli.Exit(fmt.Sprintf("unknown --emit value %q", c.String("emit")), 2)
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			log := logging.New(os.Stderr, cfg.LogLevel)
			log.Header(config.Version, cfg.Target)

			r, err := compileFile(c.Args().First(), cfg, log)
			if err != nil {
				return err
			}
			if c.Bool("dump-ast") {
				if r.Syntax.File != nil {
					fmt.Fprintln(os.Stdout, dumper.Sdump(r.Syntax.File))
				} else {
					fmt.Fprintln(os.Stdout, dumper.Sdump(r.Syntax.Elements))
				}
			}

			if out := emit(r); out != "" {
				if err := writeOutput(c.String("output"), out); err != nil {
					return err
				}
			}
			if !log.Finish() {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

func tokensCommand() *cli.Command {
	return &cli.Command{
		Name:      "tokens",
		Usage:     "Print the token list of a source file",
		ArgsUsage: "<source-file>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("tokens expects exactly one source file", 2)
			}
			path := c.Args().First()
			source, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading source: %w", err)
			}

			log := logging.New(os.Stderr, c.String("log-level"))
			toks := pipeline.New(string(source), path, nil).Lex()
			log.ReportAll(path, toks.Diags)
			fmt.Print(toks.Output)
			if !log.Finish() {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

func buildCommand() *cli.Command {
	return &cli.Command{
		Name:      "build",
		Usage:     "Compile several source files concurrently, writing <name>.s beside each",
		ArgsUsage: "<source-file>...",
		Flags: append(pipelineFlags(),
			&cli.StringFlag{
				Name:  "out-dir",
				Usage: "directory for the assembly files",
			},
			&cli.IntFlag{
				Name:  "jobs",
				Usage: "maximum number of files compiled at once",
				Value: runtime.NumCPU(),
			},
		),
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return cli.Exit("build expects at least one source file", 2)
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			log := logging.New(os.Stderr, cfg.LogLevel)
			log.Header(config.Version, cfg.Target)

			var g errgroup.Group
			g.SetLimit(jobLimit(c.Int("jobs")))
			for _, path := range c.Args().Slice() {
				path := path
				g.Go(func() error {
					r, err := compileFile(path, cfg, log)
					if err != nil {
						log.Error("Build Error", err)
						return nil
					}
					if !r.Assembly.Ok() {
						return nil
					}
					return writeOutput(assemblyPath(path, c.String("out-dir")), r.Assembly.Output)
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			if !log.Finish() {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

// jobLimit turns the --jobs value into an errgroup limit. Values below 1
// mean one job per CPU.
func jobLimit(n int) int {
	if n < 1 {
		return runtime.NumCPU()
	}
	return n
}

// compileFile runs the pipeline on path and reports every stage to log.
func compileFile(path string, cfg *config.Config, log *logging.Logger) (*pipeline.Report, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading source: %w", err)
	}

	r := pipeline.New(string(source), path, cfg).Run()
	log.Info("File", path)
	summary := r.Summary()
	for i, res := range r.Results() {
		log.ReportAll(path, res.Diags)
		row := summary[i]
		log.Stage(row[0], res.Ok(), fmt.Sprintf("%s errors, %s warnings", row[2], row[3]))
	}

	if r.Assembly.Ok() && len(r.Assembly.Codegen.RegisterMap) > 0 {
		rows := make([][]string, 0, len(r.Assembly.Codegen.RegisterMap))
		for _, b := range r.Assembly.Codegen.RegisterMap {
			rows = append(rows, []string{b.Name, b.Register})
		}
		for _, s := range r.Assembly.Codegen.StackFrame {
			rows = append(rows, []string{s.Name, fmt.Sprintf("stack -%d", s.Offset)})
		}
		log.Table([]string{"Variable", "Location"}, rows)
	}
	return r, nil
}

// assemblyPath replaces the source extension with .s, optionally moving
// the file into dir.
func assemblyPath(source, dir string) string {
	name := strings.TrimSuffix(source, filepath.Ext(source)) + ".s"
	if dir != "" {
		name = filepath.Join(dir, filepath.Base(name))
	}
	return name
}

func writeOutput(path, text string) error {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if path == "" {
		_, err := fmt.Print(text)
		return err
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

// Package main provides the compiler entry point.
//
// The compile command runs the full pipeline on one source file:
// 1. Lexical Analysis (tokenization)
// 2. Syntax Analysis (AST or program graph)
// 3. Semantic Analysis (symbol table, type checking)
// 4. Intermediate Code Generation (three-address code and CFG)
// 5. Optimization (levels 0 to 3)
// 6. Code Generation (x86, x86_64 or ARM assembly text)
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	cli "github.com/urfave/cli/v2"

	"github.com/hassan/ccompiler/internal/config"
	"github.com/hassan/ccompiler/internal/logging"
)

func main() {
	app := &cli.App{
		Name:    "ccompiler",
		Usage:   "Compile a C subset to illustrative assembly",
		Version: config.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "configuration file (default: ./" + config.FileName + " when present)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "silent, error, warning or verbose",
			},
		},
		Commands: []*cli.Command{
			compileCommand(),
			tokensCommand(),
			buildCommand(),
			watchCommand(),
			initCommand(),
			{
				Name:  "version",
				Usage: "Print the compiler version",
				Action: func(c *cli.Context) error {
					fmt.Println(config.Version)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		var exit cli.ExitCoder
		if errors.As(err, &exit) {
			os.Exit(exit.ExitCode())
		}
		logging.New(os.Stderr, "error").Error("Error", err)
		os.Exit(1)
	}
}

// pipelineFlags are shared by every command that compiles.
func pipelineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "target",
			Aliases: []string{"t"},
			Usage:   "target architecture: x86, x86_64 or ARM",
		},
		&cli.IntFlag{
			Name:    "level",
			Aliases: []string{"O"},
			Usage:   "optimization level 0 to 3",
		},
		&cli.StringFlag{
			Name:    "mode",
			Aliases: []string{"m"},
			Usage:   "front end: grammar or interactive",
		},
		&cli.BoolFlag{
			Name:  "exempt-temporaries",
			Usage: "never remove assignments to temporaries as dead",
		},
		&cli.BoolFlag{
			Name:  "stop-on-error",
			Usage: "skip the remaining stages once one fails",
			Value: true,
		},
	}
}

// loadConfig reads the configuration file, if any, and applies the flags
// set on the command line.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()

	path := c.String("config")
	if path == "" {
		if _, err := os.Stat(config.FileName); err == nil {
			path = config.FileName
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("checking for %s: %w", config.FileName, err)
		}
	}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if c.IsSet("target") {
		cfg.Target = c.String("target")
	}
	if c.IsSet("level") {
		cfg.OptimizationLevel = c.Int("level")
	}
	if c.IsSet("mode") {
		cfg.Mode = c.String("mode")
	}
	if c.IsSet("exempt-temporaries") {
		cfg.ExemptTemporaries = c.Bool("exempt-temporaries")
	}
	if c.IsSet("stop-on-error") {
		cfg.StopOnError = c.Bool("stop-on-error")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func initCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write a default " + config.FileName + " to the working directory",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "force", Usage: "overwrite an existing file"},
		},
		Action: func(c *cli.Context) error {
			if _, err := os.Stat(config.FileName); err == nil && !c.Bool("force") {
				return fmt.Errorf("%s already exists (use --force to overwrite)", config.FileName)
			}
			f, err := os.Create(config.FileName)
			if err != nil {
				return fmt.Errorf("creating config: %w", err)
			}
			defer f.Close()

			if err := config.Default().Encode(f); err != nil {
				return err
			}
			logging.New(os.Stdout, "verbose").Info("Init", "wrote "+config.FileName)
			return nil
		},
	}
}

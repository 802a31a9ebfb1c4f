package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	cli "github.com/urfave/cli/v2"

	"github.com/hassan/ccompiler/internal/config"
	"github.com/hassan/ccompiler/internal/logging"
)

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Recompile a source file every time it is saved",
		ArgsUsage: "<source-file>",
		Flags: append(pipelineFlags(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "write the assembly to a file instead of standard output",
			},
		),
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("watch expects exactly one source file", 2)
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
			defer stop()
			return watch(ctx, c.Args().First(), c.String("output"), cfg)
		},
	}
}

// watch compiles path once and again after every write until ctx is done.
// The directory is watched rather than the file so editors that save by
// renaming a temporary file are still noticed.
func watch(ctx context.Context, path, output string, cfg *config.Config) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	rebuild := func() {
		log := logging.New(os.Stderr, cfg.LogLevel)
		r, err := compileFile(path, cfg, log)
		if err != nil {
			log.Error("Watch Error", err)
		} else if r.Assembly.Ok() {
			if err := writeOutput(output, r.Assembly.Output); err != nil {
				log.Error("Watch Error", err)
			}
		}
		log.Finish()
		log.Info("Watch", "waiting for changes to "+path)
	}
	rebuild()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				rebuild()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watching %s: %w", path, err)
		}
	}
}

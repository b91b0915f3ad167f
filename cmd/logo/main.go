package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/loglang/logocore/config"
	"github.com/loglang/logocore/hal/desktop"
	"github.com/loglang/logocore/interp"
	"github.com/loglang/logocore/ioface"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "logo",
		Short: "A Logo interpreter",
		Long: `logo runs an interactive Logo REPL by default, or batch-evaluates a
saved workspace file with "logo run" / "logo load".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL()
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a logo.toml resource-budget file")

	runCmd := &cobra.Command{
		Use:   "run <file>",
		Short: "batch-evaluate a saved workspace file, then exit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFile(args[0])
		},
	}

	loadCmd := &cobra.Command{
		Use:   "load <file>",
		Short: "load a saved workspace file, then drop into the REPL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return loadThenREPL(args[0])
		},
	}

	root.AddCommand(runCmd, loadCmd)

	if err := root.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func loadConfig() config.Config {
	if configPath == "" {
		return config.Default()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Warn("falling back to default resource budgets", "path", configPath, "error", err)
		return config.Default()
	}
	return cfg
}

func newInterpreter() *interp.Interpreter {
	reader := ioface.NewFileStream(os.Stdin)
	writer := ioface.NewFileStream(os.Stdout)
	return interp.New(interp.Options{
		Config:  loadConfig(),
		Reader:  reader,
		Writer:  writer,
		Console: desktop.NewConsole(reader, writer),
		HW:      desktop.New(),
		Storage: desktop.NewStorage(),
	})
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".logo_history"
	}
	return filepath.Join(home, ".logo_history")
}

func runREPL() error {
	in := newInterpreter()
	return in.REPL(historyPath())
}

func runFile(path string) error {
	in := newInterpreter()
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return in.LoadFile(f)
}

func loadThenREPL(path string) error {
	in := newInterpreter()
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	if err := in.LoadFile(f); err != nil {
		f.Close()
		return fmt.Errorf("loading %s: %w", path, err)
	}
	f.Close()
	return in.REPL(historyPath())
}

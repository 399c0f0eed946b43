// Command chocopyc checks a ChocoPy program and compiles it to RISC-V assembly.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/xiaobogaga/chocopy/compiler/internal/config"
	"github.com/xiaobogaga/chocopy/compiler/internal/pipeline"
)

var (
	path       = flag.String("path", "", "the path of the chocopy source file")
	output     = flag.String("o", "", "the assembly file to write, standard output when empty")
	configPath = flag.String("config", "", "the path of a chocopyc.yaml config file")
	stopAfter  = flag.String("stop_after", "", "the last stage to run: parse, check or codegen")
	verbose    = flag.Bool("v", false, "log every compiler stage")
	color      = flag.String("color", "", "colour diagnostics: auto, always or never")
)

const (
	red   = "\033[31m"
	reset = "\033[0m"
)

func main() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	if *path == "" {
		fmt.Fprintln(os.Stderr, "chocopyc: -path is required")
		flag.Usage()
		return 2
	}
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "chocopyc: %v\n", err)
		return 2
	}
	result, err := pipeline.NewCompiler(cfg, os.Stderr).CompileFile(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", *path, err)
		return 1
	}
	if result.Failed() {
		useColor := colorEnabled(cfg.Color, os.Stdout)
		for _, semErr := range result.Errors.Sorted() {
			line := fmt.Sprintf("%s:%s", *path, semErr.Error())
			if useColor {
				line = red + line + reset
			}
			fmt.Println(line)
		}
		fmt.Printf("%d errors\n", result.Errors.Len())
		return 1
	}
	if result.Asm == "" {
		return 0
	}
	if err := writeOutput(cfg.Output, result.Asm); err != nil {
		fmt.Fprintf(os.Stderr, "chocopyc: %v\n", err)
		return 1
	}
	return 0
}

// loadConfig reads the config file, if any, and applies the flags on top.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadConfig(*configPath); err != nil {
			return nil, err
		}
	}
	if *output != "" {
		cfg.Output = *output
	}
	if *stopAfter != "" {
		cfg.StopAfter = *stopAfter
	}
	if *color != "" {
		cfg.Color = *color
	}
	if *verbose {
		cfg.Verbose = true
	}
	return cfg, cfg.Validate()
}

func colorEnabled(mode string, f *os.File) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// writeOutput writes asm to path, or to standard output when path is empty.
// A failed close is returned when the write succeeded.
func writeOutput(path, asm string) (err error) {
	if path == "" {
		_, err = io.WriteString(os.Stdout, asm)
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	_, err = io.WriteString(f, asm)
	return err
}

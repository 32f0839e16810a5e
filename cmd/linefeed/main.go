// Command linefeed runs .lf scripts.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	"github.com/linefeed-lang/linefeed/internal/config"
	"github.com/linefeed-lang/linefeed/internal/pipeline"
	"github.com/linefeed-lang/linefeed/internal/vm"
)

// fileConfig is the optional per-directory linefeed.yml. Flags given
// on the command line win over it.
type fileConfig struct {
	Input   string `yaml:"input"`
	Profile string `yaml:"profile"`
	Color   *bool  `yaml:"color"`
}

func loadFileConfig(scriptPath string) (*fileConfig, error) {
	path := filepath.Join(filepath.Dir(scriptPath), config.ConfigFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &fileConfig{}, nil
		}
		return nil, err
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	// Relative paths in the config resolve against the script.
	if cfg.Input != "" && !filepath.IsAbs(cfg.Input) {
		cfg.Input = filepath.Join(filepath.Dir(scriptPath), cfg.Input)
	}
	return &cfg, nil
}

func isSourceFile(path string) bool {
	for _, ext := range config.SourceFileExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func main() {
	inputFlag := flag.String("input", "", "file to read as standard input for the input() builtin")
	profileFlag := flag.String("profile", "", "write an execution profile to this SQLite database")
	disasmFlag := flag.Bool("disasm", false, "print the compiled bytecode and exit")
	colorFlag := flag.String("color", "auto", "colorize errors: auto, always, never")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: linefeed [flags] script%s\n", config.SourceFileExt)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	scriptPath := flag.Arg(0)
	if !isSourceFile(scriptPath) {
		fmt.Fprintf(os.Stderr, "linefeed: %s is not a %s file\n", scriptPath, config.SourceFileExt)
		os.Exit(2)
	}

	cfg, err := loadFileConfig(scriptPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "linefeed: %v\n", err)
		os.Exit(1)
	}
	if *inputFlag != "" {
		cfg.Input = *inputFlag
	}
	if *profileFlag != "" {
		cfg.Profile = *profileFlag
	}

	colorize := colorizeErrors(*colorFlag, cfg.Color)
	report := func(errs ...error) {
		for _, e := range errs {
			msg := e.Error()
			if colorize {
				msg = "\x1b[31m" + msg + "\x1b[0m"
			}
			fmt.Fprintln(os.Stderr, msg)
		}
	}

	source, err := os.ReadFile(scriptPath)
	if err != nil {
		report(err)
		os.Exit(1)
	}

	fn, errs := pipeline.Compile(filepath.Base(scriptPath), string(source))
	if len(errs) > 0 {
		report(errs...)
		os.Exit(1)
	}

	if *disasmFlag {
		fmt.Print(vm.Disassemble(fn))
		return
	}

	opts := []vm.Option{}
	if cfg.Input != "" {
		in, err := os.Open(cfg.Input)
		if err != nil {
			report(err)
			os.Exit(1)
		}
		defer in.Close()
		opts = append(opts, vm.WithStdin(in))
	}

	var profiler *vm.Profiler
	if cfg.Profile != "" {
		profiler = vm.NewProfiler()
		opts = append(opts, vm.WithProfiler(profiler))
	}

	machine := vm.New(opts...)
	if _, err := machine.Interpret(fn); err != nil {
		report(err)
		os.Exit(1)
	}

	if profiler != nil {
		if err := profiler.Export(cfg.Profile); err != nil {
			report(err)
			os.Exit(1)
		}
		fmt.Fprint(os.Stderr, profiler.Summary())
	}
}

func colorizeErrors(flagValue string, cfgValue *bool) bool {
	switch flagValue {
	case "always":
		return true
	case "never":
		return false
	}
	if cfgValue != nil {
		return *cfgValue
	}
	return isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
}

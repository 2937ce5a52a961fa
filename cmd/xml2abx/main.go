package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/rhythmcache/xml2abx"
)

type cliFlags struct {
	configPath      string
	cpuProfilePath  string
	memProfilePath  string
	maxDepth        int
	inPlace         bool
	collapse        bool
	resolveEntities bool
	strict          bool
	stats           bool
	force           bool
	quiet           bool
	verbose         bool
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return runWithArgs(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

func runWithArgs(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("xml2abx", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var f cliFlags
	fs.BoolVar(&f.inPlace, "i", false, "overwrite the input file with its ABX encoding")
	fs.BoolVar(&f.inPlace, "in-place", false, "overwrite the input file with its ABX encoding")
	fs.BoolVar(&f.collapse, "collapse-whitespace", false, "drop whitespace-only text and trim the rest")
	fs.BoolVar(&f.resolveEntities, "resolve-entities", false, "expand entity references in text")
	fs.BoolVar(&f.strict, "strict", false, "reject misplaced XML declarations and documents without a root")
	fs.IntVar(&f.maxDepth, "max-depth", 0, "maximum element nesting depth (0 uses default)")
	fs.StringVar(&f.configPath, "config", "", "YAML file with option defaults")
	fs.BoolVar(&f.stats, "stats", false, "print a JSON conversion report to stderr")
	fs.BoolVar(&f.force, "force", false, "write binary output to a terminal")
	fs.BoolVar(&f.quiet, "q", false, "suppress warnings")
	fs.BoolVar(&f.quiet, "quiet", false, "suppress warnings")
	fs.BoolVar(&f.verbose, "v", false, "log conversion details")
	fs.BoolVar(&f.verbose, "verbose", false, "log conversion details")
	fs.StringVar(&f.cpuProfilePath, "cpuprofile", "", "write CPU profile to file")
	fs.StringVar(&f.memProfilePath, "memprofile", "", "write memory profile to file")
	var usageErr error
	fs.Usage = func() {
		usageErr = errors.Join(
			usageErr,
			writef(stderr, "Usage: %s [options] <input.xml|-> [output.abx|-]\n\n", fs.Name()),
			writeln(stderr, "Converts an XML document to Android Binary XML."),
			writeln(stderr),
			writeln(stderr, "Options:"),
		)
		fs.PrintDefaults()
	}
	positional, err := parseArgs(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) && usageErr == nil {
			return 0
		}
		return 1
	}

	if f.configPath != "" {
		cfg, err := loadConfig(f.configPath)
		if err != nil {
			return fail(stderr, err)
		}
		cfg.apply(fs, &f)
	}

	input, output, err := paths(positional, f.inPlace)
	if err != nil {
		if writeErr := writef(stderr, "error: %v\n", err); writeErr != nil {
			return 1
		}
		fs.Usage()
		return 1
	}

	if f.cpuProfilePath != "" {
		stopCPUProfile, err := startCPUProfile(f.cpuProfilePath)
		if err != nil {
			return fail(stderr, err)
		}
		defer func() {
			if err := stopCPUProfile(); err != nil {
				_ = writef(stderr, "error stopping CPU profile: %v\n", err)
			}
		}()
	}
	if f.memProfilePath != "" {
		defer func() {
			if err := writeMemProfile(f.memProfilePath); err != nil {
				_ = writef(stderr, "error writing memory profile: %v\n", err)
			}
		}()
	}

	logger := newLogger(stderr, f.verbose)
	defer func() { _ = logger.Sync() }()

	opts := xml2abx.NewOptions().
		WithPreserveWhitespace(!f.collapse).
		WithResolveEntities(f.resolveEntities).
		WithStrict(f.strict).
		WithMaxDepth(f.maxDepth).
		WithLogger(logger)
	if f.quiet {
		opts = opts.WithWarner(xml2abx.DiscardWarnings)
	} else {
		opts = opts.WithWarner(xml2abx.NewLogWarner(logger))
	}
	conv, err := xml2abx.NewConverter(opts)
	if err != nil {
		return fail(stderr, err)
	}

	if output == "-" && !f.force && isTerminal(stdout) {
		return fail(stderr, errors.New("refusing to write binary output to a terminal (use --force)"))
	}

	stats, err := convert(ctx, conv, input, output, stdin, stdout)
	if err != nil {
		return fail(stderr, err)
	}
	if f.stats {
		report, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fail(stderr, fmt.Errorf("encode stats: %w", err))
		}
		if err := writeln(stderr, string(report)); err != nil {
			return 1
		}
	}
	return 0
}

// parseArgs parses flags placed anywhere on the command line and returns the
// positional arguments in order. Everything after "--" is positional.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		if consumed := len(args) - len(rest); consumed > 0 && args[consumed-1] == "--" {
			return append(positional, rest...), nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

func paths(args []string, inPlace bool) (string, string, error) {
	switch {
	case len(args) == 0:
		return "", "", errors.New("an input file argument is required")
	case inPlace && len(args) != 1:
		return "", "", errors.New("--in-place takes exactly one input file and no output")
	case inPlace && args[0] == "-":
		return "", "", errors.New("--in-place cannot be used with stdin")
	case inPlace:
		return args[0], args[0], nil
	case len(args) != 2:
		return "", "", errors.New("input and output arguments are required")
	}
	return args[0], args[1], nil
}

func convert(ctx context.Context, conv *xml2abx.Converter, input, output string, stdin io.Reader, stdout io.Writer) (xml2abx.Stats, error) {
	var in io.Reader = stdin
	if input != "-" {
		f, err := os.Open(input)
		if err != nil {
			return xml2abx.Stats{}, fmt.Errorf("open input %s: %w", input, err)
		}
		defer f.Close()
		in = f
	}
	if output == "-" {
		return conv.ConvertContext(ctx, in, stdout)
	}
	return writeFileAtomic(output, func(w io.Writer) (xml2abx.Stats, error) {
		return conv.ConvertContext(ctx, in, w)
	})
}

// defaultOutputPerm applies to output files that did not exist before.
const defaultOutputPerm = 0o644

// writeFileAtomic writes path through a temporary file in the same directory
// and renames it into place only when write succeeds. An existing file keeps
// its permission bits.
func writeFileAtomic(path string, write func(io.Writer) (xml2abx.Stats, error)) (stats xml2abx.Stats, err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return xml2abx.Stats{}, fmt.Errorf("create output for %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()
	perm := os.FileMode(defaultOutputPerm)
	if info, statErr := os.Stat(path); statErr == nil {
		perm = info.Mode().Perm()
	}
	if err := tmp.Chmod(perm); err != nil {
		return xml2abx.Stats{}, fmt.Errorf("chmod output for %s: %w", path, err)
	}
	stats, err = write(tmp)
	if err != nil {
		return stats, err
	}
	if err := tmp.Close(); err != nil {
		return stats, fmt.Errorf("close output for %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return stats, fmt.Errorf("replace %s: %w", path, err)
	}
	return stats, nil
}

func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(w), level)
	return zap.New(core)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func fail(stderr io.Writer, err error) int {
	_ = writef(stderr, "error: %v\n", err)
	return 1
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	_, err := fmt.Fprintln(w, args...)
	return err
}

func startCPUProfile(path string) (func() error, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create cpu profile %s: %w", path, err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		if closeErr := f.Close(); closeErr != nil {
			return nil, fmt.Errorf("start cpu profile %s: %w (close failed: %w)", path, err, closeErr)
		}
		return nil, fmt.Errorf("start cpu profile %s: %w", path, err)
	}
	return func() error {
		pprof.StopCPUProfile()
		if err := f.Close(); err != nil {
			return fmt.Errorf("close cpu profile %s: %w", path, err)
		}
		return nil
	}, nil
}

func writeMemProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create mem profile %s: %w", path, err)
	}
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		if closeErr := f.Close(); closeErr != nil {
			return fmt.Errorf("write mem profile %s: %w (close failed: %w)", path, err, closeErr)
		}
		return fmt.Errorf("write mem profile %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close mem profile %s: %w", path, err)
	}
	return nil
}

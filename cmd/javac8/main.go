// Command javac8 compiles Java 8 source files into JVM class files.
//
// Grounded on _examples/tangzhangming-nova/cmd/sola/main.go's subcommand
// dispatch shape (flag.NewFlagSet per subcommand, fs.Usage override), with
// the language-runtime concerns (i18n, run/REPL) dropped since this driver
// only ever parses and compiles, never executes.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aoki-yuta/javac8/internal/ast"
	"github.com/aoki-yuta/javac8/internal/classpath"
	"github.com/aoki-yuta/javac8/internal/codegen"
	"github.com/aoki-yuta/javac8/internal/errors"
	"github.com/aoki-yuta/javac8/internal/langserver"
	"github.com/aoki-yuta/javac8/internal/lexer"
	"github.com/aoki-yuta/javac8/internal/parser"
	"github.com/aoki-yuta/javac8/internal/pkg"
	"github.com/aoki-yuta/javac8/internal/token"
	"github.com/segmentio/encoding/json"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	switch os.Args[1] {
	case "parse":
		cmdParse(os.Args[2:])
	case "compile":
		os.Exit(cmdCompile(os.Args[2:]))
	case "lsp":
		cmdLSP(os.Args[2:])
	case "version", "-v", "--version":
		fmt.Printf("javac8 %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "javac8: unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("javac8 - a Java 8 subset to JVM bytecode compiler")
	fmt.Println()
	fmt.Println("usage:")
	fmt.Println("  javac8 parse <file>                                  print the parsed AST as JSON")
	fmt.Println("  javac8 compile [-o DIR] [-v] [--no-rt] [-config FILE] <file>...")
	fmt.Println("  javac8 lsp                                           run the editor diagnostics server")
	fmt.Println("  javac8 version")
}

func cmdParse(args []string) {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	fs.Usage = func() { fmt.Println("usage: javac8 parse <file>") }
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}

	filename := fs.Arg(0)
	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "javac8: reading %s: %v\n", filename, err)
		os.Exit(1)
	}

	p := parser.New(string(source), filename)
	file := p.Parse()
	if p.HasErrors() {
		for _, e := range p.Errors() {
			fmt.Fprintln(os.Stderr, e.Error())
		}
		os.Exit(1)
	}

	out, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "javac8: marshaling AST: %v\n", err)
		os.Exit(1)
	}
	os.Stdout.Write(out)
	fmt.Println()
}

func cmdCompile(args []string) int {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	outDir := fs.String("o", "out", "output directory for compiled class files")
	verbose := fs.Bool("v", false, "report each class file as it's written")
	noRuntime := fs.Bool("no-rt", false, "don't load the bundled runtime-classes archive")
	configPath := fs.String("config", "", "project configuration file (defaults to the nearest ancestor javac8.toml)")
	fs.Usage = func() {
		fmt.Println("usage: javac8 compile [-o DIR] [-v] [--no-rt] [-config FILE] <file>...")
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return 1
	}
	files := fs.Args()

	cfg := loadProjectConfig(*configPath, files[0])
	resolvedOutDir := *outDir
	noRT := *noRuntime
	if cfg != nil {
		if !flagWasSet(fs, "o") && cfg.Build.OutputDir != "" {
			resolvedOutDir = cfg.Build.OutputDir
		}
		noRT = noRT || cfg.Build.NoRuntime
	}

	return runCompile(files, resolvedOutDir, *verbose, noRT, cfg)
}

func flagWasSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func cmdLSP(args []string) {
	fs := flag.NewFlagSet("lsp", flag.ExitOnError)
	logPath := fs.String("log", "", "write protocol trace to this file")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	srv := langserver.NewServer(*logPath)
	if err := srv.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "javac8: lsp: %v\n", err)
		os.Exit(1)
	}
}

func loadProjectConfig(explicitPath, firstSourceFile string) *pkg.ProjectConfig {
	path := explicitPath
	if path == "" {
		path = pkg.FindConfigFile(filepath.Dir(firstSourceFile))
	}
	if path == "" {
		return nil
	}
	cfg, err := pkg.LoadConfig(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "javac8: loading %s: %v\n", path, err)
		return nil
	}
	return cfg
}

// runCompile drives the two-phase codegen pipeline across every file in
// the invocation: phase one (DeclareSignatures) runs for every unit before
// phase two (CompileBodies) runs for any of them, so a class in one file
// can refer to a class declared in another file of the same invocation.
// Each Unit registers its own declared classes into cp as it goes (see
// internal/codegen), so no separate registration step is needed here.
func runCompile(files []string, outDir string, verbose, noRT bool, cfg *pkg.ProjectConfig) int {
	cp, closeCP, err := buildClasspath(noRT, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "javac8: %v\n", err)
		return 1
	}
	defer closeCP()

	cache, err := classpath.OpenBuildCache(filepath.Join(outDir, classpath.DefaultCacheDir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "javac8: %v\n", err)
		return 1
	}

	gen := codegen.NewGenerator(cp)
	reporter := errors.NewReporter()

	type unit struct {
		path   string
		source []byte
		file   *ast.File
		u      *codegen.Unit
	}
	var units []unit

	for _, path := range files {
		source, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "javac8: reading %s: %v\n", path, err)
			return 1
		}

		l := lexer.New(string(source), path)
		l.ScanTokens()
		if l.HasErrors() {
			for _, e := range l.Errors() {
				reporter.Report(errors.New(errors.ParseError, e.Pos, e.Message))
			}
			continue
		}

		p := parser.New(string(source), path)
		file := p.Parse()
		if p.HasErrors() {
			for _, e := range p.Errors() {
				reporter.Report(errors.New(errors.ParseError, e.Pos, e.Message))
			}
			continue
		}

		units = append(units, unit{path: path, source: source, file: file, u: gen.NewUnit(file)})
	}

	if reporter.HasErrors() {
		reporter.WriteTo(os.Stderr)
		return 1
	}

	for _, un := range units {
		for _, err := range un.u.DeclareSignatures() {
			reporter.Report(toDiagnostic(err))
		}
	}
	if reporter.HasErrors() {
		reporter.WriteTo(os.Stderr)
		return 1
	}

	var classCount int
	for _, un := range units {
		classes, errs := un.u.CompileBodies()
		for _, err := range errs {
			reporter.Report(toDiagnostic(err))
		}
		if reporter.HasErrors() {
			continue
		}

		var writtenFiles []string
		for _, c := range classes {
			dest := filepath.Join(outDir, filepath.FromSlash(c.InternalName)+".class")
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				fmt.Fprintf(os.Stderr, "javac8: %v\n", err)
				return 1
			}
			if err := os.WriteFile(dest, c.Bytes, 0o644); err != nil {
				fmt.Fprintf(os.Stderr, "javac8: %v\n", err)
				return 1
			}
			writtenFiles = append(writtenFiles, dest)
			classCount++
			if verbose {
				fmt.Printf("wrote %s\n", dest)
			}
		}
		cache.Put(&classpath.CacheEntry{
			SourcePath: un.path,
			SourceHash: classpath.HashSource(un.source),
			ClassFiles: writtenFiles,
		})
	}

	if err := cache.Flush(); err != nil && verbose {
		fmt.Fprintf(os.Stderr, "javac8: cache: %v\n", err)
	}

	if reporter.HasErrors() {
		reporter.WriteTo(os.Stderr)
		return 1
	}

	if verbose {
		fmt.Printf("compiled %d class file(s) to %s\n", classCount, outDir)
	}
	return 0
}

// toDiagnostic adapts an error returned by codegen (always an
// errors.Diagnostic in practice, since that's all Unit.addErr ever
// records) to the Reporter's value type, falling back to an unpositioned
// internal-error diagnostic for anything else.
func toDiagnostic(err error) errors.Diagnostic {
	if d, ok := err.(errors.Diagnostic); ok {
		return d
	}
	return errors.New(errors.InvariantViolation, token.Position{}, err.Error())
}

func buildClasspath(noRT bool, cfg *pkg.ProjectConfig) (*classpath.Classpath, func(), error) {
	var closers []func()
	closeAll := func() {
		for _, fn := range closers {
			fn()
		}
	}

	// cp is built with a literal untyped nil when -no-rt is given, rather
	// than a nil *Archive, since classpath.Classpath.Find checks cp.rt !=
	// nil against the entrySource interface value: a typed nil pointer
	// stored in an interface is itself non-nil.
	var cp *classpath.Classpath
	if noRT {
		cp = classpath.New(nil)
	} else {
		rtPath := os.Getenv("JAVAC8_RT")
		if rtPath == "" {
			rtPath = "runtime/rt.jar"
		}
		rt, err := classpath.OpenArchive(rtPath)
		if err != nil {
			return nil, closeAll, fmt.Errorf("opening runtime archive %s: %w (use --no-rt to compile without one)", rtPath, err)
		}
		closers = append(closers, func() { rt.Close() })
		cp = classpath.New(rt)
	}

	var classpathPaths []string
	if cfg != nil {
		classpathPaths = cfg.Build.Classpath
	}
	for _, p := range classpathPaths {
		info, err := os.Stat(p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "javac8: classpath entry %s: %v\n", p, err)
			continue
		}
		if info.IsDir() {
			cp.AddEntry(classpath.OpenDir(p))
			continue
		}
		a, err := classpath.OpenArchive(p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "javac8: classpath entry %s: %v\n", p, err)
			continue
		}
		cp.AddEntry(a)
		closers = append(closers, func() { a.Close() })
	}

	return cp, closeAll, nil
}

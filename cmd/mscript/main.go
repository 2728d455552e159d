package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/funvibe/mscript/internal/config"
	"github.com/funvibe/mscript/internal/lexer"
	"github.com/funvibe/mscript/internal/parser"
	"github.com/funvibe/mscript/internal/pipeline"
	"github.com/funvibe/mscript/internal/prettyprinter"
	"github.com/funvibe/mscript/internal/utils"
	"github.com/funvibe/mscript/internal/vm"
	mscript "github.com/funvibe/mscript/pkg/embed"
)

const usage = `Usage: mscript <command> [flags] <args>

Commands:
  check  <file>                     type-check a script
  run    [-config f] [-cache db] <file> <fn> [args...]
                                    compile a script and call one of its functions
  disasm <file>                     print the bytecode of a script
  build  [-o out] <file>            compile a script to a bundle (` + config.BundleFileExt + `)
  exec   [-config f] <bundle> <fn> [args...]
                                    call a function of a compiled bundle
  fmt    <file>                     print a script in canonical form
  help                              show this message
`

var rep = newReporter()

func main() {
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(1)
		}
	}()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	opts, err := parseOptions(os.Args[2:])
	if err != nil {
		rep.fail("Error", err)
	}
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		rep.fail("Error loading config", err)
	}
	if opts.cachePath != "" {
		cfg.Cache.Path = opts.cachePath
	}
	var logPath *string
	if cfg.Log.Path != "" {
		logPath = &cfg.Log.Path
	}
	commonlog.Configure(cfg.Log.Verbosity, logPath)

	switch os.Args[1] {
	case "help", "-help", "--help":
		fmt.Print(usage)
	case "check":
		handleCheck(cfg, opts)
	case "run":
		handleRun(cfg, opts)
	case "disasm":
		handleDisasm(cfg, opts)
	case "build":
		handleBuild(cfg, opts)
	case "exec":
		handleExec(cfg, opts)
	case "fmt":
		handleFmt(opts)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
}

func requireArgs(opts options, n int, form string) {
	if len(opts.positional) < n {
		fmt.Fprintf(os.Stderr, "Usage: mscript %s\n", form)
		os.Exit(2)
	}
}

func mustSystem(cfg config.Config) *mscript.System {
	sys, err := newHostSystem(cfg, os.Stdout)
	if err != nil {
		rep.fail("Error binding natives", err)
	}
	return sys
}

func handleCheck(cfg config.Config, opts options) {
	requireArgs(opts, 1, "check <file>")
	path := opts.positional[0]
	if _, err := compileFile(mustSystem(cfg), path, config.CacheConfig{}); err != nil {
		rep.fail("Check failed", err)
	}
	fmt.Printf("%s: ok\n", path)
}

func handleRun(cfg config.Config, opts options) {
	requireArgs(opts, 2, "run [-config f] [-cache db] <file> <fn> [args...]")
	sys := mustSystem(cfg)
	prog, err := compileFile(sys, opts.positional[0], cfg.Cache)
	if err != nil {
		rep.fail("Compilation failed", err)
	}
	call(sys, prog, opts.positional[1], opts.positional[2:])
}

func handleExec(cfg config.Config, opts options) {
	requireArgs(opts, 2, "exec [-config f] <bundle> <fn> [args...]")
	data, err := os.ReadFile(opts.positional[0])
	if err != nil {
		rep.fail("Error reading bundle", err)
	}
	sys := mustSystem(cfg)
	prog, err := sys.Decode(data)
	if err != nil {
		rep.fail("Error decoding bundle", err)
	}
	call(sys, prog, opts.positional[1], opts.positional[2:])
}

// call runs fn with arguments parsed from words and prints a non-void
// result. Interrupts cancel the run.
func call(sys *mscript.System, prog *mscript.Program, fn string, words []string) {
	args, err := parseScriptArgs(prog, fn, words)
	if err != nil {
		rep.fail("Error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := sys.NewVM(prog).Run(ctx, fn, args...)
	if err != nil {
		rep.fail("Runtime error", err)
	}
	if !result.IsVoid() {
		fmt.Println(result.Inspect())
	}
}

func handleDisasm(cfg config.Config, opts options) {
	requireArgs(opts, 1, "disasm <file>")
	prog, err := compileFile(mustSystem(cfg), opts.positional[0], config.CacheConfig{})
	if err != nil {
		rep.fail("Compilation failed", err)
	}
	fmt.Print(vm.Disassemble(prog))
}

func handleBuild(cfg config.Config, opts options) {
	requireArgs(opts, 1, "build [-o out] <file>")
	path := opts.positional[0]
	out := opts.output
	if out == "" {
		out = utils.BundlePath(path)
	}

	sys := mustSystem(cfg)
	prog, err := compileFile(sys, path, config.CacheConfig{})
	if err != nil {
		rep.fail("Compilation failed", err)
	}
	data, err := sys.Encode(prog)
	if err != nil {
		rep.fail("Serialization error", err)
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		rep.fail("Error writing bundle", err)
	}
	fmt.Printf("Compiled %s -> %s\n", path, out)
}

func handleFmt(opts options) {
	requireArgs(opts, 1, "fmt <file>")
	path := opts.positional[0]
	data, err := os.ReadFile(path)
	if err != nil {
		rep.fail("Error reading source file", err)
	}
	ctx := pipeline.NewPipelineContext(string(data))
	ctx.FilePath = path
	ctx = pipeline.New(&lexer.LexerProcessor{}, &parser.ParserProcessor{}).Run(ctx)
	if err := ctx.Err(); err != nil {
		rep.fail("Parse failed", err)
	}
	out := prettyprinter.Format(ctx.AstRoot)
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	fmt.Print(out)
}

// ostw - rule script compiler
//
// Compiles rule scripts to engine instruction lists and optionally runs
// them in the bundled engine simulator.
// Uses manual argument parsing so flags accept joined values (-j4).
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/tebeka/atexit"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	ostw "github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001"
)

// version is set at build time via -ldflags.
var version = "dev"

const (
	shortUsage = "usage: ostw [-config file] [-format text|cbor|yaml] [-o file] [-rules regex] [-j N] [-run] [-d] [-v] [file ...]"
	longUsage  = `Compilation:
  -config file      load options from a TOML file
  -rules regex      compile only rules whose name matches regex
  -j N              lower N rules in parallel (default: GOMAXPROCS)

Output:
  -format name      text (default), cbor or yaml
  -o file           write the compiled program to file (default: stdout)
  -run              run the program in the engine simulator instead

Debugging arguments:
  -d                print the instruction listing to stderr
  -v                increase log verbosity (repeatable)

Other:
  -h, --help        show this help message
  -version          show ostw version and exit

With no files, the script is read from standard input.
`
)

type options struct {
	configFile string
	format     string
	outFile    string
	rules      *string
	workers    int
	run        bool
	debug      bool
	verbosity  int
	files      []string
}

func main() {
	opts := parseArgs(os.Args[1:])
	commonlog.Configure(opts.verbosity, nil)

	config := ostw.DefaultConfig()
	if opts.configFile != "" {
		c, err := ostw.LoadConfig(opts.configFile)
		if err != nil {
			errorExit(err)
		}
		config = c
	}
	if opts.rules != nil {
		config.Rules = *opts.rules
	}
	if opts.workers > 0 {
		config.Workers = opts.workers
	}

	src, err := readSource(opts.files)
	if err != nil {
		errorExit(err)
	}

	prog, err := ostw.Compile(src, config)
	if prog != nil {
		for _, d := range prog.Diagnostics() {
			fmt.Fprintf(os.Stderr, "ostw: %s\n", d)
		}
	}
	var cerr *ostw.CompileError
	if errors.As(err, &cerr) {
		atexit.Exit(1)
	}
	if err != nil {
		errorExit(err)
	}

	if opts.debug {
		fmt.Fprint(os.Stderr, prog.Disassemble())
	}

	stdout := bufio.NewWriter(os.Stdout)
	atexit.Register(func() { stdout.Flush() })

	if opts.run {
		config.Output = stdout
		if _, err := prog.Run(config); err != nil {
			errorExit(err)
		}
		atexit.Exit(0)
	}

	var out io.Writer = stdout
	if opts.outFile != "" {
		f, err := os.Create(opts.outFile)
		if err != nil {
			errorExitf("cannot create %s: %v", opts.outFile, err)
		}
		atexit.Register(func() { f.Close() })
		out = f
	}
	if err := prog.Encode(out, opts.format); err != nil {
		errorExit(err)
	}
	atexit.Exit(0)
}

//nolint:gocyclo // CLI argument parsing is inherently branchy
func parseArgs(args []string) options {
	opts := options{format: ostw.FormatText}

	value := func(i *int, flag string) string {
		if *i+1 >= len(args) {
			errorExitf("flag needs an argument: %s", flag)
		}
		*i++
		return args[*i]
	}
	workers := func(s string) int {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			errorExitf("invalid number of workers: %s", s)
		}
		return n
	}

	var i int
	for i = 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			i++
			break
		}
		if arg == "-" || !strings.HasPrefix(arg, "-") {
			break
		}

		switch arg {
		case "-config":
			opts.configFile = value(&i, arg)
		case "-format":
			opts.format = value(&i, arg)
		case "-o":
			opts.outFile = value(&i, arg)
		case "-rules":
			r := value(&i, arg)
			opts.rules = &r
		case "-j":
			opts.workers = workers(value(&i, arg))
		case "-run":
			opts.run = true
		case "-d":
			opts.debug = true
		case "-h", "--help":
			fmt.Printf("ostw %s - rule script compiler\n\n%s\n\n%s", version, shortUsage, longUsage)
			atexit.Exit(0)
		case "-version", "--version":
			fmt.Printf("ostw version %s\n", version)
			atexit.Exit(0)
		default:
			switch {
			case strings.HasPrefix(arg, "-v") && strings.Trim(arg[1:], "v") == "":
				opts.verbosity += len(arg) - 1
			case strings.HasPrefix(arg, "-j"):
				opts.workers = workers(arg[2:])
			case strings.HasPrefix(arg, "-o"):
				opts.outFile = arg[2:]
			default:
				errorExitf("flag provided but not defined: %s", arg)
			}
		}
	}

	opts.files = args[i:]
	return opts
}

// readSource concatenates the named files, or reads standard input
// when there are none.
func readSource(files []string) (string, error) {
	if len(files) == 0 || (len(files) == 1 && files[0] == "-") {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	var sb strings.Builder
	for _, f := range files {
		content, err := os.ReadFile(f)
		if err != nil {
			return "", fmt.Errorf("cannot read %s: %w", f, err)
		}
		sb.Write(content)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

// errorExitf prints formatted error message and exits with code 1
func errorExitf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "ostw: "+format+"\n", args...)
	atexit.Exit(1)
}

// errorExit prints error and exits with code 1
func errorExit(err error) {
	fmt.Fprintf(os.Stderr, "ostw: %v\n", err)
	atexit.Exit(1)
}

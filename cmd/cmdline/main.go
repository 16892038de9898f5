// Command cmdline parses command lines against a grammar file and prints the
// result tree.
//
// Usage:
//
//	cmdline [-v...] [--format json|yaml] [--log-file PATH] parse GRAMMAR [--line STRING] [-- ARGS...]
//	cmdline [-v...] [--format json|yaml] bag LINE
//	cmdline check GRAMMAR [--to yaml|toml]
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v3"

	"github.com/dzonerzy/go-cmdline/bag"
	"github.com/dzonerzy/go-cmdline/cmdline"
	cmdio "github.com/dzonerzy/go-cmdline/io"
)

// errUsage is returned when no command was given
var errUsage = errors.New("no command given")

func main() {
	os.Exit(run(os.Args, cmdio.New()))
}

// newRootParser declares the grammar of cmdline itself. Global arguments are
// finalized even when a command consumed the rest of the line.
func newRootParser() (*cmdline.Parser, error) {
	root := cmdline.New("cmdline parses command lines against a declarative grammar",
		cmdline.WithFinalizeOnCommand(true))

	if err := root.Flag("verbose", cmdline.Uint, cmdline.WithAlias("v"),
		cmdline.WithHelp("log more; repeat for parser traces")); err != nil {
		return nil, err
	}
	if err := root.Flag("help", cmdline.Bool, cmdline.WithAlias("h"),
		cmdline.WithHelp("show this help")); err != nil {
		return nil, err
	}
	if err := root.Named("format", cmdline.Enum("format", "json", "yaml"), cmdline.WithAlias("f"),
		cmdline.WithHelp("output format")); err != nil {
		return nil, err
	}
	if err := root.Named("log-file", cmdline.String,
		cmdline.WithHelp("also write the log to a rotating file")); err != nil {
		return nil, err
	}

	parse, err := root.Subcommand("parse", "p", "parse ARGS (after --) or --line against GRAMMAR")
	if err != nil {
		return nil, err
	}
	if err := parse.Positional("grammar", cmdline.String, cmdline.WithHelp("grammar file (.yaml, .yml, .json, .toml)")); err != nil {
		return nil, err
	}
	if err := parse.Named("line", cmdline.String, cmdline.WithAlias("l"),
		cmdline.WithHelp("a single command-line string split with shell rules")); err != nil {
		return nil, err
	}

	bagCmd, err := root.Subcommand("bag", "b", "read LINE without a grammar")
	if err != nil {
		return nil, err
	}
	if err := bagCmd.Positional("line", cmdline.String, cmdline.WithHelp("the command line")); err != nil {
		return nil, err
	}

	check, err := root.Subcommand("check", "c", "validate GRAMMAR and print it normalized")
	if err != nil {
		return nil, err
	}
	if err := check.Positional("grammar", cmdline.String, cmdline.WithHelp("grammar file")); err != nil {
		return nil, err
	}
	if err := check.Named("to", cmdline.Enum("format", "yaml", "toml"),
		cmdline.WithHelp("output format")); err != nil {
		return nil, err
	}
	return root, nil
}

// splitPassthrough cuts args at the first "--"
func splitPassthrough(args []string) (own, rest []string) {
	if i := slices.Index(args, "--"); i >= 0 {
		return args[:i], args[i+1:]
	}
	return args, nil
}

func run(argv []string, m *cmdio.IOManager) int {
	logger := cmdio.NewLogger(m)
	codes := cmdline.NewExitCodeManager()

	root, err := newRootParser()
	if err != nil {
		logger.Error("%v", err)
		return codes.Resolve(err)
	}

	var args []string
	if len(argv) > 0 {
		args = argv[1:]
	}
	own, rest := splitPassthrough(args)

	res, err := root.Parse(own)
	if err != nil {
		logger.Error("%v", err)
		fmt.Fprintln(m.Err(), "Run 'cmdline --help' for usage.")
		return codes.Resolve(err)
	}

	if help, _ := res.Bool("help"); help || res.Command() == "" {
		printUsage(m.Out(), m, root)
		if help {
			return 0
		}
		return codes.Resolve(&cmdline.ExitError{Code: cmdline.DefaultExitCodes().MisusageError, Err: errUsage})
	}

	var opts []cmdline.Option
	if verbose, _ := res.Uint("verbose"); verbose > 0 {
		logger.WithLevel(cmdio.LevelDebug)
		if verbose > 1 {
			opts = append(opts, cmdline.WithLogger(logger))
		}
	}
	if path, _ := res.String("log-file"); path != "" {
		rotating := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    1,
			MaxBackups: 3,
			MaxAge:     28,
		}
		defer rotating.Close()
		logger.WithTee(rotating)
	}
	format, _ := res.String("format")

	nested, _ := res.CommandResults(res.Command())
	logger.Debug("running %s", res.Command())

	switch res.Command() {
	case "parse":
		err = runParse(m.Out(), nested, rest, format, opts)
	case "bag":
		err = runBag(m.Out(), nested, format)
	case "check":
		err = runCheck(m.Out(), nested)
	}
	if err != nil {
		logger.Error("%v", err)
		return codes.Resolve(err)
	}
	return 0
}

func runParse(w io.Writer, args *cmdline.Results, rest []string, format string, opts []cmdline.Option) error {
	path, _ := args.String("grammar")
	g, err := cmdline.LoadGrammarFile(path)
	if err != nil {
		return err
	}
	p, err := g.Build(opts...)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	var res *cmdline.Results
	if line, _ := args.String("line"); line != "" {
		if len(rest) > 0 {
			return &cmdline.ParseError{
				Type:    cmdline.ErrorTypeUnexpectedToken,
				Message: "--line and arguments after -- are mutually exclusive",
				Token:   rest[0],
			}
		}
		res, err = p.ParseString(line)
	} else {
		res, err = p.Parse(rest)
	}
	if err != nil {
		return err
	}
	return render(w, res, format)
}

func runBag(w io.Writer, args *cmdline.Results, format string) error {
	line, _ := args.String("line")
	b, err := bag.Parse(line)
	if err != nil {
		return err
	}
	return render(w, b, format)
}

func runCheck(w io.Writer, args *cmdline.Results) error {
	path, _ := args.String("grammar")
	to, _ := args.String("to")
	g, err := cmdline.LoadGrammarFile(path)
	if err != nil {
		return err
	}
	if _, err := g.Build(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	data, err := g.Marshal(to)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func render(w io.Writer, v any, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
}

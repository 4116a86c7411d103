package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/malthe/chameleon-sub000/packages/compiler/src/config"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/i18n"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/ml_parser"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/template"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/util"
)

func usage() {
	fmt.Println(`chameleon-go - page template compiler
Usage: chameleon-go <command> [args]

Commands:
  render [flags] <file> [bindings.json]   Render a template
  tokens <file>                           List the tokens of a template
  macros <file>                           List the macros of a template
  help                                    Show help

Render flags:
  -config <file>   JSON file with compiler settings
  -lang <code>     target language
  -domain <name>   translation domain
  -po <file>       PO file with translations for -lang and -domain
  -debug           list the bindings in error reports
  -v               log compiler activity to stderr`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	var err error
	switch os.Args[1] {
	case "help":
		usage()
	case "render":
		err = render(os.Args[2:], os.Stdout)
	case "tokens":
		err = withFile(os.Args[2:], func(path string) error { return tokens(path, os.Stdout) })
	case "macros":
		err = withFile(os.Args[2:], func(path string) error { return macros(path, os.Stdout) })
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s error: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func withFile(args []string, fn func(path string) error) error {
	if len(args) != 1 {
		return errors.New("expected one template file")
	}
	return fn(args[0])
}

// fileLoader loads templates relative to a directory
type fileLoader struct {
	root string
}

func (l fileLoader) Load(name string) (*template.Source, error) {
	filename := filepath.Join(l.root, filepath.FromSlash(name))
	data, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &template.NotFoundError{Name: name}
	}
	if err != nil {
		return nil, err
	}
	return &template.Source{Name: filepath.ToSlash(name), Filename: filename, Text: string(data)}, nil
}

func render(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	lang := fs.String("lang", "", "target language")
	domain := fs.String("domain", "", "translation domain")
	po := fs.String("po", "", "PO file with translations")
	debug := fs.Bool("debug", false, "list the bindings in error reports")
	verbose := fs.Bool("v", false, "log compiler activity to stderr")
	configFile := fs.String("config", "", "JSON file with compiler settings")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		return errors.New("expected a template file and an optional bindings file")
	}

	var opts []config.CompilerConfigOption
	if *configFile != "" {
		fc, err := config.ParseConfigFile(*configFile)
		if err != nil {
			return err
		}
		opts = append(opts, fc.Options()...)
	}
	// flags given on the command line override the config file
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "lang":
			opts = append(opts, config.WithTargetLanguage(*lang))
		case "domain":
			opts = append(opts, config.WithDomain(*domain))
		case "debug":
			opts = append(opts, config.WithDebug(*debug))
		}
	})
	if *verbose {
		opts = append(opts, config.WithConsole(util.NewSlogConsole(slog.New(slog.NewTextHandler(os.Stderr, nil)))))
	}
	cfg := config.NewCompilerConfig(opts...)
	if *po != "" {
		catalog, err := loadCatalog(*po, cfg.Domain, cfg.TargetLanguage, cfg.Console)
		if err != nil {
			return err
		}
		cfg.Translate = catalog.Translate
	}

	bindings := map[string]any{}
	if fs.NArg() == 2 {
		data, err := os.ReadFile(fs.Arg(1))
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, &bindings); err != nil {
			return fmt.Errorf("bindings: %w", err)
		}
	}

	path := fs.Arg(0)
	loader := fileLoader{root: filepath.Dir(path)}
	tmpl, err := template.Load(loader, filepath.Base(path), template.WithConfig(cfg))
	if err != nil {
		return err
	}
	result, err := tmpl.Render(bindings)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, result)
	return err
}

func loadCatalog(path, domain, lang string, console util.Console) (*i18n.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	catalog := i18n.NewCatalog(console)
	if err := catalog.ParsePO(f, domain, lang); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return catalog, nil
}

func tokens(path string, w io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	for _, tok := range ml_parser.Tokenize(string(data), path) {
		line, col := tok.Location()
		fmt.Fprintf(w, "%d:%d\t%s\t%q\n", line, col, tok.Kind, tok.Value)
	}
	return nil
}

func macros(path string, w io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	names, err := template.New(path, string(data)).Macros()
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(w, name)
	}
	return nil
}

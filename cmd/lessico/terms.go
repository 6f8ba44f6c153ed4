// CLAUDE:SUMMARY CLI subcommands that create tables and feed terms into them (init, check, add, exists, import).
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hazyhaar/lessico/pkg/dict"
	"github.com/hazyhaar/lessico/pkg/wordlist"
)

func cmdInit(args []string, stdout io.Writer) error {
	var cf commonFlags
	fs := newFlagSet("init", &cf)
	fields := fs.String("fields", "", "comma-separated header (default: the standard vocabulary columns)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	a, err := newApp(cf)
	if err != nil {
		return err
	}
	defer a.close()
	l, err := a.ledger()
	if err != nil {
		return err
	}

	var header []string
	if *fields != "" {
		for _, f := range strings.Split(*fields, ",") {
			header = append(header, strings.TrimSpace(f))
		}
	}
	created, err := l.Init(header)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(stdout, "created %s\n", l.Spec().Path)
	} else {
		fmt.Fprintf(stdout, "exists %s (left untouched)\n", l.Spec().Path)
	}
	return nil
}

func cmdCheck(args []string, stdout io.Writer) error {
	var cf commonFlags
	fs := newFlagSet("check", &cf)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return dict.ValidationErr("term", "", "usage: lessico check [-table t] <term>...")
	}
	a, err := newApp(cf)
	if err != nil {
		return err
	}
	defer a.close()
	l, err := a.ledger()
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()
	for _, term := range fs.Args() {
		res, err := l.Check(ctx, term)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s\t%s\n", status(res.Added), res.Term)
	}
	return nil
}

func cmdAdd(args []string, stdout io.Writer) error {
	var cf commonFlags
	fs := newFlagSet("add", &cf)
	column := fs.String("column", "", "target column (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return dict.ValidationErr("term", "", "usage: lessico add -column <name> [-table t] <term>...")
	}
	a, err := newApp(cf)
	if err != nil {
		return err
	}
	defer a.close()
	l, err := a.ledger()
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()
	for _, term := range fs.Args() {
		res, err := l.AddTerm(ctx, *column, term)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s\t%s\t%s\n", status(res.Added), res.Column, res.Term)
	}
	return nil
}

func cmdExists(args []string, stdout io.Writer) error {
	var cf commonFlags
	fs := newFlagSet("exists", &cf)
	column := fs.String("column", "", "column to search (default: the English key)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return dict.ValidationErr("value", "", "usage: lessico exists [-column name] [-table t] <value>")
	}
	a, err := newApp(cf)
	if err != nil {
		return err
	}
	defer a.close()
	l, err := a.ledger()
	if err != nil {
		return err
	}
	col := *column
	if col == "" {
		col = l.Spec().EnglishKey
	}

	ctx, stop := signalContext()
	defer stop()
	found, err := l.Exists(ctx, col, fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, found)
	return nil
}

func cmdImport(args []string, stdout io.Writer) error {
	var cf commonFlags
	fs := newFlagSet("import", &cf)
	format := fs.String("format", "lines", "word list format")
	column := fs.String("column", "", "target column (default: the English key)")
	source := fs.String("source-column", "", "column to read from a csv word list (default: -column)")
	delim := fs.String("delimiter", ",", "field delimiter of a csv word list")
	list := fs.Bool("list", false, "list the available formats")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *list {
		fmt.Fprintln(stdout, "Formats:")
		for _, f := range wordlist.All() {
			fmt.Fprintf(stdout, "  %-8s %s\n", f.ID(), f.Description())
		}
		return nil
	}
	if fs.NArg() != 1 {
		return dict.ValidationErr("file", "", "usage: lessico import [-format lines|csv] [-column name] [-table t] <file|->")
	}
	wf, err := wordlist.Get(*format)
	if err != nil {
		return err
	}
	if len([]rune(*delim)) != 1 {
		return dict.ValidationErr("delimiter", *delim, "must be a single character")
	}

	a, err := newApp(cf)
	if err != nil {
		return err
	}
	defer a.close()
	l, err := a.ledger()
	if err != nil {
		return err
	}
	target := *column
	if target == "" {
		target = l.Spec().EnglishKey
	}
	from := *source
	if from == "" {
		from = target
	}

	terms, err := readWordList(fs.Arg(0), wf, wordlist.Options{Column: from, Delimiter: []rune(*delim)[0]})
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()
	res, err := l.Import(ctx, target, terms)
	for _, r := range res.Results {
		switch {
		case r.Error != "":
			fmt.Fprintf(stdout, "invalid\t%q\t%s\n", r.Term, r.Error)
		case r.Added:
			fmt.Fprintf(stdout, "added\t%s\n", r.Term)
		}
	}
	fmt.Fprintf(stdout, "%s: %d added, %d already present, %d invalid\n", res.Column, res.Added, res.Found, res.Invalid)
	if res.Backup != "" {
		fmt.Fprintf(stdout, "backup: %s\n", res.Backup)
	}
	return err
}

func readWordList(path string, f wordlist.Format, opts wordlist.Options) ([]string, error) {
	if path == "-" {
		return f.Read(os.Stdin, opts)
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, dict.ValidationErr("file", path, "word list not found")
		}
		return nil, dict.IOErr("open", path, err)
	}
	defer file.Close()
	return f.Read(file, opts)
}

func status(added bool) string {
	if added {
		return "added"
	}
	return "found"
}

// meridian-term checks and renders term fixtures.
// Flags:
//
//	-in       fixture path (JSONC term form); required except with -version
//	-print    render the term with binder names
//	-debruijn render the term in raw de Bruijn form
//	-hash     print the term's content digest
//	-verify   re-verify the scope invariants after construction
//	-watch    keep running and re-check the fixture on every write
//	-json     machine-readable diagnostics
//
// A fixture whose scope arithmetic is inconsistent exits 1 with the
// failure kind named.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/meridian-lang/meridian/internal/cli"
	"github.com/meridian-lang/meridian/internal/codec"
	"github.com/meridian-lang/meridian/internal/pretty"
	"github.com/meridian-lang/meridian/internal/term"
)

type options struct {
	in       string
	print    bool
	debruijn bool
	hash     bool
	verify   bool
	watch    bool
	jsonOut  bool
}

type report struct {
	Path      string `json:"path"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
	FreeVars  int    `json:"free_vars,omitempty"`
	FreeTypes int    `json:"free_types,omitempty"`
	Digest    string `json:"digest,omitempty"`
	Rendered  string `json:"rendered,omitempty"`
}

func main() {
	var (
		opts        options
		showVersion bool
		verbose     bool
		debug       bool
		configPath  string
	)

	flag.StringVar(&opts.in, "in", "", "term fixture to check (JSONC)")
	flag.BoolVar(&opts.print, "print", false, "render the term with binder names")
	flag.BoolVar(&opts.debruijn, "debruijn", false, "render the term in raw de Bruijn form")
	flag.BoolVar(&opts.hash, "hash", false, "print the term's content digest")
	flag.BoolVar(&opts.verify, "verify", false, "re-verify scope invariants after construction")
	flag.BoolVar(&opts.watch, "watch", false, "re-check the fixture on every write")
	flag.BoolVar(&opts.jsonOut, "json", false, "machine-readable diagnostics")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.BoolVar(&verbose, "verbose", false, "verbose logging")
	flag.BoolVar(&debug, "debug", false, "debug logging")
	flag.StringVar(&configPath, "config", "", "config file path")
	flag.Parse()

	if showVersion {
		cli.PrintVersion("meridian-term", opts.jsonOut)
		return
	}

	if _, err := cli.LoadConfig(configPath); err != nil {
		cli.ExitWithError("%v", err)
	}

	if opts.in == "" {
		cli.ExitWithError("missing -in fixture path")
	}

	log := cli.NewLogger(verbose, debug)

	if opts.watch {
		watchLoop(opts, log)
		return
	}

	if !check(opts, log) {
		os.Exit(1)
	}
}

// check runs one pass over the fixture and reports the outcome.
// Returns false when the fixture is rejected.
func check(opts options, log *cli.Logger) bool {
	rep := report{Path: opts.in}

	e, err := codec.ReadTermFixture(opts.in)
	if err != nil {
		rep.Error = err.Error()

		var se *term.ScopeError
		if errors.As(err, &se) {
			rep.ErrorKind = se.Kind.String()
		}

		emit(rep, opts.jsonOut)

		return false
	}

	rep.OK = true
	rep.FreeVars = e.FreeVars()
	rep.FreeTypes = e.FreeTypes()

	if opts.verify {
		if err := term.Verify(e); err != nil {
			rep.OK = false
			rep.Error = err.Error()
			emit(rep, opts.jsonOut)

			return false
		}

		log.Debug("verified %s", opts.in)
	}

	if opts.hash {
		digest, err := codec.TermDigest(e)
		if err != nil {
			rep.OK = false
			rep.Error = err.Error()
			emit(rep, opts.jsonOut)

			return false
		}

		rep.Digest = digest.String()
	}

	if opts.print || opts.debruijn {
		p := pretty.Printer{DeBruijn: opts.debruijn}
		rep.Rendered = p.Term(e)
	}

	emit(rep, opts.jsonOut)

	return true
}

func emit(rep report, jsonOut bool) {
	if jsonOut {
		data, err := json.Marshal(rep)
		if err != nil {
			cli.ExitWithError("%v", err)
		}

		fmt.Println(string(data))

		return
	}

	if !rep.OK {
		fmt.Fprintf(os.Stderr, "%s: %s\n", rep.Path, rep.Error)
		return
	}

	fmt.Printf("%s: ok (free vars %d, free types %d)\n", rep.Path, rep.FreeVars, rep.FreeTypes)

	if rep.Digest != "" {
		fmt.Println(rep.Digest)
	}

	if rep.Rendered != "" {
		fmt.Println(rep.Rendered)
	}
}

// watchLoop re-checks the fixture whenever its file is written.
// Editors replace files on save, so the watch is on the directory
// and events are filtered by name.
func watchLoop(opts options, log *cli.Logger) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		cli.ExitWithError("%v", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(opts.in)
	if err := watcher.Add(dir); err != nil {
		cli.ExitWithError("watch %s: %v", dir, err)
	}

	target, err := filepath.Abs(opts.in)
	if err != nil {
		cli.ExitWithError("%v", err)
	}

	check(opts, log)
	log.Info("watching %s", opts.in)

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}

			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			evPath, err := filepath.Abs(ev.Name)
			if err != nil || evPath != target {
				continue
			}

			log.Debug("change event %v", ev)
			check(opts, log)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}

			log.Error("watch: %v", err)
		}
	}
}

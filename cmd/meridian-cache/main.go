// meridian-cache manages a content-addressed store of validated
// terms.
// Flags:
//
//	-store    store root (defaults from config)
//	-put      fixture to validate and store; prints the digest
//	-get      digest to load; prints the rendered term
//	-scan     integrity sweep over every stored object
//	-compress compression for new objects: none, lz4, zstd
package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/meridian-lang/meridian/internal/cli"
	"github.com/meridian-lang/meridian/internal/codec"
	"github.com/meridian-lang/meridian/internal/pretty"
	"github.com/meridian-lang/meridian/internal/store"
)

func main() {
	var (
		storeDir    string
		putPath     string
		getDigest   string
		scan        bool
		compression string
		showVersion bool
		verbose     bool
		debug       bool
		configPath  string
	)

	flag.StringVar(&storeDir, "store", "", "store root directory")
	flag.StringVar(&putPath, "put", "", "fixture to validate and store")
	flag.StringVar(&getDigest, "get", "", "digest to load")
	flag.BoolVar(&scan, "scan", false, "integrity sweep over every stored object")
	flag.StringVar(&compression, "compress", "", "compression for new objects: none, lz4, zstd")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.BoolVar(&verbose, "verbose", false, "verbose logging")
	flag.BoolVar(&debug, "debug", false, "debug logging")
	flag.StringVar(&configPath, "config", "", "config file path")
	flag.Parse()

	if showVersion {
		cli.PrintVersion("meridian-cache", false)
		return
	}

	config, err := cli.LoadConfig(configPath)
	if err != nil {
		cli.ExitWithError("%v", err)
	}

	if storeDir == "" {
		storeDir = config.StoreDir
	}

	if compression == "" {
		compression = config.Compression
	}

	log := cli.NewLogger(verbose, debug)

	s, err := store.Open(storeDir)
	if err != nil {
		cli.ExitWithError("%v", err)
	}

	log.Debug("store open at %s", s.Root())

	switch {
	case putPath != "":
		tag, err := store.ParseCompressionTag(compression)
		if err != nil {
			cli.ExitWithError("%v", err)
		}

		e, err := codec.ReadTermFixture(putPath)
		if err != nil {
			cli.ExitWithError("%v", err)
		}

		digest, err := s.Put(e, tag)
		if err != nil {
			cli.ExitWithError("%v", err)
		}

		log.Info("stored %s (%s)", putPath, tag)
		fmt.Println(digest)

	case getDigest != "":
		digest, err := codec.ParseDigest(getDigest)
		if err != nil {
			cli.ExitWithError("%v", err)
		}

		e, err := s.Get(digest)
		if err != nil {
			cli.ExitWithError("%v", err)
		}

		var p pretty.Printer
		fmt.Println(p.Term(e))

	case scan:
		count, err := s.Scan(context.Background())
		if err != nil {
			cli.ExitWithError("%v", err)
		}

		fmt.Printf("scanned %d objects, all consistent\n", count)

	default:
		cli.ExitWithError("nothing to do: pass one of -put, -get, -scan")
	}
}

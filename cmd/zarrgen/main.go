package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/janelia-flyem/zarrgen/convert"
	"github.com/janelia-flyem/zarrgen/reader"
	"github.com/janelia-flyem/zarrgen/storage/zarrstore"
	"github.com/janelia-flyem/zarrgen/zarrgen"
)

var (
	// Display usage if true.
	showHelp = flag.Bool("help", false, "")

	// Run in verbose mode if true.
	runVerbose = flag.Bool("verbose", false, "")

	configFile = flag.String("config", "", "")

	tileWidth  = flag.Int64("w", 0, "")
	tileHeight = flag.Int64("h", 0, "")
	factor     = flag.Int("factor", 0, "")

	dimOrder    = flag.String("dimension-order", "", "")
	scaleFormat = flag.String("scale-format-string", "", "")
	scaleArgs   = flag.String("additional-scale-format-string-args", "", "")

	workers = flag.Int("workers", 0, "")

	compression = flag.String("compress", "snappy", "")

	resume = flag.Bool("resume", false, "")
)

const helpMessage = `
zarrgen converts a multi-dimensional source image into a chunked,
multi-resolution zarr store.

Usage: zarrgen [options] input output

  where input  = source specifier; currently synthetic sources of the form
                 "fake:sizeX=512&sizeY=512&series=2&pixelType=uint16"
        output = output directory (or blob URL) for the zarr store

	-w              =number   Tile (chunk) width, default 1024 clamped to image
	-h              =number   Tile (chunk) height, default 1024 clamped to image
	-factor         =number   Downsample factor between levels, default 2

	-dimension-order       =string  Override source dimension order, e.g. "XYCZT"
	-scale-format-string   =string  Positional template for dataset paths,
	                                default "%[1]s/%[2]s" (series/level)
	-additional-scale-format-string-args  =string  CSV of extra template args,
	                                one row per series

	-workers        =number   Max concurrent chunk writes, default # CPUs
	-compress       =string   Chunk compression: "snappy" (default), "gzip", "none"
	-config         =string   TOML configuration file
	-resume         (flag)    Skip chunks already present in the store
	-verbose        (flag)    Run in verbose mode
	-help           (flag)    Show help message
`

// printUsage writes the help text verbatim; the default scale format
// contains fmt verbs that must not be expanded.
func printUsage(w io.Writer) {
	io.WriteString(w, helpMessage)
}

func main() {
	flag.Usage = func() {
		printUsage(os.Stdout)
	}
	flag.Parse()

	if *showHelp || flag.NArg() != 2 {
		flag.Usage()
		os.Exit(0)
	}
	if *runVerbose {
		zarrgen.SetLogMode(zarrgen.DebugMode)
	}

	var cfg convert.Config
	if *configFile != "" {
		fc, err := convert.LoadConfig(*configFile)
		if err != nil {
			fmt.Printf("%v\n", err)
			os.Exit(1)
		}
		cfg = fc.Conversion
		fc.Logging.SetLogger()
	}

	// Flags override the config file.
	if *tileWidth != 0 {
		cfg.TileWidth = *tileWidth
	}
	if *tileHeight != 0 {
		cfg.TileHeight = *tileHeight
	}
	if *factor != 0 {
		cfg.DownsampleFactor = *factor
	}
	if *dimOrder != "" {
		order, err := zarrgen.ParseDimOrder(*dimOrder)
		if err != nil {
			fmt.Printf("%v\n", err)
			os.Exit(1)
		}
		cfg.DimOrder = order
	}
	if *scaleFormat != "" {
		cfg.ScaleFormat = *scaleFormat
	}
	if *scaleArgs != "" {
		cfg.ScaleFormatCSV = *scaleArgs
	}
	if *workers != 0 {
		cfg.MaxWorkers = *workers
	}
	if *resume {
		cfg.SkipExisting = true
	}

	compress, err := zarrgen.CompressionByName(*compression)
	if err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}

	input, output := flag.Arg(0), flag.Arg(1)
	rdr, err := reader.ParseFake(input)
	if err != nil {
		fmt.Printf("Can't open source %q: %v\n", input, err)
		os.Exit(1)
	}
	defer rdr.Close()

	ctx := context.Background()
	store, err := zarrstore.Open(ctx, output, zarrstore.Config{
		Compression: compress,
		Checksum:    zarrgen.CRC32,
	})
	if err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	converter, err := convert.New(cfg, rdr, store)
	if err != nil {
		zarrgen.Criticalf("%v\n", err)
		os.Exit(1)
	}
	if err := converter.Run(ctx); err != nil {
		zarrgen.Criticalf("Conversion failed: %v\n", err)
		os.Exit(1)
	}
}

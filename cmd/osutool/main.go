// osutool is a CLI utility for inspecting and indexing osu! beatmaps.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/beatmap/internal/config"
	"github.com/Faultbox/beatmap/internal/index"
	"github.com/Faultbox/beatmap/internal/logger"
	"github.com/Faultbox/beatmap/internal/scan"
	"github.com/Faultbox/beatmap/pkg/beatmap"
	"github.com/Faultbox/beatmap/pkg/encoding"
	"github.com/Faultbox/beatmap/pkg/osz"
)

func main() {
	flag.Usage = printUsage
	config.ParseFlags()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	switch command {
	case "info":
		cmdInfo(args)
	case "objects", "obj":
		cmdObjects(args)
	case "ticks":
		cmdTicks(args)
	case "scan":
		cmdScan(cfg, args)
	case "index":
		cmdIndex(cfg, args)
	case "search", "find":
		cmdSearch(cfg, args)
	case "export":
		cmdExport(cfg, args)
	case "config":
		cmdConfig(cfg, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	logger.Sync()
}

func printUsage() {
	fmt.Println(`osutool - osu! beatmap utility

Usage:
  osutool [flags] <command> [args]

Commands:
  info <file.osu|set.osz>      Show metadata, difficulty and warnings
  objects <file.osu>           List hit objects with stacked positions
  ticks <file.osu> [n]         Show slider score times (all sliders or the n-th object)
  scan <dir>                   Parse every chart under dir and report failures
  index <dir>                  Scan dir and store summaries in the index
  search <term>                Search the index by artist, title, creator or difficulty
  export <file.osu>            Print the beatmap summary as YAML or JSON
  config [save]                Print the effective config, or save it

Flags:
  -config <path>   Config file (default ./config.yaml, then the user config dir)
  -debug           Enable debug logging
  -workers <n>     Parallel parses for scan and index
  -format <fmt>    Export format: yaml or json
  -db <path>       Index database path
  -log <path>      Write logs to file

Examples:
  osutool info "Songs/123 Artist - Title/Artist - Title (Mapper) [Hard].osu"
  osutool ticks chart.osu 12
  osutool -workers 8 scan ~/osu/Songs
  osutool -format json export chart.osu`)
}

// exitOnError prints err and exits when it is non-nil.
func exitOnError(err error) {
	if err == nil {
		return
	}
	logger.Sync()
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func parseChart(path string) *beatmap.Beatmap {
	bm, err := beatmap.ParseFile(path, beatmap.WithLogger(logger.Named("parser")))
	exitOnError(err)
	return bm
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: osutool info <file.osu|set.osz>")
		os.Exit(1)
	}
	path := args[0]

	if !osz.IsArchive(path) {
		bm := parseChart(path)
		audio := "missing"
		if resolved, err := encoding.ResolveAsset(bm.BasePath, bm.AudioFilename); err == nil {
			audio = resolved
		}
		printInfo(os.Stdout, bm, audio)
		return
	}

	archive, err := osz.Open(path)
	exitOnError(err)
	defer archive.Close()

	charts := archive.Beatmaps()
	fmt.Printf("Archive: %s (%d files, %d charts)\n", path, len(archive.List()), len(charts))
	for _, name := range charts {
		fmt.Printf("\n== %s ==\n", name)
		bm, err := archive.ParseBeatmap(name, beatmap.WithLogger(logger.Named("parser")))
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		audio := "missing"
		if archive.Contains(bm.AudioFilename) {
			audio = encoding.NormalizePath(bm.AudioFilename)
		}
		printInfo(os.Stdout, bm, audio)
	}
}

func cmdObjects(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: osutool objects <file.osu>")
		os.Exit(1)
	}
	printObjects(os.Stdout, parseChart(args[0]))
}

func cmdTicks(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: osutool ticks <file.osu> [n]")
		os.Exit(1)
	}
	bm := parseChart(args[0])

	if len(args) < 2 {
		for i := range bm.HitObjects {
			if bm.HitObjects[i].Slider != nil {
				printTicks(os.Stdout, i, &bm.HitObjects[i])
			}
		}
		return
	}

	n, err := strconv.Atoi(args[1])
	if err != nil || n < 0 || n >= len(bm.HitObjects) {
		fmt.Fprintf(os.Stderr, "Error: object index must be in 0..%d\n", len(bm.HitObjects)-1)
		os.Exit(1)
	}
	obj := &bm.HitObjects[n]
	if obj.Slider == nil {
		fmt.Fprintf(os.Stderr, "Error: object %d is a %s, not a slider\n", n, obj.Kind)
		os.Exit(1)
	}
	printTicks(os.Stdout, n, obj)
}

// signalContext returns a context canceled on interrupt.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// runScan parses every chart under dir and returns the results with one
// error per failed chart. Charts for other game modes are not failures.
func runScan(cfg *config.Config, dir string) ([]scan.Result, []error) {
	ctx, stop := signalContext()
	defer stop()

	s := scan.New(cfg.Scan.Workers, cfg.Scan.Pattern, logger.Named("scan"))
	results, err := s.Dir(ctx, dir)
	if results == nil {
		// walk failure or interrupt
		exitOnError(err)
	}
	return results, multierr.Errors(err)
}

func cmdScan(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	quiet := fs.Bool("q", false, "Only print failures")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: osutool scan [-q] <dir>")
		os.Exit(1)
	}

	results, errs := runScan(cfg, fs.Arg(0))
	printScan(os.Stdout, results, *quiet)

	if len(errs) > 0 {
		fmt.Fprintf(os.Stderr, "\n%d of %d charts failed:\n", len(errs), len(results))
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "  %v\n", err)
		}
		logger.Sync()
		os.Exit(2)
	}
}

func cmdIndex(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: osutool index <dir>")
		os.Exit(1)
	}

	results, errs := runScan(cfg, args[0])

	ix, err := index.Open(cfg.Index.Path, logger.Named("index"))
	exitOnError(err)
	defer ix.Close()

	n, err := ix.AddResults(context.Background(), results)
	exitOnError(err)

	fmt.Printf("Indexed %d beatmaps into %s (%d failed)\n", n, cfg.Index.Path, len(errs))
}

func cmdSearch(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: osutool search <term>")
		os.Exit(1)
	}

	ix, err := index.Open(cfg.Index.Path, logger.Named("index"))
	exitOnError(err)
	defer ix.Close()

	entries, err := ix.Search(context.Background(), args[0])
	exitOnError(err)

	printEntries(os.Stdout, entries)
	fmt.Printf("\nFound %d beatmaps matching %q\n", len(entries), args[0])
}

func cmdExport(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: osutool export <file.osu>")
		os.Exit(1)
	}

	summary := parseChart(args[0]).Summary()
	exitOnError(writeSummary(os.Stdout, cfg.Output.Format, summary))
}

// writeSummary encodes s in the given format ("yaml" or "json").
func writeSummary(w io.Writer, format string, s beatmap.Summary) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func cmdConfig(cfg *config.Config, args []string) {
	if len(args) > 0 && args[0] == "save" {
		exitOnError(cfg.Save())
		logger.Info("config saved", zap.String("dir", config.ConfigDir()))
		fmt.Printf("Saved config to %s\n", config.ConfigDir())
		return
	}

	data, err := yaml.Marshal(cfg)
	exitOnError(err)
	os.Stdout.Write(data)
}

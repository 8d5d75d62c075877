// pressuretrace - register pressure tracing tool
//
// Usage:
//
//	pressuretrace [options] trace block.mir    # forward pass, pressure at every step
//	pressuretrace [options] recede block.mir   # backward pass, pressure at every step
//	pressuretrace scan dir                     # track every *.mir file in dir concurrently
//	pressuretrace init                         # write a default regpressure.toml
//	pressuretrace serve                        # JSON-RPC pressure/compute over stdio
//
// Options are parsed before the command name.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/tangzhangming/regpressure/internal/config"
	"github.com/tangzhangming/regpressure/internal/diag"
	"github.com/tangzhangming/regpressure/internal/liveinterval"
	"github.com/tangzhangming/regpressure/internal/mir"
	"github.com/tangzhangming/regpressure/internal/mirtext"
	"github.com/tangzhangming/regpressure/internal/pressure"
	"github.com/tangzhangming/regpressure/internal/pressuresvc"
	"github.com/tangzhangming/regpressure/internal/regclass"
	"github.com/tangzhangming/regpressure/internal/report"
	"github.com/tangzhangming/regpressure/internal/runner"
	"github.com/tangzhangming/regpressure/internal/telemetry"
	"github.com/tangzhangming/regpressure/internal/termwidth"
)

const (
	version = "0.1.0"
	name    = "pressuretrace"
)

var (
	helpFlag    = flag.Bool("help", false, "show help")
	versionFlag = flag.Bool("version", false, "show version")
	variantFlag = flag.String("variant", "region", "boundary variant: region or interval")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	if *helpFlag {
		usage()
		os.Exit(0)
	}
	if *versionFlag {
		fmt.Printf("%s version %s\n", name, version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	log := telemetry.New()
	defer log.Sync() //nolint:errcheck

	cmd, cmdArgs := args[0], args[1:]
	var err error
	switch cmd {
	case "trace":
		err = runScan(cmdArgs, true)
	case "recede":
		err = runScan(cmdArgs, false)
	case "scan":
		err = runDirScan(cmdArgs, log)
	case "init":
		err = runInit()
	case "serve":
		err = runServe(log)
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "%s - register pressure tracing tool\n\n", name)
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  pressuretrace [-variant region|interval] trace block.mir")
	fmt.Fprintln(os.Stderr, "  pressuretrace [-variant region|interval] recede block.mir")
	fmt.Fprintln(os.Stderr, "  pressuretrace scan dir")
	fmt.Fprintln(os.Stderr, "  pressuretrace init")
	fmt.Fprintln(os.Stderr, "  pressuretrace serve")
	flag.PrintDefaults()
}

func runScan(args []string, forward bool) (err error) {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one block.mir argument")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	target := regclass.NewX86_64Target()
	block, err := mirtext.Parse(target, string(data))
	if err != nil {
		return &diag.Diagnostic{Code: diag.R0001, Level: diag.LevelError, Message: err.Error(), File: args[0]}
	}

	variant, oracle, err := resolveVariant(*variantFlag, block)
	if err != nil {
		return err
	}

	defer func() {
		if v := recover(); v != nil {
			err = diag.FromPanic(args[0], v)
		}
	}()

	tr := pressure.NewTracker(target, target, target, block, variant, oracle)
	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()

	if width := termwidth.Get(); width >= 40 {
		fmt.Fprintln(w, divider(width))
	}

	if forward {
		tr.Init(0)
		for i := 0; tr.Advance(); i++ {
			fmt.Fprintf(w, "step %d: max=%v\n", i, tr.Result().MaxPressure)
		}
	} else {
		tr.Init(len(block.Instrs))
		for i := 0; tr.Recede(); i++ {
			fmt.Fprintf(w, "step %d: max=%v\n", i, tr.Result().MaxPressure)
		}
	}

	fmt.Fprintf(w, "max pressure: %v\n", tr.Result().MaxPressure)
	fmt.Fprintf(w, "live-in: %v\n", tr.Result().LiveInRegs)
	fmt.Fprintf(w, "live-out: %v\n", tr.Result().LiveOutRegs)
	return nil
}

func divider(width int) string {
	b := make([]byte, width)
	for i := range b {
		b[i] = '-'
	}
	return string(b)
}

func resolveVariant(name string, block *mir.Block) (pressure.Variant, liveinterval.Oracle, error) {
	switch name {
	case "region":
		return pressure.VariantRegion, nil, nil
	case "interval":
		return pressure.VariantInterval, liveinterval.Compute(block), nil
	default:
		return 0, nil, fmt.Errorf("unknown variant %q", name)
	}
}

// runDirScan tracks every *.mir file under dir concurrently via
// internal/runner, taking the variant and worker count from regpressure.toml
// when present (the -variant flag does not apply here). Each region's
// report.Summary is stored in an in-memory cache keyed by the digest of its
// encoded form; the cache is not read back, so every file is tracked on
// every run.
func runDirScan(args []string, log *zap.Logger) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one directory argument")
	}
	dir := args[0]

	cfg := config.Default()
	if c, err := config.Load(filepath.Join(dir, config.FileName)); err == nil {
		cfg = c
	}

	variant := pressure.VariantRegion
	if cfg.Tracker.Variant == "interval" {
		variant = pressure.VariantInterval
	}

	target := regclass.NewX86_64Target()
	cache := report.NewCache()
	var regions []runner.Region

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || filepath.Ext(path) != ".mir" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		block, err := mirtext.Parse(target, string(data))
		if err != nil {
			log.Warn("skipping malformed block", zap.String("file", path), zap.Error(err))
			return nil
		}
		regions = append(regions, runner.Region{Name: path, Block: block, Variant: variant})
		return nil
	})
	if err != nil {
		return err
	}

	r := runner.New(target, target, target, cfg.Tracker.MaxConcurrentRegions)
	results, err := runner.RunAll(context.Background(), r, regions)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()

	for _, res := range results {
		if res.Err != nil {
			log.Error("region failed", zap.String("file", res.Name), zap.Error(res.Err))
			continue
		}
		summary := report.Summarize(res.Result)
		encoded, err := report.Encode(summary)
		if err != nil {
			return err
		}
		digest := report.Digest(encoded)
		cache.Put(digest, summary)
		fmt.Fprintf(w, "%s: max=%v live-in=%v live-out=%v\n", res.Name, summary.MaxPressure, summary.LiveIn, summary.LiveOut)
	}
	fmt.Fprintf(w, "tracked %d region(s), peak concurrency %d\n", len(regions), r.PeakConcurrency())
	return nil
}

// runInit writes a default regpressure.toml to the current directory.
func runInit() error {
	if _, err := os.Stat(config.FileName); err == nil {
		return fmt.Errorf("%s already exists", config.FileName)
	}
	return config.Default().Save(config.FileName)
}

func runServe(log *zap.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	srv := pressuresvc.NewServer(log)
	return srv.Run(ctx, stdioReadWriteCloser{})
}

// stdioReadWriteCloser adapts os.Stdin/os.Stdout to io.ReadWriteCloser for a
// single JSON-RPC connection.
type stdioReadWriteCloser struct{}

func (stdioReadWriteCloser) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioReadWriteCloser) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdioReadWriteCloser) Close() error                { return nil }

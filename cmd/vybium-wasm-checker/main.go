package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/profile"
	"github.com/urfave/cli/v2"

	vybiumwasmcircuits "github.com/vybium/vybium-wasm-circuits/pkg/vybium-wasm-circuits"
)

var (
	LogLevelFlag = &cli.StringFlag{
		Name:  "log.level",
		Usage: "log level: debug, info, warn or error",
		Value: "info",
	}
	PProfCPUFlag = &cli.BoolFlag{
		Name:  "pprof.cpu",
		Usage: "write a CPU profile to the working directory",
	}
	KFlag = &cli.UintFlag{
		Name:  "k",
		Usage: "log2 of the circuit rows; 0 picks the smallest that fits",
	}
	CommonRangeBitsFlag = &cli.UintFlag{
		Name:  "common-range-bits",
		Usage: "width of the common range table",
		Value: vybiumwasmcircuits.DefaultConfig().CommonRangeBits,
	}
	MaxFailuresFlag = &cli.IntFlag{
		Name:  "max-failures",
		Usage: "number of violated constraints to report; 0 reports all",
		Value: vybiumwasmcircuits.DefaultConfig().MaxFailures,
	}
	ProgramDigestFlag = &cli.StringFlag{
		Name:  "program-digest",
		Usage: "0x-prefixed Tip5 digest (5 elements) the instruction table must hash to",
	}
	OutputFlag = &cli.PathFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "output path; stdout when empty",
	}
)

func main() {
	app := &cli.App{
		Name:  "vybium-wasm-checker",
		Usage: "check WebAssembly execution traces against the table circuit",
		Flags: []cli.Flag{LogLevelFlag, PProfCPUFlag},
		Commands: []*cli.Command{
			{
				Name:      "check",
				Usage:     "check a JSON trace bundle",
				ArgsUsage: "<bundle.json>",
				Flags:     []cli.Flag{KFlag, CommonRangeBitsFlag, MaxFailuresFlag, ProgramDigestFlag, OutputFlag},
				Action:    Check,
			},
			{
				Name:   "trace",
				Usage:  "trace the demo program and write its bundle",
				Flags:  []cli.Flag{OutputFlag},
				Action: Trace,
			},
			{
				Name:   "demo",
				Usage:  "trace the demo program and check it",
				Flags:  []cli.Flag{KFlag, CommonRangeBitsFlag, MaxFailuresFlag, OutputFlag},
				Action: Demo,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "vybium-wasm-checker: ERROR:", err)
		os.Exit(1)
	}
}

// Logger builds the logfmt logger for the configured level
func Logger(w io.Writer, ctx *cli.Context) (log.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(ctx.String(LogLevelFlag.Name))); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	return log.NewLogger(log.LogfmtHandlerWithLevel(w, lvl)), nil
}

func withProfile(ctx *cli.Context) func() {
	if ctx.Bool(PProfCPUFlag.Name) {
		return profile.Start(profile.NoShutdownHook, profile.ProfilePath("."), profile.CPUProfile).Stop
	}
	return func() {}
}

func output(ctx *cli.Context) (io.WriteCloser, error) {
	path := ctx.Path(OutputFlag.Name)
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func config(ctx *cli.Context, tables *vybiumwasmcircuits.Tables) *vybiumwasmcircuits.Config {
	cfg := vybiumwasmcircuits.DefaultConfig().
		WithCommonRangeBits(ctx.Uint(CommonRangeBitsFlag.Name)).
		WithMaxFailures(ctx.Int(MaxFailuresFlag.Name)).
		WithExpectedProgramDigest(ctx.String(ProgramDigestFlag.Name))
	if k := ctx.Uint(KFlag.Name); k != 0 {
		return cfg.WithK(k)
	}
	return cfg.WithK(vybiumwasmcircuits.SizeFor(tables, cfg.CommonRangeBits))
}

func check(ctx *cli.Context, l log.Logger, tables *vybiumwasmcircuits.Tables) error {
	checker, err := vybiumwasmcircuits.NewChecker(config(ctx, tables), l)
	if err != nil {
		return err
	}
	report, err := checker.Check(ctx.Context, tables)
	if err != nil {
		return err
	}

	out, err := output(ctx)
	if err != nil {
		return err
	}
	defer out.Close()

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if !report.Accepted {
		return fmt.Errorf("trace rejected: %d constraints violated", report.TotalFailures)
	}
	return nil
}

// Check loads a bundle and checks it
func Check(ctx *cli.Context) error {
	defer withProfile(ctx)()

	if ctx.NArg() != 1 {
		return fmt.Errorf("expected exactly one bundle path")
	}
	l, err := Logger(os.Stderr, ctx)
	if err != nil {
		return err
	}

	f, err := os.Open(ctx.Args().First())
	if err != nil {
		return err
	}
	defer f.Close()

	tables, err := vybiumwasmcircuits.ReadTables(f)
	if err != nil {
		return err
	}
	l.Info("Loaded bundle", "path", ctx.Args().First(), "instructions", len(tables.Instructions), "events", len(tables.Events))
	return check(ctx, l, tables)
}

// Trace writes the demo program's bundle
func Trace(ctx *cli.Context) error {
	defer withProfile(ctx)()

	l, err := Logger(os.Stderr, ctx)
	if err != nil {
		return err
	}
	tables, err := vybiumwasmcircuits.Trace(vybiumwasmcircuits.DemoModule(), 0)
	if err != nil {
		return err
	}
	l.Info("Traced demo program", "events", len(tables.Events), "memory", len(tables.Memory), "jumps", len(tables.Jumps))

	out, err := output(ctx)
	if err != nil {
		return err
	}
	defer out.Close()
	return vybiumwasmcircuits.WriteTables(out, tables)
}

// Demo traces the demo program and checks it
func Demo(ctx *cli.Context) error {
	defer withProfile(ctx)()

	l, err := Logger(os.Stderr, ctx)
	if err != nil {
		return err
	}
	tables, err := vybiumwasmcircuits.Trace(vybiumwasmcircuits.DemoModule(), 0)
	if err != nil {
		return err
	}
	return check(ctx, l, tables)
}

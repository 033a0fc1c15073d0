// Command wake sends Wake-on-LAN magic packets.
//
// Usage:
//
//	wake [-m ADDR | -l NAME]...
//
// Targets are woken in the order given. With no target the first entry of
// the lookup file is used. Lookup names are read from MAC.config in the user
// configuration directory, one "name : address" per line.
//
// Exit codes:
//
//	0: every target was sent
//	1: a target failed, or the configuration could not be loaded
//	2: usage error
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"

	"github.com/PieterD/wake"
	"github.com/PieterD/wake/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

// batchError marks a run in which some target failed. Status lines have
// already been printed.
type batchError struct {
	err error
}

func (e *batchError) Error() string { return e.err.Error() }

func (e *batchError) Unwrap() error { return e.err }

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{
		stdout:    stdout,
		stderr:    stderr,
		newSender: newSender,
	}
	err := a.command().Run(ctx, args)
	if err == nil {
		return 0
	}
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(stderr, "wake: %v\n", usageErr)
		return 2
	}
	var batchErr *batchError
	if errors.As(err, &batchErr) {
		return 1
	}
	fmt.Fprintf(stderr, "wake: %v\n", err)
	return 1
}

func newSender(opts ...wake.SenderOption) (wake.Transmitter, error) {
	return wake.NewSender(opts...)
}

type app struct {
	stdout    io.Writer
	stderr    io.Writer
	newSender func(opts ...wake.SenderOption) (wake.Transmitter, error)
	targets   []wake.Target
}

// targetFlag appends every occurrence to a list shared by -m and -l so the
// command line order is kept.
type targetFlag struct {
	kind    wake.TargetKind
	targets *[]wake.Target
}

func (f *targetFlag) Set(s string) error {
	*f.targets = append(*f.targets, wake.Target{Kind: f.kind, Value: s})
	return nil
}

func (f *targetFlag) String() string { return "" }

func (f *targetFlag) Get() any { return *f.targets }

func (a *app) command() *cli.Command {
	return &cli.Command{
		Name:      "wake",
		Usage:     "send Wake-on-LAN magic packets",
		UsageText: "wake [-m ADDR | -l NAME]...",
		Writer:    a.stdout,
		ErrWriter: a.stderr,
		Flags: []cli.Flag{
			&cli.GenericFlag{
				Name:    "mac",
				Aliases: []string{"m"},
				Usage:   "wake the hardware address `ADDR`, format FF-FF-FF-FF-FF-FF",
				Value:   &targetFlag{kind: wake.TargetMAC, targets: &a.targets},
			},
			&cli.GenericFlag{
				Name:    "lookup",
				Aliases: []string{"l"},
				Usage:   "wake the address configured for `NAME` in the lookup file",
				Value:   &targetFlag{kind: wake.TargetLookup, targets: &a.targets},
			},
			&cli.StringFlag{
				Name:  "config-dir",
				Usage: "read MAC.config and wake.yaml from `DIR`",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "UDP port to send to",
				Value: wake.DefaultPort,
			},
			&cli.StringFlag{
				Name:  "broadcast",
				Usage: "destination `IP`",
				Value: wake.DefaultDestination.Addr().String(),
			},
			&cli.StringFlag{
				Name:  "bind",
				Usage: "local `IP` to send from, or \"auto\" for the first active interface",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log diagnostics to stderr",
			},
		},
		HideVersion: true,
		OnUsageError: func(_ context.Context, _ *cli.Command, err error, _ bool) error {
			return &usageError{err: err}
		},
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Action:         a.action,
	}
}

func (a *app) action(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Present() {
		return &usageError{err: errors.Errorf("unexpected argument '%s'", cmd.Args().First())}
	}
	log := newLogger(a.stderr, cmd.Bool("verbose"))

	dir := cmd.String("config-dir")
	if dir == "" {
		var err error
		if dir, err = config.Dir(); err != nil {
			return err
		}
	}
	path, err := config.EnsureLookupFile(dir)
	if err != nil {
		return err
	}
	table, err := config.LoadLookupTable(path)
	if err != nil {
		return err
	}
	log.V(1).Info("lookup table loaded", "path", path, "entries", table.Len())

	settings, err := config.LoadSettings(dir)
	if err != nil {
		return err
	}
	if cmd.IsSet("port") {
		settings.Port = cmd.Int("port")
	}
	if cmd.IsSet("broadcast") {
		settings.Broadcast = cmd.String("broadcast")
	}
	if cmd.IsSet("bind") {
		settings.Bind = cmd.String("bind")
	}
	opts, err := settings.SenderOptions()
	if err != nil {
		return errors.Wrapf(err, "invalid sender settings")
	}
	sender, err := a.newSender(append(opts, wake.WithLogger(log))...)
	if err != nil {
		return err
	}

	runner := &wake.Runner{
		Resolver: wake.NewResolver(table),
		Sender:   sender,
		Out:      a.stdout,
		Log:      log,
	}
	if err := runner.Run(ctx, a.targets); err != nil {
		return &batchError{err: err}
	}
	return nil
}

func newLogger(w io.Writer, verbose bool) logr.Logger {
	verbosity := 0
	if verbose {
		verbosity = 1
	}
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(w, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(w, args)
	}, funcr.Options{Verbosity: verbosity}).WithName("wake")
}

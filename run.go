package wake

import (
	"context"
	"fmt"
	"io"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Runner wakes a list of targets one after another. A failing target does
// not stop the ones after it.
type Runner struct {
	Resolver *Resolver
	Sender   Transmitter
	Out      io.Writer
	Log      logr.Logger
}

// Run processes targets in order and writes one status line per target to
// Out. With no targets the first lookup table entry is used. The returned
// error combines every per-target failure.
func (r *Runner) Run(ctx context.Context, targets []Target) error {
	if len(targets) == 0 {
		def, err := r.Resolver.Default()
		if err != nil {
			fmt.Fprintln(r.Out, "No target given and no lookup entries configured")
			return err
		}
		r.Log.V(1).Info("no target given, using first lookup entry", "name", def.Value)
		targets = []Target{def}
	}
	var errs error
	for _, target := range targets {
		if err := r.wake(ctx, target); err != nil {
			r.Log.V(1).Info("target failed", "kind", target.Kind.String(), "target", target.Value, "error", err.Error())
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func (r *Runner) wake(ctx context.Context, target Target) error {
	hw, err := r.Resolver.Resolve(target)
	if err != nil {
		var resErr *ResolutionError
		var fmtErr *FormatError
		switch {
		case errors.As(err, &resErr):
			fmt.Fprintf(r.Out, "Failed to resolve lookup target \"%s\"\n", target.Value)
		case errors.As(err, &fmtErr):
			fmt.Fprintf(r.Out, "Invalid MAC address \"%s\"\n", fmtErr.Input)
		default:
			fmt.Fprintf(r.Out, "Failed to resolve target \"%s\": %v\n", target.Value, err)
		}
		return err
	}
	if err := r.Sender.Send(ctx, hw); err != nil {
		fmt.Fprintf(r.Out, "Failed to send magic packet to MAC address \"%s\": %v\n", hw, errors.Cause(err))
		return err
	}
	fmt.Fprintf(r.Out, "Sent magic packet to MAC address \"%s\"\n", hw)
	return nil
}

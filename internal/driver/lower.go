package driver

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"val/internal/ast"
	"val/internal/emit"
	"val/internal/trace"
	"val/internal/vil"
)

// Lower lowers the module loaded under name.
//
// A module that is not type-checked yields ErrModuleNotTypeChecked and no
// IR. Recoverable emission errors are returned together with the module.
// Emission faults (*emit.InternalError, *emit.UnsupportedError) panic.
func (d *Driver) Lower(ctx context.Context, name string) (*vil.Module, error) {
	m, ok := d.Module(name)
	if !ok {
		return nil, fmt.Errorf("driver: %w: %s", ErrModuleNotFound, name)
	}
	if m.State != ast.StateTypeChecked {
		return nil, fmt.Errorf("driver: %w: %s (%s)", ErrModuleNotTypeChecked, name, m.State)
	}

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "lower:"+name, trace.CurrentSpan(ctx))
	ctx = trace.WithSpan(ctx, span)
	phase := d.Timer.Begin("lower " + name)

	note := "aborted"
	defer func() {
		d.Timer.End(phase, note)
		span.End(note)
	}()

	out, err := emit.EmitModule(ctx, m, d.Types)
	note = fmt.Sprintf("%d functions", len(out.Functions))
	return out, err
}

// LowerAll lowers the named modules, or every loaded module when names is
// empty, using up to jobs goroutines. Results are in the order of names.
// Errors of individual modules are joined; a fault raised while lowering
// one module is re-raised on the calling goroutine once all workers stop.
func (d *Driver) LowerAll(ctx context.Context, names []string, jobs int) ([]*vil.Module, error) {
	if len(names) == 0 {
		names = d.Modules()
	}
	if len(names) == 0 {
		return nil, nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	out := make([]*vil.Module, len(names))
	errs := make([]error, len(names))
	faults := make([]any, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(names)))
	for i, name := range names {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					faults[i] = r
				}
			}()
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			out[i], errs[i] = d.Lower(gctx, name)
			return nil
		})
	}
	waitErr := g.Wait()

	for _, r := range faults {
		if r != nil {
			panic(r)
		}
	}
	if waitErr != nil {
		return out, waitErr
	}
	return out, errors.Join(errs...)
}

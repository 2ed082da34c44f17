package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"val/internal/driver"
	"val/internal/emit"
	"val/internal/observ"
	"val/internal/prof"
	"val/internal/trace"
	"val/internal/vil"
)

// session carries what every lowering command shares: the config, the
// tracer attached to the command context and the optional phase timer.
type session struct {
	cmd    *cobra.Command
	cfg    *loadedConfig
	tracer trace.Tracer
	timer  *observ.Timer
	quiet  bool
}

func newSession(cmd *cobra.Command) (*session, func(), error) {
	flags := cmd.Root().PersistentFlags()
	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, nil, err
	}
	cfg, err := loadConfig(configPath, ".")
	if err != nil {
		return nil, nil, err
	}
	quiet, err := flags.GetBool("quiet")
	if err != nil {
		return nil, nil, err
	}
	timings, err := flags.GetBool("timings")
	if err != nil {
		return nil, nil, err
	}
	timingsFormat, err := flags.GetString("timings-format")
	if err != nil {
		return nil, nil, err
	}
	if timingsFormat != "text" && timingsFormat != "json" {
		return nil, nil, fmt.Errorf("invalid --timings-format value %q (must be text or json)", timingsFormat)
	}

	profiling, err := setupProfiling(cmd)
	if err != nil {
		return nil, nil, err
	}
	tracer, cleanup, err := setupTracing(cmd, cfg)
	if err != nil {
		_ = profiling.Stop()
		return nil, nil, err
	}
	s := &session{cmd: cmd, cfg: cfg, tracer: tracer, quiet: quiet}
	if timings {
		s.timer = observ.NewTimer()
	}
	done := func() {
		if s.timer != nil {
			if timingsFormat == "json" {
				_ = s.timer.WriteJSON(cmd.ErrOrStderr())
			} else {
				fmt.Fprint(cmd.ErrOrStderr(), s.timer.Summary())
			}
		}
		cleanup()
		if err := profiling.Stop(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "profile: %v\n", err)
		}
	}
	return s, done, nil
}

// setupProfiling starts the profilers selected by the persistent profiling
// flags.
func setupProfiling(cmd *cobra.Command) (*prof.Session, error) {
	flags := cmd.Root().PersistentFlags()
	var opts prof.Options
	var err error
	if opts.CPU, err = flags.GetString("cpu-profile"); err != nil {
		return nil, fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	if opts.Mem, err = flags.GetString("mem-profile"); err != nil {
		return nil, fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	if opts.Trace, err = flags.GetString("runtime-trace"); err != nil {
		return nil, fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}
	return prof.Start(opts)
}

// lowerFile loads a .valm file and lowers its module. Emission faults are
// turned into an error after the ring tracer, if any, is dumped to stderr.
func (s *session) lowerFile(path string) (out *vil.Module, err error) {
	phase := s.timer.Begin("load " + filepath.Base(path))
	d, m, err := driver.LoadFile(path)
	s.timer.End(phase, "")
	if err != nil {
		return nil, err
	}
	d.Timer = s.timer

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if !emit.IsFatal(r) {
			panic(r)
		}
		if ring, ok := trace.Ring(s.tracer); ok {
			_ = ring.Dump(s.cmd.ErrOrStderr(), trace.FormatText)
		}
		out, err = nil, fmt.Errorf("%s: internal compiler error: %v", path, r)
	}()
	return d.Lower(s.cmd.Context(), m.Name)
}

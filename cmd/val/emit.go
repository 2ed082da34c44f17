package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"val/internal/vil"
)

var (
	emitHeader bool
	emitJobs   int
	emitOutput string
)

func init() {
	emitCmd.Flags().BoolVar(&emitHeader, "header", false, "print a \"// module <name>\" line before each module")
	emitCmd.Flags().IntVar(&emitJobs, "jobs", 1, "functions printed in parallel")
	emitCmd.Flags().StringVarP(&emitOutput, "output", "o", "", "write the IR to a file instead of stdout")
}

var emitCmd = &cobra.Command{
	Use:   "emit-vil <module.valm>...",
	Short: "Lower checked modules and print their VIL",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		s, done, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer done()

		opts := vil.DumpOptions{ModuleHeader: emitHeader, Jobs: emitJobs}
		if !cmd.Flags().Changed("header") && s.cfg.IsDefined("dump", "header") {
			opts.ModuleHeader = s.cfg.Config.Dump.Header
		}
		if !cmd.Flags().Changed("jobs") && s.cfg.IsDefined("dump", "jobs") {
			opts.Jobs = s.cfg.Config.Dump.Jobs
		}

		var out io.Writer = cmd.OutOrStdout()
		if emitOutput != "" {
			f, ferr := os.Create(emitOutput)
			if ferr != nil {
				return ferr
			}
			defer func() {
				if cerr := f.Close(); cerr != nil && err == nil {
					err = cerr
				}
			}()
			out = f
		}
		w := bufio.NewWriter(out)
		defer func() {
			if ferr := w.Flush(); ferr != nil && err == nil {
				err = ferr
			}
		}()

		var errs []error
		for _, path := range args {
			m, lerr := s.lowerFile(path)
			if m == nil {
				errs = append(errs, lerr)
				continue
			}
			phase := s.timer.Begin("dump " + m.Name)
			derr := vil.DumpModule(w, m, opts)
			s.timer.End(phase, "")
			if derr != nil {
				return fmt.Errorf("%s: %w", path, derr)
			}
			if lerr != nil {
				errs = append(errs, lerr)
			}
		}
		return errors.Join(errs...)
	},
}

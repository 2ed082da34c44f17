package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"val/internal/vil"
)

var checkCmd = &cobra.Command{
	Use:   "check <module.valm>...",
	Short: "Lower checked modules and validate the resulting VIL",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, done, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer done()

		ok := color.New(color.FgGreen, color.Bold).Sprint("ok")
		var errs []error
		for _, path := range args {
			m, err := s.lowerFile(path)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if err := vil.Validate(m); err != nil {
				errs = append(errs, fmt.Errorf("%s: invalid VIL: %w", path, err))
				continue
			}
			if !s.quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %d functions, %d witness tables\n",
					ok, m.Name, len(m.Functions), len(m.WitnessTables))
			}
		}
		return errors.Join(errs...)
	},
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"colsplit/internal/config"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and exit",
		Long: `validate loads the configuration the same way run does (file, COLSPLIT_*
environment variables, flags) and reports every problem it finds.
Warnings do not fail validation.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.load()
			if err != nil {
				return err
			}
			issues := config.Validate(*cfg)
			for _, iss := range issues {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
			}
			if err := config.Err(issues); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "configuration is valid")
			return nil
		},
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd(o *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the config file and exit non-zero on errors",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := o.validConfig(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration is valid: %s\n", o.configPath)
			return nil
		},
	}
}

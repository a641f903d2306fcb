// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that a converter binary can be found and show the settings in effect",
	Long: `Doctor resolves the soffice binary the same way convert does and prints
the effective configuration. It exits with status 3 when no converter
binary can be found.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conv, cfg, err := newConverter()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshaling configuration: %w", err)
		}
		fmt.Fprintf(out, "%s\n", data)

		bin, err := conv.Binary()
		if err != nil {
			fmt.Fprintln(out, "converter: not found")
			return err
		}
		fmt.Fprintf(out, "converter: %s\n", bin)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

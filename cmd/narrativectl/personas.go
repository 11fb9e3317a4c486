package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/app/bootstrap"
)

func newPersonasCmd() *cobra.Command {
	var (
		file    string
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "personas",
		Short: "Validate and print the persona catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := bootstrap.BuildPersonaCatalog(file)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, p := range catalog.All() {
				fmt.Fprintf(out, "%-14s %s\n", p.ID, p.Label)
				if verbose {
					for _, line := range strings.Split(p.Template, "\n") {
						fmt.Fprintf(out, "    %s\n", line)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Persona catalog YAML (defaults to the embedded catalog)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print the prompt templates")
	return cmd
}

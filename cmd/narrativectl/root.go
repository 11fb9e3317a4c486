package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "narrativectl",
		Short:         "Operate micro-narrative elicitation sessions",
		Long:          `narrativectl runs a local elicitation session in the terminal, prints the persona catalog and issues researcher tokens for the admin API.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newChatCmd(), newPersonasCmd(), newTokenCmd())
	return root
}

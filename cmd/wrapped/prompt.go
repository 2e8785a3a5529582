package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"chat-wrapped/internal/core/services"
)

func newPromptCmd(d deps) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Print the prompt for a manual analysis",
		Long: `Prompt prints instructions to paste into a chat with your assistant.
Feed its answer back with "wrapped import-report".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if year == 0 {
				year = d.now().Year()
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), services.ManualAnalysisPrompt(year))
			return err
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "year to put in the prompt (default: current year)")
	return cmd
}

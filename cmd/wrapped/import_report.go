package main

import (
	"github.com/spf13/cobra"

	"chat-wrapped/internal/adapters/report"
)

func newImportReportCmd(d deps) *cobra.Command {
	var output outputOptions

	cmd := &cobra.Command{
		Use:   "import-report [report.txt | -]",
		Short: "Render a report produced by the manual prompt",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, d, args, 1<<20)
			if err != nil {
				return err
			}

			parsed, err := report.NewManualParser().Parse(text)
			if err != nil {
				return err
			}
			return output.write(cmd.OutOrStdout(), parsed)
		},
	}
	output.bind(cmd)
	return cmd
}

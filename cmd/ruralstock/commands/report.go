package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ruralstock/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report <producer-id>",
	Short: "Summarize a producer's procedure spending",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		producer, ok := svc.GetProducer(args[0])
		if !ok {
			return fmt.Errorf("producer %s not found", args[0])
		}
		summary := report.BuildProducerSummary(producer)
		if jsonOutput {
			return printJSON(summary)
		}
		return report.Render(os.Stdout, summary)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

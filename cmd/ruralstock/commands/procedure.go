package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ruralstock/internal/report"
)

var (
	// Procedure flags
	procProducer   string
	procAnimal     string
	procWeight     float64
	procGirth      float64
	procLength     float64
	procMedication string
	procItems      []string
	procTreated    int
	procReference  string
	procNotes      string
)

var procedureCmd = &cobra.Command{
	Use:   "procedure",
	Short: "Run and manage costed procedures",
}

var procedureRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Weigh, dose, cost, and commit a procedure in one pass",
	Long: `Runs the full procedure workflow non-interactively:

  ruralstock procedure run --producer P --animal A \
      --girth 100 --length 120 --medication MED \
      --item SYRINGE=1 --item NEEDLE=1 --treated 3 --reference "corral 2"

Weight comes from --weight (scale) or from --girth and --length (tape).
Costs are computed at today's catalog prices and frozen into the record.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		session, err := svc.NewProcedureSession(procProducer, procAnimal)
		if err != nil {
			return err
		}
		switch {
		case procWeight > 0:
			if err := session.SetScaleWeight(procWeight); err != nil {
				return err
			}
		case procGirth > 0 || procLength > 0:
			if err := session.SetTapeWeight(procGirth, procLength); err != nil {
				return err
			}
		default:
			return fmt.Errorf("provide --weight or both --girth and --length")
		}
		if _, err := session.ApplyMedication(procMedication); err != nil {
			return err
		}
		for _, spec := range procItems {
			id, qty, err := parseItemSpec(spec)
			if err != nil {
				return err
			}
			if err := session.AddConsumable(id, qty); err != nil {
				return err
			}
		}
		if procTreated > 0 {
			session.SetTreatedCount(procTreated)
		}
		record, _, err := svc.CommitProcedure(cmd.Context(), procProducer, session, procReference, procNotes)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(record)
		}
		fmt.Printf("committed %s: %s %s, %d head, %s per head, %s total\n",
			record.ID, record.AnimalLabel, record.MedicationName, record.TreatedCount,
			report.FormatCurrency(record.TotalCostPerAnimal), report.FormatCurrency(record.TotalCost))
		return nil
	},
}

var procedureListCmd = &cobra.Command{
	Use:   "list <producer-id>",
	Short: "List committed procedures across a producer's herd",
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

var procedureDeleteCmd = &cobra.Command{
	Use:   "delete <producer-id> <animal-id> <record-id>",
	Short: "Delete a committed procedure record",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		if _, err := svc.DeleteProcedure(cmd.Context(), args[0], args[1], args[2]); err != nil {
			return err
		}
		fmt.Printf("deleted procedure %s\n", args[2])
		return nil
	},
}

func parseItemSpec(spec string) (string, int, error) {
	id, qtyStr, found := strings.Cut(spec, "=")
	if !found || id == "" {
		return "", 0, fmt.Errorf("invalid --item %q, expected id=quantity", spec)
	}
	qty, err := strconv.Atoi(qtyStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid --item quantity %q: %w", qtyStr, err)
	}
	return id, qty, nil
}

func init() {
	procedureRunCmd.Flags().StringVar(&procProducer, "producer", "", "Producer ID (required)")
	procedureRunCmd.Flags().StringVar(&procAnimal, "animal", "", "Animal ID (required)")
	procedureRunCmd.Flags().Float64Var(&procWeight, "weight", 0, "Scale weight in kg")
	procedureRunCmd.Flags().Float64Var(&procGirth, "girth", 0, "Tape girth in cm")
	procedureRunCmd.Flags().Float64Var(&procLength, "length", 0, "Tape body length in cm")
	procedureRunCmd.Flags().StringVar(&procMedication, "medication", "", "Medication ID (required)")
	procedureRunCmd.Flags().StringArrayVar(&procItems, "item", nil, "Consumable usage as id=quantity (repeatable)")
	procedureRunCmd.Flags().IntVar(&procTreated, "treated", 0, "Head treated (default 1, clamped to herd size)")
	procedureRunCmd.Flags().StringVar(&procReference, "reference", "", "Animal reference, e.g. ear tag")
	procedureRunCmd.Flags().StringVar(&procNotes, "notes", "", "Free-form notes")
	_ = procedureRunCmd.MarkFlagRequired("producer")
	_ = procedureRunCmd.MarkFlagRequired("animal")
	_ = procedureRunCmd.MarkFlagRequired("medication")

	procedureCmd.AddCommand(procedureRunCmd, procedureListCmd, procedureDeleteCmd)
	rootCmd.AddCommand(procedureCmd)
}

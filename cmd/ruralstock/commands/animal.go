package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ruralstock/pkg/domain"
)

var (
	// Animal flags
	animalSpecies  string
	animalCount    int
	animalBreed    string
	animalRole     string
	animalOwner    string
	animalNotes    string
	treatableOnly  bool
	decisionAction string
	decisionWho    string
	feedingAction  string
	feedingWho     string
	feedingKind    string
)

var animalCmd = &cobra.Command{
	Use:   "animal",
	Short: "Manage herd entries under a producer",
}

var animalAddCmd = &cobra.Command{
	Use:   "add <producer-id>",
	Short: "Add a herd entry to a producer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		created, _, err := svc.AddAnimal(cmd.Context(), args[0], domain.Animal{
			Species: animalSpecies,
			Count:   animalCount,
			Breed:   animalBreed,
			Role:    animalRole,
			Owner:   animalOwner,
			Notes:   animalNotes,
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(created)
		}
		fmt.Printf("added %s (%d head) as %s\n", created.Species, created.Count, created.ID)
		return nil
	},
}

var animalListCmd = &cobra.Command{
	Use:   "list <producer-id>",
	Short: "List a producer's herd",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		var animals []domain.Animal
		if treatableOnly {
			animals, err = svc.ListTreatableAnimals(args[0])
			if err != nil {
				return err
			}
		} else {
			producer, ok := svc.GetProducer(args[0])
			if !ok {
				return fmt.Errorf("producer %s not found", args[0])
			}
			animals = producer.Animals
		}
		if jsonOutput {
			return printJSON(animals)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSPECIES\tCOUNT\tBREED\tROLE\tPROCEDURES")
		for _, a := range animals {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%d\n", a.ID, a.Species, a.Count, a.Breed, a.Role, len(a.Procedures))
		}
		return w.Flush()
	},
}

var animalDeleteCmd = &cobra.Command{
	Use:   "delete <producer-id> <animal-id>",
	Short: "Delete a herd entry and its procedure history",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		if _, err := svc.DeleteAnimal(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("deleted animal %s\n", args[1])
		return nil
	},
}

var animalDecisionAddCmd = &cobra.Command{
	Use:   "decision-add <producer-id> <animal-id>",
	Short: "Record who decides a herd management action",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		updated, _, err := svc.UpdateAnimal(cmd.Context(), args[0], args[1], func(a *domain.Animal) error {
			a.Decisions = append(a.Decisions, domain.DecisionEntry{Action: decisionAction, Who: decisionWho})
			return nil
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(updated)
		}
		fmt.Printf("recorded decision %q (%s) on %s\n", decisionAction, decisionWho, updated.Species)
		return nil
	},
}

var animalFeedingAddCmd = &cobra.Command{
	Use:   "feeding-add <producer-id> <animal-id>",
	Short: "Record a feeding action for a herd entry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		updated, _, err := svc.UpdateAnimal(cmd.Context(), args[0], args[1], func(a *domain.Animal) error {
			a.Feeding = append(a.Feeding, domain.FeedingAction{Action: feedingAction, Who: feedingWho, Kind: feedingKind})
			return nil
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(updated)
		}
		fmt.Printf("recorded feeding %q (%s) on %s\n", feedingAction, feedingWho, updated.Species)
		return nil
	},
}

func init() {
	animalAddCmd.Flags().StringVar(&animalSpecies, "species", "", "Species, e.g. borrego (required)")
	animalAddCmd.Flags().IntVar(&animalCount, "count", 1, "Head count")
	animalAddCmd.Flags().StringVar(&animalBreed, "breed", "", "Breed (default Criolla)")
	animalAddCmd.Flags().StringVar(&animalRole, "role", "", "Purpose: sale, consumption, breeding")
	animalAddCmd.Flags().StringVar(&animalOwner, "owner", "", "Household member in charge")
	animalAddCmd.Flags().StringVar(&animalNotes, "notes", "", "Free-form notes")
	_ = animalAddCmd.MarkFlagRequired("species")

	animalListCmd.Flags().BoolVar(&treatableOnly, "treatable", false, "Only sheep-family entries the weight tape supports")

	animalDecisionAddCmd.Flags().StringVar(&decisionAction, "action", "", "Management action, e.g. venta (required)")
	animalDecisionAddCmd.Flags().StringVar(&decisionWho, "who", "", "Household member who decides (required)")
	_ = animalDecisionAddCmd.MarkFlagRequired("action")
	_ = animalDecisionAddCmd.MarkFlagRequired("who")

	animalFeedingAddCmd.Flags().StringVar(&feedingAction, "action", "", "Feeding action, e.g. pastoreo (required)")
	animalFeedingAddCmd.Flags().StringVar(&feedingWho, "who", "", "Household member in charge (required)")
	animalFeedingAddCmd.Flags().StringVar(&feedingKind, "kind", "", "Feed kind, e.g. rastrojo")
	_ = animalFeedingAddCmd.MarkFlagRequired("action")
	_ = animalFeedingAddCmd.MarkFlagRequired("who")

	animalCmd.AddCommand(animalAddCmd, animalListCmd, animalDeleteCmd, animalDecisionAddCmd, animalFeedingAddCmd)
	rootCmd.AddCommand(animalCmd)
}

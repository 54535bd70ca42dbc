package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ruralstock/pkg/domain"
)

var (
	// Catalog flags
	medName          string
	medDosePerKg     float64
	medConcentration float64
	medVolumePerUnit float64
	medPricePerUnit  float64
	itemName         string
	itemUnit         string
	itemUnitPrice    float64
	newPrice         float64
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the medication and consumable catalog",
}

var catalogSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the starter catalog if the catalog is empty",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		if _, err := svc.SeedDefaultCatalog(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("catalog seeded")
		return nil
	},
}

var catalogMedAddCmd = &cobra.Command{
	Use:   "med-add",
	Short: "Add a medication profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		created, _, err := svc.CreateMedication(cmd.Context(), domain.MedicationProfile{
			Name:          medName,
			DosePerKg:     medDosePerKg,
			Concentration: medConcentration,
			VolumePerUnit: medVolumePerUnit,
			PricePerUnit:  medPricePerUnit,
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(created)
		}
		fmt.Printf("added medication %s (%s)\n", created.Name, created.ID)
		return nil
	},
}

var catalogMedListCmd = &cobra.Command{
	Use:   "med-list",
	Short: "List medication profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		meds := svc.ListMedications()
		if jsonOutput {
			return printJSON(meds)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tDOSE mg/kg\tCONC mg/mL\tVOL/UNIT mL\tPRICE/UNIT")
		for _, m := range meds {
			fmt.Fprintf(w, "%s\t%s\t%.2f\t%.2f\t%.2f\t%.2f\n", m.ID, m.Name, m.DosePerKg, m.Concentration, m.VolumePerUnit, m.PricePerUnit)
		}
		return w.Flush()
	},
}

var catalogMedPriceCmd = &cobra.Command{
	Use:   "med-price <medication-id>",
	Short: "Update a medication's unit price",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		updated, _, err := svc.UpdateMedication(cmd.Context(), args[0], func(m *domain.MedicationProfile) error {
			m.PricePerUnit = newPrice
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Printf("%s now %.2f per unit\n", updated.Name, updated.PricePerUnit)
		return nil
	},
}

var catalogMedDeleteCmd = &cobra.Command{
	Use:   "med-delete <medication-id>",
	Short: "Delete a medication profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		if _, err := svc.DeleteMedication(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted medication %s\n", args[0])
		return nil
	},
}

var catalogItemAddCmd = &cobra.Command{
	Use:   "item-add",
	Short: "Add a consumable profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		created, _, err := svc.CreateConsumable(cmd.Context(), domain.ConsumableProfile{
			Name:      itemName,
			Unit:      itemUnit,
			UnitPrice: itemUnitPrice,
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(created)
		}
		fmt.Printf("added consumable %s (%s)\n", created.Name, created.ID)
		return nil
	},
}

var catalogItemListCmd = &cobra.Command{
	Use:   "item-list",
	Short: "List consumable profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		items := svc.ListConsumables()
		if jsonOutput {
			return printJSON(items)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tUNIT\tUNIT PRICE")
		for _, c := range items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\n", c.ID, c.Name, c.Unit, c.UnitPrice)
		}
		return w.Flush()
	},
}

var catalogItemDeleteCmd = &cobra.Command{
	Use:   "item-delete <consumable-id>",
	Short: "Delete a consumable profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		if _, err := svc.DeleteConsumable(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted consumable %s\n", args[0])
		return nil
	},
}

func init() {
	catalogMedAddCmd.Flags().StringVar(&medName, "name", "", "Medication name (required)")
	catalogMedAddCmd.Flags().Float64Var(&medDosePerKg, "dose-per-kg", 0, "Dose in mg per kg of body weight")
	catalogMedAddCmd.Flags().Float64Var(&medConcentration, "concentration", 0, "Concentration in mg per mL (required)")
	catalogMedAddCmd.Flags().Float64Var(&medVolumePerUnit, "volume-per-unit", 0, "Container volume in mL (required)")
	catalogMedAddCmd.Flags().Float64Var(&medPricePerUnit, "price-per-unit", 0, "Price per container")
	_ = catalogMedAddCmd.MarkFlagRequired("name")
	_ = catalogMedAddCmd.MarkFlagRequired("concentration")
	_ = catalogMedAddCmd.MarkFlagRequired("volume-per-unit")

	catalogMedPriceCmd.Flags().Float64Var(&newPrice, "price", 0, "New price per unit (required)")
	_ = catalogMedPriceCmd.MarkFlagRequired("price")

	catalogItemAddCmd.Flags().StringVar(&itemName, "name", "", "Consumable name (required)")
	catalogItemAddCmd.Flags().StringVar(&itemUnit, "unit", "pieza", "Billing unit")
	catalogItemAddCmd.Flags().Float64Var(&itemUnitPrice, "unit-price", 0, "Price per unit")
	_ = catalogItemAddCmd.MarkFlagRequired("name")

	catalogCmd.AddCommand(catalogSeedCmd,
		catalogMedAddCmd, catalogMedListCmd, catalogMedPriceCmd, catalogMedDeleteCmd,
		catalogItemAddCmd, catalogItemListCmd, catalogItemDeleteCmd)
	rootCmd.AddCommand(catalogCmd)
}

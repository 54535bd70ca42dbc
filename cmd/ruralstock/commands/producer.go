package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ruralstock/pkg/domain"
)

var (
	// Producer flags
	producerName      string
	producerAge       int
	producerSchooling string
	producerHousehold int
	producerLocation  string
	producerLat       float64
	producerLng       float64
	memberName        string
	memberActivity    string
	photoPath         string
	photoContentType  string
)

var producerCmd = &cobra.Command{
	Use:   "producer",
	Short: "Manage producer records",
}

var producerAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a new producer",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		producer := domain.Producer{
			Name:      producerName,
			Schooling: producerSchooling,
			Location:  producerLocation,
		}
		if producerAge > 0 {
			producer.Age = &producerAge
		}
		if producerHousehold > 0 {
			producer.HouseholdSize = &producerHousehold
		}
		// 0 is a valid coordinate, so only a flag actually passed counts
		if cmd.Flags().Changed("lat") {
			producer.Latitude = &producerLat
		}
		if cmd.Flags().Changed("lng") {
			producer.Longitude = &producerLng
		}
		created, _, err := svc.CreateProducer(cmd.Context(), producer)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(created)
		}
		fmt.Printf("created producer %s (%s)\n", created.Name, created.ID)
		return nil
	},
}

var producerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List producers",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		producers := svc.ListProducers()
		if jsonOutput {
			return printJSON(producers)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tLOCATION\tANIMALS\tFAMILY")
		for _, p := range producers {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n", p.ID, p.Name, p.Location, len(p.Animals), len(p.Family))
		}
		return w.Flush()
	},
}

var producerShowCmd = &cobra.Command{
	Use:   "show <producer-id>",
	Short: "Show a producer record",
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
		return printJSON(producer)
	},
}

var producerDeleteCmd = &cobra.Command{
	Use:   "delete <producer-id>",
	Short: "Delete a producer and everything it owns",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		if _, err := svc.DeleteProducer(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted producer %s\n", args[0])
		return nil
	},
}

var producerFamilyAddCmd = &cobra.Command{
	Use:   "family-add <producer-id>",
	Short: "Add a household member to a producer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		updated, _, err := svc.AddFamilyMember(cmd.Context(), args[0], domain.FamilyMember{
			Name:     memberName,
			Activity: memberActivity,
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(updated)
		}
		fmt.Printf("added %s to %s\n", memberName, updated.Name)
		return nil
	},
}

var producerPhotoCmd = &cobra.Command{
	Use:   "photo <producer-id>",
	Short: "Attach a photo to a producer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		f, err := os.Open(photoPath)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		updated, _, err := svc.AttachProducerPhoto(cmd.Context(), args[0], f, photoContentType)
		if err != nil {
			return err
		}
		fmt.Printf("photo stored at %s\n", updated.PhotoKey)
		return nil
	},
}

func init() {
	producerAddCmd.Flags().StringVar(&producerName, "name", "", "Producer name (required)")
	producerAddCmd.Flags().IntVar(&producerAge, "age", 0, "Producer age")
	producerAddCmd.Flags().StringVar(&producerSchooling, "schooling", "", "Schooling level")
	producerAddCmd.Flags().IntVar(&producerHousehold, "household", 0, "Household size")
	producerAddCmd.Flags().StringVar(&producerLocation, "location", "", "Community or locality")
	producerAddCmd.Flags().Float64Var(&producerLat, "lat", 0, "Latitude of the homestead")
	producerAddCmd.Flags().Float64Var(&producerLng, "lng", 0, "Longitude of the homestead")
	_ = producerAddCmd.MarkFlagRequired("name")

	producerFamilyAddCmd.Flags().StringVar(&memberName, "name", "", "Member name (required)")
	producerFamilyAddCmd.Flags().StringVar(&memberActivity, "activity", "", "Member activity (required)")
	_ = producerFamilyAddCmd.MarkFlagRequired("name")
	_ = producerFamilyAddCmd.MarkFlagRequired("activity")

	producerPhotoCmd.Flags().StringVar(&photoPath, "file", "", "Path to the image file (required)")
	producerPhotoCmd.Flags().StringVar(&photoContentType, "content-type", "image/jpeg", "MIME type of the image")
	_ = producerPhotoCmd.MarkFlagRequired("file")

	producerCmd.AddCommand(producerAddCmd, producerListCmd, producerShowCmd, producerDeleteCmd, producerFamilyAddCmd, producerPhotoCmd)
	rootCmd.AddCommand(producerCmd)
}

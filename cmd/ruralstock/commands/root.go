// Package commands implements the ruralstock command-line interface.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ruralstock/internal/blob"
	"ruralstock/internal/core"
)

var (
	// Global flags
	storageDriver string
	jsonOutput    bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ruralstock",
	Short: "Livestock record keeping and procedure costing for small producers",
	Long: `ruralstock keeps household livestock records and prices veterinary
procedures in the field.

It tracks producers, their families and herds, a priced catalog of
medications and consumables, and commits immutable procedure records that
capture weight estimates, dose volumes, and cost at treatment time.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storageDriver, "storage", "", "Storage driver override: memory|sqlite|postgres")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

// openService wires the persistent store, blob store, and rules engine from
// the environment, honoring the --storage override.
func openService(ctx context.Context) (*core.Service, error) {
	if storageDriver != "" {
		if err := os.Setenv("RURALSTOCK_STORAGE_DRIVER", storageDriver); err != nil {
			return nil, err
		}
	}
	store, err := core.OpenPersistentStore(core.NewDefaultRulesEngine())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	blobs, err := blob.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	return core.NewService(store, core.WithBlobStore(blobs)), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// cmd/server/seed.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Annany2002/nebula-dq/config"
	"github.com/Annany2002/nebula-dq/internal/storage"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load test definitions into the local catalog",
	Long: `Load test definitions from a YAML file into the local sqlite catalog.

Definitions are matched by fullyQualifiedName; existing ones are updated.

Examples:
  nebula-dq seed --file seeds/test_definitions.yaml`,
	RunE: runSeed,
}

var seedFile string

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "seeds/test_definitions.yaml", "YAML file with test definitions")
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.UsesRemoteCatalog() {
		return fmt.Errorf("seed writes to the local catalog; unset CATALOG_URL to use it")
	}

	seed, err := storage.LoadSeedFile(seedFile)
	if err != nil {
		return err
	}

	db, err := storage.ConnectCatalogDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize catalog database: %w", err)
	}
	defer db.Close()

	n, err := storage.SeedTestDefinitions(cmd.Context(), db, seed)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d test definitions from %s\n", n, seedFile)
	return nil
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/khanglvm/tool-recommender/internal/config"
)

// NewSetupCmd creates the 'setup' command.
func NewSetupCmd() *cobra.Command {
	var catalogPath string
	var databasePath string
	var force bool

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create the configuration file",
		Long:  `Write ~/.tool-recommender.json with the default engine settings.`,
		Example: `  tool-recommender setup --catalog ./catalog.json
  tool-recommender setup --catalog ./catalog.json --db ./feedback.db --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetup(catalogPath, databasePath, force)
		},
	}

	cmd.Flags().StringVarP(&catalogPath, "catalog", "c", "", "Catalog file to configure")
	cmd.Flags().StringVar(&databasePath, "db", "", "Feedback database path")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config")

	return cmd
}

func runSetup(catalogPath, databasePath string, force bool) error {
	path, err := config.GetDefaultConfigPath()
	if err != nil {
		return err
	}

	if !force {
		if _, err := config.LoadFrom(path); err == nil {
			return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
		}
	}

	cfg := config.NewConfig()
	cfg.CatalogPath = catalogPath
	cfg.DatabasePath = databasePath

	if err := config.Save(cfg, path); err != nil {
		return err
	}

	fmt.Printf("Configuration written to %s\n", path)
	if catalogPath == "" {
		fmt.Println("Tip: set a catalog with 'tool-recommender setup --catalog <file> --force'.")
	}
	return nil
}

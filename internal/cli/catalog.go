package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/khanglvm/tool-recommender/internal/catalog"
	"github.com/khanglvm/tool-recommender/internal/config"
)

// NewCatalogCmd creates the 'catalog' command.
func NewCatalogCmd() *cobra.Command {
	var catalogPath string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "catalog",
		Aliases: []string{"ls"},
		Short:   "List catalog candidates",
		Long:    `Display the tools the recommender can rank, from the configured catalog file.`,
		Example: `  tool-recommender catalog
  tool-recommender catalog --catalog ./catalog.json --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalog(catalogPath, jsonOutput)
		},
	}

	cmd.Flags().StringVarP(&catalogPath, "catalog", "c", "", "Catalog file (overrides config)")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}

func runCatalog(catalogPath string, jsonOutput bool) error {
	path := catalogPath
	if path == "" {
		path = config.LoadOrDefault().CatalogPath
	}
	if path == "" {
		fmt.Println("No catalog configured.")
		fmt.Println("Run 'tool-recommender setup --catalog <file>' or pass --catalog.")
		return nil
	}

	cat, err := catalog.LoadFile(path)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	defer cat.Close()

	candidates, err := cat.ListCandidates(context.Background(), catalog.FilterHints{})
	if err != nil {
		return fmt.Errorf("failed to list candidates: %w", err)
	}

	if jsonOutput {
		data, err := json.MarshalIndent(candidates, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal candidates: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Catalog candidates (%d):\n\n", len(candidates))
	for _, c := range candidates {
		fmt.Printf("  %s\n", c.ID)
		fmt.Printf("    Name:     %s\n", c.Name)
		fmt.Printf("    Category: %s\n", c.Category)
		fmt.Printf("    Stage:    %s\n", c.Stage)
		if len(c.Tags) > 0 {
			fmt.Printf("    Tags:     %v\n", c.Tags)
		}
		fmt.Println()
	}
	return nil
}

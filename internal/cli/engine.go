/*
Package cli implements the tool-recommender command-line interface.

Commands share one construction path: load configuration, open the catalog,
and build the engine from both.
*/
package cli

import (
	"fmt"

	"github.com/khanglvm/tool-recommender/internal/catalog"
	"github.com/khanglvm/tool-recommender/internal/config"
	"github.com/khanglvm/tool-recommender/internal/engine"
)

// buildEngine loads the config, opens the catalog, and assembles the engine.
// catalogPath overrides the configured path when non-empty; when neither is
// set the engine runs over an empty catalog (feedback and stats still work).
func buildEngine(catalogPath string) (*engine.Engine, *config.Config, error) {
	cfg := config.LoadOrDefault()

	path := catalogPath
	if path == "" {
		path = cfg.CatalogPath
	}

	var cat *catalog.InMemoryCatalog
	var err error
	if path != "" {
		cat, err = catalog.LoadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load catalog: %w", err)
		}
	} else {
		cat, err = catalog.NewInMemoryCatalog()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create catalog: %w", err)
		}
	}

	eng, err := engine.New(cat, cfg.EngineOptions())
	if err != nil {
		cat.Close()
		return nil, nil, fmt.Errorf("failed to create engine: %w", err)
	}

	return eng, cfg, nil
}

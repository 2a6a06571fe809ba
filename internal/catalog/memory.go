package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// InMemoryCatalog is the reference Catalog implementation. Candidates are
// held in memory and indexed with an in-memory Bleve index so free-text
// filter hints rank by relevance rather than insertion order.
type InMemoryCatalog struct {
	mu         sync.RWMutex
	candidates map[string]Candidate
	index      bleve.Index
}

// NewInMemoryCatalog creates an empty catalog with a memory-only index.
func NewInMemoryCatalog() (*InMemoryCatalog, error) {
	index, err := bleve.NewMemOnly(buildCatalogMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog index: %w", err)
	}

	return &InMemoryCatalog{
		candidates: make(map[string]Candidate),
		index:      index,
	}, nil
}

// buildCatalogMapping creates the Bleve mapping for candidate documents.
func buildCatalogMapping() mapping.IndexMapping {
	toolMapping := bleve.NewDocumentMapping()

	nameField := bleve.NewTextFieldMapping()
	toolMapping.AddFieldMappingsAt("name", nameField)

	descField := bleve.NewTextFieldMapping()
	toolMapping.AddFieldMappingsAt("description", descField)

	tagsField := bleve.NewTextFieldMapping()
	toolMapping.AddFieldMappingsAt("tags", tagsField)

	categoryField := bleve.NewTextFieldMapping()
	toolMapping.AddFieldMappingsAt("category", categoryField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("_default", toolMapping)

	return indexMapping
}

// Add indexes candidates into the catalog. Existing entries with the same ID
// are replaced.
func (m *InMemoryCatalog) Add(candidates ...Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	batch := m.index.NewBatch()

	for _, c := range candidates {
		if c.ID == "" {
			continue
		}
		if c.Stage == StageUnknown && c.StageName != "" {
			c.Stage = ParseStage(c.StageName)
		}
		c.StageName = c.Stage.String()
		m.candidates[c.ID] = c

		doc := map[string]interface{}{
			"name":        c.Name,
			"description": c.Description,
			"tags":        strings.Join(c.Tags, " "),
			"category":    c.Category,
		}
		if err := batch.Index(c.ID, doc); err != nil {
			log.Printf("Warning: failed to index candidate %s: %v", c.ID, err)
		}
	}

	if err := m.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to batch index candidates: %w", err)
	}

	return nil
}

// Len returns the number of candidates in the catalog.
func (m *InMemoryCatalog) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.candidates)
}

// Get returns the candidate with the given ID, if present.
func (m *InMemoryCatalog) Get(id string) (Candidate, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.candidates[id]
	return c, ok
}

// ListCandidates implements Catalog. With a free-text query it searches the
// Bleve index and returns hits in relevance order; without one it returns
// the full catalog in ID order. Category and stage hints filter either way.
func (m *InMemoryCatalog) ListCandidates(ctx context.Context, hints FilterHints) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var ordered []Candidate

	if strings.TrimSpace(hints.Query) != "" {
		ids, err := m.searchIDs(hints.Query)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			if c, ok := m.candidates[id]; ok {
				ordered = append(ordered, c)
			}
		}
	} else {
		ids := make([]string, 0, len(m.candidates))
		for id := range m.candidates {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			ordered = append(ordered, m.candidates[id])
		}
	}

	filtered := ordered[:0:0]
	for _, c := range ordered {
		if !matchesHints(c, hints) {
			continue
		}
		filtered = append(filtered, c)
		if hints.Limit > 0 && len(filtered) >= hints.Limit {
			break
		}
	}

	return filtered, nil
}

// searchIDs runs a match query and returns hit IDs in score order.
func (m *InMemoryCatalog) searchIDs(query string) ([]string, error) {
	matchQuery := bleve.NewMatchQuery(query)
	request := bleve.NewSearchRequestOptions(matchQuery, len(m.candidates), 0, false)

	results, err := m.index.Search(request)
	if err != nil {
		return nil, fmt.Errorf("catalog search failed: %w", err)
	}

	ids := make([]string, 0, len(results.Hits))
	for _, hit := range results.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

func matchesHints(c Candidate, hints FilterHints) bool {
	if hints.Stage != StageUnknown && c.Stage != hints.Stage {
		return false
	}
	if len(hints.Categories) > 0 {
		found := false
		for _, cat := range hints.Categories {
			if strings.EqualFold(cat, c.Category) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Close releases the underlying index.
func (m *InMemoryCatalog) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.index != nil {
		return m.index.Close()
	}
	return nil
}

// LoadFile reads a JSON candidate list and builds a catalog from it.
//
// The file format is a flat array of candidate objects:
//
//	[{"id": "report-builder", "name": "Report Builder", "category": "reporting",
//	  "tags": ["report", "export"], "stage": "delivery", "latency": "slow"}]
func LoadFile(path string) (*InMemoryCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var candidates []Candidate
	if err := json.Unmarshal(data, &candidates); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	cat, err := NewInMemoryCatalog()
	if err != nil {
		return nil, err
	}
	if err := cat.Add(candidates...); err != nil {
		cat.Close()
		return nil, err
	}

	return cat, nil
}

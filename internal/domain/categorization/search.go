package categorization

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/mapping"
)

// merchantDoc is one remembered categorized description.
type merchantDoc struct {
	Description string `json:"description"`
	Category    string `json:"category"`
}

// MerchantIndex remembers how past descriptions were categorized and finds
// the nearest remembered merchant for new ones. Backed by a bleve index,
// in memory unless a path is given.
type MerchantIndex struct {
	index bleve.Index
	mu    sync.RWMutex
}

// NewMerchantIndex creates or opens a merchant index. An empty path means
// an in-memory index that lives only for the process.
func NewMerchantIndex(path string) (*MerchantIndex, error) {
	indexMapping := buildMerchantMapping()

	var index bleve.Index
	var err error

	switch {
	case path == "":
		index, err = bleve.NewMemOnly(indexMapping)
	default:
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			if mkdirErr := os.MkdirAll(filepath.Dir(path), 0o755); mkdirErr != nil {
				return nil, fmt.Errorf("failed to create index directory: %w", mkdirErr)
			}
			index, err = bleve.New(path, indexMapping)
		} else {
			index, err = bleve.Open(path)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open merchant index: %w", err)
	}

	return &MerchantIndex{index: index}, nil
}

func buildMerchantMapping() mapping.IndexMapping {
	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = simple.Name

	keywordField := bleve.NewTextFieldMapping()
	keywordField.Analyzer = keyword.Name

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("description", textField)
	docMapping.AddFieldMappingsAt("category", keywordField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = simple.Name

	return indexMapping
}

// Add remembers a categorized description. Re-adding the same description
// replaces its earlier category.
func (mi *MerchantIndex) Add(description, category string) error {
	id := strings.ToUpper(strings.TrimSpace(description))
	if id == "" || category == "" {
		return nil
	}

	mi.mu.Lock()
	defer mi.mu.Unlock()

	if err := mi.index.Index(id, merchantDoc{Description: description, Category: category}); err != nil {
		return fmt.Errorf("failed to index description: %w", err)
	}
	return nil
}

// Lookup finds the closest remembered description and returns its category.
func (mi *MerchantIndex) Lookup(description string) (string, bool, error) {
	mi.mu.RLock()
	defer mi.mu.RUnlock()

	query := bleve.NewMatchQuery(description)
	query.SetFuzziness(1)

	req := bleve.NewSearchRequest(query)
	req.Size = 1
	req.Fields = []string{"category"}

	res, err := mi.index.Search(req)
	if err != nil {
		return "", false, fmt.Errorf("merchant lookup failed: %w", err)
	}
	if len(res.Hits) == 0 {
		return "", false, nil
	}

	category, _ := res.Hits[0].Fields["category"].(string)
	if category == "" {
		return "", false, nil
	}
	return category, true, nil
}

// DocCount returns how many descriptions are remembered.
func (mi *MerchantIndex) DocCount() (uint64, error) {
	mi.mu.RLock()
	defer mi.mu.RUnlock()
	return mi.index.DocCount()
}

// Close releases the index.
func (mi *MerchantIndex) Close() error {
	mi.mu.Lock()
	defer mi.mu.Unlock()

	if mi.index != nil {
		return mi.index.Close()
	}
	return nil
}

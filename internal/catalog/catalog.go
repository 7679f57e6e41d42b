// Package catalog loads the attribute catalog and the category tree from YAML fixtures.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/hanko-field/product-editor/internal/domain"
)

var (
	// ErrCatalogNotConfigured is returned when no catalog file was supplied.
	ErrCatalogNotConfigured = errors.New("catalog: catalog file not configured")
	// ErrCategoriesNotConfigured is returned when no category tree file was supplied.
	ErrCategoriesNotConfigured = errors.New("catalog: category file not configured")
)

type catalogFile struct {
	Attributes []attributeEntry `yaml:"attributes"`
}

type attributeEntry struct {
	Name   string       `yaml:"name"`
	Values []valueEntry `yaml:"values"`
}

type valueEntry struct {
	ID            string `yaml:"id"`
	DisplayName   string `yaml:"displayName"`
	ColorHex      string `yaml:"colorHex"`
	PriceModifier string `yaml:"priceModifier"`
}

type categoryEntry struct {
	ID       string          `yaml:"id"`
	Key      string          `yaml:"key"`
	Children []categoryEntry `yaml:"children"`
}

// ParseCatalog decodes a catalog document. Attribute names must be unique ignoring case and
// every predefined value needs an id.
func ParseCatalog(data []byte) (*domain.CatalogLookup, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("catalog: decode catalog: %w", err)
	}

	lookup := &domain.CatalogLookup{
		AttributeNames:   make([]string, 0, len(file.Attributes)),
		PredefinedByName: make(map[string][]domain.PredefinedValue, len(file.Attributes)),
	}
	for i, attr := range file.Attributes {
		name := strings.TrimSpace(attr.Name)
		if name == "" {
			return nil, fmt.Errorf("catalog: attribute %d has no name", i)
		}
		if existing, ok := lookup.CanonicalName(name); ok {
			return nil, fmt.Errorf("catalog: attribute %q duplicates %q", name, existing)
		}
		lookup.AttributeNames = append(lookup.AttributeNames, name)

		values := make([]domain.PredefinedValue, 0, len(attr.Values))
		for j, entry := range attr.Values {
			value, err := entry.toDomain()
			if err != nil {
				return nil, fmt.Errorf("catalog: attribute %q value %d: %w", name, j, err)
			}
			values = append(values, value)
		}
		lookup.PredefinedByName[name] = values
	}
	return lookup, nil
}

func (e valueEntry) toDomain() (domain.PredefinedValue, error) {
	id := strings.TrimSpace(e.ID)
	if id == "" {
		return domain.PredefinedValue{}, errors.New("missing id")
	}
	value := domain.PredefinedValue{
		ID:          id,
		DisplayName: strings.TrimSpace(e.DisplayName),
	}
	if value.DisplayName == "" {
		value.DisplayName = id
	}
	if hex := strings.TrimSpace(e.ColorHex); hex != "" {
		value.ColorHex = &hex
	}
	if raw := strings.TrimSpace(e.PriceModifier); raw != "" {
		modifier, err := decimal.NewFromString(raw)
		if err != nil {
			return domain.PredefinedValue{}, fmt.Errorf("invalid price modifier %q: %w", raw, err)
		}
		value.PriceModifier = &modifier
	}
	return value, nil
}

// ParseCategoryTree decodes a category tree document rooted at a single node.
func ParseCategoryTree(data []byte) (domain.CategoryNode, error) {
	var root categoryEntry
	if err := yaml.Unmarshal(data, &root); err != nil {
		return domain.CategoryNode{}, fmt.Errorf("catalog: decode category tree: %w", err)
	}
	return root.toDomain(), nil
}

func (e categoryEntry) toDomain() domain.CategoryNode {
	node := domain.CategoryNode{
		ID:  strings.TrimSpace(e.ID),
		Key: strings.TrimSpace(e.Key),
	}
	if len(e.Children) > 0 {
		node.Children = make([]domain.CategoryNode, 0, len(e.Children))
		for _, child := range e.Children {
			node.Children = append(node.Children, child.toDomain())
		}
	}
	return node
}

// FileSource serves the catalog and category tree from YAML files. Parsed documents are cached
// until Reload is called.
type FileSource struct {
	catalogPath  string
	categoryPath string
	readFile     func(string) ([]byte, error)

	mu      sync.RWMutex
	catalog *domain.CatalogLookup
	tree    *domain.CategoryNode
}

// NewFileSource constructs a file-backed source. Either path may be blank, in which case the
// corresponding lookup fails with ErrCatalogNotConfigured or ErrCategoriesNotConfigured.
func NewFileSource(catalogPath, categoryPath string) *FileSource {
	return &FileSource{
		catalogPath:  strings.TrimSpace(catalogPath),
		categoryPath: strings.TrimSpace(categoryPath),
		readFile:     os.ReadFile,
	}
}

// Lookup returns the parsed catalog. The lookup is shared between callers and must not be
// modified.
func (s *FileSource) Lookup(ctx context.Context) (*domain.CatalogLookup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	cached := s.catalog
	s.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	if s.catalogPath == "" {
		return nil, ErrCatalogNotConfigured
	}
	data, err := s.readFile(s.catalogPath)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", s.catalogPath, err)
	}
	lookup, err := ParseCatalog(data)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.catalog == nil {
		s.catalog = lookup
	}
	return s.catalog, nil
}

// CategoryTree returns the parsed category tree.
func (s *FileSource) CategoryTree(ctx context.Context) (domain.CategoryNode, error) {
	if err := ctx.Err(); err != nil {
		return domain.CategoryNode{}, err
	}
	s.mu.RLock()
	cached := s.tree
	s.mu.RUnlock()
	if cached != nil {
		return *cached, nil
	}

	if s.categoryPath == "" {
		return domain.CategoryNode{}, ErrCategoriesNotConfigured
	}
	data, err := s.readFile(s.categoryPath)
	if err != nil {
		return domain.CategoryNode{}, fmt.Errorf("catalog: read %s: %w", s.categoryPath, err)
	}
	tree, err := ParseCategoryTree(data)
	if err != nil {
		return domain.CategoryNode{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tree == nil {
		s.tree = &tree
	}
	return *s.tree, nil
}

// Reload drops the cached documents so the next lookup rereads the files.
func (s *FileSource) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = nil
	s.tree = nil
}

// pkg/registry/registry.go
package registry

import (
	"errors"
	"fmt"

	"dashboard-assistant/internal/common/validation"
	"dashboard-assistant/internal/models"
)

var (
	ErrUnknownSource   = errors.New("UNKNOWN_SOURCE")
	ErrDuplicateSource = errors.New("DUPLICATE_SOURCE")
)

var fileSchema = validation.MustCompile("catalog", catalogFileSchema)

// Catalog is the immutable, ordered set of data sources the engine knows about.
// Every ordering of sources in a build follows catalog order.
type Catalog struct {
	version  string
	sources  []models.DataSourceDescriptor
	baseline []string
	index    map[string]int
}

func NewCatalog(version string, sources []models.DataSourceDescriptor, baseline []string) (*Catalog, error) {
	c := &Catalog{
		version: version,
		sources: make([]models.DataSourceDescriptor, len(sources)),
		index:   make(map[string]int, len(sources)),
	}
	copy(c.sources, sources)

	for i, s := range c.sources {
		if s.Kind != models.SourceKindTabular && s.Kind != models.SourceKindInsight {
			return nil, fmt.Errorf("source %s: unsupported kind %q", s.ID, s.Kind)
		}
		if _, dup := c.index[s.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSource, s.ID)
		}
		c.index[s.ID] = i
	}

	for _, id := range baseline {
		if _, ok := c.index[id]; !ok {
			return nil, fmt.Errorf("%w: baseline source %s", ErrUnknownSource, id)
		}
	}
	c.baseline = c.Order(baseline)
	return c, nil
}

// LoadCatalog reads a catalog file written as CatalogFile JSON.
func LoadCatalog(path string) (*Catalog, error) {
	file, err := ReadCatalogFile(path)
	if err != nil {
		return nil, err
	}
	return file.Catalog()
}

func (c *Catalog) Version() string {
	return c.version
}

func (c *Catalog) Lookup(id string) (models.DataSourceDescriptor, bool) {
	i, ok := c.index[id]
	if !ok {
		return models.DataSourceDescriptor{}, false
	}
	return c.sources[i], true
}

func (c *Catalog) Contains(id string) bool {
	_, ok := c.index[id]
	return ok
}

// Position is the catalog index of id, or -1.
func (c *Catalog) Position(id string) int {
	if i, ok := c.index[id]; ok {
		return i
	}
	return -1
}

func (c *Catalog) All() []models.DataSourceDescriptor {
	out := make([]models.DataSourceDescriptor, len(c.sources))
	copy(out, c.sources)
	return out
}

func (c *Catalog) IDs() []string {
	out := make([]string, len(c.sources))
	for i, s := range c.sources {
		out[i] = s.ID
	}
	return out
}

func (c *Catalog) Baseline() []string {
	out := make([]string, len(c.baseline))
	copy(out, c.baseline)
	return out
}

// Order returns the known ids of the input, deduplicated, in catalog order.
func (c *Catalog) Order(ids []string) []string {
	seen := make([]bool, len(c.sources))
	for _, id := range ids {
		if i, ok := c.index[id]; ok {
			seen[i] = true
		}
	}
	out := make([]string, 0, len(ids))
	for i, s := range c.sources {
		if seen[i] {
			out = append(out, s.ID)
		}
	}
	return out
}

func (c *Catalog) Describe(ids []string) []models.DataSourceDescriptor {
	ordered := c.Order(ids)
	out := make([]models.DataSourceDescriptor, len(ordered))
	for i, id := range ordered {
		out[i] = c.sources[c.index[id]]
	}
	return out
}

// Package catalog loads the fixed, ordered list of items that the daily
// selection rotates through. The catalog is read once at startup and never
// mutated afterwards; order is significant because the date formula indexes
// into it.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tbourn/daily-tiers/internal/domain"
)

// ErrInvalidCatalog is returned when the catalog file parses but its
// contents break an invariant (non-positive or duplicate ids).
var ErrInvalidCatalog = errors.New("invalid catalog")

// Catalog is an immutable ordered list of items with an id index.
type Catalog struct {
	items []domain.Item
	byID  map[int]int
}

// rawItem accepts both the neutral field names and the legacy
// title_cn/title_en keys used by older catalog files.
type rawItem struct {
	ID             int    `yaml:"id"`
	PrimaryTitle   string `yaml:"primary_title"`
	SecondaryTitle string `yaml:"secondary_title"`
	TitleCN        string `yaml:"title_cn"`
	TitleEN        string `yaml:"title_en"`
	Author         string `yaml:"author"`
}

// New builds a catalog from items, validating ids.
func New(items []domain.Item) (*Catalog, error) {
	c := &Catalog{
		items: make([]domain.Item, len(items)),
		byID:  make(map[int]int, len(items)),
	}
	copy(c.items, items)
	for i, it := range c.items {
		if it.ID <= 0 {
			return nil, fmt.Errorf("%w: item at position %d has non-positive id %d", ErrInvalidCatalog, i, it.ID)
		}
		if _, dup := c.byID[it.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %d", ErrInvalidCatalog, it.ID)
		}
		c.byID[it.ID] = i
	}
	return c, nil
}

// Parse decodes a JSON or YAML array of items. JSON input is accepted
// because the YAML decoder reads JSON documents as well.
func Parse(data []byte) (*Catalog, error) {
	if strings.TrimSpace(string(data)) == "" {
		return New(nil)
	}
	var raw []rawItem
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	items := make([]domain.Item, 0, len(raw))
	for _, r := range raw {
		items = append(items, domain.Item{
			ID:             r.ID,
			PrimaryTitle:   firstNonEmpty(r.PrimaryTitle, r.TitleCN),
			SecondaryTitle: firstNonEmpty(r.SecondaryTitle, r.TitleEN),
			Author:         strings.TrimSpace(r.Author),
		})
	}
	return New(items)
}

// Load reads the catalog at path. A missing file yields an empty catalog;
// callers decide whether that is fatal (selection reports ErrEmptyCatalog).
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(nil)
	}
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Len returns the number of items.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// At returns the item at position i in catalog order.
func (c *Catalog) At(i int) domain.Item { return c.items[i] }

// Get looks up an item by id.
func (c *Catalog) Get(id int) (domain.Item, bool) {
	if c == nil {
		return domain.Item{}, false
	}
	i, ok := c.byID[id]
	if !ok {
		return domain.Item{}, false
	}
	return c.items[i], true
}

// Items returns a copy of all items in catalog order.
func (c *Catalog) Items() []domain.Item {
	if c == nil {
		return nil
	}
	out := make([]domain.Item, len(c.items))
	copy(out, c.items)
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if t := strings.TrimSpace(v); t != "" {
			return t
		}
	}
	return ""
}

package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/daily-tiers/internal/domain"
)

func TestParse_JSONWithLegacyKeys(t *testing.T) {
	data := []byte(`[
  {"id": 1, "title_cn": "活着", "title_en": "To Live", "author": "余华"},
  {"id": 2, "primary_title": "围城", "secondary_title": "Fortress Besieged", "author": "钱钟书"}
]`)
	c, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	assert.Equal(t, domain.Item{ID: 1, PrimaryTitle: "活着", SecondaryTitle: "To Live", Author: "余华"}, c.At(0))
	it, ok := c.Get(2)
	require.True(t, ok)
	assert.Equal(t, "Fortress Besieged", it.SecondaryTitle)
}

func TestParse_YAML(t *testing.T) {
	data := []byte(`
- id: 10
  primary_title: Walden
  author: Thoreau
- id: 11
  primary_title: Meditations
  author: Marcus Aurelius
`)
	c, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 11, c.At(1).ID)
}

func TestParse_RejectsBadIDs(t *testing.T) {
	_, err := Parse([]byte(`[{"id": 1}, {"id": 1}]`))
	assert.ErrorIs(t, err, ErrInvalidCatalog)

	_, err = Parse([]byte(`[{"id": 0}]`))
	assert.ErrorIs(t, err, ErrInvalidCatalog)

	_, err = Parse([]byte(`{"not": "a list"}`))
	assert.ErrorIs(t, err, ErrInvalidCatalog)
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
	_, ok := c.Get(1)
	assert.False(t, ok)
}

func TestLoad_ReadsFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(p, []byte(`[{"id":5,"primary_title":"A"}]`), 0o644))
	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, []domain.Item{{ID: 5, PrimaryTitle: "A"}}, c.Items())
}

func TestItems_ReturnsCopy(t *testing.T) {
	c, err := New([]domain.Item{{ID: 1, PrimaryTitle: "x"}})
	require.NoError(t, err)
	items := c.Items()
	items[0].PrimaryTitle = "mutated"
	assert.Equal(t, "x", c.At(0).PrimaryTitle)
}

func TestNilCatalog(t *testing.T) {
	var c *Catalog
	assert.Equal(t, 0, c.Len())
	assert.Nil(t, c.Items())
}

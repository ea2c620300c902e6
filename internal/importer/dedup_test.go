package importer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vitrine/dmconsole/internal/domain"
)

func TestIndexSeedAccounts(t *testing.T) {
	ix := NewIndex()
	ix.Seed(domain.KindAccounts, []map[string]any{
		{"instagram_username": "@Alice", "name": "Alice"},
		{"instagram_username": "bob"},
		{"name": "no handle"},
	})

	assert.True(t, ix.Contains("alice"))
	assert.True(t, ix.Contains("bob"))
	assert.Equal(t, 2, ix.Len())
}

func TestIndexSeedTemplates(t *testing.T) {
	ix := NewIndex()
	ix.Seed(domain.KindTemplates, []map[string]any{
		{"text": "Hello There", "order": float64(2)},
		{"text": "Hi", "order": json.Number("1")},
		{"order": float64(3)},
	})

	assert.True(t, ix.Contains(TemplateKey("hello there", 2)))
	assert.True(t, ix.Contains(TemplateKey("Hi", 1)))
	assert.Equal(t, 2, ix.Len())
}

func TestIndexAddIdempotent(t *testing.T) {
	ix := NewIndex()
	ix.Add("k")
	ix.Add("k")
	assert.Equal(t, 1, ix.Len())
}

package logo_test

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/logoapi/pkg/logo"
)

func TestEnvelope_Decode(t *testing.T) {
	t.Parallel()

	body := `{
		"Meta": {"href": "https://erp.example.com/api/v1/items"},
		"items": [{"CODE": "A", "TITLE": "Alpha"}],
		"offset": 0,
		"count": 1,
		"totalCount": 3,
		"limit": 1,
		"first": {"href": "https://erp.example.com/api/v1/items?limit=1"},
		"next": {"href": "https://erp.example.com/api/v1/items?limit=1&offset=1"}
	}`

	var page logo.Envelope[item]

	require.NoError(t, json.Unmarshal([]byte(body), &page))
	assert.Equal(t, "https://erp.example.com/api/v1/items", page.Meta.Href)
	assert.Equal(t, "Alpha", page.Items[0].Title)
	assert.Equal(t, 3, page.TotalCount)
	assert.True(t, page.HasNext())
	assert.Nil(t, page.Previous)
	require.NoError(t, page.Consistent())
}

func TestEntity(t *testing.T) {
	t.Parallel()

	entity := logo.Entity{Name: "items", Path: "items/", Fields: logo.FieldMap{"code": "CODE"}}

	assert.Equal(t, "CODE", entity.FieldNameOf("code"))
	assert.Equal(t, "other", entity.FieldNameOf("other"))
	assert.Equal(t, "items/A%20B", entity.ResourcePath("A B"))

	var empty logo.FieldMap
	assert.Equal(t, "code", empty.FieldNameOf("code"))
}

func TestEntityRegistry(t *testing.T) {
	t.Parallel()

	registry, err := logo.NewEntityRegistry(
		logo.Entity{Name: "items", Path: "/items"},
		logo.Entity{Name: "arps", Path: "/Arps"},
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"arps", "items"}, registry.Names())

	entity, err := registry.Lookup("arps")
	require.NoError(t, err)
	assert.Equal(t, "/Arps", entity.Path)

	_, err = registry.Lookup("orders")
	require.ErrorIs(t, err, logo.ErrEntityNotFound)

	err = registry.Register(logo.Entity{Name: "items"})
	require.ErrorIs(t, err, logo.ErrEntityExists)

	_, err = logo.NewEntityRegistry(logo.Entity{Name: "x"}, logo.Entity{Name: "x"})
	require.ErrorIs(t, err, logo.ErrEntityExists)

	var zero logo.EntityRegistry
	require.NoError(t, zero.Register(logo.Entity{Name: "late"}))
}

func TestEntityRegistry_Concurrent(t *testing.T) {
	t.Parallel()

	registry, err := logo.NewEntityRegistry()
	require.NoError(t, err)

	var wg sync.WaitGroup

	for i := range 20 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_ = registry.Register(logo.Entity{Name: string(rune('a' + i))})
			_ = registry.Names()
		}()
	}

	wg.Wait()
	assert.Len(t, registry.Names(), 20)
}

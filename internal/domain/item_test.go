package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMenuFromMap_SortsByName(t *testing.T) {
	menu := MenuFromMap(map[string]MenuLine{
		"Trà đá":  {Name: "Trà đá", Price: 5000},
		"Bún chả": {Name: "Bún chả", Price: 40000},
		"Nem":     {Name: "Nem", Price: 30000},
	})

	require.Len(t, menu, 3)
	assert.Equal(t, "Bún chả", menu[0].Name)
	assert.Equal(t, "Nem", menu[1].Name)
	assert.Equal(t, "Trà đá", menu[2].Name)
}

func TestItemDetail_JSONLayout(t *testing.T) {
	detail := ItemDetail{
		ID: "abc",
		ItemBody: ItemBody{
			Name:    "Cơm Nhà",
			Address: "1 A - B",
			Menu:    []MenuLine{{Name: "x", Price: 1, Desc: EmptyDescription}},
		},
	}

	raw, err := json.Marshal(detail)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, "abc", fields["id"])
	assert.Equal(t, "Cơm Nhà", fields["name"])
	assert.Contains(t, fields, "menu")

	body, err := json.Marshal(detail.ItemBody)
	require.NoError(t, err)
	assert.NotContains(t, string(body), `"id"`)
}

func TestCategoryRefs(t *testing.T) {
	refs := CategoryRefs(3)
	assert.Equal(t, []CategoryRef{1, 2, 3}, refs)
	assert.Equal(t, "category#2", refs[1].String())
	assert.Empty(t, CategoryRefs(0))
}
